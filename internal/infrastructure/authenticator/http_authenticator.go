// Package authenticator delega la verificación criptográfica de aserciones biométricas
// (WebAuthn en web, biometría de plataforma en móvil) en un servicio externo.
package authenticator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Expendadeur/nutrifix-sub002/internal/domain"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/repository"
)

var _ repository.Authenticator = (*HTTPAuthenticator)(nil)

// HTTPAuthenticator llama a POST {baseURL}/verify con la credencial registrada y la aserción.
type HTTPAuthenticator struct {
	verifyURL  string
	apiKey     string
	httpClient *http.Client
}

// New construye el adaptador. timeout <= 0 usa 5 s.
func New(baseURL, apiKey string, timeout time.Duration) *HTTPAuthenticator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPAuthenticator{
		verifyURL:  strings.TrimRight(baseURL, "/") + "/verify",
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type verifyRequest struct {
	CredentialID      string `json:"credential_id"`
	PublicKey         string `json:"public_key"`
	Signature         string `json:"signature"`
	AuthenticatorData string `json:"authenticator_data"`
	ClientData        string `json:"client_data,omitempty"`
}

type verifyResponse struct {
	Verified bool   `json:"verified"`
	Error    string `json:"error,omitempty"`
}

// Verify devuelve el veredicto del servicio. Un 4xx es una aserción rechazada
// (domain.ErrInvalidCredentials); un 5xx o un fallo de red es un error de infraestructura.
func (a *HTTPAuthenticator) Verify(ctx context.Context, cred *entity.BiometricCredential, assertion entity.BiometricProof) (bool, error) {
	body, err := json.Marshal(verifyRequest{
		CredentialID:      cred.ID,
		PublicKey:         cred.PublicKey,
		Signature:         assertion.Signature,
		AuthenticatorData: assertion.AuthenticatorData,
		ClientData:        assertion.ClientData,
	})
	if err != nil {
		return false, fmt.Errorf("authenticator: serializar request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.verifyURL, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("authenticator: crear HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, fmt.Errorf("authenticator: timeout o cancelación: %w", ctx.Err())
		}
		return false, fmt.Errorf("authenticator: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
	if err != nil {
		return false, fmt.Errorf("authenticator: leer respuesta: %w", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return false, fmt.Errorf("authenticator: HTTP %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return false, fmt.Errorf("%w: aserción rechazada (HTTP %d)", domain.ErrInvalidCredentials, resp.StatusCode)
	}

	var out verifyResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return false, fmt.Errorf("authenticator: deserializar respuesta: %w", err)
	}
	return out.Verified, nil
}
