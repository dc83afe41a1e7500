// Package qrcode codifica y decodifica el contenido de los códigos QR de las credenciales
// de empleado. El contenido es un JWT compacto HS256 con audiencia propia, de modo que
// un token de sesión nunca es aceptado como QR ni al revés.
package qrcode

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Audience identifica los tokens de QR.
const Audience = "nutrifix-qr"

// ErrMalformed contenido ilegible, mal firmado o sin los campos obligatorios.
var ErrMalformed = errors.New("qrcode: contenido inválido")

// Payload datos embebidos en el QR.
type Payload struct {
	UserID   string
	IssuedAt time.Time
	Nonce    string
}

type qrClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

// Encode firma un payload para userID emitido en issuedAt.
func Encode(secret, userID string, issuedAt time.Time) (string, Payload, error) {
	if secret == "" {
		return "", Payload{}, fmt.Errorf("qrcode: secret vacío")
	}
	if userID == "" {
		return "", Payload{}, fmt.Errorf("qrcode: userID vacío")
	}
	p := Payload{UserID: userID, IssuedAt: issuedAt.Truncate(time.Second), Nonce: uuid.NewString()}
	claims := qrClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       p.Nonce,
			Subject:  userID,
			Audience: jwt.ClaimStrings{Audience},
			IssuedAt: jwt.NewNumericDate(p.IssuedAt),
		},
		UserID: userID,
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", Payload{}, fmt.Errorf("qrcode: firmar: %w", err)
	}
	return s, p, nil
}

// Decode verifica la firma y extrae el payload. La frescura la decide quien llama.
func Decode(secret, raw string) (Payload, error) {
	if secret == "" {
		return Payload{}, fmt.Errorf("qrcode: secret vacío")
	}
	claims := &qrClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(Audience),
	)
	_, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if claims.UserID == "" || claims.IssuedAt == nil {
		return Payload{}, ErrMalformed
	}
	return Payload{
		UserID:   claims.UserID,
		IssuedAt: claims.IssuedAt.Time,
		Nonce:    claims.ID,
	}, nil
}
