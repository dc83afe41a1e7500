package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Expendadeur/nutrifix-sub002/internal/application/dto"
	"github.com/Expendadeur/nutrifix-sub002/internal/application/permission"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/repository"
	"github.com/Expendadeur/nutrifix-sub002/internal/infrastructure/metrics"
	"github.com/Expendadeur/nutrifix-sub002/pkg/logger"
	"github.com/Expendadeur/nutrifix-sub002/pkg/qrcode"
)

// Module nombre del módulo en las entradas de auditoría de este paquete.
const Module = "auth"

// AuditRecorder es lo que el caso de uso necesita de la auditoría.
type AuditRecorder interface {
	Dispatch(entry entity.AuditEntry)
}

// AuthUseCase casos de uso de autenticación: login con cualquier prueba, renovación,
// perfil propio, registro de biometría y emisión de QR de credencial.
type AuthUseCase struct {
	users    repository.UserDirectory
	creds    repository.CredentialRepository
	verifier *Verifier
	issuer   *SessionIssuer
	audit    AuditRecorder
	qrSecret string
	log      *logger.Logger
	now      func() time.Time
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(
	users repository.UserDirectory,
	creds repository.CredentialRepository,
	verifier *Verifier,
	issuer *SessionIssuer,
	audit AuditRecorder,
	qrSecret string,
	log *logger.Logger,
) *AuthUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthUseCase{
		users:    users,
		creds:    creds,
		verifier: verifier,
		issuer:   issuer,
		audit:    audit,
		qrSecret: qrSecret,
		log:      log.Component("auth"),
		now:      time.Now,
	}
}

// ProofFromRequest construye la prueba a partir de la petición. Debe venir exactamente una.
func ProofFromRequest(in dto.LoginRequest) (entity.Proof, error) {
	var proofs []entity.Proof
	if in.Identifier != "" {
		proofs = append(proofs, entity.PasswordProof{Identifier: in.Identifier, Password: in.Password})
	}
	if in.Matricule != "" {
		proofs = append(proofs, entity.MatriculeProof{Matricule: in.Matricule, Password: in.Password})
	}
	if in.QRPayload != "" {
		proofs = append(proofs, entity.QRProof{Payload: in.QRPayload})
	}
	if a := in.BiometricAssertion; a != nil {
		proofs = append(proofs, entity.BiometricProof{
			CredentialID:      a.CredentialID,
			Signature:         a.Signature,
			AuthenticatorData: a.AuthenticatorData,
			ClientData:        a.ClientData,
		})
	}
	if len(proofs) != 1 {
		return nil, fmt.Errorf("%w: se requiere exactamente una prueba de identidad", domain.ErrInvalidInput)
	}
	switch p := proofs[0].(type) {
	case entity.PasswordProof:
		if p.Password == "" {
			return nil, fmt.Errorf("%w: password requerido", domain.ErrInvalidInput)
		}
	case entity.MatriculeProof:
		if p.Password == "" {
			return nil, fmt.Errorf("%w: password requerido", domain.ErrInvalidInput)
		}
	}
	return proofs[0], nil
}

// Login verifica la prueba, emite la sesión y audita el resultado.
// Los fallos de credenciales devuelven ErrAccountNotFound, ErrAccountDisabled o
// ErrInvalidCredentials; el handler decide cómo presentarlos.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest, meta dto.RequestMeta) (*dto.LoginResponse, error) {
	proof, err := ProofFromRequest(in)
	if err != nil {
		return nil, err
	}
	method := proof.Method()

	user, resolved, err := uc.verify(ctx, proof)
	if err != nil {
		uc.loginFailed(method, resolved, err, meta)
		return nil, err
	}
	// Una petición cancelada antes de emitir no deja sesión a medias.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	session, err := uc.issuer.Issue(user, method, entity.ClientKind(in.Client))
	if err != nil {
		return nil, fmt.Errorf("emitir sesión: %w", err)
	}

	metrics.IncLogin(string(method), "success")
	uc.log.Info().Str("user_id", user.ID).Str("method", string(method)).Msg("login correcto")
	uc.record(entity.AuditEntry{
		ActorID:          user.ID,
		Module:           Module,
		Action:           "LOGIN",
		Details:          map[string]any{"method": string(method), "client": string(session.Client)},
		AffectedTable:    "users",
		AffectedRecordID: user.ID,
		Severity:         entity.SeverityInfo,
	}, meta)

	return &dto.LoginResponse{
		Success:   true,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		Method:    string(method),
		User:      *dto.ToUserResponse(user),
	}, nil
}

// verify despacha por tipo de prueba. resolved es el usuario identificado por la búsqueda
// de identificador (aunque la prueba falle) y solo sirve para atribuir la auditoría.
func (uc *AuthUseCase) verify(ctx context.Context, proof entity.Proof) (user, resolved *entity.User, err error) {
	switch p := proof.(type) {
	case entity.PasswordProof:
		resolved, err = uc.users.FindByIdentifier(ctx, NormalizeIdentifier(p.Identifier))
		if err != nil {
			return nil, nil, fmt.Errorf("buscar usuario: %w", err)
		}
		user, err = uc.verifier.VerifyPassword(resolved, p.Password)
	case entity.MatriculeProof:
		resolved, err = uc.users.FindByMatricule(ctx, NormalizeIdentifier(p.Matricule))
		if err != nil {
			return nil, nil, fmt.Errorf("buscar usuario: %w", err)
		}
		user, err = uc.verifier.VerifyPassword(resolved, p.Password)
	case entity.QRProof:
		user, err = uc.verifier.VerifyQR(ctx, p.Payload)
	case entity.BiometricProof:
		user, err = uc.verifier.VerifyBiometric(ctx, p.CredentialID, p)
	default:
		err = fmt.Errorf("%w: prueba desconocida %T", domain.ErrInvalidInput, proof)
	}
	return user, resolved, err
}

func (uc *AuthUseCase) loginFailed(method entity.AuthMethod, resolved *entity.User, err error, meta dto.RequestMeta) {
	reason := "error"
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		reason = "account_not_found"
	case errors.Is(err, domain.ErrAccountDisabled):
		reason = "account_disabled"
	case errors.Is(err, domain.ErrInvalidCredentials):
		reason = "invalid_credentials"
	}
	metrics.IncLogin(string(method), reason)
	ev := uc.log.Warn()
	if !domain.IsAuthFailure(err) {
		ev = uc.log.Error().Err(err)
	}
	ev.Str("method", string(method)).Str("reason", reason).Str("ip", meta.SourceIP).Msg("login rechazado")

	if resolved == nil {
		return
	}
	uc.record(entity.AuditEntry{
		ActorID:          resolved.ID,
		Module:           Module,
		Action:           "LOGIN_FAILED",
		Details:          map[string]any{"method": string(method), "reason": reason},
		AffectedTable:    "users",
		AffectedRecordID: resolved.ID,
		Severity:         entity.SeverityWarning,
	}, meta)
}

func (uc *AuthUseCase) record(e entity.AuditEntry, meta dto.RequestMeta) {
	if uc.audit == nil {
		return
	}
	e.SourceIP = meta.SourceIP
	e.UserAgent = meta.UserAgent
	uc.audit.Dispatch(e)
}

// Refresh renueva una sesión vigente re-comprobando que la cuenta siga activa.
func (uc *AuthUseCase) Refresh(ctx context.Context, token string) (*dto.LoginResponse, error) {
	claims, err := uc.issuer.Decode(token)
	if err != nil {
		return nil, err
	}
	user, err := uc.users.FindByID(ctx, claims.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("buscar usuario: %w", err)
	}
	if user == nil {
		return nil, domain.ErrTokenInvalid
	}
	session, err := uc.issuer.Refresh(token, user)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Success:   true,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		Method:    string(session.Method),
		User:      *dto.ToUserResponse(user),
	}, nil
}

// ActiveUser devuelve el usuario de las claims si su cuenta sigue activa.
// Es la re-comprobación de las operaciones sensibles.
func (uc *AuthUseCase) ActiveUser(ctx context.Context, claims entity.Claims) (*entity.User, error) {
	user, err := uc.users.FindByID(ctx, claims.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("buscar usuario: %w", err)
	}
	if user == nil {
		return nil, domain.ErrAccountNotFound
	}
	if !user.IsActive() {
		return nil, domain.ErrAccountDisabled
	}
	return user, nil
}

// Me devuelve el perfil del titular de la sesión.
func (uc *AuthUseCase) Me(ctx context.Context, claims entity.Claims) (*dto.UserResponse, error) {
	user, err := uc.ActiveUser(ctx, claims)
	if err != nil {
		return nil, err
	}
	return dto.ToUserResponse(user), nil
}

// RegisterBiometric vincula una credencial de plataforma a la cuenta del llamante.
func (uc *AuthUseCase) RegisterBiometric(ctx context.Context, claims entity.Claims, in dto.RegisterBiometricRequest, meta dto.RequestMeta) (*dto.BiometricCredentialResponse, error) {
	if uc.creds == nil {
		return nil, fmt.Errorf("biometría no configurada")
	}
	user, err := uc.ActiveUser(ctx, claims)
	if err != nil {
		return nil, err
	}
	cred := &entity.BiometricCredential{
		ID:        in.CredentialID,
		UserID:    user.ID,
		PublicKey: in.PublicKey,
		Label:     in.Label,
		CreatedAt: uc.now().UTC(),
	}
	if err := uc.creds.Register(ctx, cred); err != nil {
		return nil, err
	}
	uc.record(entity.AuditEntry{
		ActorID:          user.ID,
		Module:           Module,
		Action:           "BIOMETRIC_REGISTERED",
		Details:          map[string]any{"label": in.Label},
		AffectedTable:    "biometric_credentials",
		AffectedRecordID: cred.ID,
		After:            entity.Snapshot{"credential_id": cred.ID, "user_id": cred.UserID, "label": cred.Label},
		Severity:         entity.SeverityInfo,
	}, meta)
	return &dto.BiometricCredentialResponse{
		CredentialID: cred.ID,
		UserID:       cred.UserID,
		Label:        cred.Label,
		CreatedAt:    cred.CreatedAt,
	}, nil
}

// IssueQR firma el contenido del QR de credencial de userID. Lo pueden pedir un admin
// o el manager del departamento del empleado.
func (uc *AuthUseCase) IssueQR(ctx context.Context, claims entity.Claims, userID string, meta dto.RequestMeta) (*dto.QRBadgeResponse, error) {
	if _, err := uc.ActiveUser(ctx, claims); err != nil {
		return nil, err
	}
	target, err := uc.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("buscar usuario: %w", err)
	}
	if target == nil {
		return nil, domain.ErrNotFound
	}
	if err := permission.RequireDepartment(claims, target.DepartmentID); err != nil {
		return nil, err
	}
	if !target.IsActive() {
		return nil, fmt.Errorf("%w: la cuenta destino está desactivada", domain.ErrInvalidInput)
	}
	payload, p, err := qrcode.Encode(uc.qrSecret, target.ID, uc.now().UTC())
	if err != nil {
		return nil, err
	}
	uc.record(entity.AuditEntry{
		ActorID:          claims.SubjectID,
		Module:           Module,
		Action:           "QR_ISSUED",
		Details:          map[string]any{"target_user_id": target.ID},
		AffectedTable:    "users",
		AffectedRecordID: target.ID,
		Severity:         entity.SeverityInfo,
	}, meta)
	return &dto.QRBadgeResponse{UserID: target.ID, Payload: payload, IssuedAt: p.IssuedAt}, nil
}
