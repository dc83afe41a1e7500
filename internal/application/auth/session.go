package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/Expendadeur/nutrifix-sub002/internal/domain"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
	"github.com/Expendadeur/nutrifix-sub002/pkg/jwt"
)

// SessionConfig configuración para la emisión de tokens.
type SessionConfig struct {
	Secret    string
	Issuer    string
	WebTTL    time.Duration
	MobileTTL time.Duration
}

// SessionIssuer emite y decodifica sesiones firmadas. No guarda estado: no hay revocación,
// una sesión solo termina al expirar o cuando el cliente la descarta.
type SessionIssuer struct {
	cfg SessionConfig
	now func() time.Time
}

// NewSessionIssuer construye el emisor.
func NewSessionIssuer(cfg SessionConfig) *SessionIssuer {
	return &SessionIssuer{cfg: cfg, now: time.Now}
}

// WithClock devuelve una copia del emisor con otro reloj (tests).
func (s *SessionIssuer) WithClock(now func() time.Time) *SessionIssuer {
	cp := *s
	cp.now = now
	return &cp
}

func (s *SessionIssuer) ttl(client entity.ClientKind) time.Duration {
	if client == entity.ClientMobile {
		return s.cfg.MobileTTL
	}
	return s.cfg.WebTTL
}

// Issue emite la sesión de un usuario ya validado. Solo falla por mala configuración.
func (s *SessionIssuer) Issue(user *entity.User, method entity.AuthMethod, client entity.ClientKind) (entity.Session, error) {
	if user == nil {
		return entity.Session{}, fmt.Errorf("session: usuario nil")
	}
	if client != entity.ClientMobile {
		client = entity.ClientWeb
	}
	issuedAt := s.now().UTC().Truncate(time.Second)
	token, claims, err := jwt.Generate(s.cfg.Secret, s.cfg.Issuer, jwt.Subject{
		UserID:       user.ID,
		Role:         user.Role,
		DepartmentID: user.DepartmentID,
		Method:       string(method),
		Client:       string(client),
	}, issuedAt, s.ttl(client))
	if err != nil {
		return entity.Session{}, err
	}
	return entity.Session{
		Token:        token,
		SubjectID:    user.ID,
		Role:         user.Role,
		DepartmentID: user.DepartmentID,
		Method:       method,
		Client:       client,
		IssuedAt:     claims.IssuedAt.Time,
		ExpiresAt:    claims.ExpiresAt.Time,
	}, nil
}

// Decode verifica el token. Devuelve domain.ErrTokenExpired para un token bien formado
// y vencido, y domain.ErrTokenInvalid para uno malformado o alterado.
func (s *SessionIssuer) Decode(token string) (entity.Claims, error) {
	if token == "" {
		return entity.Claims{}, domain.ErrTokenInvalid
	}
	c, err := jwt.Parse(s.cfg.Secret, s.cfg.Issuer, token, s.now())
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return entity.Claims{}, domain.ErrTokenExpired
		}
		return entity.Claims{}, domain.ErrTokenInvalid
	}
	method := entity.AuthMethod(c.Method)
	if !method.Valid() {
		return entity.Claims{}, domain.ErrTokenInvalid
	}
	return entity.Claims{
		SubjectID:    c.UserID,
		Role:         c.Role,
		DepartmentID: c.DepartmentID,
		Method:       method,
		Client:       entity.ClientKind(c.Client),
		TokenID:      c.ID,
		IssuedAt:     c.IssuedAt.Time,
		ExpiresAt:    c.ExpiresAt.Time,
	}, nil
}

// Refresh emite una sesión nueva mientras now < expiresAt, sin ventana de gracia.
// user es el registro actual del titular; una cuenta desactivada no renueva.
func (s *SessionIssuer) Refresh(token string, user *entity.User) (entity.Session, error) {
	claims, err := s.Decode(token)
	if err != nil {
		return entity.Session{}, err
	}
	if user == nil || user.ID != claims.SubjectID {
		return entity.Session{}, domain.ErrTokenInvalid
	}
	if !user.IsActive() {
		return entity.Session{}, domain.ErrAccountDisabled
	}
	return s.Issue(user, claims.Method, claims.Client)
}
