package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Errores devueltos por Parse. Un token expirado solo se reporta como ErrExpired
// cuando su firma y su estructura son correctas.
var (
	ErrInvalid = errors.New("jwt: token inválido")
	ErrExpired = errors.New("jwt: token expirado")
)

// Claims incluye los claims estándar JWT más los campos propios de la sesión.
// Role y DepartmentID viajan en el token para que el RBAC decida sin consultar la DB.
type Claims struct {
	jwt.RegisteredClaims
	UserID       string `json:"user_id"`
	Role         string `json:"role"`
	DepartmentID string `json:"department_id,omitempty"`
	Method       string `json:"method"`
	Client       string `json:"client,omitempty"`
}

// Subject datos de identidad que se firman en el token.
type Subject struct {
	UserID       string
	Role         string
	DepartmentID string
	Method       string
	Client       string
}

// Generate firma un token HS256 válido en [issuedAt, issuedAt+ttl).
func Generate(secret, issuer string, sub Subject, issuedAt time.Time, ttl time.Duration) (string, *Claims, error) {
	if secret == "" {
		return "", nil, fmt.Errorf("jwt: secret vacío")
	}
	if ttl <= 0 {
		return "", nil, fmt.Errorf("jwt: ttl debe ser positivo")
	}
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   sub.UserID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
		UserID:       sub.UserID,
		Role:         sub.Role,
		DepartmentID: sub.DepartmentID,
		Method:       sub.Method,
		Client:       sub.Client,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", nil, fmt.Errorf("jwt: firmar token: %w", err)
	}
	return signed, claims, nil
}

// Parse valida firma, estructura y expiración respecto a now.
// Devuelve ErrExpired para un token bien formado pero vencido y ErrInvalid para todo lo demás.
func Parse(secret, issuer, tokenString string, now time.Time) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	claims := &Claims{}
	token, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		// La firma se verifica antes que los claims: ErrTokenExpired implica firma válida.
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !token.Valid {
		return nil, ErrInvalid
	}
	if claims.UserID == "" || claims.Role == "" || claims.IssuedAt == nil {
		return nil, fmt.Errorf("%w: claims incompletos", ErrInvalid)
	}
	if !claims.ExpiresAt.After(claims.IssuedAt.Time) {
		return nil, fmt.Errorf("%w: exp <= iat", ErrInvalid)
	}
	return claims, nil
}
