package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Expendadeur/nutrifix-sub002/internal/domain"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
)

func activeManager() *entity.User {
	return &entity.User{ID: "u-manager-2", Role: entity.RoleManager, DepartmentID: "2", Status: entity.StatusActive}
}

func TestIssueDecode_EveryMethod(t *testing.T) {
	s := testIssuer()
	user := activeManager()
	for _, m := range []entity.AuthMethod{entity.MethodPassword, entity.MethodMatricule, entity.MethodQR, entity.MethodBiometric} {
		t.Run(string(m), func(t *testing.T) {
			sess, err := s.Issue(user, m, entity.ClientWeb)
			require.NoError(t, err)

			claims, err := s.Decode(sess.Token)
			require.NoError(t, err)
			assert.Equal(t, user.ID, claims.SubjectID)
			assert.Equal(t, user.Role, claims.Role)
			assert.Equal(t, "2", claims.DepartmentID)
			assert.Equal(t, m, claims.Method)
			assert.NotEmpty(t, claims.TokenID)
		})
	}
}

func TestIssue_WindowsByClient(t *testing.T) {
	s := testIssuer()
	web, err := s.Issue(activeManager(), entity.MethodPassword, entity.ClientWeb)
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(24*time.Hour), web.ExpiresAt)

	mobile, err := s.Issue(activeManager(), entity.MethodBiometric, entity.ClientMobile)
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(7*24*time.Hour), mobile.ExpiresAt)

	unknown, err := s.Issue(activeManager(), entity.MethodPassword, "tv")
	require.NoError(t, err)
	assert.Equal(t, entity.ClientWeb, unknown.Client)
}

func TestDecode_ExpiredVsInvalid(t *testing.T) {
	s := testIssuer()
	sess, err := s.Issue(activeManager(), entity.MethodPassword, entity.ClientWeb)
	require.NoError(t, err)

	later := s.WithClock(func() time.Time { return testNow.Add(25 * time.Hour) })
	_, err = later.Decode(sess.Token)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)

	// Justo en expiresAt ya no es válido.
	atExpiry := s.WithClock(func() time.Time { return sess.ExpiresAt })
	_, err = atExpiry.Decode(sess.Token)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)

	for _, bad := range []string{"", "abc", sess.Token + "x", sess.Token[:20]} {
		_, err = s.Decode(bad)
		assert.ErrorIs(t, err, domain.ErrTokenInvalid, bad)
	}

	other := NewSessionIssuer(SessionConfig{Secret: "otro", Issuer: "nutrifix-test", WebTTL: time.Hour, MobileTTL: time.Hour}).
		WithClock(func() time.Time { return testNow })
	_, err = other.Decode(sess.Token)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestRefresh(t *testing.T) {
	s := testIssuer()
	user := activeManager()
	sess, err := s.Issue(user, entity.MethodMatricule, entity.ClientMobile)
	require.NoError(t, err)

	later := s.WithClock(func() time.Time { return testNow.Add(6 * 24 * time.Hour) })
	renewed, err := later.Refresh(sess.Token, user)
	require.NoError(t, err)
	assert.True(t, renewed.ExpiresAt.After(sess.ExpiresAt))
	assert.Equal(t, entity.MethodMatricule, renewed.Method)
	assert.Equal(t, entity.ClientMobile, renewed.Client)

	// Sin ventana de gracia.
	expired := s.WithClock(func() time.Time { return sess.ExpiresAt.Add(time.Second) })
	_, err = expired.Refresh(sess.Token, user)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)

	disabled := *user
	disabled.Status = entity.StatusDisabled
	_, err = s.Refresh(sess.Token, &disabled)
	assert.ErrorIs(t, err, domain.ErrAccountDisabled)

	_, err = s.Refresh(sess.Token, &entity.User{ID: "otro", Status: entity.StatusActive})
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}
