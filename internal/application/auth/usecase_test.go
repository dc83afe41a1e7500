package auth

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Expendadeur/nutrifix-sub002/internal/application/dto"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
)

var meta = dto.RequestMeta{SourceIP: "10.0.0.7", UserAgent: "test"}

func TestProofFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		in      dto.LoginRequest
		want    entity.AuthMethod
		wantErr bool
	}{
		{"identifier", dto.LoginRequest{Identifier: "a@b.bi", Password: "x"}, entity.MethodPassword, false},
		{"matricule", dto.LoginRequest{Matricule: "CH001", Password: "x"}, entity.MethodMatricule, false},
		{"qr", dto.LoginRequest{QRPayload: "p"}, entity.MethodQR, false},
		{"biometric", dto.LoginRequest{BiometricAssertion: &dto.BiometricAssertionDTO{CredentialID: "c"}}, entity.MethodBiometric, false},
		{"ninguna", dto.LoginRequest{Password: "x"}, "", true},
		{"dos pruebas", dto.LoginRequest{Identifier: "a@b.bi", QRPayload: "p", Password: "x"}, "", true},
		{"sin password", dto.LoginRequest{Matricule: "CH001"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ProofFromRequest(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Method())
		})
	}
}

func TestLogin_MatriculeSuccess(t *testing.T) {
	f := newFixture(t)
	out, err := f.uc.Login(context.Background(), dto.LoginRequest{Matricule: "CH001", Password: testPassword}, meta)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, entity.RoleChauffeur, out.User.Role)
	assert.Equal(t, string(entity.MethodMatricule), out.Method)

	entries := f.audit.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "LOGIN", entries[0].Action)
	assert.Equal(t, "u-chauffeur", entries[0].ActorID)
	assert.Equal(t, "10.0.0.7", entries[0].SourceIP)
}

func TestLogin_IdentifierIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	out, err := f.uc.Login(context.Background(), dto.LoginRequest{Identifier: " Manager2@Nutrifix.BI ", Password: testPassword}, meta)
	require.NoError(t, err)
	assert.Equal(t, "u-manager-2", out.User.ID)

	out, err = f.uc.Login(context.Background(), dto.LoginRequest{Identifier: "ch001", Password: testPassword}, meta)
	require.NoError(t, err, "el identificador acepta matrícula")
	assert.Equal(t, "u-chauffeur", out.User.ID)
}

func TestLogin_WrongPasswordIsNeverAudited(t *testing.T) {
	f := newFixture(t)
	const attempt = "Wr0ngP@ss!"
	_, err := f.uc.Login(context.Background(), dto.LoginRequest{Matricule: "CH001", Password: attempt}, meta)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	entries := f.audit.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "LOGIN_FAILED", entries[0].Action)
	assert.Equal(t, entity.SeverityWarning, entries[0].Severity)
	for _, e := range entries {
		assert.NotContains(t, e.Action, attempt)
		assert.NotContains(t, fmt.Sprint(e.Details), attempt)
	}
}

func TestLogin_UnknownAccountNotAudited(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Login(context.Background(), dto.LoginRequest{Identifier: "ghost@nutrifix.bi", Password: "x"}, meta)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.Empty(t, f.audit.all())
}

func TestLogin_DisabledAccount(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Login(context.Background(), dto.LoginRequest{Matricule: "EMP099", Password: testPassword}, meta)
	assert.ErrorIs(t, err, domain.ErrAccountDisabled)
}

func TestLogin_CancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.uc.Login(ctx, dto.LoginRequest{Matricule: "CH001", Password: testPassword}, meta)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.audit.all(), "sin sesión no hay auditoría de login")
}

func TestIssueQRThenLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	manager := entity.Claims{SubjectID: "u-manager-2", Role: entity.RoleManager, DepartmentID: "2"}

	badge, err := f.uc.IssueQR(ctx, manager, "u-chauffeur", meta)
	require.NoError(t, err)
	assert.Equal(t, "u-chauffeur", badge.UserID)

	out, err := f.uc.Login(ctx, dto.LoginRequest{QRPayload: badge.Payload, Client: "mobile"}, meta)
	require.NoError(t, err)
	assert.Equal(t, "u-chauffeur", out.User.ID)
	assert.Equal(t, string(entity.MethodQR), out.Method)

	actions := []string{}
	for _, e := range f.audit.all() {
		actions = append(actions, e.Action)
		assert.False(t, strings.Contains(fmt.Sprint(e.Details), badge.Payload), "el QR no se audita")
	}
	assert.Equal(t, []string{"QR_ISSUED", "LOGIN"}, actions)
}

func TestIssueQR_Permissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := entity.Claims{SubjectID: "u-manager-5", Role: entity.RoleManager, DepartmentID: "5"}
	_, err := f.uc.IssueQR(ctx, other, "u-chauffeur", meta)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	admin := entity.Claims{SubjectID: "u-admin", Role: entity.RoleAdmin}
	_, err = f.uc.IssueQR(ctx, admin, "u-ghost", meta)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.IssueQR(ctx, admin, "u-off", meta)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// El emisor desactivado tampoco puede emitir.
	_, err = f.uc.IssueQR(ctx, entity.Claims{SubjectID: "u-off", Role: entity.RoleManager, DepartmentID: "2"}, "u-chauffeur", meta)
	assert.ErrorIs(t, err, domain.ErrAccountDisabled)
}

func TestRegisterBiometricThenLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claims := entity.Claims{SubjectID: "u-manager-2", Role: entity.RoleManager, DepartmentID: "2"}

	cred, err := f.uc.RegisterBiometric(ctx, claims, dto.RegisterBiometricRequest{CredentialID: "cred-9", PublicKey: "pk", Label: "Pixel"}, meta)
	require.NoError(t, err)
	assert.Equal(t, "u-manager-2", cred.UserID)

	_, err = f.uc.RegisterBiometric(ctx, claims, dto.RegisterBiometricRequest{CredentialID: "cred-9", PublicKey: "pk"}, meta)
	assert.ErrorIs(t, err, domain.ErrCredentialDuplicate)

	out, err := f.uc.Login(ctx, dto.LoginRequest{BiometricAssertion: &dto.BiometricAssertionDTO{
		CredentialID: "cred-9", Signature: "sig", AuthenticatorData: "ad",
	}}, meta)
	require.NoError(t, err)
	assert.Equal(t, "u-manager-2", out.User.ID)

	entries := f.audit.all()
	require.NotEmpty(t, entries)
	assert.Equal(t, "BIOMETRIC_REGISTERED", entries[0].Action)
	assert.Equal(t, "cred-9", entries[0].After["credential_id"])
}

func TestRefresh_RechecksAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out, err := f.uc.Login(ctx, dto.LoginRequest{Matricule: "CH001", Password: testPassword}, meta)
	require.NoError(t, err)

	renewed, err := f.uc.Refresh(ctx, out.Token)
	require.NoError(t, err)
	assert.NotEmpty(t, renewed.Token)

	u, _ := f.users.FindByID(ctx, "u-chauffeur")
	u.Status = entity.StatusDisabled
	f.users.Put(u)
	_, err = f.uc.Refresh(ctx, out.Token)
	assert.ErrorIs(t, err, domain.ErrAccountDisabled)

	_, err = f.uc.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me, err := f.uc.Me(ctx, entity.Claims{SubjectID: "u-admin", Role: entity.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "Aline", me.Name)

	_, err = f.uc.Me(ctx, entity.Claims{SubjectID: "u-ghost"})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}
