package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/projectdesk/internal/apperror"
	"github.com/sakif/projectdesk/internal/auth"
	"github.com/sakif/projectdesk/internal/model"
	sqliteRepo "github.com/sakif/projectdesk/internal/repository/sqlite"
)

func newTestAuthService(t *testing.T) (*AuthService, *sqliteRepo.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewAuthService(db, testTokens(t), testPasswords(), testLogger()), db
}

func TestLogin_TokenCarriesStoredIdentity(t *testing.T) {
	svc, db := newTestAuthService(t)
	user := seedUser(t, db, "ana@example.com", "ana", "s3cret", "ROLE_ADMIN")

	res, err := svc.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "s3cret"})
	require.NoError(t, err)

	assert.Equal(t, model.UserSummary{
		ID: user.ID, Email: "ana@example.com", Username: "ana", Roles: []string{"ROLE_ADMIN"},
	}, res.User)

	p, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, p.UserID)
	assert.Equal(t, "ana", p.Username)
	assert.True(t, p.HasRole("ROLE_ADMIN"))
}

func TestLogin_InvalidCredentialsDoNotLeakWhichField(t *testing.T) {
	svc, db := newTestAuthService(t)
	seedUser(t, db, "ana@example.com", "ana", "s3cret")

	_, wrongPassword := svc.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "nope"})
	_, unknownEmail := svc.Login(context.Background(), LoginInput{Email: "ghost@example.com", Password: "s3cret"})

	assertCode(t, wrongPassword, apperror.CodeInvalidCredentials)
	assertCode(t, unknownEmail, apperror.CodeInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	assert.ErrorIs(t, wrongPassword, apperror.ErrUnauthorized)
}

func TestLogin_MissingFields(t *testing.T) {
	svc, _ := newTestAuthService(t)

	for _, in := range []LoginInput{
		{},
		{Email: "ana@example.com"},
		{Password: "x"},
		{Email: "   ", Password: "x"},
	} {
		_, err := svc.Login(context.Background(), in)
		assertCode(t, err, apperror.CodeMissingFields)
	}
}

func TestLogin_AssignsAndPersistsDefaultRole(t *testing.T) {
	svc, db := newTestAuthService(t)
	user := seedUser(t, db, "bare@example.com", "bare", "pw")

	res, err := svc.Login(context.Background(), LoginInput{Email: "bare@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, []string{model.DefaultRole}, res.User.Roles)

	stored, err := db.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{model.DefaultRole}, stored.Roles)
}

func TestLogin_CorruptHashIsInvalidCredentials(t *testing.T) {
	svc, db := newTestAuthService(t)
	require.NoError(t, db.CreateUser(context.Background(), &model.User{
		Email: "broken@example.com", Username: "broken", PasswordHash: "not-bcrypt",
	}))

	_, err := svc.Login(context.Background(), LoginInput{Email: "broken@example.com", Password: "pw"})
	assertCode(t, err, apperror.CodeInvalidCredentials)
}

func TestLoginGitHub(t *testing.T) {
	svc, db := newTestAuthService(t)
	user := seedUser(t, db, "octo@example.com", "octo", "pw", "ROLE_USER")

	res, err := svc.LoginGitHub(context.Background(), &auth.GitHubUser{ID: 1, Login: "octocat", Email: "octo@example.com"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.User.ID)
	assert.NotEmpty(t, res.Token)

	_, err = svc.LoginGitHub(context.Background(), &auth.GitHubUser{ID: 2, Login: "stranger", Email: "stranger@example.com"})
	assertCode(t, err, apperror.CodeInvalidCredentials)

	_, err = svc.LoginGitHub(context.Background(), &auth.GitHubUser{ID: 3, Login: "hidden"})
	assertCode(t, err, apperror.CodeInvalidCredentials)
}

func TestValidateToken_Rejects(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.ValidateToken("garbage")
	assert.Error(t, err)
}
