package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/sharehub/utils"
)

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	user, token, err := f.auth.Register(ctx, RegisterInput{Username: "alice", Email: " Alice@Example.com ", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "secret123", user.PasswordHash)
	assert.True(t, utils.CheckPassword(user.PasswordHash, "secret123"))

	claims, err := utils.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	logged, token2, err := f.auth.Login(ctx, "ALICE@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.NotEmpty(t, token2)
}

func TestRegisterDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.register(t, "alice")

	_, _, err := f.auth.Register(ctx, RegisterInput{Username: "other", Email: "alice@example.com", Password: "secret123"})
	requireKind(t, err, KindValidation)
	assert.Equal(t, "User already exists", err.(*Error).Message)

	_, _, err = f.auth.Register(ctx, RegisterInput{Username: "alice", Email: "new@example.com", Password: "secret123"})
	requireKind(t, err, KindValidation)

	n, _ := f.store.CountUsers(ctx)
	assert.EqualValues(t, 1, n)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	cases := []RegisterInput{
		{Username: "ab", Email: "a@b.io", Password: "secret123"},
		{Username: "abc", Email: "not-an-email", Password: "secret123"},
		{Username: "abc", Email: "a@b.io", Password: "123"},
	}
	for _, in := range cases {
		_, _, err := f.auth.Register(ctx, in)
		requireKind(t, err, KindValidation)
	}
}

func TestLoginFailuresLookTheSame(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.register(t, "alice")

	_, _, err1 := f.auth.Login(ctx, "alice@example.com", "wrong-password")
	_, _, err2 := f.auth.Login(ctx, "nobody@example.com", "secret123")
	requireKind(t, err1, KindValidation)
	requireKind(t, err2, KindValidation)
	assert.Equal(t, err1.Error(), err2.Error())
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	user := f.register(t, "alice")
	token, err := utils.GenerateToken(user.ID, user.Username, 0)
	require.NoError(t, err)

	got, err := f.auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = f.auth.Authenticate(ctx, "")
	requireKind(t, err, KindUnauthenticated)
	_, err = f.auth.Authenticate(ctx, "garbage")
	requireKind(t, err, KindUnauthenticated)

	ghost, err := utils.GenerateToken("ghost", "ghost", 0)
	require.NoError(t, err)
	_, err = f.auth.Authenticate(ctx, ghost)
	requireKind(t, err, KindUnauthenticated)
}

func TestLogoutRevokesToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	user := f.register(t, "alice")
	token, err := utils.GenerateToken(user.ID, user.Username, 0)
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(token))
	_, err = f.auth.Authenticate(ctx, token)
	requireKind(t, err, KindUnauthenticated)
}

func TestOAuthLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	u1, tok, err := f.auth.OAuthLogin(ctx, OAuthProfile{Provider: "github", ID: "42", Username: "Octo.Cat", AvatarURL: "https://img/a.png"})
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
	assert.Equal(t, "octo_cat", u1.Username)
	assert.Equal(t, "github+42@oauth.local", u1.Email)
	assert.Equal(t, "https://img/a.png", u1.ProfilePicture)

	u2, _, err := f.auth.OAuthLogin(ctx, OAuthProfile{Provider: "github", ID: "42", Username: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, u1.ID, u2.ID)

	// a second provider account with the same username gets a suffix
	u3, _, err := f.auth.OAuthLogin(ctx, OAuthProfile{Provider: "google", ID: "7", Username: "octo_cat", Email: "g@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "octo_cat_1", u3.Username)
}

func TestOAuthLoginLinksExistingEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	local := f.register(t, "alice")

	linked, _, err := f.auth.OAuthLogin(ctx, OAuthProfile{Provider: "google", ID: "g-1", Email: "ALICE@example.com", EmailVerified: true})
	require.NoError(t, err)
	assert.Equal(t, local.ID, linked.ID)
	assert.Equal(t, "google", linked.Provider)

	n, _ := f.store.CountUsers(ctx)
	assert.EqualValues(t, 1, n)
}

func TestOAuthLoginIgnoresUnverifiedEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	local := f.register(t, "alice")

	other, _, err := f.auth.OAuthLogin(ctx, OAuthProfile{Provider: "google", ID: "g-2", Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	assert.NotEqual(t, local.ID, other.ID)
	assert.Equal(t, "google+g-2@oauth.local", other.Email)
	assert.Equal(t, "alice_1", other.Username)

	kept, err := f.store.FindUserByID(ctx, local.ID)
	require.NoError(t, err)
	assert.Empty(t, kept.Provider)
	assert.Equal(t, "alice@example.com", kept.Email)

	n, _ := f.store.CountUsers(ctx)
	assert.EqualValues(t, 2, n)
}

func TestSanitizeUsername(t *testing.T) {
	assert.Equal(t, "john_doe", sanitizeUsername("John.Doe@example.com"))
	assert.Equal(t, "abc", sanitizeUsername("  a!b#c "))
	assert.Len(t, sanitizeUsername("abcdefghijklmnopqrstuvwxyz0123"), 24)
}
