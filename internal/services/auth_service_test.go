package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/dto"
	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/models"
)

func register(t *testing.T, env *testEnv, email, password string) *dto.AuthResponse {
	t.Helper()
	resp, err := env.auth.Register(context.Background(), &dto.RegisterRequest{
		Name: "Sam", Email: email, Password: password,
	})
	require.NoError(t, err)
	return resp
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	resp := register(t, env, "  Sam@Example.com ", "password123")
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "sam@example.com", resp.User.Email)
	assert.Equal(t, models.ProviderEmail, resp.User.Provider)
	assert.False(t, resp.User.Onboarded)
	assert.False(t, resp.User.IsGuest)

	_, err := env.auth.Register(context.Background(), &dto.RegisterRequest{
		Email: "sam@example.com", Password: "password456",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegister_DefaultsNameFromEmail(t *testing.T) {
	env := newTestEnv(t)
	resp, err := env.auth.Register(context.Background(), &dto.RegisterRequest{
		Email: "alex@example.com", Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, "alex", resp.User.Name)
}

func TestAccessTokenClaims(t *testing.T) {
	env := newTestEnv(t)
	resp := register(t, env, "sam@example.com", "password123")

	parsed, err := jwt.Parse(resp.AccessToken, func(*jwt.Token) (interface{}, error) {
		return []byte(env.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(env.clock.Now))
	require.NoError(t, err)

	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, resp.User.ID.String(), claims["sub"])
	assert.Equal(t, "sam@example.com", claims["email"])
	assert.Equal(t, false, claims["guest"])
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	register(t, env, "sam@example.com", "password123")
	ctx := context.Background()

	resp, err := env.auth.Login(ctx, &dto.LoginRequest{Email: "SAM@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "sam@example.com", resp.User.Email)

	_, err = env.auth.Login(ctx, &dto.LoginRequest{Email: "sam@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.auth.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_GuestHasNoPassword(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.guest.LoginDefault(context.Background())
	require.NoError(t, err)

	_, err = env.auth.Login(context.Background(), &dto.LoginRequest{Email: GuestEmail, Password: ""})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefresh_RotatesToken(t *testing.T) {
	env := newTestEnv(t)
	first := register(t, env, "sam@example.com", "password123")
	ctx := context.Background()

	second, err := env.auth.Refresh(ctx, &dto.RefreshRequest{RefreshToken: first.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, first.User.ID, second.User.ID)

	// The old token is single use.
	_, err = env.auth.Refresh(ctx, &dto.RefreshRequest{RefreshToken: first.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh_Expired(t *testing.T) {
	env := newTestEnv(t)
	resp := register(t, env, "sam@example.com", "password123")

	env.clock.Advance(env.cfg.JWTRefreshExpiry + time.Minute)

	_, err := env.auth.Refresh(context.Background(), &dto.RefreshRequest{RefreshToken: resp.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	resp := register(t, env, "sam@example.com", "password123")
	ctx := context.Background()

	require.NoError(t, env.auth.Logout(ctx, &dto.LogoutRequest{RefreshToken: resp.RefreshToken}))

	_, err := env.auth.Refresh(ctx, &dto.RefreshRequest{RefreshToken: resp.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDeleteAccount(t *testing.T) {
	env := newTestEnv(t)
	resp := register(t, env, "sam@example.com", "password123")
	ctx := context.Background()
	userID := resp.User.ID

	_, err := env.sessions.AddDrink(ctx, userID, "BEER", 330, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, env.auth.DeleteAccount(ctx, userID, ""), ErrPasswordRequired)
	assert.ErrorIs(t, env.auth.DeleteAccount(ctx, userID, "wrong"), ErrInvalidCredentials)

	require.NoError(t, env.auth.DeleteAccount(ctx, userID, "password123"))
	assert.Equal(t, 0, env.mem.SessionCount())

	assert.ErrorIs(t, env.auth.DeleteAccount(ctx, userID, "password123"), ErrUserNotFound)
	assert.ErrorIs(t, env.auth.DeleteAccount(ctx, uuid.New(), "x"), ErrUserNotFound)
}

func TestDeleteAccount_GuestRefused(t *testing.T) {
	env := newTestEnv(t)
	resp, err := env.guest.LoginDefault(context.Background())
	require.NoError(t, err)

	err = env.auth.DeleteAccount(context.Background(), resp.User.ID, "demo")
	assert.ErrorIs(t, err, ErrGuestAccount)
}

func TestRegister_RepositoryFailure(t *testing.T) {
	env := newTestEnv(t)
	env.mem.FailWith = errors.New("connection refused")

	_, err := env.auth.Register(context.Background(), &dto.RegisterRequest{
		Email: "sam@example.com", Password: "password123",
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmailTaken)
}
