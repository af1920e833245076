package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/spt-web/internal/models"
	"github.com/noah-isme/spt-web/internal/session"
	appErrors "github.com/noah-isme/spt-web/pkg/errors"
)

type fakeAuthGateway struct {
	token       string
	loginErr    error
	registerErr error
	loginCalls  int
}

func (f *fakeAuthGateway) Login(ctx context.Context, creds models.Credentials) (string, error) {
	f.loginCalls++
	return f.token, f.loginErr
}

func (f *fakeAuthGateway) Register(ctx context.Context, reg models.Registration) error {
	return f.registerErr
}

type fakeDropper struct {
	cleared []string
}

func (f *fakeDropper) Clear(sessionID string) {
	f.cleared = append(f.cleared, sessionID)
}

func TestAuthServiceLoginStoresToken(t *testing.T) {
	tokens := session.NewMemoryStore(time.Hour)
	svc := NewAuthService(&fakeAuthGateway{token: "tok-1"}, tokens, &fakeDropper{}, validator.New(), zap.NewNop())

	err := svc.Login(context.Background(), "sess", models.Credentials{Username: "amy", Password: "pw"})
	require.NoError(t, err)

	stored, err := tokens.Get(context.Background(), "sess")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", stored)
	assert.True(t, svc.Active(context.Background(), "sess"))
}

func TestAuthServiceLoginRejectedLeavesSessionUntouched(t *testing.T) {
	tokens := session.NewMemoryStore(time.Hour)
	require.NoError(t, tokens.Set(context.Background(), "sess", "existing"))

	gateway := &fakeAuthGateway{loginErr: errors.New("401")}
	svc := NewAuthService(gateway, tokens, &fakeDropper{}, validator.New(), zap.NewNop())

	err := svc.Login(context.Background(), "sess", models.Credentials{Username: "amy", Password: "bad"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	stored, getErr := tokens.Get(context.Background(), "sess")
	require.NoError(t, getErr)
	assert.Equal(t, "existing", stored)
}

func TestAuthServiceLoginValidationSkipsGateway(t *testing.T) {
	gateway := &fakeAuthGateway{token: "tok"}
	svc := NewAuthService(gateway, session.NewMemoryStore(time.Hour), &fakeDropper{}, validator.New(), zap.NewNop())

	err := svc.Login(context.Background(), "sess", models.Credentials{Username: "", Password: "pw"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, gateway.loginCalls)
}

func TestAuthServiceRegisterDoesNotAuthenticate(t *testing.T) {
	tokens := session.NewMemoryStore(time.Hour)
	svc := NewAuthService(&fakeAuthGateway{}, tokens, &fakeDropper{}, validator.New(), zap.NewNop())

	err := svc.Register(context.Background(), models.Registration{Name: "Amy", Username: "amy", Password: "pw"})
	require.NoError(t, err)
	assert.False(t, svc.Active(context.Background(), "sess"))
}

func TestAuthServiceLogoutClearsTokenAndSnapshot(t *testing.T) {
	tokens := session.NewMemoryStore(time.Hour)
	require.NoError(t, tokens.Set(context.Background(), "sess", "tok"))
	dropper := &fakeDropper{}
	svc := NewAuthService(&fakeAuthGateway{}, tokens, dropper, validator.New(), zap.NewNop())

	require.NoError(t, svc.Logout(context.Background(), "sess"))

	_, err := tokens.Get(context.Background(), "sess")
	assert.ErrorIs(t, err, session.ErrNoSession)
	assert.Contains(t, dropper.cleared, "sess")
	assert.False(t, svc.Active(context.Background(), "sess"))
}
