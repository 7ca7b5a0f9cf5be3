package services

import (
	"context"
	"testing"

	"coverhub/internal/adapters/persistence/models"
	"coverhub/internal/adapters/persistence/repositories"
	"coverhub/internal/config"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAuthFixture(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()

	db := openTestDB(t)
	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:           "test-access-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
	}

	svc := NewAuthService(
		db,
		repositories.NewUserRepository(db),
		repositories.NewRefreshTokenRepository(db),
		repositories.NewBrokerRepository(db),
		repositories.NewManagerRepository(db),
		repositories.NewPolicyHolderRepository(db),
		cfg,
	)
	return svc, db
}

func brokerRegistration(username string) *RegisterInput {
	return &RegisterInput{
		Username:      username,
		Email:         username + "@coverhub.test",
		Password:      "s3cret-pass",
		Role:          "BROKER",
		LicenseNumber: "LIC-" + username,
		AgencyName:    "Test Agency",
	}
}

func TestRegister_CreatesPartyRow(t *testing.T) {
	svc, db := newAuthFixture(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, brokerRegistration("broker1"))
	require.NoError(t, err)

	require.Equal(t, "BROKER", resp.User.Role)
	require.NotZero(t, resp.PartyID)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)

	var broker models.Broker
	require.NoError(t, db.Where("license_number = ?", "LIC-broker1").First(&broker).Error)
	require.Equal(t, broker.ID, resp.PartyID)

	// The party row id travels inside the access token
	claims, err := svc.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, broker.ID, claims.PartyID)
	require.Equal(t, "BROKER", claims.Role)
}

func TestRegister_PolicyHolder(t *testing.T) {
	svc, db := newAuthFixture(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &RegisterInput{
		Username:  "holder1",
		Email:     "holder1@coverhub.test",
		Password:  "s3cret-pass",
		Role:      "POLICYHOLDER",
		FirstName: "Somchai",
		LastName:  "Jaidee",
		IDNumber:  "1103700000001",
	})
	require.NoError(t, err)

	var holder models.PolicyHolder
	require.NoError(t, db.Where("id_number = ?", "1103700000001").First(&holder).Error)
	require.Equal(t, holder.ID, resp.PartyID)
	require.NotNil(t, holder.UserID)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, brokerRegistration("broker1"))
	require.NoError(t, err)

	dup := brokerRegistration("broker1")
	dup.Email = "different@coverhub.test"
	dup.LicenseNumber = "LIC-different"
	_, err = svc.Register(ctx, dup)
	require.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestRegister_AdminRoleRefused(t *testing.T) {
	svc, _ := newAuthFixture(t)

	input := brokerRegistration("sneaky")
	input.Role = "ADMIN"
	_, err := svc.Register(context.Background(), input)
	require.ErrorIs(t, err, ErrInvalidRole)
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, brokerRegistration("broker1"))
	require.NoError(t, err)

	resp, err := svc.Login(ctx, &LoginInput{Username: "broker1", Password: "s3cret-pass"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.NotZero(t, resp.PartyID)

	_, err = svc.Login(ctx, &LoginInput{Username: "broker1", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, &LoginInput{Username: "nobody", Password: "whatever"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_InactiveUser(t *testing.T) {
	svc, db := newAuthFixture(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, brokerRegistration("broker1"))
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.User{}).
		Where("id = ?", resp.User.ID).
		Update("is_active", false).Error)

	_, err = svc.Login(ctx, &LoginInput{Username: "broker1", Password: "s3cret-pass"})
	require.ErrorIs(t, err, ErrUserInactive)
}

func TestRefreshToken_RotatesOldToken(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, brokerRegistration("broker1"))
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(ctx, registered.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.AccessToken)
	require.NotEqual(t, registered.RefreshToken, refreshed.RefreshToken)

	// The exchanged token is dead
	_, err = svc.RefreshToken(ctx, registered.RefreshToken)
	require.ErrorIs(t, err, ErrTokenRevoked)

	// The new one still works
	_, err = svc.RefreshToken(ctx, refreshed.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshToken_Garbage(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.RefreshToken(context.Background(), "not-a-jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogout(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, brokerRegistration("broker1"))
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, registered.RefreshToken))

	_, err = svc.RefreshToken(ctx, registered.RefreshToken)
	require.ErrorIs(t, err, ErrTokenRevoked)
}

func TestLogoutAll(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, brokerRegistration("broker1"))
	require.NoError(t, err)
	loggedIn, err := svc.Login(ctx, &LoginInput{Username: "broker1", Password: "s3cret-pass"})
	require.NoError(t, err)

	require.NoError(t, svc.LogoutAll(ctx, registered.User.ID))

	_, err = svc.RefreshToken(ctx, registered.RefreshToken)
	require.ErrorIs(t, err, ErrTokenRevoked)
	_, err = svc.RefreshToken(ctx, loggedIn.RefreshToken)
	require.ErrorIs(t, err, ErrTokenRevoked)
}
