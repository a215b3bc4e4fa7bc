package auth

import (
	"context"
	"testing"
	"time"

	"shopino/internal/users"
	"shopino/pkg/tokens"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepository is an in-memory Repository for service tests.
type fakeRepository struct {
	byID map[string]*users.User
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{byID: make(map[string]*users.User)}
}

func (f *fakeRepository) CreateUser(_ context.Context, user *users.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	f.byID[user.ID.String()] = user
	return nil
}

func (f *fakeRepository) GetUserByEmail(_ context.Context, email string) (*users.User, error) {
	for _, user := range f.byID {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *fakeRepository) GetUserByID(_ context.Context, id string) (*users.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeRepository) EmailExists(_ context.Context, email string) (bool, error) {
	_, err := f.GetUserByEmail(context.Background(), email)
	return err == nil, nil
}

func (f *fakeRepository) SetRefreshTokenHash(_ context.Context, userID, hash string) error {
	user, ok := f.byID[userID]
	if !ok {
		return ErrUserNotFound
	}
	user.RefreshTokenHash = hash
	return nil
}

func (f *fakeRepository) ClearRefreshTokenHash(_ context.Context, userID string) error {
	return f.SetRefreshTokenHash(context.Background(), userID, "")
}

func (f *fakeRepository) IncrementTokenVersion(_ context.Context, userID string) error {
	user, ok := f.byID[userID]
	if !ok {
		return ErrUserNotFound
	}
	user.TokenVersion++
	user.RefreshTokenHash = ""
	return nil
}

func (f *fakeRepository) UpdateLastLogin(_ context.Context, userID string, at time.Time) error {
	user, ok := f.byID[userID]
	if !ok {
		return ErrUserNotFound
	}
	user.LastLoginAt = &at
	return nil
}

func testTokenIssuer() *tokens.Issuer {
	return tokens.NewIssuer(tokens.Config{
		Secret:     "service-test-secret",
		Issuer:     "shopino",
		Audience:   "shopino-storefront",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	})
}

func registerTestUser(t *testing.T, svc Service) (*AuthResponse, string) {
	t.Helper()
	resp, refreshToken, err := svc.Register(context.Background(), &RegisterRequest{
		FirstName: "Sara",
		LastName:  "Ahmadi",
		Email:     "sara@example.com",
		Password:  "Str0ng!Passw0rd",
	})
	require.NoError(t, err)
	return resp, refreshToken
}

func TestRegisterIssuesTokensAndStoresHash(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, testTokenIssuer())

	resp, refreshToken := registerTestUser(t, svc)

	assert.Equal(t, "sara@example.com", resp.User.Email)
	assert.Equal(t, "user", resp.User.Role)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, refreshToken)
	assert.Greater(t, resp.ExpiresIn, time.Now().Unix())

	stored := repo.byID[resp.User.ID]
	require.NotNil(t, stored)
	assert.Equal(t, 1, stored.TokenVersion)
	assert.Equal(t, hashToken(refreshToken), stored.RefreshTokenHash)
	assert.NotEqual(t, "Str0ng!Passw0rd", stored.Password, "password must be stored hashed")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, testTokenIssuer())

	registerTestUser(t, svc)

	_, _, err := svc.Register(context.Background(), &RegisterRequest{
		FirstName: "Other",
		LastName:  "Person",
		Email:     "SARA@example.com", // same address, different case
		Password:  "An0ther!Passw0rd",
	})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestLoginSuccess(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, testTokenIssuer())
	reg, firstRefresh := registerTestUser(t, svc)

	resp, refreshToken, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "sara@example.com",
		Password: "Str0ng!Passw0rd",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEqual(t, firstRefresh, refreshToken, "login must rotate the stored refresh token")

	stored := repo.byID[reg.User.ID]
	assert.Equal(t, hashToken(refreshToken), stored.RefreshTokenHash)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestLoginFailuresAreGeneric(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, testTokenIssuer())
	reg, _ := registerTestUser(t, svc)

	// Unknown email.
	_, _, err := svc.Login(context.Background(), &LoginRequest{Email: "nobody@example.com", Password: "whatever123!"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Wrong password.
	_, _, err = svc.Login(context.Background(), &LoginRequest{Email: "sara@example.com", Password: "Wrong!Passw0rd"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Inactive account.
	repo.byID[reg.User.ID].IsActive = false
	_, _, err = svc.Login(context.Background(), &LoginRequest{Email: "sara@example.com", Password: "Str0ng!Passw0rd"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRotatesToken(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, testTokenIssuer())
	_, refreshToken := registerTestUser(t, svc)

	resp, newRefresh, err := svc.Refresh(context.Background(), refreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEqual(t, refreshToken, newRefresh)

	// The rotated-out token no longer matches the stored hash.
	_, _, err = svc.Refresh(context.Background(), refreshToken)
	assert.ErrorIs(t, err, ErrRefreshInvalid)

	// The new one still works.
	_, _, err = svc.Refresh(context.Background(), newRefresh)
	assert.NoError(t, err)
}

func TestRefreshRejectsGarbage(t *testing.T) {
	svc := NewService(newFakeRepository(), testTokenIssuer())
	_, _, err := svc.Refresh(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrRefreshInvalid)
}

func TestTokenVersionInvalidation(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, testTokenIssuer())
	reg, refreshToken := registerTestUser(t, svc)

	// "Log out everywhere" bumps the version.
	require.NoError(t, svc.Logout(context.Background(), reg.User.ID, true))
	assert.Equal(t, 2, repo.byID[reg.User.ID].TokenVersion)

	// The outstanding refresh token is rejected long before its
	// nominal expiry.
	_, _, err := svc.Refresh(context.Background(), refreshToken)
	assert.ErrorIs(t, err, ErrRefreshInvalid)
}

func TestLogoutClearsSingleSession(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, testTokenIssuer())
	reg, refreshToken := registerTestUser(t, svc)

	require.NoError(t, svc.Logout(context.Background(), reg.User.ID, false))
	assert.Empty(t, repo.byID[reg.User.ID].RefreshTokenHash)
	assert.Equal(t, 1, repo.byID[reg.User.ID].TokenVersion, "plain logout must not bump the version")

	_, _, err := svc.Refresh(context.Background(), refreshToken)
	assert.ErrorIs(t, err, ErrRefreshInvalid)
}

func TestRefreshRejectsInactiveUser(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, testTokenIssuer())
	reg, refreshToken := registerTestUser(t, svc)

	repo.byID[reg.User.ID].IsActive = false
	_, _, err := svc.Refresh(context.Background(), refreshToken)
	assert.ErrorIs(t, err, ErrRefreshInvalid)
}

func TestProfileStripsSensitiveFields(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, testTokenIssuer())
	reg, _ := registerTestUser(t, svc)

	profile, err := svc.Profile(context.Background(), reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "sara@example.com", profile.Email)
	assert.Equal(t, "user", profile.Role)
}
