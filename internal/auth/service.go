package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"shopino/internal/users"
	"shopino/pkg/tokens"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	// ErrRefreshInvalid covers every terminal refresh failure: bad
	// signature, expiry, rotated-out hash, token-version mismatch,
	// missing or inactive user. Callers must not retry.
	ErrRefreshInvalid = errors.New("refresh token invalid")
)

type Service interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, string, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, string, error)
	Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, string, error)
	Logout(ctx context.Context, userID string, all bool) error
	Profile(ctx context.Context, userID string) (*UserResponse, error)
}

type service struct {
	repo   Repository
	issuer *tokens.Issuer
}

func NewService(repo Repository, issuer *tokens.Issuer) Service {
	return &service{
		repo:   repo,
		issuer: issuer,
	}
}

// Register creates the identity with token_version=1 and returns the
// auth response plus the refresh token for the cookie.
func (s *service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", ErrUserAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &users.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        email,
		Phone:        req.Phone,
		Password:     string(hashedPassword),
		Role:         users.RoleUser,
		IsActive:     true,
		TokenVersion: 1,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	pair, err := s.issueAndStore(ctx, user)
	if err != nil {
		return nil, "", err
	}

	return &AuthResponse{
		User:        toUserResponse(user),
		AccessToken: pair.AccessToken,
		ExpiresIn:   pair.ExpiresIn,
	}, pair.RefreshToken, nil
}

// Login rejects unknown, inactive and wrong-password identities with
// the same generic error so callers cannot enumerate accounts.
func (s *service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !user.IsActive {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	pair, err := s.issueAndStore(ctx, user)
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	if err := s.repo.UpdateLastLogin(ctx, user.ID.String(), now); err != nil {
		return nil, "", err
	}
	user.LastLoginAt = &now

	return &AuthResponse{
		User:        toUserResponse(user),
		AccessToken: pair.AccessToken,
		ExpiresIn:   pair.ExpiresIn,
	}, pair.RefreshToken, nil
}

// Refresh validates the cookie-borne refresh token against signature,
// expiry, the stored hash, and the live token version, then rotates the
// pair. Every failure collapses into ErrRefreshInvalid.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, string, error) {
	claims, err := s.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, "", ErrRefreshInvalid
	}

	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, "", ErrRefreshInvalid
		}
		return nil, "", err
	}

	if !user.IsActive {
		return nil, "", ErrRefreshInvalid
	}

	// A bumped version means "log out everywhere" happened after this
	// token was minted.
	if claims.TokenVersion != user.TokenVersion {
		return nil, "", ErrRefreshInvalid
	}

	// Rotated-out tokens no longer match the stored hash.
	if user.RefreshTokenHash == "" || hashToken(refreshToken) != user.RefreshTokenHash {
		return nil, "", ErrRefreshInvalid
	}

	pair, err := s.issueAndStore(ctx, user)
	if err != nil {
		return nil, "", err
	}

	return &RefreshResponse{
		AccessToken: pair.AccessToken,
		ExpiresIn:   pair.ExpiresIn,
	}, pair.RefreshToken, nil
}

// Logout clears the stored refresh hash; with all=true it increments
// the token version instead, invalidating every outstanding pair.
func (s *service) Logout(ctx context.Context, userID string, all bool) error {
	if all {
		return s.repo.IncrementTokenVersion(ctx, userID)
	}
	return s.repo.ClearRefreshTokenHash(ctx, userID)
}

func (s *service) Profile(ctx context.Context, userID string) (*UserResponse, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// issueAndStore mints a pair for the user's current token version and
// persists the refresh token's hash, overwriting any prior one.
func (s *service) issueAndStore(ctx context.Context, user *users.User) (*tokens.Pair, error) {
	pair, err := s.issuer.IssuePair(user.ID.String(), user.Email, strings.ToLower(string(user.Role)), user.TokenVersion)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetRefreshTokenHash(ctx, user.ID.String(), hashToken(pair.RefreshToken)); err != nil {
		return nil, err
	}

	return pair, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func toUserResponse(user *users.User) UserResponse {
	return UserResponse{
		ID:            user.ID.String(),
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Email:         user.Email,
		Phone:         user.Phone,
		Role:          strings.ToLower(string(user.Role)),
		IsActive:      user.IsActive,
		EmailVerified: user.EmailVerified,
		LastLoginAt:   user.LastLoginAt,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}
