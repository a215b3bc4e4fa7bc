package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrWrongType    = errors.New("wrong token type")
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"

	// ExpirySkew is the safety buffer clients apply: anything within this
	// window of the nominal expiry is treated as already expired, so a
	// request never races its own token's expiry mid-flight.
	ExpirySkew = 30 * time.Second
)

// Claims carried by both access and refresh tokens. TokenVersion is
// compared against the live user record on refresh; a mismatch means the
// user logged out everywhere since this token was minted.
type Claims struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenVersion int    `json:"token_version"`
	Type         string `json:"type"` // "access" or "refresh"
	jwt.RegisteredClaims
}

// Pair is a freshly minted access/refresh token pair. ExpiresIn is the
// unix epoch second at which the access token stops being valid.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Config holds signing parameters for an Issuer.
type Config struct {
	Secret     string
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Issuer mints and verifies token pairs. It is stateless apart from its
// configuration and safe for concurrent use.
type Issuer struct {
	config Config
	now    func() time.Time
}

func NewIssuer(cfg Config) *Issuer {
	return &Issuer{
		config: cfg,
		now:    time.Now,
	}
}

// IssuePair mints an access token and a refresh token for the given
// identity. Both embed the token version current at issuance.
func (i *Issuer) IssuePair(userID, email, role string, tokenVersion int) (*Pair, error) {
	now := i.now()

	accessToken, err := i.sign(userID, email, role, tokenVersion, TypeAccess, now, i.config.AccessTTL)
	if err != nil {
		return nil, err
	}

	refreshToken, err := i.sign(userID, email, role, tokenVersion, TypeRefresh, now, i.config.RefreshTTL)
	if err != nil {
		return nil, err
	}

	return &Pair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    now.Add(i.config.AccessTTL).Unix(),
	}, nil
}

func (i *Issuer) sign(userID, email, role string, tokenVersion int, tokenType string, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID:       userID,
		Email:        email,
		Role:         role,
		TokenVersion: tokenVersion,
		Type:         tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			// A unique jti keeps two tokens minted in the same second
			// from colliding, so rotation always produces a new string.
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    i.config.Issuer,
			Audience:  jwt.ClaimStrings{i.config.Audience},
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(i.config.Secret))
}

// VerifyAccess parses and validates an access token.
func (i *Issuer) VerifyAccess(tokenString string) (*Claims, error) {
	return i.verify(tokenString, TypeAccess)
}

// VerifyRefresh parses and validates a refresh token.
func (i *Issuer) VerifyRefresh(tokenString string) (*Claims, error) {
	return i.verify(tokenString, TypeRefresh)
}

func (i *Issuer) verify(tokenString, wantType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(i.config.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Type != wantType {
		return nil, ErrWrongType
	}

	return claims, nil
}
