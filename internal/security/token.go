package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Zorochan404/inf-chat/internal/models"
)

var (
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenInvalid      = errors.New("invalid token")
	ErrSigningKeyMissing = errors.New("token signing key not configured")
)

// Identity is the authenticated caller carried through every protected operation.
type Identity struct {
	UserID string
	Email  string
	Role   models.UserRole
}

func (i Identity) HasRole(roles ...models.UserRole) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (t *TokenIssuer) Issue(id Identity) (string, error) {
	if len(t.secret) == 0 {
		return "", ErrSigningKeyMissing
	}

	now := t.now()
	claims := Claims{
		UserID: id.UserID,
		Email:  id.Email,
		Role:   string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

// Parse verifies tokenStr and returns the identity it carries. Failures are
// reported as ErrTokenExpired, ErrTokenInvalid or ErrSigningKeyMissing.
func (t *TokenIssuer) Parse(tokenStr string) (Identity, error) {
	if len(t.secret) == 0 {
		return Identity{}, ErrSigningKeyMissing
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return Identity{}, ErrTokenInvalid
	}

	return Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   models.UserRole(claims.Role),
	}, nil
}
