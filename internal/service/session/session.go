// Package session verifies the identity the auth collaborator attaches to
// requests. The core trusts the signed token and never re-authenticates:
// login, refresh and OTP flows live outside this service.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/marikmarie/collectovault/internal/models"
)

const (
	defaultTTL           = 15 * time.Minute
	defaultSigningMethod = "HS256"
)

var ErrInvalidToken = errors.New("session token is missing or invalid")

type Claims struct {
	jwt.RegisteredClaims
	AccountID uuid.UUID `json:"acc"`
	Role      string    `json:"role"`
	VendorID  uuid.UUID `json:"vnd,omitempty"`
}

type Config struct {
	// Secret key the auth collaborator signs tokens with
	// Required to be set
	SecretKey string

	// JWT MAC algorithm, default is used if empty
	Alg string

	// Token lifetime used by Issue, default is used if zero
	TTL time.Duration
}

type Manager struct {
	key string
	alg jwt.SigningMethod
	ttl time.Duration
}

func New(cfg Config) (*Manager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg := jwt.GetSigningMethod(cfg.Alg)
	if alg == nil {
		return nil, fmt.Errorf("unknown signing method: %q", cfg.Alg)
	}

	if cfg.TTL == 0 {
		cfg.TTL = defaultTTL
	}

	return &Manager{
		key: cfg.SecretKey,
		alg: alg,
		ttl: cfg.TTL,
	}, nil
}

// Issue signs a token for the actor. The production issuer is the external
// auth service sharing the key; this is used by tooling and tests.
func (m *Manager) Issue(actor models.Actor) (string, error) {
	now := time.Now().Truncate(time.Second)

	token := jwt.NewWithClaims(
		m.alg,
		Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			},
			AccountID: actor.AccountID,
			Role:      actor.Role,
			VendorID:  actor.VendorID,
		},
	)

	signed, err := token.SignedString([]byte(m.key))
	if err != nil {
		return "", fmt.Errorf("error while signing session token. Err: %w", err)
	}

	return signed, nil
}

// Parse validates the token and returns the actor it carries
func (m *Manager) Parse(tokenString string) (models.Actor, error) {
	var claims Claims

	_, err := jwt.ParseWithClaims(
		tokenString,
		&claims,
		func(t *jwt.Token) (any, error) { return []byte(m.key), nil },
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return models.Actor{}, ErrInvalidToken
	}

	switch claims.Role {
	case models.RoleCustomer, models.RoleVendor, models.RoleAdmin:
	default:
		return models.Actor{}, ErrInvalidToken
	}

	return models.Actor{
		AccountID: claims.AccountID,
		Role:      claims.Role,
		VendorID:  claims.VendorID,
	}, nil
}

// Authenticate extracts and validates the bearer token of the request
func (m *Manager) Authenticate(r *http.Request) (models.Actor, error) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return models.Actor{}, ErrInvalidToken
	}

	return m.Parse(token)
}
