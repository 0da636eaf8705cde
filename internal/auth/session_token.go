package auth

import (
	"fmt"
	"time"

	"github.com/BradenHooton/admingate/internal/models"
	"github.com/filecoin-project/go-clock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionIssuer = "admingate"

// SessionTokenManager encodes admin session credentials as HS256-signed tokens.
// Expiry is checked by the caller against the configured lifetime rather than
// by the JWT library, so the boundary is exactly now-issuedAt <= lifetime.
type SessionTokenManager struct {
	signingKey []byte
	lifetime   time.Duration
	clock      clock.Clock
}

// NewSessionTokenManager creates a new SessionTokenManager
func NewSessionTokenManager(signingKey string, lifetime time.Duration, clk clock.Clock) *SessionTokenManager {
	if clk == nil {
		clk = clock.New()
	}
	return &SessionTokenManager{
		signingKey: []byte(signingKey),
		lifetime:   lifetime,
		clock:      clk,
	}
}

// Lifetime returns the configured session lifetime
func (tm *SessionTokenManager) Lifetime() time.Duration {
	return tm.lifetime
}

// Issue builds and signs a fresh credential bound to identity
func (tm *SessionTokenManager) Issue(identity string) (string, *models.SessionCredential, error) {
	// JWT timestamps have second precision
	now := tm.clock.Now().Truncate(time.Second)

	cred := &models.SessionCredential{
		Authenticated:  true,
		IssuedAt:       now,
		ClientIdentity: identity,
		SessionID:      uuid.New().String(),
	}

	claims := &models.SessionClaims{
		Authenticated:  cred.Authenticated,
		ClientIdentity: cred.ClientIdentity,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        cred.SessionID,
			Issuer:    sessionIssuer,
			Subject:   "admin",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.lifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.signingKey)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, cred, nil
}

// Parse verifies the signature and decodes a credential. It does not check
// expiry; see CheckExpiry. Every failure, including a panic inside the decoder,
// is reported as models.ErrMalformedCredential.
func (tm *SessionTokenManager) Parse(tokenString string) (cred *models.SessionCredential, err error) {
	defer func() {
		if r := recover(); r != nil {
			cred = nil
			err = fmt.Errorf("%w: decoder panic: %v", models.ErrMalformedCredential, r)
		}
	}()

	claims := &models.SessionClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithoutClaimsValidation(),
	)

	_, err = parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return tm.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedCredential, err)
	}

	if !claims.Authenticated || claims.IssuedAt == nil || claims.ID == "" || claims.Issuer != sessionIssuer {
		return nil, fmt.Errorf("%w: incomplete claims", models.ErrMalformedCredential)
	}

	return &models.SessionCredential{
		Authenticated:  claims.Authenticated,
		IssuedAt:       claims.IssuedAt.Time,
		ClientIdentity: claims.ClientIdentity,
		SessionID:      claims.ID,
	}, nil
}

// CheckExpiry returns models.ErrExpiredCredential once more than the session
// lifetime has passed since issuance
func (tm *SessionTokenManager) CheckExpiry(cred *models.SessionCredential, now time.Time) error {
	if now.Sub(cred.IssuedAt) > tm.lifetime {
		return models.ErrExpiredCredential
	}
	return nil
}

// ExpiresAt returns the last instant at which cred is still accepted
func (tm *SessionTokenManager) ExpiresAt(cred *models.SessionCredential) time.Time {
	return cred.IssuedAt.Add(tm.lifetime)
}
