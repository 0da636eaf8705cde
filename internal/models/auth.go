package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCredential is the state carried by the client-held admin credential
type SessionCredential struct {
	Authenticated  bool      `json:"authenticated"`
	IssuedAt       time.Time `json:"issuedAt"`
	ClientIdentity string    `json:"clientIdentity"`
	SessionID      string    `json:"-"`
}

// SessionClaims is the signed wire form of a SessionCredential
type SessionClaims struct {
	Authenticated  bool   `json:"auth"`
	ClientIdentity string `json:"cid"`
	jwt.RegisteredClaims
}

// RequestMeta is the slice of an HTTP request the session verifier looks at
type RequestMeta struct {
	Credential string
	Identity   string
	UserAgent  string
	Origin     string
	Host       string
}

// VerificationOutcome classifies a session verification
type VerificationOutcome string

const (
	OutcomeAuthenticated   VerificationOutcome = "authenticated"
	OutcomeUnauthenticated VerificationOutcome = "unauthenticated"
	OutcomeSuspicious      VerificationOutcome = "suspicious"
)

// VerificationResult is returned by the session verifier. Reason is for logs
// and metrics only and must not reach the client.
type VerificationResult struct {
	Outcome    VerificationOutcome
	Reason     error
	Credential *SessionCredential
}

// Authenticated reports whether the request carries a valid session
func (v VerificationResult) Authenticated() bool {
	return v.Outcome == OutcomeAuthenticated
}
