package services

import (
	"log/slog"

	"github.com/BradenHooton/admingate/internal/auth"
	pkgauth "github.com/BradenHooton/admingate/pkg/auth"
)

// CredentialVerifierConfig describes the accepted admin secret. Exactly one of
// Secret (plaintext) or SecretHash (bcrypt) is normally set.
type CredentialVerifierConfig struct {
	Secret     string
	SecretHash string
	// DevFallbackSecret is honoured only when AllowDevFallback is true
	DevFallbackSecret string
	AllowDevFallback  bool
}

// CredentialVerifier decides whether a submitted secret grants admin access
type CredentialVerifier struct {
	config CredentialVerifierConfig
	totp   *auth.TOTPVerifier
	logger *slog.Logger
}

// NewCredentialVerifier creates a new CredentialVerifier. totp may be nil.
func NewCredentialVerifier(config CredentialVerifierConfig, totp *auth.TOTPVerifier, logger *slog.Logger) *CredentialVerifier {
	return &CredentialVerifier{
		config: config,
		totp:   totp,
		logger: logger,
	}
}

// Verify reports whether submitted equals the configured secret
func (v *CredentialVerifier) Verify(submitted string) bool {
	if submitted == "" {
		return false
	}

	switch {
	case v.config.SecretHash != "":
		if pkgauth.CompareSecret(v.config.SecretHash, submitted) {
			return true
		}
	case v.config.Secret != "":
		if pkgauth.EqualConstantTime(v.config.Secret, submitted) {
			return true
		}
	}

	if v.config.AllowDevFallback && v.config.DevFallbackSecret != "" &&
		pkgauth.EqualConstantTime(v.config.DevFallbackSecret, submitted) {
		v.logger.Warn("admin login accepted with development fallback secret")
		return true
	}

	return false
}

// RequiresOTP reports whether a second factor is configured
func (v *CredentialVerifier) RequiresOTP() bool {
	return v.totp != nil
}

// VerifyOTP checks the second factor. It always passes when none is configured.
func (v *CredentialVerifier) VerifyOTP(code string) bool {
	if v.totp == nil {
		return true
	}
	if code == "" {
		return false
	}

	ok, err := v.totp.Validate(code)
	if err != nil {
		v.logger.Warn("TOTP validation rejected", slog.Any("error", err))
		return false
	}
	return ok
}
