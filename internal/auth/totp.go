package auth

import (
	"fmt"
	"sync"
	"time"

	"github.com/filecoin-project/go-clock"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	totpPeriod = 30
	// replayWindow covers the current step plus one step of skew either side
	replayWindow = 90 * time.Second
)

var totpValidateOpts = totp.ValidateOpts{
	Period:    totpPeriod,
	Skew:      1,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// TOTPVerifier checks the optional second factor for the admin login.
// A code that has already been accepted is rejected until it can no longer
// fall inside the validation window.
type TOTPVerifier struct {
	secret string // base32
	clock  clock.Clock

	mu       sync.Mutex
	lastCode string
	lastUsed time.Time
}

// NewTOTPVerifier returns nil when secret is empty, meaning no second factor
func NewTOTPVerifier(secret string, clk clock.Clock) *TOTPVerifier {
	if secret == "" {
		return nil
	}
	if clk == nil {
		clk = clock.New()
	}
	return &TOTPVerifier{secret: secret, clock: clk}
}

// Validate reports whether code is a current, unused TOTP code
func (v *TOTPVerifier) Validate(code string) (bool, error) {
	now := v.clock.Now()

	valid, err := totp.ValidateCustom(code, v.secret, now, totpValidateOpts)
	if err != nil {
		return false, fmt.Errorf("failed to validate TOTP: %w", err)
	}
	if !valid {
		return false, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if code == v.lastCode && now.Sub(v.lastUsed) < replayWindow {
		return false, fmt.Errorf("code replay detected")
	}
	v.lastCode = code
	v.lastUsed = now

	return true, nil
}

// TOTPEnrollment is the material an operator needs to register an authenticator
type TOTPEnrollment struct {
	Secret string
	URL    string
	QRCode []byte // PNG
}

// GenerateTOTPEnrollment creates a fresh shared secret and its provisioning QR code
func GenerateTOTPEnrollment(issuer, accountName string, qrSize int) (*TOTPEnrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountName,
		SecretSize:  32,
		Period:      totpPeriod,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	if qrSize <= 0 {
		qrSize = 256
	}
	png, err := qrcode.Encode(key.URL(), qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}

	return &TOTPEnrollment{
		Secret: key.Secret(),
		URL:    key.URL(),
		QRCode: png,
	}, nil
}
