package auth

import (
	"bytes"
	"testing"
	"time"

	"github.com/filecoin-project/go-clock"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnrollment(t *testing.T) *TOTPEnrollment {
	t.Helper()
	enrollment, err := GenerateTOTPEnrollment("AdminGate", "admin", 128)
	require.NoError(t, err)
	return enrollment
}

func TestNewTOTPVerifier_EmptySecretDisables(t *testing.T) {
	assert.Nil(t, NewTOTPVerifier("", nil))
}

func TestGenerateTOTPEnrollment(t *testing.T) {
	enrollment := newEnrollment(t)

	assert.NotEmpty(t, enrollment.Secret)
	assert.Contains(t, enrollment.URL, "otpauth://totp/")
	assert.Contains(t, enrollment.URL, "issuer=AdminGate")
	// PNG signature
	assert.True(t, bytes.HasPrefix(enrollment.QRCode, []byte{0x89, 'P', 'N', 'G'}))
}

func TestTOTPVerifier_Validate_CurrentCode(t *testing.T) {
	enrollment := newEnrollment(t)
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	verifier := NewTOTPVerifier(enrollment.Secret, mock)

	code, err := totp.GenerateCode(enrollment.Secret, mock.Now())
	require.NoError(t, err)

	ok, err := verifier.Validate(code)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestTOTPVerifier_Validate_WrongCode(t *testing.T) {
	enrollment := newEnrollment(t)
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	verifier := NewTOTPVerifier(enrollment.Secret, mock)

	code, err := totp.GenerateCode(enrollment.Secret, mock.Now().Add(10*time.Minute))
	require.NoError(t, err)

	ok, err := verifier.Validate(code)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestTOTPVerifier_Validate_RejectsReplay(t *testing.T) {
	enrollment := newEnrollment(t)
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	verifier := NewTOTPVerifier(enrollment.Secret, mock)

	code, err := totp.GenerateCode(enrollment.Secret, mock.Now())
	require.NoError(t, err)

	ok, err := verifier.Validate(code)
	require.NoError(t, err)
	require.True(t, ok)

	mock.Add(10 * time.Second)
	ok, err = verifier.Validate(code)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestTOTPVerifier_Validate_AllowsNextStep(t *testing.T) {
	enrollment := newEnrollment(t)
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	verifier := NewTOTPVerifier(enrollment.Secret, mock)

	first, err := totp.GenerateCode(enrollment.Secret, mock.Now())
	require.NoError(t, err)
	ok, err := verifier.Validate(first)
	require.NoError(t, err)
	require.True(t, ok)

	mock.Add(30 * time.Second)
	second, err := totp.GenerateCode(enrollment.Secret, mock.Now())
	require.NoError(t, err)
	if second == first {
		t.Skip("consecutive steps produced the same code")
	}

	ok, err = verifier.Validate(second)
	assert.NoError(t, err)
	assert.True(t, ok)
}
