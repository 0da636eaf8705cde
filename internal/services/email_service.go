package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// LockoutNotifier is told when an identity becomes blocked
type LockoutNotifier interface {
	NotifyLockout(ctx context.Context, identity string, failedCount int, blockedUntil time.Time) error
}

// SESAPI is the subset of the SES client used for alerts
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESLockoutNotifier emails an operator through AWS SES when the admin login
// locks an identity out
type SESLockoutNotifier struct {
	client      SESAPI
	fromAddress string
	recipient   string
	logger      *slog.Logger
}

// NewSESLockoutNotifier loads the default AWS config for region and builds an SES client
func NewSESLockoutNotifier(ctx context.Context, region, fromAddress, recipient string, logger *slog.Logger) (*SESLockoutNotifier, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewSESLockoutNotifierWithClient(ses.NewFromConfig(cfg), fromAddress, recipient, logger), nil
}

// NewSESLockoutNotifierWithClient creates a notifier around an existing client
func NewSESLockoutNotifierWithClient(client SESAPI, fromAddress, recipient string, logger *slog.Logger) *SESLockoutNotifier {
	return &SESLockoutNotifier{
		client:      client,
		fromAddress: fromAddress,
		recipient:   recipient,
		logger:      logger,
	}
}

// NotifyLockout sends a plain-text alert describing the lockout
func (n *SESLockoutNotifier) NotifyLockout(ctx context.Context, identity string, failedCount int, blockedUntil time.Time) error {
	textBody := fmt.Sprintf(`Admin login lockout

Client identity: %s
Failed attempts: %d
Blocked until:   %s

Further login attempts from this client are refused until the time above.
If this was not you, consider rotating the admin secret.

This is an automated message.
`, identity, failedCount, blockedUntil.UTC().Format(time.RFC1123))

	input := &ses.SendEmailInput{
		Source: aws.String(n.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{n.recipient},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(fmt.Sprintf("[admingate] %s locked out of admin login", identity)),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := n.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send lockout alert: %w", err)
	}

	messageID := ""
	if result != nil && result.MessageId != nil {
		messageID = *result.MessageId
	}
	n.logger.Info("lockout alert sent",
		slog.String("identity", identity),
		slog.String("message_id", messageID))

	return nil
}

// LogLockoutNotifier only logs lockouts; used when no alert channel is configured
type LogLockoutNotifier struct {
	logger *slog.Logger
}

// NewLogLockoutNotifier creates a new LogLockoutNotifier
func NewLogLockoutNotifier(logger *slog.Logger) *LogLockoutNotifier {
	return &LogLockoutNotifier{logger: logger}
}

// NotifyLockout writes the lockout to the log
func (n *LogLockoutNotifier) NotifyLockout(ctx context.Context, identity string, failedCount int, blockedUntil time.Time) error {
	n.logger.Warn("admin lockout (no alert channel configured)",
		slog.String("identity", identity),
		slog.Int("failed_attempts", failedCount),
		slog.Time("blocked_until", blockedUntil))
	return nil
}
