// Package notifier delivers check-in and check-out notices to students.
// The lifecycle core only builds payloads; everything behind the Notifier
// interface is replaceable transport.
package notifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/unilibrary/bagdesk-api/internal/models"
)

// Notifier sends templated notices. Implementations return an error on
// delivery failure; callers decide whether to retry.
type Notifier interface {
	SendCheckinNotice(ctx context.Context, notice models.CheckinNotice) error
	SendCheckoutNotice(ctx context.Context, notice models.CheckoutNotice) error
}

// ConsoleNotifier logs notices instead of delivering them. Used in
// development and whenever no email provider is configured.
type ConsoleNotifier struct {
	logger *zap.Logger
}

// NewConsole constructs a ConsoleNotifier.
func NewConsole(logger *zap.Logger) *ConsoleNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleNotifier{logger: logger}
}

func (n *ConsoleNotifier) SendCheckinNotice(ctx context.Context, notice models.CheckinNotice) error {
	n.logger.Sugar().Infow("checkin notice",
		"email", notice.Email,
		"tag_code", notice.TagCode,
		"bag", notice.BagDescription,
		"checkin_time", notice.CheckinTime,
	)
	return nil
}

func (n *ConsoleNotifier) SendCheckoutNotice(ctx context.Context, notice models.CheckoutNotice) error {
	n.logger.Sugar().Infow("checkout notice",
		"email", notice.Email,
		"tag_code", notice.TagCode,
		"duration", notice.DurationLabel,
		"streak_days", notice.StreakDays,
	)
	return nil
}
