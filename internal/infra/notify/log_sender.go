// Package notify delivers user-facing notifications. The log sender is the
// default transport; an email or push sender can replace it behind the same
// port.
package notify

import (
	"context"

	"github.com/rs/zerolog"

	"course-booking-platform/internal/domain/ports/adapter"
)

var _ adapter.NotificationSender = (*LogSender)(nil)

type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, kind adapter.NotificationKind, recipient string, payload map[string]string) error {
	evt := s.logger.Info().
		Str("kind", string(kind)).
		Str("recipient", recipient)
	for k, v := range payload {
		evt = evt.Str(k, v)
	}
	evt.Msg("notification sent")
	return nil
}
