package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Channel is the logical destination of a notification. Only the internal
// log and Telegram have senders today; the remaining channels are reserved
// for future sender implementations.
type Channel string

const (
	ChannelInternalLog Channel = "internal_log"
	ChannelTelegram    Channel = "telegram"
	ChannelSlack       Channel = "slack"
	ChannelEmail       Channel = "email"
)

// Severity grades a notification. Coarser than monitoring alert levels:
// CRITICAL folds into ALERT on this side.
type Severity string

const (
	SeverityInfo      Severity = "info"
	SeverityWarning   Severity = "warning"
	SeverityAlert     Severity = "alert"
	SeverityEmergency Severity = "emergency"
)

// Message is one notification. Body is plain text and must never contain
// secrets or wallet addresses.
type Message struct {
	Channel   Channel   `json:"channel"`
	Severity  Severity  `json:"severity"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier delivers a message to one destination.
type Notifier interface {
	Notify(ctx context.Context, message Message) error
}

// LogNotifier writes notifications to the process log at a level matching
// the message severity. Default sender when no channel is configured.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier constructs a log-backed sender.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notify_log").Logger()}
}

// Notify logs the message; it never fails.
func (n *LogNotifier) Notify(_ context.Context, message Message) error {
	event := n.logger.Info()
	switch message.Severity {
	case SeverityEmergency, SeverityAlert:
		event = n.logger.Error()
	case SeverityWarning:
		event = n.logger.Warn()
	}
	event.
		Str("channel", string(message.Channel)).
		Str("severity", string(message.Severity)).
		Str("title", message.Title).
		Msg(message.Body)
	return nil
}

// Composite fans a message out to every registered sender. Send errors are
// logged and do not stop delivery to the remaining senders.
type Composite struct {
	senders []Notifier
	logger  zerolog.Logger
}

// NewComposite builds a fan-out notifier.
func NewComposite(logger zerolog.Logger, senders ...Notifier) *Composite {
	return &Composite{
		senders: senders,
		logger:  logger.With().Str("component", "notify").Logger(),
	}
}

// Notify delivers to all senders, returning the last error encountered.
func (c *Composite) Notify(ctx context.Context, message Message) error {
	var lastErr error
	for _, sender := range c.senders {
		if err := sender.Notify(ctx, message); err != nil {
			c.logger.Error().Err(err).Str("title", message.Title).Msg("notification sender failed")
			lastErr = err
		}
	}
	return lastErr
}

var (
	_ Notifier = (*LogNotifier)(nil)
	_ Notifier = (*Composite)(nil)
)
