// Package telegram implements the platform-facing side of the relay:
// outbound message delivery, the inbound webhook server, and the webhook
// registration lifecycle.
package telegram

import (
	"context"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"relaybot/internal/metrics"
)

// segmentPause spaces consecutive segments of one answer to stay inside
// Telegram's outbound rate limits.
const segmentPause = time.Second

// botAPI is the slice of tgbotapi.BotAPI the package needs, narrowed so
// tests can substitute a fake.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Sender delivers answers to chats, splitting long text into ordered
// segments with a pacing pause between them.
type Sender struct {
	bot    botAPI
	pause  time.Duration
	logger *slog.Logger
}

func NewSender(bot *tgbotapi.BotAPI, logger *slog.Logger) *Sender {
	return &Sender{bot: bot, pause: segmentPause, logger: logger}
}

// Deliver sends text to chatID one segment at a time, strictly in order. A
// failed segment is logged and skipped; the remaining segments are still
// attempted. Empty text is not delivered at all.
func (s *Sender) Deliver(ctx context.Context, chatID int64, text string) error {
	if text == "" {
		return nil
	}

	var lastErr error
	for i, seg := range Split(text, MaxSegmentLen) {
		if i > 0 {
			// Fixed pacing wait; not cancellable mid-flight.
			time.Sleep(s.pause)
		}
		if _, err := s.bot.Send(tgbotapi.NewMessage(chatID, seg)); err != nil {
			metrics.DeliveryFailures.Inc()
			s.logger.Error("segment delivery failed",
				"chat_id", chatID, "segment", i+1, "err", err)
			lastErr = err
			continue
		}
		metrics.SegmentsDelivered.Inc()
	}
	return lastErr
}

// Typing shows the typing indicator while the completion call runs. Best
// effort.
func (s *Sender) Typing(chatID int64) {
	if _, err := s.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		s.logger.Debug("chat action failed", "chat_id", chatID, "err", err)
	}
}
