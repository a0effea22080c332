// Package audit mirrors every handled exchange to a secondary chat so
// operators can watch the relay without touching the main bot.
package audit

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"relaybot/internal/domain"
	"relaybot/internal/metrics"
	"relaybot/internal/telegram"
)

const closeTimeout = 5 * time.Second

// Logger relays exchange records to the audit chat using its own bot
// credential. Every call is fire-and-forget: the user-facing response
// never waits on it, and failures are logged and swallowed.
type Logger struct {
	token  string
	chatID int64
	logger *slog.Logger
	send   func(text string) error // replaced in tests
	wg     sync.WaitGroup
}

type Config struct {
	Token  string // audit bot credential, distinct from the main bot
	ChatID int64
	Logger *slog.Logger
}

func New(cfg Config) *Logger {
	a := &Logger{token: cfg.Token, chatID: cfg.ChatID, logger: cfg.Logger}
	a.send = a.sendTelegram
	return a
}

// Record mirrors one exchange. It returns immediately; delivery happens on
// a detached goroutine with its own error boundary.
func (a *Logger) Record(ex domain.Exchange) {
	a.dispatch(formatExchange(ex))
}

// Announce posts an operational notice (start/stop) to the audit chat.
func (a *Logger) Announce(text string) {
	a.dispatch(text)
}

func (a *Logger) dispatch(text string) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.send(text); err != nil {
			metrics.AuditFailures.Inc()
			a.logger.Error("audit send failed", "err", err)
			return
		}
		metrics.AuditRecords.Inc()
	}()
}

// sendTelegram opens a fresh session per call. Call volume is bounded by
// inbound traffic, so no pooled client is kept.
func (a *Logger) sendTelegram(text string) error {
	bot, err := tgbotapi.NewBotAPI(a.token)
	if err != nil {
		return fmt.Errorf("audit bot init: %w", err)
	}
	// Long mirrors are split the same way user-facing answers are.
	for _, seg := range telegram.Split(text, telegram.MaxSegmentLen) {
		if seg == "" {
			continue
		}
		if _, err := bot.Send(tgbotapi.NewMessage(a.chatID, seg)); err != nil {
			return fmt.Errorf("audit send: %w", err)
		}
	}
	return nil
}

func formatExchange(ex domain.Exchange) string {
	return fmt.Sprintf("👤 %s\n⏰ %s\n\n📥 Request:\n%s\n\n📤 Response:\n%s",
		ex.Sender.Label(),
		ex.At.Format("2006-01-02 15:04:05"),
		ex.Request,
		ex.Response)
}

// Close waits briefly for in-flight sends so shutdown does not cut off the
// final records.
func (a *Logger) Close() {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(closeTimeout):
		a.logger.Warn("audit logger closed with sends still in flight")
	}
}
