package telegram

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// RegistrationState tracks the webhook registration with the platform.
// Transitions are linear: Unregistered → Registered → Deregistered.
type RegistrationState int

const (
	StateUnregistered RegistrationState = iota
	StateRegistered
	StateDeregistered
)

func (s RegistrationState) String() string {
	switch s {
	case StateUnregistered:
		return "unregistered"
	case StateRegistered:
		return "registered"
	case StateDeregistered:
		return "deregistered"
	}
	return "unknown"
}

// Lifecycle registers the webhook URL at process start and removes it at
// shutdown. One instance exists per process.
type Lifecycle struct {
	bot     botAPI
	baseURL string
	path    string
	logger  *slog.Logger

	mu    sync.Mutex
	state RegistrationState
}

func NewLifecycle(bot *tgbotapi.BotAPI, baseURL, path string, logger *slog.Logger) *Lifecycle {
	return &Lifecycle{bot: bot, baseURL: baseURL, path: path, logger: logger}
}

// Register tells the platform to POST updates to the relay's URL. Updates
// queued while no instance was serving are discarded, so a restart never
// replays stale traffic. The caller treats failure as fatal: the process
// must not serve traffic it cannot receive.
func (l *Lifecycle) Register() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateUnregistered {
		return fmt.Errorf("register webhook: invalid state %s", l.state)
	}

	wh, err := tgbotapi.NewWebhook(strings.TrimRight(l.baseURL, "/") + l.path)
	if err != nil {
		return fmt.Errorf("webhook url: %w", err)
	}
	wh.DropPendingUpdates = true

	if _, err := l.bot.Request(wh); err != nil {
		return fmt.Errorf("register webhook: %w", err)
	}

	l.state = StateRegistered
	// The full URL embeds the bot token; log the base only.
	l.logger.Info("webhook registered", "base", l.baseURL)
	return nil
}

// Deregister removes the webhook. The state advances even when the
// platform call fails: shutdown is never blocked, the error is only
// returned for logging.
func (l *Lifecycle) Deregister() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateRegistered {
		return nil
	}
	l.state = StateDeregistered

	if _, err := l.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("deregister webhook: %w", err)
	}
	l.logger.Info("webhook deregistered")
	return nil
}

// State returns the current registration state.
func (l *Lifecycle) State() RegistrationState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}
