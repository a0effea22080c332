package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"relaybot/internal/domain"
	"relaybot/internal/metrics"
)

// WebhookConfig configures the inbound webhook server.
type WebhookConfig struct {
	Port   string
	Token  string // bot token; its webhook path is the only access control
	Handle func(ctx context.Context, ev domain.InboundEvent)
	Logger *slog.Logger
}

// Webhook is the HTTP server the platform POSTs updates to. Each decoded
// event is handed to the router on its own goroutine; the HTTP response is
// always 200 so the platform only retries on transport failures.
type Webhook struct {
	port    string
	path    string
	handle  func(ctx context.Context, ev domain.InboundEvent)
	logger  *slog.Logger
	server  *http.Server
	baseCtx context.Context
}

func NewWebhook(cfg WebhookConfig) *Webhook {
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	return &Webhook{
		port:    cfg.Port,
		path:    "/webhook/" + cfg.Token,
		handle:  cfg.Handle,
		logger:  cfg.Logger,
		baseCtx: context.Background(),
	}
}

// Path returns the secret webhook path registered with the platform.
func (w *Webhook) Path() string { return w.path }

// Start serves until ctx is cancelled, then shuts down gracefully.
func (w *Webhook) Start(ctx context.Context) error {
	w.baseCtx = ctx

	r := chi.NewRouter()
	r.Get("/", w.handleLiveness)
	r.Get("/metrics", metrics.Collector.Handler())
	r.Post(w.path, w.handleUpdate)

	w.server = &http.Server{
		Addr:              ":" + w.port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	w.logger.Info("webhook server starting", "port", w.port)

	errCh := make(chan error, 1)
	go func() {
		if err := w.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		w.logger.Info("webhook server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return w.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("webhook server: %w", err)
	}
}

// handleLiveness reports process liveness only. It must stay independent
// of the completion API and audit channel: orchestrators gate traffic on it.
func (w *Webhook) handleLiveness(rw http.ResponseWriter, r *http.Request) {
	rw.WriteHeader(http.StatusOK)
	io.WriteString(rw, "OK")
}

// handleUpdate decodes one platform update and dispatches it. Application
// level problems still answer 200: the platform must not replay them.
func (w *Webhook) handleUpdate(rw http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB max
	defer r.Body.Close()
	if err != nil {
		w.logger.Warn("webhook body read failed", "err", err)
		return
	}

	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		metrics.EventsDropped.Inc()
		w.logger.Warn("webhook payload not decodable", "err", err)
		return
	}
	metrics.UpdatesTotal.Inc()

	ev := eventFromUpdate(update)
	if ev == nil {
		metrics.EventsDropped.Inc()
		return
	}

	w.logger.Info("update received",
		"chat_id", ev.ChatID, "kind", ev.Kind, "text_len", len(ev.Text))

	w.dispatch(*ev)
}

// dispatch runs the handler on its own goroutine so the HTTP response
// returns immediately and concurrent events never serialize.
func (w *Webhook) dispatch(ev domain.InboundEvent) {
	metrics.ActiveHandlers.Inc()
	go func() {
		defer metrics.ActiveHandlers.Dec()
		w.handle(w.baseCtx, ev)
	}()
}

// eventFromUpdate maps a raw update to a relay event. Updates the relay
// does not model (edits, media, joins, callbacks) map to nil.
func eventFromUpdate(u tgbotapi.Update) *domain.InboundEvent {
	msg := u.Message
	if msg == nil || msg.From == nil || msg.Chat == nil || msg.Text == "" {
		return nil
	}

	kind := domain.KindText
	if msg.IsCommand() && msg.Command() == "start" {
		kind = domain.KindStart
	}

	return &domain.InboundEvent{
		ChatID: msg.Chat.ID,
		Sender: domain.Sender{
			DisplayName: strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName),
			Handle:      msg.From.UserName,
		},
		Text:       msg.Text,
		Kind:       kind,
		ReceivedAt: time.Unix(int64(msg.Date), 0),
	}
}
