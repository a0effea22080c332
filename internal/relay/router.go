// Package relay is the message pipeline core: it classifies inbound
// events, drives the completion call, and fans the result out to the
// originating chat and the audit channel.
package relay

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"relaybot/internal/domain"
	"relaybot/internal/metrics"
	"relaybot/internal/provider"
)

// Config wires the router's collaborators.
type Config struct {
	Completer domain.Completer
	Deliverer domain.Deliverer
	Recorder  domain.Recorder
	Typing    func(chatID int64) // optional typing indicator hook
	Welcome   string             // empty = built-in default
	Apology   string             // empty = built-in default
	Logger    *slog.Logger
}

// Router maps one decoded event to exactly one handler. It holds no
// per-user state: every event is handled with only the data it carries,
// so concurrent invocations need no locking.
type Router struct {
	completer domain.Completer
	deliverer domain.Deliverer
	recorder  domain.Recorder
	typing    func(int64)
	welcome   string
	apology   string
	logger    *slog.Logger
}

func New(cfg Config) *Router {
	if cfg.Welcome == "" {
		cfg.Welcome = defaultWelcome
	}
	if cfg.Apology == "" {
		cfg.Apology = defaultApology
	}
	return &Router{
		completer: cfg.Completer,
		deliverer: cfg.Deliverer,
		recorder:  cfg.Recorder,
		typing:    cfg.Typing,
		welcome:   cfg.Welcome,
		apology:   cfg.Apology,
		logger:    cfg.Logger,
	}
}

// Handle processes a single inbound event. Safe for concurrent use; a
// panicking handler is contained so other invocations keep running.
func (r *Router) Handle(ctx context.Context, ev domain.InboundEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("handler panic", "chat_id", ev.ChatID, "panic", rec)
		}
	}()

	switch ev.Kind {
	case domain.KindStart:
		r.handleStart(ctx, ev)
	case domain.KindText:
		r.handleText(ctx, ev)
	default:
		// Event kinds the relay does not model are dropped.
	}
}

// handleStart greets the user and mirrors the greeting to the audit trail
// under the /start sentinel. No completion call is made.
func (r *Router) handleStart(ctx context.Context, ev domain.InboundEvent) {
	if err := r.deliverer.Deliver(ctx, ev.ChatID, r.welcome); err != nil {
		r.logger.Error("welcome delivery failed", "chat_id", ev.ChatID, "err", err)
	}
	r.recorder.Record(domain.Exchange{
		Sender:   ev.Sender,
		Request:  startSentinel,
		Response: r.welcome,
		At:       time.Now(),
	})
}

func (r *Router) handleText(ctx context.Context, ev domain.InboundEvent) {
	if r.typing != nil {
		r.typing(ev.ChatID)
	}

	metrics.CompletionsTotal.Inc()
	start := time.Now()
	answer, err := r.completer.Complete(ctx, ev.Text)
	metrics.CompletionLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CompletionFailures.Inc()
		r.logger.Error("completion failed", "chat_id", ev.ChatID, "err", err)
		if derr := r.deliverer.Deliver(ctx, ev.ChatID, r.apology); derr != nil {
			r.logger.Error("apology delivery failed", "chat_id", ev.ChatID, "err", derr)
		}
		r.recorder.Record(domain.Exchange{
			Sender:   ev.Sender,
			Request:  ev.Text,
			Response: failureMarker(err),
			At:       time.Now(),
		})
		return
	}

	// The answer is delivered before the exchange is recorded.
	if derr := r.deliverer.Deliver(ctx, ev.ChatID, answer); derr != nil {
		r.logger.Error("answer delivery failed", "chat_id", ev.ChatID, "err", derr)
	}
	r.recorder.Record(domain.Exchange{
		Sender:   ev.Sender,
		Request:  ev.Text,
		Response: answer,
		At:       time.Now(),
	})
}

// failureMarker encodes a completion failure for the audit trail. Only the
// coarse kind is exposed, never the underlying error detail.
func failureMarker(err error) string {
	var cerr *provider.CompletionError
	if errors.As(err, &cerr) {
		return "ERROR: completion failed (" + string(cerr.Kind) + ")"
	}
	return "ERROR: completion failed"
}
