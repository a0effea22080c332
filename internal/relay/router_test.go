package relay

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"

	"relaybot/internal/domain"
	"relaybot/internal/provider"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// callLog records the order of collaborator invocations across fakes.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (c *callLog) add(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, name)
}

type fakeCompleter struct {
	answer string
	err    error
}

func (f *fakeCompleter) Complete(ctx context.Context, text string) (string, error) {
	return f.answer, f.err
}

type panickyCompleter struct{}

func (panickyCompleter) Complete(ctx context.Context, text string) (string, error) {
	panic("completer exploded")
}

type fakeDeliverer struct {
	log        *callLog
	mu         sync.Mutex
	deliveries []string
	chatIDs    []int64
	err        error
}

func (f *fakeDeliverer) Deliver(ctx context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.log != nil {
		f.log.add("deliver")
	}
	f.deliveries = append(f.deliveries, text)
	f.chatIDs = append(f.chatIDs, chatID)
	return f.err
}

type fakeRecorder struct {
	log     *callLog
	mu      sync.Mutex
	records []domain.Exchange
}

func (f *fakeRecorder) Record(ex domain.Exchange) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.log != nil {
		f.log.add("record")
	}
	f.records = append(f.records, ex)
}

func textEvent(text string) domain.InboundEvent {
	return domain.InboundEvent{
		ChatID: 42,
		Sender: domain.Sender{DisplayName: "Ann Lee", Handle: "ann"},
		Text:   text,
		Kind:   domain.KindText,
	}
}

func TestHandle_TextSuccess(t *testing.T) {
	log := &callLog{}
	deliverer := &fakeDeliverer{log: log}
	recorder := &fakeRecorder{log: log}
	r := New(Config{
		Completer: &fakeCompleter{answer: "Hello"},
		Deliverer: deliverer,
		Recorder:  recorder,
		Logger:    testLogger(),
	})

	r.Handle(context.Background(), textEvent("Hi there"))

	if len(deliverer.deliveries) != 1 || deliverer.deliveries[0] != "Hello" {
		t.Errorf("expected one delivery of the answer, got %v", deliverer.deliveries)
	}
	if deliverer.chatIDs[0] != 42 {
		t.Errorf("answer went to the wrong chat: %d", deliverer.chatIDs[0])
	}
	if len(recorder.records) != 1 {
		t.Fatalf("expected one audit record, got %d", len(recorder.records))
	}
	rec := recorder.records[0]
	if rec.Request != "Hi there" || rec.Response != "Hello" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if len(log.calls) != 2 || log.calls[0] != "deliver" || log.calls[1] != "record" {
		t.Errorf("expected deliver-then-record, got %v", log.calls)
	}
}

func TestHandle_LongAnswerRecordedUnchunked(t *testing.T) {
	answer := strings.Repeat("a", 8000)
	deliverer := &fakeDeliverer{}
	recorder := &fakeRecorder{}
	r := New(Config{
		Completer: &fakeCompleter{answer: answer},
		Deliverer: deliverer,
		Recorder:  recorder,
		Logger:    testLogger(),
	})

	r.Handle(context.Background(), textEvent("write a lot"))

	if len(deliverer.deliveries) != 1 || deliverer.deliveries[0] != answer {
		t.Error("the deliverer owns chunking; the router hands it the full answer")
	}
	if len(recorder.records) != 1 || recorder.records[0].Response != answer {
		t.Error("the audit record must carry the full unchunked answer")
	}
}

func TestHandle_CompletionFailure(t *testing.T) {
	deliverer := &fakeDeliverer{}
	recorder := &fakeRecorder{}
	failure := &provider.CompletionError{Kind: provider.KindUpstream, Status: 503, Err: errors.New("secret detail")}
	r := New(Config{
		Completer: &fakeCompleter{err: failure},
		Deliverer: deliverer,
		Recorder:  recorder,
		Logger:    testLogger(),
	})

	r.Handle(context.Background(), textEvent("Hi"))

	if len(deliverer.deliveries) != 1 || deliverer.deliveries[0] != defaultApology {
		t.Errorf("expected the fixed apology, got %v", deliverer.deliveries)
	}
	if len(recorder.records) != 1 {
		t.Fatalf("a record must still be produced on failure, got %d", len(recorder.records))
	}
	resp := recorder.records[0].Response
	if !strings.HasPrefix(resp, "ERROR:") {
		t.Errorf("record must carry a failure marker, got %q", resp)
	}
	if strings.Contains(resp, "secret detail") {
		t.Errorf("record must not leak the raw error: %q", resp)
	}
}

func TestHandle_DeliveryFailureStillRecorded(t *testing.T) {
	deliverer := &fakeDeliverer{err: errors.New("chat gone")}
	recorder := &fakeRecorder{}
	r := New(Config{
		Completer: &fakeCompleter{answer: "Hello"},
		Deliverer: deliverer,
		Recorder:  recorder,
		Logger:    testLogger(),
	})

	r.Handle(context.Background(), textEvent("Hi"))

	if len(recorder.records) != 1 || recorder.records[0].Response != "Hello" {
		t.Error("the exchange must be recorded regardless of delivery outcome")
	}
}

func TestHandle_Start(t *testing.T) {
	deliverer := &fakeDeliverer{}
	recorder := &fakeRecorder{}
	r := New(Config{
		Completer: &fakeCompleter{answer: "never called"},
		Deliverer: deliverer,
		Recorder:  recorder,
		Logger:    testLogger(),
	})

	ev := textEvent("/start")
	ev.Kind = domain.KindStart
	r.Handle(context.Background(), ev)

	if len(deliverer.deliveries) != 1 || deliverer.deliveries[0] != defaultWelcome {
		t.Errorf("expected the welcome text, got %v", deliverer.deliveries)
	}
	if len(recorder.records) != 1 {
		t.Fatalf("expected one audit record, got %d", len(recorder.records))
	}
	rec := recorder.records[0]
	if rec.Request != "/start" || rec.Response != defaultWelcome {
		t.Errorf("unexpected greeting record: %+v", rec)
	}
}

func TestHandle_UnknownKindDropped(t *testing.T) {
	deliverer := &fakeDeliverer{}
	recorder := &fakeRecorder{}
	r := New(Config{
		Completer: &fakeCompleter{answer: "never"},
		Deliverer: deliverer,
		Recorder:  recorder,
		Logger:    testLogger(),
	})

	ev := textEvent("whatever")
	ev.Kind = domain.EventKind(99)
	r.Handle(context.Background(), ev)

	if len(deliverer.deliveries) != 0 || len(recorder.records) != 0 {
		t.Error("unknown event kinds must be a no-op")
	}
}

func TestHandle_PanicContained(t *testing.T) {
	deliverer := &fakeDeliverer{}
	recorder := &fakeRecorder{}
	r := New(Config{
		Completer: panickyCompleter{},
		Deliverer: deliverer,
		Recorder:  recorder,
		Logger:    testLogger(),
	})

	// Must not propagate.
	r.Handle(context.Background(), textEvent("Hi"))
}

func TestHandle_TypingHook(t *testing.T) {
	var typed []int64
	r := New(Config{
		Completer: &fakeCompleter{answer: "Hello"},
		Deliverer: &fakeDeliverer{},
		Recorder:  &fakeRecorder{},
		Typing:    func(chatID int64) { typed = append(typed, chatID) },
		Logger:    testLogger(),
	})

	r.Handle(context.Background(), textEvent("Hi"))

	if len(typed) != 1 || typed[0] != 42 {
		t.Errorf("expected the typing hook before the completion call, got %v", typed)
	}
}
