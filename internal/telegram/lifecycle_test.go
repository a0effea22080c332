package telegram

import (
	"errors"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// fakeRegistrar captures webhook registration calls.
type fakeRegistrar struct {
	mu         sync.Mutex
	webhooks   []tgbotapi.WebhookConfig
	deletes    int
	requestErr error
}

func (f *fakeRegistrar) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return tgbotapi.Message{}, nil
}

func (f *fakeRegistrar) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := c.(type) {
	case tgbotapi.WebhookConfig:
		f.webhooks = append(f.webhooks, v)
	case tgbotapi.DeleteWebhookConfig:
		f.deletes++
	}
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func newTestLifecycle(bot *fakeRegistrar) *Lifecycle {
	return &Lifecycle{
		bot:     bot,
		baseURL: "https://bot.example.com/",
		path:    "/webhook/TOKEN",
		logger:  testLogger(),
	}
}

func TestRegister_Success(t *testing.T) {
	bot := &fakeRegistrar{}
	l := newTestLifecycle(bot)

	if err := l.Register(); err != nil {
		t.Fatal(err)
	}
	if l.State() != StateRegistered {
		t.Errorf("expected registered state, got %s", l.State())
	}
	if len(bot.webhooks) != 1 {
		t.Fatalf("expected 1 registration call, got %d", len(bot.webhooks))
	}
	wh := bot.webhooks[0]
	if wh.URL.String() != "https://bot.example.com/webhook/TOKEN" {
		t.Errorf("unexpected webhook url: %s", wh.URL)
	}
	if !wh.DropPendingUpdates {
		t.Error("stale pending updates must be dropped at registration")
	}
}

func TestRegister_FailureIsFatal(t *testing.T) {
	bot := &fakeRegistrar{requestErr: errors.New("telegram is down")}
	l := newTestLifecycle(bot)

	err := l.Register()
	if err == nil {
		t.Fatal("expected registration failure")
	}
	if !strings.Contains(err.Error(), "register webhook") {
		t.Errorf("unexpected error: %v", err)
	}
	if l.State() != StateUnregistered {
		t.Errorf("failed registration must not advance state, got %s", l.State())
	}
}

func TestRegister_Twice(t *testing.T) {
	l := newTestLifecycle(&fakeRegistrar{})

	if err := l.Register(); err != nil {
		t.Fatal(err)
	}
	if err := l.Register(); err == nil {
		t.Error("second registration must be rejected")
	}
}

func TestDeregister_AfterRegister(t *testing.T) {
	bot := &fakeRegistrar{}
	l := newTestLifecycle(bot)

	if err := l.Register(); err != nil {
		t.Fatal(err)
	}
	if err := l.Deregister(); err != nil {
		t.Fatal(err)
	}
	if l.State() != StateDeregistered {
		t.Errorf("expected deregistered state, got %s", l.State())
	}
	if bot.deletes != 1 {
		t.Errorf("expected 1 delete call, got %d", bot.deletes)
	}
}

func TestDeregister_FailureDoesNotBlockShutdown(t *testing.T) {
	bot := &fakeRegistrar{}
	l := newTestLifecycle(bot)

	if err := l.Register(); err != nil {
		t.Fatal(err)
	}
	bot.requestErr = errors.New("telegram is down")

	err := l.Deregister()
	if err == nil {
		t.Fatal("expected the failure to be reported for logging")
	}
	if l.State() != StateDeregistered {
		t.Errorf("state must advance despite the failure, got %s", l.State())
	}
}

func TestDeregister_WithoutRegister(t *testing.T) {
	bot := &fakeRegistrar{}
	l := newTestLifecycle(bot)

	if err := l.Deregister(); err != nil {
		t.Fatal(err)
	}
	if bot.deletes != 0 {
		t.Error("nothing to deregister, no platform call expected")
	}
	if l.State() != StateUnregistered {
		t.Errorf("state must not change, got %s", l.State())
	}
}
