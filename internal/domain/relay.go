package domain

import "context"

// Completer produces a model answer for one user message. All-or-nothing:
// a non-nil error means no usable text was obtained.
type Completer interface {
	Complete(ctx context.Context, text string) (string, error)
}

// Deliverer sends an answer to the originating chat, splitting and pacing
// long text as the platform requires. Segment order is always preserved.
type Deliverer interface {
	Deliver(ctx context.Context, chatID int64, text string) error
}

// Recorder mirrors a handled exchange to the audit channel. Best-effort:
// implementations return immediately and never surface failures.
type Recorder interface {
	Record(ex Exchange)
}
