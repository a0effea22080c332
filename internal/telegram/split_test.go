package telegram

import (
	"strings"
	"testing"
)

func TestSplit_ShortText(t *testing.T) {
	segs := Split("Hello", MaxSegmentLen)
	if len(segs) != 1 || segs[0] != "Hello" {
		t.Errorf("expected [Hello], got %v", segs)
	}
}

func TestSplit_ExactBoundary(t *testing.T) {
	text := strings.Repeat("x", MaxSegmentLen)
	segs := Split(text, MaxSegmentLen)
	if len(segs) != 1 {
		t.Errorf("text at the boundary should stay whole, got %d segments", len(segs))
	}
}

func TestSplit_LongText(t *testing.T) {
	text := strings.Repeat("a", 8000)
	segs := Split(text, MaxSegmentLen)

	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	for i, s := range segs {
		if len(s) != 4000 {
			t.Errorf("segment %d: expected length 4000, got %d", i, len(s))
		}
	}
	if strings.Join(segs, "") != text {
		t.Error("concatenated segments do not reproduce the input")
	}
}

func TestSplit_Remainder(t *testing.T) {
	text := strings.Repeat("b", 9001)
	segs := Split(text, MaxSegmentLen)

	want := (len(text) + MaxSegmentLen - 1) / MaxSegmentLen
	if len(segs) != want {
		t.Fatalf("expected %d segments, got %d", want, len(segs))
	}
	if len(segs[len(segs)-1]) != 1001 {
		t.Errorf("expected final remainder of 1001, got %d", len(segs[len(segs)-1]))
	}
	for i, s := range segs {
		if len(s) > MaxSegmentLen {
			t.Errorf("segment %d too long: %d", i, len(s))
		}
		if s == "" {
			t.Errorf("segment %d is empty", i)
		}
	}
	if strings.Join(segs, "") != text {
		t.Error("concatenated segments do not reproduce the input")
	}
}

func TestSplit_Empty(t *testing.T) {
	segs := Split("", MaxSegmentLen)
	if len(segs) != 1 || segs[0] != "" {
		t.Errorf("expected a single empty segment, got %v", segs)
	}
}
