package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	if got := KindOf(NotFound("x")); got != KindNotFound {
		t.Errorf("KindOf(NotFound) = %v", got)
	}
	if got := KindOf(errors.New("boom")); got != KindUnexpected {
		t.Errorf("KindOf(plain error) = %v, want KindUnexpected", got)
	}
	if got := KindOf(nil); got != KindUnexpected {
		t.Errorf("KindOf(nil) = %v, want KindUnexpected", got)
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("handler: %w", Conflict("session already closed"))
	if got := KindOf(err); got != KindConflict {
		t.Errorf("KindOf(wrapped) = %v, want KindConflict", got)
	}
	if got := Message(err); got != "session already closed" {
		t.Errorf("Message(wrapped) = %q", got)
	}
}

func TestMessage_HidesInternals(t *testing.T) {
	err := Wrap(KindUnexpected, "query failed", errors.New("pq: connection reset"))
	if got := Message(err); got != "query failed" {
		t.Errorf("Message = %q, want the classified message", got)
	}
	if got := Message(errors.New("pq: connection reset")); got != "internal error" {
		t.Errorf("Message(plain) = %q, want generic", got)
	}
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := errors.New("unique constraint")
	err := Wrap(KindConflict, "duplicate session", cause)
	if !errors.Is(err, cause) {
		t.Error("wrapped cause lost")
	}
}
