package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfWrapped(t *testing.T) {
	base := Invalid("text required")
	wrapped := fmt.Errorf("save goal: %w", base)
	if KindOf(wrapped) != InvalidInput {
		t.Fatalf("KindOf = %v", KindOf(wrapped))
	}
	if Message(wrapped) != "text required" {
		t.Fatalf("Message = %q", Message(wrapped))
	}
}

func TestUnknownErrorIsInternal(t *testing.T) {
	err := errors.New("boom")
	if KindOf(err) != Internal {
		t.Fatalf("KindOf = %v", KindOf(err))
	}
	if Message(err) != "internal error" {
		t.Fatalf("Message leaked %q", Message(err))
	}
}

func TestUpstreamUnwrap(t *testing.T) {
	cause := errors.New("quota exceeded")
	err := UpstreamErr("completion failed: quota exceeded", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
}
