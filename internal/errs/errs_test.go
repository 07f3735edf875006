package errs

import (
	"errors"
	"testing"
)

func TestWrapPreservesChain(t *testing.T) {
	base := errors.New("boom")
	wrapped := Wrap(base, "outer")
	if !errors.Is(wrapped, base) {
		t.Fatalf("Wrap() broke the chain: %v", wrapped)
	}
	if wrapped.Error() != "outer: boom" {
		t.Fatalf("Wrap() = %q", wrapped.Error())
	}
	if Wrap(nil, "outer") != nil {
		t.Fatalf("Wrap(nil) must be nil")
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	base := WithKind(errors.New("db down"), KindPersistence)
	wrapped := Wrapf(Wrap(base, "apply directive"), "handle bid %d", 42)

	if got := KindOf(wrapped); got != KindPersistence {
		t.Fatalf("KindOf() = %v, want KindPersistence", got)
	}
}

func TestKindOfUntagged(t *testing.T) {
	if got := KindOf(errors.New("plain")); got != KindUnknown {
		t.Fatalf("KindOf() = %v, want KindUnknown", got)
	}
	if WithKind(nil, KindExternal) != nil {
		t.Fatalf("WithKind(nil) must be nil")
	}
}
