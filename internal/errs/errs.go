package errs

import (
	"errors"
	"fmt"
	"log/slog"
)

// Wrap adds context and preserves the error chain (errors.Is/As works).
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf adds formatted context and preserves the error chain.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	// Append the original err as the last arg for %w.
	args = append(args, err)
	return fmt.Errorf(format+": %w", args...)
}

// Kind is the closed failure taxonomy the command layer branches on when it
// turns an error into a user-facing message.
type Kind int

const (
	KindUnknown Kind = iota
	// KindExternal covers unreachable or erroring upstream services
	// (metadata API, classification model).
	KindExternal
	// KindNotFound covers a referenced entity being absent where required.
	KindNotFound
	// KindInvalidInput covers malformed type strings and out-of-range
	// arguments.
	KindInvalidInput
	// KindPersistence covers store transaction failures after rollback.
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindExternal:
		return "external_service_failure"
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindPersistence:
		return "persistence_failure"
	default:
		return "unknown"
	}
}

// kindError tags an error with a Kind while preserving the chain.
type kindError struct {
	err  error
	kind Kind
}

func (e *kindError) Error() string { return e.err.Error() }
func (e *kindError) Unwrap() error { return e.err }

// WithKind tags err with a failure kind. Tagging happens once at the boundary
// that knows the cause; wrapping with Wrap/Wrapf afterwards keeps the tag
// reachable through the chain.
func WithKind(err error, kind Kind) error {
	if err == nil {
		return nil
	}
	return &kindError{err: err, kind: kind}
}

// KindOf returns the first kind tag on the chain, or KindUnknown.
func KindOf(err error) Kind {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return KindUnknown
}

// LogValue makes slog encode the error as structured fields.
// Usage: slog.Any("err", errs.Loggable(err))
type loggable struct{ err error }

func Loggable(err error) slog.LogValuer { return loggable{err: err} }

func (l loggable) LogValue() slog.Value {
	if l.err == nil {
		return slog.GroupValue()
	}

	attrs := []slog.Attr{
		slog.String("message", l.err.Error()),
		slog.Any("chain", ErrorChainStrings(l.err)),
	}
	if kind := KindOf(l.err); kind != KindUnknown {
		attrs = append(attrs, slog.String("kind", kind.String()))
	}

	return slog.GroupValue(attrs...)
}

// ErrorChainStrings returns the unwrap chain as strings (outer -> inner).
func ErrorChainStrings(err error) []string {
	if err == nil {
		return nil
	}

	out := make([]string, 0, 8)
	for e := err; e != nil; e = errors.Unwrap(e) {
		out = append(out, e.Error())
	}
	return out
}
