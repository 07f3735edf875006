package beatmap

import (
	"errors"
	"testing"
)

func TestParseTypeAliases(t *testing.T) {
	aliases := DefaultAliases()

	cases := map[string]Type{
		"stream": TypeStream,
		"串":      TypeStream,
		"JUMP":   TypeJump,
		"aim":    TypeJump,
		"强双":     TypeAlt,
		"科技":     TypeTech,
		"其它":     TypeOthers,
		" tech ": TypeTech,
	}
	for raw, want := range cases {
		got, err := aliases.ParseType(raw)
		if err != nil {
			t.Fatalf("ParseType(%q) error = %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseType(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestParseTypeUnknown(t *testing.T) {
	_, err := DefaultAliases().ParseType("farm")
	if !errors.Is(err, ErrInvalidType) {
		t.Fatalf("ParseType() error = %v, want ErrInvalidType", err)
	}
}

func TestExtendRejectsNonCanonicalTarget(t *testing.T) {
	_, err := DefaultAliases().Extend(map[string]string{"farm": "grind"})
	if !errors.Is(err, ErrInvalidType) {
		t.Fatalf("Extend() error = %v, want ErrInvalidType", err)
	}
}

func TestExtendMergesWithoutMutatingBase(t *testing.T) {
	base := DefaultAliases()
	merged, err := base.Extend(map[string]string{"Speed": "stream"})
	if err != nil {
		t.Fatalf("Extend() error = %v", err)
	}

	if got, ok := merged.Lookup("speed"); !ok || got != TypeStream {
		t.Fatalf("Lookup(speed) = %q, %v", got, ok)
	}
	if _, ok := base.Lookup("speed"); ok {
		t.Fatalf("Extend() mutated the base table")
	}
}
