package beatmap

import (
	"fmt"
	"strings"
)

// Type is the canonical classification vocabulary for beatmaps.
type Type string

const (
	TypeStream Type = "stream"
	TypeJump   Type = "jump"
	TypeAlt    Type = "alt"
	TypeTech   Type = "tech"
	TypeOthers Type = "others"
)

// canonicalModelTypes fixes the iteration order used when scanning
// probabilities, so malformed model output resolves deterministically.
var canonicalModelTypes = []Type{TypeStream, TypeJump, TypeAlt, TypeTech}

// AliasTable maps user- and model-facing labels to canonical types.
// Keys are compared lowercase.
type AliasTable map[string]Type

// DefaultAliases returns the built-in alias table, including the CJK
// shorthand the chat community uses.
func DefaultAliases() AliasTable {
	return AliasTable{
		"串":      TypeStream,
		"stream": TypeStream,
		"跳":      TypeJump,
		"jump":   TypeJump,
		"aim":    TypeJump,
		"强双":     TypeAlt,
		"alt":    TypeAlt,
		"科技":     TypeTech,
		"tech":   TypeTech,
		"其他":     TypeOthers,
		"其它":     TypeOthers,
		"others": TypeOthers,
	}
}

// Extend returns a copy of the table with extra alias entries merged in.
// Values must name canonical types.
func (t AliasTable) Extend(extra map[string]string) (AliasTable, error) {
	merged := make(AliasTable, len(t)+len(extra))
	for alias, typ := range t {
		merged[alias] = typ
	}
	for alias, raw := range extra {
		key := strings.ToLower(strings.TrimSpace(alias))
		if key == "" {
			continue
		}
		typ := Type(strings.ToLower(strings.TrimSpace(raw)))
		if !IsCanonical(typ) {
			return nil, fmt.Errorf("%w: alias %q -> %q", ErrInvalidType, alias, raw)
		}
		merged[key] = typ
	}
	return merged, nil
}

// Lookup resolves a single label to its canonical type.
func (t AliasTable) Lookup(label string) (Type, bool) {
	typ, ok := t[strings.ToLower(strings.TrimSpace(label))]
	return typ, ok
}

// ParseType resolves a label against the table and fails on unknown input.
// This is the strict path used for user-asserted and administrator types.
func (t AliasTable) ParseType(label string) (Type, error) {
	typ, ok := t.Lookup(label)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, label)
	}
	return typ, nil
}

// IsCanonical reports whether typ is one of the closed type set.
func IsCanonical(typ Type) bool {
	switch typ {
	case TypeStream, TypeJump, TypeAlt, TypeTech, TypeOthers:
		return true
	default:
		return false
	}
}
