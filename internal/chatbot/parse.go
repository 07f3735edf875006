package chatbot

import (
	"regexp"
	"strconv"
	"strings"

	"konbot/internal/domain/beatmap"
	"konbot/internal/ports"
	"konbot/internal/usecase/catalog"
)

// DefaultDescription is the placeholder recorded when the submitter left the
// description empty; the recommendation recorder owns the sentinel.
const DefaultDescription = catalog.DefaultDescription

// RecommendArgs is the parsed form of a recommend command line.
type RecommendArgs struct {
	// UserType is nil when no token matched a type alias.
	UserType *beatmap.Type
	// BID is 0 when no integer token was present.
	BID         int64
	Description string
}

// ParseRecommendArgs classifies free-form tokens: the first integer is the
// beatmap id, the first type-alias match is the asserted type, everything
// else joins into the description. Order does not matter.
func ParseRecommendArgs(text string, aliases beatmap.AliasTable) RecommendArgs {
	args := RecommendArgs{}
	var descriptionParts []string

	for _, part := range strings.Fields(text) {
		if args.BID == 0 {
			if bid, err := strconv.ParseInt(part, 10, 64); err == nil && bid > 0 {
				args.BID = bid
				continue
			}
		}
		if args.UserType == nil {
			if typ, ok := aliases.Lookup(part); ok {
				args.UserType = &typ
				continue
			}
		}
		descriptionParts = append(descriptionParts, part)
	}

	args.Description = strings.Join(descriptionParts, " ")
	if args.Description == "" {
		args.Description = DefaultDescription
	}
	return args
}

var (
	filterTokenRe = regexp.MustCompile(`^([a-z_]+)((?:>=|<=|>|<|=)?[\d.\-]+[sm]?)$`)
	opValueRe     = regexp.MustCompile(`^(>=|<=|>|<|=)([\d.]+)$`)
	rangeValueRe  = regexp.MustCompile(`^([\d.]+)-([\d.]+)$`)
	bareValueRe   = regexp.MustCompile(`^[\d.]+$`)
)

// ParseRandomArgs parses the random-pick grammar: an optional leading type
// alias, `n=COUNT` (or `数量=COUNT`), and numeric filters like `stars=6-6.5`,
// `ar>=9`, `length<180` (length accepts an `m` suffix for minutes).
// Unparseable tokens are skipped, matching the original bot's tolerance.
func ParseRandomArgs(text string, aliases beatmap.AliasTable) ports.RandomQuery {
	query := ports.RandomQuery{Count: 1}

	parts := strings.Fields(strings.ToLower(text))
	remaining := parts[:0]
	for _, part := range parts {
		rest, ok := strings.CutPrefix(part, "n=")
		if !ok {
			rest, ok = strings.CutPrefix(part, "数量=")
		}
		if ok {
			if count, err := strconv.Atoi(rest); err == nil {
				query.Count = count
			}
			continue
		}
		remaining = append(remaining, part)
	}

	if len(remaining) > 0 {
		if typ, ok := aliases.Lookup(remaining[0]); ok {
			query.Type = &typ
			remaining = remaining[1:]
		}
	}

	for _, part := range remaining {
		if filter, ok := parseFilterToken(part); ok {
			query.Filters = append(query.Filters, filter)
		}
	}
	return query
}

// filterFields is the grammar-level whitelist; the repository enforces its
// own column map behind it.
var filterFields = map[string]struct{}{
	"ar": {}, "od": {}, "cs": {}, "hp": {},
	"stars": {}, "length": {}, "bpm": {},
}

func parseFilterToken(token string) (ports.NumericFilter, bool) {
	match := filterTokenRe.FindStringSubmatch(token)
	if match == nil {
		return ports.NumericFilter{}, false
	}
	field, rawValue := match[1], match[2]
	if _, ok := filterFields[field]; !ok {
		return ports.NumericFilter{}, false
	}

	// Length filters accept 3m / 180s; minutes scale to seconds.
	multiplier := 1.0
	if field == "length" && strings.HasSuffix(rawValue, "m") {
		multiplier = 60.0
	}
	rawValue = strings.TrimRight(rawValue, "sm")

	if m := opValueRe.FindStringSubmatch(rawValue); m != nil {
		value, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return ports.NumericFilter{}, false
		}
		return ports.NumericFilter{Field: field, Op: m[1], Value: value * multiplier}, true
	}
	if m := rangeValueRe.FindStringSubmatch(rawValue); m != nil {
		low, err1 := strconv.ParseFloat(m[1], 64)
		high, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil {
			return ports.NumericFilter{}, false
		}
		if high < low {
			low, high = high, low
		}
		low *= multiplier
		high *= multiplier
		return ports.NumericFilter{Field: field, Value: low, High: &high}, true
	}
	if bareValueRe.MatchString(rawValue) {
		value, err := strconv.ParseFloat(rawValue, 64)
		if err != nil {
			return ports.NumericFilter{}, false
		}
		return ports.NumericFilter{Field: field, Op: "=", Value: value * multiplier}, true
	}
	return ports.NumericFilter{}, false
}
