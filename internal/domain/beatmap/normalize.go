package beatmap

// NormalizeProbabilities maps an arbitrary model label -> probability mapping
// onto the canonical type set. Labels are resolved case-insensitively through
// the alias table; unrecognized labels are discarded. When two labels alias
// to the same canonical type their probabilities are summed.
//
// Pure function: nil or empty input yields an empty map, never an error.
func NormalizeProbabilities(raw map[string]float64, aliases AliasTable) map[Type]float64 {
	normalized := make(map[Type]float64, len(raw))
	for label, prob := range raw {
		typ, ok := aliases.Lookup(label)
		if !ok {
			continue
		}
		normalized[typ] += prob
	}
	return normalized
}

// modelTypeThreshold is the exclusive lower bound a summed probability must
// clear before the model's verdict counts as a classification.
const modelTypeThreshold = 0.5

// ModelTypeFromProbabilities derives the model's verdict from normalized
// probabilities. A type qualifies only with probability strictly above 0.5;
// exactly 0.5 or no qualifying entry falls back to TypeOthers. Types are
// scanned in a fixed canonical order so malformed input (two entries above
// the threshold) still resolves the same way every run.
func ModelTypeFromProbabilities(probs map[Type]float64) Type {
	for _, typ := range canonicalModelTypes {
		if probs[typ] > modelTypeThreshold {
			return typ
		}
	}
	return TypeOthers
}
