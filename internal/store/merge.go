package store

import "InsiderSentinel/internal/model"

// Merge appends incoming to existing and keeps the first trade seen for each
// dedup key, preserving insertion order. It is idempotent: merging the same
// batch twice yields the same set.
func Merge(existing, incoming []model.Trade) []model.Trade {
	merged, _ := merge(existing, incoming)
	return merged
}

// merge also reports how many incoming trades introduced a new key.
func merge(existing, incoming []model.Trade) ([]model.Trade, int) {
	seen := make(map[model.DedupKey]struct{}, len(existing)+len(incoming))
	out := make([]model.Trade, 0, len(existing)+len(incoming))

	for _, t := range existing {
		k := t.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, t)
	}

	added := 0
	for _, t := range incoming {
		k := t.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, t)
		added++
	}
	return out, added
}
