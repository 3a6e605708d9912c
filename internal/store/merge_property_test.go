package store

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"InsiderSentinel/internal/model"
)

// tradeGen draws from small domains so that batches collide often.
func tradeGen() gopter.Gen {
	return gen.Struct(reflect.TypeOf(model.Trade{}), map[string]gopter.Gen{
		"Date":        gen.OneConstOf("2024-03-01", "2024-03-04"),
		"Code":        gen.OneConstOf("P", "S", "M"),
		"Ticker":      gen.OneConstOf("ACME", "BETA"),
		"Shares":      gen.OneConstOf(500.0, 1000.0, 1000.5),
		"Price":       gen.OneConstOf(0.0, 25.5),
		"CompanyName": gen.OneConstOf("first", "second"),
		"Filer":       gen.OneConstOf("Jane Doe", "John Roe"),
	})
}

func TestProperty_MergeIdempotent(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("merge(merge(S, B), B) == merge(S, B)", prop.ForAll(
		func(existing, batch []model.Trade) bool {
			once := Merge(existing, batch)
			twice := Merge(once, batch)
			return reflect.DeepEqual(once, twice)
		},
		gen.SliceOf(tradeGen()),
		gen.SliceOf(tradeGen()),
	))

	properties.Property("merged keys are unique and complete", prop.ForAll(
		func(existing, batch []model.Trade) bool {
			merged := Merge(existing, batch)
			seen := make(map[model.DedupKey]bool)
			for _, t := range merged {
				if seen[t.Key()] {
					return false
				}
				seen[t.Key()] = true
			}
			for _, t := range append(append([]model.Trade(nil), existing...), batch...) {
				if !seen[t.Key()] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(tradeGen()),
		gen.SliceOf(tradeGen()),
	))

	properties.Property("existing record wins over a same-key batch record", prop.ForAll(
		func(existing, batch []model.Trade) bool {
			first := make(map[model.DedupKey]model.Trade)
			for _, t := range existing {
				if _, ok := first[t.Key()]; !ok {
					first[t.Key()] = t
				}
			}
			for _, t := range Merge(existing, batch) {
				if want, ok := first[t.Key()]; ok && t != want {
					return false
				}
			}
			return true
		},
		gen.SliceOf(tradeGen()),
		gen.SliceOf(tradeGen()),
	))

	properties.TestingRun(t)
}
