package model

import (
	"slices"
	"strings"
)

// Rules is the immutable set of business filters applied during extraction
// and aggregation. Build it with NewRules; the zero value keeps nothing.
type Rules struct {
	formType           string
	targetList         []string
	targetCodes        map[string]struct{}
	valueCodes         map[string]struct{}
	minTradeValue      float64
	megaTradeThreshold float64
}

// NewRules copies the given settings into a Rules value. Codes are
// upper-cased.
func NewRules(formType string, targetCodes, valueCodes []string, minTradeValue, megaTradeThreshold float64) Rules {
	var list []string
	for _, c := range targetCodes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if !slices.Contains(list, c) {
			list = append(list, c)
		}
	}
	return Rules{
		formType:           formType,
		targetList:         list,
		targetCodes:        codeSet(targetCodes),
		valueCodes:         codeSet(valueCodes),
		minTradeValue:      minTradeValue,
		megaTradeThreshold: megaTradeThreshold,
	}
}

// DefaultRules mirrors the production defaults: Form 4, codes P/S/M/X/V,
// P and S as cash trades, $1M minimum and $10M mega threshold.
func DefaultRules() Rules {
	return NewRules("4", []string{"P", "S", "M", "X", "V"}, []string{"P", "S"}, 1_000_000, 10_000_000)
}

func codeSet(codes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		set[strings.ToUpper(strings.TrimSpace(c))] = struct{}{}
	}
	return set
}

// FormType is the index form-type a filing must carry to be processed.
func (r Rules) FormType() string { return r.formType }

// TargetCodes returns the target codes in configured order.
func (r Rules) TargetCodes() []string { return slices.Clone(r.targetList) }

// IsTargetCode reports whether transactions with code are kept at all.
func (r Rules) IsTargetCode(code string) bool {
	_, ok := r.targetCodes[code]
	return ok
}

// IsValueCode reports whether code denotes a cash purchase or sale.
func (r Rules) IsValueCode(code string) bool {
	_, ok := r.valueCodes[code]
	return ok
}

func (r Rules) MinTradeValue() float64      { return r.minTradeValue }
func (r Rules) MegaTradeThreshold() float64 { return r.megaTradeThreshold }

// Keep applies the value-magnitude filter: non-value trades always pass,
// value trades pass when they reach the minimum.
func (r Rules) Keep(t Trade) bool {
	if !t.IsValueTrade {
		return true
	}
	return t.Value >= r.minTradeValue
}
