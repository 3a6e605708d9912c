package collector

import apperr "InsiderSentinel/internal/errors"

// Action is what the parser does when a stage reports a failure.
type Action int

const (
	// SkipFiling drops the whole filing; no trades are produced from it.
	SkipFiling Action = iota
	// DefaultField substitutes the field's default and keeps going.
	DefaultField
)

func (a Action) String() string {
	if a == DefaultField {
		return "default-field"
	}
	return "skip-filing"
}

// Policy maps each failure kind to an Action. Kinds not listed skip the
// filing.
type Policy map[error]Action

// DefaultPolicy is the production failure policy.
func DefaultPolicy() Policy {
	return Policy{
		apperr.ErrFilingFetchFailed:   SkipFiling,
		apperr.ErrMalformedDocument:   SkipFiling,
		apperr.ErrParseFailed:         SkipFiling,
		apperr.ErrFieldCoercionFailed: DefaultField,
	}
}

// ActionFor returns the action for the failure kind err carries.
func (p Policy) ActionFor(err error) Action {
	if a, ok := p[apperr.Kind(err)]; ok {
		return a
	}
	return SkipFiling
}
