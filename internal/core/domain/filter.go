package domain

import "fmt"

// FilterOp is the comparison operator of a metadata filter
type FilterOp string

const (
	// FilterEq matches when the field equals the single value
	FilterEq FilterOp = "eq"

	// FilterIn matches when the field equals any of the values
	FilterIn FilterOp = "in"
)

// Filter is one exact-match or set-membership constraint on chunk
// metadata. A query carries a conjunction of filters: every filter
// must match for a chunk to be considered.
type Filter struct {
	Field  string   `json:"field"`
	Op     FilterOp `json:"op"`
	Values []string `json:"values"`
}

// SourceFilter builds the common source_id membership filter
func SourceFilter(sourceIDs []string) Filter {
	return Filter{Field: MetaSourceID, Op: FilterIn, Values: sourceIDs}
}

// Validate checks the filter is well-formed
func (f Filter) Validate() error {
	if f.Field == "" {
		return fmt.Errorf("%w: empty field", ErrInvalidFilter)
	}
	switch f.Op {
	case FilterEq:
		if len(f.Values) != 1 {
			return fmt.Errorf("%w: eq on %q wants exactly one value, got %d", ErrInvalidFilter, f.Field, len(f.Values))
		}
	case FilterIn:
		if len(f.Values) == 0 {
			return fmt.Errorf("%w: in on %q wants at least one value", ErrInvalidFilter, f.Field)
		}
	default:
		return fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, string(f.Op))
	}
	return nil
}

// Matches reports whether the chunk metadata satisfies this filter.
// A missing field never matches.
func (f Filter) Matches(metadata map[string]string) bool {
	value, ok := metadata[f.Field]
	if !ok {
		return false
	}
	for _, want := range f.Values {
		if value == want {
			return true
		}
	}
	return false
}

// ValidateFilters validates a conjunction of filters
func ValidateFilters(filters []Filter) error {
	for _, f := range filters {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// MatchesAll reports whether metadata satisfies every filter
func MatchesAll(filters []Filter, metadata map[string]string) bool {
	for _, f := range filters {
		if !f.Matches(metadata) {
			return false
		}
	}
	return true
}
