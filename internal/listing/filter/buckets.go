package filter

import (
	"fmt"
	"math"
)

// Span is an inclusive [Min, Max] range a bucket resolves to.
type Span struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
}

// BucketTable maps bucket ids to value ranges. Age spans are in whole years,
// price spans in currency units.
type BucketTable struct {
	Ages   map[string]Span `mapstructure:"ages"`
	Prices map[string]Span `mapstructure:"prices"`
}

func DefaultBucketTable() BucketTable {
	return BucketTable{
		Ages: map[string]Span{
			"18-25": {Min: 18, Max: 25},
			"26-30": {Min: 26, Max: 30},
			"30+":   {Min: 30, Max: 99},
		},
		Prices: map[string]Span{
			"0-5":   {Min: 0, Max: 5},
			"5-10":  {Min: 5, Max: 10},
			"10-20": {Min: 10, Max: 20},
			"20+":   {Min: 20, Max: 99999},
		},
	}
}

func (t BucketTable) Validate() error {
	if len(t.Ages) == 0 || len(t.Prices) == 0 {
		return fmt.Errorf("bucket table: age and price buckets are required")
	}
	for id, s := range t.Ages {
		if s.Min > s.Max || s.Min < 0 || s.Min != math.Trunc(s.Min) || s.Max != math.Trunc(s.Max) {
			return fmt.Errorf("bucket table: age bucket %q has invalid span [%v,%v]", id, s.Min, s.Max)
		}
	}
	for id, s := range t.Prices {
		if s.Min > s.Max {
			return fmt.Errorf("bucket table: price bucket %q has invalid span [%v,%v]", id, s.Min, s.Max)
		}
	}
	return nil
}

// fold merges every selected bucket into one contiguous span: the smallest Min and
// the largest Max, whatever order the ids arrive in. Non-adjacent buckets therefore
// also admit the gap between them.
func fold(table map[string]Span, facet string, ids []string) (Span, error) {
	out := Span{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, id := range ids {
		s, ok := table[id]
		if !ok {
			return Span{}, fmt.Errorf("unknown %s bucket %q", facet, id)
		}
		out.Min = math.Min(out.Min, s.Min)
		out.Max = math.Max(out.Max, s.Max)
	}
	return out, nil
}
