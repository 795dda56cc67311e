// Package filter compiles a buyer's facet selection into a store-agnostic predicate.
package filter

import (
	"fmt"
	"slices"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/benbjohnson/clock"
)

// Selection is the sparse set of facet buckets a buyer picked. Nil or empty facets
// do not constrain the result.
type Selection struct {
	Languages []string `json:"languages,omitempty"`
	Genders   []string `json:"genders,omitempty"`
	Ages      []string `json:"ages,omitempty"`
	Prices    []string `json:"prices,omitempty"`
}

func (s Selection) IsEmpty() bool {
	return len(s.Languages) == 0 && len(s.Genders) == 0 && len(s.Ages) == 0 && len(s.Prices) == 0
}

type Compiler struct {
	buckets BucketTable
	clock   clock.Clock
}

func NewCompiler(buckets BucketTable, clk clock.Clock) *Compiler {
	if clk == nil {
		clk = clock.New()
	}
	return &Compiler{buckets: buckets, clock: clk}
}

// Compile has no side effects; the only input besides sel is the clock, which turns
// age buckets into birthdate ranges.
func (c *Compiler) Compile(sel Selection) (Predicate, error) {
	var p Predicate

	if ids := canonical(sel.Languages); len(ids) > 0 {
		p.Clauses = append(p.Clauses, In{On: FieldLanguage, Values: ids})
	}
	if genders := canonical(sel.Genders); len(genders) > 0 {
		p.Clauses = append(p.Clauses, In{On: FieldGender, Values: genders})
	}
	if ages := canonical(sel.Ages); len(ages) > 0 {
		span, err := fold(c.buckets.Ages, "age", ages)
		if err != nil {
			return Predicate{}, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
		}
		now := c.clock.Now().UTC()
		p.Clauses = append(p.Clauses, TimeBetween{
			On:   FieldBirthdate,
			From: now.AddDate(-int(span.Max), 0, 0),
			To:   now.AddDate(-int(span.Min), 0, 0),
		})
	}
	if prices := canonical(sel.Prices); len(prices) > 0 {
		span, err := fold(c.buckets.Prices, "price", prices)
		if err != nil {
			return Predicate{}, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
		}
		p.Clauses = append(p.Clauses, NumberBetween{On: FieldPrice, Min: span.Min, Max: span.Max})
	}
	return p, nil
}

// canonical drops blanks and duplicates and sorts, so equal selections compile to equal predicates.
func canonical(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
