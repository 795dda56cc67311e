package filter

import (
	"slices"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
)

type Field string

const (
	FieldLanguage  Field = "language_id"
	FieldGender    Field = "gender"
	FieldBirthdate Field = "birthdate"
	FieldPrice     Field = "price"
)

// Clause is one facet constraint. Stores translate clauses by type switch;
// Match evaluates the clause in process.
type Clause interface {
	Field() Field
	Match(c domain.Candidate) bool
}

// In holds when the field value is one of Values. For FieldLanguage it holds when
// the seller speaks any of them.
type In struct {
	On     Field
	Values []string
}

func (c In) Field() Field { return c.On }

func (c In) Match(cand domain.Candidate) bool {
	switch c.On {
	case FieldLanguage:
		for _, id := range cand.LanguageIDs {
			if slices.Contains(c.Values, id) {
				return true
			}
		}
		return false
	case FieldGender:
		return slices.Contains(c.Values, cand.SellerGender)
	}
	return false
}

type NumberBetween struct {
	On       Field
	Min, Max float64
}

func (c NumberBetween) Field() Field { return c.On }

func (c NumberBetween) Match(cand domain.Candidate) bool {
	if c.On != FieldPrice {
		return false
	}
	p := cand.Listing.Price
	return p >= c.Min && p <= c.Max
}

type TimeBetween struct {
	On       Field
	From, To time.Time
}

func (c TimeBetween) Field() Field { return c.On }

func (c TimeBetween) Match(cand domain.Candidate) bool {
	if c.On != FieldBirthdate || cand.SellerBirthdate == nil {
		return false
	}
	b := *cand.SellerBirthdate
	return !b.Before(c.From) && !b.After(c.To)
}

// Predicate is a conjunction of clauses. The zero value matches everything.
type Predicate struct {
	Clauses []Clause
}

func (p Predicate) Empty() bool { return len(p.Clauses) == 0 }

func (p Predicate) Match(c domain.Candidate) bool {
	for _, clause := range p.Clauses {
		if !clause.Match(c) {
			return false
		}
	}
	return true
}
