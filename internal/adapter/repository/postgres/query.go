package postgres

import (
	"fmt"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/filter"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/paging"
	sq "github.com/Masterminds/squirrel"
)

var listingColumns = []string{
	"l.id", "l.user_id", "l.category_id", "l.level", "l.platforms", "l.description",
	"l.price", "l.per", "l.image", "l.status", "l.created_at", "l.updated_at",
}

// pageQuery builds the keyset page select. Seller columns are joined only when a facet
// needs them; the language facet is an EXISTS so a seller speaking several selected
// languages still yields one row.
func pageQuery(q paging.Query) (string, []any, error) {
	b := psql.Select(listingColumns...).
		From("listings l").
		Where(sq.Eq{"l.category_id": q.ScopeID})

	joinSeller := false
	for _, c := range q.Predicate.Clauses {
		switch c := c.(type) {
		case filter.NumberBetween:
			if c.On != filter.FieldPrice {
				return "", nil, fmt.Errorf("postgres: unsupported range field %q", c.On)
			}
			b = b.Where(sq.Expr("l.price BETWEEN ? AND ?", c.Min, c.Max))
		case filter.TimeBetween:
			if c.On != filter.FieldBirthdate {
				return "", nil, fmt.Errorf("postgres: unsupported time field %q", c.On)
			}
			joinSeller = true
			b = b.Where(sq.Expr("u.birthdate BETWEEN ? AND ?", c.From, c.To))
		case filter.In:
			switch c.On {
			case filter.FieldGender:
				joinSeller = true
				b = b.Where(sq.Eq{"u.gender": c.Values})
			case filter.FieldLanguage:
				b = b.Where(sq.Expr(
					"EXISTS (SELECT 1 FROM user_languages ul WHERE ul.user_id = l.user_id AND ul.language_id = ANY(?))",
					c.Values))
			default:
				return "", nil, fmt.Errorf("postgres: unsupported set field %q", c.On)
			}
		default:
			return "", nil, fmt.Errorf("postgres: unsupported clause %T", c)
		}
	}
	if joinSeller {
		b = b.Join("users u ON u.id = l.user_id")
	}

	if after := q.After; after != nil {
		if after.ID == "" {
			b = b.Where(sq.Lt{"l.created_at": after.CreatedAt})
		} else {
			b = b.Where(sq.Expr("(l.created_at, l.id) < (?, ?)", after.CreatedAt, after.ID))
		}
	}

	return b.OrderBy("l.created_at DESC", "l.id DESC").
		Limit(uint64(q.Limit)).
		ToSql()
}
