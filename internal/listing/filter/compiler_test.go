package filter

import (
	"errors"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCompiler() (*Compiler, *clock.Mock) {
	clk := clock.NewMock()
	clk.Set(time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC))
	return NewCompiler(DefaultBucketTable(), clk), clk
}

func TestCompile_EmptySelection(t *testing.T) {
	c, _ := newTestCompiler()

	p, err := c.Compile(Selection{})
	require.NoError(t, err)
	assert.True(t, p.Empty())
	assert.True(t, p.Match(domain.Candidate{}))

	p, err = c.Compile(Selection{Languages: []string{}, Genders: []string{""}})
	require.NoError(t, err)
	assert.True(t, p.Empty())
}

func TestCompile_EnumerableFacets(t *testing.T) {
	c, _ := newTestCompiler()

	p, err := c.Compile(Selection{Languages: []string{"7", "5", "7"}, Genders: []string{"female", "male"}})
	require.NoError(t, err)
	require.Len(t, p.Clauses, 2)
	assert.Equal(t, In{On: FieldLanguage, Values: []string{"5", "7"}}, p.Clauses[0])
	assert.Equal(t, In{On: FieldGender, Values: []string{"female", "male"}}, p.Clauses[1])

	assert.True(t, p.Match(domain.Candidate{SellerGender: "male", LanguageIDs: []string{"1", "7"}}))
	assert.False(t, p.Match(domain.Candidate{SellerGender: "male", LanguageIDs: []string{"1"}}))
	assert.False(t, p.Match(domain.Candidate{SellerGender: "other", LanguageIDs: []string{"5"}}))
}

// Selecting "0-5" and "20+" also admits 5..20: buckets fold into one contiguous span.
// A disjoint union ([0,5] OR [20,99999]) is the plausible product intent but is not
// what listings have been filtered by so far.
func TestCompile_PriceBucketsFoldIntoOneSpan(t *testing.T) {
	c, _ := newTestCompiler()

	p, err := c.Compile(Selection{Prices: []string{"20+", "0-5"}})
	require.NoError(t, err)
	require.Len(t, p.Clauses, 1)
	assert.Equal(t, NumberBetween{On: FieldPrice, Min: 0, Max: 99999}, p.Clauses[0])

	gap := domain.Candidate{Listing: domain.Listing{Price: 12}}
	assert.True(t, p.Match(gap))
}

func TestCompile_AgeBucketsBecomeBirthdateRange(t *testing.T) {
	c, clk := newTestCompiler()
	now := clk.Now().UTC()

	p, err := c.Compile(Selection{Ages: []string{"26-30", "18-25"}})
	require.NoError(t, err)
	require.Len(t, p.Clauses, 1)
	assert.Equal(t, TimeBetween{
		On:   FieldBirthdate,
		From: now.AddDate(-30, 0, 0),
		To:   now.AddDate(-18, 0, 0),
	}, p.Clauses[0])

	born := now.AddDate(-20, 0, 0)
	assert.True(t, p.Match(domain.Candidate{SellerBirthdate: &born}))
	tooYoung := now.AddDate(-17, 0, 0)
	assert.False(t, p.Match(domain.Candidate{SellerBirthdate: &tooYoung}))
	assert.False(t, p.Match(domain.Candidate{}), "sellers without a birthdate never match an age facet")
}

func TestCompile_FacetsCombineWithAnd(t *testing.T) {
	c, _ := newTestCompiler()

	p, err := c.Compile(Selection{Genders: []string{"female"}, Prices: []string{"5-10"}})
	require.NoError(t, err)

	assert.True(t, p.Match(domain.Candidate{SellerGender: "female", Listing: domain.Listing{Price: 7}}))
	assert.False(t, p.Match(domain.Candidate{SellerGender: "female", Listing: domain.Listing{Price: 11}}))
	assert.False(t, p.Match(domain.Candidate{SellerGender: "male", Listing: domain.Listing{Price: 7}}))
}

func TestCompile_UnknownBucketIsInvalidArgument(t *testing.T) {
	c, _ := newTestCompiler()

	_, err := c.Compile(Selection{Prices: []string{"0-5", "1000+"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))

	_, err = c.Compile(Selection{Ages: []string{"teen"}})
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestCompile_IsDeterministic(t *testing.T) {
	c, _ := newTestCompiler()
	selections := []Selection{
		{},
		{Languages: []string{"3", "1", "2"}},
		{Genders: []string{"male"}, Ages: []string{"30+", "18-25"}},
		{Prices: []string{"10-20", "5-10", "0-5", "20+"}, Languages: []string{"9"}},
	}
	for _, sel := range selections {
		first, err := c.Compile(sel)
		require.NoError(t, err)
		second, err := c.Compile(sel)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}

	// Permuting the input does not change the result.
	a, _ := c.Compile(Selection{Prices: []string{"5-10", "0-5"}, Languages: []string{"2", "1"}})
	b, _ := c.Compile(Selection{Prices: []string{"0-5", "5-10"}, Languages: []string{"1", "2"}})
	assert.Equal(t, a, b)
}

func TestBucketTable_Validate(t *testing.T) {
	assert.NoError(t, DefaultBucketTable().Validate())

	bad := DefaultBucketTable()
	bad.Prices = map[string]Span{"x": {Min: 10, Max: 1}}
	assert.Error(t, bad.Validate())

	assert.Error(t, BucketTable{}.Validate())
}
