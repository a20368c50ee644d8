package catalog

import (
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustQuery(t *testing.T, raw string) url.Values {
	t.Helper()
	q, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return q
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter(mustQuery(t, ""))
	require.NoError(t, err)
	assert.True(t, f.IsZero())

	f, err = ParseFilter(mustQuery(t, "category=c1&minPrice=10&maxPrice=20&available&search=Fern&q=ivy&featured=true&difficulty=Easy&lightRequirement=Low&sort=name"))
	require.NoError(t, err)
	assert.Equal(t, "c1", f.CategoryID)
	assert.Equal(t, 10.0, *f.MinPrice)
	assert.Equal(t, 20.0, *f.MaxPrice)
	assert.True(t, f.AvailableOnly)
	assert.Equal(t, "Fern", f.Search)
	assert.True(t, f.FeaturedOnly)
	assert.Equal(t, "Easy", f.Difficulty)
	assert.Equal(t, "Low", f.LightRequirement)
}

func TestParseFilterTreatsAllAsAbsent(t *testing.T) {
	f, err := ParseFilter(mustQuery(t, "category=All&difficulty=all&lightRequirement=ALL&featured=false"))
	require.NoError(t, err)
	assert.True(t, f.IsZero())
}

func TestParseFilterFallsBackToQ(t *testing.T) {
	f, err := ParseFilter(mustQuery(t, "q=ivy"))
	require.NoError(t, err)
	assert.Equal(t, "ivy", f.Search)
}

func TestParseFilterRejects(t *testing.T) {
	tests := map[string]string{
		"minPrice=abc":            "minPrice must be a number.",
		"maxPrice=NaN":            "maxPrice must be a number.",
		"minPrice=30&maxPrice=20": "minPrice must not exceed maxPrice.",
		"featured=maybe":          "featured must be true or false.",
	}
	for raw, want := range tests {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseFilter(mustQuery(t, raw))
			assert.EqualError(t, err, want)
		})
	}
}

func TestParsePage(t *testing.T) {
	n, err := ParsePage(mustQuery(t, ""))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = ParsePage(mustQuery(t, "page=3"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = ParsePage(url.Values{"page": {strconv.Itoa(maxPage)}})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, PageNumber(n).Skip, 0)

	for _, raw := range []string{"page=0", "page=-1", "page=two", "page=1.5", "page=576460752303423489", "page=" + strconv.Itoa(maxPage+1)} {
		_, err := ParsePage(mustQuery(t, raw))
		assert.EqualError(t, err, "Page must be a positive integer.", raw)
	}
}

func TestPageNumber(t *testing.T) {
	assert.Equal(t, Page{Skip: 0, Limit: 16}, PageNumber(1))
	assert.Equal(t, Page{Skip: 32, Limit: 16}, PageNumber(3))
	assert.Equal(t, Page{Skip: 0, Limit: 16}, PageNumber(0))
}

func TestFilterMatchPriceRange(t *testing.T) {
	f, err := ParseFilter(mustQuery(t, "minPrice=10&maxPrice=20"))
	require.NoError(t, err)

	var got []float64
	for _, price := range []float64{5, 10, 15, 20, 25} {
		if f.Match(&Plant{Price: price}) {
			got = append(got, price)
		}
	}
	assert.Equal(t, []float64{10, 15, 20}, got)
}

func TestFilterMatch(t *testing.T) {
	p := &Plant{
		Name:             "BOSTON FERN",
		Price:            12,
		Category:         CategoryRef{ID: "c1"},
		Availability:     0,
		Difficulty:       "Easy",
		LightRequirement: "Low",
	}

	assert.True(t, Filter{}.Match(p))
	assert.True(t, Filter{Search: "fern"}.Match(p))
	assert.True(t, Filter{CategoryID: "c1", Difficulty: "Easy"}.Match(p))
	assert.False(t, Filter{CategoryID: "c2"}.Match(p))
	assert.False(t, Filter{AvailableOnly: true}.Match(p))
	assert.False(t, Filter{FeaturedOnly: true}.Match(p))
	assert.False(t, Filter{Search: "ivy"}.Match(p))
	assert.False(t, Filter{LightRequirement: "High"}.Match(p))
}
