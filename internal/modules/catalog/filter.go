package catalog

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Filter is the typed predicate over the plant collection. Zero values impose
// no constraint; every set field narrows the result (logical AND).
type Filter struct {
	CategoryID       string
	MinPrice         *float64
	MaxPrice         *float64
	AvailableOnly    bool
	Search           string
	FeaturedOnly     bool
	Difficulty       string
	LightRequirement string
}

// ParseFilter builds a Filter from list query parameters. Malformed values are
// rejected; unknown parameters are ignored.
func ParseFilter(q url.Values) (Filter, error) {
	var f Filter

	f.CategoryID = choice(q.Get("category"))
	f.Difficulty = choice(q.Get("difficulty"))
	f.LightRequirement = choice(q.Get("lightRequirement"))

	var err error
	if f.MinPrice, err = price(q, "minPrice"); err != nil {
		return Filter{}, err
	}
	if f.MaxPrice, err = price(q, "maxPrice"); err != nil {
		return Filter{}, err
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return Filter{}, invalid("minPrice must not exceed maxPrice.")
	}

	_, f.AvailableOnly = q["available"]

	f.Search = strings.TrimSpace(q.Get("search"))
	if f.Search == "" {
		f.Search = strings.TrimSpace(q.Get("q"))
	}

	if raw := strings.TrimSpace(q.Get("featured")); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			return Filter{}, invalid("featured must be true or false.")
		}
		f.FeaturedOnly = featured
	}

	return f, nil
}

// maxPage is the largest page whose skip offset fits in an int.
const maxPage = math.MaxInt/PageSize + 1

// ParsePage reads the 1-based page parameter of a plant listing.
func ParsePage(q url.Values) (int, error) {
	raw := strings.TrimSpace(q.Get("page"))
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxPage {
		return 0, invalid("Page must be a positive integer.")
	}
	return n, nil
}

// IsZero reports whether the filter imposes no constraint at all.
func (f Filter) IsZero() bool {
	return f.CategoryID == "" && f.MinPrice == nil && f.MaxPrice == nil &&
		!f.AvailableOnly && f.Search == "" && !f.FeaturedOnly &&
		f.Difficulty == "" && f.LightRequirement == ""
}

// Match evaluates the filter against a single plant.
func (f Filter) Match(p *Plant) bool {
	return f.matchCategory(p) &&
		f.matchPrice(p) &&
		f.matchAvailable(p) &&
		f.matchSearch(p) &&
		f.matchFeatured(p) &&
		f.matchText(f.Difficulty, p.Difficulty) &&
		f.matchText(f.LightRequirement, p.LightRequirement)
}

func (f Filter) matchCategory(p *Plant) bool {
	return f.CategoryID == "" || p.Category.ID == f.CategoryID
}

func (f Filter) matchPrice(p *Plant) bool {
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	return true
}

func (f Filter) matchAvailable(p *Plant) bool {
	return !f.AvailableOnly || p.Availability > 0
}

func (f Filter) matchSearch(p *Plant) bool {
	return f.Search == "" || containsFold(p.Name, f.Search)
}

func (f Filter) matchFeatured(p *Plant) bool {
	return !f.FeaturedOnly || p.Featured
}

func (f Filter) matchText(want, got string) bool {
	return want == "" || want == got
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// choice treats the storefront's "All" option like an absent parameter.
func choice(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "all") {
		return ""
	}
	return v
}

func price(q url.Values, key string) (*float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, invalid(key + " must be a number.")
	}
	return &v, nil
}
