package catalog

import (
	"time"
)

// Category groups plants in the storefront (Indoor, Succulent, ...).
type Category struct {
	ID          string    `json:"id"`
	Category    string    `json:"category" validate:"required,min=3,max=100,catalogtext"`
	Description string    `json:"description,omitempty" validate:"omitempty,min=30,max=500,catalogtext"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CategoryRef is a plant's reference to its category. Only ID is always set;
// the remaining fields are filled according to the Populate level of the read.
type CategoryRef struct {
	ID          string     `json:"id"`
	Category    string     `json:"category,omitempty"`
	Description string     `json:"description,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// Plant is a sellable plant in the catalog.
type Plant struct {
	ID               string      `json:"id"`
	Name             string      `json:"name" validate:"required,min=2,max=100"`
	Price            float64     `json:"price" validate:"finite,gte=0"`
	Category         CategoryRef `json:"category"`
	Images           []string    `json:"images"`
	Availability     int         `json:"availability" validate:"gte=0"`
	Instruction      []string    `json:"instruction"`
	Benefits         []string    `json:"benefits"`
	Difficulty       string      `json:"difficulty,omitempty"`
	LightRequirement string      `json:"lightRequirement,omitempty"`
	Featured         bool        `json:"featured"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// Populate controls how much of a plant's category is resolved on read.
type Populate int

const (
	PopulateNone Populate = iota
	PopulateName
	PopulateFull
)

// PageSize is the fixed number of plants per listing page.
const PageSize = 16

// SuggestionLimit caps the combined suggestion list.
const SuggestionLimit = 7

// Page selects a window of an ordered listing. A zero Limit means no limit.
type Page struct {
	Skip  int
	Limit int
}

// PageNumber converts a 1-based page number into a Page of PageSize records.
func PageNumber(n int) Page {
	if n < 1 {
		n = 1
	}
	return Page{Skip: (n - 1) * PageSize, Limit: PageSize}
}

// Suggestion is a typeahead entry for the storefront search box.
type Suggestion struct {
	Type  string `json:"type"` // plant | category
	Value string `json:"value"`
}

// PriceRange summarises catalog prices.
type PriceRange struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
}

// Stats aggregates counts over the whole catalog for the admin dashboard.
type Stats struct {
	TotalPlants       int            `json:"totalPlants"`
	InStock           int            `json:"inStock"`
	OutOfStock        int            `json:"outOfStock"`
	Featured          int            `json:"featured"`
	Categories        map[string]int `json:"categories"`
	Difficulties      map[string]int `json:"difficulties"`
	LightRequirements map[string]int `json:"lightRequirements"`
	PriceRange        PriceRange     `json:"priceRange"`
}

func (r CategoryRef) populate(c *Category, level Populate) CategoryRef {
	out := CategoryRef{ID: r.ID}
	if c == nil || level == PopulateNone {
		return out
	}
	out.Category = c.Category
	if level == PopulateFull {
		created, updated := c.CreatedAt, c.UpdatedAt
		out.Description = c.Description
		out.CreatedAt = &created
		out.UpdatedAt = &updated
	}
	return out
}

func clonePlant(p *Plant) *Plant {
	out := *p
	out.Images = cloneStrings(p.Images)
	out.Instruction = cloneStrings(p.Instruction)
	out.Benefits = cloneStrings(p.Benefits)
	return &out
}

func cloneCategory(c *Category) *Category {
	out := *c
	return &out
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
