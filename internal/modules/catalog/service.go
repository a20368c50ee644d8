package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/georgemunganga/plantshop-backend/internal/metrics"
)

// Service defines catalog business logic.
type Service interface {
	// CreatePlant stores a validated plant after checking its category exists.
	CreatePlant(ctx context.Context, in PlantInput) (*Plant, error)
	// GetPlant returns a plant with its category fully populated.
	GetPlant(ctx context.Context, id string) (*Plant, error)
	// ListPlants returns one page (PageSize records) of matching plants.
	ListPlants(ctx context.Context, f Filter, page int) ([]*Plant, error)
	// FilterPlants returns every matching plant.
	FilterPlants(ctx context.Context, f Filter) ([]*Plant, error)
	// UpdatePlant merges the present fields of in into the stored plant.
	UpdatePlant(ctx context.Context, id string, in PlantInput) (*Plant, error)
	DeletePlant(ctx context.Context, id string) error

	CreateCategory(ctx context.Context, req CategoryRequest) (*Category, error)
	// DeleteCategory removes a category without touching plants that reference it.
	DeleteCategory(ctx context.Context, id string) error
	ListCategories(ctx context.Context) ([]*Category, error)

	// Suggest returns up to SuggestionLimit plant then category name matches.
	Suggest(ctx context.Context, q string) ([]Suggestion, error)
	Stats(ctx context.Context) (*Stats, error)
	// Seed replaces the whole catalog with data.
	Seed(ctx context.Context, data *SeedData) (*SeedResult, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new catalog service.
func NewService(repo Repository, logger *zap.Logger) Service {
	return &service{repo: repo, logger: logger}
}

func (s *service) CreatePlant(ctx context.Context, in PlantInput) (p *Plant, err error) {
	defer func() { metrics.RecordCatalogWrite("plant", "create", err) }()

	if in.Name == nil {
		return nil, invalid("Name is required and must be 2-100 characters.")
	}
	if in.Category == nil || *in.Category == "" {
		return nil, invalid("Category is required.")
	}
	p = in.newPlant()
	if err := validatePlant(p); err != nil {
		return nil, err
	}
	category, err := s.repo.GetCategory(ctx, p.Category.ID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreatePlant(ctx, p); err != nil {
		return nil, err
	}
	p.Category = p.Category.populate(category, PopulateFull)
	s.logger.Info("plant created", zap.String("id", p.ID), zap.String("name", p.Name))
	return p, nil
}

func (s *service) GetPlant(ctx context.Context, id string) (*Plant, error) {
	return s.repo.GetPlant(ctx, id, PopulateFull)
}

func (s *service) ListPlants(ctx context.Context, f Filter, page int) ([]*Plant, error) {
	return s.repo.ListPlants(ctx, f, PageNumber(page))
}

func (s *service) FilterPlants(ctx context.Context, f Filter) ([]*Plant, error) {
	return s.repo.ListPlants(ctx, f, Page{})
}

func (s *service) UpdatePlant(ctx context.Context, id string, in PlantInput) (p *Plant, err error) {
	defer func() { metrics.RecordCatalogWrite("plant", "update", err) }()

	p, err = s.repo.GetPlant(ctx, id, PopulateNone)
	if err != nil {
		return nil, err
	}
	in.applyTo(p)
	normalizePlant(p)
	if err := validatePlant(p); err != nil {
		return nil, err
	}
	if in.Category != nil {
		if _, err := s.repo.GetCategory(ctx, p.Category.ID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.UpdatePlant(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("plant updated", zap.String("id", p.ID))
	return s.repo.GetPlant(ctx, id, PopulateFull)
}

func (s *service) DeletePlant(ctx context.Context, id string) (err error) {
	defer func() { metrics.RecordCatalogWrite("plant", "delete", err) }()

	if err := s.repo.DeletePlant(ctx, id); err != nil {
		return err
	}
	s.logger.Info("plant deleted", zap.String("id", id))
	return nil
}

func (s *service) CreateCategory(ctx context.Context, req CategoryRequest) (c *Category, err error) {
	defer func() { metrics.RecordCatalogWrite("category", "create", err) }()

	c = &Category{Category: req.Category, Description: req.Description}
	normalizeCategory(c)
	if err := validateCategory(c); err != nil {
		return nil, err
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("category created", zap.String("id", c.ID), zap.String("category", c.Category))
	return c, nil
}

func (s *service) DeleteCategory(ctx context.Context, id string) (err error) {
	defer func() { metrics.RecordCatalogWrite("category", "delete", err) }()

	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.logger.Info("category deleted", zap.String("id", id))
	return nil
}

func (s *service) ListCategories(ctx context.Context) ([]*Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *service) Suggest(ctx context.Context, q string) ([]Suggestion, error) {
	q = strings.TrimSpace(q)
	suggestions := []Suggestion{}
	if q == "" {
		return suggestions, nil
	}

	plants, err := s.repo.ListPlants(ctx, Filter{Search: q}, Page{Limit: SuggestionLimit})
	if err != nil {
		return nil, fmt.Errorf("suggest plants: %w", err)
	}
	categories, err := s.repo.SearchCategories(ctx, q, SuggestionLimit)
	if err != nil {
		return nil, fmt.Errorf("suggest categories: %w", err)
	}

	for _, p := range plants {
		suggestions = append(suggestions, Suggestion{Type: "plant", Value: p.Name})
	}
	for _, c := range categories {
		suggestions = append(suggestions, Suggestion{Type: "category", Value: c.Category})
	}
	if len(suggestions) > SuggestionLimit {
		suggestions = suggestions[:SuggestionLimit]
	}
	return suggestions, nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	plants, err := s.repo.ListPlants(ctx, Filter{}, Page{})
	if err != nil {
		return nil, err
	}
	return computeStats(plants), nil
}

func computeStats(plants []*Plant) *Stats {
	st := &Stats{
		TotalPlants:       len(plants),
		Categories:        map[string]int{},
		Difficulties:      map[string]int{},
		LightRequirements: map[string]int{},
	}
	if len(plants) == 0 {
		return st
	}

	var sum float64
	st.PriceRange.Min = math.Inf(1)
	st.PriceRange.Max = math.Inf(-1)
	for _, p := range plants {
		if p.Availability > 0 {
			st.InStock++
		} else {
			st.OutOfStock++
		}
		if p.Featured {
			st.Featured++
		}
		name := p.Category.Category
		if name == "" {
			name = p.Category.ID
		}
		st.Categories[name]++
		if p.Difficulty != "" {
			st.Difficulties[p.Difficulty]++
		}
		if p.LightRequirement != "" {
			st.LightRequirements[p.LightRequirement]++
		}
		st.PriceRange.Min = math.Min(st.PriceRange.Min, p.Price)
		st.PriceRange.Max = math.Max(st.PriceRange.Max, p.Price)
		sum += p.Price
	}
	st.PriceRange.Average = math.Round(sum / float64(len(plants)))
	return st
}

func (s *service) Seed(ctx context.Context, data *SeedData) (*SeedResult, error) {
	if err := s.repo.Purge(ctx); err != nil {
		return nil, fmt.Errorf("purge catalog: %w", err)
	}

	ids := make(map[string]string, len(data.Categories))
	res := &SeedResult{}
	for _, sc := range data.Categories {
		c, err := s.CreateCategory(ctx, CategoryRequest{Category: sc.Category, Description: sc.Description})
		if err != nil {
			return res, fmt.Errorf("seed category %q: %w", sc.Category, err)
		}
		key := sc.Key
		if key == "" {
			key = sc.Category
		}
		ids[key] = c.ID
		res.Categories++
	}

	for _, sp := range data.Plants {
		categoryID, ok := ids[sp.Category]
		if !ok {
			return res, fmt.Errorf("seed plant %q: %w", sp.Name, notFound("Category", sp.Category))
		}
		if _, err := s.CreatePlant(ctx, sp.input(categoryID)); err != nil {
			var dup *DuplicateError
			if errors.As(err, &dup) {
				s.logger.Warn("skipping duplicate seed plant", zap.String("name", sp.Name))
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("seed plant %q: %w", sp.Name, err)
		}
		res.Plants++
	}
	return res, nil
}
