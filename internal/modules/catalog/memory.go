package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryRepo keeps the catalog in process. Slices preserve insertion order,
// which is the listing order.
type memoryRepo struct {
	mu         sync.RWMutex
	plants     []*Plant
	categories []*Category
}

// NewMemoryRepository creates an empty in-process catalog store.
func NewMemoryRepository() Repository {
	return &memoryRepo{}
}

func (r *memoryRepo) CreatePlant(_ context.Context, p *Plant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.plantIndexByName(p.Name, "") >= 0 {
		return &DuplicateError{Field: "name", Value: p.Name}
	}
	now := time.Now().UTC()
	p.ID = uuid.New().String()
	p.CreatedAt = now
	p.UpdatedAt = now

	stored := clonePlant(p)
	stored.Category = CategoryRef{ID: p.Category.ID}
	r.plants = append(r.plants, stored)
	return nil
}

func (r *memoryRepo) GetPlant(_ context.Context, id string, populate Populate) (*Plant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.plantIndex(id)
	if i < 0 {
		return nil, notFound("Plant", id)
	}
	return r.populated(r.plants[i], populate), nil
}

func (r *memoryRepo) ListPlants(_ context.Context, f Filter, page Page) ([]*Plant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*Plant{}
	skipped := 0
	for _, p := range r.plants {
		if !f.Match(p) {
			continue
		}
		if skipped < page.Skip {
			skipped++
			continue
		}
		if page.Limit > 0 && len(out) == page.Limit {
			break
		}
		out = append(out, r.populated(p, PopulateName))
	}
	return out, nil
}

func (r *memoryRepo) UpdatePlant(_ context.Context, p *Plant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.plantIndex(p.ID)
	if i < 0 {
		return notFound("Plant", p.ID)
	}
	if r.plantIndexByName(p.Name, p.ID) >= 0 {
		return &DuplicateError{Field: "name", Value: p.Name}
	}
	p.CreatedAt = r.plants[i].CreatedAt
	p.UpdatedAt = time.Now().UTC()

	stored := clonePlant(p)
	stored.Category = CategoryRef{ID: p.Category.ID}
	r.plants[i] = stored
	return nil
}

func (r *memoryRepo) DeletePlant(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.plantIndex(id)
	if i < 0 {
		return notFound("Plant", id)
	}
	r.plants = append(r.plants[:i], r.plants[i+1:]...)
	return nil
}

func (r *memoryRepo) CreateCategory(_ context.Context, c *Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.categories {
		if existing.Category == c.Category {
			return &DuplicateError{Field: "category", Value: c.Category}
		}
	}
	now := time.Now().UTC()
	c.ID = uuid.New().String()
	c.CreatedAt = now
	c.UpdatedAt = now
	r.categories = append(r.categories, cloneCategory(c))
	return nil
}

func (r *memoryRepo) GetCategory(_ context.Context, id string) (*Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := r.category(id)
	if c == nil {
		return nil, notFound("Category", id)
	}
	return cloneCategory(c), nil
}

func (r *memoryRepo) ListCategories(_ context.Context) ([]*Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, cloneCategory(c))
	}
	return out, nil
}

func (r *memoryRepo) SearchCategories(_ context.Context, q string, limit int) ([]*Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*Category{}
	for _, c := range r.categories {
		if limit > 0 && len(out) == limit {
			break
		}
		if containsFold(c.Category, q) {
			out = append(out, cloneCategory(c))
		}
	}
	return out, nil
}

func (r *memoryRepo) DeleteCategory(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, c := range r.categories {
		if c.ID == id {
			r.categories = append(r.categories[:i], r.categories[i+1:]...)
			return nil
		}
	}
	return notFound("Category", id)
}

func (r *memoryRepo) Purge(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.plants = nil
	r.categories = nil
	return nil
}

// helpers below expect r.mu to be held.

func (r *memoryRepo) plantIndex(id string) int {
	for i, p := range r.plants {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (r *memoryRepo) plantIndexByName(name, exceptID string) int {
	for i, p := range r.plants {
		if p.Name == name && p.ID != exceptID {
			return i
		}
	}
	return -1
}

func (r *memoryRepo) category(id string) *Category {
	for _, c := range r.categories {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (r *memoryRepo) populated(p *Plant, level Populate) *Plant {
	out := clonePlant(p)
	out.Category = p.Category.populate(r.category(p.Category.ID), level)
	return out
}
