package catalog

import "context"

// Repository defines the interface for plant and category storage. Every
// backend (Postgres, MongoDB, memory) implements the same contract:
// Create assigns ID and timestamps, Update and Delete return a NotFoundError
// for unknown ids, unique names surface as DuplicateError and ids the backend
// cannot parse as InvalidIDError.
type Repository interface {
	CreatePlant(ctx context.Context, p *Plant) error
	GetPlant(ctx context.Context, id string, populate Populate) (*Plant, error)
	// ListPlants returns matching plants in stored order with categories
	// populated to their name.
	ListPlants(ctx context.Context, f Filter, page Page) ([]*Plant, error)
	UpdatePlant(ctx context.Context, p *Plant) error
	DeletePlant(ctx context.Context, id string) error

	CreateCategory(ctx context.Context, c *Category) error
	GetCategory(ctx context.Context, id string) (*Category, error)
	ListCategories(ctx context.Context) ([]*Category, error)
	// SearchCategories matches category names case-insensitively.
	SearchCategories(ctx context.Context, q string, limit int) ([]*Category, error)
	DeleteCategory(ctx context.Context, id string) error

	// Purge removes every plant and category. Used by seeding.
	Purge(ctx context.Context) error
}
