package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestCategory(t *testing.T, repo Repository, name string) *Category {
	t.Helper()
	c := &Category{Category: name, Description: "A category used by the catalog store tests."}
	require.NoError(t, repo.CreateCategory(context.Background(), c))
	return c
}

func createTestPlant(t *testing.T, repo Repository, name string, price float64, categoryID string) *Plant {
	t.Helper()
	p := &Plant{Name: name, Price: price, Category: CategoryRef{ID: categoryID}}
	normalizePlant(p)
	require.NoError(t, repo.CreatePlant(context.Background(), p))
	return p
}

func TestMemoryCreateAssignsIdentity(t *testing.T) {
	repo := NewMemoryRepository()
	c := createTestCategory(t, repo, "Indoor")
	p := createTestPlant(t, repo, "FERN", 10, c.ID)

	assert.NotEmpty(t, c.ID)
	assert.NotEmpty(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
}

func TestMemoryPagination(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	c := createTestCategory(t, repo, "Indoor")
	for i := 1; i <= 40; i++ {
		createTestPlant(t, repo, fmt.Sprintf("PLANT %02d", i), float64(i), c.ID)
	}

	for page, want := range map[int][]string{
		1: {"PLANT 01", "PLANT 16"},
		2: {"PLANT 17", "PLANT 32"},
		3: {"PLANT 33", "PLANT 40"},
	} {
		plants, err := repo.ListPlants(ctx, Filter{}, PageNumber(page))
		require.NoError(t, err)
		require.NotEmpty(t, plants)
		assert.LessOrEqual(t, len(plants), PageSize)
		assert.Equal(t, want[0], plants[0].Name, "page %d", page)
		assert.Equal(t, want[1], plants[len(plants)-1].Name, "page %d", page)
		assert.Equal(t, "Indoor", plants[0].Category.Category)
	}

	plants, err := repo.ListPlants(ctx, Filter{}, PageNumber(4))
	require.NoError(t, err)
	assert.NotNil(t, plants)
	assert.Empty(t, plants)

	all, err := repo.ListPlants(ctx, Filter{}, Page{})
	require.NoError(t, err)
	assert.Len(t, all, 40)
}

func TestMemoryDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	c := createTestCategory(t, repo, "Indoor")
	createTestPlant(t, repo, "FERN", 10, c.ID)
	ivy := createTestPlant(t, repo, "IVY", 5, c.ID)

	err := repo.CreatePlant(ctx, &Plant{Name: "FERN", Category: CategoryRef{ID: c.ID}})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.EqualError(t, err, `Duplicate key error: {"name":"FERN"}`)

	ivy.Name = "FERN"
	assert.ErrorIs(t, repo.UpdatePlant(ctx, ivy), ErrDuplicate)

	err = repo.CreateCategory(ctx, &Category{Category: "Indoor"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestMemoryNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	_, err := repo.GetPlant(ctx, "missing", PopulateFull)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.DeletePlant(ctx, "missing"), ErrNotFound)
	assert.ErrorIs(t, repo.UpdatePlant(ctx, &Plant{ID: "missing"}), ErrNotFound)
	assert.ErrorIs(t, repo.DeleteCategory(ctx, "missing"), ErrNotFound)

	_, err = repo.GetCategory(ctx, "missing")
	assert.EqualError(t, err, "Category not found")
}

func TestMemoryPopulateLevels(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	c := createTestCategory(t, repo, "Indoor")
	p := createTestPlant(t, repo, "FERN", 10, c.ID)

	none, err := repo.GetPlant(ctx, p.ID, PopulateNone)
	require.NoError(t, err)
	assert.Equal(t, CategoryRef{ID: c.ID}, none.Category)

	name, err := repo.GetPlant(ctx, p.ID, PopulateName)
	require.NoError(t, err)
	assert.Equal(t, "Indoor", name.Category.Category)
	assert.Empty(t, name.Category.Description)
	assert.Nil(t, name.Category.CreatedAt)

	full, err := repo.GetPlant(ctx, p.ID, PopulateFull)
	require.NoError(t, err)
	assert.Equal(t, c.Description, full.Category.Description)
	require.NotNil(t, full.Category.CreatedAt)
	assert.Equal(t, c.CreatedAt, *full.Category.CreatedAt)
}

func TestMemoryCategoryDeleteLeavesPlants(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	c := createTestCategory(t, repo, "Indoor")
	p := createTestPlant(t, repo, "FERN", 10, c.ID)

	require.NoError(t, repo.DeleteCategory(ctx, c.ID))

	got, err := repo.GetPlant(ctx, p.ID, PopulateFull)
	require.NoError(t, err)
	assert.Equal(t, CategoryRef{ID: c.ID}, got.Category)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	c := createTestCategory(t, repo, "Indoor")
	p := &Plant{Name: "FERN", Category: CategoryRef{ID: c.ID}, Images: []string{"a.jpg"}}
	require.NoError(t, repo.CreatePlant(ctx, p))

	p.Images[0] = "mutated.jpg"
	got, err := repo.GetPlant(ctx, p.ID, PopulateNone)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg"}, got.Images)

	got.Images[0] = "mutated.jpg"
	again, err := repo.GetPlant(ctx, p.ID, PopulateNone)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg"}, again.Images)
}

func TestMemorySearchCategories(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	for _, name := range []string{"Indoor", "Outdoor", "Succulent", "Door Hangers"} {
		createTestCategory(t, repo, name)
	}

	got, err := repo.SearchCategories(ctx, "DOOR", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Indoor", got[0].Category)
	assert.Equal(t, "Outdoor", got[1].Category)
}

func TestMemoryPurge(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	c := createTestCategory(t, repo, "Indoor")
	createTestPlant(t, repo, "FERN", 10, c.ID)

	require.NoError(t, repo.Purge(ctx))

	plants, err := repo.ListPlants(ctx, Filter{}, Page{})
	require.NoError(t, err)
	assert.Empty(t, plants)
	categories, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, categories)
}
