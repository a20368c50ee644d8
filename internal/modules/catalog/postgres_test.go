package catalog

import (
	"context"
	"database/sql"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/plantshop-backend/internal/database"
)

var plantRowColumns = []string{
	"id", "name", "price", "category_id", "images", "availability",
	"instruction", "benefits", "difficulty", "light_requirement", "featured",
	"created_at", "updated_at",
	"category", "description", "created_at", "updated_at",
}

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestPostgresCreatePlant(t *testing.T) {
	repo, mock := newMockRepo(t)
	categoryID := uuid.New()

	mock.ExpectExec("INSERT INTO plants").
		WithArgs(sqlmock.AnyArg(), "FERN", 12.5, categoryID, sqlmock.AnyArg(), 3,
			sqlmock.AnyArg(), sqlmock.AnyArg(), "Easy", "", false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p := &Plant{Name: "FERN", Price: 12.5, Category: CategoryRef{ID: categoryID.String()}, Availability: 3, Difficulty: "Easy"}
	normalizePlant(p)
	require.NoError(t, repo.CreatePlant(context.Background(), p))

	_, err := uuid.Parse(p.ID)
	assert.NoError(t, err)
	assert.False(t, p.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreatePlantDuplicate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO plants").WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	p := &Plant{Name: "FERN", Category: CategoryRef{ID: uuid.NewString()}}
	err := repo.CreatePlant(context.Background(), p)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.EqualError(t, err, `Duplicate key error: {"name":"FERN"}`)
	assert.Empty(t, p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInvalidIDs(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	err := repo.CreatePlant(ctx, &Plant{Name: "FERN", Category: CategoryRef{ID: "not-a-uuid"}})
	assert.ErrorIs(t, err, ErrInvalidID)
	assert.EqualError(t, err, "Invalid category: not-a-uuid")

	_, err = repo.GetPlant(ctx, "42", PopulateFull)
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = repo.ListPlants(ctx, Filter{CategoryID: "indoor"}, Page{})
	assert.ErrorIs(t, err, ErrInvalidID)

	assert.ErrorIs(t, repo.DeleteCategory(ctx, "42"), ErrInvalidID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetPlant(t *testing.T) {
	repo, mock := newMockRepo(t)
	id, categoryID := uuid.New(), uuid.New()
	now := time.Now().UTC()

	rows := sqlmock.NewRows(plantRowColumns).AddRow(
		id.String(), "FERN", 12.5, categoryID.String(), "{a.jpg,b.jpg}", 3,
		"{\"Mist daily\"}", "{}", "Easy", "Low", true, now, now,
		"Indoor", "Plants that thrive inside the home.", now, now,
	)
	mock.ExpectQuery(regexp.QuoteMeta("FROM plants p LEFT JOIN categories c ON c.id = p.category_id")).
		WithArgs(id).
		WillReturnRows(rows)

	p, err := repo.GetPlant(context.Background(), id.String(), PopulateFull)
	require.NoError(t, err)
	assert.Equal(t, "FERN", p.Name)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, p.Images)
	assert.Equal(t, []string{"Mist daily"}, p.Instruction)
	assert.Equal(t, []string{}, p.Benefits)
	assert.Equal(t, "Indoor", p.Category.Category)
	assert.Equal(t, "Plants that thrive inside the home.", p.Category.Description)
	require.NotNil(t, p.Category.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetPlantDanglingCategory(t *testing.T) {
	repo, mock := newMockRepo(t)
	id, categoryID := uuid.New(), uuid.New()
	now := time.Now().UTC()

	rows := sqlmock.NewRows(plantRowColumns).AddRow(
		id.String(), "FERN", 0.0, categoryID.String(), "{}", 0, "{}", "{}", "", "", false, now, now,
		nil, nil, nil, nil,
	)
	mock.ExpectQuery("FROM plants p").WithArgs(id).WillReturnRows(rows)

	p, err := repo.GetPlant(context.Background(), id.String(), PopulateFull)
	require.NoError(t, err)
	assert.Equal(t, CategoryRef{ID: categoryID.String()}, p.Category)
}

func TestPostgresGetPlantNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery("FROM plants p").WithArgs(id).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetPlant(context.Background(), id.String(), PopulateFull)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "Plant not found")
}

func TestPostgresListPlantsBuildsFilter(t *testing.T) {
	repo, mock := newMockRepo(t)
	lo, hi := 10.0, 20.0

	mock.ExpectQuery(regexp.QuoteMeta(
		`WHERE 1=1 AND p.price >= $1 AND p.price <= $2 AND p.availability > 0 AND p.name ILIKE $3 AND p.featured = true ORDER BY p.seq ASC LIMIT $4 OFFSET $5`)).
		WithArgs(lo, hi, `%50\%\_off%`, PageSize, PageSize).
		WillReturnRows(sqlmock.NewRows(plantRowColumns))

	plants, err := repo.ListPlants(context.Background(), Filter{
		MinPrice:      &lo,
		MaxPrice:      &hi,
		AvailableOnly: true,
		Search:        "50%_off",
		FeaturedOnly:  true,
	}, PageNumber(2))
	require.NoError(t, err)
	assert.NotNil(t, plants)
	assert.Empty(t, plants)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListPlantsUnbounded(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	categoryID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE 1=1 ORDER BY p.seq ASC`) + `$`).
		WillReturnRows(sqlmock.NewRows(plantRowColumns).
			AddRow(uuid.NewString(), "FERN", 1.0, categoryID.String(), "{}", 1, "{}", "{}", "", "", false, now, now, "Indoor", "", now, now).
			AddRow(uuid.NewString(), "IVY", 2.0, categoryID.String(), "{}", 0, "{}", "{}", "", "", false, now, now, "Indoor", "", now, now))

	plants, err := repo.ListPlants(context.Background(), Filter{}, Page{})
	require.NoError(t, err)
	require.Len(t, plants, 2)
	assert.Equal(t, "IVY", plants[1].Name)
	assert.Equal(t, "Indoor", plants[1].Category.Category)
	assert.Nil(t, plants[1].Category.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateMissingPlant(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE plants").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePlant(context.Background(), &Plant{ID: id.String(), Name: "FERN", Category: CategoryRef{ID: uuid.NewString()}})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDelete(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM plants WHERE id=$1")).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM categories WHERE id=$1")).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.DeletePlant(ctx, id.String()))
	err := repo.DeleteCategory(ctx, id.String())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "Category not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCategories(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()
	cols := []string{"id", "category", "description", "created_at", "updated_at"}

	mock.ExpectExec("INSERT INTO categories").
		WithArgs(sqlmock.AnyArg(), "Indoor", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectQuery(regexp.QuoteMeta("WHERE category ILIKE $1 ORDER BY seq ASC LIMIT $2")).
		WithArgs("%door%", 7).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(uuid.NewString(), "Indoor", "", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM categories WHERE id=$1")).
		WillReturnRows(sqlmock.NewRows(cols))

	err := repo.CreateCategory(ctx, &Category{Category: "Indoor"})
	assert.EqualError(t, err, `Duplicate key error: {"category":"Indoor"}`)

	found, err := repo.SearchCategories(ctx, "door", SuggestionLimit)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Indoor", found[0].Category)

	_, err = repo.GetCategory(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%fern%", likePattern("fern"))
	assert.Equal(t, `%100\%%`, likePattern("100%"))
	assert.Equal(t, `%a\_b\\c%`, likePattern(`a_b\c`))
}

func TestPostgresRepositoryContract(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	db, err := database.OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, database.Migrate(ctx, db))

	runRepositoryContract(t, NewPostgresRepository(db))
}
