package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository returns a Repository backed by the plants and
// categories tables.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const plantColumns = `p.id, p.name, p.price, p.category_id, p.images, p.availability,
	p.instruction, p.benefits, p.difficulty, p.light_requirement, p.featured,
	p.created_at, p.updated_at,
	c.category, c.description, c.created_at, c.updated_at`

const categoryColumns = `id, category, description, created_at, updated_at`

func (r *postgresRepo) CreatePlant(ctx context.Context, p *Plant) error {
	categoryID, err := parseUUID("category", p.Category.ID)
	if err != nil {
		return err
	}
	id := uuid.New()
	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO plants
		  (id, name, price, category_id, images, availability, instruction, benefits,
		   difficulty, light_requirement, featured, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		id, p.Name, p.Price, categoryID, pq.Array(p.Images), p.Availability,
		pq.Array(p.Instruction), pq.Array(p.Benefits), p.Difficulty,
		p.LightRequirement, p.Featured, now, now)
	if err != nil {
		return translatePostgres(err, "name", p.Name)
	}
	p.ID = id.String()
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func scanPlant(scan func(...interface{}) error, populate Populate) (*Plant, error) {
	p := &Plant{}
	var (
		difficulty, light sql.NullString
		catName, catDesc  sql.NullString
		catCreated        sql.NullTime
		catUpdated        sql.NullTime
	)
	err := scan(&p.ID, &p.Name, &p.Price, &p.Category.ID, pq.Array(&p.Images),
		&p.Availability, pq.Array(&p.Instruction), pq.Array(&p.Benefits),
		&difficulty, &light, &p.Featured, &p.CreatedAt, &p.UpdatedAt,
		&catName, &catDesc, &catCreated, &catUpdated)
	if err != nil {
		return nil, err
	}
	p.Difficulty = difficulty.String
	p.LightRequirement = light.String
	normalizePlant(p)

	if catName.Valid {
		c := &Category{
			ID:          p.Category.ID,
			Category:    catName.String,
			Description: catDesc.String,
			CreatedAt:   catCreated.Time,
			UpdatedAt:   catUpdated.Time,
		}
		p.Category = p.Category.populate(c, populate)
	}
	return p, nil
}

func (r *postgresRepo) GetPlant(ctx context.Context, id string, populate Populate) (*Plant, error) {
	uid, err := parseUUID("id", id)
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT `+plantColumns+`
		FROM plants p LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id=$1`, uid)
	p, err := scanPlant(row.Scan, populate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Plant", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get plant %s: %w", id, err)
	}
	return p, nil
}

func (r *postgresRepo) ListPlants(ctx context.Context, f Filter, page Page) ([]*Plant, error) {
	query := `SELECT ` + plantColumns + `
	          FROM plants p LEFT JOIN categories c ON c.id = p.category_id WHERE 1=1`
	args := []interface{}{}
	n := 1
	if f.CategoryID != "" {
		categoryID, err := parseUUID("category", f.CategoryID)
		if err != nil {
			return nil, err
		}
		query += fmt.Sprintf(` AND p.category_id=$%d`, n)
		args = append(args, categoryID)
		n++
	}
	if f.MinPrice != nil {
		query += fmt.Sprintf(` AND p.price >= $%d`, n)
		args = append(args, *f.MinPrice)
		n++
	}
	if f.MaxPrice != nil {
		query += fmt.Sprintf(` AND p.price <= $%d`, n)
		args = append(args, *f.MaxPrice)
		n++
	}
	if f.AvailableOnly {
		query += ` AND p.availability > 0`
	}
	if f.Search != "" {
		query += fmt.Sprintf(` AND p.name ILIKE $%d`, n)
		args = append(args, likePattern(f.Search))
		n++
	}
	if f.FeaturedOnly {
		query += ` AND p.featured = true`
	}
	if f.Difficulty != "" {
		query += fmt.Sprintf(` AND p.difficulty=$%d`, n)
		args = append(args, f.Difficulty)
		n++
	}
	if f.LightRequirement != "" {
		query += fmt.Sprintf(` AND p.light_requirement=$%d`, n)
		args = append(args, f.LightRequirement)
		n++
	}
	query += ` ORDER BY p.seq ASC`
	if page.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, n)
		args = append(args, page.Limit)
		n++
	}
	if page.Skip > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, n)
		args = append(args, page.Skip)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list plants: %w", err)
	}
	defer rows.Close()

	plants := []*Plant{}
	for rows.Next() {
		p, err := scanPlant(rows.Scan, PopulateName)
		if err != nil {
			return nil, err
		}
		plants = append(plants, p)
	}
	return plants, rows.Err()
}

func (r *postgresRepo) UpdatePlant(ctx context.Context, p *Plant) error {
	uid, err := parseUUID("id", p.ID)
	if err != nil {
		return err
	}
	categoryID, err := parseUUID("category", p.Category.ID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE plants
		SET name=$1, price=$2, category_id=$3, images=$4, availability=$5,
		    instruction=$6, benefits=$7, difficulty=$8, light_requirement=$9,
		    featured=$10, updated_at=$11
		WHERE id=$12`,
		p.Name, p.Price, categoryID, pq.Array(p.Images), p.Availability,
		pq.Array(p.Instruction), pq.Array(p.Benefits), p.Difficulty,
		p.LightRequirement, p.Featured, now, uid)
	if err != nil {
		return translatePostgres(err, "name", p.Name)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("Plant", p.ID)
	}
	p.UpdatedAt = now
	return nil
}

func (r *postgresRepo) DeletePlant(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "plants", "Plant", id)
}

func (r *postgresRepo) CreateCategory(ctx context.Context, c *Category) error {
	id := uuid.New()
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, category, description, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)`,
		id, c.Category, c.Description, now, now)
	if err != nil {
		return translatePostgres(err, "category", c.Category)
	}
	c.ID = id.String()
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

func scanCategory(scan func(...interface{}) error) (*Category, error) {
	c := &Category{}
	if err := scan(&c.ID, &c.Category, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *postgresRepo) GetCategory(ctx context.Context, id string) (*Category, error) {
	uid, err := parseUUID("category", id)
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id=$1`, uid)
	c, err := scanCategory(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Category", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get category %s: %w", id, err)
	}
	return c, nil
}

func (r *postgresRepo) ListCategories(ctx context.Context) ([]*Category, error) {
	return r.queryCategories(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY seq ASC`)
}

func (r *postgresRepo) SearchCategories(ctx context.Context, q string, limit int) ([]*Category, error) {
	if limit <= 0 {
		return r.queryCategories(ctx, `
			SELECT `+categoryColumns+` FROM categories
			WHERE category ILIKE $1 ORDER BY seq ASC`, likePattern(q))
	}
	return r.queryCategories(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE category ILIKE $1 ORDER BY seq ASC LIMIT $2`, likePattern(q), limit)
}

func (r *postgresRepo) queryCategories(ctx context.Context, query string, args ...interface{}) ([]*Category, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []*Category{}
	for rows.Next() {
		c, err := scanCategory(rows.Scan)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *postgresRepo) DeleteCategory(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "categories", "Category", id)
}

func (r *postgresRepo) Purge(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `TRUNCATE plants, categories`)
	return err
}

func (r *postgresRepo) deleteByID(ctx context.Context, table, entity, id string) error {
	uid, err := parseUUID("id", id)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id=$1`, uid)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", strings.ToLower(entity), id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(entity, id)
	}
	return nil
}

func parseUUID(field, raw string) (uuid.UUID, error) {
	uid, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &InvalidIDError{Field: field, Value: raw}
	}
	return uid, nil
}

// translatePostgres maps a unique constraint violation (SQLSTATE 23505) to
// DuplicateError.
func translatePostgres(err error, field, value string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return &DuplicateError{Field: field, Value: value, Err: err}
	}
	return err
}

// likePattern escapes LIKE wildcards so the search term is matched literally.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}
