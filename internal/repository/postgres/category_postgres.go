package postgres

import (
	"context"
	"database/sql"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// CategoryPostgres is a PostgreSQL implementation of repository.CategoryRepository.
type CategoryPostgres struct {
	db *sql.DB
}

// NewCategoryPostgres creates a new CategoryPostgres repository.
func NewCategoryPostgres(db *sql.DB) *CategoryPostgres {
	return &CategoryPostgres{db: db}
}

var _ repository.CategoryRepository = (*CategoryPostgres)(nil)

const categoryColumns = `id, name, color, created_at, updated_at`

func scanCategory(row rowScanner) (*model.Category, error) {
	var c model.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Color, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns all categories ordered by name.
func (r *CategoryPostgres) List(ctx context.Context) ([]model.Category, error) {
	const q = `SELECT ` + categoryColumns + ` FROM categories ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a category. The unique index on name is the only guard
// against duplicates.
func (r *CategoryPostgres) Create(ctx context.Context, c *model.Category) (*model.Category, error) {
	const q = `
		INSERT INTO categories (name, color)
		VALUES ($1, $2)
		RETURNING ` + categoryColumns
	out, err := scanCategory(r.db.QueryRowContext(ctx, q, c.Name, c.Color))
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// FindByID fetches one category.
func (r *CategoryPostgres) FindByID(ctx context.Context, id int64) (*model.Category, error) {
	const q = `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	c, err := scanCategory(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, translate(err)
	}
	return c, nil
}
