package migration

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// SeedCategory is a category inserted by Seed when missing.
type SeedCategory struct {
	Name  string
	Color string
}

// DefaultCategories is the reference list installed on a fresh database.
var DefaultCategories = []SeedCategory{
	{Name: "Documents", Color: "#3B82F6"},
	{Name: "Images", Color: "#10B981"},
	{Name: "Reports", Color: "#F59E0B"},
	{Name: "Contracts", Color: "#EF4444"},
	{Name: "Invoices", Color: "#8B5CF6"},
	{Name: "Presentations", Color: "#EC4899"},
	{Name: "Spreadsheets", Color: "#14B8A6"},
	{Name: "Other", Color: "#6B7280"},
}

// Seed inserts every category that does not exist yet and returns how many
// rows were created. Existing names are left untouched.
func Seed(ctx context.Context, db *sql.DB, log *zap.Logger, categories []SeedCategory) (int, error) {
	const q = `
		INSERT INTO categories (name, color)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
	`
	created := 0
	for _, c := range categories {
		res, err := db.ExecContext(ctx, q, c.Name, c.Color)
		if err != nil {
			return created, fmt.Errorf("seed category %q: %w", c.Name, err)
		}
		n, _ := res.RowsAffected()
		if n > 0 {
			created++
			log.Info("seed_category_created", zap.String("name", c.Name))
		} else {
			log.Info("seed_category_exists", zap.String("name", c.Name))
		}
	}
	return created, nil
}
