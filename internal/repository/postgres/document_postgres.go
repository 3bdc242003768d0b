package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

// documentColumns selects a document row joined with its category. The
// document side must be aliased d and the category side c.
const documentColumns = `
	d.id, d.user_id, d.category_id, d.name, d.description, d.file_type, d.file_size,
	d.storage_key, d.storage_url, d.uploaded_at, d.updated_at,
	c.id, c.name, c.color, c.created_at, c.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var (
		d    model.Document
		c    model.Category
		desc sql.NullString
	)
	if err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.CategoryID,
		&d.Name,
		&desc,
		&d.FileType,
		&d.FileSize,
		&d.StorageKey,
		&d.StorageURL,
		&d.UploadedAt,
		&d.UpdatedAt,
		&c.ID,
		&c.Name,
		&c.Color,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if desc.Valid {
		d.Description = &desc.String
	}
	d.Category = &c
	return &d, nil
}

// Create inserts a new document row and returns it joined with its category.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	q := `
		WITH d AS (
			INSERT INTO documents (user_id, category_id, name, description, file_type, file_size, storage_key, storage_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING *
		)
		SELECT ` + documentColumns + `
		FROM d JOIN categories c ON c.id = d.category_id
	`
	row := r.db.QueryRowContext(ctx, q,
		doc.UserID,
		doc.CategoryID,
		doc.Name,
		doc.Description,
		doc.FileType,
		doc.FileSize,
		doc.StorageKey,
		doc.StorageURL,
	)
	out, err := scanDocument(row)
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id int64) (*model.Document, error) {
	q := `
		SELECT ` + documentColumns + `
		FROM documents d JOIN categories c ON c.id = d.category_id
		WHERE d.id = $1
	`
	doc, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, translate(err)
	}
	return doc, nil
}

// List returns one page of a user's documents, newest first, and the total
// number of matching rows. Both queries run concurrently.
func (r *DocumentPostgres) List(ctx context.Context, f repository.DocumentFilter) (*repository.PageResult[model.Document], error) {
	where := []string{"d.user_id = $1"}
	args := []any{f.UserID}
	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		where = append(where, fmt.Sprintf("d.category_id = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		where = append(where, fmt.Sprintf("d.name ILIKE $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	qCount := `SELECT COUNT(*) FROM documents d WHERE ` + cond
	qList := fmt.Sprintf(`
		SELECT %s
		FROM documents d JOIN categories c ON c.id = d.category_id
		WHERE %s
		ORDER BY d.uploaded_at DESC, d.id DESC
		LIMIT $%d OFFSET $%d
	`, documentColumns, cond, len(args)+1, len(args)+2)
	listArgs := append(append([]any{}, args...), f.Limit, f.Offset)

	var (
		total int
		items = make([]model.Document, 0)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.db.QueryRowContext(gctx, qCount, args...).Scan(&total)
	})
	g.Go(func() error {
		rows, err := r.db.QueryContext(gctx, qList, listArgs...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			d, err := scanDocument(rows)
			if err != nil {
				return err
			}
			items = append(items, *d)
		}
		return rows.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

// Update overwrites the columns set in ch, bumps updated_at, and returns the
// stored row. An empty change set still touches updated_at.
func (r *DocumentPostgres) Update(ctx context.Context, id int64, ch repository.DocumentChanges) (*model.Document, error) {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if ch.Name != nil {
		set("name", *ch.Name)
	}
	if ch.CategoryID != nil {
		set("category_id", *ch.CategoryID)
	}
	if ch.Description != nil {
		set("description", *ch.Description)
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	q := fmt.Sprintf(`
		WITH d AS (
			UPDATE documents SET %s
			WHERE id = $%d
			RETURNING *
		)
		SELECT %s
		FROM d JOIN categories c ON c.id = d.category_id
	`, strings.Join(sets, ", "), len(args), documentColumns)

	doc, err := scanDocument(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		return nil, translate(err)
	}
	return doc, nil
}

// Delete removes a document by ID. It does not return an error if the row does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM documents WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, q, id); err != nil {
		return err
	}
	return nil
}

// escapeLike neutralizes LIKE wildcards so the search term matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
