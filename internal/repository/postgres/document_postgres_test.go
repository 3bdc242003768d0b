package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/database"
	"docvault/internal/model"
	"docvault/internal/repository"
)

var documentRowColumns = []string{
	"id", "user_id", "category_id", "name", "description", "file_type", "file_size",
	"storage_key", "storage_url", "uploaded_at", "updated_at",
	"c_id", "c_name", "c_color", "c_created_at", "c_updated_at",
}

func documentRows(docs ...model.Document) *sqlmock.Rows {
	rows := sqlmock.NewRows(documentRowColumns)
	for _, d := range docs {
		var desc any
		if d.Description != nil {
			desc = *d.Description
		}
		rows.AddRow(d.ID, d.UserID, d.CategoryID, d.Name, desc, d.FileType, d.FileSize,
			d.StorageKey, d.StorageURL, d.UploadedAt, d.UpdatedAt,
			d.CategoryID, "Invoices", "#8B5CF6", d.UploadedAt, d.UploadedAt)
	}
	return rows
}

func strPtr(s string) *string { return &s }
func int64Ptr(v int64) *int64 { return &v }

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	doc := &model.Document{
		UserID:      1,
		CategoryID:  3,
		Name:        "doc1",
		Description: strPtr("march invoice"),
		FileType:    "application/pdf",
		FileSize:    2048,
		StorageKey:  "users/1/1700000000000-doc1.pdf",
		StorageURL:  "http://minio:9000/docs/users/1/1700000000000-doc1.pdf",
	}

	t.Run("success", func(t *testing.T) {
		stored := *doc
		stored.ID = 10
		stored.UploadedAt = now
		stored.UpdatedAt = now

		mock.ExpectQuery("INSERT INTO documents").
			WithArgs(doc.UserID, doc.CategoryID, doc.Name, "march invoice", doc.FileType, doc.FileSize, doc.StorageKey, doc.StorageURL).
			WillReturnRows(documentRows(stored))

		result, err := repo.Create(ctx, doc)

		require.NoError(t, err)
		assert.Equal(t, int64(10), result.ID)
		assert.Equal(t, "march invoice", *result.Description)
		require.NotNil(t, result.Category)
		assert.Equal(t, "Invoices", result.Category.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown category", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO documents").
			WillReturnError(&pgconn.PgError{Code: database.CodeForeignKeyViolation, ConstraintName: "documents_category_id_fkey"})

		_, err := repo.Create(ctx, doc)

		assert.ErrorIs(t, err, repository.ErrInvalidReference)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found without description", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents d JOIN categories c (.+) WHERE d.id = ?").
			WithArgs(int64(5)).
			WillReturnRows(documentRows(model.Document{ID: 5, UserID: 1, CategoryID: 3, Name: "doc", UploadedAt: time.Now()}))

		doc, err := repo.FindByID(ctx, 5)

		require.NoError(t, err)
		assert.Equal(t, int64(5), doc.ID)
		assert.Nil(t, doc.Description)
		assert.Equal(t, int64(3), doc.Category.ID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents d").
			WithArgs(int64(404)).
			WillReturnError(sql.ErrNoRows)

		doc, err := repo.FindByID(ctx, 404)

		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.Nil(t, doc)
	})
}

func TestDocumentPostgres_List(t *testing.T) {
	ctx := context.Background()

	t.Run("owner only", func(t *testing.T) {
		db, mock := newMock(t)
		mock.MatchExpectationsInOrder(false)
		repo := NewDocumentPostgres(db)

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents d WHERE d.user_id = \\$1$").
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery("SELECT (.+) ORDER BY d.uploaded_at DESC").
			WithArgs(int64(1), 10, 0).
			WillReturnRows(documentRows(model.Document{ID: 1, UserID: 1, CategoryID: 3, Name: "doc1", UploadedAt: time.Now()}))

		res, err := repo.List(ctx, repository.DocumentFilter{UserID: 1, PageQuery: repository.PageQuery{Limit: 10, Offset: 0}})

		require.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		assert.Len(t, res.Items, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("category and escaped search", func(t *testing.T) {
		db, mock := newMock(t)
		mock.MatchExpectationsInOrder(false)
		repo := NewDocumentPostgres(db)

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents d WHERE d.user_id = \\$1 AND d.category_id = \\$2 AND d.name ILIKE \\$3").
			WithArgs(int64(1), int64(3), `%50\%%`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery("SELECT (.+) LIMIT \\$4 OFFSET \\$5").
			WithArgs(int64(1), int64(3), `%50\%%`, 10, 20).
			WillReturnRows(documentRows())

		res, err := repo.List(ctx, repository.DocumentFilter{
			UserID:     1,
			CategoryID: int64Ptr(3),
			Search:     "50%",
			PageQuery:  repository.PageQuery{Limit: 10, Offset: 20},
		})

		require.NoError(t, err)
		assert.Equal(t, 0, res.Total)
		assert.NotNil(t, res.Items)
		assert.Empty(t, res.Items)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("count failure", func(t *testing.T) {
		db, mock := newMock(t)
		mock.MatchExpectationsInOrder(false)
		repo := NewDocumentPostgres(db)

		mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("db down"))
		mock.ExpectQuery("SELECT (.+) ORDER BY").WillReturnRows(documentRows())

		_, err := repo.List(ctx, repository.DocumentFilter{UserID: 1, PageQuery: repository.PageQuery{Limit: 10}})
		assert.ErrorContains(t, err, "db down")
	})
}

func TestDocumentPostgres_Update(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("only supplied columns are set", func(t *testing.T) {
		mock.ExpectQuery("UPDATE documents SET description = \\$1, updated_at = now\\(\\)\\s+WHERE id = \\$2").
			WithArgs("", int64(9)).
			WillReturnRows(documentRows(model.Document{ID: 9, UserID: 1, CategoryID: 3, Name: "doc", Description: strPtr(""), UploadedAt: time.Now()}))

		doc, err := repo.Update(ctx, 9, repository.DocumentChanges{Description: strPtr("")})

		require.NoError(t, err)
		require.NotNil(t, doc.Description)
		assert.Equal(t, "", *doc.Description)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("name and category", func(t *testing.T) {
		mock.ExpectQuery("UPDATE documents SET name = \\$1, category_id = \\$2, updated_at = now\\(\\)\\s+WHERE id = \\$3").
			WithArgs("renamed", int64(4), int64(9)).
			WillReturnRows(documentRows(model.Document{ID: 9, UserID: 1, CategoryID: 4, Name: "renamed", UploadedAt: time.Now()}))

		doc, err := repo.Update(ctx, 9, repository.DocumentChanges{Name: strPtr("renamed"), CategoryID: int64Ptr(4)})

		require.NoError(t, err)
		assert.Equal(t, "renamed", doc.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		mock.ExpectQuery("UPDATE documents").WillReturnError(sql.ErrNoRows)

		_, err := repo.Update(ctx, 404, repository.DocumentChanges{Name: strPtr("x")})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestDocumentPostgres_Delete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM documents WHERE id = ?").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(ctx, 7)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\tmp`, escapeLike(`c:\tmp`))
	assert.Equal(t, "plain", escapeLike("plain"))
}
