package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docvault/internal/apperror"
	"docvault/internal/cache"
	"docvault/internal/model"
	"docvault/internal/notify"
	notifyMocks "docvault/internal/notify/mocks"
	"docvault/internal/repository"
	repoMocks "docvault/internal/repository/mocks"
	"docvault/internal/storage"
	storeMocks "docvault/internal/storage/mocks"
)

var (
	pdfBytes = append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("x"), 2039)...)
	invoices = model.Category{ID: 3, Name: "Invoices", Color: "#8B5CF6"}
	reports  = model.Category{ID: 4, Name: "Reports", Color: "#F59E0B"}
)

func strPtr(s string) *string { return &s }
func int64Ptr(v int64) *int64 { return &v }

func pdfUpload(name string) UploadInput {
	return UploadInput{
		File:        bytes.NewReader(pdfBytes),
		FileName:    name + ".pdf",
		ContentType: "application/pdf",
		Size:        int64(len(pdfBytes)),
		Name:        name,
		CategoryID:  invoices.ID,
	}
}

func TestDocumentService_Upload(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		input      func() UploadInput
		setupMocks func(mStore *storeMocks.MockObjectStore, mRepo *repoMocks.MockDocumentRepository, mNotify *notifyMocks.MockNotifier)
		wantKind   apperror.Kind
		wantErr    bool
		check      func(t *testing.T, doc *model.Document)
	}{
		{
			name: "happy path",
			input: func() UploadInput {
				in := pdfUpload("doc1")
				in.Description = strPtr("march")
				return in
			},
			setupMocks: func(mStore *storeMocks.MockObjectStore, mRepo *repoMocks.MockDocumentRepository, mNotify *notifyMocks.MockNotifier) {
				mStore.On("Upload", mock.Anything, mock.Anything, storage.UploadInput{
					OwnerID: 1, FileName: "doc1.pdf", ContentType: "application/pdf", Size: int64(len(pdfBytes)),
				}).Return(storage.UploadResult{Key: "users/1/1-doc1.pdf", Locator: "http://minio/docs/users/1/1-doc1.pdf"}, nil)

				mRepo.On("Create", mock.Anything, mock.MatchedBy(func(d *model.Document) bool {
					return d.UserID == 1 && d.StorageKey == "users/1/1-doc1.pdf" && d.FileType == "application/pdf" &&
						d.Description != nil && *d.Description == "march"
				})).Return(&model.Document{ID: 10, UserID: 1, Name: "doc1", CategoryID: 3, Category: &invoices, StorageURL: "http://minio/docs/users/1/1-doc1.pdf"}, nil)

				mNotify.On("PublishToUser", int64(1), notify.EventDocumentUploaded, notify.DocumentUploaded{
					DocumentID: 10, Name: "doc1", Category: &invoices,
				}).Return()
			},
			check: func(t *testing.T, doc *model.Document) {
				assert.Equal(t, int64(10), doc.ID)
				assert.NotEmpty(t, doc.StorageURL)
			},
		},
		{
			name: "no file",
			input: func() UploadInput {
				in := pdfUpload("doc1")
				in.File = nil
				return in
			},
			wantKind: apperror.KindBadRequest,
			wantErr:  true,
		},
		{
			name: "missing name and category",
			input: func() UploadInput {
				in := pdfUpload(" ")
				in.CategoryID = 0
				return in
			},
			wantKind: apperror.KindValidation,
			wantErr:  true,
		},
		{
			name: "file too large",
			input: func() UploadInput {
				in := pdfUpload("big")
				in.Size = 11 << 20
				return in
			},
			wantKind: apperror.KindBadRequest,
			wantErr:  true,
		},
		{
			name: "disallowed type",
			input: func() UploadInput {
				in := pdfUpload("zip")
				in.ContentType = "application/zip"
				return in
			},
			wantKind: apperror.KindBadRequest,
			wantErr:  true,
		},
		{
			name: "generic type is sniffed",
			input: func() UploadInput {
				in := pdfUpload("sniffed")
				in.ContentType = "application/octet-stream"
				return in
			},
			setupMocks: func(mStore *storeMocks.MockObjectStore, mRepo *repoMocks.MockDocumentRepository, mNotify *notifyMocks.MockNotifier) {
				mStore.On("Upload", mock.Anything, mock.Anything, mock.MatchedBy(func(in storage.UploadInput) bool {
					return in.ContentType == "application/pdf"
				})).Return(storage.UploadResult{Key: "k", Locator: "l"}, nil)
				mRepo.On("Create", mock.Anything, mock.Anything).Return(&model.Document{ID: 11, UserID: 1}, nil)
				mNotify.On("PublishToUser", int64(1), notify.EventDocumentUploaded, mock.Anything).Return()
			},
		},
		{
			name:  "storage failure writes no metadata",
			input: func() UploadInput { return pdfUpload("doc1") },
			setupMocks: func(mStore *storeMocks.MockObjectStore, mRepo *repoMocks.MockDocumentRepository, mNotify *notifyMocks.MockNotifier) {
				mStore.On("Upload", mock.Anything, mock.Anything, mock.Anything).
					Return(storage.UploadResult{}, errors.New("storage fail"))
			},
			wantKind: apperror.KindInternal,
			wantErr:  true,
		},
		{
			name:  "unknown category rolls back payload",
			input: func() UploadInput { return pdfUpload("doc1") },
			setupMocks: func(mStore *storeMocks.MockObjectStore, mRepo *repoMocks.MockDocumentRepository, mNotify *notifyMocks.MockNotifier) {
				mStore.On("Upload", mock.Anything, mock.Anything, mock.Anything).
					Return(storage.UploadResult{Key: "users/1/1-doc1.pdf"}, nil)
				mRepo.On("Create", mock.Anything, mock.Anything).Return(nil, repository.ErrInvalidReference)
				mStore.On("Delete", mock.Anything, "users/1/1-doc1.pdf").Return(nil)
			},
			wantKind: apperror.KindBadRequest,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockObjectStore)
			mRepo := new(repoMocks.MockDocumentRepository)
			mNotify := new(notifyMocks.MockNotifier)
			if tt.setupMocks != nil {
				tt.setupMocks(mStore, mRepo, mNotify)
			}
			svc := NewDocumentService(mRepo, mStore, nil, mNotify, nil, DocumentConfig{})

			doc, err := svc.Upload(ctx, 1, tt.input())

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperror.KindOf(err))
				assert.Nil(t, doc)
			} else {
				require.NoError(t, err)
				if tt.check != nil {
					tt.check(t, doc)
				}
			}
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
			mNotify.AssertExpectations(t)
		})
	}
}

func TestDocumentService_UploadValidationDetails(t *testing.T) {
	svc := NewDocumentService(nil, nil, nil, nil, nil, DocumentConfig{})
	in := pdfUpload("")
	in.CategoryID = 0

	_, err := svc.Upload(context.Background(), 1, in)

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, map[string]string{
		"name":       "Document name is required",
		"categoryId": "Category is required",
	}, appErr.Details)
}

func TestDocumentService_DeleteIgnoresStorageFailure(t *testing.T) {
	ctx := context.Background()
	mStore := new(storeMocks.MockObjectStore)
	mRepo := new(repoMocks.MockDocumentRepository)
	mNotify := new(notifyMocks.MockNotifier)

	mRepo.On("FindByID", mock.Anything, int64(5)).Return(&model.Document{ID: 5, UserID: 1, StorageKey: "users/1/k"}, nil)
	mStore.On("Delete", mock.Anything, "users/1/k").Return(errors.New("bucket unreachable"))
	mRepo.On("Delete", mock.Anything, int64(5)).Return(nil)
	mNotify.On("PublishToUser", int64(1), notify.EventDocumentDeleted, notify.DocumentDeleted{DocumentID: 5}).Return()

	svc := NewDocumentService(mRepo, mStore, nil, mNotify, nil, DocumentConfig{})
	require.NoError(t, svc.Delete(ctx, 1, 5))

	mStore.AssertExpectations(t)
	mRepo.AssertExpectations(t)
	mNotify.AssertExpectations(t)
}

func TestDocumentService_DownloadURL(t *testing.T) {
	ctx := context.Background()
	mStore := new(storeMocks.MockObjectStore)
	mRepo := new(repoMocks.MockDocumentRepository)
	mRepo.On("FindByID", mock.Anything, int64(5)).Return(&model.Document{ID: 5, UserID: 1, StorageKey: "users/1/k"}, nil)
	mRepo.On("FindByID", mock.Anything, int64(6)).Return(nil, repository.ErrNotFound)
	mStore.On("SignDownloadURL", mock.Anything, "users/1/k", DefaultDownloadTTL).Return("http://signed", nil)

	svc := NewDocumentService(mRepo, mStore, nil, nil, nil, DocumentConfig{})

	u, err := svc.DownloadURL(ctx, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, "http://signed", u)

	_, err = svc.DownloadURL(ctx, 2, 5)
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))

	_, err = svc.DownloadURL(ctx, 1, 6)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	mStore.AssertNumberOfCalls(t, "SignDownloadURL", 1)
}

// cacheModes returns the cache setups every behavioral test runs under.
func cacheModes(t *testing.T) map[string]cache.Cache {
	t.Helper()

	working := miniredis.RunT(t)
	wc := redis.NewClient(cache.ClientOptions(working.Addr(), "", 0))
	t.Cleanup(func() { wc.Close() })
	wr, err := cache.NewRedis(wc, cache.Options{RetryBase: time.Millisecond})
	require.NoError(t, err)

	broken := miniredis.RunT(t)
	bc := redis.NewClient(cache.ClientOptions(broken.Addr(), "", 0))
	t.Cleanup(func() { bc.Close() })
	br, err := cache.NewRedis(bc, cache.Options{RetryBase: time.Millisecond})
	require.NoError(t, err)
	broken.Close()

	return map[string]cache.Cache{
		"no cache":      cache.Nop{},
		"working redis": wr,
		"broken redis":  br,
	}
}

// roundTrip runs create, read, update, read, delete and returns what a client
// would observe.
func roundTrip(t *testing.T, c cache.Cache) []any {
	ctx := context.Background()
	repo := newMemDocuments(invoices, reports)
	store := newMemStore()
	rec := &recorder{}
	svc := NewDocumentService(repo, store, c, rec, nil, DocumentConfig{})

	in := pdfUpload("doc1")
	in.Description = strPtr("first")
	created, err := svc.Upload(ctx, 1, in)
	require.NoError(t, err)

	got, err := svc.Get(ctx, 1, created.ID)
	require.NoError(t, err)
	page1, err := svc.List(ctx, 1, ListQuery{Page: 1, Limit: 10})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, 1, created.ID, DocumentUpdate{Name: strPtr("doc1-renamed"), CategoryID: int64Ptr(reports.ID)})
	require.NoError(t, err)
	again, err := svc.Get(ctx, 1, created.ID)
	require.NoError(t, err)
	page2, err := svc.List(ctx, 1, ListQuery{Page: 1, Limit: 10})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, 1, created.ID))
	_, getErr := svc.Get(ctx, 1, created.ID)
	page3, err := svc.List(ctx, 1, ListQuery{Page: 1, Limit: 10})
	require.NoError(t, err)

	assert.False(t, store.has(created.StorageKey))

	return []any{
		got.Name, *got.Description, got.Category.Name, got.StorageURL != "",
		len(page1.Data), page1.Pagination,
		updated.Name, updated.Category.Name, *updated.Description,
		again.Name, again.Category.Name,
		page2.Data[0].Name,
		apperror.KindOf(getErr),
		len(page3.Data), page3.Pagination,
		rec.names(),
	}
}

func TestDocumentService_CacheTransparency(t *testing.T) {
	want := []any{
		"doc1", "first", "Invoices", true,
		1, Pagination{Page: 1, Limit: 10, Total: 1, TotalPages: 1},
		"doc1-renamed", "Reports", "first",
		"doc1-renamed", "Reports",
		"doc1-renamed",
		apperror.KindNotFound,
		0, Pagination{Page: 1, Limit: 10, Total: 0, TotalPages: 0},
		[]string{notify.EventDocumentUploaded, notify.EventDocumentUpdated, notify.EventDocumentDeleted},
	}

	for name, c := range cacheModes(t) {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, want, roundTrip(t, c))
		})
	}
}

func TestDocumentService_OwnershipRegardlessOfCache(t *testing.T) {
	ctx := context.Background()

	for name, c := range cacheModes(t) {
		t.Run(name, func(t *testing.T) {
			repo := newMemDocuments(invoices)
			svc := NewDocumentService(repo, newMemStore(), c, &recorder{}, nil, DocumentConfig{})

			doc, err := svc.Upload(ctx, 1, pdfUpload("private"))
			require.NoError(t, err)

			// Cold: drop whatever Upload cached.
			c.Delete(ctx, cache.DocumentKey(doc.ID))
			_, err = svc.Get(ctx, 2, doc.ID)
			assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized), "cold: %v", err)

			// Warm: the owner populates the cache first.
			_, err = svc.Get(ctx, 1, doc.ID)
			require.NoError(t, err)
			_, err = svc.Get(ctx, 2, doc.ID)
			assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized), "warm: %v", err)

			_, err = svc.Update(ctx, 2, doc.ID, DocumentUpdate{Name: strPtr("stolen")})
			assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))
			assert.True(t, apperror.IsKind(svc.Delete(ctx, 2, doc.ID), apperror.KindUnauthorized))

			_, err = svc.Get(ctx, 1, doc.ID+100)
			assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
		})
	}
}

func TestDocumentService_Pagination(t *testing.T) {
	ctx := context.Background()
	svc := NewDocumentService(newMemDocuments(invoices), newMemStore(), nil, &recorder{}, nil, DocumentConfig{})

	for _, n := range []string{"a", "b", "c", "d", "e"} {
		_, err := svc.Upload(ctx, 1, pdfUpload(n))
		require.NoError(t, err)
	}
	_, err := svc.Upload(ctx, 2, pdfUpload("someone-else"))
	require.NoError(t, err)

	first, err := svc.List(ctx, 1, ListQuery{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, Pagination{Page: 1, Limit: 2, Total: 5, TotalPages: 3}, first.Pagination)
	require.Len(t, first.Data, 2)
	assert.Equal(t, "e", first.Data[0].Name)

	last, err := svc.List(ctx, 1, ListQuery{Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, last.Data, 1)

	past, err := svc.List(ctx, 1, ListQuery{Page: 4, Limit: 2})
	require.NoError(t, err)
	assert.NotNil(t, past.Data)
	assert.Empty(t, past.Data)
	assert.Equal(t, Pagination{Page: 4, Limit: 2, Total: 5, TotalPages: 3}, past.Pagination)

	defaults, err := svc.List(ctx, 1, ListQuery{Page: -1})
	require.NoError(t, err)
	assert.Equal(t, 1, defaults.Pagination.Page)
	assert.Equal(t, 10, defaults.Pagination.Limit)

	search, err := svc.List(ctx, 1, ListQuery{Search: "C"})
	require.NoError(t, err)
	require.Len(t, search.Data, 1)
	assert.Equal(t, "c", search.Data[0].Name)
}

func TestDocumentService_ListServesCachedPage(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockDocumentRepository)
	mRepo.On("List", mock.Anything, repository.DocumentFilter{
		UserID: 1, PageQuery: repository.PageQuery{Limit: 10, Offset: 0},
	}).Return(&repository.PageResult[model.Document]{Items: []model.Document{{ID: 1, UserID: 1}}, Total: 1}, nil).Once()

	mr := miniredis.RunT(t)
	client := redis.NewClient(cache.ClientOptions(mr.Addr(), "", 0))
	t.Cleanup(func() { client.Close() })
	c, err := cache.NewRedis(client, cache.Options{})
	require.NoError(t, err)

	svc := NewDocumentService(mRepo, nil, c, nil, nil, DocumentConfig{})
	for range 2 {
		page, err := svc.List(ctx, 1, ListQuery{})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Pagination.Total)
	}

	assert.True(t, mr.Exists(cache.UserDocsKey(1, 1, 10, nil, "")))
	mRepo.AssertNumberOfCalls(t, "List", 1)
}

func TestDocumentService_PartialUpdate(t *testing.T) {
	ctx := context.Background()
	repo := newMemDocuments(invoices, reports)
	svc := NewDocumentService(repo, newMemStore(), nil, &recorder{}, nil, DocumentConfig{})

	in := pdfUpload("doc")
	in.Description = strPtr("keep me")
	doc, err := svc.Upload(ctx, 1, in)
	require.NoError(t, err)

	t.Run("omitted fields keep their value", func(t *testing.T) {
		got, err := svc.Update(ctx, 1, doc.ID, DocumentUpdate{})
		require.NoError(t, err)
		assert.Equal(t, "doc", got.Name)
		assert.Equal(t, "keep me", *got.Description)
	})

	t.Run("empty name and zero category are ignored", func(t *testing.T) {
		got, err := svc.Update(ctx, 1, doc.ID, DocumentUpdate{Name: strPtr(""), CategoryID: int64Ptr(0)})
		require.NoError(t, err)
		assert.Equal(t, "doc", got.Name)
		assert.Equal(t, invoices.ID, got.CategoryID)
	})

	t.Run("empty description is applied", func(t *testing.T) {
		got, err := svc.Update(ctx, 1, doc.ID, DocumentUpdate{Description: strPtr("")})
		require.NoError(t, err)
		require.NotNil(t, got.Description)
		assert.Equal(t, "", *got.Description)

		reread, err := svc.Get(ctx, 1, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, "", *reread.Description)
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := svc.Update(ctx, 1, doc.ID, DocumentUpdate{CategoryID: int64Ptr(99)})
		assert.True(t, apperror.IsKind(err, apperror.KindBadRequest))
	})
}

func TestDocumentService_UploadRejectsBeforeStorage(t *testing.T) {
	store := newMemStore()
	svc := NewDocumentService(newMemDocuments(invoices), store, nil, &recorder{}, nil, DocumentConfig{MaxFileSize: 1024})

	_, err := svc.Upload(context.Background(), 1, pdfUpload("too-big"))

	assert.True(t, apperror.IsKind(err, apperror.KindBadRequest))
	assert.Empty(t, store.objects)
}
