package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"docvault/internal/access"
	"docvault/internal/apperror"
	"docvault/internal/cache"
	"docvault/internal/model"
	"docvault/internal/notify"
	"docvault/internal/repository"
	"docvault/internal/storage"
)

const (
	DefaultPage        = 1
	DefaultLimit       = 10
	DefaultMaxFileSize = 10 << 20
	DefaultDownloadTTL = 3600 * time.Second

	resourceDocument = "Document"
)

// AllowedFileTypes lists the MIME types accepted by Upload.
var AllowedFileTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain": true,
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
}

// UploadInput carries one uploaded file plus its form fields.
type UploadInput struct {
	File        io.ReadSeeker
	FileName    string
	ContentType string
	Size        int64
	Name        string
	CategoryID  int64
	Description *string
}

// ListQuery selects a page of the caller's documents. Zero page or limit
// take the defaults.
type ListQuery struct {
	Page       int
	Limit      int
	CategoryID *int64
	Search     string
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// DocumentPage is one listing page. It is cached verbatim.
type DocumentPage struct {
	Data       []model.Document `json:"data"`
	Pagination Pagination       `json:"pagination"`
}

// DocumentUpdate holds the fields a caller supplied. An empty name or a zero
// category id counts as not supplied; an empty description is applied.
type DocumentUpdate struct {
	Name        *string
	CategoryID  *int64
	Description *string
}

// DocumentService defines the document use cases. Every call acts on behalf
// of actorID and enforces existence then ownership on single documents.
type DocumentService interface {
	// Upload stores the payload, then the metadata row. Nothing is written
	// when the payload is rejected or the object store fails.
	Upload(ctx context.Context, actorID int64, in UploadInput) (*model.Document, error)

	// List returns one page of the actor's documents, newest first.
	List(ctx context.Context, actorID int64, q ListQuery) (*DocumentPage, error)

	// Get returns a single document.
	Get(ctx context.Context, actorID, id int64) (*model.Document, error)

	// Update applies the supplied fields and returns the stored document.
	Update(ctx context.Context, actorID, id int64, u DocumentUpdate) (*model.Document, error)

	// Delete removes the row. A failed object removal is logged, not returned.
	Delete(ctx context.Context, actorID, id int64) error

	// DownloadURL returns a presigned link. It is never cached.
	DownloadURL(ctx context.Context, actorID, id int64) (string, error)
}

// DocumentConfig tunes a DocumentService. Zero values take the defaults.
type DocumentConfig struct {
	MaxFileSize int64
	DownloadTTL time.Duration
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	repo   repository.DocumentRepository
	store  storage.ObjectStore
	cache  cache.Cache
	notify notify.Notifier
	log    *zap.Logger
	cfg    DocumentConfig
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(
	repo repository.DocumentRepository,
	store storage.ObjectStore,
	c cache.Cache,
	n notify.Notifier,
	log *zap.Logger,
	cfg DocumentConfig,
) DocumentService {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.DownloadTTL <= 0 {
		cfg.DownloadTTL = DefaultDownloadTTL
	}
	if c == nil {
		c = cache.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &documentService{repo: repo, store: store, cache: c, notify: n, log: log, cfg: cfg}
}

func (s *documentService) Upload(ctx context.Context, actorID int64, in UploadInput) (doc *model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Upload")
	defer endSpan(span, &err)

	if in.File == nil {
		return nil, apperror.BadRequest("No file uploaded")
	}
	if err := validateUploadFields(in); err != nil {
		return nil, err
	}
	contentType, err := s.checkFile(in)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("file.type", contentType), attribute.Int64("file.size", in.Size))

	obj, err := s.store.Upload(ctx, in.File, storage.UploadInput{
		OwnerID:     actorID,
		FileName:    in.FileName,
		ContentType: contentType,
		Size:        in.Size,
	})
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("upload to storage: %w", err))
	}

	stored, err := s.repo.Create(ctx, &model.Document{
		UserID:      actorID,
		CategoryID:  in.CategoryID,
		Name:        in.Name,
		Description: in.Description,
		FileType:    contentType,
		FileSize:    in.Size,
		StorageKey:  obj.Key,
		StorageURL:  obj.Locator,
	})
	if err != nil {
		// The row does not exist, so the payload has no owner.
		if delErr := s.store.Delete(ctx, obj.Key); delErr != nil {
			s.log.Warn("upload_rollback_failed", zap.String("key", obj.Key), zap.Error(delErr))
		}
		return nil, classify(err, resourceDocument)
	}
	span.SetAttributes(attribute.Int64("document.id", stored.ID))

	cache.Store(ctx, s.cache, cache.DocumentKey(stored.ID), stored, cache.DocumentTTL)
	s.cache.DeleteByPattern(ctx, cache.UserDocsPattern(actorID))

	s.notify.PublishToUser(actorID, notify.EventDocumentUploaded, notify.DocumentUploaded{
		DocumentID: stored.ID,
		Name:       stored.Name,
		Category:   stored.Category,
	})

	s.log.Info("document_uploaded",
		zap.Int64("document_id", stored.ID),
		zap.Int64("user_id", actorID),
		zap.String("key", stored.StorageKey),
	)
	return stored, nil
}

func validateUploadFields(in UploadInput) error {
	details := map[string]string{}
	if strings.TrimSpace(in.Name) == "" {
		details["name"] = "Document name is required"
	}
	if in.CategoryID <= 0 {
		details["categoryId"] = "Category is required"
	}
	if len(details) > 0 {
		return apperror.Validation("", details)
	}
	return nil
}

// checkFile enforces the size ceiling and type allow-list and returns the
// effective content type. A missing or generic type is sniffed from the
// payload, which is rewound afterwards.
func (s *documentService) checkFile(in UploadInput) (string, error) {
	if in.Size > s.cfg.MaxFileSize {
		return "", apperror.BadRequest(fmt.Sprintf("File too large. Maximum size is %dMB", s.cfg.MaxFileSize>>20))
	}

	ct := mediaType(in.ContentType)
	if ct == "" || ct == "application/octet-stream" {
		m, err := mimetype.DetectReader(in.File)
		if err != nil {
			return "", apperror.BadRequest("Unable to read uploaded file").WithErr(err)
		}
		if _, err := in.File.Seek(0, io.SeekStart); err != nil {
			return "", apperror.Internal(err)
		}
		ct = mediaType(m.String())
	}

	if !AllowedFileTypes[ct] {
		return "", apperror.BadRequest("Invalid file type. Allowed types: PDF, DOC, DOCX, TXT, PNG, JPG")
	}
	return ct, nil
}

func mediaType(v string) string {
	t, _, _ := strings.Cut(v, ";")
	return strings.ToLower(strings.TrimSpace(t))
}

func (s *documentService) List(ctx context.Context, actorID int64, q ListQuery) (page *DocumentPage, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.List")
	defer endSpan(span, &err)

	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}

	key := cache.UserDocsKey(actorID, q.Page, q.Limit, q.CategoryID, q.Search)
	return cache.Fetch(ctx, s.cache, key, cache.UserDocsTTL, func(ctx context.Context) (*DocumentPage, error) {
		res, err := s.repo.List(ctx, repository.DocumentFilter{
			UserID:     actorID,
			CategoryID: q.CategoryID,
			Search:     q.Search,
			PageQuery: repository.PageQuery{
				Limit:  q.Limit,
				Offset: (q.Page - 1) * q.Limit,
			},
		})
		if err != nil {
			return nil, classify(err, resourceDocument)
		}
		items := res.Items
		if items == nil {
			items = []model.Document{}
		}
		return &DocumentPage{
			Data: items,
			Pagination: Pagination{
				Page:       q.Page,
				Limit:      q.Limit,
				Total:      res.Total,
				TotalPages: int(math.Ceil(float64(res.Total) / float64(q.Limit))),
			},
		}, nil
	})
}

// find loads a document and runs the access checks.
func (s *documentService) find(ctx context.Context, actorID, id int64) (*model.Document, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, classify(err, resourceDocument)
	}
	if err := access.Check(doc, err == nil, actorID, resourceDocument); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Get(ctx context.Context, actorID, id int64) (doc *model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Get")
	span.SetAttributes(attribute.Int64("document.id", id))
	defer endSpan(span, &err)

	doc, err = cache.Fetch(ctx, s.cache, cache.DocumentKey(id), cache.DocumentTTL, func(ctx context.Context) (*model.Document, error) {
		d, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, classify(err, resourceDocument)
		}
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	// Cached snapshots carry the owner, so the check holds on a hit too.
	if err := access.EnsureOwner(doc, actorID, resourceDocument); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Update(ctx context.Context, actorID, id int64, u DocumentUpdate) (doc *model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Update")
	span.SetAttributes(attribute.Int64("document.id", id))
	defer endSpan(span, &err)

	if _, err := s.find(ctx, actorID, id); err != nil {
		return nil, err
	}

	var ch repository.DocumentChanges
	if u.Name != nil && *u.Name != "" {
		ch.Name = u.Name
	}
	if u.CategoryID != nil && *u.CategoryID != 0 {
		ch.CategoryID = u.CategoryID
	}
	if u.Description != nil {
		ch.Description = u.Description
	}

	updated, err := s.repo.Update(ctx, id, ch)
	if err != nil {
		return nil, classify(err, resourceDocument)
	}

	s.invalidate(ctx, actorID, id)
	s.notify.PublishToUser(actorID, notify.EventDocumentUpdated, notify.DocumentUpdated{
		DocumentID:  updated.ID,
		Name:        updated.Name,
		Category:    updated.Category,
		Description: updated.Description,
	})
	return updated, nil
}

func (s *documentService) Delete(ctx context.Context, actorID, id int64) (err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Delete")
	span.SetAttributes(attribute.Int64("document.id", id))
	defer endSpan(span, &err)

	doc, err := s.find(ctx, actorID, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, doc.StorageKey); err != nil {
		s.log.Warn("storage_delete_failed",
			zap.Int64("document_id", id),
			zap.String("key", doc.StorageKey),
			zap.Error(err),
		)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return classify(err, resourceDocument)
	}

	s.invalidate(ctx, actorID, id)
	s.notify.PublishToUser(actorID, notify.EventDocumentDeleted, notify.DocumentDeleted{DocumentID: id})

	s.log.Info("document_deleted", zap.Int64("document_id", id), zap.Int64("user_id", actorID))
	return nil
}

func (s *documentService) DownloadURL(ctx context.Context, actorID, id int64) (u string, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.DownloadURL")
	span.SetAttributes(attribute.Int64("document.id", id))
	defer endSpan(span, &err)

	doc, err := s.find(ctx, actorID, id)
	if err != nil {
		return "", err
	}
	u, err = s.store.SignDownloadURL(ctx, doc.StorageKey, s.cfg.DownloadTTL)
	if err != nil {
		return "", apperror.Internal(fmt.Errorf("sign download url: %w", err))
	}
	return u, nil
}

func (s *documentService) invalidate(ctx context.Context, ownerID, id int64) {
	s.cache.Delete(ctx, cache.DocumentKey(id))
	s.cache.DeleteByPattern(ctx, cache.UserDocsPattern(ownerID))
}
