package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"docvault/internal/apperror"
	"docvault/internal/cache"
	"docvault/internal/model"
	"docvault/internal/notify"
	"docvault/internal/repository"
)

const resourceCategory = "Category"

// CategoryService manages the shared category list.
type CategoryService interface {
	// List returns every category ordered by name.
	List(ctx context.Context) ([]model.Category, error)
	// Create adds a category and announces it to every connected session.
	// An empty color takes model.DefaultCategoryColor.
	Create(ctx context.Context, name, color string) (*model.Category, error)
	// Get returns one category.
	Get(ctx context.Context, id int64) (*model.Category, error)
}

type categoryService struct {
	repo   repository.CategoryRepository
	cache  cache.Cache
	notify notify.Notifier
	log    *zap.Logger
}

func NewCategoryService(repo repository.CategoryRepository, c cache.Cache, n notify.Notifier, log *zap.Logger) CategoryService {
	if c == nil {
		c = cache.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &categoryService{repo: repo, cache: c, notify: n, log: log}
}

func (s *categoryService) List(ctx context.Context) (cats []model.Category, err error) {
	ctx, span := tracer.Start(ctx, "CategoryService.List")
	defer endSpan(span, &err)

	return cache.Fetch(ctx, s.cache, cache.CategoriesAll, cache.CategoriesTTL, func(ctx context.Context) ([]model.Category, error) {
		cats, err := s.repo.List(ctx)
		if err != nil {
			return nil, classify(err, resourceCategory)
		}
		if cats == nil {
			cats = []model.Category{}
		}
		return cats, nil
	})
}

func (s *categoryService) Create(ctx context.Context, name, color string) (cat *model.Category, err error) {
	ctx, span := tracer.Start(ctx, "CategoryService.Create")
	defer endSpan(span, &err)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("", map[string]string{"name": "Category name is required"})
	}
	if color == "" {
		color = model.DefaultCategoryColor
	}

	created, err := s.repo.Create(ctx, &model.Category{Name: name, Color: color})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, apperror.Duplicate("DUPLICATE_CATEGORY", "Category with this name already exists").WithErr(err)
	}
	if err != nil {
		return nil, classify(err, resourceCategory)
	}

	s.cache.DeleteByPattern(ctx, cache.CategoriesPattern)
	s.notify.PublishGlobal(notify.EventCategoryCreated, notify.CategoryCreated{
		CategoryID: created.ID,
		Name:       created.Name,
		Color:      created.Color,
	})

	s.log.Info("category_created", zap.Int64("category_id", created.ID), zap.String("name", created.Name))
	return created, nil
}

func (s *categoryService) Get(ctx context.Context, id int64) (cat *model.Category, err error) {
	ctx, span := tracer.Start(ctx, "CategoryService.Get")
	defer endSpan(span, &err)

	cat, err = s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, classify(err, resourceCategory)
	}
	return cat, nil
}
