package handler

import (
	"github.com/gofiber/fiber/v2"

	"docvault/internal/model"
	"docvault/internal/service"
)

type categoryView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

func viewCategory(c model.Category) categoryView {
	return categoryView{ID: c.ID, Name: c.Name, Color: c.Color}
}

type createCategoryRequest struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

var createCategoryMessages = map[string]string{
	"name.required":  "Category name is required",
	"color.hexcolor": "Color must be a valid hex color",
}

// ListCategories returns every category.
// @Summary List categories
// @Tags categories
// @Security BearerAuth
// @Produce json
// @Success 200 {object} successPayload
// @Router /categories [get]
func ListCategories(svc service.CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cats, err := svc.List(c.UserContext())
		if err != nil {
			return err
		}
		views := make([]categoryView, 0, len(cats))
		for _, cat := range cats {
			views = append(views, viewCategory(cat))
		}
		return respond(c, fiber.StatusOK, fiber.Map{"categories": views}, "")
	}
}

// CreateCategory adds a shared category.
// @Summary Create category
// @Tags categories
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body createCategoryRequest true "Category"
// @Success 201 {object} successPayload{data=categoryView}
// @Failure 409 {object} errorPayload
// @Router /categories [post]
func CreateCategory(svc service.CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createCategoryRequest
		if err := bindJSON(c, &req, createCategoryMessages); err != nil {
			return err
		}
		cat, err := svc.Create(c.UserContext(), req.Name, req.Color)
		if err != nil {
			return err
		}
		return respond(c, fiber.StatusCreated, viewCategory(*cat), "Category created successfully")
	}
}

// GetCategory returns one category.
// @Summary Get category
// @Tags categories
// @Security BearerAuth
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} successPayload{data=model.Category}
// @Failure 404 {object} errorPayload
// @Router /categories/{id} [get]
func GetCategory(svc service.CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		cat, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return respond(c, fiber.StatusOK, cat, "")
	}
}
