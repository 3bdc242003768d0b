package model

import "time"

// DefaultCategoryColor is applied when a category is created without a color.
const DefaultCategoryColor = "#3B82F6"

// Category is a shared tag applied to documents.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
