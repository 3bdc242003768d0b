package notify

import "docvault/internal/model"

const (
	EventCategoryCreated  = "category:created"
	EventDocumentUploaded = "document:uploaded"
	EventDocumentUpdated  = "document:updated"
	EventDocumentDeleted  = "document:deleted"
)

type CategoryCreated struct {
	CategoryID int64  `json:"categoryId"`
	Name       string `json:"name"`
	Color      string `json:"color"`
}

type DocumentUploaded struct {
	DocumentID int64           `json:"documentId"`
	Name       string          `json:"name"`
	Category   *model.Category `json:"category"`
}

type DocumentUpdated struct {
	DocumentID  int64           `json:"documentId"`
	Name        string          `json:"name"`
	Category    *model.Category `json:"category"`
	Description *string         `json:"description"`
}

type DocumentDeleted struct {
	DocumentID int64 `json:"documentId"`
}
