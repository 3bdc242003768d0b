package model

import "time"

// Document represents a stored file and its metadata.
// This is a pure domain model with no database-specific dependencies or tags.
// StorageKey and StorageURL are fixed at upload time and never change.
type Document struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	CategoryID  int64     `json:"categoryId"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	FileType    string    `json:"fileType"`
	FileSize    int64     `json:"fileSize"`
	StorageKey  string    `json:"s3Key"`
	StorageURL  string    `json:"s3Url"`
	UploadedAt  time.Time `json:"uploadedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Category    *Category `json:"category,omitempty"`
}

// OwnerID reports the identity that owns the document.
func (d *Document) OwnerID() int64 { return d.UserID }
