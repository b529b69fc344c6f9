package model

import (
	"time"

	"github.com/google/uuid"
)

type FileStatus string

const (
	FileActive  FileStatus = "ACTIVE"
	FileDeleted FileStatus = "DELETED"
)

// File is the metadata of an uploaded attachment; the bytes live in blob storage.
type File struct {
	ID               string     `json:"file_id"`
	OriginalFilename string     `json:"original_filename"`
	Size             int64      `json:"file_size"`
	ContentType      string     `json:"content_type"`
	URL              string     `json:"file_url"`
	UploadedBy       uuid.UUID  `json:"uploaded_by"`
	Status           FileStatus `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
}
