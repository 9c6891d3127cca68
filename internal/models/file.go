package models

import (
	"regexp"
	"time"
)

// UploadKey identifies the domain entity an uploaded file belongs to.
// At most one current FileRecord is kept per key.
type UploadKey struct {
	OwnerType string
	OwnerID   int64
}

// Owner types name a storage subdirectory, so they are restricted to a
// plain lowercase token. Separators and dot segments never pass.
var ownerTypePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Valid reports whether both key components are present and well-formed.
func (k UploadKey) Valid() bool {
	return ownerTypePattern.MatchString(k.OwnerType) && k.OwnerID > 0
}

// FileRecord represents a stored file row in the files table.
type FileRecord struct {
	ID          int64     `db:"id" json:"id"`
	Filename    string    `db:"filename" json:"filename"`
	StoragePath string    `db:"storage_path" json:"storage_path"`
	OwnerType   string    `db:"owner_type" json:"owner_type"`
	OwnerID     int64     `db:"owner_id" json:"owner_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Key returns the UploadKey the record belongs to.
func (f FileRecord) Key() UploadKey {
	return UploadKey{OwnerType: f.OwnerType, OwnerID: f.OwnerID}
}

// ReconcileError records one failed deletion inside a reconcile sweep.
type ReconcileError struct {
	OwnerType string `json:"owner_type"`
	OwnerID   int64  `json:"owner_id"`
	FileID    int64  `json:"file_id"`
	Reason    string `json:"reason"`
}

// ReconcileReport summarises a maintenance sweep over the files table.
type ReconcileReport struct {
	Checked           int              `json:"checked"`
	DuplicatesRemoved int              `json:"duplicates_removed"`
	Errors            []ReconcileError `json:"errors"`
}
