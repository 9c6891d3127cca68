package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/emma-hr/emma-api/internal/models"
)

// FileRepository handles persistence for uploaded file records.
type FileRepository struct {
	db *sqlx.DB
}

// NewFileRepository constructs the repository.
func NewFileRepository(db *sqlx.DB) *FileRepository {
	return &FileRepository{db: db}
}

// Create inserts a new file record and fills in the generated id.
func (r *FileRepository) Create(ctx context.Context, record *models.FileRecord) error {
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	const query = `INSERT INTO files (filename, storage_path, owner_type, owner_id, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		record.Filename, record.StoragePath, record.OwnerType, record.OwnerID,
		record.CreatedAt, record.UpdatedAt,
	).Scan(&record.ID); err != nil {
		return fmt.Errorf("create file record: %w", err)
	}
	return nil
}

// GetCurrent returns the newest record for the key, or nil when none exist.
// It orders and limits defensively: concurrent writers or historical data
// may have left more than one row per key.
func (r *FileRepository) GetCurrent(ctx context.Context, key models.UploadKey) (*models.FileRecord, error) {
	const query = `SELECT id, filename, storage_path, owner_type, owner_id, created_at, updated_at
	FROM files WHERE owner_type = $1 AND owner_id = $2
	ORDER BY created_at DESC, id DESC LIMIT 1`
	var record models.FileRecord
	if err := r.db.GetContext(ctx, &record, query, key.OwnerType, key.OwnerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get current file: %w", err)
	}
	return &record, nil
}

// ListByOwner returns every record for the key, newest first.
func (r *FileRepository) ListByOwner(ctx context.Context, key models.UploadKey) ([]models.FileRecord, error) {
	const query = `SELECT id, filename, storage_path, owner_type, owner_id, created_at, updated_at
	FROM files WHERE owner_type = $1 AND owner_id = $2
	ORDER BY created_at DESC, id DESC`
	var records []models.FileRecord
	if err := r.db.SelectContext(ctx, &records, query, key.OwnerType, key.OwnerID); err != nil {
		return nil, fmt.Errorf("list files by owner: %w", err)
	}
	return records, nil
}

// ListAll returns every file record ordered by key then recency, for the
// reconciliation sweep.
func (r *FileRepository) ListAll(ctx context.Context) ([]models.FileRecord, error) {
	const query = `SELECT id, filename, storage_path, owner_type, owner_id, created_at, updated_at
	FROM files ORDER BY owner_type, owner_id, created_at DESC, id DESC`
	var records []models.FileRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list all files: %w", err)
	}
	return records, nil
}

// Delete removes a single record by id.
func (r *FileRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM files WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete file record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check file delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteByOwner removes all records for the key and returns the count.
// Zero rows is not an error.
func (r *FileRepository) DeleteByOwner(ctx context.Context, key models.UploadKey) (int64, error) {
	const query = `DELETE FROM files WHERE owner_type = $1 AND owner_id = $2`
	res, err := r.db.ExecContext(ctx, query, key.OwnerType, key.OwnerID)
	if err != nil {
		return 0, fmt.Errorf("delete files by owner: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check owner delete rows: %w", err)
	}
	return affected, nil
}
