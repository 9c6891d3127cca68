package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/emma-hr/emma-api/internal/models"
	appErrors "github.com/emma-hr/emma-api/pkg/errors"
)

type fileStore interface {
	Create(ctx context.Context, record *models.FileRecord) error
	GetCurrent(ctx context.Context, key models.UploadKey) (*models.FileRecord, error)
	ListByOwner(ctx context.Context, key models.UploadKey) ([]models.FileRecord, error)
	ListAll(ctx context.Context) ([]models.FileRecord, error)
	Delete(ctx context.Context, id int64) error
	DeleteByOwner(ctx context.Context, key models.UploadKey) (int64, error)
}

type fileStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Delete(filename string) error
}

// FileUpload carries upload metadata and the content reader.
type FileUpload struct {
	Filename    string
	Size        int64
	ContentType string
	Content     io.Reader
}

// FileServiceConfig holds storage layout and validation parameters. An
// empty AllowedMIMEs list disables the content type check.
type FileServiceConfig struct {
	PublicBasePath   string
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// FileService enforces the single-current-file policy: at most one stored
// file per (owner type, owner id) key. Put replaces, GetCurrent reads
// defensively, Reconcile sweeps up duplicates left by concurrent writers.
type FileService struct {
	repo         fileStore
	storage      fileStorage
	logger       *zap.Logger
	cfg          FileServiceConfig
	allowedMIMEs map[string]struct{}
}

// NewFileService constructs the service.
func NewFileService(repo fileStore, storage fileStorage, logger *zap.Logger, cfg FileServiceConfig) *FileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PublicBasePath == "" {
		cfg.PublicBasePath = "/uploads"
	}
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 10 * 1024 * 1024
	}
	allowed := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, m := range cfg.AllowedMIMEs {
		if m = normalizeMIME(m); m != "" {
			allowed[m] = struct{}{}
		}
	}
	return &FileService{repo: repo, storage: storage, logger: logger, cfg: cfg, allowedMIMEs: allowed}
}

// Put stores a new file for the key, superseding whatever was there.
// The previous artifact and row are removed before the new write so the
// superseded file can never be confused with the new one. The removal and
// the insert are not covered by one lock; two concurrent Puts on the same
// key may both land, which GetCurrent masks and Reconcile cleans up.
func (s *FileService) Put(ctx context.Context, key models.UploadKey, upload FileUpload) (*models.FileRecord, error) {
	if !key.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "related_type and related_id are required")
	}
	if upload.Content == nil || upload.Size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if upload.Size > s.cfg.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSizeBytes))
	}
	if len(s.allowedMIMEs) > 0 {
		if _, ok := s.allowedMIMEs[normalizeMIME(upload.ContentType)]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("content type %q is not allowed", upload.ContentType))
		}
	}

	existing, err := s.repo.ListByOwner(ctx, key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up existing files")
	}
	for _, old := range existing {
		if err := s.storage.Delete(s.relPath(old)); err != nil {
			// Stale bytes are acceptable collateral; a dangling row is not.
			s.logger.Warn("failed to remove superseded file",
				zap.String("owner_type", old.OwnerType),
				zap.Int64("owner_id", old.OwnerID),
				zap.String("filename", old.Filename),
				zap.Error(err))
		}
		if err := s.repo.Delete(ctx, old.ID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove superseded file record")
		}
	}

	filename := s.generateFilename(upload.Filename)
	relPath := filepath.Join(key.OwnerType, filename)
	if _, err := s.storage.SaveStream(relPath, upload.Content); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist uploaded file")
	}

	record := &models.FileRecord{
		Filename:    filename,
		StoragePath: path.Join(s.cfg.PublicBasePath, key.OwnerType, filename),
		OwnerType:   key.OwnerType,
		OwnerID:     key.OwnerID,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		_ = s.storage.Delete(relPath)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create file record")
	}
	return record, nil
}

// GetCurrent returns the newest record for the key, or nil when none exist.
func (s *FileService) GetCurrent(ctx context.Context, key models.UploadKey) (*models.FileRecord, error) {
	if !key.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "related_type and related_id are required")
	}
	record, err := s.repo.GetCurrent(ctx, key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current file")
	}
	return record, nil
}

// DeleteAll removes every record and artifact for the key, returning the
// number of records removed. Zero records is not an error.
func (s *FileService) DeleteAll(ctx context.Context, key models.UploadKey) (int64, error) {
	if !key.Valid() {
		return 0, appErrors.Clone(appErrors.ErrValidation, "related_type and related_id are required")
	}
	records, err := s.repo.ListByOwner(ctx, key)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list files for deletion")
	}
	for _, record := range records {
		if err := s.storage.Delete(s.relPath(record)); err != nil {
			s.logger.Warn("failed to remove file artifact",
				zap.String("owner_type", record.OwnerType),
				zap.Int64("owner_id", record.OwnerID),
				zap.String("filename", record.Filename),
				zap.Error(err))
		}
	}
	count, err := s.repo.DeleteByOwner(ctx, key)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete file records")
	}
	return count, nil
}

// Reconcile trims every upload key down to its newest record. Artifacts go
// first, rows second, so a crash mid-way leaves an orphan file rather than
// a row pointing at nothing. Per-item failures are collected, never fatal.
func (s *FileService) Reconcile(ctx context.Context) (*models.ReconcileReport, error) {
	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list files for reconciliation")
	}

	report := &models.ReconcileReport{Checked: len(records), Errors: []models.ReconcileError{}}

	groups := make(map[models.UploadKey][]models.FileRecord)
	order := make([]models.UploadKey, 0)
	for _, record := range records {
		key := record.Key()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], record)
	}

	for _, key := range order {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		keep := group[0]
		for _, candidate := range group[1:] {
			if candidate.CreatedAt.After(keep.CreatedAt) {
				keep = candidate
			}
		}
		for _, record := range group {
			if record.ID == keep.ID {
				continue
			}
			if err := s.storage.Delete(s.relPath(record)); err != nil {
				report.Errors = append(report.Errors, models.ReconcileError{
					OwnerType: record.OwnerType,
					OwnerID:   record.OwnerID,
					FileID:    record.ID,
					Reason:    err.Error(),
				})
				continue
			}
			if err := s.repo.Delete(ctx, record.ID); err != nil {
				report.Errors = append(report.Errors, models.ReconcileError{
					OwnerType: record.OwnerType,
					OwnerID:   record.OwnerID,
					FileID:    record.ID,
					Reason:    err.Error(),
				})
				continue
			}
			report.DuplicatesRemoved++
		}
	}

	return report, nil
}

func (s *FileService) relPath(record models.FileRecord) string {
	return filepath.Join(record.OwnerType, record.Filename)
}

// generateFilename builds a collision resistant name from random bytes and
// the sanitized original extension. The client supplied name never reaches
// the storage path.
func (s *FileService) generateFilename(original string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d%s", time.Now().UnixNano(), safeExtension(original))
	}
	return hex.EncodeToString(buf) + safeExtension(original)
}

// normalizeMIME lowercases a media type and drops any parameters, so
// "Image/PNG; charset=binary" compares equal to "image/png".
func normalizeMIME(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

func safeExtension(original string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	if ext == "" || strings.ContainsAny(ext, "/\\") {
		return ".bin"
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ".bin"
		}
	}
	return ext
}
