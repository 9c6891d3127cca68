package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/emma-hr/emma-api/internal/models"
	appErrors "github.com/emma-hr/emma-api/pkg/errors"
	"github.com/emma-hr/emma-api/pkg/export"
	"github.com/emma-hr/emma-api/pkg/storage"
)

type certificateRepository interface {
	Create(ctx context.Context, cert *models.Certificate) error
	GetByID(ctx context.Context, id int64) (*models.Certificate, error)
	FindByAssignment(ctx context.Context, assignmentID int64) (*models.Certificate, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Certificate, error)
}

type certificateStorage interface {
	Save(filename string, data []byte) (string, error)
	Path(filename string) string
}

type certificateAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CertificateConfig configures certificate rendering and download links.
type CertificateConfig struct {
	IssuerName string
}

// CertificateService renders and stores completion certificates. Issue is
// idempotent per assignment: a second call returns the existing record.
type CertificateService struct {
	repo     certificateRepository
	storage  certificateStorage
	renderer *export.CertificateRenderer
	signer   *storage.SignedURLSigner
	audit    certificateAuditRepository
	logger   *zap.Logger
	cfg      CertificateConfig
}

// NewCertificateService constructs the service.
func NewCertificateService(repo certificateRepository, store certificateStorage, signer *storage.SignedURLSigner, audit certificateAuditRepository, logger *zap.Logger, cfg CertificateConfig) *CertificateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.IssuerName == "" {
		cfg.IssuerName = "EMMA"
	}
	return &CertificateService{
		repo:     repo,
		storage:  store,
		renderer: export.NewCertificateRenderer(),
		signer:   signer,
		audit:    audit,
		logger:   logger,
		cfg:      cfg,
	}
}

// SignedDownload carries a single-use style download token and its expiry.
type SignedDownload struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Issue renders a certificate PDF for a completed assignment and persists
// both the file and the record.
func (s *CertificateService) Issue(ctx context.Context, assignment *models.Assignment, user *models.User, course *models.Course) (*models.Certificate, error) {
	if assignment == nil || user == nil || course == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "assignment, user and course are required")
	}
	if !assignment.Completed() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "assignment is not completed")
	}

	existing, err := s.repo.FindByAssignment(ctx, assignment.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing certificate")
	}
	if existing != nil {
		return existing, nil
	}

	serial, err := s.generateSerial()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate serial number")
	}

	issuedAt := time.Now().UTC()
	payload, err := s.renderer.Render(export.CertificateData{
		SerialNumber:  serial,
		RecipientName: user.FullName,
		CourseTitle:   course.Title,
		IssuerName:    s.cfg.IssuerName,
		IssuedAt:      issuedAt,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}

	filename := filepath.Join("certificates", serial+".pdf")
	if _, err := s.storage.Save(filename, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store certificate")
	}

	cert := &models.Certificate{
		AssignmentID: assignment.ID,
		UserID:       user.ID,
		CourseID:     course.ID,
		SerialNumber: serial,
		FilePath:     filename,
		IssuedAt:     issuedAt,
	}
	if err := s.repo.Create(ctx, cert); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create certificate record")
	}

	if s.audit != nil {
		resourceID := strconv.FormatInt(cert.ID, 10)
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &user.ID,
			Action:     models.AuditActionCertificateIssue,
			Resource:   "certificate",
			ResourceID: &resourceID,
			NewValues:  []byte(`{"serial":"` + serial + `"}`),
		}); err != nil {
			s.logger.Warn("failed to record certificate audit log", zap.Error(err))
		}
	}
	return cert, nil
}

// Get returns a certificate by id.
func (s *CertificateService) Get(ctx context.Context, id int64) (*models.Certificate, error) {
	cert, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
	}
	return cert, nil
}

// ListByUser returns the certificates a user has earned.
func (s *CertificateService) ListByUser(ctx context.Context, userID int64) ([]models.Certificate, error) {
	certs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list certificates")
	}
	return certs, nil
}

// SignedDownloadFor issues a download token for the certificate. Holders
// of certificates other than their own need an admin role; that check sits
// at the handler layer.
func (s *CertificateService) SignedDownloadFor(ctx context.Context, id int64) (*SignedDownload, error) {
	cert, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(strconv.FormatInt(cert.ID, 10), cert.FilePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}
	return &SignedDownload{Token: token, ExpiresAt: expiresAt}, nil
}

// ResolveDownload validates a download token and returns the absolute path
// of the stored certificate file.
func (s *CertificateService) ResolveDownload(ctx context.Context, token string) (string, error) {
	certID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	id, err := strconv.ParseInt(certID, 10, 64)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid download token")
	}
	cert, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	// The token path must match the stored record; a signed token cannot
	// be replayed against a different file.
	if filepath.ToSlash(cert.FilePath) != filepath.ToSlash(relPath) {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid download token")
	}
	return s.storage.Path(cert.FilePath), nil
}

func (s *CertificateService) generateSerial() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	year := time.Now().UTC().Year()
	return fmt.Sprintf("EMMA-%d-%s", year, strings.ToUpper(hex.EncodeToString(buf))), nil
}
