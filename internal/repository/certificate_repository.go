package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/emma-hr/emma-api/internal/models"
)

// CertificateRepository handles issued certificate persistence.
type CertificateRepository struct {
	db *sqlx.DB
}

// NewCertificateRepository constructs the repository.
func NewCertificateRepository(db *sqlx.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

const certificateColumns = `id, assignment_id, user_id, course_id, serial_number, file_path, issued_at`

// Create inserts a certificate row.
func (r *CertificateRepository) Create(ctx context.Context, cert *models.Certificate) error {
	if cert.IssuedAt.IsZero() {
		cert.IssuedAt = time.Now().UTC()
	}
	const query = `INSERT INTO certificates (assignment_id, user_id, course_id, serial_number, file_path, issued_at)
	VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		cert.AssignmentID, cert.UserID, cert.CourseID, cert.SerialNumber, cert.FilePath, cert.IssuedAt,
	).Scan(&cert.ID); err != nil {
		return fmt.Errorf("create certificate: %w", err)
	}
	return nil
}

// GetByID retrieves one certificate.
func (r *CertificateRepository) GetByID(ctx context.Context, id int64) (*models.Certificate, error) {
	query := fmt.Sprintf(`SELECT %s FROM certificates WHERE id = $1`, certificateColumns)
	var cert models.Certificate
	if err := r.db.GetContext(ctx, &cert, query, id); err != nil {
		return nil, err
	}
	return &cert, nil
}

// FindByAssignment returns the certificate for an assignment, or nil.
func (r *CertificateRepository) FindByAssignment(ctx context.Context, assignmentID int64) (*models.Certificate, error) {
	query := fmt.Sprintf(`SELECT %s FROM certificates WHERE assignment_id = $1 LIMIT 1`, certificateColumns)
	var cert models.Certificate
	if err := r.db.GetContext(ctx, &cert, query, assignmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find certificate: %w", err)
	}
	return &cert, nil
}

// ListByUser returns certificates issued to a user, newest first.
func (r *CertificateRepository) ListByUser(ctx context.Context, userID int64) ([]models.Certificate, error) {
	query := fmt.Sprintf(`SELECT %s FROM certificates WHERE user_id = $1 ORDER BY issued_at DESC`, certificateColumns)
	var certs []models.Certificate
	if err := r.db.SelectContext(ctx, &certs, query, userID); err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	return certs, nil
}
