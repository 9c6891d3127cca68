package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/emma-hr/emma-api/internal/models"
)

// RecruitmentRepository handles candidate application persistence.
type RecruitmentRepository struct {
	db *sqlx.DB
}

// NewRecruitmentRepository constructs the repository.
func NewRecruitmentRepository(db *sqlx.DB) *RecruitmentRepository {
	return &RecruitmentRepository{db: db}
}

const recruitmentColumns = `id, position_id, full_name, email, phone, cover_note, status, created_at, updated_at`

// List returns applications matching the filter with a total count.
func (r *RecruitmentRepository) List(ctx context.Context, filter models.RecruitmentFilter) ([]models.Recruitment, int, error) {
	baseQuery := `FROM recruitments WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.PositionID > 0 {
		conditions = append(conditions, fmt.Sprintf("position_id = $%d", len(args)+1))
		args = append(args, filter.PositionID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", recruitmentColumns, baseQuery, pageSize, offset)
	var records []models.Recruitment
	if err := r.db.SelectContext(ctx, &records, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list recruitments: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", baseQuery), args...); err != nil {
		return nil, 0, fmt.Errorf("count recruitments: %w", err)
	}
	return records, total, nil
}

// GetByID retrieves one application.
func (r *RecruitmentRepository) GetByID(ctx context.Context, id int64) (*models.Recruitment, error) {
	query := fmt.Sprintf(`SELECT %s FROM recruitments WHERE id = $1`, recruitmentColumns)
	var record models.Recruitment
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts an application row.
func (r *RecruitmentRepository) Create(ctx context.Context, record *models.Recruitment) error {
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	if record.Status == "" {
		record.Status = models.RecruitmentReceived
	}
	const query = `INSERT INTO recruitments (position_id, full_name, email, phone, cover_note, status, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		record.PositionID, record.FullName, record.Email, record.Phone,
		record.CoverNote, record.Status, record.CreatedAt, record.UpdatedAt,
	).Scan(&record.ID); err != nil {
		return fmt.Errorf("create recruitment: %w", err)
	}
	return nil
}

// UpdateStatus moves an application through the hiring pipeline.
func (r *RecruitmentRepository) UpdateStatus(ctx context.Context, id int64, status models.RecruitmentStatus) error {
	const query = `UPDATE recruitments SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update recruitment status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check recruitment update rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an application row.
func (r *RecruitmentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recruitments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete recruitment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check recruitment delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
