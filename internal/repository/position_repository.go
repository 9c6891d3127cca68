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

// PositionRepository handles job posting persistence.
type PositionRepository struct {
	db *sqlx.DB
}

// NewPositionRepository constructs the repository.
func NewPositionRepository(db *sqlx.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

const positionColumns = `id, title, department, location, description, requirements, status, closes_at, created_at, updated_at`

// List returns job postings matching the filter with a total count.
func (r *PositionRepository) List(ctx context.Context, filter models.PositionFilter) ([]models.Position, int, error) {
	baseQuery := `FROM positions WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(department) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", positionColumns, baseQuery, pageSize, offset)
	var positions []models.Position
	if err := r.db.SelectContext(ctx, &positions, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list positions: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", baseQuery), args...); err != nil {
		return nil, 0, fmt.Errorf("count positions: %w", err)
	}
	return positions, total, nil
}

// GetByID retrieves one job posting.
func (r *PositionRepository) GetByID(ctx context.Context, id int64) (*models.Position, error) {
	query := fmt.Sprintf(`SELECT %s FROM positions WHERE id = $1`, positionColumns)
	var position models.Position
	if err := r.db.GetContext(ctx, &position, query, id); err != nil {
		return nil, err
	}
	return &position, nil
}

// Create inserts a job posting.
func (r *PositionRepository) Create(ctx context.Context, position *models.Position) error {
	now := time.Now().UTC()
	position.CreatedAt = now
	position.UpdatedAt = now
	if position.Status == "" {
		position.Status = models.PositionOpen
	}
	const query = `INSERT INTO positions (title, department, location, description, requirements, status, closes_at, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		position.Title, position.Department, position.Location, position.Description,
		position.Requirements, position.Status, position.ClosesAt, position.CreatedAt, position.UpdatedAt,
	).Scan(&position.ID); err != nil {
		return fmt.Errorf("create position: %w", err)
	}
	return nil
}

// Update persists mutable job posting fields.
func (r *PositionRepository) Update(ctx context.Context, position *models.Position) error {
	position.UpdatedAt = time.Now().UTC()
	const query = `UPDATE positions SET title = $2, department = $3, location = $4, description = $5, requirements = $6, status = $7, closes_at = $8, updated_at = $9 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, position.ID, position.Title, position.Department, position.Location,
		position.Description, position.Requirements, position.Status, position.ClosesAt, position.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update position: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check position update rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a job posting.
func (r *PositionRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM positions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete position: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check position delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
