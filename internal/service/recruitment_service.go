package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/emma-hr/emma-api/internal/models"
	appErrors "github.com/emma-hr/emma-api/pkg/errors"
)

type recruitmentRepository interface {
	List(ctx context.Context, filter models.RecruitmentFilter) ([]models.Recruitment, int, error)
	GetByID(ctx context.Context, id int64) (*models.Recruitment, error)
	Create(ctx context.Context, record *models.Recruitment) error
	UpdateStatus(ctx context.Context, id int64, status models.RecruitmentStatus) error
	Delete(ctx context.Context, id int64) error
}

type recruitmentAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// RecruitmentService manages candidate applications. A submitted CV travels
// through the file store under the application's upload key, so resubmitting
// replaces the previous document.
type RecruitmentService struct {
	repo      recruitmentRepository
	positions positionRepository
	files     *FileService
	audit     recruitmentAuditRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRecruitmentService constructs the service.
func NewRecruitmentService(repo recruitmentRepository, positions positionRepository, files *FileService, audit recruitmentAuditRepository, validate *validator.Validate, logger *zap.Logger) *RecruitmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &RecruitmentService{repo: repo, positions: positions, files: files, audit: audit, validator: validate, logger: logger}
	svc.validator.RegisterValidation("recruitmentstatus", func(fl validator.FieldLevel) bool {
		switch models.RecruitmentStatus(strings.ToUpper(fl.Field().String())) {
		case models.RecruitmentReceived, models.RecruitmentReviewing, models.RecruitmentInterview, models.RecruitmentHired, models.RecruitmentRejected:
			return true
		default:
			return false
		}
	})
	return svc
}

// RecruitmentListRequest describes filters for listing applications.
type RecruitmentListRequest struct {
	PositionID int64  `json:"position_id"`
	Status     string `json:"status"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
}

// ApplyRequest describes a candidate application submission.
type ApplyRequest struct {
	PositionID int64  `json:"position_id" validate:"required"`
	FullName   string `json:"full_name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone"`
	CoverNote  string `json:"cover_note"`
}

// UpdateRecruitmentStatusRequest moves an application through the pipeline.
type UpdateRecruitmentStatusRequest struct {
	Status string `json:"status" validate:"required,recruitmentstatus"`
}

// RecruitmentView pairs an application with its current CV path, if any.
type RecruitmentView struct {
	models.Recruitment
	CVUrl string `json:"cv_url,omitempty"`
}

const recruitmentOwnerType = "recruitment"

// List returns applications with pagination.
func (s *RecruitmentService) List(ctx context.Context, req RecruitmentListRequest) ([]RecruitmentView, *models.Pagination, error) {
	filter := models.RecruitmentFilter{
		PositionID: req.PositionID,
		Status:     models.RecruitmentStatus(strings.ToUpper(req.Status)),
		Page:       req.Page,
		PageSize:   req.PageSize,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	views := make([]RecruitmentView, 0, len(rows))
	for _, row := range rows {
		views = append(views, RecruitmentView{Recruitment: row, CVUrl: s.cvURL(ctx, row.ID)})
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return views, pagination, nil
}

// Get returns an application by id.
func (s *RecruitmentService) Get(ctx context.Context, id int64) (*RecruitmentView, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	return &RecruitmentView{Recruitment: *record, CVUrl: s.cvURL(ctx, record.ID)}, nil
}

// Apply registers a new application for an open position and stores the
// candidate's CV when one is provided.
func (s *RecruitmentService) Apply(ctx context.Context, req ApplyRequest, cv *FileUpload) (*models.Recruitment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}

	position, err := s.positions.GetByID(ctx, req.PositionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "position not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load position")
	}
	if position.Status != models.PositionOpen {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "position is not accepting applications")
	}
	if position.ClosesAt != nil && time.Now().UTC().After(*position.ClosesAt) {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "position is past its closing date")
	}

	record := &models.Recruitment{
		PositionID: req.PositionID,
		FullName:   req.FullName,
		Email:      req.Email,
		Phone:      req.Phone,
		CoverNote:  req.CoverNote,
		Status:     models.RecruitmentReceived,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create application")
	}

	if cv != nil {
		if _, err := s.files.Put(ctx, models.UploadKey{OwnerType: recruitmentOwnerType, OwnerID: record.ID}, *cv); err != nil {
			// The application stands even when the CV write fails; the
			// candidate can resubmit the document.
			s.logger.Warn("failed to store application cv", zap.Int64("recruitment_id", record.ID), zap.Error(err))
		}
	}
	return record, nil
}

// UploadCV replaces the CV attached to an application.
func (s *RecruitmentService) UploadCV(ctx context.Context, id int64, upload FileUpload) (*models.FileRecord, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	return s.files.Put(ctx, models.UploadKey{OwnerType: recruitmentOwnerType, OwnerID: id}, upload)
}

// UpdateStatus moves an application to a new pipeline stage.
func (s *RecruitmentService) UpdateStatus(ctx context.Context, id int64, actorID int64, req UpdateRecruitmentStatusRequest) (*models.Recruitment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}

	newStatus := models.RecruitmentStatus(strings.ToUpper(req.Status))
	oldStatus := record.Status
	if err := s.repo.UpdateStatus(ctx, id, newStatus); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update application status")
	}
	record.Status = newStatus

	if s.audit != nil {
		resourceID := strconv.FormatInt(id, 10)
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actorID,
			Action:     models.AuditActionRecruitmentStatus,
			Resource:   "recruitment",
			ResourceID: &resourceID,
			OldValues:  []byte(`{"status":"` + string(oldStatus) + `"}`),
			NewValues:  []byte(`{"status":"` + string(newStatus) + `"}`),
		}); err != nil {
			s.logger.Warn("failed to record status audit log", zap.Error(err))
		}
	}
	return record, nil
}

// Delete removes an application together with its CV.
func (s *RecruitmentService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete application")
	}
	if s.files != nil {
		if _, err := s.files.DeleteAll(ctx, models.UploadKey{OwnerType: recruitmentOwnerType, OwnerID: id}); err != nil {
			s.logger.Warn("failed to delete application cv", zap.Int64("recruitment_id", id), zap.Error(err))
		}
	}
	return nil
}

func (s *RecruitmentService) cvURL(ctx context.Context, id int64) string {
	if s.files == nil {
		return ""
	}
	record, err := s.files.GetCurrent(ctx, models.UploadKey{OwnerType: recruitmentOwnerType, OwnerID: id})
	if err != nil || record == nil {
		return ""
	}
	return record.StoragePath
}
