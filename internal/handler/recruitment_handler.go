package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emma-hr/emma-api/internal/service"
	appErrors "github.com/emma-hr/emma-api/pkg/errors"
	"github.com/emma-hr/emma-api/pkg/response"
)

// RecruitmentHandler wires HTTP endpoints to the recruitment service.
type RecruitmentHandler struct {
	service *service.RecruitmentService
}

// NewRecruitmentHandler creates a new handler.
func NewRecruitmentHandler(svc *service.RecruitmentService) *RecruitmentHandler {
	return &RecruitmentHandler{service: svc}
}

// List returns applications with pagination.
func (h *RecruitmentHandler) List(c *gin.Context) {
	req := service.RecruitmentListRequest{
		PositionID: queryInt64(c, "position_id"),
		Status:     c.Query("status"),
		Page:       queryInt(c, "page"),
		PageSize:   queryInt(c, "page_size"),
	}
	rows, pagination, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Get returns one application.
func (h *RecruitmentHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid application id"))
		return
	}
	record, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Apply godoc
// @Summary Submit a job application
// @Description Register an application for an open position, optionally with a CV
// @Tags Recruitment
// @Accept multipart/form-data
// @Produce json
// @Param position_id formData int true "Position id"
// @Param full_name formData string true "Candidate name"
// @Param email formData string true "Candidate email"
// @Param cv formData file false "CV document"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /recruitments [post]
func (h *RecruitmentHandler) Apply(c *gin.Context) {
	positionID, err := strconv.ParseInt(c.PostForm("position_id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "position_id is required"))
		return
	}
	req := service.ApplyRequest{
		PositionID: positionID,
		FullName:   c.PostForm("full_name"),
		Email:      c.PostForm("email"),
		Phone:      c.PostForm("phone"),
		CoverNote:  c.PostForm("cover_note"),
	}

	var cv *service.FileUpload
	if fileHeader, err := c.FormFile("cv"); err == nil {
		src, err := fileHeader.Open()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read cv"))
			return
		}
		defer src.Close()
		cv = &service.FileUpload{
			Filename:    fileHeader.Filename,
			Size:        fileHeader.Size,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Content:     src,
		}
	}

	record, err := h.service.Apply(c.Request.Context(), req, cv)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// UploadCV replaces the CV attached to an application.
func (h *RecruitmentHandler) UploadCV(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid application id"))
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer src.Close()

	record, err := h.service.UploadCV(c.Request.Context(), id, service.FileUpload{
		Filename:    fileHeader.Filename,
		Size:        fileHeader.Size,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Content:     src,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// UpdateStatus moves an application through the pipeline.
func (h *RecruitmentHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid application id"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateRecruitmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	record, err := h.service.UpdateStatus(c.Request.Context(), id, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Delete removes an application.
func (h *RecruitmentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid application id"))
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
