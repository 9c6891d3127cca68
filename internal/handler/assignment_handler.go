package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emma-hr/emma-api/internal/service"
	appErrors "github.com/emma-hr/emma-api/pkg/errors"
	"github.com/emma-hr/emma-api/pkg/response"
)

// AssignmentHandler exposes course assignment and progress endpoints.
type AssignmentHandler struct {
	service *service.AssignmentService
}

// NewAssignmentHandler creates a new handler.
func NewAssignmentHandler(svc *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: svc}
}

// List returns assignments filtered by course, user, or completion.
func (h *AssignmentHandler) List(c *gin.Context) {
	req := service.AssignmentListRequest{
		CourseID:  queryInt64(c, "course_id"),
		UserID:    queryInt64(c, "user_id"),
		Completed: queryBoolPtr(c, "completed"),
		Page:      queryInt(c, "page"),
		PageSize:  queryInt(c, "page_size"),
	}
	assignments, pagination, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, pagination)
}

// ListMine returns the calling user's own assignments. Backs the
// my-courses view for trainee accounts.
func (h *AssignmentHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	req := service.AssignmentListRequest{
		UserID:    claims.UserID,
		Completed: queryBoolPtr(c, "completed"),
		Page:      queryInt(c, "page"),
		PageSize:  queryInt(c, "page_size"),
	}
	assignments, pagination, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, pagination)
}

// Get returns one assignment.
func (h *AssignmentHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid assignment id"))
		return
	}
	assignment, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// Assign links a user to a course.
func (h *AssignmentHandler) Assign(c *gin.Context) {
	var req service.AssignCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	assignment, err := h.service.Assign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// UpdateProgress advances the calling user's progress on an assignment.
func (h *AssignmentHandler) UpdateProgress(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, ok := pathID(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid assignment id"))
		return
	}
	var req service.UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid progress payload"))
		return
	}
	view, err := h.service.UpdateProgress(c.Request.Context(), id, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Delete removes an assignment.
func (h *AssignmentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid assignment id"))
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
