package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emma-hr/emma-api/internal/models"
	"github.com/emma-hr/emma-api/internal/service"
	appErrors "github.com/emma-hr/emma-api/pkg/errors"
	"github.com/emma-hr/emma-api/pkg/response"
)

// FileHandler exposes the single-current-file store over HTTP.
type FileHandler struct {
	service *service.FileService
}

// NewFileHandler creates a new handler.
func NewFileHandler(svc *service.FileService) *FileHandler {
	return &FileHandler{service: svc}
}

// uploadKey reads the owner key from the query string, falling back to
// the multipart form fields of the same name.
func uploadKey(c *gin.Context) (models.UploadKey, error) {
	ownerType := c.Query("related_type")
	if ownerType == "" {
		ownerType = c.PostForm("related_type")
	}
	ownerType = strings.ToLower(strings.TrimSpace(ownerType))

	rawID := c.Query("related_id")
	if rawID == "" {
		rawID = c.PostForm("related_id")
	}
	ownerID, err := strconv.ParseInt(rawID, 10, 64)
	if ownerType == "" || err != nil || ownerID <= 0 {
		return models.UploadKey{}, appErrors.Clone(appErrors.ErrValidation, "related_type and related_id are required")
	}
	return models.UploadKey{OwnerType: ownerType, OwnerID: ownerID}, nil
}

// GetCurrent godoc
// @Summary Current file for a key
// @Description Return the newest stored file for (related_type, related_id)
// @Tags Files
// @Produce json
// @Param related_type query string true "Owner type"
// @Param related_id query int true "Owner id"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files [get]
func (h *FileHandler) GetCurrent(c *gin.Context) {
	key, err := uploadKey(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	record, err := h.service.GetCurrent(c.Request.Context(), key)
	if err != nil {
		response.Error(c, err)
		return
	}
	if record == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "no file stored for this key"))
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Upload godoc
// @Summary Upload a file
// @Description Store a file for the key, replacing any previous one
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Param related_type query string false "Owner type, may also be sent as a form field"
// @Param related_id query int false "Owner id, may also be sent as a form field"
// @Param related_type formData string false "Owner type"
// @Param related_id formData int false "Owner id"
// @Param file formData file true "File content"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /files [post]
func (h *FileHandler) Upload(c *gin.Context) {
	key, err := uploadKey(c)
	if err != nil {
		response.Error(c, err)
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

	record, err := h.service.Put(c.Request.Context(), key, service.FileUpload{
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

// Delete godoc
// @Summary Delete files for a key
// @Description Remove every stored file for (related_type, related_id)
// @Tags Files
// @Produce json
// @Param related_type query string true "Owner type"
// @Param related_id query int true "Owner id"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /files [delete]
func (h *FileHandler) Delete(c *gin.Context) {
	key, err := uploadKey(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	count, err := h.service.DeleteAll(c.Request.Context(), key)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": count}, nil)
}

// Cleanup godoc
// @Summary Reconcile stored files
// @Description Trim every key down to its newest file and report what was removed
// @Tags Files
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /files/cleanup [post]
func (h *FileHandler) Cleanup(c *gin.Context) {
	report, err := h.service.Reconcile(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
