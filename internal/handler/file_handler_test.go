package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emma-hr/emma-api/internal/models"
	"github.com/emma-hr/emma-api/internal/service"
)

type memFileRepo struct {
	records map[int64]models.FileRecord
	nextID  int64
	now     time.Time
}

func newMemFileRepo() *memFileRepo {
	return &memFileRepo{records: map[int64]models.FileRecord{}, now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (r *memFileRepo) Create(_ context.Context, record *models.FileRecord) error {
	r.nextID++
	r.now = r.now.Add(time.Second)
	record.ID = r.nextID
	record.CreatedAt = r.now
	record.UpdatedAt = r.now
	r.records[record.ID] = *record
	return nil
}

func (r *memFileRepo) byOwner(key models.UploadKey) []models.FileRecord {
	var out []models.FileRecord
	for _, rec := range r.records {
		if rec.Key() == key {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *memFileRepo) GetCurrent(_ context.Context, key models.UploadKey) (*models.FileRecord, error) {
	records := r.byOwner(key)
	if len(records) == 0 {
		return nil, nil
	}
	rec := records[0]
	return &rec, nil
}

func (r *memFileRepo) ListByOwner(_ context.Context, key models.UploadKey) ([]models.FileRecord, error) {
	return r.byOwner(key), nil
}

func (r *memFileRepo) ListAll(_ context.Context) ([]models.FileRecord, error) {
	var out []models.FileRecord
	for _, rec := range r.records {
		out = append(out, rec)
	}
	return out, nil
}

func (r *memFileRepo) Delete(_ context.Context, id int64) error {
	delete(r.records, id)
	return nil
}

func (r *memFileRepo) DeleteByOwner(_ context.Context, key models.UploadKey) (int64, error) {
	var n int64
	for id, rec := range r.records {
		if rec.Key() == key {
			delete(r.records, id)
			n++
		}
	}
	return n, nil
}

type memFileStorage struct {
	files map[string][]byte
}

func (s *memFileStorage) SaveStream(filename string, rd io.Reader) (string, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return "", err
	}
	if s.files == nil {
		s.files = map[string][]byte{}
	}
	s.files[filename] = data
	return filename, nil
}

func (s *memFileStorage) Delete(filename string) error {
	delete(s.files, filename)
	return nil
}

func newTestFileHandler() (*FileHandler, *memFileRepo, *memFileStorage) {
	repo := newMemFileRepo()
	store := &memFileStorage{}
	svc := service.NewFileService(repo, store, nil, service.FileServiceConfig{PublicBasePath: "/uploads"})
	return NewFileHandler(svc), repo, store
}

func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestFileHandlerUploadAndGetCurrent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _, store := newTestFileHandler()

	body, contentType := multipartUpload(t, "banner.jpg", []byte("image-bytes"))
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/files?related_type=Slide&related_id=7", body)
	c.Request.Header.Set("Content-Type", contentType)

	handler.Upload(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, store.files, 1)

	rec2 := httptest.NewRecorder()
	c2, _ := gin.CreateTestContext(rec2)
	c2.Request = httptest.NewRequest(http.MethodGet, "/api/files?related_type=slide&related_id=7", nil)

	handler.GetCurrent(c2)

	require.Equal(t, http.StatusOK, rec2.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &envelope))
	assert.Equal(t, "slide", envelope.Data["owner_type"])
	assert.Equal(t, float64(7), envelope.Data["owner_id"])
}

func TestFileHandlerUploadReadsFormFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo, _ := newTestFileHandler()

	// The owner key arrives as multipart form fields, not query params.
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("related_type", "Blog"))
	require.NoError(t, writer.WriteField("related_id", "12"))
	part, err := writer.CreateFormFile("file", "cover.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/files", body)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())

	handler.Upload(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, repo.records, 1)
	for _, stored := range repo.records {
		assert.Equal(t, "blog", stored.OwnerType)
		assert.Equal(t, int64(12), stored.OwnerID)
	}
}

func TestFileHandlerUploadRejectsBadKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _, _ := newTestFileHandler()

	body, contentType := multipartUpload(t, "banner.jpg", []byte("image-bytes"))
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/files?related_type=slide&related_id=0", body)
	c.Request.Header.Set("Content-Type", contentType)

	handler.Upload(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFileHandlerUploadRequiresFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _, _ := newTestFileHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/files?related_type=slide&related_id=7", nil)

	handler.Upload(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFileHandlerGetCurrentMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _, _ := newTestFileHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/files?related_type=slide&related_id=99", nil)

	handler.GetCurrent(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFileHandlerUploadReplacesPrevious(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo, store := newTestFileHandler()

	for _, name := range []string{"first.png", "second.png"} {
		body, contentType := multipartUpload(t, name, []byte(name))
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodPost, "/api/files?related_type=testimonial&related_id=3", body)
		c.Request.Header.Set("Content-Type", contentType)
		handler.Upload(c)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	assert.Len(t, repo.records, 1)
	assert.Len(t, store.files, 1)
}

func TestFileHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo, _ := newTestFileHandler()

	body, contentType := multipartUpload(t, "cv.pdf", []byte("pdf-bytes"))
	recUp := httptest.NewRecorder()
	cUp, _ := gin.CreateTestContext(recUp)
	cUp.Request = httptest.NewRequest(http.MethodPost, "/api/files?related_type=recruitment&related_id=5", body)
	cUp.Request.Header.Set("Content-Type", contentType)
	handler.Upload(cUp)
	require.Equal(t, http.StatusCreated, recUp.Code)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/api/files?related_type=recruitment&related_id=5", nil)

	handler.Delete(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, float64(1), envelope.Data["deleted"])
	assert.Empty(t, repo.records)
}

func TestFileHandlerCleanup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo, _ := newTestFileHandler()

	key := models.UploadKey{OwnerType: "slide", OwnerID: 1}
	for i := 0; i < 3; i++ {
		record := models.FileRecord{
			Filename:    "dup.png",
			StoragePath: "/uploads/slide/dup.png",
			OwnerType:   key.OwnerType,
			OwnerID:     key.OwnerID,
		}
		require.NoError(t, repo.Create(context.Background(), &record))
	}

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/admin/files/cleanup", nil)

	handler.Cleanup(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, float64(3), envelope.Data["checked"])
	assert.Equal(t, float64(2), envelope.Data["duplicates_removed"])
	assert.Len(t, repo.records, 1)
}

type responseEnvelope struct {
	Data map[string]interface{} `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}
