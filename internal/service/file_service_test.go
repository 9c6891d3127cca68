package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emma-hr/emma-api/internal/models"
)

type fileRepoStub struct {
	nextID  int64
	records map[int64]models.FileRecord
	now     time.Time
}

func newFileRepoStub() *fileRepoStub {
	return &fileRepoStub{records: make(map[int64]models.FileRecord), now: time.Now()}
}

func (r *fileRepoStub) Create(ctx context.Context, record *models.FileRecord) error {
	r.nextID++
	record.ID = r.nextID
	if record.CreatedAt.IsZero() {
		// Monotonic timestamps so ordering by CreatedAt is deterministic.
		r.now = r.now.Add(time.Second)
		record.CreatedAt = r.now
	}
	r.records[record.ID] = *record
	return nil
}

func (r *fileRepoStub) byOwner(key models.UploadKey) []models.FileRecord {
	var result []models.FileRecord
	for _, record := range r.records {
		if record.OwnerType == key.OwnerType && record.OwnerID == key.OwnerID {
			result = append(result, record)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (r *fileRepoStub) GetCurrent(ctx context.Context, key models.UploadKey) (*models.FileRecord, error) {
	records := r.byOwner(key)
	if len(records) == 0 {
		return nil, nil
	}
	current := records[0]
	return &current, nil
}

func (r *fileRepoStub) ListByOwner(ctx context.Context, key models.UploadKey) ([]models.FileRecord, error) {
	return r.byOwner(key), nil
}

func (r *fileRepoStub) ListAll(ctx context.Context) ([]models.FileRecord, error) {
	var result []models.FileRecord
	for _, record := range r.records {
		result = append(result, record)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fileRepoStub) Delete(ctx context.Context, id int64) error {
	delete(r.records, id)
	return nil
}

func (r *fileRepoStub) DeleteByOwner(ctx context.Context, key models.UploadKey) (int64, error) {
	var count int64
	for id, record := range r.records {
		if record.OwnerType == key.OwnerType && record.OwnerID == key.OwnerID {
			delete(r.records, id)
			count++
		}
	}
	return count, nil
}

type fileStorageStub struct {
	files   map[string][]byte
	failOn  map[string]error
	deleted []string
}

func newFileStorageStub() *fileStorageStub {
	return &fileStorageStub{files: make(map[string][]byte), failOn: make(map[string]error)}
}

func (s *fileStorageStub) SaveStream(filename string, r io.Reader) (string, error) {
	if err := s.failOn[filename]; err != nil {
		return "", err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.files[filename] = data
	return filename, nil
}

func (s *fileStorageStub) Delete(filename string) error {
	if err := s.failOn[filename]; err != nil {
		return err
	}
	s.deleted = append(s.deleted, filename)
	delete(s.files, filename)
	return nil
}

func newTestFileService(repo *fileRepoStub, storage *fileStorageStub) *FileService {
	return NewFileService(repo, storage, nil, FileServiceConfig{PublicBasePath: "/uploads"})
}

func upload(name, content string) FileUpload {
	return FileUpload{Filename: name, Size: int64(len(content)), Content: bytes.NewBufferString(content)}
}

func TestFileServicePutRejectsInvalidKey(t *testing.T) {
	svc := newTestFileService(newFileRepoStub(), newFileStorageStub())

	_, err := svc.Put(context.Background(), models.UploadKey{}, upload("cv.pdf", "data"))
	require.Error(t, err)

	_, err = svc.Put(context.Background(), models.UploadKey{OwnerType: "blog"}, upload("cv.pdf", "data"))
	require.Error(t, err)

	_, err = svc.Put(context.Background(), models.UploadKey{OwnerType: "blog", OwnerID: 1}, FileUpload{})
	require.Error(t, err)
}

func TestFileServicePutRejectsTraversalOwnerType(t *testing.T) {
	repo := newFileRepoStub()
	store := newFileStorageStub()
	svc := newTestFileService(repo, store)

	for _, ownerType := range []string{"../escape", "..", "a/b", `a\b`, "blog.", "Slide"} {
		_, err := svc.Put(context.Background(), models.UploadKey{OwnerType: ownerType, OwnerID: 1}, upload("cv.pdf", "data"))
		require.Error(t, err, ownerType)
	}
	require.Empty(t, store.files)
	require.Empty(t, repo.records)
}

func TestFileServicePutEnforcesAllowedContentTypes(t *testing.T) {
	repo := newFileRepoStub()
	store := newFileStorageStub()
	svc := NewFileService(repo, store, nil, FileServiceConfig{
		PublicBasePath: "/uploads",
		AllowedMIMEs:   []string{"application/pdf", "image/png"},
	})
	key := models.UploadKey{OwnerType: "recruitment", OwnerID: 3}

	for _, contentType := range []string{"text/html", "application/octet-stream", ""} {
		up := upload("cv.pdf", "data")
		up.ContentType = contentType
		_, err := svc.Put(context.Background(), key, up)
		require.Error(t, err, contentType)
	}
	require.Empty(t, store.files)

	// Case and parameters on the media type do not matter.
	up := upload("cv.pdf", "data")
	up.ContentType = "Application/PDF; charset=binary"
	record, err := svc.Put(context.Background(), key, up)
	require.NoError(t, err)
	require.NotNil(t, record)
	require.Len(t, store.files, 1)
}

func TestFileServicePutSupersedesPrevious(t *testing.T) {
	repo := newFileRepoStub()
	storage := newFileStorageStub()
	svc := newTestFileService(repo, storage)
	key := models.UploadKey{OwnerType: "recruitment", OwnerID: 7}

	first, err := svc.Put(context.Background(), key, upload("cv-v1.pdf", "first"))
	require.NoError(t, err)

	second, err := svc.Put(context.Background(), key, upload("cv-v2.pdf", "second"))
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	// Exactly one record remains and it is the new one.
	records, err := repo.ListByOwner(context.Background(), key)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, second.ID, records[0].ID)

	current, err := svc.GetCurrent(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, second.Filename, current.Filename)

	// The first artifact is gone; only the second remains on disk.
	require.Len(t, storage.files, 1)
	_, exists := storage.files["recruitment/"+second.Filename]
	assert.True(t, exists)
}

func TestFileServicePutGeneratesSafeFilenames(t *testing.T) {
	repo := newFileRepoStub()
	storage := newFileStorageStub()
	svc := newTestFileService(repo, storage)
	key := models.UploadKey{OwnerType: "blog", OwnerID: 1}

	record, err := svc.Put(context.Background(), key, upload("../../etc/passwd", "data"))
	require.NoError(t, err)
	assert.NotContains(t, record.Filename, "..")
	assert.NotContains(t, record.Filename, "/")
	assert.Equal(t, "/uploads/blog/"+record.Filename, record.StoragePath)

	record, err = svc.Put(context.Background(), key, upload("photo.PNG", "data"))
	require.NoError(t, err)
	assert.Contains(t, record.Filename, ".png")
}

func TestFileServiceGetCurrentMissing(t *testing.T) {
	svc := newTestFileService(newFileRepoStub(), newFileStorageStub())

	record, err := svc.GetCurrent(context.Background(), models.UploadKey{OwnerType: "blog", OwnerID: 404})
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestFileServiceDeleteAll(t *testing.T) {
	repo := newFileRepoStub()
	storage := newFileStorageStub()
	svc := newTestFileService(repo, storage)
	key := models.UploadKey{OwnerType: "slide", OwnerID: 3}

	_, err := svc.Put(context.Background(), key, upload("a.jpg", "a"))
	require.NoError(t, err)

	count, err := svc.DeleteAll(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	current, err := svc.GetCurrent(context.Background(), key)
	require.NoError(t, err)
	assert.Nil(t, current)

	// Deleting again finds nothing and does not error.
	count, err = svc.DeleteAll(context.Background(), key)
	require.NoError(t, err)
	assert.Zero(t, count)

	report, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.DuplicatesRemoved)
}

func seedDuplicate(t *testing.T, repo *fileRepoStub, storage *fileStorageStub, key models.UploadKey, filename string) models.FileRecord {
	t.Helper()
	record := &models.FileRecord{
		Filename:    filename,
		StoragePath: "/uploads/" + key.OwnerType + "/" + filename,
		OwnerType:   key.OwnerType,
		OwnerID:     key.OwnerID,
	}
	require.NoError(t, repo.Create(context.Background(), record))
	storage.files[key.OwnerType+"/"+filename] = []byte(filename)
	return *record
}

func TestFileServiceReconcileTrimsToNewest(t *testing.T) {
	repo := newFileRepoStub()
	storage := newFileStorageStub()
	svc := newTestFileService(repo, storage)
	key := models.UploadKey{OwnerType: "recruitment", OwnerID: 9}

	seedDuplicate(t, repo, storage, key, "old1.pdf")
	seedDuplicate(t, repo, storage, key, "old2.pdf")
	newest := seedDuplicate(t, repo, storage, key, "new.pdf")

	report, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Checked)
	assert.Equal(t, 2, report.DuplicatesRemoved)
	assert.Empty(t, report.Errors)

	current, err := svc.GetCurrent(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, newest.ID, current.ID)

	// The sweep is idempotent: a second run removes nothing.
	report, err = svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.DuplicatesRemoved)
	assert.Empty(t, report.Errors)
}

func TestFileServiceReconcileToleratesPartialFailure(t *testing.T) {
	repo := newFileRepoStub()
	storage := newFileStorageStub()
	svc := newTestFileService(repo, storage)

	keyA := models.UploadKey{OwnerType: "blog", OwnerID: 1}
	keyB := models.UploadKey{OwnerType: "blog", OwnerID: 2}
	keyC := models.UploadKey{OwnerType: "slide", OwnerID: 3}

	failing := seedDuplicate(t, repo, storage, keyA, "a-old.jpg")
	seedDuplicate(t, repo, storage, keyA, "a-new.jpg")
	seedDuplicate(t, repo, storage, keyB, "b-old.jpg")
	seedDuplicate(t, repo, storage, keyB, "b-new.jpg")
	seedDuplicate(t, repo, storage, keyC, "c-old.jpg")
	seedDuplicate(t, repo, storage, keyC, "c-new.jpg")

	storage.failOn["blog/a-old.jpg"] = fmt.Errorf("disk error")

	report, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.DuplicatesRemoved)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, failing.ID, report.Errors[0].FileID)
	assert.Equal(t, "blog", report.Errors[0].OwnerType)
	assert.Contains(t, report.Errors[0].Reason, "disk error")

	// The failing row is kept so the record never dangles without bytes.
	records, err := repo.ListByOwner(context.Background(), keyA)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestFileServicePutContinuesWhenOldArtifactMissing(t *testing.T) {
	repo := newFileRepoStub()
	storage := newFileStorageStub()
	svc := newTestFileService(repo, storage)
	key := models.UploadKey{OwnerType: "testimonial", OwnerID: 4}

	old := seedDuplicate(t, repo, storage, key, "gone.jpg")
	storage.failOn["testimonial/gone.jpg"] = fmt.Errorf("no such file")

	record, err := svc.Put(context.Background(), key, upload("fresh.jpg", "data"))
	require.NoError(t, err)
	require.NotEqual(t, old.ID, record.ID)

	records, err := repo.ListByOwner(context.Background(), key)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, record.ID, records[0].ID)
}
