package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emma-hr/emma-api/internal/models"
	appErrors "github.com/emma-hr/emma-api/pkg/errors"
	"github.com/emma-hr/emma-api/pkg/storage"
)

type assignmentRepoStub struct {
	nextID      int64
	assignments map[int64]*models.Assignment
}

func newAssignmentRepoStub() *assignmentRepoStub {
	return &assignmentRepoStub{assignments: make(map[int64]*models.Assignment)}
}

func (r *assignmentRepoStub) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error) {
	var result []models.Assignment
	for _, a := range r.assignments {
		result = append(result, *a)
	}
	return result, len(result), nil
}

func (r *assignmentRepoStub) GetByID(ctx context.Context, id int64) (*models.Assignment, error) {
	a, ok := r.assignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *a
	return &copied, nil
}

func (r *assignmentRepoStub) FindByCourseAndUser(ctx context.Context, courseID, userID int64) (*models.Assignment, error) {
	for _, a := range r.assignments {
		if a.CourseID == courseID && a.UserID == userID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *assignmentRepoStub) Create(ctx context.Context, assignment *models.Assignment) error {
	r.nextID++
	assignment.ID = r.nextID
	copied := *assignment
	r.assignments[assignment.ID] = &copied
	return nil
}

func (r *assignmentRepoStub) UpdateProgress(ctx context.Context, assignment *models.Assignment) error {
	if _, ok := r.assignments[assignment.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *assignment
	r.assignments[assignment.ID] = &copied
	return nil
}

func (r *assignmentRepoStub) Delete(ctx context.Context, id int64) error {
	if _, ok := r.assignments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.assignments, id)
	return nil
}

type courseRepoStub struct {
	courses map[int64]*models.Course
}

func (r *courseRepoStub) List(ctx context.Context, activeOnly bool) ([]models.Course, error) {
	var result []models.Course
	for _, c := range r.courses {
		if activeOnly && !c.Active {
			continue
		}
		result = append(result, *c)
	}
	return result, nil
}

func (r *courseRepoStub) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	c, ok := r.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *c
	return &copied, nil
}

func (r *courseRepoStub) Create(ctx context.Context, course *models.Course) error { return nil }
func (r *courseRepoStub) Update(ctx context.Context, course *models.Course) error { return nil }
func (r *courseRepoStub) Delete(ctx context.Context, id int64) error              { return nil }

type userSourceStub struct {
	users map[int64]*models.User
}

func (r *userSourceStub) FindByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

type certRepoStub struct {
	nextID int64
	certs  map[int64]*models.Certificate
}

func newCertRepoStub() *certRepoStub {
	return &certRepoStub{certs: make(map[int64]*models.Certificate)}
}

func (r *certRepoStub) Create(ctx context.Context, cert *models.Certificate) error {
	r.nextID++
	cert.ID = r.nextID
	copied := *cert
	r.certs[cert.ID] = &copied
	return nil
}

func (r *certRepoStub) GetByID(ctx context.Context, id int64) (*models.Certificate, error) {
	c, ok := r.certs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *c
	return &copied, nil
}

func (r *certRepoStub) FindByAssignment(ctx context.Context, assignmentID int64) (*models.Certificate, error) {
	for _, c := range r.certs {
		if c.AssignmentID == assignmentID {
			copied := *c
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *certRepoStub) ListByUser(ctx context.Context, userID int64) ([]models.Certificate, error) {
	var result []models.Certificate
	for _, c := range r.certs {
		if c.UserID == userID {
			result = append(result, *c)
		}
	}
	return result, nil
}

type certStorageStub struct {
	saved map[string][]byte
}

func (s *certStorageStub) Save(filename string, data []byte) (string, error) {
	if s.saved == nil {
		s.saved = make(map[string][]byte)
	}
	s.saved[filename] = data
	return filename, nil
}

func (s *certStorageStub) Path(filename string) string {
	return "/data/" + filename
}

func newTestAssignmentService(t *testing.T) (*AssignmentService, *assignmentRepoStub, *certRepoStub, *certStorageStub) {
	t.Helper()
	repo := newAssignmentRepoStub()
	courses := &courseRepoStub{courses: map[int64]*models.Course{
		1: {ID: 1, Title: "Onboarding Basics", Active: true},
		2: {ID: 2, Title: "Retired Course", Active: false},
	}}
	users := &userSourceStub{users: map[int64]*models.User{
		10: {ID: 10, FullName: "Dana Reyes", Email: "dana@example.com", Role: models.RoleGuest, Active: true},
	}}
	certRepo := newCertRepoStub()
	certStore := &certStorageStub{}
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	certs := NewCertificateService(certRepo, certStore, signer, nil, zap.NewNop(), CertificateConfig{IssuerName: "EMMA"})
	svc := NewAssignmentService(repo, courses, users, certs, validator.New(), zap.NewNop())
	return svc, repo, certRepo, certStore
}

func TestAssignmentServiceAssign(t *testing.T) {
	svc, _, _, _ := newTestAssignmentService(t)

	assignment, err := svc.Assign(context.Background(), AssignCourseRequest{CourseID: 1, UserID: 10})
	require.NoError(t, err)
	assert.Zero(t, assignment.Progress)
	assert.False(t, assignment.Completed())

	// The same course cannot be assigned twice.
	_, err = svc.Assign(context.Background(), AssignCourseRequest{CourseID: 1, UserID: 10})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	// Inactive courses cannot be assigned.
	_, err = svc.Assign(context.Background(), AssignCourseRequest{CourseID: 2, UserID: 10})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceProgressIsMonotonic(t *testing.T) {
	svc, _, _, _ := newTestAssignmentService(t)
	assignment, err := svc.Assign(context.Background(), AssignCourseRequest{CourseID: 1, UserID: 10})
	require.NoError(t, err)

	view, err := svc.UpdateProgress(context.Background(), assignment.ID, 10, UpdateProgressRequest{Progress: 40})
	require.NoError(t, err)
	assert.Equal(t, 40, view.Progress)

	_, err = svc.UpdateProgress(context.Background(), assignment.ID, 10, UpdateProgressRequest{Progress: 30})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceOwnershipEnforced(t *testing.T) {
	svc, _, _, _ := newTestAssignmentService(t)
	assignment, err := svc.Assign(context.Background(), AssignCourseRequest{CourseID: 1, UserID: 10})
	require.NoError(t, err)

	_, err = svc.UpdateProgress(context.Background(), assignment.ID, 99, UpdateProgressRequest{Progress: 50})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceCompletionIssuesCertificate(t *testing.T) {
	svc, repo, certRepo, certStore := newTestAssignmentService(t)
	assignment, err := svc.Assign(context.Background(), AssignCourseRequest{CourseID: 1, UserID: 10})
	require.NoError(t, err)

	view, err := svc.UpdateProgress(context.Background(), assignment.ID, 10, UpdateProgressRequest{Progress: 100})
	require.NoError(t, err)
	assert.True(t, view.Completed())
	require.NotNil(t, view.Certificate)
	assert.Equal(t, assignment.ID, view.Certificate.AssignmentID)
	assert.NotEmpty(t, view.Certificate.SerialNumber)

	// The rendered PDF landed in storage.
	payload, ok := certStore.saved[view.Certificate.FilePath]
	require.True(t, ok)
	assert.True(t, len(payload) > 4 && string(payload[:4]) == "%PDF")

	// Completed assignments reject further updates.
	_, err = svc.UpdateProgress(context.Background(), assignment.ID, 10, UpdateProgressRequest{Progress: 100})
	require.Error(t, err)

	// Re-issuing for the same assignment returns the existing record.
	stored := repo.assignments[assignment.ID]
	user := &models.User{ID: 10, FullName: "Dana Reyes"}
	course := &models.Course{ID: 1, Title: "Onboarding Basics", Active: true}
	again, err := NewCertificateService(certRepo, certStore, storage.NewSignedURLSigner("secret", time.Hour), nil, zap.NewNop(), CertificateConfig{}).Issue(context.Background(), stored, user, course)
	require.NoError(t, err)
	assert.Equal(t, view.Certificate.ID, again.ID)
}

func TestCertificateSignedDownloadRoundTrip(t *testing.T) {
	svc, _, certRepo, certStore := newTestAssignmentService(t)
	assignment, err := svc.Assign(context.Background(), AssignCourseRequest{CourseID: 1, UserID: 10})
	require.NoError(t, err)
	view, err := svc.UpdateProgress(context.Background(), assignment.ID, 10, UpdateProgressRequest{Progress: 100})
	require.NoError(t, err)
	require.NotNil(t, view.Certificate)

	certs := NewCertificateService(certRepo, certStore, storage.NewSignedURLSigner("secret", time.Hour), nil, zap.NewNop(), CertificateConfig{})
	download, err := certs.SignedDownloadFor(context.Background(), view.Certificate.ID)
	require.NoError(t, err)
	assert.True(t, download.ExpiresAt.After(time.Now()))

	path, err := certs.ResolveDownload(context.Background(), download.Token)
	require.NoError(t, err)
	assert.Equal(t, "/data/"+view.Certificate.FilePath, path)

	_, err = certs.ResolveDownload(context.Background(), download.Token+"tampered")
	require.Error(t, err)
}
