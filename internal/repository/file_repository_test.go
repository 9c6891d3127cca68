package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/emma-hr/emma-api/internal/models"
)

func newFileRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func fileColumns() []string {
	return []string{"id", "filename", "storage_path", "owner_type", "owner_id", "created_at", "updated_at"}
}

func TestFileRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newFileRepoMock(t)
	defer cleanup()

	repo := NewFileRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO files")).
		WithArgs("a1b2.pdf", "/uploads/recruitment/a1b2.pdf", "recruitment", int64(7), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	record := &models.FileRecord{
		Filename:    "a1b2.pdf",
		StoragePath: "/uploads/recruitment/a1b2.pdf",
		OwnerType:   "recruitment",
		OwnerID:     7,
	}
	require.NoError(t, repo.Create(context.Background(), record))
	require.Equal(t, int64(42), record.ID)
	require.False(t, record.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFileRepositoryGetCurrentOrdersAndLimits(t *testing.T) {
	db, mock, cleanup := newFileRepoMock(t)
	defer cleanup()

	repo := NewFileRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows(fileColumns()).
		AddRow(int64(2), "new.pdf", "/uploads/blog/new.pdf", "blog", int64(3), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id DESC LIMIT 1")).
		WithArgs("blog", int64(3)).
		WillReturnRows(rows)

	record, err := repo.GetCurrent(context.Background(), models.UploadKey{OwnerType: "blog", OwnerID: 3})
	require.NoError(t, err)
	require.NotNil(t, record)
	require.Equal(t, "new.pdf", record.Filename)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFileRepositoryGetCurrentNoRows(t *testing.T) {
	db, mock, cleanup := newFileRepoMock(t)
	defer cleanup()

	repo := NewFileRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT 1")).
		WithArgs("blog", int64(99)).
		WillReturnRows(sqlmock.NewRows(fileColumns()))

	record, err := repo.GetCurrent(context.Background(), models.UploadKey{OwnerType: "blog", OwnerID: 99})
	require.NoError(t, err)
	require.Nil(t, record)
}

func TestFileRepositoryDeleteByOwnerCountsRows(t *testing.T) {
	db, mock, cleanup := newFileRepoMock(t)
	defer cleanup()

	repo := NewFileRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM files WHERE owner_type = $1 AND owner_id = $2")).
		WithArgs("recruitment", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	count, err := repo.DeleteByOwner(context.Background(), models.UploadKey{OwnerType: "recruitment", OwnerID: 7})
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM files WHERE owner_type = $1 AND owner_id = $2")).
		WithArgs("recruitment", int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	count, err = repo.DeleteByOwner(context.Background(), models.UploadKey{OwnerType: "recruitment", OwnerID: 8})
	require.NoError(t, err)
	require.Zero(t, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFileRepositoryDeleteMissingRow(t *testing.T) {
	db, mock, cleanup := newFileRepoMock(t)
	defer cleanup()

	repo := NewFileRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM files WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.Error(t, repo.Delete(context.Background(), 5))
}
