package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadhub/timetable-api/internal/models"
)

func newTeacherRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTeacherRepositoryListByDepartment(t *testing.T) {
	db, mock, cleanup := newTeacherRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	rows := sqlmock.NewRows([]string{"id", "full_name", "email", "availability", "created_at", "updated_at"}).
		AddRow("t1", "Alice Grant", "alice@example.com", []byte(`{}`), time.Now(), time.Now())
	mock.ExpectQuery("JOIN teacher_departments td ON td.teacher_id = t.id").
		WithArgs("dep-1").
		WillReturnRows(rows)

	teachers, err := repo.List(context.Background(), "dep-1")
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	assert.Equal(t, "Alice Grant", teachers[0].FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryCreateMintsID(t *testing.T) {
	db, mock, cleanup := newTeacherRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectExec("INSERT INTO teachers").
		WithArgs(sqlmock.AnyArg(), "Alice Grant", "alice@example.com", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	teacher := &models.Teacher{FullName: "Alice Grant", Email: "alice@example.com"}
	require.NoError(t, repo.Create(context.Background(), teacher))
	assert.NotEmpty(t, teacher.ID)
	assert.False(t, teacher.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryExistsByEmail(t *testing.T) {
	db, mock, cleanup := newTeacherRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM teachers WHERE LOWER(email) = LOWER($1) LIMIT 1")).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.ExistsByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM teachers WHERE LOWER(email) = LOWER($1) LIMIT 1")).
		WithArgs("missing@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	exists, err = repo.ExistsByEmail(context.Background(), "missing@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryIsQualified(t *testing.T) {
	db, mock, cleanup := newTeacherRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM teacher_qualifications WHERE teacher_id = $1 AND course_id = $2 LIMIT 1")).
		WithArgs("t1", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	qualified, err := repo.IsQualified(context.Background(), "t1", "c1")
	require.NoError(t, err)
	assert.True(t, qualified)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM teacher_qualifications WHERE teacher_id = $1 AND course_id = $2 LIMIT 1")).
		WithArgs("t1", "c2").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	qualified, err = repo.IsQualified(context.Background(), "t1", "c2")
	require.NoError(t, err)
	assert.False(t, qualified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryAddDepartment(t *testing.T) {
	db, mock, cleanup := newTeacherRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectExec("INSERT INTO teacher_departments").
		WithArgs("t1", "dep-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.AddDepartment(context.Background(), "t1", "dep-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
