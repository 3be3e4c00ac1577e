package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zorochan404/inf-chat/internal/models"
)

func TestUserCreateDuplicateEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err := repo.Create(context.Background(), models.User{ID: "u1", Email: "t@x.com", Role: models.RoleTeacher})
	assert.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserFindByEmailFiltersRole(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	want := models.User{ID: "u1", Email: "s@x.com", Name: "S", Role: models.RoleStudent, PasswordHash: []byte("h")}
	mock.ExpectQuery(regexp.QuoteMeta("WHERE email = $1 AND role = $2")).
		WithArgs("s@x.com", "student").
		WillReturnRows(userRows(want))

	got, err := repo.FindByEmail(context.Background(), "s@x.com", models.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, models.RoleStudent, got.Role)
	assert.Equal(t, []byte("h"), got.PasswordHash)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserGetByIDNotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(userRows())

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserDepartmentPrefixEscapesLike(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("lower(regexp_replace(department")).
		WithArgs(`cs\_a%`).
		WillReturnRows(userRows(models.User{ID: "u1", Role: models.RoleStudent, Department: "CS_A 1"}))

	users, err := repo.ListStudentsByDepartmentPrefix(context.Background(), "cs_a")
	require.NoError(t, err)
	assert.Len(t, users, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpdateProfileRollsBackOnFailure(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	name := "New Name"
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("u1").
		WillReturnRows(userRows(models.User{ID: "u1", Name: "Old", Role: models.RoleStudent}))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET")).
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	_, err := repo.UpdateProfile(context.Background(), "u1", models.ProfileFields{Name: &name})
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpdateProfileAppliesFields(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	bio := "Office in B12"
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("u1").
		WillReturnRows(userRows(models.User{ID: "u1", Name: "T", Role: models.RoleTeacher}))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET")).
		WithArgs("u1", "T", "", "", "", "", "", "", "", []string{}, bio, "", []string{}).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(testTime))
	mock.ExpectCommit()

	got, err := repo.UpdateProfile(context.Background(), "u1", models.ProfileFields{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, bio, got.Bio)
	assert.Equal(t, "T", got.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserSetOnlineMissing(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET is_online")).
		WithArgs("u1", true).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.ErrorIs(t, repo.SetOnline(context.Background(), "u1", true), ErrUserNotFound)
}
