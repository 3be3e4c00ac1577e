package repository

import (
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/Zorochan404/inf-chat/internal/models"
)

var testTime = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func userRows(users ...models.User) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{
		"id", "email", "password_hash", "name", "avatar", "email_verified", "role",
		"department", "student_id", "year", "batch", "semester",
		"professor_id", "specialisation", "bio", "office_hours", "subjects",
		"is_active", "is_online", "created_at", "updated_at",
	})
	for _, u := range users {
		rows.AddRow(
			u.ID, u.Email, u.PasswordHash, u.Name, u.AvatarURL, u.EmailVerified, string(u.Role),
			u.Department, u.StudentID, u.Year, u.Batch, u.Semester,
			u.ProfessorID, nonNil(u.Specialisation), u.Bio, u.OfficeHours, nonNil(u.Subjects),
			u.IsActive, u.IsOnline, testTime, testTime,
		)
	}
	return rows
}

func sessionRows(sessions ...models.ChatSession) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{
		"id", "student_id", "teacher_id", "last_message_id", "unread_count", "is_active", "created_at", "updated_at",
	})
	for _, s := range sessions {
		rows.AddRow(s.ID, s.StudentID, s.TeacherID, s.LastMessageID, s.UnreadCount, s.IsActive, testTime, testTime)
	}
	return rows
}

func groupRows(groups ...models.StudyGroup) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{
		"id", "name", "description", "created_by", "student_ids", "teacher_ids", "subject",
		"max_members", "prof_controlled", "created_at", "updated_at",
	})
	for _, g := range groups {
		rows.AddRow(g.ID, g.Name, g.Description, g.CreatedBy, nonNil(g.StudentIDs), nonNil(g.TeacherIDs),
			g.Subject, g.MaxMembers, g.ProfControlled, testTime, testTime)
	}
	return rows
}
