package service

import (
	"context"

	"github.com/Zorochan404/inf-chat/internal/models"
)

// UserStore is the identity store used by the services. Lookups report
// repository.ErrUserNotFound when nothing matches.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	GetByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string, role models.UserRole) (models.User, error)
	UpdateProfile(ctx context.Context, id string, fields models.ProfileFields) (models.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.User, error)
	ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
	ListBySemester(ctx context.Context, semester string) ([]models.User, error)
	ListStudentsByDepartmentPrefix(ctx context.Context, prefix string) ([]models.User, error)
	SetOnline(ctx context.Context, id string, online bool) error
	ListOnlineIDs(ctx context.Context) ([]string, error)
}

// ChatStore holds sessions and the message ledger.
type ChatStore interface {
	AppendMessage(ctx context.Context, candidate models.ChatSession, msg models.DirectMessage) (models.ChatSession, models.DirectMessage, error)
	FindSession(ctx context.Context, a, b string) (models.ChatSession, error)
	ListMessages(ctx context.Context, sessionID, beforeID string, limit int) ([]models.LedgerEntry, error)
	CountMessages(ctx context.Context, sessionID string) (int, error)
	ListSessions(ctx context.Context, userID string) ([]models.SessionOverview, error)
	MarkRead(ctx context.Context, sessionID, readerID string) (int64, error)
}

type GroupStore interface {
	Create(ctx context.Context, group models.StudyGroup) error
	GetByID(ctx context.Context, id string) (models.StudyGroup, error)
	Update(ctx context.Context, id, creatorID string, patch models.GroupPatch) (models.StudyGroup, error)
	Delete(ctx context.Context, id, creatorID string) error
	ListByCreator(ctx context.Context, creatorID string) ([]models.StudyGroup, error)
	AddStudent(ctx context.Context, id, studentID string) (models.StudyGroup, error)
	RemoveStudent(ctx context.Context, id, studentID string) (models.StudyGroup, error)
}
