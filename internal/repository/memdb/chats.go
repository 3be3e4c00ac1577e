package memdb

import (
	"context"
	"sort"
	"time"

	"github.com/Zorochan404/inf-chat/internal/models"
	"github.com/Zorochan404/inf-chat/internal/repository"
)

type ChatRepository struct {
	db    *chatTable
	users *UserRepository
}

func NewChatRepository(db *DB) *ChatRepository {
	return &ChatRepository{db: db.chats, users: NewUserRepository(db)}
}

func (r *ChatRepository) SessionCount() int {
	r.db.Lock()
	defer r.db.Unlock()
	return len(r.db.sessions)
}

func (r *ChatRepository) MessageCount() int {
	r.db.Lock()
	defer r.db.Unlock()
	return len(r.db.messages)
}

// AppendMessage upserts the session for candidate's pair and appends msg under
// one lock, like the transactional Postgres path.
func (r *ChatRepository) AppendMessage(_ context.Context, candidate models.ChatSession, msg models.DirectMessage) (models.ChatSession, models.DirectMessage, error) {
	r.db.Lock()
	defer r.db.Unlock()

	pair := models.ChatPair{StudentID: candidate.StudentID, TeacherID: candidate.TeacherID}
	session, ok := r.db.sessions[pair]
	if !ok {
		s := candidate
		s.IsActive = true
		s.CreatedAt = time.Now().UTC()
		session = &s
		r.db.sessions[pair] = session
	}

	r.db.seq++
	msg.Seq = r.db.seq
	msg.ChatID = session.ID
	msg.CreatedAt = time.Now().UTC()
	msg.UpdatedAt = msg.CreatedAt
	r.db.messages = append(r.db.messages, msg)

	session.LastMessageID = msg.ID
	session.UnreadCount++
	session.IsActive = true
	session.UpdatedAt = msg.CreatedAt
	return *session, msg, nil
}

func (r *ChatRepository) FindSession(_ context.Context, a, b string) (models.ChatSession, error) {
	r.db.Lock()
	defer r.db.Unlock()
	for _, pair := range []models.ChatPair{{StudentID: a, TeacherID: b}, {StudentID: b, TeacherID: a}} {
		if s, ok := r.db.sessions[pair]; ok {
			return *s, nil
		}
	}
	return models.ChatSession{}, repository.ErrSessionNotFound
}

// ListMessages returns up to limit messages newest first, strictly older than
// beforeID when it is set. An unknown beforeID yields nothing.
func (r *ChatRepository) ListMessages(ctx context.Context, sessionID, beforeID string, limit int) ([]models.LedgerEntry, error) {
	r.db.Lock()
	var cursor int64 = -1
	if beforeID != "" {
		cursor = 0
		for _, msg := range r.db.messages {
			if msg.ID == beforeID && msg.ChatID == sessionID {
				cursor = msg.Seq
			}
		}
	}
	var picked []models.DirectMessage
	for i := len(r.db.messages) - 1; i >= 0 && len(picked) < limit; i-- {
		msg := r.db.messages[i]
		if msg.ChatID != sessionID {
			continue
		}
		if cursor >= 0 && msg.Seq >= cursor {
			continue
		}
		picked = append(picked, msg)
	}
	r.db.Unlock()

	entries := make([]models.LedgerEntry, 0, len(picked))
	for _, msg := range picked {
		sender, _ := r.users.GetByID(ctx, msg.SenderID)
		receiver, _ := r.users.GetByID(ctx, msg.ReceiverID)
		entries = append(entries, models.LedgerEntry{
			Message:  msg,
			Sender:   participant(sender),
			Receiver: participant(receiver),
		})
	}
	return entries, nil
}

func (r *ChatRepository) CountMessages(_ context.Context, sessionID string) (int, error) {
	r.db.Lock()
	defer r.db.Unlock()
	n := 0
	for _, msg := range r.db.messages {
		if msg.ChatID == sessionID {
			n++
		}
	}
	return n, nil
}

func (r *ChatRepository) ListSessions(ctx context.Context, userID string) ([]models.SessionOverview, error) {
	r.db.Lock()
	var mine []models.ChatSession
	for _, s := range r.db.sessions {
		if s.StudentID == userID || s.TeacherID == userID {
			mine = append(mine, *s)
		}
	}
	lastByID := make(map[string]models.DirectMessage, len(mine))
	for _, msg := range r.db.messages {
		lastByID[msg.ID] = msg
	}
	r.db.Unlock()

	sort.Slice(mine, func(i, j int) bool { return mine[i].UpdatedAt.After(mine[j].UpdatedAt) })

	out := make([]models.SessionOverview, 0, len(mine))
	for _, s := range mine {
		otherID := s.StudentID
		if otherID == userID {
			otherID = s.TeacherID
		}
		other, _ := r.users.GetByID(ctx, otherID)
		ov := models.SessionOverview{Session: s, OtherParty: participant(other)}
		if last, ok := lastByID[s.LastMessageID]; ok {
			ov.LastMessage = &last
		}
		out = append(out, ov)
	}
	return out, nil
}

func (r *ChatRepository) MarkRead(_ context.Context, sessionID, readerID string) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()
	var session *models.ChatSession
	for _, s := range r.db.sessions {
		if s.ID == sessionID {
			session = s
		}
	}
	if session == nil {
		return 0, repository.ErrSessionNotFound
	}
	session.UnreadCount = 0

	var changed int64
	for i := range r.db.messages {
		msg := &r.db.messages[i]
		if msg.ChatID == sessionID && msg.ReceiverID == readerID && msg.Status != models.MessageStatusRead {
			msg.Status = models.MessageStatusRead
			changed++
		}
	}
	return changed, nil
}
