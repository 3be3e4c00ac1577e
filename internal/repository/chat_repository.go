package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Zorochan404/inf-chat/internal/models"
)

const sessionColumns = `id, student_id, teacher_id, last_message_id, unread_count, is_active, created_at, updated_at`

type ChatRepository struct {
	db DB
}

func NewChatRepository(db DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// AppendMessage stores msg in the session of candidate's (student, teacher)
// pair, creating the session with candidate.ID when the pair has none yet.
// The session upsert, the insert and the counter update share one transaction.
func (r *ChatRepository) AppendMessage(ctx context.Context, candidate models.ChatSession, msg models.DirectMessage) (models.ChatSession, models.DirectMessage, error) {
	var session models.ChatSession
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		const upsert = `
			INSERT INTO chat_sessions (
				id, student_id, teacher_id, last_message_id, unread_count, is_active, created_at, updated_at
			) VALUES (
				$1, $2, $3, '', 0, TRUE, NOW(), NOW()
			)
			ON CONFLICT (student_id, teacher_id)
			DO UPDATE SET updated_at = NOW()
			RETURNING id
		`
		var sessionID string
		if err := tx.QueryRow(ctx, upsert, candidate.ID, candidate.StudentID, candidate.TeacherID).Scan(&sessionID); err != nil {
			return fmt.Errorf("upsert session: %w", err)
		}

		const insert = `
			INSERT INTO direct_messages (
				id, chat_id, sender_id, receiver_id, content, message_type, file_url, file_name, status, created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW()
			)
			RETURNING seq, created_at, updated_at
		`
		msg.ChatID = sessionID
		if err := tx.QueryRow(ctx, insert,
			msg.ID,
			msg.ChatID,
			msg.SenderID,
			msg.ReceiverID,
			msg.Content,
			string(msg.MessageType),
			msg.FileURL,
			msg.FileName,
			string(msg.Status),
		).Scan(&msg.Seq, &msg.CreatedAt, &msg.UpdatedAt); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}

		advance := `
			UPDATE chat_sessions SET
				last_message_id = $2,
				unread_count = unread_count + 1,
				is_active = TRUE,
				updated_at = NOW()
			WHERE id = $1
			RETURNING ` + sessionColumns
		s, err := scanSession(tx.QueryRow(ctx, advance, sessionID, msg.ID))
		if err != nil {
			return fmt.Errorf("advance session: %w", err)
		}
		session = s
		return nil
	})
	if err != nil {
		return models.ChatSession{}, models.DirectMessage{}, err
	}
	return session, msg, nil
}

// FindSession returns the session between a and b in either order.
func (r *ChatRepository) FindSession(ctx context.Context, a, b string) (models.ChatSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM chat_sessions
		WHERE (student_id = $1 AND teacher_id = $2) OR (student_id = $2 AND teacher_id = $1)
		LIMIT 1`
	return scanSession(r.db.QueryRow(ctx, query, a, b))
}

// ListMessages returns up to limit messages of the session, newest first.
// A non-empty beforeID restricts the page to messages strictly older than it;
// an id outside the session yields an empty page.
func (r *ChatRepository) ListMessages(ctx context.Context, sessionID, beforeID string, limit int) ([]models.LedgerEntry, error) {
	const query = `
		SELECT m.id, m.seq, m.chat_id, m.sender_id, m.receiver_id, m.content, m.message_type,
			m.file_url, m.file_name, m.status, m.created_at, m.updated_at,
			s.id, s.name, s.avatar, s.role,
			rc.id, rc.name, rc.avatar, rc.role
		FROM direct_messages m
		JOIN users s ON s.id = m.sender_id
		JOIN users rc ON rc.id = m.receiver_id
		WHERE m.chat_id = $1
		  AND ($2::text = '' OR m.seq < (SELECT seq FROM direct_messages WHERE id = $2 AND chat_id = $1))
		ORDER BY m.seq DESC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, sessionID, beforeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.LedgerEntry, 0, limit)
	for rows.Next() {
		var (
			entry                               models.LedgerEntry
			msgType, status, senderRole, rcRole string
		)
		if err := rows.Scan(
			&entry.Message.ID,
			&entry.Message.Seq,
			&entry.Message.ChatID,
			&entry.Message.SenderID,
			&entry.Message.ReceiverID,
			&entry.Message.Content,
			&msgType,
			&entry.Message.FileURL,
			&entry.Message.FileName,
			&status,
			&entry.Message.CreatedAt,
			&entry.Message.UpdatedAt,
			&entry.Sender.ID,
			&entry.Sender.Name,
			&entry.Sender.AvatarURL,
			&senderRole,
			&entry.Receiver.ID,
			&entry.Receiver.Name,
			&entry.Receiver.AvatarURL,
			&rcRole,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		entry.Message.MessageType = models.MessageType(msgType)
		entry.Message.Status = models.MessageStatus(status)
		entry.Sender.Role = models.UserRole(senderRole)
		entry.Receiver.Role = models.UserRole(rcRole)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *ChatRepository) CountMessages(ctx context.Context, sessionID string) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM direct_messages WHERE chat_id = $1`, sessionID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// ListSessions returns userID's conversations, most recently active first.
func (r *ChatRepository) ListSessions(ctx context.Context, userID string) ([]models.SessionOverview, error) {
	const query = `
		SELECT cs.id, cs.student_id, cs.teacher_id, cs.last_message_id, cs.unread_count, cs.is_active,
			cs.created_at, cs.updated_at,
			u.id, u.name, u.avatar, u.role,
			m.id, m.seq, m.chat_id, m.sender_id, m.receiver_id, m.content, m.message_type,
			m.file_url, m.file_name, m.status, m.created_at, m.updated_at
		FROM chat_sessions cs
		JOIN users u ON u.id = CASE WHEN cs.student_id = $1 THEN cs.teacher_id ELSE cs.student_id END
		JOIN direct_messages m ON m.id = cs.last_message_id
		WHERE cs.student_id = $1 OR cs.teacher_id = $1
		ORDER BY cs.updated_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	overviews := make([]models.SessionOverview, 0)
	for rows.Next() {
		var (
			ov                    models.SessionOverview
			last                  models.DirectMessage
			role, msgType, status string
		)
		if err := rows.Scan(
			&ov.Session.ID,
			&ov.Session.StudentID,
			&ov.Session.TeacherID,
			&ov.Session.LastMessageID,
			&ov.Session.UnreadCount,
			&ov.Session.IsActive,
			&ov.Session.CreatedAt,
			&ov.Session.UpdatedAt,
			&ov.OtherParty.ID,
			&ov.OtherParty.Name,
			&ov.OtherParty.AvatarURL,
			&role,
			&last.ID,
			&last.Seq,
			&last.ChatID,
			&last.SenderID,
			&last.ReceiverID,
			&last.Content,
			&msgType,
			&last.FileURL,
			&last.FileName,
			&status,
			&last.CreatedAt,
			&last.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan session overview: %w", err)
		}
		ov.OtherParty.Role = models.UserRole(role)
		last.MessageType = models.MessageType(msgType)
		last.Status = models.MessageStatus(status)
		ov.LastMessage = &last
		overviews = append(overviews, ov)
	}
	return overviews, rows.Err()
}

// MarkRead clears the unread counter of the session and marks every message
// addressed to readerID as read. It returns the number of messages changed.
func (r *ChatRepository) MarkRead(ctx context.Context, sessionID, readerID string) (int64, error) {
	var changed int64
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `UPDATE chat_sessions SET unread_count = 0 WHERE id = $1`, sessionID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrSessionNotFound
		}

		cmd, err = tx.Exec(ctx, `
			UPDATE direct_messages SET status = 'read', updated_at = NOW()
			WHERE chat_id = $1 AND receiver_id = $2 AND status <> 'read'
		`, sessionID, readerID)
		if err != nil {
			return err
		}
		changed = cmd.RowsAffected()
		return nil
	})
	return changed, err
}

func scanSession(row pgx.Row) (models.ChatSession, error) {
	var s models.ChatSession
	if err := row.Scan(
		&s.ID,
		&s.StudentID,
		&s.TeacherID,
		&s.LastMessageID,
		&s.UnreadCount,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ChatSession{}, ErrSessionNotFound
		}
		return models.ChatSession{}, err
	}
	return s, nil
}
