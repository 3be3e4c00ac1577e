package service

import (
	"time"

	"github.com/Zorochan404/inf-chat/internal/models"
)

// Wire shapes shared by the HTTP responses and realtime events.

type ParticipantView struct {
	ID     string          `json:"_id"`
	Name   string          `json:"name"`
	Avatar string          `json:"avatar"`
	Role   models.UserRole `json:"role"`
}

type MessageView struct {
	ID          string               `json:"_id"`
	ChatID      string               `json:"chat_id"`
	SenderID    string               `json:"sender_id"`
	ReceiverID  string               `json:"receiver_id"`
	Content     string               `json:"content"`
	MessageType models.MessageType   `json:"messageType"`
	FileURL     string               `json:"fileUrl,omitempty"`
	FileName    string               `json:"fileName,omitempty"`
	Status      models.MessageStatus `json:"status"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
	Sender      *ParticipantView     `json:"sender,omitempty"`
	Receiver    *ParticipantView     `json:"receiver,omitempty"`
}

// SessionView is the trimmed session summary. UnreadCount is left out of
// realtime payloads.
type SessionView struct {
	ID          string `json:"_id"`
	StudentID   string `json:"student_id"`
	ProfessorID string `json:"professor_id"`
	IsActive    bool   `json:"isActive"`
	UnreadCount *int   `json:"unreadCount,omitempty"`
}

type GroupView struct {
	ID             string    `json:"_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	CreatedBy      string    `json:"created_by"`
	StudentIDs     []string  `json:"student_id"`
	ProfessorIDs   []string  `json:"professor_id"`
	Subject        string    `json:"subject"`
	MaxMembers     int       `json:"max_Members"`
	ProfControlled bool      `json:"prof_controlled"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func participantView(p models.Participant) ParticipantView {
	return ParticipantView{ID: p.ID, Name: p.Name, Avatar: p.AvatarURL, Role: p.Role}
}

func participantFromUser(u models.User) ParticipantView {
	return ParticipantView{ID: u.ID, Name: u.Name, Avatar: u.AvatarURL, Role: u.Role}
}

func messageView(m models.DirectMessage) MessageView {
	return MessageView{
		ID:          m.ID,
		ChatID:      m.ChatID,
		SenderID:    m.SenderID,
		ReceiverID:  m.ReceiverID,
		Content:     m.Content,
		MessageType: m.MessageType,
		FileURL:     m.FileURL,
		FileName:    m.FileName,
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func ledgerView(e models.LedgerEntry) MessageView {
	v := messageView(e.Message)
	sender := participantView(e.Sender)
	receiver := participantView(e.Receiver)
	v.Sender = &sender
	v.Receiver = &receiver
	return v
}

func sessionView(s models.ChatSession, withUnread bool) SessionView {
	v := SessionView{
		ID:          s.ID,
		StudentID:   s.StudentID,
		ProfessorID: s.TeacherID,
		IsActive:    s.IsActive,
	}
	if withUnread {
		unread := s.UnreadCount
		v.UnreadCount = &unread
	}
	return v
}

func groupView(g models.StudyGroup) GroupView {
	return GroupView{
		ID:             g.ID,
		Name:           g.Name,
		Description:    g.Description,
		CreatedBy:      g.CreatedBy,
		StudentIDs:     nonNilIDs(g.StudentIDs),
		ProfessorIDs:   nonNilIDs(g.TeacherIDs),
		Subject:        g.Subject,
		MaxMembers:     g.MaxMembers,
		ProfControlled: g.ProfControlled,
		CreatedAt:      g.CreatedAt,
		UpdatedAt:      g.UpdatedAt,
	}
}

func groupViews(groups []models.StudyGroup) []GroupView {
	out := make([]GroupView, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupView(g))
	}
	return out
}

func nonNilIDs(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
