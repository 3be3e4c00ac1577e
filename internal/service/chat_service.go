package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Zorochan404/inf-chat/internal/apperr"
	"github.com/Zorochan404/inf-chat/internal/config"
	"github.com/Zorochan404/inf-chat/internal/ids"
	"github.com/Zorochan404/inf-chat/internal/models"
	"github.com/Zorochan404/inf-chat/internal/realtime"
	"github.com/Zorochan404/inf-chat/internal/repository"
	"github.com/Zorochan404/inf-chat/internal/security"
)

const (
	DefaultHistoryLimit = 50
	DefaultOlderLimit   = 20
	MaxPageLimit        = 50
)

type ChatService struct {
	users      UserStore
	chats      ChatStore
	notifier   realtime.Notifier
	roomPrefix string
	log        zerolog.Logger
}

func NewChatService(users UserStore, chats ChatStore, notifier realtime.Notifier, cfg *config.AppConfig, log zerolog.Logger) *ChatService {
	return &ChatService{
		users:      users,
		chats:      chats,
		notifier:   notifier,
		roomPrefix: cfg.Realtime.RoomPrefix,
		log:        log,
	}
}

type SendMessageInput struct {
	ReceiverID  string             `json:"receiverId"`
	Content     string             `json:"content"`
	MessageType models.MessageType `json:"messageType"`
	FileURL     string             `json:"fileUrl"`
	FileName    string             `json:"fileName"`
}

type SendResult struct {
	Message MessageView `json:"message"`
	Session SessionView `json:"session"`
}

type NewMessageEvent struct {
	Message MessageView     `json:"message"`
	Session SessionView     `json:"session"`
	Sender  ParticipantView `json:"sender"`
}

type MessageSentEvent struct {
	Message MessageView `json:"message"`
	Session SessionView `json:"session"`
}

// SendMessage appends a message between a student and a teacher, creating
// their session on first contact, then pushes it to both users' rooms.
func (s *ChatService) SendMessage(ctx context.Context, caller security.Identity, input SendMessageInput) (SendResult, error) {
	input.ReceiverID = strings.TrimSpace(input.ReceiverID)
	if input.ReceiverID == "" || strings.TrimSpace(input.Content) == "" {
		return SendResult{}, apperr.Validation("Receiver ID and content are required")
	}
	if !ids.Valid(caller.UserID) || !ids.Valid(input.ReceiverID) {
		return SendResult{}, apperr.Validation("Invalid user IDs provided")
	}
	if input.MessageType == "" {
		input.MessageType = models.MessageTypeText
	}
	if !input.MessageType.Valid() {
		return SendResult{}, apperr.Validation("messageType must be one of text, image, file")
	}

	sender, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		return SendResult{}, s.lookupError(err)
	}
	receiver, err := s.users.GetByID(ctx, input.ReceiverID)
	if err != nil {
		return SendResult{}, s.lookupError(err)
	}

	pair, ok := canonicalPair(sender, receiver)
	if !ok {
		return SendResult{}, apperr.Forbidden("Communication only allowed between students and teachers")
	}

	candidate := models.ChatSession{ID: ids.New(), StudentID: pair.StudentID, TeacherID: pair.TeacherID}
	msg := models.DirectMessage{
		ID:          ids.New(),
		SenderID:    sender.ID,
		ReceiverID:  receiver.ID,
		Content:     input.Content,
		MessageType: input.MessageType,
		FileURL:     strings.TrimSpace(input.FileURL),
		FileName:    strings.TrimSpace(input.FileName),
		Status:      models.MessageStatusSent,
	}

	session, stored, err := s.chats.AppendMessage(ctx, candidate, msg)
	if err != nil {
		return SendResult{}, apperr.Internal("Failed to send message. Please try again later.", err)
	}

	view := messageView(stored)
	s.publish(ctx, receiver.ID, realtime.EventNewMessage, NewMessageEvent{
		Message: view,
		Session: sessionView(session, false),
		Sender:  participantFromUser(sender),
	})
	s.publish(ctx, sender.ID, realtime.EventMessageSent, MessageSentEvent{
		Message: view,
		Session: sessionView(session, false),
	})

	s.log.Debug().
		Str("session_id", session.ID).
		Str("message_id", stored.ID).
		Str("sender_id", sender.ID).
		Msg("message sent")

	return SendResult{Message: view, Session: sessionView(session, true)}, nil
}

// publish is best effort; failures never reach the caller.
func (s *ChatService) publish(ctx context.Context, userID, event string, payload any) {
	if s.notifier == nil {
		return
	}
	room := realtime.UserRoom(s.roomPrefix, userID)
	if err := s.notifier.Publish(ctx, room, event, payload); err != nil {
		s.log.Warn().Err(err).Str("room", room).Str("event", event).Msg("realtime publish failed")
	}
}

func (s *ChatService) lookupError(err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return apperr.NotFound("Sender or receiver not found")
	}
	return apperr.Internal("Failed to send message. Please try again later.", err)
}

// canonicalPair orders a student and a teacher regardless of who sent. Any
// other pairing is refused.
func canonicalPair(a, b models.User) (models.ChatPair, bool) {
	switch {
	case a.Role == models.RoleStudent && b.Role == models.RoleTeacher:
		return models.ChatPair{StudentID: a.ID, TeacherID: b.ID}, true
	case a.Role == models.RoleTeacher && b.Role == models.RoleStudent:
		return models.ChatPair{StudentID: b.ID, TeacherID: a.ID}, true
	}
	return models.ChatPair{}, false
}

type HistoryQuery struct {
	OtherPartyID  string
	Page          int
	Limit         int
	LastMessageID string
}

type HistoryPagination struct {
	HasMore         bool    `json:"hasMore"`
	TotalMessages   int     `json:"totalMessages"`
	LoadedCount     int     `json:"loadedCount"`
	OldestMessageID *string `json:"oldestMessageId"`
	NewestMessageID *string `json:"newestMessageId"`
	Limit           int     `json:"limit"`
	Page            int     `json:"page"`
}

type HistoryResult struct {
	Session    SessionView       `json:"session"`
	Messages   []MessageView     `json:"messages"`
	Pagination HistoryPagination `json:"pagination"`
}

// GetChatHistory returns the newest page of the conversation with the other
// party in chronological order. A well-formed LastMessageID narrows the page
// to strictly older messages; a malformed one is ignored.
func (s *ChatService) GetChatHistory(ctx context.Context, caller security.Identity, q HistoryQuery) (HistoryResult, error) {
	if !ids.Valid(q.OtherPartyID) {
		return HistoryResult{}, apperr.Validation("Valid receiver ID is required")
	}
	if q.Page < 1 || q.Limit < 1 || q.Limit > MaxPageLimit {
		return HistoryResult{}, apperr.Validation("Invalid pagination parameters. Page must be >= 1, limit must be between 1-50")
	}
	if !ids.Valid(q.LastMessageID) {
		q.LastMessageID = ""
	}

	session, err := s.findSession(ctx, caller.UserID, q.OtherPartyID)
	if err != nil {
		return HistoryResult{}, err
	}

	total, err := s.chats.CountMessages(ctx, session.ID)
	if err != nil {
		return HistoryResult{}, apperr.Internal("Failed to retrieve chat history. Please try again later.", err)
	}

	messages, hasMore, err := s.page(ctx, session.ID, q.LastMessageID, q.Limit)
	if err != nil {
		return HistoryResult{}, apperr.Internal("Failed to retrieve chat history. Please try again later.", err)
	}

	oldest, newest := bounds(messages)
	return HistoryResult{
		Session:  sessionView(session, true),
		Messages: messages,
		Pagination: HistoryPagination{
			HasMore:         hasMore,
			TotalMessages:   total,
			LoadedCount:     len(messages),
			OldestMessageID: oldest,
			NewestMessageID: newest,
			Limit:           q.Limit,
			Page:            q.Page,
		},
	}, nil
}

type OlderQuery struct {
	OtherPartyID    string
	BeforeMessageID string
	Limit           int
}

type OlderPagination struct {
	HasMoreOlder    bool    `json:"hasMoreOlder"`
	LoadedCount     int     `json:"loadedCount"`
	OldestMessageID *string `json:"oldestMessageId"`
	Limit           int     `json:"limit"`
}

type OlderResult struct {
	Messages   []MessageView   `json:"messages"`
	Pagination OlderPagination `json:"pagination"`
}

func (s *ChatService) LoadOlderMessages(ctx context.Context, caller security.Identity, q OlderQuery) (OlderResult, error) {
	if !ids.Valid(q.OtherPartyID) {
		return OlderResult{}, apperr.Validation("Valid receiver ID is required")
	}
	if !ids.Valid(q.BeforeMessageID) {
		return OlderResult{}, apperr.Validation("Valid beforeMessageId is required for loading older messages")
	}
	if q.Limit < 1 || q.Limit > MaxPageLimit {
		return OlderResult{}, apperr.Validation("Limit must be between 1-50")
	}

	session, err := s.findSession(ctx, caller.UserID, q.OtherPartyID)
	if err != nil {
		return OlderResult{}, err
	}

	messages, hasMore, err := s.page(ctx, session.ID, q.BeforeMessageID, q.Limit)
	if err != nil {
		return OlderResult{}, apperr.Internal("Failed to load older messages. Please try again later.", err)
	}

	oldest, _ := bounds(messages)
	return OlderResult{
		Messages: messages,
		Pagination: OlderPagination{
			HasMoreOlder:    hasMore,
			LoadedCount:     len(messages),
			OldestMessageID: oldest,
			Limit:           q.Limit,
		},
	}, nil
}

// page fetches one extra row to learn whether anything older remains, then
// flips the newest-first rows into chronological order.
func (s *ChatService) page(ctx context.Context, sessionID, beforeID string, limit int) ([]MessageView, bool, error) {
	entries, err := s.chats.ListMessages(ctx, sessionID, beforeID, limit+1)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}

	messages := make([]MessageView, len(entries))
	for i, entry := range entries {
		messages[len(entries)-1-i] = ledgerView(entry)
	}
	return messages, hasMore, nil
}

func (s *ChatService) findSession(ctx context.Context, a, b string) (models.ChatSession, error) {
	session, err := s.chats.FindSession(ctx, a, b)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return models.ChatSession{}, apperr.NotFound("Chat session not found")
		}
		return models.ChatSession{}, apperr.Internal("internal server error", err)
	}
	return session, nil
}

func bounds(messages []MessageView) (oldest, newest *string) {
	if len(messages) == 0 {
		return nil, nil
	}
	first, last := messages[0].ID, messages[len(messages)-1].ID
	return &first, &last
}

type SessionSummary struct {
	Session     SessionView     `json:"session"`
	OtherParty  ParticipantView `json:"otherParty"`
	LastMessage *MessageView    `json:"lastMessage"`
}

// ListSessions returns the caller's conversations, most recent first.
func (s *ChatService) ListSessions(ctx context.Context, caller security.Identity) ([]SessionSummary, error) {
	overviews, err := s.chats.ListSessions(ctx, caller.UserID)
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve chat sessions. Please try again later.", err)
	}

	out := make([]SessionSummary, 0, len(overviews))
	for _, ov := range overviews {
		summary := SessionSummary{
			Session:    sessionView(ov.Session, true),
			OtherParty: participantView(ov.OtherParty),
		}
		if ov.LastMessage != nil {
			last := messageView(*ov.LastMessage)
			summary.LastMessage = &last
		}
		out = append(out, summary)
	}
	return out, nil
}

type MarkReadResult struct {
	SessionID string `json:"sessionId"`
	Updated   int64  `json:"updated"`
}

// MarkRead clears the session's unread counter and marks the messages the
// caller received as read.
func (s *ChatService) MarkRead(ctx context.Context, caller security.Identity, otherPartyID string) (MarkReadResult, error) {
	if !ids.Valid(otherPartyID) {
		return MarkReadResult{}, apperr.Validation("Valid receiver ID is required")
	}

	session, err := s.findSession(ctx, caller.UserID, otherPartyID)
	if err != nil {
		return MarkReadResult{}, err
	}

	updated, err := s.chats.MarkRead(ctx, session.ID, caller.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return MarkReadResult{}, apperr.NotFound("Chat session not found")
		}
		return MarkReadResult{}, apperr.Internal("internal server error", err)
	}
	return MarkReadResult{SessionID: session.ID, Updated: updated}, nil
}
