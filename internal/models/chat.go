package models

import "time"

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeFile  MessageType = "file"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeFile:
		return true
	}
	return false
}

type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
)

// ChatPair is the canonical (student, teacher) key of a conversation.
type ChatPair struct {
	StudentID string
	TeacherID string
}

type ChatSession struct {
	ID            string
	StudentID     string
	TeacherID     string
	LastMessageID string
	UnreadCount   int
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type DirectMessage struct {
	ID          string
	Seq         int64
	ChatID      string
	SenderID    string
	ReceiverID  string
	Content     string
	MessageType MessageType
	FileURL     string
	FileName    string
	Status      MessageStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Participant is the public slice of a user shown next to chat data.
type Participant struct {
	ID        string
	Name      string
	AvatarURL string
	Role      UserRole
}

// LedgerEntry is a message with both participants resolved.
type LedgerEntry struct {
	Message  DirectMessage
	Sender   Participant
	Receiver Participant
}

// SessionOverview is a conversation as seen by one of its members.
type SessionOverview struct {
	Session     ChatSession
	OtherParty  Participant
	LastMessage *DirectMessage
}
