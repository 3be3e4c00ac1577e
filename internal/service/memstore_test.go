package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Zorochan404/inf-chat/internal/config"
	"github.com/Zorochan404/inf-chat/internal/repository/memdb"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Security: config.SecurityConfig{
			JWTSecret:         "test-secret",
			JWTTTL:            time.Hour,
			PasswordCost:      4,
			MinPasswordLength: 6,
		},
		Realtime: config.RealtimeConfig{RoomPrefix: "user_"},
		Storage:  config.StorageConfig{MaxAttachmentBytes: 1 << 10},
	}
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// Each constructor opens its own store; chats share users through a common DB.
func newMemUsers() *memdb.UserRepository {
	return memdb.NewUserRepository(memdb.Open())
}

func newMemStores() (*memdb.UserRepository, *memdb.ChatRepository) {
	db := memdb.Open()
	return memdb.NewUserRepository(db), memdb.NewChatRepository(db)
}

func newMemGroups() *memdb.GroupRepository {
	return memdb.NewGroupRepository(memdb.Open())
}

type published struct {
	Room    string
	Event   string
	Payload any
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (n *recordingNotifier) Publish(_ context.Context, room, event string, payload any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, published{Room: room, Event: event, Payload: payload})
	return n.err
}

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memObjects) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return int64(len(data)), nil
}

func (m *memObjects) PublicURL(key string) string {
	return "https://files.test/" + key
}
