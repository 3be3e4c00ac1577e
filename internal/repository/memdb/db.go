// Package memdb is an in-memory implementation of the repositories, used to
// drive services and handlers without Postgres.
package memdb

import (
	"sync"

	"github.com/Zorochan404/inf-chat/internal/models"
)

type DB struct {
	users  *userTable
	chats  *chatTable
	groups *groupTable
}

type userTable struct {
	sync.RWMutex
	byID    map[string]models.User
	order   []string
	creates int
}

type chatTable struct {
	sync.Mutex
	sessions map[models.ChatPair]*models.ChatSession
	messages []models.DirectMessage
	seq      int64
}

type groupTable struct {
	sync.Mutex
	groups map[string]models.StudyGroup
}

func Open() *DB {
	return &DB{
		users:  &userTable{byID: make(map[string]models.User)},
		chats:  &chatTable{sessions: make(map[models.ChatPair]*models.ChatSession)},
		groups: &groupTable{groups: make(map[string]models.StudyGroup)},
	}
}

func participant(u models.User) models.Participant {
	return models.Participant{ID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL, Role: u.Role}
}
