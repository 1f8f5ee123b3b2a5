package api

import (
	"context"
	"strings"
	"sync"

	"dchat/internal/models"
	"dchat/internal/repository"
)

// In-memory repository fakes. They reproduce the storage contract the pgx
// stores implement: ErrNotFound for missing rows, ErrDuplicate for unique
// violations (username, unordered chat pair), ids assigned monotonically.

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]models.User
}

func newMemUsers() *memUsers {
	return &memUsers{nextID: 1, users: map[int64]models.User{}}
}

func (m *memUsers) add(username, passwordHash string, isAdmin bool) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := models.User{ID: m.nextID, Username: username, Password: passwordHash, IsAdmin: isAdmin}
	m.users[u.ID] = u
	m.nextID++
	return u
}

func (m *memUsers) Create(_ context.Context, username, passwordHash string) (*models.User, error) {
	m.mu.Lock()
	for _, u := range m.users {
		if u.Username == username {
			m.mu.Unlock()
			return nil, repository.ErrDuplicate
		}
	}
	m.mu.Unlock()
	u := m.add(username, passwordHash, false)
	return &u, nil
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) SearchByUsername(_ context.Context, substr string) ([]models.UserHead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	heads := []models.UserHead{}
	for _, u := range m.users {
		if strings.Contains(u.Username, substr) {
			heads = append(heads, u.Head())
		}
	}
	return heads, nil
}

type memChats struct {
	mu     sync.Mutex
	nextID int64
	chats  map[int64]models.Chat
}

func newMemChats() *memChats {
	return &memChats{nextID: 1, chats: map[int64]models.Chat{}}
}

func (m *memChats) Create(_ context.Context, owner, receiver, lastActivity int64) (*models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.chats {
		samePair := (c.Owner == owner && c.Receiver == receiver) ||
			(c.Owner == receiver && c.Receiver == owner)
		if samePair {
			return nil, repository.ErrDuplicate
		}
	}
	c := models.Chat{ID: m.nextID, Owner: owner, Receiver: receiver, LastActivity: lastActivity}
	m.chats[c.ID] = c
	m.nextID++
	return &c, nil
}

func (m *memChats) GetByID(_ context.Context, id int64) (*models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (m *memChats) ListForUserSince(_ context.Context, userID, since int64) ([]models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chats := []models.Chat{}
	for _, c := range m.chats {
		if c.HasParticipant(userID) && c.LastActivity >= since {
			chats = append(chats, c)
		}
	}
	return chats, nil
}

func (m *memChats) DeleteIfParticipant(_ context.Context, userID, chatID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[chatID]
	if !ok || !c.HasParticipant(userID) {
		return false, nil
	}
	delete(m.chats, chatID)
	return true, nil
}

type memMessages struct {
	mu       sync.Mutex
	nextID   int64
	messages []models.Message
}

func newMemMessages() *memMessages {
	return &memMessages{nextID: 1}
}

func (m *memMessages) Create(_ context.Context, sender, chat int64, content string, sentAt int64) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := models.Message{ID: m.nextID, Sender: sender, SentAt: sentAt, Chat: chat, Content: content}
	m.messages = append(m.messages, msg)
	m.nextID++
	return &msg, nil
}

func (m *memMessages) ListForChatSince(_ context.Context, chatID, since int64) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Message{}
	for _, msg := range m.messages {
		if msg.Chat == chatID && msg.SentAt >= since {
			out = append(out, msg)
		}
	}
	return out, nil
}

type memActivities struct {
	mu         sync.Mutex
	nextID     int64
	activities []models.Activity
}

func newMemActivities() *memActivities {
	return &memActivities{nextID: 1}
}

func (m *memActivities) Create(_ context.Context, owner int64, typ models.ActivityType, timestamp int64) (*models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := models.Activity{ID: m.nextID, Owner: owner, Type: typ, Timestamp: timestamp}
	m.activities = append(m.activities, a)
	m.nextID++
	return &a, nil
}

func (m *memActivities) ListByTypeSince(_ context.Context, typ models.ActivityType, since int64) ([]models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Activity{}
	for _, a := range m.activities {
		if a.Type == typ && a.Timestamp >= since {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memActivities) byType(typ models.ActivityType) []models.Activity {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Activity{}
	for _, a := range m.activities {
		if a.Type == typ {
			out = append(out, a)
		}
	}
	return out
}
