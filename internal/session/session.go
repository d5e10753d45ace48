package session

import (
	"log"
	"sync"

	"pigeon/internal/auth"
	"pigeon/internal/bus"
	"pigeon/internal/models"
)

// Session tracks the signed-in account, which room the user is currently
// viewing, and whether the app is foregrounded. It is the single source of
// truth for the scheduler's "may I sync" gate and the aggregator's
// viewed-room guard.
type Session struct {
	bus *bus.Bus

	mu         sync.RWMutex
	account    *models.Account
	foreground bool
	viewedRoom int64 // 0 = no room open
}

func New(b *bus.Bus) *Session {
	return &Session{bus: b, foreground: true}
}

// SetUser establishes a session from an identity token and publishes LoggedIn.
func (s *Session) SetUser(token string) (*models.Account, error) {
	claims, err := auth.ParseIdentityToken(token)
	if err != nil {
		return nil, err
	}
	account := &models.Account{
		ID:        claims.UserID,
		Name:      claims.Name,
		AvatarURL: claims.AvatarURL,
		Token:     token,
	}
	s.mu.Lock()
	s.account = account
	s.mu.Unlock()
	log.Printf("[session] user %s signed in", account.ID)
	s.bus.Publish(bus.LoggedIn{Account: account})
	return account, nil
}

// Clear drops the session and publishes LoggedOut. Safe when not signed in.
func (s *Session) Clear() {
	s.mu.Lock()
	hadUser := s.account != nil
	s.account = nil
	s.viewedRoom = 0
	s.mu.Unlock()
	if hadUser {
		s.bus.Publish(bus.LoggedOut{})
	}
}

func (s *Session) Account() *models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account
}

func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account != nil
}

func (s *Session) SetForeground(fg bool) {
	s.mu.Lock()
	s.foreground = fg
	s.mu.Unlock()
}

func (s *Session) Foregrounded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.foreground
}

// EnterRoom marks roomID as the actively viewed room.
func (s *Session) EnterRoom(roomID int64) {
	s.mu.Lock()
	s.viewedRoom = roomID
	s.mu.Unlock()
}

func (s *Session) LeaveRoom() {
	s.mu.Lock()
	s.viewedRoom = 0
	s.mu.Unlock()
}

// ViewedRoom reports the open room, if any.
func (s *Session) ViewedRoom() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewedRoom, s.viewedRoom != 0
}
