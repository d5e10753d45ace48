package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pigeon/internal/bus"
	"pigeon/internal/models"
	"pigeon/internal/session"
)

// fakeStore is an in-memory MessageStore. Reads return copies so mutations
// only land through Upsert, like the real repository.
type fakeStore struct {
	mu          sync.Mutex
	byID        map[int64]*models.Message
	failUpsert  map[string]bool // unique ids whose upsert fails
	droppedBlob []int64
	upserts     int
}

func newFakeStore(messages ...*models.Message) *fakeStore {
	s := &fakeStore{byID: make(map[int64]*models.Message), failUpsert: make(map[string]bool)}
	for _, m := range messages {
		c := *m
		s.byID[m.ID] = &c
	}
	return s
}

func (s *fakeStore) Get(id int64) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	c := *m
	return &c, nil
}

func (s *fakeStore) GetByUniqueID(uniqueID string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.byID {
		if m.UniqueID == uniqueID {
			c := *m
			return &c, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetByPreviousID(id int64) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *models.Message
	for _, m := range s.byID {
		if m.Deleted || m.PreviousMessageID != id {
			continue
		}
		if best == nil || m.ID < best.ID {
			best = m
		}
	}
	if best == nil {
		return nil, nil
	}
	c := *best
	return &c, nil
}

func (s *fakeStore) Upsert(m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpsert[m.UniqueID] {
		return fmt.Errorf("upsert %s: disk full", m.UniqueID)
	}
	c := *m
	s.byID[m.ID] = &c
	s.upserts++
	return nil
}

func (s *fakeStore) Contains(m *models.Message) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cached := range s.byID {
		if cached.UniqueID == m.UniqueID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) DeleteLocalAttachment(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.droppedBlob = append(s.droppedBlob, id)
	return nil
}

// snapshot returns all live (non-deleted) messages keyed by id.
func (s *fakeStore) snapshot() map[int64]models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]models.Message, len(s.byID))
	for id, m := range s.byID {
		out[id] = *m
	}
	return out
}

type fakeRooms struct {
	mu    sync.Mutex
	rooms map[int64]*models.ChatRoom
}

func newFakeRooms(rooms ...*models.ChatRoom) *fakeRooms {
	f := &fakeRooms{rooms: make(map[int64]*models.ChatRoom)}
	for _, r := range rooms {
		c := *r
		f.rooms[r.ID] = &c
	}
	return f
}

func (f *fakeRooms) GetRoom(id int64) (*models.ChatRoom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[id]
	if !ok {
		return nil, nil
	}
	c := *r
	return &c, nil
}

func (f *fakeRooms) UpsertRoom(room *models.ChatRoom) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *room
	f.rooms[room.ID] = &c
	return nil
}

type renderCall struct {
	roomID int64
	window []NotificationItem
	total  int
	newest NotificationItem
}

type fakeRenderer struct {
	mu      sync.Mutex
	renders []renderCall
	clears  []int64
}

func (f *fakeRenderer) Render(roomID int64, window []NotificationItem, total int, newest NotificationItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renders = append(f.renders, renderCall{roomID: roomID, window: window, total: total, newest: newest})
	return nil
}

func (f *fakeRenderer) Clear(roomID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears = append(f.clears, roomID)
	return nil
}

func (f *fakeRenderer) lastRender() (renderCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.renders) == 0 {
		return renderCall{}, false
	}
	return f.renders[len(f.renders)-1], true
}

func (f *fakeRenderer) renderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.renders)
}

func (f *fakeRenderer) clearCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clears)
}

type fakeCursors struct {
	mu            sync.Mutex
	lastEventID   int64
	lastMessageID int64
}

func (f *fakeCursors) LastEventID() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastEventID
}

func (f *fakeCursors) SetLastEventID(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastEventID = id
	return nil
}

func (f *fakeCursors) LastMessageID() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastMessageID
}

func (f *fakeCursors) SetLastMessageID(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastMessageID = id
	return nil
}

type fakeGate struct {
	mu         sync.Mutex
	loggedIn   bool
	connected  bool
	foreground bool
}

func (g *fakeGate) LoggedIn() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loggedIn
}

func (g *fakeGate) Connected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connected
}

func (g *fakeGate) Foregrounded() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.foreground
}

type fakeSyncAPI struct {
	mu         sync.Mutex
	messages   []*models.Message
	events     []models.DeletionEvent
	maxEventID int64
	syncErr    error
	eventErr   error
	syncCalls  int
	eventCalls int
}

func (f *fakeSyncAPI) Sync(ctx context.Context, lastMessageID int64) ([]*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncCalls++
	if f.syncErr != nil {
		return nil, f.syncErr
	}
	return f.messages, nil
}

func (f *fakeSyncAPI) SyncEvents(ctx context.Context, lastEventID int64) ([]models.DeletionEvent, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.eventCalls++
	if f.eventErr != nil {
		return nil, 0, f.eventErr
	}
	return f.events, f.maxEventID, nil
}

func (f *fakeSyncAPI) calls() (syncCalls, eventCalls int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.syncCalls, f.eventCalls
}

// makeToken signs an identity token the session can parse.
func makeToken(t *testing.T, userID, name string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID,
		"name":    name,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

// loggedInSession builds a session for the given user id.
func loggedInSession(t *testing.T, b *bus.Bus, userID, name string) *session.Session {
	t.Helper()
	sess := session.New(b)
	if _, err := sess.SetUser(makeToken(t, userID, name)); err != nil {
		t.Fatalf("set user: %v", err)
	}
	return sess
}
