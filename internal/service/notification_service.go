package service

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"

	"pigeon/config"
	"pigeon/internal/bus"
	"pigeon/internal/domain"
	"pigeon/internal/models"
	"pigeon/internal/session"
)

// Renderer turns a pending-queue snapshot into a platform notification. The
// service only decides whether and with what content; rendering is external.
type Renderer interface {
	Render(roomID int64, window []NotificationItem, total int, newest NotificationItem) error
	Clear(roomID int64) error
}

// RoomFetcher pulls an unknown room from the server into the local cache.
type RoomFetcher func(ctx context.Context, roomID int64) error

// NotificationService aggregates new-message and deletion events into
// per-room pending queues and issues render, update, or clear requests.
type NotificationService struct {
	store     MessageStore
	rooms     RoomStore
	session   *session.Session
	cfg       config.NotificationConfig
	renderer  Renderer
	fetchRoom RoomFetcher
	bus       *bus.Bus

	mu     sync.Mutex
	queues map[int64]*PendingQueue
}

func NewNotificationService(store MessageStore, rooms RoomStore, sess *session.Session,
	cfg config.NotificationConfig, renderer Renderer, fetchRoom RoomFetcher, b *bus.Bus) *NotificationService {
	return &NotificationService{
		store:     store,
		rooms:     rooms,
		session:   sess,
		cfg:       cfg,
		renderer:  renderer,
		fetchRoom: fetchRoom,
		bus:       b,
		queues:    make(map[int64]*PendingQueue),
	}
}

// queue lazily creates the per-room pending queue on first use.
func (s *NotificationService) queue(roomID int64) *PendingQueue {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queues[roomID]
	if !ok {
		q = &PendingQueue{}
		s.queues[roomID] = q
	}
	return q
}

// peek returns the queue only if it already exists.
func (s *NotificationService) peek(roomID int64) *PendingQueue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queues[roomID]
}

// OnMessage accepts a message from either the sync path or live push. It is
// idempotent by message identity: duplicate delivery from both paths changes
// nothing.
func (s *NotificationService) OnMessage(m *models.Message) {
	seen, err := s.store.Contains(m)
	if err != nil {
		log.Printf("[notify] contains %s: %v", m.UniqueID, err)
		return
	}
	if seen {
		return
	}
	if err := s.store.Upsert(m); err != nil {
		log.Printf("[notify] persist %s: %v", m.UniqueID, err)
		return
	}
	s.bus.Publish(bus.NewMessage{Message: m})

	viewed, viewing := s.session.ViewedRoom()
	outsideRoom := !viewing || viewed != m.RoomID
	if outsideRoom {
		s.bumpUnread(m)
	}

	if !s.cfg.Enabled {
		return
	}
	account := s.session.Account()
	if account == nil || strings.EqualFold(m.SenderID, account.ID) {
		return
	}
	if s.cfg.OnlyWhenOutsideRoom && !outsideRoom {
		return
	}

	item := NotificationItem{
		MessageID: m.ID,
		RoomID:    m.RoomID,
		Text:      s.renderText(m),
		Timestamp: m.Timestamp,
	}
	q := s.queue(m.RoomID)
	if !q.Enqueue(item) {
		return
	}
	if err := s.renderer.Render(m.RoomID, q.Window(), q.Total(), item); err != nil {
		log.Printf("[notify] render room %d: %v", m.RoomID, err)
	}
}

// bumpUnread maintains the room's unread counter. An unknown room triggers an
// asynchronous fetch instead; the counter catches up once the room record
// lands with its server-side count.
func (s *NotificationService) bumpUnread(m *models.Message) {
	room, err := s.rooms.GetRoom(m.RoomID)
	if err != nil {
		log.Printf("[notify] room %d: %v", m.RoomID, err)
		return
	}
	if room == nil {
		if s.fetchRoom != nil {
			go func() {
				if err := s.fetchRoom(context.Background(), m.RoomID); err != nil {
					log.Printf("[notify] fetch room %d: %v", m.RoomID, err)
				}
			}()
		}
		return
	}
	account := s.session.Account()
	if account != nil && strings.EqualFold(m.SenderID, account.ID) {
		room.UnreadCount = 0
	} else {
		room.UnreadCount++
	}
	room.LastMessageID = m.ID
	if err := s.rooms.UpsertRoom(room); err != nil {
		log.Printf("[notify] persist room %d: %v", m.RoomID, err)
	}
}

// OnDeletion reconciles the pending queues after the deletion processor runs:
// hard deletes drop the matching items, soft deletes rewrite their text. Any
// change re-issues a render with the queue's current last item, or a clear
// when the queue drained.
func (s *NotificationService) OnDeletion(messages []models.Message, hard bool) {
	changed := make(map[int64]bool)
	for i := range messages {
		m := &messages[i]
		q := s.peek(m.RoomID)
		if q == nil {
			continue
		}
		if hard {
			if q.Remove(m.ID) {
				changed[m.RoomID] = true
			}
		} else {
			item := NotificationItem{
				MessageID: m.ID,
				RoomID:    m.RoomID,
				Text:      s.renderText(m),
				Timestamp: m.Timestamp,
			}
			if q.Update(item) {
				changed[m.RoomID] = true
			}
		}
	}

	for roomID := range changed {
		q := s.peek(roomID)
		last, ok := q.Last()
		if !ok {
			if err := s.renderer.Clear(roomID); err != nil {
				log.Printf("[notify] clear room %d: %v", roomID, err)
			}
			continue
		}
		if err := s.renderer.Render(roomID, q.Window(), q.Total(), last); err != nil {
			log.Printf("[notify] render room %d: %v", roomID, err)
		}
	}
}

// Clear empties a room's pending queue and dismisses its notification. Called
// when the user opens the room.
func (s *NotificationService) Clear(roomID int64) {
	if q := s.peek(roomID); q != nil {
		q.Clear()
	}
	if err := s.renderer.Clear(roomID); err != nil {
		log.Printf("[notify] clear room %d: %v", roomID, err)
	}
}

// Pending exposes a queue snapshot for the debug surface.
func (s *NotificationService) Pending(roomID int64) (window []NotificationItem, total int) {
	q := s.peek(roomID)
	if q == nil {
		return nil, 0
	}
	return q.Window(), q.Total()
}

const (
	glyphCamera   = "\U0001F4F7 "
	glyphClapper  = "\U0001F3A5 "
	glyphSpeaker  = "\U0001F50A "
	glyphPhone    = "☎ "
	glyphPin      = "\U0001F4CD "
	glyphBook     = "\U0001F4DA "
	glyphDocument = "\U0001F4C4 "
)

type contactPayload struct {
	Name string `json:"name"`
}

type carouselPayload struct {
	Cards []struct {
		Title string `json:"title"`
	} `json:"cards"`
}

// renderText builds the alert line for one message: a type-specific glyph and
// summary, prefixed with the sender's first given name in group rooms.
func (s *NotificationService) renderText(m *models.Message) string {
	if m.Type == domain.TypeSystemEvent {
		return ""
	}
	prefix := ""
	if m.GroupMessage {
		if first := strings.SplitN(m.SenderName, " ", 2)[0]; first != "" {
			prefix = first + ": "
		}
	}

	switch m.Type {
	case domain.TypeImage:
		if m.Caption == "" {
			return prefix + glyphCamera + "sent a photo"
		}
		return prefix + glyphCamera + s.resolveMentions(m.Caption, m.RoomID)
	case domain.TypeVideo:
		if m.Caption == "" {
			return prefix + glyphClapper + "sent a video"
		}
		return prefix + glyphClapper + s.resolveMentions(m.Caption, m.RoomID)
	case domain.TypeAudio:
		return prefix + glyphSpeaker + "sent an audio"
	case domain.TypeContact:
		var p contactPayload
		_ = json.Unmarshal([]byte(m.Payload), &p)
		return prefix + glyphPhone + "Contact: " + p.Name
	case domain.TypeLocation:
		return prefix + glyphPin + m.Content
	case domain.TypeCarousel:
		var p carouselPayload
		if err := json.Unmarshal([]byte(m.Payload), &p); err == nil && len(p.Cards) > 0 {
			return prefix + glyphBook + p.Cards[0].Title
		}
		return prefix + glyphBook + "sent a carousel"
	default:
		if m.IsAttachment() {
			return prefix + glyphDocument + "sent an attachment"
		}
		return prefix + s.resolveMentions(m.Content, m.RoomID)
	}
}

// resolveMentions rewrites "@[user id]" spans to the participant's display
// name when mention rendering is enabled.
func (s *NotificationService) resolveMentions(text string, roomID int64) string {
	if !s.cfg.EnableMention || !strings.Contains(text, "@[") {
		return text
	}
	room, err := s.rooms.GetRoom(roomID)
	if err != nil || room == nil {
		return text
	}
	for _, p := range room.Participants {
		text = strings.ReplaceAll(text, "@["+p.UserID+"]", "@"+p.Name)
	}
	return text
}
