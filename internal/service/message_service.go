package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"pigeon/internal/domain"
	"pigeon/internal/models"
	"pigeon/internal/session"
	"pigeon/pkg/attachment"
)

// MessageAPI is the outbound slice of the remote client.
type MessageAPI interface {
	PostMessage(ctx context.Context, m *models.Message) (*models.Message, error)
	UpdateStatus(ctx context.Context, roomID, lastDeliveredID, lastReadID int64) error
}

// MessageService owns the outbound path: composing, sending, and delivery
// acknowledgements.
type MessageService struct {
	api      MessageAPI
	store    MessageStore
	rooms    RoomStore
	session  *session.Session
	uploader attachment.Uploader
}

func NewMessageService(api MessageAPI, store MessageStore, rooms RoomStore,
	sess *session.Session, uploader attachment.Uploader) *MessageService {
	return &MessageService{api: api, store: store, rooms: rooms, session: sess, uploader: uploader}
}

// Compose builds a text message with a fresh client-assigned unique id. The
// id stays stable across retries, so a resend after a timeout cannot
// duplicate the message server-side.
func (s *MessageService) Compose(roomID int64, content string) *models.Message {
	account := s.session.Account()
	m := &models.Message{
		UniqueID:  uuid.NewString(),
		RoomID:    roomID,
		Content:   content,
		Type:      domain.TypeText,
		Status:    domain.StatusSent,
		Timestamp: time.Now(),
	}
	if account != nil {
		m.SenderID = account.ID
		m.SenderName = account.Name
	}
	return m
}

// Send submits a composed message and caches the server's copy. Retrying with
// the same message keeps its unique id.
func (s *MessageService) Send(ctx context.Context, m *models.Message) (*models.Message, error) {
	sent, err := s.api.PostMessage(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("post message: %w", err)
	}
	if err := s.store.Upsert(sent); err != nil {
		return nil, fmt.Errorf("cache sent message: %w", err)
	}
	return sent, nil
}

// SendFile uploads the blob first, then sends a file message carrying its URL.
func (s *MessageService) SendFile(ctx context.Context, roomID int64, file io.Reader, name, caption string) (*models.Message, error) {
	m := s.Compose(roomID, name)
	url, err := s.uploader.Upload(ctx, file, "chat", m.UniqueID)
	if err != nil {
		return nil, fmt.Errorf("upload attachment: %w", err)
	}
	m.Type = domain.TypeFile
	m.Caption = caption
	m.AttachmentURL = url
	m.Payload = fmt.Sprintf(`{"url":%q,"caption":%q,"file_name":%q}`, url, caption, name)
	return s.Send(ctx, m)
}

// MarkRead resets the room's unread counter and reports the read watermark.
// Only the room's own reader resets the counter.
func (s *MessageService) MarkRead(ctx context.Context, roomID, lastReadID int64) error {
	room, err := s.rooms.GetRoom(roomID)
	if err != nil {
		return err
	}
	if room != nil && room.UnreadCount != 0 {
		room.UnreadCount = 0
		if err := s.rooms.UpsertRoom(room); err != nil {
			return err
		}
	}
	return s.api.UpdateStatus(ctx, roomID, 0, lastReadID)
}

// MarkDelivered reports the delivered watermark for a room.
func (s *MessageService) MarkDelivered(ctx context.Context, roomID, lastDeliveredID int64) error {
	return s.api.UpdateStatus(ctx, roomID, lastDeliveredID, 0)
}
