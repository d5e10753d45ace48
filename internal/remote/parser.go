package remote

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pigeon/internal/domain"
	"pigeon/internal/models"
)

// DecodeError marks a malformed server payload. A sync cycle treats it as a
// cycle failure: logged, next heartbeat retries.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type wireMessage struct {
	ID                int64           `json:"id"`
	CommentBeforeID   int64           `json:"comment_before_id"`
	Message           string          `json:"message"`
	Username          string          `json:"username"`
	Email             string          `json:"email"`
	UserAvatarURL     string          `json:"user_avatar_url"`
	Status            string          `json:"status"`
	UnixNanoTimestamp int64           `json:"unix_nano_timestamp"`
	IsDeleted         bool            `json:"is_deleted"`
	RoomID            int64           `json:"room_id"`
	RoomName          string          `json:"room_name"`
	RoomType          string          `json:"room_type"`
	UniqueID          string          `json:"unique_id"`
	UniqueTempID      string          `json:"unique_temp_id"`
	Type              string          `json:"type"`
	Payload           json.RawMessage `json:"payload"`
	Extras            json.RawMessage `json:"extras"`
}

type wirePayload struct {
	Text    string `json:"text"`
	Caption string `json:"caption"`
	URL     string `json:"url"`
}

// decodeMessage maps one wire comment onto the local model. roomID wins over
// the payload's own room_id when non-zero, because some endpoints omit it.
func decodeMessage(w wireMessage, roomID int64) *models.Message {
	if roomID == 0 {
		roomID = w.RoomID
	}
	m := &models.Message{
		ID:                w.ID,
		RoomID:            roomID,
		PreviousMessageID: w.CommentBeforeID,
		Content:           w.Message,
		SenderName:        w.Username,
		SenderID:          w.Email,
		SenderAvatar:      w.UserAvatarURL,
		Status:            decodeStatus(w.Status),
		Deleted:           w.IsDeleted,
		RoomName:          w.RoomName,
		GroupMessage:      w.RoomType != "" && w.RoomType != domain.RoomSingle,
		// timestamps arrive in nanoseconds
		Timestamp: time.Unix(0, w.UnixNanoTimestamp),
	}

	switch {
	case w.UniqueID != "":
		m.UniqueID = w.UniqueID
	case w.UniqueTempID != "":
		m.UniqueID = w.UniqueTempID
	default:
		m.UniqueID = strconv.FormatInt(w.ID, 10)
	}

	m.Type = w.Type
	if m.Type == "" {
		m.Type = domain.TypeText
	}
	if len(w.Payload) > 0 && string(w.Payload) != "null" {
		m.Payload = string(w.Payload)
		var p wirePayload
		if err := json.Unmarshal(w.Payload, &p); err == nil {
			m.Caption = p.Caption
			m.AttachmentURL = p.URL
			// interactive types carry their display text in the payload
			switch m.Type {
			case domain.TypeButtons, domain.TypeReply, domain.TypeCard:
				if strings.TrimSpace(p.Text) != "" {
					m.Content = strings.TrimSpace(p.Text)
				}
			}
		}
	}
	if len(w.Extras) > 0 && string(w.Extras) != "null" {
		m.Extras = string(w.Extras)
	}
	return m
}

func decodeStatus(status string) string {
	switch status {
	case "delivered":
		return domain.StatusDelivered
	case "read":
		return domain.StatusRead
	default:
		return domain.StatusSent
	}
}

type wireParticipant struct {
	Email                 string          `json:"email"`
	Username              string          `json:"username"`
	AvatarURL             string          `json:"avatar_url"`
	Extras                json.RawMessage `json:"extras"`
	LastCommentReceivedID int64           `json:"last_comment_received_id"`
	LastCommentReadID     int64           `json:"last_comment_read_id"`
}

func decodeParticipant(roomID int64, w wireParticipant) models.Participant {
	p := models.Participant{
		RoomID:          roomID,
		UserID:          w.Email,
		Name:            w.Username,
		AvatarURL:       w.AvatarURL,
		LastDeliveredID: w.LastCommentReceivedID,
		LastReadID:      w.LastCommentReadID,
	}
	if len(w.Extras) > 0 && string(w.Extras) != "null" {
		p.Extras = string(w.Extras)
	}
	return p
}

// The room-detail and room-list endpoints describe rooms with slightly
// different shapes: detail nests under results.room and carries extras as an
// "options" string without unread_count; the list nests under
// results.rooms_info with an "extras" string and an unread_count. Both are
// decoded explicitly rather than folded into one struct, so neither shape's
// fallbacks silently apply to the other.

type wireRoomDetail struct {
	ID                    int64             `json:"id"`
	ChatType              string            `json:"chat_type"`
	IsPublicChannel       bool              `json:"is_public_channel"`
	RoomName              string            `json:"room_name"`
	RawRoomName           string            `json:"raw_room_name"`
	UniqueID              string            `json:"unique_id"`
	Options               string            `json:"options"`
	AvatarURL             string            `json:"avatar_url"`
	RoomTotalParticipants int               `json:"room_total_participants"`
	Participants          []wireParticipant `json:"participants"`
}

type wireRoomInfo struct {
	ID                    int64             `json:"id"`
	ChatType              string            `json:"chat_type"`
	IsPublicChannel       bool              `json:"is_public_channel"`
	RoomName              string            `json:"room_name"`
	RawRoomName           string            `json:"raw_room_name"`
	UniqueID              string            `json:"unique_id"`
	Extras                string            `json:"extras"`
	AvatarURL             string            `json:"avatar_url"`
	UnreadCount           int               `json:"unread_count"`
	RoomTotalParticipants int               `json:"room_total_participants"`
	Participants          []wireParticipant `json:"participants"`
	LastComment           *wireMessage      `json:"last_comment"`
}

func decodeRoomType(chatType string, publicChannel bool) string {
	if chatType == domain.RoomGroup {
		if publicChannel {
			return domain.RoomChannel
		}
		return domain.RoomGroup
	}
	return domain.RoomSingle
}

type roomDetailEnvelope struct {
	Results struct {
		Room     wireRoomDetail `json:"room"`
		Comments []wireMessage  `json:"comments"`
	} `json:"results"`
}

// DecodeRoomDetail parses the room-detail endpoint: one room plus its most
// recent messages.
func DecodeRoomDetail(data []byte) (*models.ChatRoom, []*models.Message, error) {
	var env roomDetailEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, nil, &DecodeError{Endpoint: "room detail", Err: err}
	}
	w := env.Results.Room
	if w.ID == 0 {
		return nil, nil, &DecodeError{Endpoint: "room detail", Err: fmt.Errorf("missing room id")}
	}
	room := &models.ChatRoom{
		ID:                w.ID,
		Name:              w.RoomName,
		Type:              decodeRoomType(w.ChatType, w.IsPublicChannel),
		UniqueID:          w.UniqueID,
		AvatarURL:         w.AvatarURL,
		Extras:            w.Options,
		TotalParticipants: w.RoomTotalParticipants,
	}
	if room.Type == domain.RoomSingle {
		room.DistinctID = w.RawRoomName
	} else {
		room.DistinctID = w.UniqueID
	}
	for _, p := range w.Participants {
		room.Participants = append(room.Participants, decodeParticipant(room.ID, p))
	}
	var messages []*models.Message
	for _, c := range env.Results.Comments {
		messages = append(messages, decodeMessage(c, room.ID))
	}
	if len(messages) > 0 {
		room.LastMessage = messages[0]
		room.LastMessageID = messages[0].ID
	}
	return room, messages, nil
}

type roomListEnvelope struct {
	Results struct {
		RoomsInfo []wireRoomInfo `json:"rooms_info"`
	} `json:"results"`
}

// DecodeRoomList parses the room-list endpoint.
func DecodeRoomList(data []byte) ([]*models.ChatRoom, error) {
	var env roomListEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &DecodeError{Endpoint: "room list", Err: err}
	}
	rooms := make([]*models.ChatRoom, 0, len(env.Results.RoomsInfo))
	for _, w := range env.Results.RoomsInfo {
		room := &models.ChatRoom{
			ID:                w.ID,
			Name:              w.RoomName,
			Type:              decodeRoomType(w.ChatType, w.IsPublicChannel),
			UniqueID:          w.UniqueID,
			AvatarURL:         w.AvatarURL,
			Extras:            w.Extras,
			UnreadCount:       w.UnreadCount,
			TotalParticipants: w.RoomTotalParticipants,
		}
		if room.Type == domain.RoomSingle {
			room.DistinctID = w.RawRoomName
		} else {
			room.DistinctID = w.UniqueID
		}
		for _, p := range w.Participants {
			room.Participants = append(room.Participants, decodeParticipant(room.ID, p))
		}
		if w.LastComment != nil {
			last := decodeMessage(*w.LastComment, room.ID)
			room.LastMessage = last
			room.LastMessageID = last.ID
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

type syncEnvelope struct {
	Results struct {
		Comments []wireMessage `json:"comments"`
	} `json:"results"`
}

// DecodeSync parses the message-delta endpoint into local messages.
func DecodeSync(data []byte) ([]*models.Message, error) {
	var env syncEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &DecodeError{Endpoint: "sync", Err: err}
	}
	messages := make([]*models.Message, 0, len(env.Results.Comments))
	for _, c := range env.Results.Comments {
		messages = append(messages, decodeMessage(c, 0))
	}
	return messages, nil
}

const actionDeleteMessage = "delete_message"

type wireSyncEvent struct {
	ID          int64  `json:"id"`
	ActionTopic string `json:"action_topic"`
	Payload     struct {
		Actor struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"actor"`
		Data struct {
			IsHardDelete    bool `json:"is_hard_delete"`
			DeletedMessages []struct {
				RoomID           int64    `json:"room_id"`
				MessageUniqueIDs []string `json:"message_unique_ids"`
			} `json:"deleted_messages"`
		} `json:"data"`
	} `json:"payload"`
}

type syncEventEnvelope struct {
	Events []wireSyncEvent `json:"events"`
}

// DecodeSyncEvents parses the event-stream delta. Deletion actions become
// DeletionEvents; other topics are ignored. maxID is the highest event id
// seen, for cursor advancement.
func DecodeSyncEvents(data []byte) (events []models.DeletionEvent, maxID int64, err error) {
	var env syncEventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, 0, &DecodeError{Endpoint: "sync events", Err: err}
	}
	for _, ev := range env.Events {
		if ev.ID > maxID {
			maxID = ev.ID
		}
		if ev.ActionTopic != actionDeleteMessage {
			continue
		}
		for _, d := range ev.Payload.Data.DeletedMessages {
			for _, uid := range d.MessageUniqueIDs {
				events = append(events, models.DeletionEvent{
					RoomID:    d.RoomID,
					UniqueID:  uid,
					Hard:      ev.Payload.Data.IsHardDelete,
					ActorID:   ev.Payload.Actor.ID,
					ActorName: ev.Payload.Actor.Name,
				})
			}
		}
	}
	return events, maxID, nil
}
