package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/oauth2"

	"pigeon/config"
	"pigeon/internal/models"
)

// Client talks to the chat REST API. Requests carry the identity token as a
// bearer credential via the oauth2 transport.
type Client struct {
	base  string
	appID string
	http  *http.Client
}

func NewClient(cfg *config.APIConfig, token oauth2.TokenSource) *Client {
	httpClient := oauth2.NewClient(context.Background(), token)
	httpClient.Timeout = cfg.Timeout
	return &Client{
		base:  cfg.BaseURL,
		appID: cfg.AppID,
		http:  httpClient,
	}
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("App-Id", c.appID)
	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, body interface{}) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("App-Id", c.appID)
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

// Sync fetches the message delta after lastMessageID.
func (c *Client) Sync(ctx context.Context, lastMessageID int64) ([]*models.Message, error) {
	q := url.Values{"last_received_comment_id": {strconv.FormatInt(lastMessageID, 10)}}
	data, err := c.get(ctx, "/api/v2/sync", q)
	if err != nil {
		return nil, err
	}
	return DecodeSync(data)
}

// SyncEvents fetches the event-stream delta after lastEventID.
func (c *Client) SyncEvents(ctx context.Context, lastEventID int64) ([]models.DeletionEvent, int64, error) {
	q := url.Values{"start_event_id": {strconv.FormatInt(lastEventID, 10)}}
	data, err := c.get(ctx, "/api/v2/sync_event", q)
	if err != nil {
		return nil, 0, err
	}
	return DecodeSyncEvents(data)
}

// GetRoom fetches one room with its recent messages (room-detail shape).
func (c *Client) GetRoom(ctx context.Context, roomID int64) (*models.ChatRoom, []*models.Message, error) {
	q := url.Values{"id": {strconv.FormatInt(roomID, 10)}}
	data, err := c.get(ctx, "/api/v2/get_room_by_id", q)
	if err != nil {
		return nil, nil, err
	}
	return DecodeRoomDetail(data)
}

// ListRooms fetches the room list (room-list shape, includes unread counts).
func (c *Client) ListRooms(ctx context.Context, page, limit int) ([]*models.ChatRoom, error) {
	q := url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
	}
	data, err := c.get(ctx, "/api/v2/user_rooms", q)
	if err != nil {
		return nil, err
	}
	return DecodeRoomList(data)
}

type postMessageRequest struct {
	RoomID   int64  `json:"topic_id"`
	Message  string `json:"comment"`
	Type     string `json:"type"`
	Payload  string `json:"payload,omitempty"`
	UniqueID string `json:"unique_temp_id"`
}

type postMessageEnvelope struct {
	Results struct {
		Comment wireMessage `json:"comment"`
	} `json:"results"`
}

// PostMessage submits an outbound message and returns the server's copy.
func (c *Client) PostMessage(ctx context.Context, m *models.Message) (*models.Message, error) {
	data, err := c.post(ctx, "/api/v2/post_comment", postMessageRequest{
		RoomID:   m.RoomID,
		Message:  m.Content,
		Type:     m.Type,
		Payload:  m.Payload,
		UniqueID: m.UniqueID,
	})
	if err != nil {
		return nil, err
	}
	var env postMessageEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &DecodeError{Endpoint: "post message", Err: err}
	}
	return decodeMessage(env.Results.Comment, m.RoomID), nil
}

type updateStatusRequest struct {
	RoomID          int64 `json:"room_id"`
	LastDeliveredID int64 `json:"last_comment_received_id,omitempty"`
	LastReadID      int64 `json:"last_comment_read_id,omitempty"`
}

// UpdateStatus reports delivered/read watermarks for a room.
func (c *Client) UpdateStatus(ctx context.Context, roomID, lastDeliveredID, lastReadID int64) error {
	_, err := c.post(ctx, "/api/v2/update_comment_status", updateStatusRequest{
		RoomID:          roomID,
		LastDeliveredID: lastDeliveredID,
		LastReadID:      lastReadID,
	})
	return err
}
