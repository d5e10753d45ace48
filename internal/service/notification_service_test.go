package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pigeon/config"
	"pigeon/internal/bus"
	"pigeon/internal/domain"
	"pigeon/internal/models"
)

func notifyConfig() config.NotificationConfig {
	return config.NotificationConfig{Enabled: true, OnlyWhenOutsideRoom: true, EnableMention: true}
}

func incoming(id, roomID int64, text string) *models.Message {
	return &models.Message{
		ID:        id,
		UniqueID:  fmt.Sprintf("u-%d", id),
		RoomID:    roomID,
		Content:   text,
		Type:      domain.TypeText,
		Status:    domain.StatusSent,
		SenderID:  "bob@example.com",
		Timestamp: time.Unix(id, 0),
	}
}

func newNotifyFixture(t *testing.T, rooms *fakeRooms, fetch RoomFetcher) (*NotificationService, *fakeStore, *fakeRenderer) {
	t.Helper()
	store := newFakeStore()
	renderer := &fakeRenderer{}
	b := bus.New()
	sess := loggedInSession(t, b, "alice@example.com", "Alice Johnson")
	svc := NewNotificationService(store, rooms, sess, notifyConfig(), renderer, fetch, b)
	return svc, store, renderer
}

func TestOnMessageIsIdempotent(t *testing.T) {
	rooms := newFakeRooms(&models.ChatRoom{ID: 10, Type: domain.RoomSingle})
	svc, store, renderer := newNotifyFixture(t, rooms, nil)

	m := incoming(1, 10, "hello")
	svc.OnMessage(m)
	svc.OnMessage(m) // duplicate from the other delivery path

	assert.Equal(t, 1, store.upserts)
	assert.Equal(t, 1, renderer.renderCount())
	room, err := rooms.GetRoom(10)
	require.NoError(t, err)
	assert.Equal(t, 1, room.UnreadCount)
}

func TestOnMessageSixForeignMessages(t *testing.T) {
	rooms := newFakeRooms(&models.ChatRoom{ID: 10, Type: domain.RoomSingle})
	svc, _, renderer := newNotifyFixture(t, rooms, nil)

	for i := 1; i <= 6; i++ {
		svc.OnMessage(incoming(int64(i), 10, fmt.Sprintf("msg %d", i)))
	}

	room, err := rooms.GetRoom(10)
	require.NoError(t, err)
	assert.Equal(t, 6, room.UnreadCount)

	window, total := svc.Pending(10)
	assert.Len(t, window, visibleWindow)
	assert.Equal(t, 6, total)

	last, ok := renderer.lastRender()
	require.True(t, ok)
	assert.Equal(t, 6, last.total)
	assert.Len(t, last.window, visibleWindow)
	assert.Equal(t, "msg 6", last.newest.Text)
}

func TestOnMessageOwnMessageResetsUnreadAndSkipsAlert(t *testing.T) {
	rooms := newFakeRooms(&models.ChatRoom{ID: 10, Type: domain.RoomSingle, UnreadCount: 4})
	svc, _, renderer := newNotifyFixture(t, rooms, nil)

	m := incoming(1, 10, "sent from my other device")
	m.SenderID = "alice@example.com"
	svc.OnMessage(m)

	room, err := rooms.GetRoom(10)
	require.NoError(t, err)
	assert.Equal(t, 0, room.UnreadCount, "own message means the user read the room elsewhere")
	assert.Equal(t, int64(1), room.LastMessageID)
	assert.Equal(t, 0, renderer.renderCount())
}

func TestOnMessageViewedRoomSuppressed(t *testing.T) {
	rooms := newFakeRooms(&models.ChatRoom{ID: 10, Type: domain.RoomSingle})
	store := newFakeStore()
	renderer := &fakeRenderer{}
	b := bus.New()
	sess := loggedInSession(t, b, "alice@example.com", "Alice Johnson")
	sess.EnterRoom(10)
	svc := NewNotificationService(store, rooms, sess, notifyConfig(), renderer, nil, b)

	svc.OnMessage(incoming(1, 10, "hello"))

	room, err := rooms.GetRoom(10)
	require.NoError(t, err)
	assert.Equal(t, 0, room.UnreadCount, "open room stays read")
	assert.Equal(t, 0, renderer.renderCount())

	// a different room still alerts
	require.NoError(t, rooms.UpsertRoom(&models.ChatRoom{ID: 11, Type: domain.RoomSingle}))
	svc.OnMessage(incoming(2, 11, "other room"))
	assert.Equal(t, 1, renderer.renderCount())
}

func TestOnMessageUnknownRoomTriggersFetch(t *testing.T) {
	rooms := newFakeRooms()
	var fetched atomic.Int64
	fetch := func(ctx context.Context, roomID int64) error {
		fetched.Store(roomID)
		return nil
	}
	svc, store, _ := newNotifyFixture(t, rooms, fetch)

	svc.OnMessage(incoming(1, 42, "hello"))

	assert.Eventually(t, func() bool { return fetched.Load() == 42 }, time.Second, 5*time.Millisecond)
	seen, err := store.Contains(&models.Message{UniqueID: "u-1"})
	require.NoError(t, err)
	assert.True(t, seen, "message cached even while the room is unknown")
}

func TestOnMessagePublishesNewMessage(t *testing.T) {
	rooms := newFakeRooms(&models.ChatRoom{ID: 10, Type: domain.RoomSingle})
	store := newFakeStore()
	b := bus.New()
	sess := loggedInSession(t, b, "alice@example.com", "Alice Johnson")
	var published []int64
	b.Subscribe(func(e bus.Event) {
		if ev, ok := e.(bus.NewMessage); ok {
			published = append(published, ev.Message.ID)
		}
	})
	svc := NewNotificationService(store, rooms, sess, notifyConfig(), &fakeRenderer{}, nil, b)

	m := incoming(7, 10, "hello")
	svc.OnMessage(m)
	svc.OnMessage(m)

	assert.Equal(t, []int64{7}, published, "duplicates never reach subscribers")
}

func TestOnDeletionHardRemovesAndRerenders(t *testing.T) {
	rooms := newFakeRooms(&models.ChatRoom{ID: 10, Type: domain.RoomSingle})
	svc, _, renderer := newNotifyFixture(t, rooms, nil)

	svc.OnMessage(incoming(1, 10, "first"))
	svc.OnMessage(incoming(2, 10, "second"))
	rendersBefore := renderer.renderCount()

	svc.OnDeletion([]models.Message{{ID: 2, RoomID: 10}}, true)

	assert.Equal(t, rendersBefore+1, renderer.renderCount())
	last, ok := renderer.lastRender()
	require.True(t, ok)
	assert.Equal(t, 1, last.total)
	assert.Equal(t, "first", last.newest.Text)
}

func TestOnDeletionDrainedQueueClears(t *testing.T) {
	rooms := newFakeRooms(&models.ChatRoom{ID: 10, Type: domain.RoomSingle})
	svc, _, renderer := newNotifyFixture(t, rooms, nil)

	svc.OnMessage(incoming(1, 10, "only"))
	svc.OnDeletion([]models.Message{{ID: 1, RoomID: 10}}, true)

	assert.Equal(t, 1, renderer.clearCount())
	_, total := svc.Pending(10)
	assert.Equal(t, 0, total)
}

func TestOnDeletionSoftRewritesText(t *testing.T) {
	rooms := newFakeRooms(&models.ChatRoom{ID: 10, Type: domain.RoomSingle})
	svc, _, renderer := newNotifyFixture(t, rooms, nil)

	svc.OnMessage(incoming(1, 10, "secret"))

	tomb := models.Message{ID: 1, RoomID: 10, Content: domain.TombstoneText, Type: domain.TypeText}
	svc.OnDeletion([]models.Message{tomb}, false)

	last, ok := renderer.lastRender()
	require.True(t, ok)
	assert.Equal(t, domain.TombstoneText, last.newest.Text)
	assert.Equal(t, 1, last.total, "soft delete keeps the item in the queue")
}

func TestOnDeletionUnqueuedMessageDoesNothing(t *testing.T) {
	rooms := newFakeRooms(&models.ChatRoom{ID: 10, Type: domain.RoomSingle})
	svc, _, renderer := newNotifyFixture(t, rooms, nil)

	svc.OnDeletion([]models.Message{{ID: 99, RoomID: 10}}, true)
	svc.OnDeletion([]models.Message{{ID: 99, RoomID: 77}}, false)

	assert.Equal(t, 0, renderer.renderCount())
	assert.Equal(t, 0, renderer.clearCount())
}

func TestClearEmptiesQueueAndDismisses(t *testing.T) {
	rooms := newFakeRooms(&models.ChatRoom{ID: 10, Type: domain.RoomSingle})
	svc, _, renderer := newNotifyFixture(t, rooms, nil)

	svc.OnMessage(incoming(1, 10, "hello"))
	svc.Clear(10)

	assert.Equal(t, 1, renderer.clearCount())
	_, total := svc.Pending(10)
	assert.Equal(t, 0, total)
}

func TestRenderText(t *testing.T) {
	rooms := newFakeRooms(&models.ChatRoom{
		ID:   20,
		Type: domain.RoomGroup,
		Participants: []models.Participant{
			{RoomID: 20, UserID: "carol@example.com", Name: "Carol"},
		},
	})
	store := newFakeStore()
	b := bus.New()
	sess := loggedInSession(t, b, "alice@example.com", "Alice Johnson")
	svc := NewNotificationService(store, rooms, sess, notifyConfig(), &fakeRenderer{}, nil, b)

	cases := []struct {
		name string
		msg  models.Message
		want string
	}{
		{
			name: "plain text",
			msg:  models.Message{Type: domain.TypeText, Content: "hello"},
			want: "hello",
		},
		{
			name: "group text prefixed with first name",
			msg:  models.Message{Type: domain.TypeText, Content: "hi all", GroupMessage: true, SenderName: "Bob Smith"},
			want: "Bob: hi all",
		},
		{
			name: "image without caption",
			msg:  models.Message{Type: domain.TypeImage},
			want: glyphCamera + "sent a photo",
		},
		{
			name: "image with caption",
			msg:  models.Message{Type: domain.TypeImage, Caption: "the beach"},
			want: glyphCamera + "the beach",
		},
		{
			name: "video without caption",
			msg:  models.Message{Type: domain.TypeVideo},
			want: glyphClapper + "sent a video",
		},
		{
			name: "audio",
			msg:  models.Message{Type: domain.TypeAudio},
			want: glyphSpeaker + "sent an audio",
		},
		{
			name: "contact",
			msg:  models.Message{Type: domain.TypeContact, Payload: `{"name":"Dave"}`},
			want: glyphPhone + "Contact: Dave",
		},
		{
			name: "location",
			msg:  models.Message{Type: domain.TypeLocation, Content: "Union Square"},
			want: glyphPin + "Union Square",
		},
		{
			name: "carousel",
			msg:  models.Message{Type: domain.TypeCarousel, Payload: `{"cards":[{"title":"Spring sale"}]}`},
			want: glyphBook + "Spring sale",
		},
		{
			name: "file attachment",
			msg:  models.Message{Type: domain.TypeFile, AttachmentURL: "https://cdn.example.com/a.pdf"},
			want: glyphDocument + "sent an attachment",
		},
		{
			name: "system event is silent",
			msg:  models.Message{Type: domain.TypeSystemEvent, Content: "Bob joined"},
			want: "",
		},
		{
			name: "mention resolved to display name",
			msg:  models.Message{Type: domain.TypeText, RoomID: 20, Content: "ping @[carol@example.com]"},
			want: "ping @Carol",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := tc.msg
			assert.Equal(t, tc.want, svc.renderText(&m))
		})
	}
}
