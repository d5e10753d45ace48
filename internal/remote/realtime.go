package remote

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pigeon/config"
	"pigeon/internal/bus"
	"pigeon/internal/models"
)

// MessageHandler receives messages pushed over the realtime transport.
type MessageHandler func(*models.Message)

// DeletionHandler receives deletion batches pushed over the realtime transport.
type DeletionHandler func([]models.DeletionEvent)

// Realtime is the websocket client for live push delivery. The sync scheduler
// only consults IsConnected; delivery goes straight to the handlers.
type Realtime struct {
	url           string
	pingInterval  time.Duration
	reconnectWait time.Duration
	bus           *bus.Bus

	onMessage  MessageHandler
	onDeletion DeletionHandler

	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool
	cancel    context.CancelFunc
}

func NewRealtime(cfg *config.RealtimeConfig, b *bus.Bus, onMessage MessageHandler, onDeletion DeletionHandler) *Realtime {
	return &Realtime{
		url:           cfg.URL,
		pingInterval:  cfg.PingInterval,
		reconnectWait: cfg.ReconnectWait,
		bus:           b,
		onMessage:     onMessage,
		onDeletion:    onDeletion,
	}
}

// Start connects and keeps reconnecting until the context is cancelled or
// Stop is called.
func (r *Realtime) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()
	go r.run(ctx)
}

func (r *Realtime) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	conn := r.conn
	r.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

func (r *Realtime) IsConnected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.connected
}

func (r *Realtime) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, r.url, nil)
		if err != nil {
			log.Printf("[realtime] dial %s: %v", r.url, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(r.reconnectWait):
			}
			continue
		}
		r.setConnected(conn, true)
		r.readLoop(ctx, conn)
		r.setConnected(nil, false)
		select {
		case <-ctx.Done():
			return
		case <-time.After(r.reconnectWait):
		}
	}
}

func (r *Realtime) setConnected(conn *websocket.Conn, connected bool) {
	r.mu.Lock()
	r.conn = conn
	changed := r.connected != connected
	r.connected = connected
	r.mu.Unlock()
	if changed {
		r.bus.Publish(bus.ConnectionChanged{Connected: connected})
	}
}

type realtimeFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (r *Realtime) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()
	stopPing := make(chan struct{})
	defer close(stopPing)
	go r.pingLoop(conn, stopPing)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("[realtime] read: %v", err)
			}
			return
		}
		r.dispatch(data)
	}
}

func (r *Realtime) pingLoop(conn *websocket.Conn, stop chan struct{}) {
	ticker := time.NewTicker(r.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (r *Realtime) dispatch(data []byte) {
	var frame realtimeFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		log.Printf("[realtime] bad frame: %v", err)
		return
	}
	switch frame.Type {
	case "new_message":
		var w wireMessage
		if err := json.Unmarshal(frame.Payload, &w); err != nil {
			log.Printf("[realtime] bad message payload: %v", err)
			return
		}
		if r.onMessage != nil {
			r.onMessage(decodeMessage(w, 0))
		}
	case "message_deleted":
		var ev wireSyncEvent
		if err := json.Unmarshal(frame.Payload, &ev.Payload); err != nil {
			log.Printf("[realtime] bad deletion payload: %v", err)
			return
		}
		var batch []models.DeletionEvent
		for _, d := range ev.Payload.Data.DeletedMessages {
			for _, uid := range d.MessageUniqueIDs {
				batch = append(batch, models.DeletionEvent{
					RoomID:    d.RoomID,
					UniqueID:  uid,
					Hard:      ev.Payload.Data.IsHardDelete,
					ActorID:   ev.Payload.Actor.ID,
					ActorName: ev.Payload.Actor.Name,
				})
			}
		}
		if len(batch) > 0 && r.onDeletion != nil {
			r.onDeletion(batch)
		}
	default:
		// other topics (typing, presence) are not handled here
	}
}
