package service

import (
	"sync"
	"time"
)

// NotificationItem is one pending alert line. Owned exclusively by its room's
// PendingQueue.
type NotificationItem struct {
	MessageID int64     `json:"message_id"`
	RoomID    int64     `json:"room_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// visibleWindow caps how many items a rendered notification shows. The
// underlying collection keeps everything accepted so the summary count stays
// accurate.
const visibleWindow = 5

// PendingQueue is the ordered, deduplicated buffer of not-yet-dismissed
// notification items for one room.
type PendingQueue struct {
	mu    sync.Mutex
	items []NotificationItem
}

// Enqueue appends an item unless an item with the same message identity is
// already queued. The return value decides whether a render is issued.
func (q *PendingQueue) Enqueue(item NotificationItem) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, it := range q.items {
		if it.MessageID == item.MessageID {
			return false
		}
	}
	q.items = append(q.items, item)
	return true
}

// Update replaces the text of the matching item, reporting whether anything
// changed.
func (q *PendingQueue) Update(item NotificationItem) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, it := range q.items {
		if it.MessageID == item.MessageID {
			q.items[i].Text = item.Text
			return true
		}
	}
	return false
}

// Remove drops the matching item, reporting whether anything changed.
func (q *PendingQueue) Remove(messageID int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, it := range q.items {
		if it.MessageID == messageID {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// Window returns the newest items up to the visible cap, oldest first.
func (q *PendingQueue) Window() []NotificationItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	start := 0
	if len(q.items) > visibleWindow {
		start = len(q.items) - visibleWindow
	}
	out := make([]NotificationItem, len(q.items)-start)
	copy(out, q.items[start:])
	return out
}

// Total counts every accepted item, including those beyond the visible window.
func (q *PendingQueue) Total() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Last returns the most recent item, if any.
func (q *PendingQueue) Last() (NotificationItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return NotificationItem{}, false
	}
	return q.items[len(q.items)-1], true
}

func (q *PendingQueue) Clear() {
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()
}
