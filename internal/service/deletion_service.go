package service

import (
	"log"
	"sync"

	"pigeon/internal/bus"
	"pigeon/internal/domain"
	"pigeon/internal/models"
)

// DeleteListener is invoked once per batch with all affected messages sharing
// a hard/soft flag, so the UI redraws once instead of per item.
type DeleteListener func(messages []models.Message, hard bool)

// DeletionService applies deletion events to the local cache while keeping the
// per-room message chain traversable.
type DeletionService struct {
	store MessageStore
	bus   *bus.Bus

	mu       sync.RWMutex
	listener DeleteListener
}

func NewDeletionService(store MessageStore, b *bus.Bus) *DeletionService {
	return &DeletionService{store: store, bus: b}
}

func (s *DeletionService) SetListener(l DeleteListener) {
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
}

// Process applies a batch in order. A failing event is logged and skipped;
// mutations already applied stay applied. Unknown targets are a no-op, since
// the message may never have been synchronized.
func (s *DeletionService) Process(batch []models.DeletionEvent) {
	var hardAffected, softAffected []models.Message

	for _, ev := range batch {
		m, err := s.store.GetByUniqueID(ev.UniqueID)
		if err != nil {
			log.Printf("[deletion] lookup %s: %v", ev.UniqueID, err)
			continue
		}
		if m == nil {
			continue
		}

		if ev.Hard {
			if err := s.relink(m); err != nil {
				log.Printf("[deletion] relink %s: %v", ev.UniqueID, err)
				continue
			}
		}

		m.Content = domain.TombstoneText
		m.Type = domain.TypeText
		m.Caption = ""
		m.Payload = ""
		m.AttachmentURL = ""
		m.Deleted = true
		if err := s.store.Upsert(m); err != nil {
			log.Printf("[deletion] persist %s: %v", ev.UniqueID, err)
			continue
		}
		if err := s.store.DeleteLocalAttachment(m.ID); err != nil {
			log.Printf("[deletion] drop attachment %d: %v", m.ID, err)
		}

		s.bus.Publish(bus.MessageRedacted{Message: m, Hard: ev.Hard})
		if ev.Hard {
			hardAffected = append(hardAffected, *m)
		} else {
			softAffected = append(softAffected, *m)
		}
	}

	s.mu.RLock()
	listener := s.listener
	s.mu.RUnlock()
	if listener == nil {
		return
	}
	if len(hardAffected) > 0 {
		listener(hardAffected, true)
	}
	if len(softAffected) > 0 {
		listener(softAffected, false)
	}
}

// relink rewrites the one live successor's back-reference to the target's own
// predecessor, so chronological traversal survives the removal. The successor
// is re-read at relink time; the store serializes record access.
func (s *DeletionService) relink(target *models.Message) error {
	successor, err := s.store.GetByPreviousID(target.ID)
	if err != nil {
		return err
	}
	if successor == nil {
		return nil
	}
	successor.PreviousMessageID = target.PreviousMessageID
	return s.store.Upsert(successor)
}
