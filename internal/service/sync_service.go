package service

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"pigeon/internal/bus"
	"pigeon/internal/domain"
	"pigeon/internal/models"
)

// Gate answers whether a reconciliation cycle may run right now. All three
// must hold; otherwise the tick is skipped and the heartbeat re-arms anyway.
type Gate interface {
	LoggedIn() bool
	Connected() bool
	Foregrounded() bool
}

// SyncAPI is the slice of the remote client the scheduler drives.
type SyncAPI interface {
	Sync(ctx context.Context, lastMessageID int64) ([]*models.Message, error)
	SyncEvents(ctx context.Context, lastEventID int64) ([]models.DeletionEvent, int64, error)
}

// SyncService drives the repeating heartbeat that reconciles local state with
// the remote event stream. The timer is re-armed only after a cycle finishes
// (restart-after-completion), so cycles never overlap; failures are logged and
// never stop the heartbeat.
type SyncService struct {
	api           SyncAPI
	cursors       CursorStore
	gate          Gate
	deletions     *DeletionService
	notifications *NotificationService
	bus           *bus.Bus
	interval      time.Duration

	mu    sync.Mutex
	state string
	stop  chan struct{}
	done  chan struct{}
}

func NewSyncService(api SyncAPI, cursors CursorStore, gate Gate,
	deletions *DeletionService, notifications *NotificationService,
	b *bus.Bus, interval time.Duration) *SyncService {
	return &SyncService{
		api:           api,
		cursors:       cursors,
		gate:          gate,
		deletions:     deletions,
		notifications: notifications,
		bus:           b,
		interval:      interval,
		state:         domain.SchedulerStopped,
	}
}

// Bind subscribes the scheduler to login/logout events so a sign-in starts
// the heartbeat and a sign-out stops it. Returns the token for Unsubscribe.
func (s *SyncService) Bind(ctx context.Context) int {
	return s.bus.Subscribe(func(e bus.Event) {
		switch e.(type) {
		case bus.LoggedIn:
			s.Start(ctx)
		case bus.LoggedOut:
			s.Stop()
		}
	})
}

// Start begins the heartbeat. Calling it while already scheduled is a no-op.
func (s *SyncService) Start(ctx context.Context) {
	s.mu.Lock()
	if s.state == domain.SchedulerScheduled {
		s.mu.Unlock()
		return
	}
	s.state = domain.SchedulerScheduled
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done
	s.mu.Unlock()

	log.Printf("[sync] heartbeat started, interval %s", s.interval)
	go s.loop(ctx, stop, done)
}

// Stop cancels the next scheduled tick. An in-flight cycle runs to
// completion. Idempotent and safe when not running.
func (s *SyncService) Stop() {
	s.mu.Lock()
	if s.state != domain.SchedulerScheduled {
		s.mu.Unlock()
		return
	}
	s.state = domain.SchedulerStopped
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	<-done
	log.Printf("[sync] heartbeat stopped")
}

// State reports STOPPED or SCHEDULED.
func (s *SyncService) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *SyncService) loop(ctx context.Context, stop, done chan struct{}) {
	defer close(done)
	timer := time.NewTimer(s.interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.state = domain.SchedulerStopped
			s.mu.Unlock()
			return
		case <-stop:
			return
		case <-timer.C:
			s.RunCycle(ctx)
			// re-arm after completion; a failed cycle still re-arms
			timer.Reset(s.interval)
		}
	}
}

// RunCycle performs one reconciliation attempt. Skipped entirely unless the
// gate is fully open. Event sync and message sync run concurrently; each
// failure is isolated to its own sub-step.
func (s *SyncService) RunCycle(ctx context.Context) {
	if !s.gate.LoggedIn() || !s.gate.Connected() || !s.gate.Foregrounded() {
		return
	}

	s.bus.Publish(bus.SyncState{State: bus.SyncStarted})

	g := new(errgroup.Group)
	g.Go(func() error { return s.syncEvents(ctx) })
	g.Go(func() error { return s.syncMessages(ctx) })
	if err := g.Wait(); err != nil {
		log.Printf("[sync] cycle failed: %v", err)
		s.bus.Publish(bus.SyncState{State: bus.SyncFailed})
		return
	}
	s.bus.Publish(bus.SyncState{State: bus.SyncCompleted})
}

func (s *SyncService) syncEvents(ctx context.Context) error {
	last := s.cursors.LastEventID()
	events, maxID, err := s.api.SyncEvents(ctx, last)
	if err != nil {
		return err
	}
	if len(events) > 0 {
		s.deletions.Process(events)
	}
	if maxID > last {
		if err := s.cursors.SetLastEventID(maxID); err != nil {
			log.Printf("[sync] advance event cursor: %v", err)
		}
	}
	return nil
}

func (s *SyncService) syncMessages(ctx context.Context) error {
	last := s.cursors.LastMessageID()
	messages, err := s.api.Sync(ctx, last)
	if err != nil {
		return err
	}
	maxID := last
	for _, m := range messages {
		s.notifications.OnMessage(m)
		if m.ID > maxID {
			maxID = m.ID
		}
	}
	if maxID > last {
		if err := s.cursors.SetLastMessageID(maxID); err != nil {
			log.Printf("[sync] advance message cursor: %v", err)
		}
	}
	return nil
}
