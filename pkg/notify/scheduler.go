package notify

import (
	"context"
	"sync"
	"time"

	"parkspot/pkg/logger"
)

const fireTimeout = 5 * time.Second

// Scheduler registers one-shot deferred broadcasts. Every timer is keyed
// so its lifetime can follow the entity that scheduled it: scheduling the
// same key again replaces the pending timer, Cancel discards it. A
// timestamp already in the past fires immediately rather than being
// dropped.
type Scheduler struct {
	mu          sync.Mutex
	timers      map[string]*time.Timer
	broadcaster Broadcaster
	log         *logger.Logger
	stopped     bool
}

func NewScheduler(broadcaster Broadcaster, log *logger.Logger) *Scheduler {
	return &Scheduler{
		timers:      make(map[string]*time.Timer),
		broadcaster: broadcaster,
		log:         log,
	}
}

func (s *Scheduler) Schedule(key string, at time.Time, event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	if existing, ok := s.timers[key]; ok {
		existing.Stop()
	}

	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}

	s.timers[key] = time.AfterFunc(delay, func() {
		s.fire(key, event)
	})

	s.log.Debug("Scheduled deferred event",
		"key", key,
		"event_type", event.Type,
		"fire_at", at,
	)
}

func (s *Scheduler) fire(key string, event Event) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	delete(s.timers, key)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), fireTimeout)
	defer cancel()
	s.broadcaster.Broadcast(ctx, event)
}

// Cancel discards the pending timer for key, if any.
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[key]; ok {
		t.Stop()
		delete(s.timers, key)
	}
}

// Stop discards every pending timer. Events not yet fired are dropped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.stopped = true
	for key, t := range s.timers {
		t.Stop()
		delete(s.timers, key)
	}
}
