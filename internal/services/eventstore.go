package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"groupcalendar/internal/domain"
)

// eventFetchLimit bounds a single refresh. Matches the calendar surface,
// which never renders more than this many events.
const eventFetchLimit = 1000

// EventStore is an in-memory cache of display-ready events, refreshed on
// demand and on every change notification for the events table. The cache is
// non-authoritative and disposable; the remote store owns durable state.
type EventStore struct {
	repo   domain.EventRepository
	feed   domain.ChangeFeed
	logger *slog.Logger

	mu     sync.RWMutex
	events []domain.DisplayEvent

	watchMu   sync.Mutex
	watchers  map[int]chan struct{}
	nextWatch int
}

func NewEventStore(repo domain.EventRepository, feed domain.ChangeFeed, logger *slog.Logger) *EventStore {
	return &EventStore{
		repo:     repo,
		feed:     feed,
		logger:   logger,
		watchers: make(map[int]chan struct{}),
	}
}

// Refresh fetches all events with their owner, responsible, and participant
// relations and replaces the cached set atomically. Concurrent refreshes are
// not coalesced: the last completed call wins, so two in-flight refreshes may
// briefly leave stale data behind. The next change signal corrects it; not
// worth a coordination mechanism at this scale.
func (s *EventStore) Refresh(ctx context.Context) error {
	records, err := s.repo.ListUpcoming(ctx, eventFetchLimit)
	if err != nil {
		return fmt.Errorf("fetch events: %w", err)
	}
	display := make([]domain.DisplayEvent, 0, len(records))
	for _, rec := range records {
		d := domain.DisplayEvent{
			ID:            rec.ID,
			Title:         rec.Title,
			Start:         rec.StartTime,
			End:           rec.EndTime,
			Color:         rec.Category.Color(),
			Description:   rec.Description,
			Location:      rec.Location,
			LocationLat:   rec.LocationLat,
			LocationLng:   rec.LocationLng,
			Category:      rec.Category,
			OwnerID:       rec.OwnerID,
			ResponsibleID: rec.ResponsibleID,
			Participants:  rec.Participants,
		}
		if rec.Responsible != nil {
			d.ResponsibleName = rec.Responsible.FullName
		}
		display = append(display, d)
	}

	s.mu.Lock()
	s.events = display
	s.mu.Unlock()

	s.notifyWatchers()
	return nil
}

// Filter returns the cached events whose title, description, or responsible
// name contains term (case-insensitive). An empty term returns the full
// cached set in order. Pure and synchronous; no I/O.
func (s *EventStore) Filter(term string) []domain.DisplayEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if term == "" {
		return append([]domain.DisplayEvent(nil), s.events...)
	}
	needle := strings.ToLower(term)
	out := make([]domain.DisplayEvent, 0)
	for _, e := range s.events {
		if strings.Contains(strings.ToLower(e.Title), needle) ||
			(e.Description != nil && strings.Contains(strings.ToLower(*e.Description), needle)) ||
			strings.Contains(strings.ToLower(e.ResponsibleName), needle) {
			out = append(out, e)
		}
	}
	return out
}

// Run performs the initial refresh, then re-fetches the full set on every
// change signal until ctx is done. Full refetch on any change is a
// simplicity-over-efficiency tradeoff that does not scale past small groups;
// a larger deployment would patch incrementally by changed-record id.
func (s *EventStore) Run(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		s.logger.Error("initial event refresh failed", "err", err)
	}
	ch, cancel := s.feed.Subscribe(domain.ChannelEventsChanged, "")
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			if err := s.Refresh(ctx); err != nil {
				s.logger.Error("event refresh failed", "err", err)
			}
		}
	}
}

// Watch returns a channel that receives a tick after every completed refresh,
// plus a cancel func. Used by the SSE endpoint to push "something changed"
// to connected clients.
func (s *EventStore) Watch() (<-chan struct{}, func()) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	id := s.nextWatch
	s.nextWatch++
	ch := make(chan struct{}, 1)
	s.watchers[id] = ch
	cancel := func() {
		s.watchMu.Lock()
		defer s.watchMu.Unlock()
		if _, ok := s.watchers[id]; ok {
			delete(s.watchers, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (s *EventStore) notifyWatchers() {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for _, ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
