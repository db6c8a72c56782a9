package postgres

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lib/pq"

	"groupcalendar/internal/domain"
)

const (
	listenerMinReconnect = 2 * time.Second
	listenerMaxReconnect = time.Minute
)

// ChangeFeed delivers table-level change notifications over Postgres
// LISTEN/NOTIFY. Row triggers raise NOTIFY on events_changed and
// comments_changed (payload = parent event id) for every insert, update, or
// delete; the feed fans each notification out to in-process subscribers.
// Signals carry no diff — subscribers re-fetch whatever they cache.
type ChangeFeed struct {
	listener *pq.Listener
	logger   *slog.Logger

	mu     sync.Mutex
	subs   map[int]*subscription
	nextID int
}

type subscription struct {
	channel string
	filter  string
	ch      chan domain.Change
}

// NewChangeFeed creates a feed over the given connection string. Run must be
// called to start delivery.
func NewChangeFeed(dsn string, logger *slog.Logger) *ChangeFeed {
	f := &ChangeFeed{
		logger: logger,
		subs:   make(map[int]*subscription),
	}
	f.listener = pq.NewListener(dsn, listenerMinReconnect, listenerMaxReconnect, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("change feed listener event", "event", int(ev), "err", err)
		}
	})
	return f
}

// Run listens on both notification channels and dispatches until ctx is done.
// Context cancellation is a clean shutdown and returns nil.
func (f *ChangeFeed) Run(ctx context.Context) error {
	if err := f.listener.Listen(domain.ChannelEventsChanged); err != nil {
		return err
	}
	if err := f.listener.Listen(domain.ChannelCommentsChanged); err != nil {
		return err
	}
	defer f.listener.Close()

	return f.loop(ctx, f.listener.Notify)
}

func (f *ChangeFeed) loop(ctx context.Context, notify <-chan *pq.Notification) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-notify:
			if n == nil {
				// Reconnect marker: the connection was lost and re-established.
				// Anything could have changed in between, so signal everyone.
				f.dispatchAll()
				continue
			}
			f.dispatch(domain.Change{Channel: n.Channel, Payload: n.Extra})
		case <-time.After(90 * time.Second):
			if err := f.listener.Ping(); err != nil {
				f.logger.Warn("change feed ping failed", "err", err)
			}
		}
	}
}

// Subscribe registers a subscriber for one channel, optionally filtered by
// payload equality. The cancel func releases the subscription.
func (f *ChangeFeed) Subscribe(channel, filter string) (<-chan domain.Change, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	sub := &subscription{
		channel: channel,
		filter:  filter,
		ch:      make(chan domain.Change, 1),
	}
	f.subs[id] = sub
	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(sub.ch)
		}
	}
	return sub.ch, cancel
}

func (f *ChangeFeed) dispatch(c domain.Change) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs {
		if sub.channel != c.Channel {
			continue
		}
		if sub.filter != "" && sub.filter != c.Payload {
			continue
		}
		// Non-blocking send: a full buffer already holds a pending signal,
		// and one signal is enough to trigger a re-fetch.
		select {
		case sub.ch <- c:
		default:
		}
	}
}

func (f *ChangeFeed) dispatchAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs {
		select {
		case sub.ch <- domain.Change{Channel: sub.channel}:
		default:
		}
	}
}
