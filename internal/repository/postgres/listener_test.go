package postgres

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/lib/pq"

	"groupcalendar/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFeed() *ChangeFeed {
	return &ChangeFeed{
		logger: slog.New(slog.DiscardHandler),
		subs:   make(map[int]*subscription),
	}
}

func TestChangeFeed_DispatchByChannel(t *testing.T) {
	f := newTestFeed()
	events, cancelEvents := f.Subscribe(domain.ChannelEventsChanged, "")
	comments, cancelComments := f.Subscribe(domain.ChannelCommentsChanged, "")
	defer cancelEvents()
	defer cancelComments()

	f.dispatch(domain.Change{Channel: domain.ChannelEventsChanged, Payload: "ev-1"})

	select {
	case c := <-events:
		assert.Equal(t, "ev-1", c.Payload)
	default:
		t.Fatal("events subscriber got no signal")
	}
	select {
	case <-comments:
		t.Fatal("comments subscriber got an events signal")
	default:
	}
}

func TestChangeFeed_PayloadFilter(t *testing.T) {
	f := newTestFeed()
	ch, cancel := f.Subscribe(domain.ChannelCommentsChanged, "ev-1")
	defer cancel()

	f.dispatch(domain.Change{Channel: domain.ChannelCommentsChanged, Payload: "ev-2"})
	select {
	case <-ch:
		t.Fatal("filtered subscriber got another event's signal")
	default:
	}

	f.dispatch(domain.Change{Channel: domain.ChannelCommentsChanged, Payload: "ev-1"})
	select {
	case c := <-ch:
		assert.Equal(t, "ev-1", c.Payload)
	default:
		t.Fatal("filtered subscriber got no signal")
	}
}

func TestChangeFeed_SignalsCoalesce(t *testing.T) {
	f := newTestFeed()
	ch, cancel := f.Subscribe(domain.ChannelEventsChanged, "")
	defer cancel()

	// A full buffer already holds a pending signal; extra dispatches drop.
	for i := 0; i < 5; i++ {
		f.dispatch(domain.Change{Channel: domain.ChannelEventsChanged, Payload: "ev-1"})
	}

	<-ch
	select {
	case <-ch:
		t.Fatal("expected coalesced signals, got more than one")
	default:
	}
}

func TestChangeFeed_DispatchAllReachesEverySubscriber(t *testing.T) {
	f := newTestFeed()
	events, cancel1 := f.Subscribe(domain.ChannelEventsChanged, "")
	comments, cancel2 := f.Subscribe(domain.ChannelCommentsChanged, "ev-9")
	defer cancel1()
	defer cancel2()

	f.dispatchAll()

	require.Len(t, events, 1)
	require.Len(t, comments, 1)
}

func TestChangeFeed_CancelClosesChannel(t *testing.T) {
	f := newTestFeed()
	ch, cancel := f.Subscribe(domain.ChannelEventsChanged, "")

	cancel()
	cancel() // idempotent

	_, open := <-ch
	assert.False(t, open)

	// Dispatch after cancel must not panic or deliver.
	f.dispatch(domain.Change{Channel: domain.ChannelEventsChanged, Payload: "ev-1"})
}

func TestChangeFeed_LoopStopsCleanlyOnCancel(t *testing.T) {
	f := newTestFeed()
	ctx, cancel := context.WithCancel(context.Background())
	notify := make(chan *pq.Notification)

	done := make(chan error, 1)
	go func() { done <- f.loop(ctx, notify) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop on cancel")
	}
}

func TestChangeFeed_LoopDispatchesNotifications(t *testing.T) {
	f := newTestFeed()
	ch, cancelSub := f.Subscribe(domain.ChannelEventsChanged, "")
	defer cancelSub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notify := make(chan *pq.Notification)
	go f.loop(ctx, notify)

	notify <- &pq.Notification{Channel: domain.ChannelEventsChanged, Extra: "ev-1"}

	select {
	case c := <-ch:
		assert.Equal(t, "ev-1", c.Payload)
	case <-time.After(time.Second):
		t.Fatal("subscriber got no signal")
	}
}

func TestChangeFeed_LoopReconnectSignalsEveryone(t *testing.T) {
	f := newTestFeed()
	events, cancel1 := f.Subscribe(domain.ChannelEventsChanged, "")
	comments, cancel2 := f.Subscribe(domain.ChannelCommentsChanged, "ev-9")
	defer cancel1()
	defer cancel2()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notify := make(chan *pq.Notification)
	go f.loop(ctx, notify)

	// pq delivers nil after a reconnect.
	notify <- nil

	select {
	case <-events:
	case <-time.After(time.Second):
		t.Fatal("events subscriber got no reconnect signal")
	}
	select {
	case <-comments:
	case <-time.After(time.Second):
		t.Fatal("filtered comments subscriber got no reconnect signal")
	}
}
