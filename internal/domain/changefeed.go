package domain

// Change notification channels. Any insert, update, or delete on the watched
// table produces a signal on the corresponding channel; there is no diff detail.
const (
	ChannelEventsChanged   = "events_changed"
	ChannelCommentsChanged = "comments_changed"
)

// Change is a single change-feed signal. Payload carries the affected event
// id: the event's own id on the events channel, the parent event id on the
// comments channel. It may be empty on reconnect fan-out.
type Change struct {
	Channel string
	Payload string
}

// ChangeFeed delivers change notifications from the remote store.
// Subscribe registers interest in a channel; a non-empty filter limits
// delivery to signals whose payload equals the filter (boundary-level
// filtering, not client-side). The returned cancel func must be called to
// release the subscription. Signals may be coalesced under load; subscribers
// treat every signal as "something changed" and re-fetch.
type ChangeFeed interface {
	Subscribe(channel, filter string) (<-chan Change, func())
}
