package services

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"groupcalendar/internal/domain"
)

const (
	// editorTimeLayout matches the datetime-local input format the dialog submits.
	editorTimeLayout = "2006-01-02T15:04"

	geocodeDebounceDelay = 1500 * time.Millisecond
	minGeocodeQueryLen   = 3
	geocodeTimeout       = 10 * time.Second
	notifyTimeout        = 30 * time.Second

	// editorSessionTTL bounds how long an abandoned session survives.
	// Sessions are swept on Open, so the map cannot grow past the set of
	// sessions touched within the last TTL window.
	editorSessionTTL = time.Hour
)

// EditorState is the lifecycle state of a single edit session.
type EditorState string

const (
	StateEmpty        EditorState = "empty"
	StateEditing      EditorState = "editing"
	StateSaving       EditorState = "saving"
	StateSaved        EditorState = "saved"
	StateSaveFailed   EditorState = "save_failed"
	StateDeleting     EditorState = "deleting"
	StateDeleted      EditorState = "deleted"
	StateDeleteFailed EditorState = "delete_failed"
)

// FieldsInput carries the editable non-location fields of an event-in-edit.
// Start and end times are raw datetime-local strings; they are parsed only
// at validation time so a half-typed value never breaks editing.
type FieldsInput struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	StartTime     string          `json:"start_time"`
	EndTime       string          `json:"end_time"`
	Category      domain.Category `json:"category"`
	ResponsibleID string          `json:"responsible_id"`
}

// EditorManager owns the set of open editor sessions, keyed by session id.
type EditorManager struct {
	events   domain.EventRepository
	profiles domain.ProfileRepository
	geocoder domain.Geocoder
	notifier domain.Notifier
	logger   *slog.Logger

	// debounceDelay is the geocode quiet period; overridable in tests.
	debounceDelay time.Duration
	// sessionTTL is the idle lifetime of a session; overridable in tests.
	sessionTTL time.Duration

	mu       sync.Mutex
	sessions map[string]*EditorSession
}

func NewEditorManager(
	events domain.EventRepository,
	profiles domain.ProfileRepository,
	geocoder domain.Geocoder,
	notifier domain.Notifier,
	logger *slog.Logger,
) *EditorManager {
	return &EditorManager{
		events:        events,
		profiles:      profiles,
		geocoder:      geocoder,
		notifier:      notifier,
		logger:        logger,
		debounceDelay: geocodeDebounceDelay,
		sessionTTL:    editorSessionTTL,
		sessions:      make(map[string]*EditorSession),
	}
}

// Open creates a new edit session for userID. A non-empty eventID loads the
// existing event into the session; an empty one seeds creation defaults.
func (m *EditorManager) Open(ctx context.Context, userID, eventID string) (*EditorSession, error) {
	var ev *domain.Event
	if eventID != "" {
		var err error
		ev, err = m.events.GetByID(ctx, eventID)
		if err != nil {
			return nil, err
		}
	}
	s := &EditorSession{
		id:       uuid.NewString(),
		userID:   userID,
		events:   m.events,
		profiles: m.profiles,
		geocoder: m.geocoder,
		notifier: m.notifier,
		logger:   m.logger,
		debounce: NewDebouncer(m.debounceDelay),
	}
	s.Load(ev)

	m.mu.Lock()
	m.sweepLocked()
	s.lastAccess = time.Now()
	m.sessions[s.id] = s
	m.mu.Unlock()
	return s, nil
}

// Get returns the open session with the given id and refreshes its idle timer.
func (m *EditorManager) Get(id string) (*EditorSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if ok {
		s.lastAccess = time.Now()
	}
	return s, ok
}

// sweepLocked evicts sessions idle past the TTL. A client that never calls
// Close leaks its session otherwise. Caller holds m.mu.
func (m *EditorManager) sweepLocked() {
	cutoff := time.Now().Add(-m.sessionTTL)
	for id, s := range m.sessions {
		if s.lastAccess.Before(cutoff) {
			delete(m.sessions, id)
			s.dismiss()
		}
	}
}

// Close dismisses a session, cancelling any pending geocode.
func (m *EditorManager) Close(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.dismiss()
	}
}

// EditorSession manages the lifecycle of a single event-in-edit: field
// mutation, debounced geocoding of the location text, validation, and
// save/delete orchestration against the store and the notifier.
//
// Save and delete are serialized per session by a busy guard; a second call
// while one is in flight returns ErrBusy instead of queuing.
type EditorSession struct {
	id     string
	userID string

	// lastAccess drives TTL eviction; guarded by the manager's mutex.
	lastAccess time.Time

	events   domain.EventRepository
	profiles domain.ProfileRepository
	geocoder domain.Geocoder
	notifier domain.Notifier
	logger   *slog.Logger
	debounce *Debouncer

	mu      sync.Mutex
	eventID string // empty while creating
	fields  FieldsInput
	locText string
	lat     *float64
	lng     *float64
	state   EditorState
	busy    bool

	// geocodeEpoch invalidates in-flight geocode results: a fired request is
	// not aborted, but its result is dropped if the location changed since.
	geocodeEpoch int
}

func (s *EditorSession) ID() string { return s.id }

// Load seeds the editable fields from an existing event, or resets to
// creation defaults (responsible = current user, category = meeting).
// It must run again whenever the target event identity changes; any pending
// geocode from the previous target is cancelled.
func (s *EditorSession) Load(ev *domain.Event) {
	s.debounce.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.geocodeEpoch++
	if ev == nil {
		s.eventID = ""
		s.fields = FieldsInput{
			Category:      domain.CategoryMeeting,
			ResponsibleID: s.userID,
		}
		s.locText = ""
		s.lat, s.lng = nil, nil
		s.state = StateEmpty
		return
	}
	s.eventID = ev.ID
	s.fields = FieldsInput{
		Title:     ev.Title,
		StartTime: ev.StartTime.Format(editorTimeLayout),
		EndTime:   ev.EndTime.Format(editorTimeLayout),
		Category:  ev.Category,
	}
	if ev.Description != nil {
		s.fields.Description = *ev.Description
	}
	if ev.ResponsibleID != nil {
		s.fields.ResponsibleID = *ev.ResponsibleID
	}
	s.locText = ""
	if ev.Location != nil {
		s.locText = *ev.Location
	}
	s.lat, s.lng = copyCoords(ev.LocationLat, ev.LocationLng)
	s.state = StateEditing
}

// SetFields updates the non-location fields.
func (s *EditorSession) SetFields(in FieldsInput) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields = in
	if s.state == StateEmpty {
		s.state = StateEditing
	}
}

// SetLocation updates the location text synchronously and drives the
// debounced geocode pipeline: a query of 3+ characters (re)starts the quiet
// timer, superseding any pending resolution; a shorter one cancels the timer
// and clears the cached coordinates immediately so no stale resolution
// survives a cleared query.
func (s *EditorSession) SetLocation(text string) {
	s.mu.Lock()
	s.locText = text
	if s.state == StateEmpty {
		s.state = StateEditing
	}
	s.geocodeEpoch++
	epoch := s.geocodeEpoch
	if len(strings.TrimSpace(text)) < minGeocodeQueryLen {
		s.lat, s.lng = nil, nil
		s.mu.Unlock()
		s.debounce.Stop()
		return
	}
	s.mu.Unlock()
	s.debounce.Trigger(func() {
		s.resolveLocation(epoch, text)
	})
}

// SetCoordinates is the map-click override: it sets the pair directly and
// cancels any pending geocode so the manual pick is not overwritten.
func (s *EditorSession) SetCoordinates(lat, lng float64) {
	s.debounce.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.geocodeEpoch++
	s.lat, s.lng = &lat, &lng
	if s.state == StateEmpty {
		s.state = StateEditing
	}
}

func (s *EditorSession) resolveLocation(epoch int, query string) {
	ctx, cancel := context.WithTimeout(context.Background(), geocodeTimeout)
	defer cancel()
	coords, err := s.geocoder.Resolve(ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.geocodeEpoch {
		// Location changed while the request was in flight; drop the result.
		return
	}
	if err != nil {
		s.lat, s.lng = nil, nil
		s.logger.Debug("geocode failed", "query", query, "err", err)
		return
	}
	if coords == nil {
		s.lat, s.lng = nil, nil
		return
	}
	lat, lng := coords.Lat, coords.Lng
	s.lat, s.lng = &lat, &lng
}

// Validate checks the current fields without touching the remote store.
// It returns a ValidationError naming the violated field, or nil.
func (s *EditorSession) Validate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.buildEvent()
	return err
}

// Save validates and writes the event. Creation sets the owner to the current
// user; an update never includes the owner field, so an edit cannot transfer
// ownership. After a successful write the responsible party is notified
// asynchronously, best effort. On store failure the edit state is kept so the
// user can retry.
func (s *EditorSession) Save(ctx context.Context) (*domain.Event, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, domain.ErrBusy
	}
	ev, verr := s.buildEvent()
	if verr != nil {
		s.mu.Unlock()
		return nil, verr
	}
	s.busy = true
	s.state = StateSaving
	creating := s.eventID == ""
	eventID := s.eventID
	s.mu.Unlock()

	var err error
	if creating {
		ev.OwnerID = s.userID
		ev.CreatedAt = ev.UpdatedAt
		err = s.events.Create(ctx, ev)
	} else {
		ev.ID = eventID
		err = s.events.Update(ctx, ev)
	}

	s.mu.Lock()
	s.busy = false
	if err != nil {
		s.state = StateSaveFailed
		s.mu.Unlock()
		return nil, &domain.SaveError{Err: err}
	}
	s.eventID = ev.ID
	s.state = StateSaved
	respID := s.fields.ResponsibleID
	s.mu.Unlock()
	s.debounce.Stop()

	if respID != "" {
		go s.notifyResponsible(respID, ev, creating)
	}
	return ev, nil
}

// Delete removes the event. User confirmation is an out-of-band UI gate
// enforced by the caller before this is reached.
func (s *EditorSession) Delete(ctx context.Context) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return domain.ErrBusy
	}
	if s.eventID == "" {
		s.mu.Unlock()
		return domain.ErrInvalidInput
	}
	s.busy = true
	s.state = StateDeleting
	eventID := s.eventID
	s.mu.Unlock()

	err := s.events.Delete(ctx, eventID)

	s.mu.Lock()
	s.busy = false
	if err != nil {
		s.state = StateDeleteFailed
		s.mu.Unlock()
		return &domain.DeleteError{Err: err}
	}
	s.state = StateDeleted
	s.mu.Unlock()
	s.debounce.Stop()
	return nil
}

// EditorSnapshot is the externally visible view of a session.
// swagger:model EditorSnapshot
type EditorSnapshot struct {
	ID          string      `json:"id"`
	EventID     string      `json:"event_id,omitempty"`
	State       EditorState `json:"state"`
	Fields      FieldsInput `json:"fields"`
	Location    string      `json:"location"`
	LocationLat *float64    `json:"location_lat"`
	LocationLng *float64    `json:"location_lng"`
}

// Snapshot returns a copy of the session's visible state.
func (s *EditorSession) Snapshot() EditorSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	lat, lng := copyCoords(s.lat, s.lng)
	return EditorSnapshot{
		ID:          s.id,
		EventID:     s.eventID,
		State:       s.state,
		Fields:      s.fields,
		Location:    s.locText,
		LocationLat: lat,
		LocationLng: lng,
	}
}

// buildEvent validates the fields and constructs the save payload.
// Caller holds s.mu.
func (s *EditorSession) buildEvent() (*domain.Event, error) {
	if strings.TrimSpace(s.fields.Title) == "" {
		return nil, &domain.ValidationError{Field: "title", Message: "title is required"}
	}
	start, err := time.Parse(editorTimeLayout, s.fields.StartTime)
	if err != nil {
		return nil, &domain.ValidationError{Field: "start_time", Message: "invalid start time"}
	}
	end, err := time.Parse(editorTimeLayout, s.fields.EndTime)
	if err != nil {
		return nil, &domain.ValidationError{Field: "end_time", Message: "invalid end time"}
	}
	if !end.After(start) {
		return nil, &domain.ValidationError{Field: "end_time", Message: "end time must be after start time"}
	}
	category := s.fields.Category
	if !category.Valid() {
		return nil, &domain.ValidationError{Field: "category", Message: "unknown category"}
	}

	ev := &domain.Event{
		Title:     s.fields.Title,
		StartTime: start,
		EndTime:   end,
		Category:  category,
		UpdatedAt: time.Now(),
	}
	if s.fields.Description != "" {
		desc := s.fields.Description
		ev.Description = &desc
	}
	if s.locText != "" {
		loc := s.locText
		ev.Location = &loc
	}
	ev.LocationLat, ev.LocationLng = copyCoords(s.lat, s.lng)
	if s.fields.ResponsibleID != "" {
		resp := s.fields.ResponsibleID
		ev.ResponsibleID = &resp
	}
	return ev, nil
}

func (s *EditorSession) notifyResponsible(respID string, ev *domain.Event, created bool) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	profile, err := s.profiles.GetByID(ctx, respID)
	if err != nil {
		s.logger.Warn("responsible lookup failed", "responsible_id", respID, "err", err)
		return
	}
	if profile.Email == "" {
		return
	}
	subject := "Event changed"
	if created {
		subject = "New event"
	}
	data := &domain.EventNotificationData{
		Email:     profile.Email,
		Subject:   subject,
		Title:     ev.Title,
		StartTime: ev.StartTime.Format("02.01.2006 15:04"),
	}
	if ev.Description != nil {
		data.Description = *ev.Description
	}
	if ev.Location != nil {
		data.Location = *ev.Location
	}
	if err := s.notifier.SendEventNotification(ctx, data); err != nil {
		// Best effort: a failed notification never rolls back the save.
		s.logger.Warn("event notification failed", "event_id", ev.ID, "err", err)
	}
}

func (s *EditorSession) dismiss() {
	s.debounce.Stop()
	s.mu.Lock()
	s.geocodeEpoch++
	s.mu.Unlock()
}

func copyCoords(lat, lng *float64) (*float64, *float64) {
	if lat == nil || lng == nil {
		return nil, nil
	}
	la, ln := *lat, *lng
	return &la, &ln
}
