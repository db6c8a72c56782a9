package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"groupcalendar/internal/delivery/http/helpers"
	"groupcalendar/internal/delivery/http/middleware"
	"groupcalendar/internal/domain"
	"groupcalendar/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEventRepo is a minimal in-memory event store for editor handler tests.
type stubEventRepo struct {
	byID map[string]*domain.Event
}

func newStubEventRepo() *stubEventRepo {
	return &stubEventRepo{byID: make(map[string]*domain.Event)}
}

func (s *stubEventRepo) Create(ctx context.Context, e *domain.Event) error {
	e.ID = "ev-1"
	cp := *e
	s.byID[e.ID] = &cp
	return nil
}

func (s *stubEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if e, ok := s.byID[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubEventRepo) Update(ctx context.Context, e *domain.Event) error {
	if _, ok := s.byID[e.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *e
	s.byID[e.ID] = &cp
	return nil
}

func (s *stubEventRepo) Delete(ctx context.Context, id string) error {
	if _, ok := s.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *stubEventRepo) ListUpcoming(ctx context.Context, limit int) ([]*domain.EventRecord, error) {
	out := make([]*domain.EventRecord, 0, len(s.byID))
	for _, e := range s.byID {
		out = append(out, &domain.EventRecord{Event: *e})
	}
	return out, nil
}

type stubProfileRepo struct{}

func (stubProfileRepo) Create(ctx context.Context, p *domain.Profile, c *domain.Credentials) error {
	return nil
}
func (stubProfileRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	return &domain.Profile{ID: id, FullName: "Alice"}, nil
}
func (stubProfileRepo) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return nil, domain.ErrNotFound
}
func (stubProfileRepo) GetCredentialsByEmail(ctx context.Context, email string) (*domain.Credentials, error) {
	return nil, domain.ErrNotFound
}
func (stubProfileRepo) List(ctx context.Context) ([]*domain.Profile, error) {
	return nil, nil
}

type stubGeocoder struct{}

func (stubGeocoder) Resolve(ctx context.Context, query string) (*domain.Coordinates, error) {
	return &domain.Coordinates{Lat: 1, Lng: 2}, nil
}

type stubNotifier struct{}

func (stubNotifier) SendEventNotification(ctx context.Context, data *domain.EventNotificationData) error {
	return nil
}

func newEditorController(t *testing.T) (*EditorController, *stubEventRepo) {
	t.Helper()
	repo := newStubEventRepo()
	manager := services.NewEditorManager(repo, stubProfileRepo{}, stubGeocoder{}, stubNotifier{}, testLogger)
	return NewEditorController(testLogger, manager), repo
}

func authedRequest(method, target string, body any) *http.Request {
	var req *http.Request
	if body != nil {
		raw, _ := json.Marshal(body)
		req = httptest.NewRequest(method, target, bytes.NewReader(raw))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(middleware.SetUserID(req.Context(), "user-1"))
}

func openSession(t *testing.T, c *EditorController, eventID string) string {
	t.Helper()
	req := authedRequest(http.MethodPost, "/editor", OpenEditorRequest{EventID: eventID})
	rr := httptest.NewRecorder()
	c.Open(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)
	envelope := decodeEnvelope(t, rr)
	data := envelope.Data.(map[string]any)
	id, _ := data["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestEditorController_OpenAndGet(t *testing.T) {
	c, _ := newEditorController(t)
	id := openSession(t, c, "")

	req := authedRequest(http.MethodGet, "/editor/"+id, nil)
	req.SetPathValue("sessionID", id)
	rr := httptest.NewRecorder()
	c.Get(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	envelope := decodeEnvelope(t, rr)
	data := envelope.Data.(map[string]any)
	assert.Equal(t, "empty", data["state"])
}

func TestEditorController_Open_missingEvent(t *testing.T) {
	c, _ := newEditorController(t)
	req := authedRequest(http.MethodPost, "/editor", OpenEditorRequest{EventID: "ev-nope"})
	rr := httptest.NewRecorder()
	c.Open(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEditorController_UnknownSession(t *testing.T) {
	c, _ := newEditorController(t)
	req := authedRequest(http.MethodGet, "/editor/nope", nil)
	req.SetPathValue("sessionID", "nope")
	rr := httptest.NewRecorder()
	c.Get(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
	envelope := decodeEnvelope(t, rr)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, helpers.ErrCodeNotFound, envelope.Error.Code)
}

func TestEditorController_SetFieldsAndSave(t *testing.T) {
	c, repo := newEditorController(t)
	id := openSession(t, c, "")

	fields := services.FieldsInput{
		Title:     "Sync",
		StartTime: "2025-03-01T10:00",
		EndTime:   "2025-03-01T11:00",
		Category:  domain.CategoryMeeting,
	}
	req := authedRequest(http.MethodPut, "/editor/"+id+"/fields", fields)
	req.SetPathValue("sessionID", id)
	rr := httptest.NewRecorder()
	c.SetFields(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req = authedRequest(http.MethodPost, "/editor/"+id+"/save", nil)
	req.SetPathValue("sessionID", id)
	rr = httptest.NewRecorder()
	c.Save(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	stored, err := repo.GetByID(context.Background(), "ev-1")
	require.NoError(t, err)
	assert.Equal(t, "Sync", stored.Title)
	assert.Equal(t, "user-1", stored.OwnerID)
}

func TestEditorController_Save_validationError(t *testing.T) {
	c, _ := newEditorController(t)
	id := openSession(t, c, "")

	req := authedRequest(http.MethodPost, "/editor/"+id+"/save", nil)
	req.SetPathValue("sessionID", id)
	rr := httptest.NewRecorder()
	c.Save(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	envelope := decodeEnvelope(t, rr)
	require.NotNil(t, envelope.Error)
	assert.Contains(t, envelope.Error.Message, "title")
}

func TestEditorController_SetLocationResolvesCoordinates(t *testing.T) {
	c, _ := newEditorController(t)
	id := openSession(t, c, "")

	req := authedRequest(http.MethodPut, "/editor/"+id+"/location", SetLocationRequest{Text: "Berlin"})
	req.SetPathValue("sessionID", id)
	rr := httptest.NewRecorder()
	c.SetLocation(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	// The snapshot returned by SetLocation predates the debounce; poll Get
	// until the stub geocoder's result lands.
	require.Eventually(t, func() bool {
		req := authedRequest(http.MethodGet, "/editor/"+id, nil)
		req.SetPathValue("sessionID", id)
		rr := httptest.NewRecorder()
		c.Get(rr, req)
		envelope := decodeEnvelope(t, rr)
		data := envelope.Data.(map[string]any)
		return data["location_lat"] != nil
	}, 5*time.Second, 50*time.Millisecond)
}

func TestEditorController_DeleteUnsaved(t *testing.T) {
	c, _ := newEditorController(t)
	id := openSession(t, c, "")

	req := authedRequest(http.MethodPost, "/editor/"+id+"/delete", nil)
	req.SetPathValue("sessionID", id)
	rr := httptest.NewRecorder()
	c.Delete(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEditorController_Close(t *testing.T) {
	c, _ := newEditorController(t)
	id := openSession(t, c, "")

	req := authedRequest(http.MethodDelete, "/editor/"+id, nil)
	req.SetPathValue("sessionID", id)
	rr := httptest.NewRecorder()
	c.Close(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req = authedRequest(http.MethodGet, "/editor/"+id, nil)
	req.SetPathValue("sessionID", id)
	rr = httptest.NewRecorder()
	c.Get(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}
