package domain

import (
	"context"
	"time"
)

// Category classifies a calendar event.
type Category string

const (
	CategoryMeeting  Category = "meeting"
	CategoryDeadline Category = "deadline"
	CategoryVacation Category = "vacation"
	CategoryOther    Category = "other"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryMeeting, CategoryDeadline, CategoryVacation, CategoryOther:
		return true
	}
	return false
}

// Color returns the calendar display color for the category.
// Unknown categories fall back to the default blue.
func (c Category) Color() string {
	switch c {
	case CategoryMeeting:
		return "#ef4444"
	case CategoryDeadline:
		return "#f59e0b"
	case CategoryVacation:
		return "#10b981"
	default:
		return "#3b82f6"
	}
}

// Event represents a calendar event. Location text is authoritative; the
// coordinate pair is a cached resolution of it and is either both-present
// or both-absent. OwnerID is set once at creation and never changes.
// swagger:model Event
type Event struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   *string   `json:"description"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Location      *string   `json:"location"`
	LocationLat   *float64  `json:"location_lat"`
	LocationLng   *float64  `json:"location_lng"`
	Category      Category  `json:"category"`
	OwnerID       string    `json:"owner_id"`
	ResponsibleID *string   `json:"responsible_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// EventRecord is an Event joined with its owner and responsible profiles and
// participant display names. Produced by the repository list query; read-only.
type EventRecord struct {
	Event
	Owner        *Profile `json:"owner"`
	Responsible  *Profile `json:"responsible"`
	Participants []string `json:"participants"`
}

// DisplayEvent is the calendar-surface view of an event: start, end, title,
// and a color derived from the category.
// swagger:model DisplayEvent
type DisplayEvent struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	Color           string    `json:"color"`
	Description     *string   `json:"description"`
	Location        *string   `json:"location"`
	LocationLat     *float64  `json:"location_lat"`
	LocationLng     *float64  `json:"location_lng"`
	Category        Category  `json:"category"`
	OwnerID         string    `json:"owner_id"`
	ResponsibleID   *string   `json:"responsible_id"`
	ResponsibleName string    `json:"responsible_name,omitempty"`
	Participants    []string  `json:"participants,omitempty"`
}

// EventRepository defines the interface for event storage.
// Update never touches owner_id; ownership is fixed at creation.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	Update(ctx context.Context, event *Event) error
	Delete(ctx context.Context, id string) error
	ListUpcoming(ctx context.Context, limit int) ([]*EventRecord, error)
}
