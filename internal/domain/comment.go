package domain

import (
	"context"
	"time"
)

// Comment represents a single discussion entry under an event.
// Comments are immutable after creation; there is no edit or delete.
// swagger:model Comment
type Comment struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentRecord is a Comment joined with its author's display fields.
type CommentRecord struct {
	Comment
	AuthorName      string  `json:"author_name"`
	AuthorAvatarURL *string `json:"author_avatar_url"`
}

// CommentRepository defines the interface for comment storage.
type CommentRepository interface {
	Create(ctx context.Context, comment *Comment) error
	ListByEventID(ctx context.Context, eventID string) ([]*CommentRecord, error)
}
