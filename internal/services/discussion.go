package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"groupcalendar/internal/domain"
)

// DiscussionFeed is the per-event comment surface. The canonical list is
// always re-fetched from the store; posting never appends optimistically.
// Liveness comes from Watch: change signals filtered by event id at the feed
// boundary, so unrelated events' comments never trigger a refresh.
type DiscussionFeed struct {
	comments domain.CommentRepository
	feed     domain.ChangeFeed
	logger   *slog.Logger
}

func NewDiscussionFeed(comments domain.CommentRepository, feed domain.ChangeFeed, logger *slog.Logger) *DiscussionFeed {
	return &DiscussionFeed{
		comments: comments,
		feed:     feed,
		logger:   logger,
	}
}

// List returns the comments for the event, oldest first.
func (f *DiscussionFeed) List(ctx context.Context, eventID string) ([]*domain.CommentRecord, error) {
	comments, err := f.comments.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// Post inserts a comment. Empty (trimmed) text is rejected with
// ErrEmptyComment. The visible list refreshes through the change feed.
func (f *DiscussionFeed) Post(ctx context.Context, eventID, authorID, text string) (*domain.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyComment
	}
	c := &domain.Comment{
		EventID:   eventID,
		UserID:    authorID,
		Content:   text,
		CreatedAt: time.Now(),
	}
	if err := f.comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}

// Watch subscribes to comment changes for one event. Filtering happens at the
// subscription boundary (the notification payload is the parent event id),
// not by inspecting signals client-side.
func (f *DiscussionFeed) Watch(eventID string) (<-chan domain.Change, func()) {
	return f.feed.Subscribe(domain.ChannelCommentsChanged, eventID)
}
