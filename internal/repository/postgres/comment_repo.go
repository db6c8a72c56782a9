package postgres

import (
	"context"
	"database/sql"

	"groupcalendar/internal/domain"
)

type commentRepository struct {
	DB *sql.DB
}

func NewCommentRepository(db *sql.DB) domain.CommentRepository {
	return &commentRepository{
		DB: db,
	}
}

func (r *commentRepository) Create(ctx context.Context, c *domain.Comment) error {
	query := `
		INSERT INTO comments (event_id, user_id, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, c.EventID, c.UserID, c.Content, c.CreatedAt).Scan(&c.ID)
}

func (r *commentRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.CommentRecord, error) {
	query := `
		SELECT c.id, c.event_id, c.user_id, c.content, c.created_at, p.full_name, p.avatar_url
		FROM comments c
		JOIN profiles p ON p.id = c.user_id
		WHERE c.event_id = $1
		ORDER BY c.created_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	comments := make([]*domain.CommentRecord, 0)
	for rows.Next() {
		rec := &domain.CommentRecord{}
		var avatarNull sql.NullString
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.UserID, &rec.Content, &rec.CreatedAt, &rec.AuthorName, &avatarNull); err != nil {
			return nil, err
		}
		if avatarNull.Valid {
			rec.AuthorAvatarURL = &avatarNull.String
		}
		comments = append(comments, rec)
	}
	return comments, rows.Err()
}
