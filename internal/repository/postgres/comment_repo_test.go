package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"groupcalendar/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		comment *domain.Comment
		mock    func(mock sqlmock.Sqlmock)
		wantID  string
		wantErr bool
	}{
		{
			name: "success",
			comment: &domain.Comment{
				EventID:   "ev-1",
				UserID:    "user-1",
				Content:   "see you there",
				CreatedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
			},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO comments \(event_id, user_id, content, created_at\)`).
					WithArgs("ev-1", "user-1", "see you there", time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("c-1"))
			},
			wantID: "c-1",
		},
		{
			name: "db error",
			comment: &domain.Comment{
				EventID: "ev-1",
				UserID:  "user-1",
				Content: "hi",
			},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO comments`).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewCommentRepository(db)
			err = repo.Create(ctx, tt.comment)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, tt.comment.ID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCommentRepository_ListByEventID(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	t1 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(5 * time.Minute)

	mock.ExpectQuery(`(?s)SELECT c\.id, c\.event_id, c\.user_id, c\.content, c\.created_at, p\.full_name, p\.avatar_url.*WHERE c\.event_id = \$1\s+ORDER BY c\.created_at ASC`).
		WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "user_id", "content", "created_at", "full_name", "avatar_url"}).
			AddRow("c-1", "ev-1", "user-1", "first", t1, "Alice", nil).
			AddRow("c-2", "ev-1", "user-2", "second", t2, "Bob", "https://example.com/b.png"))

	repo := NewCommentRepository(db)
	comments, err := repo.ListByEventID(ctx, "ev-1")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	require.Equal(t, "first", comments[0].Content)
	require.Equal(t, "Alice", comments[0].AuthorName)
	require.Nil(t, comments[0].AuthorAvatarURL)
	require.Equal(t, "second", comments[1].Content)
	require.NotNil(t, comments[1].AuthorAvatarURL)
	require.True(t, comments[0].CreatedAt.Before(comments[1].CreatedAt))
	require.NoError(t, mock.ExpectationsWereMet())
}
