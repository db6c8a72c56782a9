package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"groupcalendar/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (title, description, start_time, end_time, location, location_lat, location_lng, category, owner_id, responsible_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		e.Title, e.Description, e.StartTime, e.EndTime,
		e.Location, e.LocationLat, e.LocationLng, e.Category,
		e.OwnerID, e.ResponsibleID, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT id, title, description, start_time, end_time, location, location_lat, location_lng, category, owner_id, responsible_id, created_at, updated_at
		FROM events
		WHERE id = $1
	`
	e := &domain.Event{}
	var descNull, locNull, respNull sql.NullString
	var latNull, lngNull sql.NullFloat64
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Title, &descNull, &e.StartTime, &e.EndTime,
		&locNull, &latNull, &lngNull, &e.Category,
		&e.OwnerID, &respNull, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if descNull.Valid {
		e.Description = &descNull.String
	}
	if locNull.Valid {
		e.Location = &locNull.String
	}
	if latNull.Valid {
		e.LocationLat = &latNull.Float64
	}
	if lngNull.Valid {
		e.LocationLng = &lngNull.Float64
	}
	if respNull.Valid {
		e.ResponsibleID = &respNull.String
	}
	return e, nil
}

// Update writes every editable field. owner_id is deliberately absent from the
// SET clause: ownership is fixed at creation and an edit must not change it.
func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events
		SET title = $1, description = $2, start_time = $3, end_time = $4, location = $5, location_lat = $6, location_lng = $7, category = $8, responsible_id = $9, updated_at = $10
		WHERE id = $11
	`
	result, err := r.DB.ExecContext(ctx, query,
		e.Title, e.Description, e.StartTime, e.EndTime,
		e.Location, e.LocationLat, e.LocationLng, e.Category,
		e.ResponsibleID, e.UpdatedAt, e.ID,
	)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) ListUpcoming(ctx context.Context, limit int) ([]*domain.EventRecord, error) {
	query := `
		SELECT e.id, e.title, e.description, e.start_time, e.end_time, e.location, e.location_lat, e.location_lng, e.category, e.owner_id, e.responsible_id, e.created_at, e.updated_at,
			o.id, o.full_name, o.email, o.avatar_url, o.role,
			rp.id, rp.full_name, rp.email, rp.avatar_url, rp.role
		FROM events e
		JOIN profiles o ON o.id = e.owner_id
		LEFT JOIN profiles rp ON rp.id = e.responsible_id
		ORDER BY e.start_time ASC
		LIMIT $1
	`
	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*domain.EventRecord, 0)
	for rows.Next() {
		rec := &domain.EventRecord{}
		var descNull, locNull, respNull sql.NullString
		var latNull, lngNull sql.NullFloat64
		var ownerAvatarNull sql.NullString
		var rpID, rpName, rpEmail, rpAvatar, rpRole sql.NullString
		owner := &domain.Profile{}
		if err := rows.Scan(
			&rec.ID, &rec.Title, &descNull, &rec.StartTime, &rec.EndTime,
			&locNull, &latNull, &lngNull, &rec.Category,
			&rec.OwnerID, &respNull, &rec.CreatedAt, &rec.UpdatedAt,
			&owner.ID, &owner.FullName, &owner.Email, &ownerAvatarNull, &owner.Role,
			&rpID, &rpName, &rpEmail, &rpAvatar, &rpRole,
		); err != nil {
			return nil, err
		}
		if descNull.Valid {
			rec.Description = &descNull.String
		}
		if locNull.Valid {
			rec.Location = &locNull.String
		}
		if latNull.Valid {
			rec.LocationLat = &latNull.Float64
		}
		if lngNull.Valid {
			rec.LocationLng = &lngNull.Float64
		}
		if respNull.Valid {
			rec.ResponsibleID = &respNull.String
		}
		if ownerAvatarNull.Valid {
			owner.AvatarURL = &ownerAvatarNull.String
		}
		rec.Owner = owner
		if rpID.Valid {
			responsible := &domain.Profile{
				ID:       rpID.String,
				FullName: rpName.String,
				Email:    rpEmail.String,
				Role:     rpRole.String,
			}
			if rpAvatar.Valid {
				responsible.AvatarURL = &rpAvatar.String
			}
			rec.Responsible = responsible
		}
		rec.Participants = []string{}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachParticipants(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

// attachParticipants fills in participant display names for the given records
// with a single query over event_participants.
func (r *eventRepository) attachParticipants(ctx context.Context, records []*domain.EventRecord) error {
	if len(records) == 0 {
		return nil
	}
	ids := make([]string, 0, len(records))
	byID := make(map[string]*domain.EventRecord, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
		byID[rec.ID] = rec
	}
	query := `
		SELECT ep.event_id, p.full_name
		FROM event_participants ep
		JOIN profiles p ON p.id = ep.user_id
		WHERE ep.event_id = ANY($1)
		ORDER BY p.full_name ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var eventID, name string
		if err := rows.Scan(&eventID, &name); err != nil {
			return err
		}
		if rec, ok := byID[eventID]; ok {
			rec.Participants = append(rec.Participants, name)
		}
	}
	return rows.Err()
}
