package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"

	"groupcalendar/internal/domain"
)

type profileRepository struct {
	DB *sql.DB
}

func NewProfileRepository(db *sql.DB) domain.ProfileRepository {
	return &profileRepository{
		DB: db,
	}
}

func (r *profileRepository) Create(ctx context.Context, p *domain.Profile, creds *domain.Credentials) error {
	query := `
		INSERT INTO profiles (email, full_name, avatar_url, role, password_hash, salt, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		p.Email, p.FullName, p.AvatarURL, p.Role,
		creds.PasswordHash, creds.Salt, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	creds.ProfileID = p.ID
	return nil
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	query := `
		SELECT id, email, full_name, avatar_url, role, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, id))
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	query := `
		SELECT id, email, full_name, avatar_url, role, created_at, updated_at
		FROM profiles
		WHERE email = $1
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, email))
}

func (r *profileRepository) GetCredentialsByEmail(ctx context.Context, email string) (*domain.Credentials, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	query := `
		SELECT id, password_hash, salt
		FROM profiles
		WHERE email = $1
	`
	c := &domain.Credentials{}
	err := r.DB.QueryRowContext(ctx, query, email).Scan(&c.ProfileID, &c.PasswordHash, &c.Salt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *profileRepository) List(ctx context.Context) ([]*domain.Profile, error) {
	query := `
		SELECT id, email, full_name, avatar_url, role, created_at, updated_at
		FROM profiles
		ORDER BY full_name ASC
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	profiles := make([]*domain.Profile, 0)
	for rows.Next() {
		p := &domain.Profile{}
		var avatarNull sql.NullString
		if err := rows.Scan(&p.ID, &p.Email, &p.FullName, &avatarNull, &p.Role, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if avatarNull.Valid {
			p.AvatarURL = &avatarNull.String
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (r *profileRepository) scanOne(row *sql.Row) (*domain.Profile, error) {
	p := &domain.Profile{}
	var avatarNull sql.NullString
	err := row.Scan(&p.ID, &p.Email, &p.FullName, &avatarNull, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if avatarNull.Valid {
		p.AvatarURL = &avatarNull.String
	}
	return p, nil
}
