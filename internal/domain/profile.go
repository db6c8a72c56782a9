package domain

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateEmail is returned on sign-up with an already registered email.
var ErrDuplicateEmail = errors.New("email already in use")

// Profile represents a registered user's profile. Read-only from the core's
// perspective; used for responsible-party selection and notification addressing.
// swagger:model Profile
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	AvatarURL *string   `json:"avatar_url"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Credentials holds the stored password material for a profile.
// Kept separate from Profile so it never leaks into API responses.
type Credentials struct {
	ProfileID    string
	PasswordHash string
	Salt         string
}

// PasswordHasher handles salt generation, hashing, and verification.
// Implementations may use bcrypt, argon2, etc.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, role string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated user ID.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// ProfileRepository defines the interface for profile storage.
type ProfileRepository interface {
	Create(ctx context.Context, profile *Profile, creds *Credentials) error
	GetByID(ctx context.Context, id string) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	GetCredentialsByEmail(ctx context.Context, email string) (*Credentials, error)
	List(ctx context.Context) ([]*Profile, error)
}

// AuthService defines sign-up and sign-in. Sign-out is a client-side token
// drop; there is no server-side session state.
type AuthService interface {
	SignUp(ctx context.Context, email, password string) (token string, profile *Profile, err error)
	SignIn(ctx context.Context, email, password string) (token string, profile *Profile, err error)
}
