package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"groupcalendar/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFakeRepo struct {
	profiles map[string]*domain.Profile     // by id
	creds    map[string]*domain.Credentials // by email
	nextID   int
}

func newAuthFakeRepo() *authFakeRepo {
	return &authFakeRepo{
		profiles: make(map[string]*domain.Profile),
		creds:    make(map[string]*domain.Credentials),
		nextID:   1,
	}
}

func (f *authFakeRepo) Create(ctx context.Context, p *domain.Profile, creds *domain.Credentials) error {
	if _, ok := f.creds[p.Email]; ok {
		return domain.ErrDuplicateEmail
	}
	p.ID = fmt.Sprintf("user-%d", f.nextID)
	f.nextID++
	f.profiles[p.ID] = p
	creds.ProfileID = p.ID
	f.creds[p.Email] = creds
	return nil
}

func (f *authFakeRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	if p, ok := f.profiles[id]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (f *authFakeRepo) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	for _, p := range f.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *authFakeRepo) GetCredentialsByEmail(ctx context.Context, email string) (*domain.Credentials, error) {
	if c, ok := f.creds[email]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (f *authFakeRepo) List(ctx context.Context) ([]*domain.Profile, error) {
	out := make([]*domain.Profile, 0, len(f.profiles))
	for _, p := range f.profiles {
		out = append(out, p)
	}
	return out, nil
}

type fakeHasher struct{}

func (fakeHasher) GenerateSalt() (string, error) { return "salt", nil }

func (fakeHasher) Hash(salt, password string) (string, error) {
	return salt + ":" + password, nil
}

func (fakeHasher) Compare(hash, salt, password string) error {
	if hash != salt+":"+password {
		return errors.New("hash mismatch")
	}
	return nil
}

type fakeIssuer struct {
	err error
}

func (f fakeIssuer) Issue(userID, email, role string, expiry time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-for-" + userID, nil
}

func TestAuthService_SignUp(t *testing.T) {
	repo := newAuthFakeRepo()
	svc := NewAuthService(repo, fakeHasher{}, fakeIssuer{}, time.Hour)

	token, profile, err := svc.SignUp(context.Background(), "Alice@Example.COM", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "token-for-user-1", token)
	assert.Equal(t, "alice@example.com", profile.Email)
	assert.Equal(t, "alice", profile.FullName)
	assert.Equal(t, "participant", profile.Role)
}

func TestAuthService_SignUpValidation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"bad email", "not-an-email", "correct-horse"},
		{"short password", "alice@example.com", "short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newAuthFakeRepo()
			svc := NewAuthService(repo, fakeHasher{}, fakeIssuer{}, time.Hour)
			_, _, err := svc.SignUp(context.Background(), tt.email, tt.password)
			require.Error(t, err)
			assert.Empty(t, repo.profiles)
		})
	}
}

func TestAuthService_SignUpDuplicateEmail(t *testing.T) {
	repo := newAuthFakeRepo()
	svc := NewAuthService(repo, fakeHasher{}, fakeIssuer{}, time.Hour)

	_, _, err := svc.SignUp(context.Background(), "alice@example.com", "correct-horse")
	require.NoError(t, err)
	_, _, err = svc.SignUp(context.Background(), "alice@example.com", "correct-horse")
	require.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestAuthService_SignIn(t *testing.T) {
	repo := newAuthFakeRepo()
	svc := NewAuthService(repo, fakeHasher{}, fakeIssuer{}, time.Hour)
	_, _, err := svc.SignUp(context.Background(), "alice@example.com", "correct-horse")
	require.NoError(t, err)

	token, profile, err := svc.SignIn(context.Background(), "alice@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "token-for-user-1", token)
	assert.Equal(t, "alice@example.com", profile.Email)
}

func TestAuthService_SignInRejectsBadCredentials(t *testing.T) {
	repo := newAuthFakeRepo()
	svc := NewAuthService(repo, fakeHasher{}, fakeIssuer{}, time.Hour)
	_, _, err := svc.SignUp(context.Background(), "alice@example.com", "correct-horse")
	require.NoError(t, err)

	// Wrong password and unknown email produce the same generic error.
	_, _, errPassword := svc.SignIn(context.Background(), "alice@example.com", "wrong-password")
	require.Error(t, errPassword)
	_, _, errEmail := svc.SignIn(context.Background(), "nobody@example.com", "correct-horse")
	require.Error(t, errEmail)
	assert.Equal(t, errPassword.Error(), errEmail.Error())
}
