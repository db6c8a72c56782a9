package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"groupcalendar/internal/domain"
)

const (
	minPasswordLen = 8
	defaultRole    = "participant"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type authService struct {
	profiles    domain.ProfileRepository
	hasher      domain.PasswordHasher
	tokenIssuer domain.TokenIssuer
	tokenExpiry time.Duration
}

// NewAuthService creates an AuthService with the given profile repository and
// auth ports.
func NewAuthService(profiles domain.ProfileRepository, hasher domain.PasswordHasher, tokenIssuer domain.TokenIssuer, tokenExpiry time.Duration) domain.AuthService {
	return &authService{
		profiles:    profiles,
		hasher:      hasher,
		tokenIssuer: tokenIssuer,
		tokenExpiry: tokenExpiry,
	}
}

// SignUp registers a new profile. Display name defaults to the email local
// part and role to participant; both can be edited elsewhere later.
func (s *authService) SignUp(ctx context.Context, email, password string) (string, *domain.Profile, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegexp.MatchString(email) {
		return "", nil, fmt.Errorf("invalid email format")
	}
	if len(password) < minPasswordLen {
		return "", nil, fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	hash, err := s.hasher.Hash(salt, password)
	if err != nil {
		return "", nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	profile := &domain.Profile{
		Email:     email,
		FullName:  email[:strings.Index(email, "@")],
		Role:      defaultRole,
		CreatedAt: now,
		UpdatedAt: now,
	}
	creds := &domain.Credentials{PasswordHash: hash, Salt: salt}
	if err := s.profiles.Create(ctx, profile, creds); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return "", nil, domain.ErrDuplicateEmail
		}
		return "", nil, fmt.Errorf("failed to create profile: %w", err)
	}

	token, err := s.tokenIssuer.Issue(profile.ID, profile.Email, profile.Role, s.tokenExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return token, profile, nil
}

// SignIn verifies the password and issues a session token.
func (s *authService) SignIn(ctx context.Context, email, password string) (string, *domain.Profile, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	creds, err := s.profiles.GetCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, fmt.Errorf("invalid email or password")
		}
		return "", nil, fmt.Errorf("failed to get credentials: %w", err)
	}
	if err := s.hasher.Compare(creds.PasswordHash, creds.Salt, password); err != nil {
		return "", nil, fmt.Errorf("invalid email or password")
	}
	profile, err := s.profiles.GetByID(ctx, creds.ProfileID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to get profile: %w", err)
	}
	token, err := s.tokenIssuer.Issue(profile.ID, profile.Email, profile.Role, s.tokenExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return token, profile, nil
}
