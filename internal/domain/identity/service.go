package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/telecare/telecare/internal/platform/auth"
	"github.com/telecare/telecare/internal/platform/cache"
)

const (
	minPasswordLength   = 8
	defaultRoleCacheTTL = 5 * time.Minute
)

type Service struct {
	identities IdentityRepository
	profiles   ProfileRepository
	issuer     *auth.Issuer
	cache      cache.Cache
	roleTTL    time.Duration
	logger     zerolog.Logger
}

func NewService(identities IdentityRepository, profiles ProfileRepository, issuer *auth.Issuer, c cache.Cache, roleTTL time.Duration, logger zerolog.Logger) *Service {
	if roleTTL <= 0 {
		roleTTL = defaultRoleCacheTTL
	}
	return &Service{
		identities: identities,
		profiles:   profiles,
		issuer:     issuer,
		cache:      c,
		roleTTL:    roleTTL,
		logger:     logger.With().Str("component", "identity").Logger(),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// parseEmail accepts only a bare address. Display names and angle brackets
// are rejected so the stored email is the one used to log in.
func parseEmail(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Name != "" || addr.Address != raw {
		return "", false
	}
	return strings.ToLower(addr.Address), true
}

// Register creates an identity and its profile. If the profile cannot be
// written the identity is deleted again.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (uuid.UUID, error) {
	email, ok := parseEmail(req.Email)
	if !ok {
		return uuid.Nil, &RejectedError{Reason: "invalid email address"}
	}
	if len(req.Password) < minPasswordLength {
		return uuid.Nil, &RejectedError{Reason: fmt.Sprintf("password must be at least %d characters", minPasswordLength)}
	}

	role := req.UserData.Role
	if role == "" {
		role = auth.RolePatient
	}
	switch role {
	case auth.RolePatient, auth.RoleDoctor:
	case auth.RoleAdmin:
		return uuid.Nil, &RejectedError{Reason: "admin accounts cannot be self-registered"}
	default:
		return uuid.Nil, &RejectedError{Reason: "invalid role: " + role}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return uuid.Nil, fmt.Errorf("hash password: %w", err)
	}

	ident := &Identity{Email: email, PasswordHash: hash}
	if err := s.identities.Create(ctx, ident); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return uuid.Nil, &RejectedError{Reason: ErrEmailTaken.Error()}
		}
		return uuid.Nil, fmt.Errorf("create identity: %w", err)
	}
	if ident.ID == uuid.Nil {
		return uuid.Nil, ErrNoIdentity
	}

	profile := &Profile{
		ID:             ident.ID,
		Email:          email,
		FullName:       strings.TrimSpace(req.UserData.FullName),
		Role:           role,
		Phone:          req.UserData.Phone,
		DateOfBirth:    req.UserData.DateOfBirth,
		Specialization: req.UserData.Specialization,
		LicenseNumber:  req.UserData.LicenseNumber,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		if delErr := s.identities.Delete(ctx, ident.ID); delErr != nil {
			s.logger.Error().Err(delErr).Str("user_id", ident.ID.String()).Msg("remove identity after failed profile creation")
		}
		return uuid.Nil, fmt.Errorf("create profile: %w", err)
	}

	s.logger.Info().Str("user_id", ident.ID.String()).Str("role", role).Msg("user registered")
	return ident.ID, nil
}

// Login checks the credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	ident, err := s.identities.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("look up identity: %w", err)
	}
	if !auth.CheckPassword(ident.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	role, err := s.RoleOf(ctx, ident.ID.String())
	if err != nil {
		return nil, fmt.Errorf("look up role: %w", err)
	}

	token, expiresAt, err := s.issuer.Issue(ident.ID.String(), role)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, UserID: ident.ID, Role: role, ExpiresAt: expiresAt}, nil
}

func roleCacheKey(userID string) string { return "role:" + userID }

// RoleOf returns the role on the user's profile. Lookups are cached for the
// configured role TTL; cache failures fall through to the database.
func (s *Service) RoleOf(ctx context.Context, userID string) (string, error) {
	key := roleCacheKey(userID)
	if s.cache != nil {
		var role string
		ok, err := cache.GetJSON(ctx, s.cache, key, &role)
		if err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("role cache read failed")
		}
		if ok {
			return role, nil
		}
	}

	id, err := uuid.Parse(userID)
	if err != nil {
		return "", ErrNotFound
	}
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, key, profile.Role, s.roleTTL); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("role cache write failed")
		}
	}
	return profile.Role, nil
}
