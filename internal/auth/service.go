package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/finpilot/finpilot-api/internal/logging"
	"github.com/finpilot/finpilot-api/internal/user"
)

var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// bcrypt cost matches the 10-round work factor the stored hashes were
// created with.
const bcryptCost = 10

// Service handles authentication business logic
type Service struct {
	userRepo      UserRepository
	tokenService  TokenService
	logger        *logging.Logger
	tokenDuration time.Duration
}

func NewService(
	userRepo UserRepository,
	tokenService TokenService,
	logger *logging.Logger,
	tokenDuration time.Duration,
) *Service {
	return &Service{
		userRepo:      userRepo,
		tokenService:  tokenService,
		logger:        logger,
		tokenDuration: tokenDuration,
	}
}

// Signup creates a new user account and returns it with a session token.
// The duplicate-email check runs before any hashing work, and a
// duplicate-key failure at insert time (two concurrent signups racing past
// the check) is reported identically.
func (s *Service) Signup(ctx context.Context, name, email, password string) (*user.User, string, error) {
	name = strings.TrimSpace(name)
	if name == "" || email == "" || password == "" {
		return nil, "", ErrMissingFields
	}

	email, err := normalizeEmail(email)
	if err != nil {
		return nil, "", err
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, "", user.ErrDuplicateEmail
	}

	// No password length or strength policy is enforced here; only
	// presence is required.
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.userRepo.Create(ctx, name, email, string(passwordHash))
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			// Two signups raced past the existence check; the schema
			// constraint caught the second insert.
			s.logger.Warn("signup lost race to concurrent registration", "email", email)
			return nil, "", user.ErrDuplicateEmail
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokenService.CreateToken(newUser.ID, newUser.Email, s.tokenDuration)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create token: %w", err)
	}

	return newUser, token, nil
}

// Login authenticates a user and returns it with a session token. An
// unknown email and a wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	if email == "" || password == "" {
		return nil, "", ErrMissingFields
	}

	email, err := normalizeEmail(email)
	if err != nil {
		return nil, "", err
	}

	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(existingUser.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokenService.CreateToken(existingUser.ID, existingUser.Email, s.tokenDuration)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create token: %w", err)
	}

	return existingUser, token, nil
}

// ListUsers returns every registered user
func (s *Service) ListUsers(ctx context.Context) ([]*user.User, error) {
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

// normalizeEmail lowercases and trims the address, then checks the shape:
// a single @, non-empty segments without whitespace, and a dot inside the
// domain segment.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if len(email) > 254 {
		return "", ErrInvalidEmailFormat
	}
	if strings.ContainsAny(email, " \t") {
		return "", ErrInvalidEmailFormat
	}

	at := strings.Count(email, "@")
	if at != 1 {
		return "", ErrInvalidEmailFormat
	}

	local, domain, _ := strings.Cut(email, "@")
	if local == "" || domain == "" {
		return "", ErrInvalidEmailFormat
	}

	dot := strings.Index(domain, ".")
	if dot <= 0 || dot == len(domain)-1 {
		return "", ErrInvalidEmailFormat
	}

	return email, nil
}
