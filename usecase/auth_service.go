package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/quranchallenge/server/domain"
	"github.com/quranchallenge/server/domain/entities"
	"github.com/quranchallenge/server/domain/repositories"
	"github.com/quranchallenge/server/internal/auth"
	"github.com/quranchallenge/server/internal/metrics"
	"github.com/quranchallenge/server/internal/validation"
)

// RegisterInput is a registration request
type RegisterInput struct {
	Email    string        `json:"email" validate:"required,email"`
	Password string        `json:"password" validate:"required,min=6,maxbytes=72"`
	Name     string        `json:"name" validate:"required"`
	Masjid   string        `json:"masjid" validate:"required"`
	Role     entities.Role `json:"role" validate:"omitempty,role"`
}

func (in *RegisterInput) normalize() {
	in.Email = entities.NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.Masjid = strings.TrimSpace(in.Masjid)
	in.Role = entities.Role(strings.TrimSpace(string(in.Role)))
}

// AuthResult is returned by a successful registration or login
type AuthResult struct {
	Token string
	User  *entities.User
}

// AuthService registers users and exchanges credentials for session tokens
type AuthService struct {
	users        repositories.UserRepository
	tokens       *auth.TokenIssuer
	validator    *validation.Validator
	metrics      *metrics.Manager
	logger       *zap.Logger
	passwordCost int
	// compared against when the email is unknown so both failure paths cost the same
	dummyHash []byte
}

// NewAuthService creates a new auth service. A passwordCost of zero uses
// entities.PasswordCost. m may be nil.
func NewAuthService(
	users repositories.UserRepository,
	tokens *auth.TokenIssuer,
	v *validation.Validator,
	m *metrics.Manager,
	logger *zap.Logger,
	passwordCost int,
) (*AuthService, error) {
	if passwordCost == 0 {
		passwordCost = entities.PasswordCost
	}
	dummyHash, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), passwordCost)
	if err != nil {
		return nil, err
	}
	return &AuthService{
		users:        users,
		tokens:       tokens,
		validator:    v,
		metrics:      m,
		logger:       logger,
		passwordCost: passwordCost,
		dummyHash:    dummyHash,
	}, nil
}

// Register creates a user and issues a session token
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.normalize()
	if err := s.validator.Validate(&in); err != nil {
		return nil, err
	}

	_, err := s.users.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, domain.ErrDuplicateEmail
	case !errors.Is(err, domain.ErrNotFound):
		return nil, domain.Persistence("lookup user", err)
	}

	role := in.Role
	if role == "" {
		role = entities.RoleParent
	}

	now := time.Now().UTC()
	user := &entities.User{
		Email:     in.Email,
		Name:      in.Name,
		Masjid:    in.Masjid,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.SetPassword(in.Password, s.passwordCost); err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, domain.Persistence("save user", err)
	}

	token, err := s.tokens.GenerateUserToken(user.ID.Hex(), user.Email)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRegistration()
	s.logger.Info("User registered",
		zap.String("user_id", user.ID.Hex()),
		zap.String("role", string(user.Role)))

	return &AuthResult{Token: token, User: user}, nil
}

// Login verifies credentials and issues a session token. Unknown emails and
// wrong passwords both fail with domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = entities.NormalizeEmail(email)
	if email == "" || password == "" {
		s.metrics.RecordLoginFailure()
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Persistence("lookup user", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		s.metrics.RecordLoginFailure()
		return nil, domain.ErrInvalidCredentials
	}

	if !user.CheckPassword(password) {
		s.metrics.RecordLoginFailure()
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateUserToken(user.ID.Hex(), user.Email)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID.Hex()))
	return &AuthResult{Token: token, User: user}, nil
}
