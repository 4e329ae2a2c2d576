// Package account handles registration, login, profiles and resolving the
// acting user from a session token.
package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"musicapp/core/apperr"
	"musicapp/core/auth"
	"musicapp/logger"
	"musicapp/model"
	"musicapp/repository"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNoToken       = apperr.Unauthorized("No token provided. Access denied.")
	ErrInvalidToken  = apperr.Unauthorized("Invalid token. Access denied.")
	ErrUserNotFound  = apperr.Unauthorized("User not found. Access denied.")
	ErrInvalidLogin  = apperr.Unauthorized("Invalid email or password")
	ErrEmailTaken    = apperr.Conflict("User already exists with this email")
	ErrAdminExists   = apperr.Conflict("Admin user already exists with this email")
	errMissingFields = apperr.Validation("Please provide name, email and password")
)

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=191"`
	Password string `json:"password" validate:"required"`
}

// LoginInput is the body of a login request.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Session is returned by Register and Login.
type Session struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// Profile is the profile view of a user.
type Profile struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	TotalFavorites int64     `json:"totalFavorites"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Service struct {
	users     repository.UserRepository
	favorites repository.FavoriteRepository
	tokens    *auth.TokenManager
	passwords *auth.PasswordHasher
	validate  *validator.Validate
}

func NewService(users repository.UserRepository, favorites repository.FavoriteRepository, tokens *auth.TokenManager, passwords *auth.PasswordHasher) *Service {
	return &Service{
		users:     users,
		favorites: favorites,
		tokens:    tokens,
		passwords: passwords,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Register creates a user account with the user role and opens a session.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	user, err := s.createUser(ctx, in, model.RoleUser)
	if err != nil {
		return nil, err
	}
	logger.Info("User registered", logger.String("userId", user.ID), logger.String("email", user.Email))
	return s.openSession(user)
}

// Login verifies credentials. Unknown emails and wrong passwords fail the
// same way.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return nil, apperr.Validation("Please provide email and password")
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, apperr.Internal("Error logging in", err)
	}
	if user == nil || !s.passwords.Matches(in.Password, user.PasswordHash) {
		logger.Warn("Login failed", logger.String("email", in.Email))
		return nil, ErrInvalidLogin
	}
	return s.openSession(user)
}

// Authenticate resolves the user a bearer token belongs to. The returned
// user carries no password hash.
func (s *Service) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperr.Internal("Error authenticating user", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user.Public(), nil
}

func (s *Service) Profile(ctx context.Context, user *model.User) (*Profile, error) {
	total, err := s.favorites.Count(ctx, user.ID)
	if err != nil {
		return nil, apperr.Internal("Error fetching profile", err)
	}
	return &Profile{
		ID:             user.ID,
		Name:           user.Name,
		Email:          user.Email,
		Role:           user.Role,
		TotalFavorites: total,
		CreatedAt:      user.CreatedAt,
	}, nil
}

// CreateAdmin seeds an admin account. It fails with ErrAdminExists when an
// admin with that email is already present.
func (s *Service) CreateAdmin(ctx context.Context, name, email, password string) (*model.User, error) {
	existing, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, apperr.Internal("Error creating admin", err)
	}
	if existing != nil {
		if existing.IsAdmin() {
			return nil, ErrAdminExists
		}
		return nil, ErrEmailTaken
	}

	user, err := s.createUser(ctx, RegisterInput{Name: name, Email: email, Password: password}, model.RoleAdmin)
	if err != nil {
		return nil, err
	}
	logger.Info("Admin user created", logger.String("userId", user.ID), logger.String("email", user.Email))
	return user.Public(), nil
}

func (s *Service) createUser(ctx context.Context, in RegisterInput, role string) (*model.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindValidation {
			return nil, err
		}
		return nil, apperr.Internal("Error registering user", err)
	}

	user := &model.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, apperr.Internal("Error registering user", err)
	}
	return user, nil
}

func (s *Service) openSession(user *model.User) (*Session, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, apperr.Internal("Error generating token", err)
	}
	return &Session{Token: token, User: user.Public()}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validationError turns the first failed rule into a user-facing message.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperr.Validation(err.Error())
	}
	fe := fieldErrs[0]
	switch {
	case fe.Tag() == "required":
		return errMissingFields
	case fe.Field() == "Email":
		return apperr.Validation("Please provide a valid email")
	default:
		return apperr.Validation("Name must be at most 100 characters")
	}
}
