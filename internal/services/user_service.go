package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/yukikurage/taskboard-api/internal/constants"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = newError(ErrValidation, "User already exists")
	ErrInvalidEmail       = newError(ErrValidation, "Invalid email address")
	ErrPasswordTooShort   = newError(ErrValidation, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	ErrInvalidCredentials = newError(ErrAuth, "Invalid email or password.")
	ErrAccountDeactivated = newError(ErrAuth, "User account has been deactivated, contact the administrator")
	ErrWrongPassword      = newError(ErrAuth, "Current password is incorrect")
	ErrUserNotFound       = newError(ErrNotFound, "User not found")
	ErrNotProfileOwner    = newError(ErrForbidden, "Only administrators can update other users")
	ErrRoleChangeDenied   = newError(ErrForbidden, "Only administrators can change roles")

	ErrFailedToHashPassword = errors.New("failed to hash password")
)

// UserService handles accounts, credentials and profiles.
type UserService struct {
	users repository.UserRepository
	now   func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{
		users: users,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Title    string
	Role     models.UserRole
}

// Register creates a new active, non-admin user.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	return s.create(ctx, input, false)
}

// CreateAdmin creates an administrator. Used to bootstrap an empty install.
func (s *UserService) CreateAdmin(ctx context.Context, input RegisterInput) (*models.User, error) {
	input.Role = models.RoleAdministrator
	return s.create(ctx, input, true)
}

func (s *UserService) create(ctx context.Context, input RegisterInput, isAdmin bool) (*models.User, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	title := strings.TrimSpace(input.Title)

	switch {
	case name == "":
		return nil, validationf("Name is required")
	case email == "":
		return nil, validationf("Email is required")
	case title == "":
		return nil, validationf("Title is required")
	case input.Role == "":
		return nil, validationf("Role is required")
	case !input.Role.Valid():
		return nil, validationf("Invalid role %q", input.Role)
	}
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}
	if err := checkPassword(input.Password); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Title:        title,
		Email:        email,
		PasswordHash: hash,
		Role:         input.Role,
		IsAdmin:      isAdmin,
		IsActive:     true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login verifies credentials and returns the authenticated user. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}

	now := s.now()
	user.LastLogin = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	return user, nil
}

// GetTeamList returns every user ordered by name.
func (s *UserService) GetTeamList(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, ErrUserNotFound, "failed to find user")
	}
	return user, nil
}

// UpdateProfileInput holds profile changes. Nil fields are left unchanged;
// a zero ID targets the actor.
type UpdateProfileInput struct {
	ID    uint64
	Name  *string
	Title *string
	Role  *models.UserRole
}

// UpdateUserProfile changes name and title of the actor. Administrators may
// target other users and change roles.
func (s *UserService) UpdateUserProfile(ctx context.Context, actor *models.User, input UpdateProfileInput) (*models.User, error) {
	targetID := input.ID
	if targetID == 0 {
		targetID = actor.ID
	}
	if targetID != actor.ID && !actor.IsAdmin {
		return nil, ErrNotProfileOwner
	}
	if input.Role != nil && !actor.IsAdmin {
		return nil, ErrRoleChangeDenied
	}

	user, err := s.GetUser(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, validationf("Name cannot be empty")
		}
		user.Name = name
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, validationf("Title cannot be empty")
		}
		user.Title = title
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, validationf("Invalid role %q", *input.Role)
		}
		user.Role = *input.Role
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, lookup(err, ErrUserNotFound, "failed to update user")
	}
	return user, nil
}

// ChangeUserPassword replaces the password after verifying the current one.
func (s *UserService) ChangeUserPassword(ctx context.Context, id uint64, oldPassword, newPassword string) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrWrongPassword
	}
	if err := checkPassword(newPassword); err != nil {
		return err
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash

	if err := s.users.Update(ctx, user); err != nil {
		return lookup(err, ErrUserNotFound, "failed to update password")
	}
	return nil
}

// ActivateUserProfile sets isActive, or flips it when isActive is nil.
func (s *UserService) ActivateUserProfile(ctx context.Context, id uint64, isActive *bool) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if isActive != nil {
		user.IsActive = *isActive
	} else {
		user.IsActive = !user.IsActive
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, lookup(err, ErrUserNotFound, "failed to update user")
	}
	return user, nil
}

// DeleteUserProfile removes a user. Tasks and notices keep their references.
func (s *UserService) DeleteUserProfile(ctx context.Context, id uint64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return lookup(err, ErrUserNotFound, "failed to delete user")
	}
	return nil
}

// bcrypt rejects passwords longer than 72 bytes.
const maxPasswordBytes = 72

func checkPassword(password string) error {
	switch {
	case len(password) < constants.MinPasswordLength:
		return ErrPasswordTooShort
	case len(password) > maxPasswordBytes:
		return validationf("Password must be at most %d bytes", maxPasswordBytes)
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToHashPassword, err)
	}
	return string(hash), nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
