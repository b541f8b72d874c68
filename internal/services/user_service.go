package services

import (
	"context"
	"fmt"

	"crudusers/internal/models"
	"crudusers/internal/repositories"
	"crudusers/pkg/metrics"

	"golang.org/x/crypto/bcrypt"
)

// UserService exposes the user store to the transport layer.
// Passwords are bcrypt-hashed before they reach the repository.
type UserService struct {
	repo       repositories.UserRepository
	bcryptCost int
}

// NewUserService creates a new UserService. A cost outside bcrypt's
// accepted range falls back to bcrypt.DefaultCost.
func NewUserService(repo repositories.UserRepository, bcryptCost int) *UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		repo:       repo,
		bcryptCost: bcryptCost,
	}
}

// FindByID retrieves a single user by its ID.
func (s *UserService) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.repo.FindByID(ctx, id)
}

// FindByEmail retrieves the user registered with email.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repo.FindByEmail(ctx, email)
}

// FindByUsername retrieves the user registered with username.
func (s *UserService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.repo.FindByUsername(ctx, username)
}

// FindByNameAndLastname retrieves a user by first name and lastname.
func (s *UserService) FindByNameAndLastname(ctx context.Context, name, lastname string) (*models.User, error) {
	return s.repo.FindByNameAndLastname(ctx, name, lastname)
}

// FindAllUsers retrieves all users.
func (s *UserService) FindAllUsers(ctx context.Context) ([]models.User, error) {
	return s.repo.FindAll(ctx)
}

// FindAllUsersOrderedByLastname retrieves all users, lastname descending.
func (s *UserService) FindAllUsersOrderedByLastname(ctx context.Context) ([]models.User, error) {
	return s.repo.FindAllOrderedByLastname(ctx)
}

// SaveUser stores a new user; on success user.ID holds the generated ID.
func (s *UserService) SaveUser(ctx context.Context, user *models.User) error {
	if err := s.hashPassword(user); err != nil {
		return err
	}
	if err := s.repo.Insert(ctx, user); err != nil {
		return err
	}
	metrics.RecordUserCreated()
	return nil
}

// UpdateUser applies changes to user and replaces the stored record. Only a
// password carried by changes is hashed; the stored hash is kept otherwise.
func (s *UserService) UpdateUser(ctx context.Context, user *models.User, changes models.UserChanges) error {
	if changes.Password != nil && *changes.Password != "" {
		hashed, err := s.hash(*changes.Password)
		if err != nil {
			return err
		}
		changes.Password = &hashed
	}
	user.ApplyChanges(changes)
	if err := s.repo.Replace(ctx, user); err != nil {
		return err
	}
	metrics.RecordUserUpdated()
	return nil
}

// DeleteUserByID deletes a user by its ID.
func (s *UserService) DeleteUserByID(ctx context.Context, id string) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return err
	}
	metrics.RecordUserDeleted()
	return nil
}

// IsUserExist reports whether user, identified by its ID, is stored.
func (s *UserService) IsUserExist(ctx context.Context, user *models.User) (bool, error) {
	if user == nil || user.ID == "" {
		return false, nil
	}
	return s.repo.ExistsByID(ctx, user.ID)
}

// Ping checks the store is reachable.
func (s *UserService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *UserService) hashPassword(user *models.User) error {
	if user.Password == "" {
		return nil
	}
	hashed, err := s.hash(user.Password)
	if err != nil {
		return err
	}
	user.Password = hashed
	return nil
}

func (s *UserService) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}
