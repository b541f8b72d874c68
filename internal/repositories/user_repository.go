package repositories

import (
	"context"
	"errors"

	"crudusers/internal/models"
)

var (
	// ErrUserNotFound is returned when no user matches a lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when a write would give two users the same email.
	ErrDuplicateEmail = errors.New("email already used")
	// ErrDuplicateUsername is returned when a write would give two users the same username.
	ErrDuplicateUsername = errors.New("username already used")
)

// UserRepository defines the interface for user data access.
// Lookups that match nothing return ErrUserNotFound.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByNameAndLastname(ctx context.Context, name, lastname string) (*models.User, error)
	FindAll(ctx context.Context) ([]models.User, error)
	// FindAllOrderedByLastname lists every user sorted by lastname, descending.
	FindAllOrderedByLastname(ctx context.Context) ([]models.User, error)
	// Insert assigns a new ID to user and stores it.
	Insert(ctx context.Context, user *models.User) error
	// Replace overwrites the stored user having user.ID.
	Replace(ctx context.Context, user *models.User) error
	DeleteByID(ctx context.Context, id string) error
	ExistsByID(ctx context.Context, id string) (bool, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
