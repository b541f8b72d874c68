package repositories

import (
	"context"
	"errors"
	"fmt"

	"crudusers/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
// The gorm.DB must be opened with TranslateError enabled so unique index
// violations surface as gorm.ErrDuplicatedKey.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository and
// migrates the users table, including its unique indexes.
func NewGORMUserRepository(db *gorm.DB) (*GORMUserRepository, error) {
	if err := db.AutoMigrate(&models.User{}); err != nil {
		return nil, fmt.Errorf("failed to migrate users table: %w", err)
	}
	return &GORMUserRepository{
		db: db,
	}, nil
}

// FindByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, "ID "+id, "id = ?", id)
}

// FindByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email "+email, "email = ?", email)
}

// FindByUsername retrieves a user by their username from the database.
func (r *GORMUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username "+username, "username = ?", username)
}

// FindByNameAndLastname retrieves the first user with the given name and lastname.
func (r *GORMUserRepository) FindByNameAndLastname(ctx context.Context, name, lastname string) (*models.User, error) {
	return r.first(ctx, "name "+name+" "+lastname, "name = ? AND lastname = ?", name, lastname)
}

func (r *GORMUserRepository) first(ctx context.Context, what string, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with %s: %w", what, ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", what, err)
	}
	return &user, nil
}

// FindAll retrieves all users in the order the database returns them.
func (r *GORMUserRepository) FindAll(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}
	return users, nil
}

// FindAllOrderedByLastname retrieves all users sorted by lastname, descending.
func (r *GORMUserRepository) FindAllOrderedByLastname(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("lastname DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to get users ordered by lastname: %w", err)
	}
	return users, nil
}

// Insert creates a new user in the database.
func (r *GORMUserRepository) Insert(ctx context.Context, user *models.User) error {
	user.ID = uuid.New().String()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		user.ID = ""
		return fmt.Errorf("failed to create user: %w", r.translate(ctx, err, *user))
	}
	return nil
}

// Replace updates every column of an existing user.
func (r *GORMUserRepository) Replace(ctx context.Context, user *models.User) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).
		Select("*").Updates(user)
	if res.Error != nil {
		return fmt.Errorf("failed to update user: %w", r.translate(ctx, res.Error, *user))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %s not found for update: %w", user.ID, ErrUserNotFound)
	}
	return nil
}

// translate maps a unique index violation onto the field that caused it.
// The dialect error does not name the index portably, so the conflicting
// row is looked up instead.
func (r *GORMUserRepository) translate(ctx context.Context, err error, user models.User) error {
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	if other, lookupErr := r.FindByEmail(ctx, user.Email); lookupErr == nil && other.ID != user.ID {
		return ErrDuplicateEmail
	}
	return ErrDuplicateUsername
}

// DeleteByID deletes a user by its ID from the database.
func (r *GORMUserRepository) DeleteByID(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// ExistsByID reports whether a user with id is stored.
func (r *GORMUserRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check user %s: %w", id, err)
	}
	return count > 0, nil
}

// Ping checks the underlying database connection.
func (r *GORMUserRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying database connection.
func (r *GORMUserRepository) Close(context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
