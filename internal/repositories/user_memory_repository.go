package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"crudusers/internal/models"

	"github.com/google/uuid"
)

// MemoryUserRepository is an in-memory implementation of UserRepository.
// Users are listed in insertion order.
type MemoryUserRepository struct {
	users map[string]models.User
	order []string
	mu    sync.RWMutex
}

// NewMemoryUserRepository creates a new instance of MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[string]models.User),
	}
}

// FindByID returns a user by its ID.
func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user with ID %s: %w", id, ErrUserNotFound)
	}
	return &user, nil
}

// FindByEmail returns the user owning email.
func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return r.findFirst(func(u models.User) bool { return u.Email == email },
		"user with email %s: %w", email)
}

// FindByUsername returns the user owning username.
func (r *MemoryUserRepository) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return r.findFirst(func(u models.User) bool { return u.Username == username },
		"user with username %s: %w", username)
}

// FindByNameAndLastname returns the first user with the given name and lastname.
func (r *MemoryUserRepository) FindByNameAndLastname(_ context.Context, name, lastname string) (*models.User, error) {
	return r.findFirst(func(u models.User) bool { return u.Name == name && u.Lastname == lastname },
		"user named %s: %w", name+" "+lastname)
}

func (r *MemoryUserRepository) findFirst(match func(models.User) bool, format, key string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		if u := r.users[id]; match(u) {
			return &u, nil
		}
	}
	return nil, fmt.Errorf(format, key, ErrUserNotFound)
}

// FindAll returns all users.
func (r *MemoryUserRepository) FindAll(_ context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userList := make([]models.User, 0, len(r.order))
	for _, id := range r.order {
		userList = append(userList, r.users[id])
	}
	return userList, nil
}

// FindAllOrderedByLastname returns all users sorted by lastname, descending.
func (r *MemoryUserRepository) FindAllOrderedByLastname(ctx context.Context) ([]models.User, error) {
	userList, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(userList, func(i, j int) bool {
		return userList[i].Lastname > userList[j].Lastname
	})
	return userList, nil
}

// Insert adds a new user.
func (r *MemoryUserRepository) Insert(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkUnique(*user); err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	user.ID = uuid.New().String()
	r.users[user.ID] = *user
	r.order = append(r.order, user.ID)
	return nil
}

// Replace overwrites an existing user.
func (r *MemoryUserRepository) Replace(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return fmt.Errorf("user with ID %s not replaced: %w", user.ID, ErrUserNotFound)
	}
	if err := r.checkUnique(*user); err != nil {
		return fmt.Errorf("failed to replace user: %w", err)
	}
	r.users[user.ID] = *user
	return nil
}

// checkUnique must be called with the write lock held.
func (r *MemoryUserRepository) checkUnique(user models.User) error {
	var usernameTaken bool
	for id, u := range r.users {
		if id == user.ID {
			continue
		}
		if u.Email == user.Email {
			return ErrDuplicateEmail
		}
		usernameTaken = usernameTaken || u.Username == user.Username
	}
	if usernameTaken {
		return ErrDuplicateUsername
	}
	return nil
}

// DeleteByID removes a user by its ID. Deleting an unknown ID is a no-op.
func (r *MemoryUserRepository) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return nil
	}
	delete(r.users, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// ExistsByID reports whether a user with id is stored.
func (r *MemoryUserRepository) ExistsByID(_ context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.users[id]
	return ok, nil
}

// Ping always succeeds.
func (r *MemoryUserRepository) Ping(context.Context) error { return nil }

// Close is a no-op.
func (r *MemoryUserRepository) Close(context.Context) error { return nil }
