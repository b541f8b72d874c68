package repositories_test

import (
	"context"
	"fmt"
	"testing"

	"crudusers/internal/models"
	"crudusers/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unknownID is a well formed ObjectID hex string that no store ever generates in these tests.
const unknownID = "000000000000000000000000"

func newTestUser(i int, lastname string) *models.User {
	return &models.User{
		Username:  fmt.Sprintf("user%d", i),
		Password:  "secret",
		Name:      fmt.Sprintf("Name%d", i),
		Lastname:  lastname,
		Address:   "Calle Falsa 123",
		City:      "Springfield",
		Email:     fmt.Sprintf("user%d@example.com", i),
		Telephone: "555-0100",
		Dni:       int64(30000000 + i),
	}
}

// testUserRepository runs the behavior every UserRepository must share.
func testUserRepository(t *testing.T, newRepo func(t *testing.T) repositories.UserRepository) {
	ctx := context.Background()

	t.Run("InsertAssignsIDAndFindByID", func(t *testing.T) {
		repo := newRepo(t)
		user := newTestUser(1, "Doe")

		require.NoError(t, repo.Insert(ctx, user))
		require.NotEmpty(t, user.ID)

		found, err := repo.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, *user, *found)

		exists, err := repo.ExistsByID(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("LookupsMissReturnNotFound", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Insert(ctx, newTestUser(1, "Doe")))

		_, err := repo.FindByID(ctx, unknownID)
		assert.ErrorIs(t, err, repositories.ErrUserNotFound)
		_, err = repo.FindByID(ctx, "not-an-id")
		assert.ErrorIs(t, err, repositories.ErrUserNotFound)
		_, err = repo.FindByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, repositories.ErrUserNotFound)
		_, err = repo.FindByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, repositories.ErrUserNotFound)
		_, err = repo.FindByNameAndLastname(ctx, "Name1", "Smith")
		assert.ErrorIs(t, err, repositories.ErrUserNotFound)

		exists, err := repo.ExistsByID(ctx, unknownID)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("FindByFields", func(t *testing.T) {
		repo := newRepo(t)
		first := newTestUser(1, "Doe")
		second := newTestUser(2, "Smith")
		require.NoError(t, repo.Insert(ctx, first))
		require.NoError(t, repo.Insert(ctx, second))

		byEmail, err := repo.FindByEmail(ctx, "user2@example.com")
		require.NoError(t, err)
		assert.Equal(t, second.ID, byEmail.ID)

		byUsername, err := repo.FindByUsername(ctx, "user1")
		require.NoError(t, err)
		assert.Equal(t, first.ID, byUsername.ID)

		byName, err := repo.FindByNameAndLastname(ctx, "Name2", "Smith")
		require.NoError(t, err)
		assert.Equal(t, second.ID, byName.ID)
	})

	t.Run("FindAllOnEmptyStore", func(t *testing.T) {
		repo := newRepo(t)

		users, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, users)

		users, err = repo.FindAllOrderedByLastname(ctx)
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("FindAllOrderedByLastnameDescending", func(t *testing.T) {
		repo := newRepo(t)
		for i, lastname := range []string{"Martinez", "Abbot", "Zapata", "Lopez", "Abbot"} {
			require.NoError(t, repo.Insert(ctx, newTestUser(i, lastname)))
		}

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 5)

		sorted, err := repo.FindAllOrderedByLastname(ctx)
		require.NoError(t, err)
		require.Len(t, sorted, 5)
		for i := 1; i < len(sorted); i++ {
			assert.GreaterOrEqual(t, sorted[i-1].Lastname, sorted[i].Lastname)
		}
		assert.Equal(t, "Zapata", sorted[0].Lastname)
	})

	t.Run("InsertRejectsDuplicates", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Insert(ctx, newTestUser(1, "Doe")))

		sameEmail := newTestUser(2, "Smith")
		sameEmail.Email = "user1@example.com"
		assert.ErrorIs(t, repo.Insert(ctx, sameEmail), repositories.ErrDuplicateEmail)

		sameUsername := newTestUser(3, "Smith")
		sameUsername.Username = "user1"
		assert.ErrorIs(t, repo.Insert(ctx, sameUsername), repositories.ErrDuplicateUsername)

		users, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("Replace", func(t *testing.T) {
		repo := newRepo(t)
		user := newTestUser(1, "Doe")
		other := newTestUser(2, "Smith")
		require.NoError(t, repo.Insert(ctx, user))
		require.NoError(t, repo.Insert(ctx, other))

		user.City = "Shelbyville"
		user.Dni = 42
		require.NoError(t, repo.Replace(ctx, user))

		found, err := repo.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Shelbyville", found.City)
		assert.Equal(t, int64(42), found.Dni)
		assert.Equal(t, "user1", found.Username)

		clash := *user
		clash.Email = other.Email
		assert.ErrorIs(t, repo.Replace(ctx, &clash), repositories.ErrDuplicateEmail)

		missing := newTestUser(9, "Nobody")
		missing.ID = unknownID
		assert.ErrorIs(t, repo.Replace(ctx, missing), repositories.ErrUserNotFound)
	})

	t.Run("DeleteByID", func(t *testing.T) {
		repo := newRepo(t)
		user := newTestUser(1, "Doe")
		require.NoError(t, repo.Insert(ctx, user))

		require.NoError(t, repo.DeleteByID(ctx, user.ID))
		_, err := repo.FindByID(ctx, user.ID)
		assert.ErrorIs(t, err, repositories.ErrUserNotFound)

		exists, err := repo.ExistsByID(ctx, user.ID)
		require.NoError(t, err)
		assert.False(t, exists)

		assert.NoError(t, repo.DeleteByID(ctx, unknownID))
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, newRepo(t).Ping(ctx))
	})
}
