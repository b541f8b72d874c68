package models_test

import (
	"encoding/json"
	"strings"
	"testing"

	"crudusers/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_MarshalJSONOmitsPassword(t *testing.T) {
	user := models.User{ID: "1", Username: "jdoe", Password: "secret", Email: "j@x.com", Dni: 7}

	raw, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.NotContains(t, string(raw), "password")

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "jdoe", fields["username"])
	assert.Equal(t, float64(7), fields["dni"])

	raw, err = json.Marshal([]*models.User{&user})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
}

func TestUser_UnmarshalAcceptsPassword(t *testing.T) {
	var user models.User
	require.NoError(t, json.Unmarshal([]byte(`{"username":"jdoe","password":"secret","dni":12345678901}`), &user))
	assert.Equal(t, "secret", user.Password)
	assert.Equal(t, int64(12345678901), user.Dni)
	assert.Empty(t, user.ID)
}

func TestUser_ApplyChanges(t *testing.T) {
	current := models.User{ID: "1", Username: "jdoe", Email: "old@x.com", City: "Old", Name: "John", Dni: 7}

	city, empty, dni := "C", "", int64(3)
	current.ApplyChanges(models.UserChanges{City: &city, Name: &empty, Dni: &dni})

	assert.Equal(t, models.User{
		ID: "1", Username: "jdoe", Email: "old@x.com", City: "C", Name: "", Dni: 3,
	}, current)
}

func TestUserChanges_UnmarshalLeavesAbsentFieldsNil(t *testing.T) {
	var changes models.UserChanges
	require.NoError(t, json.Unmarshal([]byte(`{"id":"2","username":"other","city":"X"}`), &changes))
	require.NotNil(t, changes.City)
	assert.Equal(t, "X", *changes.City)
	assert.Nil(t, changes.Email)
	assert.Nil(t, changes.Password)
	assert.Nil(t, changes.Dni)
}

func TestUser_Validation(t *testing.T) {
	validate := validator.New()

	assert.NoError(t, validate.Struct(models.User{Username: "jdoe", Email: "j@x.com"}))
	assert.NoError(t, validate.Struct(models.User{Username: "jd", Email: "j@x.com"}))
	assert.NoError(t, validate.Struct(models.User{Username: "j", Email: "j@x.com"}))
	assert.Error(t, validate.Struct(models.User{Username: "jdoe", Email: "not-an-email"}))
	assert.Error(t, validate.Struct(models.User{Username: strings.Repeat("a", 101), Email: "j@x.com"}))
	assert.Error(t, validate.Struct(models.User{Email: "j@x.com"}))
}

func TestUserChanges_Validation(t *testing.T) {
	validate := validator.New()
	valid, invalid, empty := "j@x.com", "not-an-email", ""

	assert.NoError(t, validate.Struct(models.UserChanges{}))
	assert.NoError(t, validate.Struct(models.UserChanges{Email: &valid}))
	assert.Error(t, validate.Struct(models.UserChanges{Email: &invalid}))
	assert.Error(t, validate.Struct(models.UserChanges{Email: &empty}))
}
