package models

import "encoding/json"

// User represents a person registered in the directory.
type User struct {
	ID        string `json:"id,omitempty" gorm:"primaryKey;type:varchar(36)"`
	Username  string `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,max=100"`
	Password  string `json:"password,omitempty" gorm:"type:varchar(255)"` // write-only, see MarshalJSON
	Name      string `json:"name"`
	Lastname  string `json:"lastname" gorm:"index"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Email     string `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Telephone string `json:"telephone"`
	Dni       int64  `json:"dni"`
}

// MarshalJSON never emits the password, whatever the caller put in it.
func (u User) MarshalJSON() ([]byte, error) {
	type plain User
	return json.Marshal(struct {
		plain
		Password string `json:"password,omitempty"`
	}{plain: plain(u)})
}

// UserChanges is the body of an update. Fields left out of the JSON are nil
// and keep their stored value; fields present replace it, even when empty.
type UserChanges struct {
	Password  *string `json:"password"`
	Name      *string `json:"name"`
	Lastname  *string `json:"lastname"`
	Address   *string `json:"address"`
	City      *string `json:"city"`
	Email     *string `json:"email" validate:"omitnil,email"`
	Telephone *string `json:"telephone"`
	Dni       *int64  `json:"dni"`
}

// ApplyChanges copies every field set in in onto u. ID and Username are left untouched.
func (u *User) ApplyChanges(in UserChanges) {
	setIfPresent(&u.Address, in.Address)
	setIfPresent(&u.Password, in.Password)
	setIfPresent(&u.Telephone, in.Telephone)
	setIfPresent(&u.City, in.City)
	setIfPresent(&u.Name, in.Name)
	setIfPresent(&u.Lastname, in.Lastname)
	setIfPresent(&u.Dni, in.Dni)
	setIfPresent(&u.Email, in.Email)
}

func setIfPresent[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
