package models

import (
	"fmt"
	"strings"
	"time"
)

// User owns a collection of recipes and favorite ingredients.
type User struct {
	base
	email     string
	name      string
	deletedAt *time.Time
}

// NewUser creates a [User] with fresh timestamps. The ID is assigned on insert.
func NewUser(sequence int, email, name string) *User {
	return &User{base: newBase(sequence), email: email, name: name}
}

func (u *User) Email() string             { return u.email }
func (u *User) Name() string              { return u.name }
func (u *User) SetEmail(email string)     { u.email = email }
func (u *User) SetName(name string)       { u.name = name }
func (u *User) DeletedAt() *time.Time     { return u.deletedAt }
func (u *User) SetDeletedAt(t *time.Time) { u.deletedAt = t }
func (u *User) IsDeleted() bool           { return u.deletedAt != nil }

// Validate requires an id, a plausible email and a name.
func (u *User) Validate() error {
	if u.id == "" {
		return fmt.Errorf("user id is required")
	}
	if !strings.Contains(u.email, "@") {
		return fmt.Errorf("invalid email: %q", u.email)
	}
	if strings.TrimSpace(u.name) == "" {
		return fmt.Errorf("user name is required")
	}
	return nil
}
