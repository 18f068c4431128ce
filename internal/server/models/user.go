// Package models holds the records the directory persists and the views it
// hands back to callers.
package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/userdir/internal/common"
)

// User is a stored directory record. PasswordSalt and PasswordHash are
// always written together.
type User struct {
	ID           string
	UserName     string
	PasswordSalt string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the projection of User that is safe to return to callers.
type PublicUser struct {
	ID        string    `json:"id"`
	UserName  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Confirmation is returned by a successful delete.
type Confirmation struct {
	ID string `json:"id"`
}

// Public strips the credential fields.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		UserName:  u.UserName,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Validate reports whether the record may be persisted.
func (u *User) Validate() error {
	if u.PasswordSalt == "" || u.PasswordHash == "" {
		return fmt.Errorf("%w: record has no credential", common.ErrorValidation)
	}
	return nil
}

// Clone returns a copy that shares nothing with u.
func (u *User) Clone() *User {
	c := *u
	return &c
}
