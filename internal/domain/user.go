package domain

import (
	"net/mail"
	"strings"
	"time"
)

const (
	msgRequired     = "is required"
	msgInvalidEmail = "must be a valid email address"
	minPasswordLen  = 8
)

// User is the demo resource served by the example API. It carries a
// password so that body denylisting has something real to hide.
type User struct {
	ID        string
	Name      string
	Email     string
	Password  string
	CreatedAt time.Time
}

// Validate checks business rules for the User entity.
// Returns a *ValidationError (wrapping ErrValidation) with per-field details,
// or nil if all rules pass.
func (u *User) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(u.Name) == "" {
		fields["name"] = msgRequired
	}
	if strings.TrimSpace(u.Email) == "" {
		fields["email"] = msgRequired
	} else if _, err := mail.ParseAddress(u.Email); err != nil {
		fields["email"] = msgInvalidEmail
	}
	if len(u.Password) < minPasswordLen {
		fields["password"] = "must be at least 8 characters"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
