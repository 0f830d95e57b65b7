package dto

import (
	"strings"

	"github.com/jsamuelsen11/go-reqlog/internal/domain"
)

const msgRequired = "is required"

// CreateUserRequest represents the JSON body for creating a user.
type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that required fields are present. Format rules are left
// to domain.User.Validate.
// Returns a *domain.ValidationError if any checks fail.
func (r *CreateUserRequest) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(r.Name) == "" {
		fields["name"] = msgRequired
	}
	if strings.TrimSpace(r.Email) == "" {
		fields["email"] = msgRequired
	}
	if r.Password == "" {
		fields["password"] = msgRequired
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// ToDomain converts the request into a domain user.
func (r *CreateUserRequest) ToDomain() *domain.User {
	return &domain.User{
		Name:     strings.TrimSpace(r.Name),
		Email:    strings.TrimSpace(r.Email),
		Password: r.Password,
	}
}

// EchoRequest is the free-form body accepted by the echo endpoint.
type EchoRequest map[string]any
