package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jsamuelsen11/go-reqlog/internal/adapters/http/dto"
	"github.com/jsamuelsen11/go-reqlog/internal/adapters/http/middleware"
	"github.com/jsamuelsen11/go-reqlog/internal/ports"
)

// UserHandler handles the demo user resource. Each route narrows or widens
// what the request logger records for it.
type UserHandler struct {
	svc ports.UserDirectory
}

// NewUserHandler creates a new UserHandler with the given service port.
func NewUserHandler(svc ports.UserDirectory) *UserHandler {
	return &UserHandler{svc: svc}
}

// CreateUser handles POST /api/v1/users. The password never reaches the
// access log.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) error {
	middleware.DenyBodyFields(r, "password")

	var req dto.CreateUserRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		return err
	}

	created, err := h.svc.CreateUser(r.Context(), req.ToDomain())
	if err != nil {
		return err
	}

	middleware.SetResponseField(r, "userId", created.ID)
	writeJSON(w, http.StatusCreated, dto.ToUserResponse(created))
	return nil
}

// GetUser handles GET /api/v1/users/{id}. The route parameters and the
// response body are logged for this route.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) error {
	middleware.AllowRequestFields(r, "params")
	middleware.AllowResponseFields(r, "body")

	u, err := h.svc.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, dto.ToUserResponse(u))
	return nil
}
