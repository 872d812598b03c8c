package handlers

import (
	"net/http"

	"github.com/okanji/platform-services-registry-web/internal/models"
	"github.com/okanji/platform-services-registry-web/internal/repository"
	appErr "github.com/okanji/platform-services-registry-web/pkg/errors"
)

// UsersHandler looks up known contacts so forms can prefill names and ministry.
type UsersHandler struct {
	users repository.UserRepository
}

func NewUsersHandler(users repository.UserRepository) *UsersHandler {
	return &UsersHandler{users: users}
}

func (h *UsersHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	if _, err := callerOf(r); err != nil {
		writeError(w, r, err)
		return
	}
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, r, appErr.Validation("email", "required"))
		return
	}
	var u models.User
	if err := h.users.GetByEmail(r.Context(), email, &u); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, u)
}
