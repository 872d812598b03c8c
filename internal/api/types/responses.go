package types

import (
	"encoding/json"
	"net/http"

	"github.com/okanji/platform-services-registry-web/internal/form"
	"github.com/okanji/platform-services-registry-web/internal/models"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *Meta     `json:"meta,omitempty"`
}

type APIError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// FieldError locates one validation failure by its dotted form path.
type FieldError struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

type Meta struct {
	RequestID string `json:"request_id,omitempty"`
	Total     int64  `json:"total,omitempty"`
}

// ProjectView is a project as the edit page consumes it.
type ProjectView struct {
	Project  *models.Project `json:"project"`
	Editable bool            `json:"editable"`
	Form     form.Values     `json:"form"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes err inside the failure envelope with the status its code maps to.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, StatusOf(err), APIResponse{Success: false, Error: FromAppError(err)})
}
