package types

import (
	"errors"
	"net/http"

	"github.com/okanji/platform-services-registry-web/internal/form"
	appErr "github.com/okanji/platform-services-registry-web/pkg/errors"
)

var statusByCode = map[appErr.Code]int{
	appErr.CodeInvalid:       http.StatusBadRequest,
	appErr.CodeUnauthorized:  http.StatusUnauthorized,
	appErr.CodeForbidden:     http.StatusForbidden,
	appErr.CodeNotFound:      http.StatusNotFound,
	appErr.CodeConflict:      http.StatusConflict,
	appErr.CodeStaleDecision: http.StatusConflict,
	appErr.CodeTransport:     http.StatusBadGateway,
}

// StatusOf maps an error to its HTTP status. Errors without a known code are 500s.
func StatusOf(err error) int {
	if s, ok := statusByCode[appErr.CodeOf(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func FromAppError(err error) *APIError {
	if err == nil {
		return nil
	}
	var e *appErr.AppError
	if !errors.As(err, &e) {
		return &APIError{Code: string(appErr.CodeInternal), Message: "internal error"}
	}
	out := &APIError{Code: string(e.Code), Message: e.Message}
	if e.Code == appErr.CodeInternal || e.Code == appErr.CodeTransport {
		// Causes may carry driver or upstream details.
		out.Message = http.StatusText(StatusOf(err))
	}
	switch fields := e.Meta[appErr.MetaFields].(type) {
	case []form.FieldError:
		for _, f := range fields {
			out.Fields = append(out.Fields, FieldError{Path: f.Path, Reason: f.Reason})
		}
	default:
		if path, ok := e.Meta[appErr.MetaField].(string); ok {
			reason, _ := e.Meta[appErr.MetaReason].(string)
			out.Fields = []FieldError{{Path: path, Reason: reason}}
		}
	}
	return out
}
