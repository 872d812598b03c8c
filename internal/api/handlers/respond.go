package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/okanji/platform-services-registry-web/internal/api/middleware"
	"github.com/okanji/platform-services-registry-web/internal/api/types"
	"github.com/okanji/platform-services-registry-web/internal/services"
	appErr "github.com/okanji/platform-services-registry-web/pkg/errors"
	"github.com/okanji/platform-services-registry-web/pkg/logger"
)

const maxBodyBytes = 1 << 20

func writeData(w http.ResponseWriter, r *http.Request, status int, data any) {
	resp := types.APIResponse{Success: true, Data: data, Meta: &types.Meta{RequestID: middleware.GetRequestID(r.Context())}}
	types.WriteJSON(w, status, resp)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := types.StatusOf(err)
	if status >= http.StatusInternalServerError {
		logger.L().Error("request failed",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	resp := types.APIResponse{Success: false, Error: types.FromAppError(err), Meta: &types.Meta{RequestID: middleware.GetRequestID(r.Context())}}
	types.WriteJSON(w, status, resp)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return appErr.Validation("body", "invalid json")
	}
	return nil
}

func callerOf(r *http.Request) (services.Caller, error) {
	c, ok := middleware.CallerFrom(r.Context())
	if !ok {
		return services.Caller{}, appErr.New(appErr.CodeUnauthorized, "not authenticated")
	}
	return c, nil
}

func idParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, appErr.Validation("id", "must be a uuid")
	}
	return id, nil
}
