package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/okanji/platform-services-registry-web/internal/api/types"
	appErr "github.com/okanji/platform-services-registry-web/pkg/errors"
	"github.com/okanji/platform-services-registry-web/pkg/logger"
)

// Recovery turns a handler panic into a 500 envelope. The upgrade-aborting
// http.ErrAbortHandler is re-raised.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.L().Error("panic recovered",
				zap.String("request_id", GetRequestID(r.Context())),
				zap.String("panic", fmt.Sprint(rec)),
				zap.ByteString("stack", debug.Stack()))
			types.WriteError(w, appErr.New(appErr.CodeInternal, "internal error"))
		}()
		next.ServeHTTP(w, r)
	})
}
