package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"venue-crm-backend/pkg/config"
	"venue-crm-backend/pkg/utils"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Recovery turns a panic into a 500 envelope and logs the stack.
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
			config.GetLogger().WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"request_id": middleware.GetReqID(r.Context()),
				"stack":      string(debug.Stack()),
			}).Error(fmt.Sprintf("panic: %v", rec))

			utils.WriteError(w, r, utils.NewInternalError(fmt.Errorf("panic: %v", rec)))
		}()
		next.ServeHTTP(w, r)
	})
}
