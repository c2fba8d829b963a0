package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"lzpending/internal/models"
	"lzpending/internal/tracing"

	"github.com/sirupsen/logrus"
)

// RecoveryMiddleware turns a handler panic into a 500 JSON error instead of
// a dropped connection.
func RecoveryMiddleware(logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.WithFields(logrus.Fields{
					logFieldRequestID: tracing.GetRequestID(r.Context()),
					logFieldMethod:    r.Method,
					"path":            r.URL.Path,
					"panic":           rec,
					"stack":           string(debug.Stack()),
				}).Error("Recovered from handler panic")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(models.ErrorResponse{OK: false, Error: "internal server error"})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
