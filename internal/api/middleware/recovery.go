package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"arbitrage/internal/api/handlers"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Recovery returns a middleware that recovers panics in handlers, logs
// them with a stack trace via logger, and responds 500 instead of
// crashing the process.
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered in handler",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.ByteString("stack", debug.Stack()),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(handlers.ErrorResponse{
						Error: fmt.Sprintf("internal server error: %v", err),
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
