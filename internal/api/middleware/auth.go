package middleware

import (
	"crypto/subtle"
	"net/http"
	"os"
)

// debugUsername and debugPassword gate the /debug endpoints. Set via
// DEBUG_USERNAME/DEBUG_PASSWORD; unset means the endpoints are wide open
// in development (ENV unset or "development") and forbidden outside it.
var (
	debugUsername = os.Getenv("DEBUG_USERNAME")
	debugPassword = os.Getenv("DEBUG_PASSWORD")
)

// DebugAuth protects /debug/pprof and /debug/runtime with HTTP Basic
// Auth, using a constant-time comparison to avoid timing attacks.
func DebugAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if debugUsername == "" || debugPassword == "" {
			if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, "Debug endpoints disabled. Set DEBUG_USERNAME and DEBUG_PASSWORD.", http.StatusForbidden)
			return
		}

		user, pass, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="Debug endpoints"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(debugUsername)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(debugPassword)) == 1
		if !userMatch || !passMatch {
			w.Header().Set("WWW-Authenticate", `Basic realm="Debug endpoints"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
