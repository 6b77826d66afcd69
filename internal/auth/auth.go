package auth

import (
	"net/http"
)

const (
	orgHeader  = "X-Org-Id"
	userHeader = "X-User-Id"
)

// Identity extracts the caller's organization and user from trusted gateway
// headers and stores them in the request context. Authentication itself is
// terminated upstream; this service only consumes the propagated identity.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := User{
			Username:     r.Header.Get(userHeader),
			Organization: r.Header.Get(orgHeader),
		}
		if user.Organization == "" {
			http.Error(w, "missing organization identity", http.StatusUnauthorized)
			return
		}
		if user.Username == "" {
			user.Username = "unknown"
		}

		ctx := NewUserContext(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
