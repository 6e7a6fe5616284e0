package account

import (
	"net/http"
	"strings"
)

// TokenResolver maps a bearer token back to the username it was issued to.
type TokenResolver interface {
	ResolveToken(token string) (string, error)
}

// Middleware authenticates requests via the Authorization header and puts
// the resolved username on the request context. The token is checked before
// the wrapped handler touches any record.
func Middleware(resolver TokenResolver, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" {
			writeMessage(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeMessage(w, http.StatusUnauthorized, "invalid authorization format")
			return
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			writeMessage(w, http.StatusUnauthorized, "invalid authorization token")
			return
		}

		username, err := resolver.ResolveToken(token)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUsername(r.Context(), username)))
	})
}
