package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"ticket-office/backend/internal/security"
)

const bearerPrefix = "bearer "

// Middleware validates the Bearer token from the Authorization header and sets
// the principal in context. Requests without a valid token pass through without
// a principal; role guards reject them on protected routes.
func Middleware(tokens *security.TokenProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r)
			if token != "" {
				email, role, uid, err := tokens.Validate(token)
				if err == nil {
					r = r.WithContext(WithPrincipal(r.Context(), Principal{Email: email, Role: role, UID: uid}))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Predicate decides whether the principal may pass a guard.
type Predicate func(Principal) bool

// IsAdmin allows principals with the ADMIN role.
func IsAdmin(p Principal) bool { return p.Role == security.RoleAdmin }

// IsCustomer allows principals with the CUSTOMER role.
func IsCustomer(p Principal) bool { return p.Role == security.RoleCustomer }

// Require wraps a handler with an authentication check and a capability
// predicate. Missing principal yields 401; a principal failing the predicate
// yields 403.
func Require(pred Predicate, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required.")
			return
		}
		if !pred(p) {
			writeError(w, http.StatusForbidden, "forbidden", "Insufficient permissions.")
			return
		}
		next(w, r)
	}
}

// extractBearer returns the Bearer token from the Authorization header, or "" if missing or malformed.
func extractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "error",
		"code":    code,
		"message": message,
	})
}
