package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"family_ledger/internal/app/service"
	"family_ledger/internal/app/session"
	"family_ledger/internal/common"
	"family_ledger/internal/common/security"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const CallerCtxKey contextKey = "caller"

// Authenticator verifies the bearer token and resolves the live session
// projection from the session store. A revoked or expired session fails even
// if the token itself is still valid, which is what makes logout and
// self-edit refresh effective immediately.
func Authenticator(sessions session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context()) // Extracts token from Authorization header

			if err != nil {
				if strings.Contains(err.Error(), "token not found") || token == nil {
					common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
				} else {
					common.RespondWithError(w, http.StatusUnauthorized, "Invalid token: "+err.Error())
				}
				return
			}

			if token == nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			sid, err := security.GetSessionIDFromClaims(claims)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
				return
			}

			projection, err := sessions.Get(r.Context(), sid)
			if err != nil {
				if errors.Is(err, session.ErrNotFound) {
					common.RespondWithError(w, http.StatusUnauthorized, "Session expired or revoked")
				} else {
					common.RespondWithError(w, http.StatusInternalServerError, "Failed to load session")
				}
				return
			}

			caller := service.Caller{SID: sid, Session: projection}
			ctx := context.WithValue(r.Context(), CallerCtxKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly admits admin-equivalent callers (admin and owner).
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := GetCallerFromContext(r.Context())
		if !ok || !caller.Role.AdminEquivalent() {
			common.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetCallerFromContext returns the authenticated caller placed by
// Authenticator.
func GetCallerFromContext(ctx context.Context) (service.Caller, bool) {
	caller, ok := ctx.Value(CallerCtxKey).(service.Caller)
	return caller, ok
}
