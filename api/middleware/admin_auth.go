package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/atelierdoce/storefront-backend/api/responses"
	pkgerrors "github.com/atelierdoce/storefront-backend/pkg/errors"
	"github.com/atelierdoce/storefront-backend/pkg/logger"
)

// AdminAuth gates the back-office routes behind a static bearer token.
// Requests that fail the check are reported as not-found so the admin
// surface stays unenumerable.
func AdminAuth(apiToken string, logg *logger.Logger) func(http.Handler) http.Handler {
	expected := []byte(strings.TrimSpace(apiToken))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(expected) == 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeFailedPrecondition, "admin token not configured"))
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), expected) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "resource not found"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
