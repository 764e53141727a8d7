package api

import (
	"net/http"
	"strconv"

	"github.com/campusbook/classwork/internal/ctxutil"
	"github.com/campusbook/classwork/internal/models"
)

// withPrincipal trusts the identity headers stamped by the upstream
// gateway. The engine never validates credentials itself; it only needs
// an {id, role} pair for its ownership checks.
func (a *API) withPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, `{"error":"missing identity"}`, http.StatusUnauthorized)
			return
		}
		role := models.Role(r.Header.Get("X-User-Role"))
		switch role {
		case models.Student, models.Teacher, models.Admin:
		default:
			http.Error(w, `{"error":"unknown role"}`, http.StatusUnauthorized)
			return
		}
		ctx := ctxutil.WithPrincipal(r.Context(), models.Principal{ID: id, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
