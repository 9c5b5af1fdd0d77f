package httpserver

import (
	"net/http"
	"strings"

	"github.com/fdg312/macro-coach/internal/userctx"
)

// owned проверяет, что {user_id} из пути совпадает с subject токена.
// Без токена (AUTH_MODE=none или необязательная авторизация) проверка пропускается.
func (s *Server) owned(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.config.AuthEnabled() {
			next(w, r)
			return
		}

		subject, ok := userctx.GetUserID(r.Context())
		if ok && strings.TrimSpace(r.PathValue("user_id")) != subject {
			writeOwnershipError(w)
			return
		}

		next(w, r)
	}
}

// writeOwnershipError writes a 403 response for a token that belongs to another user
func writeOwnershipError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	w.Write([]byte(`{"error":{"code":"forbidden","message":"user_id does not match token subject"}}`))
}
