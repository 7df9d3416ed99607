package httpadapter

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const sessionCookieName = "docstudio_session"

type sessionContextKey struct{}

func sessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionContextKey{}).(string)
	return id
}

// sessionMiddleware assigns every browser a session id cookie on its first
// request. Unparseable cookie values are replaced.
func sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			if parsed, err := uuid.Parse(strings.TrimSpace(cookie.Value)); err == nil {
				id = parsed.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookieName,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionContextKey{}, id)))
	})
}

// wantsPage reports whether the request came from a form on the page and
// should be answered with a redirect instead of JSON.
func wantsPage(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
