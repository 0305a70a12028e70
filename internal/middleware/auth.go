package middleware

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/voxfield/minesweeper3d-server/internal/config"
)

type ctxKey int

const ctxPlayerClaims ctxKey = iota

// PlayerClaims extracts the claims Auth stored on the request context.
func PlayerClaims(ctx context.Context) (*config.PlayerClaims, bool) {
	claims, ok := ctx.Value(ctxPlayerClaims).(*config.PlayerClaims)
	return claims, ok
}

// Auth resolves the cookie pair into player claims when present.
// Requests without valid cookies pass through anonymous; stale cookies
// are cleared.
func Auth(log *logrus.Logger, cookies *config.Cookies) Middleware {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := cookies.ParsePlayerClaims(r)
			if err != nil {
				if _, cookieErr := r.Cookie("auth"); cookieErr == nil {
					log.WithError(err).Debug("clearing invalid auth cookies")
					cookies.Clear(w)
				}
				h.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), ctxPlayerClaims, claims)
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
