package middleware

import (
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

// Attach returns middleware that puts engine into each request context. It never
// rejects a request; a nil engine leaves the context unchanged so Require fails closed.
func Attach(engine *goSession.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(goSession.WithEngine(r.Context(), engine)))
		})
	}
}
