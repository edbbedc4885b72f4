package middleware

import (
	"net"
	"net/http"
	"strings"

	goSession "github.com/MrEthical07/goSession"
)

// Require authenticates the request with the Engine found in its context.
//
// Without an attached Engine, a bearer credential or a token that verifies, the
// response is 401 with an empty body and next is not called. Otherwise next runs
// with a derived context from which goSession.SessionFromContext and
// goSession.EngineFromContext both succeed.
func Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		engine, ok := goSession.EngineFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		ctx := goSession.WithClientIP(r.Context(), clientIP(r))

		// A missing credential still goes through Authenticate so it is counted.
		token, _ := BearerToken(r.Header.Get("Authorization"))
		sess, err := engine.Authenticate(ctx, token)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(goSession.WithSession(ctx, sess)))
	})
}

// Guard is Attach(engine) wrapped around Require.
func Guard(engine *goSession.Engine) func(http.Handler) http.Handler {
	attach := Attach(engine)
	return func(next http.Handler) http.Handler {
		return attach(Require(next))
	}
}

// BearerToken extracts the credential from an Authorization header of the form
// "Bearer <token>". The scheme is case-insensitive.
func BearerToken(value string) (string, bool) {
	const bearer = "bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
