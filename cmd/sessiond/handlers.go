package main

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/throttle"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/metrics/export/prometheus"
	"github.com/MrEthical07/goSession/middleware"
	"github.com/MrEthical07/goSession/session"
	"github.com/rs/cors"
)

const maxFieldBytes = 64 << 10

type server struct {
	engine   *goSession.Engine
	users    *userDirectory
	throttle *throttle.Login // nil disables login throttling
	ttl      time.Duration
}

// routes wires every endpoint and wraps the mux in CORS.
//
//	POST /login                 {"username","password"} -> {"token","expires_at"}
//	GET  /me                    subject, request id and visit count
//	GET  /session/fields/{name} raw field value
//	PUT  /session/fields/{name} body stored as the field value
//	GET  /metrics               Prometheus exposition
//	GET  /healthz
func (s *server) routes(origins []string) http.Handler {
	mux := http.NewServeMux()
	guard := middleware.Guard(s.engine)

	mux.Handle("POST /login", middleware.Attach(s.engine)(http.HandlerFunc(s.handleLogin)))
	mux.Handle("GET /me", guard(http.HandlerFunc(s.handleMe)))
	mux.Handle("GET /session/fields/{name}", guard(http.HandlerFunc(s.handleGetField)))
	mux.Handle("PUT /session/fields/{name}", guard(http.HandlerFunc(s.handleSetField)))
	mux.Handle("GET /metrics", prometheus.Handler(s.engine))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	})
	return c.Handler(mux)
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxFieldBytes)).Decode(&body); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	ip := remoteIP(r)
	if s.throttle != nil {
		switch err := s.throttle.Check(r.Context(), body.Username, ip); {
		case errors.Is(err, throttle.ErrThrottled):
			http.Error(w, "too many attempts", http.StatusTooManyRequests)
			return
		case err != nil:
			log.Printf("[login] throttle check failed: %v", err)
			http.Error(w, "login unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	uid, err := s.users.Authenticate(body.Username, body.Password)
	if err != nil {
		if s.throttle != nil {
			if err := s.throttle.Fail(r.Context(), body.Username, ip); err != nil {
				log.Printf("[login] throttle record failed: %v", err)
			}
		}
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if s.throttle != nil {
		if err := s.throttle.Reset(r.Context(), body.Username, ip); err != nil {
			log.Printf("[login] throttle reset failed: %v", err)
		}
	}

	data, _ := json.Marshal(map[string]string{"username": body.Username})
	expires := time.Now().Add(s.ttl)
	token, err := goSession.CreateToken(r.Context(), jwt.Claims{
		UID:       uid,
		ExpiresAt: expires.Unix(),
		Data:      data,
	})
	if err != nil {
		log.Printf("[login] token issue failed uid=%s: %v", uid, err)
		http.Error(w, "token issue failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": expires.UTC().Format(time.RFC3339),
	})
}

func (s *server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess, _ := goSession.SessionFromContext(r.Context())
	ctx := r.Context()

	visits, err := sess.GetInt64(ctx, "visits")
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		writeStoreError(w, err)
		return
	}
	visits++
	if err := sess.Set(ctx, "visits", visits); err != nil {
		writeStoreError(w, err)
		return
	}

	var data map[string]string
	_ = sess.Claims().DataInto(&data)

	writeJSON(w, http.StatusOK, map[string]any{
		"uid":        sess.Claims().UID,
		"username":   data["username"],
		"request_id": sess.RequestID(),
		"visits":     visits,
	})
}

func (s *server) handleGetField(w http.ResponseWriter, r *http.Request) {
	sess, _ := goSession.SessionFromContext(r.Context())

	value, err := sess.GetRaw(r.Context(), r.PathValue("name"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, value)
}

func (s *server) handleSetField(w http.ResponseWriter, r *http.Request) {
	sess, _ := goSession.SessionFromContext(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxFieldBytes+1))
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if len(body) > maxFieldBytes {
		http.Error(w, "value too large", http.StatusRequestEntityTooLarge)
		return
	}

	if err := sess.Set(r.Context(), r.PathValue("name"), string(body)); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, session.ErrType):
		http.Error(w, "unexpected field type", http.StatusConflict)
	case errors.Is(err, session.ErrConnection):
		log.Printf("[session] store unreachable: %v", err)
		http.Error(w, "session store unavailable", http.StatusServiceUnavailable)
	default:
		log.Printf("[session] store error: %v", err)
		http.Error(w, "session store error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
