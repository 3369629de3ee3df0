// internal/httpserver/server.go
//
// HTTP server wiring for the Guess The Word backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health", "/debug/words".
//   - Game endpoints: POST /game/new, then session-scoped /game/* and /score/*.
//   - Live snapshot stream: GET /game/ws.
//   - Janitor that disposes sessions whose token has expired.
//
// Notes:
//   - The server is the presentation layer of the round: it calls into
//     game.Session and relays what the session publishes.
//   - Session-scoped routes authenticate with a signed token (see token.go).

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/guesstheword/internal/config"
	"github.com/robalobadob/guesstheword/internal/game"
	"github.com/robalobadob/guesstheword/internal/store"
	"github.com/robalobadob/guesstheword/internal/words"
)

// Server bundles router, session store and the scheduler that drives new sessions.
type Server struct {
	r     *chi.Mux
	store store.Store
	sched game.Scheduler
	cfg   config.Config
	opts  []game.Option
	now   func() time.Time

	scoreMu sync.Mutex // serialises score screen creation
}

// New constructs a Server, installs middleware, and registers routes.
// opts are applied to every session the server creates.
func New(st store.Store, sched game.Scheduler, cfg config.Config, opts ...game.Option) *Server {
	s := &Server{
		r:     chi.NewRouter(),
		store: st,
		sched: sched,
		cfg:   cfg,
		opts:  opts,
		now:   time.Now,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)        // add X-Request-ID
	s.r.Use(chimw.RealIP)           // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(accessLog)              // one zerolog line per request
	s.r.Use(chimw.Recoverer)        // recover from panics
	s.r.Use(jsonContentType)        // default JSON responses
	s.r.Use(cors(cfg.ClientOrigin)) // credentials-friendly CORS

	// Plain request/response routes get a bounded handler time.
	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"guesstheword-go","endpoints":["/health","POST /game/new","/game/*","/score/*","GET /game/ws"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "sessions": s.store.Len()})
		})
		r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]int{"words": words.Count()})
		})

		r.Post("/game/new", s.handleNewGame)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession())
			s.mountGame(r)
			s.mountScore(r)
		})
	})

	// The websocket outlives any request timeout.
	s.r.With(s.requireSession()).Get("/game/ws", s.handleStream)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})

	return s
}

// Start begins serving HTTP on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go s.runJanitor(ctx, time.Minute)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdownCtx)
	}()
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Sweep disposes sessions older than the token lifetime.
func (s *Server) Sweep(ctx context.Context) int {
	n := s.store.Sweep(ctx, s.now().Add(-s.cfg.SessionTTL))
	if n > 0 {
		log.Info().Int("count", n).Msg("swept expired sessions")
	}
	return n
}

func (s *Server) runJanitor(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep(ctx)
		}
	}
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// accessLog writes one debug line per request with status and latency.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("reqId", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// ------------------------------- helpers -----------------------------------

// writeError writes {"error": code} with the given status.
func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

// writeJSON encodes v with a 200 status.
func writeJSON(w http.ResponseWriter, v any) {
	_ = json.NewEncoder(w).Encode(v)
}
