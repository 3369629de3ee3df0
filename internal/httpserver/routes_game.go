// internal/httpserver/routes_game.go
//
// HTTP routes for a running round.
//   - POST   /game/new             → start a session, issue its token
//   - GET    /game/state           → current snapshot
//   - POST   /game/correct         → player got the word
//   - POST   /game/skip            → player skipped the word
//   - POST   /game/buzz/ack        → feedback for the pending buzz was played
//   - POST   /game/buzz/consume    → read and clear the pending buzz
//   - POST   /game/finish/ack      → client navigated to the score screen
//   - POST   /game/finish/consume  → read and clear the finished event
//   - DELETE /game                 → tear the session down
//
// Every mutating route answers with the snapshot after the change so clients
// that do not hold a websocket still see the new state.

package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/guesstheword/internal/game"
	"github.com/robalobadob/guesstheword/internal/store"
)

// mountGame registers the session-scoped /game routes.
func (s *Server) mountGame(r chi.Router) {
	r.Get("/game/state", s.handleState)
	r.Post("/game/correct", s.handleAction((*game.Session).Correct))
	r.Post("/game/skip", s.handleAction((*game.Session).Skip))
	r.Post("/game/buzz/ack", s.handleAction((*game.Session).AcknowledgeBuzz))
	r.Post("/game/buzz/consume", s.handleConsumeBuzz)
	r.Post("/game/finish/ack", s.handleAction((*game.Session).AcknowledgeFinishNavigation))
	r.Post("/game/finish/consume", s.handleConsumeFinished)
	r.Delete("/game", s.handleDispose)
}

// newGameRes is returned by POST /game/new.
type newGameRes struct {
	GameID    string        `json:"gameId"`
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	State     game.Snapshot `json:"state"`
}

// handleNewGame creates and starts a session. A session already bound to the
// caller's token is torn down first, so "play again" never leaks timers.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	if tok := s.sessionToken(r); tok != "" {
		if prev, err := s.parseToken(tok); err == nil {
			if err := s.store.Delete(r.Context(), prev); err == nil {
				log.Info().Str("gameId", prev).Msg("previous session disposed")
			}
		}
	}

	sess := game.NewSession(s.sched, s.opts...)
	id := sess.ID()
	sess.Observe(func(snap game.Snapshot) {
		if snap.Over && snap.Finished && snap.Buzz == game.BuzzGameOver {
			log.Info().Str("gameId", id).Int("score", snap.Score).Msg("round finished")
		}
	})
	sess.Start()

	if err := s.store.Save(r.Context(), sess); err != nil {
		sess.Dispose()
		log.Error().Err(err).Msg("save session")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}

	tok, exp, err := s.signToken(id)
	if err != nil {
		_ = s.store.Delete(r.Context(), id)
		log.Error().Err(err).Msg("sign token")
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	s.setSessionCookie(w, tok, exp)
	log.Info().Str("gameId", id).Msg("session started")

	writeJSON(w, newGameRes{GameID: id, Token: tok, ExpiresAt: exp, State: sess.Snapshot()})
}

// handleState returns the current snapshot.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, sessionFrom(r.Context()).Snapshot())
}

// handleAction applies act to the request's session and returns the new snapshot.
// Acting on a finished round is not an error: the snapshot simply does not change.
func (s *Server) handleAction(act func(*game.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r.Context())
		act(sess)
		writeJSON(w, sess.Snapshot())
	}
}

// buzzRes is returned by POST /game/buzz/consume.
type buzzRes struct {
	Buzz      game.BuzzType `json:"buzz"`
	PatternMs []int64       `json:"patternMs"`
}

// handleConsumeBuzz clears the pending buzz and returns it with its vibration pattern.
func (s *Server) handleConsumeBuzz(w http.ResponseWriter, r *http.Request) {
	b := sessionFrom(r.Context()).ConsumeBuzz()
	writeJSON(w, buzzRes{Buzz: b, PatternMs: patternMillis(b)})
}

// finishRes is returned by POST /game/finish/consume.
type finishRes struct {
	Finished bool `json:"finished"`
	Score    int  `json:"score"`
}

// handleConsumeFinished clears the finished event. When it was pending the
// score screen is prepared so GET /score works right away.
func (s *Server) handleConsumeFinished(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	finished, score := sess.ConsumeFinished()
	if finished {
		if _, err := s.ensureScore(r, sess); err != nil {
			log.Warn().Err(err).Str("gameId", sess.ID()).Msg("prepare score")
		}
	}
	writeJSON(w, finishRes{Finished: finished, Score: score})
}

// handleDispose disposes the session and clears the cookie.
func (s *Server) handleDispose(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := s.store.Delete(r.Context(), sess.ID()); err != nil && !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "delete_failed")
		return
	}
	s.clearSessionCookie(w)
	log.Info().Str("gameId", sess.ID()).Msg("session disposed")
	writeJSON(w, map[string]bool{"ok": true})
}

// patternMillis converts a buzz waveform to milliseconds for JSON clients.
func patternMillis(b game.BuzzType) []int64 {
	p := b.Pattern()
	out := make([]int64, len(p))
	for i, d := range p {
		out[i] = d.Milliseconds()
	}
	return out
}
