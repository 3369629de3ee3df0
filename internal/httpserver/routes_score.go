// internal/httpserver/routes_score.go
//
// HTTP routes for the score screen of a finished round.
//   - GET  /score                     → final score and play-again flag
//   - POST /score/play-again          → player asked for another round
//   - POST /score/play-again/ack      → client navigated back to a new round
//   - POST /score/play-again/consume  → read and clear the play-again request
//
// The score screen exists once the round is over; before that these routes
// answer 409 game_in_progress.

package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/guesstheword/internal/game"
	"github.com/robalobadob/guesstheword/internal/store"
)

var errInProgress = errors.New("game in progress")

// mountScore registers the session-scoped /score routes.
func (s *Server) mountScore(r chi.Router) {
	r.Get("/score", s.withScore(func(w http.ResponseWriter, r *http.Request, res *game.ScoreResult) {
		writeJSON(w, res.Snapshot())
	}))
	r.Post("/score/play-again", s.withScore(func(w http.ResponseWriter, r *http.Request, res *game.ScoreResult) {
		res.RequestPlayAgain()
		writeJSON(w, res.Snapshot())
	}))
	r.Post("/score/play-again/ack", s.withScore(func(w http.ResponseWriter, r *http.Request, res *game.ScoreResult) {
		res.AcknowledgePlayAgain()
		writeJSON(w, res.Snapshot())
	}))
	r.Post("/score/play-again/consume", s.withScore(func(w http.ResponseWriter, r *http.Request, res *game.ScoreResult) {
		writeJSON(w, map[string]bool{"playAgain": res.ConsumePlayAgain()})
	}))
}

// withScore resolves the score screen of the request's session before calling h.
func (s *Server) withScore(h func(http.ResponseWriter, *http.Request, *game.ScoreResult)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.ensureScore(r, sessionFrom(r.Context()))
		switch {
		case errors.Is(err, errInProgress):
			writeError(w, http.StatusConflict, "game_in_progress")
			return
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "session_not_found")
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, "store_error")
			return
		}
		h(w, r, res)
	}
}

// ensureScore returns the session's score screen, creating it from the score
// held when the round ended if this is the first request for it.
func (s *Server) ensureScore(r *http.Request, sess *game.Session) (*game.ScoreResult, error) {
	ctx := r.Context()
	s.scoreMu.Lock()
	defer s.scoreMu.Unlock()
	if res, err := s.store.GetScore(ctx, sess.ID()); err == nil {
		return res, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if _, over := sess.FinalScore(); !over {
		return nil, errInProgress
	}
	res := game.ScoreFor(sess)
	if err := s.store.SaveScore(ctx, sess.ID(), res); err != nil {
		return nil, err
	}
	return res, nil
}
