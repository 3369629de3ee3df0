package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/robalobadob/guesstheword/internal/clock"
	"github.com/robalobadob/guesstheword/internal/config"
	"github.com/robalobadob/guesstheword/internal/game"
	"github.com/robalobadob/guesstheword/internal/store"
	"github.com/robalobadob/guesstheword/internal/words"
)

func testConfig() config.Config {
	return config.Config{
		Port:         5175,
		LogLevel:     "info",
		LogFormat:    "json",
		JWTSecret:    "test_secret",
		ClientOrigin: "http://localhost:5173",
		CookieName:   "guess_token",
		SessionTTL:   time.Hour,
	}
}

// setupServer returns a server whose sessions tick only when the returned clock fires
// and always deal words in source-list order.
func setupServer(t *testing.T) (*Server, *clock.Manual, store.Store) {
	t.Helper()
	st := store.NewMemoryStore()
	m := clock.NewManual()
	srv := New(st, m, testConfig(), game.WithSource(words.List))
	return srv, m, st
}

// do sends a request with an optional bearer token and decodes the JSON response into out.
func do(t *testing.T, srv *Server, method, path, token string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(nil))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v (body %q)", method, path, err, rec.Body.String())
		}
	}
	return rec
}

func newGame(t *testing.T, srv *Server) newGameRes {
	t.Helper()
	var res newGameRes
	rec := do(t, srv, http.MethodPost, "/game/new", "", &res)
	if rec.Code != http.StatusOK {
		t.Fatalf("new game: status %d body %s", rec.Code, rec.Body.String())
	}
	if res.GameID == "" || res.Token == "" {
		t.Fatalf("new game: missing id or token: %+v", res)
	}
	return res
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body["error"]
}

func TestDiagnostics(t *testing.T) {
	srv, _, _ := setupServer(t)

	if rec := do(t, srv, http.MethodGet, "/", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("GET /: %d", rec.Code)
	}

	var health map[string]any
	if rec := do(t, srv, http.MethodGet, "/health", "", &health); rec.Code != http.StatusOK || health["ok"] != true {
		t.Fatalf("GET /health: %d %v", rec.Code, health)
	}

	var counts map[string]int
	do(t, srv, http.MethodGet, "/debug/words", "", &counts)
	if counts["words"] != 21 {
		t.Fatalf("expected 21 words, got %v", counts)
	}

	rec := do(t, srv, http.MethodGet, "/nope", "", nil)
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != "not_found" {
		t.Fatalf("expected JSON 404, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodOptions, "/game/new", nil)
	pre := httptest.NewRecorder()
	srv.Router().ServeHTTP(pre, req)
	if pre.Code != http.StatusNoContent || pre.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("CORS preflight: %d %v", pre.Code, pre.Header())
	}
}

func TestNewGameStartsRound(t *testing.T) {
	srv, m, st := setupServer(t)
	res := newGame(t, srv)

	if res.State.Word != "queen" || res.State.RemainingSeconds != 60 || res.State.RemainingText != "01:00" {
		t.Fatalf("unexpected initial state: %+v", res.State)
	}
	if m.Active() != 1 || st.Len() != 1 {
		t.Fatalf("expected one running session, got timers=%d sessions=%d", m.Active(), st.Len())
	}
	if !res.ExpiresAt.After(time.Now()) {
		t.Fatalf("token already expired: %v", res.ExpiresAt)
	}
}

func TestSessionRoutesRequireToken(t *testing.T) {
	srv, _, _ := setupServer(t)

	rec := do(t, srv, http.MethodGet, "/game/state", "", nil)
	if rec.Code != http.StatusUnauthorized || errorCode(t, rec) != "unauthorized" {
		t.Fatalf("expected 401 unauthorized, got %d", rec.Code)
	}

	rec = do(t, srv, http.MethodGet, "/game/state", "garbage", nil)
	if rec.Code != http.StatusUnauthorized || errorCode(t, rec) != "invalid_token" {
		t.Fatalf("expected 401 invalid_token, got %d", rec.Code)
	}

	tok, _, err := srv.signToken("missing")
	if err != nil {
		t.Fatal(err)
	}
	rec = do(t, srv, http.MethodGet, "/game/state", tok, nil)
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != "session_not_found" {
		t.Fatalf("expected 404 session_not_found, got %d", rec.Code)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	srv, _, _ := setupServer(t)
	res := newGame(t, srv)
	srv.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	rec := do(t, srv, http.MethodGet, "/game/state", res.Token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", rec.Code)
	}
}

func TestCookieAuth(t *testing.T) {
	srv, _, _ := setupServer(t)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/game/new", nil))
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "guess_token" || !cookies[0].HttpOnly {
		t.Fatalf("expected session cookie, got %+v", cookies)
	}

	req := httptest.NewRequest(http.MethodPost, "/game/correct", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	var snap game.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || snap.Score != 1 {
		t.Fatalf("cookie auth failed: %d %+v", rec.Code, snap)
	}
}

func TestFullRound(t *testing.T) {
	srv, m, _ := setupServer(t)
	tok := newGame(t, srv).Token

	var snap game.Snapshot
	for _, path := range []string{"/game/correct", "/game/correct", "/game/correct", "/game/skip"} {
		do(t, srv, http.MethodPost, path, tok, &snap)
	}
	if snap.Score != 2 || snap.Word != "change" {
		t.Fatalf("expected score 2 on the fifth word, got %+v", snap)
	}

	var buzz struct {
		Buzz      game.BuzzType `json:"buzz"`
		PatternMs []int64       `json:"patternMs"`
	}
	do(t, srv, http.MethodPost, "/game/buzz/consume", tok, &buzz)
	if buzz.Buzz != game.BuzzCorrect || len(buzz.PatternMs) != 6 {
		t.Fatalf("expected correct buzz, got %+v", buzz)
	}
	do(t, srv, http.MethodPost, "/game/buzz/consume", tok, &buzz)
	if buzz.Buzz != game.BuzzNone {
		t.Fatalf("buzz should be cleared, got %v", buzz.Buzz)
	}

	rec := do(t, srv, http.MethodGet, "/score", tok, nil)
	if rec.Code != http.StatusConflict || errorCode(t, rec) != "game_in_progress" {
		t.Fatalf("expected 409 before finish, got %d", rec.Code)
	}

	m.Fire(55)
	do(t, srv, http.MethodGet, "/game/state", tok, &snap)
	if snap.RemainingSeconds != 5 || snap.Buzz != game.BuzzPanic {
		t.Fatalf("expected panic with 5s left, got %+v", snap)
	}
	do(t, srv, http.MethodPost, "/game/buzz/ack", tok, &snap)
	if snap.Buzz != game.BuzzNone {
		t.Fatalf("ack did not clear buzz: %v", snap.Buzz)
	}

	m.Fire(5)
	do(t, srv, http.MethodGet, "/game/state", tok, &snap)
	if !snap.Finished || !snap.Over || snap.RemainingSeconds != 0 || snap.Buzz != game.BuzzGameOver {
		t.Fatalf("expected finished round, got %+v", snap)
	}
	if m.Active() != 0 {
		t.Fatal("timer still scheduled after finish")
	}

	do(t, srv, http.MethodPost, "/game/correct", tok, &snap)
	if snap.Score != 2 {
		t.Fatalf("post-finish correct changed score to %d", snap.Score)
	}

	var fin finishRes
	do(t, srv, http.MethodPost, "/game/finish/consume", tok, &fin)
	if !fin.Finished || fin.Score != 2 {
		t.Fatalf("unexpected finish: %+v", fin)
	}
	do(t, srv, http.MethodPost, "/game/finish/consume", tok, &fin)
	if fin.Finished {
		t.Fatal("finished event should be consumed")
	}

	var score game.ScoreSnapshot
	do(t, srv, http.MethodGet, "/score", tok, &score)
	if score.Score != 2 || score.Text != "2" || score.PlayAgain {
		t.Fatalf("unexpected score screen: %+v", score)
	}
	do(t, srv, http.MethodPost, "/score/play-again", tok, &score)
	if !score.PlayAgain {
		t.Fatal("play again not raised")
	}
	do(t, srv, http.MethodPost, "/score/play-again/ack", tok, &score)
	if score.PlayAgain {
		t.Fatal("play again not cleared by ack")
	}
	do(t, srv, http.MethodPost, "/score/play-again", tok, &score)
	var pa map[string]bool
	do(t, srv, http.MethodPost, "/score/play-again/consume", tok, &pa)
	if !pa["playAgain"] {
		t.Fatal("consume should report the request")
	}
	do(t, srv, http.MethodPost, "/score/play-again/consume", tok, &pa)
	if pa["playAgain"] {
		t.Fatal("consume should clear the request")
	}
}

func TestFinishAckClearsEvent(t *testing.T) {
	srv, m, _ := setupServer(t)
	tok := newGame(t, srv).Token
	m.Fire(60)

	var snap game.Snapshot
	do(t, srv, http.MethodPost, "/game/finish/ack", tok, &snap)
	if snap.Finished || !snap.Over {
		t.Fatalf("expected event cleared and round over: %+v", snap)
	}
	var score game.ScoreSnapshot
	if rec := do(t, srv, http.MethodGet, "/score", tok, &score); rec.Code != http.StatusOK || score.Score != 0 {
		t.Fatalf("score screen should exist after ack: %d %+v", rec.Code, score)
	}
}

func TestNegativeFinalScore(t *testing.T) {
	srv, m, _ := setupServer(t)
	tok := newGame(t, srv).Token

	var snap game.Snapshot
	for i := 0; i < 3; i++ {
		do(t, srv, http.MethodPost, "/game/skip", tok, &snap)
	}
	if snap.Score != -3 {
		t.Fatalf("expected score -3 after three skips, got %d", snap.Score)
	}

	m.Fire(60)
	var fin finishRes
	do(t, srv, http.MethodPost, "/game/finish/consume", tok, &fin)
	if !fin.Finished || fin.Score != -3 {
		t.Fatalf("unexpected finish: %+v", fin)
	}

	var score game.ScoreSnapshot
	if rec := do(t, srv, http.MethodGet, "/score", tok, &score); rec.Code != http.StatusOK {
		t.Fatalf("GET /score: %d", rec.Code)
	}
	if score.Score != -3 || score.Text != "-3" {
		t.Fatalf("unexpected score screen: %+v", score)
	}
}

func TestDisposeAndPlayAgainReplacesSession(t *testing.T) {
	srv, m, st := setupServer(t)
	first := newGame(t, srv)

	// Starting a new game with the old token disposes the old session.
	req := httptest.NewRequest(http.MethodPost, "/game/new", nil)
	req.Header.Set("Authorization", "Bearer "+first.Token)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	var second newGameRes
	if err := json.NewDecoder(rec.Body).Decode(&second); err != nil {
		t.Fatal(err)
	}
	if second.GameID == first.GameID {
		t.Fatal("expected a fresh session")
	}
	if st.Len() != 1 || m.Active() != 1 {
		t.Fatalf("old session not disposed: sessions=%d timers=%d", st.Len(), m.Active())
	}
	if rec := do(t, srv, http.MethodGet, "/game/state", first.Token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("old token should no longer resolve, got %d", rec.Code)
	}

	var ok map[string]bool
	do(t, srv, http.MethodDelete, "/game", second.Token, &ok)
	if !ok["ok"] || st.Len() != 0 || m.Active() != 0 {
		t.Fatalf("delete failed: %v sessions=%d timers=%d", ok, st.Len(), m.Active())
	}
}

func TestSweepDisposesExpiredSessions(t *testing.T) {
	srv, m, st := setupServer(t)
	newGame(t, srv)
	if n := srv.Sweep(context.Background()); n != 0 {
		t.Fatalf("fresh session swept: %d", n)
	}
	srv.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if n := srv.Sweep(context.Background()); n != 1 {
		t.Fatalf("expected 1 swept session, got %d", n)
	}
	if st.Len() != 0 || m.Active() != 0 {
		t.Fatal("expired session still alive")
	}
}

func TestPatternMillis(t *testing.T) {
	got := patternMillis(game.BuzzGameOver)
	if len(got) != 2 || got[0] != 0 || got[1] != 2000 {
		t.Fatalf("unexpected pattern %v", got)
	}
}

func TestCheckOrigin(t *testing.T) {
	srv, _, _ := setupServer(t)
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:5173", true},
		{"http://example.com", true}, // same host as the request below
		{"http://evil.test", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/game/ws", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		if got := srv.checkOrigin(req); got != tt.want {
			t.Errorf("checkOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}
