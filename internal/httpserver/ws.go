// internal/httpserver/ws.go
//
// Live snapshot stream for one session over a websocket (GET /game/ws).
//
// Server → client messages:
//   {"type":"state","data":<snapshot>}    after connect and after every change
//   {"type":"buzz","data":{buzz,patternMs}} reply to consume_buzz
//   {"type":"error","data":"<code>"}      rejected command
//
// Client → server commands:
//   {"action":"correct"|"skip"|"ack_buzz"|"consume_buzz"|"ack_finish"}
//
// Snapshots are coalesced: a slow client skips intermediate versions but
// always receives the latest one. The session timer never blocks on the socket.

package httpserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/guesstheword/internal/game"
)

const (
	writeWait   = 10 * time.Second
	pingPeriod  = 30 * time.Second
	maxInbound  = 512
	replyBuffer = 8
)

// wsMessage is the server → client envelope.
type wsMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// wsCommand is a client → server command.
type wsCommand struct {
	Action string `json:"action"`
}

// handleStream upgrades the request and streams the session until either
// side goes away or the session is disposed.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	up := websocket.Upgrader{CheckOrigin: s.checkOrigin}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("gameId", sess.ID()).Msg("websocket upgrade")
		return
	}
	log.Debug().Str("gameId", sess.ID()).Msg("stream opened")
	newStream(conn, sess).run()
	log.Debug().Str("gameId", sess.ID()).Msg("stream closed")
}

// checkOrigin accepts same-host requests, requests without an Origin header,
// and the configured client origin.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == s.cfg.ClientOrigin {
		return true
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

type stream struct {
	conn *websocket.Conn
	sess *game.Session

	mu     sync.Mutex
	latest game.Snapshot

	wake    chan struct{}  // cap 1; a newer snapshot is waiting
	replies chan wsMessage // command replies for the writer
	done    chan struct{}  // closed when the reader exits
	quit    chan struct{}  // closed when the writer exits
}

func newStream(conn *websocket.Conn, sess *game.Session) *stream {
	return &stream{
		conn:    conn,
		sess:    sess,
		wake:    make(chan struct{}, 1),
		replies: make(chan wsMessage, replyBuffer),
		done:    make(chan struct{}),
		quit:    make(chan struct{}),
	}
}

func (st *stream) run() {
	cancel := st.sess.Observe(st.push)
	defer cancel()
	st.push(st.sess.Snapshot())

	go st.readLoop()
	st.writeLoop()
	close(st.quit)
	_ = st.conn.Close()
	<-st.done
}

// push records snap if it is not older than what is queued and wakes the writer.
func (st *stream) push(snap game.Snapshot) {
	st.mu.Lock()
	if snap.Version >= st.latest.Version {
		st.latest = snap
	}
	st.mu.Unlock()
	select {
	case st.wake <- struct{}{}:
	default:
	}
}

func (st *stream) writeLoop() {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	var sent uint64
	first := true
	for {
		select {
		case <-st.done:
			return
		case <-st.wake:
			st.mu.Lock()
			snap := st.latest
			st.mu.Unlock()
			if !first && snap.Version <= sent {
				continue
			}
			if err := st.write(wsMessage{Type: "state", Data: snap}); err != nil {
				return
			}
			sent, first = snap.Version, false
		case m := <-st.replies:
			if err := st.write(m); err != nil {
				return
			}
		case <-ping.C:
			if st.sess.Disposed() {
				_ = st.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session disposed"),
					time.Now().Add(writeWait))
				return
			}
			if err := st.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (st *stream) write(m wsMessage) error {
	_ = st.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return st.conn.WriteJSON(m)
}

func (st *stream) readLoop() {
	defer close(st.done)
	st.conn.SetReadLimit(maxInbound)
	for {
		var cmd wsCommand
		if err := st.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("gameId", st.sess.ID()).Msg("stream read")
			}
			return
		}
		st.apply(cmd)
	}
}

// apply runs a client command against the session.
func (st *stream) apply(cmd wsCommand) {
	switch cmd.Action {
	case "correct":
		st.sess.Correct()
	case "skip":
		st.sess.Skip()
	case "ack_buzz":
		st.sess.AcknowledgeBuzz()
	case "ack_finish":
		st.sess.AcknowledgeFinishNavigation()
	case "consume_buzz":
		b := st.sess.ConsumeBuzz()
		st.reply(wsMessage{Type: "buzz", Data: buzzRes{Buzz: b, PatternMs: patternMillis(b)}})
	default:
		st.reply(wsMessage{Type: "error", Data: "unknown_action"})
	}
}

func (st *stream) reply(m wsMessage) {
	select {
	case st.replies <- m:
	case <-st.quit:
	}
}
