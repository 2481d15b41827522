package lobby

import (
	"net"

	"github.com/wolserv-project/wolserv/internal/reactor"
)

// GameoptState tracks whether a session has proven it can receive game
// option traffic. Early clients drop GAMEOPT lines that arrive before they
// have sent one themselves, so delivery is deferred until then.
type GameoptState int

const (
	AwaitingFirstGameopt GameoptState = iota
	GameoptReady
)

// Session is the per-connection protocol state for the lobby front-end. It
// is created on accept and destroyed on disconnect, and is only ever touched
// on the reactor goroutine.
type Session struct {
	client reactor.Client

	nick         string
	havePassword bool
	registered   bool
	encoding     string

	state    GameoptState
	deferred []string

	ip string
}

func newSession(c reactor.Client) *Session {
	ip := c.RemoteAddr()
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return &Session{
		client:   c,
		encoding: "Cp1252",
		state:    AwaitingFirstGameopt,
		ip:       ip,
	}
}

// Identity returns the session nickname, the value rooms use for ban checks
// and member lookups.
func (s *Session) Identity() string { return s.nick }

// IP returns the peer address without the port.
func (s *Session) IP() string { return s.ip }

// Deliver sends line to the session, or queues it while the session is still
// awaiting its first gameopt of its own.
func (s *Session) Deliver(line string) {
	if s.state == AwaitingFirstGameopt {
		s.deferred = append(s.deferred, line)
		return
	}
	s.client.Send(line)
}

// FlushDeferred delivers every queued line in enqueue order, clears the
// queue, and moves the session to GameoptReady.
func (s *Session) FlushDeferred() {
	for _, line := range s.deferred {
		s.client.Send(line)
	}
	s.deferred = nil
	s.state = GameoptReady
}

// ResetGameopt puts the session back into the awaiting state and discards
// anything queued. Joining an existing game room restarts the handshake.
func (s *Session) ResetGameopt() {
	s.state = AwaitingFirstGameopt
	s.deferred = nil
}

// MarkReady moves the session to GameoptReady without touching the queue.
// Room creators are exempt from the deferral workaround.
func (s *Session) MarkReady() { s.state = GameoptReady }
