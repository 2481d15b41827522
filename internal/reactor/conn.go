package reactor

import (
	"bufio"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// maxLineLen bounds one inbound protocol line, matching the 512-byte
	// limit the legacy clients observe.
	maxLineLen = 512

	// outQueueLen is the outbound queue capacity per connection. A client
	// that stops reading long enough to fill it is force-closed.
	outQueueLen = 256

	writeDeadline = 10 * time.Second
)

// Client is the per-connection surface handed to a front-end: queue outbound
// lines, force-close, and identify the peer. Send and Close are safe to call
// from any goroutine and from inside broadcast iteration.
type Client interface {
	Send(line string)
	Close()
	RemoteAddr() string
}

// Conn is one accepted client connection. The reactor goroutine owns all
// protocol state attached to it; the reader and writer goroutines only move
// bytes.
type Conn struct {
	id  uint64
	fe  FrontEnd
	raw net.Conn

	mu     sync.Mutex
	out    chan string
	closed bool

	// Owned by the reactor goroutine.
	lastActivity time.Time
	pinged       bool

	logger zerolog.Logger
}

func newConn(id uint64, fe FrontEnd, raw net.Conn) *Conn {
	return &Conn{
		id:           id,
		fe:           fe,
		raw:          raw,
		out:          make(chan string, outQueueLen),
		lastActivity: time.Now(),
		logger: log.With().
			Str("component", "conn").
			Uint64("id", id).
			Str("front_end", fe.Name()).
			Str("remote", raw.RemoteAddr().String()).
			Logger(),
	}
}

// ID returns the reactor-assigned connection id.
func (c *Conn) ID() uint64 { return c.id }

// RemoteAddr returns the peer address as host:port.
func (c *Conn) RemoteAddr() string { return c.raw.RemoteAddr().String() }

// RemoteIP returns the peer address without the port.
func (c *Conn) RemoteIP() string {
	host, _, err := net.SplitHostPort(c.raw.RemoteAddr().String())
	if err != nil {
		return c.raw.RemoteAddr().String()
	}
	return host
}

// Send queues one line for delivery. If the queue is full the peer has
// stopped draining its socket and the connection is force-closed instead of
// blocking the reactor.
func (c *Conn) Send(line string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	select {
	case c.out <- line:
		c.mu.Unlock()
	default:
		c.closed = true
		close(c.out)
		c.mu.Unlock()
		c.logger.Warn().Msg("outbound queue full, dropping connection")
	}
}

// Close shuts the connection down. Queued outbound lines are still flushed
// best-effort by the writer before the socket closes, which gives timeout
// notices a chance to reach the client. Idempotent.
func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.out)
}

// IsClosed reports whether Close has been called.
func (c *Conn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// writeLoop drains the outbound queue onto the socket. It owns the socket's
// write side and performs the final close once the queue is exhausted.
func (c *Conn) writeLoop() {
	for line := range c.out {
		c.raw.SetWriteDeadline(time.Now().Add(writeDeadline))
		if _, err := c.raw.Write([]byte(line + "\r\n")); err != nil {
			c.logger.Debug().Err(err).Msg("write failed")
			break
		}
	}
	c.raw.Close()
}

// readLoop scans inbound bytes into lines and posts them to the reactor.
// It exits on any read error or EOF and always posts the close event last.
func (c *Conn) readLoop(eventCh chan<- event) {
	sc := bufio.NewScanner(c.raw)
	sc.Buffer(make([]byte, maxLineLen), maxLineLen)
	for sc.Scan() {
		eventCh <- event{kind: evLine, conn: c, line: sc.Text()}
	}
	if err := sc.Err(); err != nil {
		c.logger.Debug().Err(err).Msg("read failed")
	}
	eventCh <- event{kind: evClosed, conn: c}
}
