// Package reactor implements the connection reactor: one goroutine that owns
// every session and room mutation across all protocol front-ends. Listeners
// and per-connection readers run on their own goroutines but only post events
// into the reactor's channel; nothing outside the loop touches protocol
// state. Once per tick period the loop runs an idle/timeout pass over every
// live connection.
package reactor

import (
	"context"
	"net"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type eventKind int

const (
	evAccept eventKind = iota
	evLine
	evClosed
)

type event struct {
	kind     eventKind
	listener *Listener
	raw      net.Conn
	conn     *Conn
	line     string
}

// Reactor multiplexes all listeners and connections onto a single dispatch
// goroutine.
type Reactor struct {
	listeners []*Listener
	eventCh   chan event
	taskCh    chan func()

	conns  map[*Conn]struct{}
	nextID uint64

	tick    time.Duration
	nudge   time.Duration
	timeout time.Duration

	logger zerolog.Logger
}

// New creates a reactor. tick is the idle-check period; nudge and timeout
// are the idle thresholds for the keep-alive probe and the forced disconnect.
func New(tick, nudge, timeout time.Duration) *Reactor {
	return &Reactor{
		eventCh: make(chan event, 512),
		taskCh:  make(chan func(), 64),
		conns:   make(map[*Conn]struct{}),
		tick:    tick,
		nudge:   nudge,
		timeout: timeout,
		logger:  log.With().Str("component", "reactor").Logger(),
	}
}

// Bind registers a front-end on an address. Must be called before Run.
func (r *Reactor) Bind(addr string, fe FrontEnd) *Listener {
	l := &Listener{fe: fe, addr: addr}
	r.listeners = append(r.listeners, l)
	return l
}

// Run binds every listener and drives the dispatch loop until ctx is
// cancelled. It never returns under normal operation; a fault on one
// connection closes that connection only.
func (r *Reactor) Run(ctx context.Context) error {
	for _, l := range r.listeners {
		if err := l.start(ctx, r.eventCh); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Int("connections", len(r.conns)).Msg("reactor stopping")
			for c := range r.conns {
				c.Close()
			}
			return nil

		case ev := <-r.eventCh:
			r.handle(ev)

		case fn := <-r.taskCh:
			fn()

		case <-ticker.C:
			r.checkIdle(time.Now())
		}
	}
}

// Do runs fn on the reactor goroutine and waits for it to finish. Components
// outside the loop (API, CLI, telemetry) use it to read session and room
// state without racing the dispatcher.
func (r *Reactor) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case r.taskCh <- func() { fn(); close(done) }:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Reactor) handle(ev event) {
	switch ev.kind {
	case evAccept:
		r.nextID++
		c := newConn(r.nextID, ev.listener.fe, ev.raw)
		r.conns[c] = struct{}{}
		go c.writeLoop()
		go c.readLoop(r.eventCh)
		c.logger.Debug().Msg("connection accepted")
		r.dispatch(c, func() { c.fe.Connect(c) })

	case evLine:
		if _, ok := r.conns[ev.conn]; !ok || ev.conn.IsClosed() {
			return
		}
		ev.conn.lastActivity = time.Now()
		ev.conn.pinged = false
		c, line := ev.conn, ev.line
		r.dispatch(c, func() { c.fe.Line(c, line) })

	case evClosed:
		if _, ok := r.conns[ev.conn]; !ok {
			return
		}
		delete(r.conns, ev.conn)
		ev.conn.Close()
		c := ev.conn
		r.dispatch(c, func() { c.fe.Disconnect(c) })
		c.logger.Debug().Msg("connection removed")
	}
}

// dispatch runs one front-end callback, isolating panics to the offending
// connection so the loop survives a faulty handler.
func (r *Reactor) dispatch(c *Conn, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Interface("panic", rec).
				Uint64("conn", c.id).
				Str("front_end", c.fe.Name()).
				Msg("handler panicked, dropping connection")
			c.Close()
		}
	}()
	fn()
}

// checkIdle evaluates every live connection against the idle thresholds,
// not just the ones that saw traffic this cycle.
func (r *Reactor) checkIdle(now time.Time) {
	for c := range r.conns {
		if c.IsClosed() {
			continue
		}
		idle := now.Sub(c.lastActivity)
		switch {
		case idle >= r.timeout:
			c.logger.Info().Dur("idle", idle).Msg("connection timed out")
			fe, conn := c.fe, c
			r.dispatch(c, func() { fe.Timeout(conn) })
			c.Close()
		case idle >= r.nudge && !c.pinged:
			c.pinged = true
			fe, conn := c.fe, c
			r.dispatch(c, func() { fe.Idle(conn) })
		}
	}
}

// ConnCount returns the number of live connections. Reactor-goroutine only.
func (r *Reactor) ConnCount() int { return len(r.conns) }
