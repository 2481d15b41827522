package reactor

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/rs/zerolog/log"

	"github.com/wolserv-project/wolserv/internal/network"
)

// FrontEnd is one protocol implementation bound to a listening port. All of
// its methods are invoked on the reactor goroutine only.
type FrontEnd interface {
	// Name identifies the front-end in logs.
	Name() string
	// Connect is called when a new connection is accepted.
	Connect(c Client)
	// Line is called for every complete inbound line.
	Line(c Client, line string)
	// Disconnect is called exactly once when the connection goes away.
	Disconnect(c Client)
	// Idle is called when the connection passed the nudge threshold.
	Idle(c Client)
	// Timeout is called right before an overdue connection is force-closed.
	Timeout(c Client)
}

// Listener binds one address:port for one front-end and feeds accepted
// connections into the reactor.
type Listener struct {
	fe   FrontEnd
	addr string
	ln   net.Listener
}

// Addr returns the bound address, valid after the reactor has started.
func (l *Listener) Addr() net.Addr {
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// start binds the port and launches the accept loop. Accepted sockets are
// posted to the reactor; no protocol work happens here.
func (l *Listener) start(ctx context.Context, eventCh chan<- event) error {
	lc := network.ReuseAddrListenConfig()
	ln, err := lc.Listen(ctx, "tcp", l.addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s for %s: %w", l.addr, l.fe.Name(), err)
	}
	l.ln = ln

	log.Info().Str("addr", ln.Addr().String()).Str("front_end", l.fe.Name()).Msg("listener started")

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				select {
				case <-ctx.Done():
					return
				default:
					log.Error().Err(err).Str("front_end", l.fe.Name()).Msg("accept failed")
					continue
				}
			}
			eventCh <- event{kind: evAccept, listener: l, raw: conn}
		}
	}()

	return nil
}
