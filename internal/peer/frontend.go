// Package peer implements the server-to-server registration front-end:
// sibling lobby servers announce themselves and query the directory of known
// peers. The directory starts from the statically configured entries.
package peer

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wolserv-project/wolserv/internal/events"
	"github.com/wolserv-project/wolserv/internal/protocol"
	"github.com/wolserv-project/wolserv/internal/reactor"
)

// Entry is one known sibling server.
type Entry struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Static  bool   `json:"static"`
}

// FrontEnd maintains the peer directory. All state lives on the reactor
// goroutine like the lobby's.
type FrontEnd struct {
	peers  map[string]Entry
	bus    *events.EventBus
	logger zerolog.Logger
}

// New creates the peer front-end with the statically configured entries
// already present.
func New(static []Entry, bus *events.EventBus) *FrontEnd {
	peers := make(map[string]Entry, len(static))
	for _, e := range static {
		e.Static = true
		peers[e.Name] = e
	}
	return &FrontEnd{
		peers:  peers,
		bus:    bus,
		logger: log.With().Str("component", "peer").Logger(),
	}
}

// Name implements reactor.FrontEnd.
func (f *FrontEnd) Name() string { return "peer" }

// Connect implements reactor.FrontEnd.
func (f *FrontEnd) Connect(c reactor.Client) {}

// Line implements reactor.FrontEnd.
func (f *FrontEnd) Line(c reactor.Client, line string) {
	msg := protocol.ParseLine(line)
	switch msg.Command {
	case "ANNOUNCE":
		f.onAnnounce(c, msg.Params)
	case "LIST":
		f.onList(c)
	case "QUIT":
		c.Close()
	default:
		f.logger.Debug().Str("command", msg.Command).Msg("ignoring unknown command")
	}
}

// Disconnect implements reactor.FrontEnd.
func (f *FrontEnd) Disconnect(c reactor.Client) {}

// Idle implements reactor.FrontEnd.
func (f *FrontEnd) Idle(c reactor.Client) {
	c.Send(protocol.Command("PING", ":peer"))
}

// Timeout implements reactor.FrontEnd.
func (f *FrontEnd) Timeout(c reactor.Client) {
	c.Send(protocol.Command("ERROR", ":Ping timeout"))
}

// onAnnounce handles "ANNOUNCE <name> <address>". Re-announcing an existing
// name updates its address; static entries can be overridden the same way.
func (f *FrontEnd) onAnnounce(c reactor.Client, params []string) {
	if len(params) < 2 {
		c.Send(protocol.Command("ERROR", ":Malformed announcement"))
		return
	}
	name, address := params[0], params[1]
	f.peers[name] = Entry{Name: name, Address: address}
	f.logger.Info().Str("peer", name).Str("address", address).Msg("peer announced")
	c.Send(protocol.Command("ANNOUNCE", name+" :OK"))

	if f.bus != nil {
		f.bus.Emit(context.Background(), events.Event{
			Type:    events.EventPeerAnnounced,
			Source:  f.Name(),
			Payload: events.PeerPayload{Name: name, Address: address},
		})
	}
}

// onList sends the directory as PEER lines in name order, then an end
// marker.
func (f *FrontEnd) onList(c reactor.Client) {
	for _, e := range f.Directory() {
		c.Send(protocol.Command("PEER", e.Name+" "+e.Address))
	}
	c.Send(protocol.Command("PEER", ":end"))
}

// Directory returns the known peers sorted by name. Reactor-goroutine only.
func (f *FrontEnd) Directory() []Entry {
	out := make([]Entry, 0, len(f.peers))
	for _, e := range f.peers {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
