package gameres

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wolserv-project/wolserv/internal/db"
	"github.com/wolserv-project/wolserv/internal/events"
	"github.com/wolserv-project/wolserv/internal/protocol"
	"github.com/wolserv-project/wolserv/internal/reactor"
	"github.com/wolserv-project/wolserv/internal/room"
)

// Store persists reported results. Satisfied by db.ResultsDatabase.
type Store interface {
	RecordResult(result db.GameResult) error
}

// FrontEnd accepts result submissions from game servers. Room existence is
// checked on the reactor goroutine against the shared registry; the write to
// the store runs in the background and acknowledges on completion.
type FrontEnd struct {
	registry *room.Registry
	store    Store
	bus      *events.EventBus
	logger   zerolog.Logger
}

// New creates the game-result front-end.
func New(registry *room.Registry, store Store, bus *events.EventBus) *FrontEnd {
	return &FrontEnd{
		registry: registry,
		store:    store,
		bus:      bus,
		logger:   log.With().Str("component", "gameres").Logger(),
	}
}

// Name implements reactor.FrontEnd.
func (f *FrontEnd) Name() string { return "gameres" }

// Connect implements reactor.FrontEnd.
func (f *FrontEnd) Connect(c reactor.Client) {}

// Line implements reactor.FrontEnd.
func (f *FrontEnd) Line(c reactor.Client, line string) {
	msg := protocol.ParseLine(line)
	switch msg.Command {
	case "RESULT":
		f.onResult(c, msg.Params)
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
	c.Send(protocol.Command("PING", ":gameres"))
}

// Timeout implements reactor.FrontEnd.
func (f *FrontEnd) Timeout(c reactor.Client) {
	c.Send(protocol.Command("ERROR", ":Ping timeout"))
}

func (f *FrontEnd) onResult(c reactor.Client, params []string) {
	report, err := ParseReport(params)
	if err != nil {
		f.logger.Warn().Err(err).Str("remote", c.RemoteAddr()).Msg("malformed result")
		c.Send(protocol.Command("ERROR", ":Malformed result"))
		return
	}

	// Reports race room teardown: the match room usually still exists while
	// the game server reports, but an emptied room may already be reaped.
	// Membership of the room is not required, existence is.
	if _, ok := f.registry.Get(report.Room); !ok {
		c.Send(protocol.Command("ERROR", ":No such channel"))
		return
	}

	// The store write must not block the reactor. Send is safe from any
	// goroutine, so the acknowledgement follows the write.
	go func() {
		err := f.store.RecordResult(db.GameResult{
			MatchID:  report.MatchID,
			Room:     report.Room,
			GameType: report.GameType,
			Scores:   report.Scores,
		})
		if err != nil {
			f.logger.Error().Err(err).Str("match_id", report.MatchID).Msg("failed to store result")
			c.Send(protocol.Command("ERROR", ":Storage failure"))
			return
		}
		c.Send(protocol.Command("RESULT", report.MatchID+" :OK"))

		if f.bus != nil {
			f.bus.Emit(context.Background(), events.Event{
				Type:   events.EventGameResult,
				Source: f.Name(),
				Payload: events.GameResultPayload{
					MatchID:  report.MatchID,
					Room:     report.Room,
					GameType: report.GameType,
					Scores:   report.Scores,
				},
			})
		}
	}()
}
