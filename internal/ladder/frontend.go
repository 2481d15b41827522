// Package ladder implements the ranking query front-end: clients request the
// standings for a game type and receive them as LADDER lines, answered from
// the results store.
package ladder

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wolserv-project/wolserv/internal/db"
	"github.com/wolserv-project/wolserv/internal/protocol"
	"github.com/wolserv-project/wolserv/internal/reactor"
)

const defaultCount = 25

// Store answers standings queries. Satisfied by db.ResultsDatabase.
type Store interface {
	TopStandings(gameType, limit int) ([]db.Standing, error)
}

// FrontEnd answers ladder queries. The store read runs in the background so
// a slow query never stalls the reactor; replies are sent as they complete.
type FrontEnd struct {
	store  Store
	logger zerolog.Logger
}

// New creates the ladder front-end.
func New(store Store) *FrontEnd {
	return &FrontEnd{
		store:  store,
		logger: log.With().Str("component", "ladder").Logger(),
	}
}

// Name implements reactor.FrontEnd.
func (f *FrontEnd) Name() string { return "ladder" }

// Connect implements reactor.FrontEnd.
func (f *FrontEnd) Connect(c reactor.Client) {}

// Line implements reactor.FrontEnd.
func (f *FrontEnd) Line(c reactor.Client, line string) {
	msg := protocol.ParseLine(line)
	switch msg.Command {
	case "RQST":
		f.onRequest(c, msg.Params)
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
	c.Send(protocol.Command("PING", ":ladder"))
}

// Timeout implements reactor.FrontEnd.
func (f *FrontEnd) Timeout(c reactor.Client) {
	c.Send(protocol.Command("ERROR", ":Ping timeout"))
}

// onRequest handles "RQST <gameType> [count]".
func (f *FrontEnd) onRequest(c reactor.Client, params []string) {
	if len(params) < 1 {
		c.Send(protocol.Command("ERROR", ":Malformed request"))
		return
	}
	gameType, err := strconv.Atoi(params[0])
	if err != nil {
		c.Send(protocol.Command("ERROR", ":Malformed request"))
		return
	}
	count := defaultCount
	if len(params) > 1 {
		if n, err := strconv.Atoi(params[1]); err == nil && n > 0 {
			count = n
		}
	}

	go func() {
		standings, err := f.store.TopStandings(gameType, count)
		if err != nil {
			f.logger.Error().Err(err).Int("game_type", gameType).Msg("standings query failed")
			c.Send(protocol.Command("ERROR", ":Query failure"))
			return
		}
		for rank, s := range standings {
			c.Send(protocol.Command("LADDER",
				fmt.Sprintf("%d %s %d %d %d", rank+1, s.Nick, s.Points, s.Wins, s.Losses)))
		}
		c.Send(protocol.Command("LADDER", ":end"))
	}()
}
