package lobby

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wolserv-project/wolserv/internal/events"
	"github.com/wolserv-project/wolserv/internal/protocol"
	"github.com/wolserv-project/wolserv/internal/room"
)

// joinGameOp is the operation a JOINGAME line encodes. The wire command is
// overloaded; parameter shape decides which of three distinct operations the
// client means.
type joinGameOp int

const (
	opPlainJoin joinGameOp = iota
	opExistingJoin
	opCreate
	opMalformed
)

// classifyJoinGame resolves the parameter shape to exactly one operation.
// Three parameters naming a permanent lobby are a plain join alias; two or
// three otherwise join an existing game room; eight or more create one.
func classifyJoinGame(params []string) joinGameOp {
	switch {
	case len(params) == 3 && strings.HasPrefix(params[0], "#Lob_"):
		return opPlainJoin
	case len(params) == 2 || len(params) == 3:
		return opExistingJoin
	case len(params) >= 8:
		return opCreate
	default:
		return opMalformed
	}
}

func (f *FrontEnd) onJoinGame(s *Session, params []string) {
	switch classifyJoinGame(params) {
	case opPlainJoin:
		f.onJoin(s, []string{params[0], params[2]})
	case opExistingJoin:
		f.joinExistingGame(s, params)
	case opCreate:
		f.createGame(s, params)
	case opMalformed:
		f.needMoreParams(s)
	}
}

// joinGameParams is the shared body of the JOINGAME notice and confirmation.
func joinGameParams(rm *room.Room) string {
	t := 0
	if rm.Tournament() {
		t = 1
	}
	return fmt.Sprintf("%d %d %d %d 0 0 0 :%s", rm.MinUsers(), rm.MaxUsers(), rm.Type(), t, rm.Name())
}

// joinExistingGame joins a room that already exists. A successful join also
// restarts the joiner's gameopt handshake: the deferred queue is discarded
// and delivery is deferred again until the joiner sends its own gameopt.
func (f *FrontEnd) joinExistingGame(s *Session, params []string) {
	if !s.registered {
		return
	}
	rm, ok := f.registry.Get(params[0])
	if !ok {
		f.reply(s, protocol.ErrNoSuchChannel, params[0]+" :No such channel")
		return
	}
	key := ""
	if len(params) == 3 {
		key = params[2]
	}

	switch rm.Join(s, key) {
	case room.Joined:
		f.broadcast(rm, s, "JOINGAME", joinGameParams(rm), false)
		f.reply(s, protocol.RplTopic, ":"+rm.Topic())
		f.putNames(s, rm)
		s.ResetGameopt()
	case room.AlreadyMember:
		f.replyCmd(s, "JOINGAME", joinGameParams(rm))
	case room.Banned:
		f.reply(s, protocol.ErrBannedFromChan, rm.Name()+" :Cannot join channel (banned)")
	case room.Full:
		f.reply(s, protocol.ErrChannelIsFull, rm.Name()+" :Cannot join channel (game is full)")
	case room.BadKey:
		f.reply(s, protocol.ErrBadChannelKey, rm.Name()+" :Cannot join channel (invalid key)")
	}
}

// createGame builds a new game room from the creation parameters, with the
// creator as owner and first member. Creators skip the gameopt deferral.
func (f *FrontEnd) createGame(s *Session, params []string) {
	if !s.registered {
		return
	}

	minUsers, err := strconv.Atoi(params[1])
	if err != nil {
		f.needMoreParams(s)
		return
	}
	maxUsers, err := strconv.Atoi(params[2])
	if err != nil {
		f.needMoreParams(s)
		return
	}
	gameType, err := strconv.Atoi(params[3])
	if err != nil {
		f.needMoreParams(s)
		return
	}
	tournament, err := strconv.Atoi(params[6])
	if err != nil {
		f.needMoreParams(s)
		return
	}
	reserved, err := strconv.Atoi(params[7])
	if err != nil {
		f.needMoreParams(s)
		return
	}
	key := ""
	if len(params) > 8 {
		key = params[8]
	}

	name := params[0]
	if _, exists := f.registry.Get(name); exists {
		f.logger.Warn().Str("room", name).Msg("replacing existing room on create")
	}

	rm := room.New(name, key, gameType, false)
	rm.SetOwner(s)
	rm.SetMinUsers(minUsers)
	rm.SetMaxUsers(maxUsers)
	rm.SetTournament(tournament > 0)
	rm.SetReserved(reserved)

	if res := rm.Join(s, key); res != room.Joined {
		f.logger.Error().
			Str("room", name).
			Str("nick", s.nick).
			Stringer("result", res).
			Msg("creator join of a fresh room failed")
		return
	}
	f.registry.Add(rm)

	f.reply(s, protocol.RplTopic, ":")
	f.replyCmd(s, "JOINGAME", joinGameParams(rm))
	f.putNames(s, rm)
	s.MarkReady()

	f.emit(events.EventRoomCreated, roomPayload(rm))
}
