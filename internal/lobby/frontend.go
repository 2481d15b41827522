package lobby

import (
	"context"
	"encoding/binary"
	"net"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wolserv-project/wolserv/internal/events"
	"github.com/wolserv-project/wolserv/internal/protocol"
	"github.com/wolserv-project/wolserv/internal/reactor"
	"github.com/wolserv-project/wolserv/internal/room"
)

type handlerFunc func(*Session, []string)

// FrontEnd implements the lobby protocol: registration, room browsing and
// lifecycle, chat and game-setup routing. It holds all per-session state and
// runs entirely on the reactor goroutine.
type FrontEnd struct {
	serverName string
	secret     string
	motd       string

	registry *room.Registry
	bus      *events.EventBus

	sessions map[reactor.Client]*Session
	// order preserves connect order for process-wide gameopt fan-out.
	order []*Session

	handlers map[string]handlerFunc
	logger   zerolog.Logger
}

// New creates the lobby front-end. serverName prefixes every numeric reply,
// secret is the shared login password, motd is the welcome banner line.
func New(serverName, secret, motd string, registry *room.Registry, bus *events.EventBus) *FrontEnd {
	f := &FrontEnd{
		serverName: serverName,
		secret:     secret,
		motd:       motd,
		registry:   registry,
		bus:        bus,
		sessions:   make(map[reactor.Client]*Session),
		logger:     log.With().Str("component", "lobby").Logger(),
	}

	f.handlers = map[string]handlerFunc{
		"PASS":        f.onPass,
		"NICK":        f.onNick,
		"USER":        f.onUser,
		"GETCODEPAGE": f.onGetCodepage,
		"SETCODEPAGE": f.onSetCodepage,
		"LIST":        f.onList,
		"JOIN":        f.onJoin,
		"JOINGAME":    f.onJoinGame,
		"TOPIC":       f.onTopic,
		"GAMEOPT":     f.onGameopt,
		"PRIVMSG":     f.onPrivmsg,
		"USERIP":      f.onUserIP,
		"STARTG":      f.onStartG,
		"PART":        f.onPart,
		"QUIT":        f.onQuit,

		// Recognized handshake commands with no effect. They must not fall
		// into the unknown-command path.
		"CVERS":  f.onNoop,
		"APGAR":  f.onNoop,
		"SERIAL": f.onNoop,
		"VERCHK": f.onNoop,
		"SETOPT": f.onNoop,
	}

	return f
}

// Name implements reactor.FrontEnd.
func (f *FrontEnd) Name() string { return "lobby" }

// Connect implements reactor.FrontEnd.
func (f *FrontEnd) Connect(c reactor.Client) {
	s := newSession(c)
	f.sessions[c] = s
	f.order = append(f.order, s)
	f.emit(events.EventClientConnected, events.ClientPayload{Addr: c.RemoteAddr(), FrontEnd: f.Name()})
}

// Line implements reactor.FrontEnd. Unknown commands are ignored so newer
// clients can speak past this server.
func (f *FrontEnd) Line(c reactor.Client, line string) {
	s, ok := f.sessions[c]
	if !ok {
		return
	}
	msg := protocol.ParseLine(line)
	handler, ok := f.handlers[msg.Command]
	if !ok {
		f.logger.Debug().Str("command", msg.Command).Msg("ignoring unknown command")
		return
	}
	handler(s, msg.Params)
}

// Disconnect implements reactor.FrontEnd. The session leaves every room it
// was in without a departure broadcast, and empty game rooms are reaped.
func (f *FrontEnd) Disconnect(c reactor.Client) {
	s, ok := f.sessions[c]
	if !ok {
		return
	}
	delete(f.sessions, c)
	for i, cur := range f.order {
		if cur == s {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	for _, rm := range f.registry.All() {
		if rm.Part(s) {
			f.reapIfEmpty(rm)
		}
	}
	f.emit(events.EventClientDisconnected, events.ClientPayload{Nick: s.nick, Addr: c.RemoteAddr(), FrontEnd: f.Name()})
}

// Idle implements reactor.FrontEnd.
func (f *FrontEnd) Idle(c reactor.Client) {
	c.Send(protocol.Command("PING", ":"+f.serverName))
}

// Timeout implements reactor.FrontEnd. The notice rides the best-effort
// final flush before the socket closes.
func (f *FrontEnd) Timeout(c reactor.Client) {
	c.Send(protocol.Command("ERROR", ":Ping timeout"))
}

// replyNick is the nick slot of a numeric reply. Sessions that have not set
// a nickname yet get the conventional placeholder.
func (s *Session) replyNick() string {
	if s.nick == "" {
		return "*"
	}
	return s.nick
}

func (f *FrontEnd) reply(s *Session, code int, params string) {
	s.client.Send(protocol.Numeric(f.serverName, code, s.replyNick(), params))
}

// replyCmd sends a requester-only confirmation in relayed form, attributed
// to the requester itself.
func (f *FrontEnd) replyCmd(s *Session, command, params string) {
	s.client.Send(protocol.Relayed(s.nick, command, params))
}

// broadcast sends a relayed message to every current member of rm, iterating
// a membership snapshot so a disconnect mid-delivery cannot skip anyone.
func (f *FrontEnd) broadcast(rm *room.Room, from *Session, command, params string, skipFrom bool) {
	line := protocol.Relayed(from.nick, command, params)
	for _, m := range rm.Members() {
		to, ok := m.(*Session)
		if !ok {
			continue
		}
		if skipFrom && to == from {
			continue
		}
		to.client.Send(line)
	}
}

func (f *FrontEnd) putMotd(s *Session) {
	f.reply(s, protocol.RplMotdStart, ":- "+f.motd)
	f.reply(s, protocol.RplEndOfMotd, "")
}

func (f *FrontEnd) putNames(s *Session, rm *room.Room) {
	prefix := "= "
	if rm.IsPermanent() {
		prefix = "* "
	}
	for _, m := range rm.Members() {
		member, ok := m.(*Session)
		if !ok {
			continue
		}
		decorated := member.nick
		if rm.IsOwner(member) {
			decorated = "@" + decorated
		}
		f.reply(s, protocol.RplNamReply, prefix+rm.Name()+" :"+decorated+",0,0")
	}
	f.reply(s, protocol.RplEndOfNames, rm.Name()+" :End of names")
}

func (f *FrontEnd) putList(s *Session, listType, gameType int) {
	f.reply(s, protocol.RplListStart, "")

	if listType == 0 {
		for _, rm := range f.registry.All() {
			if rm.IsPermanent() && rm.Type() == gameType {
				f.reply(s, protocol.RplList, rm.Name()+" 0 0 388")
			}
		}
	} else if listType == gameType {
		for _, rm := range f.registry.All() {
			if !rm.IsPermanent() && rm.Type() == gameType {
				f.reply(s, protocol.RplListGame, protocol.GameListEntry(
					rm.Name(),
					rm.MemberCount(),
					rm.MaxUsers(),
					rm.Type(),
					rm.Tournament(),
					rm.Reserved(),
					roomAddr(rm),
					rm.Flags(),
					rm.Topic(),
				))
			}
		}
	}

	f.reply(s, protocol.RplEndOfList, "")
}

// reapIfEmpty removes an emptied game room from the registry. Permanent
// lobbies stay even when empty.
func (f *FrontEnd) reapIfEmpty(rm *room.Room) {
	if rm.IsPermanent() || rm.MemberCount() > 0 {
		return
	}
	f.registry.Remove(rm.Name())
	f.emit(events.EventRoomRemoved, roomPayload(rm))
}

func (f *FrontEnd) emit(t events.EventType, payload interface{}) {
	if f.bus == nil {
		return
	}
	f.bus.Emit(context.Background(), events.Event{Type: t, Source: f.Name(), Payload: payload})
}

func roomPayload(rm *room.Room) events.RoomPayload {
	p := events.RoomPayload{
		Name:       rm.Name(),
		GameType:   rm.Type(),
		Members:    rm.MemberCount(),
		MaxMembers: rm.MaxUsers(),
		Tournament: rm.Tournament(),
	}
	if owner := rm.Owner(); owner != nil {
		p.Owner = owner.Identity()
	}
	return p
}

// roomAddr derives the numeric address field of a game list entry from the
// owner's IPv4 address, 0 when the owner has gone or the address is not v4.
func roomAddr(rm *room.Room) uint32 {
	owner, ok := rm.Owner().(*Session)
	if !ok {
		return 0
	}
	ip := net.ParseIP(owner.ip)
	if ip == nil {
		return 0
	}
	v4 := ip.To4()
	if v4 == nil {
		return 0
	}
	return binary.BigEndian.Uint32(v4)
}
