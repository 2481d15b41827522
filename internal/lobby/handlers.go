package lobby

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wolserv-project/wolserv/internal/events"
	"github.com/wolserv-project/wolserv/internal/protocol"
	"github.com/wolserv-project/wolserv/internal/room"
)

// supportedCodepages are the encodings the legacy client family ships with.
var supportedCodepages = map[string]struct{}{
	"437": {}, "850": {}, "866": {}, "932": {}, "949": {}, "950": {},
	"1250": {}, "1251": {}, "1252": {},
}

func (f *FrontEnd) needMoreParams(s *Session) {
	f.reply(s, protocol.ErrNeedMoreParams, ":Not enough parameters")
}

func (f *FrontEnd) onNoop(s *Session, params []string) {}

func (f *FrontEnd) onPass(s *Session, params []string) {
	if len(params) < 1 {
		f.needMoreParams(s)
		return
	}
	if params[0] != f.secret {
		f.reply(s, protocol.ErrPasswdMismatch, ":Password incorrect ("+params[0]+")")
		s.client.Close()
		return
	}
	s.havePassword = true
}

func (f *FrontEnd) onNick(s *Session, params []string) {
	if len(params) < 1 {
		f.needMoreParams(s)
		return
	}
	s.nick = params[0]
}

func (f *FrontEnd) onUser(s *Session, params []string) {
	if len(params) < 4 {
		f.needMoreParams(s)
		return
	}
	if s.registered {
		f.reply(s, protocol.ErrAlreadyRegistered, ":You have already registered")
		return
	}
	if !s.havePassword {
		f.reply(s, protocol.ErrPasswdMismatch, ":Password incorrect")
		s.client.Close()
		return
	}
	if s.nick != "" {
		s.registered = true
		f.putMotd(s)
		f.emit(events.EventClientRegistered, events.ClientPayload{Nick: s.nick, Addr: s.client.RemoteAddr(), FrontEnd: f.Name()})
	}
}

func (f *FrontEnd) onGetCodepage(s *Session, params []string) {
	if len(params) < 1 {
		f.needMoreParams(s)
		return
	}
	if id, ok := strings.CutPrefix(s.encoding, "Cp"); ok {
		f.reply(s, protocol.RplCodepage, s.replyNick()+"`"+id)
	}
}

func (f *FrontEnd) onSetCodepage(s *Session, params []string) {
	if len(params) < 1 {
		f.needMoreParams(s)
		return
	}
	if _, ok := supportedCodepages[params[0]]; !ok {
		f.logger.Debug().Str("codepage", params[0]).Msg("ignoring unsupported codepage")
		return
	}
	s.encoding = "Cp" + params[0]
	f.reply(s, protocol.RplCodepageSet, params[0])
}

func (f *FrontEnd) onList(s *Session, params []string) {
	if len(params) < 2 {
		f.needMoreParams(s)
		return
	}
	listType, err := strconv.Atoi(params[0])
	if err != nil {
		f.needMoreParams(s)
		return
	}
	gameType, err := strconv.Atoi(params[1])
	if err != nil {
		f.needMoreParams(s)
		return
	}
	f.putList(s, listType, gameType)
}

func (f *FrontEnd) onJoin(s *Session, params []string) {
	if len(params) < 1 {
		f.needMoreParams(s)
		return
	}
	if !s.registered {
		return
	}
	rm, ok := f.registry.Get(params[0])
	if !ok {
		f.reply(s, protocol.ErrNoSuchChannel, params[0]+" :No such channel")
		return
	}
	key := ""
	if len(params) > 1 {
		key = params[1]
	}

	switch rm.Join(s, key) {
	case room.Joined:
		f.broadcast(rm, s, "JOIN", ":0,0 "+rm.Name(), false)
		f.putNames(s, rm)
	case room.AlreadyMember:
		f.replyCmd(s, "JOIN", ":0,0 "+rm.Name())
	case room.Banned:
		f.reply(s, protocol.ErrBannedFromChan, rm.Name()+" :Cannot join channel (banned)")
	case room.Full:
		f.reply(s, protocol.ErrChannelIsFull, rm.Name()+" :Cannot join channel (game is full)")
	case room.BadKey:
		f.reply(s, protocol.ErrBadChannelKey, rm.Name()+" :Cannot join channel (invalid key)")
	}
}

// onTopic changes the room topic. Only the owner may set it; anyone else is
// ignored without a reply.
func (f *FrontEnd) onTopic(s *Session, params []string) {
	if len(params) < 2 {
		f.needMoreParams(s)
		return
	}
	rm, ok := f.registry.Get(params[0])
	if !ok {
		f.reply(s, protocol.ErrNoSuchChannel, params[0]+" :No such channel")
		return
	}
	if rm.IsOwner(s) {
		rm.SetTopic(params[1])
	}
}

// onGameopt routes game option strings. Room-addressed options fan out to
// every connected session, not just room members; nick-addressed options go
// to the first matching session and unlock the sender's own deferred queue.
func (f *FrontEnd) onGameopt(s *Session, params []string) {
	if len(params) < 2 {
		f.needMoreParams(s)
		return
	}

	if strings.HasPrefix(params[0], "#") {
		rm, ok := f.registry.Get(params[0])
		if !ok {
			f.reply(s, protocol.ErrNoSuchChannel, params[0]+" :No such channel")
			return
		}
		line := protocol.Relayed(s.nick, "GAMEOPT", rm.Name()+" :"+params[1])
		for _, to := range f.order {
			to.Deliver(line)
		}
		return
	}

	for _, to := range f.order {
		if to.nick == params[0] {
			to.Deliver(protocol.Relayed(s.nick, "GAMEOPT", to.nick+" :"+params[1]))
			s.FlushDeferred()
			return
		}
	}
	f.reply(s, protocol.ErrNoSuchNick, params[0]+" :No such nick/channel")
}

// onPrivmsg broadcasts room chat to everyone but the sender. Direct
// nick-to-nick messages are not supported on this network.
func (f *FrontEnd) onPrivmsg(s *Session, params []string) {
	if len(params) < 2 {
		f.needMoreParams(s)
		return
	}
	if !strings.HasPrefix(params[0], "#") {
		f.reply(s, protocol.ErrNoSuchNick, params[0]+" :No such nick/channel")
		return
	}
	if rm, ok := f.registry.Get(params[0]); ok {
		f.broadcast(rm, s, "PRIVMSG", params[0]+" :"+params[1], true)
	}
}

func (f *FrontEnd) onUserIP(s *Session, params []string) {
	if len(params) < 1 {
		f.needMoreParams(s)
		return
	}
	// Clients resolve peer addresses from the start-game line instead.
}

// onStartG composes the match start line: "nick addr" for every requested
// member, a status marker, and the start timestamp, broadcast to the whole
// room. Only the owner may start.
func (f *FrontEnd) onStartG(s *Session, params []string) {
	if len(params) < 2 {
		f.needMoreParams(s)
		return
	}
	rm, ok := f.registry.Get(params[0])
	if !ok {
		f.reply(s, protocol.ErrNoSuchChannel, params[0]+" :No such channel")
		return
	}
	if !rm.IsOwner(s) {
		return
	}

	var sb strings.Builder
	var players []string
	for _, nick := range strings.Split(params[1], ",") {
		member, ok := rm.MemberByIdentity(nick)
		if !ok {
			continue
		}
		player, ok := member.(*Session)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "%s %s ", player.nick, player.ip)
		players = append(players, player.nick)
	}
	startedAt := time.Now().Unix()
	fmt.Fprintf(&sb, ":1 %d", startedAt)

	f.broadcast(rm, s, "STARTG", s.nick+" :"+sb.String(), false)
	f.emit(events.EventGameStarted, events.GameStartedPayload{
		Room:      rm.Name(),
		GameType:  rm.Type(),
		Players:   players,
		StartedAt: startedAt,
	})
}

func (f *FrontEnd) onPart(s *Session, params []string) {
	if len(params) < 1 {
		f.needMoreParams(s)
		return
	}
	rm, ok := f.registry.Get(params[0])
	if !ok {
		f.reply(s, protocol.ErrNoSuchChannel, params[0]+" :No such channel")
		return
	}
	if !rm.HasMember(s) {
		f.reply(s, protocol.ErrNotOnChannel, rm.Name()+" :You aren't on that channel")
		return
	}
	f.replyCmd(s, "PART", rm.Name())
	rm.Part(s)
	f.broadcast(rm, s, "PART", rm.Name(), false)
	f.reapIfEmpty(rm)
}

func (f *FrontEnd) onQuit(s *Session, params []string) {
	s.client.Send(protocol.Command("ERROR", ":Quit"))
	s.client.Close()
}
