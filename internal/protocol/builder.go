package protocol

import (
	"fmt"
	"strconv"
)

// Numeric formats a server-originated numeric reply:
// ":<server> <code> <nick> [params]". With empty params the line ends after
// the nick, matching the bare end-of-motd style reply.
func Numeric(server string, code int, nick, params string) string {
	if params == "" {
		return ":" + server + " " + strconv.Itoa(code) + " " + nick
	}
	return ":" + server + " " + strconv.Itoa(code) + " " + nick + " " + params
}

// Relayed formats a client-attributed message relayed through the server:
// ":<nick>!u@h <COMMAND> <params>".
func Relayed(nick, command, params string) string {
	return ":" + nick + "!u@h " + command + " " + params
}

// Command formats a server command with no originator prefix, used for the
// keep-alive probe and forced error notices.
func Command(command, params string) string {
	return command + " " + params
}

// GameListEntry formats the 326 reply body for one ephemeral game room.
func GameListEntry(name string, users, maxUsers, gameType int, tournament bool, reserved int, ip uint32, flags int, topic string) string {
	t := 0
	if tournament {
		t = 1
	}
	return fmt.Sprintf("%s %d %d %d %d %d %d %d::%s", name, users, maxUsers, gameType, t, reserved, ip, flags, topic)
}
