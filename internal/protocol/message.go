// Package protocol implements the text line protocol spoken by legacy
// Westwood Online game clients: inbound command tokenization, the numeric
// reply table, and outbound line formatting.
package protocol

import "strings"

// Message is one inbound protocol line split into a command token and its
// parameters.
type Message struct {
	Prefix  string
	Command string
	Params  []string
}

// ParseLine tokenizes a raw line. An optional ":prefix" token is captured but
// otherwise ignored; the next whitespace-delimited token is the command; the
// remaining tokens are parameters, except that a token starting with ":"
// begins the trailing parameter which runs to the end of the line.
func ParseLine(line string) Message {
	var msg Message

	line = strings.TrimLeft(line, " ")
	if strings.HasPrefix(line, ":") {
		rest := strings.TrimPrefix(line, ":")
		if idx := strings.IndexByte(rest, ' '); idx >= 0 {
			msg.Prefix = rest[:idx]
			line = strings.TrimLeft(rest[idx+1:], " ")
		} else {
			msg.Prefix = rest
			return msg
		}
	}

	if idx := strings.IndexByte(line, ' '); idx >= 0 {
		msg.Command = line[:idx]
		line = line[idx+1:]
	} else {
		msg.Command = line
		return msg
	}

	for line != "" {
		line = strings.TrimLeft(line, " ")
		if line == "" {
			break
		}
		if strings.HasPrefix(line, ":") {
			msg.Params = append(msg.Params, line[1:])
			break
		}
		if idx := strings.IndexByte(line, ' '); idx >= 0 {
			msg.Params = append(msg.Params, line[:idx])
			line = line[idx+1:]
		} else {
			msg.Params = append(msg.Params, line)
			break
		}
	}

	return msg
}
