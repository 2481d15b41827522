// Package gameres implements the game-result reporting front-end: game
// servers connect after a match and submit the final scores, which are
// validated against the live room table and persisted for the ladder.
package gameres

import (
	"fmt"
	"strconv"
	"strings"
)

// Report is one parsed result submission.
type Report struct {
	MatchID  string
	Room     string
	GameType int
	Scores   map[string]int
}

// ParseReport parses the parameters of a RESULT line:
// "RESULT <matchID> <room> <gameType> <nick>=<score>[,<nick>=<score>...]".
func ParseReport(params []string) (Report, error) {
	if len(params) < 4 {
		return Report{}, fmt.Errorf("expected 4 parameters, got %d", len(params))
	}

	gameType, err := strconv.Atoi(params[2])
	if err != nil {
		return Report{}, fmt.Errorf("invalid game type %q: %w", params[2], err)
	}

	report := Report{
		MatchID:  params[0],
		Room:     params[1],
		GameType: gameType,
		Scores:   make(map[string]int),
	}

	for _, pair := range strings.Split(params[3], ",") {
		nick, scoreText, found := strings.Cut(pair, "=")
		if !found || nick == "" {
			return Report{}, fmt.Errorf("invalid score pair %q", pair)
		}
		score, err := strconv.Atoi(scoreText)
		if err != nil {
			return Report{}, fmt.Errorf("invalid score %q for %s: %w", scoreText, nick, err)
		}
		report.Scores[nick] = score
	}

	return report, nil
}
