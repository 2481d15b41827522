package db

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *ResultsDatabase {
	t.Helper()
	rdb, err := NewResultsDatabase(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("NewResultsDatabase failed: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestRecordResultAndStandings(t *testing.T) {
	rdb := openTestDB(t)

	err := rdb.RecordResult(GameResult{
		MatchID:  "m1",
		Room:     "#game1",
		GameType: 18,
		Scores:   map[string]int{"Alice": 150, "Bob": 90},
	})
	if err != nil {
		t.Fatalf("RecordResult failed: %v", err)
	}

	standings, err := rdb.TopStandings(18, 10)
	if err != nil {
		t.Fatalf("TopStandings failed: %v", err)
	}
	if len(standings) != 2 {
		t.Fatalf("Expected 2 standings, got %d", len(standings))
	}
	if standings[0].Nick != "Alice" || standings[0].Wins != 1 || standings[0].Points != 150 {
		t.Errorf("Unexpected leader: %+v", standings[0])
	}
	if standings[1].Nick != "Bob" || standings[1].Losses != 1 {
		t.Errorf("Unexpected runner-up: %+v", standings[1])
	}
}

func TestRecordResultAccumulates(t *testing.T) {
	rdb := openTestDB(t)

	for _, scores := range []map[string]int{
		{"Alice": 100, "Bob": 50},
		{"Alice": 40, "Bob": 120},
		{"Alice": 80, "Bob": 30},
	} {
		if err := rdb.RecordResult(GameResult{MatchID: "m", Room: "#game1", GameType: 18, Scores: scores}); err != nil {
			t.Fatalf("RecordResult failed: %v", err)
		}
	}

	standings, err := rdb.TopStandings(18, 10)
	if err != nil {
		t.Fatalf("TopStandings failed: %v", err)
	}
	if standings[0].Nick != "Alice" || standings[0].Wins != 2 || standings[0].Losses != 1 || standings[0].Points != 220 {
		t.Errorf("Unexpected accumulated leader: %+v", standings[0])
	}
	if standings[1].Nick != "Bob" || standings[1].Wins != 1 || standings[1].Losses != 2 || standings[1].Points != 200 {
		t.Errorf("Unexpected accumulated runner-up: %+v", standings[1])
	}
}

func TestTiedTopScoreCountsBothAsWinners(t *testing.T) {
	rdb := openTestDB(t)

	err := rdb.RecordResult(GameResult{
		MatchID: "m1", Room: "#game1", GameType: 18,
		Scores: map[string]int{"Alice": 100, "Bob": 100, "Carol": 20},
	})
	if err != nil {
		t.Fatalf("RecordResult failed: %v", err)
	}

	standings, _ := rdb.TopStandings(18, 10)
	for _, s := range standings {
		switch s.Nick {
		case "Alice", "Bob":
			if s.Wins != 1 || s.Losses != 0 {
				t.Errorf("%s: expected a win, got %+v", s.Nick, s)
			}
		case "Carol":
			if s.Wins != 0 || s.Losses != 1 {
				t.Errorf("Carol: expected a loss, got %+v", s)
			}
		}
	}
}

func TestStandingsIsolatedByGameType(t *testing.T) {
	rdb := openTestDB(t)

	rdb.RecordResult(GameResult{MatchID: "m1", Room: "#a", GameType: 18, Scores: map[string]int{"Alice": 10, "Bob": 5}})
	rdb.RecordResult(GameResult{MatchID: "m2", Room: "#b", GameType: 21, Scores: map[string]int{"Carol": 10, "Dave": 5}})

	standings, err := rdb.TopStandings(21, 10)
	if err != nil {
		t.Fatalf("TopStandings failed: %v", err)
	}
	if len(standings) != 2 {
		t.Fatalf("Expected 2 standings for type 21, got %d", len(standings))
	}
	for _, s := range standings {
		if s.Nick == "Alice" || s.Nick == "Bob" {
			t.Errorf("Type 18 player leaked into type 21 ladder: %+v", s)
		}
	}
}

func TestRecordResultRejectsEmptyScores(t *testing.T) {
	rdb := openTestDB(t)

	if err := rdb.RecordResult(GameResult{MatchID: "m1", Room: "#game1", GameType: 18}); err == nil {
		t.Error("Expected error for result without scores")
	}
	if count, _ := rdb.ResultCount(); count != 0 {
		t.Errorf("Rejected result was stored, count %d", count)
	}
}

func TestRecentResultsNewestFirst(t *testing.T) {
	rdb := openTestDB(t)

	rdb.RecordResult(GameResult{MatchID: "first", Room: "#a", GameType: 18, Scores: map[string]int{"Alice": 1}})
	rdb.RecordResult(GameResult{MatchID: "second", Room: "#b", GameType: 18, Scores: map[string]int{"Bob": 1}})

	results, err := rdb.RecentResults(10)
	if err != nil {
		t.Fatalf("RecentResults failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].MatchID != "second" {
		t.Errorf("Expected newest result first, got %s", results[0].MatchID)
	}
	if results[0].Scores["Bob"] != 1 {
		t.Errorf("Scores not attached: %+v", results[0].Scores)
	}
}

func TestPruneKeepsLadder(t *testing.T) {
	rdb := openTestDB(t)

	rdb.RecordResult(GameResult{MatchID: "m1", Room: "#a", GameType: 18, Scores: map[string]int{"Alice": 10, "Bob": 5}})

	// Nothing is old enough to prune.
	removed, err := rdb.PruneOlderThan(30)
	if err != nil {
		t.Fatalf("PruneOlderThan failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("Expected 0 pruned, got %d", removed)
	}

	// Backdate and prune.
	if _, err := rdb.db.Exec("UPDATE game_results SET reported_at = datetime('now', '-60 days')"); err != nil {
		t.Fatal(err)
	}
	removed, err = rdb.PruneOlderThan(30)
	if err != nil {
		t.Fatalf("PruneOlderThan failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 pruned, got %d", removed)
	}

	standings, _ := rdb.TopStandings(18, 10)
	if len(standings) != 2 {
		t.Errorf("Ladder must survive pruning, got %d standings", len(standings))
	}
}
