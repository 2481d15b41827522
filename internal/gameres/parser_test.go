package gameres

import "testing"

func TestParseReport(t *testing.T) {
	report, err := ParseReport([]string{"m-42", "#game1", "18", "Alice=150,Bob=90"})
	if err != nil {
		t.Fatalf("ParseReport failed: %v", err)
	}
	if report.MatchID != "m-42" || report.Room != "#game1" || report.GameType != 18 {
		t.Errorf("Unexpected header fields: %+v", report)
	}
	if report.Scores["Alice"] != 150 || report.Scores["Bob"] != 90 {
		t.Errorf("Unexpected scores: %v", report.Scores)
	}
}

func TestParseReportSinglePlayer(t *testing.T) {
	report, err := ParseReport([]string{"m-1", "#game1", "18", "Alice=10"})
	if err != nil {
		t.Fatalf("ParseReport failed: %v", err)
	}
	if len(report.Scores) != 1 || report.Scores["Alice"] != 10 {
		t.Errorf("Unexpected scores: %v", report.Scores)
	}
}

func TestParseReportNegativeScore(t *testing.T) {
	report, err := ParseReport([]string{"m-1", "#game1", "18", "Alice=-5,Bob=3"})
	if err != nil {
		t.Fatalf("ParseReport failed: %v", err)
	}
	if report.Scores["Alice"] != -5 {
		t.Errorf("Negative score not parsed: %v", report.Scores)
	}
}

func TestParseReportErrors(t *testing.T) {
	tests := []struct {
		name   string
		params []string
	}{
		{"too few params", []string{"m-1", "#game1", "18"}},
		{"bad game type", []string{"m-1", "#game1", "notanumber", "Alice=1"}},
		{"missing equals", []string{"m-1", "#game1", "18", "Alice"}},
		{"empty nick", []string{"m-1", "#game1", "18", "=5"}},
		{"bad score", []string{"m-1", "#game1", "18", "Alice=lots"}},
		{"one bad pair", []string{"m-1", "#game1", "18", "Alice=1,Bob"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseReport(tt.params); err == nil {
				t.Errorf("ParseReport(%v) expected error", tt.params)
			}
		})
	}
}
