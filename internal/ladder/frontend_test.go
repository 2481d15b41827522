package ladder

import (
	"fmt"
	"testing"
	"time"

	"github.com/wolserv-project/wolserv/internal/db"
)

type chanClient struct {
	lines chan string
}

func newChanClient() *chanClient {
	return &chanClient{lines: make(chan string, 32)}
}

func (c *chanClient) Send(line string)   { c.lines <- line }
func (c *chanClient) Close()             {}
func (c *chanClient) RemoteAddr() string { return "10.0.0.9:55555" }

func (c *chanClient) next(t *testing.T) string {
	t.Helper()
	select {
	case line := <-c.lines:
		return line
	case <-time.After(time.Second):
		t.Fatal("no line received")
		return ""
	}
}

type fakeStore struct {
	standings []db.Standing
	gotType   int
	gotLimit  int
	fail      bool
}

func (s *fakeStore) TopStandings(gameType, limit int) ([]db.Standing, error) {
	s.gotType, s.gotLimit = gameType, limit
	if s.fail {
		return nil, fmt.Errorf("no index")
	}
	return s.standings, nil
}

func TestRequestReturnsStandings(t *testing.T) {
	store := &fakeStore{standings: []db.Standing{
		{Nick: "Alice", GameType: 18, Wins: 5, Losses: 1, Points: 740},
		{Nick: "Bob", GameType: 18, Wins: 3, Losses: 3, Points: 410},
	}}
	f := New(store)
	c := newChanClient()

	f.Line(c, "RQST 18 10")

	want := []string{
		"LADDER 1 Alice 740 5 1",
		"LADDER 2 Bob 410 3 3",
		"LADDER :end",
	}
	for _, line := range want {
		if got := c.next(t); got != line {
			t.Errorf("Expected %q, got %q", line, got)
		}
	}
	if store.gotType != 18 || store.gotLimit != 10 {
		t.Errorf("Unexpected query args: type=%d limit=%d", store.gotType, store.gotLimit)
	}
}

func TestRequestDefaultCount(t *testing.T) {
	store := &fakeStore{}
	f := New(store)
	c := newChanClient()

	f.Line(c, "RQST 18")
	if got := c.next(t); got != "LADDER :end" {
		t.Errorf("Expected bare end marker, got %q", got)
	}
	if store.gotLimit != defaultCount {
		t.Errorf("Expected default count %d, got %d", defaultCount, store.gotLimit)
	}
}

func TestRequestMalformed(t *testing.T) {
	f := New(&fakeStore{})
	c := newChanClient()

	f.Line(c, "RQST")
	if got := c.next(t); got != "ERROR :Malformed request" {
		t.Errorf("Expected rejection, got %q", got)
	}

	f.Line(c, "RQST notanumber")
	if got := c.next(t); got != "ERROR :Malformed request" {
		t.Errorf("Expected rejection, got %q", got)
	}
}

func TestRequestQueryFailure(t *testing.T) {
	f := New(&fakeStore{fail: true})
	c := newChanClient()

	f.Line(c, "RQST 18")
	if got := c.next(t); got != "ERROR :Query failure" {
		t.Errorf("Expected failure notice, got %q", got)
	}
}
