package gameres

import (
	"fmt"
	"testing"
	"time"

	"github.com/wolserv-project/wolserv/internal/db"
	"github.com/wolserv-project/wolserv/internal/room"
)

type chanClient struct {
	lines  chan string
	closed bool
}

func newChanClient() *chanClient {
	return &chanClient{lines: make(chan string, 8)}
}

func (c *chanClient) Send(line string)   { c.lines <- line }
func (c *chanClient) Close()             { c.closed = true }
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
	recorded chan db.GameResult
	fail     bool
}

func (s *fakeStore) RecordResult(result db.GameResult) error {
	if s.fail {
		return fmt.Errorf("disk on fire")
	}
	s.recorded <- result
	return nil
}

func newTestFrontEnd(store Store) (*FrontEnd, *room.Registry) {
	reg := room.NewRegistry()
	reg.Add(room.New("#game1", "", 18, false))
	return New(reg, store, nil), reg
}

func TestResultStoredAndAcked(t *testing.T) {
	store := &fakeStore{recorded: make(chan db.GameResult, 1)}
	f, _ := newTestFrontEnd(store)
	c := newChanClient()

	f.Line(c, "RESULT m-42 #game1 18 Alice=150,Bob=90")

	select {
	case got := <-store.recorded:
		if got.MatchID != "m-42" || got.Room != "#game1" || got.Scores["Alice"] != 150 {
			t.Errorf("Unexpected stored result: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("result not stored")
	}
	if line := c.next(t); line != "RESULT m-42 :OK" {
		t.Errorf("Expected acknowledgement, got %q", line)
	}
}

func TestResultUnknownRoomRejected(t *testing.T) {
	store := &fakeStore{recorded: make(chan db.GameResult, 1)}
	f, _ := newTestFrontEnd(store)
	c := newChanClient()

	f.Line(c, "RESULT m-1 #nowhere 18 Alice=1")
	if line := c.next(t); line != "ERROR :No such channel" {
		t.Errorf("Expected rejection, got %q", line)
	}
	select {
	case got := <-store.recorded:
		t.Errorf("Result for unknown room stored: %+v", got)
	default:
	}
}

func TestResultMalformedRejected(t *testing.T) {
	store := &fakeStore{recorded: make(chan db.GameResult, 1)}
	f, _ := newTestFrontEnd(store)
	c := newChanClient()

	f.Line(c, "RESULT m-1 #game1")
	if line := c.next(t); line != "ERROR :Malformed result" {
		t.Errorf("Expected rejection, got %q", line)
	}
}

func TestResultStoreFailureReported(t *testing.T) {
	store := &fakeStore{fail: true}
	f, _ := newTestFrontEnd(store)
	c := newChanClient()

	f.Line(c, "RESULT m-1 #game1 18 Alice=1")
	if line := c.next(t); line != "ERROR :Storage failure" {
		t.Errorf("Expected storage failure notice, got %q", line)
	}
}
