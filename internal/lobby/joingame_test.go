package lobby

import (
	"testing"
)

func TestClassifyJoinGame(t *testing.T) {
	tests := []struct {
		name   string
		params []string
		want   joinGameOp
	}{
		{"lobby alias", []string{"#Lob_21_0", "21", "0"}, opPlainJoin},
		{"existing two params", []string{"#game1", "18"}, opExistingJoin},
		{"existing with key", []string{"#game1", "18", "sesame"}, opExistingJoin},
		{"lobby two params is existing join", []string{"#Lob_21_0", "0"}, opExistingJoin},
		{"creation", []string{"#game1", "2", "4", "18", "0", "0", "0", "0"}, opCreate},
		{"creation with key", []string{"#game1", "2", "4", "18", "0", "0", "1", "0", "sesame"}, opCreate},
		{"no params", nil, opMalformed},
		{"one param", []string{"#game1"}, opMalformed},
		{"between shapes", []string{"#game1", "2", "4", "18", "0"}, opMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyJoinGame(tt.params); got != tt.want {
				t.Errorf("classifyJoinGame(%v) = %d, want %d", tt.params, got, tt.want)
			}
		})
	}
}

func TestJoinGameMalformed(t *testing.T) {
	f, _ := newTestFrontEnd()
	alice := connect(f, "10.0.0.1:40000")
	register(f, alice, "Alice")

	f.Line(alice, "JOINGAME #game1 2 4 18 0")
	if !hasLine(alice, ":testserv 461 Alice :Not enough parameters") {
		t.Errorf("Expected need-more-params, got %v", alice.sent)
	}
}

func TestJoinGameCreate(t *testing.T) {
	f, reg := newTestFrontEnd()
	alice := connect(f, "10.0.0.1:40000")
	register(f, alice, "Alice")

	f.Line(alice, "JOINGAME #game1 2 4 18 0 0 1 0 sesame")

	want := []string{
		":testserv 332 Alice :",
		":Alice!u@h JOINGAME 2 4 18 1 0 0 0 :#game1",
		":testserv 353 Alice = #game1 :@Alice,0,0",
		":testserv 366 Alice #game1 :End of names",
	}
	if len(alice.sent) != len(want) {
		t.Fatalf("Expected %v, got %v", want, alice.sent)
	}
	for i, line := range want {
		if alice.sent[i] != line {
			t.Errorf("Line %d: expected %q, got %q", i, line, alice.sent[i])
		}
	}

	rm, ok := reg.Get("#game1")
	if !ok {
		t.Fatal("Created room not in registry")
	}
	if !rm.IsOwner(f.sessions[alice]) {
		t.Error("Creator is not the owner")
	}
	if rm.MemberCount() != 1 {
		t.Errorf("Expected creator as sole member, got %d", rm.MemberCount())
	}
	if rm.Key() != "sesame" || rm.Type() != 18 || rm.MinUsers() != 2 || rm.MaxUsers() != 4 || !rm.Tournament() {
		t.Error("Room metadata not taken from creation parameters")
	}
}

func TestJoinGameExistingBroadcastsAndResets(t *testing.T) {
	f, _ := newTestFrontEnd()
	alice := connect(f, "10.0.0.1:40000")
	register(f, alice, "Alice")
	bob := connect(f, "10.0.0.2:40000")
	register(f, bob, "Bob")
	f.Line(alice, "JOINGAME #game1 2 4 18 0 0 1 0 sesame")
	alice.sent = nil

	f.Line(bob, "JOINGAME #game1 18 sesame")

	if !hasLine(alice, ":Bob!u@h JOINGAME 2 4 18 1 0 0 0 :#game1") {
		t.Errorf("Alice missed Bob's joingame broadcast, got %v", alice.sent)
	}
	wantBob := []string{
		":Bob!u@h JOINGAME 2 4 18 1 0 0 0 :#game1",
		":testserv 332 Bob :",
		":testserv 353 Bob = #game1 :@Alice,0,0",
		":testserv 353 Bob = #game1 :Bob,0,0",
		":testserv 366 Bob #game1 :End of names",
	}
	if len(bob.sent) != len(wantBob) {
		t.Fatalf("Expected %v, got %v", wantBob, bob.sent)
	}
	for i, line := range wantBob {
		if bob.sent[i] != line {
			t.Errorf("Line %d: expected %q, got %q", i, line, bob.sent[i])
		}
	}

	if f.sessions[bob].state != AwaitingFirstGameopt {
		t.Error("Joiner not reset to awaiting state")
	}
	if f.sessions[alice].state != GameoptReady {
		t.Error("Creator lost ready state")
	}
}

func TestJoinGameLobbyViaTwoParams(t *testing.T) {
	f, _ := newTestFrontEnd()
	alice := connect(f, "10.0.0.1:40000")
	register(f, alice, "Alice")

	f.Line(alice, "JOINGAME #Lob_21_0 0")
	want := []string{
		":Alice!u@h JOINGAME 0 50 21 0 0 0 0 :#Lob_21_0",
		":testserv 332 Alice :",
		":testserv 353 Alice * #Lob_21_0 :Alice,0,0",
		":testserv 366 Alice #Lob_21_0 :End of names",
	}
	if len(alice.sent) != len(want) {
		t.Fatalf("Expected %v, got %v", want, alice.sent)
	}
	for i, line := range want {
		if alice.sent[i] != line {
			t.Errorf("Line %d: expected %q, got %q", i, line, alice.sent[i])
		}
	}
}

func TestJoinGameLobbyAliasThreeParams(t *testing.T) {
	f, _ := newTestFrontEnd()
	alice := connect(f, "10.0.0.1:40000")
	register(f, alice, "Alice")

	f.Line(alice, "JOINGAME #Lob_21_1 21 0")
	if !hasLine(alice, ":Alice!u@h JOIN :0,0 #Lob_21_1") {
		t.Errorf("Three-param lobby join must alias to plain join, got %v", alice.sent)
	}
}

func TestJoinGameIdempotentRejoin(t *testing.T) {
	f, _ := newTestFrontEnd()
	alice := connect(f, "10.0.0.1:40000")
	register(f, alice, "Alice")
	bob := connect(f, "10.0.0.2:40000")
	register(f, bob, "Bob")
	f.Line(alice, "JOINGAME #game1 2 4 18 0 0 0 0")
	f.Line(bob, "JOINGAME #game1 18")
	alice.sent, bob.sent = nil, nil

	f.Line(bob, "JOINGAME #game1 18")
	if len(bob.sent) != 1 || bob.sent[0] != ":Bob!u@h JOINGAME 2 4 18 0 0 0 0 :#game1" {
		t.Errorf("Rejoin must confirm once to requester only, got %v", bob.sent)
	}
	if len(alice.sent) != 0 {
		t.Errorf("Rejoin must not broadcast, got %v", alice.sent)
	}
}

func TestJoinGameRejections(t *testing.T) {
	f, _ := newTestFrontEnd()
	alice := connect(f, "10.0.0.1:40000")
	register(f, alice, "Alice")
	f.Line(alice, "JOINGAME #keyed 2 4 18 0 0 0 0 sesame")
	f.Line(alice, "JOINGAME #tiny 1 1 18 0 0 0 0")

	bob := connect(f, "10.0.0.2:40000")
	register(f, bob, "Bob")

	f.Line(bob, "JOINGAME #keyed 18 wrongkey")
	if !hasLine(bob, ":testserv 475 Bob #keyed :Cannot join channel (invalid key)") {
		t.Errorf("Expected bad-key reply, got %v", bob.sent)
	}
	bob.sent = nil

	f.Line(bob, "JOINGAME #tiny 18")
	if !hasLine(bob, ":testserv 471 Bob #tiny :Cannot join channel (game is full)") {
		t.Errorf("Expected channel-full reply, got %v", bob.sent)
	}
	bob.sent = nil

	f.Line(bob, "JOINGAME #nowhere 18")
	if !hasLine(bob, ":testserv 403 Bob #nowhere :No such channel") {
		t.Errorf("Expected no-such-channel reply, got %v", bob.sent)
	}
}

func TestJoinGameCreateZeroCapacityFails(t *testing.T) {
	f, reg := newTestFrontEnd()
	alice := connect(f, "10.0.0.1:40000")
	register(f, alice, "Alice")

	f.Line(alice, "JOINGAME #tiny 0 0 18 0 0 0 0")
	if _, ok := reg.Get("#tiny"); ok {
		t.Error("Zero-capacity room must not be registered")
	}
	if len(alice.sent) != 0 {
		t.Errorf("Failed creation must not confirm, got %v", alice.sent)
	}
}

func TestGameoptRoomFanOutAndDeferral(t *testing.T) {
	f, _ := newTestFrontEnd()
	alice := connect(f, "10.0.0.1:40000")
	register(f, alice, "Alice")
	bob := connect(f, "10.0.0.2:40000")
	register(f, bob, "Bob")
	f.Line(alice, "JOINGAME #game1 2 4 18 0 0 0 0")
	f.Line(bob, "JOINGAME #game1 18")
	alice.sent, bob.sent = nil, nil

	f.Line(alice, "GAMEOPT #game1 :units=5,credits=10000")
	if !hasLine(alice, ":Alice!u@h GAMEOPT #game1 :units=5,credits=10000") {
		t.Errorf("Creator must receive gameopt immediately, got %v", alice.sent)
	}
	if len(bob.sent) != 0 {
		t.Errorf("Awaiting session must not receive gameopt yet, got %v", bob.sent)
	}

	f.Line(alice, "GAMEOPT #game1 :crates=on")
	alice.sent = nil

	// Bob's own gameopt unlocks his queue in enqueue order.
	f.Line(bob, "GAMEOPT Alice :ready=1")
	if !hasLine(alice, ":Bob!u@h GAMEOPT Alice :ready=1") {
		t.Errorf("Alice missed nick-addressed gameopt, got %v", alice.sent)
	}
	wantBob := []string{
		":Alice!u@h GAMEOPT #game1 :units=5,credits=10000",
		":Alice!u@h GAMEOPT #game1 :crates=on",
	}
	if len(bob.sent) != len(wantBob) {
		t.Fatalf("Expected deferred flush %v, got %v", wantBob, bob.sent)
	}
	for i, line := range wantBob {
		if bob.sent[i] != line {
			t.Errorf("Flush line %d: expected %q, got %q", i, line, bob.sent[i])
		}
	}
	if f.sessions[bob].state != GameoptReady {
		t.Error("Sender not marked ready after own gameopt")
	}

	// Later room gameopts are immediate.
	bob.sent = nil
	f.Line(alice, "GAMEOPT #game1 :superweapons=off")
	if !hasLine(bob, ":Alice!u@h GAMEOPT #game1 :superweapons=off") {
		t.Errorf("Ready session must receive gameopt immediately, got %v", bob.sent)
	}
}

func TestGameoptRejoinDiscardsQueue(t *testing.T) {
	f, _ := newTestFrontEnd()
	alice := connect(f, "10.0.0.1:40000")
	register(f, alice, "Alice")
	bob := connect(f, "10.0.0.2:40000")
	register(f, bob, "Bob")
	f.Line(alice, "JOINGAME #game1 2 4 18 0 0 0 0")
	f.Line(bob, "JOINGAME #game1 18")
	f.Line(alice, "GAMEOPT #game1 :units=5")

	// Bob leaves and rejoins; the stale queued option must not survive.
	f.Line(bob, "PART #game1")
	f.Line(bob, "JOINGAME #game1 18")
	bob.sent = nil

	f.Line(bob, "GAMEOPT Alice :ready=1")
	if len(bob.sent) != 0 {
		t.Errorf("Discarded queue must not flush, got %v", bob.sent)
	}
}

func TestGameoptUnknownTargets(t *testing.T) {
	f, _ := newTestFrontEnd()
	alice := connect(f, "10.0.0.1:40000")
	register(f, alice, "Alice")

	f.Line(alice, "GAMEOPT #nowhere :x=1")
	if !hasLine(alice, ":testserv 403 Alice #nowhere :No such channel") {
		t.Errorf("Expected no-such-channel reply, got %v", alice.sent)
	}
	alice.sent = nil

	f.Line(alice, "GAMEOPT Nobody :x=1")
	if !hasLine(alice, ":testserv 401 Alice Nobody :No such nick/channel") {
		t.Errorf("Expected no-such-nick reply, got %v", alice.sent)
	}
}
