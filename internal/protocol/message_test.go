package protocol

import (
	"reflect"
	"testing"
)

func TestParseLine_CommandOnly(t *testing.T) {
	msg := ParseLine("QUIT")
	if msg.Command != "QUIT" {
		t.Errorf("Expected command QUIT, got %q", msg.Command)
	}
	if len(msg.Params) != 0 {
		t.Errorf("Expected no params, got %v", msg.Params)
	}
}

func TestParseLine_SimpleParams(t *testing.T) {
	msg := ParseLine("LIST 0 21")
	if msg.Command != "LIST" {
		t.Errorf("Expected command LIST, got %q", msg.Command)
	}
	if !reflect.DeepEqual(msg.Params, []string{"0", "21"}) {
		t.Errorf("Expected [0 21], got %v", msg.Params)
	}
}

func TestParseLine_TrailingParam(t *testing.T) {
	msg := ParseLine("PRIVMSG #Lob_21_0 :hello there everyone")
	if msg.Command != "PRIVMSG" {
		t.Errorf("Expected command PRIVMSG, got %q", msg.Command)
	}
	want := []string{"#Lob_21_0", "hello there everyone"}
	if !reflect.DeepEqual(msg.Params, want) {
		t.Errorf("Expected %v, got %v", want, msg.Params)
	}
}

func TestParseLine_TrailingColonOnly(t *testing.T) {
	msg := ParseLine("TOPIC #game1 :")
	want := []string{"#game1", ""}
	if !reflect.DeepEqual(msg.Params, want) {
		t.Errorf("Expected %v, got %v", want, msg.Params)
	}
}

func TestParseLine_Prefix(t *testing.T) {
	msg := ParseLine(":someone!u@h PRIVMSG #room :hi")
	if msg.Prefix != "someone!u@h" {
		t.Errorf("Expected prefix someone!u@h, got %q", msg.Prefix)
	}
	if msg.Command != "PRIVMSG" {
		t.Errorf("Expected command PRIVMSG, got %q", msg.Command)
	}
}

func TestParseLine_ExtraSpaces(t *testing.T) {
	msg := ParseLine("JOIN   #Lob_21_0   zotclot9")
	want := []string{"#Lob_21_0", "zotclot9"}
	if !reflect.DeepEqual(msg.Params, want) {
		t.Errorf("Expected %v, got %v", want, msg.Params)
	}
}

func TestParseLine_Empty(t *testing.T) {
	msg := ParseLine("")
	if msg.Command != "" || len(msg.Params) != 0 {
		t.Errorf("Expected empty message, got %+v", msg)
	}
}
