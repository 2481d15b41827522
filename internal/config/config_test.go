package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	result := Validate(cfg)
	if !result.IsValid() {
		t.Errorf("Default config must validate, got errors: %v", result.Errors)
	}
}

func TestLoadCreatesDefaultWhenMissing(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ServerData.ChatPort != DefaultChatPort {
		t.Errorf("Expected default chat port %d, got %d", DefaultChatPort, cfg.ServerData.ChatPort)
	}
	if _, err := os.Stat(filepath.Join(dir, DefaultConfigFile)); err != nil {
		t.Errorf("Default config file not written: %v", err)
	}
}

func TestLoadOverlaysExistingFile(t *testing.T) {
	dir := t.TempDir()
	content := `{"server_data": {"server_name": "westwood1", "secret": "othersecret", "lobby_count": 5}}`
	if err := os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	sd := cfg.GetServerData()
	if sd.Name != "westwood1" || sd.Secret != "othersecret" || sd.LobbyCount != 5 {
		t.Errorf("File values not applied: %+v", sd)
	}
	// Unset fields keep their defaults.
	if sd.ChatPort != DefaultChatPort {
		t.Errorf("Expected default chat port, got %d", sd.ChatPort)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if err := cfg.UpdateServerField("motd", "Testing grounds"); err != nil {
		t.Fatalf("UpdateServerField failed: %v", err)
	}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if reloaded.GetServerData().MOTD != "Testing grounds" {
		t.Errorf("Updated field not persisted, got %q", reloaded.GetServerData().MOTD)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty secret", func(c *Config) { c.ServerData.Secret = "" }},
		{"empty name", func(c *Config) { c.ServerData.Name = "" }},
		{"bad bind address", func(c *Config) { c.ServerData.BindAddress = "not-an-ip" }},
		{"port out of range", func(c *Config) { c.ServerData.ChatPort = 70000 }},
		{"duplicate ports", func(c *Config) { c.ServerData.PeerPort = c.ServerData.ChatPort }},
		{"no lobbies", func(c *Config) { c.ServerData.LobbyCount = 0 }},
		{"timeout below nudge", func(c *Config) { c.ApplicationData.Timers.TimeoutAfter = 5 }},
		{"bad prune time", func(c *Config) { c.ApplicationData.Database.PruneTime = "25:99" }},
		{"mqtt without broker", func(c *Config) { c.ApplicationData.MQTT.Enabled = true }},
		{"incomplete peer", func(c *Config) {
			c.ServerData.Peers = []PeerEntry{{Name: "alpha"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if Validate(cfg).IsValid() {
				t.Error("Expected validation to fail")
			}
		})
	}
}

func TestTimerDurations(t *testing.T) {
	timers := TimerConfig{TickInterval: 1, NudgeAfter: 30, TimeoutAfter: 60, StatsInterval: 60}
	if timers.Tick() != time.Second || timers.Nudge() != 30*time.Second || timers.Timeout() != time.Minute {
		t.Error("Timer durations do not match configured seconds")
	}
}
