// Package config handles configuration loading, validation, and persistence
// for the WOLServ lobby server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultConfigDir  = "config"
	DefaultConfigFile = "config.json"

	DefaultChatPort    = 5000
	DefaultPeerPort    = 4005
	DefaultGameresPort = 4006
	DefaultLadderPort  = 4002
	DefaultAPIPort     = 8686
)

// Config is the root configuration structure for WOLServ.
type Config struct {
	mu   sync.RWMutex
	path string

	ServerData      ServerData      `json:"server_data"`
	ApplicationData ApplicationData `json:"application_data"`
}

// ServerData contains the lobby protocol configuration.
type ServerData struct {
	// Identity
	Name        string `json:"server_name"`
	BindAddress string `json:"bind_address"`

	// Front-end ports
	ChatPort    int `json:"chat_port"`
	PeerPort    int `json:"peer_port"`
	GameresPort int `json:"gameres_port"`
	LadderPort  int `json:"ladder_port"`

	// Shared client secret
	Secret string `json:"secret"`

	// Welcome banner
	MOTD string `json:"motd"`

	// Permanent lobbies created at startup
	LobbyCount    int `json:"lobby_count"`
	LobbyGameType int `json:"lobby_game_type"`
	LobbyCapacity int `json:"lobby_capacity"`

	// Statically known sibling servers
	Peers []PeerEntry `json:"peers"`
}

// PeerEntry is one statically configured sibling server.
type PeerEntry struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// ApplicationData contains process-level configuration.
type ApplicationData struct {
	Timers   TimerConfig    `json:"timers"`
	Database DatabaseConfig `json:"database"`
	API      APIConfig      `json:"api"`
	MQTT     MQTTConfig     `json:"mqtt"`
	Logging  LoggingConfig  `json:"logging"`
}

// TimerConfig holds the reactor tick and idle thresholds, in seconds.
type TimerConfig struct {
	TickInterval  int `json:"tick_interval_sec"`
	NudgeAfter    int `json:"nudge_after_sec"`
	TimeoutAfter  int `json:"timeout_after_sec"`
	StatsInterval int `json:"stats_interval_sec"`
}

func (t TimerConfig) Tick() time.Duration    { return time.Duration(t.TickInterval) * time.Second }
func (t TimerConfig) Nudge() time.Duration   { return time.Duration(t.NudgeAfter) * time.Second }
func (t TimerConfig) Timeout() time.Duration { return time.Duration(t.TimeoutAfter) * time.Second }
func (t TimerConfig) Stats() time.Duration   { return time.Duration(t.StatsInterval) * time.Second }

// DatabaseConfig holds game result storage settings.
type DatabaseConfig struct {
	Path          string `json:"path"`
	RetentionDays int    `json:"retention_days"`
	PruneEnabled  bool   `json:"prune_enabled"`
	PruneTime     string `json:"prune_time"`
}

// APIConfig holds REST API settings.
type APIConfig struct {
	Enabled        bool     `json:"enabled"`
	Port           int      `json:"port"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// MQTTConfig holds MQTT telemetry settings.
type MQTTConfig struct {
	Enabled   bool   `json:"enabled"`
	BrokerURL string `json:"broker_url"`
	Port      int    `json:"port"`
	UseTLS    bool   `json:"use_tls"`
	CertFile  string `json:"cert_file"`
	KeyFile   string `json:"key_file"`
	CAFile    string `json:"ca_file"`
	ClientID  string `json:"client_id"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `json:"level"`
	Directory  string `json:"directory"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "wolserv"
	}

	return &Config{
		ServerData: ServerData{
			Name:          hostname,
			BindAddress:   "0.0.0.0",
			ChatPort:      DefaultChatPort,
			PeerPort:      DefaultPeerPort,
			GameresPort:   DefaultGameresPort,
			LadderPort:    DefaultLadderPort,
			Secret:        "supersecret",
			MOTD:          "Welcome to Westwood Online!",
			LobbyCount:    3,
			LobbyGameType: 21,
			LobbyCapacity: 50,
		},
		ApplicationData: ApplicationData{
			Timers: TimerConfig{
				TickInterval:  1,
				NudgeAfter:    30,
				TimeoutAfter:  60,
				StatsInterval: 60,
			},
			Database: DatabaseConfig{
				Path:          "data/wolserv.db",
				RetentionDays: 30,
				PruneEnabled:  true,
				PruneTime:     "04:00",
			},
			API: APIConfig{
				Enabled: true,
				Port:    DefaultAPIPort,
			},
			MQTT: MQTTConfig{
				Enabled: false,
				Port:    8883,
				UseTLS:  true,
			},
			Logging: LoggingConfig{
				Level:      "info",
				Directory:  "logs",
				MaxSizeMB:  10,
				MaxBackups: 5,
			},
		},
	}
}

// Load reads configuration from a JSON file, creating it with defaults when
// missing.
func Load(configDir string) (*Config, error) {
	configPath := filepath.Join(configDir, DefaultConfigFile)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", configPath).Msg("config file not found, creating default")
			cfg := DefaultConfig()
			cfg.path = configPath
			if saveErr := cfg.Save(); saveErr != nil {
				return nil, fmt.Errorf("failed to save default config: %w", saveErr)
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig() // Start with defaults, then overlay
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	cfg.path = configPath
	log.Info().Str("path", configPath).Msg("configuration loaded")

	// Re-save config to persist any new default fields added in code updates.
	if saveErr := cfg.Save(); saveErr != nil {
		log.Warn().Err(saveErr).Msg("failed to re-save config with updated defaults")
	}

	return cfg, nil
}

// Save writes the current configuration to disk.
func (c *Config) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	log.Debug().Str("path", c.path).Msg("configuration saved")
	return nil
}

// GetServerData returns a copy of the server configuration.
func (c *Config) GetServerData() ServerData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ServerData
}

// SetServerData updates the server configuration.
func (c *Config) SetServerData(data ServerData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ServerData = data
}

// GetApplicationData returns a copy of the application configuration.
func (c *Config) GetApplicationData() ApplicationData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ApplicationData
}

// SetApplicationData updates the application configuration.
func (c *Config) SetApplicationData(data ApplicationData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ApplicationData = data
}

// UpdateServerField updates a single field in the server configuration by
// its JSON key.
func (c *Config) UpdateServerField(key string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, _ := json.Marshal(c.ServerData)
	m := make(map[string]interface{})
	json.Unmarshal(data, &m)

	m[key] = value

	updated, _ := json.Marshal(m)
	if err := json.Unmarshal(updated, &c.ServerData); err != nil {
		return fmt.Errorf("failed to update field %s: %w", key, err)
	}

	return nil
}

// UpdateAppField updates a single field in the application configuration by
// its JSON key.
func (c *Config) UpdateAppField(key string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, _ := json.Marshal(c.ApplicationData)
	m := make(map[string]interface{})
	json.Unmarshal(data, &m)

	m[key] = value

	updated, _ := json.Marshal(m)
	if err := json.Unmarshal(updated, &c.ApplicationData); err != nil {
		return fmt.Errorf("failed to update field %s: %w", key, err)
	}

	return nil
}

// Path returns the config file path.
func (c *Config) Path() string {
	return c.path
}
