package config

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error [%s]: %s", e.Field, e.Message)
}

// ValidationResult holds the results of configuration validation.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// IsValid returns true if there are no validation errors.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// AddError adds a validation error.
func (r *ValidationResult) AddError(field, message string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message})
}

// AddWarning adds a validation warning.
func (r *ValidationResult) AddWarning(field, message string) {
	r.Warnings = append(r.Warnings, ValidationError{Field: field, Message: message})
}

// Validate performs comprehensive validation of the configuration.
func Validate(cfg *Config) *ValidationResult {
	result := &ValidationResult{}

	validateServerData(&cfg.ServerData, result)
	validateApplicationData(&cfg.ApplicationData, result)

	return result
}

func validateServerData(data *ServerData, result *ValidationResult) {
	if strings.TrimSpace(data.Name) == "" {
		result.AddError("server_data.server_name", "server name is required")
	}

	if strings.TrimSpace(data.Secret) == "" {
		result.AddError("server_data.secret", "client secret is required")
	}

	if net.ParseIP(data.BindAddress) == nil {
		result.AddError("server_data.bind_address",
			fmt.Sprintf("invalid bind address: %s", data.BindAddress))
	}

	validatePort(data.ChatPort, "server_data.chat_port", result)
	validatePort(data.PeerPort, "server_data.peer_port", result)
	validatePort(data.GameresPort, "server_data.gameres_port", result)
	validatePort(data.LadderPort, "server_data.ladder_port", result)

	ports := map[int]string{
		data.ChatPort:    "chat",
		data.PeerPort:    "peer",
		data.GameresPort: "gameres",
		data.LadderPort:  "ladder",
	}
	if len(ports) < 4 {
		result.AddError("server_data.ports", "port conflict detected: all ports must be unique")
	}

	if data.LobbyCount < 1 {
		result.AddError("server_data.lobby_count", "must have at least 1 permanent lobby")
	}
	if data.LobbyCapacity < 1 {
		result.AddError("server_data.lobby_capacity", "lobby capacity must be at least 1")
	}

	for i, peer := range data.Peers {
		if strings.TrimSpace(peer.Name) == "" || strings.TrimSpace(peer.Address) == "" {
			result.AddError(fmt.Sprintf("server_data.peers[%d]", i),
				"peer entries need both a name and an address")
		}
	}
}

func validateApplicationData(data *ApplicationData, result *ValidationResult) {
	validateTimers(&data.Timers, result)

	if strings.TrimSpace(data.Database.Path) == "" {
		result.AddError("application_data.database.path", "database path is required")
	}
	if data.Database.PruneEnabled {
		if data.Database.RetentionDays < 1 {
			result.AddError("application_data.database.retention_days",
				"retention days must be at least 1")
		}
		if _, err := time.Parse("15:04", data.Database.PruneTime); err != nil {
			result.AddError("application_data.database.prune_time",
				fmt.Sprintf("invalid prune time %q, expected HH:MM", data.Database.PruneTime))
		}
	}

	if data.API.Enabled {
		validatePort(data.API.Port, "application_data.api.port", result)
	}

	if data.MQTT.Enabled {
		if strings.TrimSpace(data.MQTT.BrokerURL) == "" {
			result.AddError("application_data.mqtt.broker_url", "MQTT broker URL is required when enabled")
		}
		if data.MQTT.Port < 1 || data.MQTT.Port > 65535 {
			result.AddError("application_data.mqtt.port", "invalid MQTT port")
		}
	}
}

func validateTimers(timers *TimerConfig, result *ValidationResult) {
	if timers.TickInterval < 1 {
		result.AddError("timers.tick_interval_sec", "tick interval must be at least 1 second")
	}
	if timers.NudgeAfter < 1 {
		result.AddError("timers.nudge_after_sec", "nudge threshold must be at least 1 second")
	}
	if timers.TimeoutAfter <= timers.NudgeAfter {
		result.AddError("timers.timeout_after_sec",
			"timeout threshold must be greater than the nudge threshold")
	}
	if timers.StatsInterval < 10 {
		result.AddWarning("timers.stats_interval_sec",
			"stats interval less than 10s may cause excessive log volume")
	}
}

func validatePort(port int, field string, result *ValidationResult) {
	if port < 1 || port > 65535 {
		result.AddError(field, fmt.Sprintf("invalid port number: %d (must be 1-65535)", port))
		return
	}
	if port < 1024 {
		result.AddWarning(field,
			fmt.Sprintf("port %d is a privileged port, may require elevated permissions", port))
	}
}

// IsPortAvailable checks if a port is available for binding.
func IsPortAvailable(port int) bool {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	ln.Close()
	return true
}
