// Package telemetry publishes lobby activity to an MQTT broker.
package telemetry

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/wolserv-project/wolserv/internal/config"
	"github.com/wolserv-project/wolserv/internal/events"
	"github.com/wolserv-project/wolserv/internal/lobby"
	"github.com/wolserv-project/wolserv/internal/reactor"
	"github.com/wolserv-project/wolserv/internal/util"
)

// MQTT topic prefixes
const (
	TopicLobbyStatus = "lobby/status"
	TopicLobbyRooms  = "lobby/rooms"
	TopicLobbyGames  = "lobby/games"
	TopicLobbyAdmin  = "lobby/admin"
)

// MQTTHandler manages the MQTT connection and publishes telemetry events,
// with TLS/mTLS support.
type MQTTHandler struct {
	cfg      *config.Config
	eventBus *events.EventBus
	reactor  *reactor.Reactor
	lobby    *lobby.FrontEnd
	client   mqtt.Client

	// Metadata included in every message
	metadata map[string]interface{}
}

// NewMQTTHandler creates a new MQTT telemetry handler.
func NewMQTTHandler(cfg *config.Config, eventBus *events.EventBus, r *reactor.Reactor, lf *lobby.FrontEnd) (*MQTTHandler, error) {
	mqttCfg := cfg.ApplicationData.MQTT

	if !mqttCfg.Enabled {
		return nil, fmt.Errorf("MQTT is disabled")
	}

	// Build system metadata
	sysInfo := util.GetSystemInfo()
	metadata := map[string]interface{}{
		"server_name": cfg.GetServerData().Name,
		"hostname":    sysInfo.Hostname,
		"os":          sysInfo.OS,
		"cpu_cores":   sysInfo.CPUCores,
		"memory_mb":   sysInfo.TotalMemory,
	}

	handler := &MQTTHandler{
		cfg:      cfg,
		eventBus: eventBus,
		reactor:  r,
		lobby:    lf,
		metadata: metadata,
	}

	// Configure MQTT client
	opts := mqtt.NewClientOptions()
	scheme := "tcp"
	if mqttCfg.UseTLS {
		scheme = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, mqttCfg.BrokerURL, mqttCfg.Port))

	if mqttCfg.ClientID != "" {
		opts.SetClientID(mqttCfg.ClientID)
	} else {
		opts.SetClientID(fmt.Sprintf("wolserv-%s", sysInfo.Hostname))
	}

	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetCleanSession(false)

	// TLS configuration
	if mqttCfg.UseTLS {
		tlsConfig := &tls.Config{
			MinVersion: tls.VersionTLS12,
		}

		// mTLS: load client certificate
		if mqttCfg.CertFile != "" && mqttCfg.KeyFile != "" {
			cert, err := tls.LoadX509KeyPair(mqttCfg.CertFile, mqttCfg.KeyFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load MQTT TLS certificate: %w", err)
			}
			tlsConfig.Certificates = []tls.Certificate{cert}
		}

		opts.SetTLSConfig(tlsConfig)
	}

	// Connection callbacks
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Info().Msg("MQTT connected")
	})

	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	})

	handler.client = mqtt.NewClient(opts)

	return handler, nil
}

// Start connects to the MQTT broker, subscribes to events, and publishes a
// periodic status snapshot until ctx is cancelled.
func (h *MQTTHandler) Start(ctx context.Context) error {
	log.Info().
		Str("broker", h.cfg.ApplicationData.MQTT.BrokerURL).
		Int("port", h.cfg.ApplicationData.MQTT.Port).
		Msg("connecting to MQTT broker")

	token := h.client.Connect()
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect failed: %w", token.Error())
	}

	h.subscribeEvents()

	ticker := time.NewTicker(h.cfg.ApplicationData.Timers.Stats())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.publishStatus(ctx)
		case <-ctx.Done():
			h.PublishShutdown()
			h.client.Disconnect(5000)
			log.Info().Msg("MQTT disconnected")
			return nil
		}
	}
}

// subscribeEvents registers event handlers for MQTT publishing.
func (h *MQTTHandler) subscribeEvents() {
	h.eventBus.Subscribe(events.EventRoomCreated, "mqtt.roomCreated", h.onRoomEvent("room_created"))
	h.eventBus.Subscribe(events.EventRoomRemoved, "mqtt.roomRemoved", h.onRoomEvent("room_removed"))
	h.eventBus.Subscribe(events.EventGameStarted, "mqtt.gameStarted", h.onGameEvent("game_started"))
	h.eventBus.Subscribe(events.EventGameResult, "mqtt.gameResult", h.onGameEvent("game_result"))
	h.eventBus.Subscribe(events.EventClientRegistered, "mqtt.clientRegistered", h.onClientEvent("client_registered"))
	h.eventBus.Subscribe(events.EventClientDisconnected, "mqtt.clientDisconnected", h.onClientEvent("client_disconnected"))
}

// publishStatus snapshots the lobby on the reactor goroutine and publishes
// the counts.
func (h *MQTTHandler) publishStatus(ctx context.Context) {
	var connections, sessions int
	var rooms []lobby.RoomInfo

	snapCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	err := h.reactor.Do(snapCtx, func() {
		connections = h.reactor.ConnCount()
		sessions = h.lobby.SessionCount()
		rooms = h.lobby.RoomsInfo()
	})
	if err != nil {
		log.Warn().Err(err).Msg("status snapshot failed")
		return
	}

	h.publish(TopicLobbyStatus, map[string]interface{}{
		"connections": connections,
		"sessions":    sessions,
		"rooms":       len(rooms),
	})
	h.publish(TopicLobbyRooms, rooms)
}

// publish sends a JSON message to an MQTT topic.
func (h *MQTTHandler) publish(topic string, payload interface{}) {
	if !h.client.IsConnected() {
		return
	}

	// Merge metadata with payload
	msg := h.buildMessage(payload)

	data, err := json.Marshal(msg)
	if err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("failed to marshal MQTT message")
		return
	}

	token := h.client.Publish(topic, 1, false, data) // QoS 1
	go func() {
		token.Wait()
		if token.Error() != nil {
			log.Warn().Err(token.Error()).Str("topic", topic).Msg("MQTT publish failed")
		}
	}()
}

// buildMessage combines metadata with the event payload.
func (h *MQTTHandler) buildMessage(payload interface{}) map[string]interface{} {
	msg := make(map[string]interface{})

	// Add metadata
	for k, v := range h.metadata {
		msg[k] = v
	}

	// Add payload
	msg["payload"] = payload
	msg["timestamp"] = time.Now().UTC().Format(time.RFC3339)

	return msg
}

// Event handlers

func (h *MQTTHandler) onRoomEvent(kind string) events.HandlerFunc {
	return func(ctx context.Context, event events.Event) error {
		h.publish(TopicLobbyRooms, map[string]interface{}{
			"event":   kind,
			"payload": event.Payload,
		})
		return nil
	}
}

func (h *MQTTHandler) onGameEvent(kind string) events.HandlerFunc {
	return func(ctx context.Context, event events.Event) error {
		h.publish(TopicLobbyGames, map[string]interface{}{
			"event":   kind,
			"payload": event.Payload,
		})
		return nil
	}
}

func (h *MQTTHandler) onClientEvent(kind string) events.HandlerFunc {
	return func(ctx context.Context, event events.Event) error {
		h.publish(TopicLobbyStatus, map[string]interface{}{
			"event":   kind,
			"payload": event.Payload,
		})
		return nil
	}
}

// PublishShutdown sends a shutdown message to the MQTT broker.
func (h *MQTTHandler) PublishShutdown() {
	h.publish(TopicLobbyAdmin, map[string]interface{}{
		"event":     "shutdown",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
