// WOLServ - Westwood Online lobby server
//
// WOLServ serves the legacy Westwood Online chat protocol: clients register
// with a shared secret, gather in permanent lobby channels, create game
// rooms, and exchange the game option handshake before a match starts.
// Sibling front-ends accept server-to-server registrations, game result
// reports, and ladder queries. A REST API, an MQTT telemetry feed, and an
// interactive console expose the running server to operators.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"

	"github.com/wolserv-project/wolserv/internal/api"
	"github.com/wolserv-project/wolserv/internal/cli"
	"github.com/wolserv-project/wolserv/internal/config"
	"github.com/wolserv-project/wolserv/internal/db"
	"github.com/wolserv-project/wolserv/internal/events"
	"github.com/wolserv-project/wolserv/internal/gameres"
	"github.com/wolserv-project/wolserv/internal/ladder"
	"github.com/wolserv-project/wolserv/internal/lobby"
	"github.com/wolserv-project/wolserv/internal/peer"
	"github.com/wolserv-project/wolserv/internal/reactor"
	"github.com/wolserv-project/wolserv/internal/room"
	"github.com/wolserv-project/wolserv/internal/scheduler"
	"github.com/wolserv-project/wolserv/internal/telemetry"
	"github.com/wolserv-project/wolserv/internal/util"
)

const (
	AppName    = "WOLServ"
	AppVersion = "1.0.0"
	Banner     = `
 __          ______  _       _____
 \ \        / / __ \| |     / ____|
  \ \  /\  / / |  | | |    | (___   ___ _ ____   __
   \ \/  \/ /| |  | | |     \___ \ / _ \ '__\ \ / /
    \  /\  / | |__| | |____ ____) |  __/ |   \ V /
     \/  \/   \____/|______|_____/ \___|_|    \_/   v%s
 Westwood Online Lobby Server
`
)

func main() {
	color.Cyan(Banner, AppVersion)
	fmt.Println()

	// Initialize logger with defaults first (reconfigured after config load)
	if err := util.InitLogger(util.DefaultLogConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Info().
		Str("version", AppVersion).
		Str("platform", runtime.GOOS).
		Str("arch", runtime.GOARCH).
		Int("cpus", runtime.NumCPU()).
		Msg("starting WOLServ")

	// Load configuration
	cfg, err := config.Load(config.DefaultConfigDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Re-initialize logger with config-based settings
	logCfg := util.LogConfig{
		Level:      cfg.ApplicationData.Logging.Level,
		Directory:  cfg.ApplicationData.Logging.Directory,
		MaxSizeMB:  cfg.ApplicationData.Logging.MaxSizeMB,
		MaxBackups: cfg.ApplicationData.Logging.MaxBackups,
		Console:    true,
	}
	if err := util.InitLogger(logCfg); err != nil {
		log.Warn().Err(err).Msg("failed to reconfigure logger, using defaults")
	}

	// Validate configuration
	validation := config.Validate(cfg)
	for _, w := range validation.Warnings {
		log.Warn().Str("field", w.Field).Msg(w.Message)
	}
	if !validation.IsValid() {
		for _, e := range validation.Errors {
			log.Error().Str("field", e.Field).Msg(e.Message)
		}
		log.Fatal().Msg("configuration validation failed, please fix the errors above")
	}

	// Log system info
	sysInfo := util.GetSystemInfo()
	log.Info().
		Str("hostname", sysInfo.Hostname).
		Str("os", sysInfo.OS).
		Str("cpu", sysInfo.CPUModel).
		Int("cores", sysInfo.CPUCores).
		Uint64("memory_mb", sysInfo.TotalMemory).
		Msg("system information")

	// Create root context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Core components
	eventBus := events.NewEventBus()

	serverData := cfg.GetServerData()
	appData := cfg.GetApplicationData()

	registry := room.NewRegistry()
	registry.SeedLobbies(serverData.LobbyCount, serverData.LobbyGameType, serverData.LobbyCapacity)
	log.Info().
		Int("count", serverData.LobbyCount).
		Int("game_type", serverData.LobbyGameType).
		Msg("permanent lobbies seeded")

	// Game result storage
	if err := util.EnsureDir(filepath.Dir(appData.Database.Path)); err != nil {
		log.Fatal().Err(err).Msg("failed to create database directory")
	}
	results, err := db.NewResultsDatabase(appData.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open results database")
	}
	defer results.Close()

	// Reactor and protocol front-ends
	timers := appData.Timers
	r := reactor.New(timers.Tick(), timers.Nudge(), timers.Timeout())

	lobbyFE := lobby.New(serverData.Name, serverData.Secret, serverData.MOTD, registry, eventBus)

	staticPeers := make([]peer.Entry, 0, len(serverData.Peers))
	for _, p := range serverData.Peers {
		staticPeers = append(staticPeers, peer.Entry{Name: p.Name, Address: p.Address})
	}
	peerFE := peer.New(staticPeers, eventBus)

	gameresFE := gameres.New(registry, results, eventBus)
	ladderFE := ladder.New(results)

	bind := func(port int) string {
		return fmt.Sprintf("%s:%d", serverData.BindAddress, port)
	}
	r.Bind(bind(serverData.ChatPort), lobbyFE)
	r.Bind(bind(serverData.PeerPort), peerFE)
	r.Bind(bind(serverData.GameresPort), gameresFE)
	r.Bind(bind(serverData.LadderPort), ladderFE)

	// Supporting services
	apiServer := api.NewServer(cfg, eventBus, r, lobbyFE, peerFE, results)

	var mqttHandler *telemetry.MQTTHandler
	if appData.MQTT.Enabled {
		mqttHandler, err = telemetry.NewMQTTHandler(cfg, eventBus, r, lobbyFE)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize MQTT, telemetry disabled")
		}
	}

	sched := scheduler.NewScheduler(cfg, results, r, lobbyFE)
	cliHandler := cli.NewCLI(cfg, eventBus, r, lobbyFE, peerFE, results)

	// Launch all concurrent tasks
	var wg sync.WaitGroup
	errCh := make(chan error, 4)

	// Task 1: the reactor, which owns all four protocol listeners
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().
			Int("chat", serverData.ChatPort).
			Int("peer", serverData.PeerPort).
			Int("gameres", serverData.GameresPort).
			Int("ladder", serverData.LadderPort).
			Msg("starting protocol front-ends")
		if err := r.Run(ctx); err != nil {
			errCh <- fmt.Errorf("reactor: %w", err)
		}
	}()

	// Task 2: REST API server
	if appData.API.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info().Int("port", appData.API.Port).Msg("starting REST API server")
			if err := apiServer.Start(ctx); err != nil {
				log.Warn().Err(err).Msg("API server failed (non-fatal)")
			}
		}()
	}

	// Task 3: MQTT telemetry
	if mqttHandler != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info().Msg("starting MQTT telemetry")
			if err := mqttHandler.Start(ctx); err != nil {
				log.Warn().Err(err).Msg("MQTT telemetry failed")
			}
		}()
	}

	// Task 4: Scheduler (result pruning, stats)
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Msg("starting task scheduler")
		sched.Start(ctx)
	}()

	// Task 5: Interactive CLI
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Msg("starting interactive CLI")
		cliHandler.Start(ctx)
	}()

	// Graceful shutdown handling. The CLI quit command goes through the
	// shutdown event.
	shutdownCh := make(chan struct{})
	eventBus.Subscribe(events.EventShutdown, "main.shutdown", func(ctx context.Context, event events.Event) error {
		select {
		case <-shutdownCh:
		default:
			close(shutdownCh)
		}
		return nil
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case <-shutdownCh:
		log.Info().Msg("shutdown requested")
	case err := <-errCh:
		log.Error().Err(err).Msg("critical error, initiating shutdown")
	}

	log.Info().Msg("initiating graceful shutdown...")
	cancel()

	// Wait for all goroutines with timeout. The CLI goroutine blocks on
	// stdin and is abandoned if it never wakes.
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("all tasks stopped gracefully")
	case <-time.After(10 * time.Second):
		log.Warn().Msg("shutdown timed out after 10 seconds, forcing exit")
	}

	// Stop the event bus last
	eventBus.Stop()

	log.Info().Msg("WOLServ stopped")
}
