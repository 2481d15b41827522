// Package api implements the REST API server for WOLServ: read-only
// monitoring of the lobby (rooms, clients, peers, ladder), configuration
// access, a websocket event stream, and the embedded status dashboard.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/wolserv-project/wolserv/dashboard"
	"github.com/wolserv-project/wolserv/internal/config"
	"github.com/wolserv-project/wolserv/internal/db"
	"github.com/wolserv-project/wolserv/internal/events"
	"github.com/wolserv-project/wolserv/internal/lobby"
	"github.com/wolserv-project/wolserv/internal/network"
	"github.com/wolserv-project/wolserv/internal/peer"
	"github.com/wolserv-project/wolserv/internal/reactor"
)

// Server is the REST API server for WOLServ.
type Server struct {
	cfg      *config.Config
	eventBus *events.EventBus

	reactor *reactor.Reactor
	lobby   *lobby.FrontEnd
	peers   *peer.FrontEnd
	results *db.ResultsDatabase

	startedAt  time.Time
	httpServer *http.Server
	router     *gin.Engine
}

// NewServer creates a new API server.
func NewServer(cfg *config.Config, eventBus *events.EventBus, r *reactor.Reactor, lf *lobby.FrontEnd, pf *peer.FrontEnd, results *db.ResultsDatabase) *Server {
	if cfg.ApplicationData.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Server{
		cfg:       cfg,
		eventBus:  eventBus,
		reactor:   r,
		lobby:     lf,
		peers:     pf,
		results:   results,
		startedAt: time.Now(),
	}
}

// Start initializes and starts the API server, blocking until ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.router = s.buildRouter()

	addr := fmt.Sprintf(":%d", s.cfg.ApplicationData.API.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// SO_REUSEADDR for immediate rebinding after restart
	lc := network.ReuseAddrListenConfig()
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("API server error: %w", err)
	}

	log.Info().Str("addr", addr).Msg("REST API server starting")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("API server error: %w", err)
	}
	return nil
}

// buildRouter creates the Gin router with all routes and middleware.
func (s *Server) buildRouter() *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(RequestLogger())
	router.Use(SecurityHeaders())

	allowedOrigins := s.cfg.ApplicationData.API.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	public := router.Group("/api/public")
	{
		public.GET("/ping", s.handlePing)
		public.GET("/server_info", s.handleServerInfo)
	}

	api := router.Group("/api")
	{
		api.GET("/status", s.handleStatus)
		api.GET("/rooms", s.handleRooms)
		api.GET("/clients", s.handleClients)
		api.GET("/peers", s.handlePeers)
		api.GET("/ladder/:game_type", s.handleLadder)
		api.GET("/results", s.handleResults)
		api.GET("/config", s.handleGetConfig)
		api.POST("/config/server", s.handleUpdateServerConfig)
		api.POST("/config/app", s.handleUpdateAppConfig)
		api.GET("/events/ws", s.handleEventStream)
	}

	// Embedded status dashboard on /
	registerDashboard(router, dashboard.StaticFS)

	return router
}

// Stop gracefully stops the API server.
func (s *Server) Stop() error {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
