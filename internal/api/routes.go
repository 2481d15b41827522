package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wolserv-project/wolserv/internal/db"
	"github.com/wolserv-project/wolserv/internal/lobby"
	"github.com/wolserv-project/wolserv/internal/peer"
	"github.com/wolserv-project/wolserv/internal/util"
)

// handlePing returns a simple liveness response.
func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "server": s.cfg.GetServerData().Name})
}

// handleServerInfo returns host system information.
func (s *Server) handleServerInfo(c *gin.Context) {
	info := gin.H{
		"system": util.GetSystemInfo(),
	}
	if cpuUsage, err := util.GetCPUUsage(); err == nil {
		info["cpu_percent"] = cpuUsage
	}
	if memUsage, err := util.GetMemoryUsage(); err == nil {
		info["memory"] = memUsage
	}
	if diskUsage, err := util.GetDiskUsage("."); err == nil {
		info["disk"] = diskUsage
	}
	c.JSON(http.StatusOK, info)
}

// handleStatus returns uptime and connection counts. The counts are read on
// the reactor goroutine through task injection.
func (s *Server) handleStatus(c *gin.Context) {
	var connections, sessions, rooms int
	err := s.reactor.Do(c.Request.Context(), func() {
		connections = s.reactor.ConnCount()
		sessions = s.lobby.SessionCount()
		rooms = len(s.lobby.RoomsInfo())
	})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "server busy"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"server_name": s.cfg.GetServerData().Name,
		"uptime_sec":  int(time.Since(s.startedAt).Seconds()),
		"connections": connections,
		"sessions":    sessions,
		"rooms":       rooms,
	})
}

// handleRooms returns a snapshot of every live room.
func (s *Server) handleRooms(c *gin.Context) {
	var rooms []lobby.RoomInfo
	err := s.reactor.Do(c.Request.Context(), func() {
		rooms = s.lobby.RoomsInfo()
	})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "server busy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms, "count": len(rooms)})
}

// handleClients returns a snapshot of every connected lobby session.
func (s *Server) handleClients(c *gin.Context) {
	var clients []lobby.ClientInfo
	err := s.reactor.Do(c.Request.Context(), func() {
		clients = s.lobby.ClientsInfo()
	})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "server busy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"clients": clients, "count": len(clients)})
}

// handlePeers returns the known sibling servers.
func (s *Server) handlePeers(c *gin.Context) {
	var peers []peer.Entry
	err := s.reactor.Do(c.Request.Context(), func() {
		peers = s.peers.Directory()
	})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "server busy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"peers": peers, "count": len(peers)})
}

// handleLadder returns the top standings for one game type.
func (s *Server) handleLadder(c *gin.Context) {
	gameType, err := strconv.Atoi(c.Param("game_type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid game type"})
		return
	}

	limit := 25
	if raw := c.Query("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid count"})
			return
		}
		limit = n
	}

	standings, err := s.results.TopStandings(gameType, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query ladder"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"game_type": gameType, "standings": standings})
}

// handleResults returns the most recent game results.
func (s *Server) handleResults(c *gin.Context) {
	limit := 50
	if raw := c.Query("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid count"})
			return
		}
		limit = n
	}

	results, err := s.results.RecentResults(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query results"})
		return
	}
	if results == nil {
		results = []db.GameResult{}
	}

	total, err := s.results.ResultCount()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query results"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "total": total})
}

// handleGetConfig returns the current configuration. The shared secret is
// redacted.
func (s *Server) handleGetConfig(c *gin.Context) {
	serverData := s.cfg.GetServerData()
	serverData.Secret = "********"
	c.JSON(http.StatusOK, gin.H{
		"server_data":      serverData,
		"application_data": s.cfg.GetApplicationData(),
	})
}

type configUpdateRequest struct {
	Key   string      `json:"key" binding:"required"`
	Value interface{} `json:"value" binding:"required"`
}

// handleUpdateServerConfig updates one server configuration field by its
// JSON key and persists the file. Port changes take effect on restart.
func (s *Server) handleUpdateServerConfig(c *gin.Context) {
	var req configUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := s.cfg.UpdateServerField(req.Key, req.Value); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.cfg.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist config"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated", "key": req.Key})
}

// handleUpdateAppConfig updates one application configuration field by its
// JSON key and persists the file.
func (s *Server) handleUpdateAppConfig(c *gin.Context) {
	var req configUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := s.cfg.UpdateAppField(req.Key, req.Value); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.cfg.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist config"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated", "key": req.Key})
}
