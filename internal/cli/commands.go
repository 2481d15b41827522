// Package cli implements the interactive operator console for WOLServ:
// live views of rooms, clients, peers and the ladder, plus configuration
// updates and shutdown.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"

	"github.com/wolserv-project/wolserv/internal/config"
	"github.com/wolserv-project/wolserv/internal/db"
	"github.com/wolserv-project/wolserv/internal/events"
	"github.com/wolserv-project/wolserv/internal/lobby"
	"github.com/wolserv-project/wolserv/internal/peer"
	"github.com/wolserv-project/wolserv/internal/reactor"
)

// CLI provides the interactive operator console.
type CLI struct {
	cfg      *config.Config
	eventBus *events.EventBus
	reactor  *reactor.Reactor
	lobby    *lobby.FrontEnd
	peers    *peer.FrontEnd
	results  *db.ResultsDatabase

	startedAt time.Time
}

// NewCLI creates a new CLI handler.
func NewCLI(cfg *config.Config, eventBus *events.EventBus, r *reactor.Reactor, lf *lobby.FrontEnd, pf *peer.FrontEnd, results *db.ResultsDatabase) *CLI {
	return &CLI{
		cfg:       cfg,
		eventBus:  eventBus,
		reactor:   r,
		lobby:     lf,
		peers:     pf,
		results:   results,
		startedAt: time.Now(),
	}
}

// Start begins the interactive CLI loop, blocking until stdin closes or ctx
// is cancelled.
func (c *CLI) Start(ctx context.Context) {
	fmt.Println("\nWOLServ CLI ready. Type 'help' for available commands.")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	fmt.Print("wolserv> ")
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}

			line = strings.TrimSpace(line)
			if line == "" {
				fmt.Print("wolserv> ")
				continue
			}

			parts := strings.Fields(line)
			cmd := strings.ToLower(parts[0])
			args := parts[1:]

			if err := c.execute(ctx, cmd, args); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
			fmt.Print("wolserv> ")
		}
	}
}

// execute processes a single CLI command.
func (c *CLI) execute(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help", "h", "?":
		c.printHelp()
	case "status", "s":
		return c.printStatus(ctx)
	case "rooms", "r":
		return c.printRooms(ctx)
	case "clients", "c":
		return c.printClients(ctx)
	case "peers", "p":
		return c.printPeers(ctx)
	case "ladder", "l":
		return c.printLadder(args)
	case "results":
		return c.printResults(args)
	case "setconfig":
		return c.cmdSetConfig(args)
	case "quit", "exit", "q":
		fmt.Println("Shutting down WOLServ...")
		c.eventBus.Emit(ctx, events.Event{
			Type:   events.EventShutdown,
			Source: "cli",
		})
	default:
		fmt.Printf("Unknown command: '%s'. Type 'help' for available commands.\n", cmd)
	}
	return nil
}

// printHelp displays available commands.
func (c *CLI) printHelp() {
	fmt.Println("\nCommands:")
	fmt.Println("  status              Show server status")
	fmt.Println("  rooms               List live rooms")
	fmt.Println("  clients             List connected clients")
	fmt.Println("  peers               List known sibling servers")
	fmt.Println("  ladder <type> [n]   Show top ladder standings for a game type")
	fmt.Println("  results [n]         Show recent game results")
	fmt.Println("  setconfig <k> <v>   Update a server configuration value")
	fmt.Println("  quit                Shutdown WOLServ")
	fmt.Println("  help                Show this help message")
	fmt.Println()
}

// snapshot runs fn on the reactor goroutine and waits for it.
func (c *CLI) snapshot(ctx context.Context, fn func()) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.reactor.Do(ctx, fn)
}

func (c *CLI) printStatus(ctx context.Context) error {
	var connections, sessions, rooms int
	if err := c.snapshot(ctx, func() {
		connections = c.reactor.ConnCount()
		sessions = c.lobby.SessionCount()
		rooms = len(c.lobby.RoomsInfo())
	}); err != nil {
		return err
	}

	sd := c.cfg.GetServerData()
	fmt.Printf("\n  Server:       %s\n", sd.Name)
	fmt.Printf("  Uptime:       %s\n", time.Since(c.startedAt).Round(time.Second))
	fmt.Printf("  Connections:  %d\n", connections)
	fmt.Printf("  Sessions:     %d\n", sessions)
	fmt.Printf("  Rooms:        %d\n", rooms)
	fmt.Printf("  Chat port:    %d\n", sd.ChatPort)
	fmt.Println()
	return nil
}

func (c *CLI) printRooms(ctx context.Context) error {
	var rooms []lobby.RoomInfo
	if err := c.snapshot(ctx, func() {
		rooms = c.lobby.RoomsInfo()
	}); err != nil {
		return err
	}

	fmt.Println()
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"Name", "Type", "Members", "Owner", "Topic", "Flags"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	for _, r := range rooms {
		var flags []string
		if r.Permanent {
			flags = append(flags, "permanent")
		}
		if r.Tournament {
			flags = append(flags, "tournament")
		}
		if r.Keyed {
			flags = append(flags, "keyed")
		}
		owner := r.Owner
		if owner == "" {
			owner = "-"
		}

		tw.Append([]string{
			r.Name,
			strconv.Itoa(r.GameType),
			fmt.Sprintf("%d/%d", r.Members, r.MaxMembers),
			owner,
			r.Topic,
			strings.Join(flags, ","),
		})
	}

	tw.Render()
	fmt.Println()
	return nil
}

func (c *CLI) printClients(ctx context.Context) error {
	var clients []lobby.ClientInfo
	if err := c.snapshot(ctx, func() {
		clients = c.lobby.ClientsInfo()
	}); err != nil {
		return err
	}

	fmt.Println()
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"Nick", "Address", "Registered", "Codepage"})
	tw.SetBorder(true)

	for _, cl := range clients {
		nick := cl.Nick
		if nick == "" {
			nick = "-"
		}
		tw.Append([]string{
			nick,
			cl.Addr,
			strconv.FormatBool(cl.Registered),
			cl.Codepage,
		})
	}

	tw.Render()
	fmt.Println()
	return nil
}

func (c *CLI) printPeers(ctx context.Context) error {
	var peers []peer.Entry
	if err := c.snapshot(ctx, func() {
		peers = c.peers.Directory()
	}); err != nil {
		return err
	}

	fmt.Println()
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"Name", "Address", "Static"})
	tw.SetBorder(true)

	for _, p := range peers {
		tw.Append([]string{p.Name, p.Address, strconv.FormatBool(p.Static)})
	}

	tw.Render()
	fmt.Println()
	return nil
}

func (c *CLI) printLadder(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: ladder <game_type> [count]")
	}
	gameType, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid game type: %s", args[0])
	}

	limit := 25
	if len(args) > 1 {
		limit, err = strconv.Atoi(args[1])
		if err != nil || limit < 1 {
			return fmt.Errorf("invalid count: %s", args[1])
		}
	}

	standings, err := c.results.TopStandings(gameType, limit)
	if err != nil {
		return err
	}
	if len(standings) == 0 {
		fmt.Printf("No ladder entries for game type %d\n", gameType)
		return nil
	}

	fmt.Println()
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"Rank", "Nick", "Points", "Wins", "Losses"})
	tw.SetBorder(true)

	for i, s := range standings {
		tw.Append([]string{
			strconv.Itoa(i + 1),
			s.Nick,
			strconv.Itoa(s.Points),
			strconv.Itoa(s.Wins),
			strconv.Itoa(s.Losses),
		})
	}

	tw.Render()
	fmt.Println()
	return nil
}

func (c *CLI) printResults(args []string) error {
	limit := 20
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid count: %s", args[0])
		}
		limit = n
	}

	results, err := c.results.RecentResults(limit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No game results recorded")
		return nil
	}

	fmt.Println()
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"Match", "Room", "Type", "Players", "Reported"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	for _, r := range results {
		players := make([]string, 0, len(r.Scores))
		for nick, score := range r.Scores {
			players = append(players, fmt.Sprintf("%s=%d", nick, score))
		}
		tw.Append([]string{
			r.MatchID,
			r.Room,
			strconv.Itoa(r.GameType),
			strings.Join(players, " "),
			r.ReportedAt.Format(time.RFC3339),
		})
	}

	tw.Render()
	fmt.Println()
	return nil
}

func (c *CLI) cmdSetConfig(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: setconfig <key> <value>")
	}

	key := args[0]
	value := strings.Join(args[1:], " ")

	if err := c.cfg.UpdateServerField(key, value); err != nil {
		return err
	}
	if err := c.cfg.Save(); err != nil {
		return err
	}

	log.Info().Str("key", key).Msg("configuration updated from CLI")
	fmt.Printf("Config updated: %s = %s\n", key, value)
	return nil
}
