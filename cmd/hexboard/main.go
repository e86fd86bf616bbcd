// Command hexboard generates a hex settlement board, stores it and serves it
// over HTTP until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/talgya/hexboard/internal/api"
	"github.com/talgya/hexboard/internal/config"
	"github.com/talgya/hexboard/internal/entropy"
	"github.com/talgya/hexboard/internal/persistence"
	"github.com/talgya/hexboard/internal/world"
)

func main() {
	list := flag.Bool("list", false, "list stored boards and exit")
	load := flag.String("load", "", "resume the stored board with this ID")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.SlogLevel()))

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		os.MkdirAll(dir, 0755)
	}
	db, err := persistence.Open(cfg.Database.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Debug("database opened", "path", cfg.Database.Path)

	if *list {
		if err := printBoards(db); err != nil {
			slog.Error("list boards failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// ── Board ─────────────────────────────────────────────────────────
	boardID, board, err := openBoard(cfg, db, *load)
	if err != nil {
		slog.Error("board setup failed", "error", err)
		os.Exit(1)
	}

	counts := world.ResourceCounts(board.Map)
	for _, r := range []world.Resource{
		world.ResourceBrick, world.ResourceGrain, world.ResourceLumber,
		world.ResourceOre, world.ResourceWool, world.ResourceDesert,
	} {
		slog.Debug("resource", "type", r, "tiles", counts[r])
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.Server.AdminKey == "" {
		slog.Warn("API_ADMIN_KEY not set, build endpoints will be disabled")
	}
	apiServer := &api.Server{
		Board:         board,
		BoardID:       boardID,
		DB:            db,
		Port:          cfg.Server.Port,
		AdminKey:      cfg.Server.AdminKey,
		RatePerMinute: cfg.Server.RatePerMinute,
	}
	httpServer := apiServer.Start()

	fmt.Printf("\nBoard %s: %d land tiles, %d building spots, %d ports (seed %d).\n",
		boardID, board.LandCount(), len(board.Vertices), len(board.Ports()), board.Seed)
	fmt.Printf("API: http://localhost:%d/api/v1/board\n", cfg.Server.Port)
	fmt.Println("Serving... (Ctrl+C to stop)")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}

	// Final save on shutdown.
	apiServer.Lock()
	err = db.SaveBoard(boardID, board)
	apiServer.Unlock()
	if err != nil {
		slog.Error("final save failed", "error", err)
		os.Exit(1)
	}
	fmt.Println("Board saved.")
}

// newLogger writes readable text to a terminal and JSON otherwise.
func newLogger(level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// openBoard resumes a stored board when id is set, otherwise generates and
// stores a new one.
func openBoard(cfg *config.Config, db *persistence.DB, id string) (string, *world.Board, error) {
	if id != "" {
		b, err := db.LoadBoard(id)
		if err != nil {
			return "", nil, err
		}
		return id, b, nil
	}

	seed := cfg.Board.Seed
	if seed == 0 {
		seed = entropy.NewClient(cfg.Entropy.RandomOrgKey).Seed(context.Background())
	}
	slog.Info("generating board", "radius", cfg.Board.Radius, "seed", seed)

	b, err := world.GenerateBoard(cfg.GenConfig(seed), entropy.NewRand(seed))
	if err != nil {
		return "", nil, fmt.Errorf("generate board: %w", err)
	}

	id = persistence.NewBoardID()
	if err := db.SaveBoard(id, b); err != nil {
		return "", nil, fmt.Errorf("save board: %w", err)
	}
	return id, b, nil
}

func printBoards(db *persistence.DB) error {
	boards, err := db.ListBoards()
	if err != nil {
		return err
	}
	if len(boards) == 0 {
		fmt.Println("No stored boards.")
		return nil
	}
	for _, b := range boards {
		fmt.Printf("%s  radius %d  %s land tiles  %s builds  created %s, saved %s\n",
			b.ID, b.Radius,
			humanize.Comma(int64(b.LandTiles)),
			humanize.Comma(int64(b.Builds)),
			humanize.Time(b.CreatedAt()),
			humanize.Time(b.UpdatedAt()),
		)
	}
	return nil
}
