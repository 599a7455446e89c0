// cmd/cart/main.go
//
// This is the entry point for the cart terminal.
//
// Flow:
// 1. Resolve the project directory and make sure .cart/ exists
// 2. Load config, open the diagnostic log and the journal
// 3. Mount one cart provider for this session and attach it to the context
// 4. Optionally replay recorded actions, then run the TUI until the user quits
// 5. Unmount the provider so its state is discarded

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kingrea/cartstate/internal/cartctx"
	"github.com/kingrea/cartstate/internal/config"
	"github.com/kingrea/cartstate/internal/logbook"
	"github.com/kingrea/cartstate/internal/logging"
	"github.com/kingrea/cartstate/internal/store"
	"github.com/kingrea/cartstate/internal/tui"
)

func main() {
	projectDir := flag.String("dir", "", "project directory holding .cart/ (defaults to cwd)")
	replayPath := flag.String("replay", "", "file of JSON action envelopes to apply before the TUI starts")
	flag.Parse()

	project := *projectDir
	if project == "" {
		var err error
		project, err = os.Getwd()
		if err != nil {
			die("determine working directory: %v", err)
		}
	}
	absoluteProject, err := filepath.Abs(project)
	if err != nil {
		die("resolve project dir: %v", err)
	}
	if err := config.InitCartDir(absoluteProject); err != nil {
		die("init .cart: %v", err)
	}
	cfg, err := config.NewConfig(absoluteProject)
	if err != nil {
		die("load config: %v", err)
	}

	logger, err := logging.New(absoluteProject)
	if err != nil {
		die("open log: %v", err)
	}
	defer logger.Close()

	journal, err := logbook.New(cfg.JournalPath())
	if err != nil {
		die("open journal: %v", err)
	}

	session := uuid.NewString()
	sessionJournal := journal.ForSession(session)
	formatter := cfg.Formatter()
	provider := cartctx.Mount(
		store.WithSessionID(session),
		store.WithFormatter(formatter),
		store.WithLogger(logger),
		store.WithJournal(sessionJournal),
		store.WithSubscriberCapacity(cfg.SubscriberCapacity()),
	)
	defer provider.Unmount()
	logger.Zap().Info("cart session mounted",
		zap.String("session", session),
		zap.String("locale", formatter.Locale().String()),
		zap.Int("catalog", len(cfg.Catalog())),
	)

	if *replayPath != "" {
		file, err := os.Open(*replayPath)
		if err != nil {
			die("open replay file: %v", err)
		}
		applied, failures := replay(file, provider.Store().Dispatch)
		file.Close()
		for _, failure := range failures {
			fmt.Fprintf(os.Stderr, "replay: %v\n", failure)
		}
		sessionJournal.Info("replayed %d actions from %s", applied, filepath.Base(*replayPath))
	}

	ctx := cartctx.With(context.Background(), provider)
	p := tea.NewProgram(
		tui.NewApp(ctx, cfg.Catalog(),
			tui.WithJournal(journal),
			tui.WithFormatter(formatter),
		),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		logger.Printf("tui exited with error: %v", err)
		provider.Unmount()
		die("run TUI: %v", err)
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "cart: "+format+"\n", args...)
	os.Exit(1)
}
