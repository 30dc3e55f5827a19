package main

import (
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vinhng/zolaterm/internal/config"
	"github.com/vinhng/zolaterm/internal/logger"
	"github.com/vinhng/zolaterm/internal/session"
	"github.com/vinhng/zolaterm/internal/ui"
)

func main() {
	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)
	logger.SetPrefix("zolaterm")

	// The TUI owns the terminal; logs go to a file.
	if cfg.LogFile != "" {
		f, err := tea.LogToFile(cfg.LogFile, "")
		if err != nil {
			fmt.Fprintln(os.Stderr, "open log file:", err)
			os.Exit(1)
		}
		defer f.Close()
	} else {
		log.SetOutput(os.Stderr)
	}

	store := session.NewStore(cfg.SessionFile)
	sess, err := store.Load()
	if err != nil {
		logger.Errorf("load session: %v", err)
	}

	app := ui.NewApp(cfg, store, sess)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
