package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/lox/bingoparty/internal/client"
	"github.com/lox/bingoparty/internal/tui"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Server  string           `kong:"default='http://localhost:8080',help='Server URL'"`
	Name    string           `kong:"help='Display name, prompted for if omitted'"`
	Game    string           `kong:"help='Game id to join, a new game is created if omitted'"`
	Theme   string           `kong:"default='ds9',help='Theme for a newly created game'"`
	LogFile string           `kong:"help='Write debug logs to this file'"`
}

func (c *CLI) Run() error {
	// The TUI owns the terminal, so logs go to a file or nowhere
	var out io.Writer = io.Discard
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	logger := log.NewWithOptions(out, log.Options{
		Level:           log.DebugLevel,
		ReportTimestamp: true,
	})

	wsClient := client.NewClient(c.Server, c.Name, logger)
	if err := wsClient.Connect(); err != nil {
		return err
	}
	defer wsClient.Close()

	model := tui.NewModel(wsClient, c.Game, c.Theme, c.Name)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("bingo-client"),
		kong.Description("Terminal client for bingo watch parties"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
