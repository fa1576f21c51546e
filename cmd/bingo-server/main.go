package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/bingoparty/internal/auth"
	"github.com/lox/bingoparty/internal/game"
	"github.com/lox/bingoparty/internal/server"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Config   string           `kong:"default='bingo-server.hcl',help='Path to HCL config file'"`
	Addr     string           `kong:"help='Listen address, overrides the config file'"`
	LogLevel string           `kong:"help='Log level (debug, info, warn, error), overrides the config file'"`
	Seed     *int64           `kong:"help='Deterministic RNG seed for card generation (optional)'"`
}

func (c *CLI) Run() error {
	cfg, err := server.LoadServerConfig(c.Config)
	if err != nil {
		return err
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := setupLogger(cfg.Server.LogLevel)

	addr := cfg.GetServerAddress()
	if c.Addr != "" {
		addr = c.Addr
	}

	catalog, err := cfg.BuildCatalog()
	if err != nil {
		return err
	}

	var registryOpts []game.RegistryOption
	if c.Seed != nil {
		logger.Info("Using deterministic seed", "seed", *c.Seed)
		registryOpts = append(registryOpts, game.WithSeed(*c.Seed))
	}
	registry := game.NewRegistry(logger, registryOpts...)

	var serverOpts []server.Option
	if len(cfg.Server.AllowedOrigins) > 0 {
		serverOpts = append(serverOpts, server.WithAllowedOrigins(cfg.Server.AllowedOrigins))
	}
	if a := cfg.Server.Auth; a != nil {
		logger.Info("Auth exchange enabled", "provider", a.TokenURL)
		serverOpts = append(serverOpts,
			server.WithExchanger(auth.NewHTTPExchanger(a.TokenURL, a.UserInfoURL, a.ClientID, a.ClientSecret, a.RedirectURI)))
	}

	s := server.NewServer(addr, logger, registry, catalog, serverOpts...)

	logger.Info("Starting bingo server", "addr", addr, "themes", catalog.Len())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(s.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- s.Stop() }()
		select {
		case err := <-done:
			return err
		case <-shutdownCtx.Done():
			return shutdownCtx.Err()
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func setupLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	switch level {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("bingo-server"),
		kong.Description("Multiplayer bingo server for watch parties"),
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
