// Command spacex-mcp-server serves the SpaceX tool catalog over stdin/stdout.
// Logs go to stderr.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/shaharia-lab/spacex-mcp/config"
	"github.com/shaharia-lab/spacex-mcp/mcp"
	"github.com/shaharia-lab/spacex-mcp/observability"
	"github.com/shaharia-lab/spacex-mcp/spacex"
	"github.com/shaharia-lab/spacex-mcp/tools"
)

func main() {
	configPath := flag.String("config", os.Getenv(config.EnvPrefix+"CONFIG"), "path to a YAML config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "spacex-mcp-server: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// run wires the server and blocks until input ends or ctx is cancelled. A
// cancelled ctx is a clean shutdown.
func run(ctx context.Context, configPath string, in io.Reader, out, logOut io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.Log.Backend, cfg.Log.Level, logOut)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer observability.Sync(logger)

	gateway := spacex.NewClient(cfg.SpaceX.BaseURL,
		spacex.WithTimeout(cfg.SpaceX.Timeout),
		spacex.WithRateLimit(cfg.SpaceX.RateLimit, cfg.SpaceX.Burst),
		spacex.WithUserAgent(cfg.SpaceX.UserAgent),
		spacex.WithLogger(logger.WithFields(map[string]interface{}{"component": "spacex"})),
	)

	base, err := mcp.NewBaseServer(
		mcp.UseLogger(logger),
		mcp.UseServerInfo(cfg.Server.Name, cfg.Server.Version),
		mcp.UseCallTimeout(cfg.Server.CallTimeout),
		mcp.UseMaxRequestSize(cfg.Server.MaxRequestSize),
	)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	if err := tools.Register(base, gateway); err != nil {
		return err
	}

	logger.WithFields(map[string]interface{}{
		"base_url":     cfg.SpaceX.BaseURL,
		"call_timeout": cfg.Server.CallTimeout.String(),
		"log_backend":  cfg.Log.Backend,
	}).Info("Starting SpaceX tool server")

	server := mcp.NewStdIOServer(base, in, out)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		defer cancel()
		return server.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			logger.Info("Shutdown signal received")
		}
		return nil
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		err = nil
	}
	if err != nil {
		logger.WithErr(err).Error("Server stopped with error")
		return err
	}
	logger.Info("Server stopped")
	return nil
}
