package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/civicmatch/internal/app"
	"github.com/rpggio/civicmatch/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var stdio bool

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API or the MCP stdio server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(cfg *config.Config) {
				if stdio {
					cfg.Transport.Mode = "stdio"
				}
			}, serveCmd)
		},
	}
	serve.Flags().BoolVar(&stdio, "stdio", false, "serve MCP over stdin/stdout")

	root := &cobra.Command{
		Use:           "civicmatch",
		Short:         "Project search and dashboards for volunteer developers and nonprofits",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve,
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd.Context(), nil, func(ctx context.Context, a *app.App, logger *slog.Logger) error {
					logger.Info("migrations applied", "driver", a.Config.DB.Driver)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "prune-history",
			Short: "Delete search history older than the retention window",
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd.Context(), nil, func(ctx context.Context, a *app.App, logger *slog.Logger) error {
					n, err := a.Scheduler.RunOnce(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatInt(n, 10))
					return nil
				})
			},
		},
	)
	return root
}

type command func(ctx context.Context, a *app.App, logger *slog.Logger) error

// run loads configuration, opens stores and builds the app before handing off to fn.
func run(parent context.Context, override func(*config.Config), fn command) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return err
	}
	if override != nil {
		override(&cfg)
	}

	logger, closeLog := newLogger(cfg)
	defer closeLog()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open stores", "error", err)
		return err
	}
	defer func() {
		if err := stores.Close(); err != nil {
			logger.Warn("close stores", "error", err)
		}
	}()

	a, err := app.New(cfg, stores, logger)
	if err != nil {
		logger.Error("failed to build app", "error", err)
		return err
	}
	defer a.Shutdown()

	if err := fn(ctx, a, logger); err != nil {
		logger.Error("command failed", "error", err)
		return err
	}
	return nil
}

func serveCmd(ctx context.Context, a *app.App, logger *slog.Logger) error {
	if err := a.StartBackground(ctx); err != nil {
		return err
	}
	if a.Config.Transport.Mode == "stdio" {
		return runStdioMode(ctx, logger, a.MCPServer("stdio"))
	}
	return runHTTPMode(ctx, logger, a)
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport")

	// Run blocks until stdin closes or ctx is canceled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	return nil
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, a *app.App) error {
	addr := fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: a.Handler(ctx),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "auth", a.Tokens != nil)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newLogger writes to stdout, or stderr in stdio mode to keep stdout clean for MCP.
// A configured log path takes precedence over both.
func newLogger(cfg config.Config) (*slog.Logger, func()) {
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	closeFn := func() {}
	if cfg.Log.Path != "" {
		fileWriter, file, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			logWriter = fileWriter
			closeFn = func() { _ = file.Close() }
		}
	}

	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Log.Level)}
	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(logWriter, opts)
	} else {
		handler = slog.NewTextHandler(logWriter, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, closeFn
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
