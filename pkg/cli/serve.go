package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/sqlite-mcp/pkg/config"
	"github.com/ekaya-inc/sqlite-mcp/pkg/handlers"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	transport string
	bindAddr  string
	port      string
}

func newServeCommand(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Long: `Run the MCP server over stdio (default) or streamable HTTP.

In HTTP mode the server also exposes /health, /ping and /metrics.`,
		Example: `  # Serve over stdio for a desktop MCP client
  sqlite-mcp serve --db ./shop.db

  # Serve over HTTP
  sqlite-mcp serve --transport http --port 3443`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := root.cfg
			flags := cmd.Flags()
			if flags.Changed("transport") {
				cfg.Transport = opts.transport
			}
			if flags.Changed("bind") {
				cfg.BindAddr = opts.bindAddr
			}
			if flags.Changed("port") {
				cfg.Port = opts.port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			app := root.app(cmd.Context())
			switch cfg.Transport {
			case config.TransportHTTP:
				return serveHTTP(cmd.Context(), app)
			default:
				return serveStdio(cmd.Context(), app, cmd.InOrStdin(), cmd.OutOrStdout())
			}
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", "", "Transport: stdio or http (overrides MCP_TRANSPORT)")
	cmd.Flags().StringVar(&opts.bindAddr, "bind", "", "HTTP bind address (overrides BIND_ADDR)")
	cmd.Flags().StringVar(&opts.port, "port", "", "HTTP port (overrides PORT)")

	_ = cmd.RegisterFlagCompletionFunc("transport", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.TransportStdio, config.TransportHTTP}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// serveStdio runs until the input closes or ctx is cancelled. Cancellation is
// a normal shutdown.
func serveStdio(ctx context.Context, app *App, in io.Reader, out io.Writer) error {
	app.Logger.Info("Starting sqlite-mcp",
		zap.String("version", app.Config.Version),
		zap.String("transport", config.TransportStdio),
	)

	err := app.NewMCPServer().ServeStdio(ctx, in, out)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		app.Logger.Info("Server stopped")
		return nil
	}
	return fmt.Errorf("stdio server failed: %w", err)
}

// newHTTPHandler assembles the HTTP routes served in HTTP mode.
func newHTTPHandler(app *App) http.Handler {
	mux := http.NewServeMux()
	handlers.NewHealthHandler(app.Config, app.Connections, app.Registry, app.Logger).RegisterRoutes(mux)
	handlers.NewMCPHandler(app.NewMCPServer(), app.Logger).RegisterRoutes(mux)
	return mux
}

// serveHTTP listens until ctx is cancelled and then shuts down gracefully.
func serveHTTP(ctx context.Context, app *App) error {
	cfg := app.Config
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newHTTPHandler(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.Logger.Info("Starting sqlite-mcp",
			zap.String("version", cfg.Version),
			zap.String("transport", config.TransportHTTP),
			zap.String("addr", srv.Addr),
			zap.Bool("tls", cfg.TLSEnabled()),
		)

		var err error
		if cfg.TLSEnabled() {
			err = srv.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	app.Logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	if err, ok := <-errCh; ok {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}
