package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/barcodebuddy/internal/httpapi"
	"github.com/roach88/barcodebuddy/internal/notify"
	"github.com/roach88/barcodebuddy/internal/scan"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Listen          string
	ShutdownTimeout time.Duration
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scan API for scanner devices and displays",
		Long: `Serve the HTTP scan API.

Routes:
  GET|POST /api/action/scan?text=<barcode>
  GET      /api/state
  POST     /api/state/{state}
  GET      /api/barcodes
  GET      /ws                  (when WS_USE is enabled)

The server stops gracefully on SIGINT or SIGTERM.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address (overrides config)")
	cmd.Flags().DurationVar(&opts.ShutdownTimeout, "shutdown-timeout", 15*time.Second, "graceful shutdown timeout")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	hub := notify.NewHub(newLogger(opts.Verbose, cmd.ErrOrStderr()))
	defer hub.Close()

	a, err := openApp(cmd, opts.RootOptions, hub)
	if err != nil {
		return err
	}
	defer a.Close()

	settings, err := a.settings.Load(cmd.Context())
	if err != nil {
		return a.failStore("failed to load settings", err)
	}

	var publisher scan.Publisher = notify.Nop{}
	var websocket http.Handler
	if settings.WebsocketEnabled {
		publisher = hub
		websocket = hub
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Scanner:   a.processor(publisher),
		State:     a.machine,
		Barcodes:  a.store,
		Websocket: websocket,
		Logger:    a.logger,
	})

	addr := opts.Listen
	if addr == "" {
		addr = a.bootstrap.Listen
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		_ = a.out.Error(ErrCodeInvalidInput, "failed to listen", err.Error())
		return WrapExitError(ExitCommandError, fmt.Sprintf("failed to listen on %s", addr), err)
	}

	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", "addr", listener.Addr().String(), "websocket", settings.WebsocketEnabled)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("shutdown incomplete", "error", err)
	}
	a.logger.Info("shutdown complete")

	if serveErr != nil {
		return WrapExitError(ExitFailure, "server error", serveErr)
	}
	return nil
}
