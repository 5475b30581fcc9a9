// Package serve runs the debug HTTP surface
package serve

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fjacquet/merchant-resolver/cmd/root"
	"fjacquet/merchant-resolver/internal/inspect"
	"fjacquet/merchant-resolver/internal/logging"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var addr string

// Cmd represents the serve-debug command
var Cmd = &cobra.Command{
	Use:   "serve-debug",
	Short: "Serve the read-only parse introspection endpoint",
	Long:  `Serve-debug exposes POST /debug/parse and GET /health over HTTP until interrupted.`,
	RunE:  serveFunc,
}

func init() {
	Cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: debug.addr)")
}

func serveFunc(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := root.OpenContainer(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	listen := addr
	if listen == "" {
		listen = c.GetConfig().Debug.Addr
	}
	logger := c.GetLogger()
	server := &http.Server{
		Addr:              listen,
		Handler:           inspect.NewHandler(c.GetInspector(), logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return run(ctx, server, logger)
}

func run(ctx context.Context, server *http.Server, logger logging.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Debug server listening", logging.F("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down debug server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
