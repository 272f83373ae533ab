package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(global *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the configuration and entry editor API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := global.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			module, err := moduleBuilder(cfg)
			if err != nil {
				return err
			}
			defer module.Close()

			server := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           module.Handler(),
				ReadHeaderTimeout: cfg.Server.ReadTimeout,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, server, newPrinter(cmd.OutOrStdout()))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to config server.addr)")
	return cmd
}

func serve(ctx context.Context, server *http.Server, out *printer) error {
	errCh := make(chan error, 1)
	go func() {
		out.infof("Listening on %s", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	out.infof("Server stopped")
	return nil
}
