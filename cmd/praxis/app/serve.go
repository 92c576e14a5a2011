package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phillarmonic/praxis/internal/server"
)

// Domain: HTTP Trigger Host
// This file contains the serve command

func (a *App) createServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Trigger scripts over HTTP",
		Long: `Serve the simulated server over HTTP:

  POST /servers/{id}/run?user=&channel=&permission=   run the request body as a script
  GET  /servers/{id}/vars                             list global variables
  GET  /commands                                      list registered commands`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: serve.addr from config)")
	cmd.Flags().StringVarP(&a.permission, "permission", "p", "", "Highest permission a request may run at (default: from config)")
	return cmd
}

func (a *App) serve(cmd *cobra.Command, addr string) error {
	rt, err := a.newRuntime(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer rt.Close()

	if addr == "" {
		addr = rt.cfg.Serve.Addr
	}

	if rt.cfg.Maintenance.Enabled {
		stop, err := startMaintenance(rt)
		if err != nil {
			return err
		}
		defer stop()
	}

	srv := server.New(rt.engine, rt.console, server.Options{Permission: rt.permission})

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe(addr)
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s\n", rt.console.Guild().Name, addr)

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Infof("shutting down %s", addr)
	if err := srv.Shutdown(); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return <-errs
}
