package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	turbo "github.com/edisonylee/turbocommerce-sub001"
	"github.com/edisonylee/turbocommerce-sub001/internal/presentation/tui"
	httpAdapter "github.com/edisonylee/turbocommerce-sub001/pkg/adapters/http"
	"github.com/edisonylee/turbocommerce-sub001/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the streaming HTTP server",
	Long:  `Serves every catalogued workload under /pages/{workload}, streaming each response as its sections resolve.`,
	Run: func(cmd *cobra.Command, args []string) {
		app := loadApp(cmd)
		defer app.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			app.Config.Server.Addr = addr
		}

		var extra []turbo.Option
		handlerOpts := []httpAdapter.Option{
			httpAdapter.WithLogger(app.Logger),
			httpAdapter.WithRequestTimeout(app.Config.Server.RequestTimeout),
		}
		if app.Config.Metrics.Enabled {
			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			extra = append(extra, turbo.WithLifecycleHooks(observability.NewMetrics(reg).Hooks()))
			handlerOpts = append(handlerOpts,
				httpAdapter.WithMetrics(app.Config.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
		}

		engine, err := app.Engine(cmd.Context(), extra...)
		if err != nil {
			fmt.Printf("Error initializing engine: %v\n", err)
			os.Exit(1)
		}

		srv := &http.Server{
			Addr:              app.Config.Server.Addr,
			Handler:           httpAdapter.NewHandler(engine, handlerOpts...),
			ReadHeaderTimeout: app.Config.Server.ReadHeaderTimeout,
		}

		if tui.IsTerminal(os.Stdout) {
			tui.PrintBanner(os.Stdout)
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			app.Logger.Info("starting turbo server", "addr", srv.Addr, "workloads", engine.Workloads())
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				fmt.Printf("Server error: %v\n", err)
				os.Exit(1)
			}

		case sig := <-shutdown:
			app.Logger.Info("shutting down", "signal", sig.String())

			// Give in-flight streams a deadline for completion.
			timeout := app.Config.Server.ShutdownTimeout
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", timeout, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			app.Logger.Info("turbo server stopped")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Listen address (overrides server.addr)")
}
