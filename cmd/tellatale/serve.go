package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpAdapter "github.com/aretw0/tellatale/internal/adapters/http"
	"github.com/aretw0/tellatale/internal/runtime"
	"github.com/aretw0/tellatale/pkg/observability"
	"github.com/aretw0/tellatale/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts the storytelling engine in server mode, exposing a JSON API over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		port, _ := cmd.Flags().GetString("port")
		logger := buildLogger(cmd)

		gen, err := buildGenerator(ctx)
		if err != nil {
			return err
		}
		defer gen.Close()

		store, err := buildStore(cmd)
		if err != nil {
			return err
		}
		rec := session.NewRecorder(store, session.WithLogger(logger))

		metrics := observability.NewMetrics()
		eng := runtime.NewEngine(gen,
			runtime.WithLogger(logger),
			runtime.WithHooks(metrics.Hooks()),
		)

		handler := httpAdapter.NewHandler(eng, rec,
			httpAdapter.WithRegistry(metrics.Registry()),
			httpAdapter.WithLogger(logger),
		)

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: handler,
		}

		serverErrors := make(chan error, 1)
		go func() {
			fmt.Printf("TellATale server listening on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return err

		case sig := <-shutdown:
			fmt.Printf("\nShutdown signal received: %v\n", sig)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			fmt.Println("TellATale server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
}
