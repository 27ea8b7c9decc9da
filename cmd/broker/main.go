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
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/adamgoose/age-chat/internal/app"
	"github.com/adamgoose/age-chat/internal/broker"
)

func main() {
	var (
		listen string
		debug  bool
	)
	root := &cobra.Command{
		Use:          "broker",
		Short:        "Rendezvous broker for agechat endpoints",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := app.NewLogger(debug)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, listen, log)
		},
	}
	root.Flags().StringVar(&listen, "listen", ":8787", "address to listen on")
	root.Flags().BoolVar(&debug, "debug", false, "verbose logging")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(ctx context.Context, addr string, log *zap.Logger) error {
	hub := broker.NewHub(log.Named("hub"))
	srv := &http.Server{
		Addr:              addr,
		Handler:           hub.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Warn("broker listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
