package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-search/internal/query"
	"github.com/inodb/vibe-search/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve searches over HTTP",
		Long: `Serve POST /search requests against the configured database and pedigree.
Invalid requests answer 400 and unsupported dataset types 501.`,
		Example: `  vibe-search serve --db callset.duckdb --pedigree families.yaml --addr :8080`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			store, err := openStore(logger)
			if err != nil {
				return err
			}
			defer store.Close()
			provider, err := loadPedigree()
			if err != nil {
				return err
			}

			engine := query.NewEngine(store, provider)
			engine.SetLogger(logger)
			srv := server.New(engine, logger)
			srv.SetDefaults(searchDefaults())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() { errc <- srv.Start(viper.GetString(keyServerAddr)) }()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("shutdown", zap.Error(err))
			}
			return <-errc
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default: server.addr, :5000)")
	viper.BindPFlag(keyServerAddr, cmd.Flags().Lookup("addr"))
	return cmd
}
