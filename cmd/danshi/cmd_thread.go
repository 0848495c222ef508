package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	apipkg "github.com/danshi-org/client/internal/api"
	authpkg "github.com/danshi-org/client/internal/auth"
	metricspkg "github.com/danshi-org/client/internal/metrics"
	threadpkg "github.com/danshi-org/client/internal/thread"
)

var threadCommand = &cobra.Command{
	Use:   "thread <post-id>",
	Short: "browse a post's comment thread",
	Long:  "",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return threadCommandImpl(args[0])
	},
}

func threadCommandImpl(postID string) error {
	if os.Getenv("DEBUG") == "1" {
		godotenv.Load()
	}

	// Application
	application := fx.New(
		fx.NopLogger,
		fx.Provide(
			// Logger
			func() *zap.Logger {
				if os.Getenv("DEBUG") == "1" {
					logger, _ := zap.NewDevelopment()
					return logger
				}
				logger, _ := zap.NewProduction()
				return logger
			},

			// Session token from .env
			func(logger *zap.Logger) *authpkg.TokenStore {
				tokens := authpkg.NewTokenStore()
				if raw := os.Getenv("DANSHI_TOKEN"); raw != "" {
					if err := tokens.SetToken(raw); err != nil {
						logger.Warn("could not decode token claims", zap.Error(err))
					}
				}
				return tokens
			},

			// Metrics
			func() *metricspkg.ClientMetrics {
				return metricspkg.NewClientMetrics(prometheus.DefaultRegisterer)
			},

			// API client
			func(logger *zap.Logger, tokens *authpkg.TokenStore, metrics *metricspkg.ClientMetrics) *apipkg.Client {
				return apipkg.NewClient(os.Getenv("DANSHI_API_URL"), tokens, logger, metrics)
			},

			// Thread state
			func(logger *zap.Logger, client *apipkg.Client) *threadpkg.Store {
				return threadpkg.NewStore(client, logger, postID)
			},
			func(store *threadpkg.Store, client *apipkg.Client, logger *zap.Logger, metrics *metricspkg.ClientMetrics) *threadpkg.Mutator {
				return threadpkg.NewMutator(store, client, logger, metrics)
			},
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			shutdowner fx.Shutdowner,
			logger *zap.Logger,
			client *apipkg.Client,
			store *threadpkg.Store,
			mutator *threadpkg.Mutator,
		) {
			session := newSession(logger, client, store, mutator)
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					go func() {
						session.run()
						shutdowner.Shutdown()
					}()
					return nil
				},
				OnStop: func(ctx context.Context) error {
					return nil
				},
			})
		}),
	)
	application.Run()

	err := application.Err()
	if err != nil {
		os.Exit(1)
	}

	return nil
}

func init() {
	rootCommand.AddCommand(threadCommand)
}
