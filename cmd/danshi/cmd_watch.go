package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	apipkg "github.com/danshi-org/client/internal/api"
	authpkg "github.com/danshi-org/client/internal/auth"
	metricspkg "github.com/danshi-org/client/internal/metrics"
	threadpkg "github.com/danshi-org/client/internal/thread"
	workerpkg "github.com/danshi-org/client/internal/worker"
)

var watchInterval time.Duration

var watchCommand = &cobra.Command{
	Use:   "watch <post-id>",
	Short: "print a post's comment thread and keep it refreshed",
	Long:  "",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return watchCommandImpl(args[0])
	},
}

func watchCommandImpl(postID string) error {
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

			// Refresher
			func(lc fx.Lifecycle, logger *zap.Logger, store *threadpkg.Store) *workerpkg.Refresher {
				refresher := workerpkg.NewRefresher(logger, store, watchInterval, func() {
					printThread(os.Stdout, store)
				})
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return refresher.Start()
					},
					OnStop: func(ctx context.Context) error {
						return refresher.Stop()
					},
				})
				return refresher
			},
		),
		fx.Invoke(func(logger *zap.Logger, store *threadpkg.Store, _ *workerpkg.Refresher) {
			if err := store.Load(context.Background()); err != nil {
				logger.Error("initial thread load failed", zap.Error(err))
				return
			}
			printThread(os.Stdout, store)
		}),
	)
	application.Run()

	err := application.Err()
	if err != nil {
		os.Exit(1)
	}

	return nil
}

func printThread(out *os.File, store *threadpkg.Store) {
	comments := store.Comments()
	fmt.Fprintf(out, "--- %d comments ---\n", store.Pagination().Total)
	for _, c := range comments {
		projection, _ := store.Project(c.ID, threadpkg.LayoutCompact)
		fmt.Fprintf(out, "[%s] %s: %s (%d likes)\n", c.ID, c.Author.Name, c.Content, c.LikeCount)
		for _, r := range projection.Replies {
			fmt.Fprintf(out, "    [%s] %s: %s\n", r.ID, r.Author.Name, r.Content)
		}
		if projection.Mode == threadpkg.ReplyModeSummary {
			fmt.Fprintf(out, "    ... %d replies in total\n", projection.TotalCount)
		}
	}
}

func init() {
	watchCommand.Flags().DurationVar(&watchInterval, "interval", 30*time.Second, "refresh interval")
	rootCommand.AddCommand(watchCommand)
}
