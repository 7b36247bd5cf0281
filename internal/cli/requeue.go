package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tdvu/marketsnap/internal/core/domain"
	redisclient "github.com/tdvu/marketsnap/internal/infra/redis"
)

var (
	requeueFrom int64
	requeueTo   int64
)

var requeueCmd = &cobra.Command{
	Use:   "requeue",
	Short: "Push a proto range onto the requeue pipeline",
	Long: `Queues every proto in [--from, --to) for re-pricing by the requeue
worker, as if each had exhausted its retries during a snapshot pass.`,
	Run: runRequeue,
}

func init() {
	requeueCmd.Flags().Int64Var(&requeueFrom, "from", 0, "first proto to queue")
	requeueCmd.Flags().Int64Var(&requeueTo, "to", 0, "upper bound proto (exclusive)")
	_ = requeueCmd.MarkFlagRequired("from")
	_ = requeueCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(requeueCmd)
}

func runRequeue(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	if requeueTo <= requeueFrom {
		slog.Error("Invalid proto range", "from", requeueFrom, "to", requeueTo)
		os.Exit(1)
	}
	if cfg.Redis.URL == "" {
		slog.Error("Redis is not configured; the requeue pipeline is disabled")
		os.Exit(1)
	}

	client, err := redisclient.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = client.Close()
	}()

	ctx := context.Background()
	queue := redisclient.NewFailedProtoRepo(client, cfg.Market.Collection)

	now := time.Now().UTC()
	queued := 0
	for proto := domain.ProtoID(requeueFrom); proto < domain.ProtoID(requeueTo); proto++ {
		fp := &domain.FailedProto{
			Proto:       proto,
			Collection:  cfg.Market.Collection,
			LastError:   "queued manually",
			FirstFailed: now,
			LastAttempt: now,
		}
		if err := queue.Add(ctx, fp); err != nil {
			slog.Error("Failed to queue proto", "proto", proto, "error", err)
			os.Exit(1)
		}
		queued++
	}

	fmt.Printf("Queued %d protos for %s\n", queued, cfg.Market.Collection)
}
