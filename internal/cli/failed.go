package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	redisclient "github.com/tdvu/marketsnap/internal/infra/redis"
)

var failedCmd = &cobra.Command{
	Use:   "failed",
	Short: "List protos waiting in the requeue pipeline",
	Run:   runFailed,
}

func init() {
	rootCmd.AddCommand(failedCmd)
}

func runFailed(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	if cfg.Redis.URL == "" {
		fmt.Println("Redis is not configured; the requeue pipeline is disabled")
		return
	}

	client, err := redisclient.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = client.Close()
	}()

	queue := redisclient.NewFailedProtoRepo(client, cfg.Market.Collection)
	protos, err := queue.GetAll(context.Background())
	if err != nil {
		slog.Error("Failed to list failed protos", "error", err)
		os.Exit(1)
	}

	if len(protos) == 0 {
		fmt.Printf("No failed protos queued for %s\n", cfg.Market.Collection)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "PROTO\tRETRIES\tLAST ATTEMPT\tLAST ERROR")

	for _, fp := range protos {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
			fp.Proto,
			fp.RetryCount,
			fp.LastAttempt.Format(time.RFC3339),
			fp.LastError)
	}
	_ = w.Flush()
}
