package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tdvu/marketsnap/internal/infra/storage/postgres"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent valuation snapshots for the tracked collection",
	Run:   runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "number of snapshots to show")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	snapshots, err := postgres.NewSnapshotRepo(db).List(ctx, cfg.Market.Collection, statusLimit)
	if err != nil {
		slog.Error("Failed to list snapshots", "error", err)
		os.Exit(1)
	}

	if len(snapshots) == 0 {
		fmt.Printf("No snapshots recorded for %s yet\n", cfg.Market.Collection)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "CREATED\tTOTAL VALUE\tFLOOR SUM\tVOLUME 24H\tPRICED\tFAILED")

	for _, s := range snapshots {
		_, _ = fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\t%d\t%d\n",
			s.CreatedAt.Format(time.RFC3339),
			s.TotalValue, s.Currency,
			s.FloorSum,
			s.TradeVolume,
			s.PricedProtos,
			s.FailedProtos)
	}
	_ = w.Flush()
}
