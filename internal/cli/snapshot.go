package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tdvu/marketsnap/internal/control"
)

var skipSync bool

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Run a single sync and snapshot pass, then exit",
	Run:   runSnapshot,
}

func init() {
	snapshotCmd.Flags().BoolVar(&skipSync, "skip-sync", false, "snapshot from existing data without crawling the API")
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	app, err := control.NewService(controlConfig(cfg))
	if err != nil {
		slog.Error("Failed to initialize service", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	snapshotter := app.Snapshotter()

	if !skipSync {
		if err := snapshotter.Sync(ctx); err != nil {
			slog.Error("Market sync failed", "error", err)
			os.Exit(1)
		}
	}

	snap, err := snapshotter.RunOnce(ctx)
	if err != nil {
		slog.Error("Snapshot pass failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Snapshot %s\n", snap.ID)
	fmt.Printf("  collection:   %s\n", snap.Collection)
	fmt.Printf("  total value:  %s %s\n", snap.TotalValue, snap.Currency)
	fmt.Printf("  floor sum:    %s %s\n", snap.FloorSum, snap.Currency)
	fmt.Printf("  volume 24h:   %s %s\n", snap.TradeVolume, snap.Currency)
	fmt.Printf("  priced:       %d protos\n", snap.PricedProtos)
	fmt.Printf("  failed:       %d protos\n", snap.FailedProtos)
}
