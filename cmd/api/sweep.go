package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"notka/internal/service"
)

var (
	sweepDryRun bool
	sweepGrace  time.Duration
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete stored files that no note references",
	Long: `Scan the upload store once and remove files that are not attached to any note.

Examples:
  notka sweep --dry-run
  notka sweep --grace 24h`,
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().BoolVar(&sweepDryRun, "dry-run", false, "report orphans without deleting them")
	sweepCmd.Flags().DurationVar(&sweepGrace, "grace", 0, "skip files younger than this (default SWEEP_GRACE_SEC)")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := openNoteStore(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer store.close()

	files, err := openFileStore(cfg, logger)
	if err != nil {
		return err
	}

	grace := sweepGrace
	if !cmd.Flags().Changed("grace") {
		grace = time.Duration(cfg.Sweep.GraceSec) * time.Second
	}

	report, err := service.NewSweeper(store.repo, files, grace, logger).Sweep(ctx, sweepDryRun)
	if err != nil {
		return err
	}
	printSweepReport(cmd, report)
	return nil
}

func printSweepReport(cmd *cobra.Command, r *service.SweepReport) {
	out := cmd.OutOrStdout()
	faint := color.New(color.Faint).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	for _, p := range r.Orphans {
		fmt.Fprintf(out, "  %s %s\n", yellow("orphan"), p)
	}

	fmt.Fprintf(out, "%s %d scanned, %d referenced, %d too recent, %d orphaned\n",
		bold("Sweep:"), r.Scanned, r.Referenced, r.TooRecent, len(r.Orphans))

	switch {
	case r.DryRun:
		fmt.Fprintln(out, faint("dry run, nothing removed"))
	case r.Failed > 0:
		color.New(color.FgRed).Fprintf(out, "✗ removed %d, failed %d\n", r.Removed, r.Failed)
	default:
		color.New(color.FgGreen).Fprintf(out, "✓ removed %d\n", r.Removed)
	}
}
