package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"tradejournal/internal/models"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Recompute trade statistics from stored trades",
}

var rebuildUserCmd = &cobra.Command{
	Use:   "user <user-id>",
	Short: "Rebuild one user's statistics",
	Args:  cobra.ExactArgs(1),
	RunE:  runRebuildUser,
}

var rebuildAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Run a full rebuild pass over every user",
	Args:  cobra.NoArgs,
	RunE:  runRebuildAll,
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
	rebuildCmd.AddCommand(rebuildUserCmd)
	rebuildCmd.AddCommand(rebuildAllCmd)
}

func runRebuildUser(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	row, err := a.processor().RebuildUser(commandContext(cmd), args[0], models.StatsSourceManual)
	if err != nil {
		return fmt.Errorf("rebuild %s: %w", args[0], err)
	}
	return writeJSON(cmd.OutOrStdout(), row)
}

// The full pass ignores the rebuild job switch: an operator asked for it.
func runRebuildAll(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.rebuilder().RunOnce(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("rebuild all: %w", err)
	}
	if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
		return err
	}
	if len(res.FailedUsers) > 0 {
		return fmt.Errorf("%d users failed to rebuild", len(res.FailedUsers))
	}
	return nil
}
