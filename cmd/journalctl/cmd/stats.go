package cmd

import (
	"github.com/spf13/cobra"

	"tradejournal/internal/service"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Inspect stored trade statistics",
}

var statsShowCmd = &cobra.Command{
	Use:   "show <user-id>",
	Short: "Print a user's statistics with derived ratios",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatsShow,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.AddCommand(statsShowCmd)
}

func runStatsShow(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	svc := &service.StatsService{Stats: a.store}
	summary, err := svc.Get(commandContext(cmd), args[0])
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), summary)
}
