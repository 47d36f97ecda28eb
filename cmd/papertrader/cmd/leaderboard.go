package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/junaidmahmood-ws/papertrader/paper"
)

var (
	lbCategory string
	lbLimit    int
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Rank accounts by percent gain",
	Args:  cobra.NoArgs,
	RunE:  runLeaderboard,
}

func init() {
	rootCmd.AddCommand(leaderboardCmd)

	leaderboardCmd.Flags().StringVar(&lbCategory, "category", "", "filter by category (Student or Advanced)")
	leaderboardCmd.Flags().IntVar(&lbLimit, "limit", 25, "maximum rows")
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	return withEngine(func(e *paper.Engine) error {
		entries, err := e.Leaderboard(context.Background(), lbCategory, lbLimit)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			a := entry.Account
			fmt.Printf("%3d  %-20s %-9s %+8.2f%%  %+10.2f\n",
				entry.Rank, a.ID, a.Category, a.Stats.PercentGain, a.Stats.AmountGained)
		}
		return nil
	})
}
