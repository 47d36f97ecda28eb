package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/junaidmahmood-ws/papertrader/paper"
)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio <account>",
	Short: "Show cash, holdings, stats and recent trades",
	Args:  cobra.ExactArgs(1),
	RunE:  runPortfolio,
}

var refreshCmd = &cobra.Command{
	Use:   "refresh <account>",
	Short: "Refresh position prices from the quote source",
	Long: `Refresh fetches the latest close for every held ticker and rewrites
the portfolio statistics. The quote source is rate limited, so this can
take a while for many tickers; a ticker whose quote fails keeps its
last known price.`,
	Args: cobra.ExactArgs(1),
	RunE: runRefresh,
}

var historyCmd = &cobra.Command{
	Use:   "history <account>",
	Short: "Print the approximate value-over-time series",
	Long: `History replays the trade log into a value series for charting.
Open positions are valued at their cost basis at each point, not at the
market price of the day, so the series is an approximation.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(portfolioCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(historyCmd)
}

func runPortfolio(cmd *cobra.Command, args []string) error {
	return withEngine(func(e *paper.Engine) error {
		snap, err := e.Portfolio(context.Background(), args[0])
		if err != nil {
			return err
		}
		sum, err := e.Summary(context.Background(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("cash      $%.2f\n", snap.Cash)
		fmt.Printf("total     $%.2f  (%+.2f%%, %+.2f)\n",
			sum.TotalValue, sum.PercentGain, sum.AmountGained)

		if len(snap.Positions) > 0 {
			fmt.Println("\nholdings:")
			for _, p := range snap.Positions {
				fmt.Printf("  %-6s %10.4f @ avg $%.2f  last $%.2f  value $%.2f\n",
					p.Ticker, p.Quantity, p.AvgCost, p.LastPrice, p.Value())
			}
		}

		if len(snap.Trades) > 0 {
			fmt.Println("\nrecent trades:")
			n := len(snap.Trades)
			if n > 10 {
				n = 10
			}
			for _, t := range snap.Trades[:n] {
				fmt.Printf("  %s  %-4s %-6s %10.4f @ $%.2f  $%.2f\n",
					t.Time.Format("2006-01-02 15:04"), t.Side, t.Ticker, t.Quantity, t.Price, t.TotalValue)
			}
		}
		return nil
	})
}

func runRefresh(cmd *cobra.Command, args []string) error {
	return withEngine(func(e *paper.Engine) error {
		snap, err := e.RefreshPrices(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("refreshed %d positions, total $%.2f\n", len(snap.Positions), snap.TotalValue)
		return nil
	})
}

func runHistory(cmd *cobra.Command, args []string) error {
	return withEngine(func(e *paper.Engine) error {
		points, err := e.History(context.Background(), args[0])
		if err != nil {
			return err
		}
		for _, p := range points {
			fmt.Printf("%s  %.2f\n", p.Time.Format("2006-01-02"), p.Value)
		}
		return nil
	})
}
