package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/junaidmahmood-ws/papertrader/paper"
	"github.com/junaidmahmood-ws/papertrader/portfolio"
)

var openCategory string

var openCmd = &cobra.Command{
	Use:   "open <account>",
	Short: "Open a paper account at the starting balance",
	Args:  cobra.ExactArgs(1),
	RunE:  runOpen,
}

var resetCmd = &cobra.Command{
	Use:   "reset <account>",
	Short: "Wipe positions and history and restore the starting balance",
	Args:  cobra.ExactArgs(1),
	RunE:  runReset,
}

func init() {
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(resetCmd)

	openCmd.Flags().StringVar(&openCategory, "category", "Student", "account category (Student or Advanced)")
}

func runOpen(cmd *cobra.Command, args []string) error {
	return withEngine(func(e *paper.Engine) error {
		acct, err := e.Open(context.Background(), args[0], openCategory)
		if err != nil {
			return err
		}
		fmt.Printf("opened %s (%s) with $%.2f\n", acct.ID, acct.Category, acct.Cash)
		return nil
	})
}

func runReset(cmd *cobra.Command, args []string) error {
	return withEngine(func(e *paper.Engine) error {
		if err := e.Reset(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("reset %s to $%.2f\n", args[0], float64(portfolio.StartingCash))
		return nil
	})
}
