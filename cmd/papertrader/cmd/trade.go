package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/junaidmahmood-ws/papertrader/paper"
	"github.com/junaidmahmood-ws/papertrader/portfolio"
)

var (
	tradeName     string
	tradeContract string
	tradeStrike   float64
	tradeExpiry   string
)

var buyCmd = &cobra.Command{
	Use:   "buy <account> <ticker> <quantity> <price>",
	Short: "Buy shares (or an option contract) at a price",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrade(portfolio.Buy, args)
	},
}

var sellCmd = &cobra.Command{
	Use:   "sell <account> <ticker> <quantity> <price>",
	Short: "Sell shares (or an option contract) at a price",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrade(portfolio.Sell, args)
	},
}

func init() {
	rootCmd.AddCommand(buyCmd)
	rootCmd.AddCommand(sellCmd)

	for _, c := range []*cobra.Command{buyCmd, sellCmd} {
		c.Flags().StringVar(&tradeName, "name", "", "display name for the instrument (defaults to the ticker)")
		c.Flags().StringVar(&tradeContract, "contract", "", "option contract type: call or put (marks the order as an option)")
		c.Flags().Float64Var(&tradeStrike, "strike", 0, "option strike price")
		c.Flags().StringVar(&tradeExpiry, "expiry", "", "option expiration date (YYYY-MM-DD)")
	}
}

func runTrade(side portfolio.Side, args []string) error {
	account, ticker := args[0], args[1]

	qty, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("quantity: %w", err)
	}
	price, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return fmt.Errorf("price: %w", err)
	}

	name := tradeName
	if name == "" {
		name = ticker
	}

	req := paper.OrderRequest{
		Ticker:   ticker,
		Name:     name,
		Side:     side,
		Quantity: qty,
		Price:    price,
		Kind:     portfolio.Stock,
	}
	if tradeContract != "" {
		req.Kind = portfolio.Option
		req.Option = &portfolio.OptionDetails{
			ContractType: portfolio.ContractType(tradeContract),
			Strike:       tradeStrike,
			Expiration:   tradeExpiry,
		}
	}

	return withEngine(func(e *paper.Engine) error {
		trade, err := e.PlaceOrder(context.Background(), account, req)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s %.4f %s @ $%.2f  total $%.2f  (order %s)\n",
			trade.Side, trade.Kind, trade.Quantity, trade.Ticker, trade.Price, trade.TotalValue, trade.ID)
		return nil
	})
}
