package cmd

import (
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"

	"github.com/junaidmahmood-ws/papertrader/config"
	"github.com/junaidmahmood-ws/papertrader/paper"
	"github.com/junaidmahmood-ws/papertrader/quote"
	"github.com/junaidmahmood-ws/papertrader/store"
	"github.com/junaidmahmood-ws/papertrader/store/postgres"
	"github.com/junaidmahmood-ws/papertrader/store/sqlite"
)

var rootCmd = &cobra.Command{
	Use:   "papertrader",
	Short: "A paper-trading portfolio ledger",
	Long: `Papertrader keeps simulated investing accounts: cash, positions,
order history and summary statistics.

It provides tools for:
  - Opening and resetting paper accounts with a fixed starting balance
  - Placing validated buy/sell orders for stocks and options
  - Viewing the portfolio, its statistics and a value-over-time chart series
  - Refreshing position prices from a previous-close quote API
  - Ranking accounts on a percent-gain leaderboard

State lives in a local SQLite file by default; a PostgreSQL store and a
Redis quote cache can be enabled in the config file.`,
}

var cfgFile string

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON)")
}

func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(cfgFile)
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Type {
	case "memory":
		return store.NewMemory(), nil
	case "sqlite":
		return sqlite.New(cfg.Store.Path)
	case "postgres":
		return postgres.Open(cfg.Store.DSN)
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}
}

func newQuoteSource(cfg *config.Config) quote.Source {
	var src quote.Source = quote.NewClient(cfg.Quote.BaseURL, cfg.Quote.APIKey())
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		src = quote.NewRedisCache(src, rdb)
	}
	return src
}

// withEngine wires store + quotes from config, runs fn and closes the
// store afterwards.
func withEngine(fn func(*paper.Engine) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	return fn(paper.NewEngine(st, newQuoteSource(cfg)))
}
