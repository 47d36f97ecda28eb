package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/junaidmahmood-ws/papertrader/cmd/papertrader/cmd"
)

func main() {
	// Optional; API keys and DSNs may come from a .env file.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
