package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// API keys live in .env during local development, like the rest of the
	// deployment's dotenv-driven tooling
	_ = godotenv.Load()

	var root = &cobra.Command{Use: "estateline"}
	root.AddCommand(serveCMD(), indexCMD(), migrateCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
