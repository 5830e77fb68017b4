package main

import (
	"log"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
)

const envFileFlag = "env-file"

var commonFlags = map[string]cobraflags.Flag{
	envFileFlag: &cobraflags.StringFlag{
		Name:       envFileFlag,
		Value:      ".env",
		Usage:      "Optional dotenv file loaded before reading the environment",
		Persistent: true,
	},
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "shop-service",
		Short: "Catalog, account and order backend of the shop",
		Long: `Serves the shop REST API on top of MySQL with an optional Redis cache.

Available subcommands:
  serve    - Run the HTTP server (default)
  migrate  - Create or update the database schema and exit`,
		SilenceUsage: true,
		RunE:         serveCommand,
	}
	cobraflags.RegisterMap(rootCmd, commonFlags)

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())
	return rootCmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Printf("shop-service: %v", err)
		os.Exit(1)
	}
}
