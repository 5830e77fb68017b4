package main

import (
	"log"

	"github.com/spf13/cobra"

	"shop-service/internal/config"
	mmysql "shop-service/internal/infra/mysql"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long: `Creates the product_category, product, user, customer_order and order_line
tables with their foreign keys and check constraints, then exits.`,
		RunE: migrateCommand,
	}
}

func migrateCommand(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(commonFlags[envFileFlag].GetString())
	if err != nil {
		return err
	}

	db, err := mmysql.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := mmysql.Close(db); err != nil {
			log.Printf("db: close: %v", err)
		}
	}()

	if err := mmysql.Migrate(db); err != nil {
		return err
	}
	log.Println("Schema is up to date")
	return nil
}
