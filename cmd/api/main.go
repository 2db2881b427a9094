package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/xavierca1/lead-capture/configs"
	"github.com/xavierca1/lead-capture/internal/infra/database"
)

func main() {
	root := &cobra.Command{
		Use:           "api",
		Short:         "Lead capture backend (contact and open access forms)",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(newServeCmd(), newInitCmd(), newListCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Printf("❌ %v", err)
		os.Exit(1)
	}
}

// openStore abre o sink relacional e o CSV e roda o bootstrap idempotente.
func openStore(ctx context.Context, cfg *configs.Config) (*sql.DB, *database.LeadStore, error) {
	db, dialect, err := database.NewDBConnection(cfg.DatabaseURL, cfg.DBPath())
	if err != nil {
		return nil, nil, err
	}

	dbPath := cfg.DBPath()
	if dialect == database.DialectPostgres {
		dbPath = ""
	}

	store := database.NewLeadStore(
		database.NewLeadRepository(db, dialect),
		database.NewCSVLog(cfg.CSVPath()),
		dbPath,
	)

	if err := store.Initialize(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	return db, store, nil
}
