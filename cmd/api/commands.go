package main

import (
	"encoding/json"
	"log"

	"github.com/spf13/cobra"

	"github.com/xavierca1/lead-capture/configs"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the leads table and CSV log if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configs.Load()

			db, store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			st := store.Status(cmd.Context())
			log.Printf("✅ Store pronto: db=%s (exists=%t) csv=%s (exists=%t)", st.DBPath, st.DBExists, st.CSVPath, st.CSVExists)
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	var (
		limit   int
		fromCSV bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the most recent leads as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configs.Load()

			db, store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())

			if fromCSV {
				// o CSV guarda também os leads que o banco recusou
				rows, err := store.Log.Records()
				if err != nil {
					return err
				}
				if limit > 0 && len(rows) > limit {
					rows = rows[len(rows)-limit:]
				}
				for i := len(rows) - 1; i >= 0; i-- {
					if err := enc.Encode(rows[i]); err != nil {
						return err
					}
				}
				return nil
			}

			leads, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			for _, l := range leads {
				if err := enc.Encode(l); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of leads to print")
	cmd.Flags().BoolVar(&fromCSV, "csv", false, "read from the CSV log instead of the database")
	return cmd
}
