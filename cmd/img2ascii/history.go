package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wbrown/img2ascii/internal/config"
	"github.com/wbrown/img2ascii/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent renders recorded in the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		url := dbURL
		if url == "" {
			url = os.Getenv(config.EnvDB)
		}
		if url == "" {
			return fmt.Errorf("no database configured: pass --db or set %s", config.EnvDB)
		}

		ctx := cmd.Context()
		db, err := store.New(ctx, url)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close(context.Background())

		renders, err := db.Recent(ctx, historyLimit)
		if err != nil {
			return fmt.Errorf("failed to list renders: %w", err)
		}
		printHistory(cmd.OutOrStdout(), renders)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of renders to show")
	rootCmd.AddCommand(historyCmd)
}

func printHistory(out io.Writer, renders []store.Render) {
	if len(renders) == 0 {
		fmt.Fprintln(out, "No renders recorded.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "JOB\tIMAGE\tFONT\tSTRATEGY\tMODE\tGRID\tBLANKS\tELAPSED\tCREATED")
	fmt.Fprintln(w, "---\t-----\t----\t--------\t----\t----\t------\t-------\t-------")
	for _, r := range renders {
		blanks := fmt.Sprintf("%d", r.Substituted)
		if r.Failures > 0 {
			blanks += fmt.Sprintf(" (%d failed)", r.Failures)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%dx%d\t%s\t%s\t%s\n",
			shortID(r.JobID), r.Image, r.Font, r.Strategy, r.Mode,
			r.Columns, r.Rows, blanks, r.Elapsed, r.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
