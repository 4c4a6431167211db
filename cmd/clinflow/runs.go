package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/clinflow-xyz/go-clinflow/storage"
)

func runs(args []string) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	dbPath := fs.String("db", "clinflow.db", "SQLite database to read")
	limit := fs.Int("limit", 20, "Number of runs to list")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: clinflow runs [options] [run-id]

List persisted runs, or export one run with its patients and
certificates as JSON on stdout.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  clinflow runs --db results.db
  clinflow runs --db results.db 5f0c... > run.json
`)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.Open(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if id := fs.Arg(0); id != "" {
		data, err := store.ExportRunJSON(id)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	records, err := store.RecentRuns(*limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}
	fmt.Printf("%-36s %-20s %-13s %-9s %-9s %-6s %s\n",
		"ID", "SCENARIO", "STRATEGY", "PATIENTS", "CERTS", "BALKED", "CREATED")
	for _, r := range records {
		fmt.Printf("%-36s %-20s %-13s %-9d %-9d %-6d %s\n",
			r.ID, r.Scenario, r.Strategy, r.Patients, r.Certificates, r.Balked,
			r.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
