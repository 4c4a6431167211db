package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/clinflow-xyz/go-clinflow/report"
	"github.com/clinflow-xyz/go-clinflow/runner"
	"github.com/clinflow-xyz/go-clinflow/sim"
	"github.com/clinflow-xyz/go-clinflow/stats"
	"github.com/clinflow-xyz/go-clinflow/storage"
)

func batch(args []string) error {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	scenarioName := fs.String("scenario", "baseline", "Preset scenario name")
	configFile := fs.String("config", "", "Scenario YAML file (overrides --scenario)")
	strategy := fs.String("strategy", sim.StrategyAgent, "Patient generation: agent_based or survey_based")
	runs := fs.Int("runs", 20, "Number of runs in the batch")
	seed := fs.Int64("seed", 0, "Base seed, run i uses seed+i (0 = from clock)")
	workers := fs.Int("workers", 0, "Concurrent runs (0 = NumCPU)")
	rulesFile := fs.String("rules", "", "Rules YAML file (default: built-in knowledge base)")
	dbPath := fs.String("db", "", "SQLite database to persist every run")
	jsonOut := fs.String("json", "", "Write the batch summary (JSON)")
	histOut := fs.String("hist", "", "Write a nurse-wait histogram (SVG)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: clinflow batch [options]

Run many clinic days and aggregate their statistics.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # 50 baseline days
  clinflow batch --runs 50 --seed 7

  # Understaffed scenario, persisted for later inspection
  clinflow batch --scenario understaffed --runs 30 --db results.db
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	scn, err := loadScenario(*scenarioName, *configFile)
	if err != nil {
		return err
	}
	kbase, err := loadKB(*rulesFile)
	if err != nil {
		return err
	}

	b, err := runner.RunBatch(runner.Options{
		Scenario: scn,
		KB:       kbase,
		Strategy: *strategy,
		Runs:     *runs,
		Seed:     *seed,
		Workers:  *workers,
	})
	if err != nil {
		return err
	}

	report.WriteBatchSummary(os.Stdout, b)
	fmt.Fprintf(os.Stderr, "Batch %s: %d runs in %s\n", b.ID, *runs, b.Elapsed.Round(time.Millisecond))

	if *histOut != "" {
		waits := make([]time.Duration, 0, *runs)
		for _, rs := range b.Stats {
			waits = append(waits, rs.AvgNurseWait)
		}
		h := stats.NewHistogram(waits, 5*time.Minute, 6)
		svg := report.WaitHistogramSVG(h, "Mean Nurse Wait Across Runs", 900, 420)
		if err := os.WriteFile(*histOut, []byte(svg), 0o644); err != nil {
			return fmt.Errorf("write histogram: %w", err)
		}
		fmt.Fprintf(os.Stderr, "  Histogram: %s\n", *histOut)
	}
	if *jsonOut != "" {
		data, err := json.MarshalIndent(b, "", "  ")
		if err != nil {
			return fmt.Errorf("encode batch: %w", err)
		}
		if err := os.WriteFile(*jsonOut, data, 0o644); err != nil {
			return fmt.Errorf("write batch: %w", err)
		}
		fmt.Fprintf(os.Stderr, "  Summary: %s\n", *jsonOut)
	}
	if *dbPath != "" {
		store, err := storage.Open(*dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		for _, res := range b.Results {
			if _, err := store.SaveRun(res); err != nil {
				return err
			}
		}
		fmt.Fprintf(os.Stderr, "  Saved %d runs to %s\n", len(b.Results), *dbPath)
	}
	return nil
}
