package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/clinflow-xyz/go-clinflow/report"
	"github.com/clinflow-xyz/go-clinflow/sim"
	"github.com/clinflow-xyz/go-clinflow/stats"
	"github.com/clinflow-xyz/go-clinflow/storage"
	"github.com/clinflow-xyz/go-clinflow/trace"
)

func simulate(args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	scenarioName := fs.String("scenario", "baseline", "Preset scenario name")
	configFile := fs.String("config", "", "Scenario YAML file (overrides --scenario)")
	strategy := fs.String("strategy", sim.StrategyAgent, "Patient generation: agent_based or survey_based")
	seed := fs.Int64("seed", 0, "Random seed (0 = from clock)")
	rulesFile := fs.String("rules", "", "Rules YAML file (default: built-in knowledge base)")
	dbPath := fs.String("db", "", "SQLite database to persist the run")
	traceOut := fs.String("trace", "", "Write the event log (.csv or .jsonl)")
	plotOut := fs.String("plot", "", "Write a waiting-time chart (SVG)")
	timelineOut := fs.String("timeline", "", "Write a patients-inside chart (SVG)")
	jsonOut := fs.String("json", "", "Write the full run with patient records (JSON)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: clinflow simulate [options]

Simulate one clinic day and print its summary.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Baseline day, reproducible
  clinflow simulate --scenario baseline --seed 42

  # Custom scenario with an event log for process mining
  clinflow simulate --config clinic.yaml --trace day.csv

  # Persist the run and chart the waits
  clinflow simulate --scenario busy_day --db results.db --plot waits.svg
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
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	start := time.Now()
	res, err := sim.Run(sim.Config{
		Scenario: &scn,
		KB:       kbase,
		Strategy: *strategy,
		Seed:     *seed,
	})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	report.WriteRunSummary(os.Stdout, stats.FromResult(res))
	fmt.Fprintf(os.Stderr, "Run complete in %s (seed %d)\n", elapsed.Round(time.Millisecond), *seed)

	if *traceOut != "" {
		log := trace.FromResult(res)
		if err := log.Save(*traceOut); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "  Event log: %s (%d events)\n", *traceOut, len(log.Events))
	}
	if *plotOut != "" {
		svg := report.WaitTimesSVG(res, 900, 420)
		if err := os.WriteFile(*plotOut, []byte(svg), 0o644); err != nil {
			return fmt.Errorf("write plot: %w", err)
		}
		fmt.Fprintf(os.Stderr, "  Plot: %s\n", *plotOut)
	}
	if *timelineOut != "" {
		svg := report.TimelineSVG(res, 900, 420)
		if err := os.WriteFile(*timelineOut, []byte(svg), 0o644); err != nil {
			return fmt.Errorf("write timeline: %w", err)
		}
		fmt.Fprintf(os.Stderr, "  Timeline: %s\n", *timelineOut)
	}
	if *jsonOut != "" {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("encode run: %w", err)
		}
		if err := os.WriteFile(*jsonOut, data, 0o644); err != nil {
			return fmt.Errorf("write run: %w", err)
		}
		fmt.Fprintf(os.Stderr, "  Records: %s\n", *jsonOut)
	}
	if *dbPath != "" {
		store, err := storage.Open(*dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		id, err := store.SaveRun(res)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "  Saved run %s to %s\n", id, *dbPath)
	}
	return nil
}
