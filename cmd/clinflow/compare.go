package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/clinflow-xyz/go-clinflow/report"
	"github.com/clinflow-xyz/go-clinflow/runner"
)

func compare(args []string) error {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	scenarioName := fs.String("scenario", "baseline", "Preset scenario name")
	configFile := fs.String("config", "", "Scenario YAML file (overrides --scenario)")
	runs := fs.Int("runs", 20, "Runs per strategy")
	seed := fs.Int64("seed", 0, "Base seed, shared by both strategies (0 = from clock)")
	workers := fs.Int("workers", 0, "Concurrent runs (0 = NumCPU)")
	rulesFile := fs.String("rules", "", "Rules YAML file (default: built-in knowledge base)")
	jsonOut := fs.String("json", "", "Write the comparison (JSON)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: clinflow compare [options]

Run the agent-based and survey-based generators over the same seeds and
print their summaries side by side.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  clinflow compare --runs 50 --seed 11
  clinflow compare --scenario busy_day --json compare.json
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

	c, err := runner.Compare(runner.Options{
		Scenario: scn,
		KB:       kbase,
		Runs:     *runs,
		Seed:     *seed,
		Workers:  *workers,
	})
	if err != nil {
		return err
	}

	report.WriteComparison(os.Stdout, c)

	if *jsonOut != "" {
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return fmt.Errorf("encode comparison: %w", err)
		}
		if err := os.WriteFile(*jsonOut, data, 0o644); err != nil {
			return fmt.Errorf("write comparison: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Comparison: %s\n", *jsonOut)
	}
	return nil
}
