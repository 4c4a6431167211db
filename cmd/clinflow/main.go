package main

import (
	"fmt"
	"os"

	"github.com/clinflow-xyz/go-clinflow/kb"
	"github.com/clinflow-xyz/go-clinflow/scenario"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "simulate":
		if err := simulate(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "batch":
		if err := batch(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "compare":
		if err := compare(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "assess":
		if err := assess(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "scenarios":
		if err := scenarios(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "cases":
		if err := cases(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "runs":
		if err := runs(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "serve":
		if err := serve(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Println("clinflow version 1.0.0")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`clinflow - clinic patient-flow simulator and certificate decision aid

Usage:
  clinflow <command> [options]

Commands:
  simulate   Run one clinic day and print its summary
  batch      Run a scenario many times and aggregate the results
  compare    Run agent-based and survey-based strategies side by side
  assess     Decide one medical-certificate case against the rule tables
  scenarios  List the built-in scenarios
  cases      List the predefined case catalog
  runs       List or export stored runs from a results database
  serve      Start the HTTP API
  help       Show this help message
  version    Show version information

Examples:
  # Simulate the baseline clinic day
  clinflow simulate --scenario baseline --seed 42

  # 50 runs of a busy day, persisted to SQLite
  clinflow batch --scenario busy_day --runs 50 --db results.db

  # Decide a case from the catalog
  clinflow assess --case case_4

  # Compare patient-generation strategies
  clinflow compare --scenario baseline --runs 20

For command-specific help, run:
  clinflow <command> --help`)
}

// loadScenario resolves a preset name or a YAML file into a scenario.
func loadScenario(name, file string) (scenario.Scenario, error) {
	if file != "" {
		return scenario.LoadFile(file)
	}
	if name == "" {
		name = "baseline"
	}
	scn, ok := scenario.ByName(name)
	if !ok {
		return scenario.Scenario{}, fmt.Errorf("unknown scenario %q (see the scenarios command)", name)
	}
	return scn, nil
}

// loadKB resolves a rules file into a knowledge base, defaulting to the
// built-in clinic rules.
func loadKB(file string) (*kb.KnowledgeBase, error) {
	if file == "" {
		return kb.Default(), nil
	}
	return kb.LoadFile(file)
}
