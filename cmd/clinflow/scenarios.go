package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/clinflow-xyz/go-clinflow/scenario"
)

func scenarios(args []string) error {
	fs := flag.NewFlagSet("scenarios", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: clinflow scenarios

List the built-in scenarios with their staffing and day length.
`)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Printf("%-22s %-8s %-8s %-7s %-9s %s\n",
		"NAME", "DOCTORS", "NURSES", "STAFF", "DURATION", "DESCRIPTION")
	for _, s := range scenario.Presets() {
		fmt.Printf("%-22s %-8d %-8d %-7d %-9s %s\n",
			s.Name, s.Doctors, s.Nurses, s.Staff, s.Duration, s.Description)
	}
	return nil
}
