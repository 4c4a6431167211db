package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

func cases(args []string) error {
	fs := flag.NewFlagSet("cases", flag.ExitOnError)
	rulesFile := fs.String("rules", "", "Rules YAML file (default: built-in knowledge base)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: clinflow cases [options] [key]

List the predefined case catalog, or show one case in detail.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  clinflow cases
  clinflow cases case_7
`)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	kbase, err := loadKB(*rulesFile)
	if err != nil {
		return err
	}

	if key := fs.Arg(0); key != "" {
		t, ok := kbase.TemplateByKey(key)
		if !ok {
			return fmt.Errorf("unknown case %q", key)
		}
		fmt.Printf("%s: %s\n", t.Key, t.Name)
		fmt.Printf("  %s\n", t.Description)
		fmt.Printf("  Symptoms:       %s\n", strings.Join(t.Symptoms, ", "))
		fmt.Printf("  Severity:       %s (%.2f)\n", t.Severity, t.Severity.Score())
		fmt.Printf("  Recommendation: %d day(s)\n", t.RecommendedDays)
		fmt.Printf("  Needs doctor:   %v\n", t.RequiresDoctor)
		if len(t.Documentation) > 0 {
			fmt.Printf("  Documentation:  %s\n", strings.Join(t.Documentation, ", "))
		}
		if t.Notes != "" {
			fmt.Printf("  Notes:          %s\n", t.Notes)
		}
		return nil
	}

	fmt.Printf("%-10s %-28s %-9s %-5s %s\n", "KEY", "NAME", "SEVERITY", "DAYS", "SYMPTOMS")
	for _, t := range kbase.CaseTemplates() {
		fmt.Printf("%-10s %-28s %-9s %-5d %s\n",
			t.Key, t.Name, t.Severity, t.RecommendedDays, strings.Join(t.Symptoms, ", "))
	}
	return nil
}
