package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/clinflow-xyz/go-clinflow/expert"
	"github.com/clinflow-xyz/go-clinflow/kb"
)

func assess(args []string) error {
	fs := flag.NewFlagSet("assess", flag.ExitOnError)
	caseKey := fs.String("case", "", "Predefined case key from the catalog (see the cases command)")
	symptoms := fs.String("symptoms", "", "Comma-separated symptom list, e.g. fever,cough")
	severity := fs.Float64("severity", 0, "Severity score 0..1 (0 = derive from symptoms)")
	letter := fs.Bool("letter", true, "Patient presented an excuse letter")
	validID := fs.Bool("id", true, "Patient presented a valid ID")
	reference := fs.String("ref", "CLI", "Reference used in the certificate identifier")
	rulesFile := fs.String("rules", "", "Rules YAML file (default: built-in knowledge base)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: clinflow assess [options]

Run one case through nurse triage, doctor evaluation when referred, and
the final certificate decision.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  clinflow assess --case case_4
  clinflow assess --symptoms fever,cough,fatigue --letter=false
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	kbase, err := loadKB(*rulesFile)
	if err != nil {
		return err
	}

	var snap expert.Snapshot
	switch {
	case *caseKey != "":
		t, ok := kbase.TemplateByKey(*caseKey)
		if !ok {
			return fmt.Errorf("unknown case %q (see the cases command)", *caseKey)
		}
		snap = expert.SnapshotFromTemplate(t)
		fmt.Printf("Case:      %s (%s)\n", t.Name, t.Key)
		fmt.Printf("Symptoms:  %s\n", strings.Join(t.Symptoms, ", "))
	case *symptoms != "":
		list := splitSymptoms(*symptoms)
		if len(list) == 0 {
			return fmt.Errorf("no symptoms given")
		}
		score := *severity
		if score == 0 {
			score = kbase.SeverityScore(list)
		}
		ct := kb.CaseSimple
		if score >= 0.5 {
			ct = kb.CaseComplex
		}
		snap = expert.Snapshot{
			CaseType:      ct,
			Symptoms:      list,
			SeverityScore: score,
		}
		fmt.Printf("Symptoms:  %s\n", strings.Join(list, ", "))
	default:
		return fmt.Errorf("either --case or --symptoms is required")
	}
	snap.HasExcuseLetter = *letter
	snap.HasValidID = *validID

	rules := expert.New(kbase)
	assessment, err := rules.AssessNurse(snap)
	if err != nil {
		return err
	}
	snap.SeverityScore = assessment.SeverityScore

	fmt.Printf("Severity:  %.2f (%s case)\n", snap.SeverityScore, snap.CaseType)
	fmt.Println()
	fmt.Println("Nurse triage")
	fmt.Printf("  Referred:  %v\n", assessment.ReferToDoctor)
	fmt.Printf("  Approved:  %v\n", assessment.Approved)
	if assessment.RuleName != "" {
		fmt.Printf("  Rule:      %s\n", assessment.RuleName)
	}

	var eval *expert.DoctorEvaluation
	if assessment.ReferToDoctor {
		e, err := rules.EvaluateDoctor(snap)
		if err != nil {
			return err
		}
		eval = &e
		fmt.Println("Doctor evaluation")
		fmt.Printf("  Eligible:  %v\n", e.CertificateEligible)
		if e.RuleName != "" {
			fmt.Printf("  Rule:      %s\n", e.RuleName)
		}
	}

	decision, err := rules.ResolveCertificate(snap, assessment, eval, *reference, time.Now().UTC())
	if err != nil {
		return err
	}

	fmt.Println("Certificate")
	if decision.Issued {
		fmt.Printf("  ISSUED for %d day(s)\n", decision.DurationDays)
		fmt.Printf("  ID:        %s\n", decision.CertificateID)
	} else {
		fmt.Println("  DENIED")
	}
	fmt.Printf("  Decided by %s", decision.DecidedBy)
	if decision.RuleName != "" {
		fmt.Printf(" (%s)", decision.RuleName)
	}
	fmt.Println()
	return nil
}

func splitSymptoms(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.ToLower(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
