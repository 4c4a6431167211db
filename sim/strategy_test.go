package sim

import (
	"testing"
	"time"

	"github.com/clinflow-xyz/go-clinflow/kb"
	"github.com/clinflow-xyz/go-clinflow/scenario"
)

func TestSurveyCaseMixQuota(t *testing.T) {
	ctx := NewContext(1)
	scn := scenario.Baseline()
	kbase := kb.Default()

	s := &surveyStrategy{}
	simple := 0
	for i := 0; i < 10; i++ {
		p := &Patient{}
		s.NewCase(ctx, &scn, kbase, p)
		if p.CaseType == kb.CaseSimple {
			simple++
		}
	}
	if simple != 7 {
		t.Errorf("simple cases = %d, want 7 of 10 at share 0.70", simple)
	}
}

func TestQuotaTracksProbability(t *testing.T) {
	q := &quota{}
	hits := 0
	for i := 0; i < 100; i++ {
		if q.next(0.25) {
			hits++
		}
	}
	if hits != 25 {
		t.Errorf("hits = %d, want 25", hits)
	}
}

func TestQuotaExtremes(t *testing.T) {
	always := &quota{}
	never := &quota{}
	for i := 0; i < 10; i++ {
		if !always.next(1.0) {
			t.Error("probability 1.0 skipped a patient")
		}
		if never.next(0.0) {
			t.Error("probability 0.0 admitted a patient")
		}
	}
}

func TestAgentCaseSampling(t *testing.T) {
	ctx := NewContext(99)
	scn := scenario.Baseline()
	kbase := kb.Default()

	s := &agentStrategy{}
	sawSimple, sawComplex := false, false
	for i := 0; i < 200; i++ {
		p := &Patient{}
		s.NewCase(ctx, &scn, kbase, p)

		complexCount := 0
		for _, sym := range p.Symptoms {
			if kbase.IsComplexSymptom(sym) {
				complexCount++
			}
		}
		switch p.CaseType {
		case kb.CaseSimple:
			sawSimple = true
			if len(p.Symptoms) < 1 || len(p.Symptoms) > 3 {
				t.Fatalf("simple case with %d symptoms", len(p.Symptoms))
			}
			if complexCount != 0 {
				t.Fatalf("simple case with complex symptoms: %v", p.Symptoms)
			}
		case kb.CaseComplex:
			sawComplex = true
			if complexCount < 1 || complexCount > 2 {
				t.Fatalf("complex case with %d complex symptoms: %v", complexCount, p.Symptoms)
			}
			if len(p.Symptoms) > 4 {
				t.Fatalf("complex case with %d symptoms", len(p.Symptoms))
			}
		default:
			t.Fatalf("unassigned case type")
		}

		if p.HasValidID && !p.HasExcuseLetter {
			t.Fatal("valid id without excuse letter")
		}
		if got := kbase.SeverityScore(p.Symptoms); p.Severity != got {
			t.Fatalf("severity = %v, recomputed %v", p.Severity, got)
		}
	}
	if !sawSimple || !sawComplex {
		t.Errorf("case mix never produced both branches: simple=%v complex=%v", sawSimple, sawComplex)
	}
}

func TestSurveyServiceTimeIsMean(t *testing.T) {
	ctx := NewContext(1)
	s := &surveyStrategy{}
	d := scenario.Normal(10*time.Minute, 2*time.Minute)
	if got := s.ServiceTime(ctx, d); got != 10*time.Minute {
		t.Errorf("service time = %v, want 10m", got)
	}
}

func TestTriagePriority(t *testing.T) {
	flagged := scenario.EmergencySituation()
	plain := scenario.Baseline()

	if got := triagePriority(&flagged, 0.7); got != PriorityUrgent {
		t.Errorf("severe case under priority triage = %v, want urgent", got)
	}
	if got := triagePriority(&flagged, 0.2); got != PriorityNormal {
		t.Errorf("mild case under priority triage = %v, want normal", got)
	}
	if got := triagePriority(&plain, 0.9); got != PriorityNormal {
		t.Errorf("severe case without priority triage = %v, want normal", got)
	}
}

func TestNewStrategyUnknownKind(t *testing.T) {
	if _, err := NewStrategy("oracle"); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}
