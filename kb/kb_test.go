package kb

import (
	"errors"
	"testing"
)

func TestDefaultTemplates(t *testing.T) {
	k := Default()
	templates := k.CaseTemplates()
	if len(templates) != 14 {
		t.Fatalf("Expected 14 case templates, got %d", len(templates))
	}

	tpl, ok := k.TemplateByKey("case_10")
	if !ok {
		t.Fatal("Expected template case_10 to exist")
	}
	if tpl.Name != "Infectious Disease" {
		t.Errorf("Expected Infectious Disease, got %s", tpl.Name)
	}
	if tpl.RecommendedDays != 14 {
		t.Errorf("Expected 14 recommended days, got %d", tpl.RecommendedDays)
	}
	if !tpl.RequiresDoctor {
		t.Error("Expected case_10 to require a doctor")
	}

	if _, ok := k.TemplateByKey("case_99"); ok {
		t.Error("Expected lookup of unknown template to fail")
	}
}

func TestRulesForSortedByThreshold(t *testing.T) {
	k := Default()
	rules, err := k.RulesFor(DecisionTriage)
	if err != nil {
		t.Fatalf("RulesFor(triage) failed: %v", err)
	}
	if len(rules) == 0 {
		t.Fatal("Expected triage rules to be registered")
	}
	for i := 1; i < len(rules); i++ {
		if rules[i-1].Threshold < rules[i].Threshold {
			t.Errorf("Rules out of order: %s (%.2f) before %s (%.2f)",
				rules[i-1].Name, rules[i-1].Threshold, rules[i].Name, rules[i].Threshold)
		}
	}
	if rules[0].Name != "triage_documentation_gate" {
		t.Errorf("Expected documentation gate first, got %s", rules[0].Name)
	}
}

func TestRulesForUnknownPoint(t *testing.T) {
	k := Default()
	_, err := k.RulesFor(DecisionPoint("walk_in_billing"))
	if err == nil {
		t.Fatal("Expected error for unregistered decision point")
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected *ConfigError, got %T", err)
	}
}

func TestSeverityScore(t *testing.T) {
	k := Default()
	tests := []struct {
		name     string
		symptoms []string
		want     float64
	}{
		{"empty", nil, 0},
		{"all simple", []string{"cold", "headache"}, 0},
		{"all complex", []string{"chronic pain", "severe injury"}, 1},
		{"mixed third", []string{"cold", "headache", "chronic pain"}, 1.0 / 3.0},
		{"unknown symptom counts as simple", []string{"hiccups"}, 0},
	}
	for _, tt := range tests {
		if got := k.SeverityScore(tt.symptoms); got != tt.want {
			t.Errorf("%s: expected severity %.3f, got %.3f", tt.name, tt.want, got)
		}
	}
}

func TestConditionCombinators(t *testing.T) {
	facts := Facts{
		CaseType:        CaseComplex,
		Symptoms:        []string{"cold", "chronic pain", "severe injury"},
		SeverityScore:   0.67,
		HasExcuseLetter: true,
		HasValidID:      false,
	}

	if !MinSeverity(0.5)(facts) {
		t.Error("MinSeverity(0.5) should match severity 0.67")
	}
	if MaxSeverity(0.5)(facts) {
		t.Error("MaxSeverity(0.5) should not match severity 0.67")
	}
	if !CaseIs(CaseComplex)(facts) {
		t.Error("CaseIs(complex) should match")
	}
	if !MinSymptoms(3)(facts) {
		t.Error("MinSymptoms(3) should match three symptoms")
	}
	if !DocsMissing()(facts) {
		t.Error("DocsMissing should match an invalid ID")
	}
	if DocsPresent()(facts) {
		t.Error("DocsPresent should not match an invalid ID")
	}
	if !AllOf(MinSeverity(0.5), CaseIs(CaseComplex))(facts) {
		t.Error("AllOf should match when every part matches")
	}
	if AllOf(MinSeverity(0.5), DocsPresent())(facts) {
		t.Error("AllOf should fail when one part fails")
	}
	if !AnyOf(DocsPresent(), MinSeverity(0.5))(facts) {
		t.Error("AnyOf should match when one part matches")
	}
}

func TestLoadReplacesOnlyOverriddenPoint(t *testing.T) {
	k, err := Load(Config{
		Rules: []RuleSpec{
			{
				Name:      "triage_always_refer",
				Point:     DecisionTriage,
				Threshold: 0,
				Then:      OutcomeSpec{Refer: true},
			},
		},
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	triage, err := k.RulesFor(DecisionTriage)
	if err != nil {
		t.Fatalf("RulesFor(triage) failed: %v", err)
	}
	if len(triage) != 1 || triage[0].Name != "triage_always_refer" {
		t.Errorf("Expected the override to replace the triage rules, got %d rules", len(triage))
	}

	diagnosis, err := k.RulesFor(DecisionDiagnosis)
	if err != nil {
		t.Fatalf("RulesFor(diagnosis) failed: %v", err)
	}
	if len(diagnosis) != 2 {
		t.Errorf("Expected default diagnosis rules to survive, got %d", len(diagnosis))
	}
}

func TestLoadRejectsInvalidSpecs(t *testing.T) {
	bad := []Config{
		{Rules: []RuleSpec{{Name: "", Point: DecisionTriage}}},
		{Rules: []RuleSpec{{Name: "r", Point: DecisionPoint("nowhere")}}},
		{Rules: []RuleSpec{{Name: "r", Point: DecisionTriage, Threshold: 1.5}}},
		{Rules: []RuleSpec{{Name: "r", Point: DecisionTriage, Then: OutcomeSpec{Days: -1}}}},
		{Templates: []CaseTemplate{{Key: "a"}, {Key: "a"}}},
		{Templates: []CaseTemplate{{Key: "a", RecommendedDays: -2}}},
	}
	for i, cfg := range bad {
		if _, err := Load(cfg); err == nil {
			t.Errorf("Config %d: expected validation error", i)
		}
	}
}

func TestDisabledRuleKept(t *testing.T) {
	off := false
	k, err := Load(Config{
		Rules: []RuleSpec{
			{Name: "triage_off", Point: DecisionTriage, Threshold: 0.9, Enabled: &off, Then: OutcomeSpec{Refer: true}},
			{Name: "triage_on", Point: DecisionTriage, Threshold: 0.1, Then: OutcomeSpec{Approve: true}},
		},
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	rules, err := k.RulesFor(DecisionTriage)
	if err != nil {
		t.Fatalf("RulesFor failed: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("Expected 2 rules, got %d", len(rules))
	}
	if rules[0].Enabled {
		t.Error("Expected the higher-threshold rule to be disabled")
	}
}

func TestLeaveDurationDefaults(t *testing.T) {
	k := Default()
	if got := k.LeaveDuration(CaseSimple); got != 2 {
		t.Errorf("Expected 2 days for simple cases, got %d", got)
	}
	if got := k.LeaveDuration(CaseComplex); got != 7 {
		t.Errorf("Expected 7 days for complex cases, got %d", got)
	}
}

func TestFingerprint(t *testing.T) {
	a := Default().Fingerprint()
	b := Default().Fingerprint()
	if a == "" {
		t.Fatal("Expected a non-empty fingerprint")
	}
	if a != b {
		t.Errorf("Fingerprint not stable: %s vs %s", a, b)
	}

	k, err := Load(Config{
		Rules: []RuleSpec{{Name: "triage_always_refer", Point: DecisionTriage, Then: OutcomeSpec{Refer: true}}},
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if k.Fingerprint() == a {
		t.Error("Expected a different fingerprint after overriding rules")
	}
}

func TestLoadFileEmptyPathReturnsDefaults(t *testing.T) {
	k, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile(\"\") failed: %v", err)
	}
	if len(k.CaseTemplates()) != 14 {
		t.Errorf("Expected default templates, got %d", len(k.CaseTemplates()))
	}
}
