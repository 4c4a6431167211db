package expert

import (
	"errors"
	"testing"
	"time"

	"github.com/clinflow-xyz/go-clinflow/kb"
)

func docsOK(snap Snapshot) Snapshot {
	snap.HasExcuseLetter = true
	snap.HasValidID = true
	return snap
}

func TestAssessNurseDocumentationGate(t *testing.T) {
	s := New(kb.Default())
	out, err := s.AssessNurse(Snapshot{
		CaseType: kb.CaseSimple,
		Symptoms: []string{"cold"},
		// No excuse letter, no ID.
	})
	if err != nil {
		t.Fatalf("AssessNurse failed: %v", err)
	}
	if out.ReferToDoctor || out.Approved {
		t.Errorf("Expected denial without documentation, got refer=%v approved=%v", out.ReferToDoctor, out.Approved)
	}
	if out.RuleName != "triage_documentation_gate" {
		t.Errorf("Expected the documentation gate to match, got %q", out.RuleName)
	}
}

func TestAssessNurseSimpleApproval(t *testing.T) {
	s := New(kb.Default())
	out, err := s.AssessNurse(docsOK(Snapshot{
		CaseType: kb.CaseSimple,
		Symptoms: []string{"cold", "headache"},
	}))
	if err != nil {
		t.Fatalf("AssessNurse failed: %v", err)
	}
	if out.ReferToDoctor {
		t.Error("Simple case should not be referred")
	}
	if !out.Approved {
		t.Error("Simple case with valid documentation should be approved")
	}
	if out.DurationDays != 2 {
		t.Errorf("Expected the standard 2-day simple leave, got %d", out.DurationDays)
	}
	if out.SeverityScore != 0 {
		t.Errorf("Expected severity 0 for all-simple symptoms, got %.2f", out.SeverityScore)
	}
}

func TestAssessNurseComplexReferral(t *testing.T) {
	s := New(kb.Default())
	out, err := s.AssessNurse(docsOK(Snapshot{
		CaseType: kb.CaseComplex,
		Symptoms: []string{"chronic pain", "severe injury"},
	}))
	if err != nil {
		t.Fatalf("AssessNurse failed: %v", err)
	}
	if !out.ReferToDoctor {
		t.Error("All-complex symptoms should be referred")
	}
	if out.SeverityScore != 1 {
		t.Errorf("Expected severity 1.0, got %.2f", out.SeverityScore)
	}
	if out.RuleName != "triage_complex_referral" {
		t.Errorf("Expected triage_complex_referral, got %q", out.RuleName)
	}
}

func TestAssessNurseMultiSymptomReferral(t *testing.T) {
	s := New(kb.Default())
	// One complex symptom in three: below the 0.5 referral threshold but
	// enough symptoms for the multi-symptom rule.
	out, err := s.AssessNurse(docsOK(Snapshot{
		CaseType: kb.CaseComplex,
		Symptoms: []string{"cold", "headache", "chronic pain"},
	}))
	if err != nil {
		t.Fatalf("AssessNurse failed: %v", err)
	}
	if !out.ReferToDoctor {
		t.Error("Multi-symptom mixed case should be referred")
	}
	if out.RuleName != "triage_multi_symptom_referral" {
		t.Errorf("Expected triage_multi_symptom_referral, got %q", out.RuleName)
	}
}

func TestAssessNurseDefaultNoReferral(t *testing.T) {
	// A rule table that matches nothing exercises the explicit fallback.
	k, err := kb.New(kb.Config{
		Rules: []kb.RuleSpec{
			{Name: "triage_never", Point: kb.DecisionTriage, Threshold: 0.99,
				When: kb.ConditionSpec{MinSeverity: ptr(0.99)}, Then: kb.OutcomeSpec{Refer: true}},
		},
	})
	if err != nil {
		t.Fatalf("kb.New failed: %v", err)
	}
	out, err := New(k).AssessNurse(docsOK(Snapshot{CaseType: kb.CaseSimple, Symptoms: []string{"cold"}}))
	if err != nil {
		t.Fatalf("AssessNurse failed: %v", err)
	}
	if out.ReferToDoctor || out.Approved || out.RuleName != "" {
		t.Errorf("Expected the unmatched fallback (no referral, no approval), got %+v", out)
	}
}

func TestEvaluateDoctorHighSeverity(t *testing.T) {
	s := New(kb.Default())
	out, err := s.EvaluateDoctor(docsOK(Snapshot{
		CaseType: kb.CaseComplex,
		Symptoms: []string{"infectious disease", "recurring fever"},
	}))
	if err != nil {
		t.Fatalf("EvaluateDoctor failed: %v", err)
	}
	if !out.CertificateEligible {
		t.Error("Severity 1.0 should be certificate eligible")
	}
	if out.DurationDays != 7 {
		t.Errorf("Expected the standard 7-day complex leave, got %d", out.DurationDays)
	}
	if out.RuleName != "diagnosis_high_severity" {
		t.Errorf("Expected diagnosis_high_severity, got %q", out.RuleName)
	}
}

func TestEvaluateDoctorTemplateDaysWin(t *testing.T) {
	s := New(kb.Default())
	out, err := s.EvaluateDoctor(docsOK(Snapshot{
		CaseType:        kb.CaseComplex,
		SeverityScore:   0.9,
		RecommendedDays: 10,
	}))
	if err != nil {
		t.Fatalf("EvaluateDoctor failed: %v", err)
	}
	if !out.CertificateEligible {
		t.Fatal("Expected eligibility at severity 0.9")
	}
	if out.DurationDays != 10 {
		t.Errorf("Expected the template's 10 days, got %d", out.DurationDays)
	}
}

func TestEvaluateDoctorDefaultDeny(t *testing.T) {
	s := New(kb.Default())
	// Severity 0.5: referred at triage, but below the doctor's 0.7 bar and
	// above nothing else. No rule matches.
	out, err := s.EvaluateDoctor(docsOK(Snapshot{
		CaseType:      kb.CaseComplex,
		SeverityScore: 0.5,
	}))
	if err != nil {
		t.Fatalf("EvaluateDoctor failed: %v", err)
	}
	if out.CertificateEligible {
		t.Error("Unmatched case must never be eligible")
	}
	if out.DurationDays != 0 {
		t.Errorf("Default-deny must carry duration 0, got %d", out.DurationDays)
	}
	if out.RuleName != "" {
		t.Errorf("Default-deny should not name a rule, got %q", out.RuleName)
	}
}

func TestEvaluateDoctorDocumentationGate(t *testing.T) {
	s := New(kb.Default())
	out, err := s.EvaluateDoctor(Snapshot{
		CaseType:      kb.CaseComplex,
		SeverityScore: 0.9,
		// Documentation missing despite the severity.
	})
	if err != nil {
		t.Fatalf("EvaluateDoctor failed: %v", err)
	}
	if out.CertificateEligible {
		t.Error("Missing documentation must deny regardless of severity")
	}
	if out.RuleName != "diagnosis_documentation_gate" {
		t.Errorf("Expected diagnosis_documentation_gate, got %q", out.RuleName)
	}
}

func TestResolveCertificateNursePath(t *testing.T) {
	s := New(kb.Default())
	snap := docsOK(Snapshot{CaseType: kb.CaseSimple, Symptoms: []string{"flu"}})
	assessment, err := s.AssessNurse(snap)
	if err != nil {
		t.Fatalf("AssessNurse failed: %v", err)
	}
	at := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)
	d, err := s.ResolveCertificate(snap, assessment, nil, "S12345", at)
	if err != nil {
		t.Fatalf("ResolveCertificate failed: %v", err)
	}
	if !d.Issued {
		t.Fatal("Nurse-approved case should issue a certificate")
	}
	if d.DecidedBy != DecidedByNurse {
		t.Errorf("Expected decided_by=nurse, got %s", d.DecidedBy)
	}
	if d.CertificateID != "MC-S12345-202503141030" {
		t.Errorf("Unexpected certificate id %q", d.CertificateID)
	}
	if d.DurationDays != 2 {
		t.Errorf("Expected 2 days, got %d", d.DurationDays)
	}
}

func TestResolveCertificateDoctorDenied(t *testing.T) {
	s := New(kb.Default())
	snap := docsOK(Snapshot{CaseType: kb.CaseComplex, SeverityScore: 0.5})
	assessment := NurseAssessment{ReferToDoctor: true, SeverityScore: 0.5, RuleName: "triage_complex_referral"}
	eval := DoctorEvaluation{} // default deny
	d, err := s.ResolveCertificate(snap, assessment, &eval, "S1", time.Now())
	if err != nil {
		t.Fatalf("ResolveCertificate failed: %v", err)
	}
	if d.Issued {
		t.Error("Denied evaluation must not issue")
	}
	if d.DurationDays != 0 {
		t.Errorf("Denied decision must carry 0 days, got %d", d.DurationDays)
	}
	if d.CertificateID != "" {
		t.Errorf("Denied decision must not carry a certificate id, got %q", d.CertificateID)
	}
	if d.DecidedBy != DecidedByPolicy {
		t.Errorf("Unnamed denial should fall to the policy default, got %s", d.DecidedBy)
	}
}

func TestResolveCertificatePolicyDefault(t *testing.T) {
	s := New(kb.Default())
	d, err := s.ResolveCertificate(Snapshot{}, NurseAssessment{}, nil, "S1", time.Now())
	if err != nil {
		t.Fatalf("ResolveCertificate failed: %v", err)
	}
	if d.Issued {
		t.Error("Unmatched case must not issue")
	}
	if d.DecidedBy != DecidedByPolicy {
		t.Errorf("Expected policy_default, got %s", d.DecidedBy)
	}
}

func TestResolveCertificateMissingFinalizeRules(t *testing.T) {
	k, err := kb.New(kb.Config{
		Rules: []kb.RuleSpec{
			{Name: "triage_simple", Point: kb.DecisionTriage, Then: kb.OutcomeSpec{Approve: true, Days: 1}},
		},
	})
	if err != nil {
		t.Fatalf("kb.New failed: %v", err)
	}
	s := New(k)
	_, err = s.ResolveCertificate(Snapshot{}, NurseAssessment{Approved: true, DurationDays: 1}, nil, "S1", time.Now())
	if err == nil {
		t.Fatal("Expected a configuration error without finalization rules")
	}
	var cfgErr *kb.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected *kb.ConfigError, got %T", err)
	}
}

func TestSnapshotFromTemplate(t *testing.T) {
	k := kb.Default()
	tpl, ok := k.TemplateByKey("case_9")
	if !ok {
		t.Fatal("Expected case_9 to exist")
	}
	snap := SnapshotFromTemplate(tpl)
	if snap.CaseType != kb.CaseComplex {
		t.Errorf("High severity template should map to a complex case, got %s", snap.CaseType)
	}
	if snap.RecommendedDays != 10 {
		t.Errorf("Expected 10 recommended days, got %d", snap.RecommendedDays)
	}
	if !snap.DocsValid() {
		t.Error("Template snapshots assume complete documentation")
	}
}

func ptr(v float64) *float64 { return &v }
