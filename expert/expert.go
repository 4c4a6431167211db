// Package expert evaluates the clinic's decision rules for a single patient
// case. The evaluator is stateless: every decision is a pure function of the
// patient facts and the knowledge base, so one System can be shared by any
// number of concurrent callers.
package expert

import (
	"fmt"
	"time"

	"github.com/clinflow-xyz/go-clinflow/kb"
)

// Snapshot is the patient view presented to the rule tables. It is the same
// shape whether it comes from a simulated patient or an interactive form.
type Snapshot = kb.Facts

// Who made a certificate decision.
const (
	DecidedByNurse  = "nurse"
	DecidedByDoctor = "doctor"
	DecidedByPolicy = "policy_default"
)

// NurseAssessment is the triage outcome for one patient.
type NurseAssessment struct {
	ReferToDoctor bool    `json:"refer_to_doctor"`
	SeverityScore float64 `json:"severity_score"`
	Approved      bool    `json:"approved"`
	DurationDays  int     `json:"duration_days,omitempty"`
	RuleName      string  `json:"rule_name,omitempty"`
}

// DoctorEvaluation is the diagnosis outcome for one referred patient.
type DoctorEvaluation struct {
	CertificateEligible bool   `json:"certificate_eligible"`
	DurationDays        int    `json:"duration_days"`
	RuleName            string `json:"rule_name,omitempty"`
}

// CertificateDecision is the finalized outcome recorded for a case.
type CertificateDecision struct {
	Issued        bool      `json:"issued"`
	DurationDays  int       `json:"duration_days"`
	CertificateID string    `json:"certificate_id,omitempty"`
	RuleName      string    `json:"rule_name,omitempty"`
	DecidedBy     string    `json:"decided_by"`
	DecidedAt     time.Time `json:"decided_at"`
}

// System evaluates rules against patient snapshots. It holds no mutable
// state beyond the immutable knowledge base it reads.
type System struct {
	kb *kb.KnowledgeBase
}

// New creates an evaluator over the given knowledge base.
func New(k *kb.KnowledgeBase) *System {
	return &System{kb: k}
}

// AssessNurse runs the triage rules for one patient. Rules are applied most
// severe first; the first enabled match wins. A patient no rule matches is
// neither referred nor approved, which is the explicit fallback policy.
//
// A zero severity score is computed from the symptom list, so callers that
// only have symptoms need not score them first.
func (s *System) AssessNurse(snap Snapshot) (NurseAssessment, error) {
	if snap.SeverityScore == 0 && len(snap.Symptoms) > 0 {
		snap.SeverityScore = s.kb.SeverityScore(snap.Symptoms)
	}
	rules, err := s.kb.RulesFor(kb.DecisionTriage)
	if err != nil {
		return NurseAssessment{}, err
	}
	for _, r := range rules {
		if !r.Enabled || !r.Condition(snap) {
			continue
		}
		out := NurseAssessment{
			ReferToDoctor: r.Outcome.Refer,
			SeverityScore: snap.SeverityScore,
			Approved:      r.Outcome.Approve,
			RuleName:      r.Name,
		}
		if out.Approved {
			out.DurationDays = s.leaveDays(snap, r.Outcome)
		}
		return out, nil
	}
	return NurseAssessment{SeverityScore: snap.SeverityScore}, nil
}

// EvaluateDoctor runs the diagnosis rules for one referred patient. No
// matching rule means no certificate: the closed-world default, so an
// ungoverned symptom never auto-issues.
func (s *System) EvaluateDoctor(snap Snapshot) (DoctorEvaluation, error) {
	if snap.SeverityScore == 0 && len(snap.Symptoms) > 0 {
		snap.SeverityScore = s.kb.SeverityScore(snap.Symptoms)
	}
	rules, err := s.kb.RulesFor(kb.DecisionDiagnosis)
	if err != nil {
		return DoctorEvaluation{}, err
	}
	for _, r := range rules {
		if !r.Enabled || !r.Condition(snap) {
			continue
		}
		if !r.Outcome.Eligible {
			return DoctorEvaluation{RuleName: r.Name}, nil
		}
		return DoctorEvaluation{
			CertificateEligible: true,
			DurationDays:        s.leaveDays(snap, r.Outcome),
			RuleName:            r.Name,
		}, nil
	}
	return DoctorEvaluation{}, nil
}

// ResolveCertificate produces the final certificate decision for a case:
// referred patients take the doctor evaluation verbatim, non-referred
// patients take the triage outcome, and everything else is denied. The
// finalization decision point must be configured or the resolution fails.
//
// A nil evaluation for a referred patient denies; the flow only passes nil
// when the doctor step never ran.
func (s *System) ResolveCertificate(snap Snapshot, assessment NurseAssessment, eval *DoctorEvaluation, ref string, decidedAt time.Time) (CertificateDecision, error) {
	finalize, err := s.kb.RulesFor(kb.DecisionFinalize)
	if err != nil {
		return CertificateDecision{}, err
	}

	d := CertificateDecision{DecidedAt: decidedAt}
	switch {
	case assessment.ReferToDoctor:
		d.DecidedBy = DecidedByDoctor
		if eval != nil {
			d.Issued = eval.CertificateEligible
			d.DurationDays = eval.DurationDays
			d.RuleName = eval.RuleName
		}
		if d.RuleName == "" {
			d.DecidedBy = DecidedByPolicy
		}
	case assessment.Approved:
		d.DecidedBy = DecidedByNurse
		d.Issued = true
		d.DurationDays = assessment.DurationDays
		d.RuleName = assessment.RuleName
	default:
		d.DecidedBy = DecidedByNurse
		d.RuleName = assessment.RuleName
		if d.RuleName == "" {
			d.DecidedBy = DecidedByPolicy
		}
	}

	if !d.Issued {
		d.DurationDays = 0
	} else {
		d.CertificateID = CertificateID(ref, decidedAt)
		if d.RuleName == "" {
			d.RuleName = finalize[0].Name
		}
	}
	return d, nil
}

// SnapshotFromTemplate builds the facts for a predefined case from the
// catalog. Documentation is assumed complete; callers clear the flags when
// the form says otherwise.
func SnapshotFromTemplate(t kb.CaseTemplate) Snapshot {
	ct := kb.CaseSimple
	if t.Severity.Score() >= 0.5 {
		ct = kb.CaseComplex
	}
	return Snapshot{
		CaseType:        ct,
		Symptoms:        t.Symptoms,
		SeverityScore:   t.Severity.Score(),
		HasExcuseLetter: true,
		HasValidID:      true,
		RecommendedDays: t.RecommendedDays,
	}
}

// CertificateID formats a certificate identifier the way the clinic records
// them: MC-<reference>-<YYYYMMDDHHMM>.
func CertificateID(ref string, at time.Time) string {
	return fmt.Sprintf("MC-%s-%s", ref, at.Format("200601021504"))
}

func (s *System) leaveDays(snap Snapshot, o kb.Outcome) int {
	if o.DaysFromCase {
		if snap.RecommendedDays > 0 {
			return snap.RecommendedDays
		}
		return s.kb.LeaveDuration(snap.CaseType)
	}
	return o.Days
}
