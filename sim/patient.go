package sim

import (
	"time"

	"github.com/clinflow-xyz/go-clinflow/expert"
	"github.com/clinflow-xyz/go-clinflow/kb"
)

// State is a patient's position in the clinic flow.
type State string

const (
	StateArrived          State = "arrived"
	StateWaitingForNurse  State = "waiting_for_nurse"
	StateInNurseService   State = "in_nurse_service"
	StateWaitingForDoctor State = "waiting_for_doctor"
	StateInDoctorService  State = "in_doctor_service"
	StateNotReferred      State = "not_referred"
	StateFinalizing       State = "finalizing"
	StateExited           State = "exited"
	StateBalked           State = "balked"
	StateIncomplete       State = "incomplete"
)

// Patient is one simulated clinic visitor. Timestamps are offsets from
// clinic opening; optional marks stay nil for stages the patient never
// reached.
type Patient struct {
	ID       string      `json:"id"`
	Seq      int         `json:"seq"`
	Ref      string      `json:"ref"`
	State    State       `json:"state"`
	CaseType kb.CaseType `json:"case_type"`
	Symptoms []string    `json:"symptoms"`
	Severity float64     `json:"severity"`
	Priority Priority    `json:"priority"`

	HasExcuseLetter   bool `json:"has_excuse_letter"`
	HasValidID        bool `json:"has_valid_id"`
	ArrivedDuringPeak bool `json:"arrived_during_peak"`

	Arrival       time.Duration  `json:"arrival"`
	NurseStart    *time.Duration `json:"nurse_start,omitempty"`
	NurseEnd      *time.Duration `json:"nurse_end,omitempty"`
	DoctorStart   *time.Duration `json:"doctor_start,omitempty"`
	DoctorEnd     *time.Duration `json:"doctor_end,omitempty"`
	FinalizeStart *time.Duration `json:"finalize_start,omitempty"`
	FinalizeEnd   *time.Duration `json:"finalize_end,omitempty"`
	Exit          *time.Duration `json:"exit,omitempty"`

	NurseWait  time.Duration `json:"nurse_wait"`
	DoctorWait time.Duration `json:"doctor_wait"`

	Referred    bool                        `json:"referred"`
	Assessment  expert.NurseAssessment      `json:"assessment"`
	Evaluation  *expert.DoctorEvaluation    `json:"evaluation,omitempty"`
	Certificate *expert.CertificateDecision `json:"certificate,omitempty"`
}

// Completed reports whether the patient made it through finalization.
func (p *Patient) Completed() bool { return p.State == StateExited }

// CertificateIssued reports whether the visit ended with a certificate.
func (p *Patient) CertificateIssued() bool {
	return p.Certificate != nil && p.Certificate.Issued
}

// TotalTime returns the span from arrival to exit, or zero for patients
// that never exited.
func (p *Patient) TotalTime() time.Duration {
	if p.Exit == nil {
		return 0
	}
	return *p.Exit - p.Arrival
}

// Facts projects the patient into the attribute snapshot the rule tables
// evaluate.
func (p *Patient) Facts() kb.Facts {
	return kb.Facts{
		CaseType:        p.CaseType,
		Symptoms:        p.Symptoms,
		SeverityScore:   p.Severity,
		HasExcuseLetter: p.HasExcuseLetter,
		HasValidID:      p.HasValidID,
	}
}

func durPtr(d time.Duration) *time.Duration { return &d }
