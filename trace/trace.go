// Package trace turns simulation runs into activity logs. Each patient
// becomes one case whose events follow the clinic stages, in the shape
// process-mining tools ingest: case id, activity, timestamp, resource,
// lifecycle.
package trace

import (
	"sort"
	"time"

	"github.com/clinflow-xyz/go-clinflow/scenario"
	"github.com/clinflow-xyz/go-clinflow/sim"
)

// Activities recorded for a patient case.
const (
	ActivityArrival  = "arrival"
	ActivityNurse    = "nurse_assessment"
	ActivityDoctor   = "doctor_evaluation"
	ActivityFinalize = "certificate_finalization"
	ActivityExit     = "exit"
	ActivityBalk     = "balked"
)

// Lifecycle markers for activities that span time.
const (
	LifecycleStart    = "start"
	LifecycleComplete = "complete"
)

// Event is a single entry in the activity log.
type Event struct {
	CaseID    string    `json:"case_id"`
	Activity  string    `json:"activity"`
	Timestamp time.Time `json:"timestamp"`
	Resource  string    `json:"resource,omitempty"`
	Lifecycle string    `json:"lifecycle,omitempty"`
}

// Log is a chronological activity log for one run.
type Log struct {
	Scenario string  `json:"scenario"`
	Strategy string  `json:"strategy"`
	Seed     int64   `json:"seed"`
	Events   []Event `json:"events"`
}

// FromResult builds the activity log of a completed run. Offsets are
// anchored to the run's wall-clock opening so timestamps are absolute.
func FromResult(res *sim.Result) *Log {
	l := &Log{
		Scenario: res.Scenario,
		Strategy: res.Strategy,
		Seed:     res.Seed,
	}
	at := func(offset time.Duration) time.Time { return res.Anchor.Add(offset) }

	for _, p := range res.Patients {
		add := func(activity, resource, lifecycle string, offset *time.Duration) {
			if offset == nil {
				return
			}
			l.Events = append(l.Events, Event{
				CaseID:    p.ID,
				Activity:  activity,
				Timestamp: at(*offset),
				Resource:  resource,
				Lifecycle: lifecycle,
			})
		}

		arrival := p.Arrival
		add(ActivityArrival, "", "", &arrival)
		if p.State == sim.StateBalked {
			add(ActivityBalk, "", "", &arrival)
			continue
		}
		add(ActivityNurse, scenario.PoolNurse, LifecycleStart, p.NurseStart)
		add(ActivityNurse, scenario.PoolNurse, LifecycleComplete, p.NurseEnd)
		add(ActivityDoctor, scenario.PoolDoctor, LifecycleStart, p.DoctorStart)
		add(ActivityDoctor, scenario.PoolDoctor, LifecycleComplete, p.DoctorEnd)
		add(ActivityFinalize, scenario.PoolStaff, LifecycleStart, p.FinalizeStart)
		add(ActivityFinalize, scenario.PoolStaff, LifecycleComplete, p.FinalizeEnd)
		add(ActivityExit, "", "", p.Exit)
	}

	sort.SliceStable(l.Events, func(i, j int) bool {
		return l.Events[i].Timestamp.Before(l.Events[j].Timestamp)
	})
	return l
}

// Cases returns the number of distinct cases in the log.
func (l *Log) Cases() int {
	seen := make(map[string]bool)
	for _, e := range l.Events {
		seen[e.CaseID] = true
	}
	return len(seen)
}

// Activities returns the sorted set of activities that occur in the log.
func (l *Log) Activities() []string {
	seen := make(map[string]bool)
	for _, e := range l.Events {
		seen[e.Activity] = true
	}
	out := make([]string, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Variant returns the activity sequence of one case, in log order.
func (l *Log) Variant(caseID string) []string {
	var out []string
	for _, e := range l.Events {
		if e.CaseID != caseID {
			continue
		}
		if e.Lifecycle == LifecycleStart {
			continue
		}
		out = append(out, e.Activity)
	}
	return out
}
