package sim

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/clinflow-xyz/go-clinflow/kb"
	"github.com/clinflow-xyz/go-clinflow/scenario"
)

// Strategy kinds selectable per run.
const (
	StrategyAgent  = "agent_based"
	StrategySurvey = "survey_based"
)

// Strategy decides how a run turns scenario parameters into concrete
// arrivals, cases, and service times. The agent strategy samples from the
// configured distributions; the survey strategy replays their averages.
type Strategy interface {
	Name() string

	// NextArrival returns the gap until the next admission attempt.
	NextArrival(ctx *Context, scn *scenario.Scenario) time.Duration

	// NewCase fills in the clinical attributes of a fresh patient.
	NewCase(ctx *Context, scn *scenario.Scenario, kbase *kb.KnowledgeBase, p *Patient)

	// ServiceTime returns the duration of one service step.
	ServiceTime(ctx *Context, d scenario.Dist) time.Duration
}

// NewStrategy returns a fresh strategy instance for one run.
func NewStrategy(kind string) (Strategy, error) {
	switch kind {
	case StrategyAgent:
		return &agentStrategy{}, nil
	case StrategySurvey:
		return &surveyStrategy{}, nil
	default:
		return nil, fmt.Errorf("sim: unknown strategy %q", kind)
	}
}

func arrivalDist(ctx *Context, scn *scenario.Scenario) scenario.Dist {
	if scn.InPeak(ctx.Now()) {
		return scn.PeakArrivalDist()
	}
	return scn.Arrival
}

// agentStrategy samples every patient attribute from the scenario's
// distributions and probabilities.
type agentStrategy struct{}

func (agentStrategy) Name() string { return StrategyAgent }

func (agentStrategy) NextArrival(ctx *Context, scn *scenario.Scenario) time.Duration {
	return arrivalDist(ctx, scn).Sample(ctx.Rand())
}

func (agentStrategy) NewCase(ctx *Context, scn *scenario.Scenario, kbase *kb.KnowledgeBase, p *Patient) {
	rng := ctx.Rand()
	if rng.Float64() < scn.SimpleShare {
		p.CaseType = kb.CaseSimple
		p.Symptoms = pick(rng, kbase.SimpleSymptoms(), 1+rng.Intn(3))
	} else {
		p.CaseType = kb.CaseComplex
		p.Symptoms = pick(rng, kbase.SimpleSymptoms(), rng.Intn(3))
		p.Symptoms = append(p.Symptoms, pick(rng, kbase.ComplexSymptoms(), 1+rng.Intn(2))...)
	}
	p.HasExcuseLetter = rng.Float64() < scn.ExcuseLetterP
	if p.HasExcuseLetter {
		p.HasValidID = rng.Float64() < scn.ValidIDP
	}
	p.Severity = kbase.SeverityScore(p.Symptoms)
	p.Priority = triagePriority(scn, p.Severity)
}

func (agentStrategy) ServiceTime(ctx *Context, d scenario.Dist) time.Duration {
	return d.Sample(ctx.Rand())
}

// pick draws n distinct entries from list, keeping the draw order.
func pick(rng *rand.Rand, list []string, n int) []string {
	if n > len(list) {
		n = len(list)
	}
	if n <= 0 {
		return nil
	}
	out := make([]string, 0, n)
	for _, i := range rng.Perm(len(list))[:n] {
		out = append(out, list[i])
	}
	return out
}

// surveyStrategy replays reported averages: mean gaps, mean service
// times, and a case mix paced to hit the configured share exactly.
type surveyStrategy struct {
	caseMix quota
	letters quota
	validID quota
}

func (*surveyStrategy) Name() string { return StrategySurvey }

func (*surveyStrategy) NextArrival(ctx *Context, scn *scenario.Scenario) time.Duration {
	return arrivalDist(ctx, scn).MeanDuration()
}

func (s *surveyStrategy) NewCase(ctx *Context, scn *scenario.Scenario, kbase *kb.KnowledgeBase, p *Patient) {
	if s.caseMix.next(scn.SimpleShare) {
		p.CaseType = kb.CaseSimple
		p.Symptoms = headOf(kbase.SimpleSymptoms())
	} else {
		p.CaseType = kb.CaseComplex
		p.Symptoms = headOf(kbase.ComplexSymptoms())
	}
	p.HasExcuseLetter = s.letters.next(scn.ExcuseLetterP)
	if p.HasExcuseLetter {
		p.HasValidID = s.validID.next(scn.ValidIDP)
	}
	p.Severity = kbase.SeverityScore(p.Symptoms)
	p.Priority = triagePriority(scn, p.Severity)
}

func (*surveyStrategy) ServiceTime(_ *Context, d scenario.Dist) time.Duration {
	return d.MeanDuration()
}

func headOf(list []string) []string {
	if len(list) == 0 {
		return nil
	}
	return []string{list[0]}
}

// quota paces a boolean attribute so its observed rate tracks a target
// probability without randomness.
type quota struct {
	hits  int
	total int
}

func (q *quota) next(p float64) bool {
	q.total++
	if q.hits < int(p*float64(q.total)+0.5) {
		q.hits++
		return true
	}
	return false
}

func triagePriority(scn *scenario.Scenario, severity float64) Priority {
	if scn.PriorityTriage && severity >= 0.5 {
		return PriorityUrgent
	}
	return PriorityNormal
}
