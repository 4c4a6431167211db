package sim

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinflow-xyz/go-clinflow/expert"
	"github.com/clinflow-xyz/go-clinflow/kb"
	"github.com/clinflow-xyz/go-clinflow/scenario"
)

// Flow drives patients through the clinic state machine for one run:
// arrival, nurse assessment, optional doctor evaluation, and finalization
// with the administrative staff. Every admitted patient passes through
// finalization, certificate or not, so the paperwork step is never skipped
// for denials.
type Flow struct {
	ctx      *Context
	scn      *scenario.Scenario
	kbase    *kb.KnowledgeBase
	rules    *expert.System
	strategy Strategy
	anchor   time.Time
	seed     int64

	nurses  *Pool
	doctors *Pool
	staff   *Pool

	patients    []*Patient
	seq         int
	hardStopped bool
	err         error
}

func (f *Flow) start() {
	f.scheduleNextArrival()
	if hs := f.scn.HardStop.D(); hs > 0 {
		f.ctx.schedule(hs, classHardStop, f.hardStop)
	}
}

// hardStop freezes the run in place. Patients still in the building keep
// whatever timestamps they have and are reported as incomplete.
func (f *Flow) hardStop() {
	f.hardStopped = true
	f.ctx.stop()
}

// scheduleNextArrival keeps the arrival chain going until the admission
// window closes. Gaps come from the peak distribution while the current
// time sits inside a peak window.
func (f *Flow) scheduleNextArrival() {
	gap := f.strategy.NextArrival(f.ctx, f.scn)
	if f.ctx.Now()+gap >= f.scn.Duration.D() {
		return
	}
	f.ctx.schedule(gap, classArrival, f.admit)
}

func (f *Flow) admit() {
	f.scheduleNextArrival()
	p := f.newPatient()
	f.patients = append(f.patients, p)
	_, err := f.nurses.Request(PriorityNormal, func(t *Ticket) { f.startNurse(p, t) })
	if err != nil {
		p.State = StateBalked
		return
	}
	if p.State == StateArrived {
		p.State = StateWaitingForNurse
	}
}

func (f *Flow) newPatient() *Patient {
	f.seq++
	now := f.ctx.Now()
	p := &Patient{
		ID:                uuid.Must(uuid.NewRandomFromReader(f.ctx.Rand())).String(),
		Seq:               f.seq,
		Ref:               fmt.Sprintf("P%04d", f.seq),
		State:             StateArrived,
		Arrival:           now,
		ArrivedDuringPeak: f.scn.InPeak(now),
	}
	f.strategy.NewCase(f.ctx, f.scn, f.kbase, p)
	return p
}

func (f *Flow) startNurse(p *Patient, t *Ticket) {
	p.State = StateInNurseService
	p.NurseStart = durPtr(f.ctx.Now())
	p.NurseWait = t.Wait()
	d := f.strategy.ServiceTime(f.ctx, f.scn.NurseTime)
	f.ctx.schedule(d, classCompletion, func() { f.finishNurse(p, t) })
}

func (f *Flow) finishNurse(p *Patient, t *Ticket) {
	p.NurseEnd = durPtr(f.ctx.Now())
	assessment, err := f.rules.AssessNurse(p.Facts())
	if err != nil {
		f.fail(err)
		return
	}
	p.Assessment = assessment
	p.Severity = assessment.SeverityScore
	f.nurses.Release(t)
	if assessment.ReferToDoctor {
		p.Referred = true
		p.State = StateWaitingForDoctor
		if _, err := f.doctors.Request(p.Priority, func(dt *Ticket) { f.startDoctor(p, dt) }); err != nil {
			f.fail(err)
		}
		return
	}
	p.State = StateNotReferred
	f.requestFinalize(p)
}

func (f *Flow) startDoctor(p *Patient, t *Ticket) {
	p.State = StateInDoctorService
	p.DoctorStart = durPtr(f.ctx.Now())
	p.DoctorWait = t.Wait()
	dist := f.scn.SimpleTime
	if p.CaseType == kb.CaseComplex {
		dist = f.scn.ComplexTime
	}
	d := f.strategy.ServiceTime(f.ctx, dist)
	f.ctx.schedule(d, classCompletion, func() { f.finishDoctor(p, t) })
}

func (f *Flow) finishDoctor(p *Patient, t *Ticket) {
	p.DoctorEnd = durPtr(f.ctx.Now())
	eval, err := f.rules.EvaluateDoctor(p.Facts())
	if err != nil {
		f.fail(err)
		return
	}
	p.Evaluation = &eval
	f.doctors.Release(t)
	f.requestFinalize(p)
}

func (f *Flow) requestFinalize(p *Patient) {
	if _, err := f.staff.Request(PriorityNormal, func(t *Ticket) { f.startFinalize(p, t) }); err != nil {
		f.fail(err)
	}
}

func (f *Flow) startFinalize(p *Patient, t *Ticket) {
	p.State = StateFinalizing
	p.FinalizeStart = durPtr(f.ctx.Now())
	d := f.strategy.ServiceTime(f.ctx, f.scn.FinalizeTime)
	f.ctx.schedule(d, classCompletion, func() { f.finishFinalize(p, t) })
}

func (f *Flow) finishFinalize(p *Patient, t *Ticket) {
	now := f.ctx.Now()
	p.FinalizeEnd = durPtr(now)
	decision, err := f.rules.ResolveCertificate(p.Facts(), p.Assessment, p.Evaluation, p.Ref, f.anchor.Add(now))
	if err != nil {
		f.fail(err)
		return
	}
	p.Certificate = &decision
	f.staff.Release(t)
	p.State = StateExited
	p.Exit = durPtr(now)
}

// fail aborts the run at the first error so no partial statistics escape.
func (f *Flow) fail(err error) {
	if f.err == nil {
		f.err = err
	}
	f.ctx.stop()
}

func (f *Flow) result() *Result {
	for _, p := range f.patients {
		switch p.State {
		case StateExited, StateBalked:
		default:
			p.State = StateIncomplete
		}
	}
	res := &Result{
		Scenario:    f.scn.Name,
		Strategy:    f.strategy.Name(),
		Seed:        f.seed,
		Ruleset:     f.kbase.Fingerprint(),
		Anchor:      f.anchor,
		Duration:    f.scn.Duration.D(),
		EndTime:     f.ctx.Now(),
		HardStopped: f.hardStopped,
		Patients:    f.patients,
	}
	for _, p := range []*Pool{f.nurses, f.doctors, f.staff} {
		res.Pools = append(res.Pools, PoolUsage{
			Name:     p.Name(),
			Capacity: p.Capacity(),
			Busy:     p.BusyTime(),
			Grants:   p.Grants(),
		})
	}
	return res
}
