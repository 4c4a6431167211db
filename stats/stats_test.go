package stats

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/clinflow-xyz/go-clinflow/expert"
	"github.com/clinflow-xyz/go-clinflow/sim"
)

func TestComputeKnownSeries(t *testing.T) {
	got := Compute([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if got.Min != 2 || got.Max != 9 {
		t.Errorf("min/max = %v/%v, want 2/9", got.Min, got.Max)
	}
	if got.Mean != 5 {
		t.Errorf("mean = %v, want 5", got.Mean)
	}
	if got.Std != 2 {
		t.Errorf("std = %v, want 2", got.Std)
	}
	if got.Median != 4.5 {
		t.Errorf("median = %v, want 4.5", got.Median)
	}
}

func TestComputeOddMedian(t *testing.T) {
	got := Compute([]float64{0.8, 0.6, 0.7})
	if got.Median != 0.7 {
		t.Errorf("median = %v, want 0.7", got.Median)
	}
	if math.Abs(got.Mean-0.7) > 1e-9 {
		t.Errorf("mean = %v, want 0.70", got.Mean)
	}
}

func TestComputeEmpty(t *testing.T) {
	if got := Compute(nil); got != (Stat{}) {
		t.Errorf("empty series = %+v, want zero stat", got)
	}
}

func TestAggregateUniformSeriesHasZeroSpread(t *testing.T) {
	runs := make([]RunStatistics, 5)
	for i := range runs {
		runs[i] = RunStatistics{
			Scenario:    "baseline",
			Strategy:    "agent_based",
			Utilization: map[string]float64{"doctor": 0.70},
		}
	}

	summary, err := Aggregate(runs)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Runs != 5 {
		t.Errorf("runs = %d, want 5", summary.Runs)
	}

	u := summary.Utilization["doctor"]
	if math.Abs(u.Mean-0.70) > 1e-12 {
		t.Errorf("mean utilization = %v, want 0.70", u.Mean)
	}
	if u.Std > 1e-12 {
		t.Errorf("std = %v, want 0 for identical runs", u.Std)
	}
	if u.Min != 0.70 || u.Max != 0.70 {
		t.Errorf("min/max = %v/%v, want 0.70/0.70", u.Min, u.Max)
	}
}

func TestAggregateEmptyBatch(t *testing.T) {
	_, err := Aggregate(nil)
	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("err = %v, want InsufficientDataError", err)
	}
}

func TestFromResult(t *testing.T) {
	d := func(m int) time.Duration { return time.Duration(m) * time.Minute }
	mk := func(v time.Duration) *time.Duration { return &v }

	issued := &sim.Patient{
		Seq: 1, State: sim.StateExited, Referred: true, ArrivedDuringPeak: true,
		NurseStart: mk(d(5)), NurseWait: d(5),
		DoctorStart: mk(d(12)), DoctorWait: d(2),
		Exit: mk(d(30)),
		Certificate: &expert.CertificateDecision{
			Issued: true, DurationDays: 7, DecidedBy: expert.DecidedByDoctor,
		},
	}
	denied := &sim.Patient{
		Seq: 2, State: sim.StateExited,
		NurseStart: mk(d(8)), NurseWait: d(3),
		Exit:        mk(d(20)),
		Certificate: &expert.CertificateDecision{DecidedBy: expert.DecidedByNurse},
	}
	balked := &sim.Patient{Seq: 3, State: sim.StateBalked}
	stranded := &sim.Patient{
		Seq: 4, State: sim.StateIncomplete,
		NurseStart: mk(d(40)), NurseWait: d(4),
	}

	res := &sim.Result{
		Scenario: "baseline",
		Strategy: "agent_based",
		Seed:     11,
		EndTime:  time.Hour,
		Patients: []*sim.Patient{issued, denied, balked, stranded},
		Pools: []sim.PoolUsage{
			{Name: "nurse", Capacity: 2, Busy: time.Hour},
			{Name: "doctor", Capacity: 1, Busy: 30 * time.Minute},
		},
	}

	rs := FromResult(res)
	if rs.Arrived != 4 || rs.Completed != 2 || rs.Balked != 1 || rs.Incomplete != 1 {
		t.Errorf("counts = %d/%d/%d/%d, want 4/2/1/1",
			rs.Arrived, rs.Completed, rs.Balked, rs.Incomplete)
	}
	if rs.Referred != 1 || rs.Certificates != 1 {
		t.Errorf("referred/certificates = %d/%d, want 1/1", rs.Referred, rs.Certificates)
	}
	if rs.PeakArrivals != 1 {
		t.Errorf("peak arrivals = %d, want 1", rs.PeakArrivals)
	}
	if rs.ReferralRate != 0.25 || rs.CompletionRate != 0.5 || rs.ApprovalRate != 0.5 {
		t.Errorf("rates = %v/%v/%v, want 0.25/0.5/0.5",
			rs.ReferralRate, rs.CompletionRate, rs.ApprovalRate)
	}
	if rs.AvgNurseWait != d(4) || rs.MaxNurseWait != d(5) {
		t.Errorf("nurse wait = %v max %v, want 4m max 5m", rs.AvgNurseWait, rs.MaxNurseWait)
	}
	if rs.AvgTotalTime != d(25) || rs.MaxTotalTime != d(30) {
		t.Errorf("total time = %v max %v, want 25m max 30m", rs.AvgTotalTime, rs.MaxTotalTime)
	}
	if rs.AvgLeaveDays != 7 {
		t.Errorf("leave days = %v, want 7", rs.AvgLeaveDays)
	}
	if rs.Utilization["nurse"] != 0.5 {
		t.Errorf("nurse utilization = %v, want 0.5", rs.Utilization["nurse"])
	}
	if rs.Utilization["doctor"] != 0.5 {
		t.Errorf("doctor utilization = %v, want 0.5", rs.Utilization["doctor"])
	}
}

func TestUtilizationGuardsZeroSpan(t *testing.T) {
	u := utilization(sim.PoolUsage{Name: "nurse", Capacity: 1, Busy: time.Hour}, 0)
	if u != 0 {
		t.Errorf("utilization over zero span = %v, want 0", u)
	}
}

func TestHistogram(t *testing.T) {
	d := func(m int) time.Duration { return time.Duration(m) * time.Minute }
	h := NewHistogram([]time.Duration{d(1), d(6), d(7), d(22), d(100)}, 5*time.Minute, 4)

	want := []int{1, 2, 0, 2}
	for i, c := range want {
		if h.Counts[i] != c {
			t.Errorf("bin %d = %d, want %d", i, h.Counts[i], c)
		}
	}
	if h.Total != 5 {
		t.Errorf("total = %d, want 5", h.Total)
	}
	if h.MaxCount() != 2 {
		t.Errorf("max count = %d, want 2", h.MaxCount())
	}
	if got := h.Label(0); got != "0-5m" {
		t.Errorf("label 0 = %q, want 0-5m", got)
	}
	if got := h.Label(3); got != "15m+" {
		t.Errorf("label 3 = %q, want 15m+", got)
	}
}
