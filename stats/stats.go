package stats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/clinflow-xyz/go-clinflow/sim"
)

// InsufficientDataError reports an aggregation with nothing to aggregate.
type InsufficientDataError struct {
	Metric string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("stats: no data for %s", e.Metric)
}

// Stat is the statistical summary of one metric.
type Stat struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
}

// Compute calculates the summary of a series: extremes, mean, median, and
// population standard deviation.
func Compute(data []float64) Stat {
	if len(data) == 0 {
		return Stat{}
	}

	min := data[0]
	max := data[0]
	sum := 0.0
	for _, v := range data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	mean := sum / float64(len(data))

	sumSq := 0.0
	for _, v := range data {
		diff := v - mean
		sumSq += diff * diff
	}
	std := math.Sqrt(sumSq / float64(len(data)))

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	var median float64
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		median = sorted[mid]
	}

	return Stat{
		Min:    min,
		Max:    max,
		Mean:   mean,
		Median: median,
		Std:    std,
	}
}

// RunStatistics condenses one run into counts, rates, waits, and pool
// utilization.
type RunStatistics struct {
	Scenario string `json:"scenario"`
	Strategy string `json:"strategy"`
	Seed     int64  `json:"seed"`

	Arrived      int `json:"arrived"`
	Completed    int `json:"completed"`
	Balked       int `json:"balked"`
	Incomplete   int `json:"incomplete"`
	Referred     int `json:"referred"`
	Certificates int `json:"certificates"`
	PeakArrivals int `json:"peak_arrivals"`

	ReferralRate   float64 `json:"referral_rate"`   // referred / arrived
	ApprovalRate   float64 `json:"approval_rate"`   // certificates / completed
	CompletionRate float64 `json:"completion_rate"` // completed / arrived

	AvgNurseWait  time.Duration `json:"avg_nurse_wait"`
	MaxNurseWait  time.Duration `json:"max_nurse_wait"`
	AvgDoctorWait time.Duration `json:"avg_doctor_wait"`
	MaxDoctorWait time.Duration `json:"max_doctor_wait"`
	AvgTotalTime  time.Duration `json:"avg_total_time"`
	MaxTotalTime  time.Duration `json:"max_total_time"`

	AvgLeaveDays float64 `json:"avg_leave_days"` // over issued certificates

	Utilization map[string]float64 `json:"utilization"` // pool name to busy fraction
}

// FromResult condenses a completed run. Waits average over patients who
// reached the stage in question; total time averages over completed
// visits only.
func FromResult(res *sim.Result) RunStatistics {
	rs := RunStatistics{
		Scenario:    res.Scenario,
		Strategy:    res.Strategy,
		Seed:        res.Seed,
		Arrived:     len(res.Patients),
		Utilization: make(map[string]float64, len(res.Pools)),
	}

	var nurseWaits, doctorWaits, totals []time.Duration
	leaveDays := 0
	for _, p := range res.Patients {
		switch p.State {
		case sim.StateExited:
			rs.Completed++
		case sim.StateBalked:
			rs.Balked++
		case sim.StateIncomplete:
			rs.Incomplete++
		}
		if p.Referred {
			rs.Referred++
		}
		if p.ArrivedDuringPeak {
			rs.PeakArrivals++
		}
		if p.CertificateIssued() {
			rs.Certificates++
			leaveDays += p.Certificate.DurationDays
		}
		if p.NurseStart != nil {
			nurseWaits = append(nurseWaits, p.NurseWait)
		}
		if p.DoctorStart != nil {
			doctorWaits = append(doctorWaits, p.DoctorWait)
		}
		if p.Completed() {
			totals = append(totals, p.TotalTime())
		}
	}

	if rs.Arrived > 0 {
		rs.ReferralRate = float64(rs.Referred) / float64(rs.Arrived)
		rs.CompletionRate = float64(rs.Completed) / float64(rs.Arrived)
	}
	if rs.Completed > 0 {
		rs.ApprovalRate = float64(rs.Certificates) / float64(rs.Completed)
	}
	if rs.Certificates > 0 {
		rs.AvgLeaveDays = float64(leaveDays) / float64(rs.Certificates)
	}

	rs.AvgNurseWait, rs.MaxNurseWait = meanMax(nurseWaits)
	rs.AvgDoctorWait, rs.MaxDoctorWait = meanMax(doctorWaits)
	rs.AvgTotalTime, rs.MaxTotalTime = meanMax(totals)

	for _, u := range res.Pools {
		rs.Utilization[u.Name] = utilization(u, res.EndTime)
	}
	return rs
}

func meanMax(values []time.Duration) (mean, max time.Duration) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum time.Duration
	for _, v := range values {
		sum += v
		if v > max {
			max = v
		}
	}
	return sum / time.Duration(len(values)), max
}

func utilization(u sim.PoolUsage, span time.Duration) float64 {
	if span <= 0 || u.Capacity <= 0 {
		return 0
	}
	return float64(u.Busy) / (float64(span) * float64(u.Capacity))
}

// ScenarioSummary aggregates run statistics across repeated runs of one
// scenario and strategy.
type ScenarioSummary struct {
	Scenario string `json:"scenario"`
	Strategy string `json:"strategy"`
	Runs     int    `json:"runs"`

	Arrived      Stat `json:"arrived"`
	Completed    Stat `json:"completed"`
	Balked       Stat `json:"balked"`
	Incomplete   Stat `json:"incomplete"`
	Referred     Stat `json:"referred"`
	Certificates Stat `json:"certificates"`

	ReferralRate   Stat `json:"referral_rate"`
	ApprovalRate   Stat `json:"approval_rate"`
	CompletionRate Stat `json:"completion_rate"`

	NurseWaitMin  Stat `json:"nurse_wait_min"`  // average nurse wait, minutes
	DoctorWaitMin Stat `json:"doctor_wait_min"` // average doctor wait, minutes
	TotalTimeMin  Stat `json:"total_time_min"`  // average door-to-door time, minutes
	LeaveDays     Stat `json:"leave_days"`

	Utilization map[string]Stat `json:"utilization"`
}

// Aggregate summarizes a batch of runs. It refuses an empty batch: a
// summary of nothing is not a summary.
func Aggregate(runs []RunStatistics) (ScenarioSummary, error) {
	if len(runs) == 0 {
		return ScenarioSummary{}, &InsufficientDataError{Metric: "scenario summary"}
	}

	summary := ScenarioSummary{
		Scenario:    runs[0].Scenario,
		Strategy:    runs[0].Strategy,
		Runs:        len(runs),
		Utilization: make(map[string]Stat),
	}

	series := func(f func(RunStatistics) float64) Stat {
		values := make([]float64, len(runs))
		for i, r := range runs {
			values[i] = f(r)
		}
		return Compute(values)
	}

	summary.Arrived = series(func(r RunStatistics) float64 { return float64(r.Arrived) })
	summary.Completed = series(func(r RunStatistics) float64 { return float64(r.Completed) })
	summary.Balked = series(func(r RunStatistics) float64 { return float64(r.Balked) })
	summary.Incomplete = series(func(r RunStatistics) float64 { return float64(r.Incomplete) })
	summary.Referred = series(func(r RunStatistics) float64 { return float64(r.Referred) })
	summary.Certificates = series(func(r RunStatistics) float64 { return float64(r.Certificates) })

	summary.ReferralRate = series(func(r RunStatistics) float64 { return r.ReferralRate })
	summary.ApprovalRate = series(func(r RunStatistics) float64 { return r.ApprovalRate })
	summary.CompletionRate = series(func(r RunStatistics) float64 { return r.CompletionRate })

	summary.NurseWaitMin = series(func(r RunStatistics) float64 { return r.AvgNurseWait.Minutes() })
	summary.DoctorWaitMin = series(func(r RunStatistics) float64 { return r.AvgDoctorWait.Minutes() })
	summary.TotalTimeMin = series(func(r RunStatistics) float64 { return r.AvgTotalTime.Minutes() })
	summary.LeaveDays = series(func(r RunStatistics) float64 { return r.AvgLeaveDays })

	for _, name := range poolNames(runs) {
		values := make([]float64, len(runs))
		for i, r := range runs {
			values[i] = r.Utilization[name]
		}
		summary.Utilization[name] = Compute(values)
	}
	return summary, nil
}

func poolNames(runs []RunStatistics) []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range runs {
		for name := range r.Utilization {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}
