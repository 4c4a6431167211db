// Package scenario defines named simulation configurations: staffing,
// timing distributions, arrival behavior, case mix, and queue policy for
// one clinic day.
package scenario

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigError reports an invalid scenario parameter. It is fatal: a run
// must not start from a scenario that fails validation.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("scenario: bad parameter %q: %s", e.Field, e.Reason)
}

// Duration wraps time.Duration so configuration files carry readable
// strings ("5m", "1h30m") instead of nanosecond integers.
type Duration time.Duration

// D returns the wrapped time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("scenario: duration must be a string like \"5m\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("scenario: bad duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) { return d.String(), nil }

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("scenario: bad duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

// Distribution kinds.
const (
	DistConstant    = "constant"
	DistUniform     = "uniform"
	DistNormal      = "normal"
	DistExponential = "exponential"
)

// Dist describes a service or inter-arrival time distribution. The survey
// strategy uses the mean; the agent strategy samples.
type Dist struct {
	Kind   string   `yaml:"kind,omitempty" json:"kind,omitempty"`
	Value  Duration `yaml:"value,omitempty" json:"value,omitempty"`   // constant
	Min    Duration `yaml:"min,omitempty" json:"min,omitempty"`       // uniform
	Max    Duration `yaml:"max,omitempty" json:"max,omitempty"`       // uniform
	Mean   Duration `yaml:"mean,omitempty" json:"mean,omitempty"`     // normal, exponential
	StdDev Duration `yaml:"stddev,omitempty" json:"stddev,omitempty"` // normal
}

// Constant builds a fixed-value distribution.
func Constant(v time.Duration) Dist {
	return Dist{Kind: DistConstant, Value: Duration(v)}
}

// Uniform builds a uniform distribution over [min, max).
func Uniform(min, max time.Duration) Dist {
	return Dist{Kind: DistUniform, Min: Duration(min), Max: Duration(max)}
}

// Normal builds a normal distribution, clamped at zero when sampled.
func Normal(mean, stddev time.Duration) Dist {
	return Dist{Kind: DistNormal, Mean: Duration(mean), StdDev: Duration(stddev)}
}

// Exponential builds an exponential distribution with the given mean.
func Exponential(mean time.Duration) Dist {
	return Dist{Kind: DistExponential, Mean: Duration(mean)}
}

// IsZero reports whether the distribution was left unset.
func (d Dist) IsZero() bool {
	return d.Kind == "" && d.Value == 0 && d.Min == 0 && d.Max == 0 && d.Mean == 0 && d.StdDev == 0
}

// MeanDuration returns the distribution's expected value.
func (d Dist) MeanDuration() time.Duration {
	switch d.Kind {
	case "", DistConstant:
		return d.Value.D()
	case DistUniform:
		return (d.Min.D() + d.Max.D()) / 2
	case DistNormal, DistExponential:
		return d.Mean.D()
	}
	return 0
}

// Sample draws one value. Draws below zero clamp to zero.
func (d Dist) Sample(rng *rand.Rand) time.Duration {
	switch d.Kind {
	case "", DistConstant:
		return d.Value.D()
	case DistUniform:
		lo, hi := d.Min.D(), d.Max.D()
		if hi <= lo {
			return lo
		}
		return lo + time.Duration(rng.Int63n(int64(hi-lo)))
	case DistNormal:
		v := time.Duration(rng.NormFloat64()*float64(d.StdDev.D()) + float64(d.Mean.D()))
		if v < 0 {
			v = 0
		}
		return v
	case DistExponential:
		return time.Duration(rng.ExpFloat64() * float64(d.Mean.D()))
	}
	return 0
}

func (d Dist) validate(field string) error {
	switch d.Kind {
	case "", DistConstant:
		if d.Value < 0 {
			return &ConfigError{Field: field, Reason: "negative constant"}
		}
	case DistUniform:
		if d.Min < 0 || d.Max < 0 {
			return &ConfigError{Field: field, Reason: "negative uniform bound"}
		}
		if d.Max.D() < d.Min.D() {
			return &ConfigError{Field: field, Reason: "uniform max below min"}
		}
	case DistNormal:
		if d.Mean < 0 || d.StdDev < 0 {
			return &ConfigError{Field: field, Reason: "negative normal parameter"}
		}
	case DistExponential:
		if d.Mean < 0 {
			return &ConfigError{Field: field, Reason: "negative exponential mean"}
		}
	default:
		return &ConfigError{Field: field, Reason: fmt.Sprintf("unknown distribution kind %q", d.Kind)}
	}
	return nil
}

// PeakWindow is a busy period, as offsets from clinic opening.
type PeakWindow struct {
	Start Duration `yaml:"start" json:"start"`
	End   Duration `yaml:"end" json:"end"`
}

// Resource pool names used by queue bounds.
const (
	PoolNurse  = "nurse"
	PoolDoctor = "doctor"
	PoolStaff  = "staff"
)

// Scenario is a named bundle of simulation parameters for one clinic day.
type Scenario struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Staffing.
	Doctors int `yaml:"doctors" json:"doctors"`
	Nurses  int `yaml:"nurses" json:"nurses"`
	Staff   int `yaml:"staff" json:"staff"` // finalization desk

	// Clinic day. Duration bounds admissions; patients already inside drain
	// to completion unless a hard stop is set.
	Opening  string   `yaml:"opening,omitempty" json:"opening,omitempty"` // wall-clock anchor, "08:30"
	Duration Duration `yaml:"duration" json:"duration"`
	HardStop Duration `yaml:"hard_stop,omitempty" json:"hard_stop,omitempty"` // 0 = drain fully

	// Service times.
	NurseTime    Dist `yaml:"nurse_time" json:"nurse_time"`
	SimpleTime   Dist `yaml:"simple_time" json:"simple_time"`
	ComplexTime  Dist `yaml:"complex_time" json:"complex_time"`
	FinalizeTime Dist `yaml:"finalize_time" json:"finalize_time"`

	// Arrivals. PeakArrival applies inside peak windows; when unset the
	// base arrival distribution is used all day.
	Arrival     Dist         `yaml:"arrival" json:"arrival"`
	PeakArrival Dist         `yaml:"peak_arrival,omitempty" json:"peak_arrival,omitempty"`
	PeakWindows []PeakWindow `yaml:"peak_windows,omitempty" json:"peak_windows,omitempty"`

	// Case mix and documentation probabilities.
	SimpleShare   float64 `yaml:"simple_share" json:"simple_share"`
	ExcuseLetterP float64 `yaml:"excuse_letter_p" json:"excuse_letter_p"`
	ValidIDP      float64 `yaml:"valid_id_p" json:"valid_id_p"` // conditional on holding a letter

	// Queue policy. A pool listed with a positive bound rejects arrivals
	// when its queue is full; absent or zero means unbounded.
	MaxQueue       map[string]int `yaml:"max_queue,omitempty" json:"max_queue,omitempty"`
	PriorityTriage bool           `yaml:"priority_triage,omitempty" json:"priority_triage,omitempty"`
}

// PeakArrivalDist returns the inter-arrival distribution for peak windows,
// falling back to the base distribution when none is configured.
func (s *Scenario) PeakArrivalDist() Dist {
	if s.PeakArrival.IsZero() {
		return s.Arrival
	}
	return s.PeakArrival
}

// InPeak reports whether an offset from opening falls inside a peak window.
func (s *Scenario) InPeak(t time.Duration) bool {
	for _, w := range s.PeakWindows {
		if t >= w.Start.D() && t <= w.End.D() {
			return true
		}
	}
	return false
}

// OpeningClock returns the opening time as an offset from midnight.
// An empty opening defaults to 08:30.
func (s *Scenario) OpeningClock() (time.Duration, error) {
	spec := s.Opening
	if spec == "" {
		spec = "08:30"
	}
	t, err := time.Parse("15:04", spec)
	if err != nil {
		return 0, &ConfigError{Field: "opening", Reason: fmt.Sprintf("cannot parse %q as HH:MM", spec)}
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// Validate checks every numeric constraint: durations non-negative,
// capacities at least one, probabilities in range.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return &ConfigError{Field: "name", Reason: "scenario needs a name"}
	}
	if s.Doctors < 1 {
		return &ConfigError{Field: "doctors", Reason: "capacity must be at least 1"}
	}
	if s.Nurses < 1 {
		return &ConfigError{Field: "nurses", Reason: "capacity must be at least 1"}
	}
	if s.Staff < 1 {
		return &ConfigError{Field: "staff", Reason: "capacity must be at least 1"}
	}
	if s.Duration <= 0 {
		return &ConfigError{Field: "duration", Reason: "clinic day must be positive"}
	}
	if s.HardStop < 0 {
		return &ConfigError{Field: "hard_stop", Reason: "negative hard stop"}
	}
	if s.HardStop > 0 && s.HardStop.D() < s.Duration.D() {
		return &ConfigError{Field: "hard_stop", Reason: "hard stop before admissions close"}
	}
	if _, err := s.OpeningClock(); err != nil {
		return err
	}

	dists := []struct {
		name string
		d    Dist
	}{
		{"nurse_time", s.NurseTime},
		{"simple_time", s.SimpleTime},
		{"complex_time", s.ComplexTime},
		{"finalize_time", s.FinalizeTime},
		{"arrival", s.Arrival},
	}
	for _, item := range dists {
		if err := item.d.validate(item.name); err != nil {
			return err
		}
	}
	if !s.PeakArrival.IsZero() {
		if err := s.PeakArrival.validate("peak_arrival"); err != nil {
			return err
		}
	}
	if s.Arrival.MeanDuration() <= 0 {
		return &ConfigError{Field: "arrival", Reason: "mean inter-arrival must be positive"}
	}

	for i, w := range s.PeakWindows {
		if w.Start < 0 || w.End < 0 {
			return &ConfigError{Field: fmt.Sprintf("peak_windows[%d]", i), Reason: "negative offset"}
		}
		if w.End.D() <= w.Start.D() {
			return &ConfigError{Field: fmt.Sprintf("peak_windows[%d]", i), Reason: "window end not after start"}
		}
	}

	probs := []struct {
		name string
		p    float64
	}{
		{"simple_share", s.SimpleShare},
		{"excuse_letter_p", s.ExcuseLetterP},
		{"valid_id_p", s.ValidIDP},
	}
	for _, item := range probs {
		if item.p < 0 || item.p > 1 {
			return &ConfigError{Field: item.name, Reason: "probability outside [0,1]"}
		}
	}

	for pool, bound := range s.MaxQueue {
		// Balking happens at admission, so only the nurse queue takes a bound.
		if pool != PoolNurse {
			return &ConfigError{Field: "max_queue." + pool, Reason: "queue bounds apply to the nurse pool only"}
		}
		if bound < 0 {
			return &ConfigError{Field: "max_queue." + pool, Reason: "negative queue bound"}
		}
	}
	return nil
}
