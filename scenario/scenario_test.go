package scenario

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestPresetsValidate(t *testing.T) {
	for _, s := range Presets() {
		if err := s.Validate(); err != nil {
			t.Errorf("Preset %s failed validation: %v", s.Name, err)
		}
	}
}

func TestByName(t *testing.T) {
	s, ok := ByName("emergency_situation")
	if !ok {
		t.Fatal("Expected emergency_situation preset")
	}
	if s.Doctors != 4 || s.Nurses != 6 {
		t.Errorf("Expected 4 doctors and 6 nurses, got %d and %d", s.Doctors, s.Nurses)
	}
	if !s.PriorityTriage {
		t.Error("Expected severity-ordered triage in the emergency preset")
	}
	if _, ok := ByName("armageddon"); ok {
		t.Error("Expected unknown preset lookup to fail")
	}
}

func TestValidateRejects(t *testing.T) {
	base := Baseline()

	tests := []struct {
		name   string
		mutate func(*Scenario)
	}{
		{"zero doctors", func(s *Scenario) { s.Doctors = 0 }},
		{"zero nurses", func(s *Scenario) { s.Nurses = 0 }},
		{"zero staff", func(s *Scenario) { s.Staff = 0 }},
		{"zero duration", func(s *Scenario) { s.Duration = 0 }},
		{"hard stop before close", func(s *Scenario) { s.HardStop = Duration(time.Hour) }},
		{"probability above one", func(s *Scenario) { s.SimpleShare = 1.2 }},
		{"negative probability", func(s *Scenario) { s.ExcuseLetterP = -0.1 }},
		{"uniform max below min", func(s *Scenario) { s.Arrival = Uniform(10*time.Minute, time.Minute) }},
		{"unknown dist kind", func(s *Scenario) { s.NurseTime = Dist{Kind: "weibull"} }},
		{"zero arrival mean", func(s *Scenario) { s.Arrival = Constant(0) }},
		{"inverted peak window", func(s *Scenario) {
			s.PeakWindows = []PeakWindow{{Start: Duration(2 * time.Hour), End: Duration(time.Hour)}}
		}},
		{"unknown queue pool", func(s *Scenario) { s.MaxQueue = map[string]int{"janitor": 5} }},
		{"negative queue bound", func(s *Scenario) { s.MaxQueue = map[string]int{PoolNurse: -1} }},
		{"bad opening", func(s *Scenario) { s.Opening = "quarter past nine" }},
	}
	for _, tt := range tests {
		s := base
		tt.mutate(&s)
		if err := s.Validate(); err == nil {
			t.Errorf("%s: expected validation to fail", tt.name)
		}
	}
}

func TestDistMean(t *testing.T) {
	tests := []struct {
		name string
		d    Dist
		want time.Duration
	}{
		{"constant", Constant(5 * time.Minute), 5 * time.Minute},
		{"uniform", Uniform(10*time.Minute, 20*time.Minute), 15 * time.Minute},
		{"normal", Normal(8*time.Minute, time.Minute), 8 * time.Minute},
		{"exponential", Exponential(12 * time.Minute), 12 * time.Minute},
	}
	for _, tt := range tests {
		if got := tt.d.MeanDuration(); got != tt.want {
			t.Errorf("%s: expected mean %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestDistSample(t *testing.T) {
	d := Uniform(5*time.Minute, 10*time.Minute)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		v := d.Sample(rng)
		if v < 5*time.Minute || v >= 10*time.Minute {
			t.Fatalf("Uniform sample %v outside [5m, 10m)", v)
		}
	}

	n := Normal(time.Minute, 10*time.Minute)
	for i := 0; i < 100; i++ {
		if v := n.Sample(rng); v < 0 {
			t.Fatalf("Normal sample went negative: %v", v)
		}
	}

	// Same seed, same draws.
	a := rand.New(rand.NewSource(7))
	b := rand.New(rand.NewSource(7))
	e := Exponential(15 * time.Minute)
	for i := 0; i < 20; i++ {
		if e.Sample(a) != e.Sample(b) {
			t.Fatal("Expected identical samples from identical seeds")
		}
	}
}

func TestInPeak(t *testing.T) {
	s := Baseline()
	if !s.InPeak(2 * time.Hour) { // 10:30
		t.Error("10:30 should be inside the morning rush")
	}
	if s.InPeak(30 * time.Minute) { // 09:00
		t.Error("09:00 should be off-peak")
	}
	if !s.InPeak(6 * time.Hour) { // 14:30
		t.Error("14:30 should be inside the afternoon rush")
	}
}

func TestPeakArrivalFallback(t *testing.T) {
	s := NormalDay()
	if got := s.PeakArrivalDist(); got != s.Arrival {
		t.Errorf("Expected fallback to the base arrival distribution, got %+v", got)
	}

	b := Baseline()
	if got := b.PeakArrivalDist(); got != b.PeakArrival {
		t.Error("Expected the configured peak distribution")
	}
}

func TestDurationYAML(t *testing.T) {
	var d Duration
	if err := yaml.Unmarshal([]byte(`"1h30m"`), &d); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if d.D() != 90*time.Minute {
		t.Errorf("Expected 1h30m, got %v", d.D())
	}

	if err := yaml.Unmarshal([]byte(`"soon"`), &d); err == nil {
		t.Error("Expected an error for a malformed duration")
	}

	out, err := yaml.Marshal(Duration(5 * time.Minute))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var back Duration
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("Round-trip unmarshal failed: %v", err)
	}
	if back.D() != 5*time.Minute {
		t.Errorf("Round trip changed the value: %v", back.D())
	}
}

func TestLoadFile(t *testing.T) {
	doc := `
name: short_shift
doctors: 1
nurses: 1
staff: 1
duration: "4h"
nurse_time: {kind: constant, value: "5m"}
simple_time: {kind: constant, value: "3m"}
complex_time: {kind: constant, value: "10m"}
finalize_time: {kind: constant, value: "2m"}
arrival: {kind: exponential, mean: "20m"}
simple_share: 0.9
excuse_letter_p: 1.0
valid_id_p: 1.0
`
	path := filepath.Join(t.TempDir(), "shift.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	s, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if s.Name != "short_shift" {
		t.Errorf("Expected short_shift, got %s", s.Name)
	}
	if s.Duration.D() != 4*time.Hour {
		t.Errorf("Expected 4h duration, got %v", s.Duration.D())
	}
	if s.NurseTime.MeanDuration() != 5*time.Minute {
		t.Errorf("Expected 5m nurse time, got %v", s.NurseTime.MeanDuration())
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestOpeningClockDefault(t *testing.T) {
	s := Scenario{}
	got, err := s.OpeningClock()
	if err != nil {
		t.Fatalf("OpeningClock failed: %v", err)
	}
	if got != 8*time.Hour+30*time.Minute {
		t.Errorf("Expected the 08:30 default, got %v", got)
	}
}
