package scenario

import "time"

// Baseline returns the canonical clinic configuration: one doctor, three
// nurses, one records desk, and the observed morning and afternoon rush
// windows driving arrivals.
func Baseline() Scenario {
	return Scenario{
		Name:        "baseline",
		Description: "Single-doctor clinic with observed rush-hour arrivals",
		Doctors:     1,
		Nurses:      3,
		Staff:       1,
		Opening:     "08:30",
		Duration:    Duration(8 * time.Hour),

		NurseTime:    Constant(10 * time.Minute),
		SimpleTime:   Constant(10 * time.Minute),
		ComplexTime:  Constant(20 * time.Minute),
		FinalizeTime: Constant(5 * time.Minute),

		Arrival:     Uniform(15*time.Minute, 25*time.Minute),
		PeakArrival: Uniform(5*time.Minute, 10*time.Minute),
		PeakWindows: []PeakWindow{
			// 10:00-11:30 and 13:30-17:00, as offsets from an 08:30 opening.
			{Start: Duration(90 * time.Minute), End: Duration(3 * time.Hour)},
			{Start: Duration(5 * time.Hour), End: Duration(8*time.Hour + 30*time.Minute)},
		},

		SimpleShare:   0.7,
		ExcuseLetterP: 0.8,
		ValidIDP:      0.9,
	}
}

// NormalDay returns a regular clinic day with normal patient flow.
func NormalDay() Scenario {
	return Scenario{
		Name:        "normal_day",
		Description: "Regular clinic operation with normal patient flow",
		Doctors:     2,
		Nurses:      3,
		Staff:       1,
		Opening:     "08:30",
		Duration:    Duration(8 * time.Hour),

		NurseTime:    Normal(10*time.Minute, 2*time.Minute),
		SimpleTime:   Normal(10*time.Minute, 3*time.Minute),
		ComplexTime:  Normal(20*time.Minute, 5*time.Minute),
		FinalizeTime: Normal(5*time.Minute, time.Minute),

		Arrival: Exponential(15 * time.Minute),

		SimpleShare:   0.7,
		ExcuseLetterP: 0.8,
		ValidIDP:      0.9,
	}
}

// BusyDay returns a high-volume day during the exam period.
func BusyDay() Scenario {
	s := NormalDay()
	s.Name = "busy_day"
	s.Description = "High patient volume during exam period"
	s.Doctors = 3
	s.Nurses = 4
	s.Staff = 2
	s.Arrival = Exponential(10 * time.Minute)
	s.SimpleShare = 0.6
	return s
}

// QuietDay returns a low-volume holiday period.
func QuietDay() Scenario {
	s := NormalDay()
	s.Name = "quiet_day"
	s.Description = "Low patient volume during holidays"
	s.Doctors = 1
	s.Nurses = 2
	s.Arrival = Exponential(30 * time.Minute)
	s.SimpleShare = 0.8
	return s
}

// EmergencySituation returns an outbreak-response day: extended hours,
// extra staff, mostly complex cases, severity-ordered doctor queue, and a
// bounded waiting room.
func EmergencySituation() Scenario {
	s := NormalDay()
	s.Name = "emergency_situation"
	s.Description = "Handling a potential outbreak situation"
	s.Duration = Duration(12 * time.Hour)
	s.Doctors = 4
	s.Nurses = 6
	s.Staff = 2
	s.Arrival = Exponential(5 * time.Minute)
	s.SimpleShare = 0.3
	s.PriorityTriage = true
	s.MaxQueue = map[string]int{PoolNurse: 20}
	return s
}

// Presets returns every built-in scenario.
func Presets() []Scenario {
	return []Scenario{Baseline(), NormalDay(), BusyDay(), QuietDay(), EmergencySituation()}
}

// ByName looks up a built-in scenario.
func ByName(name string) (Scenario, bool) {
	for _, s := range Presets() {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}
