package kb

// Default returns the built-in knowledge base: the standard clinic rule
// tables, the predefined case catalog, and the symptom catalogs.
func Default() *KnowledgeBase {
	k, err := build(defaultConfig())
	if err != nil {
		// The built-in config is compiled in; it cannot fail validation.
		panic(err)
	}
	return k
}

func f64(v float64) *float64 { return &v }

// defaultConfig returns a fresh copy of the built-in configuration.
func defaultConfig() Config {
	return Config{
		Rules: []RuleSpec{
			// Triage: most severe first. The documentation gate outranks
			// everything so an undocumented patient is denied before any
			// clinical rule can approve or refer.
			{
				Name:      "triage_documentation_gate",
				Point:     DecisionTriage,
				Threshold: 1.0,
				When:      ConditionSpec{DocsMissing: true},
				Then:      OutcomeSpec{},
			},
			{
				Name:      "triage_complex_referral",
				Point:     DecisionTriage,
				Threshold: 0.5,
				When:      ConditionSpec{MinSeverity: f64(0.5)},
				Then:      OutcomeSpec{Refer: true},
			},
			{
				Name:      "triage_multi_symptom_referral",
				Point:     DecisionTriage,
				Threshold: 0.3,
				When:      ConditionSpec{MinSeverity: f64(0.3), MinSymptoms: 3},
				Then:      OutcomeSpec{Refer: true},
			},
			{
				Name:      "triage_simple_approval",
				Point:     DecisionTriage,
				Threshold: 0,
				When:      ConditionSpec{MaxSeverity: f64(0.5)},
				Then:      OutcomeSpec{Approve: true, DaysFromCase: true},
			},

			// Diagnosis: the doctor denies thin documentation outright and
			// issues only for clearly severe presentations. Anything between
			// falls through to the closed-world default and is denied.
			{
				Name:      "diagnosis_documentation_gate",
				Point:     DecisionDiagnosis,
				Threshold: 1.0,
				When:      ConditionSpec{DocsMissing: true},
				Then:      OutcomeSpec{},
			},
			{
				Name:      "diagnosis_high_severity",
				Point:     DecisionDiagnosis,
				Threshold: 0.7,
				When:      ConditionSpec{MinSeverity: f64(0.7)},
				Then:      OutcomeSpec{Eligible: true, DaysFromCase: true},
			},

			// Finalization: record keeping. Present so a knowledge base with
			// no finalization policy is caught before a run starts.
			{
				Name:      "finalize_record",
				Point:     DecisionFinalize,
				Threshold: 0,
				When:      ConditionSpec{},
				Then:      OutcomeSpec{},
			},
		},
		Templates: builtinTemplates(),
		Durations: map[CaseType]int{
			CaseSimple:  2,
			CaseComplex: 7,
		},
		SimpleSymptoms: []string{
			"cold", "flu", "cough", "headache",
			"fever", "stomach ache", "sore throat",
		},
		ComplexSymptoms: []string{
			"recurring fever", "severe injury", "chronic pain",
			"mental health issues", "surgery recovery", "infectious disease",
		},
	}
}

// builtinTemplates returns the predefined case catalog.
func builtinTemplates() []CaseTemplate {
	return []CaseTemplate{
		{
			Key:             "case_1",
			Name:            "Fever and Flu",
			Description:     "Common cold with fever and body aches",
			Symptoms:        []string{"fever (38.5°C)", "runny nose", "sore throat", "body aches", "fatigue"},
			Severity:        SeverityNormal,
			RecommendedDays: 2,
			Notes:           "Typical viral infection case",
			RequiresDoctor:  false,
			Documentation:   []string{"excuse_letter"},
		},
		{
			Key:             "case_2",
			Name:            "Severe Migraine",
			Description:     "Intense headache with visual disturbances",
			Symptoms:        []string{"severe headache", "visual aura", "nausea", "sensitivity to light"},
			Severity:        SeverityModerate,
			RecommendedDays: 2,
			Notes:           "Requires rest in dark, quiet environment",
			RequiresDoctor:  false,
			Documentation:   []string{"excuse_letter"},
		},
		{
			Key:             "case_3",
			Name:            "Acute Gastroenteritis",
			Description:     "Food poisoning symptoms",
			Symptoms:        []string{"vomiting", "diarrhea", "abdominal pain", "mild fever"},
			Severity:        SeverityModerate,
			RecommendedDays: 3,
			Notes:           "Requires hydration and rest",
			RequiresDoctor:  false,
			Documentation:   []string{"excuse_letter"},
		},
		{
			Key:             "case_4",
			Name:            "Respiratory Distress",
			Description:     "Difficulty breathing with chest pain",
			Symptoms:        []string{"difficulty breathing", "chest pain", "rapid heartbeat", "dizziness"},
			Severity:        SeverityHigh,
			RecommendedDays: 5,
			Notes:           "Immediate medical attention required",
			RequiresDoctor:  true,
			Documentation:   []string{"excuse_letter", "previous_medical_records"},
		},
		{
			Key:             "case_5",
			Name:            "Sports Injury",
			Description:     "Ankle sprain during sports activity",
			Symptoms:        []string{"ankle pain", "swelling", "difficulty walking", "bruising"},
			Severity:        SeverityModerate,
			RecommendedDays: 3,
			Notes:           "RICE protocol recommended",
			RequiresDoctor:  false,
			Documentation:   []string{"excuse_letter", "incident_report"},
		},
		{
			Key:             "case_6",
			Name:            "Mental Health Day",
			Description:     "Stress and anxiety symptoms",
			Symptoms:        []string{"anxiety", "difficulty concentrating", "fatigue", "sleep disturbance"},
			Severity:        SeverityNormal,
			RecommendedDays: 2,
			Notes:           "Counseling referral recommended",
			RequiresDoctor:  true,
			Documentation:   []string{"excuse_letter", "counselor_note"},
		},
		{
			Key:             "case_7",
			Name:            "Viral Infection (COVID-like)",
			Description:     "Respiratory infection with fever",
			Symptoms:        []string{"high fever", "dry cough", "fatigue", "loss of taste/smell"},
			Severity:        SeverityHigh,
			RecommendedDays: 7,
			Notes:           "COVID test recommended, isolation required",
			RequiresDoctor:  true,
			Documentation:   []string{"excuse_letter", "test_results"},
		},
		{
			Key:             "case_8",
			Name:            "Chronic Condition Flare-up",
			Description:     "Asthma exacerbation",
			Symptoms:        []string{"wheezing", "shortness of breath", "chest tightness", "coughing fits"},
			Severity:        SeverityHigh,
			RecommendedDays: 4,
			Notes:           "Known asthmatic patient",
			RequiresDoctor:  true,
			Documentation:   []string{"excuse_letter", "medical_history", "action_plan"},
		},
		{
			Key:             "case_9",
			Name:            "Post-Surgery Follow-up",
			Description:     "Recovery from appendectomy",
			Symptoms:        []string{"surgical site pain", "limited mobility", "fatigue", "mild fever"},
			Severity:        SeverityHigh,
			RecommendedDays: 10,
			Notes:           "Post-operative care required",
			RequiresDoctor:  true,
			Documentation:   []string{"excuse_letter", "surgical_records", "doctor_note"},
		},
		{
			Key:             "case_10",
			Name:            "Infectious Disease",
			Description:     "Suspected mumps case",
			Symptoms:        []string{"swollen salivary glands", "fever", "headache", "muscle aches"},
			Severity:        SeverityHigh,
			RecommendedDays: 14,
			Notes:           "Isolation required, contact tracing needed",
			RequiresDoctor:  true,
			Documentation:   []string{"excuse_letter", "test_results", "health_declaration"},
		},
		{
			Key:             "case_11",
			Name:            "Minor Injury",
			Description:     "Paper cut with mild infection",
			Symptoms:        []string{"localized pain", "minor swelling", "redness"},
			Severity:        SeverityLow,
			RecommendedDays: 1,
			Notes:           "Basic first aid sufficient",
			RequiresDoctor:  false,
			Documentation:   []string{"excuse_letter"},
		},
		{
			Key:             "case_12",
			Name:            "Seasonal Allergies",
			Description:     "Hay fever symptoms",
			Symptoms:        []string{"sneezing", "itchy eyes", "runny nose", "congestion"},
			Severity:        SeverityLow,
			RecommendedDays: 1,
			Notes:           "Common during spring",
			RequiresDoctor:  false,
			Documentation:   []string{"excuse_letter"},
		},
		{
			Key:             "case_13",
			Name:            "Chronic Fatigue",
			Description:     "Ongoing fatigue investigation",
			Symptoms:        []string{"persistent fatigue", "muscle weakness", "difficulty concentrating", "sleep problems"},
			Severity:        SeverityModerate,
			RecommendedDays: 5,
			Notes:           "Requires comprehensive evaluation",
			RequiresDoctor:  true,
			Documentation:   []string{"excuse_letter", "medical_history", "test_results"},
		},
		{
			Key:             "case_14",
			Name:            "Laboratory Accident",
			Description:     "Chemical splash exposure",
			Symptoms:        []string{"eye irritation", "skin redness", "burning sensation"},
			Severity:        SeverityHigh,
			RecommendedDays: 3,
			Notes:           "Immediate decontamination required",
			RequiresDoctor:  true,
			Documentation:   []string{"excuse_letter", "incident_report", "lab_safety_report"},
		},
	}
}
