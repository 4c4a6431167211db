// Package kb holds the clinic knowledge base: predefined case templates,
// triage and diagnosis rule tables, symptom catalogs, and standard leave
// durations. A KnowledgeBase is immutable after construction and safe for
// concurrent readers.
package kb

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// CaseType classifies a patient case by complexity.
type CaseType string

const (
	CaseSimple  CaseType = "simple"
	CaseComplex CaseType = "complex"
)

// DecisionPoint identifies a place in the patient flow where rules apply.
type DecisionPoint string

const (
	// DecisionTriage is the nurse assessment: refer, approve, or deny.
	DecisionTriage DecisionPoint = "nurse_assessment"
	// DecisionDiagnosis is the doctor evaluation: certificate eligibility.
	DecisionDiagnosis DecisionPoint = "doctor_evaluation"
	// DecisionFinalize is the record-keeping step that closes a case.
	DecisionFinalize DecisionPoint = "certificate_finalization"
)

// Severity is the coarse label attached to predefined case templates.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityNormal   Severity = "normal"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
)

// Score maps a severity label onto the 0..1 scale used by rule conditions.
func (s Severity) Score() float64 {
	switch s {
	case SeverityLow:
		return 0.2
	case SeverityNormal:
		return 0.4
	case SeverityModerate:
		return 0.7
	case SeverityHigh:
		return 0.9
	}
	return 0
}

// CaseTemplate is a predefined clinic case from the catalog.
type CaseTemplate struct {
	Key             string   `json:"key" yaml:"key"`
	Name            string   `json:"name" yaml:"name"`
	Description     string   `json:"description" yaml:"description"`
	Symptoms        []string `json:"symptoms" yaml:"symptoms"`
	Severity        Severity `json:"severity" yaml:"severity"`
	RecommendedDays int      `json:"recommended_days" yaml:"recommended_days"`
	Notes           string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	RequiresDoctor  bool     `json:"requires_doctor" yaml:"requires_doctor"`
	Documentation   []string `json:"documentation_required" yaml:"documentation_required"`
}

// Facts is the patient view a rule condition evaluates against. It carries
// only what rules may read; rules never mutate it.
type Facts struct {
	CaseType        CaseType
	Symptoms        []string
	SeverityScore   float64
	HasExcuseLetter bool
	HasValidID      bool
	RecommendedDays int // from a case template, 0 if none
}

// DocsValid reports whether the patient presented complete documentation.
func (f Facts) DocsValid() bool {
	return f.HasExcuseLetter && f.HasValidID
}

// Condition is a predicate over the patient facts.
type Condition func(f Facts) bool

// Outcome is the action half of a rule. The zero Outcome denies: no
// referral, no approval, no certificate.
type Outcome struct {
	Refer        bool // triage: send the patient to a doctor
	Approve      bool // triage: certificate without a doctor visit
	Eligible     bool // diagnosis: certificate approved
	Days         int  // leave duration when fixed by the rule
	DaysFromCase bool // leave duration from the case type or template
}

// Rule pairs a condition with an outcome at one decision point. Rules are
// evaluated most severe first; the first enabled match wins.
type Rule struct {
	Name      string
	Point     DecisionPoint
	Threshold float64 // ordering key, descending
	Condition Condition
	Outcome   Outcome
	Enabled   bool
}

// Condition combinators.

// MinSeverity matches facts with a severity score at or above the threshold.
func MinSeverity(threshold float64) Condition {
	return func(f Facts) bool { return f.SeverityScore >= threshold }
}

// MaxSeverity matches facts with a severity score strictly below the threshold.
func MaxSeverity(threshold float64) Condition {
	return func(f Facts) bool { return f.SeverityScore < threshold }
}

// CaseIs matches facts of the given case type.
func CaseIs(ct CaseType) Condition {
	return func(f Facts) bool { return f.CaseType == ct }
}

// MinSymptoms matches facts presenting at least n symptoms.
func MinSymptoms(n int) Condition {
	return func(f Facts) bool { return len(f.Symptoms) >= n }
}

// DocsMissing matches facts with incomplete documentation.
func DocsMissing() Condition {
	return func(f Facts) bool { return !f.DocsValid() }
}

// DocsPresent matches facts with complete documentation.
func DocsPresent() Condition {
	return func(f Facts) bool { return f.DocsValid() }
}

// AllOf matches when every condition matches.
func AllOf(conditions ...Condition) Condition {
	return func(f Facts) bool {
		for _, c := range conditions {
			if !c(f) {
				return false
			}
		}
		return true
	}
}

// AnyOf matches when at least one condition matches.
func AnyOf(conditions ...Condition) Condition {
	return func(f Facts) bool {
		for _, c := range conditions {
			if c(f) {
				return true
			}
		}
		return false
	}
}

// KnowledgeBase is the loaded catalog of templates, rules, and durations.
type KnowledgeBase struct {
	templates   []CaseTemplate
	rules       map[DecisionPoint][]Rule
	specs       []RuleSpec // retained for fingerprinting
	durations   map[CaseType]int
	simpleSet   map[string]bool
	complexSet  map[string]bool
	simpleList  []string
	complexList []string
}

// CaseTemplates returns the predefined case catalog.
func (k *KnowledgeBase) CaseTemplates() []CaseTemplate {
	out := make([]CaseTemplate, len(k.templates))
	copy(out, k.templates)
	return out
}

// TemplateByKey looks up a predefined case by its catalog key.
func (k *KnowledgeBase) TemplateByKey(key string) (CaseTemplate, bool) {
	for _, t := range k.templates {
		if t.Key == key {
			return t, true
		}
	}
	return CaseTemplate{}, false
}

// RulesFor returns the rules registered at a decision point, sorted by
// severity threshold descending. A decision point with no rules is a
// configuration fault.
func (k *KnowledgeBase) RulesFor(point DecisionPoint) ([]Rule, error) {
	rules, ok := k.rules[point]
	if !ok || len(rules) == 0 {
		return nil, &ConfigError{Field: string(point), Reason: "no rules registered for decision point"}
	}
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out, nil
}

// Validate confirms every named decision point has registered rules.
// Simulation runs call this up front so a rule gap aborts before any
// patient is generated.
func (k *KnowledgeBase) Validate(points ...DecisionPoint) error {
	for _, p := range points {
		if _, err := k.RulesFor(p); err != nil {
			return err
		}
	}
	return nil
}

// LeaveDuration returns the standard leave duration in days for a case type.
func (k *KnowledgeBase) LeaveDuration(ct CaseType) int {
	return k.durations[ct]
}

// SimpleSymptoms returns the catalog of symptoms considered simple.
func (k *KnowledgeBase) SimpleSymptoms() []string {
	out := make([]string, len(k.simpleList))
	copy(out, k.simpleList)
	return out
}

// ComplexSymptoms returns the catalog of symptoms considered complex.
func (k *KnowledgeBase) ComplexSymptoms() []string {
	out := make([]string, len(k.complexList))
	copy(out, k.complexList)
	return out
}

// IsComplexSymptom reports whether a symptom belongs to the complex catalog.
func (k *KnowledgeBase) IsComplexSymptom(symptom string) bool {
	return k.complexSet[symptom]
}

// SeverityScore computes the fraction of the given symptoms that are complex.
// Symptoms outside both catalogs count as not complex. An empty list scores 0.
func (k *KnowledgeBase) SeverityScore(symptoms []string) float64 {
	if len(symptoms) == 0 {
		return 0
	}
	complex := 0
	for _, s := range symptoms {
		if k.complexSet[s] {
			complex++
		}
	}
	return float64(complex) / float64(len(symptoms))
}

// Fingerprint returns a short deterministic hash of the rule table, so a
// stored run can record which decision policy produced it.
func (k *KnowledgeBase) Fingerprint() string {
	specs := make([]RuleSpec, len(k.specs))
	copy(specs, k.specs)
	sort.Slice(specs, func(i, j int) bool {
		if specs[i].Point != specs[j].Point {
			return specs[i].Point < specs[j].Point
		}
		return specs[i].Name < specs[j].Name
	})
	data, err := json.Marshal(specs)
	if err != nil {
		return ""
	}
	hash := sha256.Sum256(data)
	return "rs:" + hex.EncodeToString(hash[:16])
}

// sortRules orders each decision point's rules by threshold descending,
// keeping declaration order for equal thresholds.
func sortRules(rules map[DecisionPoint][]Rule) {
	for point := range rules {
		sort.SliceStable(rules[point], func(i, j int) bool {
			return rules[point][i].Threshold > rules[point][j].Threshold
		})
	}
}
