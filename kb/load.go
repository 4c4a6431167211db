package kb

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RuleSpec is the declarative form of a rule, as written in YAML. Specs are
// compiled into Rules when the knowledge base is built.
type RuleSpec struct {
	Name      string        `yaml:"name" json:"name"`
	Point     DecisionPoint `yaml:"point" json:"point"`
	Threshold float64       `yaml:"threshold" json:"threshold"`
	Enabled   *bool         `yaml:"enabled,omitempty" json:"enabled,omitempty"` // nil means enabled
	When      ConditionSpec `yaml:"when" json:"when"`
	Then      OutcomeSpec   `yaml:"then" json:"then"`
}

// ConditionSpec describes a rule condition. All set fields must match.
// An empty spec matches every patient, which is how fallback rules are written.
type ConditionSpec struct {
	MinSeverity *float64 `yaml:"min_severity,omitempty" json:"min_severity,omitempty"`
	MaxSeverity *float64 `yaml:"max_severity,omitempty" json:"max_severity,omitempty"`
	CaseType    CaseType `yaml:"case_type,omitempty" json:"case_type,omitempty"`
	MinSymptoms int      `yaml:"min_symptoms,omitempty" json:"min_symptoms,omitempty"`
	DocsMissing bool     `yaml:"docs_missing,omitempty" json:"docs_missing,omitempty"`
	DocsValid   bool     `yaml:"docs_valid,omitempty" json:"docs_valid,omitempty"`
}

// OutcomeSpec describes a rule outcome. The zero value denies.
type OutcomeSpec struct {
	Refer        bool `yaml:"refer,omitempty" json:"refer,omitempty"`
	Approve      bool `yaml:"approve,omitempty" json:"approve,omitempty"`
	Eligible     bool `yaml:"eligible,omitempty" json:"eligible,omitempty"`
	Days         int  `yaml:"days,omitempty" json:"days,omitempty"`
	DaysFromCase bool `yaml:"days_from_case,omitempty" json:"days_from_case,omitempty"`
}

// Config is the YAML document shape for a knowledge base override file.
// Rules for a decision point replace the built-in rules for that point;
// sections left empty keep the defaults.
type Config struct {
	Rules           []RuleSpec       `yaml:"rules,omitempty"`
	Templates       []CaseTemplate   `yaml:"templates,omitempty"`
	Durations       map[CaseType]int `yaml:"durations,omitempty"`
	SimpleSymptoms  []string         `yaml:"simple_symptoms,omitempty"`
	ComplexSymptoms []string         `yaml:"complex_symptoms,omitempty"`
}

// LoadFile reads a knowledge base override from a YAML file and merges it
// over the built-in defaults. An empty path returns the defaults unchanged.
func LoadFile(path string) (*KnowledgeBase, error) {
	if path == "" {
		return Default(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("kb: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("kb: parse %s: %w", path, err)
	}
	return Load(cfg)
}

// New compiles a config exactly as given, without merging the built-in
// defaults. Callers own the completeness of the rule tables; a decision
// point the flow needs but the config omits surfaces as a ConfigError.
func New(cfg Config) (*KnowledgeBase, error) {
	if cfg.Durations == nil {
		cfg.Durations = make(map[CaseType]int)
	}
	return build(cfg)
}

// Load merges a config over the built-in defaults and compiles the result.
func Load(cfg Config) (*KnowledgeBase, error) {
	merged := defaultConfig()

	if len(cfg.Rules) > 0 {
		// Points present in the override replace their default rule set.
		overridden := make(map[DecisionPoint]bool)
		for _, spec := range cfg.Rules {
			overridden[spec.Point] = true
		}
		kept := merged.Rules[:0]
		for _, spec := range merged.Rules {
			if !overridden[spec.Point] {
				kept = append(kept, spec)
			}
		}
		merged.Rules = append(kept, cfg.Rules...)
	}
	if len(cfg.Templates) > 0 {
		merged.Templates = cfg.Templates
	}
	for ct, days := range cfg.Durations {
		merged.Durations[ct] = days
	}
	if len(cfg.SimpleSymptoms) > 0 {
		merged.SimpleSymptoms = cfg.SimpleSymptoms
	}
	if len(cfg.ComplexSymptoms) > 0 {
		merged.ComplexSymptoms = cfg.ComplexSymptoms
	}

	return build(merged)
}

// build compiles a fully merged config into an immutable knowledge base.
func build(cfg Config) (*KnowledgeBase, error) {
	k := &KnowledgeBase{
		rules:       make(map[DecisionPoint][]Rule),
		durations:   make(map[CaseType]int),
		simpleSet:   make(map[string]bool),
		complexSet:  make(map[string]bool),
		simpleList:  cfg.SimpleSymptoms,
		complexList: cfg.ComplexSymptoms,
	}

	seen := make(map[string]bool)
	for _, t := range cfg.Templates {
		if t.Key == "" {
			return nil, &ConfigError{Field: "templates", Reason: "template with empty key"}
		}
		if seen[t.Key] {
			return nil, &ConfigError{Field: "templates", Reason: fmt.Sprintf("duplicate template key %q", t.Key)}
		}
		if t.RecommendedDays < 0 {
			return nil, &ConfigError{Field: t.Key, Reason: "negative recommended days"}
		}
		seen[t.Key] = true
	}
	k.templates = cfg.Templates

	for ct, days := range cfg.Durations {
		if days < 0 {
			return nil, &ConfigError{Field: "durations." + string(ct), Reason: "negative leave duration"}
		}
		k.durations[ct] = days
	}

	for _, s := range cfg.SimpleSymptoms {
		k.simpleSet[s] = true
	}
	for _, s := range cfg.ComplexSymptoms {
		k.complexSet[s] = true
	}

	for _, spec := range cfg.Rules {
		rule, err := compileRule(spec)
		if err != nil {
			return nil, err
		}
		k.rules[rule.Point] = append(k.rules[rule.Point], rule)
	}
	sortRules(k.rules)
	k.specs = cfg.Rules

	return k, nil
}

// compileRule validates a spec and compiles its condition into a predicate.
func compileRule(spec RuleSpec) (Rule, error) {
	if spec.Name == "" {
		return Rule{}, &ConfigError{Field: "rules", Reason: "rule with empty name"}
	}
	switch spec.Point {
	case DecisionTriage, DecisionDiagnosis, DecisionFinalize:
	default:
		return Rule{}, &ConfigError{Field: spec.Name, Reason: fmt.Sprintf("unknown decision point %q", spec.Point)}
	}
	if spec.Threshold < 0 || spec.Threshold > 1 {
		return Rule{}, &ConfigError{Field: spec.Name, Reason: "threshold outside [0,1]"}
	}
	if spec.Then.Days < 0 {
		return Rule{}, &ConfigError{Field: spec.Name, Reason: "negative leave duration"}
	}

	var parts []Condition
	if spec.When.MinSeverity != nil {
		parts = append(parts, MinSeverity(*spec.When.MinSeverity))
	}
	if spec.When.MaxSeverity != nil {
		parts = append(parts, MaxSeverity(*spec.When.MaxSeverity))
	}
	if spec.When.CaseType != "" {
		parts = append(parts, CaseIs(spec.When.CaseType))
	}
	if spec.When.MinSymptoms > 0 {
		parts = append(parts, MinSymptoms(spec.When.MinSymptoms))
	}
	if spec.When.DocsMissing {
		parts = append(parts, DocsMissing())
	}
	if spec.When.DocsValid {
		parts = append(parts, DocsPresent())
	}

	cond := func(Facts) bool { return true }
	if len(parts) > 0 {
		cond = AllOf(parts...)
	}

	enabled := true
	if spec.Enabled != nil {
		enabled = *spec.Enabled
	}

	return Rule{
		Name:      spec.Name,
		Point:     spec.Point,
		Threshold: spec.Threshold,
		Condition: cond,
		Outcome: Outcome{
			Refer:        spec.Then.Refer,
			Approve:      spec.Then.Approve,
			Eligible:     spec.Then.Eligible,
			Days:         spec.Then.Days,
			DaysFromCase: spec.Then.DaysFromCase,
		},
		Enabled: enabled,
	}, nil
}
