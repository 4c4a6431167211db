package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/clinflow-xyz/go-clinflow/expert"
	"github.com/clinflow-xyz/go-clinflow/kb"
	"github.com/clinflow-xyz/go-clinflow/runner"
	"github.com/clinflow-xyz/go-clinflow/scenario"
	"github.com/clinflow-xyz/go-clinflow/sim"
	"github.com/clinflow-xyz/go-clinflow/storage"
)

// CaseRequest describes one patient case for the decision endpoints.
// Either a catalog case key or an explicit symptom list is required. The
// documentation flags are pointers so an omitted flag keeps the catalog
// default while an explicit false overrides it.
type CaseRequest struct {
	CaseKey         string      `json:"case_key,omitempty"`
	CaseType        kb.CaseType `json:"case_type,omitempty"`
	Symptoms        []string    `json:"symptoms,omitempty"`
	SeverityScore   float64     `json:"severity_score,omitempty"`
	HasExcuseLetter *bool       `json:"has_excuse_letter,omitempty"`
	HasValidID      *bool       `json:"has_valid_id,omitempty"`
	Reference       string      `json:"reference,omitempty"`
}

// CaseView is the snapshot echoed back with every decision.
type CaseView struct {
	CaseType        kb.CaseType `json:"case_type"`
	Symptoms        []string    `json:"symptoms"`
	SeverityScore   float64     `json:"severity_score"`
	HasExcuseLetter bool        `json:"has_excuse_letter"`
	HasValidID      bool        `json:"has_valid_id"`
	RecommendedDays int         `json:"recommended_days,omitempty"`
}

func viewOf(snap expert.Snapshot) CaseView {
	return CaseView{
		CaseType:        snap.CaseType,
		Symptoms:        snap.Symptoms,
		SeverityScore:   snap.SeverityScore,
		HasExcuseLetter: snap.HasExcuseLetter,
		HasValidID:      snap.HasValidID,
		RecommendedDays: snap.RecommendedDays,
	}
}

func (s *Server) snapshot(req CaseRequest) (expert.Snapshot, error) {
	var snap expert.Snapshot
	if req.CaseKey != "" {
		tpl, ok := s.kb.TemplateByKey(req.CaseKey)
		if !ok {
			return snap, fmt.Errorf("unknown case %q", req.CaseKey)
		}
		snap = expert.SnapshotFromTemplate(tpl)
	} else {
		if len(req.Symptoms) == 0 {
			return snap, errors.New("case_key or symptoms required")
		}
		snap = expert.Snapshot{
			CaseType:      req.CaseType,
			Symptoms:      req.Symptoms,
			SeverityScore: req.SeverityScore,
		}
		if snap.SeverityScore == 0 {
			snap.SeverityScore = s.kb.SeverityScore(req.Symptoms)
		}
		if snap.CaseType == "" {
			snap.CaseType = kb.CaseSimple
			if snap.SeverityScore >= 0.5 {
				snap.CaseType = kb.CaseComplex
			}
		}
	}
	if req.HasExcuseLetter != nil {
		snap.HasExcuseLetter = *req.HasExcuseLetter
	}
	if req.HasValidID != nil {
		snap.HasValidID = *req.HasValidID
	}
	return snap, nil
}

func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, scenario.Presets())
}

func (s *Server) handleCases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.kb.CaseTemplates())
}

func (s *Server) handleCase(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	tpl, ok := s.kb.TemplateByKey(key)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown case %q", key), http.StatusNotFound)
		return
	}
	writeJSON(w, tpl)
}

func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	var req CaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	snap, err := s.snapshot(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	assessment, err := s.rules.AssessNurse(snap)
	if err != nil {
		http.Error(w, err.Error(), errStatus(err))
		return
	}
	snap.SeverityScore = assessment.SeverityScore
	writeJSON(w, map[string]interface{}{
		"case":       viewOf(snap),
		"assessment": assessment,
	})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req CaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	snap, err := s.snapshot(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	evaluation, err := s.rules.EvaluateDoctor(snap)
	if err != nil {
		http.Error(w, err.Error(), errStatus(err))
		return
	}
	writeJSON(w, map[string]interface{}{
		"case":       viewOf(snap),
		"evaluation": evaluation,
	})
}

func (s *Server) handleCertificate(w http.ResponseWriter, r *http.Request) {
	var req CaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	snap, err := s.snapshot(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	assessment, err := s.rules.AssessNurse(snap)
	if err != nil {
		http.Error(w, err.Error(), errStatus(err))
		return
	}
	snap.SeverityScore = assessment.SeverityScore

	var evaluation *expert.DoctorEvaluation
	if assessment.ReferToDoctor {
		eval, err := s.rules.EvaluateDoctor(snap)
		if err != nil {
			http.Error(w, err.Error(), errStatus(err))
			return
		}
		evaluation = &eval
	}

	ref := req.Reference
	if ref == "" {
		ref = "WEB"
	}
	decision, err := s.rules.ResolveCertificate(snap, assessment, evaluation, ref, time.Now().UTC())
	if err != nil {
		http.Error(w, err.Error(), errStatus(err))
		return
	}

	if s.store != nil {
		if err := s.store.LogCertificate(string(snap.CaseType), &decision); err != nil {
			s.log.WithError(err).Warn("Failed to log certificate decision")
		}
	}

	resp := map[string]interface{}{
		"case":        viewOf(snap),
		"assessment":  assessment,
		"certificate": decision,
	}
	if evaluation != nil {
		resp["evaluation"] = evaluation
	}
	writeJSON(w, resp)
}

// SimulateRequest selects a scenario by preset name or inline definition
// and sets batch parameters. Zero runs means one; zero seed draws from
// the clock.
type SimulateRequest struct {
	Scenario string             `json:"scenario,omitempty"`
	Custom   *scenario.Scenario `json:"custom,omitempty"`
	Strategy string             `json:"strategy,omitempty"`
	Runs     int                `json:"runs,omitempty"`
	Seed     int64              `json:"seed,omitempty"`
}

// SimulateResponse carries the batch outcome. RunIDs is set when the
// server has a database to persist runs into.
type SimulateResponse struct {
	Batch  *runner.BatchResult `json:"batch"`
	RunIDs []string            `json:"run_ids,omitempty"`
}

func (s *Server) resolveScenario(req SimulateRequest) (scenario.Scenario, error) {
	if req.Custom != nil {
		return *req.Custom, nil
	}
	name := req.Scenario
	if name == "" {
		name = "baseline"
	}
	scn, ok := scenario.ByName(name)
	if !ok {
		return scenario.Scenario{}, fmt.Errorf("unknown scenario %q", name)
	}
	return scn, nil
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	scn, err := s.resolveScenario(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	strategy := req.Strategy
	if strategy == "" {
		strategy = sim.StrategyAgent
	}
	if strategy != sim.StrategyAgent && strategy != sim.StrategySurvey {
		http.Error(w, fmt.Sprintf("unknown strategy %q", strategy), http.StatusBadRequest)
		return
	}
	runs := req.Runs
	if runs < 1 {
		runs = 1
	}

	batch, err := runner.RunBatch(runner.Options{
		Scenario: scn,
		KB:       s.kb,
		Strategy: strategy,
		Runs:     runs,
		Seed:     req.Seed,
		Log:      s.log,
	})
	if err != nil {
		http.Error(w, err.Error(), errStatus(err))
		return
	}

	resp := SimulateResponse{Batch: batch}
	if s.store != nil {
		for _, res := range batch.Results {
			id, err := s.store.SaveRun(res)
			if err != nil {
				s.log.WithError(err).Warn("Failed to persist run")
				continue
			}
			resp.RunIDs = append(resp.RunIDs, id)
		}
	}
	writeJSON(w, resp)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	scn, err := s.resolveScenario(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	runs := req.Runs
	if runs < 1 {
		runs = 1
	}

	comparison, err := runner.Compare(runner.Options{
		Scenario: scn,
		KB:       s.kb,
		Runs:     runs,
		Seed:     req.Seed,
		Log:      s.log,
	})
	if err != nil {
		http.Error(w, err.Error(), errStatus(err))
		return
	}
	writeJSON(w, comparison)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "no database configured", http.StatusServiceUnavailable)
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	runs, err := s.store.RecentRuns(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []*storage.RunRecord{}
	}
	writeJSON(w, runs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "no database configured", http.StatusServiceUnavailable)
		return
	}
	id := mux.Vars(r)["id"]
	data, err := s.store.ExportRunJSON(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, fmt.Sprintf("unknown run %q", id), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func errStatus(err error) int {
	var scErr *scenario.ConfigError
	var kbErr *kb.ConfigError
	if errors.As(err, &scErr) || errors.As(err, &kbErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
