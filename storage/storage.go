// Package storage persists runs, patient records, and the certificate
// audit trail in SQLite.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/clinflow-xyz/go-clinflow/expert"
	"github.com/clinflow-xyz/go-clinflow/sim"
)

// Store handles SQLite database operations for simulation results.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		scenario TEXT NOT NULL,
		strategy TEXT NOT NULL,
		seed INTEGER NOT NULL,
		ruleset TEXT NOT NULL,
		anchor DATETIME NOT NULL,
		duration_ns INTEGER NOT NULL,
		end_ns INTEGER NOT NULL,
		hard_stopped INTEGER NOT NULL DEFAULT 0,
		patients INTEGER NOT NULL,
		completed INTEGER NOT NULL,
		balked INTEGER NOT NULL,
		certificates INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS patients (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		ref TEXT NOT NULL,
		state TEXT NOT NULL,
		case_type TEXT NOT NULL,
		severity REAL NOT NULL,
		referred INTEGER NOT NULL,
		arrival_ns INTEGER NOT NULL,
		exit_ns INTEGER,
		nurse_wait_ns INTEGER NOT NULL,
		doctor_wait_ns INTEGER NOT NULL,
		record TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE TABLE IF NOT EXISTS certificates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		patient_id TEXT,
		certificate_id TEXT,
		issued INTEGER NOT NULL,
		days INTEGER NOT NULL,
		rule TEXT,
		decided_by TEXT NOT NULL,
		decided_at DATETIME NOT NULL,
		case_type TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_patients_run ON patients(run_id);
	CREATE INDEX IF NOT EXISTS idx_patients_run_seq ON patients(run_id, seq);
	CREATE INDEX IF NOT EXISTS idx_certificates_run ON certificates(run_id);
	CREATE INDEX IF NOT EXISTS idx_certificates_cert ON certificates(certificate_id);
	CREATE INDEX IF NOT EXISTS idx_runs_scenario ON runs(scenario);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for custom queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// RunRecord is the stored header of one run.
type RunRecord struct {
	ID           string        `json:"id"`
	Scenario     string        `json:"scenario"`
	Strategy     string        `json:"strategy"`
	Seed         int64         `json:"seed"`
	Ruleset      string        `json:"ruleset"`
	Anchor       time.Time     `json:"anchor"`
	Duration     time.Duration `json:"duration"`
	EndTime      time.Duration `json:"end_time"`
	HardStopped  bool          `json:"hard_stopped"`
	Patients     int           `json:"patients"`
	Completed    int           `json:"completed"`
	Balked       int           `json:"balked"`
	Certificates int           `json:"certificates"`
	CreatedAt    time.Time     `json:"created_at"`
}

// CertificateRecord is one row of the certificate audit trail. Denials
// are recorded alongside issues so the trail shows every decision.
type CertificateRecord struct {
	RunID         string    `json:"run_id,omitempty"`
	PatientID     string    `json:"patient_id,omitempty"`
	CertificateID string    `json:"certificate_id,omitempty"`
	Issued        bool      `json:"issued"`
	Days          int       `json:"days"`
	Rule          string    `json:"rule,omitempty"`
	DecidedBy     string    `json:"decided_by"`
	DecidedAt     time.Time `json:"decided_at"`
	CaseType      string    `json:"case_type,omitempty"`
}

// SaveRun stores a run with all patient records and certificate
// decisions in one transaction. It returns the assigned run id.
func (s *Store) SaveRun(res *sim.Result) (string, error) {
	id := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("storage: begin: %w", err)
	}
	defer tx.Rollback()

	completed, balked, certificates := 0, 0, 0
	for _, p := range res.Patients {
		switch p.State {
		case sim.StateExited:
			completed++
		case sim.StateBalked:
			balked++
		}
		if p.CertificateIssued() {
			certificates++
		}
	}

	_, err = tx.Exec(
		`INSERT INTO runs (id, scenario, strategy, seed, ruleset, anchor, duration_ns,
		 end_ns, hard_stopped, patients, completed, balked, certificates, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, res.Scenario, res.Strategy, res.Seed, res.Ruleset, res.Anchor.UTC(),
		int64(res.Duration), int64(res.EndTime), res.HardStopped,
		len(res.Patients), completed, balked, certificates, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("storage: insert run: %w", err)
	}

	for _, p := range res.Patients {
		record, err := json.Marshal(p)
		if err != nil {
			return "", fmt.Errorf("storage: encode patient %s: %w", p.Ref, err)
		}
		var exit sql.NullInt64
		if p.Exit != nil {
			exit = sql.NullInt64{Int64: int64(*p.Exit), Valid: true}
		}
		_, err = tx.Exec(
			`INSERT INTO patients (id, run_id, seq, ref, state, case_type, severity,
			 referred, arrival_ns, exit_ns, nurse_wait_ns, doctor_wait_ns, record)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, id, p.Seq, p.Ref, string(p.State), string(p.CaseType), p.Severity,
			p.Referred, int64(p.Arrival), exit, int64(p.NurseWait), int64(p.DoctorWait),
			string(record),
		)
		if err != nil {
			return "", fmt.Errorf("storage: insert patient %s: %w", p.Ref, err)
		}

		if p.Certificate != nil {
			if err := insertCertificate(tx, id, p.ID, string(p.CaseType), p.Certificate); err != nil {
				return "", err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("storage: commit: %w", err)
	}
	return id, nil
}

func insertCertificate(tx *sql.Tx, runID, patientID, caseType string, dec *expert.CertificateDecision) error {
	_, err := tx.Exec(
		`INSERT INTO certificates (run_id, patient_id, certificate_id, issued, days,
		 rule, decided_by, decided_at, case_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullable(runID), nullable(patientID), nullable(dec.CertificateID), dec.Issued,
		dec.DurationDays, nullable(dec.RuleName), dec.DecidedBy, dec.DecidedAt.UTC(),
		nullable(caseType), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage: insert certificate: %w", err)
	}
	return nil
}

func nullable(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

// LogCertificate appends a standalone decision to the audit trail, for
// assessments made outside a simulation run.
func (s *Store) LogCertificate(caseType string, dec *expert.CertificateDecision) error {
	_, err := s.db.Exec(
		`INSERT INTO certificates (run_id, patient_id, certificate_id, issued, days,
		 rule, decided_by, decided_at, case_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sql.NullString{}, sql.NullString{}, nullable(dec.CertificateID), dec.Issued,
		dec.DurationDays, nullable(dec.RuleName), dec.DecidedBy, dec.DecidedAt.UTC(),
		nullable(caseType), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage: log certificate: %w", err)
	}
	return nil
}

const runColumns = `id, scenario, strategy, seed, ruleset, anchor, duration_ns,
	 end_ns, hard_stopped, patients, completed, balked, certificates, created_at`

func scanRun(row interface{ Scan(...any) error }) (*RunRecord, error) {
	var r RunRecord
	var duration, end int64
	err := row.Scan(&r.ID, &r.Scenario, &r.Strategy, &r.Seed, &r.Ruleset, &r.Anchor,
		&duration, &end, &r.HardStopped, &r.Patients, &r.Completed, &r.Balked,
		&r.Certificates, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.Duration = time.Duration(duration)
	r.EndTime = time.Duration(end)
	return &r, nil
}

// Run retrieves a stored run header by id.
func (s *Store) Run(id string) (*RunRecord, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err != nil {
		return nil, fmt.Errorf("storage: run %s: %w", id, err)
	}
	return r, nil
}

// RecentRuns returns the most recently stored runs, newest first.
func (s *Store) RecentRuns(limit int) ([]*RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: recent runs: %w", err)
	}
	defer rows.Close()

	var runs []*RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Patients rebuilds the full patient records of a run from their stored
// JSON, in arrival order.
func (s *Store) Patients(runID string) ([]*sim.Patient, error) {
	rows, err := s.db.Query(
		`SELECT record FROM patients WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("storage: patients of %s: %w", runID, err)
	}
	defer rows.Close()

	var patients []*sim.Patient
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("storage: scan patient: %w", err)
		}
		var p sim.Patient
		if err := json.Unmarshal([]byte(record), &p); err != nil {
			return nil, fmt.Errorf("storage: decode patient: %w", err)
		}
		patients = append(patients, &p)
	}
	return patients, rows.Err()
}

// Certificates returns the audit rows of one run, in decision order.
func (s *Store) Certificates(runID string) ([]*CertificateRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, patient_id, certificate_id, issued, days, rule, decided_by,
		 decided_at, case_type
		 FROM certificates WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("storage: certificates of %s: %w", runID, err)
	}
	defer rows.Close()
	return collectCertificates(rows)
}

// CertificateByID looks up one issued certificate by its public id.
func (s *Store) CertificateByID(certificateID string) (*CertificateRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, patient_id, certificate_id, issued, days, rule, decided_by,
		 decided_at, case_type
		 FROM certificates WHERE certificate_id = ? LIMIT 1`, certificateID)
	if err != nil {
		return nil, fmt.Errorf("storage: certificate %s: %w", certificateID, err)
	}
	defer rows.Close()

	records, err := collectCertificates(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, sql.ErrNoRows
	}
	return records[0], nil
}

func collectCertificates(rows *sql.Rows) ([]*CertificateRecord, error) {
	var records []*CertificateRecord
	for rows.Next() {
		var c CertificateRecord
		var runID, patientID, certID, rule, caseType sql.NullString
		err := rows.Scan(&runID, &patientID, &certID, &c.Issued, &c.Days, &rule,
			&c.DecidedBy, &c.DecidedAt, &caseType)
		if err != nil {
			return nil, fmt.Errorf("storage: scan certificate: %w", err)
		}
		c.RunID = runID.String
		c.PatientID = patientID.String
		c.CertificateID = certID.String
		c.Rule = rule.String
		c.CaseType = caseType.String
		records = append(records, &c)
	}
	return records, rows.Err()
}

// ExportRunJSON exports a run header with its patients and certificates.
func (s *Store) ExportRunJSON(runID string) ([]byte, error) {
	run, err := s.Run(runID)
	if err != nil {
		return nil, err
	}
	patients, err := s.Patients(runID)
	if err != nil {
		return nil, err
	}
	certificates, err := s.Certificates(runID)
	if err != nil {
		return nil, err
	}

	export := map[string]any{
		"run":          run,
		"patients":     patients,
		"certificates": certificates,
	}
	return json.MarshalIndent(export, "", "  ")
}
