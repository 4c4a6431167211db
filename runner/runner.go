// Package runner executes batches of simulation runs and aggregates their
// statistics. Runs are independent, so batches fan out across workers;
// each run still owns its context, clock, and random source.
package runner

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/clinflow-xyz/go-clinflow/kb"
	"github.com/clinflow-xyz/go-clinflow/logger"
	"github.com/clinflow-xyz/go-clinflow/scenario"
	"github.com/clinflow-xyz/go-clinflow/sim"
	"github.com/clinflow-xyz/go-clinflow/stats"
)

// Options configures a batch.
type Options struct {
	Scenario scenario.Scenario
	KB       *kb.KnowledgeBase // nil uses kb.Default()
	Strategy string
	Runs     int
	Seed     int64 // base seed; run i uses Seed+i. 0 picks the clock.
	Workers  int   // concurrent runs, 0 = NumCPU
	Anchor   time.Time
	Log      *logrus.Logger // nil uses the shared logger
}

// BatchResult bundles the runs of one batch with their aggregation.
type BatchResult struct {
	ID       string                `json:"id"`
	Scenario string                `json:"scenario"`
	Strategy string                `json:"strategy"`
	Seed     int64                 `json:"seed"`
	Results  []*sim.Result         `json:"-"`
	Stats    []stats.RunStatistics `json:"stats"`
	Summary  stats.ScenarioSummary `json:"summary"`
	Elapsed  time.Duration         `json:"elapsed"`
}

// RunBatch executes opts.Runs simulation runs and aggregates them. The
// batch fails whole: one failing run discards the lot.
func RunBatch(opts Options) (*BatchResult, error) {
	if opts.Runs < 1 {
		return nil, fmt.Errorf("runner: batch needs at least one run, got %d", opts.Runs)
	}
	log := opts.Log
	if log == nil {
		log = logger.Log
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > opts.Runs {
		workers = opts.Runs
	}

	batch := &BatchResult{
		ID:       uuid.NewString(),
		Scenario: opts.Scenario.Name,
		Strategy: opts.Strategy,
		Seed:     seed,
		Results:  make([]*sim.Result, opts.Runs),
	}
	log.WithFields(logrus.Fields{
		"batch":    batch.ID,
		"scenario": opts.Scenario.Name,
		"strategy": opts.Strategy,
		"runs":     opts.Runs,
		"seed":     seed,
		"workers":  workers,
	}).Info("starting batch")

	start := time.Now()
	errs := make([]error, opts.Runs)
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i := 0; i < opts.Runs; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			scn := opts.Scenario
			res, err := sim.Run(sim.Config{
				Scenario: &scn,
				KB:       opts.KB,
				Strategy: opts.Strategy,
				Seed:     seed + int64(i),
				Anchor:   opts.Anchor,
			})
			if err != nil {
				errs[i] = err
				return
			}
			batch.Results[i] = res
			log.WithFields(logrus.Fields{
				"batch":    batch.ID,
				"run":      i,
				"patients": len(res.Patients),
			}).Debug("run complete")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("runner: batch aborted: %w", err)
		}
	}

	batch.Stats = make([]stats.RunStatistics, opts.Runs)
	for i, res := range batch.Results {
		batch.Stats[i] = stats.FromResult(res)
	}
	summary, err := stats.Aggregate(batch.Stats)
	if err != nil {
		return nil, err
	}
	batch.Summary = summary
	batch.Elapsed = time.Since(start)

	log.WithFields(logrus.Fields{
		"batch":   batch.ID,
		"elapsed": batch.Elapsed.String(),
	}).Info("batch complete")
	return batch, nil
}

// Comparison pairs the two generation strategies over identical seeds.
type Comparison struct {
	Scenario string                `json:"scenario"`
	Runs     int                   `json:"runs"`
	Agent    stats.ScenarioSummary `json:"agent"`
	Survey   stats.ScenarioSummary `json:"survey"`
}

// Compare runs the same batch under both strategies so their summaries
// share scenario, seeds, and run count.
func Compare(opts Options) (*Comparison, error) {
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}

	opts.Strategy = sim.StrategyAgent
	agent, err := RunBatch(opts)
	if err != nil {
		return nil, err
	}

	opts.Strategy = sim.StrategySurvey
	survey, err := RunBatch(opts)
	if err != nil {
		return nil, err
	}

	return &Comparison{
		Scenario: opts.Scenario.Name,
		Runs:     opts.Runs,
		Agent:    agent.Summary,
		Survey:   survey.Summary,
	}, nil
}
