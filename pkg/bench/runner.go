// Package bench drives multi-trial benchmark campaigns: many seeded runs of
// the same building, each executed to completion or the tick limit, with
// per-trial summaries collected into one JSON report.
package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jihwankim/evacsim/pkg/config"
	"github.com/jihwankim/evacsim/pkg/model"
	"github.com/jihwankim/evacsim/pkg/monitoring"
	"github.com/jihwankim/evacsim/pkg/reporting"
	"github.com/jihwankim/evacsim/pkg/sim"
)

// DefaultTickLimit bounds a single trial. Occupants still unaccounted when
// it fires are counted as neither rescued nor dead.
const DefaultTickLimit = 600

// Config parameterizes a campaign.
type Config struct {
	Building     *config.BuildingConfig
	BuildingName string
	Trials       int
	BaseSeed     int64
	Responders   int
	TickLimit    int
	Model        model.Config
	Logger       *reporting.Logger
	Metrics      *monitoring.Metrics
}

// Runner executes benchmark campaigns.
type Runner struct {
	cfg Config
	log *reporting.Logger
}

// NewRunner creates a campaign runner.
func NewRunner(cfg Config) *Runner {
	if cfg.Trials <= 0 {
		cfg.Trials = 1
	}
	if cfg.Responders <= 0 {
		cfg.Responders = 1
	}
	if cfg.TickLimit <= 0 {
		cfg.TickLimit = DefaultTickLimit
	}
	if cfg.Logger == nil {
		cfg.Logger = reporting.Nop()
	}
	return &Runner{cfg: cfg, log: cfg.Logger}
}

// Run executes the campaign. Cancelling ctx stops after the current trial.
func (r *Runner) Run(ctx context.Context) (*reporting.RunReport, error) {
	report := &reporting.RunReport{
		RunID:      uuid.NewString(),
		Building:   r.cfg.BuildingName,
		StartTime:  time.Now(),
		Responders: r.cfg.Responders,
		FireWeight: r.cfg.Model.FirePriorityWeight,
	}

	for i := 0; i < r.cfg.Trials; i++ {
		select {
		case <-ctx.Done():
			r.log.Warn("campaign interrupted", "completed", i, "requested", r.cfg.Trials)
			return r.finish(report), ctx.Err()
		default:
		}

		seed := r.cfg.BaseSeed + int64(i)
		trial, err := r.runTrial(seed)
		if err != nil {
			return r.finish(report), fmt.Errorf("trial %d (seed %d): %w", i, seed, err)
		}
		report.Trials = append(report.Trials, trial)
		r.log.Info("trial complete",
			"trial", i, "seed", seed, "rescued", trial.Rescued,
			"dead", trial.Dead, "survival", fmt.Sprintf("%.2f", trial.SurvivalRate))
	}

	return r.finish(report), nil
}

func (r *Runner) finish(report *reporting.RunReport) *reporting.RunReport {
	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime).String()
	return report
}

// runTrial executes one seeded run to completion or the tick limit.
func (r *Runner) runTrial(seed int64) (reporting.TrialReport, error) {
	s, err := sim.New(r.cfg.Building, sim.Params{
		NumResponders:  r.cfg.Responders,
		FireOrigin:     -1,
		Seed:           seed,
		CarryCapacity:  r.cfg.Model.KCapacity,
		ActionsPerTick: 0, // kernel default
	})
	if err != nil {
		return reporting.TrialReport{}, err
	}

	mcfg := r.cfg.Model
	mcfg.SweepSeed = seed
	m := model.New(mcfg, r.cfg.Logger)

	for s.Stats().Remaining > 0 && s.Tick() < r.cfg.TickLimit {
		state := s.Read()
		actions := m.Decide(state)
		if _, err := s.Update(actions); err != nil {
			return reporting.TrialReport{}, err
		}
	}

	stats := s.Stats()
	trial := reporting.TrialReport{
		Seed:           seed,
		FireOrigin:     r.cfg.Building.FireParams.OriginVertexID,
		Rescued:        stats.Rescued,
		Dead:           stats.Dead,
		TotalInitial:   stats.TotalInitial,
		TimeTicks:      stats.Tick,
		LastRescueTick: s.LastRescueTick(),
		ReplanCount:    m.ReplanCount(),
	}
	if stats.TotalInitial > 0 {
		trial.SurvivalRate = float64(stats.Rescued) / float64(stats.TotalInitial)
	}
	if stats.Remaining > 0 {
		trial.Unaccounted = stats.Remaining
	}

	if mt := r.cfg.Metrics; mt != nil {
		mt.TrialsCompleted.Inc()
		mt.TicksSimulated.Add(float64(stats.Tick))
		mt.Rescued.Add(float64(stats.Rescued))
		mt.Dead.Add(float64(stats.Dead))
		mt.ReplanEvents.Add(float64(m.ReplanCount()))
		opt := m.LastOptimization()
		mt.ItemsGenerated.Add(float64(opt.Generated))
		mt.ItemsPruned.Add(float64(opt.Pruned))
		mt.SurvivalRate.Set(trial.SurvivalRate)
	}

	return trial, nil
}
