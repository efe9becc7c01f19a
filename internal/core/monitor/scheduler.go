package monitor

import (
	"context"
	"time"

	"github.com/nexerp-ops/procmon-backend-go/internal/config"
	"github.com/nexerp-ops/procmon-backend-go/internal/core/learning"
	"github.com/nexerp-ops/procmon-backend-go/internal/database/repositories"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler drives the periodic background work: host metric sampling and
// feedback-driven rule optimization.
type Scheduler struct {
	cron    *cron.Cron
	cfg     config.MonitorConfig
	sampler *Sampler
	learner *learning.Learner
	rules   repositories.RuleRepository
	logger  *logrus.Logger
}

// NewScheduler creates a scheduler from the monitor configuration.
func NewScheduler(
	cfg config.MonitorConfig,
	sampler *Sampler,
	learner *learning.Learner,
	ruleRepo repositories.RuleRepository,
	logger *logrus.Logger,
) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		cfg:     cfg,
		sampler: sampler,
		learner: learner,
		rules:   ruleRepo,
		logger:  logger,
	}
}

// Start registers the enabled jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if s.cfg.SamplerEnabled && s.sampler != nil {
		if _, err := s.cron.AddFunc(s.cfg.SampleSchedule, s.runSample); err != nil {
			return err
		}
		s.logger.WithField("schedule", s.cfg.SampleSchedule).Info("Scheduled system metric sampling")
	}

	if s.cfg.OptimizeEnabled && s.learner != nil {
		if _, err := s.cron.AddFunc(s.cfg.OptimizeSchedule, s.runOptimize); err != nil {
			return err
		}
		s.logger.WithField("schedule", s.cfg.OptimizeSchedule).Info("Scheduled periodic rule optimization")
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runSample() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.sampler.Sample(ctx)
}

// runOptimize sweeps every enabled rule through the learner. Rules without
// suggestions fail fast and are skipped quietly.
func (s *Scheduler) runOptimize() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	stored, err := s.rules.GetAll(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load rules for optimization sweep")
		return
	}

	optimized := 0
	for _, rule := range stored {
		if !rule.Enabled {
			continue
		}
		if _, err := s.learner.AutoOptimizeRule(ctx, rule.ID, 30); err != nil {
			s.logger.WithError(err).WithField("rule_id", rule.ID).Debug("Rule not optimized")
			continue
		}
		optimized++
	}

	if optimized > 0 {
		s.logger.WithField("optimized", optimized).Info("Optimization sweep applied rule variants")
	}
}
