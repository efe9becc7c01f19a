package monitor

import (
	"context"
	"time"

	"github.com/nexerp-ops/procmon-backend-go/internal/core/rules"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"
)

// Sampler reads host metrics and runs them through the evaluation engine as
// system events.
type Sampler struct {
	engine   *rules.Engine
	diskPath string
	logger   *logrus.Logger
}

// NewSampler creates a sampler. diskPath defaults to "/".
func NewSampler(engine *rules.Engine, diskPath string, logger *logrus.Logger) *Sampler {
	if diskPath == "" {
		diskPath = "/"
	}
	return &Sampler{
		engine:   engine,
		diskPath: diskPath,
		logger:   logger,
	}
}

// Sample collects cpu, memory and disk readings and evaluates one event per
// metric. Collection failures skip the metric rather than aborting the run.
func (s *Sampler) Sample(ctx context.Context) {
	for metric, value := range s.collect(ctx) {
		event := rules.Event{
			"source":    "system",
			metric:      value,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		if _, err := s.engine.Evaluate(ctx, event); err != nil {
			s.logger.WithError(err).WithField("metric", metric).Error("Failed to evaluate system sample")
		}
	}
}

func (s *Sampler) collect(ctx context.Context) map[string]float64 {
	samples := make(map[string]float64)

	if percentages, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percentages) > 0 {
		samples["cpu_usage"] = percentages[0]
	} else if err != nil {
		s.logger.WithError(err).Warn("Failed to sample cpu usage")
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		samples["memory_usage"] = vm.UsedPercent
	} else {
		s.logger.WithError(err).Warn("Failed to sample memory usage")
	}

	if usage, err := disk.UsageWithContext(ctx, s.diskPath); err == nil {
		samples["disk_usage"] = usage.UsedPercent
	} else {
		s.logger.WithError(err).Warn("Failed to sample disk usage")
	}

	return samples
}
