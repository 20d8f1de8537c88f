package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/pdfharvest/internal/model"
)

// Step is one stage of a harvest run. Steps run in sequence and share the
// run report.
type Step interface {
	// Do executes the step. Per-item failures are logged and recorded in the
	// report; an error return means the run cannot continue.
	Do(ctx context.Context, report *model.RunReport) error

	// Name identifies the step in log events and PerformedSteps.
	Name() string
}

// Pipeline runs its steps in order against one RunReport.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger for step events.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates an empty Pipeline. Add steps with AddStep or AddSteps.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{steps: make([]Step, 0)}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends steps in the given order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs the steps in order. A cancelled ctx stops the run before the
// next step starts and marks the report cancelled.
//
// The first step error is stored on the report and returned. A failed step
// is not listed in PerformedSteps.
func (p *Pipeline) Execute(ctx context.Context, report *model.RunReport) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline_cancelled",
				"step", step.Name(),
				"run_id", report.RunID,
				"reason", err.Error(),
			)
			report.Cancelled = true
			return err
		}

		p.logger.Debug("step_started", "step", step.Name(), "run_id", report.RunID)
		started := time.Now()

		err := step.Do(ctx, report)
		if err == nil {
			p.logger.Debug("step_completed",
				"step", step.Name(),
				"run_id", report.RunID,
				"elapsed_ms", time.Since(started).Milliseconds(),
			)
			report.PerformedSteps = append(report.PerformedSteps, step.Name())
			continue
		}

		p.logger.Error("step_failed",
			"step", step.Name(),
			"run_id", report.RunID,
			"error", err.Error(),
		)
		if ctx.Err() != nil {
			report.Cancelled = true
		}
		report.Error = err
		report.ErrorMessage = err.Error()
		return err
	}

	return nil
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
