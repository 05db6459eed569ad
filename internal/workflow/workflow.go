package workflow

import (
	"context"
	"log/slog"
)

// Step is one unit of a multi-write operation. Critical steps abort
// the run on failure; the rest are best-effort and the run continues,
// recording the error.
type Step struct {
	Name     string
	Critical bool
	Run      func(ctx context.Context) error
}

type StepResult struct {
	Name string `json:"name"`
	Err  error  `json:"-"`
}

// Result records what each step did. Partial success is an expected
// outcome for best-effort cascades; callers report it rather than
// rolling back.
type Result struct {
	Steps   []StepResult `json:"steps"`
	Aborted bool         `json:"aborted"`
}

// Failed returns the names of steps that returned an error.
func (r *Result) Failed() []string {
	var failed []string
	for _, s := range r.Steps {
		if s.Err != nil {
			failed = append(failed, s.Name)
		}
	}
	return failed
}

// FirstError returns the first step error, if any.
func (r *Result) FirstError() error {
	for _, s := range r.Steps {
		if s.Err != nil {
			return s.Err
		}
	}
	return nil
}

type stepMetrics interface {
	StepFailed(workflow, step string)
}

type runner struct {
	metrics stepMetrics
}

func (rn *runner) run(ctx context.Context, name string, steps []Step) *Result {
	result := &Result{}
	for _, step := range steps {
		err := step.Run(ctx)
		result.Steps = append(result.Steps, StepResult{Name: step.Name, Err: err})
		if err == nil {
			continue
		}

		slog.Error("Workflow step failed",
			"workflow", name, "step", step.Name, "critical", step.Critical, "error", err)
		if rn.metrics != nil {
			rn.metrics.StepFailed(name, step.Name)
		}
		if step.Critical {
			result.Aborted = true
			return result
		}
	}
	return result
}
