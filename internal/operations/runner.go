package operations

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/olekukonko/tablewriter"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"milexcli/internal/infrastructure"
)

// TracerName names the tracer of batch runs
const TracerName = "milexcli.operations"

// Runner executes the registered steps in order. A failing step is
// recorded and the remaining steps still run.
type Runner struct {
	registry *Registry
	logger   *slog.Logger
	metrics  *infrastructure.Metrics
	tracer   trace.Tracer
}

// NewRunner creates a runner over registry. metrics may be nil.
func NewRunner(registry *Registry, logger *slog.Logger, metrics *infrastructure.Metrics) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		registry: registry,
		logger:   logger.With(slog.String("component", "runner")),
		metrics:  metrics,
		tracer:   otel.Tracer(TracerName),
	}
}

// Summary is the outcome of a run
type Summary struct {
	Steps   []*StepState
	Elapsed time.Duration
}

// Succeeded returns the names of completed steps
func (s *Summary) Succeeded() []string {
	var names []string
	for _, st := range s.Steps {
		if st.Succeeded() {
			names = append(names, st.Name)
		}
	}
	return names
}

// Failed returns the names of failed steps
func (s *Summary) Failed() []string {
	var names []string
	for _, st := range s.Steps {
		if !st.Succeeded() {
			names = append(names, st.Name)
		}
	}
	return names
}

// ExitCode returns ExitOK when every step succeeded, ExitNoInput when a
// step found no input spreadsheets and ExitStepFailure otherwise.
func (s *Summary) ExitCode() int {
	code := ExitOK
	for _, st := range s.Steps {
		if st.Succeeded() {
			continue
		}
		if c := ExitCodeFor(st.Error); c == ExitNoInput {
			return ExitNoInput
		} else if c > code {
			code = c
		}
	}
	return code
}

// Render writes the per-step table and the totals line to w
func (s *Summary) Render(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Step", "Status", "Duration", "Error"})
	table.SetAutoWrapText(false)
	for _, st := range s.Steps {
		errText := ""
		if st.Error != nil {
			errText = st.Error.Error()
		}
		table.Append([]string{
			st.Name,
			string(st.Status),
			st.Duration().Round(time.Millisecond).String(),
			errText,
		})
	}
	table.Render()

	fmt.Fprintf(w, "Total time: %s\n", s.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Succeeded: %d/%d\n", len(s.Succeeded()), len(s.Steps))
	if failed := s.Failed(); len(failed) > 0 {
		fmt.Fprintf(w, "Failed: %v\n", failed)
	}
}

// Run executes every registered step sequentially
func (r *Runner) Run(ctx context.Context) *Summary {
	start := time.Now()
	steps := r.registry.List()
	summary := &Summary{Steps: make([]*StepState, 0, len(steps))}

	for _, step := range steps {
		state := NewStepState(step.ID(), step.Name())
		summary.Steps = append(summary.Steps, state)
		r.execute(ctx, step, state)
	}

	summary.Elapsed = time.Since(start)
	r.logger.InfoContext(ctx, "batch finished",
		slog.Duration("elapsed", summary.Elapsed),
		slog.Int("succeeded", len(summary.Succeeded())),
		slog.Int("total", len(summary.Steps)),
		slog.Any("failed", summary.Failed()))
	return summary
}

func (r *Runner) execute(ctx context.Context, step Step, state *StepState) {
	ctx, span := r.tracer.Start(ctx, "step."+step.ID(),
		trace.WithAttributes(attribute.String("step.id", step.ID())))
	defer span.End()

	state.Start()
	r.logger.InfoContext(ctx, "step started", slog.String("step", step.ID()))

	var err error
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = NewCancellationError(step.ID(), ctxErr)
	} else if execErr := step.Execute(ctx); execErr != nil {
		err = NewExecutionError(step.ID(), execErr)
	}

	if err != nil {
		state.Fail(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.ErrorContext(ctx, "step failed",
			slog.String("step", step.ID()),
			slog.Duration("duration", state.Duration()),
			slog.String("error", err.Error()))
	} else {
		state.Complete()
		span.SetStatus(codes.Ok, "")
		r.logger.InfoContext(ctx, "step completed",
			slog.String("step", step.ID()),
			slog.Duration("duration", state.Duration()))
	}
	r.metrics.RecordStep(ctx, step.ID(), state.Duration(), err == nil)
}
