package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aquasense/aquasense/internal/i18n"
	"github.com/aquasense/aquasense/internal/tools"
)

// defaultToolTimeout bounds one tool invocation when no timeout is
// configured.
const defaultToolTimeout = 10 * time.Second

// Result is one tool's outcome: a structured output bag or a failure.
type Result struct {
	Output tools.Output
	Err    *tools.Error
}

// Failed reports whether the tool did not produce an output.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Execution collects everything one plan run produced: per-tool results and
// the ordered, user-facing step trace.
type Execution struct {
	Results map[string]Result
	Trace   []string
}

// Executor runs execution plans: independent tools in parallel, dependent
// tools after their predecessors, each invocation bounded by a per-tool
// timeout, each failure isolated to its own result.
type Executor struct {
	registry *tools.Registry
	timeout  time.Duration
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewExecutor creates an executor over the given registry.
// timeout bounds one tool invocation; values <= 0 fall back to 10 seconds.
func NewExecutor(registry *tools.Registry, timeout time.Duration, logger *slog.Logger) *Executor {
	if timeout <= 0 {
		timeout = defaultToolTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		registry: registry,
		timeout:  timeout,
		logger:   logger,
		tracer:   otel.Tracer("aquasense/orchestrator"),
	}
}

// runState is the shared mutable state of one Execute call.
type runState struct {
	mu      sync.Mutex
	results map[string]Result
	trace   []string
}

func (rs *runState) setResult(tool string, r Result) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.results[tool] = r
}

func (rs *runState) result(tool string) (Result, bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	r, ok := rs.results[tool]
	return r, ok
}

func (rs *runState) appendTrace(line string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.trace = append(rs.trace, line)
}

// Execute runs the plan. One goroutine per step; each step waits on its
// dependencies' completion channels, never on unrelated steps. The caller
// must hand over a validated plan.
//
// lang selects the language of the step trace lines.
func (e *Executor) Execute(ctx context.Context, plan Plan, lang string) *Execution {
	state := &runState{results: make(map[string]Result, len(plan.Steps))}
	if plan.Empty() {
		return &Execution{Results: state.results}
	}

	done := make(map[string]chan struct{}, len(plan.Steps))
	for _, step := range plan.Steps {
		done[step.Tool] = make(chan struct{})
	}

	var wg sync.WaitGroup
	for _, step := range plan.Steps {
		wg.Add(1)
		go func(step Step) {
			defer wg.Done()
			defer close(done[step.Tool])

			for _, dep := range step.DependsOn {
				select {
				case <-done[dep]:
				case <-ctx.Done():
					state.setResult(step.Tool, Result{Err: &tools.Error{
						Tool:    step.Tool,
						Kind:    tools.KindTimeout,
						Message: "turn cancelled",
						Err:     ctx.Err(),
					}})
					return
				}
			}
			e.runStep(ctx, step, lang, state)
		}(step)
	}
	wg.Wait()

	return &Execution{Results: state.results, Trace: state.trace}
}

// runStep prepares one step's input from its dependencies and invokes the
// tool, converting every failure into a Result.
func (e *Executor) runStep(ctx context.Context, step Step, lang string, state *runState) {
	tool, err := e.registry.Get(step.Tool)
	if err != nil {
		state.setResult(step.Tool, Result{Err: &tools.Error{
			Tool:    step.Tool,
			Kind:    tools.KindExecution,
			Message: "tool not registered",
			Err:     err,
		}})
		state.appendTrace(i18n.Sprintf(lang, "step."+step.Tool+".failed", step.Tool))
		return
	}

	mandatory := make(map[string]struct{})
	for _, name := range tool.Mandatory() {
		mandatory[name] = struct{}{}
	}

	input := cloneInput(step.Input)
	var unavailable []string
	for _, dep := range step.DependsOn {
		res, ok := state.result(dep)
		if !ok || res.Failed() {
			if _, must := mandatory[dep]; must {
				// Short-circuit: the tool is never invoked.
				state.setResult(step.Tool, Result{Err: &tools.Error{
					Tool:    step.Tool,
					Kind:    tools.KindDependency,
					Message: fmt.Sprintf("upstream dependency %s failed", dep),
				}})
				state.appendTrace(i18n.Sprintf(lang, "step."+step.Tool+".failed",
					i18n.Sprintf(lang, "tool.dependency", dep)))
				return
			}
			unavailable = append(unavailable, dep)
			continue
		}
		for k, v := range res.Output {
			input[k] = v
		}
	}
	if len(unavailable) > 0 {
		input[tools.KeyUnavailable] = unavailable
	}

	state.appendTrace(i18n.T(lang, "step."+step.Tool))

	out, invokeErr := e.invoke(ctx, tool, input)
	if invokeErr != nil {
		te := tools.AsToolError(step.Tool, invokeErr)
		e.logger.Warn("tool failed",
			"tool", step.Tool, "kind", string(te.Kind), "error", te.Error())
		state.setResult(step.Tool, Result{Err: te})
		state.appendTrace(i18n.Sprintf(lang, "step."+step.Tool+".failed", failureReason(lang, te)))
		return
	}

	e.logger.Debug("tool completed", "tool", step.Tool)
	state.setResult(step.Tool, Result{Output: out})
}

// invoke runs one tool call under the per-tool timeout. The select fires on
// deadline even when the tool ignores its context; the inner goroutine then
// finishes on its own and its late result is discarded.
func (e *Executor) invoke(ctx context.Context, tool tools.Tool, input tools.Input) (tools.Output, error) {
	ctx, span := e.tracer.Start(ctx, "tool."+tool.Name(),
		trace.WithAttributes(attribute.String("tool.name", tool.Name())))
	defer span.End()

	tctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type outcome struct {
		out tools.Output
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		out, err := tool.Invoke(tctx, input)
		ch <- outcome{out: out, err: err}
	}()

	select {
	case oc := <-ch:
		if oc.err != nil {
			span.SetStatus(codes.Error, oc.err.Error())
		}
		return oc.out, oc.err
	case <-tctx.Done():
		span.SetStatus(codes.Error, "timed out")
		return nil, &tools.Error{
			Tool:    tool.Name(),
			Kind:    tools.KindTimeout,
			Message: "timed out",
			Err:     tctx.Err(),
		}
	}
}

// failureReason renders a tool error as a user-facing reason string.
func failureReason(lang string, te *tools.Error) string {
	switch te.Kind {
	case tools.KindTimeout:
		return i18n.T(lang, "tool.timeout")
	case tools.KindInput:
		if strings.Contains(te.Message, "location") {
			return i18n.T(lang, "tool.missing_location")
		}
		return te.Message
	default:
		return te.Message
	}
}
