package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/aquasense/aquasense/internal/i18n"
	"github.com/aquasense/aquasense/internal/tools"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeTool is a scriptable Tool for executor tests.
type fakeTool struct {
	name      string
	outputKey string
	mandatory []string
	invoke    func(ctx context.Context, in tools.Input) (tools.Output, error)
}

func (f *fakeTool) Name() string        { return f.name }
func (f *fakeTool) Describe() string    { return f.name }
func (f *fakeTool) OutputKey() string   { return f.outputKey }
func (f *fakeTool) Mandatory() []string { return f.mandatory }
func (f *fakeTool) Invoke(ctx context.Context, in tools.Input) (tools.Output, error) {
	return f.invoke(ctx, in)
}

func newTestExecutor(t *testing.T, timeout time.Duration, fakes ...*fakeTool) *Executor {
	t.Helper()
	reg := tools.NewRegistry()
	for _, f := range fakes {
		if err := reg.Register(f); err != nil {
			t.Fatalf("Register(%q) error = %v", f.name, err)
		}
	}
	return NewExecutor(reg, timeout, nil)
}

func TestExecutorParallelism(t *testing.T) {
	// Each tool blocks until the other has started. The test only passes
	// when independent steps actually run concurrently.
	aStarted := make(chan struct{})
	bStarted := make(chan struct{})

	a := &fakeTool{name: "a", outputKey: "a", invoke: func(ctx context.Context, _ tools.Input) (tools.Output, error) {
		close(aStarted)
		select {
		case <-bStarted:
			return tools.Output{"a": 1}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}}
	b := &fakeTool{name: "b", outputKey: "b", invoke: func(ctx context.Context, _ tools.Input) (tools.Output, error) {
		close(bStarted)
		select {
		case <-aStarted:
			return tools.Output{"b": 2}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}}

	exec := newTestExecutor(t, 2*time.Second, a, b).Execute(context.Background(), Plan{
		Steps: []Step{{Tool: "a"}, {Tool: "b"}},
	}, i18n.LangEN)

	for _, name := range []string{"a", "b"} {
		if res := exec.Results[name]; res.Failed() {
			t.Errorf("%s failed: %v", name, res.Err)
		}
	}
}

func TestExecutorDependencyOutputFlow(t *testing.T) {
	up := &fakeTool{name: "up", outputKey: "data", invoke: func(context.Context, tools.Input) (tools.Output, error) {
		return tools.Output{"data": "payload"}, nil
	}}

	var got atomic.Value
	down := &fakeTool{name: "down", outputKey: "out", invoke: func(_ context.Context, in tools.Input) (tools.Output, error) {
		got.Store(in["data"])
		return tools.Output{"out": true}, nil
	}}

	exec := newTestExecutor(t, time.Second, up, down).Execute(context.Background(), Plan{
		Steps: []Step{
			{Tool: "up"},
			{Tool: "down", DependsOn: []string{"up"}},
		},
	}, i18n.LangEN)

	if res := exec.Results["down"]; res.Failed() {
		t.Fatalf("down failed: %v", res.Err)
	}
	if got.Load() != "payload" {
		t.Errorf("downstream input = %v, want upstream output", got.Load())
	}
}

func TestExecutorFailureIsolation(t *testing.T) {
	failing := &fakeTool{name: "failing", outputKey: "x", invoke: func(context.Context, tools.Input) (tools.Output, error) {
		return nil, errors.New("backend down")
	}}
	healthy := &fakeTool{name: "healthy", outputKey: "y", invoke: func(context.Context, tools.Input) (tools.Output, error) {
		return tools.Output{"y": "ok"}, nil
	}}

	exec := newTestExecutor(t, time.Second, failing, healthy).Execute(context.Background(), Plan{
		Steps: []Step{{Tool: "failing"}, {Tool: "healthy"}},
	}, i18n.LangEN)

	if res := exec.Results["healthy"]; res.Failed() {
		t.Errorf("healthy tool aborted by sibling failure: %v", res.Err)
	}
	res := exec.Results["failing"]
	if !res.Failed() || res.Err.Kind != tools.KindExecution {
		t.Errorf("failing result = %+v, want execution failure", res)
	}
}

func TestExecutorOptionalDependencyFailure(t *testing.T) {
	failing := &fakeTool{name: "optional", outputKey: "x", invoke: func(context.Context, tools.Input) (tools.Output, error) {
		return nil, errors.New("boom")
	}}

	var marker atomic.Value
	down := &fakeTool{name: "down", outputKey: "y", invoke: func(_ context.Context, in tools.Input) (tools.Output, error) {
		marker.Store(in[tools.KeyUnavailable])
		return tools.Output{"y": "degraded"}, nil
	}}

	exec := newTestExecutor(t, time.Second, failing, down).Execute(context.Background(), Plan{
		Steps: []Step{
			{Tool: "optional"},
			{Tool: "down", DependsOn: []string{"optional"}},
		},
	}, i18n.LangEN)

	if res := exec.Results["down"]; res.Failed() {
		t.Fatalf("down should run despite optional dependency failure: %v", res.Err)
	}
	unavailable, ok := marker.Load().([]string)
	if !ok || len(unavailable) != 1 || unavailable[0] != "optional" {
		t.Errorf("unavailable marker = %v, want [optional]", marker.Load())
	}
}

func TestExecutorMandatoryDependencyShortCircuit(t *testing.T) {
	failing := &fakeTool{name: tools.NamePredictor, outputKey: "x", invoke: func(context.Context, tools.Input) (tools.Output, error) {
		return nil, errors.New("boom")
	}}

	var invoked atomic.Bool
	down := &fakeTool{
		name:      tools.NameSynthesizer,
		outputKey: "y",
		mandatory: []string{tools.NamePredictor},
		invoke: func(context.Context, tools.Input) (tools.Output, error) {
			invoked.Store(true)
			return tools.Output{}, nil
		},
	}

	exec := newTestExecutor(t, time.Second, failing, down).Execute(context.Background(), Plan{
		Steps: []Step{
			{Tool: tools.NamePredictor},
			{Tool: tools.NameSynthesizer, DependsOn: []string{tools.NamePredictor}},
		},
	}, i18n.LangEN)

	if invoked.Load() {
		t.Error("synthesizer was invoked despite failed mandatory dependency")
	}
	res := exec.Results[tools.NameSynthesizer]
	if !res.Failed() || res.Err.Kind != tools.KindDependency {
		t.Fatalf("result = %+v, want dependency failure", res)
	}
	if !strings.Contains(res.Err.Message, "upstream dependency predictor failed") {
		t.Errorf("message = %q", res.Err.Message)
	}
}

func TestExecutorTimeout(t *testing.T) {
	slow := &fakeTool{name: "slow", outputKey: "x", invoke: func(ctx context.Context, _ tools.Input) (tools.Output, error) {
		select {
		case <-time.After(5 * time.Second):
			return tools.Output{}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}}

	start := time.Now()
	exec := newTestExecutor(t, 50*time.Millisecond, slow).Execute(context.Background(), Plan{
		Steps: []Step{{Tool: "slow"}},
	}, i18n.LangEN)

	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout not enforced, took %v", elapsed)
	}
	res := exec.Results["slow"]
	if !res.Failed() || res.Err.Kind != tools.KindTimeout {
		t.Fatalf("result = %+v, want timeout failure", res)
	}
}

func TestExecutorTrace(t *testing.T) {
	t.Run("start line then failure annotation", func(t *testing.T) {
		failing := &fakeTool{name: tools.NameRetriever, outputKey: "x", invoke: func(context.Context, tools.Input) (tools.Output, error) {
			return nil, errors.New("index offline")
		}}

		exec := newTestExecutor(t, time.Second, failing).Execute(context.Background(), Plan{
			Steps: []Step{{Tool: tools.NameRetriever}},
		}, i18n.LangEN)

		if len(exec.Trace) != 2 {
			t.Fatalf("trace = %v, want start + failure annotation", exec.Trace)
		}
		if exec.Trace[0] != i18n.T(i18n.LangEN, "step.retriever") {
			t.Errorf("trace[0] = %q", exec.Trace[0])
		}
		if !strings.Contains(exec.Trace[1], "failed") {
			t.Errorf("trace[1] = %q, want failure annotation", exec.Trace[1])
		}
	})

	t.Run("chinese trace", func(t *testing.T) {
		ok := &fakeTool{name: tools.NamePredictor, outputKey: "x", invoke: func(context.Context, tools.Input) (tools.Output, error) {
			return tools.Output{}, nil
		}}

		exec := newTestExecutor(t, time.Second, ok).Execute(context.Background(), Plan{
			Steps: []Step{{Tool: tools.NamePredictor}},
		}, i18n.LangZH)

		if len(exec.Trace) != 1 || exec.Trace[0] != i18n.T(i18n.LangZH, "step.predictor") {
			t.Errorf("trace = %v", exec.Trace)
		}
	})
}
