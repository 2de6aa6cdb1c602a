// Package orchestrator turns one user message plus session state into a set
// of tool invocations, executes them with isolated failure handling, and
// assembles a single structured response.
package orchestrator

import (
	"errors"
	"fmt"

	"github.com/aquasense/aquasense/internal/tools"
)

// Plan validation errors. Check with errors.Is().
var (
	ErrDuplicateStep     = errors.New("duplicate step in plan")
	ErrUnknownDependency = errors.New("dependency on a tool not in the plan")
	ErrCyclicPlan        = errors.New("plan contains a dependency cycle")
	ErrSelfDependency    = errors.New("tool depends on itself")
	ErrEmptyStepTool     = errors.New("step with empty tool name")
)

// Step is one planned tool invocation.
type Step struct {
	// Tool is the registry name of the tool to invoke.
	Tool string

	// Input is the seed input bag. The executor merges successful
	// dependency outputs into a copy before invoking.
	Input tools.Input

	// DependsOn lists tools in this plan whose completion this step
	// waits for.
	DependsOn []string
}

// Plan is the per-turn execution plan: which tools run and their
// dependency edges. A valid plan is acyclic with every edge pointing at
// another step in the same plan.
type Plan struct {
	Steps []Step
}

// Empty reports whether the plan selects no tools.
func (p Plan) Empty() bool {
	return len(p.Steps) == 0
}

// Tools returns the planned tool names in plan order.
func (p Plan) Tools() []string {
	names := make([]string, 0, len(p.Steps))
	for _, s := range p.Steps {
		names = append(names, s.Tool)
	}
	return names
}

// Validate checks plan well-formedness: unique non-empty step names, edges
// that stay inside the plan, no self-edges, and no cycles.
func (p Plan) Validate() error {
	inPlan := make(map[string]struct{}, len(p.Steps))
	for _, s := range p.Steps {
		if s.Tool == "" {
			return ErrEmptyStepTool
		}
		if _, dup := inPlan[s.Tool]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateStep, s.Tool)
		}
		inPlan[s.Tool] = struct{}{}
	}

	indegree := make(map[string]int, len(p.Steps))
	dependents := make(map[string][]string, len(p.Steps))
	for _, s := range p.Steps {
		indegree[s.Tool] += 0
		for _, dep := range s.DependsOn {
			if dep == s.Tool {
				return fmt.Errorf("%w: %s", ErrSelfDependency, s.Tool)
			}
			if _, ok := inPlan[dep]; !ok {
				return fmt.Errorf("%w: %s -> %s", ErrUnknownDependency, s.Tool, dep)
			}
			indegree[s.Tool]++
			dependents[dep] = append(dependents[dep], s.Tool)
		}
	}

	// Kahn's algorithm; leftover nodes mean a cycle.
	ready := make([]string, 0, len(p.Steps))
	for name, deg := range indegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}
	visited := 0
	for len(ready) > 0 {
		name := ready[len(ready)-1]
		ready = ready[:len(ready)-1]
		visited++
		for _, next := range dependents[name] {
			indegree[next]--
			if indegree[next] == 0 {
				ready = append(ready, next)
			}
		}
	}
	if visited != len(p.Steps) {
		return ErrCyclicPlan
	}
	return nil
}
