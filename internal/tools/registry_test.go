package tools

import (
	"context"
	"errors"
	"testing"
)

// stubTool is a minimal Tool for registry tests.
type stubTool struct {
	name string
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Describe() string    { return "stub" }
func (s *stubTool) OutputKey() string   { return s.name }
func (s *stubTool) Mandatory() []string { return nil }
func (s *stubTool) Invoke(context.Context, Input) (Output, error) {
	return Output{}, nil
}

func TestRegistry(t *testing.T) {
	t.Run("register and get", func(t *testing.T) {
		reg := NewRegistry()
		tool := &stubTool{name: "alpha"}
		if err := reg.Register(tool); err != nil {
			t.Fatalf("Register() error = %v", err)
		}

		got, err := reg.Get("alpha")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got != Tool(tool) {
			t.Error("Get() returned a different tool")
		}
	})

	t.Run("duplicate registration fails", func(t *testing.T) {
		reg := NewRegistry()
		if err := reg.Register(&stubTool{name: "alpha"}); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		err := reg.Register(&stubTool{name: "alpha"})
		if !errors.Is(err, ErrDuplicateTool) {
			t.Errorf("Register() error = %v, want ErrDuplicateTool", err)
		}
	})

	t.Run("unknown name fails", func(t *testing.T) {
		reg := NewRegistry()
		_, err := reg.Get("missing")
		if !errors.Is(err, ErrToolNotFound) {
			t.Errorf("Get() error = %v, want ErrToolNotFound", err)
		}
	})

	t.Run("nil tool rejected", func(t *testing.T) {
		reg := NewRegistry()
		if err := reg.Register(nil); err == nil {
			t.Error("Register(nil) should fail")
		}
	})

	t.Run("names sorted", func(t *testing.T) {
		reg := NewRegistry()
		for _, name := range []string{"zeta", "alpha", "mid"} {
			if err := reg.Register(&stubTool{name: name}); err != nil {
				t.Fatalf("Register(%q) error = %v", name, err)
			}
		}
		names := reg.Names()
		want := []string{"alpha", "mid", "zeta"}
		if len(names) != len(want) {
			t.Fatalf("Names() = %v, want %v", names, want)
		}
		for i := range want {
			if names[i] != want[i] {
				t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
			}
		}
		if reg.Count() != 3 {
			t.Errorf("Count() = %d, want 3", reg.Count())
		}
	})
}
