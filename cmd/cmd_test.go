package cmd

import (
	"context"
	"testing"

	"github.com/aquasense/aquasense/internal/config"
	"github.com/aquasense/aquasense/internal/log"
	"github.com/aquasense/aquasense/internal/tools"
)

func TestSubcommandsRegistered(t *testing.T) {
	want := map[string]bool{"serve": false, "ask": false, "migrate": false, "version": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestSetupMemoryStorage(t *testing.T) {
	cfg := &config.Config{
		Storage:            config.StorageMemory,
		TranscriptLimit:    10,
		ToolTimeoutSeconds: 5,
		RetrieverTopK:      3,
		PredictorURL:       "http://localhost:9009",
	}

	a, err := setup(context.Background(), cfg, log.NewNop())
	if err != nil {
		t.Fatalf("setup() error = %v", err)
	}
	defer a.Close()

	if a.Pool != nil {
		t.Error("memory storage should not create a pool")
	}
	if got := a.Registry.Count(); got != 3 {
		t.Errorf("registered tools = %d, want 3", got)
	}

	// The built-in corpus must answer retrieval queries out of the box.
	resp := a.Orchestrator.HandleTurn(context.Background(), "s1", "u1", "find information about pH", nil)
	if resp.Reply == "" {
		t.Error("empty reply")
	}
	if docs, ok := resp.Outputs["documents"]; !ok {
		t.Error("documents output missing")
	} else if list, ok := docs.([]tools.Document); !ok || len(list) == 0 {
		t.Errorf("documents output = %#v", docs)
	}
}

func TestSetupUnknownStorage(t *testing.T) {
	cfg := &config.Config{Storage: "etcd", ToolTimeoutSeconds: 5}
	if _, err := setup(context.Background(), cfg, log.NewNop()); err == nil {
		t.Error("setup() with unknown storage should fail")
	}
}
