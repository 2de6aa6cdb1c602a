package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aquasense/aquasense/internal/i18n"
	"github.com/aquasense/aquasense/internal/knowledge"
	"github.com/aquasense/aquasense/internal/predict"
	"github.com/aquasense/aquasense/internal/report"
	"github.com/aquasense/aquasense/internal/session"
	"github.com/aquasense/aquasense/internal/tools"
)

// Fake collaborator services behind the real tool adapters.

type stubRetrieverSvc struct {
	results []knowledge.Result
	err     error
}

func (s *stubRetrieverSvc) Retrieve(context.Context, string, int) ([]knowledge.Result, error) {
	return s.results, s.err
}

type stubPredictorSvc struct {
	predictions map[string]predict.Prediction
	err         error
}

func (s *stubPredictorSvc) Predict(context.Context, float64, float64, map[string]float64) (map[string]predict.Prediction, error) {
	return s.predictions, s.err
}

type fixture struct {
	orch  *Orchestrator
	store *session.MemoryStore
}

func newFixture(t *testing.T, retSvc tools.RetrieverService, predSvc tools.PredictorService) *fixture {
	t.Helper()

	reg := tools.NewRegistry()
	for _, tool := range []tools.Tool{
		tools.NewRetriever(retSvc, 5, nil),
		tools.NewPredictor(predSvc, nil),
		tools.NewSynthesizer(report.NewGenerator(nil), nil),
	} {
		if err := reg.Register(tool); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}

	store := session.NewMemoryStore(50)
	orch := New(store, NewKeywordClassifier(), NewExecutor(reg, 2*time.Second, nil), NewComposer(nil), nil)
	return &fixture{orch: orch, store: store}
}

func healthyServices() (*stubRetrieverSvc, *stubPredictorSvc) {
	ret := &stubRetrieverSvc{results: []knowledge.Result{{
		Document: knowledge.Document{
			ID:       "d1",
			Content:  "Coastal seawater pH has trended down 0.02 units per decade.",
			Metadata: map[string]string{"source": "coastal-survey"},
		},
		Similarity: 0.91,
	}}}
	pred := &stubPredictorSvc{predictions: map[string]predict.Prediction{
		predict.TargetPH: {Value: 8.05, Confidence: 0.88, Tier: predict.TierGood},
	}}
	return ret, pred
}

func transcriptLen(t *testing.T, store *session.MemoryStore, sessionID string) int {
	t.Helper()
	turns, err := store.History(context.Background(), sessionID, 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	return len(turns)
}

func TestHandleTurnNoKeywords(t *testing.T) {
	f := newFixture(t, &stubRetrieverSvc{}, &stubPredictorSvc{})

	resp := f.orch.HandleTurn(context.Background(), "s1", "u1", "good morning", nil)

	if resp.Reply == "" {
		t.Error("reply is empty")
	}
	if len(resp.Outputs) != 0 {
		t.Errorf("outputs = %v, want empty", resp.Outputs)
	}
	if len(resp.Suggestions) == 0 {
		t.Error("fallback reply should carry suggestions")
	}
	if got := transcriptLen(t, f.store, "s1"); got != 1 {
		t.Errorf("transcript length = %d, want 1", got)
	}
}

func TestHandleTurnChineseSearchAndPredict(t *testing.T) {
	ret, pred := healthyServices()
	f := newFixture(t, ret, pred)

	loc := &session.Location{Latitude: 36.05, Longitude: 120.38}
	resp := f.orch.HandleTurn(context.Background(), "s1", "u1", "查询海水pH的资料并预测趋势", loc)

	if resp.Language != i18n.LangZH {
		t.Errorf("language = %q, want zh", resp.Language)
	}
	docs, ok := resp.Outputs[tools.KeyDocuments].([]tools.Document)
	if !ok || len(docs) == 0 {
		t.Errorf("documents = %v, want non-empty", resp.Outputs[tools.KeyDocuments])
	}
	predictions, ok := resp.Outputs[tools.KeyPredictions].(map[string]predict.Prediction)
	if !ok {
		t.Fatalf("predictions missing: %v", resp.Outputs)
	}
	if p := predictions[predict.TargetPH]; p.Confidence <= 0 {
		t.Errorf("ph confidence = %v, want > 0", p.Confidence)
	}
	if resp.Confidence == nil || *resp.Confidence <= 0 || *resp.Confidence > 1 {
		t.Errorf("confidence = %v, want in (0,1]", resp.Confidence)
	}
	if len(resp.Degraded) != 0 {
		t.Errorf("degraded = %v, want none", resp.Degraded)
	}
}

func TestHandleTurnRetrievalDegraded(t *testing.T) {
	_, pred := healthyServices()
	f := newFixture(t, &stubRetrieverSvc{err: errors.New("index offline")}, pred)

	loc := &session.Location{Latitude: 36.05, Longitude: 120.38}
	resp := f.orch.HandleTurn(context.Background(), "s1", "u1", "search pH info and predict the trend", loc)

	if _, ok := resp.Outputs[tools.KeyPredictions]; !ok {
		t.Error("predictions missing despite healthy predictor")
	}
	if _, ok := resp.Outputs[tools.KeyDocuments]; ok {
		t.Error("documents present despite failed retriever")
	}
	if len(resp.Degraded) != 1 || resp.Degraded[0] != tools.NameRetriever {
		t.Errorf("degraded = %v, want [retriever]", resp.Degraded)
	}
	if resp.Reply != i18n.T(i18n.LangEN, "degraded.retriever")+" "+i18n.T(i18n.LangEN, "degraded.suffix") {
		t.Errorf("reply = %q, want retrieval degradation notice", resp.Reply)
	}
}

func TestHandleTurnReportWithFailedPredictor(t *testing.T) {
	ret, _ := healthyServices()
	f := newFixture(t, ret, &stubPredictorSvc{err: predict.ErrServiceUnavailable})

	loc := &session.Location{Latitude: 36.05, Longitude: 120.38}
	resp := f.orch.HandleTurn(context.Background(), "s1", "u1", "produce a water quality report", loc)

	if _, ok := resp.Outputs[tools.KeyReport]; ok {
		t.Error("report produced without predictions")
	}
	for _, name := range []string{tools.NamePredictor, tools.NameSynthesizer} {
		found := false
		for _, d := range resp.Degraded {
			if d == name {
				found = true
			}
		}
		if !found {
			t.Errorf("degraded = %v, want %s included", resp.Degraded, name)
		}
	}
	if resp.Reply == "" {
		t.Error("reply is empty on failure path")
	}
}

func TestHandleTurnMissingLocation(t *testing.T) {
	ret, pred := healthyServices()
	f := newFixture(t, ret, pred)

	resp := f.orch.HandleTurn(context.Background(), "s1", "u1", "预测", nil)

	if _, ok := resp.Outputs[tools.KeyPredictions]; ok {
		t.Error("predictions present without a location")
	}
	if len(resp.Degraded) != 1 || resp.Degraded[0] != tools.NamePredictor {
		t.Errorf("degraded = %v, want [predictor]", resp.Degraded)
	}
	// The trace must explain the missing location in the turn's language.
	joined := strings.Join(resp.Steps, " ")
	if !strings.Contains(joined, i18n.T(i18n.LangZH, "tool.missing_location")) {
		t.Errorf("steps = %v, want missing-location explanation", resp.Steps)
	}
	if got := transcriptLen(t, f.store, "s1"); got != 1 {
		t.Errorf("transcript length = %d, want 1 (failure turns are recorded)", got)
	}
}

func TestHandleTurnRemembersLocation(t *testing.T) {
	ret, pred := healthyServices()
	f := newFixture(t, ret, pred)
	ctx := context.Background()

	loc := &session.Location{Latitude: 36.05, Longitude: 120.38}
	f.orch.HandleTurn(ctx, "s1", "u1", "predict the water quality here", loc)

	// Second turn omits the location; the remembered one must be used.
	resp := f.orch.HandleTurn(ctx, "s1", "u1", "预测", nil)
	if _, ok := resp.Outputs[tools.KeyPredictions]; !ok {
		t.Errorf("predictions missing; remembered location not applied (degraded=%v)", resp.Degraded)
	}
}

func TestHandleTurnTranscriptOrdering(t *testing.T) {
	ret, pred := healthyServices()
	f := newFixture(t, ret, pred)
	ctx := context.Background()

	messages := []string{"hello", "search pH data", "预测", "report please"}
	for _, msg := range messages {
		f.orch.HandleTurn(ctx, "s1", "u1", msg, &session.Location{Latitude: 1, Longitude: 2})
	}

	turns, err := f.store.History(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(turns) != len(messages) {
		t.Fatalf("transcript length = %d, want %d", len(turns), len(messages))
	}
	for i, msg := range messages {
		if turns[i].User != msg {
			t.Errorf("turns[%d].User = %q, want %q", i, turns[i].User, msg)
		}
		if turns[i].Assistant == "" {
			t.Errorf("turns[%d].Assistant is empty", i)
		}
	}
}

func TestHandleTurnConcurrentSessions(t *testing.T) {
	ret, pred := healthyServices()
	f := newFixture(t, ret, pred)
	ctx := context.Background()

	const sessions = 8
	const turnsPer = 5

	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i)
			for j := 0; j < turnsPer; j++ {
				resp := f.orch.HandleTurn(ctx, id, "u1", "search pH data", nil)
				if resp.Reply == "" {
					t.Errorf("session %s: empty reply", id)
				}
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < sessions; i++ {
		id := fmt.Sprintf("s%d", i)
		if got := transcriptLen(t, f.store, id); got != turnsPer {
			t.Errorf("session %s transcript = %d, want %d", id, got, turnsPer)
		}
	}
}

func TestHandleTurnPanicRecovery(t *testing.T) {
	f := newFixture(t, &stubRetrieverSvc{}, &stubPredictorSvc{})
	f.orch.classifier = panicClassifier{}

	resp := f.orch.HandleTurn(context.Background(), "s1", "u1", "search something", nil)

	if resp.Reply != i18n.T(i18n.LangEN, "reply.apology") {
		t.Errorf("reply = %q, want apology", resp.Reply)
	}
	if len(resp.Outputs) != 0 {
		t.Errorf("outputs = %v, want none", resp.Outputs)
	}
	if got := transcriptLen(t, f.store, "s1"); got != 1 {
		t.Errorf("transcript length = %d, want 1 (failed turns are still recorded)", got)
	}
}

type panicClassifier struct{}

func (panicClassifier) Classify(string, *session.Session) Plan {
	panic("classifier defect")
}
