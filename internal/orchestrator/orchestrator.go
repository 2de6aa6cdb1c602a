package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/aquasense/aquasense/internal/i18n"
	"github.com/aquasense/aquasense/internal/session"
)

// Orchestrator is the sole call surface of the engine: one HandleTurn call
// per inbound message. Turns for different sessions run concurrently; turns
// for the same session are serialized by a per-session lock to preserve
// transcript ordering.
type Orchestrator struct {
	store      session.Store
	classifier Classifier
	executor   *Executor
	composer   *Composer
	logger     *slog.Logger
	tracer     trace.Tracer

	// locks holds one mutex per session id. Entries are never evicted;
	// session retention policy lives in the store, not here.
	locks sync.Map // string -> *sync.Mutex
}

// New creates an orchestrator.
func New(store session.Store, classifier Classifier, executor *Executor, composer *Composer, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:      store,
		classifier: classifier,
		executor:   executor,
		composer:   composer,
		logger:     logger,
		tracer:     otel.Tracer("aquasense/orchestrator"),
	}
}

// HandleTurn processes one user message and returns the composed response.
// It never returns nil and never panics: every failure path degrades into a
// well-formed response with a natural-language reply.
//
// The turn is appended to the session transcript as the last action, for
// success and failure alike. A cancelled turn is discarded instead — partial
// results are never appended.
func (o *Orchestrator) HandleTurn(ctx context.Context, sessionID, userID, message string, loc *session.Location) *Response {
	ctx, span := o.tracer.Start(ctx, "orchestrator.HandleTurn",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.Int("message.length", len(message)),
		))
	defer span.End()

	unlock := o.lockSession(sessionID)
	defer unlock()

	start := time.Now()
	resp := o.runTurn(ctx, sessionID, userID, message, loc)

	if ctx.Err() == nil {
		turn := session.Turn{User: message, Assistant: resp.Reply}
		if err := o.store.AppendTurn(ctx, sessionID, turn); err != nil {
			o.logger.Error("append turn failed", "session_id", sessionID, "error", err)
		}
	}

	o.logger.Info("turn handled",
		"session_id", sessionID,
		"steps", len(resp.Steps),
		"degraded", len(resp.Degraded),
		"duration", time.Since(start))
	return resp
}

// runTurn classifies, executes, and composes one turn. A panic anywhere in
// that path is a programming defect; it is caught here and converted into a
// minimal apology response carrying no partial data.
func (o *Orchestrator) runTurn(ctx context.Context, sessionID, userID, message string, loc *session.Location) (resp *Response) {
	lang := i18n.Detect(message)

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("turn panicked", "session_id", sessionID, "panic", r)
			resp = o.apology(sessionID, lang)
		}
	}()

	sess, err := o.store.GetOrCreate(ctx, sessionID, userID)
	if err != nil {
		o.logger.Error("session lookup failed", "session_id", sessionID, "error", err)
		return o.apology(sessionID, lang)
	}

	if sess.Language != lang {
		if err := o.store.SetLanguage(ctx, sessionID, lang); err != nil {
			o.logger.Warn("persist language failed", "session_id", sessionID, "error", err)
		}
	}

	// A location in the request wins over the remembered one and is
	// persisted for later turns.
	if loc != nil && loc.Valid() {
		if err := o.store.SetLocation(ctx, sessionID, *loc); err != nil {
			o.logger.Warn("persist location failed", "session_id", sessionID, "error", err)
		}
		l := *loc
		sess.Location = &l
	}

	plan := o.classifier.Classify(message, sess)
	if err := plan.Validate(); err != nil {
		// A classifier producing an invalid plan is a defect; degrade to
		// the no-tools path instead of failing the turn.
		o.logger.Error("invalid plan", "session_id", sessionID, "error", err)
		plan = Plan{}
	}

	exec := o.executor.Execute(ctx, plan, lang)
	return o.composer.Compose(sessionID, message, lang, plan, exec)
}

// apology is the minimal always-valid response for unrecoverable paths.
func (o *Orchestrator) apology(sessionID, lang string) *Response {
	return &Response{
		SessionID: sessionID,
		Reply:     i18n.T(lang, "reply.apology"),
		Language:  lang,
		Steps:     []string{},
		Outputs:   map[string]any{},
		CreatedAt: time.Now(),
	}
}

// lockSession acquires the per-session mutex and returns its release func.
func (o *Orchestrator) lockSession(sessionID string) func() {
	v, _ := o.locks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
