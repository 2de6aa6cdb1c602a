package orchestrator

import (
	"log/slog"
	"strings"
	"time"

	"github.com/aquasense/aquasense/internal/i18n"
	"github.com/aquasense/aquasense/internal/tools"
)

// outputKeys are the fixed semantic keys surfaced in Response.Outputs.
var outputKeys = map[string]struct{}{
	tools.KeyDocuments:   {},
	tools.KeyPredictions: {},
	tools.KeyReport:      {},
}

// Composer merges tool results, the step trace, and partial-failure
// notices into the final Response.
type Composer struct {
	logger *slog.Logger
}

// NewComposer creates a response composer.
func NewComposer(logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{logger: logger}
}

// Compose builds the turn's response. The reply is never empty: an empty
// plan falls back to an acknowledgement, failures produce degraded-capability
// notices, and full success produces a templated acknowledgement.
func (c *Composer) Compose(sessionID, message, lang string, plan Plan, exec *Execution) *Response {
	resp := &Response{
		SessionID: sessionID,
		Language:  lang,
		Steps:     exec.Trace,
		Outputs:   make(map[string]any),
		CreatedAt: time.Now(),
	}
	if resp.Steps == nil {
		resp.Steps = []string{}
	}

	if plan.Empty() {
		resp.Reply = i18n.Sprintf(lang, "reply.fallback", message)
		resp.Suggestions = []string{
			i18n.T(lang, "suggest.search"),
			i18n.T(lang, "suggest.predict"),
			i18n.T(lang, "suggest.report"),
		}
		return resp
	}

	succeeded := 0
	for _, step := range plan.Steps {
		res, ok := exec.Results[step.Tool]
		if !ok || res.Failed() {
			resp.Degraded = append(resp.Degraded, step.Tool)
			continue
		}
		succeeded++
		for k, v := range res.Output {
			if _, fixed := outputKeys[k]; fixed {
				resp.Outputs[k] = v
			}
		}
		if step.Tool == tools.NamePredictor {
			if conf, ok := res.Output[tools.KeyConfidence].(float64); ok {
				resp.Confidence = &conf
			}
		}
	}

	resp.Reply = c.buildReply(lang, resp.Degraded, succeeded)
	resp.Suggestions = suggestions(lang, plan)
	return resp
}

// buildReply assembles the reply text from the failure set.
func (c *Composer) buildReply(lang string, degraded []string, succeeded int) string {
	if len(degraded) == 0 {
		return i18n.Sprintf(lang, "reply.success", succeeded)
	}

	var sb strings.Builder
	for _, tool := range degraded {
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(i18n.T(lang, "degraded."+tool))
	}
	if succeeded > 0 {
		sb.WriteString(" ")
		sb.WriteString(i18n.T(lang, "degraded.suffix"))
	}
	return sb.String()
}

// suggestions proposes follow-ups the plan did not already cover.
func suggestions(lang string, plan Plan) []string {
	planned := make(map[string]struct{}, len(plan.Steps))
	for _, s := range plan.Steps {
		planned[s.Tool] = struct{}{}
	}

	var out []string
	if _, ok := planned[tools.NamePredictor]; !ok {
		out = append(out, i18n.T(lang, "suggest.predict"))
	}
	if _, ok := planned[tools.NameSynthesizer]; !ok {
		out = append(out, i18n.T(lang, "suggest.report"))
	}
	return out
}
