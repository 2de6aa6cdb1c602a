package orchestrator

import (
	"strings"

	"github.com/aquasense/aquasense/internal/i18n"
	"github.com/aquasense/aquasense/internal/session"
	"github.com/aquasense/aquasense/internal/tools"
)

// Classifier decides which tools run for one turn. Implementations never
// fail: unclassifiable input yields an empty plan.
type Classifier interface {
	Classify(message string, sess *session.Session) Plan
}

// KeywordClassifier matches the message against keyword tables, one per
// tool, in both supported languages. It is deliberately simple; swapping in
// a learned classifier only requires another Classifier implementation.
type KeywordClassifier struct {
	retrieverWords   []string
	predictorWords   []string
	synthesizerWords []string
}

// NewKeywordClassifier creates the default keyword classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		retrieverWords: []string{
			"search", "find", "look up", "lookup", "reference", "information",
			"material", "document", "knowledge", "background",
			"查询", "搜索", "资料", "查找", "文献", "知识",
		},
		predictorWords: []string{
			"predict", "forecast", "trend", "estimate", "projection",
			"预测", "趋势", "推测", "预估",
		},
		synthesizerWords: []string{
			"report", "summary", "summarize", "assessment",
			"报告", "总结", "汇总", "评估",
		},
	}
}

// Classify builds the execution plan for the message.
//
// Dependency edges are always declared: when the synthesizer is selected
// it depends on every other selected tool, so it runs after them and
// receives their outputs. A report request without a prediction request
// implies one — a report cannot be grounded without predictions — so the
// predictor is added to the plan.
//
// A message missing required tool input (e.g. prediction with no location
// anywhere) still produces a plan; the missing input surfaces later as a
// tool-level failure, not a planning rejection.
func (c *KeywordClassifier) Classify(message string, sess *session.Session) Plan {
	lowered := strings.ToLower(message)
	if strings.TrimSpace(lowered) == "" {
		return Plan{}
	}

	wantRetriever := containsAny(lowered, c.retrieverWords)
	wantPredictor := containsAny(lowered, c.predictorWords)
	wantSynthesizer := containsAny(lowered, c.synthesizerWords)
	if wantSynthesizer && !wantPredictor {
		wantPredictor = true
	}
	if !wantRetriever && !wantPredictor && !wantSynthesizer {
		return Plan{}
	}

	base := tools.Input{
		tools.KeyMessage:  message,
		tools.KeyLanguage: i18n.Detect(message),
	}
	if sess != nil && sess.Location != nil {
		base[tools.KeyLatitude] = sess.Location.Latitude
		base[tools.KeyLongitude] = sess.Location.Longitude
	}

	var plan Plan
	var upstream []string
	if wantRetriever {
		input := cloneInput(base)
		input[tools.KeyQuery] = message
		plan.Steps = append(plan.Steps, Step{Tool: tools.NameRetriever, Input: input})
		upstream = append(upstream, tools.NameRetriever)
	}
	if wantPredictor {
		plan.Steps = append(plan.Steps, Step{Tool: tools.NamePredictor, Input: cloneInput(base)})
		upstream = append(upstream, tools.NamePredictor)
	}
	if wantSynthesizer {
		plan.Steps = append(plan.Steps, Step{
			Tool:      tools.NameSynthesizer,
			Input:     cloneInput(base),
			DependsOn: upstream,
		})
	}
	return plan
}

// containsAny reports whether the lowered message contains any keyword.
func containsAny(lowered string, words []string) bool {
	for _, w := range words {
		if strings.Contains(lowered, w) {
			return true
		}
	}
	return false
}

// cloneInput copies an input bag so steps never share mutable state.
func cloneInput(in tools.Input) tools.Input {
	out := make(tools.Input, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
