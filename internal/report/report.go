// Package report synthesizes human-readable water-quality reports from
// upstream retrieval and prediction outputs.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"text/template"

	"github.com/google/uuid"

	"github.com/aquasense/aquasense/internal/i18n"
	"github.com/aquasense/aquasense/internal/predict"
)

// ErrNoPredictions indicates a report was requested with nothing to ground
// it: a report without predictions would be fabrication.
var ErrNoPredictions = errors.New("no predictions available to ground the report")

// Report is one generated report.
type Report struct {
	ID   string `json:"reportId"`
	Text string `json:"reportText"`
}

// Context carries the upstream material a report is grounded on.
type Context struct {
	Language    string
	Sources     []string // reference document source labels, rank order
	Predictions map[string]predict.Prediction
}

// Generator renders reports from templates.
// Safe for concurrent use: templates are parsed once at construction.
type Generator struct {
	templates map[string]*template.Template
	logger    *slog.Logger
}

// templateData is the shape handed to the report templates.
type templateData struct {
	Latitude  float64
	Longitude float64
	Targets   []targetLine
	Sources   []string
}

// targetLine is one predicted target, pre-formatted for the template.
type targetLine struct {
	Name       string
	Value      string
	Confidence string
	Tier       string
}

const englishTemplate = `Water Quality Report
Location: {{printf "%.4f" .Latitude}}, {{printf "%.4f" .Longitude}}

Predicted indicators:
{{- range .Targets}}
  - {{.Name}}: {{.Value}} (confidence {{.Confidence}}, quality {{.Tier}})
{{- end}}
{{- if .Sources}}

References:
{{- range .Sources}}
  - {{.}}
{{- end}}
{{- end}}
`

const chineseTemplate = `水质报告
位置：{{printf "%.4f" .Latitude}}, {{printf "%.4f" .Longitude}}

预测指标：
{{- range .Targets}}
  - {{.Name}}：{{.Value}}（置信度 {{.Confidence}}，等级 {{.Tier}}）
{{- end}}
{{- if .Sources}}

参考资料：
{{- range .Sources}}
  - {{.}}
{{- end}}
{{- end}}
`

// NewGenerator creates a report generator.
func NewGenerator(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		templates: map[string]*template.Template{
			i18n.LangEN: template.Must(template.New("report_en").Parse(englishTemplate)),
			i18n.LangZH: template.Must(template.New("report_zh").Parse(chineseTemplate)),
		},
		logger: logger,
	}
}

// GenerateReport renders a report for the given coordinates.
// Fails with ErrNoPredictions when the context carries no predictions.
func (g *Generator) GenerateReport(ctx context.Context, lat, lon float64, rc Context) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	if len(rc.Predictions) == 0 {
		return Report{}, ErrNoPredictions
	}

	lang := i18n.Normalize(rc.Language)
	tmpl, ok := g.templates[lang]
	if !ok {
		tmpl = g.templates[i18n.LangEN]
	}

	data := templateData{
		Latitude:  lat,
		Longitude: lon,
		Targets:   formatTargets(rc.Predictions),
		Sources:   dedupeSources(rc.Sources),
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return Report{}, fmt.Errorf("render report: %w", err)
	}

	rep := Report{
		ID:   uuid.NewString(),
		Text: sb.String(),
	}
	g.logger.Debug("generated report",
		"report_id", rep.ID, "targets", len(rc.Predictions), "sources", len(data.Sources))
	return rep, nil
}

// formatTargets flattens predictions into deterministic, sorted lines.
func formatTargets(predictions map[string]predict.Prediction) []targetLine {
	names := make([]string, 0, len(predictions))
	for name := range predictions {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]targetLine, 0, len(names))
	for _, name := range names {
		p := predictions[name]
		lines = append(lines, targetLine{
			Name:       name,
			Value:      fmt.Sprintf("%.2f", p.Value),
			Confidence: fmt.Sprintf("%.0f%%", p.Confidence*100),
			Tier:       string(p.Tier),
		})
	}
	return lines
}

// dedupeSources deduplicates document source labels, preserving rank order.
func dedupeSources(sources []string) []string {
	seen := make(map[string]struct{}, len(sources))
	out := make([]string, 0, len(sources))
	for _, src := range sources {
		if src == "" {
			src = "unknown"
		}
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		out = append(out, src)
	}
	return out
}
