// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/russross/blackfriday"
	"gopkg.in/yaml.v3"
)

// Thresholds drive the advisory bullets of the Recommendations section.
// Extraction thresholds only apply when at least one rule was found.
type Thresholds struct {
	WarnSuccessBelow          float64 `json:"warn_success_below" yaml:"warn_success_below" mapstructure:"warn_success_below"`
	PraiseSuccessAtOrAbove    float64 `json:"praise_success_at_or_above" yaml:"praise_success_at_or_above" mapstructure:"praise_success_at_or_above"`
	WarnExtractionBelow       float64 `json:"warn_extraction_below" yaml:"warn_extraction_below" mapstructure:"warn_extraction_below"`
	PraiseExtractionAtOrAbove float64 `json:"praise_extraction_at_or_above" yaml:"praise_extraction_at_or_above" mapstructure:"praise_extraction_at_or_above"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		WarnSuccessBelow:          90,
		PraiseSuccessAtOrAbove:    95,
		WarnExtractionBelow:       80,
		PraiseExtractionAtOrAbove: 90,
	}
}

// GenerateReportText renders the report at the current time with the default thresholds.
func (r *BatchReport) GenerateReportText() string {
	return r.Render(time.Now(), DefaultThresholds())
}

// Render renders the Markdown report. The output only depends on r, at and th.
func (r *BatchReport) Render(at time.Time, th Thresholds) string {
	var b strings.Builder

	b.WriteString("# OpenAI Batch Processing Report\n\n")
	fmt.Fprintf(&b, "Generated at: %d\n\n", at.Unix())

	b.WriteString("## Summary Statistics\n\n")
	fmt.Fprintf(&b, "- **Total Responses**: %d\n", r.TotalResponses)
	fmt.Fprintf(&b, "- **Successful Responses**: %d\n", r.SuccessfulResponses)
	fmt.Fprintf(&b, "- **Error Responses**: %d\n", r.ErrorResponses)
	fmt.Fprintf(&b, "- **Success Rate**: %.1f%%\n", r.SuccessRate())
	fmt.Fprintf(&b, "- **Total Content Length**: %d characters\n", r.TotalTokens)
	fmt.Fprintf(&b, "- **Average Response Length**: %.0f characters\n\n", r.AverageResponseLength())

	b.WriteString("## YARA Rule Analysis\n\n")
	fmt.Fprintf(&b, "- **YARA Rules Found**: %d\n", r.YaraRulesFound)
	fmt.Fprintf(&b, "- **YARA Extraction Rate**: %.1f%%\n\n", r.YaraExtractionRate())

	if len(r.ErrorTypes) > 0 {
		b.WriteString("## Error Analysis\n\n")
		for _, count := range r.SortedErrors() {
			fmt.Fprintf(&b, "- **%s**: %d occurrences\n", count.Type, count.Count)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Recommendations\n\n")
	success, extraction := r.SuccessRate(), r.YaraExtractionRate()
	if success < th.WarnSuccessBelow {
		fmt.Fprintf(&b, "- ⚠️ Success rate is below %g%%. Consider reviewing your prompts or model parameters.\n",
			th.WarnSuccessBelow)
	}
	if r.YaraRulesFound > 0 && extraction < th.WarnExtractionBelow {
		b.WriteString("- ⚠️ YARA rule extraction rate is low. Consider improving prompt specificity.\n")
	}
	if success >= th.PraiseSuccessAtOrAbove {
		b.WriteString("- ✅ Excellent success rate! Your batch configuration is working well.\n")
	}
	if r.YaraRulesFound > 0 && extraction >= th.PraiseExtractionAtOrAbove {
		b.WriteString("- ✅ High YARA rule extraction rate indicates effective prompts.\n")
	}

	return b.String()
}

// HTML renders the Markdown report as an HTML fragment.
func (r *BatchReport) HTML(at time.Time, th Thresholds) []byte {
	return blackfriday.MarkdownCommon([]byte(r.Render(at, th)))
}

type summary struct {
	BatchReport `yaml:",inline"`

	SuccessRate           float64      `json:"success_rate" yaml:"success_rate"`
	YaraExtractionRate    float64      `json:"yara_extraction_rate" yaml:"yara_extraction_rate"`
	AverageResponseLength float64      `json:"average_response_length" yaml:"average_response_length"`
	Errors                []ErrorCount `json:"errors,omitempty" yaml:"errors,omitempty"`
}

func (r *BatchReport) summary() summary {
	return summary{
		BatchReport:           *r,
		SuccessRate:           r.SuccessRate(),
		YaraExtractionRate:    r.YaraExtractionRate(),
		AverageResponseLength: r.AverageResponseLength(),
		Errors:                r.SortedErrors(),
	}
}

// JSON encodes the counters together with the derived rates.
func (r *BatchReport) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(r.summary(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}

	return data, nil
}

// YAML encodes the counters together with the derived rates.
func (r *BatchReport) YAML() ([]byte, error) {
	data, err := yaml.Marshal(r.summary())
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}

	return data, nil
}
