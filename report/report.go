// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

// Package report aggregates the outcomes of a batch into summary statistics
// and renders them as a Markdown report.
//
// A BatchReport is not safe for concurrent use.
package report

import (
	"maps"
	"slices"
)

// BatchReport is a running aggregate of batch response outcomes.
// TotalResponses always equals SuccessfulResponses plus ErrorResponses.
type BatchReport struct {
	TotalResponses      int            `json:"total_responses" yaml:"total_responses"`
	SuccessfulResponses int            `json:"successful_responses" yaml:"successful_responses"`
	ErrorResponses      int            `json:"error_responses" yaml:"error_responses"`
	YaraRulesFound      int            `json:"yara_rules_found" yaml:"yara_rules_found"`
	TotalTokens         int            `json:"total_tokens" yaml:"total_tokens"`
	ErrorTypes          map[string]int `json:"error_types,omitempty" yaml:"error_types,omitempty"`
	// Skipped counts input lines Analyze could not parse. They are not responses.
	Skipped int `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

func New() *BatchReport {
	return &BatchReport{ErrorTypes: make(map[string]int)}
}

// AddSuccessfulResponse records a successful response of contentLength characters.
// matched marks responses that carried a YARA rule.
func (r *BatchReport) AddSuccessfulResponse(contentLength int, matched bool) {
	r.TotalResponses++
	r.SuccessfulResponses++
	r.TotalTokens += contentLength
	if matched {
		r.YaraRulesFound++
	}
}

// AddErrorResponse records a failed response. An empty errorType leaves the histogram unchanged.
func (r *BatchReport) AddErrorResponse(errorType string) {
	r.TotalResponses++
	r.ErrorResponses++
	if errorType == "" {
		return
	}
	if r.ErrorTypes == nil {
		r.ErrorTypes = make(map[string]int)
	}
	r.ErrorTypes[errorType]++
}

// SuccessRate is the percentage of successful responses, 0 for an empty report.
func (r *BatchReport) SuccessRate() float64 {
	return percentage(r.SuccessfulResponses, r.TotalResponses)
}

// YaraExtractionRate is the percentage of successful responses that carried a rule.
func (r *BatchReport) YaraExtractionRate() float64 {
	return percentage(r.YaraRulesFound, r.SuccessfulResponses)
}

// AverageResponseLength is the mean content length of successful responses.
func (r *BatchReport) AverageResponseLength() float64 {
	if r.SuccessfulResponses == 0 {
		return 0
	}

	return float64(r.TotalTokens) / float64(r.SuccessfulResponses)
}

func (r *BatchReport) Reset() {
	*r = BatchReport{ErrorTypes: make(map[string]int)}
}

// Merge adds the counts of other into r.
func (r *BatchReport) Merge(other *BatchReport) {
	if other == nil {
		return
	}
	r.TotalResponses += other.TotalResponses
	r.SuccessfulResponses += other.SuccessfulResponses
	r.ErrorResponses += other.ErrorResponses
	r.YaraRulesFound += other.YaraRulesFound
	r.TotalTokens += other.TotalTokens
	r.Skipped += other.Skipped
	if len(other.ErrorTypes) > 0 && r.ErrorTypes == nil {
		r.ErrorTypes = make(map[string]int, len(other.ErrorTypes))
	}
	for errorType, count := range other.ErrorTypes {
		r.ErrorTypes[errorType] += count
	}
}

// ErrorCount is one bucket of the error histogram.
type ErrorCount struct {
	Type  string `json:"type" yaml:"type"`
	Count int    `json:"count" yaml:"count"`
}

// SortedErrors returns the histogram by descending count, then by type.
func (r *BatchReport) SortedErrors() []ErrorCount {
	counts := make([]ErrorCount, 0, len(r.ErrorTypes))
	for _, errorType := range slices.Sorted(maps.Keys(r.ErrorTypes)) {
		counts = append(counts, ErrorCount{Type: errorType, Count: r.ErrorTypes[errorType]})
	}
	slices.SortStableFunc(counts, func(a, b ErrorCount) int {
		return b.Count - a.Count
	})

	return counts
}

func percentage(part, whole int) float64 {
	if whole == 0 {
		return 0
	}

	return float64(part) / float64(whole) * 100
}
