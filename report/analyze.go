// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"
)

const maxLineSize = 16 << 20

// Line is one line of a batch output or error file.
type Line struct {
	ID       string `json:"id"`
	CustomID string `json:"custom_id"`
	Response *struct {
		StatusCode int    `json:"status_code"`
		RequestID  string `json:"request_id"`
		Body       struct {
			Choices []struct {
				Message struct {
					Content *string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
			Error *struct {
				Code string `json:"code"`
			} `json:"error"`
		} `json:"body"`
	} `json:"response"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Content returns the first choice of a successful chat completion response.
func (l Line) Content() (string, bool) {
	if l.Response == nil || l.Response.StatusCode < 200 || l.Response.StatusCode > 299 {
		return "", false
	}
	if len(l.Response.Body.Choices) == 0 || l.Response.Body.Choices[0].Message.Content == nil {
		return "", false
	}

	return *l.Response.Body.Choices[0].Message.Content, true
}

// ErrorType categorizes a failed line by its error code, the code in the response body,
// or its HTTP status.
func (l Line) ErrorType() string {
	if l.Error != nil && l.Error.Code != "" {
		return l.Error.Code
	}
	if l.Response != nil && l.Response.Body.Error != nil && l.Response.Body.Error.Code != "" {
		return l.Response.Body.Error.Code
	}
	if l.Response != nil && l.Response.StatusCode != 0 {
		return "http_" + strconv.Itoa(l.Response.StatusCode)
	}

	return ""
}

// Analyze aggregates a batch output file and its error file. Either reader may be nil.
// matched reports whether a response content carries a YARA rule and may be nil.
// Lines that are not valid JSON are counted in Skipped.
func Analyze(results, errors io.Reader, matched func(content string) bool) (*BatchReport, error) {
	report := New()

	if err := Scan(results, func(line Line) {
		if content, ok := line.Content(); ok {
			report.AddSuccessfulResponse(utf8.RuneCountInString(content), matched != nil && matched(content))

			return
		}
		report.AddErrorResponse(line.ErrorType())
	}, report); err != nil {
		return nil, fmt.Errorf("scan results: %w", err)
	}

	if err := Scan(errors, func(line Line) {
		report.AddErrorResponse(line.ErrorType())
	}, report); err != nil {
		return nil, fmt.Errorf("scan errors: %w", err)
	}

	return report, nil
}

// Scan decodes every non-blank JSONL line of reader and passes it to fn.
// Malformed lines are counted in skipped when it is not nil.
func Scan(reader io.Reader, fn func(Line), skipped *BatchReport) error {
	if reader == nil {
		return nil
	}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var line Line
		if err := json.Unmarshal(raw, &line); err != nil {
			if skipped != nil {
				skipped.Skipped++
			}

			continue
		}
		fn(line)
	}

	return scanner.Err()
}
