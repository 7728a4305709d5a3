// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/xeipuuv/gojsonschema"

	"github.com/ktong/openai"
)

const (
	maxInputLine    = 16 << 20
	maxInputErrors  = 20
	inputLineSchema = `{
		"type": "object",
		"required": ["custom_id", "method", "url", "body"],
		"properties": {
			"custom_id": {"type": "string", "minLength": 1},
			"method": {"enum": ["POST"]},
			"url": {"type": "string"},
			"body": {"type": "object", "required": ["model"]}
		}
	}`
)

func checkInputFile(path string, endpoint openai.BatchEndpoint) error {
	file, err := os.Open(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	return checkInput(file, endpoint)
}

// checkInput validates every line of a batch input file against the request line schema.
// It also rejects lines for another endpoint and duplicate custom IDs.
func checkInput(reader io.Reader, endpoint openai.BatchEndpoint) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(inputLineSchema))
	if err != nil {
		return fmt.Errorf("load input schema: %w", err)
	}

	var (
		result *multierror.Error
		seen   = map[string]int{}
		lines  int
	)
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxInputLine) //nolint:mnd
	for number := 1; scanner.Scan(); number++ {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		lines++
		if err := checkLine(schema, raw, endpoint, number, seen); err != nil {
			result = multierror.Append(result, err)
			if result.Len() >= maxInputErrors {
				break
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if lines == 0 && result == nil {
		return fmt.Errorf("input has no requests")
	}

	return result.ErrorOrNil()
}

func checkLine(schema *gojsonschema.Schema, raw []byte, endpoint openai.BatchEndpoint, number int, seen map[string]int) error {
	validation, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("line %d: %w", number, err)
	}
	if !validation.Valid() {
		reasons := make([]string, 0, len(validation.Errors()))
		for _, reason := range validation.Errors() {
			reasons = append(reasons, reason.String())
		}

		return fmt.Errorf("line %d: %s", number, strings.Join(reasons, "; "))
	}

	var line struct {
		CustomID string `json:"custom_id"`
		URL      string `json:"url"`
	}
	if err := json.Unmarshal(raw, &line); err != nil {
		return fmt.Errorf("line %d: %w", number, err)
	}
	if line.URL != string(endpoint) {
		return fmt.Errorf("line %d: url %s does not match batch endpoint %s", number, line.URL, endpoint)
	}
	if first, ok := seen[line.CustomID]; ok {
		return fmt.Errorf("line %d: custom_id %q already used on line %d", number, line.CustomID, first)
	}
	seen[line.CustomID] = number

	return nil
}
