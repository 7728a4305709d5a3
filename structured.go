// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var ErrSchemaMismatch = errors.New("structured output does not match schema")

// ValidateStructuredOutput checks that content is a JSON document matching schema.
func ValidateStructuredOutput(content string, schema json.RawMessage) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewStringLoader(content),
	)
	if err != nil {
		return fmt.Errorf("validate structured output: %w", err)
	}
	if result.Valid() {
		return nil
	}

	errs := make([]string, 0, len(result.Errors()))
	for _, schemaErr := range result.Errors() {
		errs = append(errs, schemaErr.String())
	}
	sort.Strings(errs)

	return fmt.Errorf("%w: %s", ErrSchemaMismatch, strings.Join(errs, "; "))
}

// DecodeStructured validates the content of a completion made with format and decodes it into T.
func DecodeStructured[T any](completion ChatCompletion, format ResponseFormat) (T, error) {
	var value T
	content := completion.Content()
	if format.JSONSchema != nil {
		if err := ValidateStructuredOutput(content, format.JSONSchema.Schema); err != nil {
			return value, err
		}
	}
	if err := json.Unmarshal([]byte(content), &value); err != nil {
		return value, fmt.Errorf("decode structured output: %w", err)
	}

	return value, nil
}
