// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktong/openai/internal/schema"
)

type Weather struct {
	City string   `json:"city" jsonschema:"description=The city name"`
	Unit string   `json:"unit,omitempty" jsonschema:"enum=celsius,enum=fahrenheit"`
	Days int      `json:"days"`
	Tags []string `json:"tags"`
}

type Rule struct {
	Name      string  `json:"name"`
	Matched   bool    `json:"matched"`
	Score     float64 `json:"score"`
	Reference Weather `json:"reference"`
}

func TestJSON(t *testing.T) {
	raw, err := schema.JSON[Weather]()
	require.NoError(t, err)

	var actual map[string]any
	require.NoError(t, json.Unmarshal(raw, &actual))

	assert.Equal(t, "object", actual["type"])
	assert.Equal(t, false, actual["additionalProperties"])
	assert.ElementsMatch(t, []any{"city", "days", "tags"}, actual["required"])
	assert.NotContains(t, actual, "$schema")
	assert.NotContains(t, actual, "$ref")

	properties, ok := actual["properties"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"type": "string", "description": "The city name"}, properties["city"])
	assert.Equal(t, map[string]any{"type": "string", "enum": []any{"celsius", "fahrenheit"}}, properties["unit"])
	assert.Equal(t, map[string]any{"type": "integer"}, properties["days"])
	assert.Equal(t, map[string]any{"type": "array", "items": map[string]any{"type": "string"}}, properties["tags"])
}

func TestNested(t *testing.T) {
	actual, err := schema.For[*Rule]()
	require.NoError(t, err)

	assert.Equal(t, "object", actual.Type)
	reference, ok := actual.Properties.Get("reference")
	require.True(t, ok)
	assert.Equal(t, "object", reference.Type)
	assert.Empty(t, reference.Ref)
	score, ok := actual.Properties.Get("score")
	require.True(t, ok)
	assert.Equal(t, "number", score.Type)
}

func TestUnsupported(t *testing.T) {
	_, err := schema.For[func()]()
	assert.EqualError(t, err, "unsupported type: func()")

	_, err = schema.For[chan int]()
	assert.EqualError(t, err, "unsupported type: chan int")
}
