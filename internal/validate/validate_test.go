// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package validate_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktong/openai/internal/validate"
)

func TestError(t *testing.T) {
	missing := validate.Missing("model")
	assert.EqualError(t, missing, "model is required")
	assert.ErrorIs(t, missing, validate.ErrMissingField)
	assert.NotErrorIs(t, missing, validate.ErrConstraintViolated)

	violated := validate.Violated("name", "Assistant name cannot exceed %d characters", 256)
	assert.EqualError(t, violated, "Assistant name cannot exceed 256 characters")
	assert.ErrorIs(t, violated, validate.ErrConstraintViolated)
	assert.Equal(t, "name", violated.Field)

	var target *validate.Error
	require.ErrorAs(t, errors.Join(errors.New("wrapped"), violated), &target)
	assert.Equal(t, validate.ConstraintViolated, target.Kind)
}

func TestFirst(t *testing.T) {
	assert.NoError(t, validate.First(nil, nil))
	err := validate.First(
		nil,
		validate.Required("model", ""),
		validate.MaxLen("Assistant name", "name", strings.Repeat("a", 300), 256),
	)
	assert.EqualError(t, err, "model is required")
}

func TestChecks(t *testing.T) {
	temperature := 2.5
	topP := 0.5
	n := 0

	testcases := []struct {
		description string
		err         error
		error       string
	}{
		{
			description: "max len counts runes",
			err:         validate.MaxLen("Assistant name", "name", strings.Repeat("é", 256), 256),
		},
		{
			description: "max len exceeded",
			err:         validate.MaxLen("Assistant name", "name", strings.Repeat("a", 257), 256),
			error:       "Assistant name cannot exceed 256 characters",
		},
		{
			description: "max items exceeded",
			err:         validate.MaxItems("Assistant", "file_ids", 21, 20, "file IDs"),
			error:       "Assistant cannot have more than 20 file IDs",
		},
		{
			description: "range unset",
			err:         validate.Range[float64]("temperature", nil, 0, 2),
		},
		{
			description: "range exceeded",
			err:         validate.Range("temperature", &temperature, 0, 2),
			error:       "temperature must be between 0 and 2",
		},
		{
			description: "range within",
			err:         validate.Range("top_p", &topP, 0, 1),
		},
		{
			description: "min",
			err:         validate.Min("n", &n, 1),
			error:       "n must be at least 1",
		},
		{
			description: "one of",
			err:         validate.OneOf("order", "up", "asc", "desc"),
			error:       "order must be one of [asc desc]",
		},
		{
			description: "one of empty",
			err:         validate.OneOf("order", "", "asc", "desc"),
		},
		{
			description: "required items",
			err:         validate.RequiredItems("messages", 0),
			error:       "messages is required",
		},
	}

	for _, testcase := range testcases {
		t.Run(testcase.description, func(t *testing.T) {
			if testcase.error != "" {
				assert.EqualError(t, testcase.err, testcase.error)

				return
			}
			assert.NoError(t, testcase.err)
		})
	}
}

func TestMetadata(t *testing.T) {
	tooMany := map[string]string{}
	for i := range 17 {
		tooMany[strings.Repeat("k", i+1)] = "v"
	}

	testcases := []struct {
		description string
		metadata    map[string]string
		error       string
	}{
		{description: "nil"},
		{description: "valid", metadata: map[string]string{"env": "prod"}},
		{
			description: "too many pairs",
			metadata:    tooMany,
			error:       "Assistant cannot have more than 16 metadata pairs",
		},
		{
			description: "long key",
			metadata:    map[string]string{strings.Repeat("k", 65): "v"},
			error:       "Metadata key cannot exceed 64 characters",
		},
		{
			description: "long value",
			metadata:    map[string]string{"k": strings.Repeat("v", 513)},
			error:       "Metadata value cannot exceed 512 characters",
		},
		{
			description: "long value sorts before long key",
			metadata: map[string]string{
				"a":                     strings.Repeat("v", 513),
				strings.Repeat("z", 65): "v",
			},
			error: "Metadata value cannot exceed 512 characters",
		},
		{
			description: "long key sorts before long value",
			metadata: map[string]string{
				strings.Repeat("a", 65): "v",
				"z":                     strings.Repeat("v", 513),
			},
			error: "Metadata key cannot exceed 64 characters",
		},
	}

	for _, testcase := range testcases {
		t.Run(testcase.description, func(t *testing.T) {
			err := validate.Metadata("Assistant", testcase.metadata)
			if testcase.error != "" {
				assert.EqualError(t, err, testcase.error)
				assert.ErrorIs(t, err, validate.ErrConstraintViolated)

				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNested(t *testing.T) {
	assert.NoError(t, validate.Nested("messages[0]", nil))

	err := validate.Nested("messages[2]", validate.Missing("content"))
	assert.EqualError(t, err, "messages[2].content is required")
	assert.ErrorIs(t, err, validate.ErrMissingField)

	err = validate.Nested("thread", validate.Violated("metadata", "Thread cannot have more than 16 metadata pairs"))
	assert.EqualError(t, err, "thread: Thread cannot have more than 16 metadata pairs")
	assert.ErrorIs(t, err, validate.ErrConstraintViolated)

	other := errors.New("other")
	assert.Equal(t, other, validate.Nested("thread", other))
}
