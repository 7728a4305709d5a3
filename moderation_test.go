// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package openai_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktong/openai"
)

func TestClient_CreateModeration(t *testing.T) {
	client := newClient(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/v1/moderations", req.URL.Path)
		assert.Equal(t, map[string]any{"input": []any{"first", "second"}}, decodeBody(t, req))

		return jsonResponse(http.StatusOK, `{"id":"modr-1","model":"omni-moderation-latest","results":[
			{"flagged":false,"categories":{"violence":false}},
			{"flagged":true,"categories":{"violence":true,"hate":false,"illicit":true}}
		]}`), nil
	})

	moderation, err := client.CreateModeration(context.Background(), openai.ModerationRequest{Input: []string{"first", "second"}})
	require.NoError(t, err)
	assert.True(t, moderation.Flagged())
	assert.Empty(t, moderation.Results[0].FlaggedCategories())
	assert.Equal(t, []string{"illicit", "violence"}, moderation.Results[1].FlaggedCategories())

	_, err = client.CreateModeration(context.Background(), openai.ModerationRequest{})
	assert.EqualError(t, err, "create moderation: input is required")
}
