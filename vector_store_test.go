// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package openai_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktong/openai"
)

func TestVectorStoreBuilder(t *testing.T) {
	testcases := []struct {
		description string
		builder     openai.VectorStoreBuilder
		error       string
	}{
		{
			description: "empty store",
			builder:     openai.NewVectorStoreBuilder(),
		},
		{
			description: "valid",
			builder: openai.NewVectorStoreBuilder().Name("malware-reports").FileID("file-1").
				ExpiresAfterDays(7).ChunkingStrategy(openai.StaticChunkingStrategy(800, 400)),
		},
		{
			description: "name too long",
			builder:     openai.NewVectorStoreBuilder().Name(strings.Repeat("n", 257)).ExpiresAfterDays(0),
			error:       "Vector store name cannot exceed 256 characters",
		},
		{
			description: "too many files",
			builder:     openai.NewVectorStoreBuilder().FileID(fileIDs(501)...),
			error:       "Vector store cannot have more than 500 file IDs",
		},
		{
			description: "expiration too long",
			builder:     openai.NewVectorStoreBuilder().ExpiresAfterDays(366),
			error:       "expires_after.days must be between 1 and 365",
		},
		{
			description: "chunk too small",
			builder:     openai.NewVectorStoreBuilder().ChunkingStrategy(openai.StaticChunkingStrategy(99, 0)),
			error:       "max_chunk_size_tokens must be between 100 and 4096",
		},
		{
			description: "overlap too large",
			builder:     openai.NewVectorStoreBuilder().ChunkingStrategy(openai.StaticChunkingStrategy(800, 401)),
			error:       "chunk_overlap_tokens must not exceed half of max_chunk_size_tokens",
		},
		{
			description: "static without parameters",
			builder:     openai.NewVectorStoreBuilder().ChunkingStrategy(openai.ChunkingStrategy{Type: "static"}),
			error:       "chunking_strategy.static is required",
		},
		{
			description: "auto chunking",
			builder:     openai.NewVectorStoreBuilder().ChunkingStrategy(openai.AutoChunking()),
		},
	}

	for _, testcase := range testcases {
		t.Run(testcase.description, func(t *testing.T) {
			_, err := testcase.builder.Build()
			if testcase.error != "" {
				assert.EqualError(t, err, testcase.error)

				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestClient_VectorStoreFiles(t *testing.T) {
	client := newClient(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/v1/vector_stores/vs_1/files", req.URL.Path)
		switch req.Method {
		case http.MethodPost:
			assert.Equal(t, map[string]any{"file_id": "file-1"}, decodeBody(t, req))

			return jsonResponse(http.StatusOK, `{"id":"file-1","vector_store_id":"vs_1","status":"in_progress"}`), nil
		default:
			assert.Equal(t, "completed", req.URL.Query().Get("filter"))

			return jsonResponse(http.StatusOK, `{"object":"list","data":[{"id":"file-1","status":"completed"}],"has_more":false}`), nil
		}
	})

	file, err := client.AddVectorStoreFile(context.Background(), "vs_1", "file-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "in_progress", file.Status)

	files, err := client.ListVectorStoreFiles(context.Background(), "vs_1", openai.ListParams{}, "completed")
	require.NoError(t, err)
	require.Len(t, files.Data, 1)
	_, more := files.Next(openai.ListParams{})
	assert.False(t, more)

	_, err = client.AddVectorStoreFile(context.Background(), "vs_1", "", nil)
	assert.EqualError(t, err, "add vector store file: file_id is required")
}

func TestClient_ModifyVectorStore(t *testing.T) {
	client := newClient(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, map[string]any{"name": "renamed"}, decodeBody(t, req))

		return jsonResponse(http.StatusOK, `{"id":"vs_1","name":"renamed"}`), nil
	})

	request, err := openai.NewVectorStoreBuilder().Name("renamed").FileID("file-1").Build()
	require.NoError(t, err)
	store, err := client.ModifyVectorStore(context.Background(), "vs_1", request)
	require.NoError(t, err)
	assert.Equal(t, "renamed", store.Name)
}
