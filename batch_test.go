// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package openai_test

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktong/openai"
	"github.com/ktong/openai/yara"
)

func TestBatchBuilder(t *testing.T) {
	valid := openai.NewBatchBuilder().InputFileID("file-1").Endpoint(openai.EndpointChatCompletions)

	testcases := []struct {
		description string
		builder     openai.BatchBuilder
		error       string
		kind        error
	}{
		{
			description: "valid",
			builder:     valid.MetadataPair("job", "yara"),
		},
		{
			description: "missing input file",
			builder:     openai.NewBatchBuilder().Endpoint("/v1/unknown"),
			error:       "input_file_id is required",
			kind:        openai.ErrMissingField,
		},
		{
			description: "missing endpoint",
			builder:     openai.NewBatchBuilder().InputFileID("file-1"),
			error:       "endpoint is required",
			kind:        openai.ErrMissingField,
		},
		{
			description: "unknown endpoint",
			builder:     valid.Endpoint("/v1/images/generations"),
			error:       "endpoint must be one of [/v1/chat/completions /v1/embeddings /v1/completions /v1/responses]",
			kind:        openai.ErrConstraintViolated,
		},
		{
			description: "unsupported window",
			builder:     valid.CompletionWindow("1h"),
			error:       "completion_window must be one of [24h]",
			kind:        openai.ErrConstraintViolated,
		},
	}

	for _, testcase := range testcases {
		t.Run(testcase.description, func(t *testing.T) {
			request, err := testcase.builder.Build()
			if testcase.error != "" {
				assert.EqualError(t, err, testcase.error)
				assert.ErrorIs(t, err, testcase.kind)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, "24h", request.CompletionWindow)
		})
	}
}

func TestBatchStatus_Terminal(t *testing.T) {
	for _, status := range []openai.BatchStatus{openai.BatchCompleted, openai.BatchFailed, openai.BatchExpired, openai.BatchCancelled} {
		assert.True(t, status.Terminal(), status)
	}
	for _, status := range []openai.BatchStatus{openai.BatchValidating, openai.BatchInProgress, openai.BatchFinalizing, openai.BatchCancelling} {
		assert.False(t, status.Terminal(), status)
	}
}

func TestBatchInput(t *testing.T) {
	var buf bytes.Buffer
	input := openai.NewBatchInput(&buf, openai.EndpointChatCompletions)

	request, err := openai.NewChatCompletionBuilder().Model("gpt-4o-mini").User("Write a YARA rule.").Build()
	require.NoError(t, err)
	require.NoError(t, input.Add("req-1", request))
	assert.EqualError(t, input.Add("", request), "custom_id is required")
	assert.Equal(t, 1, input.Len())

	assert.JSONEq(t, `{
		"custom_id": "req-1",
		"method": "POST",
		"url": "/v1/chat/completions",
		"body": {"model": "gpt-4o-mini", "messages": [{"role": "user", "content": "Write a YARA rule."}]}
	}`, buf.String())
}

func TestClient_WaitForBatch(t *testing.T) {
	statuses := []string{"validating", "in_progress", "finalizing", "completed"}
	calls := 0
	client := newClient(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/v1/batches/batch_1", req.URL.Path)
		status := statuses[min(calls, len(statuses)-1)]
		calls++

		return jsonResponse(http.StatusOK, `{"id":"batch_1","status":"`+status+`","request_counts":{"total":2,"completed":1}}`), nil
	})

	batch, err := client.WaitForBatch(context.Background(), "batch_1", time.Millisecond, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, openai.BatchCompleted, batch.Status)
	assert.Equal(t, 4, calls)
}

func TestClient_WaitForBatch_maxWait(t *testing.T) {
	client := newClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"id":"batch_1","status":"in_progress"}`), nil
	})

	batch, err := client.WaitForBatch(context.Background(), "batch_1", time.Millisecond, 20*time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, openai.BatchInProgress, batch.Status)
}

func TestClient_WaitForBatch_maxWaitDuringRequest(t *testing.T) {
	calls := 0
	client := newClient(t, func(req *http.Request) (*http.Response, error) {
		calls++
		if calls > 1 {
			<-req.Context().Done()

			return nil, req.Context().Err()
		}

		return jsonResponse(http.StatusOK, `{"id":"batch_1","status":"finalizing"}`), nil
	})

	batch, err := client.WaitForBatch(context.Background(), "batch_1", time.Millisecond, 50*time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorContains(t, err, "wait for batch: ")
	assert.Equal(t, "batch_1", batch.ID)
	assert.Equal(t, openai.BatchFinalizing, batch.Status)
}

func TestClient_BatchReport(t *testing.T) {
	client := newClient(t, func(req *http.Request) (*http.Response, error) {
		switch req.URL.Path {
		case "/v1/batches/batch_1":
			return jsonResponse(http.StatusOK,
				`{"id":"batch_1","status":"completed","output_file_id":"file-out","error_file_id":"file-err"}`), nil
		case "/v1/files/file-out/content":
			return jsonResponse(http.StatusOK,
				`{"custom_id":"a","response":{"status_code":200,"body":{"choices":[{"message":{"content":"rule A { condition: true }"}}]}}}`+"\n"+
					`{"custom_id":"b","response":{"status_code":200,"body":{"choices":[{"message":{"content":"no rule"}}]}}}`+"\n"), nil
		case "/v1/files/file-err/content":
			return jsonResponse(http.StatusOK, `{"custom_id":"c","response":null,"error":{"code":"rate_limit_exceeded"}}`), nil
		default:
			t.Fatalf("unexpected path %s", req.URL.Path)

			return nil, nil
		}
	})

	r, err := client.BatchReport(context.Background(), "batch_1", yara.HasRule)
	require.NoError(t, err)
	assert.Equal(t, 3, r.TotalResponses)
	assert.Equal(t, 2, r.SuccessfulResponses)
	assert.Equal(t, 1, r.YaraRulesFound)
	assert.Equal(t, map[string]int{"rate_limit_exceeded": 1}, r.ErrorTypes)
	assert.InDelta(t, 50.0, r.YaraExtractionRate(), 1e-9)
}

func TestClient_CreateBatch(t *testing.T) {
	client := newClient(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, map[string]any{
			"input_file_id":     "file-1",
			"endpoint":          "/v1/chat/completions",
			"completion_window": "24h",
		}, decodeBody(t, req))

		return jsonResponse(http.StatusOK, `{"id":"batch_1","status":"validating"}`), nil
	})

	batch, err := client.CreateBatch(context.Background(), openai.BatchRequest{
		InputFileID: "file-1",
		Endpoint:    openai.EndpointChatCompletions,
	})
	require.NoError(t, err)
	assert.Equal(t, openai.BatchValidating, batch.Status)
}
