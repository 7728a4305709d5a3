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

func TestThreadBuilder(t *testing.T) {
	testcases := []struct {
		description string
		builder     openai.ThreadBuilder
		error       string
		kind        error
	}{
		{
			description: "empty thread",
			builder:     openai.NewThreadBuilder(),
		},
		{
			description: "with messages",
			builder: openai.NewThreadBuilder().
				Message(openai.UserMessage("first"), openai.UserMessage("second")).
				VectorStoreID("vs_1"),
		},
		{
			description: "invalid message",
			builder: openai.NewThreadBuilder().
				Message(openai.UserMessage("first"), openai.MessageRequest{Role: openai.RoleUser}),
			error: "messages[1].content is required",
			kind:  openai.ErrMissingField,
		},
		{
			description: "metadata checked before messages",
			builder: openai.NewThreadBuilder().
				Message(openai.MessageRequest{}).
				MetadataPair("k", strings.Repeat("v", 513)),
			error: "Metadata value cannot exceed 512 characters",
			kind:  openai.ErrConstraintViolated,
		},
		{
			description: "message bound",
			builder: openai.NewThreadBuilder().
				Message(openai.UserMessage(strings.Repeat("a", 32769))),
			error: "messages[0]: Message content cannot exceed 32768 characters",
			kind:  openai.ErrConstraintViolated,
		},
	}

	for _, testcase := range testcases {
		t.Run(testcase.description, func(t *testing.T) {
			_, err := testcase.builder.Build()
			if testcase.error != "" {
				assert.EqualError(t, err, testcase.error)
				assert.ErrorIs(t, err, testcase.kind)

				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestClient_Thread(t *testing.T) {
	client := newClient(t, func(req *http.Request) (*http.Response, error) {
		switch req.Method {
		case http.MethodPost:
			assert.Equal(t, "/v1/threads", req.URL.Path)
			assert.Equal(t, map[string]any{
				"messages": []any{map[string]any{"role": "user", "content": "hello"}},
				"metadata": map[string]any{"batch": "b1"},
			}, decodeBody(t, req))

			return jsonResponse(http.StatusOK, `{"id":"thread_1","object":"thread","metadata":{"batch":"b1"}}`), nil
		case http.MethodDelete:
			assert.Equal(t, "/v1/threads/thread_1", req.URL.Path)

			return jsonResponse(http.StatusOK, `{"id":"thread_1","object":"thread.deleted","deleted":true}`), nil
		default:
			return jsonResponse(http.StatusOK, `{"id":"thread_1","object":"thread"}`), nil
		}
	})

	request, err := openai.NewThreadBuilder().Message(openai.UserMessage("hello")).MetadataPair("batch", "b1").Build()
	require.NoError(t, err)

	thread, err := client.CreateThread(context.Background(), request)
	require.NoError(t, err)
	assert.Equal(t, "b1", thread.Metadata["batch"])

	_, err = client.ModifyThread(context.Background(), "thread_1", request)
	assert.EqualError(t, err, "modify thread: Messages cannot be modified through the thread")

	status, err := client.DeleteThread(context.Background(), thread.ID)
	require.NoError(t, err)
	assert.True(t, status.Deleted)
}
