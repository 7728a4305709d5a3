// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktong/openai"
)

func TestMessageBuilder(t *testing.T) {
	valid := openai.NewMessageBuilder().Role(openai.RoleUser).Content("Write a YARA rule for Emotet.")

	testcases := []struct {
		description string
		builder     openai.MessageBuilder
		error       string
	}{
		{
			description: "valid",
			builder:     valid.FileID("file-1").MetadataPair("source", "cli"),
		},
		{
			description: "missing role",
			builder:     openai.NewMessageBuilder().Content("hello"),
			error:       "role is required",
		},
		{
			description: "role before content",
			builder:     openai.NewMessageBuilder(),
			error:       "role is required",
		},
		{
			description: "missing content",
			builder:     openai.NewMessageBuilder().Role(openai.RoleUser),
			error:       "content is required",
		},
		{
			description: "unknown role",
			builder:     valid.Role("system"),
			error:       "role must be one of [user assistant]",
		},
		{
			description: "content too long",
			builder:     valid.Content(strings.Repeat("a", 32769)),
			error:       "Message content cannot exceed 32768 characters",
		},
		{
			description: "too many files",
			builder:     valid.FileID(fileIDs(11)...),
			error:       "Message cannot have more than 10 file IDs",
		},
		{
			description: "too many metadata pairs",
			builder: func() openai.MessageBuilder {
				builder := valid
				for _, id := range fileIDs(17) {
					builder = builder.MetadataPair(id, "v")
				}

				return builder
			}(),
			error: "Message cannot have more than 16 metadata pairs",
		},
	}

	for _, testcase := range testcases {
		t.Run(testcase.description, func(t *testing.T) {
			request, err := testcase.builder.Build()
			if testcase.error != "" {
				assert.EqualError(t, err, testcase.error)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, openai.RoleUser, request.Role)
		})
	}
}

func TestMessageBuilder_attachment(t *testing.T) {
	request, err := openai.NewMessageBuilder().
		Role(openai.RoleUser).
		Content("Summarize the log.").
		Attachment("file-1", openai.CodeInterpreter{}).
		FileID("file-2").
		Build()
	require.NoError(t, err)

	body, err := json.Marshal(request)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"role": "user",
		"content": "Summarize the log.",
		"attachments": [
			{"file_id": "file-1", "tools": [{"type": "code_interpreter"}]},
			{"file_id": "file-2", "tools": [{"type": "file_search"}]}
		]
	}`, string(body))
}

func TestMessage_Text(t *testing.T) {
	var message openai.Message
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "msg_1",
		"role": "assistant",
		"content": [
			{"type": "text", "text": {"value": "rule a {", "annotations": []}},
			{"type": "image_file", "image_file": {"file_id": "file-1"}},
			{"type": "text", "text": {"value": "condition: true }"}}
		]
	}`), &message))

	assert.Equal(t, "rule a {\ncondition: true }", message.Text())
	assert.Equal(t, "file-1", message.Content[1].ImageFile.FileID)
}

func TestClient_ListMessages(t *testing.T) {
	client := newClient(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/v1/threads/thread_1/messages", req.URL.Path)
		assert.Equal(t, "run_1", req.URL.Query().Get("run_id"))
		assert.Equal(t, "asc", req.URL.Query().Get("order"))

		return jsonResponse(http.StatusOK, `{"object":"list","data":[{"id":"msg_1","role":"assistant","content":[]}]}`), nil
	})

	messages, err := client.ListMessages(context.Background(), "thread_1", openai.ListParams{Order: openai.OrderAsc}, "run_1")
	require.NoError(t, err)
	require.Len(t, messages.Data, 1)
	assert.Equal(t, openai.RoleAssistant, messages.Data[0].Role)
}

func TestClient_CreateMessage(t *testing.T) {
	client := newClient(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/v1/threads/thread_1/messages", req.URL.Path)
		assert.Equal(t, map[string]any{"role": "user", "content": "hello"}, decodeBody(t, req))

		return jsonResponse(http.StatusOK, `{"id":"msg_1","thread_id":"thread_1","role":"user","content":[{"type":"text","text":{"value":"hello"}}]}`), nil
	})

	message, err := client.CreateMessage(context.Background(), "thread_1", openai.UserMessage("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", message.Text())

	_, err = client.ModifyMessage(context.Background(), "thread_1", "msg_1", map[string]string{strings.Repeat("k", 65): "v"})
	assert.EqualError(t, err, "modify message: Metadata key cannot exceed 64 characters")
}
