// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package openai_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktong/openai"
)

type ruleRequest struct {
	Family string `json:"family"`
}

func TestAgent(t *testing.T) {
	var (
		mu    sync.Mutex
		calls = map[string]int{}
	)
	client := newClient(t, func(req *http.Request) (*http.Response, error) {
		mu.Lock()
		calls[req.Method+" "+req.URL.Path]++
		mu.Unlock()

		switch req.Method + " " + req.URL.Path {
		case "POST /v1/assistants":
			body := decodeBody(t, req)
			assert.Equal(t, "gpt-4o", body["model"])
			tools, ok := body["tools"].([]any)
			assert.True(t, ok)
			assert.Len(t, tools, 1)

			return jsonResponse(http.StatusOK, `{"id":"asst_1","model":"gpt-4o"}`), nil
		case "POST /v1/threads":
			return jsonResponse(http.StatusOK, `{"id":"thread_1"}`), nil
		case "POST /v1/threads/thread_1/messages":
			return jsonResponse(http.StatusOK, `{"id":"msg_2","role":"user"}`), nil
		case "POST /v1/threads/thread_1/runs":
			assert.Equal(t, "asst_1", decodeBody(t, req)["assistant_id"])

			return eventResponse(
				"event: thread.message.completed\n" +
					`data: {"id":"msg_1","role":"assistant","status":"completed","content":[{"type":"text","text":{"value":"rule Emotet {}"}}]}` + "\n\n" +
					"event: done\ndata: [DONE]\n\n",
			), nil
		case "DELETE /v1/assistants/asst_1":
			return jsonResponse(http.StatusOK, `{"id":"asst_1","deleted":true}`), nil
		default:
			t.Errorf("unexpected request %s %s", req.Method, req.URL.Path)

			return jsonResponse(http.StatusNotFound, `{}`), nil
		}
	})

	request, err := openai.NewAssistantBuilder().Model("gpt-4o").Name("Rule writer").Build()
	require.NoError(t, err)
	agent, err := openai.NewAgent(request, openai.Function[ruleRequest, string]{
		Name:        "lookup_family",
		Description: "Look up a malware family",
		Function: func(context.Context, ruleRequest) (string, error) {
			return "banking trojan", nil
		},
	})
	require.NoError(t, err)
	assert.Empty(t, agent.ID())

	var thread openai.Thread
	message, err := agent.Run(context.Background(), client, &thread, openai.UserMessage("Write a rule for Emotet."))
	require.NoError(t, err)
	assert.Equal(t, "rule Emotet {}", message.Text())
	assert.Equal(t, "thread_1", thread.ID)
	assert.Equal(t, "asst_1", agent.ID())

	_, err = agent.Run(context.Background(), client, &thread, openai.UserMessage("Make it stricter."))
	require.NoError(t, err)

	require.NoError(t, agent.Shutdown(context.Background(), client))
	require.NoError(t, agent.Shutdown(context.Background(), client))
	assert.Empty(t, agent.ID())

	assert.Equal(t, map[string]int{
		"POST /v1/assistants":                1,
		"POST /v1/threads":                   1,
		"POST /v1/threads/thread_1/messages": 1,
		"POST /v1/threads/thread_1/runs":     2,
		"DELETE /v1/assistants/asst_1":       1,
	}, calls)
}

func TestNewAgent_invalid(t *testing.T) {
	_, err := openai.NewAgent(openai.AssistantRequest{})
	assert.EqualError(t, err, "new agent: model is required")

	_, err = openai.NewAgent(openai.AssistantRequest{Model: "gpt-4o"}, openai.Function[ruleRequest, string]{Name: "bad name"})
	assert.ErrorContains(t, err, "new agent: ")
}
