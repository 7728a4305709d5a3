// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package httpclient_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktong/openai/internal/httpclient"
)

func TestStream(t *testing.T) {
	testcases := []struct {
		description string
		httpClient  *http.Client
		events      []httpclient.Event
		error       string
	}{
		{
			description: "success",
			httpClient: &http.Client{
				Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
					assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
					assert.Equal(t, "text/event-stream", req.Header.Get("Accept"))
					assert.Equal(t, "no-cache", req.Header.Get("Cache-Control"))
					assert.Equal(t, "keep-alive", req.Header.Get("Connection"))
					assert.Equal(t, "POST", req.Method)
					assert.Equal(t, "/v1/runs", req.URL.Path)
					body, err := io.ReadAll(req.Body)
					assert.NoError(t, err)
					assert.Equal(t, `{"id":"abc"}`+"\n", string(body))

					return &http.Response{
						StatusCode: http.StatusOK,
						Body: io.NopCloser(bytes.NewBufferString(
							": keep-alive\n\n" +
								"event: thread.run.created\ndata: {\"id\": \"run-123\"}\n\n" +
								"event: thread.run.completed\ndata: {\"id\": \"run-123\",\ndata: \"status\": \"completed\"}\n\n",
						)),
					}, nil
				}),
			},
			events: []httpclient.Event{
				{Type: "thread.run.created", Data: []byte(`{"id": "run-123"}`)},
				{Type: "thread.run.completed", Data: []byte("{\"id\": \"run-123\",\n\"status\": \"completed\"}")},
			},
		},
		{
			description: "stop on done",
			httpClient: &http.Client{
				Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
					return &http.Response{
						StatusCode: http.StatusOK,
						Body: io.NopCloser(bytes.NewBufferString(
							"data: {\"id\": \"chunk-1\"}\n\ndata: [DONE]\n\ndata: {\"id\": \"never\"}\n\n",
						)),
					}, nil
				}),
			},
			events: []httpclient.Event{
				{Data: []byte(`{"id": "chunk-1"}`)},
				{Data: []byte(`[DONE]`)},
			},
		},
		{
			description: "event id and missing final delimiter",
			httpClient: &http.Client{
				Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
					return &http.Response{
						StatusCode: http.StatusOK,
						Body: io.NopCloser(bytes.NewBufferString(
							"id: 7\r\nevent: response.delta\r\ndata: {\"delta\":\"a b\"}\r\n\r\n\n\nretry: 10\ndata: tail",
						)),
					}, nil
				}),
			},
			events: []httpclient.Event{
				{Type: "response.delta", ID: "7", Data: []byte(`{"delta":"a b"}`)},
				{Data: []byte("tail")},
			},
		},
		{
			description: "error",
			httpClient: &http.Client{
				Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
					return &http.Response{}, errors.New("stream error")
				}),
			},
			error: `Post "https://api.openai.com/v1/runs": stream error`,
		},
		{
			description: "error status code",
			httpClient: &http.Client{
				Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
					return &http.Response{
						StatusCode: http.StatusNotFound,
						Body:       io.NopCloser(bytes.NewBufferString(`Page Not Found`)),
					}, nil
				}),
			},
			error: "[404] Page Not Found",
		},
	}

	for _, testcase := range testcases {
		t.Run(testcase.description, func(t *testing.T) {
			var index int
			err := httpclient.Stream(context.Background(), "/runs", struct {
				ID string `json:"id"`
			}{
				ID: "abc",
			},
				func(_ context.Context, event httpclient.Event) error {
					require.Less(t, index, len(testcase.events))
					assert.Equal(t, testcase.events[index], event)
					index++
					if string(event.Data) == "[DONE]" {
						return httpclient.ErrStreamDone
					}

					return nil
				},
				httpclient.WithHTTPClient(testcase.httpClient),
				httpclient.WithBaseURL("https://api.openai.com/v1"),
			)
			if testcase.error != "" {
				assert.EqualError(t, err, testcase.error)

				return
			}
			require.NoError(t, err)
			assert.Len(t, testcase.events, index)
		})
	}
}
