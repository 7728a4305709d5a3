// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package realtime_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktong/openai"
	"github.com/ktong/openai/realtime"
)

func TestSessionBuilder(t *testing.T) {
	valid := realtime.NewSessionBuilder(realtime.ModelGPT4oRealtime)

	testcases := []struct {
		description string
		builder     realtime.SessionBuilder
		error       string
	}{
		{
			description: "valid",
			builder: valid.Voice(realtime.VoiceAlloy).AudioFormat(realtime.PCM16).Temperature(0.8).
				TurnDetection(realtime.ServerVAD(0.5)).MaxResponseOutputTokens(realtime.Tokens(4096)),
		},
		{
			description: "infinite tokens",
			builder:     valid.MaxResponseOutputTokens(realtime.Infinite()),
		},
		{
			description: "missing model",
			builder:     realtime.NewSessionBuilder(""),
			error:       "model is required",
		},
		{
			description: "temperature too low",
			builder:     valid.Temperature(0.5),
			error:       "temperature must be between 0.6 and 1.2",
		},
		{
			description: "temperature too high",
			builder:     valid.Temperature(1.3),
			error:       "temperature must be between 0.6 and 1.2",
		},
		{
			description: "no tokens",
			builder:     valid.MaxResponseOutputTokens(realtime.Tokens(0)),
			error:       "max_response_output_tokens must be between 1 and 4096",
		},
		{
			description: "too many tokens",
			builder:     valid.MaxResponseOutputTokens(realtime.Tokens(4097)),
			error:       "max_response_output_tokens must be between 1 and 4096",
		},
		{
			description: "vad threshold",
			builder:     valid.TurnDetection(realtime.ServerVAD(1.5)),
			error:       "turn_detection.threshold must be between 0 and 1",
		},
		{
			description: "audio format",
			builder:     valid.AudioFormat("mp3"),
			error:       "input_audio_format must be one of [pcm16 g711_ulaw g711_alaw]",
		},
		{
			description: "voice",
			builder:     valid.Voice("robot"),
			error:       "voice must be one of [alloy echo fable onyx nova shimmer]",
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

func TestMaxTokens(t *testing.T) {
	testcases := []struct {
		description string
		tokens      *realtime.MaxTokens
		expected    string
	}{
		{description: "count", tokens: realtime.Tokens(256), expected: `256`},
		{description: "infinite", tokens: realtime.Infinite(), expected: `"inf"`},
	}

	for _, testcase := range testcases {
		t.Run(testcase.description, func(t *testing.T) {
			data, err := json.Marshal(testcase.tokens)
			require.NoError(t, err)
			assert.JSONEq(t, testcase.expected, string(data))

			var decoded realtime.MaxTokens
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, *testcase.tokens, decoded)
		})
	}
}

func TestSessionConfig_JSONRoundTrip(t *testing.T) {
	testcases := []struct {
		description string
		builder     realtime.SessionBuilder
		json        string
	}{
		{
			description: "minimal",
			builder:     realtime.NewSessionBuilder(realtime.ModelGPT4oRealtime),
			json:        `{"model": "gpt-4o-realtime-preview"}`,
		},
		{
			description: "infinite output tokens",
			builder: realtime.NewSessionBuilder(realtime.ModelGPT4oMiniRealtime).
				Modalities("text", "audio").
				Instructions("Be brief.").
				Voice(realtime.VoiceShimmer).
				AudioFormat(realtime.G711ULaw).
				TurnDetection(realtime.ServerVAD(0.5)).
				Tool(realtime.Tool{Type: "function", Name: "lookup_family", Parameters: json.RawMessage(`{"type":"object"}`)}).
				Temperature(0.8).
				MaxResponseOutputTokens(realtime.Infinite()),
			json: `{
				"model": "gpt-4o-mini-realtime-preview",
				"modalities": ["text", "audio"],
				"instructions": "Be brief.",
				"voice": "shimmer",
				"input_audio_format": "g711_ulaw",
				"output_audio_format": "g711_ulaw",
				"turn_detection": {"type": "server_vad", "threshold": 0.5},
				"tools": [{"type": "function", "name": "lookup_family", "parameters": {"type": "object"}}],
				"temperature": 0.8,
				"max_response_output_tokens": "inf"
			}`,
		},
		{
			description: "output token count",
			builder:     realtime.NewSessionBuilder(realtime.ModelGPT4oRealtime).MaxResponseOutputTokens(realtime.Tokens(4096)),
			json:        `{"model": "gpt-4o-realtime-preview", "max_response_output_tokens": 4096}`,
		},
	}

	for _, testcase := range testcases {
		t.Run(testcase.description, func(t *testing.T) {
			config, err := testcase.builder.Build()
			require.NoError(t, err)

			data, err := json.Marshal(config)
			require.NoError(t, err)
			assert.JSONEq(t, testcase.json, string(data))

			var decoded realtime.SessionConfig
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, config, decoded)
		})
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestCreateSession(t *testing.T) {
	client, err := openai.NewWithConfig(
		openai.Config{APIKey: "sk-test"},
		openai.WithHTTPClient(&http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "/v1/realtime/sessions", req.URL.Path)
			assert.Equal(t, "Bearer sk-test", req.Header.Get("Authorization"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.Equal(t, map[string]any{
				"model":                      realtime.ModelGPT4oMiniRealtime,
				"voice":                      "nova",
				"max_response_output_tokens": "inf",
			}, body)

			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     http.Header{"Content-Type": []string{"application/json"}},
				Body: io.NopCloser(bytes.NewBufferString(
					`{"id":"sess_1","object":"realtime.session","client_secret":{"value":"ek_1","expires_at":1700000000}}`)),
			}, nil
		})}),
	)
	require.NoError(t, err)

	config, err := realtime.NewSessionBuilder(realtime.ModelGPT4oMiniRealtime).
		Voice(realtime.VoiceNova).MaxResponseOutputTokens(realtime.Infinite()).Build()
	require.NoError(t, err)

	session, err := realtime.CreateSession(context.Background(), client, config)
	require.NoError(t, err)
	assert.Equal(t, "sess_1", session.ID)
	assert.Equal(t, "ek_1", session.ClientSecret.Value)

	_, err = realtime.CreateSession(context.Background(), client, realtime.SessionConfig{})
	assert.EqualError(t, err, "create realtime session: model is required")
}
