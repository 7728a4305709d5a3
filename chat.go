// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ktong/openai/internal/httpclient"
	"github.com/ktong/openai/internal/schema"
	"github.com/ktong/openai/internal/validate"
)

const (
	minPenalty   = -2.0
	maxPenalty   = 2.0
	maxStopWords = 4
)

// ResponseFormat constrains the output of a model. Type is text, json_object or json_schema.
type ResponseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *JSONSchemaFormat `json:"json_schema,omitempty"`
}

type JSONSchemaFormat struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Schema      json.RawMessage `json:"schema"`
	Strict      *bool           `json:"strict,omitempty"`
}

// ResponseFormatFor returns a strict json_schema format reflected from T.
func ResponseFormatFor[T any](name string) (ResponseFormat, error) {
	raw, err := schema.JSON[T]()
	if err != nil {
		return ResponseFormat{}, fmt.Errorf("generate response schema: %w", err)
	}
	format := ResponseFormat{
		Type:       "json_schema",
		JSONSchema: &JSONSchemaFormat{Name: name, Schema: raw, Strict: ptr(true)},
	}
	if err := format.validate(); err != nil {
		return ResponseFormat{}, err
	}

	return format, nil
}

func (f *ResponseFormat) validate() error {
	if f == nil {
		return nil
	}
	if err := validate.First(
		validate.Required("response_format.type", f.Type),
		validate.OneOf("response_format.type", f.Type, "text", "json_object", "json_schema"),
	); err != nil {
		return err
	}
	if f.Type != "json_schema" {
		return nil
	}
	if f.JSONSchema == nil {
		return validate.Missing("response_format.json_schema")
	}

	return validate.First(
		validate.Required("response_format.json_schema.name", f.JSONSchema.Name),
		func() error {
			if !functionName.MatchString(f.JSONSchema.Name) {
				return validate.Violated("response_format.json_schema.name",
					"Schema name must match ^[a-zA-Z0-9_-]{1,64}$, got %q", f.JSONSchema.Name)
			}

			return nil
		}(),
	)
}

type ChatRole string

const (
	ChatRoleSystem    ChatRole = "system"
	ChatRoleDeveloper ChatRole = "developer"
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
	ChatRoleTool      ChatRole = "tool"
)

type ChatMessage struct {
	Role       ChatRole   `json:"role"`
	Content    string     `json:"content,omitempty"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Refusal    string     `json:"refusal,omitempty"`
}

func (m ChatMessage) validate() error {
	return validate.First(
		validate.Required("role", string(m.Role)),
		validate.OneOf("role", m.Role,
			ChatRoleSystem, ChatRoleDeveloper, ChatRoleUser, ChatRoleAssistant, ChatRoleTool),
		func() error {
			switch {
			case m.Role == ChatRoleAssistant && len(m.ToolCalls) > 0:
				return nil
			case m.Role == ChatRoleTool:
				return validate.Required("tool_call_id", m.ToolCallID)
			default:
				return validate.Required("content", m.Content)
			}
		}(),
	)
}

type ChatCompletionRequest struct {
	Model            string            `json:"model"`
	Messages         []ChatMessage     `json:"messages"`
	Temperature      *float64          `json:"temperature,omitempty"`
	TopP             *float64          `json:"top_p,omitempty"`
	N                *int              `json:"n,omitempty"`
	PresencePenalty  *float64          `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64          `json:"frequency_penalty,omitempty"`
	Stop             []string          `json:"stop,omitempty"`
	MaxTokens        *int              `json:"max_completion_tokens,omitempty"`
	Seed             *int64            `json:"seed,omitempty"`
	Tools            Tools             `json:"tools,omitempty"`
	ToolChoice       any               `json:"tool_choice,omitempty"`
	ResponseFormat   *ResponseFormat   `json:"response_format,omitempty"`
	User             string            `json:"user,omitempty"`
	Store            *bool             `json:"store,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	Stream           bool              `json:"stream,omitempty"`
	StreamOptions    *struct {
		IncludeUsage bool `json:"include_usage"`
	} `json:"stream_options,omitempty"`
}

// Validate checks model, messages, then sampling, penalties, stop words, token limit,
// tools, metadata and finally every message.
func (r ChatCompletionRequest) Validate() error {
	if err := validate.First(
		validate.Required("model", r.Model),
		validate.RequiredItems("messages", len(r.Messages)),
		validate.Range("temperature", r.Temperature, 0, maxTemperature),
		validate.Range("top_p", r.TopP, 0, maxTopP),
		validate.Min("n", r.N, 1),
		validate.Range("presence_penalty", r.PresencePenalty, minPenalty, maxPenalty),
		validate.Range("frequency_penalty", r.FrequencyPenalty, minPenalty, maxPenalty),
		validate.MaxItems("Chat completion", "stop", len(r.Stop), maxStopWords, "stop sequences"),
		validate.Min("max_completion_tokens", r.MaxTokens, 1),
		validate.MaxItems("Chat completion", "tools", len(r.Tools), MaxAssistantTools, "tools"),
		r.validateTools(),
		r.ResponseFormat.validate(),
		validate.Metadata("Chat completion", r.Metadata),
	); err != nil {
		return err
	}
	for i, message := range r.Messages {
		if err := message.validate(); err != nil {
			return validate.Nested("messages["+strconv.Itoa(i)+"]", err)
		}
	}

	return nil
}

func (r ChatCompletionRequest) validateTools() error {
	for _, tool := range r.Tools {
		if _, ok := tool.(FunctionTool); !ok {
			return validate.Violated("tools", "Chat completions only support function tools")
		}
	}

	return r.Tools.validate()
}

type ChatCompletionBuilder struct {
	request ChatCompletionRequest
}

func NewChatCompletionBuilder() ChatCompletionBuilder {
	return ChatCompletionBuilder{}
}

func (b ChatCompletionBuilder) Model(model string) ChatCompletionBuilder {
	b.request.Model = model

	return b
}

func (b ChatCompletionBuilder) Message(messages ...ChatMessage) ChatCompletionBuilder {
	b.request.Messages = appendCopy(b.request.Messages, messages...)

	return b
}

func (b ChatCompletionBuilder) System(content string) ChatCompletionBuilder {
	return b.Message(ChatMessage{Role: ChatRoleSystem, Content: content})
}

func (b ChatCompletionBuilder) User(content string) ChatCompletionBuilder {
	return b.Message(ChatMessage{Role: ChatRoleUser, Content: content})
}

func (b ChatCompletionBuilder) Temperature(temperature float64) ChatCompletionBuilder {
	b.request.Temperature = &temperature

	return b
}

func (b ChatCompletionBuilder) TopP(topP float64) ChatCompletionBuilder {
	b.request.TopP = &topP

	return b
}

func (b ChatCompletionBuilder) N(n int) ChatCompletionBuilder {
	b.request.N = &n

	return b
}

func (b ChatCompletionBuilder) PresencePenalty(penalty float64) ChatCompletionBuilder {
	b.request.PresencePenalty = &penalty

	return b
}

func (b ChatCompletionBuilder) FrequencyPenalty(penalty float64) ChatCompletionBuilder {
	b.request.FrequencyPenalty = &penalty

	return b
}

func (b ChatCompletionBuilder) Stop(stop ...string) ChatCompletionBuilder {
	b.request.Stop = appendCopy(b.request.Stop, stop...)

	return b
}

func (b ChatCompletionBuilder) MaxTokens(tokens int) ChatCompletionBuilder {
	b.request.MaxTokens = &tokens

	return b
}

func (b ChatCompletionBuilder) Seed(seed int64) ChatCompletionBuilder {
	b.request.Seed = &seed

	return b
}

func (b ChatCompletionBuilder) Tool(tools ...FunctionTool) ChatCompletionBuilder {
	for _, tool := range tools {
		b.request.Tools = appendCopy(b.request.Tools, Tool(tool))
	}

	return b
}

func (b ChatCompletionBuilder) ResponseFormat(format ResponseFormat) ChatCompletionBuilder {
	b.request.ResponseFormat = &format

	return b
}

// EndUser identifies the end user for abuse monitoring.
func (b ChatCompletionBuilder) EndUser(user string) ChatCompletionBuilder {
	b.request.User = user

	return b
}

func (b ChatCompletionBuilder) MetadataPair(key, value string) ChatCompletionBuilder {
	b.request.Metadata = putCopy(b.request.Metadata, key, value)

	return b
}

func (b ChatCompletionBuilder) Build() (ChatCompletionRequest, error) {
	if err := b.request.Validate(); err != nil {
		return ChatCompletionRequest{}, err
	}

	return b.request, nil
}

type ChatCompletion struct {
	ID                string       `json:"id"`
	Object            string       `json:"object"`
	Created           int64        `json:"created"`
	Model             string       `json:"model"`
	SystemFingerprint string       `json:"system_fingerprint,omitempty"`
	Choices           []ChatChoice `json:"choices"`
	Usage             *Usage       `json:"usage,omitempty"`
}

type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// Content returns the content of the first choice.
func (c ChatCompletion) Content() string {
	if len(c.Choices) == 0 {
		return ""
	}

	return c.Choices[0].Message.Content
}

func (c Client) CreateChatCompletion(ctx context.Context, request ChatCompletionRequest) (ChatCompletion, error) {
	if err := request.Validate(); err != nil {
		return ChatCompletion{}, fmt.Errorf("create chat completion: %w", err)
	}
	request.Stream = false
	request.StreamOptions = nil
	completion, err := httpclient.Post[ChatCompletion](ctx, "/chat/completions", request, c...)
	if err != nil {
		return ChatCompletion{}, fmt.Errorf("create chat completion: %w", err)
	}

	return completion, nil
}

type ChatCompletionChunk struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index int `json:"index"`
		Delta struct {
			Role      ChatRole `json:"role,omitempty"`
			Content   string   `json:"content,omitempty"`
			ToolCalls []struct {
				Index    int    `json:"index"`
				ID       string `json:"id,omitempty"`
				Type     string `json:"type,omitempty"`
				Function struct {
					Name      string `json:"name,omitempty"`
					Arguments string `json:"arguments,omitempty"`
				} `json:"function"`
			} `json:"tool_calls,omitempty"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Usage *Usage `json:"usage,omitempty"`
}

var streamDone = []byte("[DONE]")

// StreamChatCompletion streams the completion and passes every chunk to handler,
// until the server sends [DONE].
func (c Client) StreamChatCompletion(
	ctx context.Context,
	request ChatCompletionRequest,
	handler func(context.Context, ChatCompletionChunk) error,
) error {
	if err := request.Validate(); err != nil {
		return fmt.Errorf("stream chat completion: %w", err)
	}
	request.Stream = true

	err := httpclient.Stream(ctx, "/chat/completions", request, func(ctx context.Context, event httpclient.Event) error {
		if bytes.Equal(event.Data, streamDone) {
			return httpclient.ErrStreamDone
		}
		var chunk ChatCompletionChunk
		if err := json.Unmarshal(event.Data, &chunk); err != nil {
			return fmt.Errorf("unmarshal chunk: %w", err)
		}

		return handler(ctx, chunk)
	}, c...)
	if err != nil {
		return fmt.Errorf("stream chat completion: %w", err)
	}

	return nil
}
