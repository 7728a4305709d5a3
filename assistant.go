// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ktong/openai/internal/httpclient"
	"github.com/ktong/openai/internal/validate"
)

const (
	MaxAssistantNameLength        = 256
	MaxAssistantDescriptionLength = 512
	MaxInstructionsLength         = 32768
	MaxAssistantTools             = 128
	MaxAssistantFileIDs           = 20
	maxTemperature                = 2.0
	maxTopP                       = 1.0
)

// Assistant is an assistant object returned by the API.
type Assistant struct {
	ID             string            `json:"id"`
	Object         string            `json:"object"`
	CreatedAt      int64             `json:"created_at"`
	Name           *string           `json:"name,omitempty"`
	Description    *string           `json:"description,omitempty"`
	Model          string            `json:"model"`
	Instructions   *string           `json:"instructions,omitempty"`
	Tools          Tools             `json:"tools,omitempty"`
	ToolResources  *ToolResources    `json:"tool_resources,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Temperature    *float64          `json:"temperature,omitempty"`
	TopP           *float64          `json:"top_p,omitempty"`
	ResponseFormat json.RawMessage   `json:"response_format,omitempty"`
}

// AssistantRequest creates or modifies an assistant.
type AssistantRequest struct {
	Model          string            `json:"model,omitempty"`
	Name           *string           `json:"name,omitempty"`
	Description    *string           `json:"description,omitempty"`
	Instructions   *string           `json:"instructions,omitempty"`
	Tools          Tools             `json:"tools,omitempty"`
	ToolResources  *ToolResources    `json:"tool_resources,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Temperature    *float64          `json:"temperature,omitempty"`
	TopP           *float64          `json:"top_p,omitempty"`
	ResponseFormat *ResponseFormat   `json:"response_format,omitempty"`
}

// Validate checks model first, then name, description, instructions, tools, file IDs,
// metadata and sampling parameters.
func (r AssistantRequest) Validate() error {
	return validate.First(
		validate.Required("model", r.Model),
		r.validateBounds(),
	)
}

func (r AssistantRequest) validateBounds() error {
	return validate.First(
		validate.MaxLen("Assistant name", "name", deref(r.Name), MaxAssistantNameLength),
		validate.MaxLen("Assistant description", "description", deref(r.Description), MaxAssistantDescriptionLength),
		validate.MaxLen("Assistant instructions", "instructions", deref(r.Instructions), MaxInstructionsLength),
		validate.MaxItems("Assistant", "tools", len(r.Tools), MaxAssistantTools, "tools"),
		r.Tools.validate(),
		validate.MaxItems("Assistant", "file_ids", r.ToolResources.codeInterpreterFiles(), MaxAssistantFileIDs, "file IDs"),
		validate.Metadata("Assistant", r.Metadata),
		validate.Range("temperature", r.Temperature, 0, maxTemperature),
		validate.Range("top_p", r.TopP, 0, maxTopP),
		r.ResponseFormat.validate(),
	)
}

type AssistantBuilder struct {
	request AssistantRequest
}

func NewAssistantBuilder() AssistantBuilder {
	return AssistantBuilder{}
}

func (b AssistantBuilder) Model(model string) AssistantBuilder {
	b.request.Model = model

	return b
}

func (b AssistantBuilder) Name(name string) AssistantBuilder {
	b.request.Name = &name

	return b
}

func (b AssistantBuilder) Description(description string) AssistantBuilder {
	b.request.Description = &description

	return b
}

func (b AssistantBuilder) Instructions(instructions string) AssistantBuilder {
	b.request.Instructions = &instructions

	return b
}

func (b AssistantBuilder) Tool(tools ...Tool) AssistantBuilder {
	b.request.Tools = appendCopy(b.request.Tools, tools...)

	return b
}

// FileID makes files available to the code interpreter.
func (b AssistantBuilder) FileID(ids ...string) AssistantBuilder {
	b.request.ToolResources = b.request.ToolResources.withCodeInterpreterFiles(ids...)

	return b
}

// VectorStoreID attaches vector stores to file search.
func (b AssistantBuilder) VectorStoreID(ids ...string) AssistantBuilder {
	b.request.ToolResources = b.request.ToolResources.withVectorStores(ids...)

	return b
}

func (b AssistantBuilder) MetadataPair(key, value string) AssistantBuilder {
	b.request.Metadata = putCopy(b.request.Metadata, key, value)

	return b
}

func (b AssistantBuilder) Temperature(temperature float64) AssistantBuilder {
	b.request.Temperature = &temperature

	return b
}

func (b AssistantBuilder) TopP(topP float64) AssistantBuilder {
	b.request.TopP = &topP

	return b
}

func (b AssistantBuilder) ResponseFormat(format ResponseFormat) AssistantBuilder {
	b.request.ResponseFormat = &format

	return b
}

func (b AssistantBuilder) Build() (AssistantRequest, error) {
	if err := b.request.Validate(); err != nil {
		return AssistantRequest{}, err
	}

	return b.request, nil
}

func (c Client) CreateAssistant(ctx context.Context, request AssistantRequest) (Assistant, error) {
	if err := request.Validate(); err != nil {
		return Assistant{}, fmt.Errorf("create assistant: %w", err)
	}
	assistant, err := httpclient.Post[Assistant](ctx, "/assistants", request, c...)
	if err != nil {
		return Assistant{}, fmt.Errorf("create assistant: %w", err)
	}

	return assistant, nil
}

func (c Client) RetrieveAssistant(ctx context.Context, id string) (Assistant, error) {
	assistant, err := httpclient.Get[Assistant](ctx, "/assistants/"+id, c...)
	if err != nil {
		return Assistant{}, fmt.Errorf("retrieve assistant: %w", err)
	}

	return assistant, nil
}

// ModifyAssistant updates the fields set in request. Model may be left empty.
func (c Client) ModifyAssistant(ctx context.Context, id string, request AssistantRequest) (Assistant, error) {
	if err := request.validateBounds(); err != nil {
		return Assistant{}, fmt.Errorf("modify assistant: %w", err)
	}
	assistant, err := httpclient.Post[Assistant](ctx, "/assistants/"+id, request, c...)
	if err != nil {
		return Assistant{}, fmt.Errorf("modify assistant: %w", err)
	}

	return assistant, nil
}

func (c Client) DeleteAssistant(ctx context.Context, id string) (DeletionStatus, error) {
	status, err := httpclient.Delete[DeletionStatus](ctx, "/assistants/"+id, c...)
	if err != nil {
		return DeletionStatus{}, fmt.Errorf("delete assistant: %w", err)
	}

	return status, nil
}

func (c Client) ListAssistants(ctx context.Context, params ListParams) (List[Assistant], error) {
	opts, err := params.options()
	if err != nil {
		return List[Assistant]{}, fmt.Errorf("list assistants: %w", err)
	}
	assistants, err := httpclient.Get[List[Assistant]](ctx, "/assistants", c.with(opts...)...)
	if err != nil {
		return List[Assistant]{}, fmt.Errorf("list assistants: %w", err)
	}

	return assistants, nil
}

func deref[T any](v *T) T {
	if v == nil {
		return *new(T)
	}

	return *v
}
