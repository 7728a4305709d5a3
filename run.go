// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/ktong/openai/internal/httpclient"
	"github.com/ktong/openai/internal/validate"
)

type RunStatus string

const (
	RunQueued         RunStatus = "queued"
	RunInProgress     RunStatus = "in_progress"
	RunRequiresAction RunStatus = "requires_action"
	RunCancelling     RunStatus = "cancelling"
	RunCancelled      RunStatus = "cancelled"
	RunFailed         RunStatus = "failed"
	RunCompleted      RunStatus = "completed"
	RunIncomplete     RunStatus = "incomplete"
	RunExpired        RunStatus = "expired"
)

// Terminal reports whether the run can no longer change.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunCancelled, RunFailed, RunCompleted, RunIncomplete, RunExpired:
		return true
	default:
		return false
	}
}

type Run struct {
	ID             string          `json:"id"`
	Object         string          `json:"object"`
	CreatedAt      int64           `json:"created_at"`
	ThreadID       string          `json:"thread_id"`
	AssistantID    string          `json:"assistant_id"`
	Status         RunStatus       `json:"status"`
	RequiredAction *RequiredAction `json:"required_action,omitempty"`
	LastError      *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_error,omitempty"`
	Model        string            `json:"model"`
	Instructions string            `json:"instructions,omitempty"`
	Tools        Tools             `json:"tools,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Usage        *Usage            `json:"usage,omitempty"`
	Temperature  *float64          `json:"temperature,omitempty"`
	TopP         *float64          `json:"top_p,omitempty"`
	StartedAt    *int64            `json:"started_at,omitempty"`
	CompletedAt  *int64            `json:"completed_at,omitempty"`
	FailedAt     *int64            `json:"failed_at,omitempty"`
	CancelledAt  *int64            `json:"cancelled_at,omitempty"`
	ExpiresAt    *int64            `json:"expires_at,omitempty"`
}

type RequiredAction struct {
	Type              string `json:"type"`
	SubmitToolOutputs struct {
		ToolCalls []ToolCall `json:"tool_calls"`
	} `json:"submit_tool_outputs"`
}

type ToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// RunParams are the overrides shared by RunRequest and CreateThreadAndRunRequest.
type RunParams struct {
	Model               *string           `json:"model,omitempty"`
	Instructions        *string           `json:"instructions,omitempty"`
	Tools               Tools             `json:"tools,omitempty"`
	Metadata            map[string]string `json:"metadata,omitempty"`
	Temperature         *float64          `json:"temperature,omitempty"`
	TopP                *float64          `json:"top_p,omitempty"`
	MaxPromptTokens     *int              `json:"max_prompt_tokens,omitempty"`
	MaxCompletionTokens *int              `json:"max_completion_tokens,omitempty"`
	ParallelToolCalls   *bool             `json:"parallel_tool_calls,omitempty"`
	ResponseFormat      *ResponseFormat   `json:"response_format,omitempty"`
}

func (p RunParams) validate() error {
	return validate.First(
		validate.MaxLen("Run instructions", "instructions", deref(p.Instructions), MaxInstructionsLength),
		validate.MaxItems("Run", "tools", len(p.Tools), MaxAssistantTools, "tools"),
		p.Tools.validate(),
		validate.Range("temperature", p.Temperature, 0, maxTemperature),
		validate.Range("top_p", p.TopP, 0, maxTopP),
		validate.Min("max_prompt_tokens", p.MaxPromptTokens, 1),
		validate.Min("max_completion_tokens", p.MaxCompletionTokens, 1),
		validate.Metadata("Run", p.Metadata),
		p.ResponseFormat.validate(),
	)
}

// RunRequest starts a run on an existing thread.
type RunRequest struct {
	AssistantID string `json:"assistant_id"`
	RunParams
	AdditionalInstructions *string          `json:"additional_instructions,omitempty"`
	AdditionalMessages     []MessageRequest `json:"additional_messages,omitempty"`
	Stream                 bool             `json:"stream,omitempty"`
}

// Validate checks assistant_id, then instructions, tools, sampling, token limits, metadata
// and finally every additional message.
func (r RunRequest) Validate() error {
	if err := validate.First(
		validate.Required("assistant_id", r.AssistantID),
		r.RunParams.validate(),
	); err != nil {
		return err
	}
	for i, message := range r.AdditionalMessages {
		if err := message.Validate(); err != nil {
			return validate.Nested("additional_messages["+strconv.Itoa(i)+"]", err)
		}
	}

	return nil
}

type RunBuilder struct {
	request RunRequest
}

func NewRunBuilder() RunBuilder {
	return RunBuilder{}
}

func (b RunBuilder) AssistantID(id string) RunBuilder {
	b.request.AssistantID = id

	return b
}

func (b RunBuilder) Model(model string) RunBuilder {
	b.request.Model = &model

	return b
}

func (b RunBuilder) Instructions(instructions string) RunBuilder {
	b.request.Instructions = &instructions

	return b
}

func (b RunBuilder) AdditionalInstructions(instructions string) RunBuilder {
	b.request.AdditionalInstructions = &instructions

	return b
}

func (b RunBuilder) AdditionalMessage(messages ...MessageRequest) RunBuilder {
	b.request.AdditionalMessages = appendCopy(b.request.AdditionalMessages, messages...)

	return b
}

func (b RunBuilder) Tool(tools ...Tool) RunBuilder {
	b.request.Tools = appendCopy(b.request.Tools, tools...)

	return b
}

func (b RunBuilder) MetadataPair(key, value string) RunBuilder {
	b.request.Metadata = putCopy(b.request.Metadata, key, value)

	return b
}

func (b RunBuilder) Temperature(temperature float64) RunBuilder {
	b.request.Temperature = &temperature

	return b
}

func (b RunBuilder) TopP(topP float64) RunBuilder {
	b.request.TopP = &topP

	return b
}

func (b RunBuilder) MaxPromptTokens(tokens int) RunBuilder {
	b.request.MaxPromptTokens = &tokens

	return b
}

func (b RunBuilder) MaxCompletionTokens(tokens int) RunBuilder {
	b.request.MaxCompletionTokens = &tokens

	return b
}

func (b RunBuilder) ParallelToolCalls(parallel bool) RunBuilder {
	b.request.ParallelToolCalls = &parallel

	return b
}

func (b RunBuilder) ResponseFormat(format ResponseFormat) RunBuilder {
	b.request.ResponseFormat = &format

	return b
}

func (b RunBuilder) Build() (RunRequest, error) {
	if err := b.request.Validate(); err != nil {
		return RunRequest{}, err
	}

	return b.request, nil
}

// CreateThreadAndRunRequest creates a thread and starts a run on it in one call.
type CreateThreadAndRunRequest struct {
	AssistantID string         `json:"assistant_id"`
	Thread      *ThreadRequest `json:"thread,omitempty"`
	RunParams
	ToolResources *ToolResources `json:"tool_resources,omitempty"`
	Stream        bool           `json:"stream,omitempty"`
}

// Validate checks assistant_id, then the run overrides, then the thread.
func (r CreateThreadAndRunRequest) Validate() error {
	if err := validate.First(
		validate.Required("assistant_id", r.AssistantID),
		r.RunParams.validate(),
	); err != nil {
		return err
	}
	if r.Thread != nil {
		if err := r.Thread.Validate(); err != nil {
			return validate.Nested("thread", err)
		}
	}

	return nil
}

type CreateThreadAndRunBuilder struct {
	request CreateThreadAndRunRequest
}

func NewCreateThreadAndRunBuilder() CreateThreadAndRunBuilder {
	return CreateThreadAndRunBuilder{}
}

func (b CreateThreadAndRunBuilder) AssistantID(id string) CreateThreadAndRunBuilder {
	b.request.AssistantID = id

	return b
}

func (b CreateThreadAndRunBuilder) Thread(thread ThreadRequest) CreateThreadAndRunBuilder {
	b.request.Thread = &thread

	return b
}

// Message appends messages to the thread, creating it when needed.
func (b CreateThreadAndRunBuilder) Message(messages ...MessageRequest) CreateThreadAndRunBuilder {
	thread := ThreadRequest{}
	if b.request.Thread != nil {
		thread = *b.request.Thread
	}
	thread.Messages = appendCopy(thread.Messages, messages...)
	b.request.Thread = &thread

	return b
}

func (b CreateThreadAndRunBuilder) Model(model string) CreateThreadAndRunBuilder {
	b.request.Model = &model

	return b
}

func (b CreateThreadAndRunBuilder) Instructions(instructions string) CreateThreadAndRunBuilder {
	b.request.Instructions = &instructions

	return b
}

func (b CreateThreadAndRunBuilder) Tool(tools ...Tool) CreateThreadAndRunBuilder {
	b.request.Tools = appendCopy(b.request.Tools, tools...)

	return b
}

func (b CreateThreadAndRunBuilder) FileID(ids ...string) CreateThreadAndRunBuilder {
	b.request.ToolResources = b.request.ToolResources.withCodeInterpreterFiles(ids...)

	return b
}

func (b CreateThreadAndRunBuilder) MetadataPair(key, value string) CreateThreadAndRunBuilder {
	b.request.Metadata = putCopy(b.request.Metadata, key, value)

	return b
}

func (b CreateThreadAndRunBuilder) Temperature(temperature float64) CreateThreadAndRunBuilder {
	b.request.Temperature = &temperature

	return b
}

func (b CreateThreadAndRunBuilder) Build() (CreateThreadAndRunRequest, error) {
	if err := b.request.Validate(); err != nil {
		return CreateThreadAndRunRequest{}, err
	}

	return b.request, nil
}

// ToolOutput answers one tool call of a run that requires action.
type ToolOutput struct {
	ToolCallID string `json:"tool_call_id"`
	Output     string `json:"output"`
}

type SubmitToolOutputsRequest struct {
	ToolOutputs []ToolOutput `json:"tool_outputs"`
	Stream      bool         `json:"stream,omitempty"`
}

func (r SubmitToolOutputsRequest) Validate() error {
	if err := validate.RequiredItems("tool_outputs", len(r.ToolOutputs)); err != nil {
		return err
	}
	for i, output := range r.ToolOutputs {
		if err := validate.Required("tool_call_id", output.ToolCallID); err != nil {
			return validate.Nested("tool_outputs["+strconv.Itoa(i)+"]", err)
		}
	}

	return nil
}

func (c Client) CreateRun(ctx context.Context, threadID string, request RunRequest) (Run, error) {
	if err := request.Validate(); err != nil {
		return Run{}, fmt.Errorf("create run: %w", err)
	}
	request.Stream = false
	run, err := httpclient.Post[Run](ctx, "/threads/"+threadID+"/runs", request, c...)
	if err != nil {
		return Run{}, fmt.Errorf("create run: %w", err)
	}

	return run, nil
}

func (c Client) CreateThreadAndRun(ctx context.Context, request CreateThreadAndRunRequest) (Run, error) {
	if err := request.Validate(); err != nil {
		return Run{}, fmt.Errorf("create thread and run: %w", err)
	}
	request.Stream = false
	run, err := httpclient.Post[Run](ctx, "/threads/runs", request, c...)
	if err != nil {
		return Run{}, fmt.Errorf("create thread and run: %w", err)
	}

	return run, nil
}

func (c Client) RetrieveRun(ctx context.Context, threadID, runID string) (Run, error) {
	run, err := httpclient.Get[Run](ctx, "/threads/"+threadID+"/runs/"+runID, c...)
	if err != nil {
		return Run{}, fmt.Errorf("retrieve run: %w", err)
	}

	return run, nil
}

func (c Client) ModifyRun(ctx context.Context, threadID, runID string, metadata map[string]string) (Run, error) {
	if err := validate.Metadata("Run", metadata); err != nil {
		return Run{}, fmt.Errorf("modify run: %w", err)
	}
	request := struct {
		Metadata map[string]string `json:"metadata"`
	}{Metadata: metadata}
	run, err := httpclient.Post[Run](ctx, "/threads/"+threadID+"/runs/"+runID, request, c...)
	if err != nil {
		return Run{}, fmt.Errorf("modify run: %w", err)
	}

	return run, nil
}

func (c Client) ListRuns(ctx context.Context, threadID string, params ListParams) (List[Run], error) {
	opts, err := params.options()
	if err != nil {
		return List[Run]{}, fmt.Errorf("list runs: %w", err)
	}
	runs, err := httpclient.Get[List[Run]](ctx, "/threads/"+threadID+"/runs", c.with(opts...)...)
	if err != nil {
		return List[Run]{}, fmt.Errorf("list runs: %w", err)
	}

	return runs, nil
}

func (c Client) CancelRun(ctx context.Context, threadID, runID string) (Run, error) {
	run, err := httpclient.Post[Run](ctx, "/threads/"+threadID+"/runs/"+runID+"/cancel", struct{}{}, c...)
	if err != nil {
		return Run{}, fmt.Errorf("cancel run: %w", err)
	}

	return run, nil
}

func (c Client) SubmitToolOutputs(
	ctx context.Context,
	threadID, runID string,
	request SubmitToolOutputsRequest,
) (Run, error) {
	if err := request.Validate(); err != nil {
		return Run{}, fmt.Errorf("submit tool outputs: %w", err)
	}
	request.Stream = false
	run, err := httpclient.Post[Run](ctx,
		"/threads/"+threadID+"/runs/"+runID+"/submit_tool_outputs", request, c...)
	if err != nil {
		return Run{}, fmt.Errorf("submit tool outputs: %w", err)
	}

	return run, nil
}

type RunStep struct {
	ID          string          `json:"id"`
	Object      string          `json:"object"`
	CreatedAt   int64           `json:"created_at"`
	RunID       string          `json:"run_id"`
	AssistantID string          `json:"assistant_id"`
	ThreadID    string          `json:"thread_id"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	StepDetails json.RawMessage `json:"step_details,omitempty"`
	Usage       *Usage          `json:"usage,omitempty"`
}

func (c Client) ListRunSteps(ctx context.Context, threadID, runID string, params ListParams) (List[RunStep], error) {
	opts, err := params.options()
	if err != nil {
		return List[RunStep]{}, fmt.Errorf("list run steps: %w", err)
	}
	steps, err := httpclient.Get[List[RunStep]](ctx,
		"/threads/"+threadID+"/runs/"+runID+"/steps", c.with(opts...)...)
	if err != nil {
		return List[RunStep]{}, fmt.Errorf("list run steps: %w", err)
	}

	return steps, nil
}

const defaultRunPollInterval = time.Second

// WaitForRun polls the run until it reaches a terminal status or requires action.
// A zero interval polls every second.
func (c Client) WaitForRun(ctx context.Context, threadID, runID string, interval time.Duration) (Run, error) {
	if interval <= 0 {
		interval = defaultRunPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		run, err := c.RetrieveRun(ctx, threadID, runID)
		if err != nil {
			return Run{}, err
		}
		if run.Status.Terminal() || run.Status == RunRequiresAction {
			return run, nil
		}

		select {
		case <-ctx.Done():
			return run, fmt.Errorf("wait for run: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}
