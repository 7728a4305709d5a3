// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ktong/openai/internal/httpclient"
)

// RunEvent is one server-sent event of a streamed run, such as
// "thread.run.created" or "thread.message.delta".
type RunEvent struct {
	Type string
	Data json.RawMessage
}

// StreamRun starts a run and passes every event to handler until the stream ends.
// The "done" event is not passed.
func (c Client) StreamRun(
	ctx context.Context,
	threadID string,
	request RunRequest,
	handler func(context.Context, RunEvent) error,
) error {
	if err := request.Validate(); err != nil {
		return fmt.Errorf("stream run: %w", err)
	}
	request.Stream = true
	if err := httpclient.Stream(ctx, "/threads/"+threadID+"/runs", request, runEventHandler(handler), c...); err != nil {
		return fmt.Errorf("stream run: %w", err)
	}

	return nil
}

func runEventHandler(handler func(context.Context, RunEvent) error) func(context.Context, httpclient.Event) error {
	return func(ctx context.Context, event httpclient.Event) error {
		switch event.Type {
		case "done":
			return httpclient.ErrStreamDone
		case "error":
			var envelope struct {
				Error struct {
					Message string `json:"message"`
					Type    string `json:"type"`
					Code    string `json:"code"`
				} `json:"error"`
			}
			if err := json.Unmarshal(event.Data, &envelope); err != nil {
				return fmt.Errorf("unmarshal error event: %w", err)
			}

			return &httpclient.StatusError{
				Code:    http.StatusInternalServerError,
				Message: envelope.Error.Message,
				Type:    envelope.Error.Type,
				ErrCode: envelope.Error.Code,
			}
		default:
			return handler(ctx, RunEvent{Type: event.Type, Data: event.Data})
		}
	}
}

var errMessageIncomplete = errors.New("message incomplete")

// RunWithTools streams a run and answers every required action with the matching callables,
// until the run completes. It returns the last completed message of the run.
func (c Client) RunWithTools(
	ctx context.Context,
	threadID string,
	request RunRequest,
	callables ...Callable,
) (Message, error) {
	if err := request.Validate(); err != nil {
		return Message{}, fmt.Errorf("run with tools: %w", err)
	}

	handler := runHandler{
		client:    c,
		functions: make(map[string]Callable, len(callables)),
		stream:    make(chan func() error, 1),
	}
	for _, callable := range callables {
		tool, err := callable.Tool()
		if err != nil {
			return Message{}, fmt.Errorf("run with tools: %w", err)
		}
		handler.functions[tool.Name] = callable
	}

	request.Stream = true
	handler.stream <- func() error {
		return httpclient.Stream(ctx, "/threads/"+threadID+"/runs", request, runEventHandler(handler.handle), c...)
	}

	message, err := handler.run()
	if err != nil {
		return Message{}, fmt.Errorf("run with tools: %w", err)
	}

	return message, nil
}

type runHandler struct {
	client    Client
	functions map[string]Callable
	stream    chan func() error
	message   Message
}

func (h *runHandler) handle(ctx context.Context, event RunEvent) error {
	switch event.Type {
	case "thread.run.requires_action":
		var run Run
		if err := json.Unmarshal(event.Data, &run); err != nil {
			return fmt.Errorf("unmarshal run: %w", err)
		}
		if run.RequiredAction == nil {
			return nil
		}

		calls := run.RequiredAction.SubmitToolOutputs.ToolCalls
		outputs := SubmitToolOutputsRequest{ToolOutputs: make([]ToolOutput, 0, len(calls)), Stream: true}
		for _, call := range calls {
			outputs.ToolOutputs = append(outputs.ToolOutputs, ToolOutput{
				ToolCallID: call.ID,
				Output:     h.call(ctx, call),
			})
		}

		h.stream <- func() error {
			return httpclient.Stream(ctx,
				"/threads/"+run.ThreadID+"/runs/"+run.ID+"/submit_tool_outputs",
				outputs, runEventHandler(h.handle), h.client...,
			)
		}
	case "thread.message.completed", "thread.message.incomplete":
		var message Message
		if err := json.Unmarshal(event.Data, &message); err != nil {
			return fmt.Errorf("unmarshal message: %w", err)
		}
		if message.Status == "incomplete" {
			reason := ""
			if message.IncompleteDetails != nil {
				reason = message.IncompleteDetails.Reason
			}

			return fmt.Errorf("%w: %s", errMessageIncomplete, reason)
		}
		h.message = message
	case "thread.run.failed":
		var run Run
		if err := json.Unmarshal(event.Data, &run); err != nil {
			return fmt.Errorf("unmarshal run: %w", err)
		}
		if run.LastError != nil {
			return fmt.Errorf("run failed: %s: %s", run.LastError.Code, run.LastError.Message)
		}

		return errors.New("run failed")
	}

	return nil
}

// call answers a tool call. Failures are reported to the model as an error object.
func (h *runHandler) call(ctx context.Context, call ToolCall) string {
	function := h.functions[call.Function.Name]
	if call.Type != "function" || function == nil {
		zerolog.Ctx(ctx).Warn().Str("tool", call.Function.Name).Msg("no callable for tool call")

		return `{"error":"unknown function"}`
	}

	output, err := function.Call(ctx, call.Function.Arguments)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("tool", call.Function.Name).Msg("tool call failed")
		encoded, _ := json.Marshal(map[string]string{"error": err.Error()})

		return string(encoded)
	}

	return output
}

func (h *runHandler) run() (Message, error) {
	for {
		select {
		case f := <-h.stream:
			if err := f(); err != nil {
				return Message{}, err
			}
		default:
			return h.message, nil
		}
	}
}
