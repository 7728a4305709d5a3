// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package openai

import (
	"context"
	"fmt"
	"sync"
)

// Agent is an assistant that is created on first use, together with the Go functions
// answering its tool calls.
//
// An Agent is safe for concurrent use. Call Shutdown to delete the assistant it created.
type Agent struct {
	request   AssistantRequest
	functions []Callable

	mu sync.Mutex
	id string
}

// NewAgent validates the assistant request and adds the function tool of every callable to it.
func NewAgent(request AssistantRequest, functions ...Callable) (*Agent, error) {
	for _, function := range functions {
		tool, err := function.Tool()
		if err != nil {
			return nil, fmt.Errorf("new agent: %w", err)
		}
		request.Tools = appendCopy(request.Tools, Tool(tool))
	}
	if err := request.Validate(); err != nil {
		return nil, fmt.Errorf("new agent: %w", err)
	}

	return &Agent{request: request, functions: functions}, nil
}

// ID returns the assistant ID, empty until the first run.
func (a *Agent) ID() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.id
}

// Run adds messages to thread and runs the agent on it until the run completes.
// The thread is created when its ID is empty.
func (a *Agent) Run(ctx context.Context, client Client, thread *Thread, messages ...MessageRequest) (Message, error) {
	id, err := a.assistant(ctx, client)
	if err != nil {
		return Message{}, err
	}

	if thread.ID == "" {
		created, err := client.CreateThread(ctx, ThreadRequest{Messages: messages})
		if err != nil {
			return Message{}, err
		}
		*thread = created
	} else {
		for _, message := range messages {
			if _, err := client.CreateMessage(ctx, thread.ID, message); err != nil {
				return Message{}, err
			}
		}
	}

	return client.RunWithTools(ctx, thread.ID, RunRequest{AssistantID: id}, a.functions...)
}

func (a *Agent) assistant(ctx context.Context, client Client) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.id != "" {
		return a.id, nil
	}
	assistant, err := client.CreateAssistant(ctx, a.request)
	if err != nil {
		return "", err
	}
	a.id = assistant.ID

	return a.id, nil
}

// Shutdown deletes the assistant if the agent created one.
func (a *Agent) Shutdown(ctx context.Context, client Client) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.id == "" {
		return nil
	}
	if _, err := client.DeleteAssistant(ctx, a.id); err != nil {
		return err
	}
	a.id = ""

	return nil
}
