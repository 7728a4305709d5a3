// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package openai

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ktong/openai/internal/httpclient"
	"github.com/ktong/openai/internal/validate"
)

type Thread struct {
	ID            string            `json:"id"`
	Object        string            `json:"object"`
	CreatedAt     int64             `json:"created_at"`
	ToolResources *ToolResources    `json:"tool_resources,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// ThreadRequest creates a thread, optionally seeded with messages.
type ThreadRequest struct {
	Messages      []MessageRequest  `json:"messages,omitempty"`
	ToolResources *ToolResources    `json:"tool_resources,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Validate checks metadata first, then every message in order.
func (r ThreadRequest) Validate() error {
	if err := validate.Metadata("Thread", r.Metadata); err != nil {
		return err
	}
	for i, message := range r.Messages {
		if err := message.Validate(); err != nil {
			return validate.Nested("messages["+strconv.Itoa(i)+"]", err)
		}
	}

	return nil
}

type ThreadBuilder struct {
	request ThreadRequest
}

func NewThreadBuilder() ThreadBuilder {
	return ThreadBuilder{}
}

func (b ThreadBuilder) Message(messages ...MessageRequest) ThreadBuilder {
	b.request.Messages = appendCopy(b.request.Messages, messages...)

	return b
}

func (b ThreadBuilder) FileID(ids ...string) ThreadBuilder {
	b.request.ToolResources = b.request.ToolResources.withCodeInterpreterFiles(ids...)

	return b
}

func (b ThreadBuilder) VectorStoreID(ids ...string) ThreadBuilder {
	b.request.ToolResources = b.request.ToolResources.withVectorStores(ids...)

	return b
}

func (b ThreadBuilder) MetadataPair(key, value string) ThreadBuilder {
	b.request.Metadata = putCopy(b.request.Metadata, key, value)

	return b
}

func (b ThreadBuilder) Build() (ThreadRequest, error) {
	if err := b.request.Validate(); err != nil {
		return ThreadRequest{}, err
	}

	return b.request, nil
}

func (c Client) CreateThread(ctx context.Context, request ThreadRequest) (Thread, error) {
	if err := request.Validate(); err != nil {
		return Thread{}, fmt.Errorf("create thread: %w", err)
	}
	thread, err := httpclient.Post[Thread](ctx, "/threads", request, c...)
	if err != nil {
		return Thread{}, fmt.Errorf("create thread: %w", err)
	}

	return thread, nil
}

func (c Client) RetrieveThread(ctx context.Context, id string) (Thread, error) {
	thread, err := httpclient.Get[Thread](ctx, "/threads/"+id, c...)
	if err != nil {
		return Thread{}, fmt.Errorf("retrieve thread: %w", err)
	}

	return thread, nil
}

// ModifyThread updates tool resources and metadata. Messages in request are not allowed.
func (c Client) ModifyThread(ctx context.Context, id string, request ThreadRequest) (Thread, error) {
	if len(request.Messages) > 0 {
		return Thread{}, fmt.Errorf("modify thread: %w",
			validate.Violated("messages", "Messages cannot be modified through the thread"))
	}
	if err := request.Validate(); err != nil {
		return Thread{}, fmt.Errorf("modify thread: %w", err)
	}
	thread, err := httpclient.Post[Thread](ctx, "/threads/"+id, request, c...)
	if err != nil {
		return Thread{}, fmt.Errorf("modify thread: %w", err)
	}

	return thread, nil
}

func (c Client) DeleteThread(ctx context.Context, id string) (DeletionStatus, error) {
	status, err := httpclient.Delete[DeletionStatus](ctx, "/threads/"+id, c...)
	if err != nil {
		return DeletionStatus{}, fmt.Errorf("delete thread: %w", err)
	}

	return status, nil
}
