// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/ktong/openai/internal/httpclient"
	"github.com/ktong/openai/internal/validate"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const (
	MaxMessageContentLength = 32768
	MaxMessageFileIDs       = 10
)

// Message is a message within a thread.
type Message struct {
	ID                string            `json:"id"`
	Object            string            `json:"object"`
	CreatedAt         int64             `json:"created_at"`
	ThreadID          string            `json:"thread_id"`
	Status            string            `json:"status,omitempty"`
	IncompleteDetails *struct {
		Reason string `json:"reason"`
	} `json:"incomplete_details,omitempty"`
	Role        Role              `json:"role"`
	Content     []MessageContent  `json:"content"`
	AssistantID string            `json:"assistant_id,omitempty"`
	RunID       string            `json:"run_id,omitempty"`
	Attachments []Attachment      `json:"attachments,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Text joins the text parts of the message.
func (m Message) Text() string {
	var builder strings.Builder
	for _, content := range m.Content {
		if content.Type == "text" && content.Text != nil {
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(content.Text.Value)
		}
	}

	return builder.String()
}

type MessageContent struct {
	Type      string       `json:"type"`
	Text      *MessageText `json:"text,omitempty"`
	ImageFile *struct {
		FileID string `json:"file_id"`
		Detail string `json:"detail,omitempty"`
	} `json:"image_file,omitempty"`
	ImageURL *struct {
		URL    string `json:"url"`
		Detail string `json:"detail,omitempty"`
	} `json:"image_url,omitempty"`
}

type MessageText struct {
	Value       string       `json:"value"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

type Annotation struct {
	Type         string `json:"type"`
	Text         string `json:"text"`
	StartIndex   int    `json:"start_index"`
	EndIndex     int    `json:"end_index"`
	FileCitation *struct {
		FileID string `json:"file_id"`
	} `json:"file_citation,omitempty"`
	FilePath *struct {
		FileID string `json:"file_id"`
	} `json:"file_path,omitempty"`
}

// Attachment makes a file available to the listed tools for one message.
type Attachment struct {
	FileID string `json:"file_id"`
	Tools  Tools  `json:"tools,omitempty"`
}

// MessageRequest creates a message, either directly or as part of a new thread.
type MessageRequest struct {
	Role        Role              `json:"role"`
	Content     string            `json:"content"`
	Attachments []Attachment      `json:"attachments,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Validate checks role, content, then the content length, attachments and metadata.
func (r MessageRequest) Validate() error {
	return validate.First(
		validate.Required("role", string(r.Role)),
		validate.Required("content", r.Content),
		validate.OneOf("role", r.Role, RoleUser, RoleAssistant),
		validate.MaxLen("Message content", "content", r.Content, MaxMessageContentLength),
		validate.MaxItems("Message", "file_ids", len(r.Attachments), MaxMessageFileIDs, "file IDs"),
		validate.Metadata("Message", r.Metadata),
	)
}

// UserMessage is a shortcut for a text message from the user.
func UserMessage(content string) MessageRequest {
	return MessageRequest{Role: RoleUser, Content: content}
}

type MessageBuilder struct {
	request MessageRequest
}

func NewMessageBuilder() MessageBuilder {
	return MessageBuilder{}
}

func (b MessageBuilder) Role(role Role) MessageBuilder {
	b.request.Role = role

	return b
}

func (b MessageBuilder) Content(content string) MessageBuilder {
	b.request.Content = content

	return b
}

// Attachment attaches a file for the given tools. File search is used when no tool is given.
func (b MessageBuilder) Attachment(fileID string, tools ...Tool) MessageBuilder {
	if len(tools) == 0 {
		tools = []Tool{FileSearch{}}
	}
	b.request.Attachments = appendCopy(b.request.Attachments, Attachment{FileID: fileID, Tools: tools})

	return b
}

// FileID attaches files for file search.
func (b MessageBuilder) FileID(ids ...string) MessageBuilder {
	for _, id := range ids {
		b = b.Attachment(id)
	}

	return b
}

func (b MessageBuilder) MetadataPair(key, value string) MessageBuilder {
	b.request.Metadata = putCopy(b.request.Metadata, key, value)

	return b
}

func (b MessageBuilder) Build() (MessageRequest, error) {
	if err := b.request.Validate(); err != nil {
		return MessageRequest{}, err
	}

	return b.request, nil
}

func (c Client) CreateMessage(ctx context.Context, threadID string, request MessageRequest) (Message, error) {
	if err := request.Validate(); err != nil {
		return Message{}, fmt.Errorf("create message: %w", err)
	}
	message, err := httpclient.Post[Message](ctx, "/threads/"+threadID+"/messages", request, c...)
	if err != nil {
		return Message{}, fmt.Errorf("create message: %w", err)
	}

	return message, nil
}

func (c Client) RetrieveMessage(ctx context.Context, threadID, messageID string) (Message, error) {
	message, err := httpclient.Get[Message](ctx, "/threads/"+threadID+"/messages/"+messageID, c...)
	if err != nil {
		return Message{}, fmt.Errorf("retrieve message: %w", err)
	}

	return message, nil
}

// ModifyMessage replaces the metadata of a message.
func (c Client) ModifyMessage(
	ctx context.Context,
	threadID, messageID string,
	metadata map[string]string,
) (Message, error) {
	if err := validate.Metadata("Message", metadata); err != nil {
		return Message{}, fmt.Errorf("modify message: %w", err)
	}
	request := struct {
		Metadata map[string]string `json:"metadata"`
	}{Metadata: metadata}
	message, err := httpclient.Post[Message](ctx, "/threads/"+threadID+"/messages/"+messageID, request, c...)
	if err != nil {
		return Message{}, fmt.Errorf("modify message: %w", err)
	}

	return message, nil
}

func (c Client) DeleteMessage(ctx context.Context, threadID, messageID string) (DeletionStatus, error) {
	status, err := httpclient.Delete[DeletionStatus](ctx, "/threads/"+threadID+"/messages/"+messageID, c...)
	if err != nil {
		return DeletionStatus{}, fmt.Errorf("delete message: %w", err)
	}

	return status, nil
}

// ListMessages lists the messages of a thread, optionally only those created by runID.
func (c Client) ListMessages(
	ctx context.Context,
	threadID string,
	params ListParams,
	runID string,
) (List[Message], error) {
	opts, err := params.options()
	if err != nil {
		return List[Message]{}, fmt.Errorf("list messages: %w", err)
	}
	opts = append(opts, httpclient.WithQuery("run_id", runID))
	messages, err := httpclient.Get[List[Message]](ctx, "/threads/"+threadID+"/messages", c.with(opts...)...)
	if err != nil {
		return List[Message]{}, fmt.Errorf("list messages: %w", err)
	}

	return messages, nil
}
