// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/ktong/openai/internal/embedded"
	"github.com/ktong/openai/internal/schema"
	"github.com/ktong/openai/internal/validate"
)

// Tool is one of CodeInterpreter, FileSearch or FunctionTool.
type Tool interface {
	embedded.Tool
}

// CodeInterpreter allows Assistants to write and run Python code in a sandboxed execution environment.
type CodeInterpreter struct {
	embedded.BuiltInTool
}

// FileSearch augments the Assistant with knowledge from the attached vector stores.
type FileSearch struct {
	embedded.BuiltInTool

	// MaxNumResults is between 1 and 50. The API default is 20 for gpt-4 models and 5 for gpt-3.5-turbo.
	MaxNumResults *int
}

// FunctionTool describes a function the model may ask the caller to run.
type FunctionTool struct {
	embedded.Tool

	// Must be a-z, A-Z, 0-9, or contain underscores and dashes, with a maximum length of 64.
	Name        string
	Description string
	// Parameters is a JSON schema object. Nil means no parameters.
	Parameters json.RawMessage
	Strict     *bool
}

var functionName = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

func (f FunctionTool) Validate() error {
	return validate.First(
		validate.Required("name", f.Name),
		validate.Required("description", f.Description),
		func() error {
			if !functionName.MatchString(f.Name) {
				return validate.Violated("name",
					"Function name must match ^[a-zA-Z0-9_-]{1,64}$, got %q", f.Name)
			}

			return nil
		}(),
	)
}

// FunctionFor describes a function whose arguments decode into A.
func FunctionFor[A any](name, description string) (FunctionTool, error) {
	parameters, err := schema.JSON[A]()
	if err != nil {
		return FunctionTool{}, fmt.Errorf("generate function schema: %w", err)
	}
	tool := FunctionTool{
		Name:        name,
		Description: description,
		Parameters:  parameters,
	}
	if err := tool.Validate(); err != nil {
		return FunctionTool{}, err
	}

	return tool, nil
}

// Function pairs a function tool with the Go implementation that answers its calls.
type Function[A, R any] struct {
	Name        string
	Description string
	Function    func(ctx context.Context, argument A) (R, error)
}

func (f Function[A, R]) Tool() (FunctionTool, error) {
	return FunctionFor[A](f.Name, f.Description)
}

// Call decodes the JSON arguments, runs the function and encodes its result.
// String results are returned as they are.
func (f Function[A, R]) Call(ctx context.Context, arguments string) (string, error) {
	var argument A
	if arguments != "" {
		if err := json.Unmarshal([]byte(arguments), &argument); err != nil {
			return "", fmt.Errorf("unmarshal function call arguments: %w", err)
		}
	}
	result, err := f.Function(ctx, argument)
	if err != nil {
		return "", fmt.Errorf("call function: %w", err)
	}
	if text, ok := any(result).(string); ok {
		return text, nil
	}
	output, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshal function result: %w", err)
	}

	return string(output), nil
}

// Callable is implemented by Function and used when a run requires tool outputs.
type Callable interface {
	Tool() (FunctionTool, error)
	Call(ctx context.Context, arguments string) (string, error)
}

// Tools encodes the tagged union the API uses for tool definitions.
type Tools []Tool

type (
	toolJSON struct {
		Type       string          `json:"type"`
		FileSearch *fileSearchJSON `json:"file_search,omitempty"`
		Function   *functionJSON   `json:"function,omitempty"`
	}
	fileSearchJSON struct {
		MaxNumResults *int `json:"max_num_results,omitempty"`
	}
	functionJSON struct {
		Name        string          `json:"name"`
		Description string          `json:"description,omitempty"`
		Parameters  json.RawMessage `json:"parameters,omitempty"`
		Strict      *bool           `json:"strict,omitempty"`
	}
)

var errUnknownTool = errors.New("unknown tool")

func (t Tools) MarshalJSON() ([]byte, error) {
	tools := make([]toolJSON, 0, len(t))
	for _, tool := range t {
		switch tool := tool.(type) {
		case CodeInterpreter:
			tools = append(tools, toolJSON{Type: "code_interpreter"})
		case FileSearch:
			encoded := toolJSON{Type: "file_search"}
			if tool.MaxNumResults != nil {
				encoded.FileSearch = &fileSearchJSON{MaxNumResults: tool.MaxNumResults}
			}
			tools = append(tools, encoded)
		case FunctionTool:
			tools = append(tools, toolJSON{Type: "function", Function: &functionJSON{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
				Strict:      tool.Strict,
			}})
		default:
			return nil, fmt.Errorf("%w: %T", errUnknownTool, tool)
		}
	}

	return json.Marshal(tools) //nolint:wrapcheck
}

func (t *Tools) UnmarshalJSON(data []byte) error {
	var tools []toolJSON
	if err := json.Unmarshal(data, &tools); err != nil {
		return err //nolint:wrapcheck
	}

	decoded := make(Tools, 0, len(tools))
	for _, tool := range tools {
		switch tool.Type {
		case "code_interpreter":
			decoded = append(decoded, CodeInterpreter{})
		case "file_search":
			search := FileSearch{}
			if tool.FileSearch != nil {
				search.MaxNumResults = tool.FileSearch.MaxNumResults
			}
			decoded = append(decoded, search)
		case "function":
			if tool.Function == nil {
				return fmt.Errorf("%w: function tool without definition", errUnknownTool)
			}
			decoded = append(decoded, FunctionTool{
				Name:        tool.Function.Name,
				Description: tool.Function.Description,
				Parameters:  tool.Function.Parameters,
				Strict:      tool.Function.Strict,
			})
		default:
			return fmt.Errorf("%w: %s", errUnknownTool, tool.Type)
		}
	}
	*t = decoded

	return nil
}

func (t Tools) validate() error {
	for _, tool := range t {
		if function, ok := tool.(FunctionTool); ok {
			if err := function.Validate(); err != nil {
				return err
			}
		}
	}

	return nil
}

// ToolResources attaches files to code_interpreter and vector stores to file_search.
type ToolResources struct {
	CodeInterpreter *CodeInterpreterResources `json:"code_interpreter,omitempty"`
	FileSearch      *FileSearchResources      `json:"file_search,omitempty"`
}

type CodeInterpreterResources struct {
	FileIDs []string `json:"file_ids,omitempty"`
}

type FileSearchResources struct {
	VectorStoreIDs []string `json:"vector_store_ids,omitempty"`
}

func (r *ToolResources) withCodeInterpreterFiles(ids ...string) *ToolResources {
	resources := ToolResources{}
	if r != nil {
		resources = *r
	}
	interpreter := CodeInterpreterResources{}
	if resources.CodeInterpreter != nil {
		interpreter = *resources.CodeInterpreter
	}
	interpreter.FileIDs = appendCopy(interpreter.FileIDs, ids...)
	resources.CodeInterpreter = &interpreter

	return &resources
}

func (r *ToolResources) withVectorStores(ids ...string) *ToolResources {
	resources := ToolResources{}
	if r != nil {
		resources = *r
	}
	search := FileSearchResources{}
	if resources.FileSearch != nil {
		search = *resources.FileSearch
	}
	search.VectorStoreIDs = appendCopy(search.VectorStoreIDs, ids...)
	resources.FileSearch = &search

	return &resources
}

func (r *ToolResources) codeInterpreterFiles() int {
	if r == nil || r.CodeInterpreter == nil {
		return 0
	}

	return len(r.CodeInterpreter.FileIDs)
}
