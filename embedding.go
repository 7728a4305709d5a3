// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package openai

import (
	"context"
	"fmt"

	"github.com/ktong/openai/internal/httpclient"
	"github.com/ktong/openai/internal/validate"
)

const maxEmbeddingInputs = 2048

type EmbeddingRequest struct {
	Model          string   `json:"model"`
	Input          []string `json:"input"`
	Dimensions     *int     `json:"dimensions,omitempty"`
	EncodingFormat string   `json:"encoding_format,omitempty"`
	User           string   `json:"user,omitempty"`
}

func (r EmbeddingRequest) Validate() error {
	return validate.First(
		validate.Required("model", r.Model),
		validate.RequiredItems("input", len(r.Input)),
		validate.Min("dimensions", r.Dimensions, 1),
		validate.OneOf("encoding_format", r.EncodingFormat, "float", "base64"),
		validate.MaxItems("Embedding request", "input", len(r.Input), maxEmbeddingInputs, "inputs"),
	)
}

type EmbeddingBuilder struct {
	request EmbeddingRequest
}

func NewEmbeddingBuilder() EmbeddingBuilder {
	return EmbeddingBuilder{}
}

func (b EmbeddingBuilder) Model(model string) EmbeddingBuilder {
	b.request.Model = model

	return b
}

func (b EmbeddingBuilder) Input(input ...string) EmbeddingBuilder {
	b.request.Input = appendCopy(b.request.Input, input...)

	return b
}

func (b EmbeddingBuilder) Dimensions(dimensions int) EmbeddingBuilder {
	b.request.Dimensions = &dimensions

	return b
}

func (b EmbeddingBuilder) EncodingFormat(format string) EmbeddingBuilder {
	b.request.EncodingFormat = format

	return b
}

func (b EmbeddingBuilder) Build() (EmbeddingRequest, error) {
	if err := b.request.Validate(); err != nil {
		return EmbeddingRequest{}, err
	}

	return b.request, nil
}

type Embeddings struct {
	Object string `json:"object"`
	Data   []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Model string `json:"model"`
	Usage *Usage `json:"usage,omitempty"`
}

func (c Client) CreateEmbeddings(ctx context.Context, request EmbeddingRequest) (Embeddings, error) {
	if err := request.Validate(); err != nil {
		return Embeddings{}, fmt.Errorf("create embeddings: %w", err)
	}
	if request.EncodingFormat == "base64" {
		return Embeddings{}, fmt.Errorf("create embeddings: %w",
			validate.Violated("encoding_format", "base64 embeddings are only supported in batches"))
	}
	embeddings, err := httpclient.Post[Embeddings](ctx, "/embeddings", request, c...)
	if err != nil {
		return Embeddings{}, fmt.Errorf("create embeddings: %w", err)
	}

	return embeddings, nil
}
