// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package openai

import (
	"context"
	"fmt"

	"github.com/ktong/openai/internal/httpclient"
	"github.com/ktong/openai/internal/validate"
)

const (
	ModelDALLE2 = "dall-e-2"
	ModelDALLE3 = "dall-e-3"

	maxImages             = 10
	maxDALLE2PromptLength = 1000
	maxDALLE3PromptLength = 4000
)

type ImageSize string

const (
	Size256x256   ImageSize = "256x256"
	Size512x512   ImageSize = "512x512"
	Size1024x1024 ImageSize = "1024x1024"
	Size1792x1024 ImageSize = "1792x1024"
	Size1024x1792 ImageSize = "1024x1792"
)

type ImageGenerationRequest struct {
	Prompt         string    `json:"prompt"`
	Model          string    `json:"model"`
	N              *int      `json:"n,omitempty"`
	Quality        string    `json:"quality,omitempty"`
	ResponseFormat string    `json:"response_format,omitempty"`
	Size           ImageSize `json:"size,omitempty"`
	Style          string    `json:"style,omitempty"`
	User           string    `json:"user,omitempty"`
}

// Validate checks prompt, model and the image count, then the rules of the DALL-E model.
func (r ImageGenerationRequest) Validate() error {
	if err := validate.First(
		validate.Required("prompt", r.Prompt),
		validate.Required("model", r.Model),
		validate.Range("n", r.N, 1, maxImages),
		validate.OneOf("quality", r.Quality, "standard", "hd"),
		validate.OneOf("style", r.Style, "vivid", "natural"),
		validate.OneOf("response_format", r.ResponseFormat, "url", "b64_json"),
	); err != nil {
		return err
	}

	switch r.Model {
	case ModelDALLE3:
		if r.N != nil && *r.N != 1 {
			return validate.Violated("n", "DALL-E 3 only supports generating 1 image at a time")
		}
		if r.Size == Size256x256 || r.Size == Size512x512 {
			return validate.Violated("size", "DALL-E 3 does not support 256x256 or 512x512 sizes")
		}

		return validate.MaxLen("DALL-E 3 prompt", "prompt", r.Prompt, maxDALLE3PromptLength)
	case ModelDALLE2:
		if r.Quality != "" {
			return validate.Violated("quality", "Quality parameter is only available for DALL-E 3")
		}
		if r.Style != "" {
			return validate.Violated("style", "Style parameter is only available for DALL-E 3")
		}
		if r.Size == Size1792x1024 || r.Size == Size1024x1792 {
			return validate.Violated("size", "DALL-E 2 does not support 1792x1024 or 1024x1792 sizes")
		}

		return validate.MaxLen("DALL-E 2 prompt", "prompt", r.Prompt, maxDALLE2PromptLength)
	default:
		return nil
	}
}

type ImageBuilder struct {
	request ImageGenerationRequest
}

func NewImageBuilder() ImageBuilder {
	return ImageBuilder{}
}

func (b ImageBuilder) Prompt(prompt string) ImageBuilder {
	b.request.Prompt = prompt

	return b
}

func (b ImageBuilder) Model(model string) ImageBuilder {
	b.request.Model = model

	return b
}

func (b ImageBuilder) N(n int) ImageBuilder {
	b.request.N = &n

	return b
}

func (b ImageBuilder) Size(size ImageSize) ImageBuilder {
	b.request.Size = size

	return b
}

func (b ImageBuilder) Quality(quality string) ImageBuilder {
	b.request.Quality = quality

	return b
}

func (b ImageBuilder) Style(style string) ImageBuilder {
	b.request.Style = style

	return b
}

func (b ImageBuilder) ResponseFormat(format string) ImageBuilder {
	b.request.ResponseFormat = format

	return b
}

func (b ImageBuilder) Build() (ImageGenerationRequest, error) {
	if err := b.request.Validate(); err != nil {
		return ImageGenerationRequest{}, err
	}

	return b.request, nil
}

type Images struct {
	Created int64 `json:"created"`
	Data    []struct {
		URL           string `json:"url,omitempty"`
		B64JSON       string `json:"b64_json,omitempty"`
		RevisedPrompt string `json:"revised_prompt,omitempty"`
	} `json:"data"`
}

func (c Client) GenerateImages(ctx context.Context, request ImageGenerationRequest) (Images, error) {
	if err := request.Validate(); err != nil {
		return Images{}, fmt.Errorf("generate images: %w", err)
	}
	images, err := httpclient.Post[Images](ctx, "/images/generations", request, c...)
	if err != nil {
		return Images{}, fmt.Errorf("generate images: %w", err)
	}

	return images, nil
}
