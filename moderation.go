// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package openai

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/ktong/openai/internal/httpclient"
	"github.com/ktong/openai/internal/validate"
)

type ModerationRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model,omitempty"`
}

func (r ModerationRequest) Validate() error {
	return validate.RequiredItems("input", len(r.Input))
}

type Moderation struct {
	ID      string             `json:"id"`
	Model   string             `json:"model"`
	Results []ModerationResult `json:"results"`
}

type ModerationResult struct {
	Flagged        bool               `json:"flagged"`
	Categories     map[string]bool    `json:"categories"`
	CategoryScores map[string]float64 `json:"category_scores"`
}

// FlaggedCategories returns the flagged categories in name order.
func (r ModerationResult) FlaggedCategories() []string {
	var flagged []string
	for _, category := range slices.Sorted(maps.Keys(r.Categories)) {
		if r.Categories[category] {
			flagged = append(flagged, category)
		}
	}

	return flagged
}

// Flagged reports whether any input was flagged.
func (m Moderation) Flagged() bool {
	return slices.ContainsFunc(m.Results, func(result ModerationResult) bool {
		return result.Flagged
	})
}

func (c Client) CreateModeration(ctx context.Context, request ModerationRequest) (Moderation, error) {
	if err := request.Validate(); err != nil {
		return Moderation{}, fmt.Errorf("create moderation: %w", err)
	}
	moderation, err := httpclient.Post[Moderation](ctx, "/moderations", request, c...)
	if err != nil {
		return Moderation{}, fmt.Errorf("create moderation: %w", err)
	}

	return moderation, nil
}
