// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package openai

import (
	"context"
	"fmt"

	"github.com/ktong/openai/internal/httpclient"
)

type Model struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

func (c Client) ListModels(ctx context.Context) ([]Model, error) {
	models, err := httpclient.Get[List[Model]](ctx, "/models", c...)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}

	return models.Data, nil
}

func (c Client) RetrieveModel(ctx context.Context, id string) (Model, error) {
	model, err := httpclient.Get[Model](ctx, "/models/"+id, c...)
	if err != nil {
		return Model{}, fmt.Errorf("retrieve model: %w", err)
	}

	return model, nil
}

// DeleteModel deletes a fine-tuned model owned by the organization.
func (c Client) DeleteModel(ctx context.Context, id string) (DeletionStatus, error) {
	status, err := httpclient.Delete[DeletionStatus](ctx, "/models/"+id, c...)
	if err != nil {
		return DeletionStatus{}, fmt.Errorf("delete model: %w", err)
	}

	return status, nil
}
