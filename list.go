// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package openai

import (
	"strconv"

	"github.com/ktong/openai/internal/httpclient"
	"github.com/ktong/openai/internal/validate"
)

type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

const (
	minListLimit = 1
	maxListLimit = 100
)

// ListParams controls cursor pagination. The zero value uses the API defaults.
type ListParams struct {
	// Limit is clamped into 1..100. Zero leaves it to the API.
	Limit  int
	Order  Order
	After  string
	Before string
}

func (p ListParams) options() ([]Option, error) {
	if err := validate.OneOf("order", p.Order, OrderAsc, OrderDesc); err != nil {
		return nil, err
	}

	opts := []Option{
		httpclient.WithQuery("order", string(p.Order)),
		httpclient.WithQuery("after", p.After),
		httpclient.WithQuery("before", p.Before),
	}
	if p.Limit != 0 {
		opts = append(opts, httpclient.WithQuery("limit", strconv.Itoa(min(max(p.Limit, minListLimit), maxListLimit))))
	}

	return opts, nil
}

// List is one page of a paginated collection.
type List[T any] struct {
	Object  string `json:"object"`
	Data    []T    `json:"data"`
	FirstID string `json:"first_id,omitempty"`
	LastID  string `json:"last_id,omitempty"`
	HasMore bool   `json:"has_more"`
}

// Next returns the params for the page after this one, and false on the last page.
func (l List[T]) Next(params ListParams) (ListParams, bool) {
	if !l.HasMore || l.LastID == "" {
		return params, false
	}
	params.After = l.LastID
	params.Before = ""

	return params, true
}

// DeletionStatus is returned by every delete endpoint.
type DeletionStatus struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}
