// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package openai

import (
	"github.com/ktong/openai/internal/httpclient"
)

type Option = httpclient.Option

//nolint:gochecknoglobals
var (
	WithHTTPClient = httpclient.WithHTTPClient
	WithBaseURL    = httpclient.WithBaseURL
	WithHeader     = httpclient.WithHeader
	WithTimeout    = httpclient.WithTimeout

	WithStreamTimeout = httpclient.WithStreamTimeout
)

func WithAPIKey(key string) Option {
	return httpclient.WithHeader("Authorization", "Bearer "+key)
}

func WithOrganization(organization string) Option {
	return httpclient.WithHeader("OpenAI-Organization", organization)
}

func WithProject(project string) Option {
	return httpclient.WithHeader("OpenAI-Project", project)
}
