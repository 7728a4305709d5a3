// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package httpclient

import (
	"net"
	"net/http"
	"net/url"
	"time"
)

func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.client = client
	}
}

func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = baseURL
	}
}

func WithHeader(key, value string) Option {
	return func(o *options) {
		o.headers[key] = value
	}
}

// WithQuery adds a query parameter. Empty values are skipped.
func WithQuery(key, value string) Option {
	return func(o *options) {
		if value == "" {
			return
		}
		o.query.Add(key, value)
	}
}

// WithTimeout overrides the timeout of the underlying http.Client for one call.
// Streams ignore it, see WithStreamTimeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithStreamTimeout bounds a whole event stream. Without it streams live as long as the context allows.
func WithStreamTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.streamTimeout = timeout
	}
}

// WithoutTimeout lifts the http.Client timeout for one call, e.g. a large download.
func WithoutTimeout() Option {
	return func(o *options) {
		o.timeout = noTimeout
	}
}

const noTimeout time.Duration = -1

type (
	// Option configures the httpclient request.
	Option  func(*options)
	options struct {
		client  *http.Client
		baseURL string
		headers map[string]string
		query   url.Values
		timeout time.Duration

		streamTimeout time.Duration
	}
)

// Header returns the value opts set for the header key.
func Header(opts []Option, key string) string {
	return apply(opts).headers[key]
}

func apply(opts []Option) options {
	option := options{
		client:  defaultClient,
		headers: map[string]string{},
		query:   url.Values{},
	}
	for _, opt := range opts {
		opt(&option)
	}

	return option
}

var defaultClient = &http.Client{
	Timeout: 60 * time.Second, //nolint:mnd
	Transport: &http.Transport{
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second}).DialContext, //nolint:mnd
		TLSHandshakeTimeout: 5 * time.Second,                                     //nolint:mnd
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        100, //nolint:mnd
		MaxIdleConnsPerHost: 100, //nolint:mnd
	},
}
