// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

// Package openai provides typed Go bindings over the OpenAI HTTP API.
//
// Requests are built with value-semantics builders that validate documented bounds
// before anything is sent:
//
//	req, err := openai.NewAssistantBuilder().
//		Model("gpt-4o").
//		Name("Analyst").
//		MetadataPair("team", "security").
//		Build()
//
// A Client is a list of transport options. It carries no state and is safe for concurrent use.
package openai

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v9"

	"github.com/ktong/openai/internal/httpclient"
)

const DefaultBaseURL = "https://api.openai.com/v1"

var ErrMissingAPIKey = errors.New("missing API key: set OPENAI_API_KEY or Config.APIKey")

// Config holds the connection settings, usually loaded from the environment.
type Config struct {
	APIKey       string        `env:"OPENAI_API_KEY"`
	BaseURL      string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	Organization string        `env:"OPENAI_ORGANIZATION"`
	Project      string        `env:"OPENAI_PROJECT"`
	// Timeout bounds each request. Streams and file downloads are bounded by the context instead.
	Timeout      time.Duration `env:"OPENAI_TIMEOUT" envDefault:"60s"`
}

// ConfigFromEnv reads the OPENAI_* environment variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.BaseURL != "" {
		if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
			return fmt.Errorf("invalid base URL %q: %w", c.BaseURL, err)
		}
	}
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}

	return nil
}

// Options converts the config into transport options.
func (c Config) Options() []Option {
	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	opts := []Option{
		WithBaseURL(baseURL),
		WithHeader("OpenAI-Beta", "assistants=v2"),
	}
	if c.APIKey != "" {
		opts = append(opts, WithAPIKey(c.APIKey))
	}
	if c.Organization != "" {
		opts = append(opts, WithOrganization(c.Organization))
	}
	if c.Project != "" {
		opts = append(opts, WithProject(c.Project))
	}
	if c.Timeout > 0 {
		opts = append(opts, WithTimeout(c.Timeout))
	}

	return opts
}

type Client []httpclient.Option

// New creates a client from the environment. Options override the environment.
func New(opts ...Option) (Client, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}

	return NewWithConfig(cfg, opts...)
}

// NewWithConfig creates a client from cfg. The API key may instead come from an Authorization header option.
func NewWithConfig(cfg Config, opts ...Option) (Client, error) {
	if err := cfg.Validate(); err != nil {
		if !errors.Is(err, ErrMissingAPIKey) || httpclient.Header(opts, "Authorization") == "" {
			return nil, err
		}
	}

	return append(Client(cfg.Options()), opts...), nil
}

// with returns a copy of the client with extra per-call options.
func (c Client) with(opts ...Option) []Option {
	return append(c[:len(c):len(c)], opts...)
}
