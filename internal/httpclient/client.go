// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

//nolint:ireturn,wrapcheck
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

func Get[R any](ctx context.Context, path string, opts ...Option) (R, error) {
	var response R
	resp, err := send(ctx, http.MethodGet, path, nil, apply(opts))
	if err != nil {
		return response, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if err = unmarshalResponse(resp, &response); err != nil {
		return response, err
	}

	return response, nil
}

func Post[R any](ctx context.Context, path string, request any, opts ...Option) (R, error) {
	var response R
	resp, err := send(ctx, http.MethodPost, path, request, apply(opts))
	if err != nil {
		return response, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if err = unmarshalResponse(resp, &response); err != nil {
		return response, err
	}

	return response, nil
}

func Delete[R any](ctx context.Context, path string, opts ...Option) (R, error) {
	var response R
	resp, err := send(ctx, http.MethodDelete, path, nil, apply(opts))
	if err != nil {
		return response, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if err = unmarshalResponse(resp, &response); err != nil {
		return response, err
	}

	return response, nil
}

// send issues the request and returns the response once its status is known to be successful.
// The caller owns the response body.
func send(ctx context.Context, method, path string, request any, options options) (*http.Response, error) {
	endpoint, err := url.JoinPath(options.baseURL, path)
	if err != nil {
		return nil, err
	}
	if len(options.query) > 0 {
		endpoint += "?" + options.query.Encode()
	}

	var body io.Reader
	contentType := ""
	if request != nil {
		if body, contentType, err = marshalRequest(request); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range options.headers {
		req.Header.Set(k, v)
	}

	client := options.client
	if options.timeout != 0 {
		withTimeout := *client
		withTimeout.Timeout = max(options.timeout, 0)
		client = &withTimeout
	}

	logger := zerolog.Ctx(ctx)
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		logger.Debug().Err(err).Str("method", method).Str("path", req.URL.Path).Msg("openai request failed")

		return nil, err
	}
	logger.Debug().
		Str("method", method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("openai request")

	if err = checkStatus(resp); err != nil {
		_ = resp.Body.Close()

		return nil, err
	}

	return resp, nil
}

func marshalRequest(request any) (io.Reader, string, error) {
	switch value := request.(type) {
	case io.Reader:
		return value, "", nil
	case string:
		return strings.NewReader(value), "", nil
	case []byte:
		return bytes.NewReader(value), "", nil
	default:
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(value); err != nil {
			return nil, "", err
		}

		return buf, "application/json", nil
	}
}

func unmarshalResponse(resp *http.Response, response any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	switch value := response.(type) {
	case *io.Reader:
		*value = bytes.NewReader(body)
	case *[]byte:
		*value = body
	case *string:
		*value = string(body)
	default:
		if err := json.Unmarshal(body, value); err != nil {
			return err
		}
	}

	return nil
}
