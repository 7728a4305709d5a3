// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// StatusError is returned for any non-2xx response.
// Type, Param and ErrCode are filled from OpenAI's error envelope when the body carries one.
type StatusError struct {
	Code    int
	Message string
	Type    string
	Param   string
	ErrCode string
}

func (s *StatusError) Error() string {
	message := s.Message
	if message == "" {
		message = http.StatusText(s.Code)
	}

	return fmt.Sprintf("[%d] %s", s.Code, message)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusBadRequest {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)

	statusErr := &StatusError{Code: resp.StatusCode, Message: string(bytes.TrimSpace(body))}
	var envelope struct {
		Error *struct {
			Message string  `json:"message"`
			Type    string  `json:"type"`
			Param   *string `json:"param"`
			Code    any     `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		statusErr.Message = envelope.Error.Message
		statusErr.Type = envelope.Error.Type
		if envelope.Error.Param != nil {
			statusErr.Param = *envelope.Error.Param
		}
		switch code := envelope.Error.Code.(type) {
		case string:
			statusErr.ErrCode = code
		case float64:
			statusErr.ErrCode = strconv.FormatFloat(code, 'f', -1, 64)
		}
	}

	return statusErr
}
