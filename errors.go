// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package openai

import (
	"errors"
	"net/http"

	"github.com/ktong/openai/internal/httpclient"
	"github.com/ktong/openai/internal/validate"
)

type (
	// StatusError is returned when the API answers with a non-2xx status.
	StatusError = httpclient.StatusError
	// ValidationError is returned by Build and Validate. Kind tells a missing field from a violated bound.
	ValidationError = validate.Error
	ValidationKind  = validate.Kind
)

const (
	MissingField       = validate.MissingField
	ConstraintViolated = validate.ConstraintViolated
)

//nolint:gochecknoglobals
var (
	ErrMissingField       = validate.ErrMissingField
	ErrConstraintViolated = validate.ErrConstraintViolated
)

func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

func IsRateLimited(err error) bool {
	return hasStatus(err, http.StatusTooManyRequests)
}

func IsAuthentication(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

func hasStatus(err error, code int) bool {
	var status *StatusError

	return errors.As(err, &status) && status.Code == code
}
