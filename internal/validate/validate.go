// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

// Package validate holds the error type and bound checks used by request builders.
//
// Every check returns nil or a *Error, so callers can chain them with First and stop at the first violation.
package validate

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"unicode/utf8"
)

type Kind int

const (
	MissingField Kind = iota + 1
	ConstraintViolated
)

func (k Kind) String() string {
	switch k {
	case MissingField:
		return "missing field"
	case ConstraintViolated:
		return "constraint violated"
	default:
		return "unknown"
	}
}

var (
	ErrMissingField       = errors.New("missing required field")
	ErrConstraintViolated = errors.New("constraint violated")
)

// Error describes the first violated rule of a request.
type Error struct {
	Kind   Kind
	Field  string
	Reason string
}

func (e *Error) Error() string {
	if e.Kind == MissingField {
		return e.Field + " is required"
	}

	return e.Reason
}

// Is reports whether target is the sentinel for the error kind.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case MissingField:
		return target == ErrMissingField
	case ConstraintViolated:
		return target == ErrConstraintViolated
	default:
		return false
	}
}

func Missing(field string) *Error {
	return &Error{Kind: MissingField, Field: field}
}

func Violated(field, format string, args ...any) *Error {
	return &Error{Kind: ConstraintViolated, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Nested qualifies an error from a nested request, e.g. the third message of a thread.
func Nested(prefix string, err error) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	nested := *e
	nested.Field = prefix + "." + e.Field
	if nested.Kind == ConstraintViolated {
		nested.Reason = prefix + ": " + e.Reason
	}

	return &nested
}

// First returns the first non-nil error.
func First(checks ...error) error {
	for _, err := range checks {
		if err != nil {
			return err
		}
	}

	return nil
}

// Required fails when value is empty.
func Required(field, value string) error {
	if value == "" {
		return Missing(field)
	}

	return nil
}

// RequiredItems fails when the collection is empty.
func RequiredItems(field string, n int) error {
	if n == 0 {
		return Missing(field)
	}

	return nil
}

// MaxLen counts runes, matching how the API counts characters.
func MaxLen(label, field, value string, limit int) error {
	if utf8.RuneCountInString(value) > limit {
		return Violated(field, "%s cannot exceed %d characters", label, limit)
	}

	return nil
}

func MaxItems(label, field string, n, limit int, noun string) error {
	if n > limit {
		return Violated(field, "%s cannot have more than %d %s", label, limit, noun)
	}

	return nil
}

type number interface {
	~int | ~int64 | ~float32 | ~float64
}

// Range checks an optional value against an inclusive interval.
func Range[T number](field string, value *T, low, high T) error {
	if value == nil {
		return nil
	}
	if *value < low || *value > high {
		return Violated(field, "%s must be between %v and %v", field, low, high)
	}

	return nil
}

// Min checks an optional value against an inclusive lower bound.
func Min[T number](field string, value *T, low T) error {
	if value == nil {
		return nil
	}
	if *value < low {
		return Violated(field, "%s must be at least %v", field, low)
	}

	return nil
}

// OneOf checks an optional enum value.
func OneOf[T ~string](field string, value T, allowed ...T) error {
	if value == "" {
		return nil
	}
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}

	return Violated(field, "%s must be one of %v", field, allowed)
}

const (
	MaxMetadataPairs       = 16
	MaxMetadataKeyLength   = 64
	MaxMetadataValueLength = 512
)

// Metadata checks the pair count first, then every key and value in key order.
// The label prefixes the pair count message, e.g. "Assistant".
func Metadata(label string, metadata map[string]string) error {
	if len(metadata) > MaxMetadataPairs {
		return Violated("metadata", "%s cannot have more than %d metadata pairs", label, MaxMetadataPairs)
	}
	for _, key := range slices.Sorted(maps.Keys(metadata)) {
		value := metadata[key]
		if utf8.RuneCountInString(key) > MaxMetadataKeyLength {
			return Violated("metadata", "Metadata key cannot exceed %d characters", MaxMetadataKeyLength)
		}
		if utf8.RuneCountInString(value) > MaxMetadataValueLength {
			return Violated("metadata", "Metadata value cannot exceed %d characters", MaxMetadataValueLength)
		}
	}

	return nil
}
