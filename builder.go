// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package openai

import (
	"maps"
	"slices"
)

// Builders are plain values: every setter works on a copy and returns it.
// Slices and maps are never shared between two builders, so a common prefix
// can be reused to derive several requests.

func appendCopy[T any](s []T, values ...T) []T {
	return append(slices.Clip(s), values...)
}

func putCopy(m map[string]string, key, value string) map[string]string {
	cloned := make(map[string]string, len(m)+1)
	maps.Copy(cloned, m)
	cloned[key] = value

	return cloned
}

func ptr[T any](v T) *T {
	return &v
}
