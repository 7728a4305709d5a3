// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"sort"
)

// Form is a multipart/form-data body with a single file part.
type Form struct {
	Fields   map[string]string
	FileName string
	File     io.Reader
}

// Encode writes the form and returns the body with its content type.
func (f Form) Encode() (*bytes.Buffer, string, error) {
	buf := new(bytes.Buffer)
	writer := multipart.NewWriter(buf)

	keys := make([]string, 0, len(f.Fields))
	for key := range f.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := writer.WriteField(key, f.Fields[key]); err != nil {
			return nil, "", fmt.Errorf("write %s field: %w", key, err)
		}
	}

	part, err := writer.CreateFormFile("file", f.FileName)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f.File); err != nil {
		return nil, "", fmt.Errorf("copy content to form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return buf, writer.FormDataContentType(), nil
}
