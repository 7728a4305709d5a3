// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package openai

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ktong/openai/internal/httpclient"
	"github.com/ktong/openai/internal/validate"
)

type FilePurpose string

const (
	PurposeAssistants FilePurpose = "assistants"
	PurposeBatch      FilePurpose = "batch"
	PurposeFineTune   FilePurpose = "fine-tune"
	PurposeVision     FilePurpose = "vision"
	PurposeUserData   FilePurpose = "user_data"
)

// MaxFileSize is the largest file the API accepts.
const MaxFileSize = 512 << 20

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

type File struct {
	ID        string      `json:"id"`
	Object    string      `json:"object"`
	Bytes     int64       `json:"bytes"`
	CreatedAt int64       `json:"created_at"`
	Filename  string      `json:"filename"`
	Purpose   FilePurpose `json:"purpose"`
	Status    string      `json:"status,omitempty"`
}

type FileUploadRequest struct {
	File     []byte
	Filename string
	Purpose  FilePurpose
}

// FileUploadFromPath reads the file at path and names the upload after it.
func FileUploadFromPath(path string, purpose FilePurpose) (FileUploadRequest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return FileUploadRequest{}, fmt.Errorf("read upload file: %w", err)
	}

	return FileUploadRequest{File: content, Filename: filepath.Base(path), Purpose: purpose}, nil
}

// Validate checks content, filename, size and then the extension the purpose requires.
func (r FileUploadRequest) Validate() error {
	if len(r.File) == 0 {
		return validate.Violated("file", "File cannot be empty")
	}
	if r.Filename == "" {
		return validate.Violated("filename", "Filename cannot be empty")
	}
	if len(r.File) > MaxFileSize {
		return validate.Violated("file", "File size %d exceeds maximum limit of %d bytes", len(r.File), MaxFileSize)
	}

	name := strings.ToLower(r.Filename)
	switch r.Purpose {
	case PurposeFineTune:
		if !strings.HasSuffix(name, ".jsonl") {
			return validate.Violated("filename", "Fine-tuning files must be in JSONL format")
		}
	case PurposeBatch:
		if !strings.HasSuffix(name, ".jsonl") {
			return validate.Violated("filename", "Batch files must be in JSONL format")
		}
	case PurposeVision:
		if !slices.Contains(imageExtensions, filepath.Ext(name)) {
			return validate.Violated("filename", "Vision files must be images (PNG, JPG, JPEG, GIF, WebP)")
		}
	}

	return validate.Required("purpose", string(r.Purpose))
}

func (c Client) UploadFile(ctx context.Context, request FileUploadRequest) (File, error) {
	if err := request.Validate(); err != nil {
		return File{}, fmt.Errorf("upload file: %w", err)
	}

	body, contentType, err := httpclient.Form{
		Fields:   map[string]string{"purpose": string(request.Purpose)},
		FileName: request.Filename,
		File:     bytes.NewReader(request.File),
	}.Encode()
	if err != nil {
		return File{}, fmt.Errorf("upload file: %w", err)
	}

	file, err := httpclient.Post[File](ctx, "/files", body, c.with(httpclient.WithHeader("Content-Type", contentType))...)
	if err != nil {
		return File{}, fmt.Errorf("upload file: %w", err)
	}

	return file, nil
}

func (c Client) RetrieveFile(ctx context.Context, id string) (File, error) {
	file, err := httpclient.Get[File](ctx, "/files/"+id, c...)
	if err != nil {
		return File{}, fmt.Errorf("retrieve file: %w", err)
	}

	return file, nil
}

// ListFiles lists uploaded files, only those with the given purpose when it is not empty.
func (c Client) ListFiles(ctx context.Context, purpose FilePurpose) ([]File, error) {
	files, err := httpclient.Get[List[File]](ctx, "/files", c.with(httpclient.WithQuery("purpose", string(purpose)))...)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	return files.Data, nil
}

func (c Client) DeleteFile(ctx context.Context, id string) (DeletionStatus, error) {
	status, err := httpclient.Delete[DeletionStatus](ctx, "/files/"+id, c...)
	if err != nil {
		return DeletionStatus{}, fmt.Errorf("delete file: %w", err)
	}

	return status, nil
}

// FileContent downloads the content of a file. The client timeout does not apply, batch outputs can be large.
func (c Client) FileContent(ctx context.Context, id string) ([]byte, error) {
	content, err := httpclient.Get[[]byte](ctx, "/files/"+id+"/content", c.with(httpclient.WithoutTimeout())...)
	if err != nil {
		return nil, fmt.Errorf("retrieve file content: %w", err)
	}

	return content, nil
}
