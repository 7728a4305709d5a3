// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package openai

import (
	"context"
	"fmt"

	"github.com/ktong/openai/internal/httpclient"
	"github.com/ktong/openai/internal/validate"
)

const (
	MaxVectorStoreNameLength = 256
	MaxVectorStoreFileIDs    = 500
	minExpiresAfterDays      = 1
	maxExpiresAfterDays      = 365
	minChunkSizeTokens       = 100
	maxChunkSizeTokens       = 4096
)

type VectorStore struct {
	ID           string            `json:"id"`
	Object       string            `json:"object"`
	CreatedAt    int64             `json:"created_at"`
	Name         string            `json:"name"`
	UsageBytes   int64             `json:"usage_bytes"`
	FileCounts   FileCounts        `json:"file_counts"`
	Status       string            `json:"status"`
	ExpiresAfter *ExpiresAfter     `json:"expires_after,omitempty"`
	ExpiresAt    *int64            `json:"expires_at,omitempty"`
	LastActiveAt *int64            `json:"last_active_at,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

type FileCounts struct {
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Cancelled  int `json:"cancelled"`
	Total      int `json:"total"`
}

// ExpiresAfter expires a vector store a number of days after it was last active.
type ExpiresAfter struct {
	Anchor string `json:"anchor"`
	Days   int    `json:"days"`
}

// ChunkingStrategy is "auto" or "static". Static is nil for auto.
type ChunkingStrategy struct {
	Type   string          `json:"type"`
	Static *StaticChunking `json:"static,omitempty"`
}

type StaticChunking struct {
	MaxChunkSizeTokens int `json:"max_chunk_size_tokens"`
	ChunkOverlapTokens int `json:"chunk_overlap_tokens"`
}

func AutoChunking() ChunkingStrategy {
	return ChunkingStrategy{Type: "auto"}
}

func StaticChunkingStrategy(maxChunkSizeTokens, chunkOverlapTokens int) ChunkingStrategy {
	return ChunkingStrategy{
		Type: "static",
		Static: &StaticChunking{
			MaxChunkSizeTokens: maxChunkSizeTokens,
			ChunkOverlapTokens: chunkOverlapTokens,
		},
	}
}

func (s *ChunkingStrategy) validate() error {
	if s == nil {
		return nil
	}
	if err := validate.OneOf("chunking_strategy.type", s.Type, "auto", "static"); err != nil {
		return err
	}
	if s.Type != "static" {
		return nil
	}
	if s.Static == nil {
		return validate.Missing("chunking_strategy.static")
	}
	size := s.Static.MaxChunkSizeTokens
	if size < minChunkSizeTokens || size > maxChunkSizeTokens {
		return validate.Violated("chunking_strategy.static.max_chunk_size_tokens",
			"max_chunk_size_tokens must be between %d and %d", minChunkSizeTokens, maxChunkSizeTokens)
	}
	if overlap := s.Static.ChunkOverlapTokens; overlap < 0 || overlap > size/2 {
		return validate.Violated("chunking_strategy.static.chunk_overlap_tokens",
			"chunk_overlap_tokens must not exceed half of max_chunk_size_tokens")
	}

	return nil
}

type VectorStoreRequest struct {
	Name             *string           `json:"name,omitempty"`
	FileIDs          []string          `json:"file_ids,omitempty"`
	ExpiresAfter     *ExpiresAfter     `json:"expires_after,omitempty"`
	ChunkingStrategy *ChunkingStrategy `json:"chunking_strategy,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// Validate checks name, file IDs, metadata, expiration and then the chunking strategy.
// No field is required.
func (r VectorStoreRequest) Validate() error {
	return validate.First(
		validate.MaxLen("Vector store name", "name", deref(r.Name), MaxVectorStoreNameLength),
		validate.MaxItems("Vector store", "file_ids", len(r.FileIDs), MaxVectorStoreFileIDs, "file IDs"),
		validate.Metadata("Vector store", r.Metadata),
		func() error {
			if r.ExpiresAfter == nil {
				return nil
			}

			return validate.Range("expires_after.days", &r.ExpiresAfter.Days, minExpiresAfterDays, maxExpiresAfterDays)
		}(),
		r.ChunkingStrategy.validate(),
	)
}

type VectorStoreBuilder struct {
	request VectorStoreRequest
}

func NewVectorStoreBuilder() VectorStoreBuilder {
	return VectorStoreBuilder{}
}

func (b VectorStoreBuilder) Name(name string) VectorStoreBuilder {
	b.request.Name = &name

	return b
}

func (b VectorStoreBuilder) FileID(ids ...string) VectorStoreBuilder {
	b.request.FileIDs = appendCopy(b.request.FileIDs, ids...)

	return b
}

// ExpiresAfterDays expires the store the given number of days after its last activity.
func (b VectorStoreBuilder) ExpiresAfterDays(days int) VectorStoreBuilder {
	b.request.ExpiresAfter = &ExpiresAfter{Anchor: "last_active_at", Days: days}

	return b
}

func (b VectorStoreBuilder) ChunkingStrategy(strategy ChunkingStrategy) VectorStoreBuilder {
	b.request.ChunkingStrategy = &strategy

	return b
}

func (b VectorStoreBuilder) MetadataPair(key, value string) VectorStoreBuilder {
	b.request.Metadata = putCopy(b.request.Metadata, key, value)

	return b
}

func (b VectorStoreBuilder) Build() (VectorStoreRequest, error) {
	if err := b.request.Validate(); err != nil {
		return VectorStoreRequest{}, err
	}

	return b.request, nil
}

func (c Client) CreateVectorStore(ctx context.Context, request VectorStoreRequest) (VectorStore, error) {
	if err := request.Validate(); err != nil {
		return VectorStore{}, fmt.Errorf("create vector store: %w", err)
	}
	store, err := httpclient.Post[VectorStore](ctx, "/vector_stores", request, c...)
	if err != nil {
		return VectorStore{}, fmt.Errorf("create vector store: %w", err)
	}

	return store, nil
}

func (c Client) RetrieveVectorStore(ctx context.Context, id string) (VectorStore, error) {
	store, err := httpclient.Get[VectorStore](ctx, "/vector_stores/"+id, c...)
	if err != nil {
		return VectorStore{}, fmt.Errorf("retrieve vector store: %w", err)
	}

	return store, nil
}

// ModifyVectorStore updates name, expiration and metadata. File IDs and chunking are not modifiable.
func (c Client) ModifyVectorStore(ctx context.Context, id string, request VectorStoreRequest) (VectorStore, error) {
	if err := request.Validate(); err != nil {
		return VectorStore{}, fmt.Errorf("modify vector store: %w", err)
	}
	request.FileIDs = nil
	request.ChunkingStrategy = nil
	store, err := httpclient.Post[VectorStore](ctx, "/vector_stores/"+id, request, c...)
	if err != nil {
		return VectorStore{}, fmt.Errorf("modify vector store: %w", err)
	}

	return store, nil
}

func (c Client) DeleteVectorStore(ctx context.Context, id string) (DeletionStatus, error) {
	status, err := httpclient.Delete[DeletionStatus](ctx, "/vector_stores/"+id, c...)
	if err != nil {
		return DeletionStatus{}, fmt.Errorf("delete vector store: %w", err)
	}

	return status, nil
}

func (c Client) ListVectorStores(ctx context.Context, params ListParams) (List[VectorStore], error) {
	opts, err := params.options()
	if err != nil {
		return List[VectorStore]{}, fmt.Errorf("list vector stores: %w", err)
	}
	stores, err := httpclient.Get[List[VectorStore]](ctx, "/vector_stores", c.with(opts...)...)
	if err != nil {
		return List[VectorStore]{}, fmt.Errorf("list vector stores: %w", err)
	}

	return stores, nil
}

type VectorStoreFile struct {
	ID            string `json:"id"`
	Object        string `json:"object"`
	UsageBytes    int64  `json:"usage_bytes"`
	CreatedAt     int64  `json:"created_at"`
	VectorStoreID string `json:"vector_store_id"`
	Status        string `json:"status"`
	LastError     *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_error,omitempty"`
	ChunkingStrategy *ChunkingStrategy `json:"chunking_strategy,omitempty"`
}

// AddVectorStoreFile attaches an uploaded file to a vector store. A nil strategy uses auto chunking.
func (c Client) AddVectorStoreFile(
	ctx context.Context,
	storeID, fileID string,
	strategy *ChunkingStrategy,
) (VectorStoreFile, error) {
	if err := validate.First(
		validate.Required("file_id", fileID),
		strategy.validate(),
	); err != nil {
		return VectorStoreFile{}, fmt.Errorf("add vector store file: %w", err)
	}
	request := struct {
		FileID           string            `json:"file_id"`
		ChunkingStrategy *ChunkingStrategy `json:"chunking_strategy,omitempty"`
	}{FileID: fileID, ChunkingStrategy: strategy}
	file, err := httpclient.Post[VectorStoreFile](ctx, "/vector_stores/"+storeID+"/files", request, c...)
	if err != nil {
		return VectorStoreFile{}, fmt.Errorf("add vector store file: %w", err)
	}

	return file, nil
}

// ListVectorStoreFiles lists the files of a store, optionally filtered by status
// (in_progress, completed, failed or cancelled).
func (c Client) ListVectorStoreFiles(
	ctx context.Context,
	storeID string,
	params ListParams,
	status string,
) (List[VectorStoreFile], error) {
	opts, err := params.options()
	if err != nil {
		return List[VectorStoreFile]{}, fmt.Errorf("list vector store files: %w", err)
	}
	opts = append(opts, httpclient.WithQuery("filter", status))
	files, err := httpclient.Get[List[VectorStoreFile]](ctx, "/vector_stores/"+storeID+"/files", c.with(opts...)...)
	if err != nil {
		return List[VectorStoreFile]{}, fmt.Errorf("list vector store files: %w", err)
	}

	return files, nil
}

func (c Client) DeleteVectorStoreFile(ctx context.Context, storeID, fileID string) (DeletionStatus, error) {
	status, err := httpclient.Delete[DeletionStatus](ctx, "/vector_stores/"+storeID+"/files/"+fileID, c...)
	if err != nil {
		return DeletionStatus{}, fmt.Errorf("delete vector store file: %w", err)
	}

	return status, nil
}
