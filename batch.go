// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/ktong/openai/internal/httpclient"
	"github.com/ktong/openai/internal/validate"
	"github.com/ktong/openai/report"
)

type BatchStatus string

const (
	BatchValidating BatchStatus = "validating"
	BatchFailed     BatchStatus = "failed"
	BatchInProgress BatchStatus = "in_progress"
	BatchFinalizing BatchStatus = "finalizing"
	BatchCompleted  BatchStatus = "completed"
	BatchExpired    BatchStatus = "expired"
	BatchCancelling BatchStatus = "cancelling"
	BatchCancelled  BatchStatus = "cancelled"
)

func (s BatchStatus) Terminal() bool {
	switch s {
	case BatchCompleted, BatchFailed, BatchExpired, BatchCancelled:
		return true
	default:
		return false
	}
}

type BatchEndpoint string

const (
	EndpointChatCompletions BatchEndpoint = "/v1/chat/completions"
	EndpointEmbeddings      BatchEndpoint = "/v1/embeddings"
	EndpointCompletions     BatchEndpoint = "/v1/completions"
	EndpointResponses       BatchEndpoint = "/v1/responses"
)

// CompletionWindow is the only completion window the API offers.
const CompletionWindow = "24h"

type Batch struct {
	ID               string        `json:"id"`
	Object           string        `json:"object"`
	Endpoint         BatchEndpoint `json:"endpoint"`
	InputFileID      string        `json:"input_file_id"`
	CompletionWindow string        `json:"completion_window"`
	Status           BatchStatus   `json:"status"`
	OutputFileID     string        `json:"output_file_id,omitempty"`
	ErrorFileID      string        `json:"error_file_id,omitempty"`
	Errors           *struct {
		Data []struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Line    *int   `json:"line,omitempty"`
		} `json:"data"`
	} `json:"errors,omitempty"`
	CreatedAt     int64             `json:"created_at"`
	InProgressAt  *int64            `json:"in_progress_at,omitempty"`
	ExpiresAt     *int64            `json:"expires_at,omitempty"`
	CompletedAt   *int64            `json:"completed_at,omitempty"`
	FailedAt      *int64            `json:"failed_at,omitempty"`
	CancelledAt   *int64            `json:"cancelled_at,omitempty"`
	RequestCounts RequestCounts     `json:"request_counts"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

type RequestCounts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

type BatchRequest struct {
	InputFileID      string            `json:"input_file_id"`
	Endpoint         BatchEndpoint     `json:"endpoint"`
	CompletionWindow string            `json:"completion_window"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// Validate checks input_file_id, endpoint, completion window and then metadata.
func (r BatchRequest) Validate() error {
	return validate.First(
		validate.Required("input_file_id", r.InputFileID),
		validate.Required("endpoint", string(r.Endpoint)),
		validate.OneOf("endpoint", r.Endpoint,
			EndpointChatCompletions, EndpointEmbeddings, EndpointCompletions, EndpointResponses),
		validate.OneOf("completion_window", r.CompletionWindow, CompletionWindow),
		validate.Metadata("Batch", r.Metadata),
	)
}

type BatchBuilder struct {
	request BatchRequest
}

func NewBatchBuilder() BatchBuilder {
	return BatchBuilder{request: BatchRequest{CompletionWindow: CompletionWindow}}
}

func (b BatchBuilder) InputFileID(id string) BatchBuilder {
	b.request.InputFileID = id

	return b
}

func (b BatchBuilder) Endpoint(endpoint BatchEndpoint) BatchBuilder {
	b.request.Endpoint = endpoint

	return b
}

func (b BatchBuilder) CompletionWindow(window string) BatchBuilder {
	b.request.CompletionWindow = window

	return b
}

func (b BatchBuilder) MetadataPair(key, value string) BatchBuilder {
	b.request.Metadata = putCopy(b.request.Metadata, key, value)

	return b
}

func (b BatchBuilder) Build() (BatchRequest, error) {
	if err := b.request.Validate(); err != nil {
		return BatchRequest{}, err
	}

	return b.request, nil
}

func (c Client) CreateBatch(ctx context.Context, request BatchRequest) (Batch, error) {
	if request.CompletionWindow == "" {
		request.CompletionWindow = CompletionWindow
	}
	if err := request.Validate(); err != nil {
		return Batch{}, fmt.Errorf("create batch: %w", err)
	}
	batch, err := httpclient.Post[Batch](ctx, "/batches", request, c...)
	if err != nil {
		return Batch{}, fmt.Errorf("create batch: %w", err)
	}

	return batch, nil
}

func (c Client) RetrieveBatch(ctx context.Context, id string) (Batch, error) {
	batch, err := httpclient.Get[Batch](ctx, "/batches/"+id, c...)
	if err != nil {
		return Batch{}, fmt.Errorf("retrieve batch: %w", err)
	}

	return batch, nil
}

func (c Client) CancelBatch(ctx context.Context, id string) (Batch, error) {
	batch, err := httpclient.Post[Batch](ctx, "/batches/"+id+"/cancel", struct{}{}, c...)
	if err != nil {
		return Batch{}, fmt.Errorf("cancel batch: %w", err)
	}

	return batch, nil
}

// ListBatches lists batches. Only Limit and After of params apply.
func (c Client) ListBatches(ctx context.Context, params ListParams) (List[Batch], error) {
	params.Order, params.Before = "", ""
	opts, err := params.options()
	if err != nil {
		return List[Batch]{}, fmt.Errorf("list batches: %w", err)
	}
	batches, err := httpclient.Get[List[Batch]](ctx, "/batches", c.with(opts...)...)
	if err != nil {
		return List[Batch]{}, fmt.Errorf("list batches: %w", err)
	}

	return batches, nil
}

const (
	DefaultBatchPollInterval = 30 * time.Second
	DefaultBatchMaxWait      = 24 * time.Hour
)

// WaitForBatch polls the batch until it reaches a terminal status.
// On failure it returns the last batch it saw.
// Zero interval and maxWait default to DefaultBatchPollInterval and DefaultBatchMaxWait.
func (c Client) WaitForBatch(ctx context.Context, id string, interval, maxWait time.Duration) (Batch, error) {
	if interval <= 0 {
		interval = DefaultBatchPollInterval
	}
	if maxWait <= 0 {
		maxWait = DefaultBatchMaxWait
	}
	ctx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last Batch
	logger := zerolog.Ctx(ctx)
	for {
		batch, err := c.RetrieveBatch(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return last, fmt.Errorf("wait for batch: %w", ctx.Err())
			}

			return last, err
		}
		last = batch
		logger.Debug().
			Str("batch", id).
			Str("status", string(batch.Status)).
			Int("completed", batch.RequestCounts.Completed).
			Int("total", batch.RequestCounts.Total).
			Msg("batch status")
		if batch.Status.Terminal() {
			return batch, nil
		}

		select {
		case <-ctx.Done():
			return batch, fmt.Errorf("wait for batch: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// DownloadResults returns the output file of a batch, nil when it has none.
func (c Client) DownloadResults(ctx context.Context, batch Batch) ([]byte, error) {
	if batch.OutputFileID == "" {
		return nil, nil
	}

	return c.FileContent(ctx, batch.OutputFileID)
}

// DownloadErrors returns the error file of a batch, nil when it has none.
func (c Client) DownloadErrors(ctx context.Context, batch Batch) ([]byte, error) {
	if batch.ErrorFileID == "" {
		return nil, nil
	}

	return c.FileContent(ctx, batch.ErrorFileID)
}

// BatchReport downloads the output and error files of a batch and aggregates them.
// matched marks responses carrying a YARA rule, yara.HasRule for instance.
func (c Client) BatchReport(ctx context.Context, id string, matched func(string) bool) (*report.BatchReport, error) {
	batch, err := c.RetrieveBatch(ctx, id)
	if err != nil {
		return nil, err
	}
	results, err := c.DownloadResults(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("batch report: %w", err)
	}
	errors, err := c.DownloadErrors(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("batch report: %w", err)
	}

	r, err := report.Analyze(bytes.NewReader(results), bytes.NewReader(errors), matched)
	if err != nil {
		return nil, fmt.Errorf("batch report: %w", err)
	}

	return r, nil
}

// BatchInput writes the JSONL input file of a batch.
type BatchInput struct {
	encoder  *json.Encoder
	endpoint BatchEndpoint
	lines    int
}

func NewBatchInput(w io.Writer, endpoint BatchEndpoint) *BatchInput {
	return &BatchInput{encoder: json.NewEncoder(w), endpoint: endpoint}
}

// Add writes one request. customID must be unique within the batch.
func (b *BatchInput) Add(customID string, body any) error {
	if err := validate.Required("custom_id", customID); err != nil {
		return err
	}
	line := struct {
		CustomID string `json:"custom_id"`
		Method   string `json:"method"`
		URL      string `json:"url"`
		Body     any    `json:"body"`
	}{
		CustomID: customID,
		Method:   "POST",
		URL:      string(b.endpoint),
		Body:     body,
	}
	if err := b.encoder.Encode(line); err != nil {
		return fmt.Errorf("write batch line: %w", err)
	}
	b.lines++

	return nil
}

// Len returns the number of requests written.
func (b *BatchInput) Len() int {
	return b.lines
}
