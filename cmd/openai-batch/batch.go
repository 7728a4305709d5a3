// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ktong/openai"
)

func submitCmd(a *app) *cobra.Command {
	var (
		metadata  map[string]string
		skipCheck bool
	)

	cmd := &cobra.Command{
		Use:   "submit <input.jsonl>",
		Short: "Upload a batch input file and create a batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			endpoint := openai.BatchEndpoint(a.cfg.Endpoint)
			if !skipCheck {
				if err := checkInputFile(args[0], endpoint); err != nil {
					return err
				}
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			upload, err := openai.FileUploadFromPath(args[0], openai.PurposeBatch)
			if err != nil {
				return err
			}
			file, err := client.UploadFile(ctx, upload)
			if err != nil {
				return err
			}

			builder := openai.NewBatchBuilder().InputFileID(file.ID).Endpoint(endpoint)
			for key, value := range metadata {
				builder = builder.MetadataPair(key, value)
			}
			request, err := builder.Build()
			if err != nil {
				return err
			}
			batch, err := client.CreateBatch(ctx, request)
			if err != nil {
				return err
			}

			zerolog.Ctx(ctx).Info().Str("batch", batch.ID).Str("file", file.ID).Msg("batch submitted")
			_, err = fmt.Fprintln(cmd.OutOrStdout(), batch.ID)

			return err
		},
	}
	cmd.Flags().String("endpoint", "", "batch endpoint (default /v1/chat/completions)")
	cmd.Flags().StringToStringVar(&metadata, "metadata", nil, "batch metadata as key=value pairs")
	cmd.Flags().BoolVar(&skipCheck, "no-check", false, "skip local validation of the input lines")

	return cmd
}

func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <batch-id>...",
		Short: "Print the status of batches",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}

			var result *multierror.Error
			for _, id := range args {
				batch, err := client.RetrieveBatch(cmd.Context(), id)
				if err != nil {
					result = multierror.Append(result, fmt.Errorf("%s: %w", id, err))

					continue
				}
				printStatus(cmd, batch)
			}

			return result.ErrorOrNil()
		},
	}
}

func printStatus(cmd *cobra.Command, batch openai.Batch) {
	counts := batch.RequestCounts
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d/%d completed\t%d failed\n",
		batch.ID, batch.Status, counts.Completed, counts.Total, counts.Failed)
}

func waitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wait <batch-id>",
		Short: "Poll a batch until it completes, fails, expires or is cancelled",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			batch, err := client.WaitForBatch(cmd.Context(), args[0], a.cfg.PollInterval, a.cfg.MaxWait)
			if err != nil {
				return err
			}
			printStatus(cmd, batch)
			if batch.Status != openai.BatchCompleted {
				return fmt.Errorf("batch %s ended as %s", batch.ID, batch.Status)
			}

			return nil
		},
	}
	cmd.Flags().Duration("interval", 0, "poll interval (default 30s)")
	cmd.Flags().Duration("max-wait", 0, "give up after this long (default 24h)")

	return cmd
}

func downloadCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download <batch-id>",
		Short: "Download the output and error files of a batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := a.client()
			if err != nil {
				return err
			}
			batch, err := client.RetrieveBatch(ctx, args[0])
			if err != nil {
				return err
			}
			if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil { //nolint:mnd
				return fmt.Errorf("create output directory: %w", err)
			}

			results, err := client.DownloadResults(ctx, batch)
			if err != nil {
				return err
			}
			if err := writeDownload(cmd, filepath.Join(a.cfg.OutputDir, batch.ID+"_results.jsonl"), results); err != nil {
				return err
			}
			errs, err := client.DownloadErrors(ctx, batch)
			if err != nil {
				return err
			}

			return writeDownload(cmd, filepath.Join(a.cfg.OutputDir, batch.ID+"_errors.jsonl"), errs)
		},
	}
	cmd.Flags().String("output-dir", "", "directory for the downloaded files (default .)")

	return cmd
}

func writeDownload(cmd *cobra.Command, path string, content []byte) error {
	if content == nil {
		return nil
	}
	if err := os.WriteFile(path, content, 0o600); err != nil { //nolint:mnd
		return fmt.Errorf("write %s: %w", path, err)
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), path)

	return err
}
