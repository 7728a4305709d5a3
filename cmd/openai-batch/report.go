// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ktong/openai/report"
	"github.com/ktong/openai/yara"
)

var errNoInput = errors.New("either --batch or --results is required")

func reportCmd(a *app) *cobra.Command {
	var (
		batchID     string
		resultsPath string
		errorsPath  string
		format      string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarise batch results and the YARA rules found in them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				r   *report.BatchReport
				err error
			)
			switch {
			case batchID != "":
				client, clientErr := a.client()
				if clientErr != nil {
					return clientErr
				}
				r, err = client.BatchReport(cmd.Context(), batchID, yara.HasRule)
			case resultsPath != "":
				r, err = analyzeFiles(resultsPath, errorsPath)
			default:
				return errNoInput
			}
			if err != nil {
				return err
			}
			zerolog.Ctx(cmd.Context()).Debug().
				Int("total", r.TotalResponses).Int("rules", r.YaraRulesFound).Msg("batch analysed")

			content, err := renderReport(r, format, time.Now(), a.cfg.Thresholds)
			if err != nil {
				return err
			}
			out, err := create(cmd, output)
			if err != nil {
				return err
			}
			if _, err := out.Write(content); err != nil {
				_ = out.Close()

				return fmt.Errorf("write report: %w", err)
			}

			return out.Close()
		},
	}
	cmd.Flags().StringVar(&batchID, "batch", "", "download and analyse this batch")
	cmd.Flags().StringVar(&resultsPath, "results", "", "local batch output file")
	cmd.Flags().StringVar(&errorsPath, "errors", "", "local batch error file")
	cmd.Flags().StringVarP(&format, "format", "f", "md", "md, html, json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report to this file instead of stdout")

	return cmd
}

func analyzeFiles(resultsPath, errorsPath string) (*report.BatchReport, error) {
	var results, errs io.Reader

	resultsFile, err := os.Open(resultsPath) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("open results: %w", err)
	}
	defer func() {
		_ = resultsFile.Close()
	}()
	results = resultsFile

	if errorsPath != "" {
		errorsFile, err := os.Open(errorsPath) //nolint:gosec
		if err != nil {
			return nil, fmt.Errorf("open errors: %w", err)
		}
		defer func() {
			_ = errorsFile.Close()
		}()
		errs = errorsFile
	}

	return report.Analyze(results, errs, yara.HasRule)
}

func renderReport(r *report.BatchReport, format string, at time.Time, thresholds report.Thresholds) ([]byte, error) {
	switch format {
	case "md", "markdown", "":
		return []byte(r.Render(at, thresholds)), nil
	case "html":
		return r.HTML(at, thresholds), nil
	case "json":
		return r.JSON()
	case "yaml":
		return r.YAML()
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

func extractYaraCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract-yara <results.jsonl>",
		Short: "Write the YARA rule of every successful response to <custom_id>.yar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open results: %w", err)
			}
			defer func() {
				_ = file.Close()
			}()

			written, err := yara.WriteRules(file, a.cfg.OutputDir)
			zerolog.Ctx(cmd.Context()).Info().Int("rules", written).Str("dir", a.cfg.OutputDir).Msg("rules written")
			if _, printErr := fmt.Fprintf(cmd.OutOrStdout(), "%d rules written to %s\n", written, a.cfg.OutputDir); printErr != nil {
				return printErr
			}

			return err
		},
	}
	cmd.Flags().String("output-dir", "", "directory for the .yar files (default .)")

	return cmd
}
