// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ktong/openai"
	"github.com/ktong/openai/internal/logging"
)

type app struct {
	v   *viper.Viper
	cfg config
}

func (a *app) client() (openai.Client, error) {
	client, err := newClient(a.cfg)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	return client, nil
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		debug   bool
		a       = &app{v: viper.New()}
	)

	cmd := &cobra.Command{
		Use:           "openai-batch",
		Short:         "Run OpenAI batches and report on the YARA rules they produce",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logging.Init(debug)
			cmd.SetContext(logging.WithContext(cmd.Context()))

			cfg, err := loadConfig(a.v, cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			a.cfg = cfg

			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "YAML config file")
	flags.BoolVar(&debug, "debug", false, "enable debug logging")
	flags.String("api-key", "", "API key, defaults to OPENAI_API_KEY")
	flags.String("base-url", "", "API base URL")
	flags.Duration("timeout", 0, "HTTP timeout per request (default 60s)")

	cmd.AddCommand(
		submitCmd(a),
		statusCmd(a),
		waitCmd(a),
		downloadCmd(a),
		reportCmd(a),
		extractYaraCmd(a),
	)

	return cmd
}

// create opens path for writing, or returns stdout when path is empty or "-".
func create(cmd *cobra.Command, path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{cmd.OutOrStdout()}, nil
	}
	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}

	return file, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error {
	return nil
}
