// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ktong/openai"
	"github.com/ktong/openai/report"
)

const envPrefix = "OPENAI_BATCH"

type config struct {
	APIKey       string            `mapstructure:"api_key"`
	BaseURL      string            `mapstructure:"base_url"`
	Timeout      time.Duration     `mapstructure:"timeout"`
	Endpoint     string            `mapstructure:"endpoint"`
	PollInterval time.Duration     `mapstructure:"poll_interval"`
	MaxWait      time.Duration     `mapstructure:"max_wait"`
	OutputDir    string            `mapstructure:"output_dir"`
	Thresholds   report.Thresholds `mapstructure:"thresholds"`
}

// flagKeys maps config keys to the flags that may override them.
//
//nolint:gochecknoglobals
var flagKeys = map[string]string{
	"api_key":       "api-key",
	"base_url":      "base-url",
	"timeout":       "timeout",
	"endpoint":      "endpoint",
	"poll_interval": "interval",
	"max_wait":      "max-wait",
	"output_dir":    "output-dir",
}

func setDefaults(v *viper.Viper) {
	thresholds := report.DefaultThresholds()
	v.SetDefault("api_key", "")
	v.SetDefault("base_url", "")
	v.SetDefault("timeout", "60s")
	v.SetDefault("endpoint", string(openai.EndpointChatCompletions))
	v.SetDefault("poll_interval", "30s")
	v.SetDefault("max_wait", "24h")
	v.SetDefault("output_dir", ".")
	v.SetDefault("thresholds.warn_success_below", thresholds.WarnSuccessBelow)
	v.SetDefault("thresholds.praise_success_at_or_above", thresholds.PraiseSuccessAtOrAbove)
	v.SetDefault("thresholds.warn_extraction_below", thresholds.WarnExtractionBelow)
	v.SetDefault("thresholds.praise_extraction_at_or_above", thresholds.PraiseExtractionAtOrAbove)
}

// loadConfig resolves flags, then OPENAI_BATCH_* variables, then the YAML file, then defaults.
func loadConfig(v *viper.Viper, path string, flags *pflag.FlagSet) (config, error) {
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, name := range flagKeys {
		if flag := flags.Lookup(name); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return config{}, fmt.Errorf("bind %s flag: %w", name, err)
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return config{}, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// newClient starts from the OPENAI_* environment and applies the command configuration on top.
func newClient(cfg config) (openai.Client, error) {
	base, err := openai.ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if cfg.APIKey != "" {
		base.APIKey = cfg.APIKey
	}
	if cfg.BaseURL != "" {
		base.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		base.Timeout = cfg.Timeout
	}

	return openai.NewWithConfig(base)
}
