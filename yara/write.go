// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package yara

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/ktong/openai/report"
)

var errInvalidCustomID = errors.New("invalid custom_id")

// WriteRules extracts a rule from every successful line of a batch output file
// and writes it to dir as <custom_id>.yar. It returns the number of files written.
// Failures of single lines do not stop the others and are returned together.
func WriteRules(results io.Reader, dir string) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create rule directory: %w", err)
	}

	var (
		written int
		errs    error
	)
	scanErr := report.Scan(results, func(line report.Line) {
		content, ok := line.Content()
		if !ok {
			return
		}
		rule, ok := Extract(content)
		if !ok {
			return
		}
		if err := writeRule(dir, line.CustomID, rule); err != nil {
			errs = multierror.Append(errs, err)

			return
		}
		written++
	}, nil)
	if scanErr != nil {
		errs = multierror.Append(errs, fmt.Errorf("scan results: %w", scanErr))
	}

	return written, errs
}

func writeRule(dir, customID, rule string) error {
	if customID == "" || customID != filepath.Base(customID) || strings.HasPrefix(customID, ".") {
		return fmt.Errorf("%w: %q", errInvalidCustomID, customID)
	}
	path := filepath.Join(dir, customID+".yar")
	if err := os.WriteFile(path, []byte(rule+"\n"), 0o600); err != nil {
		return fmt.Errorf("write rule %s: %w", customID, err)
	}

	return nil
}
