// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

//nolint:wrapcheck
package httpclient

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Event is one server-sent event. Multi-line data is joined with newlines.
type Event struct {
	Type string
	ID   string
	Data []byte
}

// ErrStreamDone may be returned by a stream handler to stop reading without an error.
var ErrStreamDone = errors.New("stream done")

func Stream(
	ctx context.Context,
	path string,
	request any,
	handler func(context.Context, Event) error,
	opts ...Option,
) error {
	options := apply(opts)
	options.headers["Accept"] = "text/event-stream"
	options.headers["Cache-Control"] = "no-cache"
	options.headers["Connection"] = "keep-alive"
	options.timeout = options.streamTimeout
	if options.timeout == 0 {
		options.timeout = noTimeout
	}

	resp, err := send(ctx, http.MethodPost, path, request, options)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	events := newEventScanner(resp.Body)
	for {
		event, err := events.next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}

			return fmt.Errorf("read stream event: %w", err)
		}
		if err := handler(ctx, event); err != nil {
			if errors.Is(err, ErrStreamDone) {
				return nil
			}

			return fmt.Errorf("handle stream event: %w", err)
		}
	}
}

// maxEventLine bounds a single SSE line. Run step deltas with large tool outputs exceed bufio's default.
const maxEventLine = 4 << 20

type eventScanner struct {
	scanner *bufio.Scanner
}

func newEventScanner(body io.Reader) eventScanner {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64<<10), maxEventLine) //nolint:mnd

	return eventScanner{scanner: scanner}
}

// next returns the next non-empty event, or io.EOF once the body is exhausted.
func (s eventScanner) next() (Event, error) {
	var (
		event   Event
		pending bool
	)
	for s.scanner.Scan() {
		line := s.scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			if pending {
				return event, nil
			}

			continue
		}
		if line[0] == ':' { // Comment, used as keep-alive.
			continue
		}

		field, value, _ := bytes.Cut(line, []byte(":"))
		value = bytes.TrimPrefix(value, []byte(" "))
		switch string(field) {
		case "event":
			event.Type = string(value)
		case "data":
			if event.Data != nil {
				event.Data = append(event.Data, '\n')
			}
			event.Data = append(event.Data, value...)
		case "id":
			event.ID = string(value)
		default:
			continue
		}
		pending = true
	}
	if err := s.scanner.Err(); err != nil {
		return Event{}, fmt.Errorf("read line: %w", err)
	}
	if pending {
		return event, nil
	}

	return Event{}, io.EOF
}
