// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package realtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const DefaultURL = "wss://api.openai.com/v1/realtime"

var ErrClosed = errors.New("realtime connection closed")

// Event is a server or client event. Data holds the whole JSON message.
type Event struct {
	Type    string          `json:"type"`
	EventID string          `json:"event_id,omitempty"`
	Data    json.RawMessage `json:"-"`
}

// Err returns the error carried by an error event.
func (e Event) Err() error {
	if e.Type != "error" {
		return nil
	}
	var payload struct {
		Error *Error `json:"error"`
	}
	if err := json.Unmarshal(e.Data, &payload); err != nil {
		return fmt.Errorf("decode error event: %w", err)
	}
	if payload.Error == nil {
		return &Error{Type: "unknown", Message: "error event without details"}
	}

	return payload.Error
}

type Error struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Param   string `json:"param,omitempty"`
	EventID string `json:"event_id,omitempty"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("realtime %s (%s): %s", e.Type, e.Code, e.Message)
	}

	return fmt.Sprintf("realtime %s: %s", e.Type, e.Message)
}

// Dialer opens realtime connections. The zero value dials DefaultURL.
type Dialer struct {
	URL       string
	APIKey    string
	Header    http.Header
	WebSocket *websocket.Dialer
}

// Dial connects with the API key and sends config as the first session update.
func Dial(ctx context.Context, apiKey string, config SessionConfig) (*Conn, error) {
	return Dialer{APIKey: apiKey}.Dial(ctx, config)
}

func (d Dialer) Dial(ctx context.Context, config SessionConfig) (*Conn, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("dial realtime: %w", err)
	}

	endpoint := d.URL
	if endpoint == "" {
		endpoint = DefaultURL
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial realtime: %w", err)
	}
	query := u.Query()
	query.Set("model", config.Model)
	u.RawQuery = query.Encode()

	header := d.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	if d.APIKey != "" {
		header.Set("Authorization", "Bearer "+d.APIKey)
	}
	header.Set("OpenAI-Beta", "realtime=v1")

	dialer := d.WebSocket
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	ws, resp, err := dialer.DialContext(ctx, u.String(), header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial realtime: %w", err)
	}
	zerolog.Ctx(ctx).Debug().Str("model", config.Model).Msg("realtime connection opened")

	conn := newConn(ws)
	if err := conn.UpdateSession(config); err != nil {
		_ = conn.Close()

		return nil, err
	}

	return conn, nil
}

// Conn is a live realtime connection. Send and Receive may be called concurrently.
type Conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
	events  chan Event
	quit    chan struct{}
	done    chan struct{}
	err     error
	once    sync.Once
}

func newConn(ws *websocket.Conn) *Conn {
	conn := &Conn{
		ws:     ws,
		events: make(chan Event),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go conn.readLoop()

	return conn
}

func (c *Conn) readLoop() {
	defer close(c.done)

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) || c.closed() {
				err = ErrClosed
			}
			c.err = err

			return
		}
		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			c.err = fmt.Errorf("decode realtime event: %w", err)

			return
		}
		event.Data = data

		select {
		case c.events <- event:
		case <-c.quit:
			c.err = ErrClosed

			return
		}
	}
}

// closed reports whether Close was called locally.
func (c *Conn) closed() bool {
	select {
	case <-c.quit:
		return true
	default:
		return false
	}
}

// Send writes a client event, usually a struct or map with a type field.
func (c *Conn) Send(event any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.WriteJSON(event); err != nil {
		return fmt.Errorf("send realtime event: %w", err)
	}

	return nil
}

// Receive returns the next server event. It returns ErrClosed once either side closes the connection.
func (c *Conn) Receive(ctx context.Context) (Event, error) {
	select {
	case event := <-c.events:
		return event, nil
	case <-c.done:
		return Event{}, c.err
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

func (c *Conn) UpdateSession(config SessionConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("update realtime session: %w", err)
	}

	return c.Send(struct {
		Type    string        `json:"type"`
		Session SessionConfig `json:"session"`
	}{Type: "session.update", Session: config})
}

// AppendAudio appends raw audio in the session's input format to the input buffer.
func (c *Conn) AppendAudio(audio []byte) error {
	return c.Send(map[string]string{
		"type":  "input_audio_buffer.append",
		"audio": base64.StdEncoding.EncodeToString(audio),
	})
}

func (c *Conn) CommitAudio() error {
	return c.Send(map[string]string{"type": "input_audio_buffer.commit"})
}

func (c *Conn) CreateResponse() error {
	return c.Send(map[string]string{"type": "response.create"})
}

func (c *Conn) CancelResponse() error {
	return c.Send(map[string]string{"type": "response.cancel"})
}

// Close sends a close frame and releases the connection. It is safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.quit)
		c.writeMu.Lock()
		_ = c.ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})

	return err
}
