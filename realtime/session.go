// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

// Package realtime configures and drives Realtime API sessions over a websocket.
//
// A session is configured with a SessionConfig, either when minting an ephemeral
// client secret with CreateSession, or on a live connection with Conn.UpdateSession.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ktong/openai"
	"github.com/ktong/openai/internal/httpclient"
	"github.com/ktong/openai/internal/validate"
)

const (
	ModelGPT4oRealtime     = "gpt-4o-realtime-preview"
	ModelGPT4oMiniRealtime = "gpt-4o-mini-realtime-preview"

	minTemperature  = 0.6
	maxTemperature  = 1.2
	maxOutputTokens = 4096
)

type AudioFormat string

const (
	PCM16    AudioFormat = "pcm16"
	G711ULaw AudioFormat = "g711_ulaw"
	G711ALaw AudioFormat = "g711_alaw"
)

type Voice string

const (
	VoiceAlloy   Voice = "alloy"
	VoiceEcho    Voice = "echo"
	VoiceFable   Voice = "fable"
	VoiceOnyx    Voice = "onyx"
	VoiceNova    Voice = "nova"
	VoiceShimmer Voice = "shimmer"
)

// TurnDetection configures server side voice activity detection. Type is server_vad or none.
type TurnDetection struct {
	Type              string   `json:"type"`
	Threshold         *float64 `json:"threshold,omitempty"`
	PrefixPaddingMS   *int     `json:"prefix_padding_ms,omitempty"`
	SilenceDurationMS *int     `json:"silence_duration_ms,omitempty"`
}

// ServerVAD returns server side voice activity detection with the given threshold.
func ServerVAD(threshold float64) TurnDetection {
	return TurnDetection{Type: "server_vad", Threshold: &threshold}
}

type Tool struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// MaxTokens is either a count in 1..4096 or "inf".
type MaxTokens struct {
	n        int
	infinite bool
}

func Tokens(n int) *MaxTokens {
	return &MaxTokens{n: n}
}

func Infinite() *MaxTokens {
	return &MaxTokens{infinite: true}
}

func (m MaxTokens) MarshalJSON() ([]byte, error) {
	if m.infinite {
		return []byte(`"inf"`), nil
	}

	return []byte(strconv.Itoa(m.n)), nil
}

func (m *MaxTokens) UnmarshalJSON(data []byte) error {
	if string(data) == `"inf"` {
		*m = MaxTokens{infinite: true}

		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("max_response_output_tokens: %w", err)
	}
	*m = MaxTokens{n: n}

	return nil
}

func (m *MaxTokens) validate() error {
	if m == nil || m.infinite {
		return nil
	}

	return validate.Range("max_response_output_tokens", &m.n, 1, maxOutputTokens)
}

type SessionConfig struct {
	Model                   string         `json:"model"`
	Modalities              []string       `json:"modalities,omitempty"`
	Instructions            string         `json:"instructions,omitempty"`
	Voice                   Voice          `json:"voice,omitempty"`
	InputAudioFormat        AudioFormat    `json:"input_audio_format,omitempty"`
	OutputAudioFormat       AudioFormat    `json:"output_audio_format,omitempty"`
	TurnDetection           *TurnDetection `json:"turn_detection,omitempty"`
	Tools                   []Tool         `json:"tools,omitempty"`
	ToolChoice              string         `json:"tool_choice,omitempty"`
	Temperature             *float64       `json:"temperature,omitempty"`
	MaxResponseOutputTokens *MaxTokens     `json:"max_response_output_tokens,omitempty"`
}

// Validate checks model, temperature, token limit, turn detection and audio formats in that order.
func (c SessionConfig) Validate() error {
	if err := validate.First(
		validate.Required("model", c.Model),
		validate.Range("temperature", c.Temperature, minTemperature, maxTemperature),
		c.MaxResponseOutputTokens.validate(),
	); err != nil {
		return err
	}
	if c.TurnDetection != nil {
		if err := validate.First(
			validate.Required("turn_detection.type", c.TurnDetection.Type),
			validate.OneOf("turn_detection.type", c.TurnDetection.Type, "server_vad", "none"),
			validate.Range("turn_detection.threshold", c.TurnDetection.Threshold, 0, 1),
		); err != nil {
			return err
		}
	}

	return validate.First(
		validate.OneOf("input_audio_format", c.InputAudioFormat, PCM16, G711ULaw, G711ALaw),
		validate.OneOf("output_audio_format", c.OutputAudioFormat, PCM16, G711ULaw, G711ALaw),
		validate.OneOf("voice", c.Voice, VoiceAlloy, VoiceEcho, VoiceFable, VoiceOnyx, VoiceNova, VoiceShimmer),
	)
}

type SessionBuilder struct {
	config SessionConfig
}

func NewSessionBuilder(model string) SessionBuilder {
	return SessionBuilder{config: SessionConfig{Model: model}}
}

func (b SessionBuilder) Modalities(modalities ...string) SessionBuilder {
	b.config.Modalities = append(b.config.Modalities[:len(b.config.Modalities):len(b.config.Modalities)], modalities...)

	return b
}

func (b SessionBuilder) Instructions(instructions string) SessionBuilder {
	b.config.Instructions = instructions

	return b
}

func (b SessionBuilder) Voice(voice Voice) SessionBuilder {
	b.config.Voice = voice

	return b
}

// AudioFormat sets both the input and output audio format.
func (b SessionBuilder) AudioFormat(format AudioFormat) SessionBuilder {
	b.config.InputAudioFormat = format
	b.config.OutputAudioFormat = format

	return b
}

func (b SessionBuilder) TurnDetection(detection TurnDetection) SessionBuilder {
	b.config.TurnDetection = &detection

	return b
}

func (b SessionBuilder) Tool(tools ...Tool) SessionBuilder {
	b.config.Tools = append(b.config.Tools[:len(b.config.Tools):len(b.config.Tools)], tools...)

	return b
}

func (b SessionBuilder) Temperature(temperature float64) SessionBuilder {
	b.config.Temperature = &temperature

	return b
}

func (b SessionBuilder) MaxResponseOutputTokens(tokens *MaxTokens) SessionBuilder {
	b.config.MaxResponseOutputTokens = tokens

	return b
}

func (b SessionBuilder) Build() (SessionConfig, error) {
	if err := b.config.Validate(); err != nil {
		return SessionConfig{}, err
	}

	return b.config, nil
}

type Session struct {
	ID           string `json:"id"`
	Object       string `json:"object"`
	Model        string `json:"model"`
	ClientSecret struct {
		Value     string `json:"value"`
		ExpiresAt int64  `json:"expires_at"`
	} `json:"client_secret"`
}

// CreateSession mints an ephemeral client secret for a browser or device to connect with.
func CreateSession(ctx context.Context, client openai.Client, config SessionConfig) (Session, error) {
	if err := config.Validate(); err != nil {
		return Session{}, fmt.Errorf("create realtime session: %w", err)
	}
	session, err := httpclient.Post[Session](ctx, "/realtime/sessions", config, client...)
	if err != nil {
		return Session{}, fmt.Errorf("create realtime session: %w", err)
	}

	return session, nil
}
