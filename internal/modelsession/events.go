// Package modelsession maintains the single long-lived bidirectional
// streaming connection to the voice model: setup handshake, outbound audio
// forwarding, typed inbound event parsing, and auto-reconnect.
package modelsession

import "github.com/priority-technologies/shreenika-voice-core/internal/domain"

// Event is one of the typed messages a Session yields on its event stream.
type Event interface {
	sessionEvent()
}

// Ready is emitted after setupComplete on Connect, and again after each
// successful reconnect.
type Ready struct{}

func (Ready) sessionEvent() {}

// AudioOut is one chunk of model-generated speech, 24kHz mono PCM16.
type AudioOut struct {
	PCM24k []byte
}

func (AudioOut) sessionEvent() {}

// TurnComplete marks the end of one model turn.
type TurnComplete struct{}

func (TurnComplete) sessionEvent() {}

// InputTranscript is the model's running transcription of the lead's
// speech, used by the Conversation Analyzer in place of a separate ASR
// pass (spec §4.5).
type InputTranscript struct {
	Text string
}

func (InputTranscript) sessionEvent() {}

// OutputTranscript is the model's running transcription of its own
// synthesized speech, recorded into the turn log as AgentResponse.
type OutputTranscript struct {
	Text string
}

func (OutputTranscript) sessionEvent() {}

// Interrupted signals the model detected the user talking over it.
type Interrupted struct{}

func (Interrupted) sessionEvent() {}

// FatalError is emitted when the session closes and will not recover.
type FatalError struct {
	Kind   domain.Kind
	Detail string
}

func (FatalError) sessionEvent() {}

// Closed signals the underlying transport closed, with the transport's own
// code/reason if it supplied one.
type Closed struct {
	Code   int
	Reason string
}

func (Closed) sessionEvent() {}
