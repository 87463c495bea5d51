// Package carrier implements the Carrier Adapter: translation between the
// core's canonical inbound representation (16kHz 16-bit mono PCM chunks +
// optional RMS) and the wire formats spoken by telephony and browser/test
// endpoints. Each wire format is a tagged-variant Carrier implementation
// dispatched by the supervisor at construction time — never by runtime
// class introspection (spec §9).
package carrier

import "github.com/priority-technologies/shreenika-voice-core/internal/domain"

// Transport is the minimal message-socket contract a Carrier needs. A
// *websocket.Conn satisfies it directly; tests supply a fake.
type Transport interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// InboundEvent is one of the typed events a Carrier yields to the
// supervisor (spec §9: "every emit/on pair... becomes a typed message on a
// bounded channel").
type InboundEvent interface {
	inboundEvent()
}

// CallAnswered is emitted once, on telephony `answer` or first browser
// connect.
type CallAnswered struct {
	StreamID  string
	ChannelID string
	CallID    string
	SampleRate int
}

func (CallAnswered) inboundEvent() {}

// AudioIn is inbound audio, already resampled to 16kHz mono PCM. Energy is
// populated when the wire format carries it (browser's optional
// energyLevel); otherwise the caller computes RMS itself.
type AudioIn struct {
	PCM16k []byte
	Energy *float64
}

func (AudioIn) inboundEvent() {}

// CarrierClosed signals the transport closed, expectedly or not.
type CarrierClosed struct {
	Err error
}

func (CarrierClosed) inboundEvent() {}

// Carrier is the adapter contract the supervisor drives. Inbound runs a
// single reader goroutine internally and publishes on the returned channel;
// SendAudio/SendInterrupt are safe to call from the supervisor's own
// goroutine as the single writer.
type Carrier interface {
	Kind() domain.CarrierKind

	// Inbound returns the channel of parsed inbound events. Closed when the
	// transport closes.
	Inbound() <-chan InboundEvent

	// SendAudio resamples pcm16k to the carrier's outbound rate and emits it
	// in the carrier's envelope.
	SendAudio(pcm16k []byte) error

	// SendInterrupt emits the carrier's interrupt signal, if it has one.
	// Telephony carriers have no explicit interrupt frame (spec §4.2): the
	// core simply stops emitting reverse-media frames, so this is a no-op
	// there.
	SendInterrupt() error

	// Close tears down the transport. Idempotent.
	Close() error
}
