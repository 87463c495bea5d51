package carrier

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/priority-technologies/shreenika-voice-core/internal/audio"
	"github.com/priority-technologies/shreenika-voice-core/internal/domain"
)

// Telephony sample rates (spec §4.2, §6).
const (
	telephonyInboundRate  = audio.Rate44_1k
	telephonyOutboundRate = audio.Rate8k
	canonicalRate         = audio.Rate16k
)

// telephonyFrame covers the union of inbound JSON shapes: `answer` and
// `media`. Unused fields are left zero for the other kind.
type telephonyFrame struct {
	Event       string           `json:"event"`
	StreamID    string           `json:"streamId"`
	ChannelID   string           `json:"channelId"`
	CallID      string           `json:"callId"`
	MediaFormat *telephonyFormat `json:"mediaFormat,omitempty"`
	Payload     string           `json:"payload,omitempty"`
	Chunk       int              `json:"chunk,omitempty"`
}

type telephonyFormat struct {
	SampleRate int    `json:"sampleRate"`
	Encoding   string `json:"encoding"`
}

type telephonyOutFrame struct {
	Event     string `json:"event"`
	Payload   string `json:"payload"`
	StreamID  string `json:"streamId"`
	ChannelID string `json:"channelId"`
	CallID    string `json:"callId"`
}

// Telephony is the Telephony-PBX carrier variant: JSON frames tagged by
// `event`, with a binary fallback treated as raw 44.1kHz LINEAR16 (spec
// §4.2, §6).
type Telephony struct {
	transport Transport
	log       *slog.Logger

	mu        sync.Mutex
	streamID  string
	channelID string
	callID    string
	answered  bool

	inbound chan InboundEvent
	done    chan struct{}
	closeOnce sync.Once
}

// NewTelephony wraps transport as a Telephony carrier and starts its reader
// goroutine.
func NewTelephony(transport Transport, log *slog.Logger) *Telephony {
	if log == nil {
		log = slog.Default()
	}
	t := &Telephony{
		transport: transport,
		log:       log,
		inbound:   make(chan InboundEvent, 32),
		done:      make(chan struct{}),
	}
	go t.readLoop()
	return t
}

func (t *Telephony) Kind() domain.CarrierKind { return domain.CarrierTelephony }

func (t *Telephony) Inbound() <-chan InboundEvent { return t.inbound }

func (t *Telephony) readLoop() {
	defer close(t.inbound)

	for {
		_, data, err := t.transport.ReadMessage()
		if err != nil {
			select {
			case t.inbound <- CarrierClosed{Err: err}:
			case <-t.done:
			}
			return
		}

		evt, err := t.parseFrame(data)
		if err != nil {
			t.log.Warn("telephony: dropping frame", "error", err)
			continue
		}
		if evt == nil {
			continue
		}

		select {
		case t.inbound <- evt:
		case <-t.done:
			return
		}
	}
}

// parseFrame dispatches a raw frame to either the JSON or binary path
// (spec §4.2: "Detection: first byte ≠ '{' and ≠ '['").
func (t *Telephony) parseFrame(data []byte) (InboundEvent, error) {
	if len(data) == 0 {
		return nil, domain.NewDomainError(domain.ErrBadAudioFrame, domain.KindAudio, "empty frame")
	}
	if data[0] != '{' && data[0] != '[' {
		return t.handleBinaryMedia(data)
	}

	var frame telephonyFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, domain.NewDomainError(domain.ErrCarrierProtocolError, domain.KindProtocol, "invalid JSON frame")
	}

	switch frame.Event {
	case "answer":
		return t.handleAnswer(frame)
	case "media":
		return t.handleMedia(frame)
	default:
		return nil, domain.NewDomainError(domain.ErrUnknownCarrierEvent, domain.KindProtocol, frame.Event)
	}
}

func (t *Telephony) handleAnswer(frame telephonyFrame) (InboundEvent, error) {
	if frame.StreamID == "" || frame.ChannelID == "" || frame.CallID == "" {
		return nil, domain.NewDomainError(domain.ErrCarrierProtocolError, domain.KindProtocol,
			"answer missing streamId/channelId/callId")
	}

	sampleRate := telephonyInboundRate
	if frame.MediaFormat != nil && frame.MediaFormat.SampleRate > 0 {
		sampleRate = frame.MediaFormat.SampleRate
	}

	t.mu.Lock()
	t.streamID = frame.StreamID
	t.channelID = frame.ChannelID
	t.callID = frame.CallID
	t.answered = true
	t.mu.Unlock()

	return CallAnswered{
		StreamID:   frame.StreamID,
		ChannelID:  frame.ChannelID,
		CallID:     frame.CallID,
		SampleRate: sampleRate,
	}, nil
}

func (t *Telephony) handleMedia(frame telephonyFrame) (InboundEvent, error) {
	pcm, err := audio.B64Decode(frame.Payload)
	if err != nil {
		return nil, err
	}
	return t.resampleInbound(pcm)
}

func (t *Telephony) handleBinaryMedia(data []byte) (InboundEvent, error) {
	return t.resampleInbound(data)
}

func (t *Telephony) resampleInbound(pcm []byte) (InboundEvent, error) {
	pcm16k, err := audio.Resample(pcm, telephonyInboundRate, canonicalRate)
	if err != nil {
		return nil, err
	}
	return AudioIn{PCM16k: pcm16k}, nil
}

// SendAudio resamples to 8kHz and emits a reverse-media frame (spec §6).
func (t *Telephony) SendAudio(pcm16k []byte) error {
	pcm8k, err := audio.Resample(pcm16k, canonicalRate, telephonyOutboundRate)
	if err != nil {
		return err
	}

	t.mu.Lock()
	out := telephonyOutFrame{
		Event:     "reverse-media",
		Payload:   audio.B64Encode(pcm8k),
		StreamID:  t.streamID,
		ChannelID: t.channelID,
		CallID:    t.callID,
	}
	t.mu.Unlock()

	data, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return t.transport.WriteMessage(1 /* TextMessage */, data)
}

// SendInterrupt is a no-op for telephony: the carrier has no explicit
// interrupt frame. The core simply stops emitting reverse-media frames and
// the PBX plays out whatever it already buffered (spec §4.2, §5).
func (t *Telephony) SendInterrupt() error { return nil }

func (t *Telephony) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		err = t.transport.Close()
	})
	return err
}
