package carrier

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/priority-technologies/shreenika-voice-core/internal/audio"
	"github.com/priority-technologies/shreenika-voice-core/internal/domain"
)

// Browser sample rates (spec §4.3, §6).
const browserRate = audio.Rate48k

// browserFrame covers the union of inbound JSON shapes: AUDIO and
// INTERRUPT.
type browserFrame struct {
	Type        string   `json:"type"`
	CallID      string   `json:"callId,omitempty"`
	Audio       string   `json:"audio,omitempty"`
	SampleRate  int      `json:"sampleRate,omitempty"`
	EnergyLevel *float64 `json:"energyLevel,omitempty"`
}

type browserOutFrame struct {
	Type       string `json:"type"`
	Audio      string `json:"audio,omitempty"`
	SampleRate int    `json:"sampleRate,omitempty"`
}

// Browser is the browser/test carrier variant: JSON frames tagged by
// `type`, 48kHz LINEAR16 both directions, with an optional client-computed
// energyLevel on AUDIO frames (spec §4.3, §6).
type Browser struct {
	transport Transport
	log       *slog.Logger

	mu     sync.Mutex
	callID string

	inbound   chan InboundEvent
	done      chan struct{}
	closeOnce sync.Once
}

// NewBrowser wraps transport as a Browser carrier and starts its reader
// goroutine. The browser protocol has no separate answer handshake: the
// first AUDIO frame implicitly answers the call.
func NewBrowser(transport Transport, callID string, log *slog.Logger) *Browser {
	if log == nil {
		log = slog.Default()
	}
	b := &Browser{
		transport: transport,
		log:       log,
		callID:    callID,
		inbound:   make(chan InboundEvent, 32),
		done:      make(chan struct{}),
	}
	go b.readLoop()
	return b
}

func (b *Browser) Kind() domain.CarrierKind { return domain.CarrierBrowser }

func (b *Browser) Inbound() <-chan InboundEvent { return b.inbound }

func (b *Browser) readLoop() {
	defer close(b.inbound)

	answered := false
	for {
		_, data, err := b.transport.ReadMessage()
		if err != nil {
			select {
			case b.inbound <- CarrierClosed{Err: err}:
			case <-b.done:
			}
			return
		}

		var frame browserFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			b.log.Warn("browser: dropping malformed frame", "error", err)
			continue
		}

		events, newlyAnswered, err := b.handleFrame(frame, answered)
		if err != nil {
			b.log.Warn("browser: dropping frame", "error", err)
			continue
		}
		answered = newlyAnswered

		for _, evt := range events {
			select {
			case b.inbound <- evt:
			case <-b.done:
				return
			}
		}
	}
}

func (b *Browser) handleFrame(frame browserFrame, answered bool) ([]InboundEvent, bool, error) {
	switch frame.Type {
	case "AUDIO":
		return b.handleAudio(frame, answered)
	case "INTERRUPT":
		return nil, answered, nil
	default:
		return nil, answered, domain.NewDomainError(domain.ErrUnknownCarrierEvent, domain.KindProtocol, frame.Type)
	}
}

func (b *Browser) handleAudio(frame browserFrame, answered bool) ([]InboundEvent, bool, error) {
	pcm, err := audio.B64Decode(frame.Audio)
	if err != nil {
		return nil, answered, err
	}
	pcm16k, err := audio.Resample(pcm, browserRate, canonicalRate)
	if err != nil {
		return nil, answered, err
	}
	audioEvt := AudioIn{PCM16k: pcm16k, Energy: frame.EnergyLevel}

	if !answered {
		b.mu.Lock()
		if frame.CallID != "" {
			b.callID = frame.CallID
		}
		callID := b.callID
		b.mu.Unlock()
		return []InboundEvent{
			CallAnswered{CallID: callID, SampleRate: browserRate},
			audioEvt,
		}, true, nil
	}

	return []InboundEvent{audioEvt}, true, nil
}

// SendAudio resamples to 48kHz and emits an AUDIO frame (spec §6).
func (b *Browser) SendAudio(pcm16k []byte) error {
	pcm48k, err := audio.Resample(pcm16k, canonicalRate, browserRate)
	if err != nil {
		return err
	}

	data, err := json.Marshal(browserOutFrame{
		Type:       "AUDIO",
		Audio:      audio.B64Encode(pcm48k),
		SampleRate: browserRate,
	})
	if err != nil {
		return err
	}
	return b.transport.WriteMessage(1 /* TextMessage */, data)
}

// SendInterrupt emits the browser's explicit INTERRUPT frame (spec §4.3).
func (b *Browser) SendInterrupt() error {
	data, err := json.Marshal(browserOutFrame{Type: "INTERRUPT"})
	if err != nil {
		return err
	}
	return b.transport.WriteMessage(1 /* TextMessage */, data)
}

func (b *Browser) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.done)
		err = b.transport.Close()
	})
	return err
}
