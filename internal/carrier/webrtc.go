package carrier

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pion/webrtc/v4"

	"github.com/priority-technologies/shreenika-voice-core/internal/audio"
	"github.com/priority-technologies/shreenika-voice-core/internal/domain"
)

// WebRTC media parameters. LiveKit tracks run mono at 48kHz for voice
// (spec §4 supplement: WebRTC carrier variant).
const (
	webrtcSampleRate = audio.Rate48k
	webrtcChannels   = 1
)

// WebRTCConfig names the room an agent joins to serve one call.
type WebRTCConfig struct {
	URL           string
	APIKey        string
	APISecret     string
	RoomName      string
	AgentIdentity string
	AgentName     string
}

// WebRTC is the supplemented WebRTC carrier variant: a LiveKit room
// participant publishing and subscribing Opus tracks, with PCM16/48kHz at
// the Carrier boundary like every other variant. Grounded on the LiveKit
// room-agent and Opus codec conventions used elsewhere in the stack.
type WebRTC struct {
	room   *lksdk.Room
	codec  *opusCodec
	log    *slog.Logger
	callID string

	mu         sync.Mutex
	localTrack *lksdk.LocalTrack

	inbound    chan InboundEvent
	done       chan struct{}
	closeOnce  sync.Once
	answerOnce sync.Once
}

// ConnectWebRTC joins cfg.RoomName as a participant and returns a Carrier
// once connected. The first remote audio track subscribed emits
// CallAnswered.
func ConnectWebRTC(cfg WebRTCConfig, callID string, log *slog.Logger) (*WebRTC, error) {
	if log == nil {
		log = slog.Default()
	}

	codec, err := newOpusCodec(webrtcSampleRate, webrtcChannels)
	if err != nil {
		return nil, err
	}

	w := &WebRTC{
		codec:   codec,
		log:     log,
		callID:  callID,
		inbound: make(chan InboundEvent, 32),
		done:    make(chan struct{}),
	}

	room, err := lksdk.ConnectToRoom(cfg.URL, lksdk.ConnectInfo{
		APIKey:              cfg.APIKey,
		APISecret:           cfg.APISecret,
		RoomName:            cfg.RoomName,
		ParticipantIdentity: cfg.AgentIdentity,
		ParticipantName:     cfg.AgentName,
	}, &lksdk.RoomCallback{
		ParticipantCallback: lksdk.ParticipantCallback{
			OnTrackSubscribed: w.onTrackSubscribed,
		},
	})
	if err != nil {
		return nil, domain.NewDomainError(err, domain.KindTransport, "connect to LiveKit room")
	}
	w.room = room

	track, err := lksdk.NewLocalTrack(webrtc.RTPCodecCapability{
		MimeType:  webrtc.MimeTypeOpus,
		ClockRate: uint32(webrtcSampleRate),
		Channels:  webrtcChannels,
	})
	if err != nil {
		room.Disconnect()
		return nil, domain.NewDomainError(err, domain.KindTransport, "create local audio track")
	}
	if _, err := room.LocalParticipant.PublishTrack(track, &lksdk.TrackPublicationOptions{
		Name:   "agent-audio",
		Source: livekit.TrackSource_MICROPHONE,
	}); err != nil {
		room.Disconnect()
		return nil, domain.NewDomainError(err, domain.KindTransport, "publish local audio track")
	}
	w.localTrack = track

	return w, nil
}

func (w *WebRTC) Kind() domain.CarrierKind { return domain.CarrierWebRTC }

func (w *WebRTC) Inbound() <-chan InboundEvent { return w.inbound }

// onTrackSubscribed starts a reader goroutine for one remote participant's
// audio track. The first call also emits CallAnswered.
func (w *WebRTC) onTrackSubscribed(track *webrtc.TrackRemote, _ *lksdk.TrackPublication, _ *lksdk.RemoteParticipant) {
	if track.Kind() != webrtc.RTPCodecTypeAudio {
		return
	}

	first := false
	w.answerOnce.Do(func() { first = true })
	if first {
		select {
		case w.inbound <- CallAnswered{CallID: w.callID, SampleRate: webrtcSampleRate}:
		case <-w.done:
			return
		}
	}

	for {
		packet, _, err := track.ReadRTP()
		if err != nil {
			select {
			case w.inbound <- CarrierClosed{Err: err}:
			case <-w.done:
			}
			return
		}

		pcm, err := w.codec.decode(packet.Payload)
		if err != nil {
			w.log.Warn("webrtc: dropping undecodable opus packet", "error", err)
			continue
		}
		pcm16k, err := audio.Resample(pcm, webrtcSampleRate, canonicalRate)
		if err != nil {
			w.log.Warn("webrtc: dropping unresamplable frame", "error", err)
			continue
		}

		select {
		case w.inbound <- AudioIn{PCM16k: pcm16k}:
		case <-w.done:
			return
		}
	}
}

// SendAudio resamples to 48kHz mono, encodes to Opus, and writes the
// resulting samples to the published local track.
func (w *WebRTC) SendAudio(pcm16k []byte) error {
	pcm48k, err := audio.Resample(pcm16k, canonicalRate, webrtcSampleRate)
	if err != nil {
		return err
	}
	samples, err := w.codec.encode(pcm48k)
	if err != nil {
		return err
	}

	w.mu.Lock()
	track := w.localTrack
	w.mu.Unlock()

	for _, sample := range samples {
		if err := track.WriteSample(sample, nil); err != nil {
			return domain.NewDomainError(err, domain.KindTransport, "write audio sample")
		}
	}
	return nil
}

type webrtcInterruptPayload struct {
	Type string `json:"type"`
}

// SendInterrupt publishes an unreliable data message; LiveKit has no media
// control-plane primitive for it.
func (w *WebRTC) SendInterrupt() error {
	data, err := json.Marshal(webrtcInterruptPayload{Type: "INTERRUPT"})
	if err != nil {
		return err
	}
	if err := w.room.LocalParticipant.PublishDataPacket(lksdk.UserData(data), lksdk.WithDataPublishReliable(false)); err != nil {
		return domain.NewDomainError(err, domain.KindTransport, "publish interrupt data packet")
	}
	return nil
}

func (w *WebRTC) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
		if w.room != nil {
			w.room.Disconnect()
		}
	})
	return nil
}
