package modelsession

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/priority-technologies/shreenika-voice-core/internal/domain"
	"github.com/priority-technologies/shreenika-voice-core/shared/backoff"
)

// InitialSetupReconnectDelay is how long Connect waits before its one
// reconnect attempt after the first handshake's SetupTimeout (spec §7:
// "SetupTimeout (model) → one reconnect attempt").
const InitialSetupReconnectDelay = time.Second

// KnowledgeCharacterCeiling is the hard ceiling on the combined system
// instruction payload sent in setup (spec §4.3).
const KnowledgeCharacterCeiling = 20_000

// DefaultSetupTimeout bounds how long Connect waits for setupComplete.
const DefaultSetupTimeout = 10 * time.Second

// reconnectStrategy is the fixed 1s/2s/4s backoff the session uses on
// unexpected close (spec §4.3).
var reconnectStrategy = backoff.Custom(time.Second, 2*time.Second, 4*time.Second)

// Transport is the minimal message-socket contract Session needs. A
// *websocket.Conn satisfies it directly; tests supply a fake.
type Transport interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens a Transport to url. The default dials the model's streaming
// endpoint over gorilla/websocket.
type Dialer func(ctx context.Context, url string) (Transport, error)

func DefaultDialer(ctx context.Context, url string) (Transport, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, domain.NewDomainError(err, domain.KindTransport, "dial model session")
	}
	return conn, nil
}

// Config describes one Connect call.
type Config struct {
	URL                 string
	Model               string
	VoiceName           string
	SystemInstruction   string // ignored when CachedContentHandle is set and valid
	CachedContentHandle string
	SetupTimeout        time.Duration // default DefaultSetupTimeout
}

type setupMessage struct {
	Setup setupBody `json:"setup"`
}

type setupBody struct {
	Model             string            `json:"model"`
	GenerationConfig  generationConfig  `json:"generationConfig"`
	SystemInstruction *instructionBlock `json:"systemInstruction,omitempty"`
	CachedContent     string            `json:"cachedContent,omitempty"`
}

type generationConfig struct {
	ResponseModalities       []string     `json:"responseModalities"`
	SpeechConfig             speechConfig `json:"speechConfig"`
	InputAudioTranscription  *struct{}    `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *struct{}    `json:"outputAudioTranscription,omitempty"`
}

type speechConfig struct {
	PrebuiltVoiceConfig voiceConfig `json:"prebuiltVoiceConfig"`
}

type voiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type instructionBlock struct {
	Parts []instructionPart `json:"parts"`
}

type instructionPart struct {
	Text string `json:"text"`
}

type audioInputMessage struct {
	RealtimeInput realtimeInput `json:"realtimeInput"`
}

type realtimeInput struct {
	MediaChunks []mediaChunk `json:"mediaChunks"`
}

type mediaChunk struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type inboundMessage struct {
	SetupComplete  *struct{}         `json:"setupComplete,omitempty"`
	ServerContent  *serverContent    `json:"serverContent,omitempty"`
	ToolCallCancel *struct{}         `json:"toolCallCancellation,omitempty"`
}

type serverContent struct {
	ModelTurn           *modelTurn      `json:"modelTurn,omitempty"`
	TurnComplete        bool            `json:"turnComplete,omitempty"`
	Interrupted         bool            `json:"interrupted,omitempty"`
	InputTranscription  *transcriptText `json:"inputTranscription,omitempty"`
	OutputTranscription *transcriptText `json:"outputTranscription,omitempty"`
}

type transcriptText struct {
	Text string `json:"text"`
}

type modelTurn struct {
	Parts []turnPart `json:"parts"`
}

type turnPart struct {
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Session is one bidirectional streaming connection to the voice model.
type Session struct {
	dial Dialer
	log  *slog.Logger
	cfg  Config

	mu      sync.Mutex
	conn    Transport
	closing bool

	events chan Event
	done   chan struct{}

	closeOnce sync.Once
}

// Connect opens the channel and performs the setup handshake. It returns
// once setupComplete arrives or the setup timeout elapses.
func Connect(ctx context.Context, cfg Config, dial Dialer, log *slog.Logger) (*Session, error) {
	if dial == nil {
		dial = DefaultDialer
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.SetupTimeout <= 0 {
		cfg.SetupTimeout = DefaultSetupTimeout
	}

	s := &Session{
		dial:   dial,
		log:    log,
		cfg:    cfg,
		events: make(chan Event, 32),
		done:   make(chan struct{}),
	}

	conn, err := s.dialAndHandshake(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrSetupTimeout) {
			return nil, err
		}
		// First-connection setup timeouts get exactly one reconnect attempt
		// (spec §7 / scenario S4), distinct from readLoop's mid-session
		// backoff-and-retry-until-exhausted policy.
		s.log.Warn("modelsession: initial setup timed out, reconnecting once", "error", err)
		select {
		case <-time.After(InitialSetupReconnectDelay):
		case <-ctx.Done():
			return nil, err
		}
		conn, err = s.dialAndHandshake(ctx)
		if err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	go s.readLoop()
	s.events <- Ready{}

	return s, nil
}

// dialAndHandshake opens a fresh transport and blocks until setupComplete
// or the setup timeout.
func (s *Session) dialAndHandshake(ctx context.Context) (Transport, error) {
	conn, err := s.dial(ctx, s.cfg.URL)
	if err != nil {
		return nil, err
	}

	if err := s.sendSetup(conn); err != nil {
		conn.Close()
		return nil, err
	}

	if err := s.awaitSetupComplete(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return conn, nil
}

func (s *Session) sendSetup(conn Transport) error {
	body := setupBody{
		Model: s.cfg.Model,
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: speechConfig{
				PrebuiltVoiceConfig: voiceConfig{VoiceName: s.cfg.VoiceName},
			},
			// Both directions' transcripts are requested so the Conversation
			// Analyzer has text to classify without a separate ASR pass
			// (spec §4.5: "Inputs per analysis call: the latest user
			// utterance text").
			InputAudioTranscription:  &struct{}{},
			OutputAudioTranscription: &struct{}{},
		},
	}

	// Cache handle takes priority over inline instruction when both are
	// present (spec §4.3: "If both are present, only cachedContent is sent").
	if s.cfg.CachedContentHandle != "" && domain.ValidCacheHandle(s.cfg.CachedContentHandle) {
		body.CachedContent = s.cfg.CachedContentHandle
	} else {
		if s.cfg.CachedContentHandle != "" {
			s.log.Warn("modelsession: dropping malformed cache handle, falling back to inline instruction",
				"handle", s.cfg.CachedContentHandle)
		}
		if len(s.cfg.SystemInstruction) > KnowledgeCharacterCeiling {
			return domain.NewDomainError(domain.ErrPayloadTooLarge, domain.KindProtocol,
				"system instruction exceeds character ceiling")
		}
		if s.cfg.SystemInstruction != "" {
			body.SystemInstruction = &instructionBlock{
				Parts: []instructionPart{{Text: s.cfg.SystemInstruction}},
			}
		}
	}

	data, err := json.Marshal(setupMessage{Setup: body})
	if err != nil {
		return domain.NewDomainError(err, domain.KindProtocol, "marshal setup message")
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return domain.NewDomainError(err, domain.KindTransport, "write setup message")
	}
	return nil
}

func (s *Session) awaitSetupComplete(conn Transport) error {
	result := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				result <- domain.NewDomainError(err, domain.KindTransport, "read setup response")
				return
			}
			var msg inboundMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			if msg.SetupComplete != nil {
				result <- nil
				return
			}
		}
	}()

	select {
	case err := <-result:
		return err
	case <-time.After(s.cfg.SetupTimeout):
		return domain.NewDomainError(domain.ErrSetupTimeout, domain.KindTimeout, "setup did not complete in time")
	}
}

// SendAudio forwards one chunk of canonical 16kHz PCM16 audio. The session
// is the single writer.
func (s *Session) SendAudio(pcm16k []byte) error {
	s.mu.Lock()
	conn := s.conn
	closing := s.closing
	s.mu.Unlock()

	if closing || conn == nil {
		return domain.NewDomainError(domain.ErrSessionClosed, domain.KindProtocol, "session closed")
	}

	data, err := json.Marshal(audioInputMessage{
		RealtimeInput: realtimeInput{
			MediaChunks: []mediaChunk{{
				MimeType: "audio/pcm;rate=16000",
				Data:     base64.StdEncoding.EncodeToString(pcm16k),
			}},
		},
	})
	if err != nil {
		return domain.NewDomainError(err, domain.KindProtocol, "marshal audio input")
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return domain.NewDomainError(err, domain.KindTransport, "write audio input")
	}
	return nil
}

// Events returns the session's event stream. Closed when the session is
// fully torn down (after Close, or after reconnect exhaustion).
func (s *Session) Events() <-chan Event { return s.events }

// readLoop owns the current conn and feeds parsed events. On unexpected
// close it hands off to reconnect() unless Close() already ran.
func (s *Session) readLoop() {
	for {
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn == nil {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			closing := s.closing
			s.mu.Unlock()
			if closing {
				close(s.events)
				return
			}
			if s.reconnect() {
				continue
			}
			s.emit(FatalError{Kind: domain.KindTransport, Detail: "reconnect attempts exhausted"})
			close(s.events)
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Warn("modelsession: dropping malformed inbound message", "error", err)
			continue
		}
		s.dispatch(msg)
	}
}

func (s *Session) dispatch(msg inboundMessage) {
	if msg.ServerContent == nil {
		return
	}
	sc := msg.ServerContent

	if sc.Interrupted {
		s.emit(Interrupted{})
	}
	if sc.ModelTurn != nil {
		for _, part := range sc.ModelTurn.Parts {
			if part.InlineData == nil {
				continue
			}
			pcm, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				s.log.Warn("modelsession: dropping undecodable audio chunk", "error", err)
				continue
			}
			s.emit(AudioOut{PCM24k: pcm})
		}
	}
	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
		s.emit(InputTranscript{Text: sc.InputTranscription.Text})
	}
	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		s.emit(OutputTranscript{Text: sc.OutputTranscription.Text})
	}
	if sc.TurnComplete {
		s.emit(TurnComplete{})
	}
}

func (s *Session) emit(evt Event) {
	select {
	case s.events <- evt:
	case <-s.done:
	}
}

// reconnect implements the fixed backoff/attempt-cap policy, resending
// setup on every attempt (spec §4.3).
func (s *Session) reconnect() bool {
	var conn Transport
	err := backoff.Retry(context.Background(), reconnectStrategy, func(ctx context.Context, attempt int) error {
		s.mu.Lock()
		closing := s.closing
		s.mu.Unlock()
		if closing {
			return nil // stop retrying without treating it as success below
		}

		dialed, dialErr := s.dialAndHandshake(ctx)
		if dialErr != nil {
			s.log.Warn("modelsession: reconnect attempt failed", "attempt", attempt, "error", dialErr)
			return dialErr
		}
		conn = dialed
		return nil
	})

	s.mu.Lock()
	closing := s.closing
	s.mu.Unlock()
	if closing || err != nil || conn == nil {
		return false
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	s.emit(Ready{})
	return true
}

// Close gracefully tears down the session and suppresses auto-reconnect.
// Idempotent.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closing = true
		conn := s.conn
		s.mu.Unlock()

		close(s.done)
		if conn != nil {
			err = conn.Close()
		}
	})
	return err
}
