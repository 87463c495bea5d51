package carrier

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priority-technologies/shreenika-voice-core/internal/audio"
	"github.com/priority-technologies/shreenika-voice-core/internal/domain"
)

func TestBrowser_FirstAudioFrameImplicitlyAnswers(t *testing.T) {
	pcm := silentPCM(4800) // 100ms at 48kHz
	energy := 12.5
	frame := map[string]any{
		"type":        "AUDIO",
		"callId":      "call-1",
		"audio":       audio.B64Encode(pcm),
		"energyLevel": energy,
	}
	raw, err := json.Marshal(frame)
	require.NoError(t, err)

	tr := newFakeTransport(raw)
	b := NewBrowser(tr, "", slog.Default())

	evt := drainOne(t, b.Inbound())
	ans, ok := evt.(CallAnswered)
	require.True(t, ok)
	assert.Equal(t, "call-1", ans.CallID)
	assert.Equal(t, 48000, ans.SampleRate)

	evt = drainOne(t, b.Inbound())
	audioIn, ok := evt.(AudioIn)
	require.True(t, ok)
	assert.Equal(t, len(pcm)*16000/48000, len(audioIn.PCM16k))
	require.NotNil(t, audioIn.Energy)
	assert.InDelta(t, energy, *audioIn.Energy, 0.001)
}

func TestBrowser_SubsequentAudioFramesDoNotReanswer(t *testing.T) {
	pcm := silentPCM(4800)
	mk := func() []byte {
		raw, _ := json.Marshal(map[string]any{
			"type":    "AUDIO",
			"callId":  "call-1",
			"audio":   audio.B64Encode(pcm),
		})
		return raw
	}
	tr := newFakeTransport(mk(), mk())
	b := NewBrowser(tr, "", slog.Default())

	drainOne(t, b.Inbound()) // CallAnswered
	drainOne(t, b.Inbound()) // first AudioIn

	evt := drainOne(t, b.Inbound())
	_, ok := evt.(AudioIn)
	assert.True(t, ok, "second frame should be AudioIn, not another CallAnswered")
}

func TestBrowser_InterruptFrameProducesNoInboundEvent(t *testing.T) {
	raw, _ := json.Marshal(map[string]any{"type": "INTERRUPT"})
	tr := newFakeTransport(raw)
	b := NewBrowser(tr, "call-1", slog.Default())

	evt := drainOne(t, b.Inbound())
	_, ok := evt.(CarrierClosed)
	assert.True(t, ok, "INTERRUPT alone yields no audio event, stream then ends")
}

func TestBrowser_SendAudioEmitsAudioFrame(t *testing.T) {
	tr := newFakeTransport()
	b := NewBrowser(tr, "call-1", slog.Default())

	pcm16k := silentPCM(1600)
	require.NoError(t, b.SendAudio(pcm16k))

	frames := tr.writtenFrames()
	require.Len(t, frames, 1)
	assert.Contains(t, string(frames[0]), `"type":"AUDIO"`)
}

func TestBrowser_SendInterruptEmitsInterruptFrame(t *testing.T) {
	tr := newFakeTransport()
	b := NewBrowser(tr, "call-1", slog.Default())

	require.NoError(t, b.SendInterrupt())

	frames := tr.writtenFrames()
	require.Len(t, frames, 1)
	assert.Equal(t, `{"type":"INTERRUPT"}`, string(frames[0]))
}

func TestBrowser_UnknownFrameTypeIsDropped(t *testing.T) {
	raw, _ := json.Marshal(map[string]any{"type": "BOGUS"})
	tr := newFakeTransport(raw)
	b := NewBrowser(tr, "call-1", slog.Default())

	evt := drainOne(t, b.Inbound())
	_, ok := evt.(CarrierClosed)
	assert.True(t, ok)
}

func TestBrowser_KindIsBrowser(t *testing.T) {
	b := NewBrowser(newFakeTransport(), "call-1", slog.Default())
	assert.Equal(t, domain.CarrierBrowser, b.Kind())
}
