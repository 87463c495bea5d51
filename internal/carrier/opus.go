package carrier

import (
	"bytes"
	"encoding/binary"

	"github.com/pion/webrtc/v4/pkg/media"
	"gopkg.in/hraban/opus.v2"

	"github.com/priority-technologies/shreenika-voice-core/internal/domain"
)

const (
	opusMaxFrameBytes    = 4000
	opusFrameDurationNs  = 20_000_000
	opusFramesPerSecond  = 50
	opusEncoderQuality   = 10
	bytesPerPCM16Sample  = 2
)

// opusCodec wraps an Opus encoder/decoder pair sized for one WebRTC leg.
// Adapted from the LiveKit audio converter: same frame math, rebuilt on
// domain errors instead of ad hoc fmt.Errorf.
type opusCodec struct {
	encoder    *opus.Encoder
	decoder    *opus.Decoder
	sampleRate int
	channels   int
	frameSize  int // samples per channel per 20ms frame
}

func newOpusCodec(sampleRate, channels int) (*opusCodec, error) {
	encoder, err := opus.NewEncoder(sampleRate, channels, opus.AppVoIP)
	if err != nil {
		return nil, domain.NewDomainError(err, domain.KindAudio, "create opus encoder")
	}
	encoder.SetBitrateToMax()
	encoder.SetComplexity(opusEncoderQuality)

	decoder, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, domain.NewDomainError(err, domain.KindAudio, "create opus decoder")
	}

	return &opusCodec{
		encoder:    encoder,
		decoder:    decoder,
		sampleRate: sampleRate,
		channels:   channels,
		frameSize:  sampleRate / opusFramesPerSecond,
	}, nil
}

// encode splits PCM16 little-endian audio into 20ms Opus frames, padding the
// final partial frame with silence.
func (c *opusCodec) encode(pcm []byte) ([]media.Sample, error) {
	if len(pcm) == 0 {
		return nil, domain.NewDomainError(domain.ErrBadAudioFrame, domain.KindAudio, "empty PCM input")
	}

	sampleCount := len(pcm) / bytesPerPCM16Sample
	pcmSamples := make([]int16, sampleCount)
	if err := binary.Read(bytes.NewReader(pcm), binary.LittleEndian, &pcmSamples); err != nil {
		return nil, domain.NewDomainError(err, domain.KindAudio, "decode PCM samples")
	}

	frameLen := c.frameSize * c.channels
	var samples []media.Sample
	for i := 0; i < len(pcmSamples); i += frameLen {
		end := i + frameLen
		frame := make([]int16, frameLen)
		if end > len(pcmSamples) {
			copy(frame, pcmSamples[i:])
		} else {
			copy(frame, pcmSamples[i:end])
		}

		out := make([]byte, opusMaxFrameBytes)
		n, err := c.encoder.Encode(frame, out)
		if err != nil {
			return nil, domain.NewDomainError(err, domain.KindAudio, "encode opus frame")
		}
		samples = append(samples, media.Sample{Data: out[:n], Duration: opusFrameDurationNs})
	}
	return samples, nil
}

// decode converts one Opus frame to PCM16 little-endian bytes.
func (c *opusCodec) decode(opusData []byte) ([]byte, error) {
	if len(opusData) == 0 {
		return nil, domain.NewDomainError(domain.ErrBadAudioFrame, domain.KindAudio, "empty opus frame")
	}

	pcmSamples := make([]int16, c.frameSize*c.channels)
	n, err := c.decoder.Decode(opusData, pcmSamples)
	if err != nil {
		return nil, domain.NewDomainError(err, domain.KindAudio, "decode opus frame")
	}

	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, pcmSamples[:n*c.channels]); err != nil {
		return nil, domain.NewDomainError(err, domain.KindAudio, "encode PCM samples")
	}
	return buf.Bytes(), nil
}
