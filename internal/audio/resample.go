// Package audio implements the Audio Codec: linear PCM resampling between
// canonical sample rates, RMS energy, voice-activity detection, and base64
// framing. It never makes policy decisions — callers (carrier adapters,
// hedge playback) decide what to do with a BadAudioFrame.
package audio

import (
	"encoding/binary"

	"github.com/priority-technologies/shreenika-voice-core/internal/domain"
)

// CanonicalRates are the sample rates this system resamples between. Only
// the pairs actually exercised by the carrier/model/filler pipeline are
// required to be accurate; resample is defined for any pair of these rates.
const (
	Rate8k    = 8000
	Rate16k   = 16000
	Rate24k   = 24000
	Rate44_1k = 44100
	Rate48k   = 48000
)

// Resample performs piecewise-linear interpolation on 16-bit signed mono PCM
// from srcRate to dstRate. Output length is floor(inSamples * dstRate /
// srcRate). Output sample i sits at source position i*srcRate/dstRate: the
// integer part picks the lower neighbour, the fractional part weights the
// interpolation toward the next sample, and positions at or past the last
// source sample repeat it.
func Resample(pcm []byte, srcRate, dstRate int) ([]byte, error) {
	if len(pcm)%2 != 0 {
		return nil, domain.NewDomainError(domain.ErrBadAudioFrame, domain.KindAudio, "odd-length PCM")
	}
	if srcRate <= 0 || dstRate <= 0 {
		return nil, domain.NewDomainError(domain.ErrBadAudioFrame, domain.KindAudio, "non-positive sample rate")
	}
	if srcRate == dstRate {
		out := make([]byte, len(pcm))
		copy(out, pcm)
		return out, nil
	}

	inSamples := len(pcm) / 2
	src := make([]int16, inSamples)
	for i := range src {
		src[i] = int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
	}

	outSamples := inSamples * dstRate / srcRate
	dst := make([]int16, outSamples)

	for i := 0; i < outSamples; i++ {
		// Position in source-sample units, as a fraction.
		srcPosNum := int64(i) * int64(srcRate)
		srcIdx := int(srcPosNum / int64(dstRate))
		frac := float64(srcPosNum%int64(dstRate)) / float64(dstRate)

		if srcIdx >= inSamples-1 {
			dst[i] = src[inSamples-1]
			continue
		}
		a := float64(src[srcIdx])
		b := float64(src[srcIdx+1])
		dst[i] = int16(a + (b-a)*frac)
	}

	out := make([]byte, len(dst)*2)
	for i, s := range dst {
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], uint16(s))
	}
	return out, nil
}
