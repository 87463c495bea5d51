package audio

import (
	"encoding/binary"
	"math"

	"github.com/priority-technologies/shreenika-voice-core/internal/domain"
)

// DefaultVoiceThreshold is the RMS threshold used when an agent's call
// policy does not override it (spec §4.1: "default ≈ 20 on the
// -32768..32767 absolute scale").
const DefaultVoiceThreshold = 20.0

// RMS computes the root-mean-square of 16-bit signed mono PCM samples on
// the absolute -32768..32767 scale, so thresholds stay reproducible across
// callers.
func RMS(pcm []byte) (float64, error) {
	if len(pcm)%2 != 0 {
		return 0, domain.NewDomainError(domain.ErrBadAudioFrame, domain.KindAudio, "odd-length PCM")
	}
	n := len(pcm) / 2
	if n == 0 {
		return 0, nil
	}

	var sumSquares float64
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		v := float64(s)
		sumSquares += v * v
	}
	return math.Sqrt(sumSquares / float64(n)), nil
}

// IsVoiceActive reports whether pcm's RMS energy exceeds threshold.
func IsVoiceActive(pcm []byte, threshold float64) (bool, error) {
	r, err := RMS(pcm)
	if err != nil {
		return false, err
	}
	return r > threshold, nil
}
