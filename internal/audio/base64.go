package audio

import (
	"encoding/base64"

	"github.com/priority-technologies/shreenika-voice-core/internal/domain"
)

// B64Encode encodes raw PCM bytes for wire transmission.
func B64Encode(pcm []byte) string {
	return base64.StdEncoding.EncodeToString(pcm)
}

// B64Decode decodes a base64 PCM payload. Invalid base64 fails with
// ErrBadAudioFrame; the caller (carrier adapter) drops the frame and
// increments a counter rather than propagating the error further.
func B64Decode(s string) ([]byte, error) {
	pcm, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, domain.NewDomainError(domain.ErrBadAudioFrame, domain.KindAudio, "invalid base64: "+err.Error())
	}
	return pcm, nil
}
