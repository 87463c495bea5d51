package audio

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constPCM(n int, value int16) []byte {
	out := make([]byte, n*2)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], uint16(value))
	}
	return out
}

func TestRMS_Silence(t *testing.T) {
	r, err := RMS(constPCM(100, 0))
	require.NoError(t, err)
	assert.Equal(t, 0.0, r)
}

func TestRMS_ConstantSignal(t *testing.T) {
	r, err := RMS(constPCM(100, 1000))
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, r, 0.01)
}

func TestRMS_OddLengthFails(t *testing.T) {
	_, err := RMS([]byte{0x01})
	assert.Error(t, err)
}

func TestIsVoiceActive(t *testing.T) {
	active, err := IsVoiceActive(constPCM(100, 1000), DefaultVoiceThreshold)
	require.NoError(t, err)
	assert.True(t, active)

	inactive, err := IsVoiceActive(constPCM(100, 5), DefaultVoiceThreshold)
	require.NoError(t, err)
	assert.False(t, inactive)
}
