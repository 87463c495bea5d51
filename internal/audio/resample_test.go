package audio

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(n int, rate float64) []byte {
	out := make([]byte, n*2)
	for i := 0; i < n; i++ {
		v := int16(8000 * math.Sin(2*math.Pi*200*float64(i)/rate))
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], uint16(v))
	}
	return out
}

func TestResample_Lengths(t *testing.T) {
	cases := []struct {
		srcRate, dstRate int
	}{
		{44100, 16000},
		{48000, 16000},
		{24000, 8000},
		{24000, 48000},
		{8000, 16000},
		{16000, 8000},
	}

	for _, c := range cases {
		src := sine(1000, float64(c.srcRate))
		dst, err := Resample(src, c.srcRate, c.dstRate)
		require.NoError(t, err)

		inSamples := len(src) / 2
		wantOut := inSamples * c.dstRate / c.srcRate
		assert.Equal(t, wantOut, len(dst)/2)
	}
}

func TestResample_SameRateIsCopy(t *testing.T) {
	src := sine(500, 16000)
	dst, err := Resample(src, 16000, 16000)
	require.NoError(t, err)
	assert.Equal(t, src, dst)
}

func TestResample_RoundTripPreservesLengthWithinOneSample(t *testing.T) {
	rates := []int{8000, 16000, 24000, 44100, 48000}
	for _, a := range rates {
		for _, b := range rates {
			if a == b {
				continue
			}
			src := sine(2000, float64(a))
			mid, err := Resample(src, a, b)
			require.NoError(t, err)
			back, err := Resample(mid, b, a)
			require.NoError(t, err)

			diff := len(src)/2 - len(back)/2
			if diff < 0 {
				diff = -diff
			}
			assert.LessOrEqual(t, diff, 1, "round trip %d->%d->%d", a, b, a)
		}
	}
}

func TestResample_OddLengthFails(t *testing.T) {
	_, err := Resample([]byte{0x01, 0x02, 0x03}, 16000, 8000)
	assert.Error(t, err)
}

func TestResample_NonPositiveRateFails(t *testing.T) {
	_, err := Resample(sine(10, 16000), 0, 8000)
	assert.Error(t, err)
}
