package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestB64RoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		{0x00},
		{0x01, 0x02, 0x03, 0x04},
		make([]byte, 4096),
	}
	for _, c := range cases {
		encoded := B64Encode(c)
		decoded, err := B64Decode(encoded)
		require.NoError(t, err)
		assert.Equal(t, c, decoded)
	}
}

func TestB64Decode_InvalidInputFails(t *testing.T) {
	_, err := B64Decode("not-valid-base64!!!")
	assert.Error(t, err)
}
