package hpack

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHuffmanEncoding(t *testing.T) {
	items := [][2]string{
		{"a8eb10649cbf", "no-cache"},
		{"f1e3c2e5f23a6ba0ab90f4ff", "www.example.com"},
		{"25a849e95ba97d7f", "custom-key"},
		{"25a849e95bb8e8b4bf", "custom-value"},
		{"6402", "302"},
	}

	for _, item := range items {
		expected, err := hex.DecodeString(item[0])
		require.NoError(t, err)
		assert.Equal(t, expected, HuffmanEncode([]byte(item[1])))
	}
}

func TestHuffmanDecoding(t *testing.T) {
	items := [][2]string{
		{"a8eb10649cbf", "no-cache"},
		{"f1e3c2e5f23a6ba0ab90f4ff", "www.example.com"},
		{"25a849e95ba97d7f", "custom-key"},
		{"25a849e95bb8e8b4bf", "custom-value"},
	}

	for _, item := range items {
		encoded, err := hex.DecodeString(item[0])
		require.NoError(t, err)
		decoded, err := HuffmanDecode(encoded)
		require.NoError(t, err)
		assert.Equal(t, item[1], string(decoded))
	}
}

func TestHuffmanBijection(t *testing.T) {
	samples := []string{
		"",
		"a",
		"GET",
		":method",
		"accept-encoding: gzip, deflate, br",
		"the quick brown fox jumps over the lazy dog 0123456789",
		string([]byte{0x00, 0x01, 0x02, 0xff, 0xfe, 'x', 'y', 'z'}),
	}
	for _, s := range samples {
		encoded := HuffmanEncode([]byte(s))
		decoded, err := HuffmanDecode(encoded)
		require.NoError(t, err)
		assert.Equal(t, s, string(decoded))
	}
}

func TestHuffmanDecodeRejectsNonPaddingTrailingBits(t *testing.T) {
	// "no-cache" Huffman-encodes to a8eb10649cbf; flipping the low bit of
	// the final octet from 1 to 0 turns valid all-ones padding into a
	// trailing bit pattern that is not a prefix of the EOS code.
	encoded, err := hex.DecodeString("a8eb10649cbe")
	require.NoError(t, err)
	_, err = HuffmanDecode(encoded)
	assert.ErrorIs(t, err, ErrHuffmanDecodeFailure)
}

func TestHuffmanDecodeRejectsEOSSymbol(t *testing.T) {
	// The EOS code is 30 one-bits (2^30-1): four octets of 0xff walk the
	// decode trie down the unique all-ones path, reaching the EOS leaf
	// after 30 bits, before the 2 trailing bits are even looked at.
	_, err := HuffmanDecode([]byte{0xff, 0xff, 0xff, 0xff})
	assert.ErrorIs(t, err, ErrHuffmanDecodeFailure)
}

func TestHuffmanDecodeRejectsNonOnesTrailingBits(t *testing.T) {
	// 0x00 decodes its first 5 bits (00000) as a valid 5-bit symbol, but
	// leaves 3 trailing zero bits. Trailing bits must be a prefix of the
	// all-ones EOS code; all-zero padding is not.
	_, err := HuffmanDecode([]byte{0x00})
	assert.ErrorIs(t, err, ErrHuffmanDecodeFailure)
}
