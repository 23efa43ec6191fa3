package textio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeUTF8_StripsBOM(t *testing.T) {
	bom := []byte{0xEF, 0xBB, 0xBF}
	content := append(append([]byte{}, bom...), []byte("hello")...)

	got, err := DecodeUTF8(content)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestDecodeUTF8_NoBOM(t *testing.T) {
	got, err := DecodeUTF8([]byte("plain text"))
	require.NoError(t, err)
	assert.Equal(t, "plain text", got)
}

func TestDecodeUTF8_InvalidSequenceRejected(t *testing.T) {
	invalid := []byte{0xff, 0xfe, 0xfd}
	_, err := DecodeUTF8(invalid)
	assert.Error(t, err)
}
