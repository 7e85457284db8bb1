package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeTextStripsBOM(t *testing.T) {
	content := []byte("\xef\xbb\xbfhello")
	assert.Equal(t, "hello", decodeText(content))
}

func TestDecodeTextReplacesInvalidBytes(t *testing.T) {
	content := []byte("val\xffid")
	got := decodeText(content)
	assert.Contains(t, got, "val")
	assert.Contains(t, got, "id")
	assert.Contains(t, got, "�")
}

func TestDecodeTextPassesThroughUTF8(t *testing.T) {
	assert.Equal(t, "こんにちは", decodeText([]byte("こんにちは")))
}
