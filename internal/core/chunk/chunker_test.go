package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChunkerRejectsOverlapNotLessThanSize(t *testing.T) {
	_, err := NewChunker("text-embedding-3-large", 100, 100)
	require.ErrorIs(t, err, ErrInvalidChunkConfig)

	_, err = NewChunker("text-embedding-3-large", 100, 150)
	require.ErrorIs(t, err, ErrInvalidChunkConfig)
}

func TestSplitEmptyInput(t *testing.T) {
	c, err := NewChunker("text-embedding-3-large", 100, 20)
	require.NoError(t, err)

	assert.Empty(t, c.Split(""))
	assert.Empty(t, c.Split("   \n\t  "))
	assert.Empty(t, c.Split("\r\n\r\n"))
}

func TestSplitShortTextReturnsSingleChunk(t *testing.T) {
	c, err := NewChunker("text-embedding-3-large", 100, 20)
	require.NoError(t, err)

	text := "hello world, this is a short document"
	chunks := c.Split(text)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplitNormalizesLineEndings(t *testing.T) {
	c, err := NewChunker("text-embedding-3-large", 100, 20)
	require.NoError(t, err)

	chunks := c.Split("line one\r\nline two\r\n")
	require.Len(t, chunks, 1)
	assert.Equal(t, "line one\nline two", chunks[0])
}

func TestSplitWindowProperties(t *testing.T) {
	const (
		chunkTokens   = 50
		overlapTokens = 10
	)

	c, err := NewChunker("text-embedding-3-large", chunkTokens, overlapTokens)
	require.NoError(t, err)

	// チャンクサイズを大きく超えるテキストを生成する
	words := make([]string, 400)
	for i := range words {
		words[i] = "word"
	}
	text := strings.Join(words, " ")
	require.Greater(t, c.CountTokens(text), chunkTokens)

	chunks := c.Split(text)
	require.Greater(t, len(chunks), 1)

	for _, chunk := range chunks {
		// 各チャンクはトークン上限以下
		assert.LessOrEqual(t, c.CountTokens(chunk), chunkTokens)
		// 空チャンクは返らない
		assert.NotEmpty(t, strings.TrimSpace(chunk))
	}

	// ウィンドウの前進保証: チャンク数は上限から計算できる数に収まる
	total := c.CountTokens(text)
	step := chunkTokens - overlapTokens
	maxChunks := total/step + 2
	assert.LessOrEqual(t, len(chunks), maxChunks)

	// 隣接チャンクはオーバーラップ分のトークンを共有する
	// （デコードで空白が調整されるため末尾・先頭のトークン列で検証する）
	first := c.encoder.Encode(chunks[0], nil, nil)
	second := c.encoder.Encode(chunks[1], nil, nil)
	overlapFromFirst := c.encoder.Decode(first[len(first)-overlapTokens:])
	overlapFromSecond := c.encoder.Decode(second[:overlapTokens])
	assert.Equal(t,
		strings.TrimSpace(overlapFromFirst),
		strings.TrimSpace(overlapFromSecond),
	)
}

func TestSplitCoversWholeInput(t *testing.T) {
	c, err := NewChunker("text-embedding-3-large", 30, 5)
	require.NoError(t, err)

	// 個別に識別可能なトークン列でカバレッジを検証する
	var sb strings.Builder
	for i := 0; i < 200; i++ {
		sb.WriteString("alpha beta gamma ")
	}
	text := strings.TrimSpace(sb.String())

	chunks := c.Split(text)
	require.NotEmpty(t, chunks)

	// 最終チャンクは元テキストの末尾を含む
	assert.True(t, strings.HasSuffix(text, "gamma"))
	assert.True(t, strings.HasSuffix(chunks[len(chunks)-1], "gamma"))
	// 先頭チャンクは元テキストの先頭を含む
	assert.True(t, strings.HasPrefix(chunks[0], "alpha"))
}

func TestSplitUnknownModelFallsBack(t *testing.T) {
	c, err := NewChunker("totally-unknown-model", 100, 20)
	require.NoError(t, err)

	chunks := c.Split("fallback encoding should still tokenize this")
	require.Len(t, chunks, 1)
}
