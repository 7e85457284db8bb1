package chunk

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

var (
	// ErrInvalidChunkConfig はオーバーラップがチャンクサイズ以上の場合に返されます
	ErrInvalidChunkConfig = errors.New("overlap tokens must be less than chunk tokens")
)

// Chunker はテキストをトークン数ベースのオーバーラップ付きウィンドウに分割します
// Embeddingモデルと同じ語彙でトークン化するため、チャンク境界はモデルの
// 実際のトークン数に従います
type Chunker struct {
	encoder       *tiktoken.Tiktoken
	chunkTokens   int
	overlapTokens int
}

// NewChunker は新しいChunkerを作成します
// モデル固有のエンコーディングが見つからない場合は cl100k_base にフォールバックします
func NewChunker(model string, chunkTokens, overlapTokens int) (*Chunker, error) {
	if overlapTokens >= chunkTokens {
		return nil, fmt.Errorf("%w: chunk=%d overlap=%d", ErrInvalidChunkConfig, chunkTokens, overlapTokens)
	}

	encoder, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoder, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("failed to get tiktoken encoding: %w", err)
		}
	}

	return &Chunker{
		encoder:       encoder,
		chunkTokens:   chunkTokens,
		overlapTokens: overlapTokens,
	}, nil
}

// Split はテキストをチャンクに分割します
// 空のテキストは空のスライスを返し、全体が1チャンクに収まる場合はそのまま返します
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return nil
	}

	tokens := c.encoder.Encode(text, nil, nil)

	// 1チャンクに収まる場合はそのまま返す
	if len(tokens) <= c.chunkTokens {
		return []string{text}
	}

	var chunks []string
	start := 0

	for start < len(tokens) {
		end := start + c.chunkTokens
		if end > len(tokens) {
			end = len(tokens)
		}

		// デコード境界が空白のみに落ちることがあるため、空チャンクは捨てる
		chunkText := strings.TrimSpace(c.encoder.Decode(tokens[start:end]))
		if chunkText != "" {
			chunks = append(chunks, chunkText)
		}

		if end >= len(tokens) {
			break
		}

		start = end - c.overlapTokens
		if start < 0 {
			start = 0
		}
	}

	return chunks
}

// CountTokens はテキストのトークン数をカウントします
func (c *Chunker) CountTokens(text string) int {
	tokens := c.encoder.Encode(text, nil, nil)
	return len(tokens)
}
