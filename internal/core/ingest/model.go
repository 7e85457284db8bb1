package ingest

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Document は取り込み済みドキュメントを表す
// 取り込み完了時に生成され、以後は不変（明示的な削除か同名上書きでのみ消える）
type Document struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	TotalChunks int       `json:"chunks"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// ChunkRecord はベクトルインデックスに保存する1チャンク分のレコードを表す
// すべてのフィールドが保存時に揃っていることを前提とする（部分更新はない）
type ChunkRecord struct {
	// ID はドキュメントIDとチャンク位置から決定的に導出される識別子
	ID           string
	DocumentID   string
	Filename     string
	ChunkIndex   int
	TotalChunks  int
	UploadedAt   time.Time
	IsFirstChunk bool
	Text         string
	Embedding    []float32
}

// Result は1回の取り込み結果を表す
type Result struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Chunks     int    `json:"chunks"`
}

const docIDLetters = "abcdefghijklmnopqrstuvwxyz"

// GenerateDocumentID は時刻シード＋ランダムサフィックスのドキュメントIDを生成する
func GenerateDocumentID() string {
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = docIDLetters[rand.IntN(len(docIDLetters))]
	}
	return fmt.Sprintf("doc_%d_%s", time.Now().Unix(), suffix)
}

// ChunkKey はドキュメントIDとチャンク位置からチャンク識別子を導出する
func ChunkKey(documentID string, chunkIndex int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, chunkIndex)
}
