package retrieve

import "time"

// Result はベクトル検索の1件分の結果を表す
// クエリスコープの一時データであり、永続化はしない
type Result struct {
	ID          string    `json:"id"`
	Score       float64   `json:"score"`
	Text        string    `json:"text"`
	Filename    string    `json:"filename"`
	DocumentID  string    `json:"document_id"`
	ChunkIndex  int       `json:"chunk_index"`
	TotalChunks int       `json:"total_chunks"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
