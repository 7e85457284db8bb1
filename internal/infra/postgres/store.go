package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/jinford/doc-copilot/internal/core/ingest"
	"github.com/jinford/doc-copilot/internal/core/retrieve"
)

const (
	// UpsertBatchSize は1バッチで保存するチャンク数の上限
	UpsertBatchSize = 100

	// DefaultListLimit はドキュメント一覧取得のデフォルト上限
	DefaultListLimit = 100
)

// Store は pgvector を使用したチャンクのベクトルインデックス実装です
type Store struct {
	pool      *pgxpool.Pool
	dimension int
	listLimit int
}

// StoreOption は Store のオプション設定
type StoreOption func(*Store)

// WithListLimit はドキュメント一覧取得の上限件数を設定する
func WithListLimit(limit int) StoreOption {
	return func(s *Store) {
		s.listLimit = limit
	}
}

// NewStore は新しい Store を作成します
// dimension はチャンクEmbeddingの次元数で、スキーマのvector型と一致させる
func NewStore(pool *pgxpool.Pool, dimension int, opts ...StoreOption) *Store {
	store := &Store{
		pool:      pool,
		dimension: dimension,
		listLimit: DefaultListLimit,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// コンパイル時の型チェック
var (
	_ ingest.Store   = (*Store)(nil)
	_ retrieve.Store = (*Store)(nil)
)

// EnsureSchema はチャンクテーブルとインデックスを作成します
// 冪等であり、起動時に毎回呼び出しても安全です
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS document_chunks (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			filename TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			total_chunks INTEGER NOT NULL,
			uploaded_at TIMESTAMPTZ NOT NULL,
			is_first_chunk BOOLEAN NOT NULL DEFAULT FALSE,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, s.dimension),
		`CREATE INDEX IF NOT EXISTS idx_document_chunks_document_id ON document_chunks (document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_document_chunks_first_chunk ON document_chunks (uploaded_at DESC) WHERE is_first_chunk`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}

	return nil
}

// Upsert はチャンクレコードを UpsertBatchSize 件ずつ保存します
// 同一IDのレコードは上書きされます
func (s *Store) Upsert(ctx context.Context, records []ingest.ChunkRecord) error {
	for _, record := range records {
		if len(record.Embedding) != s.dimension {
			return fmt.Errorf("chunk %s: embedding dimension %d does not match index dimension %d",
				record.ID, len(record.Embedding), s.dimension)
		}
	}

	for start := 0; start < len(records); start += UpsertBatchSize {
		end := start + UpsertBatchSize
		if end > len(records) {
			end = len(records)
		}

		if err := s.upsertBatch(ctx, records[start:end]); err != nil {
			return fmt.Errorf("failed to upsert batch %d-%d: %w", start, end, err)
		}
	}

	return nil
}

func (s *Store) upsertBatch(ctx context.Context, records []ingest.ChunkRecord) error {
	batch := &pgx.Batch{}
	for _, record := range records {
		batch.Queue(`
			INSERT INTO document_chunks
				(id, document_id, filename, chunk_index, total_chunks, uploaded_at, is_first_chunk, content, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET
				document_id = EXCLUDED.document_id,
				filename = EXCLUDED.filename,
				chunk_index = EXCLUDED.chunk_index,
				total_chunks = EXCLUDED.total_chunks,
				uploaded_at = EXCLUDED.uploaded_at,
				is_first_chunk = EXCLUDED.is_first_chunk,
				content = EXCLUDED.content,
				embedding = EXCLUDED.embedding`,
			record.ID,
			record.DocumentID,
			record.Filename,
			record.ChunkIndex,
			record.TotalChunks,
			record.UploadedAt,
			record.IsFirstChunk,
			record.Text,
			pgvector.NewVector(record.Embedding),
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("chunk %s: %w", records[i].ID, err)
		}
	}

	return nil
}

// Query はコサイン類似度による類似検索を実行します
// documentIDs が空でない場合は対象ドキュメントを絞り込みます
// 結果はスコア降順（類似度が高い順）で返されます
func (s *Store) Query(ctx context.Context, vector []float32, topK int, documentIDs []string) ([]*retrieve.Result, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query vector dimension %d does not match index dimension %d",
			len(vector), s.dimension)
	}

	query, args := buildChunkQuery(pgvector.NewVector(vector), topK, documentIDs)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var results []*retrieve.Result
	for rows.Next() {
		var r retrieve.Result
		if err := rows.Scan(
			&r.ID,
			&r.DocumentID,
			&r.Filename,
			&r.ChunkIndex,
			&r.TotalChunks,
			&r.UploadedAt,
			&r.Text,
			&r.Score,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chunk rows: %w", err)
	}

	return results, nil
}

// buildChunkQuery は類似検索のSQLとバインドパラメータを組み立てる
func buildChunkQuery(vector pgvector.Vector, topK int, documentIDs []string) (string, []any) {
	query := `
		SELECT id, document_id, filename, chunk_index, total_chunks, uploaded_at, content,
			1 - (embedding <=> $1) AS score
		FROM document_chunks`
	args := []any{vector}

	if len(documentIDs) > 0 {
		query += ` WHERE document_id = ANY($2)`
		args = append(args, documentIDs)
	}

	args = append(args, topK)
	query += fmt.Sprintf(` ORDER BY embedding <=> $1 LIMIT $%d`, len(args))

	return query, args
}

// DeleteDocument は指定ドキュメントの全チャンクを削除します
// 該当チャンクが存在しない場合もエラーにはなりません
func (s *Store) DeleteDocument(ctx context.Context, documentID string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM document_chunks WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", documentID, err)
	}
	return nil
}

// ListDocuments は取り込み済みドキュメントの一覧を新しい順に返します
// 先頭チャンクをドキュメントの代表として集計し、上限件数で打ち切ります
func (s *Store) ListDocuments(ctx context.Context) ([]*ingest.Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT document_id, filename, total_chunks, uploaded_at
		FROM document_chunks
		WHERE is_first_chunk
		ORDER BY uploaded_at DESC
		LIMIT $1`, s.listLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*ingest.Document
	for rows.Next() {
		var doc ingest.Document
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.TotalChunks, &doc.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		docs = append(docs, &doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read document rows: %w", err)
	}

	return docs, nil
}
