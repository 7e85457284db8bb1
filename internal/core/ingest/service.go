package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jinford/doc-copilot/internal/core/apperror"
	"github.com/jinford/doc-copilot/internal/core/extract"
)

// Extractor はファイル形式ごとのテキスト抽出インターフェース
type Extractor interface {
	Extract(content []byte, filename string) (*extract.Result, error)
}

// Chunker はテキストのトークンベース分割インターフェース
type Chunker interface {
	Split(text string) []string
	CountTokens(text string) int
}

// Embedder はチャンク一括Embedding生成インターフェース
// 返り値の vectors[i] は texts[i] に対応していなければならない
type Embedder interface {
	EmbedAll(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Store はベクトルインデックスへの保存操作インターフェース
type Store interface {
	Upsert(ctx context.Context, records []ChunkRecord) error
	DeleteDocument(ctx context.Context, documentID string) error
	ListDocuments(ctx context.Context) ([]*Document, error)
}

// Service は1ドキュメントの取り込み（抽出→分割→Embedding→保存）を調整する
type Service struct {
	extractor      Extractor
	chunker        Chunker
	embedder       Embedder
	store          Store
	csvBatchTokens int
	logger         *slog.Logger
}

// ServiceOption は Service のオプション設定
type ServiceOption func(*Service)

// WithLogger は Service にロガーを設定する
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithCSVBatchTokens はCSV行レコードのバッチ目標トークン数を設定する
func WithCSVBatchTokens(tokens int) ServiceOption {
	return func(s *Service) {
		s.csvBatchTokens = tokens
	}
}

// NewService は新しい Service を作成する
func NewService(extractor Extractor, chunker Chunker, embedder Embedder, store Store, opts ...ServiceOption) *Service {
	svc := &Service{
		extractor:      extractor,
		chunker:        chunker,
		embedder:       embedder,
		store:          store,
		csvBatchTokens: 450,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc
}

// Ingest は1ドキュメントを取り込み、チャンクをベクトルインデックスに保存する
//
// 同名ファイルの既存ドキュメントは取り込み前に削除される（ファイル名がdedupキー）。
// 保存に失敗した場合は取り込み途中のチャンクを削除してから失敗を返すため、
// 部分的に保存されたドキュメントは残らない
func (s *Service) Ingest(ctx context.Context, content []byte, filename string) (*Result, error) {
	// 1. 抽出
	extracted, err := s.extractor.Extract(content, filename)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedFileType) {
			return nil, apperror.Wrap(apperror.KindClient, "unsupported file type", err)
		}
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	// 2. チャンク分割
	var texts []string
	if len(extracted.Records) > 0 {
		texts = batchRecords(extracted.Records, s.csvBatchTokens, s.chunker)
	} else {
		texts = s.chunker.Split(extracted.Text)
	}

	if len(texts) == 0 {
		return nil, apperror.New(apperror.KindClient, "no content to process")
	}

	// 3. 同名ファイルの既存ドキュメントを削除
	if err := s.deleteByFilename(ctx, filename); err != nil {
		return nil, err
	}

	// 4. Embedding生成（vectors[i] と texts[i] の対応は embedder が保証する）
	embeddings, err := s.embedder.EmbedAll(ctx, texts)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUpstream, "embedding generation failed", err)
	}

	if len(embeddings) != len(texts) {
		return nil, apperror.Newf(apperror.KindUpstream,
			"embedding count mismatch: got %d for %d chunks", len(embeddings), len(texts))
	}

	// 5. ドキュメントIDの割り当てとレコード構築
	documentID := GenerateDocumentID()
	uploadedAt := time.Now().UTC()

	records := make([]ChunkRecord, len(texts))
	for i, text := range texts {
		records[i] = ChunkRecord{
			ID:           ChunkKey(documentID, i),
			DocumentID:   documentID,
			Filename:     filename,
			ChunkIndex:   i,
			TotalChunks:  len(texts),
			UploadedAt:   uploadedAt,
			IsFirstChunk: i == 0,
			Text:         text,
			Embedding:    embeddings[i],
		}
	}

	// 6. 保存（失敗時は取り込み途中のチャンクを削除して原子性を回復する）
	if err := s.store.Upsert(ctx, records); err != nil {
		if delErr := s.store.DeleteDocument(ctx, documentID); delErr != nil {
			s.logger.Error("failed to roll back partial ingestion",
				"documentID", documentID, "error", delErr)
		}
		return nil, apperror.Wrap(apperror.KindUpstream, "chunk storage failed", err)
	}

	s.logger.Info("document ingested",
		"documentID", documentID,
		"filename", filename,
		"chunks", len(texts),
	)

	return &Result{
		DocumentID: documentID,
		Filename:   filename,
		Chunks:     len(texts),
	}, nil
}

// Delete は指定ドキュメントの全チャンクを削除する
func (s *Service) Delete(ctx context.Context, documentID string) error {
	if documentID == "" {
		return apperror.New(apperror.KindClient, "document id is required")
	}
	if err := s.store.DeleteDocument(ctx, documentID); err != nil {
		return apperror.Wrap(apperror.KindUpstream, "document deletion failed", err)
	}
	return nil
}

// List は取り込み済みドキュメントの一覧を返す
func (s *Service) List(ctx context.Context) ([]*Document, error) {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUpstream, "document listing failed", err)
	}
	return docs, nil
}

// deleteByFilename は同じファイル名を持つ既存ドキュメントを削除する
func (s *Service) deleteByFilename(ctx context.Context, filename string) error {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return apperror.Wrap(apperror.KindUpstream, "document listing failed", err)
	}

	for _, doc := range docs {
		if doc.Filename != filename {
			continue
		}
		s.logger.Info("deleting existing document with same filename",
			"documentID", doc.ID, "filename", filename)
		if err := s.store.DeleteDocument(ctx, doc.ID); err != nil {
			return apperror.Wrap(apperror.KindUpstream, "failed to delete existing document", err)
		}
	}

	return nil
}

// batchRecords は行レコードを目標トークン数ごとのチャンクにまとめる
func batchRecords(records []string, targetTokens int, counter Chunker) []string {
	var (
		chunks        []string
		current       []string
		currentTokens int
	)

	for _, record := range records {
		recordTokens := counter.CountTokens(record)

		if currentTokens+recordTokens > targetTokens && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n"))
			current = []string{record}
			currentTokens = recordTokens
		} else {
			current = append(current, record)
			currentTokens += recordTokens
		}
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n"))
	}

	return chunks
}
