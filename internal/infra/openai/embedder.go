package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"golang.org/x/sync/errgroup"

	"github.com/jinford/doc-copilot/internal/core/chat"
	"github.com/jinford/doc-copilot/internal/core/ingest"
)

const (
	// DefaultEmbeddingModel はデフォルトのEmbeddingモデル
	DefaultEmbeddingModel = "text-embedding-3-large"

	// DefaultEmbeddingDimension はデフォルトのEmbedding次元数
	DefaultEmbeddingDimension = 1024

	// MaxBatchSize は1リクエストに含めるテキストの最大数
	MaxBatchSize = 100

	// MaxParallelEmbeddings は並列モード時の同時リクエスト数の上限
	MaxParallelEmbeddings = 8
)

// Embedder は OpenAI API を使用したEmbedding生成実装
type Embedder struct {
	client    *Client
	model     string
	dimension int
	parallel  bool
}

// EmbedderOption は Embedder のオプション設定
type EmbedderOption func(*Embedder)

// WithEmbeddingModel はEmbeddingモデルを上書きする
func WithEmbeddingModel(model string) EmbedderOption {
	return func(e *Embedder) {
		e.model = model
	}
}

// WithEmbeddingDimension はEmbeddingの次元数を上書きする
func WithEmbeddingDimension(dimension int) EmbedderOption {
	return func(e *Embedder) {
		e.dimension = dimension
	}
}

// WithParallelEmbedding は一括Embedding時にテキストごとの並列リクエストを使用する
// バッチリクエストより多くのAPIコールを発行するが、巨大な入力でも
// 1リクエストのペイロード上限に当たらない
func WithParallelEmbedding(parallel bool) EmbedderOption {
	return func(e *Embedder) {
		e.parallel = parallel
	}
}

// NewEmbedder は新しい Embedder を作成する
func NewEmbedder(client *Client, opts ...EmbedderOption) *Embedder {
	emb := &Embedder{
		client:    client,
		model:     DefaultEmbeddingModel,
		dimension: DefaultEmbeddingDimension,
		parallel:  true,
	}

	for _, opt := range opts {
		opt(emb)
	}

	return emb
}

// Dimension はEmbeddingの次元数を返す
func (e *Embedder) Dimension() int {
	return e.dimension
}

// Embed は単一テキストのEmbeddingを生成する
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
		Dimensions: openai.Int(int64(e.dimension)),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding API call failed: %w", err)
	}

	if len(resp.Data) != 1 {
		return nil, fmt.Errorf("unexpected embedding count: got %d, want 1", len(resp.Data))
	}

	return e.toVector(resp.Data[0].Embedding)
}

// EmbedAll は複数テキストのEmbeddingを入力順で生成する
// vectors[i] は texts[i] に対応する
func (e *Embedder) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if e.parallel {
		return e.embedParallel(ctx, texts)
	}

	return e.embedBatched(ctx, texts)
}

// embedParallel はテキストごとに並列でEmbeddingを生成する
// 完了順に依存せず、結果はインデックスで入力順に揃えられる
func (e *Embedder) embedParallel(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(MaxParallelEmbeddings)

	for i, text := range texts {
		eg.Go(func() error {
			vector, err := e.Embed(ctx, text)
			if err != nil {
				return fmt.Errorf("embedding for chunk %d failed: %w", i, err)
			}
			vectors[i] = vector
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return vectors, nil
}

// embedBatched は MaxBatchSize 件ずつのバッチリクエストでEmbeddingを生成する
func (e *Embedder) embedBatched(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += MaxBatchSize {
		end := start + MaxBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		resp, err := e.client.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Model: openai.EmbeddingModel(e.model),
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts[start:end],
			},
			Dimensions: openai.Int(int64(e.dimension)),
		})
		if err != nil {
			return nil, fmt.Errorf("embedding batch %d-%d failed: %w", start, end, err)
		}

		if len(resp.Data) != end-start {
			return nil, fmt.Errorf("embedding batch %d-%d: got %d vectors, want %d",
				start, end, len(resp.Data), end-start)
		}

		for _, data := range resp.Data {
			vector, err := e.toVector(data.Embedding)
			if err != nil {
				return nil, err
			}
			vectors = append(vectors, vector)
		}
	}

	return vectors, nil
}

// toVector はAPIのfloat64ベクトルをfloat32に変換し、次元数を検証する
func (e *Embedder) toVector(embedding []float64) ([]float32, error) {
	if len(embedding) != e.dimension {
		return nil, fmt.Errorf("unexpected embedding dimension: got %d, want %d", len(embedding), e.dimension)
	}

	vector := make([]float32, len(embedding))
	for i, v := range embedding {
		vector[i] = float32(v)
	}

	return vector, nil
}

// インターフェース実装の確認
var (
	_ ingest.Embedder = (*Embedder)(nil)
	_ chat.Embedder   = (*Embedder)(nil)
)
