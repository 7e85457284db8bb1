package retrieve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Store はベクトルインデックスへの類似検索インターフェース
// 結果はスコア降順（高いほど類似）で返される
type Store interface {
	Query(ctx context.Context, vector []float32, topK int, documentIDs []string) ([]*Result, error)
}

// Service はスコア閾値と2段フォールバックによるコンテキスト選択を提供する
type Service struct {
	store  Store
	logger *slog.Logger
}

// ServiceOption は Service のオプション設定
type ServiceOption func(*Service)

// WithLogger は Service にロガーを設定する
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService は新しい Service を作成する
func NewService(store Store, opts ...ServiceOption) *Service {
	svc := &Service{
		store:  store,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc
}

// Params は検索パラメータを表す
type Params struct {
	QueryVector []float32
	// MinScore はコンテキストに採用する最低スコア
	MinScore float64
	// RetrievalK は類似検索で取得する候補数
	RetrievalK int
	// ContextK はコンテキストとして採用するチャンク数の上限
	ContextK int
	// DocumentIDs が空の場合は全ドキュメントを検索対象とする
	DocumentIDs []string
}

// Retrieve は候補を取得し、閾値とフォールバックでコンテキストを選択する
//
// 1. RetrievalK 件の候補を取得する
// 2. MinScore 以上の候補があれば、その上位 ContextK 件を返す
// 3. 閾値を超える候補がなければ、スコアに関係なく上位 max(3, ContextK/2) 件を返す
//    （コーパスが空でない限り生成に渡すコンテキストを必ず確保する）
// 4. 候補がまったくなければ空を返す（生成はコーパス空の前提で続行する）
func (s *Service) Retrieve(ctx context.Context, params Params) ([]*Result, error) {
	candidates, err := s.store.Query(ctx, params.QueryVector, params.RetrievalK, params.DocumentIDs)
	if err != nil {
		return nil, fmt.Errorf("similarity query failed: %w", err)
	}

	var relevant []*Result
	for _, c := range candidates {
		if c.Score >= params.MinScore {
			relevant = append(relevant, c)
		}
	}

	var selected []*Result
	switch {
	case len(relevant) > 0:
		selected = limit(relevant, params.ContextK)
	case len(candidates) > 0:
		fallbackK := params.ContextK / 2
		if fallbackK < 3 {
			fallbackK = 3
		}
		selected = limit(candidates, fallbackK)
		s.logger.Info("no candidates above min score, falling back to top results",
			"minScore", params.MinScore,
			"candidates", len(candidates),
			"selected", len(selected),
		)
	default:
		selected = nil
	}

	return selected, nil
}

// limit は検索順を保ったまま先頭 n 件に切り詰める
func limit(results []*Result, n int) []*Result {
	if n > 0 && len(results) > n {
		return results[:n]
	}
	return results
}

// BuildContext は選択済みチャンクを1つのコンテキスト文字列に整形する
// 検索順を保ったまま、各チャンクを出典付きで区切り線で結合する
func BuildContext(results []*Result) string {
	if len(results) == 0 {
		return ""
	}

	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("[Source: %s]\n%s", r.Filename, r.Text)
	}

	return strings.Join(parts, "\n\n---\n\n")
}
