package chat

import (
	"context"
	"log/slog"

	"github.com/jinford/doc-copilot/internal/core/apperror"
	"github.com/jinford/doc-copilot/internal/core/retrieve"
)

// Embedder はクエリのEmbedding生成インターフェース
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator はテキスト生成インターフェース
type Generator interface {
	GenerateCompletion(ctx context.Context, req CompletionRequest) (string, error)
}

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 1000
)

// Service はRAGベースの質問応答を提供する
type Service struct {
	embedder  Embedder
	retriever *retrieve.Service
	generator Generator

	retrievalK int
	contextK   int
	logger     *slog.Logger
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
// retrievalK は類似検索の候補数、contextK はLLMに渡すチャンク数の上限
func NewService(embedder Embedder, retriever *retrieve.Service, generator Generator, retrievalK, contextK int, opts ...ServiceOption) *Service {
	svc := &Service{
		embedder:   embedder,
		retriever:  retriever,
		generator:  generator,
		retrievalK: retrievalK,
		contextK:   contextK,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc
}

// Ask は質問に対して検索済みコンテキストに基づく回答を生成する
func (s *Service) Ask(ctx context.Context, params Params) (*Result, error) {
	if params.Question == "" {
		return nil, apperror.New(apperror.KindClient, "message is required")
	}

	settings := DefaultSettings()
	if params.Settings != nil {
		settings = params.Settings.withDefaults()
	}

	// 1. 質問をEmbeddingに変換
	queryVector, err := s.embedder.Embed(ctx, params.Question)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUpstream, "query embedding failed", err)
	}

	// 2. コンテキストチャンクを検索
	sources, err := s.retriever.Retrieve(ctx, retrieve.Params{
		QueryVector: queryVector,
		MinScore:    settings.MinScore,
		RetrievalK:  s.retrievalK,
		ContextK:    s.contextK,
		DocumentIDs: params.DocumentIDs,
	})
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUpstream, "retrieval failed", err)
	}

	s.logger.Info("context retrieved",
		"question", params.Question,
		"chunks", len(sources),
	)

	// 3. メッセージを組み立てて回答を生成
	messages := BuildMessages(params.Question, retrieve.BuildContext(sources), params.History, settings.SystemPrompt)

	answer, err := s.generator.GenerateCompletion(ctx, CompletionRequest{
		Model:       settings.ChatModel,
		Messages:    messages,
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	})
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUpstream, "answer generation failed", err)
	}

	return &Result{
		Answer:  answer,
		Sources: sources,
	}, nil
}

// BuildMessages は生成リクエスト用のメッセージ列を組み立てる
// システムプロンプト、コンテキスト（または空コーパスの案内）、ロールが正当な
// 履歴、現在の質問の順に並べる
func BuildMessages(question, context string, history []Message, systemPrompt string) []Message {
	messages := []Message{{Role: RoleSystem, Content: systemPrompt}}

	if context != "" {
		messages = append(messages, Message{
			Role: RoleSystem,
			Content: "Here is relevant information from the uploaded documents:\n\n" +
				context +
				"\n\nUse this to answer the question. Cite sources when appropriate.",
		})
	} else {
		messages = append(messages, Message{
			Role: RoleSystem,
			Content: "No relevant documents were found. If needed, let the user know " +
				"they should upload relevant materials, but still try to help with general knowledge.",
		})
	}

	for _, msg := range history {
		switch msg.Role {
		case RoleSystem, RoleUser, RoleAssistant:
			messages = append(messages, msg)
		}
	}

	return append(messages, Message{Role: RoleUser, Content: question})
}
