package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jinford/doc-copilot/internal/core/apperror"
	"github.com/jinford/doc-copilot/internal/core/chat"
	"github.com/jinford/doc-copilot/internal/core/chunk"
	"github.com/jinford/doc-copilot/internal/core/extract"
	"github.com/jinford/doc-copilot/internal/core/ingest"
	"github.com/jinford/doc-copilot/internal/core/retrieve"
	"github.com/jinford/doc-copilot/internal/infra/download"
	"github.com/jinford/doc-copilot/internal/infra/openai"
	"github.com/jinford/doc-copilot/internal/infra/postgres"
	"github.com/jinford/doc-copilot/internal/platform/config"
	"github.com/jinford/doc-copilot/internal/platform/logger"
	"github.com/jinford/doc-copilot/pkg/db"
)

// AppContext はコマンド実行に必要な共通コンテキストを保持する
type AppContext struct {
	Config   *config.Config
	Logger   *slog.Logger
	Database *db.DB

	Ingest   *ingest.Service
	Retrieve *retrieve.Service
	Chat     *chat.Service
	Fetcher  *download.Fetcher
}

// NewAppContext は設定ファイルを読み込み、DBに接続して AppContext を作成する
func NewAppContext(ctx context.Context, envFile string) (*AppContext, error) {
	// 設定の読み込み
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("設定の読み込みに失敗: %w", err)
	}

	if cfg.OpenAI.APIKey == "" {
		return nil, apperror.New(apperror.KindConfig, "OPENAI_API_KEY is not set")
	}

	// ロガーの初期化
	loggerCfg := logger.DefaultConfig()
	loggerCfg.Format = cfg.LogFormat
	appLogger := logger.New(loggerCfg)

	// データベース接続
	database, err := db.New(ctx, db.ConnectionParams{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	// ベクトルインデックスの初期化
	store := postgres.NewStore(database.Pool, cfg.OpenAI.EmbeddingDimension,
		postgres.WithListLimit(cfg.Retrieval.ListDocumentsLimit))
	if err := store.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("スキーマの初期化に失敗: %w", err)
	}

	// OpenAIクライアントの初期化
	clientOpts := []openai.ClientOption{openai.WithChatModel(cfg.OpenAI.ChatModel)}
	if cfg.OpenAI.BaseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	client, err := openai.NewClient(cfg.OpenAI.APIKey, clientOpts...)
	if err != nil {
		database.Close()
		return nil, err
	}

	embedder := openai.NewEmbedder(client,
		openai.WithEmbeddingModel(cfg.OpenAI.EmbeddingModel),
		openai.WithEmbeddingDimension(cfg.OpenAI.EmbeddingDimension),
		openai.WithParallelEmbedding(cfg.OpenAI.EmbedParallel),
	)

	// チャンカーと抽出器の初期化
	chunker, err := chunk.NewChunker(cfg.OpenAI.EmbeddingModel,
		cfg.Chunking.ChunkTokens, cfg.Chunking.OverlapTokens)
	if err != nil {
		database.Close()
		return nil, apperror.Wrap(apperror.KindConfig, "チャンク設定が不正です", err)
	}

	extractor := extract.New(extract.WithCSVRowMode(cfg.CSV.RowMode))

	// サービスの組み立て
	ingestSvc := ingest.NewService(extractor, chunker, embedder, store,
		ingest.WithLogger(appLogger),
		ingest.WithCSVBatchTokens(cfg.CSV.RowBatchTokens),
	)
	retrieveSvc := retrieve.NewService(store, retrieve.WithLogger(appLogger))
	chatSvc := chat.NewService(embedder, retrieveSvc, client,
		cfg.Retrieval.TopK, cfg.Retrieval.ContextMaxChunks,
		chat.WithLogger(appLogger),
	)

	fetcher := download.NewFetcher(
		download.WithTimeout(time.Duration(cfg.DownloadTimeoutSeconds) * time.Second))

	return &AppContext{
		Config:   cfg,
		Logger:   appLogger,
		Database: database,
		Ingest:   ingestSvc,
		Retrieve: retrieveSvc,
		Chat:     chatSvc,
		Fetcher:  fetcher,
	}, nil
}

// Close はAppContextが保持するリソースをクリーンアップする
func (ac *AppContext) Close() {
	if ac.Database != nil {
		ac.Database.Close()
	}
}
