package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// Database設定
	Database DatabaseConfig

	// OpenAI設定（Embeddings + Chat）
	OpenAI OpenAIConfig

	// チャンク分割設定
	Chunking ChunkingConfig

	// 検索設定
	Retrieval RetrievalConfig

	// CSV行レコード抽出設定
	CSV CSVConfig

	// HTTPサーバ設定
	HTTPAddr string

	// URLダウンロードのタイムアウト（秒）
	DownloadTimeoutSeconds int

	// ログ出力形式（"json" or "text"）
	LogFormat string
}

// DatabaseConfig はデータベース接続設定
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// OpenAIConfig はOpenAI API設定
type OpenAIConfig struct {
	APIKey             string
	BaseURL            string
	EmbeddingModel     string
	EmbeddingDimension int
	ChatModel          string
	// EmbedParallel が true の場合、Embedding生成をテキストごとの
	// 並行リクエストで行う（バッチAPIを拒否するゲートウェイ環境向け）
	EmbedParallel bool
}

// ChunkingConfig はトークンベースのチャンク分割設定
type ChunkingConfig struct {
	ChunkTokens   int
	OverlapTokens int
}

// RetrievalConfig は検索・コンテキスト構築の設定
type RetrievalConfig struct {
	// TopK は類似検索で取得する候補数
	TopK int
	// ContextMaxChunks はLLMに渡すチャンク数の上限
	ContextMaxChunks int
	// MinScore はコンテキストに採用する最低スコア
	MinScore float64
	// ListDocumentsLimit はドキュメント一覧取得の上限件数
	ListDocumentsLimit int
}

// CSVConfig はCSVの行レコード抽出設定
type CSVConfig struct {
	// RowMode が true の場合、CSVをプレーンテキストではなく
	// 行レコード（"Col: val | Col: val"）のバッチとして抽出する
	RowMode bool
	// RowBatchTokens は1チャンクにまとめる行バッチの目標トークン数
	RowBatchTokens int
}

// Load は環境変数または.envファイルから設定を読み込みます
func Load(envFilePath string) (*Config, error) {
	// .envファイルが存在する場合は読み込む
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			// ファイルが存在しない場合はエラーとしない（環境変数のみで動作可能）
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "copilot"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "copilot"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		OpenAI: OpenAIConfig{
			APIKey:             getEnv("OPENAI_API_KEY", ""),
			BaseURL:            getEnv("OPENAI_BASE_URL", ""),
			EmbeddingModel:     getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-large"),
			EmbeddingDimension: getEnvAsInt("OPENAI_EMBEDDING_DIMENSION", 1024),
			ChatModel:          getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			EmbedParallel:      getEnvAsBool("OPENAI_EMBED_PARALLEL", true),
		},
		Chunking: ChunkingConfig{
			ChunkTokens:   getEnvAsInt("CHUNK_TOKENS", 800),
			OverlapTokens: getEnvAsInt("CHUNK_OVERLAP_TOKENS", 150),
		},
		Retrieval: RetrievalConfig{
			TopK:               getEnvAsInt("RETRIEVAL_TOP_K", 20),
			ContextMaxChunks:   getEnvAsInt("CONTEXT_MAX_CHUNKS", 8),
			MinScore:           getEnvAsFloat("MIN_SCORE", 0.25),
			ListDocumentsLimit: getEnvAsInt("LIST_DOCUMENTS_LIMIT", 100),
		},
		CSV: CSVConfig{
			RowMode:        getEnvAsBool("CSV_ROW_MODE", false),
			RowBatchTokens: getEnvAsInt("CSV_ROW_BATCH_TOKENS", 450),
		},
		HTTPAddr:               getEnv("HTTP_ADDR", ":8000"),
		DownloadTimeoutSeconds: getEnvAsInt("DOWNLOAD_TIMEOUT_SECONDS", 300),
		LogFormat:              getEnv("LOG_FORMAT", "json"),
	}

	return cfg, nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt は環境変数を整数として取得します
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat は環境変数を浮動小数点数として取得します
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool は環境変数を真偽値として取得します
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
