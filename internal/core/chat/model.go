package chat

import "github.com/jinford/doc-copilot/internal/core/retrieve"

// ロール定数（これ以外のロールを持つ履歴メッセージは無視される）
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message は会話メッセージを表す
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Settings はチャットと検索の調整パラメータを表す
type Settings struct {
	ChatModel string `json:"chat_model"`
	// TopK は旧クライアントとの互換のために受け付けるが、検索には
	// サービス側の RetrievalK / ContextK 設定を使用する
	TopK         int     `json:"top_k"`
	MinScore     float64 `json:"min_score"`
	SystemPrompt string  `json:"system_prompt"`
}

// DefaultSettings はデフォルトのチャット設定を返す
func DefaultSettings() Settings {
	return Settings{
		ChatModel:    "gpt-4o-mini",
		TopK:         15,
		MinScore:     0.3,
		SystemPrompt: "You are a helpful AI assistant.",
	}
}

// withDefaults は未指定のフィールドをデフォルト値で補完した設定を返す
// 部分的な設定だけを送るクライアントが閾値やプロンプトを失わないようにする
func (s Settings) withDefaults() Settings {
	def := DefaultSettings()
	if s.ChatModel == "" {
		s.ChatModel = def.ChatModel
	}
	if s.TopK == 0 {
		s.TopK = def.TopK
	}
	if s.MinScore == 0 {
		s.MinScore = def.MinScore
	}
	if s.SystemPrompt == "" {
		s.SystemPrompt = def.SystemPrompt
	}
	return s
}

// Params は質問応答のパラメータを表す
type Params struct {
	Question string
	History  []Message
	Settings *Settings
	// DocumentIDs が空の場合は全ドキュメントを検索対象とする
	DocumentIDs []string
}

// Result は質問応答の結果を表す
type Result struct {
	Answer  string             `json:"answer"`
	Sources []*retrieve.Result `json:"sources"`
}

// CompletionRequest はテキスト生成リクエストを表す
type CompletionRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}
