package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFileType はサポートされていないファイル形式の場合に返されます
	// 抽出時のエラーのうち、呼び出し側の誤りとして扱うのはこれだけです
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

// Result は抽出結果を表します
// 通常はTextに線形テキストが入り、CSV行モードの場合のみRecordsに
// 行レコードが入ります（どちらか一方のみが設定される）
type Result struct {
	Text    string
	Records []string
}

// Extractor はファイル形式ごとのテキスト抽出を提供します
// ファイル名は拡張子によるハンドラ選択にのみ使用します
type Extractor struct {
	csvRowMode bool
}

// Option は Extractor のオプション設定
type Option func(*Extractor)

// WithCSVRowMode はCSVを行レコードとして抽出するモードを有効にする
func WithCSVRowMode(enabled bool) Option {
	return func(e *Extractor) {
		e.csvRowMode = enabled
	}
}

// New は新しい Extractor を作成します
func New(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract はファイルの生バイト列からテキストを抽出します
func (e *Extractor) Extract(content []byte, filename string) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".pdf":
		text, err := extractPDF(content)
		if err != nil {
			return nil, fmt.Errorf("pdf extraction failed: %w", err)
		}
		return &Result{Text: text}, nil

	case ".docx":
		text, err := extractDOCX(content)
		if err != nil {
			return nil, fmt.Errorf("docx extraction failed: %w", err)
		}
		return &Result{Text: text}, nil

	case ".pptx":
		text, err := extractPPTX(content)
		if err != nil {
			return nil, fmt.Errorf("pptx extraction failed: %w", err)
		}
		return &Result{Text: text}, nil

	case ".csv":
		if e.csvRowMode {
			records, err := extractCSVRows(content)
			if err != nil {
				return nil, fmt.Errorf("csv extraction failed: %w", err)
			}
			return &Result{Records: records}, nil
		}
		return &Result{Text: decodeText(content)}, nil

	case ".txt", ".md":
		return &Result{Text: decodeText(content)}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, filename)
	}
}
