package apperror

import (
	"errors"
	"fmt"
)

// Kind はエラーの分類を表す
type Kind int

const (
	// KindUnknown は分類不能なエラー
	KindUnknown Kind = iota
	// KindConfig は設定不備によるエラー（認証情報の欠落など）。リトライ不可
	KindConfig
	// KindClient は呼び出し側の誤りによるエラー（未対応のファイル形式など）
	KindClient
	// KindUpstream は外部サービス呼び出しの失敗によるエラー
	KindUpstream
)

// Error は分類付きのアプリケーションエラーを表す
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New は分類付きエラーを作成する
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf はフォーマット付きで分類付きエラーを作成する
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap は既存のエラーを分類付きでラップする
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf はエラーチェーンから分類を取り出す
// 分類付きエラーが見つからない場合は KindUnknown を返す
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}
