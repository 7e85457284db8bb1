package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	t.Run("分類付きエラーから分類を取り出す", func(t *testing.T) {
		err := New(KindClient, "bad input")
		assert.Equal(t, KindClient, KindOf(err))
	})

	t.Run("ラップされた分類付きエラーからも分類を取り出せる", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", Wrap(KindUpstream, "api failed", errors.New("boom")))
		assert.Equal(t, KindUpstream, KindOf(err))
	})

	t.Run("分類のないエラーはKindUnknownを返す", func(t *testing.T) {
		assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
		assert.Equal(t, KindUnknown, KindOf(nil))
	})
}

func TestError(t *testing.T) {
	t.Run("ラップしたエラーをメッセージに含める", func(t *testing.T) {
		err := Wrap(KindUpstream, "api failed", errors.New("boom"))
		assert.Equal(t, "api failed: boom", err.Error())
	})

	t.Run("ラップ元のエラーをerrors.Isで辿れる", func(t *testing.T) {
		cause := errors.New("boom")
		err := Wrap(KindUpstream, "api failed", cause)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("Newfはフォーマットしたメッセージを持つ", func(t *testing.T) {
		err := Newf(KindClient, "unsupported type: %s", ".xlsx")
		assert.Equal(t, "unsupported type: .xlsx", err.Error())
	})
}
