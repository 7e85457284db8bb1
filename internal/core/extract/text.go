package extract

import (
	"strings"
	"unicode/utf8"
)

// utf8BOM はUTF-8のバイトオーダーマーク
const utf8BOM = "\xef\xbb\xbf"

// decodeText はバイト列をUTF-8テキストとしてデコードします
// BOMを許容し、不正なバイト列は失敗させずに置換文字に差し替えます
func decodeText(content []byte) string {
	s := strings.TrimPrefix(string(content), utf8BOM)
	if utf8.ValidString(s) {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		// range over string は不正なバイトを RuneError として返す
		sb.WriteRune(r)
	}
	return sb.String()
}
