package extract

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// yTolerance は同一行とみなす縦方向のゆらぎ（レイアウト単位）
// フォントメトリクス由来の微小なY座標のずれを吸収する
const yTolerance = 3.0

// textBlock はページ上のテキスト断片を表します
// Y は上から下に増える読み順座標に正規化済み
type textBlock struct {
	X, Y     float64
	W        float64
	FontSize float64
	Text     string
}

// extractPDF はPDFの各ページを座標付きテキスト断片として読み取り、
// y-tolerance による行グループ化と左→右の並べ替えで自然な読み順を再構成します
func extractPDF(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		pageText := extractPDFPage(reader, i)
		if pageText != "" {
			pages = append(pages, pageText)
		}
	}

	return strings.TrimSpace(strings.Join(pages, "\n\n")), nil
}

// extractPDFPage は1ページ分のテキストを抽出します
// 壊れたページはドキュメント全体を失敗させず個別にスキップします
func extractPDFPage(reader *pdf.Reader, pageNum int) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return ""
	}

	fragments := page.Content().Text

	blocks := make([]textBlock, 0, len(fragments))
	for _, f := range fragments {
		if strings.TrimSpace(f.S) == "" {
			continue
		}
		// PDFのユーザ空間はY軸が上向きなので反転して読み順座標にする
		blocks = append(blocks, textBlock{
			X:        f.X,
			Y:        -f.Y,
			W:        f.W,
			FontSize: f.FontSize,
			Text:     f.S,
		})
	}

	sortTextBlocks(blocks, yTolerance)

	return joinBlocks(blocks)
}

// sortTextBlocks はブロックを (Y/tolerance の行キー, X) で並べ替えます
// 同一行の断片をまとめつつ左から右の順序を保つ
func sortTextBlocks(blocks []textBlock, yTol float64) {
	sort.SliceStable(blocks, func(i, j int) bool {
		ri, rj := rowKey(blocks[i].Y, yTol), rowKey(blocks[j].Y, yTol)
		if ri != rj {
			return ri < rj
		}
		return blocks[i].X < blocks[j].X
	})
}

// rowKey はY座標を許容幅で量子化した行キーを返します
func rowKey(y, yTol float64) int {
	return int(math.Floor(y / yTol))
}

// joinBlocks は並べ替え済みブロックを行単位に結合します
// 行内は断片間のX方向ギャップに応じて空白を補い、行同士は改行で結合する
func joinBlocks(blocks []textBlock) string {
	if len(blocks) == 0 {
		return ""
	}

	var lines []string
	var line strings.Builder

	currentRow := rowKey(blocks[0].Y, yTolerance)
	prevEnd := math.Inf(-1)

	flush := func() {
		if s := strings.TrimRight(line.String(), " \t"); strings.TrimSpace(s) != "" {
			lines = append(lines, s)
		}
		line.Reset()
	}

	for _, b := range blocks {
		row := rowKey(b.Y, yTolerance)
		if row != currentRow {
			flush()
			currentRow = row
			prevEnd = math.Inf(-1)
		}

		if line.Len() > 0 {
			gap := b.X - prevEnd
			threshold := b.FontSize * 0.2
			if threshold <= 0 {
				threshold = 1.0
			}
			if gap > threshold {
				line.WriteString(" ")
			}
		}

		line.WriteString(b.Text)
		prevEnd = b.X + b.W
	}
	flush()

	return strings.TrimSpace(strings.Join(lines, "\n"))
}
