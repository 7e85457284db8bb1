package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// extractDOCX はWordprocessingML本文から段落とテーブルを抽出します
// 本文段落を文書順に連結し、テーブルは1行を1ラインとしてセルをタブで結合し、
// 段落の後ろに追加する
func extractDOCX(content []byte) (string, error) {
	data, err := readZipFile(content, "word/document.xml")
	if err != nil {
		return "", err
	}

	paragraphs, tables, err := parseDocumentXML(data)
	if err != nil {
		return "", fmt.Errorf("failed to parse document.xml: %w", err)
	}

	parts := make([]string, 0, len(paragraphs))
	parts = append(parts, paragraphs...)

	for _, table := range tables {
		for _, row := range table {
			line := strings.TrimRight(strings.Join(row, "\t"), " \t")
			if strings.TrimSpace(line) != "" {
				parts = append(parts, line)
			}
		}
	}

	return strings.TrimSpace(strings.Join(parts, "\n")), nil
}

// parseDocumentXML は document.xml をストリーム走査して
// 本文直下の段落テキストとテーブル（テーブル→行→セル）を取り出します
func parseDocumentXML(data []byte) (paragraphs []string, tables [][][]string, err error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		tableDepth int
		inPara     bool
		para       strings.Builder
		inText     bool
	)

	appendCell := func(s string) {
		if len(tables) == 0 {
			return
		}
		t := tables[len(tables)-1]
		if len(t) == 0 {
			return
		}
		row := t[len(t)-1]
		if len(row) == 0 {
			return
		}
		row[len(row)-1] += s
	}

	for {
		tok, tokErr := dec.Token()
		if tokErr == io.EOF {
			break
		}
		if tokErr != nil {
			return nil, nil, tokErr
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
				if tableDepth == 1 {
					tables = append(tables, nil)
				}
			case "tr":
				if tableDepth == 1 {
					tables[len(tables)-1] = append(tables[len(tables)-1], nil)
				}
			case "tc":
				if tableDepth == 1 {
					ti := len(tables) - 1
					ri := len(tables[ti]) - 1
					tables[ti][ri] = append(tables[ti][ri], "")
				}
			case "p":
				if tableDepth == 0 {
					inPara = true
					para.Reset()
				}
			case "t":
				inText = true
			case "tab":
				if tableDepth == 0 && inPara {
					para.WriteString("\t")
				}
			case "br":
				if tableDepth == 0 && inPara {
					para.WriteString("\n")
				}
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth--
			case "p":
				if tableDepth == 0 && inPara {
					if text := strings.TrimSpace(para.String()); text != "" {
						paragraphs = append(paragraphs, text)
					}
					inPara = false
				} else if tableDepth > 0 {
					// セル内の段落区切り
					appendCell("\n")
				}
			case "t":
				inText = false
			}

		case xml.CharData:
			if !inText {
				continue
			}
			if tableDepth > 0 {
				appendCell(string(t))
			} else if inPara {
				para.Write(t)
			}
		}
	}

	// セル末尾の段落区切りを落とす
	for _, table := range tables {
		for _, row := range table {
			for i, cell := range row {
				row[i] = strings.TrimSpace(cell)
			}
		}
	}

	return paragraphs, tables, nil
}

// readZipFile はZIPアーカイブから指定パスのエントリを読み出します
func readZipFile(content []byte, name string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}

	return nil, fmt.Errorf("archive entry not found: %s", name)
}
