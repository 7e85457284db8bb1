package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var slidePathPattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// extractPPTX はPresentationMLからスライドごとのテキストを抽出します
// スライド順にスライド境界マーカー、テキストフレーム、表、スピーカーノートを
// 並べ、テキストを持たないスライドは結果から除外する
func extractPPTX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}

	slides, err := listSlides(zr)
	if err != nil {
		return "", err
	}

	var slidesOut []string
	for i, slide := range slides {
		data, err := readZipFile(content, slide)
		if err != nil {
			return "", err
		}

		blocks, err := parseSlideXML(data)
		if err != nil {
			return "", fmt.Errorf("failed to parse %s: %w", slide, err)
		}

		if notes := extractNotes(zr, content, slide); notes != "" {
			blocks = append(blocks, "[Notes]\n"+notes)
		}

		// マーカーしか残らないスライドは出力しない
		if len(blocks) == 0 {
			continue
		}

		parts := append([]string{fmt.Sprintf("--- Slide %d ---", i+1)}, blocks...)
		slidesOut = append(slidesOut, strings.TrimSpace(strings.Join(parts, "\n")))
	}

	return strings.TrimSpace(strings.Join(slidesOut, "\n\n")), nil
}

// listSlides はスライドXMLのエントリ名をスライド番号順に返します
func listSlides(zr *zip.Reader) ([]string, error) {
	type slideEntry struct {
		num  int
		name string
	}

	var entries []slideEntry
	for _, f := range zr.File {
		m := slidePathPattern.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		entries = append(entries, slideEntry{num: num, name: f.Name})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].num < entries[j].num })

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names, nil
}

// parseSlideXML はスライドXMLをストリーム走査し、
// テキストフレームと表を文書順のブロックとして取り出します
func parseSlideXML(data []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		blocks     []string
		tableDepth int
		inFrame    bool
		frameLines []string
		para       strings.Builder
		inText     bool
		rows       [][]string
	)

	appendCell := func(s string) {
		if len(rows) == 0 {
			return
		}
		row := rows[len(rows)-1]
		if len(row) == 0 {
			return
		}
		row[len(row)-1] += s
	}

	flushTable := func() {
		for _, row := range rows {
			for i, cell := range row {
				row[i] = strings.TrimSpace(cell)
			}
			line := strings.TrimRight(strings.Join(row, "\t"), " \t")
			if strings.TrimSpace(line) != "" {
				blocks = append(blocks, line)
			}
		}
		rows = nil
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
			case "tr":
				if tableDepth == 1 {
					rows = append(rows, nil)
				}
			case "tc":
				if tableDepth == 1 {
					rows[len(rows)-1] = append(rows[len(rows)-1], "")
				}
			case "txBody":
				if tableDepth == 0 {
					inFrame = true
					frameLines = nil
				}
			case "t":
				inText = true
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth--
				if tableDepth == 0 {
					flushTable()
				}
			case "p":
				if tableDepth > 0 {
					appendCell("\n")
				} else if inFrame {
					frameLines = append(frameLines, para.String())
					para.Reset()
				}
			case "txBody":
				if tableDepth == 0 && inFrame {
					text := strings.TrimSpace(strings.Join(frameLines, "\n"))
					if text != "" {
						blocks = append(blocks, text)
					}
					inFrame = false
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
			} else if inFrame {
				para.Write(t)
			}
		}
	}

	return blocks, nil
}

// relationships は .rels ファイルのエントリを表します
type relationships struct {
	Rels []struct {
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// extractNotes はスライドのリレーションシップを辿ってスピーカーノートを取得します
// ノートが存在しない・壊れている場合は空文字を返す（抽出全体は失敗させない）
func extractNotes(zr *zip.Reader, content []byte, slideName string) string {
	relsName := path.Join(path.Dir(slideName), "_rels", path.Base(slideName)+".rels")

	relsData, err := readZipFile(content, relsName)
	if err != nil {
		return ""
	}

	var rels relationships
	if err := xml.Unmarshal(relsData, &rels); err != nil {
		return ""
	}

	var notesName string
	for _, rel := range rels.Rels {
		if strings.HasSuffix(rel.Type, "/notesSlide") {
			notesName = path.Join(path.Dir(slideName), rel.Target)
			break
		}
	}
	if notesName == "" {
		return ""
	}

	notesData, err := readZipFile(content, notesName)
	if err != nil {
		return ""
	}

	return parseNotesXML(notesData)
}

// parseNotesXML はノートスライドの本文プレースホルダのテキストを取り出します
// スライド番号などの他のプレースホルダは含めない
func parseNotesXML(data []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		lines      []string
		para       strings.Builder
		inText     bool
		shapeLines []string
		inShape    bool
		isBody     bool
	)

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "sp":
				inShape = true
				isBody = false
				shapeLines = nil
			case "ph":
				for _, attr := range t.Attr {
					if attr.Name.Local == "type" && attr.Value == "body" {
						isBody = true
					}
				}
			case "t":
				inText = true
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "sp":
				if inShape && isBody {
					lines = append(lines, shapeLines...)
				}
				inShape = false
			case "p":
				if inShape {
					shapeLines = append(shapeLines, para.String())
					para.Reset()
				}
			case "t":
				inText = false
			}

		case xml.CharData:
			if inText && inShape {
				para.Write(t)
			}
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}
