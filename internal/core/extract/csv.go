package extract

import (
	"encoding/csv"
	"fmt"
	"strings"
)

// extractCSVRows はCSVをヘッダ付きの行レコードとして抽出します
// 各行は "ColA: valA | ColB: valB" の形式になり、空の値は省略されます
func extractCSVRows(content []byte) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(decodeText(content)))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	header := records[0]

	var rows []string
	for _, record := range records[1:] {
		var pairs []string
		for i, value := range record {
			if i >= len(header) {
				break
			}
			if strings.TrimSpace(value) == "" {
				continue
			}
			pairs = append(pairs, fmt.Sprintf("%s: %s", header[i], value))
		}
		row := strings.Join(pairs, " | ")
		if strings.TrimSpace(row) != "" {
			rows = append(rows, row)
		}
	}

	return rows, nil
}
