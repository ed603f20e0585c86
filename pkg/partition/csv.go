package partition

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/Sternrassler/fund-holdings-collector/pkg/holdings"
)

// utf8BOM prefixes every partition file so spreadsheet tools detect UTF-8.
const utf8BOM = "\ufeff"

// Header is the column row written to every partition file.
var Header = []string{"日期", "股票代號", "股票名稱", "股數", "權重"}

// englishHeader is accepted on read for files produced by other tooling.
var englishHeader = []string{"date", "symbol", "name", "shares", "weight"}

// column indexes into a decoded row, keyed by field position in Header.
type columns [5]int

func mapHeader(header []string) (columns, error) {
	var cols columns
	for i := range cols {
		cols[i] = -1
	}
	for idx, name := range header {
		name = strings.TrimSpace(name)
		for field := range Header {
			if name == Header[field] || strings.EqualFold(name, englishHeader[field]) {
				cols[field] = idx
			}
		}
	}
	for field, idx := range cols {
		if idx < 0 {
			return cols, fmt.Errorf("missing column %q", Header[field])
		}
	}
	return cols, nil
}

// decode parses a partition file. A leading BOM is optional and an empty
// input yields no records.
func decode(data []byte) ([]holdings.Record, error) {
	data = bytes.TrimPrefix(data, []byte(utf8BOM))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(rows) == 0 {
		return []holdings.Record{}, nil
	}

	cols, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	records := make([]holdings.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		get := func(field int) (string, error) {
			if cols[field] >= len(row) {
				return "", fmt.Errorf("line %d: missing %q", i+2, Header[field])
			}
			return row[cols[field]], nil
		}
		var fields [5]string
		for field := range fields {
			v, err := get(field)
			if err != nil {
				return nil, err
			}
			fields[field] = v
		}
		records = append(records, holdings.Record{
			Date:   fields[0],
			Symbol: fields[1],
			Name:   fields[2],
			Shares: fields[3],
			Weight: fields[4],
		})
	}
	return records, nil
}

// encode renders records as a complete partition file.
func encode(records []holdings.Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(utf8BOM)

	writer := csv.NewWriter(&buf)
	if err := writer.Write(Header); err != nil {
		return nil, err
	}
	for _, r := range records {
		if err := writer.Write([]string{r.Date, r.Symbol, r.Name, r.Shares, r.Weight}); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
