// Package parser extracts holding records from a fund assets API response.
//
// The response is handled as a loosely typed JSON tree. Every access checks
// the shape it expects and any mismatch degrades to an empty result: a day
// without an equity table is a normal outcome (market holiday, schema drift).
package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/Sternrassler/fund-holdings-collector/pkg/holdings"
)

// EquityTableTitle is the title of the table holding stock positions.
const EquityTableTitle = "股票"

// TablesPath locates the list of named tables in a response.
const TablesPath = "$.Entries.Data.Table"

// MinRowFields is the number of positional fields a row needs:
// symbol, name, shares, weight.
const MinRowFields = 4

// ParseError reports a response body that is not valid JSON.
type ParseError struct {
	Date string
	Err  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse response for %s: %v", e.Date, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Decode parses a raw response body and extracts its holding records.
// Numbers are decoded as json.Number so share counts and weights keep the
// exact text sent by the API.
func Decode(body []byte, date time.Time) ([]holdings.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, &ParseError{Date: holdings.FormatDate(date), Err: err}
	}
	return Parse(raw, date), nil
}

// Parse extracts the equity holdings of one day from a decoded response.
// It never fails: unexpected shapes yield an empty slice.
func Parse(raw any, date time.Time) (records []holdings.Record) {
	defer func() {
		if r := recover(); r != nil {
			records = nil
		}
	}()

	tables, err := jsonpath.Get(TablesPath, raw)
	if err != nil {
		return nil
	}
	list, ok := tables.([]any)
	if !ok {
		return nil
	}

	rows, ok := equityRows(list)
	if !ok {
		return nil
	}

	day := holdings.FormatDate(date)
	records = make([]holdings.Record, 0, len(rows))
	for _, row := range rows {
		fields, ok := row.([]any)
		if !ok || len(fields) < MinRowFields {
			continue
		}
		cells, ok := cellStrings(fields[:MinRowFields])
		if !ok {
			continue
		}
		records = append(records, holdings.Record{
			Date:   day,
			Symbol: cells[0],
			Name:   cells[1],
			Shares: cells[2],
			Weight: cells[3],
		})
	}
	return records
}

// equityRows returns the rows of the first table titled EquityTableTitle.
func equityRows(tables []any) ([]any, bool) {
	for _, t := range tables {
		table, ok := t.(map[string]any)
		if !ok {
			continue
		}
		if title, _ := table["TableTitle"].(string); title != EquityTableTitle {
			continue
		}
		rows, ok := table["Rows"].([]any)
		return rows, ok
	}
	return nil, false
}

func cellStrings(fields []any) ([]string, bool) {
	out := make([]string, len(fields))
	for i, f := range fields {
		s, ok := cellString(f)
		if !ok {
			return nil, false
		}
		out[i] = s
	}
	return out, true
}

// cellString renders a scalar JSON value as text. Objects and arrays are
// rejected.
func cellString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", true
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return "", false
	}
}
