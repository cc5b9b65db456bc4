// Package csvimport turns a spreadsheet export of daily results into entry
// inputs. Bad rows never abort the import: they are skipped or zeroed and
// reported as warnings.
package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"betledger/internal/core"
)

var (
	// ErrMissingDateColumn is returned when the header has no date column.
	ErrMissingDateColumn = errors.New("csv must have a Date (or Data) column")
	// ErrEmpty is returned for input without a header row.
	ErrEmpty = errors.New("csv file is empty")
)

var (
	dateHeaders       = []string{"date", "data"}
	profitHeaders     = []string{"gain", "ganho", "profit"}
	withdrawalHeaders = []string{"withdrawal", "levantamento"}
)

// Result is the outcome of parsing a file.
type Result struct {
	Rows     []core.EntryInput
	Skipped  int
	Warnings []string
}

var utf8BOM = []byte("\ufeff")

type columns struct {
	date, profit, withdrawal int
}

// Parse reads CSV with a header row. The delimiter is ',' unless the header
// line only contains ';'.
func Parse(r io.Reader) (Result, error) {
	br := bufio.NewReader(r)
	if b, _ := br.Peek(len(utf8BOM)); bytes.Equal(b, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	sample, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return Result{}, fmt.Errorf("read csv: %w", err)
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comma = detectDelimiter(sample)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Result{}, ErrEmpty
	}
	if err != nil {
		return Result{}, fmt.Errorf("read csv header: %w", err)
	}
	cols, err := locateColumns(header)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		row, ok, warnings := parseRow(line, record, cols)
		res.Warnings = append(res.Warnings, warnings...)
		if !ok {
			res.Skipped++
			continue
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

func detectDelimiter(sample []byte) rune {
	line := sample
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		line = sample[:i]
	}
	if bytes.IndexByte(line, ';') >= 0 && bytes.IndexByte(line, ',') < 0 {
		return ';'
	}
	return ','
}

func locateColumns(header []string) (columns, error) {
	cols := columns{date: -1, profit: -1, withdrawal: -1}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		switch {
		case cols.date < 0 && contains(dateHeaders, name):
			cols.date = i
		case cols.profit < 0 && contains(profitHeaders, name):
			cols.profit = i
		case cols.withdrawal < 0 && contains(withdrawalHeaders, name):
			cols.withdrawal = i
		}
	}
	if cols.date < 0 {
		return cols, ErrMissingDateColumn
	}
	return cols, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// parseRow returns ok=false for rows that must not be submitted.
func parseRow(line int, record []string, cols columns) (core.EntryInput, bool, []string) {
	var warnings []string
	raw := field(record, cols.date)
	if raw == "" {
		return core.EntryInput{}, false, nil
	}
	date, err := core.ParseDayMonthYear(raw)
	if err != nil {
		return core.EntryInput{}, false, []string{fmt.Sprintf("row %d: invalid date %q", line, raw)}
	}

	amount := func(col int, label string) core.Money {
		s := field(record, col)
		m, err := core.ParseAmount(s)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("row %d: invalid %s %q, using 0", line, label, s))
			return core.Zero
		}
		if m.IsNegative() {
			warnings = append(warnings, fmt.Sprintf("row %d: negative %s %q, using 0", line, label, s))
			return core.Zero
		}
		return m
	}
	in := core.EntryInput{
		Date:       date,
		Profit:     amount(cols.profit, "gain"),
		Withdrawal: amount(cols.withdrawal, "withdrawal"),
	}
	return in, true, warnings
}
