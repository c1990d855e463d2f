// Package ingest implements the CSV upload pipeline: a positional row
// parser, a lenient field normalizer, and an aggregator that folds rows
// into stock entities ready for persistence.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// Columns is the fixed positional layout of the daily price file. The
// file's own header line is skipped without being validated, so a file
// laid out differently will have its fields misassigned silently.
var Columns = []string{
	"Date", "series", "OPEN", "HIGH", "LOW", "PREV. CLOSE",
	"ltp", "close", "vwap", "52W H", "52W L", "VOLUME", "VALUE", "No of trades",
}

// Row is one parsed data line, keyed by column name. Transient; rows are
// discarded once normalized.
type Row map[string]string

// Parser streams delimited text into Rows against a fixed column schema.
type Parser struct {
	Delimiter rune
	Columns   []string
}

func NewParser() *Parser {
	return &Parser{Delimiter: ',', Columns: Columns}
}

// Parse streams records, skipping exactly one header line, and calls
// yield for each data row in input order. Field count is strict: a
// record that does not match the schema width fails the whole stream
// with ErrMalformedRow. Rows missing either OPEN or close are dropped
// without being yielded. A yield error aborts parsing and is returned
// as-is.
func (p *Parser) Parse(src io.Reader, yield func(Row) error) error {
	r := csv.NewReader(src)
	r.Comma = p.Delimiter
	// Field count is checked per record below so an oddly shaped header
	// line still passes through the unconditional skip.
	r.FieldsPerRecord = -1

	first := true
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return fmt.Errorf("line %d: %w: %v", parseErr.Line, ErrMalformedRow, parseErr.Err)
			}
			return fmt.Errorf("%w: %v", ErrSourceRead, err)
		}

		if first {
			first = false
			continue
		}

		if len(record) != len(p.Columns) {
			line, _ := r.FieldPos(0)
			return fmt.Errorf("line %d: %w: got %d fields, want %d",
				line, ErrMalformedRow, len(record), len(p.Columns))
		}

		row := make(Row, len(p.Columns))
		for i, name := range p.Columns {
			row[name] = record[i]
		}

		if row["OPEN"] == "" || row["close"] == "" {
			continue
		}

		if err := yield(row); err != nil {
			return err
		}
	}
}
