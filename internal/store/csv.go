// Package store reads and writes the ledger's on-disk formats: delimited
// text with separator and encoding sniffing, an SQLite binary snapshot,
// and the local cache and pending-queue files.
//
// Writers always produce UTF-8 without a BOM and the configured field
// separator. Readers must tolerate what a decade of file versions
// produced: BOMs, alternate separators, and legacy single-byte code pages.
package store

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/dvidovic/lokator/internal/columns"
	"github.com/dvidovic/lokator/internal/record"
)

// DefaultSeparator is the ledger's field separator. Semicolon coexists
// with commas inside free-text location names and notes.
const DefaultSeparator = ';'

// separator candidates tried after the configured primary one.
var fallbackSeparators = []rune{',', ';', '\t', '|'}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is a decoded delimited file: the raw header and one field slice
// per row. Rows may be ragged; consumers index defensively.
type Table struct {
	Header []string
	Rows   [][]string
	// Separator is the rune that successfully parsed the content.
	Separator rune
}

// ReadTable decodes delimited bytes, sniffing the separator and the
// character encoding. The primary separator is tried first, then the
// fallback set; a candidate is accepted when it yields at least three
// columns, matching how historical files were sniffed. Encodings are
// tried in a fixed chain: UTF-8 (with or without BOM), Windows-1250,
// Latin-1.
func ReadTable(b []byte, primary rune) (*Table, error) {
	b = bytes.TrimPrefix(b, utf8BOM)
	text, err := decodeBytes(b)
	if err != nil {
		return nil, err
	}

	seps := make([]rune, 0, 1+len(fallbackSeparators))
	if primary != 0 {
		seps = append(seps, primary)
	}
	for _, s := range fallbackSeparators {
		if s != primary {
			seps = append(seps, s)
		}
	}

	var firstErr error
	for _, sep := range seps {
		t, err := parseWith(text, sep)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(t.Header) >= 3 {
			return t, nil
		}
	}
	// Nothing reached three columns; fall back to the primary separator's
	// best effort so single-column reference files still load.
	if t, err := parseWith(text, seps[0]); err == nil && len(t.Header) > 0 {
		return t, nil
	}
	if firstErr != nil {
		return nil, fmt.Errorf("store: cannot parse delimited content: %w", firstErr)
	}
	return nil, fmt.Errorf("store: cannot parse delimited content")
}

func parseWith(text string, sep rune) (*Table, error) {
	r := csv.NewReader(bytes.NewReader([]byte(text)))
	r.Comma = sep
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	all, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return &Table{Separator: sep}, nil
	}
	return &Table{Header: all[0], Rows: all[1:], Separator: sep}, nil
}

// decodeBytes returns valid UTF-8 text from raw file bytes, decoding
// legacy code pages when needed. Windows-1250 covers the Croatian legacy
// exports; Latin-1 is the last resort because it never fails.
func decodeBytes(b []byte) (string, error) {
	if utf8.Valid(b) {
		return string(b), nil
	}
	if s, err := charmap.Windows1250.NewDecoder().Bytes(b); err == nil && utf8.Valid(s) {
		return string(s), nil
	}
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("store: undecodable content: %w", err)
	}
	return string(s), nil
}

// DecodeLedger parses ledger bytes into records. The content may be a
// delimited file in any historical dialect or an SQLite snapshot; both
// are handled. Individual bad fields never abort the batch — they decay
// to empty values and the row continues through normalization.
func DecodeLedger(b []byte, primary rune) ([]record.Record, error) {
	if IsSnapshot(b) {
		return ReadSnapshotBytes(b)
	}
	t, err := ReadTable(b, primary)
	if err != nil {
		return nil, err
	}
	recs := make([]record.Record, 0, len(t.Rows))
	for _, fields := range t.Rows {
		if blankRow(fields) {
			continue
		}
		recs = append(recs, record.FromRow(columns.NormalizeRow(t.Header, fields)))
	}
	return recs, nil
}

func blankRow(fields []string) bool {
	for _, f := range fields {
		if f != "" {
			return false
		}
	}
	return true
}

// EncodeLedger renders records as delimited text: canonical columns in
// the preferred order first, then any extra columns in sorted order, one
// header row, UTF-8 without BOM.
func EncodeLedger(ledger []record.Record, sep rune) ([]byte, error) {
	if sep == 0 {
		sep = DefaultSeparator
	}
	header := append([]string(nil), columns.Canonical...)
	extraSet := map[string]bool{}
	for _, r := range ledger {
		for k := range r.Extra {
			extraSet[k] = true
		}
	}
	extras := make([]string, 0, len(extraSet))
	for k := range extraSet {
		extras = append(extras, k)
	}
	sort.Strings(extras)
	header = append(header, extras...)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = sep
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("store: write header: %w", err)
	}
	for _, r := range ledger {
		row := r.ToRow()
		fields := make([]string, len(header))
		for i, col := range header {
			fields[i] = row[col]
		}
		if err := w.Write(fields); err != nil {
			return nil, fmt.Errorf("store: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("store: flush: %w", err)
	}
	return buf.Bytes(), nil
}
