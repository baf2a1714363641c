package csvio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// MaxFileSize is the maximum accepted upload size. Files above this are
// rejected before parsing begins.
var MaxFileSize int64 = 10 * 1024 * 1024

// MaxRows is the hard cap on accepted data rows per decode. Rows beyond the
// cap are ignored, not errored.
var MaxRows = 1000

// ErrFileTooLarge is returned when an upload exceeds MaxFileSize.
var ErrFileTooLarge = errors.New("file too large")

// ErrEmptyFile is returned when the upload has no header line.
var ErrEmptyFile = errors.New("empty file")

// RowNote records a data row that was dropped during decode and why.
type RowNote struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Document is the result of decoding one CSV upload. The header keeps its
// original column order; each accepted row maps column name to cell value.
type Document struct {
	Header    []string
	Rows      []map[string]string
	Notes     []RowNote
	Truncated bool // true when MaxRows was hit with rows remaining
}

// Decode reads a full CSV upload into a Document.
//
// The first line is the header. A data row is accepted only when its field
// count exactly matches the header's; mismatched rows are dropped with a
// note, never a fatal error. Decoding stops after MaxRows accepted rows.
// Input that is not valid UTF-8 is transcoded from Shift_JIS first, since
// that is what Yahoo Auction CSV exports ship as.
func Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return nil, fmt.Errorf("%w: exceeds %dMB limit", ErrFileTooLarge, MaxFileSize/(1024*1024))
	}
	return decodeBytes(data)
}

func decodeBytes(data []byte) (*Document, error) {
	data = sanitize(data)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	doc := &Document{Header: header}

	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			doc.Notes = append(doc.Notes, RowNote{Line: line, Reason: err.Error()})
			continue
		}
		if isEmptyRow(row) {
			continue
		}
		if len(row) != len(header) {
			doc.Notes = append(doc.Notes, RowNote{
				Line:   line,
				Reason: fmt.Sprintf("expected %d columns, got %d", len(header), len(row)),
			})
			continue
		}
		if len(doc.Rows) >= MaxRows {
			doc.Truncated = true
			break
		}

		m := make(map[string]string, len(header))
		for i, col := range header {
			m[col] = row[i]
		}
		doc.Rows = append(doc.Rows, m)
	}

	return doc, nil
}

// sanitize guarantees valid UTF-8. Invalid input is assumed to be Shift_JIS
// (the encoding Yahoo Auction exports use); bytes that survive neither
// interpretation become replacement characters, which the encoder strips.
func sanitize(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	decoded, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), data)
	if err == nil && utf8.Valid(decoded) {
		return decoded
	}

	var buf bytes.Buffer
	buf.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}
	return buf.Bytes()
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
