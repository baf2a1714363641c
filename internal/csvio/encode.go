// Package csvio implements the CSV codec used by every export and upload
// path: UTF-8 with a leading BOM so Excel auto-detects the encoding, minimal
// RFC-4180 quoting on the way out, and a tolerant decoder on the way in.
package csvio

import (
	"bytes"
	"strings"
)

// UTF8BOM is prepended to every encoded document so spreadsheet tools
// auto-detect UTF-8 instead of assuming a legacy code page.
var UTF8BOM = []byte{0xEF, 0xBB, 0xBF}

// SentinelNoData is the first cell of the synthetic row emitted when an
// export has no real rows. Downstream tools always receive at least one
// data row this way.
const SentinelNoData = "NO_DATA"

// Encode renders rows under the given column order as CSV text.
//
// Missing values become empty cells. A field is quoted only when it contains
// a comma, quote, or line break; internal quotes are doubled. Lines end with
// \n and there is no trailing newline beyond each row's own terminator.
// When rows is empty a single sentinel row is emitted instead.
func Encode(rows []map[string]string, columns []string) []byte {
	var buf bytes.Buffer
	buf.Write(UTF8BOM)

	writeLine(&buf, columns, func(col string) string { return col })

	if len(rows) == 0 {
		sentinel := make(map[string]string, 1)
		if len(columns) > 0 {
			sentinel[columns[0]] = SentinelNoData
		}
		rows = []map[string]string{sentinel}
	}

	for _, row := range rows {
		writeLine(&buf, columns, func(col string) string { return row[col] })
	}

	return buf.Bytes()
}

func writeLine(buf *bytes.Buffer, columns []string, value func(string) string) {
	for i, col := range columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(escapeField(cleanField(value(col))))
	}
	buf.WriteByte('\n')
}

// cleanField strips replacement characters left behind by an earlier
// mis-decoded encoding. They carry no meaning for the marketplace.
func cleanField(s string) string {
	if !strings.ContainsRune(s, '�') {
		return s
	}
	return strings.ReplaceAll(s, "�", "")
}

// escapeField applies minimal CSV quoting: wrap in double quotes when the
// field contains a delimiter, quote, or line break, doubling internal quotes.
func escapeField(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
