package query

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sqlkit/internal/core"
)

// DateTimeLayout is the layout time.Time values are written with.
const DateTimeLayout = "2006-01-02 15:04:05"

var escaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// Escape escapes backslashes and single quotes for use inside a quoted
// MySQL string literal.
func Escape(s string) string { return escaper.Replace(s) }

// QuoteString escapes s and wraps it in single quotes.
func QuoteString(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('\'')
	sb.WriteString(Escape(s))
	sb.WriteByte('\'')
	return sb.String()
}

// addSlashes escapes quotes, backslashes and NUL bytes of raw file content.
func addSlashes(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data) + len(data)/8 + 2)
	for _, c := range data {
		switch c {
		case '\'', '"', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case 0:
			sb.WriteString(`\0`)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func readBlob(path string) ([]byte, error) {
	return os.ReadFile(filepath.FromSlash(strings.ReplaceAll(path, `\`, "/")))
}

// valueString renders a Go value the way it appears inside a literal.
func valueString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(x)
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(DateTimeLayout)
	case decimal.Decimal:
		return x.String()
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

func decimalString(v any) string {
	switch x := v.(type) {
	case float32:
		return decimal.NewFromFloat32(x).String()
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return valueString(x)
		}
		return decimal.NewFromFloat(x).String()
	case string:
		if d, err := decimal.NewFromString(strings.TrimSpace(x)); err == nil {
			return d.String()
		}
	}
	return valueString(v)
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// formatValue formats v as a value of column c. Character and temporal
// values are escaped and quoted, decimals are quoted, blob values are file
// paths whose content is inlined and everything else is written bare. A nil
// value is null; so is a blob whose file cannot be read. blob reports
// whether file content was inlined.
func formatValue(c *core.Column, v any) (lit string, blob bool) {
	if v == nil {
		return "null", false
	}
	t := c.Type()
	switch {
	case t.IsBlob():
		return blobLiteral(v)
	case t.IsText(), t.IsTemporal():
		return QuoteString(valueString(v)), false
	case t.IsDecimal():
		return QuoteString(decimalString(v)), false
	}
	s := valueString(v)
	if t == core.TypeBoolean {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true":
			return "1", false
		case "false":
			return "0", false
		}
	}
	if isNumeric(s) {
		return s, false
	}
	return QuoteString(s), false
}

func blobLiteral(v any) (string, bool) {
	data, ok := v.([]byte)
	if !ok {
		content, err := readBlob(valueString(v))
		if err != nil {
			return "null", false
		}
		data = content
	}
	return "'" + addSlashes(data) + "'", true
}
