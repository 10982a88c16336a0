package dump

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/jorgepascosoto/mysql-snapshot/internal/errors"
)

// rawLiteralMark wraps radix literals (X'..' and b'..') so an external SQL
// formatter cannot break them apart. The builder strips the marks again after
// formatting. See unwrapRawLiterals.
const rawLiteralMark = "##RAW##"

// Value is one column of one result row, as delivered by the row stream:
// the raw bytes, a NULL flag, and the declared database type name.
type Value struct {
	Raw  []byte
	Null bool
	Type string
}

// Row maps column names to values for exactly one result row.
type Row map[string]Value

// Encoder converts raw column values into SQL literals safe to embed in a
// VALUES list. It is registered on every pool the engine opens and applied
// to each value as rows stream in.
type Encoder struct{}

// Encode renders v as a SQL literal. NULL becomes the bare keyword, numeric
// types stay unquoted with their textual precision intact, binary and bit
// columns become mark-protected radix literals, and everything else is a
// quoted, escaped string.
func (Encoder) Encode(v Value) (string, error) {
	if v.Null {
		return "NULL", nil
	}

	typ := normalizeType(v.Type)
	switch {
	case typ == "BIT":
		return wrapRawLiteral(bitLiteral(v.Raw)), nil
	case isBinaryType(typ):
		return wrapRawLiteral(fmt.Sprintf("X'%s'", hex.EncodeToString(v.Raw))), nil
	case isIntegerType(typ):
		s := string(v.Raw)
		if err := validateInteger(s); err != nil {
			return "", apperrors.NewSnapshotError(apperrors.ErrEncoding, "", err)
		}
		return s, nil
	case isDecimalType(typ):
		s := string(v.Raw)
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return "", apperrors.NewSnapshotError(apperrors.ErrEncoding, "",
				fmt.Errorf("malformed %s value %q: %w", typ, s, err))
		}
		// Return the driver's text form, not the parsed float, so DECIMAL
		// digits beyond float64 precision survive.
		return s, nil
	default:
		return quoteString(string(v.Raw)), nil
	}
}

// normalizeType upper-cases the declared type and strips the UNSIGNED
// qualifier the driver attaches to unsigned numeric columns.
func normalizeType(typ string) string {
	typ = strings.ToUpper(typ)
	typ = strings.TrimPrefix(typ, "UNSIGNED ")
	typ = strings.TrimSuffix(typ, " UNSIGNED")
	return typ
}

func isBinaryType(typ string) bool {
	return strings.Contains(typ, "BLOB") || strings.Contains(typ, "BINARY") || typ == "GEOMETRY"
}

func isIntegerType(typ string) bool {
	switch typ {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT", "YEAR":
		return true
	}
	return false
}

func isDecimalType(typ string) bool {
	switch typ {
	case "DECIMAL", "NUMERIC", "FLOAT", "DOUBLE":
		return true
	}
	return false
}

func validateInteger(s string) error {
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return nil
	}
	// BIGINT UNSIGNED values overflow int64.
	if _, err := strconv.ParseUint(s, 10, 64); err == nil {
		return nil
	}
	return fmt.Errorf("malformed integer value %q", s)
}

// bitLiteral renders BIT column bytes as b'...' with leading zero bits
// trimmed, matching how the server prints them.
func bitLiteral(raw []byte) string {
	var b strings.Builder
	b.WriteString("b'")
	started := false
	for _, by := range raw {
		for bit := 7; bit >= 0; bit-- {
			set := by&(1<<uint(bit)) != 0
			if !started && !set {
				continue
			}
			started = true
			if set {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
	}
	if !started {
		b.WriteByte('0')
	}
	b.WriteByte('\'')
	return b.String()
}

var stringEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"\x00", "\\0",
	"\n", "\\n",
	"\r", "\\r",
	"'", "\\'",
	"\"", "\\\"",
)

func quoteString(s string) string {
	return "'" + stringEscaper.Replace(s) + "'"
}

func wrapRawLiteral(lit string) string {
	return rawLiteralMark + lit + rawLiteralMark
}
