package dump

import (
	"regexp"
	"strings"
)

// buildInsert renders one complete, semicolon-terminated INSERT statement
// for a batch of row-literal tuples. Tuple order and the column header both
// follow the table descriptor's column order.
func buildInsert(table Table, batch [][]string, keyword string, format func(string) string) string {
	var b strings.Builder
	b.WriteString(keyword)
	b.WriteString(" INTO `")
	b.WriteString(table.Name)
	b.WriteString("` (")
	for i, col := range table.Columns {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('`')
		b.WriteString(col)
		b.WriteByte('`')
	}
	b.WriteString(") VALUES ")
	for i, tuple := range batch {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('(')
		b.WriteString(strings.Join(tuple, ","))
		b.WriteByte(')')
	}
	b.WriteByte(';')

	stmt := b.String()
	if format != nil {
		stmt = format(stmt)
	}
	return unwrapRawLiterals(stmt)
}

// Formatters tokenize statements and tend to insert whitespace around the
// quote of X'..' and b'..' literals, which breaks their syntax. The encoder
// wraps such literals in rawLiteralMark; here the marks come off again and
// any whitespace the formatter pushed inside the protected span is removed.
var rawLiteralPattern = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(rawLiteralMark) + `(.*?)` + regexp.QuoteMeta(rawLiteralMark))

func unwrapRawLiterals(stmt string) string {
	if !strings.Contains(stmt, rawLiteralMark) {
		return stmt
	}
	return rawLiteralPattern.ReplaceAllStringFunc(stmt, func(m string) string {
		inner := m[len(rawLiteralMark) : len(m)-len(rawLiteralMark)]
		return strings.Map(func(r rune) rune {
			switch r {
			case ' ', '\t', '\n', '\r':
				return -1
			}
			return r
		}, inner)
	})
}
