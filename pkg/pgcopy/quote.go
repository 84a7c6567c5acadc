package pgcopy

import (
	stringpool "github.com/ajitpratap0/pgbulk/pkg/strings"
)

// builderPool recycles builders for sub-representation construction
var builderPool = stringpool.NewPool(32, 256)

// isSpace reports whether c is ASCII whitespace
func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// NeedsQuoting reports whether a textual sub-representation must be quoted
// inside an array or row literal. A value needs quotes when it is empty,
// starts or ends with whitespace, or contains a character the container
// grammar treats as structure. The empty string always quotes: an unquoted
// empty field is indistinguishable from no field at all.
func NeedsQuoting(s string) bool {
	if len(s) == 0 {
		return true
	}
	if isSpace(s[0]) || isSpace(s[len(s)-1]) {
		return true
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"', '\\', '{', '}', '(', ')', ',':
			return true
		}
	}
	return false
}

// quoteAndEscapeInto appends s to b, quoted and escaped when NeedsQuoting
// says so and verbatim otherwise. Inside quotes every `"` and `\` gets a
// preceding backslash.
func quoteAndEscapeInto(b *stringpool.Builder, s string) {
	if !NeedsQuoting(s) {
		b.WriteString(s)
		return
	}
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"', '\\':
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('"')
}

// QuoteAndEscape returns s quoted and escaped for use inside an array or
// row literal, or s unchanged if no quoting is needed.
func QuoteAndEscape(s string) string {
	if !NeedsQuoting(s) {
		return s
	}
	b := builderPool.Get()
	quoteAndEscapeInto(b, s)
	out := b.String()
	builderPool.Put(b)
	return out
}
