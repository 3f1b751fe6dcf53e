package report

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidLiteral is returned by Unquote for text that is not a string literal.
var ErrInvalidLiteral = errors.New("invalid string literal")

var unescapes = map[byte]rune{
	'`': '`',
	'$': '$',
	'"': '"',
	'0': 0x00,
	'a': 0x07,
	'b': 0x08,
	'f': 0x0c,
	'n': '\n',
	'r': '\r',
	't': '\t',
	'v': 0x0b,
}

const charPrefix = "$([char]0x"

// Unquote reads back a string literal written by Format: bare text, a single
// quoted string, or a double quoted string with backtick escapes.
func Unquote(lit string) (string, error) {
	switch {
	case lit == emptyToken:
		return "", nil
	case len(lit) >= 2 && lit[0] == '\'' && lit[len(lit)-1] == '\'':
		return lit[1 : len(lit)-1], nil
	case len(lit) >= 2 && lit[0] == '"' && lit[len(lit)-1] == '"':
		return unescape(lit[1 : len(lit)-1])
	case strings.ContainsAny(lit, bareUnsafe):
		return "", errors.Wrapf(ErrInvalidLiteral, "%q needs quotes", lit)
	}
	return lit, nil
}

func unescape(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '`':
			if i+1 >= len(s) {
				return "", errors.Wrap(ErrInvalidLiteral, "dangling escape")
			}
			r, ok := unescapes[s[i+1]]
			if !ok {
				return "", errors.Wrapf(ErrInvalidLiteral, "unknown escape `%c", s[i+1])
			}
			b.WriteRune(r)
			i++
		case strings.HasPrefix(s[i:], charPrefix):
			end := strings.IndexByte(s[i:], ')')
			if end < 0 {
				return "", errors.Wrap(ErrInvalidLiteral, "unterminated char expression")
			}
			hex := s[i+len(charPrefix) : i+end]
			n, err := strconv.ParseUint(hex, 16, 8)
			if err != nil {
				return "", errors.Wrapf(ErrInvalidLiteral, "char code %q", hex)
			}
			b.WriteByte(byte(n))
			i += end
		case c == '"' || c == '$':
			return "", errors.Wrapf(ErrInvalidLiteral, "unescaped %c", c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}
