package token

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// decode resolves the escapes of a string literal body: \n \t \r \\ \" \',
// two-digit hex bytes and \u{XXXX} code points.
func decode(body []rune) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] != '\\' {
			sb.WriteRune(body[i])
			continue
		}
		if i+1 >= len(body) {
			return "", fmt.Errorf("dangling escape in string")
		}
		c := body[i+1]
		if c == 'u' && i+2 < len(body) && body[i+2] == '{' {
			end := i + 3
			for end < len(body) && body[end] != '}' {
				end++
			}
			if end >= len(body) {
				return "", fmt.Errorf("unterminated unicode escape")
			}
			hex := strings.ReplaceAll(string(body[i+3:end]), "_", "")
			cp, err := strconv.ParseUint(hex, 16, 32)
			if err != nil || !utf8.ValidRune(rune(cp)) {
				return "", fmt.Errorf("invalid unicode escape \\u{%s}", string(body[i+3:end]))
			}
			sb.WriteRune(rune(cp))
			i = end
			continue
		}
		if i+2 < len(body) && isHexDigit(c) && isHexDigit(body[i+2]) {
			sb.WriteByte(hexValue(c)<<4 | hexValue(body[i+2]))
			i += 2
			continue
		}
		switch c {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '\\', '"', '\'':
			sb.WriteRune(c)
		default:
			return "", fmt.Errorf("unknown escape \\%c", c)
		}
		i++
	}
	return sb.String(), nil
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func hexValue(r rune) byte {
	switch {
	case r >= '0' && r <= '9':
		return byte(r - '0')
	case r >= 'a' && r <= 'f':
		return byte(r - 'a' + 10)
	case r >= 'A' && r <= 'F':
		return byte(r - 'A' + 10)
	}
	return 0
}
