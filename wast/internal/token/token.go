package token

import (
	"strings"
	"unicode"

	"github.com/WebAssembly/wasm-aot-prototype/errors"
)

type Type int

const (
	LParen Type = iota
	RParen
	Keyword // module, func, i32.const, nan:0x1, ...
	Name    // $identifier
	String
	Number
)

func (t Type) String() string {
	switch t {
	case LParen:
		return "'('"
	case RParen:
		return "')'"
	case Keyword:
		return "keyword"
	case Name:
		return "name"
	case String:
		return "string"
	case Number:
		return "number"
	}
	return "unknown"
}

// Token is a lexeme of the script text. String tokens hold the decoded
// contents without quotes.
type Token struct {
	Value string
	Type  Type
	Line  int
}

// Tokenize splits a script into tokens, dropping whitespace and comments.
func Tokenize(input string) ([]Token, error) {
	lx := &lexer{src: []rune(input), line: 1}
	for lx.pos < len(lx.src) {
		if err := lx.next(); err != nil {
			return nil, err
		}
	}
	return lx.out, nil
}

type lexer struct {
	src  []rune
	pos  int
	line int
	out  []Token
}

func (lx *lexer) peek(off int) rune {
	if lx.pos+off < len(lx.src) {
		return lx.src[lx.pos+off]
	}
	return 0
}

func (lx *lexer) emit(typ Type, value string) {
	lx.out = append(lx.out, Token{Value: value, Type: typ, Line: lx.line})
}

// next consumes one lexeme, or one run of blank text.
func (lx *lexer) next() error {
	r := lx.peek(0)
	switch {
	case r == '\n':
		lx.line++
		lx.pos++
	case unicode.IsSpace(r):
		lx.pos++
	case r == ';' && lx.peek(1) == ';':
		for lx.pos < len(lx.src) && lx.src[lx.pos] != '\n' {
			lx.pos++
		}
	case r == '(' && lx.peek(1) == ';':
		return lx.blockComment()
	case r == '(':
		lx.emit(LParen, "(")
		lx.pos++
	case r == ')':
		lx.emit(RParen, ")")
		lx.pos++
	case r == '"':
		return lx.quoted()
	case (r == '-' || r == '+') && lx.signedSpecial():
		// signed inf and nan are keywords, like their unsigned forms
		lx.word(Keyword, lx.pos+1)
	case r == '-' || r == '+' || unicode.IsDigit(r):
		lx.number()
	case r == '$':
		if !isKeywordRune(lx.peek(1)) {
			return errors.Validation(errors.PhaseParse, lx.line, "empty name")
		}
		lx.word(Name, lx.pos+1)
	case unicode.IsLetter(r) || r == '_' || r == '.':
		lx.word(Keyword, lx.pos+1)
	default:
		return errors.Validation(errors.PhaseParse, lx.line, "unexpected character %q", r)
	}
	return nil
}

func (lx *lexer) blockComment() error {
	start := lx.line
	lx.pos += 2
	for depth := 1; depth > 0; {
		if lx.pos >= len(lx.src) {
			return errors.Validation(errors.PhaseParse, start, "unterminated block comment")
		}
		switch r := lx.src[lx.pos]; {
		case r == '(' && lx.peek(1) == ';':
			depth++
			lx.pos++
		case r == ';' && lx.peek(1) == ')':
			depth--
			lx.pos++
		case r == '\n':
			lx.line++
		}
		lx.pos++
	}
	return nil
}

func (lx *lexer) quoted() error {
	start := lx.pos + 1
	end := start
	for end < len(lx.src) && lx.src[end] != '"' {
		if lx.src[end] == '\\' {
			end++
		}
		end++
	}
	if end >= len(lx.src) {
		return errors.Validation(errors.PhaseParse, lx.line, "unterminated string")
	}
	s, err := decode(lx.src[start:end])
	if err != nil {
		return errors.Validation(errors.PhaseParse, lx.line, "%v", err)
	}
	lx.emit(String, s)
	lx.pos = end + 1
	return nil
}

func (lx *lexer) signedSpecial() bool {
	rest := string(lx.src[lx.pos+1 : min(lx.pos+4, len(lx.src))])
	return strings.HasPrefix(rest, "inf") || strings.HasPrefix(rest, "nan")
}

func (lx *lexer) number() {
	end := lx.pos + 1
	for ; end < len(lx.src); end++ {
		c := lx.src[end]
		if unicode.IsDigit(c) || unicode.IsLetter(c) || c == '.' || c == '_' {
			continue
		}
		// exponent sign: 1e-10, 0x1p+3
		if (c == '-' || c == '+') && strings.ContainsRune("eEpP", lx.src[end-1]) {
			continue
		}
		break
	}
	lx.emit(Number, string(lx.src[lx.pos:end]))
	lx.pos = end
}

// word emits the text from the current position through the keyword runes
// starting at from.
func (lx *lexer) word(typ Type, from int) {
	end := from
	for end < len(lx.src) && isKeywordRune(lx.src[end]) {
		end++
	}
	lx.emit(typ, string(lx.src[lx.pos:end]))
	lx.pos = end
}

func isKeywordRune(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) ||
		strings.ContainsRune("_.$-:=+", c)
}
