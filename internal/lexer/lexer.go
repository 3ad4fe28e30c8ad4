package lexer

import (
	"fmt"
	"unicode/utf8"

	"github.com/kpumuk/fhirpath/internal/text"
)

// DiagnosticCode identifies lexer diagnostic categories.
type DiagnosticCode string

const (
	DiagnosticInvalidByte            DiagnosticCode = "LEX_INVALID_BYTE"
	DiagnosticUnknownCharacter       DiagnosticCode = "LEX_UNKNOWN_CHARACTER"
	DiagnosticUnterminatedString     DiagnosticCode = "LEX_UNTERMINATED_STRING"
	DiagnosticUnterminatedDelimited  DiagnosticCode = "LEX_UNTERMINATED_DELIMITED_IDENTIFIER"
	DiagnosticUnterminatedBlockComment DiagnosticCode = "LEX_UNTERMINATED_BLOCK_COMMENT"
	DiagnosticInvalidEscape          DiagnosticCode = "LEX_INVALID_ESCAPE"
	DiagnosticInvalidDateTimeLiteral DiagnosticCode = "LEX_INVALID_DATETIME_LITERAL"
)

// Diagnostic is a lexer-level issue with source location.
type Diagnostic struct {
	Code    DiagnosticCode
	Message string
	Span    text.Span
}

// Result is the output of lexing source bytes.
type Result struct {
	Tokens      []Token
	Diagnostics []Diagnostic
}

// Lex tokenizes src into a lossless token stream with leading trivia.
func Lex(src []byte) Result {
	l := scanner{src: src}
	l.run()
	return Result{
		Tokens:      l.tokens,
		Diagnostics: l.diagnostics,
	}
}

type scanner struct {
	src         []byte
	i           int
	tokens      []Token
	diagnostics []Diagnostic
}

func (s *scanner) run() {
	for {
		leading, errTok := s.scanLeadingTrivia()
		if errTok != nil {
			errTok.Leading = leading
			s.tokens = append(s.tokens, *errTok)
			continue
		}

		if s.eof() {
			s.tokens = append(s.tokens, Token{
				Kind:    TokenEOF,
				Span:    span(len(s.src), len(s.src)),
				Leading: leading,
			})
			return
		}

		tok := s.scanToken()
		tok.Leading = leading
		s.tokens = append(s.tokens, tok)
	}
}

func (s *scanner) scanLeadingTrivia() ([]Trivia, *Token) {
	var out []Trivia

	for !s.eof() {
		start := s.i
		switch b := s.src[s.i]; b {
		case ' ', '\t', '\v', '\f':
			for !s.eof() && isHorizontalSpace(s.src[s.i]) {
				s.i++
			}
			out = append(out, Trivia{Kind: TriviaWhitespace, Span: span(start, s.i)})
		case '\n':
			s.i++
			out = append(out, Trivia{Kind: TriviaNewline, Span: span(start, s.i)})
		case '\r':
			s.i++
			if !s.eof() && s.src[s.i] == '\n' {
				s.i++
			}
			out = append(out, Trivia{Kind: TriviaNewline, Span: span(start, s.i)})
		case '/':
			if s.peekByte(1) == '/' {
				s.i += 2
				s.scanLineComment()
				out = append(out, Trivia{Kind: TriviaLineComment, Span: span(start, s.i)})
				continue
			}
			if s.peekByte(1) == '*' {
				t, errTok := s.scanBlockCommentOrError()
				if errTok != nil {
					return out, errTok
				}
				out = append(out, t)
				continue
			}
			return out, nil
		default:
			if b >= utf8.RuneSelf {
				if r, size := utf8.DecodeRune(s.src[s.i:]); r == utf8.RuneError && size == 1 {
					s.i++
					return out, s.makeErrorToken(start, s.i, DiagnosticInvalidByte, "invalid UTF-8 byte")
				}
			}
			return out, nil
		}
	}

	return out, nil
}

func (s *scanner) scanToken() Token {
	start := s.i
	b := s.src[s.i]

	switch {
	case isIdentStart(b):
		return s.scanIdentifierOrKeyword()
	case isDigit(b):
		return s.scanNumber()
	case b == '\'':
		return s.scanString()
	case b == '`':
		return s.scanDelimitedIdentifier()
	case b == '@':
		return s.scanDateTimeLiteral()
	case b == '$':
		return s.scanSpecialVariable()
	case b == '%':
		return s.scanExternalConstant()
	case b >= utf8.RuneSelf:
		r, size := utf8.DecodeRune(s.src[s.i:])
		if r == utf8.RuneError && size == 1 {
			s.i++
			return *s.makeErrorToken(start, start+1, DiagnosticInvalidByte, "invalid UTF-8 byte")
		}
		s.i += size
		return *s.makeErrorToken(start, s.i, DiagnosticUnknownCharacter, "unsupported non-ASCII token character")
	default:
		s.i++
		switch b {
		case '(':
			return Token{Kind: TokenLParen, Span: span(start, s.i)}
		case ')':
			return Token{Kind: TokenRParen, Span: span(start, s.i)}
		case '[':
			return Token{Kind: TokenLBracket, Span: span(start, s.i)}
		case ']':
			return Token{Kind: TokenRBracket, Span: span(start, s.i)}
		case '{':
			return Token{Kind: TokenLBrace, Span: span(start, s.i)}
		case '}':
			return Token{Kind: TokenRBrace, Span: span(start, s.i)}
		case ',':
			return Token{Kind: TokenComma, Span: span(start, s.i)}
		case '.':
			// Always a single-dot token, even when immediately followed by
			// another '.': the parser (spec.md §4.5) recognizes two
			// adjacent dot tokens as the common "double-dot" typo and
			// recovers from there, rather than the lexer inventing a
			// distinct ".." token kind.
			return Token{Kind: TokenDot, Span: span(start, s.i)}
		case '+':
			return Token{Kind: TokenPlus, Span: span(start, s.i)}
		case '-':
			return Token{Kind: TokenMinus, Span: span(start, s.i)}
		case '*':
			return Token{Kind: TokenStar, Span: span(start, s.i)}
		case '/':
			return Token{Kind: TokenSlash, Span: span(start, s.i)}
		case '&':
			return Token{Kind: TokenAmp, Span: span(start, s.i)}
		case '|':
			return Token{Kind: TokenPipe, Span: span(start, s.i)}
		case '=':
			return Token{Kind: TokenEq, Span: span(start, s.i)}
		case '~':
			return Token{Kind: TokenEquiv, Span: span(start, s.i)}
		case '!':
			if !s.eof() && s.src[s.i] == '=' {
				s.i++
				return Token{Kind: TokenNeq, Span: span(start, s.i)}
			}
			if !s.eof() && s.src[s.i] == '~' {
				s.i++
				return Token{Kind: TokenNequiv, Span: span(start, s.i)}
			}
			return *s.makeErrorToken(start, s.i, DiagnosticUnknownCharacter, "unknown character '!'")
		case '<':
			if !s.eof() && s.src[s.i] == '=' {
				s.i++
				return Token{Kind: TokenLe, Span: span(start, s.i)}
			}
			return Token{Kind: TokenLt, Span: span(start, s.i)}
		case '>':
			if !s.eof() && s.src[s.i] == '=' {
				s.i++
				return Token{Kind: TokenGe, Span: span(start, s.i)}
			}
			return Token{Kind: TokenGt, Span: span(start, s.i)}
		default:
			return *s.makeErrorToken(start, s.i, DiagnosticUnknownCharacter, fmt.Sprintf("unknown character %q", b))
		}
	}
}

func (s *scanner) scanIdentifierOrKeyword() Token {
	start := s.i
	s.i++
	for !s.eof() && isIdentPart(s.src[s.i]) {
		s.i++
	}
	tok := Token{Kind: TokenIdentifier, Span: span(start, s.i)}
	if kind, ok := keywordKinds[string(s.src[start:s.i])]; ok {
		tok.Kind = kind
	}
	return tok
}

func (s *scanner) scanSpecialVariable() Token {
	start := s.i
	s.i++ // '$'
	for !s.eof() && isIdentPart(s.src[s.i]) {
		s.i++
	}
	return Token{Kind: TokenSpecialVariable, Span: span(start, s.i)}
}

func (s *scanner) scanExternalConstant() Token {
	start := s.i
	s.i++ // '%'
	switch {
	case !s.eof() && s.src[s.i] == '`':
		s.i++
		for !s.eof() && s.src[s.i] != '`' {
			s.i++
		}
		if !s.eof() {
			s.i++
		}
	case !s.eof() && s.src[s.i] == '\'':
		str := s.scanString()
		s.i = int(str.Span.End)
	default:
		for !s.eof() && isIdentPart(s.src[s.i]) {
			s.i++
		}
	}
	return Token{Kind: TokenExternalConstant, Span: span(start, s.i)}
}

func (s *scanner) scanDelimitedIdentifier() Token {
	start := s.i
	s.i++ // '`'
	for !s.eof() {
		switch s.src[s.i] {
		case '`':
			s.i++
			return Token{Kind: TokenDelimitedIdentifier, Span: span(start, s.i)}
		case '\\':
			s.i++
			if !s.eof() {
				s.i++
			}
		case '\r', '\n':
			return *s.makeErrorToken(start, s.i, DiagnosticUnterminatedDelimited, "unterminated delimited identifier")
		default:
			s.i++
		}
	}
	return *s.makeErrorToken(start, s.i, DiagnosticUnterminatedDelimited, "unterminated delimited identifier")
}

func (s *scanner) scanNumber() Token {
	start := s.i
	for !s.eof() && isDigit(s.src[s.i]) {
		s.i++
	}

	kind := TokenIntLiteral
	if s.peekByte(0) == '.' && isDigit(s.peekByte(1)) {
		kind = TokenDecimalLiteral
		s.i++ // '.'
		for !s.eof() && isDigit(s.src[s.i]) {
			s.i++
		}
	}

	return Token{Kind: kind, Span: span(start, s.i)}
}

func (s *scanner) scanString() Token {
	start := s.i
	s.i++ // opening '\''

	for !s.eof() {
		switch s.src[s.i] {
		case '\'':
			s.i++
			return Token{Kind: TokenStringLiteral, Span: span(start, s.i)}
		case '\\':
			escStart := s.i
			s.i++
			if s.eof() {
				return *s.makeErrorToken(start, s.i, DiagnosticUnterminatedString, "unterminated string literal")
			}
			switch s.src[s.i] {
			case '\'', '"', '`', '\\', '/', 'r', 'n', 't', 'f':
				s.i++
			case 'u':
				s.i++
				for k := 0; k < 4 && !s.eof() && isHexDigit(s.src[s.i]); k++ {
					s.i++
				}
			default:
				s.diagnostics = append(s.diagnostics, Diagnostic{
					Code:    DiagnosticInvalidEscape,
					Message: "invalid escape sequence",
					Span:    span(escStart, s.i+1),
				})
				s.i++
			}
		case '\r', '\n':
			return *s.makeErrorToken(start, s.i, DiagnosticUnterminatedString, "unterminated string literal")
		default:
			s.i++
		}
	}

	return *s.makeErrorToken(start, s.i, DiagnosticUnterminatedString, "unterminated string literal")
}

// scanDateTimeLiteral scans a '@'-prefixed Date, DateTime, or Time
// literal per spec.md §4.3. Grammar (informal):
//
//	DATE     := '@' YEAR ('-' MONTH ('-' DAY)?)?
//	TIME     := '@' 'T' TIMEFORMAT
//	DATETIME := DATE ('T' TIMEFORMAT? TIMEZONE?)?
//	TIMEFORMAT := HH (':' MM (':' SS ('.' FRAC)?)?)?
//	TIMEZONE   := 'Z' | ('+'|'-') HH ':' MM
func (s *scanner) scanDateTimeLiteral() Token {
	start := s.i
	s.i++ // '@'

	if !s.eof() && s.src[s.i] == 'T' {
		s.i++
		s.scanTimeFormat()
		return Token{Kind: TokenTimeLiteral, Span: span(start, s.i)}
	}

	digits := s.scanDigitRun(4)
	if digits == 0 {
		return *s.makeErrorToken(start, s.i, DiagnosticInvalidDateTimeLiteral, "invalid date/time literal")
	}
	if s.peekByte(0) == '-' {
		s.i++
		s.scanDigitRun(2)
		if s.peekByte(0) == '-' {
			s.i++
			s.scanDigitRun(2)
		}
	}

	kind := TokenDateLiteral
	if !s.eof() && s.src[s.i] == 'T' {
		s.i++
		kind = TokenDateTimeLiteral
		s.scanTimeFormat()
		s.scanTimezone()
	}
	return Token{Kind: kind, Span: span(start, s.i)}
}

func (s *scanner) scanTimeFormat() {
	if s.scanDigitRun(2) == 0 {
		return
	}
	if s.peekByte(0) == ':' {
		s.i++
		s.scanDigitRun(2)
		if s.peekByte(0) == ':' {
			s.i++
			s.scanDigitRun(2)
			if s.peekByte(0) == '.' {
				s.i++
				for !s.eof() && isDigit(s.src[s.i]) {
					s.i++
				}
			}
		}
	}
}

func (s *scanner) scanTimezone() {
	switch s.peekByte(0) {
	case 'Z':
		s.i++
	case '+', '-':
		s.i++
		s.scanDigitRun(2)
		if s.peekByte(0) == ':' {
			s.i++
			s.scanDigitRun(2)
		}
	}
}

func (s *scanner) scanDigitRun(max int) int {
	n := 0
	for n < max && !s.eof() && isDigit(s.src[s.i]) {
		s.i++
		n++
	}
	return n
}

func (s *scanner) scanLineComment() {
	for !s.eof() && s.src[s.i] != '\n' && s.src[s.i] != '\r' {
		s.i++
	}
}

func (s *scanner) scanBlockCommentOrError() (Trivia, *Token) {
	start := s.i
	s.i += 2 // consume /*

	for !s.eof() {
		if s.src[s.i] == '*' && s.peekByte(1) == '/' {
			s.i += 2
			return Trivia{Kind: TriviaBlockComment, Span: span(start, s.i)}, nil
		}
		s.i++
	}

	return Trivia{}, s.makeErrorToken(start, s.i, DiagnosticUnterminatedBlockComment, "unterminated block comment")
}

func (s *scanner) makeErrorToken(start, end int, code DiagnosticCode, msg string) *Token {
	sp := span(start, end)
	s.diagnostics = append(s.diagnostics, Diagnostic{
		Code:    code,
		Message: msg,
		Span:    sp,
	})
	return &Token{
		Kind:  TokenError,
		Span:  sp,
		Flags: TokenFlagMalformed,
	}
}

func (s *scanner) eof() bool {
	return s.i >= len(s.src)
}

func (s *scanner) peekByte(delta int) byte {
	j := s.i + delta
	if j < 0 || j >= len(s.src) {
		return 0
	}
	return s.src[j]
}

func span(start, end int) text.Span {
	return text.Span{Start: text.ByteOffset(start), End: text.ByteOffset(end)}
}

func isHorizontalSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\v', '\f':
		return true
	default:
		return false
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func isIdentStart(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}
