package lexer

import (
	"testing"

	"github.com/kpumuk/fhirpath/internal/text"
)

func TestTokenAndTriviaBytesUseRawSpans(t *testing.T) {
	t.Parallel()

	src := []byte("  abc")
	tr := Trivia{Kind: TriviaWhitespace, Span: text.Span{Start: 0, End: 2}}
	tok := Token{Kind: TokenIdentifier, Span: text.Span{Start: 2, End: 5}}

	if got := string(tr.Bytes(src)); got != "  " {
		t.Fatalf("Trivia.Bytes() = %q, want %q", got, "  ")
	}
	if got := tok.Text(src); got != "abc" {
		t.Fatalf("Token.Text() = %q, want %q", got, "abc")
	}
}

func kindsOf(res Result) []TokenKind {
	out := make([]TokenKind, len(res.Tokens))
	for i, tok := range res.Tokens {
		out[i] = tok.Kind
	}
	return out
}

func TestLexIdentifiersAndKeywords(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		src  string
		want []TokenKind
	}{
		{"plain identifier", "Patient", []TokenKind{TokenIdentifier, TokenEOF}},
		{"navigation", "Patient.name", []TokenKind{TokenIdentifier, TokenDot, TokenIdentifier, TokenEOF}},
		{"and keyword", "true and false", []TokenKind{TokenKwTrue, TokenKwAnd, TokenKwFalse, TokenEOF}},
		{"div mod", "5 div 2 mod 1", []TokenKind{TokenIntLiteral, TokenKwDiv, TokenIntLiteral, TokenKwMod, TokenIntLiteral, TokenEOF}},
		{"delimited identifier", "`where`.count()", []TokenKind{TokenDelimitedIdentifier, TokenDot, TokenIdentifier, TokenLParen, TokenRParen, TokenEOF}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res := Lex([]byte(tc.src))
			if len(res.Diagnostics) != 0 {
				t.Fatalf("unexpected diagnostics: %+v", res.Diagnostics)
			}
			got := kindsOf(res)
			if len(got) != len(tc.want) {
				t.Fatalf("kinds = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("kinds[%d] = %v, want %v (all: %v)", i, got[i], tc.want[i], got)
				}
			}
		})
	}
}

func TestLexLiterals(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		src  string
		want TokenKind
	}{
		{"integer", "42", TokenIntLiteral},
		{"decimal", "3.14", TokenDecimalLiteral},
		{"string", "'hello'", TokenStringLiteral},
		{"date", "@2015-02-07", TokenDateLiteral},
		{"datetime", "@2015-02-07T13:28:17-05:00", TokenDateTimeLiteral},
		{"time", "@T13:28:00", TokenTimeLiteral},
		{"special variable", "$this", TokenSpecialVariable},
		{"external constant", "%resource", TokenExternalConstant},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res := Lex([]byte(tc.src))
			if len(res.Diagnostics) != 0 {
				t.Fatalf("unexpected diagnostics: %+v", res.Diagnostics)
			}
			if len(res.Tokens) < 1 || res.Tokens[0].Kind != tc.want {
				t.Fatalf("first token kind = %v, want %v (tokens: %+v)", res.Tokens[0].Kind, tc.want, res.Tokens)
			}
		})
	}
}

func TestLexUnterminatedStringEmitsDiagnostic(t *testing.T) {
	t.Parallel()
	res := Lex([]byte("'unterminated"))
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Code != DiagnosticUnterminatedString {
		t.Fatalf("diagnostics = %+v, want one UNTERMINATED_STRING", res.Diagnostics)
	}
}

func TestLexCommentsAreHiddenTrivia(t *testing.T) {
	t.Parallel()
	res := Lex([]byte("// a comment\nPatient"))
	if len(res.Tokens) < 1 {
		t.Fatalf("expected at least one token")
	}
	tok := res.Tokens[0]
	if tok.Kind != TokenIdentifier {
		t.Fatalf("Kind = %v, want TokenIdentifier", tok.Kind)
	}
	if len(tok.Leading) == 0 {
		t.Fatalf("expected leading trivia to carry the comment")
	}
}
