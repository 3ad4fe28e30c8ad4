package parser

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/kpumuk/fhirpath/internal/ast"
	"github.com/kpumuk/fhirpath/internal/diagnostic"
	"github.com/kpumuk/fhirpath/internal/lexer"
	"github.com/kpumuk/fhirpath/internal/registry"
	"github.com/kpumuk/fhirpath/internal/text"
	"github.com/kpumuk/fhirpath/internal/value"
)

// parseExpr is the Pratt-precedence loop (spec.md §4.5): it parses one
// unary/primary term, then repeatedly folds in infix/postfix operators
// whose precedence is at least minPrec, querying internal/registry for
// precedence so this package never hardcodes a binding-power table.
func (p *parser) parseExpr(minPrec int) ast.Node {
	left := p.parseUnary()

	for {
		tok := p.peek()

		if tok.Kind == lexer.TokenLBracket {
			op, ok := p.registry.GetByToken(lexer.TokenLBracket, registry.FormPostfix)
			if ok && op.Precedence >= minPrec {
				left = p.parseIndex(left)
				continue
			}
		}

		op, ok := p.registry.GetByToken(tok.Kind, registry.FormInfix)
		if !ok || op.Precedence < minPrec {
			break
		}
		p.advance()

		switch tok.Kind {
		case lexer.TokenDot:
			p.consumeDoubleDot(tok)
			right := p.parseInvocation()
			left = ast.NewBinary(spanFrom(left.Range(), right.Range()), op.Name, left, right)
		case lexer.TokenKwIs:
			typ := p.parseTypeSpecifier()
			left = ast.NewMembershipTest(spanFrom(left.Range(), typ.Range()), left, typ)
		case lexer.TokenKwAs:
			typ := p.parseTypeSpecifier()
			left = ast.NewTypeCast(spanFrom(left.Range(), typ.Range()), left, typ)
		case lexer.TokenPipe:
			right := p.parseExpr(op.Precedence + 1)
			left = ast.NewUnion(spanFrom(left.Range(), right.Range()), []ast.Node{left, right})
		default:
			right := p.parseExpr(op.Precedence + 1)
			left = ast.NewBinary(spanFrom(left.Range(), right.Range()), op.Name, left, right)
		}
	}

	return left
}

// parseUnary handles the prefix '+'/'-' operators; the operand is
// parsed at the unary operator's own precedence, so `-1+2` binds as
// `(-1)+2` rather than `-(1+2)` while `-Patient.age` still binds as
// `-(Patient.age)` since navigation/indexing outrank unary.
func (p *parser) parseUnary() ast.Node {
	tok := p.peek()
	if op, ok := p.registry.GetByToken(tok.Kind, registry.FormPrefix); ok {
		p.advance()
		operand := p.parseExpr(op.Precedence)
		return ast.NewUnary(spanFrom(tok.Span, operand.Range()), op.Name, operand)
	}
	return p.parsePrimary()
}

func (p *parser) parseIndex(left ast.Node) ast.Node {
	open := p.advance() // '['
	if p.peek().Kind == lexer.TokenRBracket {
		p.collector.Add(diagnostic.EmptyIndex(spanFrom(open.Span, p.peek().Span)))
	}
	idx := p.parseExpr(0)
	closeTok, ok := p.expect(lexer.TokenRBracket, diagnostic.Unclosed(diagnostic.CodeUnclosedBracket, "bracket", open.Span, p.peek().Span))
	end := idx.Range()
	if ok {
		end = closeTok.Span
	}
	return ast.NewIndex(spanFrom(left.Range(), end), left, idx)
}

// parsePrimary parses a term: a literal, a variable, a parenthesized
// expression, a collection literal, or an invocation (identifier or
// function call) — spec.md §4.5's `term` production.
func (p *parser) parsePrimary() ast.Node {
	tok := p.peek()
	switch tok.Kind {
	case lexer.TokenIntLiteral:
		p.advance()
		return p.finishNumericLiteral(tok, ast.LiteralInteger)
	case lexer.TokenDecimalLiteral:
		p.advance()
		return p.finishNumericLiteral(tok, ast.LiteralDecimal)
	case lexer.TokenStringLiteral:
		p.advance()
		return ast.NewLiteral(tok.Span, ast.LiteralString, p.text(tok.Span), "")
	case lexer.TokenDateLiteral:
		p.advance()
		return ast.NewLiteral(tok.Span, ast.LiteralDate, p.text(tok.Span), "")
	case lexer.TokenDateTimeLiteral:
		p.advance()
		return ast.NewLiteral(tok.Span, ast.LiteralDateTime, p.text(tok.Span), "")
	case lexer.TokenTimeLiteral:
		p.advance()
		return ast.NewLiteral(tok.Span, ast.LiteralTime, p.text(tok.Span), "")
	case lexer.TokenKwTrue:
		p.advance()
		return ast.NewLiteral(tok.Span, ast.LiteralBoolean, "true", "")
	case lexer.TokenKwFalse:
		p.advance()
		return ast.NewLiteral(tok.Span, ast.LiteralBoolean, "false", "")
	case lexer.TokenSpecialVariable:
		p.advance()
		return ast.NewVariable(tok.Span, ast.VariableSpecial, strings.TrimPrefix(p.text(tok.Span), "$"))
	case lexer.TokenExternalConstant:
		p.advance()
		return ast.NewVariable(tok.Span, ast.VariableUser, externalConstantName(p.text(tok.Span)))
	case lexer.TokenLParen:
		return p.parseParenthesized()
	case lexer.TokenLBrace:
		return p.parseCollectionLiteral()
	case lexer.TokenIdentifier, lexer.TokenDelimitedIdentifier, lexer.TokenKwContains:
		return p.parseInvocation()
	default:
		return p.fail(diagnostic.ExpectedExpression(p.currentLexeme(), tok.Span))
	}
}

// finishNumericLiteral absorbs an immediately-following quantity unit
// (a quoted UCUM string or a bare calendar-duration keyword) into the
// just-parsed Int/Decimal token, per spec.md §4.3's quantity grammar.
func (p *parser) finishNumericLiteral(numTok lexer.Token, kind ast.LiteralKind) ast.Node {
	span := numTok.Span
	unit := ""
	switch next := p.peek(); next.Kind {
	case lexer.TokenStringLiteral:
		p.advance()
		unit = value.CanonicalUnit(trimQuotes(p.text(next.Span)))
		span = spanFrom(numTok.Span, next.Span)
		kind = ast.LiteralQuantity
	case lexer.TokenIdentifier:
		word := p.text(next.Span)
		if value.IsCalendarDurationUnit(word) {
			p.advance()
			unit = value.CanonicalUnit(word)
			span = spanFrom(numTok.Span, next.Span)
			kind = ast.LiteralQuantity
		}
	}
	return ast.NewLiteral(span, kind, p.text(numTok.Span), unit)
}

// consumeDoubleDot recognizes `..` as the common double-dot typo
// (spec.md §4.5): firstDot was already consumed by the Pratt loop, so
// a second immediately-adjacent dot token is skipped with a single
// INVALID_OPERATOR diagnostic spanning both dots, and parsing continues
// as though only one dot had been written.
func (p *parser) consumeDoubleDot(firstDot lexer.Token) {
	if p.peek().Kind != lexer.TokenDot {
		return
	}
	second := p.advance()
	if p.collector != nil {
		p.collector.Add(diagnostic.InvalidOperator("..", spanFrom(firstDot.Span, second.Span)))
	}
}

// parseInvocation parses the `invocation` production: a bare
// identifier, a function call (identifier immediately followed by an
// argument list), or a delimited identifier. Used both at term
// position and as the right operand of '.'.
func (p *parser) parseInvocation() ast.Node {
	tok := p.peek()
	switch tok.Kind {
	case lexer.TokenSpecialVariable:
		p.advance()
		return ast.NewVariable(tok.Span, ast.VariableSpecial, strings.TrimPrefix(p.text(tok.Span), "$"))
	case lexer.TokenIdentifier, lexer.TokenDelimitedIdentifier, lexer.TokenKwContains:
		p.advance()
		name := identifierText(p.text(tok.Span))
		if p.peek().Kind == lexer.TokenLParen {
			return p.parseFunctionCall(tok.Span, name)
		}
		return ast.NewIdentifier(tok.Span, name)
	default:
		return p.fail(diagnostic.ExpectedIdentifier(p.currentLexeme(), tok.Span))
	}
}

// parseFunctionCall parses the parenthesized argument list after a
// function name already consumed at nameSpan. When the function is a
// known registry entry, a ParamTypeSpecifier-kind parameter parses its
// argument as a type name instead of a general expression (spec.md
// §3, "type-specifier argument kind").
func (p *parser) parseFunctionCall(nameSpan text.Span, name string) ast.Node {
	op, known := p.registry.Get(name)
	open := p.advance() // '('

	var args []ast.Node
	for p.peek().Kind != lexer.TokenRParen && p.peek().Kind != lexer.TokenEOF {
		idx := len(args)
		if known && idx < len(op.Params) && op.Params[idx].Kind == registry.ParamTypeSpecifier {
			typ := p.parseTypeSpecifier()
			args = append(args, &typ)
		} else {
			args = append(args, p.parseExpr(0))
		}
		if p.peek().Kind == lexer.TokenComma {
			commaTok := p.advance()
			if p.peek().Kind == lexer.TokenRParen {
				p.collector.Add(diagnostic.TrailingComma(commaTok.Span))
			}
			continue
		}
		break
	}

	closeTok, ok := p.expect(lexer.TokenRParen, diagnostic.Unclosed(diagnostic.CodeUnclosedParenthesis, "parenthesis", open.Span, p.peek().Span))
	end := open.Span
	if ok {
		end = closeTok.Span
	}
	return ast.NewFunctionCall(spanFrom(nameSpan, end), name, args)
}

func (p *parser) parseParenthesized() ast.Node {
	open := p.advance() // '('
	inner := p.parseExpr(0)
	p.expect(lexer.TokenRParen, diagnostic.Unclosed(diagnostic.CodeUnclosedParenthesis, "parenthesis", open.Span, p.peek().Span))
	return inner
}

func (p *parser) parseCollectionLiteral() ast.Node {
	open := p.advance() // '{'
	var elements []ast.Node
	for p.peek().Kind != lexer.TokenRBrace && p.peek().Kind != lexer.TokenEOF {
		elements = append(elements, p.parseExpr(0))
		if p.peek().Kind == lexer.TokenComma {
			commaTok := p.advance()
			if p.peek().Kind == lexer.TokenRBrace {
				p.collector.Add(diagnostic.TrailingComma(commaTok.Span))
			}
			continue
		}
		break
	}
	closeTok, ok := p.expect(lexer.TokenRBrace, diagnostic.Unclosed(diagnostic.CodeUnclosedBrace, "brace", open.Span, p.peek().Span))
	end := open.Span
	if ok {
		end = closeTok.Span
	}
	return ast.NewCollectionLiteral(spanFrom(open.Span, end), elements)
}

// parseTypeSpecifier parses a (possibly namespaced) type name: `Name`
// or `Namespace.Name` (e.g. `FHIR.Patient`, `System.String`), optionally
// wrapped in parentheses (`(T)`, `(FHIR.Patient)`) — spec.md §4.5 accepts
// both forms for `is`/`as`/a type-specifier function argument. This is
// its own grammar, not a general expression, since `.` here always
// separates namespace from name rather than denoting navigation.
func (p *parser) parseTypeSpecifier() ast.TypeReference {
	if p.peek().Kind == lexer.TokenLParen {
		open := p.advance()
		typ := p.parseTypeSpecifier()
		closeTok, ok := p.expect(lexer.TokenRParen, diagnostic.Unclosed(diagnostic.CodeUnclosedParenthesis, "parenthesis", open.Span, p.peek().Span))
		end := typ.Range()
		if ok {
			end = closeTok.Span
		}
		return ast.NewTypeReference(spanFrom(open.Span, end), typ.Namespace, typ.Name)
	}
	tok := p.peek()
	if tok.Kind != lexer.TokenIdentifier && tok.Kind != lexer.TokenDelimitedIdentifier {
		p.fail(diagnostic.ExpectedTypeName(p.currentLexeme(), tok.Span))
		return ast.NewTypeReference(tok.Span, "", "")
	}
	p.advance()
	first := identifierText(p.text(tok.Span))

	if p.peek().Kind == lexer.TokenDot {
		next := p.peekAt(1)
		if next.Kind == lexer.TokenIdentifier || next.Kind == lexer.TokenDelimitedIdentifier {
			p.advance() // '.'
			nameTok := p.advance()
			name := identifierText(p.text(nameTok.Span))
			return ast.NewTypeReference(spanFrom(tok.Span, nameTok.Span), first, name)
		}
	}
	return ast.NewTypeReference(tok.Span, "", first)
}

// identifierText strips backticks from a delimited identifier lexeme
// and normalizes the result to Unicode NFC, so a property name written
// with combining marks (e.g. a precomposed vs. decomposed accented
// letter) matches the same model property regardless of how the
// source file encoded it.
func identifierText(lexeme string) string {
	if len(lexeme) >= 2 && lexeme[0] == '`' && lexeme[len(lexeme)-1] == '`' {
		return norm.NFC.String(unescapeDelimited(lexeme[1 : len(lexeme)-1]))
	}
	return norm.NFC.String(lexeme)
}

func unescapeDelimited(s string) string {
	return strings.NewReplacer("\\`", "`", `\\`, `\`).Replace(s)
}

func trimQuotes(s string) string {
	if len(s) >= 2 {
		return s[1 : len(s)-1]
	}
	return s
}

// externalConstantName strips the '%' sigil and, for `%`-delimited or
// quoted forms (`` %`ext var` ``, `%'str'`), its inner quoting too.
func externalConstantName(lexeme string) string {
	body := strings.TrimPrefix(lexeme, "%")
	if len(body) >= 2 && body[0] == '`' && body[len(body)-1] == '`' {
		return unescapeDelimited(body[1 : len(body)-1])
	}
	if len(body) >= 2 && body[0] == '\'' {
		return trimQuotes(body)
	}
	return body
}
