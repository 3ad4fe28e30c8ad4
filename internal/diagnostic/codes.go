package diagnostic

import (
	"fmt"

	"github.com/kpumuk/fhirpath/internal/text"
)

// Code is a stable, machine-readable diagnostic identifier.
type Code string

const (
	CodeInvalidCharacter          Code = "INVALID_CHARACTER"
	CodeUnterminatedString        Code = "UNTERMINATED_STRING"
	CodeInvalidEscape             Code = "INVALID_ESCAPE"
	CodeUnterminatedDelimitedIden Code = "UNTERMINATED_DELIMITED_IDENTIFIER"
	CodeInvalidNumberLiteral      Code = "INVALID_NUMBER_LITERAL"
	CodeInvalidDateTimeLiteral    Code = "INVALID_DATETIME_LITERAL"

	CodeUnclosedParenthesis Code = "UNCLOSED_PARENTHESIS"
	CodeUnclosedBracket     Code = "UNCLOSED_BRACKET"
	CodeUnclosedBrace       Code = "UNCLOSED_BRACE"
	CodeInvalidOperator     Code = "INVALID_OPERATOR"
	CodeExpectedIdentifier  Code = "EXPECTED_IDENTIFIER"
	CodeExpectedExpression  Code = "EXPECTED_EXPRESSION"
	CodeExpectedTypeName    Code = "EXPECTED_TYPE_NAME"
	CodeUnexpectedToken     Code = "UNEXPECTED_TOKEN"
	CodeMissingArguments    Code = "MISSING_ARGUMENTS"
	CodeTrailingComma       Code = "TRAILING_COMMA"
	CodeEmptyIndex          Code = "EMPTY_INDEX"
	CodeMultipleErrors      Code = "MULTIPLE_ERRORS"

	CodeUnknownProperty       Code = "UNKNOWN_PROPERTY"
	CodeTypeMismatch          Code = "TYPE_MISMATCH"
	CodeCardinalityViolation  Code = "CARDINALITY_VIOLATION"
	CodeWrongArity            Code = "WRONG_ARITY"
	CodeInvalidTypeFilter     Code = "INVALID_TYPE_FILTER"
	CodeUnknownFunction       Code = "UNKNOWN_FUNCTION"
	CodeUnknownType           Code = "UNKNOWN_TYPE"
)

// Unclosed builds the UNCLOSED_* family of diagnostics, pointing a
// related-info entry at the matching opening delimiter.
func Unclosed(code Code, kind string, openSpan, at text.Span) Diagnostic {
	return Diagnostic{
		Code:     code,
		Message:  fmt.Sprintf("Unclosed %s", kind),
		Severity: SeverityError,
		Span:     at,
		Source:   SourceParser,
		Related: []Related{
			{Message: fmt.Sprintf("%s opened here", kind), Span: openSpan},
		},
	}
}

func InvalidOperator(op string, span text.Span) Diagnostic {
	return Diagnostic{
		Code:     CodeInvalidOperator,
		Message:  fmt.Sprintf("Invalid '%s' operator", op),
		Severity: SeverityError,
		Span:     span,
		Source:   SourceParser,
	}
}

func ExpectedIdentifier(gotLexeme string, span text.Span) Diagnostic {
	return Diagnostic{
		Code:     CodeExpectedIdentifier,
		Message:  fmt.Sprintf("Expected an identifier, got %q", gotLexeme),
		Severity: SeverityError,
		Span:     span,
		Source:   SourceParser,
	}
}

func ExpectedExpression(gotLexeme string, span text.Span) Diagnostic {
	return Diagnostic{
		Code:     CodeExpectedExpression,
		Message:  fmt.Sprintf("Expected an expression, got %q", gotLexeme),
		Severity: SeverityError,
		Span:     span,
		Source:   SourceParser,
	}
}

func ExpectedTypeName(gotLexeme string, span text.Span) Diagnostic {
	return Diagnostic{
		Code:     CodeExpectedTypeName,
		Message:  fmt.Sprintf("Expected a type name, got %q", gotLexeme),
		Severity: SeverityError,
		Span:     span,
		Source:   SourceParser,
	}
}

func UnexpectedToken(context, gotLexeme string, span text.Span) Diagnostic {
	return Diagnostic{
		Code:     CodeUnexpectedToken,
		Message:  fmt.Sprintf("Unexpected token %q in %s", gotLexeme, context),
		Severity: SeverityError,
		Span:     span,
		Source:   SourceParser,
	}
}

func MissingArguments(name string, want, got int, span text.Span) Diagnostic {
	return Diagnostic{
		Code:     CodeMissingArguments,
		Message:  fmt.Sprintf("%s expects %d argument(s), got %d", name, want, got),
		Severity: SeverityError,
		Span:     span,
		Source:   SourceParser,
	}
}

func TrailingComma(span text.Span) Diagnostic {
	return Diagnostic{
		Code:     CodeTrailingComma,
		Message:  "Trailing comma in argument list",
		Severity: SeverityError,
		Span:     span,
		Source:   SourceParser,
	}
}

func EmptyIndex(span text.Span) Diagnostic {
	return Diagnostic{
		Code:     CodeEmptyIndex,
		Message:  "Index expression is empty",
		Severity: SeverityError,
		Span:     span,
		Source:   SourceParser,
	}
}

func MultipleErrors(n int, span text.Span) Diagnostic {
	return Diagnostic{
		Code:     CodeMultipleErrors,
		Message:  fmt.Sprintf("%d additional errors suppressed", n),
		Severity: SeverityInfo,
		Span:     span,
		Source:   SourceParser,
	}
}

func UnknownProperty(name, typeName string, severity Severity, span text.Span) Diagnostic {
	return Diagnostic{
		Code:     CodeUnknownProperty,
		Message:  fmt.Sprintf("Unknown property %q on type %s", name, typeName),
		Severity: severity,
		Span:     span,
		Source:   SourceAnalyzer,
	}
}

func TypeMismatch(message string, span text.Span) Diagnostic {
	return Diagnostic{
		Code:     CodeTypeMismatch,
		Message:  message,
		Severity: SeverityError,
		Span:     span,
		Source:   SourceAnalyzer,
	}
}

func CardinalityViolation(message string, span text.Span) Diagnostic {
	return Diagnostic{
		Code:     CodeCardinalityViolation,
		Message:  message,
		Severity: SeverityError,
		Span:     span,
		Source:   SourceAnalyzer,
	}
}

func WrongArity(name string, want, got int, span text.Span) Diagnostic {
	return Diagnostic{
		Code:     CodeWrongArity,
		Message:  fmt.Sprintf("%s expects %d argument(s), got %d", name, want, got),
		Severity: SeverityError,
		Span:     span,
		Source:   SourceAnalyzer,
	}
}

func InvalidTypeFilter(typeName, unionName string, span text.Span) Diagnostic {
	return Diagnostic{
		Code:     CodeInvalidTypeFilter,
		Message:  fmt.Sprintf("Type %q is not among the choices of %s", typeName, unionName),
		Severity: SeverityWarning,
		Span:     span,
		Source:   SourceAnalyzer,
	}
}

func UnknownFunction(name string, span text.Span) Diagnostic {
	return Diagnostic{
		Code:     CodeUnknownFunction,
		Message:  fmt.Sprintf("Unknown function %q", name),
		Severity: SeverityError,
		Span:     span,
		Source:   SourceAnalyzer,
	}
}

func UnknownType(name string, span text.Span) Diagnostic {
	return Diagnostic{
		Code:     CodeUnknownType,
		Message:  fmt.Sprintf("Unknown type %q", name),
		Severity: SeverityError,
		Span:     span,
		Source:   SourceAnalyzer,
	}
}
