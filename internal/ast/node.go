// Package ast defines the FHIRPath syntax tree: a tagged union of typed
// node variants, each carrying a source range (spec.md §3).
package ast

import (
	"github.com/kpumuk/fhirpath/internal/model"
	"github.com/kpumuk/fhirpath/internal/text"
)

// Node is implemented by every syntax-tree variant. Range returns the
// node's source span; Type/SetType carry the optional annotation the
// analyzer attaches post-parse (spec.md §4.6). Annotation is nil until
// analysis runs.
type Node interface {
	Range() text.Span
	Type() *model.TypeInfo
	SetType(t model.TypeInfo)
	isNode()
}

// base is embedded by every concrete node to supply the common Range
// and type-annotation machinery, mirroring the teacher's textRange/node
// embedding idiom (internal/syntax/types.go's Node struct) adapted from
// a generic CST cell into one small struct per production the way
// aundis-formula's `expression`/`node` embeds do.
type base struct {
	Span text.Span
	typ  *model.TypeInfo
}

func (b *base) Range() text.Span { return b.Span }
func (b *base) Type() *model.TypeInfo { return b.typ }
func (b *base) SetType(t model.TypeInfo) { b.typ = &t }
func (b *base) isNode() {}

// LiteralKind distinguishes the primitive literal forms.
type LiteralKind uint8

const (
	LiteralBoolean LiteralKind = iota
	LiteralInteger
	LiteralDecimal
	LiteralString
	LiteralDate
	LiteralDateTime
	LiteralTime
	LiteralQuantity
)

// Literal is a Boolean/Integer/Decimal/String/Date/DateTime/Time/Quantity literal.
type Literal struct {
	base
	LiteralKind LiteralKind
	Lexeme      string // raw source text, for re-parsing by the evaluator/compiler
	Unit        string // populated only for LiteralQuantity
}

// Identifier is a bare property or type-name reference.
type Identifier struct {
	base
	Name string
}

// VariableKind distinguishes the two variable sigils.
type VariableKind uint8

const (
	VariableSpecial VariableKind = iota // $this, $index, $total
	VariableUser                        // %name, user- or host-defined
)

// Variable is a `$`- or `%`-sigiled reference.
type Variable struct {
	base
	VarKind VariableKind
	Name    string // sigil stripped
}

// Unary is a prefix operator application (`+expr`, `-expr`).
type Unary struct {
	base
	Op      string
	Operand Node
}

// Binary is an infix operator application, including navigation (`.`).
type Binary struct {
	base
	Op    string
	Left  Node
	Right Node
}

// FunctionCall is a function invocation; Callee is the function name
// (an Identifier's Name, stored directly since the callee is never
// itself a general expression).
type FunctionCall struct {
	base
	Callee string
	Args   []Node
}

// Index is a subscript expression `expr[index]`.
type Index struct {
	base
	Expr  Node
	Index Node
}

// CollectionLiteral is a brace-delimited literal `{a, b, c}`.
type CollectionLiteral struct {
	base
	Elements []Node
}

// Union is an n-ary flattened `|` expression; the parser folds nested
// Union children into one node (spec.md §3 invariant).
type Union struct {
	base
	Operands []Node
}

// MembershipTest is an `is T` expression.
type MembershipTest struct {
	base
	Expr     Node
	TypeName TypeReference
}

// TypeCast is an `as T` expression.
type TypeCast struct {
	base
	Expr     Node
	TypeName TypeReference
}

// TypeReference is a (possibly namespaced) type name, used by `is`/`as`
// and by the `type-specifier` argument kind of functions like `ofType`.
type TypeReference struct {
	base
	Namespace string
	Name      string
}

// Error is a recovery node produced only in parser modes that permit
// recovery (spec.md §3 invariant).
type Error struct {
	base
	ExpectedTokens []string
	ActualToken    string
	Message        string
}

// Incomplete is a partially-parsed node produced only in parser modes
// that permit recovery.
type Incomplete struct {
	base
	PartialChild Node
	MissingParts []string
}

var (
	_ Node = (*Literal)(nil)
	_ Node = (*Identifier)(nil)
	_ Node = (*Variable)(nil)
	_ Node = (*Unary)(nil)
	_ Node = (*Binary)(nil)
	_ Node = (*FunctionCall)(nil)
	_ Node = (*Index)(nil)
	_ Node = (*CollectionLiteral)(nil)
	_ Node = (*Union)(nil)
	_ Node = (*MembershipTest)(nil)
	_ Node = (*TypeCast)(nil)
	_ Node = (*TypeReference)(nil)
	_ Node = (*Error)(nil)
	_ Node = (*Incomplete)(nil)
)

// NewLiteral, NewIdentifier, ... construct nodes with their span set;
// kept as small factory functions (rather than exported struct literals
// everywhere in the parser) so every call site spells the span
// argument once, matching the teacher's own `span(start, end)` helper
// convention in internal/lexer/lexer.go.

func NewLiteral(span text.Span, kind LiteralKind, lexeme, unit string) *Literal {
	return &Literal{base: base{Span: span}, LiteralKind: kind, Lexeme: lexeme, Unit: unit}
}

func NewIdentifier(span text.Span, name string) *Identifier {
	return &Identifier{base: base{Span: span}, Name: name}
}

func NewVariable(span text.Span, kind VariableKind, name string) *Variable {
	return &Variable{base: base{Span: span}, VarKind: kind, Name: name}
}

func NewUnary(span text.Span, op string, operand Node) *Unary {
	return &Unary{base: base{Span: span}, Op: op, Operand: operand}
}

func NewBinary(span text.Span, op string, left, right Node) *Binary {
	return &Binary{base: base{Span: span}, Op: op, Left: left, Right: right}
}

func NewFunctionCall(span text.Span, callee string, args []Node) *FunctionCall {
	return &FunctionCall{base: base{Span: span}, Callee: callee, Args: args}
}

func NewIndex(span text.Span, expr, index Node) *Index {
	return &Index{base: base{Span: span}, Expr: expr, Index: index}
}

func NewCollectionLiteral(span text.Span, elements []Node) *CollectionLiteral {
	return &CollectionLiteral{base: base{Span: span}, Elements: elements}
}

// NewUnion builds a flattened union, folding any Union operands into
// this one's operand list so no Union ever has a Union child.
func NewUnion(span text.Span, operands []Node) *Union {
	flat := make([]Node, 0, len(operands))
	for _, n := range operands {
		if u, ok := n.(*Union); ok {
			flat = append(flat, u.Operands...)
			continue
		}
		flat = append(flat, n)
	}
	return &Union{base: base{Span: span}, Operands: flat}
}

func NewMembershipTest(span text.Span, expr Node, typ TypeReference) *MembershipTest {
	return &MembershipTest{base: base{Span: span}, Expr: expr, TypeName: typ}
}

func NewTypeCast(span text.Span, expr Node, typ TypeReference) *TypeCast {
	return &TypeCast{base: base{Span: span}, Expr: expr, TypeName: typ}
}

func NewTypeReference(span text.Span, namespace, name string) TypeReference {
	return TypeReference{base: base{Span: span}, Namespace: namespace, Name: name}
}

func NewError(span text.Span, expected []string, actual, message string) *Error {
	return &Error{base: base{Span: span}, ExpectedTokens: expected, ActualToken: actual, Message: message}
}

func NewIncomplete(span text.Span, partial Node, missing []string) *Incomplete {
	return &Incomplete{base: base{Span: span}, PartialChild: partial, MissingParts: missing}
}

// Walk visits n and every descendant in pre-order, letting a caller
// build a node→range index (spec.md §6's "ranges" map) or any other
// tree-wide summary without each node variant exposing a children
// accessor of its own.
func Walk(n Node, visit func(Node)) {
	if n == nil {
		return
	}
	visit(n)
	switch node := n.(type) {
	case *Unary:
		Walk(node.Operand, visit)
	case *Binary:
		Walk(node.Left, visit)
		Walk(node.Right, visit)
	case *FunctionCall:
		for _, a := range node.Args {
			Walk(a, visit)
		}
	case *Index:
		Walk(node.Expr, visit)
		Walk(node.Index, visit)
	case *CollectionLiteral:
		for _, e := range node.Elements {
			Walk(e, visit)
		}
	case *Union:
		for _, o := range node.Operands {
			Walk(o, visit)
		}
	case *MembershipTest:
		Walk(node.Expr, visit)
		Walk(&node.TypeName, visit)
	case *TypeCast:
		Walk(node.Expr, visit)
		Walk(&node.TypeName, visit)
	case *Incomplete:
		Walk(node.PartialChild, visit)
	}
}
