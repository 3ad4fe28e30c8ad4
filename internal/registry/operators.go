package registry

import (
	"github.com/kpumuk/fhirpath/internal/ast"
	"github.com/kpumuk/fhirpath/internal/errs"
	"github.com/kpumuk/fhirpath/internal/lexer"
	"github.com/kpumuk/fhirpath/internal/runtime"
	"github.com/kpumuk/fhirpath/internal/value"
)

// Precedence table (spec.md §4.5): navigation binds tightest, implies
// loosest. Higher numbers bind tighter. Owned exclusively here; the
// parser never hardcodes a precedence number.
const (
	precNavigation = 130
	precIndex      = 120
	precUnary      = 110
	precMultiplicative = 100
	precAdditive       = 90
	precType           = 80
	precUnion          = 70
	precInequality     = 60
	precEquality       = 50
	precMembership     = 40
	precAnd            = 30
	precOrXor          = 20
	precImplies        = 10
)

func evalArg(interp Interpreter, rc *runtime.Context, n ast.Node) (value.Collection, error) {
	v, _, err := interp.Eval(n, rc)
	return v, err
}

func singletonOrEmpty(c value.Collection) (value.Value, bool, error) {
	switch len(c) {
	case 0:
		return value.Value{}, false, nil
	case 1:
		return c[0], true, nil
	default:
		return value.Value{}, false, errs.Evaluation("CARDINALITY_VIOLATION", "expected a singleton collection, got %d elements", len(c))
	}
}

// binaryArith builds an Evaluate for a propagates-empty binary
// arithmetic/comparison operator: both operands are evaluated eagerly
// and required to be singletons; an empty operand yields empty.
func binaryArith(op func(a, b value.Value) (value.Value, error)) EvaluateFn {
	return func(interp Interpreter, rc *runtime.Context, input value.Collection, args []ast.Node) (value.Collection, *runtime.Context, error) {
		lc, err := evalArg(interp, rc, args[0])
		if err != nil {
			return nil, rc, err
		}
		rcoll, err := evalArg(interp, rc, args[1])
		if err != nil {
			return nil, rc, err
		}
		a, aok, err := singletonOrEmpty(lc)
		if err != nil {
			return nil, rc, err
		}
		b, bok, err := singletonOrEmpty(rcoll)
		if err != nil {
			return nil, rc, err
		}
		if !aok || !bok {
			return value.Empty, rc, nil
		}
		v, err := op(a, b)
		if err != nil {
			return nil, rc, err
		}
		// A zero Value (no Kind) from op is the "yields empty" case,
		// e.g. division by zero in '/', 'div' and 'mod'.
		if v.Kind == 0 {
			return value.Empty, rc, nil
		}
		return value.Of(v), rc, nil
	}
}

func registerOperators(r *Registry) {
	// Arithmetic.
	r.Register(&Operation{Kind: KindOperator, Name: "+", Token: lexer.TokenPlus, Form: FormInfix, Precedence: precAdditive,
		Evaluate: binaryArith(value.Add)})
	r.Register(&Operation{Kind: KindOperator, Name: "-", Token: lexer.TokenMinus, Form: FormInfix, Precedence: precAdditive,
		Evaluate: binaryArith(value.Sub)})
	r.Register(&Operation{Kind: KindOperator, Name: "*", Token: lexer.TokenStar, Form: FormInfix, Precedence: precMultiplicative,
		Evaluate: binaryArith(value.Mul)})
	r.Register(&Operation{Kind: KindOperator, Name: "/", Token: lexer.TokenSlash, Form: FormInfix, Precedence: precMultiplicative,
		Evaluate: binaryArith(func(a, b value.Value) (value.Value, error) {
			v, ok, err := value.Div(a, b)
			if err != nil || !ok {
				return value.Value{}, err
			}
			return v, nil
		})})
	r.Register(&Operation{Kind: KindOperator, Name: "div", Token: lexer.TokenKwDiv, Form: FormInfix, Precedence: precMultiplicative,
		Evaluate: binaryArith(func(a, b value.Value) (value.Value, error) {
			v, ok, err := value.IntDiv(a, b)
			if err != nil || !ok {
				return value.Value{}, err
			}
			return v, nil
		})})
	r.Register(&Operation{Kind: KindOperator, Name: "mod", Token: lexer.TokenKwMod, Form: FormInfix, Precedence: precMultiplicative,
		Evaluate: binaryArith(func(a, b value.Value) (value.Value, error) {
			v, ok, err := value.Mod(a, b)
			if err != nil || !ok {
				return value.Value{}, err
			}
			return v, nil
		})})
	r.Register(&Operation{Kind: KindOperator, Name: "&", Token: lexer.TokenAmp, Form: FormInfix, Precedence: precAdditive,
		Evaluate: func(interp Interpreter, rc *runtime.Context, input value.Collection, args []ast.Node) (value.Collection, *runtime.Context, error) {
			lc, err := evalArg(interp, rc, args[0])
			if err != nil {
				return nil, rc, err
			}
			rcoll, err := evalArg(interp, rc, args[1])
			if err != nil {
				return nil, rc, err
			}
			a, aok, err := singletonOrEmpty(lc)
			if err != nil {
				return nil, rc, err
			}
			b, bok, err := singletonOrEmpty(rcoll)
			if err != nil {
				return nil, rc, err
			}
			v, err := value.Concatenate(a, b, !aok, !bok)
			if err != nil {
				return nil, rc, err
			}
			return value.Of(v), rc, nil
		}})

	// Unary.
	r.Register(&Operation{Kind: KindOperator, Name: "u+", Token: lexer.TokenPlus, Form: FormPrefix, Precedence: precUnary,
		Evaluate: func(interp Interpreter, rc *runtime.Context, input value.Collection, args []ast.Node) (value.Collection, *runtime.Context, error) {
			v, err := evalArg(interp, rc, args[0])
			return v, rc, err
		}})
	r.Register(&Operation{Kind: KindOperator, Name: "u-", Token: lexer.TokenMinus, Form: FormPrefix, Precedence: precUnary,
		Evaluate: func(interp Interpreter, rc *runtime.Context, input value.Collection, args []ast.Node) (value.Collection, *runtime.Context, error) {
			c, err := evalArg(interp, rc, args[0])
			if err != nil {
				return nil, rc, err
			}
			a, ok, err := singletonOrEmpty(c)
			if err != nil {
				return nil, rc, err
			}
			if !ok {
				return value.Empty, rc, nil
			}
			v, err := value.Negate(a)
			if err != nil {
				return nil, rc, err
			}
			return value.Of(v), rc, nil
		}})

	// Comparison.
	registerEquality(r, "=", lexer.TokenEq, false)
	registerEquality(r, "!=", lexer.TokenNeq, true)
	registerEquality(r, "~", lexer.TokenEquiv, false)
	registerEquality(r, "!~", lexer.TokenNequiv, true)
	registerOrdering(r, "<", lexer.TokenLt, func(cmp int) bool { return cmp < 0 })
	registerOrdering(r, ">", lexer.TokenGt, func(cmp int) bool { return cmp > 0 })
	registerOrdering(r, "<=", lexer.TokenLe, func(cmp int) bool { return cmp <= 0 })
	registerOrdering(r, ">=", lexer.TokenGe, func(cmp int) bool { return cmp >= 0 })

	// Logical, short-circuiting for definite truth values (spec.md §5).
	r.Register(&Operation{Kind: KindOperator, Name: "and", Token: lexer.TokenKwAnd, Form: FormInfix, Precedence: precAnd,
		Evaluate: logicalEvaluate(func(l value.Bool3, rhs func() value.Bool3) value.Bool3 { return l.And(rhs) })})
	r.Register(&Operation{Kind: KindOperator, Name: "or", Token: lexer.TokenKwOr, Form: FormInfix, Precedence: precOrXor,
		Evaluate: logicalEvaluate(func(l value.Bool3, rhs func() value.Bool3) value.Bool3 { return l.Or(rhs) })})
	r.Register(&Operation{Kind: KindOperator, Name: "xor", Token: lexer.TokenKwXor, Form: FormInfix, Precedence: precOrXor,
		Evaluate: logicalEvaluate(func(l value.Bool3, rhs func() value.Bool3) value.Bool3 { return l.Xor(rhs()) })})
	r.Register(&Operation{Kind: KindOperator, Name: "implies", Token: lexer.TokenKwImplies, Form: FormInfix, Precedence: precImplies,
		Evaluate: logicalEvaluate(func(l value.Bool3, rhs func() value.Bool3) value.Bool3 { return l.Implies(rhs) })})

	// Collection membership operators (in/contains are symmetric: `a in b` == `b contains a`).
	r.Register(&Operation{Kind: KindOperator, Name: "in", Token: lexer.TokenKwIn, Form: FormInfix, Precedence: precMembership,
		Evaluate: membershipEvaluate(false)})
	r.Register(&Operation{Kind: KindOperator, Name: "contains", Token: lexer.TokenKwContains, Form: FormInfix, Precedence: precMembership,
		Evaluate: membershipEvaluate(true)})

	// Type operators, union, and indexer: grammar/precedence only here.
	// is/as parse their right operand as a type name and are evaluated
	// via dedicated ast.MembershipTest/ast.TypeCast node types; '|' is
	// folded into ast.Union by the parser; '[' has a matching ']' end
	// token and becomes ast.Index. None dispatch through a generic
	// Binary Evaluate call.
	r.Register(&Operation{Kind: KindOperator, Name: "is", Token: lexer.TokenKwIs, Form: FormInfix, Precedence: precType, Special: true})
	r.Register(&Operation{Kind: KindOperator, Name: "as", Token: lexer.TokenKwAs, Form: FormInfix, Precedence: precType, Special: true})
	r.Register(&Operation{Kind: KindOperator, Name: "|", Token: lexer.TokenPipe, Form: FormInfix, Precedence: precUnion})
	r.Register(&Operation{Kind: KindOperator, Name: "[", Token: lexer.TokenLBracket, Form: FormPostfix, Precedence: precIndex,
		EndToken: lexer.TokenRBracket, HasEndToken: true, Special: true})
	r.Register(&Operation{Kind: KindOperator, Name: ".", Token: lexer.TokenDot, Form: FormInfix, Precedence: precNavigation, Special: true})
}

// registerEquality builds the equality-family operators (=, !=, ~,
// !~), which compare whole collections element-wise and in order
// (spec.md §4.8, "equality on collections is order-sensitive") and
// propagate empty if either side is empty.
func registerEquality(r *Registry, name string, tok lexer.TokenKind, negate bool) {
	r.Register(&Operation{Kind: KindOperator, Name: name, Token: tok, Form: FormInfix, Precedence: precEquality,
		Evaluate: func(interp Interpreter, rc *runtime.Context, input value.Collection, args []ast.Node) (value.Collection, *runtime.Context, error) {
			lc, err := evalArg(interp, rc, args[0])
			if err != nil {
				return nil, rc, err
			}
			rcoll, err := evalArg(interp, rc, args[1])
			if err != nil {
				return nil, rc, err
			}
			if len(lc) == 0 || len(rcoll) == 0 {
				return value.Empty, rc, nil
			}
			eq := value.CollectionEqual(lc, rcoll)
			if negate {
				eq = !eq
			}
			return value.Of(value.Bool(eq)), rc, nil
		}})
}

func registerOrdering(r *Registry, name string, tok lexer.TokenKind, ok func(cmp int) bool) {
	r.Register(&Operation{Kind: KindOperator, Name: name, Token: tok, Form: FormInfix, Precedence: precInequality,
		Evaluate: func(interp Interpreter, rc *runtime.Context, input value.Collection, args []ast.Node) (value.Collection, *runtime.Context, error) {
			lc, err := evalArg(interp, rc, args[0])
			if err != nil {
				return nil, rc, err
			}
			rcoll, err := evalArg(interp, rc, args[1])
			if err != nil {
				return nil, rc, err
			}
			a, aok, err := singletonOrEmpty(lc)
			if err != nil {
				return nil, rc, err
			}
			b, bok, err := singletonOrEmpty(rcoll)
			if err != nil {
				return nil, rc, err
			}
			if !aok || !bok {
				return value.Empty, rc, nil
			}
			cmp, comparable := value.Compare(a, b)
			if !comparable {
				return value.Empty, rc, nil
			}
			return value.Of(value.Bool(ok(cmp))), rc, nil
		}})
}

func logicalEvaluate(combine func(left value.Bool3, rhs func() value.Bool3) value.Bool3) EvaluateFn {
	return func(interp Interpreter, rc *runtime.Context, input value.Collection, args []ast.Node) (value.Collection, *runtime.Context, error) {
		lc, err := evalArg(interp, rc, args[0])
		if err != nil {
			return nil, rc, err
		}
		var rhsErr error
		rhs := func() value.Bool3 {
			rcoll, err := evalArg(interp, rc, args[1])
			if err != nil {
				rhsErr = err
				return value.Bool3Unknown
			}
			return value.ToBool3(rcoll)
		}
		result := combine(value.ToBool3(lc), rhs)
		if rhsErr != nil {
			return nil, rc, rhsErr
		}
		return result.Collection(), rc, nil
	}
}

func membershipEvaluate(containsForm bool) EvaluateFn {
	return func(interp Interpreter, rc *runtime.Context, input value.Collection, args []ast.Node) (value.Collection, *runtime.Context, error) {
		lc, err := evalArg(interp, rc, args[0])
		if err != nil {
			return nil, rc, err
		}
		rcoll, err := evalArg(interp, rc, args[1])
		if err != nil {
			return nil, rc, err
		}
		elem, haystack := lc, rcoll
		if containsForm {
			elem, haystack = rcoll, lc
		}
		if len(elem) == 0 {
			return value.Empty, rc, nil
		}
		if len(elem) != 1 {
			return nil, rc, errs.Evaluation("CARDINALITY_VIOLATION", "%s requires a singleton operand", map[bool]string{true: "contains", false: "in"}[containsForm])
		}
		return value.Of(value.Bool(value.ContainsEqual(haystack, elem[0]))), rc, nil
	}
}
