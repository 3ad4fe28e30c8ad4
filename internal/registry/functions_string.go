package registry

import (
	"encoding/base64"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/kpumuk/fhirpath/internal/value"
)

// registerStringFunctions implements the string-function bank named
// in spec.md §4.4's category list. matches/replaceMatches use the
// standard library regexp package: no pack example wires a third-
// party regex engine for this concern (see SPEC_FULL.md §3), so this
// one corner of the function bank is grounded on Go's standard
// library rather than an ecosystem dependency.
func registerStringFunctions(r *Registry) {
	r.Register(stringFn("startsWith", 1, func(s string, args []value.Collection) (value.Collection, error) {
		prefix, ok, err := argString(args[0])
		if err != nil || !ok {
			return value.Empty, err
		}
		return value.Of(value.Bool(strings.HasPrefix(s, prefix))), nil
	}))

	r.Register(stringFn("endsWith", 1, func(s string, args []value.Collection) (value.Collection, error) {
		suffix, ok, err := argString(args[0])
		if err != nil || !ok {
			return value.Empty, err
		}
		return value.Of(value.Bool(strings.HasSuffix(s, suffix))), nil
	}))

	r.Register(stringFn("contains", 1, func(s string, args []value.Collection) (value.Collection, error) {
		sub, ok, err := argString(args[0])
		if err != nil || !ok {
			return value.Empty, err
		}
		return value.Of(value.Bool(strings.Contains(s, sub))), nil
	}))

	r.Register(stringFn("upper", 0, func(s string, args []value.Collection) (value.Collection, error) {
		return value.Of(value.Str(strings.ToUpper(s))), nil
	}))

	r.Register(stringFn("lower", 0, func(s string, args []value.Collection) (value.Collection, error) {
		return value.Of(value.Str(strings.ToLower(s))), nil
	}))

	r.Register(stringFn("trim", 0, func(s string, args []value.Collection) (value.Collection, error) {
		return value.Of(value.Str(strings.TrimSpace(s))), nil
	}))

	r.Register(stringFn("length", 0, func(s string, args []value.Collection) (value.Collection, error) {
		return value.Of(value.Int(int64(len([]rune(s))))), nil
	}))

	r.Register(stringFn("toChars", 0, func(s string, args []value.Collection) (value.Collection, error) {
		runes := []rune(s)
		out := make(value.Collection, len(runes))
		for i, ru := range runes {
			out[i] = value.Str(string(ru))
		}
		return out, nil
	}))

	r.Register(stringFn("indexOf", 1, func(s string, args []value.Collection) (value.Collection, error) {
		sub, ok, err := argString(args[0])
		if err != nil || !ok {
			return value.Empty, err
		}
		return value.Of(value.Int(int64(strings.Index(s, sub)))), nil
	}))

	substring := stringFn("substring", 2, func(s string, args []value.Collection) (value.Collection, error) {
		runes := []rune(s)
		start, ok, err := argInt(args[0])
		if err != nil || !ok || start < 0 || int(start) >= len(runes) {
			return value.Empty, err
		}
		end := int64(len(runes))
		if len(args) > 1 {
			if n, ok, err := argInt(args[1]); err != nil {
				return nil, err
			} else if ok {
				end = start + n
				if end > int64(len(runes)) {
					end = int64(len(runes))
				}
			}
		}
		return value.Of(value.Str(string(runes[start:end]))), nil
	})
	substring.Params[1].Optional = true
	r.Register(substring)

	r.Register(stringFn("replace", 2, func(s string, args []value.Collection) (value.Collection, error) {
		pattern, ok, err := argString(args[0])
		if err != nil || !ok {
			return value.Empty, err
		}
		repl, ok, err := argString(args[1])
		if err != nil || !ok {
			return value.Empty, err
		}
		return value.Of(value.Str(strings.ReplaceAll(s, pattern, repl))), nil
	}))

	r.Register(stringFn("split", 1, func(s string, args []value.Collection) (value.Collection, error) {
		sep, ok, err := argString(args[0])
		if err != nil || !ok {
			return value.Empty, err
		}
		parts := strings.Split(s, sep)
		out := make(value.Collection, len(parts))
		for i, p := range parts {
			out[i] = value.Str(p)
		}
		return out, nil
	}))

	r.Register(stringFn("matches", 1, func(s string, args []value.Collection) (value.Collection, error) {
		pattern, ok, err := argString(args[0])
		if err != nil || !ok {
			return value.Empty, err
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return value.Empty, nil
		}
		return value.Of(value.Bool(re.MatchString(s))), nil
	}))

	r.Register(stringFn("replaceMatches", 2, func(s string, args []value.Collection) (value.Collection, error) {
		pattern, ok, err := argString(args[0])
		if err != nil || !ok {
			return value.Empty, err
		}
		repl, ok, err := argString(args[1])
		if err != nil || !ok {
			return value.Empty, err
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return value.Empty, nil
		}
		return value.Of(value.Str(re.ReplaceAllString(s, repl))), nil
	}))

	r.Register(stringFn("encode", 1, func(s string, args []value.Collection) (value.Collection, error) {
		scheme, ok, err := argString(args[0])
		if err != nil || !ok {
			return value.Empty, err
		}
		switch scheme {
		case "base64":
			return value.Of(value.Str(base64.StdEncoding.EncodeToString([]byte(s)))), nil
		case "hex":
			return value.Of(value.Str(hex.EncodeToString([]byte(s)))), nil
		default:
			return value.Empty, nil
		}
	}))

	r.Register(stringFn("decode", 1, func(s string, args []value.Collection) (value.Collection, error) {
		scheme, ok, err := argString(args[0])
		if err != nil || !ok {
			return value.Empty, err
		}
		switch scheme {
		case "base64":
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return value.Empty, nil
			}
			return value.Of(value.Str(string(b))), nil
		case "hex":
			b, err := hex.DecodeString(s)
			if err != nil {
				return value.Empty, nil
			}
			return value.Of(value.Str(string(b))), nil
		default:
			return value.Empty, nil
		}
	}))

	r.Register(&Operation{Kind: KindFunction, Name: "join", InputConstraint: "collection", Params: []Param{{Name: "separator", Kind: ParamValue, Optional: true}},
		PropagatesEmpty: false, Deterministic: true, OutputCardinality: CardinalitySingleton,
		Evaluate: oneValueArgEval(func(input, arg value.Collection) (value.Collection, error) {
			sep := ""
			if s, ok, _ := argString(arg); ok {
				sep = s
			}
			parts := make([]string, len(input))
			for i, v := range input {
				parts[i] = v.String()
			}
			return value.Of(value.Str(strings.Join(parts, sep))), nil
		})})
}
