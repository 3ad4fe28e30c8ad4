// Package runtime implements the scoped, copy-on-write evaluation
// context of spec.md §4.7: input/focus/variables/environment with a
// parent-pointer inheritance chain. No direct teacher analog — the
// teacher has no runtime evaluation context — so this is grown from
// spec.md §9's design note ("immutable linked list of frames with
// copy-on-write maps per frame") in the teacher's general style of
// small structs with explicit constructor methods rather than builder
// patterns (see DESIGN.md).
package runtime

import (
	"strings"

	"github.com/kpumuk/fhirpath/internal/value"
)

// reservedNames are system variable names that may never be
// redefined by user code (spec.md §4.7, "Variable redefinition
// policy"). %ucum is accepted as reserved-but-inert per spec.md §9(b).
var reservedNames = map[string]bool{
	"context":      true,
	"resource":     true,
	"rootResource": true,
	"ucum":         true,
}

// Context is one evaluation frame. A child inherits its parent's
// variables and environment via the parent pointer; reads walk the
// chain until a hit, writes only ever touch the current frame, so a
// child's writes never mutate its parent (spec.md §4.7).
type Context struct {
	input  value.Collection
	focus  value.Collection
	vars   map[string]value.Collection
	env    map[string]value.Collection
	parent *Context
}

// NewRoot builds the top-level context for one evaluation, seeding
// the %context/%resource/%rootResource reserved variables from input
// per spec.md §3's env description.
func NewRoot(input value.Collection) *Context {
	return &Context{
		input: input,
		focus: input,
		env: map[string]value.Collection{
			"context":      input,
			"resource":     input,
			"rootResource": input,
		},
	}
}

// Input returns the frame's current navigation input.
func (c *Context) Input() value.Collection { return c.input }

// Focus returns the frame's current focus (spec.md §3 glossary).
func (c *Context) Focus() value.Collection { return c.focus }

// Child creates a new frame inheriting this context's input/focus and
// chained to it for variable/env lookups, in O(1).
func (c *Context) Child() *Context {
	return &Context{input: c.input, focus: c.focus, parent: c}
}

// WithInput returns a child frame with a new navigation input (and,
// optionally, a new focus; defaults to the new input).
func (c *Context) WithInput(input value.Collection, focus ...value.Collection) *Context {
	child := c.Child()
	child.input = input
	if len(focus) > 0 {
		child.focus = focus[0]
	} else {
		child.focus = input
	}
	return child
}

func normalizeName(name string) string {
	return strings.TrimPrefix(name, "%")
}

func (c *Context) lookupVar(name string) (value.Collection, bool) {
	for f := c; f != nil; f = f.parent {
		if f.vars != nil {
			if v, ok := f.vars[name]; ok {
				return v, true
			}
		}
	}
	return nil, false
}

func (c *Context) lookupEnv(name string) (value.Collection, bool) {
	for f := c; f != nil; f = f.parent {
		if f.env != nil {
			if v, ok := f.env[name]; ok {
				return v, true
			}
		}
	}
	return nil, false
}

// Variable resolves a user or system variable, with or without a
// leading '%' (spec.md §4.7, "Variable naming"). User bindings are
// consulted before the environment, so defineVariable can shadow a
// same-named system variable's absence without colliding with it.
func (c *Context) Variable(name string) (value.Collection, bool) {
	name = normalizeName(name)
	if v, ok := c.lookupVar(name); ok {
		return v, true
	}
	return c.lookupEnv(name)
}

// SetVariable binds a user variable in a new child frame. Redefining
// an existing binding (in this frame or any ancestor) is a silent
// no-op unless allowRedefinition is true; redefining a reserved system
// name is always a no-op (spec.md §4.7).
func (c *Context) SetVariable(name string, v value.Collection, allowRedefinition bool) *Context {
	name = normalizeName(name)
	if reservedNames[name] {
		return c
	}
	if !allowRedefinition {
		if _, ok := c.lookupVar(name); ok {
			return c
		}
	}
	child := c.Child()
	child.vars = map[string]value.Collection{name: v}
	return child
}

// SetSystemVariable binds an environment variable ($this/$index/$total
// or a host-supplied root reference) in a new child frame.
func (c *Context) SetSystemVariable(name string, v value.Collection) *Context {
	name = normalizeName(name)
	child := c.Child()
	child.env = map[string]value.Collection{name: v}
	return child
}

// WithIterator binds $this and $index for one iteration step of a
// filtering/projection function, leaving $total (if bound by an
// enclosing aggregate) reachable through the parent chain.
func (c *Context) WithIterator(item value.Value, index int) *Context {
	child := c.WithInput(value.Of(item))
	child.env = map[string]value.Collection{
		"this":  value.Of(item),
		"index": value.Of(value.Int(int64(index))),
	}
	return child
}

// This returns the nearest enclosing $this binding.
func (c *Context) This() (value.Collection, bool) { return c.lookupEnv("this") }

// Index returns the nearest enclosing $index binding.
func (c *Context) Index() (value.Collection, bool) { return c.lookupEnv("index") }

// Total returns the nearest enclosing $total binding (aggregate()).
func (c *Context) Total() (value.Collection, bool) { return c.lookupEnv("total") }

// WithTotal binds $total for one aggregate() step.
func (c *Context) WithTotal(v value.Collection) *Context {
	return c.SetSystemVariable("total", v)
}
