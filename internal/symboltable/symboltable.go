// Package symboltable is the persistent macro symbol table (spec §3 Symbol
// Table, §4.2), grounded in original_source/src/SymbolTable.hpp.
package symboltable

import "github.com/hayroll-dev/hayroll/internal/programpoint"

// Kind discriminates the tagged-sum Symbol variant.
type Kind int

const (
	Object Kind = iota
	Function
	Undefined
	Expanded // transient, pushed only on the undef stack to block recursion
)

// Token is one lexical token of a macro body, kept as plain text; the
// macro expander re-tokenizes/re-parses as needed.
type Token struct {
	Text        string
	IsIdentifier bool
}

// Symbol is the tagged union of macro definitions a name can resolve to.
type Symbol struct {
	Kind   Kind
	Params []string // Function only
	Body   []Token  // Object, Function only
	Variadic bool    // Function only: trailing ... parameter

	// DefSite is the #define directive's program point (zero for #undef
	// bindings), the
	// definition-site identity the Symbolic Executor records into the
	// premise tree's macro-premise map whenever a C-token scan resolves an
	// identifier to this Symbol (zero value for symbols built directly in
	// tests, which never exercise that recording path).
	DefSite programpoint.Point
}

// Table is a persistent, chained map from macro name to Symbol. Once built
// (define never mutates a Table — it returns a new child), a Table is safe
// to share by reference across states.
type Table struct {
	parent *Table
	name   string
	symbol Symbol
}

// Root returns the empty table with no definitions.
func Root() *Table {
	return nil
}

// Define returns a new child table that shadows t with name bound to sym.
func Define(t *Table, name string, sym Symbol) *Table {
	return &Table{parent: t, name: name, symbol: sym}
}

// Undef returns a new child table recording that name is explicitly
// undefined, shadowing any earlier definition.
func Undef(t *Table, name string) *Table {
	return Define(t, name, Symbol{Kind: Undefined})
}

// Lookup walks child→parent until a binding for name is found. ok is false
// if name has never been defined or undefined in this table's chain
// (neither Object/Function/Expanded nor Undefined) — it is simply unknown,
// which the macro expander treats as "emit literally, symbolize later".
func Lookup(t *Table, name string) (Symbol, bool) {
	for cur := t; cur != nil; cur = cur.parent {
		if cur.name == name {
			return cur.symbol, true
		}
	}
	return Symbol{}, false
}

// UndefStack shadows a base Table with a LIFO of names currently being
// expanded, each bound to the Expanded marker, so a macro body containing
// its own name cannot recursively re-expand it.
type UndefStack struct {
	base  *Table
	stack []string
}

// NewUndefStack wraps base in an initially-empty undef stack.
func NewUndefStack(base *Table) *UndefStack {
	return &UndefStack{base: base}
}

// PushExpanded marks name as currently expanding.
func (u *UndefStack) PushExpanded(name string) {
	u.stack = append(u.stack, name)
}

// Pop removes the most recently pushed name.
func (u *UndefStack) Pop() {
	if len(u.stack) > 0 {
		u.stack = u.stack[:len(u.stack)-1]
	}
}

// Len reports how many names are currently marked as expanding.
func (u *UndefStack) Len() int { return len(u.stack) }

// Lookup checks the undef stack (top to bottom) before falling through to
// the base table, so a name mid-expansion resolves to Expanded rather than
// its real definition.
func (u *UndefStack) Lookup(name string) (Symbol, bool) {
	for i := len(u.stack) - 1; i >= 0; i-- {
		if u.stack[i] == name {
			return Symbol{Kind: Expanded}, true
		}
	}
	return Lookup(u.base, name)
}

// Base returns the wrapped base table, used when an argument must be
// expanded against the base table rather than the undef stack (spec §4.3's
// documented approximation).
func (u *UndefStack) Base() *Table { return u.base }
