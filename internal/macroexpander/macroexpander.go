// Package macroexpander expands a token stream against a macro symbol
// table and turns the leftover (unexpandable) identifiers into the boolean
// / integer expression tree the premise tree reasons about symbolically.
// Grounded in original_source/src/MacroExpander.hpp.
package macroexpander

import (
	"fmt"

	"github.com/hayroll-dev/hayroll/internal/herrors"
	"github.com/hayroll-dev/hayroll/internal/symboltable"
)

const tokenDefined = "defined"

var (
	tokenZero = symboltable.Token{Text: "0"}
	tokenOne  = symboltable.Token{Text: "1"}
)

// stackEntry pairs a pending token with whether the undef-stack boundary it
// introduced should be popped once this token is consumed.
type stackEntry struct {
	token         symboltable.Token
	popUndefAfter bool
}

// ExpandTokens expands tokens against base (the macro definitions visible
// at this program point), per spec §4.3's algorithm: object macros push
// their body, function macros consume a parenthesized argument list and
// substitute, undefined identifiers become the literal 0, and an identifier
// already mid-expansion (the Expanded marker) is a recursive-expansion
// error. Identifiers bound to nothing in base are left untouched — they
// become symbolic variables in Symbolize.
func ExpandTokens(tokens []symboltable.Token, base *symboltable.Table) ([]symboltable.Token, error) {
	undef := symboltable.NewUndefStack(base)
	var stack []stackEntry
	var out []symboltable.Token

	pushTokens := func(toks []symboltable.Token, name string) {
		bit := false
		if name != "" {
			undef.PushExpanded(name)
			bit = true
		}
		for i := len(toks) - 1; i >= 0; i-- {
			stack = append(stack, stackEntry{token: toks[i], popUndefAfter: bit})
			bit = false
		}
	}

	pushTokens(tokens, "")

	for len(stack) > 0 {
		entry := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		tok := entry.token

		switch {
		case tok.IsIdentifier && tok.Text == tokenDefined:
			if entry.popUndefAfter {
				undef.Pop()
			}
			replaced, consumed, err := resolveDefined(stack, undef)
			if err != nil {
				return nil, err
			}
			stack = stack[:len(stack)-consumed]
			out = append(out, replaced...)

		case tok.IsIdentifier:
			sym, ok := undef.Lookup(tok.Text)
			if !ok {
				out = append(out, tok)
				continue
			}
			if sym.Kind != symboltable.Expanded && entry.popUndefAfter {
				undef.Pop()
			}
			switch sym.Kind {
			case symboltable.Object:
				if len(sym.Body) > 0 {
					pushTokens(sym.Body, tok.Text)
				}
			case symboltable.Function:
				if len(stack) == 0 || stack[len(stack)-1].token.Text != "(" {
					out = append(out, tok)
					continue
				}
				args, consumed, err := collectArguments(stack, undef)
				if err != nil {
					return nil, &herrors.UnbalancedInvocationError{MacroName: tok.Text}
				}
				stack = stack[:len(stack)-consumed]
				expanded, err := expandFunctionLikeMacro(args, sym, base)
				if err != nil {
					return nil, err
				}
				pushTokens(expanded, tok.Text)
			case symboltable.Undefined:
				out = append(out, tokenZero)
			case symboltable.Expanded:
				if entry.popUndefAfter {
					undef.Pop()
				}
				return nil, &herrors.RecursiveExpansionError{MacroName: tok.Text}
			}

		default:
			out = append(out, tok)
			if entry.popUndefAfter {
				undef.Pop()
			}
		}
	}

	return out, nil
}

// collectArguments pops "(" ... ")" off the top of stack, splitting on
// top-level commas, and returns the argument token lists plus the number of
// stack entries consumed (including the opening "(").
func collectArguments(stack []stackEntry, undef *symboltable.UndefStack) ([][]symboltable.Token, int, error) {
	args := [][]symboltable.Token{{}}
	depth := 0
	consumed := 0

	for {
		if len(stack) == 0 {
			return nil, consumed, fmt.Errorf("unbalanced parenthesis in macro invocation")
		}
		entry := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		consumed++
		tok := entry.token

		switch {
		case tok.Text == "(":
			if depth != 0 {
				args[len(args)-1] = append(args[len(args)-1], tok)
			}
			depth++
		case tok.Text == ")":
			depth--
			if depth != 0 {
				args[len(args)-1] = append(args[len(args)-1], tok)
			}
		case depth == 1 && tok.Text == ",":
			args = append(args, []symboltable.Token{})
		default:
			args[len(args)-1] = append(args[len(args)-1], tok)
		}

		if entry.popUndefAfter {
			undef.Pop()
		}

		if depth == 0 {
			break
		}
	}
	return args, consumed, nil
}

// expandFunctionLikeMacro expands each argument against base (not the
// undef-stack table — spec §4.3's documented choice, see DESIGN.md), then
// substitutes into the macro body.
func expandFunctionLikeMacro(args [][]symboltable.Token, sym symboltable.Symbol, base *symboltable.Table) ([]symboltable.Token, error) {
	if len(args) != len(sym.Params) {
		if !(len(sym.Params) == 0 && len(args) == 1 && len(args[0]) == 0) {
			return nil, fmt.Errorf("macro invoked with %d arguments, expected %d", len(args), len(sym.Params))
		}
	}

	argTable := make(map[string][]symboltable.Token, len(sym.Params))
	for i, param := range sym.Params {
		if i >= len(args) {
			break
		}
		expanded, err := ExpandTokens(args[i], base)
		if err != nil {
			return nil, err
		}
		argTable[param] = expanded
	}

	var out []symboltable.Token
	for _, tok := range sym.Body {
		if tok.IsIdentifier {
			if arg, ok := argTable[tok.Text]; ok {
				out = append(out, arg...)
				continue
			}
		}
		out = append(out, tok)
	}
	return out, nil
}

// resolveDefined handles the `defined` operator: it consumes either a bare
// identifier or a parenthesized one from the top of stack and emits the
// literal 1/0, or leaves the whole thing untouched if the name is unknown
// (it becomes a symbolic "defXxx" variable downstream).
func resolveDefined(stack []stackEntry, undef *symboltable.UndefStack) ([]symboltable.Token, int, error) {
	if len(stack) == 0 {
		return []symboltable.Token{{Text: tokenDefined, IsIdentifier: true}}, 0, nil
	}

	top := stack[len(stack)-1]
	if top.token.IsIdentifier {
		lit, replaced := lookupDefinedIdentifier(top.token, undef)
		if top.popUndefAfter {
			undef.Pop()
		}
		if replaced {
			return []symboltable.Token{lit}, 1, nil
		}
		return []symboltable.Token{{Text: tokenDefined, IsIdentifier: true}, top.token}, 1, nil
	}

	if top.token.Text == "(" {
		if top.popUndefAfter {
			undef.Pop()
		}
		if len(stack) < 2 {
			return nil, 1, fmt.Errorf("unbalanced parenthesis in defined()")
		}
		name := stack[len(stack)-2]
		if !name.token.IsIdentifier {
			return nil, 2, fmt.Errorf("expected identifier inside defined()")
		}
		if len(stack) < 3 || stack[len(stack)-3].token.Text != ")" {
			return nil, 2, fmt.Errorf("unbalanced parenthesis in defined()")
		}
		lit, replaced := lookupDefinedIdentifier(name.token, undef)
		if name.popUndefAfter {
			undef.Pop()
		}
		closeParen := stack[len(stack)-3]
		if closeParen.popUndefAfter {
			undef.Pop()
		}
		if replaced {
			return []symboltable.Token{lit}, 3, nil
		}
		return []symboltable.Token{{Text: tokenDefined, IsIdentifier: true}, top.token, name.token, closeParen.token}, 3, nil
	}

	return nil, 0, fmt.Errorf("expected identifier or '(' after defined")
}

func lookupDefinedIdentifier(tok symboltable.Token, undef *symboltable.UndefStack) (symboltable.Token, bool) {
	sym, ok := undef.Lookup(tok.Text)
	if !ok {
		return symboltable.Token{}, false
	}
	if sym.Kind == symboltable.Undefined {
		return tokenZero, true
	}
	return tokenOne, true
}
