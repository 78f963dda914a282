package macroexpander

import (
	"strings"
	"unicode"

	"github.com/hayroll-dev/hayroll/internal/symboltable"
)

// multiCharOperators is tried longest-match-first against the input.
var multiCharOperators = []string{
	"<<=", ">>=", "...", "==", "!=", "<=", ">=", "&&", "||",
	"<<", ">>", "->", "##",
}

// Tokenize splits a macro body or #if condition's source text into the
// (identifier | defined | punctuation | literal) token stream the expander
// and symbolizer walk. It is deliberately simpler than a full C lexer: it
// only needs to distinguish identifiers (for symbol-table lookup) from
// everything else, and to keep multi-character operators intact so the
// expression parser in symbolize.go can recognize them.
func Tokenize(src string) []symboltable.Token {
	var out []symboltable.Token
	runes := []rune(src)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case isIdentStart(r):
			start := i
			for i < len(runes) && isIdentCont(runes[i]) {
				i++
			}
			out = append(out, symboltable.Token{Text: string(runes[start:i]), IsIdentifier: true})
		case unicode.IsDigit(r):
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || unicode.IsLetter(runes[i]) || runes[i] == '.') {
				i++
			}
			out = append(out, symboltable.Token{Text: string(runes[start:i])})
		case r == '"' || r == '\'':
			start := i
			quote := r
			i++
			for i < len(runes) && runes[i] != quote {
				if runes[i] == '\\' && i+1 < len(runes) {
					i++
				}
				i++
			}
			if i < len(runes) {
				i++
			}
			out = append(out, symboltable.Token{Text: string(runes[start:i])})
		default:
			matched := false
			for _, op := range multiCharOperators {
				if strings.HasPrefix(string(runes[i:]), op) {
					out = append(out, symboltable.Token{Text: op})
					i += len([]rune(op))
					matched = true
					break
				}
			}
			if !matched {
				out = append(out, symboltable.Token{Text: string(r)})
				i++
			}
		}
	}
	return out
}

func isIdentStart(r rune) bool { return unicode.IsLetter(r) || r == '_' }
func isIdentCont(r rune) bool  { return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' }
