package symbolicexecutor

import (
	"github.com/hayroll-dev/hayroll/internal/boolexpr"
	"github.com/hayroll-dev/hayroll/internal/config"
)

// restrictToWhitelist folds every free variable of e whose macro name
// (boolexpr.MacroName) is not whitelisted to a concrete literal (false for
// a boolean "def" variable, 0 for an integer "val" variable), so only
// whitelisted macros can cause the if-chain to fork (spec §6 -w/--whitelist:
// "others are treated concretely"). A nil/empty whitelist whitelists every
// macro, per config.Whitelisted.
func restrictToWhitelist(e *boolexpr.Expr, whitelist []string) *boolexpr.Expr {
	return boolexpr.Simplify(restrictWalk(e, whitelist))
}

func restrictWalk(n *boolexpr.Expr, whitelist []string) *boolexpr.Expr {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case boolexpr.KVar:
		if !config.Whitelisted(whitelist, boolexpr.MacroName(n.Name)) {
			return boolexpr.BoolLit(false)
		}
		return n
	case boolexpr.KIntVar:
		if !config.Whitelisted(whitelist, boolexpr.MacroName(n.Name)) {
			return boolexpr.IntLit(0)
		}
		return n
	case boolexpr.KBoolLit, boolexpr.KIntLit:
		return n
	default:
		args := make([]*boolexpr.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = restrictWalk(a, whitelist)
		}
		return &boolexpr.Expr{Kind: n.Kind, Name: n.Name, BoolVal: n.BoolVal, IntVal: n.IntVal, Args: args}
	}
}
