package boolexpr

// Simplify normalizes e (spec §4.5 step 1): push negations inward (De
// Morgan; a negated comparison becomes the opposite comparison), fold
// constant subexpressions, flatten nested And/Or, and drop duplicate
// operands of each And/Or, collapsing an And that holds both p and !p to
// false (an Or to true). It does not distribute And over Or, so the result
// is not necessarily in Or-of-Ands normal form. Comparison and arithmetic
// nodes are folded only when both sides are already integer literals.
func Simplify(e *Expr) *Expr {
	e = pushNegations(e)
	e = foldConstants(e)
	e = flatten(e)
	e = dedupAndComplement(e)
	return e
}

func pushNegations(e *Expr) *Expr {
	switch e.Kind {
	case KNot:
		inner := e.Args[0]
		switch inner.Kind {
		case KNot:
			return pushNegations(inner.Args[0])
		case KAnd:
			negated := make([]*Expr, len(inner.Args))
			for i, a := range inner.Args {
				negated[i] = pushNegations(Not(a))
			}
			return &Expr{Kind: KOr, Args: negated}
		case KOr:
			negated := make([]*Expr, len(inner.Args))
			for i, a := range inner.Args {
				negated[i] = pushNegations(Not(a))
			}
			return &Expr{Kind: KAnd, Args: negated}
		case KBoolLit:
			return BoolLit(!inner.BoolVal)
		case KEq:
			return &Expr{Kind: KNeq, Args: inner.Args}
		case KNeq:
			return &Expr{Kind: KEq, Args: inner.Args}
		case KLt:
			return &Expr{Kind: KGe, Args: inner.Args}
		case KLe:
			return &Expr{Kind: KGt, Args: inner.Args}
		case KGt:
			return &Expr{Kind: KLe, Args: inner.Args}
		case KGe:
			return &Expr{Kind: KLt, Args: inner.Args}
		default:
			return Not(pushNegations(inner))
		}
	case KAnd, KOr:
		args := make([]*Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = pushNegations(a)
		}
		return &Expr{Kind: e.Kind, Args: args}
	default:
		return e
	}
}

func foldConstants(e *Expr) *Expr {
	if len(e.Args) > 0 {
		args := make([]*Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = foldConstants(a)
		}
		e = &Expr{Kind: e.Kind, Name: e.Name, BoolVal: e.BoolVal, IntVal: e.IntVal, Args: args}
	}

	switch e.Kind {
	case KAnd:
		kept := make([]*Expr, 0, len(e.Args))
		for _, a := range e.Args {
			if a.Kind == KBoolLit {
				if !a.BoolVal {
					return BoolLit(false)
				}
				continue
			}
			kept = append(kept, a)
		}
		if len(kept) == 0 {
			return BoolLit(true)
		}
		if len(kept) == 1 {
			return kept[0]
		}
		return &Expr{Kind: KAnd, Args: kept}
	case KOr:
		kept := make([]*Expr, 0, len(e.Args))
		for _, a := range e.Args {
			if a.Kind == KBoolLit {
				if a.BoolVal {
					return BoolLit(true)
				}
				continue
			}
			kept = append(kept, a)
		}
		if len(kept) == 0 {
			return BoolLit(false)
		}
		if len(kept) == 1 {
			return kept[0]
		}
		return &Expr{Kind: KOr, Args: kept}
	case KNot:
		if e.Args[0].Kind == KBoolLit {
			return BoolLit(!e.Args[0].BoolVal)
		}
	case KEq, KNeq, KLt, KLe, KGt, KGe, KAdd, KSub, KMul, KDiv, KMod, KBAnd, KBOr, KBXor, KShl, KShr:
		if e.Args[0].Kind == KIntLit && e.Args[1].Kind == KIntLit {
			l, r := e.Args[0].IntVal, e.Args[1].IntVal
			switch e.Kind {
			case KEq:
				return BoolLit(l == r)
			case KNeq:
				return BoolLit(l != r)
			case KLt:
				return BoolLit(l < r)
			case KLe:
				return BoolLit(l <= r)
			case KGt:
				return BoolLit(l > r)
			case KGe:
				return BoolLit(l >= r)
			case KAdd:
				return IntLit(l + r)
			case KSub:
				return IntLit(l - r)
			case KMul:
				return IntLit(l * r)
			case KDiv:
				if r != 0 {
					return IntLit(l / r)
				}
			case KMod:
				if r != 0 {
					return IntLit(l % r)
				}
			case KBAnd:
				return IntLit(l & r)
			case KBOr:
				return IntLit(l | r)
			case KBXor:
				return IntLit(l ^ r)
			case KShl:
				return IntLit(l << uint(r))
			case KShr:
				return IntLit(l >> uint(r))
			}
		}
	case KBNot:
		if e.Args[0].Kind == KIntLit {
			return IntLit(^e.Args[0].IntVal)
		}
	}
	return e
}

// flatten merges nested And-in-And / Or-in-Or into one n-ary node.
func flatten(e *Expr) *Expr {
	if len(e.Args) > 0 {
		args := make([]*Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = flatten(a)
		}
		e = &Expr{Kind: e.Kind, Name: e.Name, BoolVal: e.BoolVal, IntVal: e.IntVal, Args: args}
	}
	if e.Kind != KAnd && e.Kind != KOr {
		return e
	}
	var out []*Expr
	for _, a := range e.Args {
		if a.Kind == e.Kind {
			out = append(out, a.Args...)
		} else {
			out = append(out, a)
		}
	}
	return &Expr{Kind: e.Kind, Args: out}
}

func key(e *Expr) string { return e.String() }

// dedupAndComplement removes duplicate conjuncts/disjuncts, and collapses
// an And containing both p and !p to false (symmetrically Or to true).
func dedupAndComplement(e *Expr) *Expr {
	if len(e.Args) > 0 {
		args := make([]*Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = dedupAndComplement(a)
		}
		e = &Expr{Kind: e.Kind, Name: e.Name, BoolVal: e.BoolVal, IntVal: e.IntVal, Args: args}
	}
	if e.Kind != KAnd && e.Kind != KOr {
		return e
	}

	seen := map[string]bool{}
	negSeen := map[string]bool{}
	var out []*Expr
	for _, a := range e.Args {
		k := key(a)
		if seen[k] {
			continue
		}
		var negKey string
		if a.Kind == KNot {
			negKey = key(a.Args[0])
		} else {
			negKey = key(Not(a))
		}
		if negSeen[k] {
			if e.Kind == KAnd {
				return BoolLit(false)
			}
			return BoolLit(true)
		}
		seen[k] = true
		negSeen[negKey] = true
		out = append(out, a)
	}
	if len(out) == 0 {
		return BoolLit(e.Kind == KAnd)
	}
	if len(out) == 1 {
		return out[0]
	}
	return &Expr{Kind: e.Kind, Args: out}
}
