package boolexpr

// Model is one satisfying assignment, in the shape DefineSet's constructor
// consumes: boolean variable name → bool, integer variable name → int.
type Model struct {
	Bools map[string]bool
	Ints  map[string]int
}

func newModel() Model {
	return Model{Bools: map[string]bool{}, Ints: map[string]int{}}
}

// evalResult is a dynamically-typed value: either a bool or an int,
// matching the two sorts this fragment ever produces.
type evalResult struct {
	isBool bool
	b      bool
	i      int
}

func evalBool(e *Expr, m Model) bool {
	r := eval(e, m)
	return r.b
}

func eval(e *Expr, m Model) evalResult {
	switch e.Kind {
	case KVar:
		return evalResult{isBool: true, b: m.Bools[e.Name]}
	case KIntVar:
		return evalResult{i: m.Ints[e.Name]}
	case KBoolLit:
		return evalResult{isBool: true, b: e.BoolVal}
	case KIntLit:
		return evalResult{i: e.IntVal}
	case KNot:
		return evalResult{isBool: true, b: !eval(e.Args[0], m).b}
	case KNeg:
		return evalResult{i: -eval(e.Args[0], m).i}
	case KBNot:
		return evalResult{i: ^eval(e.Args[0], m).i}
	case KAnd:
		for _, a := range e.Args {
			if !eval(a, m).b {
				return evalResult{isBool: true, b: false}
			}
		}
		return evalResult{isBool: true, b: true}
	case KOr:
		for _, a := range e.Args {
			if eval(a, m).b {
				return evalResult{isBool: true, b: true}
			}
		}
		return evalResult{isBool: true, b: false}
	case KEq:
		l, r := eval(e.Args[0], m), eval(e.Args[1], m)
		if l.isBool || r.isBool {
			return evalResult{isBool: true, b: l.b == r.b}
		}
		return evalResult{isBool: true, b: l.i == r.i}
	case KNeq:
		l, r := eval(e.Args[0], m), eval(e.Args[1], m)
		if l.isBool || r.isBool {
			return evalResult{isBool: true, b: l.b != r.b}
		}
		return evalResult{isBool: true, b: l.i != r.i}
	case KLt:
		l, r := eval(e.Args[0], m), eval(e.Args[1], m)
		return evalResult{isBool: true, b: l.i < r.i}
	case KLe:
		l, r := eval(e.Args[0], m), eval(e.Args[1], m)
		return evalResult{isBool: true, b: l.i <= r.i}
	case KGt:
		l, r := eval(e.Args[0], m), eval(e.Args[1], m)
		return evalResult{isBool: true, b: l.i > r.i}
	case KGe:
		l, r := eval(e.Args[0], m), eval(e.Args[1], m)
		return evalResult{isBool: true, b: l.i >= r.i}
	case KAdd:
		l, r := eval(e.Args[0], m), eval(e.Args[1], m)
		return evalResult{i: l.i + r.i}
	case KSub:
		l, r := eval(e.Args[0], m), eval(e.Args[1], m)
		return evalResult{i: l.i - r.i}
	case KMul:
		l, r := eval(e.Args[0], m), eval(e.Args[1], m)
		return evalResult{i: l.i * r.i}
	case KDiv:
		l, r := eval(e.Args[0], m), eval(e.Args[1], m)
		if r.i == 0 {
			return evalResult{i: 0}
		}
		return evalResult{i: l.i / r.i}
	case KMod:
		l, r := eval(e.Args[0], m), eval(e.Args[1], m)
		if r.i == 0 {
			return evalResult{i: 0}
		}
		return evalResult{i: l.i % r.i}
	case KBAnd:
		l, r := eval(e.Args[0], m), eval(e.Args[1], m)
		return evalResult{i: l.i & r.i}
	case KBOr:
		l, r := eval(e.Args[0], m), eval(e.Args[1], m)
		return evalResult{i: l.i | r.i}
	case KBXor:
		l, r := eval(e.Args[0], m), eval(e.Args[1], m)
		return evalResult{i: l.i ^ r.i}
	case KShl:
		l, r := eval(e.Args[0], m), eval(e.Args[1], m)
		return evalResult{i: l.i << uint(r.i)}
	case KShr:
		l, r := eval(e.Args[0], m), eval(e.Args[1], m)
		return evalResult{i: l.i >> uint(r.i)}
	}
	return evalResult{}
}

// domain builds the finite integer domain used for every free integer
// variable: the literals appearing in e, unioned with {0, 1, -1} — sound
// and complete for this fragment because #if conditions only ever compare
// symbolic macro values against literal constants (spec §4.5's guarantee
// that no symbolic integer arithmetic crosses macro boundaries).
func domain(e *Expr) []int {
	lits := intLiterals(e)
	has := map[int]bool{}
	for _, l := range lits {
		has[l] = true
	}
	for _, v := range []int{0, 1, -1} {
		if !has[v] {
			has[v] = true
			lits = append(lits, v)
		}
	}
	return lits
}

// enumerate calls visit with every total assignment of e's free variables
// over their finite domains, stopping early if visit returns true.
func enumerate(e *Expr, visit func(Model) bool) {
	boolVars, intVars := FreeVars(e)
	dom := domain(e)

	m := newModel()
	var rec func(bi, ii int) bool
	rec = func(bi, ii int) bool {
		if bi < len(boolVars) {
			for _, v := range []bool{false, true} {
				m.Bools[boolVars[bi]] = v
				if rec(bi+1, ii) {
					return true
				}
			}
			return false
		}
		if ii < len(intVars) {
			for _, v := range dom {
				m.Ints[intVars[ii]] = v
				if rec(bi, ii+1) {
					return true
				}
			}
			return false
		}
		return visit(cloneModel(m))
	}
	rec(0, 0)
}

func cloneModel(m Model) Model {
	c := newModel()
	for k, v := range m.Bools {
		c.Bools[k] = v
	}
	for k, v := range m.Ints {
		c.Ints[k] = v
	}
	return c
}

// CheckSatisfiable returns (true, model) if some assignment makes e true.
func CheckSatisfiable(e *Expr) (bool, Model) {
	var found Model
	ok := false
	enumerate(e, func(m Model) bool {
		if evalBool(e, m) {
			found = m
			ok = true
			return true
		}
		return false
	})
	return ok, found
}

// CheckTautology reports whether e evaluates to true under every
// assignment of its free variables.
func CheckTautology(e *Expr) bool {
	allTrue := true
	enumerate(e, func(m Model) bool {
		if !evalBool(e, m) {
			allTrue = false
			return true
		}
		return false
	})
	return allTrue
}

// CheckContradiction reports whether e evaluates to false under every
// assignment of its free variables.
func CheckContradiction(e *Expr) bool {
	sat, _ := CheckSatisfiable(e)
	return !sat
}

// Implies reports whether a tautologically implies b: CheckTautology(a ->
// b), modeled as !a || b.
func Implies(a, b *Expr) bool {
	return CheckTautology(Or(Not(a), b))
}
