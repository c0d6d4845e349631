package curvesketch

// ============================================================
// Deep Simplification and Trig Identities
// ============================================================

// TrigSimplify applies sin²(u)+cos²(u)=1 and cosh²(u)-sinh²(u)=1 wherever a
// sum holds matching squares with equal coefficients.
func TrigSimplify(e Expr) Expr {
	return trigSimplifyExpr(e.Simplify()).Simplify()
}

func trigSimplifyExpr(e Expr) Expr {
	switch v := e.(type) {
	case *Add:
		newTerms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			newTerms[i] = trigSimplifyExpr(t)
		}
		return trigFindPythagorean(AddOf(newTerms...))
	case *Mul:
		newFactors := make([]Expr, len(v.factors))
		for i, f := range v.factors {
			newFactors[i] = trigSimplifyExpr(f)
		}
		return MulOf(newFactors...)
	case *Pow:
		return PowOf(trigSimplifyExpr(v.base), trigSimplifyExpr(v.exp))
	case *Func:
		return funcOf(v.name, trigSimplifyExpr(v.arg)).Simplify()
	}
	return e
}

type squareTerm struct {
	funcName string
	argStr   string
	coeff    *Num
	idx      int
}

func trigFindPythagorean(e Expr) Expr {
	add, ok := e.(*Add)
	if !ok {
		return e
	}
	var squares []squareTerm
	for idx, t := range add.terms {
		coeff, inner := extractCoefficient(t)
		p, ok2 := inner.(*Pow)
		if !ok2 || !isNumEqual(p.exp, 2) {
			continue
		}
		if fn, ok3 := p.base.(*Func); ok3 {
			switch fn.name {
			case "sin", "cos", "sinh", "cosh":
				squares = append(squares, squareTerm{fn.name, fn.arg.String(), coeff, idx})
			}
		}
	}
	for i := 0; i < len(squares); i++ {
		for j := i + 1; j < len(squares); j++ {
			si, sj := squares[i], squares[j]
			if si.argStr != sj.argStr {
				continue
			}
			var replacement *Num
			switch {
			case pairOf(si, sj, "sin", "cos") && numCmp(si.coeff, sj.coeff) == 0:
				replacement = si.coeff
			case pairOf(si, sj, "cosh", "sinh") && numCmp(si.coeff, numNeg(sj.coeff)) == 0:
				replacement = si.coeff
				if si.funcName == "sinh" {
					replacement = sj.coeff
				}
			}
			if replacement == nil {
				continue
			}
			newTerms := []Expr{}
			for idx, t := range add.terms {
				if idx != si.idx && idx != sj.idx {
					newTerms = append(newTerms, t)
				}
			}
			newTerms = append(newTerms, replacement)
			return AddOf(newTerms...)
		}
	}
	return e
}

func pairOf(a, b squareTerm, x, y string) bool {
	return (a.funcName == x && b.funcName == y) || (a.funcName == y && b.funcName == x)
}

func numCmp(a, b *Num) int { return a.val.Cmp(b.val) }

func extractCoefficient(e Expr) (*Num, Expr) {
	if m, ok := e.(*Mul); ok && len(m.factors) >= 2 {
		if coeff, ok2 := m.factors[0].(*Num); ok2 {
			rest := m.factors[1:]
			if len(rest) == 1 {
				return coeff, rest[0]
			}
			return coeff, &Mul{factors: rest}
		}
	}
	return N(1), e
}

// DeepSimplify applies repeated simplification+trig passes until stable.
func DeepSimplify(e Expr) Expr {
	prev := ""
	curr := e.Simplify()
	for i := 0; i < 10; i++ {
		str := curr.String()
		if str == prev {
			break
		}
		prev = str
		curr = TrigSimplify(curr)
	}
	return curr
}
