// Package dual implements forward-mode automatic differentiation over named
// variables. A Number carries a real value, a first-order gradient and, at
// order 2, a symmetric Hessian, all propagated exactly through arithmetic via
// the chain rule.
package dual

import (
	"fmt"
	"math"
	"sort"
)

// AD orders supported by Number and by curve/FX objects.
const (
	Order0 = 0 // plain float
	Order1 = 1 // first derivatives
	Order2 = 2 // first and second derivatives
)

// key is an unordered variable pair, stored canonically (A <= B).
type key struct {
	A, B string
}

func pair(a, b string) key {
	if a > b {
		a, b = b, a
	}
	return key{a, b}
}

// Number is a scalar augmented with sensitivities to named variables.
//
// Combining an order-1 operand with an order-2 operand is a programming
// contract violation and panics: it indicates a leaked AD order (see
// ElevateAD). Order-0 operands combine freely with any order.
type Number struct {
	real  float64
	order int
	grad  map[string]float64
	hess  map[key]float64
}

// Const returns an order-0 (plain float) Number.
func Const(v float64) Number {
	return Number{real: v}
}

// New returns an order-1 Number seeded with dx/dv = 1.
func New(v float64, variable string) Number {
	return Number{real: v, order: Order1, grad: map[string]float64{variable: 1}}
}

// New2 returns an order-2 Number seeded with dx/dv = 1 and zero curvature.
func New2(v float64, variable string) Number {
	return Number{
		real:  v,
		order: Order2,
		grad:  map[string]float64{variable: 1},
		hess:  map[key]float64{},
	}
}

// NewVars returns an order-1 Number with an explicit gradient.
func NewVars(v float64, grad map[string]float64) Number {
	g := make(map[string]float64, len(grad))
	for k, gv := range grad {
		g[k] = gv
	}
	return Number{real: v, order: Order1, grad: g}
}

// NewVars2 returns an order-2 Number with an explicit gradient and zero
// Hessian.
func NewVars2(v float64, grad map[string]float64) Number {
	n := NewVars(v, grad)
	n.order = Order2
	n.hess = map[key]float64{}
	return n
}

// Real returns the scalar value.
func (n Number) Real() float64 { return n.real }

// Order returns the AD order tag (0, 1 or 2).
func (n Number) Order() int { return n.order }

// Gradient returns the first derivative with respect to variable v.
func (n Number) Gradient(v string) float64 { return n.grad[v] }

// Gradient2 returns the second derivative with respect to variables a and b.
func (n Number) Gradient2(a, b string) float64 { return n.hess[pair(a, b)] }

// Vars returns the sorted variable names the Number is sensitive to.
func (n Number) Vars() []string {
	vars := make([]string, 0, len(n.grad))
	for v := range n.grad {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	return vars
}

// SetOrder re-expresses n at the given AD order, truncating higher-order
// information or zero-extending as needed.
func SetOrder(n Number, order int) Number {
	switch order {
	case Order0:
		return Const(n.real)
	case Order1:
		out := Number{real: n.real, order: Order1, grad: copyGrad(n.grad)}
		if out.grad == nil {
			out.grad = map[string]float64{}
		}
		return out
	case Order2:
		out := Number{real: n.real, order: Order2, grad: copyGrad(n.grad), hess: copyHess(n.hess)}
		if out.grad == nil {
			out.grad = map[string]float64{}
		}
		if out.hess == nil {
			out.hess = map[key]float64{}
		}
		return out
	}
	panic(fmt.Sprintf("dual: invalid AD order %d", order))
}

// Strip removes a variable from n's gradient and Hessian. It is used to
// discard synthetic solver variables (e.g. the spread seed) from results.
func Strip(n Number, variable string) Number {
	out := SetOrder(n, n.order)
	delete(out.grad, variable)
	for k := range out.hess {
		if k.A == variable || k.B == variable {
			delete(out.hess, k)
		}
	}
	return out
}

func copyGrad(g map[string]float64) map[string]float64 {
	if g == nil {
		return nil
	}
	out := make(map[string]float64, len(g))
	for k, v := range g {
		out[k] = v
	}
	return out
}

func copyHess(h map[key]float64) map[key]float64 {
	if h == nil {
		return nil
	}
	out := make(map[key]float64, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// resultOrder checks operand compatibility. Order 0 is a universal constant;
// mixing orders 1 and 2 panics since it silently corrupts curvature.
func resultOrder(a, b Number) int {
	if a.order != Order0 && b.order != Order0 && a.order != b.order {
		panic(fmt.Sprintf("dual: cannot combine AD order %d with order %d", a.order, b.order))
	}
	if b.order > a.order {
		return b.order
	}
	return a.order
}

// addSymOuter accumulates k * (g1_v*g2_w + g1_w*g2_v) onto h for every
// unordered variable pair, which is the symmetrised outer product needed by
// both the product rule and the second-order chain rule.
func addSymOuter(h map[key]float64, g1, g2 map[string]float64, k float64) {
	for v, gv := range g1 {
		for w, gw := range g2 {
			c := k * gv * gw
			if v == w {
				c *= 2
			}
			h[pair(v, w)] += c
		}
	}
}

// Add returns a + b.
func (n Number) Add(b Number) Number {
	ord := resultOrder(n, b)
	out := Number{real: n.real + b.real, order: ord}
	if ord >= Order1 {
		out.grad = copyGrad(n.grad)
		if out.grad == nil {
			out.grad = map[string]float64{}
		}
		for v, gv := range b.grad {
			out.grad[v] += gv
		}
	}
	if ord == Order2 {
		out.hess = copyHess(n.hess)
		if out.hess == nil {
			out.hess = map[key]float64{}
		}
		for k, hv := range b.hess {
			out.hess[k] += hv
		}
	}
	return out
}

// Sub returns a - b.
func (n Number) Sub(b Number) Number { return n.Add(b.Neg()) }

// Neg returns -a.
func (n Number) Neg() Number { return n.Scale(-1) }

// Scale returns a * k for a plain scalar k.
func (n Number) Scale(k float64) Number {
	out := Number{real: n.real * k, order: n.order}
	if n.order >= Order1 {
		out.grad = make(map[string]float64, len(n.grad))
		for v, gv := range n.grad {
			out.grad[v] = gv * k
		}
	}
	if n.order == Order2 {
		out.hess = make(map[key]float64, len(n.hess))
		for kk, hv := range n.hess {
			out.hess[kk] = hv * k
		}
	}
	return out
}

// AddFloat returns a + k for a plain scalar k.
func (n Number) AddFloat(k float64) Number {
	out := SetOrder(n, n.order)
	out.real += k
	return out
}

// Mul returns a * b by the bilinear product rule:
//
//	(ab)_v  = a b_v + b a_v
//	(ab)_vw = a b_vw + b a_vw + a_v b_w + a_w b_v
func (n Number) Mul(b Number) Number {
	ord := resultOrder(n, b)
	out := Number{real: n.real * b.real, order: ord}
	if ord >= Order1 {
		out.grad = make(map[string]float64, len(n.grad)+len(b.grad))
		for v, gv := range n.grad {
			out.grad[v] += b.real * gv
		}
		for v, gv := range b.grad {
			out.grad[v] += n.real * gv
		}
	}
	if ord == Order2 {
		out.hess = make(map[key]float64, len(n.hess)+len(b.hess))
		for k, hv := range n.hess {
			out.hess[k] += b.real * hv
		}
		for k, hv := range b.hess {
			out.hess[k] += n.real * hv
		}
		addSymOuter(out.hess, n.grad, b.grad, 1)
	}
	return out
}

// Div returns a / b.
func (n Number) Div(b Number) Number { return n.Mul(b.Inv()) }

// Chain lifts a scalar function f through n given f(n), f'(n) and f''(n):
//
//	f_v  = f' n_v
//	f_vw = f' n_vw + f'' n_v n_w
//
// It is the workhorse for unary operations and for implicit-function-theorem
// sensitivity propagation, where value, d1 and d2 come from derivatives of a
// forward function evaluated at a solved root.
func Chain(n Number, value, d1, d2 float64) Number {
	out := Number{real: value, order: n.order}
	if n.order >= Order1 {
		out.grad = make(map[string]float64, len(n.grad))
		for v, gv := range n.grad {
			out.grad[v] = d1 * gv
		}
	}
	if n.order == Order2 {
		out.hess = make(map[key]float64, len(n.hess))
		for k, hv := range n.hess {
			out.hess[k] = d1 * hv
		}
		addSymOuter(out.hess, n.grad, n.grad, d2/2)
	}
	return out
}

// Inv returns 1 / a.
func (n Number) Inv() Number {
	x := n.real
	return Chain(n, 1/x, -1/(x*x), 2/(x*x*x))
}

// Pow returns a**p for a plain scalar exponent p.
func (n Number) Pow(p float64) Number {
	x := n.real
	return Chain(n, math.Pow(x, p), p*math.Pow(x, p-1), p*(p-1)*math.Pow(x, p-2))
}

// Sqrt returns the square root of a.
func (n Number) Sqrt() Number { return n.Pow(0.5) }

// Exp returns e**a.
func (n Number) Exp() Number {
	e := math.Exp(n.real)
	return Chain(n, e, e, e)
}

// Log returns the natural logarithm of a.
func (n Number) Log() Number {
	x := n.real
	return Chain(n, math.Log(x), 1/x, -1/(x*x))
}
