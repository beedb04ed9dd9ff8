package bond

import (
	"errors"
	"fmt"
	"math"
)

// ErrRootNotBracketed is returned when f(a) and f(b) share a sign so no root
// is guaranteed inside [a, b].
var ErrRootNotBracketed = errors.New("root not bracketed")

const (
	brentTol     = 1e-12
	brentMaxIter = 100
)

// brentRoot finds a root of f in [a, b] by Brent's method: inverse quadratic
// interpolation with secant and bisection fallbacks, never leaving the
// bracket.
func brentRoot(f func(float64) float64, a, b float64) (float64, error) {
	fa, fb := f(a), f(b)
	if fa*fb > 0 {
		return 0, fmt.Errorf("brentRoot: f(%g)=%g, f(%g)=%g: %w", a, fa, b, fb, ErrRootNotBracketed)
	}
	if fa == 0 {
		return a, nil
	}
	if fb == 0 {
		return b, nil
	}

	if math.Abs(fa) < math.Abs(fb) {
		a, b = b, a
		fa, fb = fb, fa
	}
	c, fc := a, fa
	mflag := true
	var d float64

	for iter := 0; iter < brentMaxIter; iter++ {
		if fb == 0 || math.Abs(b-a) < brentTol {
			return b, nil
		}
		var s float64
		if fa != fc && fb != fc {
			// inverse quadratic interpolation
			s = a*fb*fc/((fa-fb)*(fa-fc)) +
				b*fa*fc/((fb-fa)*(fb-fc)) +
				c*fa*fb/((fc-fa)*(fc-fb))
		} else {
			// secant
			s = b - fb*(b-a)/(fb-fa)
		}

		lo, hi := (3*a+b)/4, b
		if lo > hi {
			lo, hi = hi, lo
		}
		cond := s < lo || s > hi ||
			(mflag && math.Abs(s-b) >= math.Abs(b-c)/2) ||
			(!mflag && math.Abs(s-b) >= math.Abs(c-d)/2) ||
			(mflag && math.Abs(b-c) < brentTol) ||
			(!mflag && math.Abs(c-d) < brentTol)
		if cond {
			s = (a + b) / 2
			mflag = true
		} else {
			mflag = false
		}

		fs := f(s)
		d = c
		c, fc = b, fb
		if fa*fs < 0 {
			b, fb = s, fs
		} else {
			a, fa = s, fs
		}
		if math.Abs(fa) < math.Abs(fb) {
			a, b = b, a
			fa, fb = fb, fa
		}
	}
	return b, fmt.Errorf("brentRoot: did not converge after %d iterations", brentMaxIter)
}
