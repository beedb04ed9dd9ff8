package dual

import (
	"math"
	"testing"
)

const tol = 1e-12

func close(t *testing.T, got, want, tol float64, msg string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s: got %.15g want %.15g", msg, got, want)
	}
}

func TestAddMulGradient(t *testing.T) {
	t.Parallel()

	x := New(3, "x")
	y := New(5, "y")

	z := x.Mul(y).Add(x) // z = xy + x
	close(t, z.Real(), 18, tol, "real")
	close(t, z.Gradient("x"), 6, tol, "dz/dx") // y + 1
	close(t, z.Gradient("y"), 3, tol, "dz/dy") // x
}

func TestSecondOrderProductRule(t *testing.T) {
	t.Parallel()

	x := New2(3, "x")
	y := New2(5, "y")

	// z = x^2 * y: z_xx = 2y, z_xy = 2x, z_yy = 0.
	z := x.Mul(x).Mul(y)
	close(t, z.Real(), 45, tol, "real")
	close(t, z.Gradient("x"), 30, tol, "dz/dx")
	close(t, z.Gradient("y"), 9, tol, "dz/dy")
	close(t, z.Gradient2("x", "x"), 10, tol, "d2z/dx2")
	close(t, z.Gradient2("x", "y"), 6, tol, "d2z/dxdy")
	close(t, z.Gradient2("y", "x"), 6, tol, "symmetry")
	close(t, z.Gradient2("y", "y"), 0, tol, "d2z/dy2")
}

func TestDivPowChain(t *testing.T) {
	t.Parallel()

	x := New2(2, "x")

	// z = 1/x: z' = -1/x^2, z'' = 2/x^3.
	z := x.Inv()
	close(t, z.Real(), 0.5, tol, "inv real")
	close(t, z.Gradient("x"), -0.25, tol, "inv grad")
	close(t, z.Gradient2("x", "x"), 0.25, tol, "inv hess")

	// w = x^3.5
	w := x.Pow(3.5)
	close(t, w.Real(), math.Pow(2, 3.5), 1e-10, "pow real")
	close(t, w.Gradient("x"), 3.5*math.Pow(2, 2.5), 1e-10, "pow grad")
	close(t, w.Gradient2("x", "x"), 3.5*2.5*math.Pow(2, 1.5), 1e-10, "pow hess")
}

func TestExpLogRoundTrip(t *testing.T) {
	t.Parallel()

	x := New2(1.3, "x")
	z := x.Exp().Log()
	close(t, z.Real(), 1.3, 1e-12, "real")
	close(t, z.Gradient("x"), 1, 1e-12, "grad")
	close(t, z.Gradient2("x", "x"), 0, 1e-12, "hess")
}

func TestConstCombinesWithAnyOrder(t *testing.T) {
	t.Parallel()

	c := Const(2)
	x := New2(3, "x")
	z := c.Mul(x)
	if z.Order() != Order2 {
		t.Fatalf("order: got %d want 2", z.Order())
	}
	close(t, z.Gradient("x"), 2, tol, "grad")
}

func TestMixedOrderPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic combining order 1 with order 2")
		}
	}()
	New(1, "x").Add(New2(1, "y"))
}

func TestSetOrderAndStrip(t *testing.T) {
	t.Parallel()

	x := New2(4, "x").Mul(New2(2, "z"))
	down := SetOrder(x, Order1)
	if down.Order() != Order1 {
		t.Fatalf("order: got %d", down.Order())
	}
	close(t, down.Gradient("x"), 2, tol, "grad survives truncation")

	stripped := Strip(x, "z")
	close(t, stripped.Gradient("z"), 0, tol, "z removed")
	close(t, stripped.Gradient2("x", "z"), 0, tol, "xz removed")
	close(t, stripped.Gradient("x"), 2, tol, "x kept")
}

type fakeHolder struct{ order int }

func (f *fakeHolder) SetADOrder(order int) int {
	prev := f.order
	f.order = order
	return prev
}

func TestOrderGuardElevates(t *testing.T) {
	t.Parallel()

	a := &fakeHolder{order: 1}
	b := &fakeHolder{order: 0}

	g := ElevateAD(2, a, nil, b)
	if a.order != 2 || b.order != 2 {
		t.Fatalf("elevation failed: %d %d", a.order, b.order)
	}
	g.Restore()
	if a.order != 1 || b.order != 0 {
		t.Fatalf("orders not restored: %d %d", a.order, b.order)
	}
	g.Restore() // idempotent
	if a.order != 1 || b.order != 0 {
		t.Fatalf("double restore corrupted orders: %d %d", a.order, b.order)
	}
}

func TestOrderGuardRestoresOnPanic(t *testing.T) {
	t.Parallel()

	a := &fakeHolder{order: 1}
	b := &fakeHolder{order: 0}

	func() {
		defer func() { recover() }()
		g := ElevateAD(2, a, b)
		defer g.Restore()
		panic("mid-computation failure")
	}()

	if a.order != 1 || b.order != 0 {
		t.Fatalf("orders not restored: %d %d", a.order, b.order)
	}
}
