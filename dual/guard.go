package dual

// ADHolder is implemented by objects that carry a mutable AD order, such as
// curves and FX forwards shared by reference across instruments.
type ADHolder interface {
	// SetADOrder switches the object's AD order and returns the prior order.
	SetADOrder(order int) int
}

// OrderGuard restores the AD orders of a set of holders. Elevating shared
// curve or FX state without restoring it corrupts every later computation on
// that object, so callers must pair ElevateAD with a deferred Restore.
type OrderGuard struct {
	holders []ADHolder
	prev    []int
}

// ElevateAD sets every holder to the given AD order and records the prior
// orders. Nil holders are skipped so optional FX objects can be passed
// unconditionally, and duplicates are elevated once (a forecast and discount
// curve are often the same object).
func ElevateAD(order int, holders ...ADHolder) *OrderGuard {
	g := &OrderGuard{}
	for _, h := range holders {
		if h == nil || g.contains(h) {
			continue
		}
		g.prev = append(g.prev, h.SetADOrder(order))
		g.holders = append(g.holders, h)
	}
	return g
}

func (g *OrderGuard) contains(h ADHolder) bool {
	for _, held := range g.holders {
		if held == h {
			return true
		}
	}
	return false
}

// Restore reinstates the recorded orders. Safe to call more than once.
func (g *OrderGuard) Restore() {
	for i, h := range g.holders {
		h.SetADOrder(g.prev[i])
	}
	g.holders = nil
	g.prev = nil
}

// Previous returns the order a holder had before elevation, by position.
func (g *OrderGuard) Previous(i int) int { return g.prev[i] }
