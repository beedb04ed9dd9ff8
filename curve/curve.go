// Package curve provides discount-factor curves with switchable AD order.
//
// A Curve is a set of dated discount-factor nodes interpolated log-linearly.
// Lookups return dual.Number values whose variables are the curve's nodes,
// named "<id><index>", at the curve's current AD order. Curves are shared by
// reference across instruments; the AD order is the only mutable state and is
// managed with dual.ElevateAD guards.
package curve

import (
	"fmt"
	"time"

	"github.com/marcopist/rateslib/dual"
	"github.com/marcopist/rateslib/utils"
)

// Curve maps dates to discount factors by log-linear interpolation between
// nodes. Bootstrap from market quotes is out of scope: nodes are supplied
// directly (typically by an external calibration).
type Curve struct {
	id    string
	dates []time.Time
	dfs   []float64
	ad    int
}

// New creates a curve from discount-factor nodes. At least two nodes are
// required; the first node is the curve's anchor (reference) date and should
// carry a discount factor of 1.0.
func New(id string, nodes map[time.Time]float64) (*Curve, error) {
	if len(nodes) < 2 {
		return nil, fmt.Errorf("curve.New: need at least 2 nodes, got %d", len(nodes))
	}
	dates := make([]time.Time, 0, len(nodes))
	for t := range nodes {
		dates = append(dates, t)
	}
	utils.SortDates(dates)
	dfs := make([]float64, len(dates))
	for i, t := range dates {
		df := nodes[t]
		if df <= 0 {
			return nil, fmt.Errorf("curve.New: non-positive discount factor %g at %s", df, t.Format("2006-01-02"))
		}
		dfs[i] = df
	}
	return &Curve{id: id, dates: dates, dfs: dfs}, nil
}

// ID returns the curve identifier used for solver lookups and node variables.
func (c *Curve) ID() string { return c.id }

// Anchor returns the curve's first node date (its reference date).
func (c *Curve) Anchor() time.Time { return c.dates[0] }

// NodeDates returns the node dates in ascending order.
func (c *Curve) NodeDates() []time.Time { return c.dates }

// ADOrder returns the current AD order.
func (c *Curve) ADOrder() int { return c.ad }

// SetADOrder switches the AD order of subsequent lookups and returns the
// prior order, for use with dual.ElevateAD.
func (c *Curve) SetADOrder(order int) int {
	prev := c.ad
	c.ad = order
	return prev
}

func (c *Curve) node(i int) dual.Number {
	v := fmt.Sprintf("%s%d", c.id, i)
	switch c.ad {
	case dual.Order1:
		return dual.New(c.dfs[i], v)
	case dual.Order2:
		return dual.New2(c.dfs[i], v)
	default:
		return dual.Const(c.dfs[i])
	}
}

// DF returns the discount factor for date t.
//
// Between nodes, interpolation is log-linear in the discount factor. Before
// the anchor the first node value is returned; beyond the last node the final
// segment is extrapolated.
func (c *Curve) DF(t time.Time) dual.Number {
	n := len(c.dates)
	if !t.After(c.dates[0]) {
		return c.node(0)
	}
	if !t.Before(c.dates[n-1]) {
		if t.Equal(c.dates[n-1]) {
			return c.node(n - 1)
		}
		return c.interp(n-2, t)
	}
	i := utils.IndexLeft(c.dates, t)
	if t.Equal(c.dates[i]) {
		return c.node(i)
	}
	return c.interp(i, t)
}

// interp computes node(i)^(1-w) * node(i+1)^w with w the calendar-day
// position of t within segment i. For t beyond the segment (extrapolation)
// w exceeds 1 and the formula extends the segment's constant forward rate.
func (c *Curve) interp(i int, t time.Time) dual.Number {
	w := utils.Days(c.dates[i], t) / utils.Days(c.dates[i], c.dates[i+1])
	return c.node(i).Pow(1 - w).Mul(c.node(i + 1).Pow(w))
}
