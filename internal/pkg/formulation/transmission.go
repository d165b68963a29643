package formulation

import (
	"fmt"
	"math"
	"sort"

	"github.com/ohowland/cgc_expand/internal/pkg/linprog"
	"github.com/ohowland/cgc_expand/internal/pkg/params"
)

// buildTransmission declares corridor flows. Unspecified flow is freely
// optimized and split into positive/negative direction variables so hurdle
// rates and import emissions can price each direction; dedicated resources
// add their committed flow outside the split and outside hurdle accounting.
//
// The direction split is one-sided (pos >= flow, neg >= -flow), not an
// equality: cost minimization pins the slack because every rate multiplying
// these variables is nonnegative. A negative rate here would reward
// inflating a direction variable past the real flow, so rates are validated
// at bind time rather than the split being hardened.
func (b *Builder) buildTransmission() error {
	inf := math.Inf(1)

	for _, l := range b.sys.LineNames {
		for _, p := range b.idx.Periods() {
			if b.pp("hurdle_rate_positive_direction", l, p) < 0 ||
				b.pp("hurdle_rate_negative_direction", l, p) < 0 {
				return fmt.Errorf("line %q has a negative hurdle rate in period %d", l, p)
			}
		}
	}

	for _, l := range b.sys.LineNames {
		for _, t := range b.idx.Timepoints() {
			b.addVar(math.Inf(-1), inf, "Transmit_Power", l, t)
			b.addVar(0, inf, "Transmit_Power_Positive", l, t)
			b.addVar(0, inf, "Transmit_Power_Negative", l, t)
		}
	}
	if b.tog.AllowTxBuild {
		for _, l := range b.sys.Sets.LinesNew {
			for _, v := range b.idx.Vintages() {
				b.addVar(0, inf, "Build_Tx_Capacity", l, v)
			}
		}
	}

	for _, l := range b.sys.LineNames {
		for _, t := range b.idx.Timepoints() {
			p := b.idx.Period(t)
			unspec := b.varID("Transmit_Power", l, t)

			pos := linprog.NewExpr().
				Add(b.varID("Transmit_Power_Positive", l, t), 1).
				Add(unspec, -1)
			b.lp.GreaterEq(VarName("Positive_Direction", l, t), pos, 0)

			neg := linprog.NewExpr().
				Add(b.varID("Transmit_Power_Negative", l, t), 1).
				Add(unspec, 1)
			b.lp.GreaterEq(VarName("Negative_Direction", l, t), neg, 0)

			flow := b.totalFlow(l, t)

			min := linprog.NewExpr().AddExpr(flow, 1)
			max := linprog.NewExpr().AddExpr(flow, 1)
			if newCap := b.newTxCapacity(l, p); newCap != nil {
				min.AddExpr(newCap, 1)
				max.AddExpr(newCap, -1)
			}
			b.lp.GreaterEq(VarName("Min_Flow", l, t), min, b.pp("min_flow_mw", l, p))
			b.lp.LessEq(VarName("Max_Flow", l, t), max, b.pp("max_flow_mw", l, p))
		}
	}

	if b.tog.AllowTxRamp {
		for _, l := range b.sys.Sets.LinesRampLimited {
			b.buildTxRamp(l)
		}
	}

	for _, g := range sortedGroupNames(b) {
		group := b.sys.FlowGroups[g]
		for _, t := range b.idx.Timepoints() {
			p := b.idx.Period(t)
			e := linprog.NewExpr()
			for l, dir := range group.Directions {
				e.AddExpr(b.totalFlow(l, t), dir)
			}
			b.lp.LessEq(VarName("Simultaneous_Flow", g, t), e,
				b.pp("simultaneous_flow_limit_mw", g, p))
		}
	}

	return nil
}

// totalFlow is unspecified flow plus dedicated-resource contributions.
func (b *Builder) totalFlow(l string, t int) *linprog.Expr {
	return b.memo("totalFlow", func() *linprog.Expr {
		e := linprog.NewExpr().Add(b.varID("Transmit_Power", l, t), 1)
		if !b.tog.ResourceUseTxCapacity {
			return e
		}
		for _, r := range b.sys.Sets.DedicatedTx {
			rec := b.sys.Resources[r]
			if rec.TxLine != l {
				continue
			}
			e.Add(b.varID("Provide_Power", r, t), rec.TxDirection)
			if contains(b.sys.Sets.Storage, r) {
				e.Add(b.varID("Charge_Storage", r, t), -rec.TxDirection)
			}
		}
		return e
	}, l, t)
}

// newTxCapacity is cumulative built corridor capacity, nil when the line
// cannot expand.
func (b *Builder) newTxCapacity(l string, p int) *linprog.Expr {
	if !b.tog.AllowTxBuild || !contains(b.sys.Sets.LinesNew, l) {
		return nil
	}
	return b.memo("newTxCap", func() *linprog.Expr {
		e := linprog.NewExpr()
		for _, v := range b.idx.Vintages() {
			if v <= p {
				e.Add(b.varID("Build_Tx_Capacity", l, v), 1)
			}
		}
		return e
	}, l, p)
}

// buildTxRamp bounds flow movement over each constrained duration; the
// envelope widens with the corridor's full range plus any expansion in both
// directions.
func (b *Builder) buildTxRamp(l string) {
	maxDur := b.sys.Lines[l].MaxRampDuration
	for _, t := range b.idx.Timepoints() {
		p := b.idx.Period(t)
		rangeMW := b.pp("max_flow_mw", l, p) - b.pp("min_flow_mw", l, p)

		for dur := 1; dur <= maxDur; dur++ {
			frac := b.prm.Get("tx_ramp_limit_fraction", params.Key{Object: l, Hour: dur})
			back := b.idx.Lookback(t, dur)
			newCap := b.newTxCapacity(l, p)

			up := linprog.NewExpr().
				AddExpr(b.totalFlow(l, t), 1).
				AddExpr(b.totalFlow(l, back), -1)
			down := linprog.NewExpr().
				AddExpr(b.totalFlow(l, t), 1).
				AddExpr(b.totalFlow(l, back), -1)
			if newCap != nil {
				up.AddExpr(newCap, -2*frac)
				down.AddExpr(newCap, 2*frac)
			}
			b.lp.LessEq(VarName("Tx_Ramp_Up", l, t, dur), up, frac*rangeMW)
			b.lp.GreaterEq(VarName("Tx_Ramp_Down", l, t, dur), down, -frac*rangeMW)
		}
	}
}

func sortedGroupNames(b *Builder) []string {
	names := make([]string, 0, len(b.sys.FlowGroups))
	for g := range b.sys.FlowGroups {
		names = append(names, g)
	}
	sort.Strings(names)
	return names
}
