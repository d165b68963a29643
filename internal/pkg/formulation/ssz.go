package formulation

import (
	"math"
	"sort"

	"github.com/ohowland/cgc_expand/internal/pkg/linprog"
)

// buildSemiStorageZones models exchange with non-modeled neighbors as an
// energy-neutral flow per period. The positive/negative split carries the
// same one-sided fragility as the transmission split and the same
// nonnegative-rate requirement.
func (b *Builder) buildSemiStorageZones() error {
	if !b.tog.AllowSemiStorageZones || len(b.sys.SSZones) == 0 {
		return nil
	}
	inf := math.Inf(1)

	names := make([]string, 0, len(b.sys.SSZones))
	for z := range b.sys.SSZones {
		names = append(names, z)
	}
	sort.Strings(names)

	for _, z := range names {
		for _, t := range b.idx.Timepoints() {
			b.addVar(math.Inf(-1), inf, "SSZ_Transmit_Power", z, t)
			b.addVar(0, inf, "SSZ_Positive_Transmit_Power", z, t)
			b.addVar(0, inf, "SSZ_Negative_Transmit_Power", z, t)
		}
	}

	for _, z := range names {
		for _, p := range b.idx.Periods() {
			net := linprog.NewExpr()
			for _, t := range b.idx.Timepoints() {
				if b.idx.Period(t) == p {
					net.Add(b.varID("SSZ_Transmit_Power", z, t), b.idx.DayWeight(t))
				}
			}
			b.lp.Equal(VarName("SSZ_Energy_Net_Zero", z, p), net, 0)
		}

		for _, t := range b.idx.Timepoints() {
			p := b.idx.Period(t)
			flow := b.varID("SSZ_Transmit_Power", z, t)

			pos := linprog.NewExpr().
				Add(b.varID("SSZ_Positive_Transmit_Power", z, t), 1).
				Add(flow, -1)
			b.lp.GreaterEq(VarName("SSZ_Positive_Direction", z, t), pos, 0)

			neg := linprog.NewExpr().
				Add(b.varID("SSZ_Negative_Transmit_Power", z, t), 1).
				Add(flow, 1)
			b.lp.GreaterEq(VarName("SSZ_Negative_Direction", z, t), neg, 0)

			b.lp.LessEq(VarName("SSZ_Max_Flow", z, t),
				linprog.NewExpr().Add(flow, 1), b.pp("ssz_max_flow_mw", z, p))
			b.lp.GreaterEq(VarName("SSZ_Min_Flow", z, t),
				linprog.NewExpr().Add(flow, 1), b.pp("ssz_min_flow_mw", z, p))
		}
	}
	return nil
}
