package formulation

import (
	"math"
	"sort"

	"github.com/ohowland/cgc_expand/internal/pkg/linprog"
)

// buildBiogas lets pipeline-connected thermal resources attribute part of
// their yearly generation to blended biogas, limited by the fuel's supply
// potential and by what the plant actually burned.
func (b *Builder) buildBiogas() error {
	if len(b.sys.Sets.PipelineBiogas) == 0 {
		return nil
	}
	inf := math.Inf(1)

	for _, r := range b.sys.Sets.PipelineBiogas {
		for _, p := range b.idx.Periods() {
			b.addVar(0, inf, "Biogas_Generation", r, p)
			b.addVar(0, inf, "Biogas_Consumption", r, p)
		}
	}

	for _, r := range b.sys.Sets.PipelineBiogas {
		slope := b.sys.Tech(r).FuelBurnSlope
		for _, p := range b.idx.Periods() {
			// attributed energy converts at the plant's marginal heat rate;
			// committed plants also burn intercept fuel, so their attributed
			// consumption may exceed the marginal conversion
			link := linprog.NewExpr().
				Add(b.varID("Biogas_Consumption", r, p), 1).
				Add(b.varID("Biogas_Generation", r, p), -slope)
			if contains(b.sys.Sets.Dispatchable, r) {
				b.lp.GreaterEq(VarName("Biogas_Heat_Rate_Link", r, p), link, 0)
			} else {
				b.lp.Equal(VarName("Biogas_Heat_Rate_Link", r, p), link, 0)
			}

			burn := linprog.NewExpr().
				Add(b.varID("Biogas_Consumption", r, p), 1).
				AddExpr(b.annualFuelBurn(r, p), -1)
			b.lp.LessEq(VarName("Biogas_Within_Fuel_Burn", r, p), burn, 0)

			gen := linprog.NewExpr().Add(b.varID("Biogas_Generation", r, p), 1)
			for _, t := range b.periodTimepoints(p) {
				gen.Add(b.varID("Provide_Power", r, t), -b.idx.DayWeight(t))
			}
			b.lp.LessEq(VarName("Biogas_Within_Generation", r, p), gen, 0)
		}
	}

	// supply potential is shared per blendable fuel
	for _, f := range b.blendableFuels() {
		for _, p := range b.idx.Periods() {
			pool := linprog.NewExpr()
			for _, r := range b.sys.Sets.PipelineBiogas {
				if b.sys.Tech(r).Fuel == f {
					pool.Add(b.varID("Biogas_Consumption", r, p), 1)
				}
			}
			b.lp.LessEq(VarName("Biogas_Potential", f, p), pool,
				b.pp("biogas_potential_mmbtu", f, p))
		}
	}
	return nil
}

func (b *Builder) blendableFuels() []string {
	set := make(map[string]bool)
	for _, r := range b.sys.Sets.PipelineBiogas {
		set[b.sys.Tech(r).Fuel] = true
	}
	var fuels []string
	for f := range set {
		fuels = append(fuels, f)
	}
	sort.Strings(fuels)
	return fuels
}
