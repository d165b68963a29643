package formulation

import (
	"github.com/ohowland/cgc_expand/internal/pkg/linprog"
)

// fuelBurn is the hourly fuel consumption of a thermal resource in MMBtu.
// Committed units burn along a linear input-output curve plus a no-load
// term; regulation throughput adds expected mileage burn. Start fuel is an
// event cost and enters the annual total, not the hourly rate.
func (b *Builder) fuelBurn(r string, t int) *linprog.Expr {
	return b.memo("fuelBurn", func() *linprog.Expr {
		tech := b.sys.Tech(r)
		e := linprog.NewExpr().Add(b.varID("Provide_Power", r, t), tech.FuelBurnSlope)

		if contains(b.sys.Sets.Regulation, r) {
			frac := b.p("reg_dispatch_fraction", r)
			e.Add(b.varID("Provide_Reg_Up", r, t), tech.FuelBurnSlope*frac)
			e.Add(b.varID("Provide_Reg_Down", r, t), tech.FuelBurnSlope*frac)
		}

		if contains(b.sys.Sets.Dispatchable, r) {
			e.Add(b.varID("Commit_Units", r, t), tech.FuelBurnIntercept)
		}
		return e
	}, r, t)
}

// annualFuelBurn is the day-weighted yearly fuel consumption in one period,
// start fuel included.
func (b *Builder) annualFuelBurn(r string, p int) *linprog.Expr {
	return b.memo("annualFuelBurn", func() *linprog.Expr {
		tech := b.sys.Tech(r)
		e := linprog.NewExpr()
		for _, t := range b.periodTimepoints(p) {
			e.AddExpr(b.fuelBurn(r, t), b.idx.DayWeight(t))
			if contains(b.sys.Sets.Dispatchable, r) && tech.StartFuelMMBtu > 0 {
				e.Add(b.varID("Start_Units", r, t), b.idx.DayWeight(t)*tech.StartFuelMMBtu)
			}
		}
		return e
	}, r, p)
}
