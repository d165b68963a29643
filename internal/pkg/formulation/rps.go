package formulation

import (
	"fmt"
	"math"

	"github.com/ohowland/cgc_expand/internal/pkg/linprog"
)

// buildRPS enforces the renewables portfolio target in each period. The
// target is a fraction of retail sales net of efficiency savings; eligible
// generation, banked credits, biogas blending and non-modeled procurement
// count toward it. When banking is optimized, unspent surplus rolls into
// the next period's bank instead of being fixed by the planned schedule.
func (b *Builder) buildRPS() error {
	zones := b.rpsZones()
	if len(zones) == 0 {
		return nil
	}
	inf := math.Inf(1)

	if b.tog.OptimizeRPSBanking {
		for _, p := range b.idx.Periods() {
			b.addVar(0, inf, "RPS_Bank", p)
		}
	}

	for _, p := range b.idx.Periods() {
		achieve := linprog.NewExpr()

		for _, r := range b.sys.Sets.RPSEligible {
			for _, t := range b.periodTimepoints(p) {
				achieve.Add(b.varID("Provide_Power", r, t), b.idx.DayWeight(t))
				if !b.tog.RequireRPSOverbuild && b.hasVar("Scheduled_Curtailment", r, t) {
					achieve.Add(b.varID("Scheduled_Curtailment", r, t), b.idx.DayWeight(t))
				}
			}
		}

		// subhourly dispatch of variable load-following awards shifts
		// delivered eligible energy both ways
		for _, t := range b.periodTimepoints(p) {
			achieve.AddExpr(b.subhourlyGeneration(t), b.idx.DayWeight(t))
			achieve.AddExpr(b.subhourlyCurtailment(t), -b.idx.DayWeight(t))
		}

		if b.tog.CountStorageLosses {
			for _, r := range b.sys.Sets.Storage {
				if !b.sys.ResourceZone(r).InRPS {
					continue
				}
				for _, t := range b.periodTimepoints(p) {
					achieve.Add(b.varID("Charge_Storage", r, t), -b.idx.DayWeight(t))
					achieve.Add(b.varID("Provide_Power", r, t), b.idx.DayWeight(t))
				}
			}
		}

		for _, r := range b.sys.Sets.PipelineBiogas {
			if b.hasVar("Biogas_Generation", r, p) {
				achieve.Add(b.varID("Biogas_Generation", r, p), 1)
			}
		}

		target := linprog.NewExpr()
		targetConst := 0.0
		for _, z := range zones {
			frac := b.pp("rps_fraction_of_retail_sales", z, p)
			if frac == 0 {
				continue
			}
			targetConst += frac * b.pp("retail_sales_mwh", z, p)
			for _, t := range b.periodTimepoints(p) {
				target.AddExpr(b.eeLoadReduction(z, t), -frac*b.idx.DayWeight(t))
			}
		}

		unbundled := b.periodParam("rps_unbundled_mwh", p)
		if limit := b.periodParam("rps_unbundled_fraction_limit", p); limit > 0 &&
			unbundled > limit*targetConst {
			return fmt.Errorf("unbundled credits %.0f MWh exceed %.0f%% of the %.0f MWh target in period %d",
				unbundled, 100*limit, targetConst, p)
		}
		achieve.AddConst(unbundled + b.periodParam("rps_nonmodeled_mwh", p))

		if b.tog.OptimizeRPSBanking {
			// bank balances are stocks; spread the draw over the years the
			// period represents so the balance stays annual
			scale := 1.0
			if yrs := b.idx.YearsInPeriod(p); yrs > 0 {
				scale = 1 / yrs
			}
			achieve.Add(b.varID("RPS_Bank", p), -scale)
			if prev, ok := b.idx.PrevPeriod(p); ok {
				achieve.Add(b.varID("RPS_Bank", prev), scale)
			} else {
				achieve.AddConst(scale * b.periodParam("rps_starting_bank_mwh", p))
			}
		} else {
			achieve.AddConst(b.periodParam("rps_planned_bank_spend_mwh", p))
		}

		achieve.AddExpr(target, 1)
		b.lp.GreaterEq(VarName("Achieve_RPS_Target", p), achieve, targetConst)
	}

	return nil
}

func (b *Builder) rpsZones() []string {
	var zones []string
	for _, z := range b.sys.ZoneNames {
		if b.sys.Zones[z].InRPS {
			zones = append(zones, z)
		}
	}
	return zones
}

// periodTimepoints filters the ordered timepoints to one period.
func (b *Builder) periodTimepoints(p int) []int {
	var tps []int
	for _, t := range b.idx.Timepoints() {
		if b.idx.Period(t) == p {
			tps = append(tps, t)
		}
	}
	return tps
}

// periodParam reads a period-scoped system-wide value.
func (b *Builder) periodParam(param string, p int) float64 {
	return b.prm.ObjectPeriod(param, "", p)
}
