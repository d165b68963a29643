package formulation

import (
	"math"

	"github.com/ohowland/cgc_expand/internal/pkg/linprog"
	"github.com/ohowland/cgc_expand/internal/pkg/params"
)

// buildDemandResponse caps shed demand response at one equivalent call per
// day and at its annual hours of availability.
func (b *Builder) buildDemandResponse() error {
	for _, r := range b.sys.Sets.ConventionalDR {
		for _, t := range b.idx.Timepoints() {
			e := linprog.NewExpr().
				Add(b.varID("Provide_Power", r, t), 1).
				AddExpr(b.OperationalCapacity(r, b.idx.Period(t)), -1)
			b.lp.LessEq(VarName("Shed_DR_Capacity", r, t), e, 0)
		}

		for _, p := range b.idx.Periods() {
			annual := linprog.NewExpr()
			for _, t := range b.idx.Timepoints() {
				if b.idx.Period(t) == p {
					annual.Add(b.varID("Provide_Power", r, t), b.idx.DayWeight(t))
				}
			}
			annual.AddExpr(b.OperationalCapacity(r, p), -b.pp("conventional_dr_availability_hours_per_year", r, p))
			b.lp.LessEq(VarName("Shed_DR_Annual", r, p), annual, 0)

			for _, d := range b.idx.Days() {
				members := b.idx.DayTimepoints(p, d)
				daily := linprog.NewExpr()
				for _, t := range members {
					daily.Add(b.varID("Provide_Power", r, t), 1)
				}
				cf := b.pp("conventional_dr_daily_capacity_factor", r, p)
				daily.AddExpr(b.OperationalCapacity(r, p), -cf*float64(len(members)))
				b.lp.LessEq(VarName("Shed_DR_Daily", r, p, d), daily, 0)
			}
		}
	}
	return nil
}

// buildEV tracks aggregate EV battery energy: charging follows plug-in
// availability and driving demand draws the batteries down.
func (b *Builder) buildEV() error {
	if !b.tog.IncludeEV {
		return nil
	}
	inf := math.Inf(1)

	for _, r := range b.sys.Sets.EV {
		for _, t := range b.idx.Timepoints() {
			b.addVar(0, inf, "Charge_EV_Batteries", r, t)
			b.addVar(0, inf, "Energy_In_EV_Batteries", r, t)
		}
	}

	for _, r := range b.sys.Sets.EV {
		eff := b.sys.Tech(r).ChargingEfficiency
		for _, t := range b.idx.Timepoints() {
			p := b.idx.Period(t)
			prev := b.idx.Prev(t)

			track := linprog.NewExpr().
				Add(b.varID("Energy_In_EV_Batteries", r, t), 1).
				Add(b.varID("Energy_In_EV_Batteries", r, prev), -1).
				Add(b.varID("Charge_EV_Batteries", r, prev), -eff).
				AddConst(b.pt("driving_energy_demand_mw", r, prev))
			b.lp.Equal(VarName("EV_Energy_Tracking", r, t), track, 0)

			b.lp.LessEq(VarName("EV_Charge_Limit", r, t),
				linprog.NewExpr().Add(b.varID("Charge_EV_Batteries", r, t), 1),
				b.pt("ev_battery_plugged_in_capacity_mw", r, t))

			b.lp.LessEq(VarName("EV_Max_Energy", r, t),
				linprog.NewExpr().Add(b.varID("Energy_In_EV_Batteries", r, t), 1),
				b.pp("total_ev_battery_energy_capacity_mwh", r, p))

			b.lp.GreaterEq(VarName("EV_Min_Energy", r, t),
				linprog.NewExpr().Add(b.varID("Energy_In_EV_Batteries", r, t), 1),
				b.pp("minimum_energy_in_ev_batteries_mwh", r, p))
		}
	}
	return nil
}

// buildHydrogen constrains electrolysis load between its capacity and a
// daily energy quota.
func (b *Builder) buildHydrogen() error {
	if !b.tog.IncludeHydrogen {
		return nil
	}
	inf := math.Inf(1)

	for _, r := range b.sys.Sets.Hydrogen {
		for _, t := range b.idx.Timepoints() {
			b.addVar(0, inf, "Hydrogen_Electrolysis_Load", r, t)
		}
	}

	for _, r := range b.sys.Sets.Hydrogen {
		for _, t := range b.idx.Timepoints() {
			p := b.idx.Period(t)
			d := b.idx.Day(t)
			load := b.varID("Hydrogen_Electrolysis_Load", r, t)

			cap := linprog.NewExpr().Add(load, 1).AddExpr(b.OperationalCapacity(r, p), -1)
			b.lp.LessEq(VarName("Electrolysis_Load_Max", r, t), cap, 0)

			min := b.prm.Get("hydrogen_electrolysis_load_min_mw", params.Key{Object: r, Period: p, Day: d})
			b.lp.GreaterEq(VarName("Electrolysis_Load_Min", r, t),
				linprog.NewExpr().Add(load, 1), min)
		}

		for _, p := range b.idx.Periods() {
			for _, d := range b.idx.Days() {
				daily := linprog.NewExpr()
				for _, t := range b.idx.DayTimepoints(p, d) {
					daily.Add(b.varID("Hydrogen_Electrolysis_Load", r, t), 1)
				}
				quota := b.prm.Get("hydrogen_electrolysis_load_daily_mwh", params.Key{Object: r, Period: p, Day: d})
				b.lp.Equal(VarName("Electrolysis_Load_Daily", r, p, d), daily, quota)
			}
		}
	}
	return nil
}

// buildFlexibleLoad declares shiftable load with a buildable daily potential
// priced by a piecewise-linear supply curve. Shifts are energy neutral
// within each day.
func (b *Builder) buildFlexibleLoad() error {
	if !b.tog.IncludeFlexibleLoad {
		return nil
	}
	inf := math.Inf(1)

	for _, r := range b.sys.Sets.FlexibleLoad {
		for _, t := range b.idx.Timepoints() {
			b.addVar(0, inf, "Shift_Load_Up", r, t)
			b.addVar(0, inf, "Shift_Load_Down", r, t)
		}
		for _, p := range b.idx.Periods() {
			b.addVar(0, inf, "Daily_Flexible_Load_Potential", r, p)
			b.addVar(0, inf, "Flexible_Load_DR_Cost", r, p)
		}
	}

	for _, r := range b.sys.Sets.FlexibleLoad {
		for _, t := range b.idx.Timepoints() {
			p := b.idx.Period(t)
			potential := b.varID("Daily_Flexible_Load_Potential", r, p)

			up := linprog.NewExpr().
				Add(b.varID("Shift_Load_Up", r, t), 1).
				Add(potential, -b.pt("shift_load_up_potential_factor", r, t))
			b.lp.LessEq(VarName("Max_Shift_Up", r, t), up, 0)

			down := linprog.NewExpr().
				Add(b.varID("Shift_Load_Down", r, t), 1).
				Add(potential, -b.pt("shift_load_down_potential_factor", r, t))
			b.lp.LessEq(VarName("Max_Shift_Down", r, t), down, 0)
		}

		for _, p := range b.idx.Periods() {
			potential := b.varID("Daily_Flexible_Load_Potential", r, p)

			for _, d := range b.idx.Days() {
				neutral := linprog.NewExpr()
				shifted := linprog.NewExpr()
				for _, t := range b.idx.DayTimepoints(p, d) {
					neutral.Add(b.varID("Shift_Load_Up", r, t), 1)
					neutral.Add(b.varID("Shift_Load_Down", r, t), -1)
					shifted.Add(b.varID("Shift_Load_Down", r, t), 1)
				}
				b.lp.Equal(VarName("Shift_Energy_Neutral", r, p, d), neutral, 0)

				shifted.Add(potential, -1)
				b.lp.LessEq(VarName("Max_Daily_Shift_Energy", r, p, d), shifted, 0)
			}

			b.lp.LessEq(VarName("Max_Flexible_Potential", r, p),
				linprog.NewExpr().Add(potential, 1),
				b.pp("max_flexible_load_shift_potential_mwh", r, p))
			b.lp.GreaterEq(VarName("Min_Flexible_Potential", r, p),
				linprog.NewExpr().Add(potential, 1),
				b.pp("min_cumulative_new_flexible_load_shift_mwh", r, p))

			// supply curve: the cost variable must sit above every segment
			segments := int(b.p("flexible_load_cost_curve_segments", r))
			for i := 1; i <= segments; i++ {
				slope := b.prm.Get("flexible_load_cost_curve_slope", params.Key{Object: r, Period: p, Hour: i})
				intercept := b.prm.Get("flexible_load_cost_curve_intercept", params.Key{Object: r, Period: p, Hour: i})
				e := linprog.NewExpr().
					Add(b.varID("Flexible_Load_DR_Cost", r, p), 1).
					Add(potential, -slope)
				b.lp.GreaterEq(VarName("Flexible_Load_Cost_Segment", r, p, i), e, intercept)
			}
		}
	}
	return nil
}
