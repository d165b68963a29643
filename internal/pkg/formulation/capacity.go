package formulation

import (
	"math"

	"github.com/ohowland/cgc_expand/internal/pkg/linprog"
	"github.com/ohowland/cgc_expand/internal/pkg/params"
)

// buildCapacity declares the build and retirement decisions and the capacity
// bookkeeping constraints. Planned capacity enters as fixed period streams;
// new capacity is tracked by vintage so vintage-specific costs and
// retirements stay addressable.
func (b *Builder) buildCapacity() error {
	inf := math.Inf(1)

	for _, r := range b.sys.Sets.NewBuild {
		for _, v := range b.idx.Vintages() {
			b.addVar(0, inf, "Build_Capacity", r, v)
		}
	}
	for _, r := range b.sys.Sets.NewBuildStorage {
		for _, v := range b.idx.Vintages() {
			b.addVar(0, inf, "Build_Storage_Energy", r, v)
		}
	}
	for _, r := range b.sys.Sets.CanRetire {
		for _, p := range b.idx.Periods() {
			b.addVar(0, inf, "Retire_Planned_Cumulative", r, p)
		}
	}
	for _, r := range b.sys.Sets.CanRetireNew {
		for _, pv := range b.idx.PeriodVintages() {
			b.addVar(0, inf, "Retire_New_Cumulative", r, pv[0], pv[1])
		}
	}

	for _, r := range b.sys.Sets.CanRetire {
		for _, p := range b.idx.Periods() {
			cum := linprog.NewExpr().Add(b.varID("Retire_Planned_Cumulative", r, p), 1)

			// forced planned retirements floor cumulative retirement
			if _, ok := b.idx.PrevPeriod(p); ok {
				b.lp.GreaterEq(VarName("Min_Planned_Retirements", r, p),
					linprog.NewExpr().AddExpr(cum, 1), b.plannedSubtractions(r, p))
			}
			b.lp.LessEq(VarName("Max_Planned_Retirements", r, p),
				linprog.NewExpr().AddExpr(cum, 1), b.plannedAdditions(r, p))

			if prev, ok := b.idx.PrevPeriod(p); ok {
				e := linprog.NewExpr().
					Add(b.varID("Retire_Planned_Cumulative", r, p), 1).
					Add(b.varID("Retire_Planned_Cumulative", r, prev), -1)
				b.lp.GreaterEq(VarName("Planned_Retirement_Increasing", r, p), e, 0)
			}
		}
	}

	for _, r := range b.sys.Sets.CanRetireNew {
		for _, pv := range b.idx.PeriodVintages() {
			p, v := pv[0], pv[1]
			retire := b.varID("Retire_New_Cumulative", r, p, v)

			// capacity cannot retire in its build period
			if p == v {
				b.lp.Equal(VarName("No_Retirement_At_Vintage", r, p, v),
					linprog.NewExpr().Add(retire, 1), 0)
			}
			if prev, ok := b.idx.PrevPeriod(p); ok && prev >= v {
				e := linprog.NewExpr().
					Add(retire, 1).
					Add(b.varID("Retire_New_Cumulative", r, prev, v), -1)
				b.lp.GreaterEq(VarName("New_Retirement_Increasing", r, p, v), e, 0)
			}
			e := linprog.NewExpr().
				Add(retire, 1).
				Add(b.varID("Build_Capacity", r, v), -1)
			b.lp.LessEq(VarName("New_Retirement_Within_Build", r, p, v), e, 0)
		}
	}

	for _, r := range b.sys.ResourceNames {
		rec := b.sys.Resources[r]
		for _, p := range b.idx.Periods() {
			if min := b.pp("min_operational_planned_capacity_mw", r, p); min > 0 {
				b.lp.GreaterEq(VarName("Min_Operational_Planned", r, p),
					linprog.NewExpr().AddExpr(b.OperationalPlanned(r, p), 1), min)
			}
			if !rec.CanBuildNew {
				continue
			}
			if min := b.pp("min_cumulative_new_build_mw", r, p); min > 0 {
				b.lp.GreaterEq(VarName("Min_Cumulative_New_Build", r, p),
					linprog.NewExpr().AddExpr(b.CumulativeNewCapacity(r, p), 1), min)
			}
		}
	}

	for _, r := range b.sys.Sets.CapacityLimited {
		for _, p := range b.idx.Periods() {
			b.lp.LessEq(VarName("Capacity_Limit", r, p),
				linprog.NewExpr().AddExpr(b.CumulativeNewCapacity(r, p), 1),
				b.pp("capacity_limit_mw", r, p))
		}
	}

	// new storage must carry at least its technology's minimum duration
	for _, r := range b.sys.Sets.NewBuildStorage {
		minDur := b.sys.Tech(r).MinDurationHours
		if minDur <= 0 {
			continue
		}
		for _, p := range b.idx.Periods() {
			e := linprog.NewExpr().
				AddExpr(b.CumulativeNewStorageEnergy(r, p), 1).
				AddExpr(b.OperationalNewCapacity(r, p), -minDur)
			b.lp.GreaterEq(VarName("Min_New_Storage_Duration", r, p), e, 0)
		}
	}

	if b.tog.AllowEEInvestment {
		for _, r := range b.sys.Sets.EEPrograms {
			if !b.sys.Resources[r].CanBuildNew {
				continue
			}
			for _, p := range b.idx.Periods() {
				b.lp.LessEq(VarName("Max_EE_Investment", r, p),
					linprog.NewExpr().Add(b.varID("Build_Capacity", r, p), 1),
					b.pp("max_investment_in_period_amw", r, p))
			}
		}
	}

	return nil
}

// plannedAdditions is the cumulative planned capacity added through period p.
func (b *Builder) plannedAdditions(r string, p int) float64 {
	total := 0.0
	prevCap := 0.0
	for _, cand := range b.idx.Periods() {
		if cand > p {
			break
		}
		cap := b.pp("planned_installed_capacity_mw", r, cand)
		if diff := cap - prevCap; diff > 0 {
			total += diff
		}
		prevCap = cap
	}
	return total
}

// plannedSubtractions is the cumulative planned capacity removed through p.
func (b *Builder) plannedSubtractions(r string, p int) float64 {
	total := 0.0
	prevCap := 0.0
	first := true
	for _, cand := range b.idx.Periods() {
		if cand > p {
			break
		}
		cap := b.pp("planned_installed_capacity_mw", r, cand)
		if !first {
			if diff := cap - prevCap; diff < 0 {
				total -= diff
			}
		}
		prevCap = cap
		first = false
	}
	return total
}

// OperationalPlanned is the surviving planned capacity of r in period p.
func (b *Builder) OperationalPlanned(r string, p int) *linprog.Expr {
	return b.memo("opPlanned", func() *linprog.Expr {
		e := linprog.NewExpr().AddConst(b.plannedAdditions(r, p))
		if b.sys.Resources[r].CanRetire {
			e.Add(b.varID("Retire_Planned_Cumulative", r, p), -1)
		} else {
			e.AddConst(-b.plannedSubtractions(r, p))
		}
		return e
	}, r, p)
}

// CumulativeNewCapacity is all capacity built through period p.
func (b *Builder) CumulativeNewCapacity(r string, p int) *linprog.Expr {
	return b.memo("cumNew", func() *linprog.Expr {
		e := linprog.NewExpr()
		if !b.sys.Resources[r].CanBuildNew {
			return e
		}
		for _, v := range b.idx.Vintages() {
			if v <= p {
				e.Add(b.varID("Build_Capacity", r, v), 1)
			}
		}
		return e
	}, r, p)
}

// OperationalNewCapacity is built capacity net of new-capacity retirements.
func (b *Builder) OperationalNewCapacity(r string, p int) *linprog.Expr {
	return b.memo("opNew", func() *linprog.Expr {
		e := linprog.NewExpr().AddExpr(b.CumulativeNewCapacity(r, p), 1)
		if b.sys.Resources[r].CanRetire && b.sys.Resources[r].CanBuildNew {
			for _, v := range b.idx.Vintages() {
				if v <= p {
					e.Add(b.varID("Retire_New_Cumulative", r, p, v), -1)
				}
			}
		}
		return e
	}, r, p)
}

// OperationalCapacity is planned plus new capacity available in period p.
func (b *Builder) OperationalCapacity(r string, p int) *linprog.Expr {
	return b.memo("opCap", func() *linprog.Expr {
		return linprog.NewExpr().
			AddExpr(b.OperationalPlanned(r, p), 1).
			AddExpr(b.OperationalNewCapacity(r, p), 1)
	}, r, p)
}

// OperationalNQC derates operational capacity to its qualifying fraction.
func (b *Builder) OperationalNQC(r string, p int) *linprog.Expr {
	return b.memo("opNQC", func() *linprog.Expr {
		return linprog.NewExpr().
			AddExpr(b.OperationalCapacity(r, p), b.p("net_qualifying_capacity_fraction", r))
	}, r, p)
}

// AvailableCapacity applies the maintenance derate of timepoint t.
func (b *Builder) AvailableCapacity(r string, t int) *linprog.Expr {
	return b.memo("availCap", func() *linprog.Expr {
		return linprog.NewExpr().
			AddExpr(b.OperationalCapacity(r, b.idx.Period(t)), b.maintenanceDerate(r, t))
	}, r, t)
}

// maintenanceDerate defaults to full availability when no derate is bound.
func (b *Builder) maintenanceDerate(r string, t int) float64 {
	key := params.Key{Object: r, Period: b.idx.Period(t), Day: b.idx.Day(t), Hour: b.idx.HourOfDay(t)}
	if b.prm.Has("maintenance_derate", key) {
		return b.prm.Get("maintenance_derate", key)
	}
	return 1.0
}

// CumulativeNewStorageEnergy is all storage energy built through period p.
func (b *Builder) CumulativeNewStorageEnergy(r string, p int) *linprog.Expr {
	return b.memo("cumNewEnergy", func() *linprog.Expr {
		e := linprog.NewExpr()
		for _, v := range b.idx.Vintages() {
			if v <= p {
				e.Add(b.varID("Build_Storage_Energy", r, v), 1)
			}
		}
		return e
	}, r, p)
}

// TotalStorageEnergyCapacity is planned plus built storage energy.
func (b *Builder) TotalStorageEnergyCapacity(r string, p int) *linprog.Expr {
	return b.memo("totalEnergy", func() *linprog.Expr {
		e := linprog.NewExpr().AddConst(b.pp("planned_storage_energy_mwh", r, p))
		if contains(b.sys.Sets.NewBuildStorage, r) {
			e.AddExpr(b.CumulativeNewStorageEnergy(r, p), 1)
		}
		return e
	}, r, p)
}

func contains(list []string, name string) bool {
	for _, cand := range list {
		if cand == name {
			return true
		}
	}
	return false
}
