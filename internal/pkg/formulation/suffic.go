package formulation

import (
	"math"
	"sort"

	"github.com/ohowland/cgc_expand/internal/pkg/linprog"
	"github.com/ohowland/cgc_expand/internal/pkg/params"
)

// buildEnergySufficiency checks that the fleet can sustain average load over
// multi-day stress horizons, not just meet the single peak hour. Sample days
// are grouped into horizons; storage is credited at what it can sustain for
// the horizon length, demand response at its call-frequency limits, and
// variable output at a horizon capacity factor.
func (b *Builder) buildEnergySufficiency() error {
	if !b.tog.EnergySufficiency {
		return nil
	}
	groups := b.sufficiencyGroups()
	if len(groups) == 0 {
		return nil
	}
	inf := math.Inf(1)

	for _, g := range groups {
		for _, p := range b.idx.Periods() {
			for _, r := range b.sys.Sets.PRMStorage {
				b.addVar(0, inf, "Storage_Sufficiency", r, g, p)
			}
		}
	}

	for _, g := range groups {
		horizon := b.prm.Get("energy_sufficiency_horizon_hours", params.Key{Hour: g})
		if horizon <= 0 {
			horizon = 24
		}
		for _, p := range b.idx.Periods() {
			for _, r := range b.sys.Sets.PRMStorage {
				sus := b.varID("Storage_Sufficiency", r, g, p)

				power := linprog.NewExpr().
					Add(sus, 1).
					AddExpr(b.OperationalNQC(r, p), -1)
				b.lp.LessEq(VarName("Storage_Sufficiency_Power", r, g, p), power, 0)

				etaD := b.sys.Tech(r).DischargingEfficiency
				energy := linprog.NewExpr().
					Add(sus, 1).
					AddExpr(b.TotalStorageEnergyCapacity(r, p), -etaD/horizon)
				b.lp.LessEq(VarName("Storage_Sufficiency_Energy", r, g, p), energy, 0)
			}

			supply := linprog.NewExpr()
			for _, r := range b.sys.Sets.PRMFirmCapacity {
				if b.sys.Tech(r).ConventionalDR {
					supply.AddExpr(b.OperationalCapacity(r, p), b.drSufficiencyFactor(r, p, horizon))
					continue
				}
				supply.AddExpr(b.OperationalNQC(r, p), 1)
			}
			for _, r := range b.sys.Sets.PRMStorage {
				supply.Add(b.varID("Storage_Sufficiency", r, g, p), 1)
			}
			for _, r := range b.sys.Sets.PRMVariableRenewable {
				cf := b.prm.Get("energy_sufficiency_capacity_factor", params.Key{Object: r, Hour: g})
				supply.AddExpr(b.OperationalCapacity(r, p), cf)
			}
			for _, r := range b.sys.Sets.PRMEE {
				cf := b.prm.Get("energy_sufficiency_capacity_factor", params.Key{Object: r, Hour: g})
				supply.AddExpr(b.OperationalCapacity(r, p), cf)
			}
			for _, r := range b.sys.Sets.PRMImport {
				supply.AddConst(b.pp("prm_planned_import_capacity_mw", r, p) +
					b.pp("energy_sufficiency_import_adjustment_mw", r, p))
			}

			req := b.prm.Get("energy_sufficiency_average_load_mw", params.Key{Period: p, Hour: g})
			if req > 0 {
				b.lp.GreaterEq(VarName("Energy_Sufficiency", g, p), supply, req)
			}
		}
	}
	return nil
}

// drSufficiencyFactor derates demand response by how often it can be called
// across the horizon.
func (b *Builder) drSufficiencyFactor(r string, p int, horizon float64) float64 {
	annual := b.pp("conventional_dr_availability_hours_per_year", r, p) / horizon
	daily := b.pp("conventional_dr_daily_capacity_factor", r, p) * math.Min(1, 24/horizon)
	return math.Min(1, math.Min(annual, daily))
}

// sufficiencyGroups collects the distinct horizon ids assigned to sample
// days.
func (b *Builder) sufficiencyGroups() []int {
	set := make(map[int]bool)
	for _, d := range b.idx.Days() {
		id := int(b.prm.Get("energy_sufficiency_horizon_id", params.Key{Day: d}))
		if id > 0 {
			set[id] = true
		}
	}
	var groups []int
	for g := range set {
		groups = append(groups, g)
	}
	sort.Ints(groups)
	return groups
}
