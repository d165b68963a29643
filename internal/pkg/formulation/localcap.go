package formulation

import (
	"fmt"
	"math"
	"sort"

	"github.com/ohowland/cgc_expand/internal/pkg/linprog"
)

// buildLocalCapacity sites enough new capacity inside constrained local
// areas to close each area's deficiency. Contributions are class-specific:
// firm capacity counts at NQC, variable renewables at a local credit
// fraction, storage at an energy-limited credit, and efficiency programs
// gross of avoided delivery losses.
func (b *Builder) buildLocalCapacity() error {
	if len(b.sys.Sets.LocalCapacity) == 0 {
		return nil
	}
	inf := math.Inf(1)

	for _, r := range b.sys.Sets.LocalCapacity {
		for _, p := range b.idx.Periods() {
			b.addVar(0, inf, "Local_New_Capacity", r, p)
		}
	}
	for _, r := range b.sys.Sets.LocalCapacityStorage {
		for _, p := range b.idx.Periods() {
			b.addVar(0, inf, "Local_New_Storage_Energy", r, p)
		}
	}
	if b.tog.AllowTxBuild {
		for _, z := range b.localAreas() {
			for _, p := range b.idx.Periods() {
				b.addVar(0, inf, "New_Tx_Local_Capacity", z, p)
			}
		}
	}

	for _, r := range b.sys.Sets.LocalCapacity {
		tech := b.sys.Tech(r)
		for _, p := range b.idx.Periods() {
			local := b.varID("Local_New_Capacity", r, p)

			if tech.EEProgram {
				// efficiency cannot be sited selectively; local share is fixed
				share := linprog.NewExpr().
					Add(local, 1).
					AddExpr(b.OperationalNewCapacity(r, p), -b.p("local_area_load_fraction", r))
				b.lp.Equal(VarName("Local_EE_Share", r, p), share, 0)
			} else {
				within := linprog.NewExpr().
					Add(local, 1).
					AddExpr(b.OperationalNewCapacity(r, p), -1)
				b.lp.LessEq(VarName("Local_Within_New", r, p), within, 0)
			}

			if limit := b.pp("local_capacity_limit_mw", r, p); limit > 0 {
				b.lp.LessEq(VarName("Local_Capacity_Limit", r, p),
					linprog.NewExpr().Add(local, 1), limit)
			}
		}
	}

	for _, r := range b.sys.Sets.LocalCapacityStorage {
		tech := b.sys.Tech(r)
		for _, p := range b.idx.Periods() {
			local := b.varID("Local_New_Capacity", r, p)
			localE := b.varID("Local_New_Storage_Energy", r, p)

			within := linprog.NewExpr().
				Add(localE, 1).
				AddExpr(b.CumulativeNewStorageEnergy(r, p), -1)
			b.lp.LessEq(VarName("Local_Energy_Within_New", r, p), within, 0)

			// duration floors hold inside and outside the area separately
			in := linprog.NewExpr().
				Add(local, tech.MinDurationHours).
				Add(localE, -1)
			b.lp.LessEq(VarName("Local_Min_Duration", r, p), in, 0)

			out := linprog.NewExpr().
				AddExpr(b.OperationalNewCapacity(r, p), tech.MinDurationHours).
				Add(local, -tech.MinDurationHours).
				AddExpr(b.CumulativeNewStorageEnergy(r, p), -1).
				Add(localE, 1)
			b.lp.LessEq(VarName("Nonlocal_Min_Duration", r, p), out, 0)

			if hours := b.p("storage_elcc_hours", r); hours > 0 {
				sus := linprog.NewExpr().
					Add(local, 1).
					Add(localE, -1/hours)
				b.lp.LessEq(VarName("Local_Storage_Sustained", r, p), sus, 0)
			}
		}
	}

	for _, z := range b.localAreas() {
		for _, p := range b.idx.Periods() {
			need := b.pp("local_capacity_deficiency_mw", z, p)
			if need == 0 {
				continue
			}
			credit := linprog.NewExpr()
			for _, r := range b.sys.Sets.LocalCapacity {
				if b.sys.Resources[r].Zone != z {
					continue
				}
				factor, err := b.localCreditFactor(r)
				if err != nil {
					return err
				}
				credit.Add(b.varID("Local_New_Capacity", r, p), factor)
			}
			if b.tog.AllowTxBuild {
				credit.Add(b.varID("New_Tx_Local_Capacity", z, p), 1)
				bound := linprog.NewExpr().Add(b.varID("New_Tx_Local_Capacity", z, p), 1)
				for _, l := range b.sys.Sets.LinesNew {
					if b.sys.Lines[l].ToZone == z {
						bound.AddExpr(b.newTxCapacity(l, p), -b.p("tx_local_capacity_fraction", l))
					}
				}
				b.lp.LessEq(VarName("New_Tx_Local_Capacity_Limit", z, p), bound, 0)
			}
			b.lp.GreaterEq(VarName("Local_Capacity_Deficiency", z, p), credit, need)
		}
	}
	return nil
}

// localCreditFactor maps a resource to its deficiency-closing credit per MW
// of locally sited capacity.
func (b *Builder) localCreditFactor(r string) (float64, error) {
	tech := b.sys.Tech(r)
	switch {
	case tech.Storage:
		return b.p("net_qualifying_capacity_fraction", r), nil
	case tech.Variable:
		return b.p("local_variable_renewable_nqc_fraction", r), nil
	case tech.EEProgram:
		return 1 + b.p("t_and_d_losses_fraction", r), nil
	case tech.Thermal, tech.Hydro:
		return b.p("net_qualifying_capacity_fraction", r), nil
	}
	return 0, fmt.Errorf("resource %q cannot contribute local capacity", r)
}

func (b *Builder) localAreas() []string {
	set := make(map[string]bool)
	for _, r := range b.sys.Sets.LocalCapacity {
		set[b.sys.Resources[r].Zone] = true
	}
	var zones []string
	for z := range set {
		zones = append(zones, z)
	}
	sort.Strings(zones)
	return zones
}
