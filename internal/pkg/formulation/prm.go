package formulation

import (
	"math"

	"github.com/ohowland/cgc_expand/internal/pkg/linprog"
)

// buildPRM enforces the planning reserve margin in each period. Firm
// resources count at net qualifying capacity, storage at an energy-limited
// credit, imports at their transmission allocation, and the variable fleet
// through the diminishing-returns surface in elcc.go.
func (b *Builder) buildPRM() error {
	zones := b.prmZones()
	if len(zones) == 0 {
		return nil
	}
	inf := math.Inf(1)

	for _, p := range b.idx.Periods() {
		b.addVar(0, inf, "ELCC_Variable", p)
		for _, r := range b.sys.Sets.PRMStorage {
			b.addVar(0, inf, "Storage_ELCC", r, p)
		}
	}

	for _, p := range b.idx.Periods() {
		peak := 0.0
		need := 0.0
		for _, z := range zones {
			load := b.pp("prm_peak_load_mw", z, p)
			peak += load
			need += load * (1 + b.pp("planning_reserve_margin", z, p))
		}

		for _, r := range b.sys.Sets.PRMStorage {
			nqc := linprog.NewExpr().
				Add(b.varID("Storage_ELCC", r, p), 1).
				AddExpr(b.OperationalNQC(r, p), -1)
			b.lp.LessEq(VarName("Storage_ELCC_Power_Limit", r, p), nqc, 0)

			// sustained-output credit over the peak window
			if hours := b.p("storage_elcc_hours", r); hours > 0 {
				frac := b.p("net_qualifying_capacity_fraction", r)
				energy := linprog.NewExpr().
					Add(b.varID("Storage_ELCC", r, p), 1).
					AddExpr(b.TotalStorageEnergyCapacity(r, p), -frac/hours)
				b.lp.LessEq(VarName("Storage_ELCC_Energy_Limit", r, p), energy, 0)
			}
		}

		surface, err := newELCCSurface(b.prm, p)
		if err != nil {
			return err
		}
		solar := b.variableClassCapacity("elcc_solar", p)
		wind := b.variableClassCapacity("elcc_wind", p)
		for i := 0; i < surface.numFacets(); i++ {
			sc, wc, ic := surface.facet(i)
			facet := linprog.NewExpr().
				Add(b.varID("ELCC_Variable", p), 1).
				AddExpr(solar, -sc).
				AddExpr(wind, -wc)
			b.lp.LessEq(VarName("ELCC_Facet", p, i), facet, ic*peak)
		}

		ra := linprog.NewExpr().Add(b.varID("ELCC_Variable", p), 1)
		for _, r := range b.sys.Sets.PRMFirmCapacity {
			ra.AddExpr(b.OperationalNQC(r, p), 1)
		}
		for _, r := range b.sys.Sets.PRMEE {
			ra.AddExpr(b.OperationalNQC(r, p), 1)
		}
		for _, r := range b.sys.Sets.PRMStorage {
			ra.Add(b.varID("Storage_ELCC", r, p), 1)
		}
		for _, r := range b.sys.Sets.PRMImport {
			res := b.sys.Resources[r]
			if res.ImportOnExistingTx {
				ra.AddConst(b.pp("prm_planned_import_capacity_mw", r, p))
			}
			if res.ImportOnNewTx && b.hasVar("Fully_Deliverable", r, p) {
				ra.Add(b.varID("Fully_Deliverable", r, p),
					b.p("tx_import_capacity_fraction", r))
			}
		}
		b.lp.GreaterEq(VarName("Planning_Reserve_Margin", p), ra, need)
	}
	return nil
}

func (b *Builder) prmZones() []string {
	var zones []string
	for _, z := range b.sys.ZoneNames {
		if b.sys.Zones[z].InPRM {
			zones = append(zones, z)
		}
	}
	return zones
}

// variableClassCapacity sums operational capacity over the variable PRM
// fleet members flagged into one surface class.
func (b *Builder) variableClassCapacity(class string, p int) *linprog.Expr {
	return b.memo("classCap", func() *linprog.Expr {
		e := linprog.NewExpr()
		for _, r := range b.sys.Sets.PRMVariableRenewable {
			if b.prm.Flag(class, r) {
				e.AddExpr(b.OperationalCapacity(r, p), 1)
			}
		}
		return e
	}, class, p)
}
