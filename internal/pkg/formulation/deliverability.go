package formulation

import (
	"math"
	"sort"

	"github.com/ohowland/cgc_expand/internal/pkg/linprog"
)

// buildDeliverability splits each qualifying resource's new capacity into
// fully-deliverable and energy-only portions, and sizes zone-level delivery
// transmission to cover fully-deliverable additions beyond the existing
// threshold. Both portions only grow across periods.
func (b *Builder) buildDeliverability() error {
	inf := math.Inf(1)

	if len(b.sys.Sets.TxDeliverability) == 0 {
		return nil
	}

	zones := b.deliverabilityZones()

	for _, r := range b.sys.Sets.TxDeliverability {
		for _, p := range b.idx.Periods() {
			b.addVar(0, inf, "Fully_Deliverable", r, p)
			b.addVar(0, inf, "Energy_Only", r, p)
		}
	}
	for _, z := range zones {
		for _, p := range b.idx.Periods() {
			b.addVar(0, inf, "New_Transmission_Capacity", z, p)
		}
	}

	for _, r := range b.sys.Sets.TxDeliverability {
		for _, p := range b.idx.Periods() {
			split := linprog.NewExpr().
				Add(b.varID("Fully_Deliverable", r, p), 1).
				Add(b.varID("Energy_Only", r, p), 1).
				AddExpr(b.OperationalNewCapacity(r, p), -1)
			b.lp.Equal(VarName("Deliverability_Split", r, p), split, 0)

			if prev, ok := b.idx.PrevPeriod(p); ok {
				fd := linprog.NewExpr().
					Add(b.varID("Fully_Deliverable", r, p), 1).
					Add(b.varID("Fully_Deliverable", r, prev), -1)
				b.lp.GreaterEq(VarName("Fully_Deliverable_Increasing", r, p), fd, 0)

				eo := linprog.NewExpr().
					Add(b.varID("Energy_Only", r, p), 1).
					Add(b.varID("Energy_Only", r, prev), -1)
				b.lp.GreaterEq(VarName("Energy_Only_Increasing", r, p), eo, 0)
			}
		}
	}

	for _, z := range zones {
		for _, p := range b.idx.Periods() {
			newTx := linprog.NewExpr().Add(b.varID("New_Transmission_Capacity", z, p), -1)
			eo := linprog.NewExpr()
			for _, r := range b.sys.Sets.TxDeliverability {
				if b.sys.Resources[r].Zone != z {
					continue
				}
				newTx.Add(b.varID("Fully_Deliverable", r, p), 1)
				eo.Add(b.varID("Energy_Only", r, p), 1)
			}
			b.lp.LessEq(VarName("New_Delivery_Tx_Need", z, p), newTx,
				b.pp("fully_deliverable_new_tx_threshold_mw", z, p))
			b.lp.LessEq(VarName("Energy_Only_Limit", z, p), eo,
				b.pp("energy_only_tx_limit_mw", z, p))
		}
	}

	return nil
}

func (b *Builder) deliverabilityZones() []string {
	set := make(map[string]bool)
	for _, r := range b.sys.Sets.TxDeliverability {
		set[b.sys.Resources[r].Zone] = true
	}
	zones := make([]string, 0, len(set))
	for z := range set {
		zones = append(zones, z)
	}
	sort.Strings(zones)
	return zones
}
