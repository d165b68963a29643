package results

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/ohowland/cgc_expand/internal/pkg/formulation"
	"github.com/ohowland/cgc_expand/internal/pkg/linprog"
	"github.com/ohowland/cgc_expand/internal/pkg/solver"
	"github.com/ohowland/cgc_expand/internal/pkg/timeidx"
)

func testStore(t *testing.T, dual []float64) *Store {
	t.Helper()

	lp := linprog.NewProblem()
	lp.NewVar(formulation.VarName("Build_Capacity", "SOLAR1", 2030), 0, 100)
	lp.NewVar(formulation.VarName("Build_Capacity", "SOLAR1", 2035), 0, 100)
	p1 := lp.NewVar(formulation.VarName("Provide_Power", "SOLAR1", 1), 0, 100)

	bal := linprog.NewExpr().Add(p1, 1)
	lp.Equal(formulation.VarName("Zone_Power_Balance", "Z1", 1), bal, 40)

	idx, err := timeidx.New(
		[]timeidx.Timepoint{{ID: 1, Period: 2030, Day: 1, HourOfDay: 0, DayWeight: 8760}},
		[]timeidx.PeriodInfo{{Period: 2030, DiscountFactor: 1, YearsInPeriod: 5}})
	assert.NilError(t, err)

	sol := &solver.Solution{
		Objective: 123.5,
		Primal:    []float64{30, 0, 40},
		Dual:      dual,
	}
	return New(&formulation.Instance{LP: lp, Idx: idx}, sol)
}

func TestValueLookup(t *testing.T) {
	s := testStore(t, nil)

	v, ok := s.Value("Build_Capacity", "SOLAR1", 2030)
	assert.Assert(t, ok)
	assert.Equal(t, v, 30.0)

	_, ok = s.Value("Build_Capacity", "WIND1", 2030)
	assert.Assert(t, !ok)
}

func TestSumAcrossVintages(t *testing.T) {
	s := testStore(t, nil)
	total := s.Sum("Build_Capacity", []interface{}{"SOLAR1"}, []int{2030, 2035})
	assert.Equal(t, total, 30.0)
}

func TestDualRequiresLP(t *testing.T) {
	s := testStore(t, nil)
	_, ok := s.Dual("Zone_Power_Balance", "Z1", 1)
	assert.Assert(t, !ok)

	s = testStore(t, []float64{25.0})
	d, ok := s.Dual("Zone_Power_Balance", "Z1", 1)
	assert.Assert(t, ok)
	assert.Equal(t, d, 25.0)

	prices := s.MarginalEnergyPrices("Z1")
	assert.Equal(t, prices[1], 25.0)
}

func TestReportSkipsZeros(t *testing.T) {
	s := testStore(t, nil)
	report := s.Report()

	assert.Equal(t, report["Objective"], 123.5)
	assert.Equal(t, report[formulation.VarName("Provide_Power", "SOLAR1", 1)], 40.0)
	_, present := report[formulation.VarName("Build_Capacity", "SOLAR1", 2035)]
	assert.Assert(t, !present)
}
