package params

import (
	"testing"

	"gotest.tools/v3/assert"
)

type testDomain struct{}

func (testDomain) Periods() []int { return []int{2030, 2035} }
func (testDomain) Days() []int    { return []int{1, 2} }
func (testDomain) Hours() []int {
	hours := make([]int, 24)
	for i := range hours {
		hours[i] = i + 1
	}
	return hours
}

func TestDuplicateBindRejected(t *testing.T) {
	s := NewStore()
	key := Key{Object: "CCGT_A", Period: 2030}
	assert.NilError(t, s.Set("capital_cost_per_kw_yr", key, 120))
	err := s.Set("capital_cost_per_kw_yr", key, 130)
	assert.ErrorContains(t, err, "duplicate definition")
}

func TestDefaultFallback(t *testing.T) {
	s := NewStore()
	s.SetDefault("maintenance_derate", 1.0)
	assert.Equal(t, s.Object("maintenance_derate", "CCGT_A"), 1.0)

	assert.NilError(t, s.Set("maintenance_derate", Key{Object: "CCGT_A"}, 0.95))
	assert.Equal(t, s.Object("maintenance_derate", "CCGT_A"), 0.95)
}

func TestObjectOnlyOverride(t *testing.T) {
	s := NewStore()
	ov := Override{
		Param: "unit_size_mw", Object: "CCGT_A",
		Period: None, Day: None, HourFrom: None, HourTo: None,
		Value: "500",
	}
	assert.NilError(t, ApplyOverrides(s, testDomain{}, []Override{ov}))
	assert.Equal(t, s.Object("unit_size_mw", "CCGT_A"), 500.0)
}

func TestObjectPeriodOverrideExpandsAll(t *testing.T) {
	s := NewStore()
	ov := Override{
		Param: "planned_installed_capacity_mw", Object: "CCGT_A",
		Period: All, Day: None, HourFrom: None, HourTo: None,
		Value: "1000",
	}
	assert.NilError(t, ApplyOverrides(s, testDomain{}, []Override{ov}))
	assert.Equal(t, s.ObjectPeriod("planned_installed_capacity_mw", "CCGT_A", 2030), 1000.0)
	assert.Equal(t, s.ObjectPeriod("planned_installed_capacity_mw", "CCGT_A", 2035), 1000.0)
}

func TestHourRangeOverride(t *testing.T) {
	s := NewStore()
	ov := Override{
		Param: "shape", Object: "Solar_A",
		Period: "2030", Day: "1", HourFrom: "10", HourTo: "14",
		Value: "0.8",
	}
	assert.NilError(t, ApplyOverrides(s, testDomain{}, []Override{ov}))
	assert.Equal(t, s.ObjectTimepoint("shape", "Solar_A", 2030, 1, 12), 0.8)
	assert.Equal(t, s.ObjectTimepoint("shape", "Solar_A", 2030, 1, 9), 0.0)
	assert.Equal(t, s.ObjectTimepoint("shape", "Solar_A", 2030, 2, 12), 0.0)
}

func TestHourRangeOutsideDomainRejected(t *testing.T) {
	s := NewStore()
	ov := Override{
		Param: "shape", Object: "Solar_A",
		Period: "2030", Day: "1", HourFrom: "10", HourTo: "25",
		Value: "0.8",
	}
	err := ApplyOverrides(s, testDomain{}, []Override{ov})
	assert.ErrorContains(t, err, "outside known hours")
}

func TestOverrideAfterTabularLoadRejected(t *testing.T) {
	s := NewStore()
	assert.NilError(t, s.Set("unit_size_mw", Key{Object: "CCGT_A"}, 500))
	ov := Override{
		Param: "unit_size_mw", Object: "CCGT_A",
		Period: None, Day: None, HourFrom: None, HourTo: None,
		Value: "400",
	}
	err := ApplyOverrides(s, testDomain{}, []Override{ov})
	assert.ErrorContains(t, err, "duplicate definition")
}

func TestBooleanCoercion(t *testing.T) {
	s := NewStore()
	ov := Override{
		Param: "can_build_new", Object: "Solar_A",
		Period: None, Day: None, HourFrom: None, HourTo: None,
		Value: "TRUE",
	}
	assert.NilError(t, ApplyOverrides(s, testDomain{}, []Override{ov}))
	assert.Assert(t, s.Flag("can_build_new", "Solar_A"))
}

func TestMalformedValueRejected(t *testing.T) {
	s := NewStore()
	ov := Override{
		Param: "can_build_new", Object: "Solar_A",
		Period: None, Day: None, HourFrom: None, HourTo: None,
		Value: "maybe",
	}
	err := ApplyOverrides(s, testDomain{}, []Override{ov})
	assert.ErrorContains(t, err, "neither boolean nor numeric")
}
