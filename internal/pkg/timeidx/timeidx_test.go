package timeidx

import (
	"testing"

	"gotest.tools/v3/assert"
)

func testPeriods() []PeriodInfo {
	return []PeriodInfo{
		{Period: 2030, DiscountFactor: 1.0, YearsInPeriod: 5},
		{Period: 2035, DiscountFactor: 0.8, YearsInPeriod: 5},
	}
}

func testRecords() []Timepoint {
	var records []Timepoint
	id := 1
	for _, p := range []int{2030, 2035} {
		for _, d := range []int{1, 2} {
			for h := 1; h <= 24; h++ {
				records = append(records, Timepoint{
					ID:        id,
					Period:    p,
					Month:     d,
					Day:       d,
					HourOfDay: h,
					DayWeight: 182.5,
				})
				id++
			}
		}
	}
	return records
}

func TestCircularLinkage(t *testing.T) {
	idx, err := New(testRecords(), testPeriods())
	assert.NilError(t, err)

	for _, tp := range idx.Timepoints() {
		first := idx.FirstOfDay(tp)
		last := idx.LastOfDay(tp)
		if tp == first {
			assert.Equal(t, idx.Prev(tp), last)
		} else {
			assert.Equal(t, idx.Prev(tp), tp-1)
		}
		if tp == last {
			assert.Equal(t, idx.Next(tp), first)
		} else {
			assert.Equal(t, idx.Next(tp), tp+1)
		}
	}
}

func TestWrapUsesOwnDay(t *testing.T) {
	// second day of the second period: timepoints 73..96
	idx, err := New(testRecords(), testPeriods())
	assert.NilError(t, err)

	assert.Equal(t, idx.Prev(73), 96)
	assert.Equal(t, idx.Next(96), 73)
	assert.Equal(t, idx.Period(73), 2035)
	assert.Equal(t, idx.Day(73), 2)
}

func TestLookback(t *testing.T) {
	idx, err := New(testRecords(), testPeriods())
	assert.NilError(t, err)

	// hour 3 of day 1 period 2030 is timepoint 3
	assert.Equal(t, idx.Lookback(3, 2), 1)
	assert.Equal(t, idx.Lookback(3, 3), 24)
	assert.Equal(t, idx.Lookback(1, 1), 24)
	assert.Equal(t, idx.Lookahead(24, 1), 1)
	assert.Equal(t, idx.Lookahead(22, 4), 2)
}

func TestPeriodsAndVintages(t *testing.T) {
	idx, err := New(testRecords(), testPeriods())
	assert.NilError(t, err)

	assert.Equal(t, idx.FirstPeriod(), 2030)
	assert.Equal(t, idx.LastPeriod(), 2035)

	prev, ok := idx.PrevPeriod(2035)
	assert.Assert(t, ok)
	assert.Equal(t, prev, 2030)

	_, ok = idx.PrevPeriod(2030)
	assert.Assert(t, !ok)

	pairs := idx.PeriodVintages()
	assert.Equal(t, len(pairs), 3)
	for _, pv := range pairs {
		assert.Assert(t, pv[1] <= pv[0])
	}
}

func TestMissingDayRejected(t *testing.T) {
	records := testRecords()
	// drop all of period 2035 day 2
	var trimmed []Timepoint
	for _, r := range records {
		if r.Period == 2035 && r.Day == 2 {
			continue
		}
		trimmed = append(trimmed, r)
	}
	_, err := New(trimmed, testPeriods())
	assert.ErrorContains(t, err, "has no timepoints")
}

func TestDuplicateTimepointRejected(t *testing.T) {
	records := testRecords()
	records = append(records, records[0])
	_, err := New(records, testPeriods())
	assert.ErrorContains(t, err, "duplicate timepoint")
}
