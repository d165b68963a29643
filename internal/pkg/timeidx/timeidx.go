package timeidx

import (
	"fmt"
	"sort"
)

// Timepoint is one operational hour within a representative day within an
// investment period.
type Timepoint struct {
	ID        int     `json:"ID"`
	Period    int     `json:"Period"`
	Month     int     `json:"Month"`
	Day       int     `json:"Day"`
	HourOfDay int     `json:"HourOfDay"`
	DayWeight float64 `json:"DayWeight"`
}

// PeriodInfo carries the per-period attributes used to annualize and
// discount hourly costs.
type PeriodInfo struct {
	Period         int     `json:"Period"`
	DiscountFactor float64 `json:"DiscountFactor"`
	YearsInPeriod  float64 `json:"YearsInPeriod"`
}

type periodDay struct {
	period int
	day    int
}

// Index is the temporal scaffold of a problem instance: ordered periods,
// days and hours, period/vintage pairs, and the circular previous/next
// linkage of timepoints within each (period, day).
type Index struct {
	timepoints map[int]Timepoint
	ordered    []int

	periods []int
	days    []int
	hours   []int

	periodInfo map[int]PeriodInfo

	firstOfDay map[periodDay]int
	lastOfDay  map[periodDay]int
	dayMembers map[periodDay][]int

	prev map[int]int
	next map[int]int
}

// New derives the full temporal index from raw timepoint and period records.
// Each (period, day) pair found in the period and day projections must have
// at least one timepoint, and the previous/next linkage wraps within each
// day's own first and last hour.
func New(records []Timepoint, periods []PeriodInfo) (*Index, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("timeidx: no timepoint records")
	}

	idx := &Index{
		timepoints: make(map[int]Timepoint, len(records)),
		periodInfo: make(map[int]PeriodInfo, len(periods)),
		firstOfDay: make(map[periodDay]int),
		lastOfDay:  make(map[periodDay]int),
		dayMembers: make(map[periodDay][]int),
		prev:       make(map[int]int, len(records)),
		next:       make(map[int]int, len(records)),
	}

	for _, p := range periods {
		if _, ok := idx.periodInfo[p.Period]; ok {
			return nil, fmt.Errorf("timeidx: duplicate period %d", p.Period)
		}
		idx.periodInfo[p.Period] = p
	}

	periodSet := make(map[int]bool)
	daySet := make(map[int]bool)
	hourSet := make(map[int]bool)

	for _, tp := range records {
		if _, ok := idx.timepoints[tp.ID]; ok {
			return nil, fmt.Errorf("timeidx: duplicate timepoint %d", tp.ID)
		}
		if _, ok := idx.periodInfo[tp.Period]; !ok {
			return nil, fmt.Errorf("timeidx: timepoint %d references unknown period %d", tp.ID, tp.Period)
		}
		idx.timepoints[tp.ID] = tp
		idx.ordered = append(idx.ordered, tp.ID)
		periodSet[tp.Period] = true
		daySet[tp.Day] = true
		hourSet[tp.HourOfDay] = true

		key := periodDay{tp.Period, tp.Day}
		idx.dayMembers[key] = append(idx.dayMembers[key], tp.ID)
	}
	sort.Ints(idx.ordered)

	idx.periods = sortedKeys(periodSet)
	idx.days = sortedKeys(daySet)
	idx.hours = sortedKeys(hourSet)

	// every period must see every representative day
	for _, p := range idx.periods {
		for _, d := range idx.days {
			members, ok := idx.dayMembers[periodDay{p, d}]
			if !ok || len(members) == 0 {
				return nil, fmt.Errorf("timeidx: period %d day %d has no timepoints", p, d)
			}
		}
	}

	for key, members := range idx.dayMembers {
		sort.Ints(members)
		idx.firstOfDay[key] = members[0]
		idx.lastOfDay[key] = members[len(members)-1]
		for i, id := range members {
			if i == 0 {
				idx.prev[id] = members[len(members)-1]
			} else {
				idx.prev[id] = members[i-1]
			}
			if i == len(members)-1 {
				idx.next[id] = members[0]
			} else {
				idx.next[id] = members[i+1]
			}
		}
	}

	return idx, nil
}

func sortedKeys(set map[int]bool) []int {
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Timepoints returns all timepoint IDs in ascending order.
func (idx *Index) Timepoints() []int { return idx.ordered }

// Periods returns the ordered investment periods.
func (idx *Index) Periods() []int { return idx.periods }

// Vintages are the same domain as periods, read as build years.
func (idx *Index) Vintages() []int { return idx.periods }

// Days returns the ordered representative days.
func (idx *Index) Days() []int { return idx.days }

// Hours returns the ordered hours of day.
func (idx *Index) Hours() []int { return idx.hours }

// FirstPeriod is the earliest investment period.
func (idx *Index) FirstPeriod() int { return idx.periods[0] }

// LastPeriod is the final investment period.
func (idx *Index) LastPeriod() int { return idx.periods[len(idx.periods)-1] }

// PrevPeriod returns the period immediately before p, if one exists.
func (idx *Index) PrevPeriod(p int) (int, bool) {
	found := 0
	ok := false
	for _, cand := range idx.periods {
		if cand < p {
			found = cand
			ok = true
		}
	}
	return found, ok
}

// PeriodVintages returns every (period, vintage) pair with vintage <= period.
func (idx *Index) PeriodVintages() [][2]int {
	var pairs [][2]int
	for _, p := range idx.periods {
		for _, v := range idx.periods {
			if v <= p {
				pairs = append(pairs, [2]int{p, v})
			}
		}
	}
	return pairs
}

// Record returns the raw attributes of a timepoint.
func (idx *Index) Record(t int) Timepoint { return idx.timepoints[t] }

// Period returns the period a timepoint belongs to.
func (idx *Index) Period(t int) int { return idx.timepoints[t].Period }

// Day returns the representative day a timepoint belongs to.
func (idx *Index) Day(t int) int { return idx.timepoints[t].Day }

// HourOfDay returns a timepoint's hour within its day.
func (idx *Index) HourOfDay(t int) int { return idx.timepoints[t].HourOfDay }

// Month returns the month a timepoint belongs to.
func (idx *Index) Month(t int) int { return idx.timepoints[t].Month }

// DayWeight is the number of calendar days the timepoint's representative
// day stands in for.
func (idx *Index) DayWeight(t int) float64 { return idx.timepoints[t].DayWeight }

// DiscountFactor returns the period discount factor.
func (idx *Index) DiscountFactor(p int) float64 { return idx.periodInfo[p].DiscountFactor }

// YearsInPeriod returns the number of years a period spans.
func (idx *Index) YearsInPeriod(p int) float64 { return idx.periodInfo[p].YearsInPeriod }

// Prev returns the previous timepoint, wrapping from a day's first hour to
// its last.
func (idx *Index) Prev(t int) int { return idx.prev[t] }

// Next returns the next timepoint, wrapping from a day's last hour to its
// first.
func (idx *Index) Next(t int) int { return idx.next[t] }

// FirstOfDay returns the first timepoint of t's (period, day).
func (idx *Index) FirstOfDay(t int) int {
	tp := idx.timepoints[t]
	return idx.firstOfDay[periodDay{tp.Period, tp.Day}]
}

// LastOfDay returns the last timepoint of t's (period, day).
func (idx *Index) LastOfDay(t int) int {
	tp := idx.timepoints[t]
	return idx.lastOfDay[periodDay{tp.Period, tp.Day}]
}

// DayTimepoints returns the ordered timepoints of a (period, day).
func (idx *Index) DayTimepoints(period, day int) []int {
	return idx.dayMembers[periodDay{period, day}]
}

// TimepointsPerDay returns the hour count of t's own day. Days are not
// required to share a common hour count.
func (idx *Index) TimepointsPerDay(t int) int {
	tp := idx.timepoints[t]
	return len(idx.dayMembers[periodDay{tp.Period, tp.Day}])
}

// Lookback returns the timepoint `steps` hours before t, wrapped within t's
// day. The same arithmetic serves commitment start/stop tracking, hydro ramp
// durations, and transmission ramp durations.
func (idx *Index) Lookback(t, steps int) int {
	tp := idx.timepoints[t]
	members := idx.dayMembers[periodDay{tp.Period, tp.Day}]
	n := len(members)
	pos := sort.SearchInts(members, t)
	return members[((pos-steps)%n+n)%n]
}

// Lookahead returns the timepoint `steps` hours after t, wrapped within t's
// day.
func (idx *Index) Lookahead(t, steps int) int {
	tp := idx.timepoints[t]
	members := idx.dayMembers[periodDay{tp.Period, tp.Day}]
	n := len(members)
	pos := sort.SearchInts(members, t)
	return members[((pos+steps)%n+n)%n]
}
