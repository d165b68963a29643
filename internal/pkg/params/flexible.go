package params

import (
	"fmt"
	"strconv"
	"strings"
)

// Wildcard and inapplicable-dimension sentinels used by sparse overrides.
const (
	All  = "All"
	None = "None"
)

// Override is one sparse parameter binding scoped by object, period, day and
// an inclusive hour range. Any scope field may carry the literal "All"
// (every value in that dimension) or "None" (dimension inapplicable).
type Override struct {
	Param    string
	Object   string
	Period   string
	Day      string
	HourFrom string
	HourTo   string
	Value    string
}

// Domain is the temporal domain overrides expand against.
type Domain interface {
	Periods() []int
	Days() []int
	Hours() []int
}

// ApplyOverrides binds each override into the store, expanding wildcards
// over the domain. Binding modes, by specificity:
//
//	object only:            period, day and hours all "None"
//	object + period:        period given, day and hours "None"
//	object + hour range:    hours given, day and period given or "All"
//
// Values already bound through tabular load make the override a fatal
// duplicate-definition error.
func ApplyOverrides(s *Store, dom Domain, overrides []Override) error {
	for _, ov := range overrides {
		if err := applyOverride(s, dom, ov); err != nil {
			return err
		}
	}
	return nil
}

func applyOverride(s *Store, dom Domain, ov Override) error {
	value, err := coerceValue(ov.Value)
	if err != nil {
		return fmt.Errorf("params: override of %q: %v", ov.Param, err)
	}

	switch {
	case ov.Period == None && ov.Day == None && ov.HourFrom == None && ov.HourTo == None:
		return s.Set(ov.Param, Key{Object: ov.Object}, value)

	case ov.Period != None && ov.Day == None && ov.HourFrom == None && ov.HourTo == None:
		periods, err := expandPeriods(dom, ov.Period)
		if err != nil {
			return fmt.Errorf("params: override of %q: %v", ov.Param, err)
		}
		for _, p := range periods {
			if err := s.Set(ov.Param, Key{Object: ov.Object, Period: p}, value); err != nil {
				return err
			}
		}
		return nil

	default:
		return applyRangeOverride(s, dom, ov, value)
	}
}

func applyRangeOverride(s *Store, dom Domain, ov Override, value float64) error {
	from, err := hourInDomain(dom, ov.HourFrom)
	if err != nil {
		return fmt.Errorf("params: override of %q: hour_from: %v", ov.Param, err)
	}
	to, err := hourInDomain(dom, ov.HourTo)
	if err != nil {
		return fmt.Errorf("params: override of %q: hour_to: %v", ov.Param, err)
	}

	periods, err := expandPeriods(dom, ov.Period)
	if err != nil {
		return fmt.Errorf("params: override of %q: %v", ov.Param, err)
	}

	var days []int
	if ov.Day == All {
		days = dom.Days()
	} else {
		d, err := strconv.Atoi(ov.Day)
		if err != nil {
			return fmt.Errorf("params: override of %q: day %q is not an integer", ov.Param, ov.Day)
		}
		days = []int{d}
	}

	for _, p := range periods {
		for _, d := range days {
			for h := from; h <= to; h++ {
				if !containsInt(dom.Hours(), h) {
					continue
				}
				key := Key{Object: ov.Object, Period: p, Day: d, Hour: h}
				if err := s.Set(ov.Param, key, value); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func expandPeriods(dom Domain, field string) ([]int, error) {
	if field == All {
		return dom.Periods(), nil
	}
	p, err := strconv.Atoi(field)
	if err != nil {
		return nil, fmt.Errorf("period %q is not an integer", field)
	}
	return []int{p}, nil
}

func hourInDomain(dom Domain, field string) (int, error) {
	h, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("hour bound %q is not an integer", field)
	}
	if !containsInt(dom.Hours(), h) {
		return 0, fmt.Errorf("hour %d outside known hours of day", h)
	}
	return h, nil
}

func containsInt(values []int, v int) bool {
	for _, cand := range values {
		if cand == v {
			return true
		}
	}
	return false
}

// coerceValue tries boolean first, then numeric, mirroring the order input
// sheets encode their cells in.
func coerceValue(raw string) (float64, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "TRUE":
		return 1, nil
	case "FALSE":
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("value %q is neither boolean nor numeric", raw)
	}
	return v, nil
}
