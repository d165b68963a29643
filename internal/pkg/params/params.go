// Package params holds the numeric parameter scaffold a problem instance is
// built on. Parameters are flat relational values keyed by (object, period,
// day, hour) tuples; unused key dimensions are left at their zero value.
package params

import (
	"fmt"
)

// Key addresses one parameter value. Object names a resource, technology,
// zone, transmission line, fuel, or policy entity. Dimensions that do not
// apply stay zero.
type Key struct {
	Object string
	Period int
	Day    int
	Hour   int
}

// Store maps parameter names to keyed values. Values are bound once at load
// time; binding the same (param, key) twice is an error, never a silent
// overwrite.
type Store struct {
	values   map[string]map[Key]float64
	defaults map[string]float64
}

func NewStore() *Store {
	return &Store{
		values:   make(map[string]map[Key]float64),
		defaults: make(map[string]float64),
	}
}

// SetDefault registers a fallback value returned when no keyed value exists.
func (s *Store) SetDefault(param string, value float64) {
	s.defaults[param] = value
}

// Set binds one value. Duplicate definition is fatal.
func (s *Store) Set(param string, key Key, value float64) error {
	keyed, ok := s.values[param]
	if !ok {
		keyed = make(map[Key]float64)
		s.values[param] = keyed
	}
	if _, dup := keyed[key]; dup {
		return fmt.Errorf("params: duplicate definition of %q at %+v", param, key)
	}
	keyed[key] = value
	return nil
}

// Get returns the value bound at key, falling back to the parameter default.
func (s *Store) Get(param string, key Key) float64 {
	if keyed, ok := s.values[param]; ok {
		if v, ok := keyed[key]; ok {
			return v
		}
	}
	return s.defaults[param]
}

// Has reports whether a value (not a default) is bound at key.
func (s *Store) Has(param string, key Key) bool {
	keyed, ok := s.values[param]
	if !ok {
		return false
	}
	_, ok = keyed[key]
	return ok
}

// Object reads a value keyed by object only.
func (s *Store) Object(param, object string) float64 {
	return s.Get(param, Key{Object: object})
}

// ObjectPeriod reads a value keyed by object and period.
func (s *Store) ObjectPeriod(param, object string, period int) float64 {
	return s.Get(param, Key{Object: object, Period: period})
}

// ObjectTimepoint reads a value keyed by object, period, day and hour.
func (s *Store) ObjectTimepoint(param, object string, period, day, hour int) float64 {
	return s.Get(param, Key{Object: object, Period: period, Day: day, Hour: hour})
}

// Flag reads an object-keyed value as a boolean.
func (s *Store) Flag(param, object string) bool {
	return s.Object(param, object) != 0
}
