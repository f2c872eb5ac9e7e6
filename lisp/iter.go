// Copyright © 2024 The ELPS authors

package lisp

import (
	"fmt"
	"math"
)

// Range is an arithmetic sequence from Start toward Stop, exclusive, by Step.
type Range struct {
	Start float64
	Stop  float64
	Step  float64
}

// NewRange returns a range value.  A zero step is an error.
func NewRange(start, stop, step float64) (*LVal, error) {
	if step == 0 {
		return nil, fmt.Errorf("range step cannot be zero")
	}
	if math.IsNaN(start) || math.IsNaN(stop) || math.IsNaN(step) {
		return nil, fmt.Errorf("range bounds must be numbers")
	}
	return &LVal{Type: LRange, Native: &Range{Start: start, Stop: stop, Step: step}}, nil
}

// Len returns the number of values in r.
func (r *Range) Len() int {
	n := math.Ceil((r.Stop - r.Start) / r.Step)
	if n <= 0 || math.IsInf(n, 0) {
		return 0
	}
	return int(n)
}

// At returns the i-th value of r.
func (r *Range) At(i int) (float64, bool) {
	if i < 0 || i >= r.Len() {
		return 0, false
	}
	return r.Start + float64(i)*r.Step, true
}

// Values returns every value in r as a list of numbers.
func (r *Range) Values() []*LVal {
	n := r.Len()
	cells := make([]*LVal, n)
	for i := 0; i < n; i++ {
		x, _ := r.At(i)
		cells[i] = Number(x)
	}
	return cells
}

// iterate calls fn with each item of seq.  Lists and ranges yield their
// elements, strings yield one-character strings, and maps yield (key value)
// lists in insertion order.  Iteration stops at the first non-nil value
// returned by fn, which is returned.
func (env *LEnv) iterate(seq *LVal, fn func(item *LVal) *LVal) *LVal {
	switch seq.Type {
	case LList:
		for _, item := range seq.Cells {
			if v := fn(item); v != nil {
				return v
			}
		}
	case LRange:
		r := seq.Range()
		n := r.Len()
		for i := 0; i < n; i++ {
			x, _ := r.At(i)
			if v := fn(Number(x)); v != nil {
				return v
			}
		}
	case LString:
		for _, c := range seq.Str {
			if v := fn(String(string(c))); v != nil {
				return v
			}
		}
	case LMap:
		var ret *LVal
		seq.Map.Each(func(key, val *LVal) bool {
			ret = fn(List(key, val))
			return ret == nil
		})
		return ret
	default:
		return env.ErrorConditionf(CondTypeError, "value is not iterable: %s", GetType(seq))
	}
	return nil
}

// Iterate is the exported form of iterate for native modules.
func (env *LEnv) Iterate(seq *LVal, fn func(item *LVal) *LVal) *LVal {
	return env.iterate(seq, fn)
}

// Sequence returns the elements of a list or range.
func (env *LEnv) Sequence(v *LVal) ([]*LVal, *LVal) {
	return env.sequence(v)
}
