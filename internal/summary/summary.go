// Package summary keeps the running totals of a detection run.
package summary

import (
	"botdetector/internal/types"
	"math"
)

// Summary is the final report of a run
type Summary struct {
	TotalChecked int
	BadUA        int
	NoStatic     int
	TooFrequent  int
	TotalFlagged int
	FlagRate     float64 // percent, NaN when nothing was checked
}

// Accumulator counts checked requests and flags per category
type Accumulator struct {
	checked int
	counts  map[types.FlagCategory]int
}

func NewAccumulator() *Accumulator {
	return &Accumulator{
		counts: make(map[types.FlagCategory]int, len(types.Categories)),
	}
}

// Record counts one matched request and each category it was flagged for
func (a *Accumulator) Record(flags []types.FlagCategory) {
	a.checked++
	for _, category := range flags {
		a.counts[category]++
	}
}

// Count returns the running counter of a category
func (a *Accumulator) Count(category types.FlagCategory) int {
	return a.counts[category]
}

// Checked returns the number of recorded requests
func (a *Accumulator) Checked() int {
	return a.checked
}

// Finalize computes the totals. A request flagged under several categories
// counts once per category in TotalFlagged.
func (a *Accumulator) Finalize() Summary {
	s := Summary{
		TotalChecked: a.checked,
		BadUA:        a.counts[types.FlagBadUserAgent],
		NoStatic:     a.counts[types.FlagNoStaticAssets],
		TooFrequent:  a.counts[types.FlagTooFrequent],
	}
	s.TotalFlagged = s.BadUA + s.NoStatic + s.TooFrequent

	if s.TotalChecked == 0 {
		// 0/0 is left undefined on purpose
		s.FlagRate = math.NaN()
	} else {
		s.FlagRate = float64(s.TotalFlagged) / float64(s.TotalChecked) * 100
	}
	return s
}
