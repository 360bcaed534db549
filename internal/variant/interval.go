package variant

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Interval is an inclusive 1-based genomic range.
type Interval struct {
	Chrom string `json:"chrom"`
	Start int64  `json:"start"`
	End   int64  `json:"end"`
}

func (iv Interval) String() string {
	return fmt.Sprintf("%s:%d-%d", iv.Chrom, iv.Start, iv.End)
}

// Contains reports whether the locus falls inside the interval.
func (iv Interval) Contains(chrom string, pos int64) bool {
	return NormalizeChrom(iv.Chrom) == NormalizeChrom(chrom) && pos >= iv.Start && pos <= iv.End
}

// ParseInterval parses "chrom:start-end".
func ParseInterval(s string) (Interval, error) {
	chrom, rng, ok := strings.Cut(s, ":")
	if !ok {
		return Interval{}, fmt.Errorf("parse interval %q: missing ':'", s)
	}
	startStr, endStr, ok := strings.Cut(rng, "-")
	if !ok {
		return Interval{}, fmt.Errorf("parse interval %q: missing '-'", s)
	}
	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil {
		return Interval{}, fmt.Errorf("parse interval %q: %w", s, err)
	}
	end, err := strconv.ParseInt(endStr, 10, 64)
	if err != nil {
		return Interval{}, fmt.Errorf("parse interval %q: %w", s, err)
	}
	if end < start {
		return Interval{}, fmt.Errorf("parse interval %q: end before start", s)
	}
	return Interval{Chrom: NormalizeChrom(chrom), Start: start, End: end}, nil
}

// IntervalIndex answers point-in-intervals queries using a sorted-slice
// approach per chromosome. It is never modified after build.
type IntervalIndex struct {
	byChrom map[string]*chromIntervals
}

type chromIntervals struct {
	intervals []Interval
	maxEnd    []int64 // maxEnd[i] = max(End) for intervals[:i+1]
}

// BuildIntervalIndex creates an index over intervals.
func BuildIntervalIndex(intervals []Interval) *IntervalIndex {
	grouped := make(map[string][]Interval)
	for _, iv := range intervals {
		c := NormalizeChrom(iv.Chrom)
		grouped[c] = append(grouped[c], iv)
	}

	idx := &IntervalIndex{byChrom: make(map[string]*chromIntervals, len(grouped))}
	for chrom, ivs := range grouped {
		sort.Slice(ivs, func(i, j int) bool { return ivs[i].Start < ivs[j].Start })

		// Build prefix-max array so a scan from the right can stop early.
		maxEnd := make([]int64, len(ivs))
		for i, iv := range ivs {
			maxEnd[i] = iv.End
			if i > 0 && maxEnd[i-1] > maxEnd[i] {
				maxEnd[i] = maxEnd[i-1]
			}
		}
		idx.byChrom[chrom] = &chromIntervals{intervals: ivs, maxEnd: maxEnd}
	}
	return idx
}

// Len returns the number of indexed intervals.
func (x *IntervalIndex) Len() int {
	n := 0
	for _, c := range x.byChrom {
		n += len(c.intervals)
	}
	return n
}

// Contains reports whether any interval contains the locus.
func (x *IntervalIndex) Contains(chrom string, pos int64) bool {
	c, ok := x.byChrom[NormalizeChrom(chrom)]
	if !ok {
		return false
	}

	// Candidates are intervals with start <= pos: [0, hi).
	hi := sort.Search(len(c.intervals), func(i int) bool {
		return c.intervals[i].Start > pos
	})
	for i := hi - 1; i >= 0; i-- {
		if c.maxEnd[i] < pos {
			return false
		}
		if c.intervals[i].End >= pos {
			return true
		}
	}
	return false
}
