// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package interval

import (
	"sort"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
)

// parallelSortThreshold is the set size above which Sort sorts each
// chromosome on its own goroutine.
const parallelSortThreshold = 1 << 16

// Set is an ordered sequence of intervals plus opaque header lines that are
// passed through unchanged on I/O.
//
// Sorted (ascending chromosome, start, end) and merged (no two intervals
// overlapping) are properties established only by Sort and Merge; other
// operations preserve at most some of them.
type Set struct {
	Headers   []string
	Intervals []Interval
}

// Len returns the number of intervals.
func (s *Set) Len() int { return len(s.Intervals) }

// Locus implements Locatable.
func (s *Set) Locus(i int) (Chromosome, int, int) {
	iv := &s.Intervals[i]
	return iv.Chr, iv.Start, iv.End
}

// Append adds an interval to the end of the set.  It fails if start < 1,
// end < 1 or start > end.
func (s *Set) Append(iv Interval) error {
	if err := iv.validate(); err != nil {
		return err
	}
	s.Intervals = append(s.Intervals, iv)
	return nil
}

// Add appends all intervals and headers of other.
func (s *Set) Add(other *Set) {
	s.Headers = append(s.Headers, other.Headers...)
	for _, iv := range other.Intervals {
		s.Intervals = append(s.Intervals, iv.Clone())
	}
}

// Clear drops all intervals and headers.
func (s *Set) Clear() {
	s.Headers = nil
	s.Intervals = nil
}

// BaseCount returns the summed length of all intervals.  Overlapping bases
// are counted more than once.
func (s *Set) BaseCount() int64 {
	var n int64
	for i := range s.Intervals {
		n += int64(s.Intervals[i].Length())
	}
	return n
}

// Chromosomes returns the distinct chromosomes in order of first appearance.
func (s *Set) Chromosomes() []Chromosome {
	seen := make(map[string]bool)
	var chrs []Chromosome
	for i := range s.Intervals {
		chr := s.Intervals[i].Chr
		if !seen[chr.Normalized()] {
			seen[chr.Normalized()] = true
			chrs = append(chrs, chr)
		}
	}
	return chrs
}

// RowRange is a half-open range [Start, End) of row indices into a Set.
type RowRange struct {
	Chr   Chromosome
	Start int
	End   int
}

// ChromosomeRanges returns one RowRange per maximal run of consecutive
// intervals on the same chromosome.  On a sorted set this is one range per
// chromosome.
func (s *Set) ChromosomeRanges() []RowRange {
	var ranges []RowRange
	for i := range s.Intervals {
		chr := s.Intervals[i].Chr
		if n := len(ranges); n > 0 && ranges[n-1].Chr.Equal(chr) {
			ranges[n-1].End = i + 1
			continue
		}
		ranges = append(ranges, RowRange{Chr: chr, Start: i, End: i + 1})
	}
	return ranges
}

// IsSorted returns whether the intervals are in ascending (chromosome, start,
// end) order.
func (s *Set) IsSorted() bool {
	for i := 1; i < len(s.Intervals); i++ {
		if s.Intervals[i-1].Compare(s.Intervals[i]) > 0 {
			return false
		}
	}
	return true
}

// IsMerged returns whether no two consecutive intervals overlap.  If
// joinAdjacent is set, end-to-end adjacent intervals also count as
// unmerged.  The result is only meaningful for sorted sets.
func (s *Set) IsMerged(joinAdjacent bool) bool {
	for i := 1; i < len(s.Intervals); i++ {
		prev, cur := &s.Intervals[i-1], &s.Intervals[i]
		if !prev.Chr.Equal(cur.Chr) {
			continue
		}
		if cur.Start <= prev.End || (joinAdjacent && cur.Start == prev.End+1) {
			return false
		}
	}
	return true
}

func sortSameChr(ivs []Interval) {
	sort.SliceStable(ivs, func(i, j int) bool {
		if ivs[i].Start != ivs[j].Start {
			return ivs[i].Start < ivs[j].Start
		}
		return ivs[i].End < ivs[j].End
	})
}

// Sort orders the intervals by chromosome, then start, then end.  The sort
// is stable.  Large sets are bucketed by chromosome and the buckets sorted
// in parallel.
func (s *Set) Sort() {
	if len(s.Intervals) < parallelSortThreshold {
		sort.SliceStable(s.Intervals, func(i, j int) bool {
			return s.Intervals[i].Compare(s.Intervals[j]) < 0
		})
		return
	}
	var (
		chrs    []Chromosome
		buckets = make(map[string][]Interval)
	)
	for _, iv := range s.Intervals {
		key := iv.Chr.Normalized()
		if _, ok := buckets[key]; !ok {
			chrs = append(chrs, iv.Chr)
		}
		buckets[key] = append(buckets[key], iv)
	}
	sort.Slice(chrs, func(i, j int) bool { return chrs[i].Less(chrs[j]) })
	if err := traverse.Each(len(chrs), func(i int) error {
		sortSameChr(buckets[chrs[i].Normalized()])
		return nil
	}); err != nil {
		log.Panicf("interval.Sort: %v", err)
	}
	s.Intervals = s.Intervals[:0]
	for _, chr := range chrs {
		s.Intervals = append(s.Intervals, buckets[chr.Normalized()]...)
	}
}

// Merge sorts the set if needed and then joins overlapping intervals (and
// end-to-end adjacent ones if joinAdjacent is set) in a single sweep.
//
// If keepNames is set, the merged interval carries one annotation: the
// comma-separated first annotation columns of its constituents, optionally
// de-duplicated.  Otherwise annotations are dropped.
func (s *Set) Merge(joinAdjacent, keepNames, namesUnique bool) {
	if len(s.Intervals) == 0 {
		return
	}
	if !s.IsSorted() {
		s.Sort()
	}
	var (
		out   = make([]Interval, 0, len(s.Intervals))
		cur   Interval
		names []string
	)
	addName := func(iv *Interval) {
		if !keepNames || len(iv.Annotations) == 0 {
			return
		}
		name := iv.Annotations[0]
		if namesUnique {
			for _, n := range names {
				if n == name {
					return
				}
			}
		}
		names = append(names, name)
	}
	flush := func() {
		cur.Annotations = nil
		if keepNames && len(names) > 0 {
			cur.Annotations = []string{strings.Join(names, ",")}
		}
		out = append(out, cur)
		names = names[:0]
	}
	for i := range s.Intervals {
		iv := &s.Intervals[i]
		if i > 0 && iv.Chr.Equal(cur.Chr) &&
			(iv.Start <= cur.End || (joinAdjacent && iv.Start == cur.End+1)) {
			if iv.End > cur.End {
				cur.End = iv.End
			}
			addName(iv)
			continue
		}
		if i > 0 {
			flush()
		}
		cur = Interval{Chr: iv.Chr, Start: iv.Start, End: iv.End}
		addName(iv)
	}
	flush()
	s.Intervals = out
}

// RemoveDuplicates sorts the set and drops intervals whose coordinates equal
// those of the preceding interval.
func (s *Set) RemoveDuplicates() {
	s.Sort()
	out := s.Intervals[:0]
	for i, iv := range s.Intervals {
		if i > 0 && iv.Compare(out[len(out)-1]) == 0 {
			continue
		}
		out = append(out, iv)
	}
	s.Intervals = out
}

// Clip trims intervals to [1, length of chromosome].  Intervals on
// chromosomes missing from chrLengths, or entirely past the end, are
// dropped.
func (s *Set) Clip(chrLengths map[string]int) {
	out := s.Intervals[:0]
	for _, iv := range s.Intervals {
		n, ok := chrLengths[iv.Chr.Normalized()]
		if !ok || iv.Start > n {
			continue
		}
		if iv.End > n {
			iv.End = n
		}
		out = append(out, iv)
	}
	s.Intervals = out
}

func (s *Set) removeInvalid() {
	out := s.Intervals[:0]
	for _, iv := range s.Intervals {
		if iv.IsValid() {
			out = append(out, iv)
		}
	}
	s.Intervals = out
}
