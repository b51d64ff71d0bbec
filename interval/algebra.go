// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package interval

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

func requireMergedSorted(op string, other *Set) error {
	if !other.IsSorted() {
		return errors.E(errors.Precondition, fmt.Sprintf("interval.%s: second operand is not sorted", op))
	}
	if !other.IsMerged(false) {
		return errors.E(errors.Precondition, fmt.Sprintf("interval.%s: second operand is not merged", op))
	}
	return nil
}

// Intersect replaces every interval by its overlaps with other.  An interval
// overlapping k intervals of other is replaced in place by the first clipped
// overlap, and the remaining k-1 clipped copies are appended to the end of
// the set.  Intervals without overlap are dropped.
//
// REQUIRES: other is sorted and merged.
func (s *Set) Intersect(other *Set) error {
	if err := requireMergedSorted("Intersect", other); err != nil {
		return err
	}
	index := NewChromosomalIndex(other, 0)
	n := len(s.Intervals)
	for i := 0; i < n; i++ {
		iv := &s.Intervals[i]
		matches := index.MatchingIndices(iv.Chr, iv.Start, iv.End)
		if len(matches) == 0 {
			iv.Start, iv.End = 0, 0
			continue
		}
		orig := *iv
		for j, m := range matches {
			o := &other.Intervals[m]
			clipped := orig.Clone()
			clipped.Start = max(orig.Start, o.Start)
			clipped.End = min(orig.End, o.End)
			if j == 0 {
				clipped.Annotations = orig.Annotations
				s.Intervals[i] = clipped
			} else {
				s.Intervals = append(s.Intervals, clipped)
			}
		}
	}
	s.removeInvalid()
	return nil
}

// Subtract removes all bases covered by other.  An interval fully contained
// in other is dropped, an overlap in its middle splits it in two (the right
// part is appended to the end of the set) and an overlap at one edge trims
// that edge.
//
// REQUIRES: other is sorted and merged.
func (s *Set) Subtract(other *Set) error {
	if err := requireMergedSorted("Subtract", other); err != nil {
		return err
	}
	index := NewChromosomalIndex(other, 0)
	// Split-off right parts are appended and revisited by this loop.
	for i := 0; i < len(s.Intervals); i++ {
		iv := &s.Intervals[i]
		for _, m := range index.MatchingIndices(iv.Chr, iv.Start, iv.End) {
			o := &other.Intervals[m]
			if o.Start > iv.End || o.End < iv.Start {
				// Right of an earlier split point; the appended part handles it.
				continue
			}
			switch {
			case o.Start <= iv.Start && o.End >= iv.End:
				iv.Start, iv.End = 0, 0
			case o.Start > iv.Start && o.End < iv.End:
				right := iv.Clone()
				right.Start = o.End + 1
				iv.End = o.Start - 1
				s.Intervals = append(s.Intervals, right)
				iv = &s.Intervals[i]
			case o.Start <= iv.Start:
				iv.Start = o.End + 1
			default:
				iv.End = o.Start - 1
			}
			if !iv.IsValid() {
				break
			}
		}
	}
	s.removeInvalid()
	return nil
}

// Overlapping keeps only the intervals that overlap at least one interval of
// other.
//
// REQUIRES: other is sorted and merged.
func (s *Set) Overlapping(other *Set) error {
	if err := requireMergedSorted("Overlapping", other); err != nil {
		return err
	}
	index := NewChromosomalIndex(other, 0)
	out := s.Intervals[:0]
	for _, iv := range s.Intervals {
		if index.MatchingIndex(iv.Chr, iv.Start, iv.End) >= 0 {
			out = append(out, iv)
		}
	}
	s.Intervals = out
	return nil
}

// Extend moves every start n bases left (stopping at 1) and every end n
// bases right.
func (s *Set) Extend(n int) error {
	if n <= 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("interval.Extend: non-positive extension %d", n))
	}
	for i := range s.Intervals {
		iv := &s.Intervals[i]
		iv.Start = max(1, iv.Start-n)
		iv.End += n
	}
	return nil
}

// Shrink moves every start n bases right and every end n bases left,
// dropping intervals that become empty.
func (s *Set) Shrink(n int) error {
	if n <= 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("interval.Shrink: non-positive shrinkage %d", n))
	}
	for i := range s.Intervals {
		iv := &s.Intervals[i]
		iv.Start = max(1, iv.Start+n)
		iv.End -= n
	}
	s.removeInvalid()
	return nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
