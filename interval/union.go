// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package interval

import (
	"math"
	"sort"
)

// PosType is Union's coordinate type.
type PosType int32

const posTypeMax = math.MaxInt32

// searchPosType returns the index of x in a[], or the position where x would
// be inserted if x isn't in a (this could be len(a)).
func searchPosType(a []PosType, x PosType) int {
	return sort.Search(len(a), func(i int) bool { return a[i] >= x })
}

// expsearchPosType checks a[idx], then a[idx + 1], then a[idx + 3], then
// a[idx + 7], etc., and then uses binary search to finish the job.  It's
// usually a better choice than searchPosType when iterating.
func expsearchPosType(a []PosType, x PosType, idx int) int {
	nextIncr := 1
	startIdx := idx
	endIdx := len(a)
	for idx < endIdx {
		if a[idx] >= x {
			endIdx = idx
			break
		}
		startIdx = idx + 1
		idx += nextIncr
		nextIncr *= 2
	}
	for startIdx < endIdx {
		midIdx := int(uint(startIdx+endIdx) >> 1)
		if a[midIdx] >= x {
			endIdx = midIdx
		} else {
			startIdx = midIdx + 1
		}
	}
	return startIdx
}

// Union is a read-only point-membership structure over the merged bases of a
// Set.  Each chromosome is stored as a sorted sequence of 0-based half-open
// endpoints: the start of merged interval k is element [2k] and its end is
// element [2k+1].  A position p is covered iff
// searchPosType(endpoints, p+1) is odd.
//
// Queries cache the last chromosome and endpoint index, so scanning positions
// in nondecreasing order costs amortized constant time.  A Union is therefore
// not safe for concurrent queries; use Clone to give each goroutine its own.
type Union struct {
	nameMap map[string][]PosType

	lastChrName      string
	lastChrIntervals []PosType
	lastPosPlus1     PosType
	lastIdx          int
	isSequential     bool
}

// NewUnion builds a Union from a copy of s.  s itself is not modified.
func NewUnion(s *Set) *Union {
	merged := &Set{Intervals: make([]Interval, len(s.Intervals))}
	copy(merged.Intervals, s.Intervals)
	merged.Merge(true, false, false)
	u := &Union{nameMap: make(map[string][]PosType)}
	for i := range merged.Intervals {
		iv := &merged.Intervals[i]
		key := iv.Chr.Normalized()
		end := iv.End
		if end >= posTypeMax {
			end = posTypeMax - 1
		}
		u.nameMap[key] = append(u.nameMap[key], PosType(iv.Start-1), PosType(end))
	}
	return u
}

// Clone returns a Union sharing the endpoint data but with its own query
// cache.
func (u *Union) Clone() *Union {
	return &Union{nameMap: u.nameMap}
}

// BaseCount returns the number of distinct covered bases.
func (u *Union) BaseCount() int64 {
	var n int64
	for _, endpoints := range u.nameMap {
		for i := 0; i < len(endpoints); i += 2 {
			n += int64(endpoints[i+1] - endpoints[i])
		}
	}
	return n
}

// Contains returns whether the 1-based position chr:pos is covered.
func (u *Union) Contains(chr Chromosome, pos int) bool {
	posPlus1 := PosType(pos) // 0-based pos-1, plus 1
	name := chr.Normalized()
	if name != u.lastChrName || u.lastChrName == "" {
		u.lastChrName = name
		u.lastChrIntervals = u.nameMap[name]
		if u.lastChrIntervals == nil {
			return false
		}
		u.lastIdx = searchPosType(u.lastChrIntervals, posPlus1)
		u.lastPosPlus1 = posPlus1
		u.isSequential = true
		return u.lastIdx&1 == 1
	}
	if u.lastChrIntervals == nil {
		return false
	}
	if u.isSequential {
		if posPlus1 >= u.lastPosPlus1 {
			u.lastIdx = expsearchPosType(u.lastChrIntervals, posPlus1, u.lastIdx)
			u.lastPosPlus1 = posPlus1
			return u.lastIdx&1 == 1
		}
		u.isSequential = false
	}
	return searchPosType(u.lastChrIntervals, posPlus1)&1 == 1
}

// Intersects returns whether any base of the 1-based closed range
// chr:[start, end] is covered.
func (u *Union) Intersects(chr Chromosome, start, end int) bool {
	endpoints := u.nameMap[chr.Normalized()]
	if endpoints == nil || end < start {
		return false
	}
	idx := searchPosType(endpoints, PosType(start))
	if idx&1 == 1 {
		return true
	}
	// end is 1-based closed, i.e. the 0-based exclusive limit.
	return idx != len(endpoints) && PosType(end) > endpoints[idx]
}
