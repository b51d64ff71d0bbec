// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package interval

import (
	"math/rand"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

// containedInOne reports whether a single interval of s contains iv.
func containedInOne(s *Set, iv Interval) bool {
	for _, o := range s.Intervals {
		if o.Chr.Equal(iv.Chr) && o.Start <= iv.Start && iv.End <= o.End {
			return true
		}
	}
	return false
}

// baseCoverage returns the set of covered positions per chromosome.
func baseCoverage(s *Set) map[string]map[int]bool {
	cov := make(map[string]map[int]bool)
	for _, iv := range s.Intervals {
		m := cov[iv.Chr.Normalized()]
		if m == nil {
			m = make(map[int]bool)
			cov[iv.Chr.Normalized()] = m
		}
		for p := iv.Start; p <= iv.End; p++ {
			m[p] = true
		}
	}
	return cov
}

func TestIntersect(t *testing.T) {
	s := mustSet("chr1:1-100", "chr1:150-160", "chr2:5-10")
	s.Intervals[0].Annotations = []string{"gene"}
	other := mustSet("chr1:10-20", "chr1:50-60", "chr2:8-30")
	assert.NoError(t, s.Intersect(other))
	assert.EQ(t, regionStrings(s), []string{"chr1:10-20", "chr2:8-10", "chr1:50-60"})
	expect.EQ(t, s.Intervals[0].Annotations, []string{"gene"})
	expect.EQ(t, s.Intervals[2].Annotations, []string{"gene"})
}

func TestSubtract(t *testing.T) {
	s := mustSet("chr1:1-100", "chr1:200-210", "chr1:300-310", "chr1:400-410", "chr2:1-10")
	other := mustSet("chr1:10-20", "chr1:50-60", "chr1:190-220", "chr1:305-320", "chr1:390-402")
	assert.NoError(t, s.Subtract(other))
	s.Sort()
	assert.EQ(t, regionStrings(s), []string{
		"chr1:1-9", "chr1:21-49", "chr1:61-100", "chr1:300-304", "chr1:403-410", "chr2:1-10"})
}

func TestOverlapping(t *testing.T) {
	s := mustSet("chr1:1-5", "chr1:6-9", "chr1:10-12", "chr3:1-100")
	other := mustSet("chr1:5-6", "chr2:1-100")
	assert.NoError(t, s.Overlapping(other))
	assert.EQ(t, regionStrings(s), []string{"chr1:1-5", "chr1:6-9"})
}

func TestAlgebraPreconditions(t *testing.T) {
	s := mustSet("chr1:1-5")
	unsorted := mustSet("chr2:1-5", "chr1:1-5")
	unmerged := mustSet("chr1:1-5", "chr1:3-8")
	for _, other := range []*Set{unsorted, unmerged} {
		err := s.Intersect(other)
		expect.True(t, errors.Is(errors.Precondition, err), "err: %v", err)
		err = s.Subtract(other)
		expect.True(t, errors.Is(errors.Precondition, err), "err: %v", err)
		err = s.Overlapping(other)
		expect.True(t, errors.Is(errors.Precondition, err), "err: %v", err)
	}
	assert.EQ(t, regionStrings(s), []string{"chr1:1-5"})
}

func TestAlgebraRandom(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	chrs := []string{"chr1", "chr2"}
	for iter := 0; iter < 50; iter++ {
		a := randomSet(r, 60, chrs, 2000, 60)
		b := randomSet(r, 40, chrs, 2000, 60)
		b.Merge(false, false, false)
		covA, covB := baseCoverage(a), baseCoverage(b)

		inter := &Set{}
		inter.Add(a)
		assert.NoError(t, inter.Intersect(b))
		for _, iv := range inter.Intervals {
			for p := iv.Start; p <= iv.End; p++ {
				assert.True(t, covA[iv.Chr.Normalized()][p] && covB[iv.Chr.Normalized()][p])
			}
			expect.True(t, containedInOne(a, iv), "%v not inside one interval of a", iv)
			expect.True(t, containedInOne(b, iv), "%v not inside one interval of b", iv)
		}
		over := &Set{}
		over.Add(a)
		assert.NoError(t, over.Overlapping(b))
		expect.True(t, inter.BaseCount() <= over.BaseCount(), "intersect %d > overlapping %d",
			inter.BaseCount(), over.BaseCount())
		sub := &Set{}
		sub.Add(a)
		assert.NoError(t, sub.Subtract(b))
		for _, iv := range sub.Intervals {
			for p := iv.Start; p <= iv.End; p++ {
				assert.False(t, covB[iv.Chr.Normalized()][p])
			}
		}
		// Every base of a is in exactly one of inter and sub.
		covI, covS := baseCoverage(inter), baseCoverage(sub)
		for chr, m := range covA {
			for p := range m {
				assert.True(t, covI[chr][p] != covS[chr][p], "%s:%d", chr, p)
			}
		}
		// Intervals of the subtraction remain inside their origin, and the
		// base count never grows.
		assert.True(t, sub.BaseCount() <= a.BaseCount())
		assert.True(t, inter.BaseCount() <= a.BaseCount())
	}
}

func TestExtendShrink(t *testing.T) {
	s := mustSet("chr1:3-10", "chr1:100-104")
	assert.NoError(t, s.Extend(5))
	assert.EQ(t, regionStrings(s), []string{"chr1:1-15", "chr1:95-109"})
	assert.NoError(t, s.Shrink(7))
	assert.EQ(t, regionStrings(s), []string{"chr1:8-8", "chr1:102-102"})
	assert.NoError(t, s.Shrink(1))
	expect.EQ(t, s.Len(), 0)

	expect.True(t, errors.Is(errors.Invalid, s.Extend(0)))
	expect.True(t, errors.Is(errors.Invalid, s.Shrink(-1)))
}

func TestChunk(t *testing.T) {
	s := mustSet("chr1:1-10", "chr1:101-125", "chr2:1-3")
	s.Intervals[1].Annotations = []string{"x"}
	assert.NoError(t, s.Chunk(10))
	assert.EQ(t, regionStrings(s), []string{
		"chr1:1-10", "chr1:101-109", "chr1:110-117", "chr1:118-125", "chr2:1-3"})
	expect.EQ(t, s.Intervals[2].Annotations, []string{"x"})
	expect.EQ(t, s.Intervals[3].Annotations, []string{"x"})

	s = mustSet("chr1:1-100")
	assert.NoError(t, s.Chunk(30))
	// 100/3 deviates less from 30 than 100/4.
	assert.EQ(t, regionStrings(s), []string{"chr1:1-34", "chr1:35-67", "chr1:68-100"})
	expect.EQ(t, s.BaseCount(), int64(100))

	expect.True(t, errors.Is(errors.Invalid, s.Chunk(0)))
}
