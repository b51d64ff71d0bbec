// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package interval

import "sort"

// DefaultBinSize is the number of elements between two breakpoints of a
// ChromosomalIndex.
const DefaultBinSize = 30

// Locatable is a sequence of elements that each occupy a closed, 1-based
// range on one chromosome.  *Set implements it, as do the variant lists.
type Locatable interface {
	Len() int
	Locus(i int) (chr Chromosome, start, end int)
}

type breakpoint struct {
	start int
	idx   int
}

type chrBins struct {
	bins []breakpoint
	// first and last are the first and last element indices on the
	// chromosome.
	first, last int
}

// ChromosomalIndex answers overlap queries against a sorted Locatable.
//
// The index does not own or copy the elements; it stores integer positions
// into the sequence it was built over.  The sequence must be sorted by
// (chromosome, start) and must not be modified while the index is in use.
// After any structural change call Rebuild; querying a stale index gives
// undefined results.
type ChromosomalIndex struct {
	seq       Locatable
	binSize   int
	maxLength int
	chrs      map[string]*chrBins
}

// NewChromosomalIndex builds an index over seq, placing a breakpoint every
// binSize elements of each chromosome.  binSize <= 0 selects DefaultBinSize.
func NewChromosomalIndex(seq Locatable, binSize int) *ChromosomalIndex {
	if binSize <= 0 {
		binSize = DefaultBinSize
	}
	x := &ChromosomalIndex{seq: seq, binSize: binSize}
	x.Rebuild()
	return x
}

// Rebuild recomputes the index from the current contents of the sequence.
func (x *ChromosomalIndex) Rebuild() {
	x.chrs = make(map[string]*chrBins)
	x.maxLength = 0
	var (
		cur   *chrBins
		count int
	)
	n := x.seq.Len()
	for i := 0; i < n; i++ {
		chr, start, end := x.seq.Locus(i)
		if l := end - start + 1; l > x.maxLength {
			x.maxLength = l
		}
		key := chr.Normalized()
		if cur == nil || cur != x.chrs[key] {
			cur = &chrBins{first: i}
			x.chrs[key] = cur
			count = 0
		}
		if count%x.binSize == 0 {
			cur.bins = append(cur.bins, breakpoint{start: start, idx: i})
		}
		cur.last = i
		count++
	}
}

// MaxLength returns the length of the longest indexed element.  Every query
// scans back over all elements starting within this distance, so a single
// very long element slows down all queries.
func (x *ChromosomalIndex) MaxLength() int { return x.maxLength }

// firstCandidate returns the smallest element index that may overlap a query
// starting at start, or -1 if the chromosome is not indexed.
func (x *ChromosomalIndex) firstCandidate(c *chrBins, start int) int {
	b := sort.Search(len(c.bins), func(i int) bool { return c.bins[i].start > start }) - 1
	if b < 0 {
		b = 0
	}
	i := c.bins[b].idx
	minStart := start - x.maxLength
	for i > c.first {
		if _, s, _ := x.seq.Locus(i - 1); s < minStart {
			break
		}
		i--
	}
	return i
}

// MatchingIndices returns the indices of all elements overlapping
// chr:[start, end], in ascending order.  An unknown chromosome yields an
// empty result.
func (x *ChromosomalIndex) MatchingIndices(chr Chromosome, start, end int) []int {
	c := x.chrs[chr.Normalized()]
	if c == nil {
		return nil
	}
	var matches []int
	for i := x.firstCandidate(c, start); i <= c.last; i++ {
		_, s, e := x.seq.Locus(i)
		if s > end {
			break
		}
		if e >= start {
			matches = append(matches, i)
		}
	}
	return matches
}

// MatchingIndex returns the index of the first element overlapping
// chr:[start, end], or -1 if there is none.
func (x *ChromosomalIndex) MatchingIndex(chr Chromosome, start, end int) int {
	c := x.chrs[chr.Normalized()]
	if c == nil {
		return -1
	}
	for i := x.firstCandidate(c, start); i <= c.last; i++ {
		_, s, e := x.seq.Locus(i)
		if s > end {
			break
		}
		if e >= start {
			return i
		}
	}
	return -1
}
