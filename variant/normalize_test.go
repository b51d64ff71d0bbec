// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package variant_test

import (
	"testing"

	"github.com/grailbio/ngscore/interval"
	"github.com/grailbio/ngscore/variant"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		pos              int
		ref, alt         string
		wantPos          int
		wantRef, wantAlt string
	}{
		{17, "A", "AGG", 18, "", "GG"},
		{17, "TAT", "TT", 18, "A", ""},
		{5, "A", "G", 5, "A", "G"},
		{10, "CA", "A", 10, "C", ""},
		{10, "ACGT", "ACTT", 12, "G", "T"},
		{10, "AAAT", "AAT", 11, "A", ""},
		{10, "GAC", "GT", 11, "AC", "T"},
		{3, "", "TT", 3, "", "TT"},
	}
	for _, tt := range tests {
		pos, ref, alt := variant.Normalize(tt.pos, tt.ref, tt.alt)
		expect.EQ(t, pos, tt.wantPos, "%d %s>%s", tt.pos, tt.ref, tt.alt)
		expect.EQ(t, ref, tt.wantRef, "%d %s>%s", tt.pos, tt.ref, tt.alt)
		expect.EQ(t, alt, tt.wantAlt, "%d %s>%s", tt.pos, tt.ref, tt.alt)
	}
}

func TestMinBlock(t *testing.T) {
	tests := []struct {
		seq, want string
	}{
		{"ATATAT", "AT"},
		{"AAAA", "A"},
		{"ATG", "ATG"},
		{"ATGATGA", "ATGATGA"},
		{"CAGCAGCAGCAG", "CAG"},
		{"ACAC" + "ACAC", "AC"},
		{"G", "G"},
		{"", ""},
	}
	for _, tt := range tests {
		expect.EQ(t, variant.MinBlock(tt.seq), tt.want, "seq %q", tt.seq)
	}
}

func TestIndelRegion(t *testing.T) {
	genome := newTestGenome(t)
	tests := []struct {
		name               string
		chr                interval.Chromosome
		start, end         int
		ref, alt           string
		wantStart, wantEnd int
	}{
		{"deletion in repeat", chr1, 6, 7, "AT", "", 4, 9},
		{"insertion in repeat", chr1, 5, 5, "", "AT", 4, 9},
		{"deletion outside repeat", chr1, 10, 10, "G", "", 10, 10},
		{"insertion outside repeat", chr1, 10, 10, "", "C", 10, 11},
		{"insertion no repeat", chr1, 10, 10, "", "A", 10, 10},
		{"snv", chr1, 4, 4, "A", "G", 4, 4},
		{"complex", chr1, 4, 5, "AT", "G", 4, 5},
		{"homopolymer at start", chr2, 2, 2, "A", "", 1, 4},
		{"homopolymer at end", chr3, 4, 4, "T", "", 3, 5},
	}
	for _, tt := range tests {
		start, end, err := variant.IndelRegion(tt.chr, tt.start, tt.end, tt.ref, tt.alt, genome)
		assert.NoError(t, err)
		expect.EQ(t, start, tt.wantStart, tt.name)
		expect.EQ(t, end, tt.wantEnd, tt.name)
	}
	_, _, err := variant.IndelRegion(interval.NewChromosome("chr9"), 1, 1, "A", "", genome)
	expect.NotNil(t, err)
}
