// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package variant

import (
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/ngscore/interval"
)

// Normalize reduces (ref, alt) at pos to a minimal representation.  It
// first drops one shared leading base (the VCF padding base), then all
// shared trailing bases, then any remaining shared leading bases, moving pos
// past every leading base dropped.  Either allele may become empty.
//
//   Normalize(17, "A", "AGG")  == 18, "", "GG"
//   Normalize(17, "TAT", "TT") == 18, "A", ""
func Normalize(pos int, ref, alt string) (int, string, string) {
	if len(ref) > 0 && len(alt) > 0 && !(len(ref) == 1 && len(alt) == 1) && ref[0] == alt[0] {
		ref, alt = ref[1:], alt[1:]
		pos++
	}
	for len(ref) > 0 && len(alt) > 0 && ref[len(ref)-1] == alt[len(alt)-1] {
		ref, alt = ref[:len(ref)-1], alt[:len(alt)-1]
	}
	for len(ref) > 0 && len(alt) > 0 && ref[0] == alt[0] {
		ref, alt = ref[1:], alt[1:]
		pos++
	}
	return pos, ref, alt
}

// MinBlock returns the shortest unit whose repetition forms seq, or seq
// itself if it is not a perfect repetition.
func MinBlock(seq string) string {
	n := len(seq)
	for size := 1; size <= n/2; size++ {
		if n%size != 0 {
			continue
		}
		if strings.Repeat(seq[:size], n/size) == seq {
			return seq[:size]
		}
	}
	return seq
}

func refMatches(genome Genome, chr interval.Chromosome, pos int, ref string) bool {
	if ref == "" {
		return true
	}
	seq, err := genome.Seq(chr, pos, len(ref))
	return err == nil && seq == strings.ToUpper(ref)
}

// seqEquals reports whether the genome holds want at chr:pos.  Ranges
// outside the chromosome compare unequal.
func seqEquals(genome Genome, chr interval.Chromosome, chrLen, pos int, want string) (bool, error) {
	if pos < 1 || pos+len(want)-1 > chrLen {
		return false, nil
	}
	seq, err := genome.Seq(chr, pos, len(want))
	if err != nil {
		return false, err
	}
	return seq == want, nil
}

// IndelRegion returns the tandem-repeat region that contains an indel given
// in the Placeholder convention.  The region is grown outward one repeat
// unit (MinBlock of the inserted or deleted sequence) at a time while the
// genome confirms another copy.  For SNVs, complex substitutions and indels
// outside any repeat it returns (start, end) unchanged, so callers must
// compare to detect "no repeat".
func IndelRegion(chr interval.Chromosome, start, end int, ref, alt string, genome Genome) (int, int, error) {
	var (
		seq    string
		lo, hi int
	)
	switch {
	case ref == "" && alt != "":
		// Insertion after start: the region is initially empty.
		seq, lo, hi = alt, start+1, start
	case ref != "" && alt == "":
		seq, lo, hi = ref, start, end
	default:
		return start, end, nil
	}
	chrLen, err := genome.Len(chr)
	if err != nil {
		return start, end, err
	}
	block := MinBlock(strings.ToUpper(seq))
	bl := len(block)
	for {
		ok, err := seqEquals(genome, chr, chrLen, lo-bl, block)
		if err != nil {
			return start, end, err
		}
		if !ok {
			break
		}
		lo -= bl
	}
	for {
		ok, err := seqEquals(genome, chr, chrLen, hi+1, block)
		if err != nil {
			return start, end, err
		}
		if !ok {
			break
		}
		hi += bl
	}
	if ref == "" {
		if lo == start+1 && hi == start {
			return start, end, nil
		}
		return min(start, lo), max(end, hi), nil
	}
	return lo, hi, nil
}

// shiftIndel moves an indel of seq within its repeat.  pos is the first
// deleted base, or the base an insertion is placed before.  It first moves
// one repeat unit at a time, then one base at a time, rotating seq so that
// it stays equivalent.  Shifting never reaches past the first base of the
// chromosome (a padding base must remain on the left) nor past its last
// base.  It returns the new position and sequence.
func shiftIndel(genome Genome, chr interval.Chromosome, chrLen, pos int, seq string, deletion bool, dir ShiftDirection) (int, string, error) {
	if seq == "" {
		return pos, seq, errors.E(errors.Invalid, "variant: shifting an empty indel")
	}
	seq = strings.ToUpper(seq)
	block := MinBlock(seq)
	bl := len(block)
	switch dir {
	case ShiftLeft:
		for pos-bl >= 2 {
			ok, err := seqEquals(genome, chr, chrLen, pos-bl, block)
			if err != nil {
				return pos, seq, err
			}
			if !ok {
				break
			}
			pos -= bl
		}
		for pos-1 >= 2 {
			ok, err := seqEquals(genome, chr, chrLen, pos-1, seq[len(seq)-1:])
			if err != nil {
				return pos, seq, err
			}
			if !ok {
				break
			}
			pos--
			seq = seq[len(seq)-1:] + seq[:len(seq)-1]
		}
	case ShiftRight:
		// q is the first base after the event.
		q := pos
		if deletion {
			q = pos + len(seq)
		}
		limit := chrLen + 1
		if !deletion {
			limit = chrLen
		}
		for q+bl <= limit {
			ok, err := seqEquals(genome, chr, chrLen, q, block)
			if err != nil {
				return pos, seq, err
			}
			if !ok {
				break
			}
			pos += bl
			q += bl
		}
		for q+1 <= limit {
			ok, err := seqEquals(genome, chr, chrLen, q, seq[:1])
			if err != nil {
				return pos, seq, err
			}
			if !ok {
				break
			}
			pos++
			q++
			seq = seq[1:] + seq[:1]
		}
	}
	return pos, seq, nil
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
