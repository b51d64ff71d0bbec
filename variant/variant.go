// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package variant represents point and range sequence edits and puts them
// into canonical form.
//
// Two conventions are used for alleles:
//
//   - Placeholder (tabular): an allele may be empty.  Empty alleles are held
//     as "" in memory and written as "-".  A deletion covers the deleted
//     bases [Start, End]; an insertion has Start == End == the base after
//     which the sequence is inserted.
//   - Padded (VCF): alleles are never empty.  Indels borrow one flanking
//     reference base, normally the one preceding the event.
//
// Conversion between them happens only at Variant.ToVcf and
// VcfLine.ToVariants, and allele text is translated only by ParseAllele and
// FormatAllele.
package variant

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/ngscore/interval"
)

// Genome provides reference sequence for normalization.  Implementations
// must be safe for concurrent use.
type Genome interface {
	// Seq returns length bases of chr starting at the 1-based position
	// start, in upper case.  It fails if the range leaves the chromosome.
	Seq(chr interval.Chromosome, start, length int) (string, error)
	// Len returns the length of chr.
	Len(chr interval.Chromosome) (int, error)
}

// Convention selects how an empty allele is represented in text.
type Convention int

const (
	// Placeholder allows empty alleles, written as PlaceholderAllele.
	Placeholder Convention = iota
	// Padded never allows empty alleles.
	Padded
)

// PlaceholderAllele is the text of an empty allele in the Placeholder
// convention.
const PlaceholderAllele = "-"

// ParseAllele converts allele text to bases.  The result is upper case.
func ParseAllele(field string, c Convention) (string, error) {
	switch {
	case c == Placeholder && field == PlaceholderAllele:
		return "", nil
	case field == "":
		return "", errors.E(errors.Invalid, "variant: empty allele")
	}
	return strings.ToUpper(field), nil
}

// FormatAllele converts bases to allele text.
func FormatAllele(seq string, c Convention) string {
	if seq == "" && c == Placeholder {
		return PlaceholderAllele
	}
	return seq
}

// ShiftDirection selects where an indel inside a tandem repeat is placed.
type ShiftDirection int

const (
	// ShiftNone trims but does not move indels.
	ShiftNone ShiftDirection = iota
	// ShiftLeft moves indels to the leftmost equivalent position.
	ShiftLeft
	// ShiftRight moves indels to the rightmost equivalent position.
	ShiftRight
)

// String implements fmt.Stringer.
func (d ShiftDirection) String() string {
	switch d {
	case ShiftNone:
		return "none"
	case ShiftLeft:
		return "left"
	case ShiftRight:
		return "right"
	}
	return fmt.Sprintf("ShiftDirection(%d)", int(d))
}

// ParseShiftDirection parses "none", "left" or "right".
func ParseShiftDirection(s string) (ShiftDirection, error) {
	switch strings.ToLower(s) {
	case "none", "":
		return ShiftNone, nil
	case "left":
		return ShiftLeft, nil
	case "right":
		return ShiftRight, nil
	}
	return ShiftNone, errors.E(errors.Invalid, fmt.Sprintf("variant: unknown shift direction %q", s))
}

// NormalizeResult tells what normalization did with a variant.
type NormalizeResult int

const (
	// Normalized means the variant was rewritten.
	Normalized NormalizeResult = iota
	// Unchanged means the variant was already in canonical form.
	Unchanged
	// SkippedRefMismatch means the reference allele does not match the
	// genome (or lies outside the chromosome); the variant was not touched.
	SkippedRefMismatch
	// SkippedMultiAllelic means the variant has more than one alternate.
	SkippedMultiAllelic
	// SkippedNotIndel means the variant is an SNV, an MNP, or has a symbolic
	// alternate.
	SkippedNotIndel

	numNormalizeResults
)

var normalizeResultNames = [...]string{
	Normalized:          "normalized",
	Unchanged:           "unchanged",
	SkippedRefMismatch:  "skipped_ref_mismatch",
	SkippedMultiAllelic: "skipped_multi_allelic",
	SkippedNotIndel:     "skipped_not_indel",
}

// String implements fmt.Stringer.
func (r NormalizeResult) String() string {
	if r >= 0 && r < numNormalizeResults {
		return normalizeResultNames[r]
	}
	return fmt.Sprintf("NormalizeResult(%d)", int(r))
}

// Skipped is true for the results that leave the variant untouched because
// it could not be normalized.
func (r NormalizeResult) Skipped() bool {
	return r == SkippedRefMismatch || r == SkippedMultiAllelic || r == SkippedNotIndel
}

// Variant is a single sequence edit in the Placeholder convention.
type Variant struct {
	Chr         interval.Chromosome
	Start       int
	End         int
	Ref         string
	Alt         string
	Annotations []string
}

// NewVariant creates a variant from alleles in the Placeholder convention
// and checks its coordinates.
func NewVariant(chr interval.Chromosome, start, end int, ref, alt string, annotations ...string) (Variant, error) {
	v := Variant{Chr: chr, Start: start, End: end, Annotations: annotations}
	var err error
	if v.Ref, err = ParseAllele(ref, Placeholder); err != nil {
		return Variant{}, err
	}
	if v.Alt, err = ParseAllele(alt, Placeholder); err != nil {
		return Variant{}, err
	}
	if err := v.validate(); err != nil {
		return Variant{}, err
	}
	return v, nil
}

func (v *Variant) validate() error {
	if !v.Chr.IsValid() {
		return errors.E(errors.Invalid, "variant: missing chromosome")
	}
	if v.Start < 1 || v.End < v.Start {
		return errors.E(errors.Invalid, fmt.Sprintf("variant: invalid coordinates %s:%d-%d", v.Chr.Name(), v.Start, v.End))
	}
	if v.Ref == "" && v.Alt == "" {
		return errors.E(errors.Invalid, fmt.Sprintf("variant: both alleles empty at %s:%d", v.Chr.Name(), v.Start))
	}
	if v.Ref == "" && v.End != v.Start {
		return errors.E(errors.Invalid, fmt.Sprintf("variant: insertion at %s:%d-%d must have start == end", v.Chr.Name(), v.Start, v.End))
	}
	if v.Ref != "" && v.End-v.Start+1 != len(v.Ref) {
		return errors.E(errors.Invalid, fmt.Sprintf("variant: reference %s does not span %s:%d-%d", v.Ref, v.Chr.Name(), v.Start, v.End))
	}
	return nil
}

// IsSNV returns whether the variant replaces exactly one base.
func (v Variant) IsSNV() bool { return len(v.Ref) == 1 && len(v.Alt) == 1 }

// IsInsertion returns whether the variant only adds bases.
func (v Variant) IsInsertion() bool { return v.Ref == "" && v.Alt != "" }

// IsDeletion returns whether the variant only removes bases.
func (v Variant) IsDeletion() bool { return v.Ref != "" && v.Alt == "" }

// IsIndel returns whether the variant is an insertion or deletion.
func (v Variant) IsIndel() bool { return v.IsInsertion() || v.IsDeletion() }

// Overlaps returns whether the variant touches chr:[start, end].
func (v Variant) Overlaps(chr interval.Chromosome, start, end int) bool {
	return v.Chr.Equal(chr) && v.Start <= end && start <= v.End
}

// Normalize trims bases shared by both alleles and rewrites the variant in
// the Placeholder convention.  A variant that already is an insertion (empty
// reference) is assumed to be in that convention and is left alone, as is a
// variant whose alleles are equal.
func (v *Variant) Normalize() {
	if v.Ref == "" || strings.EqualFold(v.Ref, v.Alt) {
		return
	}
	pos, ref, alt := Normalize(v.Start, v.Ref, v.Alt)
	v.Start, v.Ref, v.Alt = pos, ref, alt
	if ref == "" {
		v.Start = pos - 1
		v.End = v.Start
		return
	}
	v.End = pos + len(ref) - 1
}

// LeftAlign moves an indel to the leftmost equivalent position.  It is a
// no-op for other variants.
func (v *Variant) LeftAlign(genome Genome) (NormalizeResult, error) {
	if !v.IsIndel() {
		return SkippedNotIndel, nil
	}
	chrLen, err := genome.Len(v.Chr)
	if err != nil {
		return Unchanged, err
	}
	pos, seq := v.Start, v.Ref
	if v.IsInsertion() {
		pos, seq = v.Start+1, v.Alt
	} else if !refMatches(genome, v.Chr, v.Start, v.Ref) {
		return SkippedRefMismatch, nil
	}
	newPos, newSeq, err := shiftIndel(genome, v.Chr, chrLen, pos, seq, v.IsDeletion(), ShiftLeft)
	if err != nil {
		return Unchanged, err
	}
	if newPos == pos {
		return Unchanged, nil
	}
	if v.IsInsertion() {
		v.Start, v.End, v.Alt = newPos-1, newPos-1, newSeq
	} else {
		v.Start, v.End, v.Ref = newPos, newPos+len(newSeq)-1, newSeq
	}
	return Normalized, nil
}

// ToVcf converts the variant to the Padded convention, borrowing the
// preceding reference base for indels (the following base at the start of a
// chromosome).
func (v Variant) ToVcf(genome Genome) (VcfLine, error) {
	line := VcfLine{Chr: v.Chr, Pos: v.Start, ID: ".", Ref: v.Ref, Alt: []string{v.Alt}, Qual: ".", Filter: ".", Info: "."}
	switch {
	case v.IsInsertion() && v.Start < 1:
		base, err := genome.Seq(v.Chr, 1, 1)
		if err != nil {
			return VcfLine{}, err
		}
		line.Pos, line.Ref, line.Alt[0] = 1, base, v.Alt+base
	case v.IsInsertion():
		base, err := genome.Seq(v.Chr, v.Start, 1)
		if err != nil {
			return VcfLine{}, err
		}
		line.Ref, line.Alt[0] = base, base+v.Alt
	case v.IsDeletion() && v.Start == 1:
		base, err := genome.Seq(v.Chr, v.End+1, 1)
		if err != nil {
			return VcfLine{}, err
		}
		line.Ref, line.Alt[0] = v.Ref+base, base
	case v.IsDeletion():
		base, err := genome.Seq(v.Chr, v.Start-1, 1)
		if err != nil {
			return VcfLine{}, err
		}
		line.Pos, line.Ref, line.Alt[0] = v.Start-1, base+v.Ref, base
	}
	return line, nil
}

// String formats the variant as a tab-separated line: chr, start, end, ref,
// alt and annotations.
func (v Variant) String() string {
	fields := append([]string{
		v.Chr.Name(),
		strconv.Itoa(v.Start),
		strconv.Itoa(v.End),
		FormatAllele(v.Ref, Placeholder),
		FormatAllele(v.Alt, Placeholder),
	}, v.Annotations...)
	return strings.Join(fields, "\t")
}

// ParseVariant parses a line in the format written by String.
func ParseVariant(line string) (Variant, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(fields) < 5 {
		return Variant{}, errors.E(errors.Invalid, fmt.Sprintf("variant: expected at least 5 columns, got %d", len(fields)))
	}
	start, err := strconv.Atoi(fields[1])
	if err != nil {
		return Variant{}, errors.E(errors.Invalid, "variant: invalid start", err)
	}
	end, err := strconv.Atoi(fields[2])
	if err != nil {
		return Variant{}, errors.E(errors.Invalid, "variant: invalid end", err)
	}
	var annotations []string
	if len(fields) > 5 {
		annotations = fields[5:]
	}
	return NewVariant(interval.NewChromosome(fields[0]), start, end, fields[3], fields[4], annotations...)
}
