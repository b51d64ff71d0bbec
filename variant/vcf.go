// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package variant

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/ngscore/interval"
)

// numFixedVcfColumns is the number of mandatory VCF columns (CHROM through
// INFO).
const numFixedVcfColumns = 8

// VcfLine is one VCF data line in the Padded convention.  FORMAT and sample
// columns are passed through in Rest.
type VcfLine struct {
	Chr    interval.Chromosome
	Pos    int
	ID     string
	Ref    string
	Alt    []string
	Qual   string
	Filter string
	Info   string
	Rest   []string
}

// ParseVcfLine parses a tab-separated VCF data line.  An ALT of "." yields
// no alternates.
func ParseVcfLine(line string) (VcfLine, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(fields) < numFixedVcfColumns {
		return VcfLine{}, errors.E(errors.Invalid, fmt.Sprintf("variant.ParseVcfLine: expected at least %d columns, got %d", numFixedVcfColumns, len(fields)))
	}
	pos, err := strconv.Atoi(fields[1])
	if err != nil || pos < 1 {
		return VcfLine{}, errors.E(errors.Invalid, fmt.Sprintf("variant.ParseVcfLine: invalid position %q", fields[1]))
	}
	v := VcfLine{
		Chr:    interval.NewChromosome(fields[0]),
		Pos:    pos,
		ID:     fields[2],
		Qual:   fields[5],
		Filter: fields[6],
		Info:   fields[7],
	}
	if !v.Chr.IsValid() {
		return VcfLine{}, errors.E(errors.Invalid, "variant.ParseVcfLine: empty chromosome")
	}
	if v.Ref, err = ParseAllele(fields[3], Padded); err != nil {
		return VcfLine{}, errors.E("variant.ParseVcfLine: REF", err)
	}
	if fields[4] != "." {
		for _, a := range strings.Split(fields[4], ",") {
			if isSymbolic(a) {
				v.Alt = append(v.Alt, a)
				continue
			}
			allele, err := ParseAllele(a, Padded)
			if err != nil {
				return VcfLine{}, errors.E("variant.ParseVcfLine: ALT", err)
			}
			v.Alt = append(v.Alt, allele)
		}
	}
	if len(fields) > numFixedVcfColumns {
		v.Rest = fields[numFixedVcfColumns:]
	}
	return v, nil
}

// isSymbolic reports whether an alternate is not a base sequence: "<DEL>",
// breakends, or the "*" overlapping-deletion allele.
func isSymbolic(alt string) bool {
	return alt == "*" || strings.HasPrefix(alt, "<") || strings.ContainsAny(alt, "[].")
}

// String formats the line as VCF text, without a trailing newline.
func (v VcfLine) String() string {
	alt := "."
	if len(v.Alt) > 0 {
		alt = strings.Join(v.Alt, ",")
	}
	fields := append([]string{
		v.Chr.Name(),
		strconv.Itoa(v.Pos),
		v.ID,
		FormatAllele(v.Ref, Padded),
		alt,
		v.Qual,
		v.Filter,
		v.Info,
	}, v.Rest...)
	return strings.Join(fields, "\t")
}

// End returns the last reference base covered by the line.
func (v VcfLine) End() int {
	return v.Pos + len(v.Ref) - 1
}

// IsMultiAllelic returns whether the line has more than one alternate.
func (v VcfLine) IsMultiAllelic() bool { return len(v.Alt) > 1 }

// IsSNV returns whether the line is a single biallelic base substitution.
func (v VcfLine) IsSNV() bool {
	return len(v.Alt) == 1 && len(v.Ref) == 1 && len(v.Alt[0]) == 1 && !isSymbolic(v.Alt[0])
}

// Normalize puts a biallelic line into canonical form: shared bases are
// trimmed, an indel is moved to the end of its tandem repeat given by dir,
// and the padding base is restored.  MNPs are only touched when
// addPrefixBaseToMNPs is set, in which case they gain a preceding base.
//
// Lines that cannot be normalized are left untouched and reported by the
// result: SkippedMultiAllelic, SkippedNotIndel (SNVs, MNPs, symbolic
// alternates) and SkippedRefMismatch (REF differs from the genome).  The
// error is only set when the genome cannot be queried, e.g. for an unknown
// chromosome.
func (v *VcfLine) Normalize(dir ShiftDirection, genome Genome, addPrefixBaseToMNPs bool) (NormalizeResult, error) {
	if v.IsMultiAllelic() {
		return SkippedMultiAllelic, nil
	}
	if len(v.Alt) == 0 || isSymbolic(v.Alt[0]) || v.IsSNV() {
		return SkippedNotIndel, nil
	}
	ref, alt := strings.ToUpper(v.Ref), strings.ToUpper(v.Alt[0])
	if len(ref) == len(alt) && !addPrefixBaseToMNPs {
		return SkippedNotIndel, nil
	}
	chrLen, err := genome.Len(v.Chr)
	if err != nil {
		return Unchanged, err
	}
	if v.End() > chrLen || !refMatches(genome, v.Chr, v.Pos, ref) {
		return SkippedRefMismatch, nil
	}

	pos, r, a := Normalize(v.Pos, ref, alt)
	if r == "" && a == "" {
		return SkippedNotIndel, nil
	}
	switch {
	case r == "" || a == "":
		seq := r + a
		if pos, seq, err = shiftIndel(genome, v.Chr, chrLen, pos, seq, a == "", dir); err != nil {
			return Unchanged, err
		}
		if a == "" {
			r = seq
		} else {
			a = seq
		}
		if pos, r, a, err = padIndel(genome, v.Chr, pos, r, a); err != nil {
			return Unchanged, err
		}
	case len(r) == len(a) && len(r) > 1 && addPrefixBaseToMNPs:
		if pos > 1 {
			base, err := genome.Seq(v.Chr, pos-1, 1)
			if err != nil {
				return Unchanged, err
			}
			pos, r, a = pos-1, base+r, base+a
		}
	}
	if pos == v.Pos && r == v.Ref && a == v.Alt[0] {
		return Unchanged, nil
	}
	v.Pos, v.Ref, v.Alt[0] = pos, r, a
	return Normalized, nil
}

// padIndel restores the padding base of a trimmed indel at pos: the
// preceding base, or the following base for an event at the start of the
// chromosome.
func padIndel(genome Genome, chr interval.Chromosome, pos int, ref, alt string) (int, string, string, error) {
	if pos > 1 {
		base, err := genome.Seq(chr, pos-1, 1)
		if err != nil {
			return pos, ref, alt, err
		}
		return pos - 1, base + ref, base + alt, nil
	}
	base, err := genome.Seq(chr, pos+len(ref), 1)
	if err != nil {
		return pos, ref, alt, err
	}
	return pos, ref + base, alt + base, nil
}

// ToVariants converts every non-symbolic alternate to a normalized Variant
// in the Placeholder convention.  The ID column is kept as the only
// annotation.
func (v VcfLine) ToVariants() []Variant {
	var out []Variant
	for _, alt := range v.Alt {
		if isSymbolic(alt) {
			continue
		}
		ref, a := strings.ToUpper(v.Ref), strings.ToUpper(alt)
		if ref == a {
			continue
		}
		variant := Variant{Chr: v.Chr, Start: v.Pos, End: v.End(), Ref: ref, Alt: a}
		if v.ID != "" && v.ID != "." {
			variant.Annotations = []string{v.ID}
		}
		variant.Normalize()
		out = append(out, variant)
	}
	return out
}

// Locus returns the reference range covered by the line.
func (v VcfLine) Locus() (interval.Chromosome, int, int) {
	return v.Chr, v.Pos, v.End()
}
