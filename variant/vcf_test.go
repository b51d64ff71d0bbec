// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package variant_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/ngscore/interval"
	"github.com/grailbio/ngscore/variant"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func vcfLine(chr interval.Chromosome, pos int, ref string, alts ...string) variant.VcfLine {
	return variant.VcfLine{Chr: chr, Pos: pos, ID: ".", Ref: ref, Alt: alts, Qual: ".", Filter: "PASS", Info: "."}
}

func TestVcfLineNormalize(t *testing.T) {
	genome := newTestGenome(t)
	tests := []struct {
		name      string
		line      variant.VcfLine
		dir       variant.ShiftDirection
		addPrefix bool
		want      variant.NormalizeResult
		wantPos   int
		wantRef   string
		wantAlt   string
	}{
		{"deletion left", vcfLine(chr1, 5, "TAT", "T"), variant.ShiftLeft, false, variant.Normalized, 2, "TTA", "T"},
		{"deletion right", vcfLine(chr1, 5, "TAT", "T"), variant.ShiftRight, false, variant.Normalized, 7, "TAT", "T"},
		{"deletion none", vcfLine(chr1, 5, "TAT", "T"), variant.ShiftNone, false, variant.Unchanged, 5, "TAT", "T"},
		{"deletion already left", vcfLine(chr1, 2, "TTA", "T"), variant.ShiftLeft, false, variant.Unchanged, 2, "TTA", "T"},
		{"insertion left", vcfLine(chr1, 5, "T", "TAT"), variant.ShiftLeft, false, variant.Normalized, 2, "T", "TTA"},
		{"insertion right", vcfLine(chr1, 5, "T", "TAT"), variant.ShiftRight, false, variant.Normalized, 9, "T", "TAT"},
		{"lower case", vcfLine(chr1, 5, "tat", "t"), variant.ShiftNone, false, variant.Normalized, 5, "TAT", "T"},
		{"unpadded trailing", vcfLine(chr1, 9, "TG", "G"), variant.ShiftLeft, false, variant.Normalized, 8, "AT", "A"},
		{"first base", vcfLine(chr2, 3, "AAC", "AC"), variant.ShiftLeft, false, variant.Normalized, 1, "AA", "A"},
		{"last base", vcfLine(chr3, 2, "CT", "C"), variant.ShiftRight, false, variant.Normalized, 4, "TT", "T"},
		{"mnp", vcfLine(chr1, 4, "AT", "GC"), variant.ShiftLeft, false, variant.SkippedNotIndel, 4, "AT", "GC"},
		{"mnp prefixed", vcfLine(chr1, 4, "AT", "GC"), variant.ShiftLeft, true, variant.Normalized, 3, "TAT", "TGC"},
		{"snv", vcfLine(chr1, 4, "A", "G"), variant.ShiftLeft, true, variant.SkippedNotIndel, 4, "A", "G"},
		{"ref equals alt", vcfLine(chr1, 4, "AT", "AT"), variant.ShiftLeft, true, variant.SkippedNotIndel, 4, "AT", "AT"},
		{"ref equals alt unprefixed", vcfLine(chr1, 4, "AT", "AT"), variant.ShiftLeft, false, variant.SkippedNotIndel, 4, "AT", "AT"},
		{"symbolic", vcfLine(chr1, 4, "A", "<DEL>"), variant.ShiftLeft, false, variant.SkippedNotIndel, 4, "A", "<DEL>"},
		{"ref mismatch", vcfLine(chr1, 5, "GAT", "G"), variant.ShiftLeft, false, variant.SkippedRefMismatch, 5, "GAT", "G"},
		{"past chromosome end", vcfLine(chr3, 4, "TTT", "T"), variant.ShiftLeft, false, variant.SkippedRefMismatch, 4, "TTT", "T"},
	}
	for _, tt := range tests {
		line := tt.line
		line.Alt = append([]string(nil), tt.line.Alt...)
		res, err := line.Normalize(tt.dir, genome, tt.addPrefix)
		assert.NoError(t, err, tt.name)
		expect.EQ(t, res, tt.want, tt.name)
		expect.EQ(t, line.Pos, tt.wantPos, tt.name)
		expect.EQ(t, line.Ref, tt.wantRef, tt.name)
		expect.EQ(t, line.Alt, []string{tt.wantAlt}, tt.name)
	}
}

func TestVcfLineNormalizeSkips(t *testing.T) {
	genome := newTestGenome(t)
	line := vcfLine(chr1, 5, "TAT", "T", "TA")
	res, err := line.Normalize(variant.ShiftLeft, genome, false)
	assert.NoError(t, err)
	expect.EQ(t, res, variant.SkippedMultiAllelic)
	expect.True(t, res.Skipped())
	expect.EQ(t, line.Pos, 5)

	line = vcfLine(interval.NewChromosome("chr9"), 5, "TAT", "T")
	_, err = line.Normalize(variant.ShiftLeft, genome, false)
	expect.True(t, errors.Is(errors.NotExist, err), "err: %v", err)
}

func TestParseVcfLine(t *testing.T) {
	line, err := variant.ParseVcfLine("chr1\t5\trs1\ttat\tT,TATAT\t50\tPASS\tDP=3\tGT\t0/1")
	require.NoError(t, err)
	require.Equal(t, "chr1", line.Chr.Name())
	require.Equal(t, 5, line.Pos)
	require.Equal(t, "TAT", line.Ref)
	require.Equal(t, []string{"T", "TATAT"}, line.Alt)
	require.Equal(t, []string{"GT", "0/1"}, line.Rest)
	require.Equal(t, 7, line.End())
	require.True(t, line.IsMultiAllelic())
	require.Equal(t, "chr1\t5\trs1\tTAT\tT,TATAT\t50\tPASS\tDP=3\tGT\t0/1", line.String())

	line, err = variant.ParseVcfLine("2\t10\t.\tA\t.\t.\t.\t.")
	require.NoError(t, err)
	require.Len(t, line.Alt, 0)
	require.Equal(t, "2\t10\t.\tA\t.\t.\t.\t.", line.String())

	for _, bad := range []string{
		"chr1\t5\t.\tA\tT\t.\t.",
		"chr1\tx\t.\tA\tT\t.\t.\t.",
		"chr1\t0\t.\tA\tT\t.\t.\t.",
		"chr1\t5\t.\t\tT\t.\t.\t.",
		"chr1\t5\t.\tA\tT,\t.\t.\t.",
	} {
		_, err := variant.ParseVcfLine(bad)
		require.Error(t, err, bad)
	}
}

const testVcf = `##fileformat=VCFv4.2
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO
chr1	5	.	TAT	T	.	PASS	.
chr1	5	.	T	TAT	.	PASS	.
chr1	4	.	A	G	.	PASS	.
chr1	5	.	GAT	G	.	PASS	.
chr1	5	.	TAT	T,TA	.	PASS	.
chr2	3	.	AAC	AC	.	PASS	.
`

func TestNormalizeAll(t *testing.T) {
	genome := newTestGenome(t)
	for _, parallelism := range []int{1, 2, 16} {
		f, err := variant.ReadVcf(strings.NewReader(testVcf))
		require.NoError(t, err)
		require.Len(t, f.Headers, 2)
		opts := variant.DefaultNormalizeOpts
		opts.Parallelism = parallelism
		stats, err := variant.NormalizeAll(context.Background(), f, genome, opts)
		require.NoError(t, err)
		require.Equal(t, 3, stats[variant.Normalized])
		require.Equal(t, 0, stats[variant.Unchanged])
		require.Equal(t, 1, stats[variant.SkippedRefMismatch])
		require.Equal(t, 1, stats[variant.SkippedMultiAllelic])
		require.Equal(t, 1, stats[variant.SkippedNotIndel])

		f.Sort()
		var buf bytes.Buffer
		require.NoError(t, variant.WriteVcf(&buf, f))
		require.Equal(t, `##fileformat=VCFv4.2
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO
chr1	2	.	TTA	T	.	PASS	.
chr1	2	.	T	TTA	.	PASS	.
chr1	4	.	A	G	.	PASS	.
chr1	5	.	GAT	G	.	PASS	.
chr1	5	.	TAT	T,TA	.	PASS	.
chr2	1	.	AA	A	.	PASS	.
`, buf.String())
	}

	// A line whose alleles are equal is skipped without failing the batch.
	f, err := variant.ReadVcf(strings.NewReader("chr1\t5\t.\tTAT\tT\t.\tPASS\t.\nchr1\t4\t.\tAT\tAT\t.\tPASS\t.\n"))
	require.NoError(t, err)
	opts := variant.DefaultNormalizeOpts
	opts.AddPrefixBaseToMNPs = true
	stats, err := variant.NormalizeAll(context.Background(), f, genome, opts)
	require.NoError(t, err)
	require.Equal(t, 1, stats[variant.Normalized])
	require.Equal(t, 1, stats[variant.SkippedNotIndel])
	require.Equal(t, "chr1\t4\t.\tAT\tAT\t.\tPASS\t.", f.Lines[1].String())

	f, err = variant.ReadVcf(strings.NewReader(testVcf))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = variant.NormalizeAll(ctx, f, genome, variant.DefaultNormalizeOpts)
	require.Error(t, err)
}

func TestVcfFileFilterAndStore(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tempDir)
	ctx := context.Background()

	f, err := variant.ReadVcf(strings.NewReader(testVcf))
	require.NoError(t, err)
	regions, err := interval.ReadBED(strings.NewReader("chr1\t3\t4\n"))
	require.NoError(t, err)
	f.FilterByRegions(interval.NewUnion(regions))
	require.Len(t, f.Lines, 1)
	require.Equal(t, 4, f.Lines[0].Pos)

	for _, name := range []string{"out.vcf", "out.vcf.gz"} {
		path := filepath.Join(tempDir, name)
		require.NoError(t, variant.StoreVcf(ctx, path, f))
		loaded, err := variant.LoadVcf(ctx, path)
		require.NoError(t, err)
		require.Equal(t, f.Headers, loaded.Headers)
		require.Equal(t, f.Lines, loaded.Lines)
	}
}
