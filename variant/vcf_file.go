// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package variant

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"runtime"
	"sort"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/ngscore/interval"
	"github.com/klauspost/compress/gzip"
)

const maxLineLen = 64 << 20

// VcfFile holds the header lines (including the "#CHROM" line) and data lines
// of a VCF.
type VcfFile struct {
	Headers []string
	Lines   []VcfLine
}

// Len implements interval.Locatable.
func (f *VcfFile) Len() int { return len(f.Lines) }

// Locus implements interval.Locatable.
func (f *VcfFile) Locus(i int) (interval.Chromosome, int, int) { return f.Lines[i].Locus() }

// ReadVcf parses VCF text.
func ReadVcf(r io.Reader) (*VcfFile, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, maxLineLen)
	f := &VcfFile{}
	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			f.Headers = append(f.Headers, line)
			continue
		}
		v, err := ParseVcfLine(line)
		if err != nil {
			return nil, errors.E(fmt.Sprintf("line %d", lineIdx), err)
		}
		f.Lines = append(f.Lines, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

// LoadVcf reads a possibly gzipped VCF file.
func LoadVcf(ctx context.Context, path string) (f *VcfFile, err error) {
	var in file.File
	if in, err = file.Open(ctx, path); err != nil {
		return
	}
	defer func() {
		if cerr := in.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	r := io.Reader(in.Reader(ctx))
	if fileio.DetermineType(path) == fileio.Gzip {
		if r, err = gzip.NewReader(r); err != nil {
			return
		}
	}
	if f, err = ReadVcf(r); err != nil {
		return nil, errors.E(path, err)
	}
	log.Debug.Printf("%s: loaded %d variant line(s)", path, len(f.Lines))
	return
}

// WriteVcf writes headers and lines.
func WriteVcf(w io.Writer, f *VcfFile) error {
	bw := bufio.NewWriter(w)
	for _, h := range f.Headers {
		bw.WriteString(h)
		bw.WriteByte('\n')
	}
	for i := range f.Lines {
		bw.WriteString(f.Lines[i].String())
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// StoreVcf writes f to path, BGZF-compressed if path ends in ".gz".
func StoreVcf(ctx context.Context, path string, f *VcfFile) error {
	return interval.CreateAndWrite(ctx, path, func(w io.Writer) error { return WriteVcf(w, f) })
}

// Sort orders lines by chromosome, then position.  The sort is stable.
func (f *VcfFile) Sort() {
	sort.SliceStable(f.Lines, func(i, j int) bool {
		a, b := &f.Lines[i], &f.Lines[j]
		if c := a.Chr.Compare(b.Chr); c != 0 {
			return c < 0
		}
		return a.Pos < b.Pos
	})
}

// FilterByRegions keeps the lines whose reference range intersects u.
func (f *VcfFile) FilterByRegions(u *interval.Union) {
	out := f.Lines[:0]
	for _, v := range f.Lines {
		if u.Intersects(v.Locus()) {
			out = append(out, v)
		}
	}
	f.Lines = out
}

// NormalizeOpts configures NormalizeAll.
type NormalizeOpts struct {
	// Direction places indels within tandem repeats.
	Direction ShiftDirection
	// AddPrefixBaseToMNPs pads multi-base substitutions with the preceding
	// reference base.
	AddPrefixBaseToMNPs bool
	// Parallelism is the number of lines normalized concurrently.  Values
	// <= 0 select runtime.NumCPU().
	Parallelism int
}

// DefaultNormalizeOpts left-aligns indels, the usual VCF convention.
var DefaultNormalizeOpts = NormalizeOpts{Direction: ShiftLeft}

// NormalizeStats counts the outcome of NormalizeAll per NormalizeResult.
type NormalizeStats [numNormalizeResults]int

// String implements fmt.Stringer.
func (s NormalizeStats) String() string {
	parts := make([]string, 0, len(s))
	for r, n := range s {
		parts = append(parts, fmt.Sprintf("%s=%d", NormalizeResult(r), n))
	}
	return strings.Join(parts, " ")
}

// NormalizeAll normalizes every line in place.  Lines are processed in
// parallel shards, so the genome must be safe for concurrent use.  Lines may
// move; call Sort afterwards if order matters.
func NormalizeAll(ctx context.Context, f *VcfFile, genome Genome, opts NormalizeOpts) (NormalizeStats, error) {
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	n := len(f.Lines)
	if parallelism > n {
		parallelism = n
	}
	shardStats := make([]NormalizeStats, parallelism)
	err := traverse.Each(parallelism, func(jobIdx int) error {
		start := (jobIdx * n) / parallelism
		end := ((jobIdx + 1) * n) / parallelism
		for i := start; i < end; i++ {
			if i%1024 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			res, err := f.Lines[i].Normalize(opts.Direction, genome, opts.AddPrefixBaseToMNPs)
			if err != nil {
				return errors.E(fmt.Sprintf("%s:%d", f.Lines[i].Chr.Name(), f.Lines[i].Pos), err)
			}
			shardStats[jobIdx][res]++
		}
		return nil
	})
	var stats NormalizeStats
	for _, s := range shardStats {
		for r, c := range s {
			stats[r] += c
		}
	}
	if err == nil {
		log.Debug.Printf("normalized %d line(s): %v", n, stats)
	}
	return stats, err
}
