// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package main

/*
bio-vcfnorm trims alleles to a minimal representation and shifts indels
within tandem repeats to their leftmost (or rightmost) equivalent position,
checking every candidate against a FASTA reference.

Lines whose REF disagrees with the reference, multi-allelic lines, SNVs and
symbolic alleles are written unchanged and counted in the summary.
*/

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/ngscore/encoding/fasta"
	"github.com/grailbio/ngscore/interval"
	"github.com/grailbio/ngscore/variant"
)

var (
	refPath     = flag.String("ref", "", "Reference FASTA path (required). A <ref>.fai index is used when present")
	outPath     = flag.String("out", "", "Output VCF path; empty or - for stdout. Paths ending in .gz are BGZF-compressed")
	direction   = flag.String("direction", variant.DefaultNormalizeOpts.Direction.String(), "Indel placement within repeats: 'left', 'right' or 'none'")
	mnpPrefix   = flag.Bool("mnp-prefix", variant.DefaultNormalizeOpts.AddPrefixBaseToMNPs, "Pad multi-base substitutions with the preceding reference base")
	regions     = flag.String("regions", "", "Optional BED path; only lines intersecting it are kept")
	parallelism = flag.Int("parallelism", 0, "Number of concurrent workers; 0 = runtime.NumCPU()")
	sortOutput  = flag.Bool("sort", true, "Sort the output by chromosome and position")
)

type runOpts struct {
	inPath, refPath, outPath, regionsPath string
	sort                                  bool
	normalize                             variant.NormalizeOpts
}

func run(ctx context.Context, opts runOpts) (stats variant.NormalizeStats, err error) {
	var ref *fasta.Reference
	if ref, err = fasta.OpenReference(ctx, opts.refPath); err != nil {
		return
	}
	defer func() {
		if cerr := ref.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	var f *variant.VcfFile
	if f, err = variant.LoadVcf(ctx, opts.inPath); err != nil {
		return
	}
	if opts.regionsPath != "" {
		var targets *interval.Set
		if targets, err = interval.LoadBED(ctx, opts.regionsPath); err != nil {
			return
		}
		nIn := len(f.Lines)
		f.FilterByRegions(interval.NewUnion(targets))
		log.Printf("%s: %d of %d line(s) within %s", opts.inPath, len(f.Lines), nIn, opts.regionsPath)
	}
	if stats, err = variant.NormalizeAll(ctx, f, ref, opts.normalize); err != nil {
		return
	}
	log.Printf("%s: %v", opts.inPath, stats)
	if opts.sort {
		f.Sort()
	}
	if opts.outPath == "" || opts.outPath == "-" {
		err = variant.WriteVcf(os.Stdout, f)
		return
	}
	err = variant.StoreVcf(ctx, opts.outPath, f)
	return
}

func usage() {
	fmt.Printf("Usage: %s -ref ref.fa [OPTIONS] in.vcf\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		log.Fatalf("Expected one VCF path, got '%s'", strings.Join(flag.Args(), " "))
	}
	if *refPath == "" {
		log.Fatalf("-ref is required")
	}
	dir, err := variant.ParseShiftDirection(*direction)
	if err != nil {
		log.Fatalf("%v", err)
	}
	opts := runOpts{
		inPath:      flag.Arg(0),
		refPath:     *refPath,
		outPath:     *outPath,
		regionsPath: *regions,
		sort:        *sortOutput,
		normalize: variant.NormalizeOpts{
			Direction:           dir,
			AddPrefixBaseToMNPs: *mnpPrefix,
			Parallelism:         *parallelism,
		},
	}
	if _, err := run(vcontext.Background(), opts); err != nil {
		log.Fatalf("%v", err)
	}
	log.Debug.Printf("exiting")
}
