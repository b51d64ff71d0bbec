// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package main

/*
bio-coverage appends the mean aligned-read depth of every interval of a BED
file, computed from an indexed BAM file, as an extra column.
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
	"github.com/grailbio/ngscore/coverage"
	"github.com/grailbio/ngscore/encoding/bamprovider"
	"github.com/grailbio/ngscore/interval"
)

var (
	bamIndexPath      = flag.String("index", "", "Input BAM index path. Defaults to bampath + .bai")
	outPath           = flag.String("out", "", "Output BED path; empty or - for stdout. Paths ending in .gz are BGZF-compressed")
	mapq              = flag.Int("mapq", coverage.DefaultOpts.MinMapQ, "Reads with MAPQ below this level are skipped")
	parallelism       = flag.Int("parallelism", coverage.DefaultOpts.Parallelism, "Number of workers; 0 = runtime.NumCPU()")
	strategy          = flag.String("strategy", coverage.DefaultOpts.Strategy.String(), "Record fetching strategy, 'per-region' or 'sweep'. 'sweep' sorts the intervals first")
	decimals          = flag.Int("decimals", coverage.DefaultOpts.Decimals, "Digits after the decimal point in the coverage column")
	includeDuplicates = flag.Bool("include-duplicates", coverage.DefaultOpts.IncludeDuplicates, "Count reads flagged as duplicates")
)

type runOpts struct {
	bedPath, bamPath, indexPath, outPath string
	coverage                             coverage.Opts
}

func run(ctx context.Context, opts runOpts) error {
	s, err := interval.LoadBED(ctx, opts.bedPath)
	if err != nil {
		return err
	}
	if opts.coverage.Strategy == coverage.Sweep && !s.IsSorted() {
		s.Sort()
	}
	provider := bamprovider.NewProvider(opts.bamPath, bamprovider.ProviderOpts{Index: opts.indexPath})
	chunks, err := coverage.Annotate(ctx, s, provider, opts.coverage)
	if e := provider.Close(); e != nil && err == nil {
		err = e
	}
	if err != nil {
		for _, c := range chunks {
			if c.State == coverage.Failed {
				log.Printf("%v", c)
			}
		}
		return err
	}
	log.Printf("%s: annotated %d interval(s) in %d chunk(s)", opts.bedPath, s.Len(), len(chunks))
	if opts.outPath == "" || opts.outPath == "-" {
		return interval.WriteBED(os.Stdout, s)
	}
	return interval.StoreBED(ctx, opts.outPath, s)
}

func usage() {
	fmt.Printf("Usage: %s [OPTIONS] bedpath bampath\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 2 {
		log.Fatalf("Expected bedpath and bampath, got '%s'", strings.Join(flag.Args(), " "))
	}
	strat, err := coverage.ParseStrategy(*strategy)
	if err != nil {
		log.Fatalf("%v", err)
	}
	opts := runOpts{
		bedPath:   flag.Arg(0),
		bamPath:   flag.Arg(1),
		indexPath: *bamIndexPath,
		outPath:   *outPath,
		coverage: coverage.Opts{
			MinMapQ:           *mapq,
			Parallelism:       *parallelism,
			Strategy:          strat,
			Decimals:          *decimals,
			IncludeDuplicates: *includeDuplicates,
		},
	}
	if err := run(vcontext.Background(), opts); err != nil {
		log.Fatalf("%v", err)
	}
	log.Debug.Printf("exiting")
}
