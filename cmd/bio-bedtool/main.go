// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/ngscore/interval"
	"v.io/x/lib/cmdline"
)

const outFlagHelp = "Output BED path. Paths ending in .gz are BGZF-compressed. Empty or - writes to stdout"

func newCmdMerge() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "merge",
		Short:    "Sort and merge overlapping intervals",
		ArgsName: "in.bed",
	}
	out := cmd.Flags.String("out", "", outFlagHelp)
	joinAdjacent := cmd.Flags.Bool("join-adjacent", false, "Also merge intervals that touch end-to-end")
	keepNames := cmd.Flags.Bool("keep-names", false, "Keep the comma-joined fourth columns of merged intervals")
	uniqueNames := cmd.Flags.Bool("unique-names", false, "With -keep-names, drop repeated names")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("merge takes one pathname argument, but got %v", argv)
		}
		return transform(vcontext.Background(), argv[0], *out, mergeOp(*joinAdjacent, *keepNames, *uniqueNames))
	})
	return cmd
}

func newCmdSort() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "sort",
		Short:    "Sort intervals by chromosome, start and end",
		ArgsName: "in.bed",
	}
	out := cmd.Flags.String("out", "", outFlagHelp)
	dedup := cmd.Flags.Bool("dedup", false, "Drop intervals with the coordinates of the preceding one")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("sort takes one pathname argument, but got %v", argv)
		}
		return transform(vcontext.Background(), argv[0], *out, sortOp(*dedup))
	})
	return cmd
}

func newCmdBinary(name, short string) *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     name,
		Short:    short,
		ArgsName: "in.bed other.bed",
		Long: `
The second operand is sorted and merged before the operation; the first is
processed in its original order.`,
	}
	out := cmd.Flags.String("out", "", outFlagHelp)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("%s takes in.bed other.bed, but got %v", name, argv)
		}
		ctx := vcontext.Background()
		op, err := binaryOp(ctx, name, argv[1])
		if err != nil {
			return err
		}
		return transform(ctx, argv[0], *out, op)
	})
	return cmd
}

func newCmdResize(name, short string, resize func(s *interval.Set, n int) error) *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     name,
		Short:    short,
		ArgsName: "in.bed",
	}
	out := cmd.Flags.String("out", "", outFlagHelp)
	n := cmd.Flags.Int("n", 0, "Number of bases, must be positive")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("%s takes one pathname argument, but got %v", name, argv)
		}
		return transform(vcontext.Background(), argv[0], *out, func(s *interval.Set) error { return resize(s, *n) })
	})
	return cmd
}

func newCmdChunk() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "chunk",
		Short:    "Split long intervals into near-equal pieces",
		ArgsName: "in.bed",
	}
	out := cmd.Flags.String("out", "", outFlagHelp)
	size := cmd.Flags.Int("size", 1000, "Target piece size in bases")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("chunk takes one pathname argument, but got %v", argv)
		}
		return transform(vcontext.Background(), argv[0], *out, func(s *interval.Set) error { return s.Chunk(*size) })
	})
	return cmd
}

func newCmdClip() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "clip",
		Short:    "Clip intervals to chromosome bounds",
		ArgsName: "in.bed ref.fa.fai",
	}
	out := cmd.Flags.String("out", "", outFlagHelp)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("clip takes in.bed ref.fa.fai, but got %v", argv)
		}
		ctx := vcontext.Background()
		lengths, err := loadChrLengths(ctx, argv[1])
		if err != nil {
			return err
		}
		return transform(ctx, argv[0], *out, clipOp(lengths))
	})
	return cmd
}

func newCmdRoot() *cmdline.Command {
	return &cmdline.Command{
		Name:     "bio-bedtool",
		Short:    "Interval set operations on BED files",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdMerge(),
			newCmdSort(),
			newCmdBinary("intersect", "Clip intervals to their overlaps with a second file"),
			newCmdBinary("subtract", "Remove the bases covered by a second file"),
			newCmdBinary("overlap", "Keep intervals overlapping a second file"),
			newCmdResize("extend", "Grow intervals by n bases on each side", (*interval.Set).Extend),
			newCmdResize("shrink", "Shrink intervals by n bases on each side", (*interval.Set).Shrink),
			newCmdChunk(),
			newCmdClip(),
		},
	}
}

func main() {
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(newCmdRoot())
}
