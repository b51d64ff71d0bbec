// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

/*Command bio-bedtool applies interval set operations to BED files.  Each
  subcommand reads one BED file (plain, gzip or BGZF), transforms it and
  writes BED to -out or stdout.

  Usage:
    bio-bedtool merge -join-adjacent in.bed > merged.bed
    bio-bedtool intersect -out=out.bed.gz in.bed targets.bed
    bio-bedtool clip in.bed ref.fa.fai
*/
package main
