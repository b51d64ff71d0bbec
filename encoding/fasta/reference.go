// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package fasta

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/grailbio/ngscore/interval"
	"github.com/klauspost/compress/gzip"
)

// Reference is a reference genome with 1-based coordinates.  Chromosomes are
// matched by normalized name, so a FASTA with ">chr1" answers queries for
// "1" and vice versa.  Returned bases are upper case.  Reference is safe for
// concurrent use.
type Reference struct {
	fa    Fasta
	names map[string]string // normalized chromosome name -> sequence name
	files []file.File
}

// NewReference wraps an open Fasta.
func NewReference(fa Fasta) *Reference {
	r := &Reference{fa: fa, names: make(map[string]string)}
	for _, name := range fa.SeqNames() {
		key := interval.NewChromosome(name).Normalized()
		if _, ok := r.names[key]; !ok {
			r.names[key] = name
		}
	}
	return r
}

// OpenReference opens a FASTA file.  If "<path>.fai" exists the file is
// accessed through the index; otherwise (and always for gzipped input) the
// whole file is loaded into memory.
func OpenReference(ctx context.Context, path string) (*Reference, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	gz := fileio.DetermineType(path) == fileio.Gzip
	if !gz {
		if idx, err := file.Open(ctx, path+".fai"); err == nil {
			fa, err := NewIndexed(in.Reader(ctx), idx.Reader(ctx))
			if cerr := idx.Close(ctx); err == nil {
				err = cerr
			}
			if err != nil {
				_ = in.Close(ctx)
				return nil, errors.E(fmt.Sprintf("fasta.OpenReference %s", path), err)
			}
			log.Debug.Printf("%s: using index %s.fai", path, path)
			r := NewReference(fa)
			r.files = []file.File{in}
			return r, nil
		}
	}
	var reader io.Reader = in.Reader(ctx)
	if gz {
		if reader, err = gzip.NewReader(reader); err != nil {
			_ = in.Close(ctx)
			return nil, errors.E(fmt.Sprintf("fasta.OpenReference %s", path), err)
		}
	}
	fa, err := New(reader)
	if cerr := in.Close(ctx); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, errors.E(fmt.Sprintf("fasta.OpenReference %s", path), err)
	}
	log.Debug.Printf("%s: loaded %d sequence(s) into memory", path, len(fa.SeqNames()))
	return NewReference(fa), nil
}

// Close releases the files backing the reference.
func (r *Reference) Close(ctx context.Context) error {
	var once errors.Once
	for _, f := range r.files {
		once.Set(f.Close(ctx))
	}
	r.files = nil
	return once.Err()
}

func (r *Reference) seqName(chr interval.Chromosome) (string, error) {
	name, ok := r.names[chr.Normalized()]
	if !ok {
		return "", errors.E(errors.NotExist, fmt.Sprintf("fasta: chromosome %s not in reference", chr.Name()))
	}
	return name, nil
}

// Len returns the length of chr.
func (r *Reference) Len(chr interval.Chromosome) (int, error) {
	name, err := r.seqName(chr)
	if err != nil {
		return 0, err
	}
	n, err := r.fa.Len(name)
	return int(n), err
}

// Seq returns length bases of chr starting at the 1-based position start.
// The range must lie within the chromosome.
func (r *Reference) Seq(chr interval.Chromosome, start, length int) (string, error) {
	name, err := r.seqName(chr)
	if err != nil {
		return "", err
	}
	if start < 1 || length < 0 {
		return "", errors.E(errors.Invalid, fmt.Sprintf("fasta: invalid range %s:%d+%d", chr.Name(), start, length))
	}
	if length == 0 {
		return "", nil
	}
	s, err := r.fa.Get(name, uint64(start-1), uint64(start-1+length))
	if err != nil {
		return "", errors.E(errors.Invalid, err)
	}
	return strings.ToUpper(s), nil
}
