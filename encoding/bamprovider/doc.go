// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package bamprovider provides region-restricted access to an indexed BAM
// file.
//
// The Provider is an interface for reading alignment records overlapping a
// genomic range.  Each Iterator owns its own file handle, so iterators
// created from one Provider may be used from different goroutines without
// locking.
package bamprovider
