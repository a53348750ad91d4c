// Copyright 2025 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package mm provides a memory management subsystem.
//
// Each MemoryManager owns a page table whose leaves name frames in a shared
// pgalloc pool. Pages come from two sources: MMap installs anonymous pages,
// which are counted and may be removed by MUnmap; MapSegment installs program
// image pages, which are neither.
//
// Lock order:
//
//	MemoryManager.mu
//		pgalloc.MemoryFile.mu
package mm

import (
	"sync"

	"github.com/google/btree"
	"trapgate.dev/trapgate/pkg/hostarch"
	"trapgate.dev/trapgate/pkg/metric"
	"trapgate.dev/trapgate/pkg/sentry/pagetables"
	"trapgate.dev/trapgate/pkg/sentry/pgalloc"
)

var (
	mappedPagesMetric   = metric.MustCreateNewUint64Metric("/mm/mapped_pages", "Number of anonymous pages installed by mmap.")
	unmappedPagesMetric = metric.MustCreateNewUint64Metric("/mm/unmapped_pages", "Number of anonymous pages removed by munmap.")
)

// btreeDegree is the degree of the anonymous page index.
const btreeDegree = 16

// MemoryManager implements a virtual address space.
type MemoryManager struct {
	// mf is the frame pool. mf is immutable.
	mf pgalloc.Allocator

	// mu protects the fields below.
	mu sync.Mutex

	// pt translates user pages to frames.
	pt *pagetables.Tables

	// anon indexes every page installed by MMap and not yet removed. Its
	// length is the mapped-page counter.
	anon *btree.BTreeG[hostarch.Addr]
}

func addrLess(a, b hostarch.Addr) bool {
	return a < b
}

// NewMemoryManager returns a new, empty MemoryManager whose frames come from
// mf.
func NewMemoryManager(mf pgalloc.Allocator) *MemoryManager {
	return &MemoryManager{
		mf:   mf,
		pt:   pagetables.New(),
		anon: btree.NewG(btreeDegree, addrLess),
	}
}

// MappedPages returns the number of pages currently mapped by MMap.
func (mm *MemoryManager) MappedPages() uint64 {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return uint64(mm.anon.Len())
}

// Resolve returns the translation of the page containing addr.
func (mm *MemoryManager) Resolve(addr hostarch.Addr) (pagetables.PTE, bool) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return mm.pt.Lookup(addr.RoundDown())
}

// AnonymousPages returns the start of every page mapped by MMap, in ascending
// order.
func (mm *MemoryManager) AnonymousPages() []hostarch.Addr {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	pages := make([]hostarch.Addr, 0, mm.anon.Len())
	mm.anon.Ascend(func(page hostarch.Addr) bool {
		pages = append(pages, page)
		return true
	})
	return pages
}
