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

package mm

import (
	"context"

	"trapgate.dev/trapgate/pkg/abi/linux"
	"trapgate.dev/trapgate/pkg/errors/kernerr"
	"trapgate.dev/trapgate/pkg/hostarch"
	"trapgate.dev/trapgate/pkg/log"
	"trapgate.dev/trapgate/pkg/sentry/pagetables"
)

// ProtToPTE converts mmap protection bits into page table flags for a user
// page. ok is false if prot is empty or has bits outside PROT_MASK.
func ProtToPTE(prot uint64) (pagetables.PTE, bool) {
	if prot == 0 || prot&^linux.PROT_MASK != 0 {
		return 0, false
	}
	return pagetables.PTE(prot<<1) | pagetables.User, true
}

// userRange validates [start, start+length) rounded up to whole pages.
func userRange(start hostarch.Addr, length uint64) (hostarch.AddrRange, error) {
	if !start.IsPageAligned() {
		return hostarch.AddrRange{}, kernerr.InvalidAlignment
	}
	rounded, ok := hostarch.PageRoundUp(length)
	if !ok {
		return hostarch.AddrRange{}, kernerr.InvalidAlignment
	}
	ar, ok := start.ToRange(rounded)
	if !ok || ar.End > hostarch.MaxUserAddress {
		return hostarch.AddrRange{}, kernerr.InvalidAlignment
	}
	return ar, nil
}

// MMap maps anonymous, zero-filled memory at the fixed page-aligned address
// start with the permissions prot. length is rounded up to whole pages. start
// and prot are checked even when length is zero, which otherwise maps nothing.
//
// No page is installed if any page in the range is already mapped. If frames
// run out part way, the pages installed so far stay mapped and counted and
// kernerr.OutOfMemory is returned.
func (mm *MemoryManager) MMap(ctx context.Context, start hostarch.Addr, length uint64, prot uint64) error {
	if !start.IsPageAligned() {
		return kernerr.InvalidAlignment
	}
	flags, ok := ProtToPTE(prot)
	if !ok {
		return kernerr.InvalidPermissions
	}
	if length == 0 {
		return nil
	}
	ar, err := userRange(start, length)
	if err != nil {
		return err
	}

	mm.mu.Lock()
	defer mm.mu.Unlock()

	var conflict bool
	ar.Pages(func(page hostarch.Addr) bool {
		_, conflict = mm.pt.Lookup(page)
		return !conflict
	})
	if conflict {
		return kernerr.AlreadyMapped
	}

	var installErr error
	ar.Pages(func(page hostarch.Addr) bool {
		fn, err := mm.mf.Allocate()
		if err != nil {
			installErr = err
			return false
		}
		if err := mm.pt.Map(page, pagetables.MakePTE(fn, flags|pagetables.Anonymous)); err != nil {
			// The range was checked above.
			panic(err)
		}
		mm.anon.ReplaceOrInsert(page)
		mappedPagesMetric.Increment()
		return true
	})
	if installErr != nil {
		log.Debugf("mmap %v: %v, %d anonymous pages now mapped", ar, installErr, mm.anon.Len())
	}
	return installErr
}

// MUnmap removes the anonymous pages in [start, start+length), rounded up to
// whole pages, and returns their frames.
//
// The call is all or nothing: if any page in the range is unmapped, or was not
// mapped by MMap, kernerr.NotMapped is returned and nothing changes.
func (mm *MemoryManager) MUnmap(ctx context.Context, start hostarch.Addr, length uint64) error {
	if length == 0 {
		return nil
	}
	ar, err := userRange(start, length)
	if err != nil {
		return err
	}

	mm.mu.Lock()
	defer mm.mu.Unlock()

	missing := false
	ar.Pages(func(page hostarch.Addr) bool {
		pte, ok := mm.pt.Lookup(page)
		missing = !ok || !pte.IsAnonymous()
		return !missing
	})
	if missing {
		return kernerr.NotMapped
	}

	ar.Pages(func(page hostarch.Addr) bool {
		pte, _ := mm.pt.Unmap(page)
		if err := mm.mf.Free(pte.Frame()); err != nil {
			log.Warningf("munmap %v: %v", page, err)
		}
		mm.anon.Delete(page)
		unmappedPagesMetric.Increment()
		return true
	})
	return nil
}
