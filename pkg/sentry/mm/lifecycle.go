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
	"fmt"

	"trapgate.dev/trapgate/pkg/errors/kernerr"
	"trapgate.dev/trapgate/pkg/hostarch"
	"trapgate.dev/trapgate/pkg/log"
	"trapgate.dev/trapgate/pkg/sentry/pagetables"
)

// accessToPTE returns the flags of a user page with permissions at.
func accessToPTE(at hostarch.AccessType) pagetables.PTE {
	flags := pagetables.User
	if at.Read {
		flags |= pagetables.Read
	}
	if at.Write {
		flags |= pagetables.Write
	}
	if at.Execute {
		flags |= pagetables.Execute
	}
	return flags
}

// MapSegment installs a program image segment: memSize bytes at the
// page-aligned address start, the first len(data) of which are copied from
// data and the rest zero. Segment pages are not anonymous; they do not count
// as mapped pages and MUnmap refuses to remove them.
func (mm *MemoryManager) MapSegment(ctx context.Context, start hostarch.Addr, data []byte, memSize uint64, at hostarch.AccessType) error {
	if uint64(len(data)) > memSize {
		return fmt.Errorf("segment at %v: %d bytes of data exceed memory size %d", start, len(data), memSize)
	}
	if memSize == 0 {
		return nil
	}
	if !at.Any() {
		return kernerr.InvalidPermissions
	}
	ar, err := userRange(start, memSize)
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

	flags := accessToPTE(at)
	ar.Pages(func(page hostarch.Addr) bool {
		fn, aerr := mm.mf.Allocate()
		if aerr != nil {
			err = aerr
			return false
		}
		frame := mm.mf.Frame(fn)
		if off := uint64(page - start); off < uint64(len(data)) {
			copy(frame, data[off:])
		}
		if merr := mm.pt.Map(page, pagetables.MakePTE(fn, flags)); merr != nil {
			panic(merr)
		}
		return true
	})
	return err
}

// Fork returns a copy of mm. Every page, anonymous or not, is copied into a
// fresh frame; no frame is shared with mm.
func (mm *MemoryManager) Fork(ctx context.Context) (*MemoryManager, error) {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	child := NewMemoryManager(mm.mf)
	var err error
	mm.pt.Walk(func(addr hostarch.Addr, pte pagetables.PTE) bool {
		fn, aerr := mm.mf.Allocate()
		if aerr != nil {
			err = aerr
			return false
		}
		copy(mm.mf.Frame(fn), mm.mf.Frame(pte.Frame()))
		if merr := child.pt.Map(addr, pagetables.MakePTE(fn, pte.Flags())); merr != nil {
			panic(merr)
		}
		return true
	})
	if err != nil {
		child.Release(ctx)
		return nil, err
	}
	child.anon = mm.anon.Clone()
	return child, nil
}

// Release unmaps every page and returns all frames to the pool. mm is empty
// afterwards and may be reused. Release is idempotent.
func (mm *MemoryManager) Release(ctx context.Context) {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	var pages []hostarch.Addr
	mm.pt.Walk(func(addr hostarch.Addr, _ pagetables.PTE) bool {
		pages = append(pages, addr)
		return true
	})
	for _, page := range pages {
		pte, _ := mm.pt.Unmap(page)
		if err := mm.mf.Free(pte.Frame()); err != nil {
			log.Warningf("releasing %v: %v", page, err)
		}
	}
	mm.anon.Clear(false)
}
