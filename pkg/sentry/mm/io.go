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

	"trapgate.dev/trapgate/pkg/errors/kernerr"
	"trapgate.dev/trapgate/pkg/hostarch"
	"trapgate.dev/trapgate/pkg/usermem"
)

var _ usermem.IO = (*MemoryManager)(nil)

// frameForLocked returns the backing memory of the page containing addr, from addr
// to the end of the page, if the page may be accessed with at.
//
// Preconditions: mm.mu must be locked.
func (mm *MemoryManager) frameForLocked(addr hostarch.Addr, at hostarch.AccessType, opts usermem.IOOpts) ([]byte, error) {
	pte, ok := mm.pt.Lookup(addr.RoundDown())
	if !ok {
		return nil, kernerr.BadAddress
	}
	if !opts.IgnorePermissions && (!pte.IsUser() || !pte.AccessType().SupersetOf(at)) {
		return nil, kernerr.BadAddress
	}
	return mm.mf.Frame(pte.Frame())[addr.PageOffset():], nil
}

// withFrames calls f for each page-sized piece of [addr, addr+length), with
// the piece's backing memory and its offset into the transfer. The page table
// is consulted again at every page boundary.
func (mm *MemoryManager) withFrames(addr hostarch.Addr, length int, at hostarch.AccessType, opts usermem.IOOpts, f func(mem []byte, done int) int) (int, error) {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	done := 0
	for done < length {
		cur, ok := addr.AddLength(uint64(done))
		if !ok {
			return done, kernerr.BadAddress
		}
		mem, err := mm.frameForLocked(cur, at, opts)
		if err != nil {
			return done, err
		}
		if rem := length - done; len(mem) > rem {
			mem = mem[:rem]
		}
		done += f(mem, done)
	}
	return done, nil
}

// CopyOut implements usermem.IO.CopyOut.
func (mm *MemoryManager) CopyOut(ctx context.Context, addr hostarch.Addr, src []byte, opts usermem.IOOpts) (int, error) {
	return mm.withFrames(addr, len(src), hostarch.Write, opts, func(mem []byte, done int) int {
		return copy(mem, src[done:])
	})
}

// CopyIn implements usermem.IO.CopyIn.
func (mm *MemoryManager) CopyIn(ctx context.Context, addr hostarch.Addr, dst []byte, opts usermem.IOOpts) (int, error) {
	return mm.withFrames(addr, len(dst), hostarch.Read, opts, func(mem []byte, done int) int {
		return copy(dst[done:], mem)
	})
}

// CopyInString copies a NUL-terminated string of at most maxlen bytes from
// addr into dst. See usermem.CopyInString.
func (mm *MemoryManager) CopyInString(ctx context.Context, addr hostarch.Addr, dst []byte, maxlen int) (int, error) {
	return usermem.CopyInString(ctx, mm, addr, dst, maxlen, usermem.IOOpts{})
}
