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

// Package pgalloc contains the physical frame pool backing all user memory.
//
// Frames are page-sized slices of one contiguous host allocation. A frame is
// owned by at most one page table entry at a time; the pool itself does no
// reference counting.
package pgalloc

import (
	"fmt"
	"sync"

	"trapgate.dev/trapgate/pkg/bitmap"
	"trapgate.dev/trapgate/pkg/errors/kernerr"
	"trapgate.dev/trapgate/pkg/hostarch"
	"trapgate.dev/trapgate/pkg/metric"
)

var (
	framesAllocated = metric.MustCreateNewUint64Metric("/pgalloc/frames_allocated", "Number of physical frames handed out.")
	framesFreed     = metric.MustCreateNewUint64Metric("/pgalloc/frames_freed", "Number of physical frames returned to the pool.")
)

// FrameNumber identifies a physical frame in a MemoryFile.
type FrameNumber uint64

// Allocator is the frame allocator used by the memory manager.
type Allocator interface {
	// Allocate returns a zeroed frame, or kernerr.OutOfMemory if the pool
	// is exhausted.
	Allocate() (FrameNumber, error)

	// Free returns fn to the pool.
	Free(fn FrameNumber) error

	// Frame returns the page-sized backing memory of fn.
	Frame(fn FrameNumber) []byte
}

// MemoryFile is the default Allocator: a fixed pool of frames with a bitmap
// of allocated frames.
type MemoryFile struct {
	// mu protects the fields below.
	mu sync.Mutex

	// mem holds every frame contiguously. It is never resized, so slices
	// returned by Frame remain valid.
	mem []byte

	// used has a bit set for each allocated frame.
	used bitmap.Bitmap

	// next is where the next search for a free frame starts.
	next uint32
}

var _ Allocator = (*MemoryFile)(nil)

// NewMemoryFile creates a pool of frames frames.
func NewMemoryFile(frames uint32) (*MemoryFile, error) {
	if frames == 0 {
		return nil, fmt.Errorf("memory file needs at least one frame")
	}
	return &MemoryFile{
		mem:  make([]byte, uint64(frames)*hostarch.PageSize),
		used: bitmap.New(frames),
	}, nil
}

// Allocate implements Allocator.Allocate.
func (f *MemoryFile) Allocate() (FrameNumber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bit, err := f.used.FirstZero(f.next)
	if err != nil && f.next != 0 {
		bit, err = f.used.FirstZero(0)
	}
	if err != nil {
		return 0, kernerr.OutOfMemory
	}
	f.used.Add(bit)
	f.next = (bit + 1) % f.used.Size()

	fn := FrameNumber(bit)
	clear(f.frameLocked(fn))
	framesAllocated.Increment()
	return fn, nil
}

// Free implements Allocator.Free.
func (f *MemoryFile) Free(fn FrameNumber) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if fn >= FrameNumber(f.used.Size()) || !f.used.Contains(uint32(fn)) {
		return fmt.Errorf("free of unallocated frame %d", fn)
	}
	f.used.Remove(uint32(fn))
	framesFreed.Increment()
	return nil
}

// Frame implements Allocator.Frame.
func (f *MemoryFile) Frame(fn FrameNumber) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frameLocked(fn)
}

// Preconditions: f.mu must be locked.
func (f *MemoryFile) frameLocked(fn FrameNumber) []byte {
	off := uint64(fn) * hostarch.PageSize
	return f.mem[off : off+hostarch.PageSize : off+hostarch.PageSize]
}

// Usage returns the number of allocated frames and the pool size.
func (f *MemoryFile) Usage() (used, total uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.used.GetNumOnes(), f.used.Size()
}

// Allocated returns the allocated frame numbers in ascending order.
func (f *MemoryFile) Allocated() []FrameNumber {
	f.mu.Lock()
	defer f.mu.Unlock()
	bits := f.used.ToSlice()
	fns := make([]FrameNumber, len(bits))
	for i, b := range bits {
		fns[i] = FrameNumber(b)
	}
	return fns
}
