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

package pgalloc

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"trapgate.dev/trapgate/pkg/errors/kernerr"
	"trapgate.dev/trapgate/pkg/hostarch"
)

func TestAllocateExhaustion(t *testing.T) {
	f, err := NewMemoryFile(3)
	if err != nil {
		t.Fatalf("NewMemoryFile: %v", err)
	}
	var got []FrameNumber
	for i := 0; i < 3; i++ {
		fn, err := f.Allocate()
		if err != nil {
			t.Fatalf("Allocate #%d: %v", i, err)
		}
		got = append(got, fn)
	}
	if diff := cmp.Diff([]FrameNumber{0, 1, 2}, got); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
	if _, err := f.Allocate(); !errors.Is(err, kernerr.OutOfMemory) {
		t.Errorf("Allocate on full pool: got %v, want %v", err, kernerr.OutOfMemory)
	}
	if used, total := f.Usage(); used != 3 || total != 3 {
		t.Errorf("Usage(): got (%d, %d), want (3, 3)", used, total)
	}
}

func TestFreeAndReuse(t *testing.T) {
	f, _ := NewMemoryFile(2)
	a, _ := f.Allocate()
	b, _ := f.Allocate()
	if err := f.Free(a); err != nil {
		t.Fatalf("Free(%d): %v", a, err)
	}
	if err := f.Free(a); err == nil {
		t.Errorf("double Free(%d) succeeded", a)
	}
	if err := f.Free(FrameNumber(99)); err == nil {
		t.Errorf("Free of out-of-range frame succeeded")
	}
	c, err := f.Allocate()
	if err != nil || c != a {
		t.Errorf("Allocate after free: got (%d, %v), want (%d, nil)", c, err, a)
	}
	if diff := cmp.Diff([]FrameNumber{a, b}, f.Allocated()); diff != "" {
		t.Errorf("Allocated() mismatch (-want +got):\n%s", diff)
	}
}

func TestAllocateZeroes(t *testing.T) {
	f, _ := NewMemoryFile(1)
	fn, _ := f.Allocate()
	frame := f.Frame(fn)
	if len(frame) != hostarch.PageSize {
		t.Fatalf("len(Frame()): got %d, want %d", len(frame), hostarch.PageSize)
	}
	for i := range frame {
		frame[i] = 0xff
	}
	f.Free(fn)
	fn, _ = f.Allocate()
	for i, b := range f.Frame(fn) {
		if b != 0 {
			t.Fatalf("byte %d of reallocated frame: got %#x, want 0", i, b)
		}
	}
}

func TestNewMemoryFileEmpty(t *testing.T) {
	if _, err := NewMemoryFile(0); err == nil {
		t.Errorf("NewMemoryFile(0) succeeded")
	}
}

func TestFrameCounters(t *testing.T) {
	f, _ := NewMemoryFile(4)
	allocBefore, freeBefore := framesAllocated.Value(), framesFreed.Value()
	fn, _ := f.Allocate()
	f.Free(fn)
	if got := framesAllocated.Value() - allocBefore; got != 1 {
		t.Errorf("frames_allocated delta: got %d, want 1", got)
	}
	if got := framesFreed.Value() - freeBefore; got != 1 {
		t.Errorf("frames_freed delta: got %d, want 1", got)
	}
}
