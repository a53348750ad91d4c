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

package kernel

import (
	"fmt"
	"sync"

	"trapgate.dev/trapgate/pkg/abi/linux"
	"trapgate.dev/trapgate/pkg/hostarch"
	"trapgate.dev/trapgate/pkg/marshal"
	"trapgate.dev/trapgate/pkg/sentry/arch"
	"trapgate.dev/trapgate/pkg/sentry/mm"
	"trapgate.dev/trapgate/pkg/usermem"
)

// Task represents a single process.
//
// A Task is driven by one goroutine at a time. Fields not guarded by mu may
// only be touched by that goroutine.
type Task struct {
	k *Kernel

	// tid and parent are immutable. parent is zero for a root task; it is
	// a weak reference resolved through the TaskSet.
	tid    ThreadID
	parent ThreadID

	// regs is the trap snapshot. It is owned by the task goroutine.
	regs arch.Registers

	// startCycles is the clock value when the task was created.
	startCycles uint64

	mu sync.Mutex

	// syscallCounts counts invocations per syscall number. Entries never
	// decrease.
	// +checklocks:mu
	syscallCounts [linux.MaxSyscallNum]uint32

	// image is the memory manager, or nil once the task has exited.
	// +checklocks:mu
	image *mm.MemoryManager

	// name is the name of the program the task is running.
	// +checklocks:mu
	name string

	// +checklocks:mu
	status linux.TaskStatus

	// +checklocks:mu
	exitCode int32
}

// Kernel returns the kernel the task belongs to.
func (t *Task) Kernel() *Kernel {
	return t.k
}

// ThreadID returns t's pid.
func (t *Task) ThreadID() ThreadID {
	return t.tid
}

// Arch returns t's trap snapshot.
//
// Preconditions: The caller must be running on the task goroutine, or t.mu
// must be locked.
func (t *Task) Arch() *arch.Registers {
	return &t.regs
}

// MemoryManager returns t's memory manager, or nil if t has exited.
func (t *Task) MemoryManager() *mm.MemoryManager {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.image
}

// Name returns the name of the program t is running.
func (t *Task) Name() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.name
}

// Status returns t's scheduling state.
func (t *Task) Status() linux.TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Exited returns true if t has exited.
func (t *Task) Exited() bool {
	return t.Status() == linux.TaskExited
}

// ExitCode returns t's exit code. ok is false if t is still running.
func (t *Task) ExitCode() (code int32, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.exitCode, t.status == linux.TaskExited
}

// SyscallCount returns the number of times t invoked syscall sysno.
func (t *Task) SyscallCount(sysno uintptr) uint32 {
	if sysno >= linux.MaxSyscallNum {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.syscallCounts[sysno]
}

// String implements fmt.Stringer.
func (t *Task) String() string {
	return fmt.Sprintf("task %v (%s)", t.tid, t.Name())
}

// memoryManager returns t.image, or an error if t no longer has an address
// space.
func (t *Task) memoryManager() (*mm.MemoryManager, error) {
	m := t.MemoryManager()
	if m == nil {
		return nil, fmt.Errorf("%v has no address space", t)
	}
	return m, nil
}

var _ marshal.CopyContext = (*Task)(nil)

// CopyOutBytes implements marshal.CopyContext.CopyOutBytes.
func (t *Task) CopyOutBytes(addr hostarch.Addr, src []byte) (int, error) {
	m, err := t.memoryManager()
	if err != nil {
		return 0, err
	}
	return m.CopyOut(t.k.ctx, addr, src, usermem.IOOpts{})
}

// CopyInBytes implements marshal.CopyContext.CopyInBytes.
func (t *Task) CopyInBytes(addr hostarch.Addr, dst []byte) (int, error) {
	m, err := t.memoryManager()
	if err != nil {
		return 0, err
	}
	return m.CopyIn(t.k.ctx, addr, dst, usermem.IOOpts{})
}

// CopyOutObject marshals src into t's memory at addr.
func (t *Task) CopyOutObject(addr hostarch.Addr, src marshal.Marshallable) (int, error) {
	m, err := t.memoryManager()
	if err != nil {
		return 0, err
	}
	return usermem.CopyObjectOut(t.k.ctx, m, addr, src, usermem.IOOpts{})
}

// CopyInObject copies a serialized object from t's memory at addr into dst.
func (t *Task) CopyInObject(addr hostarch.Addr, dst marshal.Marshallable) (int, error) {
	m, err := t.memoryManager()
	if err != nil {
		return 0, err
	}
	return usermem.CopyObjectIn(t.k.ctx, m, addr, dst, usermem.IOOpts{})
}

// CopyInString copies a NUL-terminated string of at most maxlen bytes from
// addr. The terminator is not included in the result. If no NUL byte is found
// within maxlen bytes, the first maxlen bytes are returned.
func (t *Task) CopyInString(addr hostarch.Addr, maxlen int) (string, error) {
	m, err := t.memoryManager()
	if err != nil {
		return "", err
	}
	if maxlen < 0 {
		maxlen = 0
	}
	buf := make([]byte, maxlen)
	n, err := m.CopyInString(t.k.ctx, addr, buf, maxlen)
	if err != nil {
		return "", err
	}
	if n > 0 && buf[n-1] == 0 {
		n--
	}
	return string(buf[:n]), nil
}
