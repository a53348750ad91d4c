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

// Package kernel provides the syscall boundary of an emulated kernel: tasks,
// their trap snapshots, the syscall dispatcher and the lifecycle operations
// invoked through it.
//
// Lock order (outermost locks must be taken first):
//
//	TaskSet.mu
//	  Task.mu
//	    mm.MemoryManager.mu
//	      pgalloc.MemoryFile.mu
package kernel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trapgate.dev/trapgate/pkg/abi/linux"
	"trapgate.dev/trapgate/pkg/log"
	"trapgate.dev/trapgate/pkg/sentry/devices/console"
	"trapgate.dev/trapgate/pkg/sentry/ktime"
	"trapgate.dev/trapgate/pkg/sentry/loader"
	"trapgate.dev/trapgate/pkg/sentry/mm"
	"trapgate.dev/trapgate/pkg/sentry/pgalloc"
)

// defaultUnknownSyscallLogInterval is the minimum time between two warnings
// about unbound syscall numbers.
const defaultUnknownSyscallLogInterval = time.Second

// Kernel represents an emulated kernel. It must be initialized by calling
// Init().
type Kernel struct {
	ctx context.Context

	mf      pgalloc.Allocator
	clock   ktime.Clock
	console console.Device
	images  *loader.Registry

	// tasks is the registry of all tasks.
	tasks *TaskSet

	// sched receives lifecycle requests. It is tasks unless Init was given
	// another implementation.
	sched Scheduler

	st *SyscallTable

	// unknownSyscallLog reports syscall numbers with no binding.
	unknownSyscallLog log.Logger

	maxStrLen int
	strace    bool
}

// InitKernelArgs holds arguments to Init.
type InitKernelArgs struct {
	// Context is used for memory operations performed on behalf of tasks.
	// If nil, context.Background() is used.
	Context context.Context

	// MemoryFile is the physical frame pool.
	MemoryFile pgalloc.Allocator

	// Clock is the cycle counter used for timestamps.
	Clock ktime.Clock

	// Console backs file descriptors 0 and 1. If nil, an empty in-memory
	// buffer is used.
	Console console.Device

	// Images holds the programs available to exec. If nil, an empty
	// registry is used.
	Images *loader.Registry

	// SyscallTable is the table used to dispatch traps.
	SyscallTable *SyscallTable

	// Scheduler overrides the default lifecycle implementation.
	Scheduler Scheduler

	// MaxStrLen caps the bytes moved by one read or write. Zero means
	// linux.MaxStrLen.
	MaxStrLen int

	// UnknownSyscallLogInterval is the minimum interval between warnings
	// about unbound syscall numbers. Zero means one second.
	UnknownSyscallLogInterval time.Duration

	// Strace logs every syscall and its result at Info.
	Strace bool
}

// Init initialize the Kernel with no tasks.
func (k *Kernel) Init(args InitKernelArgs) error {
	if args.MemoryFile == nil {
		return errors.New("MemoryFile is nil")
	}
	if args.Clock == nil {
		return errors.New("Clock is nil")
	}
	if args.SyscallTable == nil {
		return errors.New("SyscallTable is nil")
	}
	if args.MaxStrLen < 0 {
		return fmt.Errorf("invalid MaxStrLen %d", args.MaxStrLen)
	}

	k.ctx = args.Context
	if k.ctx == nil {
		k.ctx = context.Background()
	}
	k.mf = args.MemoryFile
	k.clock = args.Clock
	k.console = args.Console
	if k.console == nil {
		k.console = console.NewBuffer("")
	}
	k.images = args.Images
	if k.images == nil {
		k.images = loader.NewRegistry()
	}
	k.st = args.SyscallTable
	k.tasks = newTaskSet(k)
	k.sched = args.Scheduler
	if k.sched == nil {
		k.sched = k.tasks
	}
	k.maxStrLen = args.MaxStrLen
	if k.maxStrLen == 0 {
		k.maxStrLen = linux.MaxStrLen
	}
	every := args.UnknownSyscallLogInterval
	if every == 0 {
		every = defaultUnknownSyscallLogInterval
	}
	k.unknownSyscallLog = log.BasicRateLimitedLogger(every)
	k.strace = args.Strace
	return nil
}

// CreateProcess creates a root task (one with no parent) running the image
// called name.
func (k *Kernel) CreateProcess(name string) (*Task, error) {
	img, err := k.images.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("creating process %q: %w", name, err)
	}
	m := mm.NewMemoryManager(k.mf)
	if err := loader.Load(k.ctx, m, img); err != nil {
		m.Release(k.ctx)
		return nil, fmt.Errorf("creating process %q: %w", name, err)
	}
	t := k.tasks.newTask(0, m, img.Name)
	t.regs.Sepc = uintptr(img.Entry)
	log.Infof("Created process %q as task %v", img.Name, t.tid)
	return t, nil
}

// MemoryFile returns the physical frame pool.
func (k *Kernel) MemoryFile() pgalloc.Allocator {
	return k.mf
}

// Clock returns the kernel's cycle counter.
func (k *Kernel) Clock() ktime.Clock {
	return k.clock
}

// Console returns the console device.
func (k *Kernel) Console() console.Device {
	return k.console
}

// Images returns the program registry used by exec.
func (k *Kernel) Images() *loader.Registry {
	return k.images
}

// TaskSet returns the kernel's task registry.
func (k *Kernel) TaskSet() *TaskSet {
	return k.tasks
}

// Scheduler returns the lifecycle collaborator.
func (k *Kernel) Scheduler() Scheduler {
	return k.sched
}

// SyscallTable returns the table used for dispatch.
func (k *Kernel) SyscallTable() *SyscallTable {
	return k.st
}

// MaxStrLen returns the per-call cap on bytes moved by read and write.
func (k *Kernel) MaxStrLen() int {
	return k.maxStrLen
}

// Context returns the context used for memory operations.
func (k *Kernel) Context() context.Context {
	return k.ctx
}
