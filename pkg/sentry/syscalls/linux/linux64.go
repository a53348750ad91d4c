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

// Package linux provides the syscall table for riscv64 user programs.
package linux

import (
	"trapgate.dev/trapgate/pkg/abi"
	"trapgate.dev/trapgate/pkg/abi/linux"
	"trapgate.dev/trapgate/pkg/errors/kernerr"
	"trapgate.dev/trapgate/pkg/sentry/arch"
	"trapgate.dev/trapgate/pkg/sentry/kernel"
	"trapgate.dev/trapgate/pkg/sentry/syscalls"
)

// RISCV64 is a table of the riscv64 syscall API. Numbers follow the generic
// Linux syscall numbering, with spawn and task_info at 400 and 410.
var RISCV64 = &kernel.SyscallTable{
	OS:   abi.Linux,
	Arch: arch.RISCV64,
	Table: map[uintptr]kernel.Syscall{
		linux.SYS_READ:         syscalls.PartiallySupported("read", bind(Read), "Standard input only; at most 200 bytes per call.", nil),
		linux.SYS_WRITE:        syscalls.PartiallySupported("write", bind(Write), "Standard output only; the buffer is copied as a NUL-terminated string of at most 200 bytes.", nil),
		linux.SYS_EXIT:         syscalls.Supported("exit", bind(Exit)),
		linux.SYS_SCHED_YIELD:  syscalls.Supported("sched_yield", bind(SchedYield)),
		linux.SYS_SET_PRIORITY: syscalls.ErrorWithEvent("set_priority", kernerr.Unimplemented, "Priorities are not implemented", nil),
		linux.SYS_GETTIMEOFDAY: syscalls.PartiallySupported("gettimeofday", bind(Gettimeofday), "Time is measured from boot; the timezone argument is ignored.", nil),
		linux.SYS_GETPID:       syscalls.Supported("getpid", bind(Getpid)),
		linux.SYS_GETPPID:      syscalls.Supported("getppid", bind(Getppid)),
		linux.SYS_MUNMAP:       syscalls.PartiallySupported("munmap", bind(Munmap), "Only whole mmap regions; fails without changes if any page was not mapped by mmap.", nil),
		linux.SYS_CLONE:        syscalls.PartiallySupported("clone", bind(Clone), "Behaves as fork; all arguments are ignored.", nil),
		linux.SYS_EXECVE:       syscalls.PartiallySupported("execve", bind(Execve), "Runs a registered image; argv and envp are ignored.", nil),
		linux.SYS_MMAP:         syscalls.PartiallySupported("mmap", bind(Mmap), "Anonymous mappings at a fixed address only; flags and fd are ignored.", nil),
		linux.SYS_WAIT4:        syscalls.PartiallySupported("wait4", bind(Wait4), "Never blocks: returns -2 while the child is running.", nil),
		linux.SYS_SPAWN:        syscalls.ErrorWithEvent("spawn", kernerr.Unimplemented, "Use clone and execve", nil),
		linux.SYS_TASK_INFO:    syscalls.Supported("task_info", bind(TaskInfo)),
	},
}

func init() {
	kernel.RegisterSyscallTable(RISCV64)
}
