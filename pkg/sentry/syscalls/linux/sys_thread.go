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

package linux

import (
	"trapgate.dev/trapgate/pkg/abi/linux"
	"trapgate.dev/trapgate/pkg/log"
	"trapgate.dev/trapgate/pkg/marshal/primitive"
	"trapgate.dev/trapgate/pkg/sentry/kernel"
)

// Getpid implements linux syscall getpid(2).
func Getpid(t *kernel.Task, _ *NoArgs) (uintptr, *kernel.SyscallControl, error) {
	pid, _ := t.Identity()
	return uintptr(pid), nil, nil
}

// Getppid implements linux syscall getppid(2).
func Getppid(t *kernel.Task, _ *NoArgs) (uintptr, *kernel.SyscallControl, error) {
	_, ppid := t.Identity()
	return uintptr(ppid), nil, nil
}

// Exit implements linux syscall exit(2).
func Exit(t *kernel.Task, r *ExitRequest) (uintptr, *kernel.SyscallControl, error) {
	t.Kernel().Scheduler().Exit(t, r.Code)
	return 0, kernel.CtrlDoExit, nil
}

// Clone implements clone(2) as fork: the child gets a copy of the caller's
// address space and returns 0; the caller gets the child's pid.
func Clone(t *kernel.Task, _ *NoArgs) (uintptr, *kernel.SyscallControl, error) {
	child, err := t.Kernel().Scheduler().Fork(t)
	if err != nil {
		return 0, nil, err
	}
	return uintptr(child.ThreadID()), nil, nil
}

// Execve implements execve(2). The path names a registered image.
func Execve(t *kernel.Task, r *PathRequest) (uintptr, *kernel.SyscallControl, error) {
	name, err := t.CopyInString(r.Path, linux.MaxStrLen)
	if err != nil {
		return 0, nil, err
	}
	if err := t.Kernel().Scheduler().Exec(t, name); err != nil {
		return 0, nil, err
	}
	return 0, nil, nil
}

// Wait4 implements wait4(2) without blocking. It returns the pid of the
// reaped child; if the child exists but is still running the result is -2.
//
// The child is gone once reaped, so a status address that cannot be written
// does not fail the call: the pid is returned and the status is dropped.
func Wait4(t *kernel.Task, r *Wait4Request) (uintptr, *kernel.SyscallControl, error) {
	pid, code, err := t.Kernel().Scheduler().Wait(t, r.PID)
	if err != nil {
		return 0, nil, err
	}
	if r.Status != 0 {
		if _, err := primitive.CopyInt32Out(t, r.Status, code); err != nil {
			log.Debugf("[%v] wait4: dropping status %d of child %v: %v", t.ThreadID(), code, pid, err)
		}
	}
	return uintptr(pid), nil, nil
}
