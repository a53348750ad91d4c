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

// Package kernerr contains the error values returned across the syscall
// boundary, exported as *errors.Error pointers so that they can be compared
// directly and converted to a result sentinel in one place.
package kernerr

import (
	goerrors "errors"

	"golang.org/x/sys/unix"
	"trapgate.dev/trapgate/pkg/errors"
)

// Failure is the value written to the result register when a syscall fails.
const Failure = -1

// Pending is the value written to the result register by wait when the child
// exists but has not exited yet.
const Pending = -2

// The memory and dispatch errors. Several share an errno; they remain
// distinct values so that callers and tests can tell them apart.
var (
	BadAddress         = errors.New(unix.EFAULT, "bad address")
	InvalidAlignment   = errors.New(unix.EINVAL, "address not page aligned")
	InvalidPermissions = errors.New(unix.EINVAL, "invalid permission mask")
	OutOfMemory        = errors.New(unix.ENOMEM, "out of physical frames")
	AlreadyMapped      = errors.New(unix.EEXIST, "page already mapped")
	NotMapped          = errors.New(unix.EINVAL, "page not mapped")
	UnknownSyscall     = errors.New(unix.ENOSYS, "unknown syscall number")
	BadFileDescriptor  = errors.New(unix.EBADF, "bad file descriptor")
)

// Lifecycle errors reported by the scheduler collaborator.
var (
	NoChild       = errors.New(unix.ECHILD, "no such child process")
	ChildRunning  = errors.New(unix.EAGAIN, "child has not exited")
	NoSuchImage   = errors.New(unix.ENOENT, "no such program image")
	Unimplemented = errors.New(unix.ENOSYS, "syscall not implemented")
)

// Sentinel converts a handler error into the negative value returned to user
// space.
func Sentinel(err error) int64 {
	if goerrors.Is(err, ChildRunning) {
		return Pending
	}
	return Failure
}

// ToUnix returns the errno carried by err, or EIO if err is not a kernel
// error.
func ToUnix(err error) unix.Errno {
	if err == nil {
		return 0
	}
	var kerr *errors.Error
	if goerrors.As(err, &kerr) {
		return kerr.Errno()
	}
	var errno unix.Errno
	if goerrors.As(err, &errno) {
		return errno
	}
	return unix.EIO
}
