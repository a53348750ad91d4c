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
	"trapgate.dev/trapgate/pkg/errors/kernerr"
	"trapgate.dev/trapgate/pkg/sentry/devices/console"
	"trapgate.dev/trapgate/pkg/sentry/kernel"
)

// ioLen caps a read or write length at the kernel's per-call limit.
func ioLen(t *kernel.Task, n uint64) int {
	if limit := uint64(t.Kernel().MaxStrLen()); n > limit {
		return int(limit)
	}
	return int(n)
}

// Read implements read(2) on standard input.
//
// Bytes are taken from the console until the buffer is full or the console
// has no more input. It returns the number of bytes read.
func Read(t *kernel.Task, r *IORequest) (uintptr, *kernel.SyscallControl, error) {
	if r.FD != linux.STDIN_FILENO {
		return 0, nil, kernerr.BadFileDescriptor
	}
	buf := make([]byte, ioLen(t, r.Len))
	n, err := console.Read(t.Kernel().Console(), buf)
	if err != nil {
		return 0, nil, err
	}
	if _, err := t.CopyOutBytes(r.Buf, buf[:n]); err != nil {
		return 0, nil, err
	}
	return uintptr(n), nil, nil
}

// Write implements write(2) on standard output.
//
// The buffer is read as a string: copying stops at the first NUL byte, which
// is not written.
func Write(t *kernel.Task, r *IORequest) (uintptr, *kernel.SyscallControl, error) {
	if r.FD != linux.STDOUT_FILENO {
		return 0, nil, kernerr.BadFileDescriptor
	}
	s, err := t.CopyInString(r.Buf, ioLen(t, r.Len))
	if err != nil {
		return 0, nil, err
	}
	n, err := console.Write(t.Kernel().Console(), []byte(s))
	return uintptr(n), nil, err
}
