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
	"trapgate.dev/trapgate/pkg/sentry/kernel"
)

// Mmap implements mmap(2) for anonymous mappings at a fixed, page-aligned
// address.
func Mmap(t *kernel.Task, r *MmapRequest) (uintptr, *kernel.SyscallControl, error) {
	m := t.MemoryManager()
	if m == nil {
		return 0, nil, errNoAddressSpace
	}
	if err := m.MMap(t.Kernel().Context(), r.Start, r.Len, r.Prot); err != nil {
		return 0, nil, err
	}
	return 0, nil, nil
}

// Munmap implements munmap(2) for regions created by mmap.
func Munmap(t *kernel.Task, r *MunmapRequest) (uintptr, *kernel.SyscallControl, error) {
	m := t.MemoryManager()
	if m == nil {
		return 0, nil, errNoAddressSpace
	}
	if err := m.MUnmap(t.Kernel().Context(), r.Start, r.Len); err != nil {
		return 0, nil, err
	}
	return 0, nil, nil
}
