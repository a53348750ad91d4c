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
	"fmt"
	"strings"

	"trapgate.dev/trapgate/pkg/hostarch"
	"trapgate.dev/trapgate/pkg/sentry/pagetables"
)

// Mapping is a run of contiguous pages with identical flags.
type Mapping struct {
	Range     hostarch.AddrRange
	Perms     hostarch.AccessType
	Anonymous bool
}

// String returns the mapping formatted like a /proc/[pid]/maps line, without
// the trailing newline.
func (m Mapping) String() string {
	name := "[image]"
	if m.Anonymous {
		name = "[anon]"
	}
	return fmt.Sprintf("%08x-%08x %sp %s", uintptr(m.Range.Start), uintptr(m.Range.End), m.Perms, name)
}

// Mappings returns the address space as coalesced regions in ascending
// order.
func (mm *MemoryManager) Mappings() []Mapping {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	var (
		out     []Mapping
		curFlag pagetables.PTE
	)
	mm.pt.Walk(func(addr hostarch.Addr, pte pagetables.PTE) bool {
		flags := pte.Flags()
		if n := len(out); n > 0 && out[n-1].Range.End == addr && curFlag == flags {
			out[n-1].Range.End += hostarch.PageSize
			return true
		}
		out = append(out, Mapping{
			Range:     hostarch.AddrRange{Start: addr, End: addr + hostarch.PageSize},
			Perms:     pte.AccessType(),
			Anonymous: pte.IsAnonymous(),
		})
		curFlag = flags
		return true
	})
	return out
}

// MapsString returns the whole address space in /proc/[pid]/maps format.
func (mm *MemoryManager) MapsString() string {
	var b strings.Builder
	for _, m := range mm.Mappings() {
		b.WriteString(m.String())
		b.WriteByte('\n')
	}
	return b.String()
}
