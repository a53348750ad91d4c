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
	"sort"

	"trapgate.dev/trapgate/pkg/abi"
	"trapgate.dev/trapgate/pkg/log"
	"trapgate.dev/trapgate/pkg/metric"
	"trapgate.dev/trapgate/pkg/sentry/arch"
)

// maxSyscallNum is the highest supported syscall number.
//
// The types below create fast lookup slices for all syscalls. This maximum
// serves as a sanity check that we don't allocate huge slices for a very
// large syscall number.
const maxSyscallNum = 2000

// SyscallSupportLevel is a syscall support levels.
type SyscallSupportLevel int

// String returns a human readable representation of the support level.
func (l SyscallSupportLevel) String() string {
	switch l {
	case SupportUnimplemented:
		return "Unimplemented"
	case SupportPartial:
		return "Partial Support"
	case SupportFull:
		return "Full Support"
	default:
		return "Undocumented"
	}
}

const (
	// SupportUndocumented indicates the syscall is not documented yet.
	SupportUndocumented = iota

	// SupportUnimplemented indicates the syscall is unimplemented.
	SupportUnimplemented

	// SupportPartial indicates the syscall is partially supported.
	SupportPartial

	// SupportFull indicates the syscall is fully supported.
	SupportFull
)

// Syscall includes the syscall implementation and compatibility information.
type Syscall struct {
	// Name is the syscall name.
	Name string
	// Fn is the implementation of the syscall.
	Fn SyscallFn
	// SupportLevel is the level of support implemented.
	SupportLevel SyscallSupportLevel
	// Note describes the compatibility of the syscall.
	Note string
	// URLs is set of URLs to any relevant bugs or issues.
	URLs []string
}

// SyscallFn is a syscall implementation.
type SyscallFn func(t *Task, args arch.SyscallArguments) (uintptr, *SyscallControl, error)

// SyscallControl is returned by syscalls to control the behavior of
// Task.Syscall.
type SyscallControl struct {
	// exit is true if the task has exited and its registers must not be
	// written back.
	exit bool
}

// CtrlDoExit is returned by the implementations of the exit syscall to
// suppress the result write-back.
var CtrlDoExit = &SyscallControl{exit: true}

// SyscallTable is a lookup table of system calls.
//
// Note that a SyscallTable is not savable directly. Instead, they are saved as
// an OS/Arch pair and lookup happens again on restore.
type SyscallTable struct {
	// OS is the operating system that this syscall table implements.
	OS abi.OS

	// Arch is the architecture that this syscall table targets.
	Arch arch.Arch

	// Table is the collection of functions.
	Table map[uintptr]Syscall

	// lookup is a fixed-size array that holds the syscalls (indexed by
	// their numbers). It is used for fast look ups.
	lookup [maxSyscallNum + 1]SyscallFn

	// names is indexed like lookup.
	names [maxSyscallNum + 1]string

	// counts is the /kernel/syscalls metric of this table, or nil if the
	// table was not registered.
	counts *metric.Uint64Metric
}

// allSyscallTables contains all known tables.
var allSyscallTables []*SyscallTable

// SyscallTables returns a read-only slice of registered SyscallTables.
func SyscallTables() []*SyscallTable {
	return allSyscallTables
}

// LookupSyscallTable returns the SyscallCall table for the OS/Arch combo.
func LookupSyscallTable(os abi.OS, a arch.Arch) (*SyscallTable, bool) {
	for _, s := range allSyscallTables {
		if s.OS == os && s.Arch == a {
			return s, true
		}
	}
	return nil, false
}

// RegisterSyscallTable registers a new syscall table for use by a Kernel.
// It also creates the table's per-syscall invocation metric.
func RegisterSyscallTable(s *SyscallTable) {
	if _, ok := LookupSyscallTable(s.OS, s.Arch); ok {
		panic(fmt.Sprintf("Duplicate SyscallTable registered for OS %v Arch %v", s.OS, s.Arch))
	}
	s.Init()
	if names := s.boundNames(); len(names) > 0 {
		m, err := metric.NewUint64Metric("/kernel/syscalls", "Number of invocations of each bound syscall.", metric.NewField("name", names))
		if err != nil {
			log.Warningf("Syscall counts for %v/%v are not exported: %v", s.OS, s.Arch, err)
		} else {
			s.counts = m
		}
	}
	allSyscallTables = append(allSyscallTables, s)
}

// Init initializes the system call table.
//
// This should normally be called only during registration.
func (s *SyscallTable) Init() {
	for num, sc := range s.Table {
		if num > maxSyscallNum {
			panic(fmt.Sprintf("syscall %d (%s) is above the maximum %d", num, sc.Name, maxSyscallNum))
		}
		s.lookup[num] = sc.Fn
		s.names[num] = sc.Name
	}
}

// boundNames returns the sorted, distinct names of the table's syscalls.
func (s *SyscallTable) boundNames() []string {
	seen := make(map[string]struct{}, len(s.Table))
	names := make([]string, 0, len(s.Table))
	for _, sc := range s.Table {
		if sc.Name == "" {
			continue
		}
		if _, ok := seen[sc.Name]; ok {
			continue
		}
		seen[sc.Name] = struct{}{}
		names = append(names, sc.Name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the syscall implementation, if one exists.
func (s *SyscallTable) Lookup(sysno uintptr) SyscallFn {
	if sysno <= maxSyscallNum {
		return s.lookup[sysno]
	}
	return nil
}

// LookupName looks up a syscall name.
func (s *SyscallTable) LookupName(sysno uintptr) string {
	if sysno <= maxSyscallNum && s.names[sysno] != "" {
		return s.names[sysno]
	}
	return fmt.Sprintf("sys_%d", sysno)
}

// LookupNo looks up a syscall number by name.
func (s *SyscallTable) LookupNo(name string) (uintptr, error) {
	for i, sc := range s.Table {
		if sc.Name == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("syscall %q not found", name)
}

// Numbers returns the bound syscall numbers in ascending order.
func (s *SyscallTable) Numbers() []uintptr {
	nums := make([]uintptr, 0, len(s.Table))
	for num := range s.Table {
		nums = append(nums, num)
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })
	return nums
}

// mapLookup is similar to Lookup, except that it only uses the syscall table,
// that is, it skips the fast lookup array. This is available for benchmarking.
func (s *SyscallTable) mapLookup(sysno uintptr) SyscallFn {
	if sc, ok := s.Table[sysno]; ok {
		return sc.Fn
	}
	return nil
}

// countSyscall records an invocation of the bound syscall sysno.
func (s *SyscallTable) countSyscall(sysno uintptr) {
	if s.counts != nil && s.names[sysno] != "" {
		s.counts.Increment(s.names[sysno])
	}
}
