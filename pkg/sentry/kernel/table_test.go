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
	"testing"

	"github.com/google/go-cmp/cmp"
	"trapgate.dev/trapgate/pkg/abi"
	"trapgate.dev/trapgate/pkg/metric"
	"trapgate.dev/trapgate/pkg/sentry/arch"
)

const (
	maxTestSyscall = 1000
)

func createSyscallTable() *SyscallTable {
	m := make(map[uintptr]Syscall)
	for i := uintptr(0); i <= maxTestSyscall; i++ {
		j := i
		m[i] = Syscall{
			Fn: func(*Task, arch.SyscallArguments) (uintptr, *SyscallControl, error) {
				return j, nil, nil
			},
		}
	}

	s := &SyscallTable{
		OS:    abi.Linux,
		Arch:  arch.RISCV64,
		Table: m,
	}

	RegisterSyscallTable(s)
	return s
}

func TestTable(t *testing.T) {
	table := createSyscallTable()
	defer func() {
		// Cleanup registered tables to keep tests separate.
		allSyscallTables = []*SyscallTable{}
	}()

	// Go through all functions and check that they return the right value.
	for i := uintptr(0); i < maxTestSyscall; i++ {
		fn := table.Lookup(i)
		if fn == nil {
			t.Errorf("Syscall %v is set to nil", i)
			continue
		}

		v, _, _ := fn(nil, arch.SyscallArguments{})
		if v != i {
			t.Errorf("Wrong return value for syscall %v: expected %v, got %v", i, i, v)
		}
	}

	// Check that values outside the range return nil.
	for i := uintptr(maxTestSyscall + 1); i < maxTestSyscall+100; i++ {
		fn := table.Lookup(i)
		if fn != nil {
			t.Errorf("Syscall %v is not nil: %v", i, fn)
			continue
		}
	}

	if table.counts != nil {
		t.Errorf("table without names got a syscall metric")
	}
}

func TestLookupSyscallTable(t *testing.T) {
	table := createSyscallTable()
	defer func() {
		allSyscallTables = []*SyscallTable{}
	}()

	got, ok := LookupSyscallTable(abi.Linux, arch.RISCV64)
	if !ok || got != table {
		t.Errorf("LookupSyscallTable(linux, riscv64): got (%p, %t), want (%p, true)", got, ok, table)
	}
	if _, ok := LookupSyscallTable(abi.Linux, arch.Arch(9)); ok {
		t.Errorf("LookupSyscallTable found a table for an unknown arch")
	}
	if n := len(SyscallTables()); n != 1 {
		t.Errorf("len(SyscallTables()): got %d, want 1", n)
	}
}

func TestRegisterDuplicateTablePanics(t *testing.T) {
	createSyscallTable()
	defer func() {
		allSyscallTables = []*SyscallTable{}
		if r := recover(); r == nil {
			t.Errorf("registering a second linux/riscv64 table did not panic")
		}
	}()
	createSyscallTable()
}

func TestTableNames(t *testing.T) {
	table := &SyscallTable{
		Table: map[uintptr]Syscall{
			64:  {Name: "write"},
			63:  {Name: "read"},
			410: {Name: "task_info"},
		},
	}
	table.Init()

	if got := table.LookupName(63); got != "read" {
		t.Errorf("LookupName(63): got %q, want %q", got, "read")
	}
	if got := table.LookupName(5); got != "sys_5" {
		t.Errorf("LookupName(5): got %q, want %q", got, "sys_5")
	}
	if got := table.LookupName(maxSyscallNum + 1); got != "sys_2001" {
		t.Errorf("LookupName(2001): got %q, want %q", got, "sys_2001")
	}
	if no, err := table.LookupNo("task_info"); err != nil || no != 410 {
		t.Errorf("LookupNo(task_info): got (%d, %v), want (410, nil)", no, err)
	}
	if _, err := table.LookupNo("fork"); err == nil {
		t.Errorf("LookupNo(fork) succeeded")
	}
	if diff := cmp.Diff([]uintptr{63, 64, 410}, table.Numbers()); diff != "" {
		t.Errorf("Numbers() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"read", "task_info", "write"}, table.boundNames()); diff != "" {
		t.Errorf("boundNames() mismatch (-want +got):\n%s", diff)
	}
}

func TestSupportLevelString(t *testing.T) {
	for level, want := range map[SyscallSupportLevel]string{
		SupportUndocumented:  "Undocumented",
		SupportUnimplemented: "Unimplemented",
		SupportPartial:       "Partial Support",
		SupportFull:          "Full Support",
	} {
		if got := level.String(); got != want {
			t.Errorf("%d.String(): got %q, want %q", level, got, want)
		}
	}
}

// TestSyscallMetric is the only test in this package that registers a table
// with named syscalls, and so the only one that creates /kernel/syscalls.
func TestSyscallMetric(t *testing.T) {
	table := &SyscallTable{
		OS:    abi.Linux,
		Arch:  arch.RISCV64,
		Table: testSyscalls(),
	}
	RegisterSyscallTable(table)
	defer func() {
		allSyscallTables = []*SyscallTable{}
	}()
	if table.counts == nil {
		t.Fatalf("RegisterSyscallTable did not create the syscall metric")
	}

	tk := newTestKernelWithTable(t, 64, table)
	task := tk.process(t)
	invoke(task, sysRet, 1)
	invoke(task, sysRet, 2)
	invoke(task, sysFail)
	invoke(task, 77)

	vals, ok := metric.Values()["/kernel/syscalls"].(map[string]uint64)
	if !ok {
		t.Fatalf("/kernel/syscalls is not a field metric: %v", metric.Values()["/kernel/syscalls"])
	}
	if got := vals["ret"]; got != 2 {
		t.Errorf("/kernel/syscalls{name=ret}: got %d, want 2", got)
	}
	if got := vals["fail"]; got != 1 {
		t.Errorf("/kernel/syscalls{name=fail}: got %d, want 1", got)
	}
	if _, ok := vals["sys_77"]; ok {
		t.Errorf("/kernel/syscalls has a value for an unbound number")
	}
}

func BenchmarkTableLookup(b *testing.B) {
	table := createSyscallTable()

	b.ResetTimer()

	j := uintptr(0)
	for i := 0; i < b.N; i++ {
		table.Lookup(j)
		j = (j + 1) % 310
	}

	b.StopTimer()
	// Cleanup registered tables to keep tests separate.
	allSyscallTables = []*SyscallTable{}
}

func BenchmarkTableMapLookup(b *testing.B) {
	table := createSyscallTable()

	b.ResetTimer()

	j := uintptr(0)
	for i := 0; i < b.N; i++ {
		table.mapLookup(j)
		j = (j + 1) % 310
	}

	b.StopTimer()
	// Cleanup registered tables to keep tests separate.
	allSyscallTables = []*SyscallTable{}
}
