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

// Package arch provides the register state saved at a user trap on a 64-bit
// RISC-V hart, and typed access to system call arguments.
package arch

import (
	"fmt"

	"trapgate.dev/trapgate/pkg/hostarch"
)

// Arch describes an architecture.
type Arch int

const (
	// RISCV64 is the 64-bit RISC-V architecture.
	RISCV64 Arch = iota
)

// String implements fmt.Stringer.
func (a Arch) String() string {
	switch a {
	case RISCV64:
		return "riscv64"
	default:
		return fmt.Sprintf("Arch(%d)", a)
	}
}

// Argument registers.
const (
	A0 = iota
	A1
	A2
	A3
	A4
	A5
	A6
	A7

	numArgRegs
)

// Registers is the trap snapshot of a task: the argument registers and the
// saved user program counter.
//
// System calls take their number from a7 and their arguments from a0..a5; the
// result is returned in a0.
type Registers struct {
	A    [numArgRegs]uintptr
	Sepc uintptr
}

// SyscallNo returns the system call number in a7.
func (r *Registers) SyscallNo() uintptr {
	return r.A[A7]
}

// SyscallArgs returns the arguments in a0..a5.
func (r *Registers) SyscallArgs() SyscallArguments {
	var args SyscallArguments
	for i := range args {
		args[i].Value = r.A[A0+i]
	}
	return args
}

// Return returns the return value for a system call.
func (r *Registers) Return() uintptr {
	return r.A[A0]
}

// SetReturn sets the return value for a system call.
func (r *Registers) SetReturn(value uintptr) {
	r.A[A0] = value
}

// SetSyscall loads a system call number and arguments, as user code does
// before executing ecall. Unspecified arguments are zero.
func (r *Registers) SetSyscall(sysno uintptr, args ...uintptr) {
	if len(args) > len(SyscallArguments{}) {
		panic(fmt.Sprintf("syscall takes at most 6 arguments, got %d", len(args)))
	}
	for i := A0; i <= A5; i++ {
		r.A[i] = 0
	}
	copy(r.A[A0:], args)
	r.A[A7] = sysno
}

// String implements fmt.Stringer.String.
func (r *Registers) String() string {
	return fmt.Sprintf("a7=%d a0=%#x a1=%#x a2=%#x a3=%#x a4=%#x a5=%#x sepc=%#x",
		r.A[A7], r.A[A0], r.A[A1], r.A[A2], r.A[A3], r.A[A4], r.A[A5], r.Sepc)
}

// SyscallArgument is an argument supplied to a syscall implementation. The
// methods used to access the arguments are named after the ***C type name*** and
// they convert to the closest Go type available. For example, Int() refers to a
// 32-bit signed integer argument represented in Go as an int32.
type SyscallArgument struct {
	// Prefer to use accessor methods instead of 'Value' directly.
	Value uintptr
}

// SyscallArguments represents the set of arguments passed to a syscall.
type SyscallArguments [6]SyscallArgument

// Pointer returns the hostarch.Addr representation of a pointer argument.
func (a SyscallArgument) Pointer() hostarch.Addr {
	return hostarch.Addr(a.Value)
}

// Int returns the int32 representation of a 32-bit signed integer argument.
func (a SyscallArgument) Int() int32 {
	return int32(a.Value)
}

// Uint returns the uint32 representation of a 32-bit unsigned integer argument.
func (a SyscallArgument) Uint() uint32 {
	return uint32(a.Value)
}

// Int64 returns the int64 representation of a 64-bit signed integer argument.
func (a SyscallArgument) Int64() int64 {
	return int64(a.Value)
}

// Uint64 returns the uint64 representation of a 64-bit unsigned integer argument.
func (a SyscallArgument) Uint64() uint64 {
	return uint64(a.Value)
}

// SizeT returns the uint representation of a size_t argument.
func (a SyscallArgument) SizeT() uint {
	return uint(a.Value)
}
