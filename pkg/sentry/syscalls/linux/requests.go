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
	"trapgate.dev/trapgate/pkg/hostarch"
	"trapgate.dev/trapgate/pkg/sentry/arch"
	"trapgate.dev/trapgate/pkg/sentry/kernel"
)

// Request is the decoded argument set of one syscall. The set of request
// types is closed: decode is unexported, so only this package can add one.
type Request interface {
	// decode fills the request from the argument registers.
	decode(args arch.SyscallArguments)
}

// request constrains bind to pointers to request types.
type request[R any] interface {
	*R
	Request
}

// bind returns a SyscallFn that decodes the arguments into an R exactly once
// and passes it to handler.
func bind[R any, P request[R]](handler func(t *kernel.Task, r *R) (uintptr, *kernel.SyscallControl, error)) kernel.SyscallFn {
	return func(t *kernel.Task, args arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
		var r R
		P(&r).decode(args)
		return handler(t, &r)
	}
}

// NoArgs is the request of syscalls that take no arguments.
type NoArgs struct{}

func (*NoArgs) decode(arch.SyscallArguments) {}

// IORequest is the request of read and write.
type IORequest struct {
	FD  int32
	Buf hostarch.Addr
	Len uint64
}

func (r *IORequest) decode(args arch.SyscallArguments) {
	r.FD = args[0].Int()
	r.Buf = args[1].Pointer()
	r.Len = args[2].Uint64()
}

// ExitRequest is the request of exit.
type ExitRequest struct {
	Code int32
}

func (r *ExitRequest) decode(args arch.SyscallArguments) {
	r.Code = args[0].Int()
}

// GettimeofdayRequest is the request of gettimeofday. The timezone pointer
// is decoded but ignored.
type GettimeofdayRequest struct {
	TV hostarch.Addr
	TZ hostarch.Addr
}

func (r *GettimeofdayRequest) decode(args arch.SyscallArguments) {
	r.TV = args[0].Pointer()
	r.TZ = args[1].Pointer()
}

// MmapRequest is the request of mmap. Only anonymous fixed mappings exist,
// so Flags and FD are decoded but ignored.
type MmapRequest struct {
	Start hostarch.Addr
	Len   uint64
	Prot  uint64
	Flags uint64
	FD    int32
}

func (r *MmapRequest) decode(args arch.SyscallArguments) {
	r.Start = args[0].Pointer()
	r.Len = args[1].Uint64()
	r.Prot = args[2].Uint64()
	r.Flags = args[3].Uint64()
	r.FD = args[4].Int()
}

// MunmapRequest is the request of munmap.
type MunmapRequest struct {
	Start hostarch.Addr
	Len   uint64
}

func (r *MunmapRequest) decode(args arch.SyscallArguments) {
	r.Start = args[0].Pointer()
	r.Len = args[1].Uint64()
}

// PathRequest is the request of execve: a pointer to a NUL-terminated
// program name.
type PathRequest struct {
	Path hostarch.Addr
}

func (r *PathRequest) decode(args arch.SyscallArguments) {
	r.Path = args[0].Pointer()
}

// Wait4Request is the request of wait4. PID -1 selects any child; Status,
// if non-zero, receives the exit code.
type Wait4Request struct {
	PID    kernel.ThreadID
	Status hostarch.Addr
}

func (r *Wait4Request) decode(args arch.SyscallArguments) {
	r.PID = kernel.ThreadID(args[0].Int())
	r.Status = args[1].Pointer()
}

// TaskInfoRequest is the request of task_info.
type TaskInfoRequest struct {
	Info hostarch.Addr
}

func (r *TaskInfoRequest) decode(args arch.SyscallArguments) {
	r.Info = args[0].Pointer()
}
