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
	"fmt"

	"trapgate.dev/trapgate/pkg/hostarch"
	"trapgate.dev/trapgate/pkg/marshal"
)

// TaskStatus is the scheduling state reported by task_info.
type TaskStatus uint32

// Task states.
const (
	TaskUnInit TaskStatus = iota
	TaskReady
	TaskRunning
	TaskExited
)

// String implements fmt.Stringer.String.
func (s TaskStatus) String() string {
	switch s {
	case TaskUnInit:
		return "UnInit"
	case TaskReady:
		return "Ready"
	case TaskRunning:
		return "Running"
	case TaskExited:
		return "Exited"
	default:
		return fmt.Sprintf("TaskStatus(%d)", uint32(s))
	}
}

// SizeOfTaskInfo is the size of a TaskInfo struct in bytes.
const SizeOfTaskInfo = 4 + 4*MaxSyscallNum + 4

// TaskInfo is the record copied out by task_info.
//
// Layout:
//
//	struct task_info {
//		uint32_t status;
//		uint32_t syscall_times[MAX_SYSCALL_NUM];
//		int32_t  time; /* milliseconds since first scheduled */
//	};
type TaskInfo struct {
	Status       TaskStatus
	SyscallTimes [MaxSyscallNum]uint32
	Time         int32
}

var _ marshal.Marshallable = (*TaskInfo)(nil)

// SizeBytes implements marshal.Marshallable.SizeBytes.
func (ti *TaskInfo) SizeBytes() int {
	return SizeOfTaskInfo
}

// MarshalBytes implements marshal.Marshallable.MarshalBytes.
func (ti *TaskInfo) MarshalBytes(dst []byte) []byte {
	hostarch.ByteOrder.PutUint32(dst[:4], uint32(ti.Status))
	dst = dst[4:]
	for _, n := range ti.SyscallTimes {
		hostarch.ByteOrder.PutUint32(dst[:4], n)
		dst = dst[4:]
	}
	hostarch.ByteOrder.PutUint32(dst[:4], uint32(ti.Time))
	return dst[4:]
}

// UnmarshalBytes implements marshal.Marshallable.UnmarshalBytes.
func (ti *TaskInfo) UnmarshalBytes(src []byte) []byte {
	ti.Status = TaskStatus(hostarch.ByteOrder.Uint32(src[:4]))
	src = src[4:]
	for i := range ti.SyscallTimes {
		ti.SyscallTimes[i] = hostarch.ByteOrder.Uint32(src[:4])
		src = src[4:]
	}
	ti.Time = int32(hostarch.ByteOrder.Uint32(src[:4]))
	return src[4:]
}
