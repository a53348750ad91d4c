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
	"trapgate.dev/trapgate/pkg/abi/linux"
	"trapgate.dev/trapgate/pkg/sentry/ktime"
)

// TaskInfo returns t's status, a copy of its syscall counters and the
// milliseconds elapsed since it was created.
func (t *Task) TaskInfo() linux.TaskInfo {
	clock := t.k.clock
	elapsed := ktime.Millis(clock, clock.Cycles()-t.startCycles)

	t.mu.Lock()
	defer t.mu.Unlock()
	return linux.TaskInfo{
		Status:       linux.TaskRunning,
		SyscallTimes: t.syscallCounts,
		Time:         int32(elapsed),
	}
}

// Identity returns t's pid and its parent's pid. The parent pid is
// linux.IdlePID for a root task and for a task whose parent has been reaped.
func (t *Task) Identity() (pid, ppid ThreadID) {
	return t.tid, t.k.tasks.parentOf(t)
}

// Elapsed returns the cycles since t was created.
func (t *Task) Elapsed() uint64 {
	return t.k.clock.Cycles() - t.startCycles
}
