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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTaskInfoLayout(t *testing.T) {
	ti := TaskInfo{Status: TaskRunning, Time: 42}
	ti.SyscallTimes[SYS_WRITE] = 3
	ti.SyscallTimes[MaxSyscallNum-1] = 7

	buf := make([]byte, ti.SizeBytes())
	if rest := ti.MarshalBytes(buf); len(rest) != 0 {
		t.Fatalf("MarshalBytes left %d bytes", len(rest))
	}
	// status, then syscall_times[64] at 4+64*4, then time at the end.
	if got := buf[0]; got != byte(TaskRunning) {
		t.Errorf("status byte: got %d, want %d", got, TaskRunning)
	}
	if got := buf[4+SYS_WRITE*4]; got != 3 {
		t.Errorf("syscall_times[write] byte: got %d, want 3", got)
	}
	if got := buf[SizeOfTaskInfo-4]; got != 42 {
		t.Errorf("time byte: got %d, want 42", got)
	}

	var back TaskInfo
	back.UnmarshalBytes(buf)
	if diff := cmp.Diff(ti, back); diff != "" {
		t.Errorf("TaskInfo mismatch (-want +got):\n%s", diff)
	}
}

func TestCyclesToTimeval(t *testing.T) {
	const freq = 12500000
	for _, tc := range []struct {
		cycles uint64
		want   Timeval
	}{
		{0, Timeval{}},
		{freq, Timeval{Sec: 1}},
		{freq + freq/2, Timeval{Sec: 1, Usec: 500000}},
		{3*freq + 125, Timeval{Sec: 3, Usec: 10}},
	} {
		if got := CyclesToTimeval(tc.cycles, freq); got != tc.want {
			t.Errorf("CyclesToTimeval(%d): got %+v, want %+v", tc.cycles, got, tc.want)
		}
	}
}

func TestTimevalBefore(t *testing.T) {
	a := Timeval{Sec: 1, Usec: 999999}
	b := Timeval{Sec: 2}
	if !a.Before(b) || b.Before(a) || a.Before(a) {
		t.Errorf("Before ordering wrong for %+v and %+v", a, b)
	}
}
