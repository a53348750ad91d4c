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

// Process lifecycle.

import (
	"runtime"

	"trapgate.dev/trapgate/pkg/log"
)

// Scheduler performs the lifecycle operations requested through syscalls.
// Every method is called on the goroutine of the task t.
type Scheduler interface {
	// Yield gives up the hart of t.
	Yield(t *Task) error

	// Exit terminates t with the given code. t's address space is released;
	// t stays registered until its parent waits for it.
	Exit(t *Task, code int32)

	// Fork creates a child of t with a copy of t's address space and trap
	// snapshot. The child's result register is zero.
	Fork(t *Task) (*Task, error)

	// Exec replaces t's address space with a fresh one holding the image
	// called name. On failure t is unchanged.
	Exec(t *Task, name string) error

	// Wait reaps an exited child of t. pid selects the child, or AnyChild.
	// It returns kernerr.NoChild if no child matches and
	// kernerr.ChildRunning if none of the matching children has exited.
	Wait(t *Task, pid ThreadID) (ThreadID, int32, error)
}

var _ Scheduler = (*TaskSet)(nil)

// Yield implements Scheduler.Yield.
func (ts *TaskSet) Yield(t *Task) error {
	if log.IsLogging(log.Debug) {
		log.Debugf("[%v] yield", t.tid)
	}
	runtime.Gosched()
	return nil
}
