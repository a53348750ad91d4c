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
	"sync"

	"github.com/google/btree"
	"trapgate.dev/trapgate/pkg/abi/linux"
	"trapgate.dev/trapgate/pkg/sentry/mm"
)

// ThreadID is a generic thread identifier.
type ThreadID int32

// String returns a decimal representation of the ThreadID.
func (tid ThreadID) String() string {
	return fmt.Sprintf("%d", tid)
}

// InitTID is the TID given to the first task added to each TaskSet.
const InitTID ThreadID = 1

// AnyChild is the pid argument to Wait that selects any child.
const AnyChild ThreadID = -1

const taskTreeDegree = 8

// TaskSet is a registry of all tasks in a kernel, keyed by ThreadID.
//
// Tasks refer to each other by ThreadID only; a task whose id is no longer in
// the set has been reaped.
type TaskSet struct {
	k *Kernel

	mu sync.Mutex

	// last is the last ThreadID to be allocated.
	// +checklocks:mu
	last ThreadID

	// tasks holds live and exited-but-unreaped tasks.
	// +checklocks:mu
	tasks *btree.BTreeG[*Task]
}

func taskLess(a, b *Task) bool {
	return a.tid < b.tid
}

// newTaskSet returns a new, empty TaskSet.
func newTaskSet(k *Kernel) *TaskSet {
	return &TaskSet{
		k:     k,
		tasks: btree.NewG(taskTreeDegree, taskLess),
	}
}

// newTask allocates an id and adds a running task holding m.
func (ts *TaskSet) newTask(parent ThreadID, m *mm.MemoryManager, name string) *Task {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.last++
	t := &Task{
		k:           ts.k,
		tid:         ts.last,
		parent:      parent,
		startCycles: ts.k.clock.Cycles(),
		image:       m,
		name:        name,
		status:      linux.TaskRunning,
	}
	ts.tasks.ReplaceOrInsert(t)
	return t
}

// TaskWithID returns the task with the given id, or nil if no such task
// exists or it has been reaped.
func (ts *TaskSet) TaskWithID(tid ThreadID) *Task {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.taskWithIDLocked(tid)
}

// +checklocks:ts.mu
func (ts *TaskSet) taskWithIDLocked(tid ThreadID) *Task {
	t, _ := ts.tasks.Get(&Task{tid: tid})
	return t
}

// Tasks returns a snapshot of the registered tasks in ascending id order.
func (ts *TaskSet) Tasks() []*Task {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	tasks := make([]*Task, 0, ts.tasks.Len())
	ts.tasks.Ascend(func(t *Task) bool {
		tasks = append(tasks, t)
		return true
	})
	return tasks
}

// Len returns the number of registered tasks.
func (ts *TaskSet) Len() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.tasks.Len()
}

// Children returns the registered children of t in ascending id order.
func (ts *TaskSet) Children(t *Task) []*Task {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	var children []*Task
	ts.tasks.Ascend(func(c *Task) bool {
		if c.parent == t.tid {
			children = append(children, c)
		}
		return true
	})
	return children
}

// parentOf returns the id of t's parent, or linux.IdlePID if t is a root
// task or its parent has been reaped.
func (ts *TaskSet) parentOf(t *Task) ThreadID {
	if t.parent == 0 {
		return linux.IdlePID
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.taskWithIDLocked(t.parent) == nil {
		return linux.IdlePID
	}
	return t.parent
}
