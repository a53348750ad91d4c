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

	"trapgate.dev/trapgate/pkg/log"
)

// Fork implements Scheduler.Fork.
//
// The child gets a fresh set of syscall counters, its own copy of every page
// of t (in new frames) and t's trap snapshot with a zero result.
func (ts *TaskSet) Fork(t *Task) (*Task, error) {
	m, err := t.memoryManager()
	if err != nil {
		return nil, err
	}
	cm, err := m.Fork(ts.k.ctx)
	if err != nil {
		return nil, fmt.Errorf("fork of %v: %w", t, err)
	}
	child := ts.newTask(t.tid, cm, t.Name())
	child.regs = t.regs
	child.regs.SetReturn(0)
	log.Debugf("[%v] forked child %v", t.tid, child.tid)
	return child, nil
}
