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
	"trapgate.dev/trapgate/pkg/errors/kernerr"
	"trapgate.dev/trapgate/pkg/log"
)

// Wait implements Scheduler.Wait.
//
// Exited children are reaped in ascending id order. Wait never blocks.
func (ts *TaskSet) Wait(t *Task, pid ThreadID) (ThreadID, int32, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	var (
		found  bool
		zombie *Task
		code   int32
	)
	ts.tasks.Ascend(func(c *Task) bool {
		if c.parent != t.tid || (pid != AnyChild && c.tid != pid) {
			return true
		}
		found = true
		if exitCode, exited := c.ExitCode(); exited {
			zombie, code = c, exitCode
			return false
		}
		return true
	})
	if zombie == nil {
		if !found {
			return 0, 0, kernerr.NoChild
		}
		return 0, 0, kernerr.ChildRunning
	}
	ts.tasks.Delete(zombie)
	log.Debugf("[%v] reaped child %v, exit code %d", t.tid, zombie.tid, code)
	return zombie.tid, code, nil
}
