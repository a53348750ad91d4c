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
	"trapgate.dev/trapgate/pkg/log"
)

// Exit implements Scheduler.Exit.
func (ts *TaskSet) Exit(t *Task, code int32) {
	t.mu.Lock()
	if t.status == linux.TaskExited {
		t.mu.Unlock()
		return
	}
	image := t.image
	t.image = nil
	t.status = linux.TaskExited
	t.exitCode = code
	t.mu.Unlock()

	if image != nil {
		image.Release(ts.k.ctx)
	}
	log.Infof("[%v] exited with code %d", t.tid, code)
}
