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
	"trapgate.dev/trapgate/pkg/sentry/arch"
	"trapgate.dev/trapgate/pkg/sentry/loader"
	"trapgate.dev/trapgate/pkg/sentry/mm"
)

// Exec implements Scheduler.Exec.
//
// The new address space is fully built before the old one is released, so a
// failed exec leaves t running its current program. Syscall counters survive
// exec.
func (ts *TaskSet) Exec(t *Task, name string) error {
	img, err := ts.k.images.Lookup(name)
	if err != nil {
		return fmt.Errorf("exec %q: %w", name, err)
	}
	m := mm.NewMemoryManager(ts.k.mf)
	if err := loader.Load(ts.k.ctx, m, img); err != nil {
		m.Release(ts.k.ctx)
		return fmt.Errorf("exec %q: %w", name, err)
	}

	t.mu.Lock()
	old := t.image
	t.image = m
	t.name = img.Name
	t.regs = arch.Registers{Sepc: uintptr(img.Entry)}
	t.mu.Unlock()

	if old != nil {
		old.Release(ts.k.ctx)
	}
	log.Debugf("[%v] exec %q, entry %v", t.tid, img.Name, img.Entry)
	return nil
}
