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
	"trapgate.dev/trapgate/pkg/abi/linux"
	"trapgate.dev/trapgate/pkg/sentry/kernel"
)

// Gettimeofday implements linux syscall gettimeofday(2). The time is the
// kernel clock's elapsed time since boot.
func Gettimeofday(t *kernel.Task, r *GettimeofdayRequest) (uintptr, *kernel.SyscallControl, error) {
	if r.TV == 0 {
		return 0, nil, nil
	}
	clock := t.Kernel().Clock()
	tv := linux.CyclesToTimeval(clock.Cycles(), clock.Frequency())
	if _, err := t.CopyOutObject(r.TV, &tv); err != nil {
		return 0, nil, err
	}
	return 0, nil, nil
}
