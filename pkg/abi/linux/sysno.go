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

// System call numbers understood by the dispatcher.
const (
	SYS_READ         = 63
	SYS_WRITE        = 64
	SYS_EXIT         = 93
	SYS_SCHED_YIELD  = 124
	SYS_SET_PRIORITY = 140
	SYS_GETTIMEOFDAY = 169
	SYS_GETPID       = 172
	SYS_GETPPID      = 173
	SYS_MUNMAP       = 215
	SYS_CLONE        = 220
	SYS_EXECVE       = 221
	SYS_MMAP         = 222
	SYS_WAIT4        = 260
	SYS_SPAWN        = 400
	SYS_TASK_INFO    = 410
)
