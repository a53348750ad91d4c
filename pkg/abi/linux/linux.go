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

// Package linux contains the constants and types needed to interface with a
// user program at the system call boundary.
package linux

const (
	// MaxSyscallNum is the number of per-task syscall counters. Syscall
	// numbers at or above it are never counted.
	MaxSyscallNum = 500

	// MaxStrLen is the largest number of bytes moved by a single read or
	// write call.
	MaxStrLen = 200

	// IdlePID is the parent pid reported for a task with no live parent.
	IdlePID = 0
)

// Standard file descriptors.
const (
	STDIN_FILENO  = 0
	STDOUT_FILENO = 1
	STDERR_FILENO = 2
)
