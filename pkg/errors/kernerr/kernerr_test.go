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

package kernerr

import (
	goerrors "errors"
	"fmt"
	"testing"

	"golang.org/x/sys/unix"
)

func TestSentinel(t *testing.T) {
	for _, test := range []struct {
		err  error
		want int64
	}{
		{BadAddress, Failure},
		{OutOfMemory, Failure},
		{UnknownSyscall, Failure},
		{fmt.Errorf("mmap: %w", AlreadyMapped), Failure},
		{ChildRunning, Pending},
		{fmt.Errorf("wait4: %w", ChildRunning), Pending},
		{goerrors.New("host failure"), Failure},
	} {
		if got := Sentinel(test.err); got != test.want {
			t.Errorf("Sentinel(%v): got %d, want %d", test.err, got, test.want)
		}
	}
}

func TestToUnix(t *testing.T) {
	for _, test := range []struct {
		err  error
		want unix.Errno
	}{
		{nil, 0},
		{BadAddress, unix.EFAULT},
		{fmt.Errorf("wrapped: %w", NotMapped), unix.EINVAL},
		{unix.ENOENT, unix.ENOENT},
		{goerrors.New("opaque"), unix.EIO},
	} {
		if got := ToUnix(test.err); got != test.want {
			t.Errorf("ToUnix(%v): got %v, want %v", test.err, got, test.want)
		}
	}
}

func TestDistinctValues(t *testing.T) {
	if goerrors.Is(InvalidAlignment, NotMapped) {
		t.Errorf("InvalidAlignment and NotMapped compare equal")
	}
	if !goerrors.Is(InvalidAlignment, unix.EINVAL) {
		t.Errorf("InvalidAlignment does not match its errno")
	}
}
