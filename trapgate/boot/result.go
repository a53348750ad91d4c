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

package boot

import (
	"fmt"
	"io"
	"strings"

	"trapgate.dev/trapgate/pkg/sentry/kernel"
)

// Result is what a scripted task did.
type Result struct {
	TID   kernel.ThreadID
	Image string

	// Traps lists each trap made, in order.
	Traps []TrapResult

	// ExitCode is valid if Exited is set.
	ExitCode int32
	Exited   bool

	// Children are the results of clone children that ran a script.
	Children []*Result
}

// TrapResult is a single trap and the value left in a0. A trap that exits
// the task leaves a0 unchanged.
type TrapResult struct {
	Syscall string
	Args    []int64
	Return  int64
}

// String formats the trap as a call.
func (tr TrapResult) String() string {
	args := make([]string, len(tr.Args))
	for i, a := range tr.Args {
		if a > 0xffff {
			args[i] = fmt.Sprintf("%#x", a)
		} else {
			args[i] = fmt.Sprintf("%d", a)
		}
	}
	return fmt.Sprintf("%s(%s) = %d", tr.Syscall, strings.Join(args, ", "), tr.Return)
}

// Write prints r and its children to w.
func (r *Result) Write(w io.Writer) error {
	return r.write(w, "")
}

func (r *Result) write(w io.Writer, indent string) error {
	status := "running"
	if r.Exited {
		status = fmt.Sprintf("exited with code %d", r.ExitCode)
	}
	if _, err := fmt.Fprintf(w, "%stask %v (%s): %s\n", indent, r.TID, r.Image, status); err != nil {
		return err
	}
	for _, tr := range r.Traps {
		if _, err := fmt.Fprintf(w, "%s  %v\n", indent, tr); err != nil {
			return err
		}
	}
	for _, c := range r.Children {
		if err := c.write(w, indent+"  "); err != nil {
			return err
		}
	}
	return nil
}
