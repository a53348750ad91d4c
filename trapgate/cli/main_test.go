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

package cli

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/subcommands"
)

func TestForEachCmd(t *testing.T) {
	var names []string
	forEachCmd(func(c subcommands.Command, group string) {
		if group != "" {
			t.Errorf("command %q registered in group %q", c.Name(), group)
		}
		names = append(names, c.Name())
	})
	want := []string{"help", "flags", "commands", "run", "syscalls", "version"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}
