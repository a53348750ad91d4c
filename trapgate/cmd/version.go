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

package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/google/subcommands"
	"trapgate.dev/trapgate/pkg/sentry/kernel"
	"trapgate.dev/trapgate/trapgate/version"
)

// Version implements subcommands.Command for the "version" command.
type Version struct {
	stdout io.Writer
}

// Name implements subcommands.Command.Name.
func (*Version) Name() string {
	return "version"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Version) Synopsis() string {
	return "print version information"
}

// Usage implements subcommands.Command.Usage.
func (*Version) Usage() string {
	return "version - print version information.\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Version) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (v *Version) Execute(context.Context, *flag.FlagSet, ...any) subcommands.ExitStatus {
	w := v.stdout
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprintf(w, "trapgate version %s\n", version.Version())
	for _, t := range kernel.SyscallTables() {
		fmt.Fprintf(w, "abi: %s/%s, %d syscalls\n", t.OS, t.Arch, len(t.Table))
	}
	fmt.Fprintf(w, "go: %s\n", runtime.Version())
	return subcommands.ExitSuccess
}
