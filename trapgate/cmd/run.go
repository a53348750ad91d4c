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

// Package cmd holds implementations of the trapgate commands.
package cmd

import (
	"context"
	"flag"
	"io"
	"os"

	"github.com/google/subcommands"
	"trapgate.dev/trapgate/pkg/log"
	"trapgate.dev/trapgate/pkg/metric"
	"trapgate.dev/trapgate/trapgate/boot"
	"trapgate.dev/trapgate/trapgate/cmd/util"
	"trapgate.dev/trapgate/trapgate/config"
)

// Run implements subcommands.Command for the "run" command.
type Run struct {
	// quiet suppresses the per-task trap listing.
	quiet bool

	// stdout is where results go. If nil, os.Stdout is used.
	stdout io.Writer
}

// Name implements subcommands.Command.Name.
func (*Run) Name() string {
	return "run"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Run) Synopsis() string {
	return "boot a kernel and run a workload"
}

// Usage implements subcommands.Command.Usage.
func (*Run) Usage() string {
	return `run [flags] <workload.yaml> - boot a kernel and run the tasks of a workload.

The exit status is the exit code of the first task, or 0 if it did not exit.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (r *Run) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.quiet, "quiet", false, "do not print the traps made by each task.")
}

// Execute implements subcommands.Command.Execute.
//
// args must hold the *config.Config and an *int receiving the exit status.
func (r *Run) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	conf := args[0].(*config.Config)
	exitStatus := args[1].(*int)

	w, err := boot.LoadWorkload(f.Arg(0))
	if err != nil {
		return util.Errorf("error reading workload: %v", err)
	}
	l, err := boot.New(conf, w)
	if err != nil {
		return util.Errorf("error creating loader: %v", err)
	}
	defer l.Destroy()

	results, err := l.Run(ctx)
	if err != nil {
		return util.Errorf("error running workload: %v", err)
	}

	out := r.stdout
	if out == nil {
		out = os.Stdout
	}
	for _, res := range results {
		if r.quiet {
			res = &boot.Result{TID: res.TID, Image: res.Image, ExitCode: res.ExitCode, Exited: res.Exited}
		}
		if err := res.Write(out); err != nil {
			return util.Errorf("error writing results: %v", err)
		}
	}
	if conf.Metrics {
		if err := metric.WritePrometheus(out); err != nil {
			return util.Errorf("error writing metrics: %v", err)
		}
	}

	if len(results) > 0 && results[0].Exited {
		*exitStatus = int(results[0].ExitCode)
	}
	log.Infof("Workload %q finished, exit status %d", f.Arg(0), *exitStatus)
	return subcommands.ExitSuccess
}
