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
	"encoding/csv"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/subcommands"
	"trapgate.dev/trapgate/trapgate/config"
)

func execute(t *testing.T, c subcommands.Command, cmdArgs []string, args ...any) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(f)
	if err := f.Parse(cmdArgs); err != nil {
		t.Fatalf("Parse(%v): %v", cmdArgs, err)
	}
	return c.Execute(context.Background(), f, args...)
}

func TestSyscallsCSV(t *testing.T) {
	var b strings.Builder
	s := &Syscalls{stdout: &b}
	if got := execute(t, s, []string{"-format=csv", "-os=linux", "-arch=riscv64"}); got != subcommands.ExitSuccess {
		t.Fatalf("Execute: got %v, want %v", got, subcommands.ExitSuccess)
	}
	rows, err := csv.NewReader(strings.NewReader(b.String())).ReadAll()
	if err != nil {
		t.Fatalf("output is not CSV: %v", err)
	}
	if got, want := len(rows), 16; got != want {
		t.Fatalf("rows: got %d, want %d (header and 15 syscalls)", got, want)
	}
	if diff := cmp.Diff([]string{"OS", "Arch", "Num", "Name", "Support", "Note"}, rows[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	var names []string
	for _, row := range rows[1:] {
		names = append(names, row[3])
	}
	want := []string{
		"read", "write", "exit", "sched_yield", "set_priority", "gettimeofday",
		"getpid", "getppid", "munmap", "clone", "execve", "mmap", "wait4",
		"spawn", "task_info",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("syscalls not sorted by number (-want +got):\n%s", diff)
	}
	for _, row := range rows[1:] {
		if row[3] == "getpid" {
			if diff := cmp.Diff([]string{"linux", "riscv64", "172", "getpid", "Full Support", "Fully Supported."}, row); diff != "" {
				t.Errorf("getpid row mismatch (-want +got):\n%s", diff)
			}
		}
	}
}

func TestSyscallsJSON(t *testing.T) {
	var b strings.Builder
	s := &Syscalls{stdout: &b}
	if got := execute(t, s, []string{"-format=json"}); got != subcommands.ExitSuccess {
		t.Fatalf("Execute: got %v, want %v", got, subcommands.ExitSuccess)
	}
	var info CompatibilityInfo
	if err := json.Unmarshal([]byte(b.String()), &info); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	doc, ok := info["linux"]["riscv64"].Syscalls[400]
	if !ok {
		t.Fatalf("spawn missing from %v", info)
	}
	if got, want := doc.Support, "Unimplemented"; got != want {
		t.Errorf("spawn support: got %q, want %q", got, want)
	}
	if got, want := len(info["linux"]["riscv64"].Syscalls), 15; got != want {
		t.Errorf("syscalls: got %d, want %d", got, want)
	}
}

func TestSyscallsTable(t *testing.T) {
	var b strings.Builder
	s := &Syscalls{stdout: &b}
	if got := execute(t, s, nil); got != subcommands.ExitSuccess {
		t.Fatalf("Execute: got %v, want %v", got, subcommands.ExitSuccess)
	}
	out := b.String()
	if !strings.HasPrefix(out, "linux/riscv64:\n\n") {
		t.Errorf("output does not start with the table name:\n%s", out)
	}
	for _, want := range []string{"NUM", "task_info", "Partial Support"} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q:\n%s", want, out)
		}
	}
}

func TestSyscallsErrors(t *testing.T) {
	for _, args := range [][]string{
		{"-format=xml"},
		{"-os=plan9"},
		{"-arch=amd64"},
	} {
		var b strings.Builder
		if got := execute(t, &Syscalls{stdout: &b}, args); got != subcommands.ExitFailure {
			t.Errorf("Execute(%v): got %v, want %v", args, got, subcommands.ExitFailure)
		}
	}
}

const runWorkload = `
images:
  - name: init
    entry: 0x1000
    segments:
      - addr: 0x1000
        perms: rw
        data: "hi\0"
tasks:
  - image: init
    traps:
      - {syscall: write, args: [1, 0x1000, 2]}
      - {syscall: exit, args: [3]}
`

func testConfig(t *testing.T, args ...string) *config.Config {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	config.RegisterFlags(fs)
	if err := fs.Parse(append([]string{"--console=none"}, args...)); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	conf, err := config.NewFromFlags(fs)
	if err != nil {
		t.Fatalf("NewFromFlags: %v", err)
	}
	return conf
}

func writeWorkload(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workload.yaml")
	if err := os.WriteFile(path, []byte(runWorkload), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun(t *testing.T) {
	path := writeWorkload(t)
	var b strings.Builder
	var status int
	r := &Run{stdout: &b}
	if got := execute(t, r, []string{path}, testConfig(t, "--metrics"), &status); got != subcommands.ExitSuccess {
		t.Fatalf("Execute: got %v, want %v", got, subcommands.ExitSuccess)
	}
	if status != 3 {
		t.Errorf("exit status: got %d, want 3", status)
	}
	out := b.String()
	for _, want := range []string{
		"task 1 (init): exited with code 3\n",
		"  write(1, 4096, 2) = 2\n",
		"# TYPE trapgate_kernel_syscalls counter",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q:\n%s", want, out)
		}
	}
}

func TestRunQuiet(t *testing.T) {
	path := writeWorkload(t)
	var b strings.Builder
	var status int
	r := &Run{stdout: &b}
	if got := execute(t, r, []string{"-quiet", path}, testConfig(t), &status); got != subcommands.ExitSuccess {
		t.Fatalf("Execute: got %v, want %v", got, subcommands.ExitSuccess)
	}
	if want := "task 1 (init): exited with code 3\n"; b.String() != want {
		t.Errorf("output: got %q, want %q", b.String(), want)
	}
}

func TestRunErrors(t *testing.T) {
	var status int
	conf := testConfig(t)
	if got := execute(t, &Run{}, nil, conf, &status); got != subcommands.ExitUsageError {
		t.Errorf("Execute with no workload: got %v, want %v", got, subcommands.ExitUsageError)
	}
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	if got := execute(t, &Run{}, []string{missing}, conf, &status); got != subcommands.ExitFailure {
		t.Errorf("Execute with missing workload: got %v, want %v", got, subcommands.ExitFailure)
	}
}

func TestVersion(t *testing.T) {
	var b strings.Builder
	if got := execute(t, &Version{stdout: &b}, nil); got != subcommands.ExitSuccess {
		t.Fatalf("Execute: got %v, want %v", got, subcommands.ExitSuccess)
	}
	for _, want := range []string{"trapgate version VERSION_MISSING\n", "abi: linux/riscv64, 15 syscalls\n"} {
		if !strings.Contains(b.String(), want) {
			t.Errorf("output does not contain %q:\n%s", want, b.String())
		}
	}
}
