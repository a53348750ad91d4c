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

package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newFlagSet(t *testing.T, args ...string) *flag.FlagSet {
	t.Helper()
	testFlags := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterFlags(testFlags)
	if err := testFlags.Parse(args); err != nil {
		t.Fatalf("Parse(%v): %v", args, err)
	}
	return testFlags
}

func TestDefault(t *testing.T) {
	c, err := NewFromFlags(newFlagSet(t))
	if err != nil {
		t.Fatal(err)
	}
	// All defaults doesn't require setting flags.
	if flags := c.ToFlags(); len(flags) > 0 {
		t.Errorf("default flags not set correctly for: %s", flags)
	}
	if c.Frames != DefaultFrames {
		t.Errorf("Frames: got %v, want %v", c.Frames, DefaultFrames)
	}
	if want := time.Second; c.UnknownSyscallLogInterval != want {
		t.Errorf("UnknownSyscallLogInterval: got %v, want %v", c.UnknownSyscallLogInterval, want)
	}
}

func TestFromFlags(t *testing.T) {
	testFlags := newFlagSet(t)
	for name, val := range map[string]string{
		"debug":  "true",
		"frames": "64",
		"harts":  "4",
		"log":    "/tmp/trapgate.log",
	} {
		if err := testFlags.Lookup(name).Value.Set(val); err != nil {
			t.Errorf("Flag set: %v", err)
		}
	}

	c, err := NewFromFlags(testFlags)
	if err != nil {
		t.Fatal(err)
	}
	if want := true; c.Debug != want {
		t.Errorf("Debug: got %v, want %v", c.Debug, want)
	}
	if want := uint(64); c.Frames != want {
		t.Errorf("Frames: got %v, want %v", c.Frames, want)
	}
	if want := 4; c.Harts != want {
		t.Errorf("Harts: got %v, want %v", c.Harts, want)
	}
	if want := "/tmp/trapgate.log"; c.LogFilename != want {
		t.Errorf("LogFilename: got %v, want %v", c.LogFilename, want)
	}
}

func TestToFlagsFromFlags(t *testing.T) {
	c, err := NewFromFlags(newFlagSet(t, "--debug", "--frames=128", "--strace=false", "--unknown-syscall-log-interval=5s"))
	if err != nil {
		t.Fatal(err)
	}

	// --strace=false matches the default and is not reported.
	got := c.ToFlags()
	want := []string{"--frames=128", "--debug=true", "--unknown-syscall-log-interval=5s"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ToFlags() mismatch (-want +got):\n%s", diff)
	}
}

func TestInvalid(t *testing.T) {
	for _, tc := range []struct {
		args  []string
		error string
	}{
		{args: []string{"--frames=0"}, error: "frames must be positive"},
		{args: []string{"--harts=0"}, error: "harts must be positive"},
		{args: []string{"--max-str-len=-1"}, error: "max-str-len"},
		{args: []string{"--console=serial"}, error: "invalid console"},
		{args: []string{"--log-format=xml"}, error: "invalid log format"},
	} {
		t.Run(strings.Join(tc.args, " "), func(t *testing.T) {
			_, err := NewFromFlags(newFlagSet(t, tc.args...))
			if err == nil || !strings.Contains(err.Error(), tc.error) {
				t.Errorf("NewFromFlags(%v): got %v, want error containing %q", tc.args, err, tc.error)
			}
		})
	}
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trapgate.toml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigFile(t *testing.T) {
	path := writeConfig(t, `
frames = 32
harts = 2
strace = true
console = "none"
unknown_syscall_log_interval = "250ms"
`)
	c, err := NewFromFlags(newFlagSet(t, "--config="+path, "--harts=8"))
	if err != nil {
		t.Fatal(err)
	}
	if want := uint(32); c.Frames != want {
		t.Errorf("Frames: got %v, want %v", c.Frames, want)
	}
	// The command line wins over the file.
	if want := 8; c.Harts != want {
		t.Errorf("Harts: got %v, want %v", c.Harts, want)
	}
	if !c.Strace {
		t.Errorf("Strace: got false, want true")
	}
	if want := ConsoleNone; c.Console != want {
		t.Errorf("Console: got %v, want %v", c.Console, want)
	}
	if want := 250 * time.Millisecond; c.UnknownSyscallLogInterval != want {
		t.Errorf("UnknownSyscallLogInterval: got %v, want %v", c.UnknownSyscallLogInterval, want)
	}
	if c.ConfigFile != path {
		t.Errorf("ConfigFile: got %q, want %q", c.ConfigFile, path)
	}
}

func TestConfigFileErrors(t *testing.T) {
	for _, tc := range []struct {
		name     string
		contents string
		error    string
	}{
		{name: "syntax", contents: "frames = ", error: "decode config file"},
		{name: "invalid", contents: "frames = 0", error: "frames must be positive"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.contents)
			_, err := NewFromFlags(newFlagSet(t, "--config="+path))
			if err == nil || !strings.Contains(err.Error(), tc.error) {
				t.Errorf("NewFromFlags: got %v, want error containing %q", err, tc.error)
			}
		})
	}
	if _, err := NewFromFlags(newFlagSet(t, "--config=/nonexistent/trapgate.toml")); err == nil {
		t.Errorf("NewFromFlags with missing file: got nil, want error")
	}
}

func TestCopy(t *testing.T) {
	c, err := NewFromFlags(newFlagSet(t, "--debug", "--harts=3"))
	if err != nil {
		t.Fatal(err)
	}
	cp := c.Copy()
	if cp == c {
		t.Fatalf("Copy returned the same pointer")
	}
	if diff := cmp.Diff(c, cp); diff != "" {
		t.Errorf("Copy() mismatch (-want +got):\n%s", diff)
	}
	cp.Harts = 1
	if c.Harts != 3 {
		t.Errorf("Harts after modifying copy: got %v, want 3", c.Harts)
	}
}
