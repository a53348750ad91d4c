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
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
	"trapgate.dev/trapgate/pkg/hostarch"
	"trapgate.dev/trapgate/pkg/sentry/arch"
	"trapgate.dev/trapgate/pkg/sentry/kernel"
	"trapgate.dev/trapgate/pkg/sentry/loader"
)

// Workload describes the programs available to a run and the tasks to start.
//
// A task has no instruction stream of its own; it is driven by a script of
// traps, each of which loads the syscall registers and enters the kernel.
type Workload struct {
	// Input is queued on the console when no host console is used.
	Input string `yaml:"input"`

	Images []ImageSpec `yaml:"images"`
	Tasks  []TaskSpec  `yaml:"tasks"`
}

// ImageSpec is a program image.
type ImageSpec struct {
	Name     string        `yaml:"name"`
	Entry    uint64        `yaml:"entry"`
	Segments []SegmentSpec `yaml:"segments"`
}

// SegmentSpec is a region of an ImageSpec.
type SegmentSpec struct {
	Addr uint64 `yaml:"addr"`

	// Perms is a combination of the letters r, w and x.
	Perms string `yaml:"perms"`

	// Data is the initial content of the segment.
	Data string `yaml:"data"`

	// Size is the size in memory. It is raised to len(Data) if smaller.
	Size uint64 `yaml:"size"`
}

// TaskSpec is a root task and its script.
type TaskSpec struct {
	Image string `yaml:"image"`
	Traps []Trap `yaml:"traps"`
}

// Trap is one system call made by a scripted task.
type Trap struct {
	// Syscall is a syscall name from the table or a decimal number.
	Syscall string `yaml:"syscall"`

	// Args are loaded into a0..a5.
	Args []int64 `yaml:"args"`

	// Repeat makes the trap that many times. Zero means once.
	Repeat int `yaml:"repeat"`

	// Child is the script run by the child of a clone, right after the
	// clone returns in the parent.
	Child []Trap `yaml:"child"`
}

// LoadWorkload reads a workload from path.
func LoadWorkload(path string) (*Workload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	w, err := DecodeWorkload(f)
	if err != nil {
		return nil, fmt.Errorf("unable to decode %q: %w", path, err)
	}
	return w, nil
}

// DecodeWorkload reads a YAML workload from r. Unknown keys are rejected.
func DecodeWorkload(r io.Reader) (*Workload, error) {
	var w Workload
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&w); err != nil {
		return nil, err
	}
	if len(w.Tasks) == 0 {
		return nil, fmt.Errorf("workload has no tasks")
	}
	for i, ts := range w.Tasks {
		if ts.Image == "" {
			return nil, fmt.Errorf("task %d has no image", i)
		}
		if err := checkTraps(ts.Traps); err != nil {
			return nil, fmt.Errorf("task %d: %w", i, err)
		}
	}
	return &w, nil
}

func checkTraps(traps []Trap) error {
	for i, tr := range traps {
		if tr.Syscall == "" {
			return fmt.Errorf("trap %d has no syscall", i)
		}
		if len(tr.Args) > len(arch.SyscallArguments{}) {
			return fmt.Errorf("trap %d (%s) has %d args, at most %d allowed", i, tr.Syscall, len(tr.Args), len(arch.SyscallArguments{}))
		}
		if tr.Repeat < 0 {
			return fmt.Errorf("trap %d (%s) has negative repeat %d", i, tr.Syscall, tr.Repeat)
		}
		if err := checkTraps(tr.Child); err != nil {
			return fmt.Errorf("trap %d child: %w", i, err)
		}
	}
	return nil
}

// ParsePerms converts a permission string such as "rw" or "r-x".
func ParsePerms(s string) (hostarch.AccessType, error) {
	var at hostarch.AccessType
	for _, c := range s {
		switch c {
		case 'r':
			at.Read = true
		case 'w':
			at.Write = true
		case 'x':
			at.Execute = true
		case '-':
		default:
			return hostarch.NoAccess, fmt.Errorf("invalid permission %q in %q", c, s)
		}
	}
	return at, nil
}

// Registry builds a loader.Registry holding every image of w.
func (w *Workload) Registry() (*loader.Registry, error) {
	r := loader.NewRegistry()
	for _, is := range w.Images {
		img := &loader.Image{
			Name:  is.Name,
			Entry: hostarch.Addr(is.Entry),
		}
		for _, ss := range is.Segments {
			perms, err := ParsePerms(ss.Perms)
			if err != nil {
				return nil, fmt.Errorf("image %q: %w", is.Name, err)
			}
			img.Segments = append(img.Segments, loader.Segment{
				Addr:    hostarch.Addr(ss.Addr),
				Perms:   perms,
				Data:    []byte(ss.Data),
				MemSize: ss.Size,
			})
		}
		if err := r.Register(img); err != nil {
			return nil, fmt.Errorf("registering image %q: %w", is.Name, err)
		}
	}
	return r, nil
}

// resolve returns the number of the syscall named by tr.
func (tr *Trap) resolve(st *kernel.SyscallTable) (uintptr, error) {
	if n, err := strconv.ParseUint(tr.Syscall, 10, 64); err == nil {
		return uintptr(n), nil
	}
	return st.LookupNo(tr.Syscall)
}

// registers returns the argument registers of tr.
func (tr *Trap) registers() []uintptr {
	regs := make([]uintptr, len(tr.Args))
	for i, a := range tr.Args {
		regs[i] = uintptr(a)
	}
	return regs
}
