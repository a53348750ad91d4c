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
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/google/subcommands"
	"trapgate.dev/trapgate/pkg/sentry/kernel"
	"trapgate.dev/trapgate/trapgate/cmd/util"
)

// Syscalls implements subcommands.Command for the "syscalls" command.
type Syscalls struct {
	format string
	os     string
	arch   string

	// stdout is where output goes. If nil, os.Stdout is used.
	stdout io.Writer
}

// CompatibilityInfo is a map of system and architecture to compatibility doc.
// Maps operating system to architecture to ArchInfo.
type CompatibilityInfo map[string]map[string]ArchInfo

// ArchInfo is compatibility doc for an architecture.
type ArchInfo struct {
	// Syscalls maps syscall number for the architecture to the doc.
	Syscalls map[uintptr]SyscallDoc `json:"syscalls"`
}

// SyscallDoc represents a single item of syscall documentation.
type SyscallDoc struct {
	Name string `json:"name"`
	num  uintptr

	Support string   `json:"support"`
	Note    string   `json:"note,omitempty"`
	URLs    []string `json:"urls,omitempty"`
}

type outputFunc func(io.Writer, CompatibilityInfo) error

// tableMap maps OS name to architecture name to syscall table.
type tableMap map[string]map[string]*kernel.SyscallTable

const (
	// The string name to use for printing compatibility for all OSes.
	osAll = "all"

	// The string name to use for printing compatibility for all architectures.
	archAll = "all"
)

// A map of output type names to output functions.
var outputMap = map[string]outputFunc{
	"table": outputTable,
	"json":  outputJSON,
	"csv":   outputCSV,
}

// Name implements subcommands.Command.Name.
func (*Syscalls) Name() string {
	return "syscalls"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Syscalls) Synopsis() string {
	return "Print compatibility information for syscalls."
}

// Usage implements subcommands.Command.Usage.
func (*Syscalls) Usage() string {
	return `syscalls [options] - Print compatibility information for syscalls.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (s *Syscalls) SetFlags(f *flag.FlagSet) {
	f.StringVar(&s.format, "format", "table", "Output format (table, csv, json).")
	f.StringVar(&s.os, "os", osAll, "The OS (e.g. linux)")
	f.StringVar(&s.arch, "arch", archAll, "The CPU architecture (e.g. riscv64).")
}

// Execute implements subcommands.Command.Execute.
func (s *Syscalls) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	out, ok := outputMap[s.format]
	if !ok {
		return util.Errorf("Unsupported output format %q", s.format)
	}

	info, err := buildTableMap(kernel.SyscallTables()).compatibilityInfo(s.os, s.arch)
	if err != nil {
		return util.Errorf("%v", err)
	}

	w := s.stdout
	if w == nil {
		w = os.Stdout
	}
	if err := out(w, info); err != nil {
		return util.Errorf("Error writing output: %v", err)
	}
	return subcommands.ExitSuccess
}

// buildTableMap indexes tables by OS and architecture name.
func buildTableMap(tables []*kernel.SyscallTable) tableMap {
	m := make(tableMap)
	for _, t := range tables {
		osMap, ok := m[t.OS.String()]
		if !ok {
			osMap = make(map[string]*kernel.SyscallTable)
			m[t.OS.String()] = osMap
		}
		osMap[t.Arch.String()] = t
	}
	return m
}

// compatibilityInfo returns compatibility info for the given OS name and
// architecture name. Supports the special name 'all' for OS and architecture
// that specifies that all supported OSes or architectures should be included.
func (m tableMap) compatibilityInfo(osName, archName string) (CompatibilityInfo, error) {
	info := make(CompatibilityInfo)
	osNames := []string{osName}
	if osName == osAll {
		osNames = slices.Collect(maps.Keys(m))
	}
	for _, osName := range osNames {
		archs, ok := m[osName]
		if !ok {
			return nil, fmt.Errorf("no syscall tables for OS %q", osName)
		}
		archNames := []string{archName}
		if archName == archAll {
			archNames = slices.Collect(maps.Keys(archs))
		}
		info[osName] = make(map[string]ArchInfo)
		for _, archName := range archNames {
			t, ok := archs[archName]
			if !ok {
				return nil, fmt.Errorf("syscall table for %s/%s not found", osName, archName)
			}
			info[osName][archName] = archInfo(t)
		}
	}
	return info, nil
}

// archInfo returns compatibility info for a single table.
func archInfo(t *kernel.SyscallTable) ArchInfo {
	info := ArchInfo{Syscalls: make(map[uintptr]SyscallDoc, len(t.Table))}
	for num, sc := range t.Table {
		info.Syscalls[num] = SyscallDoc{
			Name:    sc.Name,
			num:     num,
			Support: sc.SupportLevel.String(),
			Note:    sc.Note,
			URLs:    sc.URLs,
		}
	}
	return info
}

// forEachArch calls fn for every OS and architecture in info, sorted by name,
// with the syscalls sorted by number.
func forEachArch(info CompatibilityInfo, fn func(osName, archName string, calls []SyscallDoc) error) error {
	for _, osName := range slices.Sorted(maps.Keys(info)) {
		osInfo := info[osName]
		for _, archName := range slices.Sorted(maps.Keys(osInfo)) {
			calls := slices.Collect(maps.Values(osInfo[archName].Syscalls))
			slices.SortFunc(calls, func(a, b SyscallDoc) int {
				switch {
				case a.num < b.num:
					return -1
				case a.num > b.num:
					return 1
				}
				return 0
			})
			if err := fn(osName, archName, calls); err != nil {
				return err
			}
		}
	}
	return nil
}

// outputTable outputs the syscall info in tabular format.
func outputTable(w io.Writer, info CompatibilityInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	return forEachArch(info, func(osName, archName string, calls []SyscallDoc) error {
		// Print the OS/arch
		if _, err := fmt.Fprintf(w, "%s/%s:\n\n", osName, archName); err != nil {
			return err
		}

		// Write the header
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", "NUM", "NAME", "SUPPORT", "NOTE"); err != nil {
			return err
		}

		// Write each syscall entry
		for _, sc := range calls {
			if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", strconv.FormatUint(uint64(sc.num), 10), sc.Name, sc.Support, sc.Note); err != nil {
				return err
			}
			// Add issue urls to note.
			for _, url := range sc.URLs {
				if _, err := fmt.Fprintf(tw, "\t\t\tSee: %s\t\n", url); err != nil {
					return err
				}
			}
		}
		return tw.Flush()
	})
}

// outputJSON outputs the syscall info in JSON format.
func outputJSON(w io.Writer, info CompatibilityInfo) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(info)
}

// outputCSV outputs the syscall info in CSV format.
func outputCSV(w io.Writer, info CompatibilityInfo) error {
	csvWriter := csv.NewWriter(w)
	err := forEachArch(info, func(osName, archName string, calls []SyscallDoc) error {
		// Write the header
		if err := csvWriter.Write([]string{"OS", "Arch", "Num", "Name", "Support", "Note"}); err != nil {
			return err
		}

		// Write each syscall entry
		for _, sc := range calls {
			// Add issue urls to note.
			note := sc.Note
			for _, url := range sc.URLs {
				note = fmt.Sprintf("%s\nSee: %s", note, url)
			}
			row := []string{
				osName,
				archName,
				strconv.FormatUint(uint64(sc.num), 10),
				sc.Name,
				sc.Support,
				note,
			}
			if err := csvWriter.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	csvWriter.Flush()
	return csvWriter.Error()
}
