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

// Package config provides basic infrastructure to set configuration settings
// for trapgate. Each setting is backed by a command line flag and may also be
// read from a TOML file named by --config.
package config

import (
	"fmt"
	"time"

	"github.com/mohae/deepcopy"
	"trapgate.dev/trapgate/pkg/log"
)

// Console names the device behind fds 0 and 1.
const (
	ConsoleHost = "host"
	ConsoleNone = "none"
)

// Config holds configuration that is not part of the workload itself.
//
// Fields with a `flag` tag are populated by NewFromFlags. The `toml` tag names
// the key used in the configuration file.
type Config struct {
	// ConfigFile is the TOML file read before flags are applied. Flags set
	// explicitly on the command line take precedence over the file.
	ConfigFile string `flag:"config" toml:"-"`

	// Frames is the number of physical frames in the memory pool.
	Frames uint `flag:"frames" toml:"frames"`

	// MaxStrLen caps the bytes moved by read and write and the length of
	// execve paths.
	MaxStrLen int `flag:"max-str-len" toml:"max_str_len"`

	// Frequency is the cycle counter frequency in Hz.
	Frequency uint64 `flag:"frequency" toml:"frequency"`

	// Harts is the number of harts running tasks in parallel.
	Harts int `flag:"harts" toml:"harts"`

	// Console selects the console device: host or none.
	Console string `flag:"console" toml:"console"`

	// ConsoleRaw puts a terminal console in raw mode.
	ConsoleRaw bool `flag:"console-raw" toml:"console_raw"`

	// LogFilename is the filename to log to, if not empty.
	LogFilename string `flag:"log" toml:"log"`

	// LogFormat is the log format.
	LogFormat string `flag:"log-format" toml:"log_format"`

	// Debug indicates that debug logging should be enabled.
	Debug bool `flag:"debug" toml:"debug"`

	// Strace indicates that strace should be enabled.
	Strace bool `flag:"strace" toml:"strace"`

	// UnknownSyscallLogInterval is the minimum interval between two warnings
	// about unknown syscall numbers.
	UnknownSyscallLogInterval time.Duration `flag:"unknown-syscall-log-interval" toml:"unknown_syscall_log_interval"`

	// Metrics prints all metrics in Prometheus text format after a run.
	Metrics bool `flag:"metrics" toml:"metrics"`
}

func (c *Config) validate() error {
	if c.Frames == 0 {
		return fmt.Errorf("frames must be positive")
	}
	if c.Harts <= 0 {
		return fmt.Errorf("harts must be positive, got %d", c.Harts)
	}
	if c.MaxStrLen < 0 {
		return fmt.Errorf("max-str-len must not be negative, got %d", c.MaxStrLen)
	}
	if c.UnknownSyscallLogInterval < 0 {
		return fmt.Errorf("unknown-syscall-log-interval must not be negative, got %v", c.UnknownSyscallLogInterval)
	}
	switch c.Console {
	case ConsoleHost, ConsoleNone:
	default:
		return fmt.Errorf("invalid console %q, must be %q or %q", c.Console, ConsoleHost, ConsoleNone)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q, must be 'text' or 'json'", c.LogFormat)
	}
	return nil
}

// Copy returns a deep copy of c.
func (c *Config) Copy() *Config {
	return deepcopy.Copy(c).(*Config)
}

// Log logs important aspects of the configuration to the given log function.
func (c *Config) Log() {
	log.Infof("Config:")
	for _, f := range c.ToFlags() {
		log.Infof("\t%s", f)
	}
}
