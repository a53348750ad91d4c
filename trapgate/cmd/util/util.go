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

// Package util groups a bunch of common helper functions used by commands.
package util

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"
	"trapgate.dev/trapgate/pkg/log"
)

// ErrorLogger is where error messages should be written to. These messages are
// consumed by the caller and should be formatted as JSON.
var ErrorLogger io.Writer

// Errorf logs error to an additional JSON error log, if one is set, and to
// stderr. It returns subcommands.ExitFailure for convenience with subcommand
// execution.
func Errorf(format string, args ...any) subcommands.ExitStatus {
	log.Warningf(format, args...)

	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, msg)
	writeErrorLogger(msg)
	return subcommands.ExitFailure
}

// Fatalf logs the same way as Errorf() does, and then exits the program.
func Fatalf(format string, args ...any) {
	_ = Errorf(format, args...)
	os.Exit(128)
}

func writeErrorLogger(msg string) {
	if ErrorLogger == nil {
		return
	}
	// Mimic the JSON log layout so that the caller can parse it.
	b, err := json.Marshal(struct {
		Msg   string    `json:"msg"`
		Level string    `json:"level"`
		Time  time.Time `json:"time"`
	}{
		Msg:   msg,
		Level: "error",
		Time:  time.Now(),
	})
	if err != nil {
		log.Warningf("encoding error message: %v", err)
		return
	}
	fmt.Fprintln(ErrorLogger, string(b))
}
