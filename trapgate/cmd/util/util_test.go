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

package util

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/subcommands"
)

func TestErrorf(t *testing.T) {
	var b strings.Builder
	ErrorLogger = &b
	defer func() { ErrorLogger = nil }()

	if got, want := Errorf("bad workload %q", "w.yaml"), subcommands.ExitFailure; got != want {
		t.Errorf("Errorf: got %v, want %v", got, want)
	}

	var entry struct {
		Msg   string `json:"msg"`
		Level string `json:"level"`
	}
	if err := json.Unmarshal([]byte(b.String()), &entry); err != nil {
		t.Fatalf("error log %q is not JSON: %v", b.String(), err)
	}
	if want := `bad workload "w.yaml"`; entry.Msg != want {
		t.Errorf("msg: got %q, want %q", entry.Msg, want)
	}
	if want := "error"; entry.Level != want {
		t.Errorf("level: got %q, want %q", entry.Level, want)
	}
}
