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

package log

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Keys JSONEmitter always sets. Fields using these names are dropped.
const (
	keyMsg    = "msg"
	keyLevel  = "level"
	keyTime   = "time"
	keyCaller = "caller"
)

// MarshalJSON implements json.Marshaler.MarshalJSON. Levels are written as
// their lower case names.
func (l Level) MarshalJSON() ([]byte, error) {
	if l > Debug {
		return nil, fmt.Errorf("unknown level %d", uint32(l))
	}
	return json.Marshal(strings.ToLower(l.String()))
}

// UnmarshalJSON implements json.Unmarshaler.UnmarshalJSON. It accepts level
// names and their integer values.
func (l *Level) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		lv, err := ParseLevel(name)
		if err != nil {
			return err
		}
		*l = lv
		return nil
	}
	var n uint32
	if err := json.Unmarshal(b, &n); err != nil || Level(n) > Debug {
		return fmt.Errorf("unknown level %s", b)
	}
	*l = Level(n)
	return nil
}

// JSONEmitter writes one JSON object per line. A trailing Fields argument is
// merged into the object, so callers such as the syscall dispatcher can attach
// the task id and syscall name as separate keys.
type JSONEmitter struct {
	*Writer
}

// Emit implements Emitter.Emit.
func (e JSONEmitter) Emit(depth int, level Level, timestamp time.Time, format string, v ...any) {
	args, fields := splitFields(v)
	entry := make(map[string]any, len(fields)+4)
	for k, val := range fields {
		entry[k] = val
	}
	entry[keyMsg] = fmt.Sprintf(format, args...)
	entry[keyLevel] = level
	entry[keyTime] = timestamp
	if _, file, line, ok := runtime.Caller(depth + 1); ok {
		if slash := strings.LastIndexByte(file, '/'); slash >= 0 {
			file = file[slash+1:]
		}
		entry[keyCaller] = fmt.Sprintf("%s:%d", file, line)
	}
	b, err := json.Marshal(entry)
	if err != nil {
		// A field value that cannot be encoded must not lose the message.
		b, _ = json.Marshal(map[string]any{
			keyMsg:   entry[keyMsg],
			keyLevel: level,
			keyTime:  timestamp,
			"error":  err.Error(),
		})
	}
	e.Writer.Write(b)
}

// NewEmitter returns an emitter writing to w in the given format: "text"
// (glog style) or "json".
func NewEmitter(format string, w *Writer) (Emitter, error) {
	switch format {
	case "text", "":
		return GoogleEmitter{w}, nil
	case "json":
		return JSONEmitter{w}, nil
	default:
		return nil, fmt.Errorf("invalid log format %q, must be 'text' or 'json'", format)
	}
}
