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

package console

import (
	"bufio"
	"fmt"
	"os"

	"golang.org/x/term"
)

// Host is a Device backed by the host's standard input and output.
type Host struct {
	in  *bufio.Reader
	out *os.File

	// restore is the terminal state to restore on Close, if the input was
	// put in raw mode.
	restore *term.State
	fd      int
}

var _ Device = (*Host)(nil)

// NewHost returns a Host console on in and out. If raw is set and in is a
// terminal, it is switched to raw mode until Close so that bytes arrive
// without line buffering or echo.
func NewHost(in, out *os.File, raw bool) (*Host, error) {
	h := &Host{in: bufio.NewReader(in), out: out, fd: int(in.Fd())}
	if raw && term.IsTerminal(h.fd) {
		state, err := term.MakeRaw(h.fd)
		if err != nil {
			return nil, fmt.Errorf("setting console raw mode: %w", err)
		}
		h.restore = state
	}
	return h, nil
}

// PutByte implements Device.PutByte.
func (h *Host) PutByte(b byte) error {
	_, err := h.out.Write([]byte{b})
	return err
}

// GetByte implements Device.GetByte.
func (h *Host) GetByte() (byte, error) {
	return h.in.ReadByte()
}

// Close restores the terminal state.
func (h *Host) Close() error {
	if h.restore == nil {
		return nil
	}
	err := term.Restore(h.fd, h.restore)
	h.restore = nil
	return err
}
