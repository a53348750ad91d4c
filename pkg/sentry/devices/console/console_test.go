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
	"errors"
	"io"
	"os"
	"testing"
)

func TestBufferReadWrite(t *testing.T) {
	b := NewBuffer("abc")
	p := make([]byte, 5)
	n, err := Read(b, p)
	if n != 3 || err != nil {
		t.Errorf("Read: got (%d, %v), want (3, nil)", n, err)
	}
	if got := string(p[:n]); got != "abc" {
		t.Errorf("Read: got %q, want %q", got, "abc")
	}
	b.Feed("d")
	if c, err := b.GetByte(); c != 'd' || err != nil {
		t.Errorf("GetByte after Feed: got (%q, %v)", c, err)
	}
	if _, err := b.GetByte(); !errors.Is(err, io.EOF) {
		t.Errorf("GetByte on empty input: got %v, want EOF", err)
	}

	if n, err := Write(b, []byte("hello")); n != 5 || err != nil {
		t.Errorf("Write: got (%d, %v), want (5, nil)", n, err)
	}
	if got := b.Output(); got != "hello" {
		t.Errorf("Output(): got %q, want %q", got, "hello")
	}
}

type failingDevice struct{ after int }

func (f *failingDevice) PutByte(byte) error {
	if f.after == 0 {
		return errors.New("device gone")
	}
	f.after--
	return nil
}

func (f *failingDevice) GetByte() (byte, error) {
	if f.after == 0 {
		return 0, errors.New("device gone")
	}
	f.after--
	return 'x', nil
}

func TestDeviceErrors(t *testing.T) {
	if n, err := Write(&failingDevice{after: 2}, []byte("hello")); n != 2 || err == nil {
		t.Errorf("Write: got (%d, %v), want (2, error)", n, err)
	}
	if n, err := Read(&failingDevice{after: 1}, make([]byte, 4)); n != 1 || err == nil {
		t.Errorf("Read: got (%d, %v), want (1, error)", n, err)
	}
}

func TestHostNotATerminal(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	// Raw mode is skipped for a pipe.
	h, err := NewHost(r, w, true)
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	defer h.Close()

	if err := h.PutByte('z'); err != nil {
		t.Fatalf("PutByte: %v", err)
	}
	got := make([]byte, 1)
	if _, err := io.ReadFull(r, got); err != nil || got[0] != 'z' {
		t.Errorf("read back from pipe: got (%q, %v), want 'z'", got, err)
	}
}
