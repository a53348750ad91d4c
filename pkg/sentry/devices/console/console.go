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

// Package console provides the byte-at-a-time console used by read and write.
package console

import (
	"bytes"
	"io"
	"sync"
)

// Device is a console.
type Device interface {
	// PutByte emits one byte.
	PutByte(b byte) error

	// GetByte returns the next input byte, or io.EOF if no more input will
	// arrive.
	GetByte() (byte, error)
}

// Write emits every byte of p on d and returns the number emitted.
func Write(d Device, p []byte) (int, error) {
	for i, b := range p {
		if err := d.PutByte(b); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// Read fills p from d, stopping early at io.EOF. It returns the number of
// bytes read; io.EOF is not reported as an error.
func Read(d Device, p []byte) (int, error) {
	for i := range p {
		b, err := d.GetByte()
		if err == io.EOF {
			return i, nil
		}
		if err != nil {
			return i, err
		}
		p[i] = b
	}
	return len(p), nil
}

// Buffer is an in-memory Device. Input is queued with Feed and output
// accumulates for Output.
type Buffer struct {
	mu  sync.Mutex
	in  bytes.Buffer
	out bytes.Buffer
}

var _ Device = (*Buffer)(nil)

// NewBuffer returns a Buffer whose input holds input.
func NewBuffer(input string) *Buffer {
	b := &Buffer{}
	b.in.WriteString(input)
	return b
}

// Feed appends s to the pending input.
func (b *Buffer) Feed(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.in.WriteString(s)
}

// PutByte implements Device.PutByte.
func (b *Buffer) PutByte(c byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.out.WriteByte(c)
}

// GetByte implements Device.GetByte.
func (b *Buffer) GetByte() (byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.in.ReadByte()
}

// Output returns everything written so far.
func (b *Buffer) Output() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.out.String()
}
