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

// Package marshal defines the Marshallable interface for serializing
// fixed-layout ABI structs to and from the byte representation seen by user
// programs.
package marshal

import (
	"trapgate.dev/trapgate/pkg/hostarch"
)

// CopyContext defines the memory operations required to marshal to and from
// user memory.
type CopyContext interface {
	// CopyOutBytes copies len(b) bytes from b to the user address addr. It
	// returns the number of bytes copied.
	CopyOutBytes(addr hostarch.Addr, b []byte) (int, error)

	// CopyInBytes copies len(b) bytes from the user address addr into b. It
	// returns the number of bytes copied.
	CopyInBytes(addr hostarch.Addr, b []byte) (int, error)
}

// Marshallable represents operations on a type that can be marshalled to and
// from memory.
type Marshallable interface {
	// SizeBytes is the size of the memory representation of a type in
	// marshalled form.
	SizeBytes() int

	// MarshalBytes serializes a copy of a type to dst and returns the
	// remaining portion of dst. Precondition: dst must be at least
	// SizeBytes() in length.
	MarshalBytes(dst []byte) []byte

	// UnmarshalBytes deserializes a type from src and returns the remaining
	// portion of src. Precondition: src must be at least SizeBytes() in
	// length.
	UnmarshalBytes(src []byte) []byte
}
