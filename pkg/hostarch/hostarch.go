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

// Package hostarch contains machine-dependent constants and the address types
// shared by the memory manager, the page tables and the syscall layer.
package hostarch

import "encoding/binary"

// ByteOrder is the byte order of the simulated machine (RISC-V is
// little-endian).
var ByteOrder = binary.LittleEndian

const (
	// PageShift is the binary log of the system page size.
	PageShift = 12

	// PageSize is the system page size.
	PageSize = 1 << PageShift

	// PTEShift is the number of virtual address bits resolved by each page
	// table level (Sv39: 512 entries per node).
	PTEShift = 9

	// PTELevels is the number of page table levels.
	PTELevels = 3

	// MaxUserAddress is the first address above the user address space.
	// Sv39 gives 39 bits of virtual address space; user space is the lower
	// half.
	MaxUserAddress Addr = 1 << (PageShift + PTEShift*PTELevels - 1)
)

// pageMask returns PageSize-1 as a T.
func pageMask[T Unsigned]() T {
	return T(1)<<PageShift - 1
}

// PageRoundDown returns x rounded down to the nearest page boundary.
func PageRoundDown[T Unsigned](x T) T {
	return x &^ pageMask[T]()
}

// PageRoundUp returns x rounded up to the nearest page boundary. ok is true
// iff rounding up did not wrap around.
func PageRoundUp[T Unsigned](x T) (addr T, ok bool) {
	addr = PageRoundDown(x + pageMask[T]())
	ok = addr >= x
	return
}

// PagesIn returns the number of pages needed to hold length bytes.
func PagesIn[T Unsigned](length T) T {
	return (length + pageMask[T]()) >> PageShift
}
