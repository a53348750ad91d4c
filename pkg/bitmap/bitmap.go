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

// Package bitmap provides a fixed-size bitmap used to track allocated frames.
package bitmap

import (
	"fmt"
	"math/bits"
)

// Bitmap implements an efficient fixed-size bitmap.
type Bitmap struct {
	// size is the number of usable bits.
	size uint32

	// numOnes is the number of ones in the bitmap.
	numOnes uint32

	// bitBlock holds the bits, 64 per word.
	bitBlock []uint64
}

// New creates a new empty Bitmap holding size bits.
func New(size uint32) Bitmap {
	return Bitmap{
		size:     size,
		bitBlock: make([]uint64, (size+63)/64),
	}
}

// Size returns the number of usable bits in the bitmap.
func (b *Bitmap) Size() uint32 {
	return b.size
}

// IsEmpty verifies whether the Bitmap is empty.
func (b *Bitmap) IsEmpty() bool {
	return b.numOnes == 0
}

// GetNumOnes returns the number of ones in the Bitmap.
func (b *Bitmap) GetNumOnes() uint32 {
	return b.numOnes
}

// FirstZero returns the first unset bit in the range [start, Size()).
func (b *Bitmap) FirstZero(start uint32) (uint32, error) {
	if start >= b.size {
		return 0, fmt.Errorf("start %d is beyond bitmap size %d", start, b.size)
	}
	i := int(start / 64)
	w := b.bitBlock[i] | (uint64(1)<<(start%64) - 1)
	for {
		if w != ^uint64(0) {
			bit := uint32(i*64 + bits.TrailingZeros64(^w))
			if bit >= b.size {
				break
			}
			return bit, nil
		}
		i++
		if i == len(b.bitBlock) {
			break
		}
		w = b.bitBlock[i]
	}
	return 0, fmt.Errorf("bitmap has no unset bits")
}

// Contains returns true if bit i is set.
func (b *Bitmap) Contains(i uint32) bool {
	if i >= b.size {
		return false
	}
	return b.bitBlock[i/64]&(uint64(1)<<(i%64)) != 0
}

// Add sets bit i. It panics if i is out of range.
func (b *Bitmap) Add(i uint32) {
	if i >= b.size {
		panic(fmt.Sprintf("bit %d out of range [0, %d)", i, b.size))
	}
	mask := uint64(1) << (i % 64)
	if b.bitBlock[i/64]&mask == 0 {
		b.numOnes++
		b.bitBlock[i/64] |= mask
	}
}

// Remove clears bit i.
func (b *Bitmap) Remove(i uint32) {
	if i >= b.size {
		return
	}
	mask := uint64(1) << (i % 64)
	if b.bitBlock[i/64]&mask != 0 {
		b.numOnes--
		b.bitBlock[i/64] &^= mask
	}
}

// ToSlice returns the set bits in ascending order.
func (b *Bitmap) ToSlice() []uint32 {
	out := make([]uint32, 0, b.numOnes)
	for i, w := range b.bitBlock {
		for w != 0 {
			out = append(out, uint32(i*64+bits.TrailingZeros64(w)))
			w &= w - 1
		}
	}
	return out
}
