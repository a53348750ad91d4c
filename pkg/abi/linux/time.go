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

package linux

import (
	"time"

	"trapgate.dev/trapgate/pkg/hostarch"
	"trapgate.dev/trapgate/pkg/marshal"
)

const (
	// MicrosPerSec is the number of microseconds in a second.
	MicrosPerSec = 1000000

	// MillisPerSec is the number of milliseconds in a second.
	MillisPerSec = 1000
)

// SizeOfTimeval is the size of a Timeval struct in bytes.
const SizeOfTimeval = 16

// Timeval represents struct timeval in <time.h>.
type Timeval struct {
	Sec  int64
	Usec int64
}

var _ marshal.Marshallable = (*Timeval)(nil)

// ToTime returns the Go time.Time representation.
func (tv Timeval) ToTime() time.Time {
	return time.Unix(tv.Sec, tv.Usec*1e3)
}

// Before reports whether tv is strictly earlier than other.
func (tv Timeval) Before(other Timeval) bool {
	return tv.Sec < other.Sec || (tv.Sec == other.Sec && tv.Usec < other.Usec)
}

// CyclesToTimeval converts a cycle count of a clock running at freq Hz into a
// Timeval.
func CyclesToTimeval(cycles, freq uint64) Timeval {
	return Timeval{
		Sec:  int64(cycles / freq),
		Usec: int64((cycles % freq) * MicrosPerSec / freq),
	}
}

// SizeBytes implements marshal.Marshallable.SizeBytes.
func (tv *Timeval) SizeBytes() int {
	return SizeOfTimeval
}

// MarshalBytes implements marshal.Marshallable.MarshalBytes.
func (tv *Timeval) MarshalBytes(dst []byte) []byte {
	hostarch.ByteOrder.PutUint64(dst[:8], uint64(tv.Sec))
	hostarch.ByteOrder.PutUint64(dst[8:16], uint64(tv.Usec))
	return dst[16:]
}

// UnmarshalBytes implements marshal.Marshallable.UnmarshalBytes.
func (tv *Timeval) UnmarshalBytes(src []byte) []byte {
	tv.Sec = int64(hostarch.ByteOrder.Uint64(src[:8]))
	tv.Usec = int64(hostarch.ByteOrder.Uint64(src[8:16]))
	return src[16:]
}
