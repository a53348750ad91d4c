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

// Package primitive defines marshal.Marshallable implementations for primitive
// types.
package primitive

import (
	"trapgate.dev/trapgate/pkg/hostarch"
	"trapgate.dev/trapgate/pkg/marshal"
)

// Int32 is a marshal.Marshallable implementation for int32.
type Int32 int32

// Uint32 is a marshal.Marshallable implementation for uint32.
type Uint32 uint32

// Int64 is a marshal.Marshallable implementation for int64.
type Int64 int64

// Uint64 is a marshal.Marshallable implementation for uint64.
type Uint64 uint64

var (
	_ marshal.Marshallable = (*Int32)(nil)
	_ marshal.Marshallable = (*Uint32)(nil)
	_ marshal.Marshallable = (*Int64)(nil)
	_ marshal.Marshallable = (*Uint64)(nil)
)

// SizeBytes implements marshal.Marshallable.SizeBytes.
func (i *Int32) SizeBytes() int { return 4 }

// MarshalBytes implements marshal.Marshallable.MarshalBytes.
func (i *Int32) MarshalBytes(dst []byte) []byte {
	hostarch.ByteOrder.PutUint32(dst[:4], uint32(*i))
	return dst[4:]
}

// UnmarshalBytes implements marshal.Marshallable.UnmarshalBytes.
func (i *Int32) UnmarshalBytes(src []byte) []byte {
	*i = Int32(int32(hostarch.ByteOrder.Uint32(src[:4])))
	return src[4:]
}

// SizeBytes implements marshal.Marshallable.SizeBytes.
func (u *Uint32) SizeBytes() int { return 4 }

// MarshalBytes implements marshal.Marshallable.MarshalBytes.
func (u *Uint32) MarshalBytes(dst []byte) []byte {
	hostarch.ByteOrder.PutUint32(dst[:4], uint32(*u))
	return dst[4:]
}

// UnmarshalBytes implements marshal.Marshallable.UnmarshalBytes.
func (u *Uint32) UnmarshalBytes(src []byte) []byte {
	*u = Uint32(hostarch.ByteOrder.Uint32(src[:4]))
	return src[4:]
}

// SizeBytes implements marshal.Marshallable.SizeBytes.
func (i *Int64) SizeBytes() int { return 8 }

// MarshalBytes implements marshal.Marshallable.MarshalBytes.
func (i *Int64) MarshalBytes(dst []byte) []byte {
	hostarch.ByteOrder.PutUint64(dst[:8], uint64(*i))
	return dst[8:]
}

// UnmarshalBytes implements marshal.Marshallable.UnmarshalBytes.
func (i *Int64) UnmarshalBytes(src []byte) []byte {
	*i = Int64(int64(hostarch.ByteOrder.Uint64(src[:8])))
	return src[8:]
}

// SizeBytes implements marshal.Marshallable.SizeBytes.
func (u *Uint64) SizeBytes() int { return 8 }

// MarshalBytes implements marshal.Marshallable.MarshalBytes.
func (u *Uint64) MarshalBytes(dst []byte) []byte {
	hostarch.ByteOrder.PutUint64(dst[:8], uint64(*u))
	return dst[8:]
}

// UnmarshalBytes implements marshal.Marshallable.UnmarshalBytes.
func (u *Uint64) UnmarshalBytes(src []byte) []byte {
	*u = Uint64(hostarch.ByteOrder.Uint64(src[:8]))
	return src[8:]
}

// CopyInt32Out is a convenient wrapper for copying out an int32 value.
func CopyInt32Out(cc marshal.CopyContext, addr hostarch.Addr, src int32) (int, error) {
	i := Int32(src)
	buf := make([]byte, i.SizeBytes())
	i.MarshalBytes(buf)
	return cc.CopyOutBytes(addr, buf)
}

// CopyInt32In is a convenient wrapper for copying in an int32 value.
func CopyInt32In(cc marshal.CopyContext, addr hostarch.Addr, dst *int32) (int, error) {
	var i Int32
	buf := make([]byte, i.SizeBytes())
	n, err := cc.CopyInBytes(addr, buf)
	if err != nil {
		return n, err
	}
	i.UnmarshalBytes(buf)
	*dst = int32(i)
	return n, nil
}
