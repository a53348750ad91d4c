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

// Package usermem governs access to user memory.
package usermem

import (
	"context"

	"trapgate.dev/trapgate/pkg/hostarch"
	"trapgate.dev/trapgate/pkg/marshal"
)

// IO provides access to the contents of a virtual memory space.
type IO interface {
	// CopyOut copies len(src) bytes from src to the memory mapped at addr. It
	// returns the number of bytes copied. If the number of bytes copied is <
	// len(src), it returns a non-nil error explaining why.
	CopyOut(ctx context.Context, addr hostarch.Addr, src []byte, opts IOOpts) (int, error)

	// CopyIn copies len(dst) bytes from the memory mapped at addr to dst.
	// It returns the number of bytes copied. If the number of bytes copied is
	// < len(dst), it returns a non-nil error explaining why.
	CopyIn(ctx context.Context, addr hostarch.Addr, dst []byte, opts IOOpts) (int, error)
}

// IOOpts contains options applicable to all IO methods.
type IOOpts struct {
	// If IgnorePermissions is true, application-defined memory protections
	// set by mmap(2) should be ignored. Only the loader and tests set it.
	IgnorePermissions bool
}

// CopyInString copies a NUL-terminated string of length at most maxlen from
// the memory mapped at addr into dst. maxlen is capped at len(dst).
//
// It returns the number of bytes copied including the terminating NUL if one
// was found, or maxlen if none was found within maxlen bytes. Bytes at offsets
// >= maxlen are never read. Memory is read at most one page at a time, so a
// string that ends before an unmapped page is copied successfully.
func CopyInString(ctx context.Context, uio IO, addr hostarch.Addr, dst []byte, maxlen int, opts IOOpts) (int, error) {
	if maxlen > len(dst) {
		maxlen = len(dst)
	}
	done := 0
	for done < maxlen {
		start, ok := addr.AddLength(uint64(done))
		if !ok {
			return done, errOverflow(start)
		}
		chunk := int(hostarch.PageSize - start.PageOffset())
		if chunk > maxlen-done {
			chunk = maxlen - done
		}
		n, err := uio.CopyIn(ctx, start, dst[done:done+chunk], opts)
		for i, b := range dst[done : done+n] {
			if b == 0 {
				return done + i + 1, nil
			}
		}
		done += n
		if err != nil {
			return done, err
		}
	}
	return maxlen, nil
}

// CopyObjectOut serializes src and copies it to the memory mapped at addr.
func CopyObjectOut(ctx context.Context, uio IO, addr hostarch.Addr, src marshal.Marshallable, opts IOOpts) (int, error) {
	buf := make([]byte, src.SizeBytes())
	src.MarshalBytes(buf)
	return uio.CopyOut(ctx, addr, buf, opts)
}

// CopyObjectIn copies a serialized object from the memory mapped at addr and
// deserializes it into dst. dst is left unmodified on a partial copy.
func CopyObjectIn(ctx context.Context, uio IO, addr hostarch.Addr, dst marshal.Marshallable, opts IOOpts) (int, error) {
	buf := make([]byte, dst.SizeBytes())
	n, err := uio.CopyIn(ctx, addr, buf, opts)
	if err != nil {
		return n, err
	}
	dst.UnmarshalBytes(buf)
	return n, nil
}

// IOCopyContext wraps an object implementing IO to implement
// marshal.CopyContext. Tests use it with BytesIO to exercise marshal helpers
// without a MemoryManager.
type IOCopyContext struct {
	Ctx  context.Context
	IO   IO
	Opts IOOpts
}

var _ marshal.CopyContext = (*IOCopyContext)(nil)

// CopyOutBytes implements marshal.CopyContext.CopyOutBytes.
func (i *IOCopyContext) CopyOutBytes(addr hostarch.Addr, b []byte) (int, error) {
	return i.IO.CopyOut(i.Ctx, addr, b, i.Opts)
}

// CopyInBytes implements marshal.CopyContext.CopyInBytes.
func (i *IOCopyContext) CopyInBytes(addr hostarch.Addr, b []byte) (int, error) {
	return i.IO.CopyIn(i.Ctx, addr, b, i.Opts)
}
