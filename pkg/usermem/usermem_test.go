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

package usermem

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"trapgate.dev/trapgate/pkg/abi/linux"
	"trapgate.dev/trapgate/pkg/errors/kernerr"
	"trapgate.dev/trapgate/pkg/hostarch"
	"trapgate.dev/trapgate/pkg/marshal/primitive"
)

func newBytesIOString(s string) *BytesIO {
	return &BytesIO{[]byte(s)}
}

func TestBytesIOCopyOutSuccess(t *testing.T) {
	b := newBytesIOString("ABCDE")
	n, err := b.CopyOut(context.Background(), 1, []byte("foo"), IOOpts{})
	if wantN := 3; n != wantN || err != nil {
		t.Errorf("CopyOut: got (%v, %v), wanted (%v, nil)", n, err, wantN)
	}
	if got, want := b.Bytes, []byte("AfooE"); !bytes.Equal(got, want) {
		t.Errorf("Bytes: got %q, wanted %q", got, want)
	}
}

func TestBytesIOCopyOutFailure(t *testing.T) {
	b := newBytesIOString("ABC")
	n, err := b.CopyOut(context.Background(), 1, []byte("foo"), IOOpts{})
	if wantN, wantErr := 2, kernerr.BadAddress; n != wantN || err != wantErr {
		t.Errorf("CopyOut: got (%v, %v), wanted (%v, %v)", n, err, wantN, wantErr)
	}
	if got, want := b.Bytes, []byte("Afo"); !bytes.Equal(got, want) {
		t.Errorf("Bytes: got %q, wanted %q", got, want)
	}
}

func TestBytesIOCopyInSuccess(t *testing.T) {
	b := newBytesIOString("AfooE")
	var dst [3]byte
	n, err := b.CopyIn(context.Background(), 1, dst[:], IOOpts{})
	if wantN := 3; n != wantN || err != nil {
		t.Errorf("CopyIn: got (%v, %v), wanted (%v, nil)", n, err, wantN)
	}
	if got, want := dst[:], []byte("foo"); !bytes.Equal(got, want) {
		t.Errorf("dst: got %q, wanted %q", got, want)
	}
}

func TestBytesIOCopyInFailure(t *testing.T) {
	b := newBytesIOString("Afo")
	var dst [3]byte
	n, err := b.CopyIn(context.Background(), 1, dst[:], IOOpts{})
	if wantN, wantErr := 2, kernerr.BadAddress; n != wantN || err != wantErr {
		t.Errorf("CopyIn: got (%v, %v), wanted (%v, %v)", n, err, wantN, wantErr)
	}
	if got, want := dst[:], []byte("fo\x00"); !bytes.Equal(got, want) {
		t.Errorf("dst: got %q, wanted %q", got, want)
	}
}

// countingIO records the highest offset read through it.
type countingIO struct {
	BytesIO
	maxRead int
	reads   int
}

func (c *countingIO) CopyIn(ctx context.Context, addr hostarch.Addr, dst []byte, opts IOOpts) (int, error) {
	c.reads++
	if end := int(addr) + len(dst); end > c.maxRead {
		c.maxRead = end
	}
	return c.BytesIO.CopyIn(ctx, addr, dst, opts)
}

func TestCopyInString(t *testing.T) {
	for _, tc := range []struct {
		name    string
		mem     string
		addr    hostarch.Addr
		bufLen  int
		maxlen  int
		wantN   int
		wantStr string
		wantErr error
	}{
		{name: "terminated", mem: "hello\x00world", bufLen: 16, maxlen: 16, wantN: 6, wantStr: "hello\x00"},
		{name: "truncated", mem: "hello world", bufLen: 16, maxlen: 5, wantN: 5, wantStr: "hello"},
		{name: "capped by buffer", mem: "abcdefgh", bufLen: 3, maxlen: 100, wantN: 3, wantStr: "abc"},
		{name: "empty", mem: "\x00", bufLen: 4, maxlen: 4, wantN: 1, wantStr: "\x00"},
		{name: "zero maxlen", mem: "abc", bufLen: 4, maxlen: 0, wantN: 0, wantStr: ""},
		{name: "fault before terminator", mem: "abc", bufLen: 8, maxlen: 8, wantN: 3, wantStr: "abc", wantErr: kernerr.BadAddress},
		{name: "fault after terminator", mem: "ab\x00", bufLen: 8, maxlen: 8, wantN: 3, wantStr: "ab\x00"},
		{name: "bad start", mem: "abc", addr: 10, bufLen: 8, maxlen: 8, wantN: 0, wantStr: "", wantErr: kernerr.BadAddress},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b := newBytesIOString(tc.mem)
			dst := make([]byte, tc.bufLen)
			n, err := CopyInString(context.Background(), b, tc.addr, dst, tc.maxlen, IOOpts{})
			if n != tc.wantN || !errors.Is(err, tc.wantErr) || (tc.wantErr == nil && err != nil) {
				t.Errorf("CopyInString: got (%d, %v), want (%d, %v)", n, err, tc.wantN, tc.wantErr)
			}
			if got := string(dst[:n]); got != tc.wantStr {
				t.Errorf("CopyInString: got string %q, want %q", got, tc.wantStr)
			}
		})
	}
}

func TestCopyInStringNeverReadsPastMaxlen(t *testing.T) {
	c := &countingIO{BytesIO: BytesIO{[]byte(strings.Repeat("x", 3*hostarch.PageSize))}}
	dst := make([]byte, 3*hostarch.PageSize)
	const maxlen = hostarch.PageSize + 10
	n, err := CopyInString(context.Background(), c, 100, dst, maxlen, IOOpts{})
	if n != maxlen || err != nil {
		t.Fatalf("CopyInString: got (%d, %v), want (%d, nil)", n, err, maxlen)
	}
	if want := 100 + maxlen; c.maxRead != want {
		t.Errorf("highest offset read: got %d, want %d", c.maxRead, want)
	}
	// [100, 4096) then [4096, 4206).
	if c.reads != 2 {
		t.Errorf("reads: got %d, want 2 (one per page touched)", c.reads)
	}
}

func TestCopyObject(t *testing.T) {
	b := &BytesIO{make([]byte, 32)}
	ctx := context.Background()

	tv := linux.Timeval{Sec: 5, Usec: 250}
	if n, err := CopyObjectOut(ctx, b, 8, &tv, IOOpts{}); n != linux.SizeOfTimeval || err != nil {
		t.Fatalf("CopyObjectOut: got (%d, %v), want (%d, nil)", n, err, linux.SizeOfTimeval)
	}
	var got linux.Timeval
	if _, err := CopyObjectIn(ctx, b, 8, &got, IOOpts{}); err != nil {
		t.Fatalf("CopyObjectIn: %v", err)
	}
	if diff := cmp.Diff(tv, got); diff != "" {
		t.Errorf("Timeval mismatch (-want +got):\n%s", diff)
	}

	code := primitive.Int32(-7)
	if _, err := CopyObjectOut(ctx, b, 30, &code, IOOpts{}); !errors.Is(err, kernerr.BadAddress) {
		t.Errorf("CopyObjectOut past end: got %v, want %v", err, kernerr.BadAddress)
	}
	cc := &IOCopyContext{Ctx: ctx, IO: b}
	if n, err := cc.CopyOutBytes(0, []byte{1, 2}); n != 2 || err != nil {
		t.Errorf("CopyOutBytes: got (%d, %v), want (2, nil)", n, err)
	}
}
