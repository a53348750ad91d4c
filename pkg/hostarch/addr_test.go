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

package hostarch

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRounding(t *testing.T) {
	for _, test := range []struct {
		addr     Addr
		down, up Addr
		upOK     bool
	}{
		{0, 0, 0, true},
		{1, 0, PageSize, true},
		{PageSize, PageSize, PageSize, true},
		{PageSize + 1, PageSize, 2 * PageSize, true},
		{^Addr(0), ^Addr(0) &^ (PageSize - 1), 0, false},
	} {
		if got := test.addr.RoundDown(); got != test.down {
			t.Errorf("%v.RoundDown(): got %v, want %v", test.addr, got, test.down)
		}
		got, ok := test.addr.RoundUp()
		if ok != test.upOK || (ok && got != test.up) {
			t.Errorf("%v.RoundUp(): got (%v, %t), want (%v, %t)", test.addr, got, ok, test.up, test.upOK)
		}
	}
}

func TestPagesIn(t *testing.T) {
	for _, test := range []struct {
		length uint64
		want   uint64
	}{
		{0, 0},
		{1, 1},
		{PageSize, 1},
		{PageSize + 1, 2},
		{2 * PageSize, 2},
	} {
		if got := PagesIn(test.length); got != test.want {
			t.Errorf("PagesIn(%d): got %d, want %d", test.length, got, test.want)
		}
	}
}

func TestAddrRangePages(t *testing.T) {
	ar := AddrRange{0x10000, 0x13000}
	var got []Addr
	ar.Pages(func(page Addr) bool {
		got = append(got, page)
		return true
	})
	want := []Addr{0x10000, 0x11000, 0x12000}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Pages() mismatch (-want +got):\n%s", diff)
	}
	if n := ar.NumPages(); n != 3 {
		t.Errorf("NumPages(): got %d, want 3", n)
	}
}

func TestToRangeOverflow(t *testing.T) {
	if _, ok := Addr(^uintptr(0) - 1).ToRange(PageSize); ok {
		t.Errorf("ToRange did not report overflow")
	}
	ar, ok := Addr(0x1000).ToRange(0x2000)
	if !ok || ar != (AddrRange{0x1000, 0x3000}) {
		t.Errorf("ToRange: got (%v, %t), want ([0x1000, 0x3000), true)", ar, ok)
	}
}

func TestAccessTypeString(t *testing.T) {
	for at, want := range map[AccessType]string{
		NoAccess:  "---",
		Read:      "r--",
		ReadWrite: "rw-",
		AnyAccess: "rwx",
		Execute:   "--x",
	} {
		if got := at.String(); got != want {
			t.Errorf("%#v.String(): got %q, want %q", at, got, want)
		}
	}
	if !ReadWrite.SupersetOf(Read) || Read.SupersetOf(ReadWrite) {
		t.Errorf("SupersetOf gave wrong answer for rw-/r--")
	}
}
