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

package bitmap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAddRemove(t *testing.T) {
	b := New(130)
	for _, i := range []uint32{0, 63, 64, 129} {
		b.Add(i)
	}
	b.Add(63)
	if got := b.GetNumOnes(); got != 4 {
		t.Errorf("GetNumOnes(): got %d, want 4", got)
	}
	b.Remove(63)
	b.Remove(63)
	if diff := cmp.Diff([]uint32{0, 64, 129}, b.ToSlice()); diff != "" {
		t.Errorf("ToSlice() mismatch (-want +got):\n%s", diff)
	}
	if !b.Contains(129) || b.Contains(63) || b.Contains(500) {
		t.Errorf("Contains gave wrong answers")
	}
}

func TestFirstZero(t *testing.T) {
	b := New(70)
	for i := uint32(0); i < 65; i++ {
		b.Add(i)
	}
	if got, err := b.FirstZero(0); got != 65 || err != nil {
		t.Errorf("FirstZero(0): got (%d, %v), want (65, nil)", got, err)
	}
	for i := uint32(65); i < 70; i++ {
		b.Add(i)
	}
	if _, err := b.FirstZero(0); err == nil {
		t.Errorf("FirstZero on full bitmap succeeded")
	}
	if _, err := b.FirstZero(70); err == nil {
		t.Errorf("FirstZero past end succeeded")
	}
}

func TestAddOutOfRangePanics(t *testing.T) {
	b := New(8)
	defer func() {
		if recover() == nil {
			t.Errorf("Add(8) did not panic")
		}
	}()
	b.Add(8)
}
