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

// Package pagetables provides a software three-level page table in the Sv39
// layout.
//
// Interior nodes are held as Go pointers rather than frames, so tables cost
// no user frames. Leaf entries carry the frame number and permission bits.
// Tables are not synchronized; the owning memory manager serializes access.
package pagetables

import (
	"fmt"

	"trapgate.dev/trapgate/pkg/hostarch"
	"trapgate.dev/trapgate/pkg/sentry/pgalloc"
)

// PTE is a leaf page table entry.
type PTE uint64

// Entry bits.
const (
	Valid   PTE = 1 << 0
	Read    PTE = 1 << 1
	Write   PTE = 1 << 2
	Execute PTE = 1 << 3
	User    PTE = 1 << 4

	// Anonymous is a software-reserved bit set on pages installed by mmap.
	// Only such pages may be removed by munmap.
	Anonymous PTE = 1 << 8

	// flagsMask covers every non-address bit.
	flagsMask PTE = 1<<ppnShift - 1

	ppnShift = 10
)

// MakePTE returns a valid entry for fn with the given flags.
func MakePTE(fn pgalloc.FrameNumber, flags PTE) PTE {
	return PTE(fn)<<ppnShift | (flags & flagsMask) | Valid
}

// Valid returns true iff the entry holds a translation.
func (p PTE) Valid() bool {
	return p&Valid != 0
}

// Frame returns the frame the entry points to.
func (p PTE) Frame() pgalloc.FrameNumber {
	return pgalloc.FrameNumber(p >> ppnShift)
}

// Flags returns the permission and software bits of the entry.
func (p PTE) Flags() PTE {
	return p & flagsMask
}

// AccessType returns the R/W/X permissions of the entry.
func (p PTE) AccessType() hostarch.AccessType {
	return hostarch.AccessType{
		Read:    p&Read != 0,
		Write:   p&Write != 0,
		Execute: p&Execute != 0,
	}
}

// IsUser returns true iff user mode may access the page.
func (p PTE) IsUser() bool {
	return p&User != 0
}

// IsAnonymous returns true iff the page was installed by mmap.
func (p PTE) IsAnonymous() bool {
	return p&Anonymous != 0
}

// String implements fmt.Stringer.String.
func (p PTE) String() string {
	if !p.Valid() {
		return "invalid"
	}
	u := "-"
	if p.IsUser() {
		u = "u"
	}
	return fmt.Sprintf("frame %d %s%s", p.Frame(), p.AccessType(), u)
}

// PageTables is the set of page table primitives the memory manager uses.
type PageTables interface {
	// Map installs pte for the page at addr. It fails if addr already has a
	// translation.
	Map(addr hostarch.Addr, pte PTE) error

	// Unmap removes the translation at addr and returns it.
	Unmap(addr hostarch.Addr) (PTE, bool)

	// Lookup returns the translation at addr.
	Lookup(addr hostarch.Addr) (PTE, bool)

	// Walk calls fn for every valid entry in ascending address order until
	// fn returns false.
	Walk(fn func(addr hostarch.Addr, pte PTE) bool)
}

const entriesPerNode = 1 << hostarch.PTEShift

// node is one level of the table.
type node struct {
	// entries holds leaves on the last level.
	entries [entriesPerNode]PTE

	// children holds the next level on interior levels.
	children [entriesPerNode]*node

	// live is the number of valid entries or non-nil children.
	live int
}

// Tables is the default PageTables implementation.
type Tables struct {
	root node

	// nodes is the number of allocated interior and leaf nodes, excluding
	// the root.
	nodes int
}

var _ PageTables = (*Tables)(nil)

// New returns an empty set of tables.
func New() *Tables {
	return &Tables{}
}

// index returns the entry index of addr at level (0 is the root).
func index(addr hostarch.Addr, level int) int {
	shift := hostarch.PageShift + hostarch.PTEShift*(hostarch.PTELevels-1-level)
	return int(addr>>shift) & (entriesPerNode - 1)
}

func checkAddr(addr hostarch.Addr) error {
	if !addr.IsPageAligned() {
		return fmt.Errorf("address %v is not page aligned", addr)
	}
	if addr >= hostarch.MaxUserAddress {
		return fmt.Errorf("address %v is outside the user address space", addr)
	}
	return nil
}

// leaf returns the last-level node covering addr, allocating interior nodes
// if alloc is true.
func (t *Tables) leaf(addr hostarch.Addr, alloc bool) *node {
	n := &t.root
	for level := 0; level < hostarch.PTELevels-1; level++ {
		i := index(addr, level)
		next := n.children[i]
		if next == nil {
			if !alloc {
				return nil
			}
			next = &node{}
			n.children[i] = next
			n.live++
			t.nodes++
		}
		n = next
	}
	return n
}

// Map implements PageTables.Map.
func (t *Tables) Map(addr hostarch.Addr, pte PTE) error {
	if err := checkAddr(addr); err != nil {
		return err
	}
	if !pte.Valid() {
		return fmt.Errorf("mapping invalid entry at %v", addr)
	}
	n := t.leaf(addr, true)
	i := index(addr, hostarch.PTELevels-1)
	if n.entries[i].Valid() {
		return fmt.Errorf("address %v already mapped to %v", addr, n.entries[i])
	}
	n.entries[i] = pte
	n.live++
	return nil
}

// Unmap implements PageTables.Unmap. Nodes left empty are released.
func (t *Tables) Unmap(addr hostarch.Addr) (PTE, bool) {
	if checkAddr(addr) != nil {
		return 0, false
	}
	var path [hostarch.PTELevels]*node
	n := &t.root
	for level := 0; level < hostarch.PTELevels-1; level++ {
		path[level] = n
		n = n.children[index(addr, level)]
		if n == nil {
			return 0, false
		}
	}
	path[hostarch.PTELevels-1] = n

	i := index(addr, hostarch.PTELevels-1)
	old := n.entries[i]
	if !old.Valid() {
		return 0, false
	}
	n.entries[i] = 0
	n.live--

	// Prune empty nodes bottom-up.
	for level := hostarch.PTELevels - 1; level > 0; level-- {
		if path[level].live != 0 {
			break
		}
		parent := path[level-1]
		parent.children[index(addr, level-1)] = nil
		parent.live--
		t.nodes--
	}
	return old, true
}

// Lookup implements PageTables.Lookup.
func (t *Tables) Lookup(addr hostarch.Addr) (PTE, bool) {
	if addr >= hostarch.MaxUserAddress {
		return 0, false
	}
	n := t.leaf(addr, false)
	if n == nil {
		return 0, false
	}
	pte := n.entries[index(addr, hostarch.PTELevels-1)]
	return pte, pte.Valid()
}

// Walk implements PageTables.Walk.
func (t *Tables) Walk(fn func(addr hostarch.Addr, pte PTE) bool) {
	t.walk(&t.root, 0, 0, fn)
}

func (t *Tables) walk(n *node, level int, base hostarch.Addr, fn func(hostarch.Addr, PTE) bool) bool {
	shift := hostarch.PageShift + hostarch.PTEShift*(hostarch.PTELevels-1-level)
	for i := 0; i < entriesPerNode; i++ {
		addr := base | hostarch.Addr(i)<<shift
		if level == hostarch.PTELevels-1 {
			if pte := n.entries[i]; pte.Valid() && !fn(addr, pte) {
				return false
			}
			continue
		}
		if child := n.children[i]; child != nil && !t.walk(child, level+1, addr, fn) {
			return false
		}
	}
	return true
}

// Nodes returns the number of allocated table nodes below the root.
func (t *Tables) Nodes() int {
	return t.nodes
}
