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

// Package loader loads program images into a fresh address space.
//
// An image is a list of segments, each a page-aligned address with
// permissions and initial bytes. Images are registered by name; exec looks
// them up in a Registry.
package loader

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"trapgate.dev/trapgate/pkg/errors/kernerr"
	"trapgate.dev/trapgate/pkg/hostarch"
	"trapgate.dev/trapgate/pkg/log"
	"trapgate.dev/trapgate/pkg/sentry/mm"
)

// Segment is a region of an image.
type Segment struct {
	// Addr is the page-aligned load address.
	Addr hostarch.Addr

	// Perms are the page permissions. At least one must be set.
	Perms hostarch.AccessType

	// Data is copied to Addr. The rest of the segment is zero.
	Data []byte

	// MemSize is the size of the segment in memory. If smaller than
	// len(Data) it is raised to len(Data).
	MemSize uint64
}

// memSize returns the number of bytes the segment occupies.
func (s *Segment) memSize() uint64 {
	if n := uint64(len(s.Data)); n > s.MemSize {
		return n
	}
	return s.MemSize
}

// Image is a loadable program.
type Image struct {
	Name     string
	Entry    hostarch.Addr
	Segments []Segment
}

// Validate checks that segments are aligned, inside user space and disjoint.
func (img *Image) Validate() error {
	if img.Name == "" {
		return fmt.Errorf("image has no name")
	}
	ranges := make([]hostarch.AddrRange, 0, len(img.Segments))
	for i := range img.Segments {
		s := &img.Segments[i]
		if !s.Addr.IsPageAligned() {
			return fmt.Errorf("image %q: segment %d at %v is not page aligned", img.Name, i, s.Addr)
		}
		if !s.Perms.Any() {
			return fmt.Errorf("image %q: segment %d has no permissions", img.Name, i)
		}
		end, ok := hostarch.PageRoundUp(s.memSize())
		if !ok {
			return fmt.Errorf("image %q: segment %d is too large", img.Name, i)
		}
		ar, ok := s.Addr.ToRange(end)
		if !ok || ar.End > hostarch.MaxUserAddress {
			return fmt.Errorf("image %q: segment %d %v is outside user space", img.Name, i, ar)
		}
		ranges = append(ranges, ar)
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })
	for i := 1; i < len(ranges); i++ {
		if ranges[i].Start < ranges[i-1].End {
			return fmt.Errorf("image %q: segments %v and %v overlap", img.Name, ranges[i-1], ranges[i])
		}
	}
	return nil
}

// Load maps every segment of img into m.
func Load(ctx context.Context, m *mm.MemoryManager, img *Image) error {
	for i := range img.Segments {
		s := &img.Segments[i]
		if err := m.MapSegment(ctx, s.Addr, s.Data, s.memSize(), s.Perms); err != nil {
			return fmt.Errorf("loading %q segment %d at %v: %w", img.Name, i, s.Addr, err)
		}
	}
	log.Debugf("Loaded image %q: %d segments, entry %v", img.Name, len(img.Segments), img.Entry)
	return nil
}

// Registry holds the images available to exec.
type Registry struct {
	mu     sync.RWMutex
	images map[string]*Image
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{images: make(map[string]*Image)}
}

// Register validates img and adds it, replacing any image of the same name.
func (r *Registry) Register(img *Image) error {
	if err := img.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images[img.Name] = img
	return nil
}

// Lookup returns the image called name, or kernerr.NoSuchImage.
func (r *Registry) Lookup(name string) (*Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	img, ok := r.images[name]
	if !ok {
		return nil, kernerr.NoSuchImage
	}
	return img, nil
}

// Names returns the registered image names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.images))
	for name := range r.images {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
