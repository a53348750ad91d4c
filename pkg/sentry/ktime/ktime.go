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

// Package ktime provides the cycle counter the kernel reads for time.
package ktime

import (
	"sync/atomic"
	"time"
)

// DefaultFrequency is the cycle counter frequency of the reference board, in
// Hz.
const DefaultFrequency = 12500000

// Clock is a monotonic cycle counter.
type Clock interface {
	// Cycles returns the number of cycles since an arbitrary fixed point.
	// Successive calls never decrease.
	Cycles() uint64

	// Frequency returns the number of cycles per second.
	Frequency() uint64
}

// Millis converts a cycle delta on c into milliseconds.
func Millis(c Clock, cycles uint64) uint64 {
	freq := c.Frequency()
	return cycles/freq*1000 + cycles%freq*1000/freq
}

// HostClock derives cycles from the host monotonic clock.
type HostClock struct {
	start time.Time
	freq  uint64
}

var _ Clock = (*HostClock)(nil)

// NewHostClock returns a HostClock ticking at freq Hz, starting at zero.
func NewHostClock(freq uint64) *HostClock {
	if freq == 0 {
		freq = DefaultFrequency
	}
	return &HostClock{start: time.Now(), freq: freq}
}

// Cycles implements Clock.Cycles.
func (c *HostClock) Cycles() uint64 {
	ns := uint64(time.Since(c.start).Nanoseconds())
	const nsPerSec = uint64(time.Second)
	return ns/nsPerSec*c.freq + ns%nsPerSec*c.freq/nsPerSec
}

// Frequency implements Clock.Frequency.
func (c *HostClock) Frequency() uint64 {
	return c.freq
}

// ManualClock is a Clock that only moves when told to.
type ManualClock struct {
	cycles atomic.Uint64
	freq   uint64
}

var _ Clock = (*ManualClock)(nil)

// NewManualClock returns a ManualClock at zero ticking at freq Hz.
func NewManualClock(freq uint64) *ManualClock {
	if freq == 0 {
		freq = DefaultFrequency
	}
	return &ManualClock{freq: freq}
}

// Cycles implements Clock.Cycles.
func (c *ManualClock) Cycles() uint64 {
	return c.cycles.Load()
}

// Frequency implements Clock.Frequency.
func (c *ManualClock) Frequency() uint64 {
	return c.freq
}

// Advance moves the clock forward by n cycles.
func (c *ManualClock) Advance(n uint64) {
	c.cycles.Add(n)
}

// AdvanceDuration moves the clock forward by d.
func (c *ManualClock) AdvanceDuration(d time.Duration) {
	ns := uint64(d.Nanoseconds())
	const nsPerSec = uint64(time.Second)
	c.Advance(ns/nsPerSec*c.freq + ns%nsPerSec*c.freq/nsPerSec)
}
