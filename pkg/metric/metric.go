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

// Package metric provides primitives for collecting metrics.
package metric

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

var (
	// ErrNameInUse indicates that another metric is already defined for
	// the given name.
	ErrNameInUse = errors.New("metric name already in use")

	// ErrFieldValueContainsIllegalChar indicates that the value of a metric
	// field had an invalid character in it.
	ErrFieldValueContainsIllegalChar = errors.New("metric field value contains illegal character")

	// ErrFieldHasNoAllowedValues indicates that the field needs to define some
	// allowed values to be a valid and useful field.
	ErrFieldHasNoAllowedValues = errors.New("metric field does not define any allowed values")

	// ErrTooManyFields indicates that a metric was defined with more fields
	// than the exporter supports.
	ErrTooManyFields = errors.New("metric has more than one field")
)

// Field contains the field name and allowed values for the metric which is
// used in registration of the metric.
type Field struct {
	// name is the metric field name.
	name string

	// allowedValues is the list of allowed values for the field.
	allowedValues []string
}

// NewField defines a new Field that can be used to break down a metric.
func NewField(name string, allowedValues []string) Field {
	return Field{
		name:          name,
		allowedValues: allowedValues,
	}
}

// Name returns the field name.
func (f Field) Name() string {
	return f.name
}

// fieldMapper maps the value of the (at most one) field of a metric to an
// index into its counter array.
type fieldMapper struct {
	field   *Field
	indexOf map[string]int
}

func newFieldMapper(fields ...Field) (fieldMapper, error) {
	switch len(fields) {
	case 0:
		return fieldMapper{}, nil
	case 1:
	default:
		return fieldMapper{}, ErrTooManyFields
	}
	f := fields[0]
	if len(f.allowedValues) == 0 {
		return fieldMapper{}, ErrFieldHasNoAllowedValues
	}
	m := fieldMapper{field: &f, indexOf: make(map[string]int, len(f.allowedValues))}
	for i, v := range f.allowedValues {
		for _, c := range v {
			if c == '"' || c == '\\' || c == '\n' {
				return fieldMapper{}, ErrFieldValueContainsIllegalChar
			}
		}
		m.indexOf[v] = i
	}
	return m, nil
}

// lookup returns the counter index for the given field values. This must be
// called with the correct number of field values or it will panic.
func (m fieldMapper) lookup(fieldValues ...string) int {
	if m.field == nil {
		if len(fieldValues) != 0 {
			panic("invalid field lookup depth")
		}
		return 0
	}
	if len(fieldValues) != 1 {
		panic("invalid field lookup depth")
	}
	idx, ok := m.indexOf[fieldValues[0]]
	if !ok {
		panic(fmt.Sprintf("disallowed field value %q", fieldValues[0]))
	}
	return idx
}

func (m fieldMapper) numKeys() int {
	if m.field == nil {
		return 1
	}
	return len(m.field.allowedValues)
}

// Uint64Metric encapsulates a uint64 that represents some kind of metric to be
// monitored.
type Uint64Metric struct {
	name        string
	description string

	// fields is indexed by fieldMapper.
	fields      []atomic.Uint64
	fieldMapper fieldMapper
}

// NewUint64Metric creates and registers a new cumulative metric with the given
// name.
//
// Metrics must be statically defined (i.e., at init).
func NewUint64Metric(name string, description string, fields ...Field) (*Uint64Metric, error) {
	f, err := newFieldMapper(fields...)
	if err != nil {
		return nil, err
	}
	m := &Uint64Metric{
		name:        name,
		description: description,
		fieldMapper: f,
		fields:      make([]atomic.Uint64, f.numKeys()),
	}
	if err := allMetrics.register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// MustCreateNewUint64Metric calls NewUint64Metric and panics if it returns an
// error.
func MustCreateNewUint64Metric(name string, description string, fields ...Field) *Uint64Metric {
	m, err := NewUint64Metric(name, description, fields...)
	if err != nil {
		panic(fmt.Sprintf("Unable to create metric %q: %s", name, err))
	}
	return m
}

// Value returns the current value of the metric for the given set of fields.
// This must be called with the correct number of field values or it will panic.
func (m *Uint64Metric) Value(fieldValues ...string) uint64 {
	return m.fields[m.fieldMapper.lookup(fieldValues...)].Load()
}

// Increment increments the metric field by 1.
// This must be called with the correct number of field values or it will panic.
func (m *Uint64Metric) Increment(fieldValues ...string) {
	m.fields[m.fieldMapper.lookup(fieldValues...)].Add(1)
}

// IncrementBy increments the metric by v.
// This must be called with the correct number of field values or it will panic.
func (m *Uint64Metric) IncrementBy(v uint64, fieldValues ...string) {
	m.fields[m.fieldMapper.lookup(fieldValues...)].Add(v)
}

// metricSet holds all registered metrics.
type metricSet struct {
	mu sync.RWMutex

	// uint64Metrics is keyed by metric name.
	uint64Metrics map[string]*Uint64Metric
}

func makeMetricSet() *metricSet {
	return &metricSet{uint64Metrics: make(map[string]*Uint64Metric)}
}

func (s *metricSet) register(m *Uint64Metric) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.uint64Metrics[m.name]; ok {
		return ErrNameInUse
	}
	s.uint64Metrics[m.name] = m
	return nil
}

// sorted returns the registered metrics ordered by name.
func (s *metricSet) sorted() []*Uint64Metric {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ms := make([]*Uint64Metric, 0, len(s.uint64Metrics))
	for _, m := range s.uint64Metrics {
		ms = append(ms, m)
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].name < ms[j].name })
	return ms
}

// allMetrics are the registered metrics.
var allMetrics = makeMetricSet()

// Values returns a snapshot of all metrics. Each value is either a uint64 or,
// for metrics with a field, a map from field value to uint64.
func Values() map[string]any {
	vals := make(map[string]any)
	for _, m := range allMetrics.sorted() {
		if m.fieldMapper.field == nil {
			vals[m.name] = m.Value()
			continue
		}
		byField := make(map[string]uint64, m.fieldMapper.numKeys())
		for _, v := range m.fieldMapper.field.allowedValues {
			byField[v] = m.Value(v)
		}
		vals[m.name] = byField
	}
	return vals
}
