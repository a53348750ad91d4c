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

package metric

import (
	"fmt"
	"io"
	"strings"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// MetricNamePrefix is prepended to every exported metric name.
const MetricNamePrefix = "trapgate"

// PrometheusName converts a metric path such as "/kernel/syscalls" into a
// Prometheus metric name such as "trapgate_kernel_syscalls".
func PrometheusName(name string) string {
	return MetricNamePrefix + strings.NewReplacer("/", "_", "-", "_").Replace(name)
}

// familyOf builds the Prometheus counter family for m.
func familyOf(m *Uint64Metric) *dto.MetricFamily {
	fam := &dto.MetricFamily{
		Name: proto.String(PrometheusName(m.name)),
		Help: proto.String(m.description),
		Type: dto.MetricType_COUNTER.Enum(),
	}
	if m.fieldMapper.field == nil {
		fam.Metric = append(fam.Metric, &dto.Metric{
			Counter: &dto.Counter{Value: proto.Float64(float64(m.Value()))},
		})
		return fam
	}
	f := m.fieldMapper.field
	for _, v := range f.allowedValues {
		n := m.Value(v)
		if n == 0 {
			continue
		}
		fam.Metric = append(fam.Metric, &dto.Metric{
			Label:   []*dto.LabelPair{{Name: proto.String(f.name), Value: proto.String(v)}},
			Counter: &dto.Counter{Value: proto.Float64(float64(n))},
		})
	}
	return fam
}

// Families returns a snapshot of all registered metrics as Prometheus metric
// families, ordered by name. Labelled series that are still zero are omitted.
func Families() []*dto.MetricFamily {
	ms := allMetrics.sorted()
	fams := make([]*dto.MetricFamily, 0, len(ms))
	for _, m := range ms {
		fams = append(fams, familyOf(m))
	}
	return fams
}

// WritePrometheus writes all metrics to w in the Prometheus text exposition
// format.
func WritePrometheus(w io.Writer) error {
	for _, fam := range Families() {
		if len(fam.Metric) == 0 {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, fam); err != nil {
			return fmt.Errorf("writing metric %q: %w", fam.GetName(), err)
		}
	}
	return nil
}
