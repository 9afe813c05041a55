// Copyright 2025, 2026 Alexander Alten (novatechflow), NovaTechflow (novatechflow.com).
// This project is supported and financed by Scalytics, Inc. (www.scalytics.io).
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

package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "kafsource"

var (
	CyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Total ingestion cycles by result.",
		},
		[]string{"topic", "result"},
	)
	EventsAllocatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_allocated_total",
			Help:      "Total events allocated to batches per topic.",
		},
		[]string{"topic"},
	)
	RecordsFetchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_fetched_total",
			Help:      "Total records fetched and written per topic.",
		},
		[]string{"topic"},
	)
	CycleLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_latency_ms",
			Help:      "End-to-end cycle latency in milliseconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"topic"},
	)
	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total errors by stage.",
		},
		[]string{"stage"},
	)
	CheckpointOffset = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "checkpoint_offset",
			Help:      "Last committed offset per topic/partition.",
		},
		[]string{"topic", "partition"},
	)
	PartitionLag = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "partition_lag",
			Help:      "Head offset minus committed offset per topic/partition.",
		},
		[]string{"topic", "partition"},
	)
)

func init() {
	prometheus.MustRegister(
		CyclesTotal,
		EventsAllocatedTotal,
		RecordsFetchedTotal,
		CycleLatency,
		ErrorsTotal,
		CheckpointOffset,
		PartitionLag,
	)
}
