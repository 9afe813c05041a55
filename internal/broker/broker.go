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

// Package broker talks to the Kafka cluster: partition metadata, watermark
// offsets, and bounded record fetches. Any failure here is fatal for the
// current cycle and retryable on the next one.
package broker

import (
	"context"

	"github.com/novatechflow/kafsource/pkg/offsets"
)

// Record is one materialized Kafka record from a fetched range.
type Record struct {
	Topic     string            `json:"topic"`
	Partition int32             `json:"partition"`
	Offset    int64             `json:"offset"`
	Timestamp int64             `json:"timestamp_ms"`
	Key       []byte            `json:"key,omitempty"`
	Value     []byte            `json:"value"`
	Headers   map[string][]byte `json:"headers,omitempty"`
}

// Metadata reports the partition set and watermark offsets for a topic.
type Metadata interface {
	ListPartitions(ctx context.Context, topic string) ([]int32, error)
	EarliestOffsets(ctx context.Context, topic string, partitions []int32) (offsets.OffsetMap, error)
	LatestOffsets(ctx context.Context, topic string, partitions []int32) (offsets.OffsetMap, error)
}

// Fetcher materializes the records for exactly the given ranges. Records
// at or past a range's Until offset are never returned.
type Fetcher interface {
	Fetch(ctx context.Context, ranges []offsets.OffsetRange) ([]Record, error)
}
