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

// Package offsets computes bounded, fair per-partition offset ranges for
// one ingestion cycle and encodes progress as a checkpoint string. All
// functions are pure; callers own persistence and all broker I/O.
package offsets

import "fmt"

// TopicPartition identifies one partition of a topic. Comparable, used as
// a map key.
type TopicPartition struct {
	Topic     string
	Partition int32
}

func (tp TopicPartition) String() string {
	return fmt.Sprintf("%s-%d", tp.Topic, tp.Partition)
}

// OffsetMap holds one offset per partition.
type OffsetMap map[TopicPartition]int64

// OffsetRange is the half-open slice [From, Until) to read from one
// partition in one cycle. Until >= From always holds.
type OffsetRange struct {
	TopicPartition TopicPartition
	From           int64
	Until          int64
}

// Count returns the number of events covered by the range.
func (r OffsetRange) Count() int64 {
	return r.Until - r.From
}
