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

package offsets

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNoPartitions is returned when the head offset map is empty; the
// caller must abort the cycle without touching its checkpoint.
var ErrNoPartitions = errors.New("no partitions to allocate")

// ErrInvalidBudget is returned for a non-positive event budget.
var ErrInvalidBudget = errors.New("event budget must be positive")

// ErrOffsetOutOfRange is returned when a tracked offset is past a
// partition's current head, e.g. after retention trimmed the log under a
// stale checkpoint. Wrapped with partition detail by ComputeRanges.
var ErrOffsetOutOfRange = errors.New("tracked offset beyond partition head")

// ComputeRanges allocates up to budget events across partitions for one
// cycle, handling newly added partitions and skewed backlogs.
//
// from holds the offsets where the previous cycle left off; partitions
// missing from it start at 0. to holds the current head offset for every
// partition that exists and defines the output domain exactly: one range
// per entry, sorted by partition index. Remaining budget is redistributed
// to partitions that still have backlog each round, so a burst on one
// partition cannot starve the others, and no range ever passes its head.
func ComputeRanges(from, to OffsetMap, budget int64) ([]OffsetRange, error) {
	if len(to) == 0 {
		return nil, ErrNoPartitions
	}
	if budget <= 0 {
		return nil, ErrInvalidBudget
	}

	ranges := make([]OffsetRange, 0, len(to))
	for tp, head := range to {
		start := from[tp]
		if start > head {
			return nil, fmt.Errorf("partition %s: tracked %d, head %d: %w", tp, start, head, ErrOffsetOutOfRange)
		}
		ranges = append(ranges, OffsetRange{TopicPartition: tp, From: start, Until: start})
	}
	sort.Slice(ranges, func(i, j int) bool {
		return ranges[i].TopicPartition.Partition < ranges[j].TopicPartition.Partition
	})

	var allocated int64
	exhausted := make(map[int32]bool, len(ranges))
	for allocated < budget && len(exhausted) < len(ranges) {
		remaining := budget - allocated
		active := int64(len(ranges) - len(exhausted))
		// ceil(remaining/active): partitions that run dry this round hand
		// their unused share to the next round.
		share := (remaining + active - 1) / active

		for i := range ranges {
			r := ranges[i]
			if exhausted[r.TopicPartition.Partition] {
				continue
			}
			grant := share
			if left := budget - allocated; grant > left {
				grant = left
			}
			if grant == 0 {
				break
			}
			head := to[r.TopicPartition]
			next := r.Until + grant
			if next >= head {
				next = head
				exhausted[r.TopicPartition.Partition] = true
			}
			allocated += next - r.Until
			ranges[i].Until = next
		}
	}

	return ranges, nil
}

// TotalEvents sums the event counts of all ranges. Zero means the cycle
// has no new data.
func TotalEvents(ranges []OffsetRange) int64 {
	var total int64
	for _, r := range ranges {
		total += r.Count()
	}
	return total
}
