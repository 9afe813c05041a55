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
	"reflect"
	"testing"
)

func tp(partition int32) TopicPartition {
	return TopicPartition{Topic: "orders", Partition: partition}
}

func TestComputeRangesSkewedBacklog(t *testing.T) {
	from := OffsetMap{tp(0): 0, tp(1): 0}
	to := OffsetMap{tp(0): 100, tp(1): 10}

	ranges, err := ComputeRanges(from, to, 50)
	if err != nil {
		t.Fatalf("ComputeRanges: %v", err)
	}

	// Round 1 grants 25 each; partition 1 runs dry at 10 and frees its
	// unused share for partition 0 in round 2.
	want := []OffsetRange{
		{TopicPartition: tp(0), From: 0, Until: 40},
		{TopicPartition: tp(1), From: 0, Until: 10},
	}
	if !reflect.DeepEqual(ranges, want) {
		t.Fatalf("unexpected ranges: %+v", ranges)
	}
	if total := TotalEvents(ranges); total != 50 {
		t.Fatalf("expected 50 events, got %d", total)
	}
}

func TestComputeRangesNewPartitionStartsAtZero(t *testing.T) {
	ranges, err := ComputeRanges(OffsetMap{}, OffsetMap{tp(0): 5}, 100)
	if err != nil {
		t.Fatalf("ComputeRanges: %v", err)
	}
	if len(ranges) != 1 {
		t.Fatalf("expected 1 range, got %d", len(ranges))
	}
	if ranges[0].From != 0 || ranges[0].Until != 5 {
		t.Fatalf("unexpected range: %+v", ranges[0])
	}
}

func TestComputeRangesCaughtUpPartitionStaysPut(t *testing.T) {
	ranges, err := ComputeRanges(OffsetMap{tp(0): 10}, OffsetMap{tp(0): 10}, 1000)
	if err != nil {
		t.Fatalf("ComputeRanges: %v", err)
	}
	if ranges[0].From != 10 || ranges[0].Until != 10 {
		t.Fatalf("unexpected range: %+v", ranges[0])
	}
	if TotalEvents(ranges) != 0 {
		t.Fatalf("expected no events")
	}
}

func TestComputeRangesFullCatchUpUnderBudget(t *testing.T) {
	from := OffsetMap{tp(0): 5, tp(1): 0, tp(2): 90}
	to := OffsetMap{tp(0): 30, tp(1): 42, tp(2): 100}

	ranges, err := ComputeRanges(from, to, 1_000_000)
	if err != nil {
		t.Fatalf("ComputeRanges: %v", err)
	}
	for _, r := range ranges {
		if r.Until != to[r.TopicPartition] {
			t.Fatalf("partition %d not caught up: %+v", r.TopicPartition.Partition, r)
		}
	}
}

func TestComputeRangesNeverExceedsBudgetOrHead(t *testing.T) {
	cases := []struct {
		name   string
		from   OffsetMap
		to     OffsetMap
		budget int64
	}{
		{"uneven split", OffsetMap{tp(0): 0, tp(1): 0, tp(2): 0}, OffsetMap{tp(0): 1000, tp(1): 1000, tp(2): 1000}, 50},
		{"one event", OffsetMap{tp(0): 3}, OffsetMap{tp(0): 9}, 1},
		{"mixed backlog", OffsetMap{tp(0): 10, tp(1): 7}, OffsetMap{tp(0): 12, tp(1): 700}, 101},
		{"many partitions", OffsetMap{}, OffsetMap{tp(0): 3, tp(1): 0, tp(2): 17, tp(3): 5, tp(4): 9}, 13},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ranges, err := ComputeRanges(tc.from, tc.to, tc.budget)
			if err != nil {
				t.Fatalf("ComputeRanges: %v", err)
			}
			if len(ranges) != len(tc.to) {
				t.Fatalf("expected %d ranges, got %d", len(tc.to), len(ranges))
			}
			var backlog int64
			for _, r := range ranges {
				head := tc.to[r.TopicPartition]
				if r.From > r.Until || r.Until > head {
					t.Fatalf("range out of bounds (head %d): %+v", head, r)
				}
				backlog += head - tc.from[r.TopicPartition]
			}
			total := TotalEvents(ranges)
			if total > tc.budget {
				t.Fatalf("allocated %d over budget %d", total, tc.budget)
			}
			if backlog >= tc.budget && total != tc.budget {
				t.Fatalf("budget %d not filled despite backlog %d: got %d", tc.budget, backlog, total)
			}
			if backlog < tc.budget && total != backlog {
				t.Fatalf("expected full catch-up of %d events, got %d", backlog, total)
			}
		})
	}
}

func TestComputeRangesSortedByPartition(t *testing.T) {
	to := OffsetMap{tp(4): 9, tp(0): 4, tp(2): 6}
	ranges, err := ComputeRanges(OffsetMap{}, to, 100)
	if err != nil {
		t.Fatalf("ComputeRanges: %v", err)
	}
	for i := 1; i < len(ranges); i++ {
		if ranges[i-1].TopicPartition.Partition >= ranges[i].TopicPartition.Partition {
			t.Fatalf("ranges not sorted: %+v", ranges)
		}
	}
}

func TestComputeRangesDeterministic(t *testing.T) {
	from := OffsetMap{tp(0): 1, tp(1): 2, tp(2): 3}
	to := OffsetMap{tp(0): 500, tp(1): 2, tp(2): 77}

	first, err := ComputeRanges(from, to, 60)
	if err != nil {
		t.Fatalf("ComputeRanges: %v", err)
	}
	second, err := ComputeRanges(from, to, 60)
	if err != nil {
		t.Fatalf("ComputeRanges: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same inputs produced different output:\n%+v\n%+v", first, second)
	}
}

func TestComputeRangesEmptyPartitionSet(t *testing.T) {
	if _, err := ComputeRanges(OffsetMap{}, OffsetMap{}, 10); !errors.Is(err, ErrNoPartitions) {
		t.Fatalf("expected ErrNoPartitions, got %v", err)
	}
}

func TestComputeRangesInvalidBudget(t *testing.T) {
	if _, err := ComputeRanges(OffsetMap{}, OffsetMap{tp(0): 1}, 0); !errors.Is(err, ErrInvalidBudget) {
		t.Fatalf("expected ErrInvalidBudget, got %v", err)
	}
}

func TestComputeRangesTrackedOffsetPastHead(t *testing.T) {
	_, err := ComputeRanges(OffsetMap{tp(0): 50}, OffsetMap{tp(0): 20}, 10)
	if !errors.Is(err, ErrOffsetOutOfRange) {
		t.Fatalf("expected ErrOffsetOutOfRange, got %v", err)
	}
}
