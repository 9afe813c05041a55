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

package broker

import (
	"context"
	"fmt"
	"sort"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/novatechflow/kafsource/pkg/offsets"
)

// KafkaClient implements Metadata and Fetcher against a live cluster.
type KafkaClient struct {
	seeds []string
	admin *kadm.Client
	inner *kgo.Client
}

// NewKafkaClient dials the cluster and returns a client for metadata and
// record fetches.
func NewKafkaClient(brokers []string) (*KafkaClient, error) {
	client, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaClient{
		seeds: brokers,
		admin: kadm.NewClient(client),
		inner: client,
	}, nil
}

// Close releases the underlying connections.
func (c *KafkaClient) Close() {
	c.inner.Close()
}

func (c *KafkaClient) ListPartitions(ctx context.Context, topic string) ([]int32, error) {
	meta, err := c.admin.Metadata(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("topic metadata %s: %w", topic, err)
	}
	detail, ok := meta.Topics[topic]
	if !ok {
		return nil, fmt.Errorf("topic %s not found", topic)
	}
	if detail.Err != nil {
		return nil, fmt.Errorf("topic metadata %s: %w", topic, detail.Err)
	}

	partitions := make([]int32, 0, len(detail.Partitions))
	for partition := range detail.Partitions {
		partitions = append(partitions, partition)
	}
	sort.Slice(partitions, func(i, j int) bool { return partitions[i] < partitions[j] })
	return partitions, nil
}

func (c *KafkaClient) EarliestOffsets(ctx context.Context, topic string, partitions []int32) (offsets.OffsetMap, error) {
	listed, err := c.admin.ListStartOffsets(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("list start offsets %s: %w", topic, err)
	}
	return collectOffsets(listed, topic, partitions)
}

func (c *KafkaClient) LatestOffsets(ctx context.Context, topic string, partitions []int32) (offsets.OffsetMap, error) {
	listed, err := c.admin.ListEndOffsets(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("list end offsets %s: %w", topic, err)
	}
	return collectOffsets(listed, topic, partitions)
}

func collectOffsets(listed kadm.ListedOffsets, topic string, partitions []int32) (offsets.OffsetMap, error) {
	if err := listed.Error(); err != nil {
		return nil, fmt.Errorf("list offsets %s: %w", topic, err)
	}

	out := make(offsets.OffsetMap, len(partitions))
	for _, partition := range partitions {
		l, ok := listed.Lookup(topic, partition)
		if !ok {
			return nil, fmt.Errorf("no offset listed for %s-%d", topic, partition)
		}
		out[offsets.TopicPartition{Topic: topic, Partition: partition}] = l.Offset
	}
	return out, nil
}

// Fetch consumes each range from its From offset until every partition
// reached its Until bound. A fresh consumer is used per call so cycle
// retries always restart from the checkpointed position.
func (c *KafkaClient) Fetch(ctx context.Context, ranges []offsets.OffsetRange) ([]Record, error) {
	col := newRangeCollector(ranges)
	if col.done() {
		return nil, nil
	}

	consume := make(map[string]map[int32]kgo.Offset)
	for _, r := range ranges {
		if r.Count() == 0 {
			continue
		}
		topic := r.TopicPartition.Topic
		if consume[topic] == nil {
			consume[topic] = make(map[int32]kgo.Offset)
		}
		consume[topic][r.TopicPartition.Partition] = kgo.NewOffset().At(r.From)
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(c.seeds...),
		kgo.ConsumePartitions(consume),
	)
	if err != nil {
		return nil, fmt.Errorf("create fetch client: %w", err)
	}
	defer client.Close()

	for !col.done() {
		fetches := client.PollFetches(ctx)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			return nil, fmt.Errorf("fetch %s-%d: %w", errs[0].Topic, errs[0].Partition, errs[0].Err)
		}
		fetches.EachRecord(func(record *kgo.Record) {
			col.add(record)
		})
	}

	return col.records, nil
}

// rangeCollector accumulates fetched records and tracks how far each
// partition still has to go. A partition is finished once a record at or
// past Until-1 is seen, so compaction gaps inside the range cannot stall
// the fetch. Records at or past Until are dropped.
type rangeCollector struct {
	pending map[offsets.TopicPartition]int64
	records []Record
}

func newRangeCollector(ranges []offsets.OffsetRange) *rangeCollector {
	col := &rangeCollector{
		pending: make(map[offsets.TopicPartition]int64, len(ranges)),
	}
	var total int64
	for _, r := range ranges {
		if r.Count() == 0 {
			continue
		}
		col.pending[r.TopicPartition] = r.Until
		total += r.Count()
	}
	col.records = make([]Record, 0, total)
	return col
}

func (c *rangeCollector) add(record *kgo.Record) {
	tp := offsets.TopicPartition{Topic: record.Topic, Partition: record.Partition}
	until, ok := c.pending[tp]
	if !ok {
		return
	}
	if record.Offset+1 >= until {
		delete(c.pending, tp)
	}
	if record.Offset >= until {
		return
	}
	var headers map[string][]byte
	if len(record.Headers) > 0 {
		headers = make(map[string][]byte, len(record.Headers))
		for _, h := range record.Headers {
			headers[h.Key] = h.Value
		}
	}
	c.records = append(c.records, Record{
		Topic:     record.Topic,
		Partition: record.Partition,
		Offset:    record.Offset,
		Timestamp: record.Timestamp.UnixMilli(),
		Key:       record.Key,
		Value:     record.Value,
		Headers:   headers,
	})
}

func (c *rangeCollector) done() bool {
	return len(c.pending) == 0
}
