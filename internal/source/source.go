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

// Package source drives the allocate-then-fetch ingestion cycle. A cycle
// either completes fully (batch written, checkpoint committed) or leaves
// the previous checkpoint authoritative; offsets never advance partially.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/novatechflow/kafsource/internal/broker"
	"github.com/novatechflow/kafsource/internal/checkpoint"
	"github.com/novatechflow/kafsource/internal/config"
	"github.com/novatechflow/kafsource/internal/metrics"
	"github.com/novatechflow/kafsource/internal/sink"
	"github.com/novatechflow/kafsource/pkg/offsets"
)

// Source wires the broker, checkpoint store, and sink into the poll loop.
type Source struct {
	cfg    config.Config
	meta   broker.Metadata
	fetch  broker.Fetcher
	store  checkpoint.Store
	sink   sink.Writer
	reset  ResetPolicy
	logger *slog.Logger
	now    func() time.Time
}

// New validates the reset strategy and assembles a source. Strategy
// errors are fatal and reported before any broker interaction.
func New(cfg config.Config, meta broker.Metadata, fetcher broker.Fetcher, store checkpoint.Store, writer sink.Writer, logger *slog.Logger) (*Source, error) {
	reset, err := ParseResetPolicy(cfg.Kafka.ResetStrategy)
	if err != nil {
		return nil, err
	}
	return &Source{
		cfg:    cfg,
		meta:   meta,
		fetch:  fetcher,
		store:  store,
		sink:   writer,
		reset:  reset,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Run polls until the context is cancelled. A failed cycle is logged and
// retried on the next tick from the unchanged checkpoint.
func (s *Source) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.Source.PollIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("source started", "topic", s.cfg.Kafka.Topic, "reset", s.reset.String(), "poll_interval", interval)
	for {
		select {
		case <-ctx.Done():
			return s.sink.Close(context.Background())
		case <-ticker.C:
			if err := s.RunCycle(ctx); err != nil {
				s.logger.Error("cycle failed", "topic", s.cfg.Kafka.Topic, "error", err)
				metrics.CyclesTotal.WithLabelValues(s.cfg.Kafka.Topic, "error").Inc()
			}
		}
	}
}

// RunCycle performs one allocate-then-fetch cycle.
func (s *Source) RunCycle(ctx context.Context) error {
	topic := s.cfg.Kafka.Topic
	start := s.now()

	last, err := s.store.Load(ctx)
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("checkpoint").Inc()
		return fmt.Errorf("load checkpoint: %w", err)
	}

	partitions, err := s.meta.ListPartitions(ctx, topic)
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("metadata").Inc()
		return fmt.Errorf("list partitions: %w", err)
	}

	from, err := s.startingOffsets(ctx, topic, partitions, last)
	if err != nil {
		return err
	}

	to, err := s.meta.LatestOffsets(ctx, topic, partitions)
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("metadata").Inc()
		return fmt.Errorf("latest offsets: %w", err)
	}

	budget := s.cfg.Limits.MaxEventsPerCycle
	if budget <= 0 || budget > config.MaxEventsPerCycle {
		budget = config.MaxEventsPerCycle
	}
	ranges, err := offsets.ComputeRanges(from, to, budget)
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("allocate").Inc()
		return fmt.Errorf("compute ranges: %w", err)
	}
	plan, err := offsets.Summarize(ranges)
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("allocate").Inc()
		return fmt.Errorf("summarize ranges: %w", err)
	}

	if !plan.HasData {
		s.logger.Debug("no new events", "topic", topic, "checkpoint", plan.NextCheckpoint)
		metrics.CyclesTotal.WithLabelValues(topic, "idle").Inc()
		return nil
	}

	s.logger.Info("allocated batch", "topic", topic, "events", plan.TotalEvents, "partitions", len(ranges))
	metrics.EventsAllocatedTotal.WithLabelValues(topic).Add(float64(plan.TotalEvents))

	records, err := s.fetch.Fetch(ctx, ranges)
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("fetch").Inc()
		return fmt.Errorf("fetch records: %w", err)
	}

	batch := sink.Batch{
		Topic:      topic,
		CycleID:    fmt.Sprintf("%016x", start.UnixNano()),
		Checkpoint: plan.NextCheckpoint,
		Records:    records,
	}
	if err := s.sink.Write(ctx, batch); err != nil {
		metrics.ErrorsTotal.WithLabelValues("sink").Inc()
		return fmt.Errorf("write batch: %w", err)
	}

	// Commit strictly after the batch output is durable; a crash between
	// the two re-reads the same ranges next cycle.
	if err := s.store.Commit(ctx, plan.NextCheckpoint); err != nil {
		metrics.ErrorsTotal.WithLabelValues("checkpoint").Inc()
		return fmt.Errorf("commit checkpoint: %w", err)
	}

	metrics.CyclesTotal.WithLabelValues(topic, "ok").Inc()
	metrics.RecordsFetchedTotal.WithLabelValues(topic).Add(float64(len(records)))
	metrics.CycleLatency.WithLabelValues(topic).Observe(float64(time.Since(start).Milliseconds()))
	for _, r := range ranges {
		partition := fmt.Sprintf("%d", r.TopicPartition.Partition)
		metrics.CheckpointOffset.WithLabelValues(topic, partition).Set(float64(r.Until))
		metrics.PartitionLag.WithLabelValues(topic, partition).Set(float64(to[r.TopicPartition] - r.Until))
	}
	s.logger.Info("cycle committed", "topic", topic, "events", plan.TotalEvents, "records", len(records), "checkpoint", plan.NextCheckpoint)
	return nil
}

// startingOffsets decodes the prior checkpoint, or resolves initial
// offsets via the reset policy when none exists.
func (s *Source) startingOffsets(ctx context.Context, topic string, partitions []int32, last string) (offsets.OffsetMap, error) {
	if last != "" {
		from, err := offsets.DecodeCheckpoint(last)
		if err != nil {
			metrics.ErrorsTotal.WithLabelValues("checkpoint").Inc()
			return nil, fmt.Errorf("decode checkpoint: %w", err)
		}
		for tp := range from {
			if tp.Topic != topic {
				metrics.ErrorsTotal.WithLabelValues("checkpoint").Inc()
				return nil, fmt.Errorf("checkpoint topic %q does not match configured topic %q", tp.Topic, topic)
			}
		}
		return from, nil
	}

	var (
		from offsets.OffsetMap
		err  error
	)
	if s.reset == ResetEarliest {
		from, err = s.meta.EarliestOffsets(ctx, topic, partitions)
	} else {
		from, err = s.meta.LatestOffsets(ctx, topic, partitions)
	}
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("metadata").Inc()
		return nil, fmt.Errorf("resolve %s offsets: %w", s.reset, err)
	}
	return from, nil
}
