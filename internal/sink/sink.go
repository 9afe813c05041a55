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

// Package sink writes each cycle's batch to durable storage. The
// checkpoint string travels with the batch object so progress and output
// land side by side.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/novatechflow/kafsource/internal/broker"
	"github.com/novatechflow/kafsource/internal/config"
)

// Batch is one cycle's output: the fetched records plus the checkpoint
// that describes how far they reach.
type Batch struct {
	Topic      string
	CycleID    string
	Checkpoint string
	Records    []broker.Record
}

// Writer persists batches.
type Writer interface {
	Write(ctx context.Context, batch Batch) error
	Close(ctx context.Context) error
}

// New builds the writer selected by the configuration.
func New(ctx context.Context, cfg config.Config) (Writer, error) {
	if cfg.Sink.Backend == "memory" {
		return NewMemoryWriter(), nil
	}
	return NewS3Writer(ctx, cfg)
}

func encodeRecords(records []broker.Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, record := range records {
		if err := enc.Encode(record); err != nil {
			return nil, fmt.Errorf("encode record %s-%d@%d: %w", record.Topic, record.Partition, record.Offset, err)
		}
	}
	return buf.Bytes(), nil
}

// MemoryWriter collects batches in memory for tests and local runs.
type MemoryWriter struct {
	mu      sync.Mutex
	batches []Batch
}

func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{}
}

func (w *MemoryWriter) Write(ctx context.Context, batch Batch) error {
	w.mu.Lock()
	w.batches = append(w.batches, batch)
	w.mu.Unlock()
	return nil
}

func (w *MemoryWriter) Close(ctx context.Context) error {
	return nil
}

// Batches returns a copy of everything written so far.
func (w *MemoryWriter) Batches() []Batch {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Batch(nil), w.batches...)
}
