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

// Package checkpoint persists the opaque checkpoint string between
// ingestion cycles. The string itself is produced and consumed by
// pkg/offsets; stores never inspect it.
package checkpoint

import (
	"context"
	"sync"

	"github.com/novatechflow/kafsource/internal/config"
)

// Store loads and commits the checkpoint string for one topic. Load
// returns the empty string when no checkpoint exists yet.
type Store interface {
	Load(ctx context.Context) (string, error)
	Commit(ctx context.Context, checkpoint string) error
}

// New builds the store selected by the configuration.
func New(cfg config.Config) (Store, error) {
	if cfg.Checkpoint.Backend == "memory" {
		return NewMemoryStore(), nil
	}
	return NewEtcdStore(cfg)
}

// MemoryStore keeps the checkpoint in process memory, for tests and
// local development.
type MemoryStore struct {
	mu         sync.Mutex
	checkpoint string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkpoint, nil
}

func (s *MemoryStore) Commit(ctx context.Context, checkpoint string) error {
	s.mu.Lock()
	s.checkpoint = checkpoint
	s.mu.Unlock()
	return nil
}
