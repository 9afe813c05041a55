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

package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/novatechflow/kafsource/internal/config"
)

type etcdStore struct {
	client *clientv3.Client
	key    string
}

type checkpointState struct {
	Checkpoint string `json:"checkpoint"`
	UpdatedAt  int64  `json:"updated_at"`
}

// NewEtcdStore connects to etcd and scopes the checkpoint under
// <prefix>/checkpoints/<topic>.
func NewEtcdStore(cfg config.Config) (Store, error) {
	if len(cfg.Checkpoint.Etcd.Endpoints) == 0 {
		return nil, fmt.Errorf("checkpoint.etcd.endpoints is required")
	}

	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Checkpoint.Etcd.Endpoints,
		Username:    cfg.Checkpoint.Etcd.Username,
		Password:    cfg.Checkpoint.Etcd.Password,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, err
	}

	return &etcdStore{
		client: client,
		key:    fmt.Sprintf("%s/checkpoints/%s", cfg.Checkpoint.KeyPrefix, cfg.Kafka.Topic),
	}, nil
}

func (s *etcdStore) Load(ctx context.Context) (string, error) {
	resp, err := s.client.Get(ctx, s.key)
	if err != nil {
		return "", fmt.Errorf("load checkpoint: %w", err)
	}
	if len(resp.Kvs) == 0 {
		return "", nil
	}

	var state checkpointState
	if err := json.Unmarshal(resp.Kvs[0].Value, &state); err != nil {
		return "", fmt.Errorf("decode checkpoint state: %w", err)
	}
	return state.Checkpoint, nil
}

func (s *etcdStore) Commit(ctx context.Context, checkpoint string) error {
	data, err := json.Marshal(checkpointState{
		Checkpoint: checkpoint,
		UpdatedAt:  time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}

	if _, err := s.client.Put(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	return nil
}
