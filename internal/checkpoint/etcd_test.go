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
	"fmt"
	"net"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.etcd.io/etcd/server/v3/embed"

	"github.com/novatechflow/kafsource/internal/config"
)

func TestEtcdStoreRoundTrip(t *testing.T) {
	e, endpoints := startEmbeddedEtcd(t)
	defer e.Close()

	cfg := config.Config{
		Kafka:      config.KafkaConfig{Topic: "orders"},
		Checkpoint: config.CheckpointConfig{KeyPrefix: "kafsource", Etcd: config.EtcdConfig{Endpoints: endpoints}},
	}
	store, err := NewEtcdStore(cfg)
	if err != nil {
		t.Fatalf("NewEtcdStore: %v", err)
	}

	ctx := context.Background()
	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != "" {
		t.Fatalf("expected no checkpoint, got %q", loaded)
	}

	if err := store.Commit(ctx, "orders,0:100"); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	loaded, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != "orders,0:100" {
		t.Fatalf("unexpected checkpoint: %q", loaded)
	}

	// A later cycle supersedes the checkpoint in place.
	if err := store.Commit(ctx, "orders,0:250"); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	loaded, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != "orders,0:250" {
		t.Fatalf("unexpected checkpoint: %q", loaded)
	}
}

func TestEtcdStoreIsolatesTopics(t *testing.T) {
	e, endpoints := startEmbeddedEtcd(t)
	defer e.Close()

	ctx := context.Background()
	newStore := func(topic string) Store {
		cfg := config.Config{
			Kafka:      config.KafkaConfig{Topic: topic},
			Checkpoint: config.CheckpointConfig{KeyPrefix: "kafsource", Etcd: config.EtcdConfig{Endpoints: endpoints}},
		}
		store, err := NewEtcdStore(cfg)
		if err != nil {
			t.Fatalf("NewEtcdStore: %v", err)
		}
		return store
	}

	orders := newStore("orders")
	payments := newStore("payments")
	if err := orders.Commit(ctx, "orders,0:7"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	loaded, err := payments.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != "" {
		t.Fatalf("payments store leaked checkpoint %q", loaded)
	}
}

func startEmbeddedEtcd(t *testing.T) (*embed.Etcd, []string) {
	t.Helper()
	if err := portAvailable("127.0.0.1:32379"); err != nil {
		t.Skipf("skipping etcd checkpoint tests: %v", err)
	}
	if err := portAvailable("127.0.0.1:32380"); err != nil {
		t.Skipf("skipping etcd checkpoint tests: %v", err)
	}

	cfg := embed.NewConfig()
	cfg.Dir = t.TempDir()
	cfg.LogLevel = "error"
	cfg.Logger = "zap"
	setEtcdPorts(t, cfg, "32379", "32380")

	e, err := embed.StartEtcd(cfg)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping etcd checkpoint tests: %v", err)
		}
		t.Fatalf("start embedded etcd: %v", err)
	}
	select {
	case <-e.Server.ReadyNotify():
	case <-time.After(10 * time.Second):
		e.Server.Stop()
		t.Fatalf("etcd server took too long to start")
	}

	clientURL := e.Clients[0].Addr().String()
	return e, []string{fmt.Sprintf("http://%s", clientURL)}
}

func setEtcdPorts(t *testing.T, cfg *embed.Config, clientPort, peerPort string) {
	t.Helper()
	clientURL, err := url.Parse("http://127.0.0.1:" + clientPort)
	if err != nil {
		t.Fatalf("parse client url: %v", err)
	}
	peerURL, err := url.Parse("http://127.0.0.1:" + peerPort)
	if err != nil {
		t.Fatalf("parse peer url: %v", err)
	}
	cfg.ListenClientUrls = []url.URL{*clientURL}
	cfg.AdvertiseClientUrls = []url.URL{*clientURL}
	cfg.ListenPeerUrls = []url.URL{*peerURL}
	cfg.AdvertisePeerUrls = []url.URL{*peerURL}
	cfg.Name = "default"
	cfg.InitialCluster = cfg.InitialClusterFromName(cfg.Name)
}

func portAvailable(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %s already in use", addr)
	}
	_ = ln.Close()
	return nil
}
