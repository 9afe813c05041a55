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

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MaxEventsPerCycle caps a single cycle regardless of configuration, to
// bound the memory and time one batch can consume.
const MaxEventsPerCycle = 1_000_000

// Config defines the connector configuration schema.
type Config struct {
	Kafka      KafkaConfig      `yaml:"kafka"`
	Limits     LimitsConfig     `yaml:"limits"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Sink       SinkConfig       `yaml:"sink"`
	Source     SourceConfig     `yaml:"source"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"`
	Topic         string   `yaml:"topic"`
	ResetStrategy string   `yaml:"reset_strategy"`
}

type LimitsConfig struct {
	MaxEventsPerCycle int64 `yaml:"max_events_per_cycle"`
}

type CheckpointConfig struct {
	Backend   string     `yaml:"backend"`
	KeyPrefix string     `yaml:"key_prefix"`
	Etcd      EtcdConfig `yaml:"etcd"`
}

type EtcdConfig struct {
	Endpoints []string `yaml:"endpoints"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
}

type SinkConfig struct {
	Backend   string `yaml:"backend"`
	Bucket    string `yaml:"bucket"`
	Namespace string `yaml:"namespace"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

type SourceConfig struct {
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads and validates the configuration file. Validation failures
// are fatal; the daemon must not start with a half-usable config.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if len(cfg.Kafka.Brokers) == 0 {
		return Config{}, fmt.Errorf("kafka.brokers is required")
	}
	if cfg.Kafka.Topic == "" {
		return Config{}, fmt.Errorf("kafka.topic is required")
	}
	if cfg.Limits.MaxEventsPerCycle <= 0 {
		cfg.Limits.MaxEventsPerCycle = MaxEventsPerCycle
	}
	if cfg.Limits.MaxEventsPerCycle > MaxEventsPerCycle {
		cfg.Limits.MaxEventsPerCycle = MaxEventsPerCycle
	}
	if cfg.Checkpoint.Backend == "" {
		cfg.Checkpoint.Backend = "etcd"
	}
	if cfg.Checkpoint.KeyPrefix == "" {
		cfg.Checkpoint.KeyPrefix = "kafsource"
	}
	switch cfg.Checkpoint.Backend {
	case "etcd":
		if len(cfg.Checkpoint.Etcd.Endpoints) == 0 {
			return Config{}, fmt.Errorf("checkpoint.etcd.endpoints is required for checkpoint.backend=etcd")
		}
	case "memory":
	default:
		return Config{}, fmt.Errorf("checkpoint.backend %q is not supported", cfg.Checkpoint.Backend)
	}
	if cfg.Sink.Backend == "" {
		cfg.Sink.Backend = "s3"
	}
	switch cfg.Sink.Backend {
	case "s3":
		if cfg.Sink.Bucket == "" {
			return Config{}, fmt.Errorf("sink.bucket is required for sink.backend=s3")
		}
		if cfg.Sink.Region == "" {
			cfg.Sink.Region = "us-east-1"
		}
	case "memory":
	default:
		return Config{}, fmt.Errorf("sink.backend %q is not supported", cfg.Sink.Backend)
	}
	if cfg.Sink.Namespace == "" {
		cfg.Sink.Namespace = "default"
	}
	if cfg.Source.PollIntervalSeconds == 0 {
		cfg.Source.PollIntervalSeconds = 5
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":19095"
	}

	return cfg, nil
}
