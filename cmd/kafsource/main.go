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

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/novatechflow/kafsource/internal/broker"
	"github.com/novatechflow/kafsource/internal/checkpoint"
	"github.com/novatechflow/kafsource/internal/config"
	"github.com/novatechflow/kafsource/internal/server"
	"github.com/novatechflow/kafsource/internal/sink"
	"github.com/novatechflow/kafsource/internal/source"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config/config.yaml", "Path to connector config")
	flag.Parse()

	logger := newLogger()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kafka, err := broker.NewKafkaClient(cfg.Kafka.Brokers)
	if err != nil {
		logger.Error("failed to connect to kafka", "error", err)
		os.Exit(1)
	}
	defer kafka.Close()

	store, err := checkpoint.New(cfg)
	if err != nil {
		logger.Error("failed to build checkpoint store", "error", err)
		os.Exit(1)
	}

	writer, err := sink.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to build sink", "error", err)
		os.Exit(1)
	}

	src, err := source.New(cfg, kafka, kafka, store, writer, logger)
	if err != nil {
		logger.Error("failed to build source", "error", err)
		os.Exit(1)
	}

	server.Start(ctx, cfg.Metrics.Addr, logger)

	if err := src.Run(ctx); err != nil {
		logger.Error("source stopped with error", "error", err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("KAFSOURCE_LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("component", "kafsource")
}
