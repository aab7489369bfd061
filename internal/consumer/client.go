// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package consumer

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/tomtom215/pulse/internal/config"
	"github.com/tomtom215/pulse/internal/logging"
)

// Client is the subset of *kgo.Client the consumer loop uses.
type Client interface {
	PollRecords(ctx context.Context, maxPollRecords int) kgo.Fetches
	MarkCommitRecords(rs ...*kgo.Record)
	CommitMarkedOffsets(ctx context.Context) error
	AllowRebalance()
	Close()
}

// NewClient creates a group consumer for topics with manual offset
// management: auto-commit is off and rebalances wait until the loop calls
// AllowRebalance, so a batch is always committed by the member that
// processed it. A new group starts from the earliest offset.
func NewClient(kafka *config.KafkaConfig, consumer *config.ConsumerConfig, group string, topics []string, opts ...kgo.Opt) (*kgo.Client, error) {
	kopts := []kgo.Opt{
		kgo.SeedBrokers(kafka.Brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topics...),
		kgo.DisableAutoCommit(),
		kgo.BlockRebalanceOnPoll(),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.WithLogger(logging.NewKgoLogger("kafka")),
	}
	if kafka.ClientID != "" {
		kopts = append(kopts, kgo.ClientID(kafka.ClientID))
	}
	if consumer.FetchMaxWait > 0 {
		kopts = append(kopts, kgo.FetchMaxWait(consumer.FetchMaxWait))
	}
	if consumer.SessionTimeout > 0 {
		kopts = append(kopts, kgo.SessionTimeout(consumer.SessionTimeout))
	}
	if consumer.HeartbeatInterval > 0 {
		kopts = append(kopts, kgo.HeartbeatInterval(consumer.HeartbeatInterval))
	}
	kopts = append(kopts, opts...)

	cl, err := kgo.NewClient(kopts...)
	if err != nil {
		return nil, fmt.Errorf("new kafka consumer %s: %w", group, err)
	}
	return cl, nil
}
