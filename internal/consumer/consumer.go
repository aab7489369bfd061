// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package consumer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/tomtom215/pulse/internal/config"
	"github.com/tomtom215/pulse/internal/logging"
	"github.com/tomtom215/pulse/internal/metrics"
)

// Config holds consumer loop settings.
type Config struct {
	// Name identifies the loop in logs and supervisor reports.
	Name string
	// Group is the consumer group, used as a metric label.
	Group string
	// Concurrency is the number of partition workers. Partition p is
	// always handled by worker p mod Concurrency.
	Concurrency int
	// MaxPollRecords bounds a poll batch.
	MaxPollRecords int
	// DrainTimeout bounds how long shutdown waits for the in-flight batch.
	DrainTimeout time.Duration
}

// ConfigFrom builds the main pipeline loop settings.
func ConfigFrom(cfg *config.ConsumerConfig) Config {
	return Config{
		Name:           "event-consumer",
		Group:          cfg.Group,
		Concurrency:    cfg.Concurrency,
		MaxPollRecords: cfg.MaxPollRecords,
		DrainTimeout:   cfg.DrainTimeout,
	}
}

// MonitorConfigFrom builds the DLQ monitor loop settings. The monitor is a
// single sequential worker.
func MonitorConfigFrom(cfg *config.ConsumerConfig) Config {
	return Config{
		Name:           "dlq-monitor",
		Group:          cfg.DLQGroup,
		Concurrency:    1,
		MaxPollRecords: cfg.MaxPollRecords,
		DrainTimeout:   cfg.DrainTimeout,
	}
}

func (c *Config) withDefaults() {
	if c.Name == "" {
		c.Name = "consumer"
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 3
	}
	if c.MaxPollRecords <= 0 {
		c.MaxPollRecords = 100
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = 10 * time.Second
	}
}

// Stats holds consumer loop counters.
type Stats struct {
	Batches   int64
	Records   int64
	Commits   int64
	Abandoned int64
}

// Consumer is the poll/process/commit loop.
//
// Each poll batch is split by partition and handed to partition-affine
// workers; a worker handles its partitions strictly in offset order. A
// record's offset is marked only after its handler returns, and marked
// offsets are committed once per batch before the group may rebalance.
// Fetch errors are logged and never advance offsets.
type Consumer struct {
	client  Client
	handler Handler
	cfg     Config
	log     *logging.PipelineLogger

	batches   atomic.Int64
	records   atomic.Int64
	commits   atomic.Int64
	abandoned atomic.Int64
}

// New creates a consumer loop. The consumer owns client and closes it when
// Run returns.
func New(client Client, handler Handler, cfg Config) *Consumer {
	cfg.withDefaults()
	return &Consumer{
		client:  client,
		handler: handler,
		cfg:     cfg,
		log:     logging.NewPipelineLogger(cfg.Name),
	}
}

// String implements fmt.Stringer for supervisor logs.
func (c *Consumer) String() string { return c.cfg.Name }

// Stats returns a snapshot of the loop counters.
func (c *Consumer) Stats() Stats {
	return Stats{
		Batches:   c.batches.Load(),
		Records:   c.records.Load(),
		Commits:   c.commits.Load(),
		Abandoned: c.abandoned.Load(),
	}
}

// Run polls until ctx is canceled or the client is closed. On cancellation
// the in-flight batch is drained for up to DrainTimeout and committed; if
// the deadline passes the batch is abandoned uncommitted so the group
// redelivers it.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.client.Close()

	logging.Info().Str("consumer", c.cfg.Name).Str("group", c.cfg.Group).
		Int("concurrency", c.cfg.Concurrency).Msg("Consumer started")

	for {
		if ctx.Err() != nil {
			logging.Info().Str("consumer", c.cfg.Name).Msg("Consumer stopped")
			return nil
		}

		fetches := c.client.PollRecords(ctx, c.cfg.MaxPollRecords)
		if fetches.IsClientClosed() {
			return nil
		}

		fetchErrors := 0
		fetches.EachError(func(topic string, partition int32, err error) {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			fetchErrors++
			logging.Warn().Err(err).Str("consumer", c.cfg.Name).Str("topic", topic).
				Int32("partition", partition).Msg("Fetch error")
		})

		byTopic := make(map[string]int)
		fetches.EachRecord(func(rec *kgo.Record) { byTopic[rec.Topic]++ })
		metrics.RecordPoll(c.cfg.Group, byTopic, fetchErrors)

		if fetches.NumRecords() == 0 {
			c.client.AllowRebalance()
			continue
		}

		start := time.Now()
		if !c.processBatch(ctx, fetches) {
			c.abandoned.Add(1)
			metrics.RecordDrainTimeout(c.cfg.Group)
			logging.Warn().Str("consumer", c.cfg.Name).Dur("drain_timeout", c.cfg.DrainTimeout).
				Msg("Drain deadline passed, leaving batch uncommitted for redelivery")
			return nil
		}
		c.batches.Add(1)

		c.commit(ctx)
		c.log.LogBatchCommitted(fetches.NumRecords(), time.Since(start))
		c.client.AllowRebalance()
	}
}

// Serve implements suture.Service. Run closes the client on the way out,
// so a loop that stops while ctx is still live cannot be restarted in
// place; the tree is terminated and the process exits instead.
func (c *Consumer) Serve(ctx context.Context) error {
	if err := c.Run(ctx); err != nil {
		return err
	}
	if ctx.Err() == nil {
		logging.Error().Str("consumer", c.cfg.Name).Msg("Kafka client closed outside shutdown")
		return suture.ErrTerminateSupervisorTree
	}
	return nil
}

// processBatch hands every partition of fetches to its worker and waits.
// It reports false when ctx was canceled and the workers did not finish
// within the drain deadline.
func (c *Consumer) processBatch(ctx context.Context, fetches kgo.Fetches) bool {
	assignments := make([][]kgo.FetchTopicPartition, c.cfg.Concurrency)
	fetches.EachPartition(func(p kgo.FetchTopicPartition) {
		if len(p.Records) == 0 {
			return
		}
		w := workerFor(p.Partition, c.cfg.Concurrency)
		assignments[w] = append(assignments[w], p)
	})

	// Records keep running after shutdown is requested; only the drain
	// deadline cancels them.
	workCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()

	var wg sync.WaitGroup
	for _, parts := range assignments {
		if len(parts) == 0 {
			continue
		}
		wg.Add(1)
		go func(parts []kgo.FetchTopicPartition) {
			defer wg.Done()
			c.runWorker(workCtx, parts)
		}(parts)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
	}

	timer := time.NewTimer(c.cfg.DrainTimeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

// runWorker handles the partitions assigned to one worker in order.
func (c *Consumer) runWorker(ctx context.Context, parts []kgo.FetchTopicPartition) {
	for _, p := range parts {
		for _, rec := range p.Records {
			if ctx.Err() != nil {
				return
			}
			recCtx := logging.ContextWithNewCorrelationID(ctx)
			c.handler.HandleRecord(recCtx, rec)
			c.client.MarkCommitRecords(rec)
			c.records.Add(1)
		}
	}
}

// commit commits marked offsets. It runs even when ctx is already
// canceled, since the batch has been fully handled.
func (c *Consumer) commit(ctx context.Context) {
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.DrainTimeout)
	defer cancel()

	err := c.client.CommitMarkedOffsets(commitCtx)
	metrics.RecordCommit(c.cfg.Group, err)
	if err != nil {
		logging.Error().Err(err).Str("consumer", c.cfg.Name).Msg("Offset commit failed, records will be redelivered")
		return
	}
	c.commits.Add(1)
}

// workerFor maps a partition to a worker index.
func workerFor(partition int32, workers int) int {
	w := int(partition) % workers
	if w < 0 {
		w += workers
	}
	return w
}
