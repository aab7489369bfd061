// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/tomtom215/pulse/internal/config"
)

// recordingOpener hands out unconnected clients and fails for the groups
// in fail.
type recordingOpener struct {
	fail    map[string]bool
	groups  []string
	clients []*kgo.Client
}

func (o *recordingOpener) open(t *testing.T) clientOpener {
	return func(group string, _ []string) (*kgo.Client, error) {
		o.groups = append(o.groups, group)
		if o.fail[group] {
			return nil, errors.New("bad client options")
		}
		cl, err := kgo.NewClient(kgo.SeedBrokers("127.0.0.1:1"))
		if err != nil {
			t.Fatalf("kgo.NewClient: %v", err)
		}
		o.clients = append(o.clients, cl)
		return cl, nil
	}
}

// isClosed polls briefly: a closed client answers with an injected
// ErrClientClosed fetch, an open one waits out the deadline.
func isClosed(cl *kgo.Client) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	return cl.PollFetches(ctx).IsClientClosed()
}

func TestOpenConsumerClients_MonitorFailureClosesPipelineClient(t *testing.T) {
	cfg := config.Default()
	cfg.Consumer.DLQMonitorEnabled = true
	o := &recordingOpener{fail: map[string]bool{cfg.Consumer.DLQGroup: true}}

	pipeline, monitor, err := openConsumerClients(cfg, o.open(t))
	if err == nil {
		t.Fatal("expected the monitor client error")
	}
	if pipeline != nil || monitor != nil {
		t.Error("clients returned alongside an error")
	}
	if len(o.clients) != 1 {
		t.Fatalf("opened %d clients, want 1", len(o.clients))
	}
	if !isClosed(o.clients[0]) {
		t.Error("pipeline client left open after the monitor client failed")
	}
}

func TestOpenConsumerClients(t *testing.T) {
	tests := []struct {
		name        string
		monitor     bool
		wantGroups  int
		wantMonitor bool
	}{
		{name: "pipeline only", monitor: false, wantGroups: 1},
		{name: "pipeline and monitor", monitor: true, wantGroups: 2, wantMonitor: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Consumer.DLQMonitorEnabled = tt.monitor
			o := &recordingOpener{}

			pipeline, monitor, err := openConsumerClients(cfg, o.open(t))
			if err != nil {
				t.Fatalf("openConsumerClients: %v", err)
			}
			t.Cleanup(func() {
				for _, cl := range o.clients {
					cl.Close()
				}
			})
			if pipeline == nil {
				t.Fatal("no pipeline client")
			}
			if (monitor != nil) != tt.wantMonitor {
				t.Errorf("monitor client = %v, want present %v", monitor, tt.wantMonitor)
			}
			if len(o.groups) != tt.wantGroups || o.groups[0] != cfg.Consumer.Group {
				t.Errorf("groups = %v", o.groups)
			}
			if isClosed(pipeline) {
				t.Error("pipeline client closed on success")
			}
		})
	}
}
