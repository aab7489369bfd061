// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/goccy/go-json"

	"github.com/tomtom215/pulse/internal/config"
	"github.com/tomtom215/pulse/internal/logging"
	"github.com/tomtom215/pulse/internal/metrics"
	"github.com/tomtom215/pulse/internal/models"
)

// Searchable keyword fields.
const (
	FieldEventType = "eventType"
	FieldUserID    = "userId"
	FieldRegion    = "region"
	FieldSource    = "source"
	FieldSessionID = "sessionId"
)

// MaxResultWindow is the index.max_result_window default: from+size of a
// search may not exceed it.
const MaxResultWindow = 10000

// ErrResultWindow is returned for a page that ends past MaxResultWindow.
var ErrResultWindow = errors.New("page exceeds the search result window")

var searchableFields = map[string]bool{
	FieldEventType: true,
	FieldUserID:    true,
	FieldRegion:    true,
	FieldSource:    true,
	FieldSessionID: true,
}

// ErrUnknownField is returned by SearchByField for a field that is not a
// keyword field of the index.
var ErrUnknownField = errors.New("search: unknown field")

// indexMapping keeps the identifying fields as exact-match keywords.
// Payloads differ per event type, so they are stored but not indexed.
const indexMapping = `{
  "mappings": {
    "properties": {
      "eventId":   {"type": "keyword"},
      "eventType": {"type": "keyword"},
      "userId":    {"type": "keyword"},
      "sessionId": {"type": "keyword"},
      "source":    {"type": "keyword"},
      "region":    {"type": "keyword"},
      "timestamp": {"type": "date"},
      "payload":   {"type": "object", "enabled": false}
    }
  }
}`

// Index is the search sink: one Elasticsearch index of event documents
// keyed by eventId.
type Index struct {
	client  *elasticsearch.Client
	index   string
	timeout time.Duration
}

// New creates a client for cfg.Addresses. No request is made until the
// first call.
func New(cfg *config.SearchConfig) (*Index, error) {
	return NewWithTransport(cfg, nil)
}

// NewWithTransport is New with a custom HTTP transport (nil means default).
func NewWithTransport(cfg *config.SearchConfig, transport http.RoundTripper) (*Index, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Index{client: client, index: cfg.Index, timeout: timeout}, nil
}

// Name returns the index name.
func (ix *Index) Name() string {
	return ix.index
}

func (ix *Index) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < ix.timeout {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, ix.timeout)
}

// EnsureIndex creates the index with its mapping if it does not exist.
func (ix *Index) EnsureIndex(ctx context.Context) (err error) {
	defer func(start time.Time) { metrics.RecordSearchRequest("ensure_index", time.Since(start), err) }(time.Now())

	ctx, cancel := ix.withTimeout(ctx)
	defer cancel()

	res, err := ix.client.Indices.Exists([]string{ix.index},
		ix.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", ix.index, err)
	}
	drain(res)
	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("check index %s: unexpected status %d", ix.index, res.StatusCode)
	}

	res, err = ix.client.Indices.Create(ix.index,
		ix.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
		ix.client.Indices.Create.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("create index %s: %w", ix.index, err)
	}
	defer drain(res)
	if res.IsError() {
		body := responseError(res)
		// Lost a creation race with another instance.
		if strings.Contains(body, "resource_already_exists_exception") {
			return nil
		}
		return fmt.Errorf("create index %s: %s", ix.index, body)
	}

	logging.Info().Str("index", ix.index).Msg("Created search index")
	return nil
}

// Upsert writes doc under its eventId; the last write wins. Documents
// without an eventId get a generated id.
func (ix *Index) Upsert(ctx context.Context, doc *models.EventDocument) (err error) {
	defer func(start time.Time) { metrics.RecordSearchRequest("index", time.Since(start), err) }(time.Now())

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	ctx, cancel := ix.withTimeout(ctx)
	defer cancel()

	opts := []func(*esapi.IndexRequest){ix.client.Index.WithContext(ctx)}
	if doc.EventID != "" {
		opts = append(opts, ix.client.Index.WithDocumentID(doc.EventID))
	}
	res, err := ix.client.Index(ix.index, bytes.NewReader(body), opts...)
	if err != nil {
		return fmt.Errorf("index document %s: %w", doc.EventID, err)
	}
	defer drain(res)
	if res.IsError() {
		return fmt.Errorf("index document %s: %s", doc.EventID, responseError(res))
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source models.EventDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchByField returns one page of documents whose keyword field equals
// value, newest first.
func (ix *Index) SearchByField(ctx context.Context, field, value string, pr models.PageRequest) (page models.Page[models.EventDocument], err error) {
	if !searchableFields[field] {
		return page, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	if pr.Size < 1 || pr.Page < 0 || pr.Page >= MaxResultWindow/pr.Size {
		return page, fmt.Errorf("%w: page %d of size %d", ErrResultWindow, pr.Page, pr.Size)
	}
	defer func(start time.Time) { metrics.RecordSearchRequest("search", time.Since(start), err) }(time.Now())

	q := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{field: value},
		},
		"sort": []interface{}{
			map[string]interface{}{"timestamp": map[string]string{"order": "desc"}},
		},
		"from": pr.Offset(),
		"size": pr.Size,
	}
	body, err := json.Marshal(q)
	if err != nil {
		return page, fmt.Errorf("encode query: %w", err)
	}

	ctx, cancel := ix.withTimeout(ctx)
	defer cancel()

	res, err := ix.client.Search(
		ix.client.Search.WithContext(ctx),
		ix.client.Search.WithIndex(ix.index),
		ix.client.Search.WithBody(bytes.NewReader(body)),
		ix.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return page, fmt.Errorf("search %s=%s: %w", field, value, err)
	}
	defer drain(res)
	if res.IsError() {
		return page, fmt.Errorf("search %s=%s: %s", field, value, responseError(res))
	}

	var sr searchResponse
	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	if err := dec.Decode(&sr); err != nil {
		return page, fmt.Errorf("decode search response: %w", err)
	}

	docs := make([]models.EventDocument, 0, len(sr.Hits.Hits))
	for _, h := range sr.Hits.Hits {
		docs = append(docs, h.Source)
	}
	return models.NewPage(docs, pr.Page, pr.Size, sr.Hits.Total.Value), nil
}

// Ping checks that the cluster answers.
func (ix *Index) Ping(ctx context.Context) error {
	ctx, cancel := ix.withTimeout(ctx)
	defer cancel()

	res, err := ix.client.Ping(ix.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping elasticsearch: %w", err)
	}
	defer drain(res)
	if res.IsError() {
		return fmt.Errorf("ping elasticsearch: status %d", res.StatusCode)
	}
	return nil
}

// drain reads and closes the body so the connection can be reused.
func drain(res *esapi.Response) {
	if res == nil || res.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
}

// responseError extracts the error type and reason from an error response.
func responseError(res *esapi.Response) string {
	var e struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	if err := json.NewDecoder(res.Body).Decode(&e); err != nil || e.Error.Type == "" {
		return res.Status()
	}
	return fmt.Sprintf("%s: %s: %s", res.Status(), e.Error.Type, e.Error.Reason)
}
